package config

import (
	"os"
	"strconv"
	"time"
)

// getEnv returns the value of an environment variable or a default when unset.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns an environment variable as an int, or the default when
// unset or unparsable.
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intVal
}

// getEnvInt64 returns an environment variable as an int64, or the default
// when unset or unparsable.
func getEnvInt64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intVal, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue
	}
	return intVal
}

// getEnvDuration returns an environment variable as a time.Duration parsed
// from formats like "300ms" or "2h45m", or the default when unset or invalid.
func getEnvDuration(key string, defaultValue string) time.Duration {
	fallback, _ := time.ParseDuration(defaultValue)

	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return duration
}
