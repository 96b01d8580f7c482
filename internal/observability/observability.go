// Package observability provides per-component structured loggers and
// prometheus metrics behind narrow interfaces.
package observability

import (
	"io"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Fields is a set of structured logging fields.
type Fields map[string]interface{}

// Logger is the structured logging interface used throughout the service.
// Fields are passed as alternating key/value pairs.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})

	// WithFields returns a Logger that includes the given fields in every entry.
	WithFields(fields Fields) Logger
}

// Metrics records application metrics.
type Metrics interface {
	// IncrementCounter increments a counter by 1.
	IncrementCounter(name string, tags map[string]string)
	// RecordHistogram records a value in a histogram distribution.
	RecordHistogram(name string, value float64, tags map[string]string)
	// RecordGauge records a point-in-time measurement.
	RecordGauge(name string, value float64, tags map[string]string)
}

// Config holds observability settings.
type Config struct {
	ServiceName string
	Environment string
	LogLevel    string
	LogOutput   io.Writer
}

// Provider hands out Logger and Metrics instances scoped to a component.
type Provider struct {
	config   *Config
	registry *prometheus.Registry

	mu      sync.Mutex
	loggers map[string]Logger
	metrics map[string]Metrics
}

// NewProvider creates a Provider with its own prometheus registry.
func NewProvider(config *Config) *Provider {
	if config.LogOutput == nil {
		config.LogOutput = os.Stdout
	}
	return &Provider{
		config:   config,
		registry: prometheus.NewRegistry(),
		loggers:  make(map[string]Logger),
		metrics:  make(map[string]Metrics),
	}
}

// Logger returns the Logger for a component, creating it on first use.
func (p *Provider) Logger(component string) Logger {
	p.mu.Lock()
	defer p.mu.Unlock()

	if l, ok := p.loggers[component]; ok {
		return l
	}
	l := newLogrusLogger(p.config, component)
	p.loggers[component] = l
	return l
}

// Metrics returns the Metrics for a component, creating it on first use.
func (p *Provider) Metrics(component string) Metrics {
	p.mu.Lock()
	defer p.mu.Unlock()

	if m, ok := p.metrics[component]; ok {
		return m
	}
	m := newPrometheusMetrics(p.registry, p.config.ServiceName, component)
	p.metrics[component] = m
	return m
}

// Registry exposes the prometheus registry for the /metrics endpoint.
func (p *Provider) Registry() *prometheus.Registry {
	return p.registry
}
