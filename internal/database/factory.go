package database

import (
	"fmt"

	"ytgrab/internal/config"
	"ytgrab/internal/ports"
)

// New creates the ports.Database adapter selected by configuration.
func New(cfg *config.DatabaseConfig) (ports.Database, error) {
	switch cfg.Driver {
	case "sqlite":
		return NewSQLite(cfg.DataDir)
	case "postgres":
		return NewPostgres(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
