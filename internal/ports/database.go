package ports

import (
	"context"
	"database/sql"

	"github.com/Masterminds/squirrel"
)

// Database is the connection surface repositories are written against.
// Adapters wrap sqlx for scanning; Placeholder reports the parameter style
// the underlying driver expects so query building stays driver-agnostic.
type Database interface {
	// Execute runs a statement that does not return rows.
	Execute(ctx context.Context, query string, args ...interface{}) (sql.Result, error)

	// Get runs a query expected to return a single row and scans it into dest.
	Get(ctx context.Context, dest interface{}, query string, args ...interface{}) error

	// Select runs a query returning multiple rows and scans them into dest.
	Select(ctx context.Context, dest interface{}, query string, args ...interface{}) error

	// Placeholder returns the squirrel placeholder format for this driver.
	Placeholder() squirrel.PlaceholderFormat

	// Ping verifies the connection.
	Ping(ctx context.Context) error

	// Close closes the connection.
	Close() error
}
