// Package backend defines the remote content backend the dashboard reads
// from and writes to. Every data operation in the app goes through a
// Backend that is passed in explicitly; there is no global client.
package backend

import (
	"context"
	"time"
)

// Row is one record as returned by the backend. Nested documents are
// maps or json.RawMessage; timestamps are time.Time.
type Row map[string]any

// Query describes a read against a single table.
type Query struct {
	// Columns is the projection. Empty means every column.
	Columns []string

	// OrderBy names the sort column; Descending flips the direction.
	OrderBy    string
	Descending bool

	// Limit caps the number of rows. Zero means no cap.
	Limit int

	// SinceColumn/Since restrict rows to SinceColumn >= Since when Since
	// is non-zero.
	SinceColumn string
	Since       time.Time
}

// Backend is the remote collaborator: per named table it can count,
// select, fetch by id, insert, update by id and delete by id.
type Backend interface {
	// Count returns the row count without fetching rows. The count may be
	// nil when the backend does not report one.
	Count(ctx context.Context, table string) (*int64, error)

	Select(ctx context.Context, table string, q Query) ([]Row, error)

	// Get returns ErrNotFound when no row has the id.
	Get(ctx context.Context, table, id string) (Row, error)

	// Insert fails with an *Error carrying CodeUniqueViolation when the id
	// (or another unique column) already exists.
	Insert(ctx context.Context, table string, row Row) error

	// Update replaces the given columns of the row with the id.
	Update(ctx context.Context, table, id string, row Row) error

	Delete(ctx context.Context, table, id string) error

	Ping(ctx context.Context) error
}
