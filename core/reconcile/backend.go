package reconcile

import (
	"context"

	"delta-apply/core/dataset"
)

// Backend is a storage medium a dataset can be read from and written back to.
// Implementations live in feature packages (memtable, delimited, relational,
// objectstore); the orchestrator only ever sees this interface.
type Backend interface {
	// Name identifies the backend in logs and errors, e.g. "delimited:/tmp/t.csv".
	Name() string

	// ReadAll loads the whole dataset. Reads may run concurrently with each
	// other.
	ReadAll(ctx context.Context) (*dataset.Dataset, error)

	// Begin opens the scope all writes of one Apply call go through.
	// Backends that detect another writer fail with a BackendBusyError.
	Begin(ctx context.Context) (Writer, error)
}

// Writer is an open write scope on a backend.
//
// Rows handed to the write primitives are source rows; implementations
// project them onto the target schema, filling target-only columns with null
// and dropping source-only ones.
type Writer interface {
	// Atomic reports whether nothing becomes visible before Commit. A
	// non-atomic writer makes each primitive durable when it returns.
	Atomic() bool

	// DeleteRows removes the rows matching each row's key.
	DeleteRows(ctx context.Context, keyColumns []string, rows []dataset.Row) (int, error)

	// InsertRows adds rows.
	InsertRows(ctx context.Context, rows []dataset.Row) (int, error)

	// UpdateRows sets columns on the rows matching each row's key.
	UpdateRows(ctx context.Context, keyColumns, columns []string, rows []dataset.Row) (int, error)

	// Commit makes the writes durable and releases the scope.
	Commit(ctx context.Context) error

	// Rollback discards uncommitted writes and releases the scope. It is
	// safe to call after Commit.
	Rollback(ctx context.Context) error
}

// Materializer is implemented by writers that can hand back the target as
// it stands after Commit.
type Materializer interface {
	Result() *dataset.Dataset
}

// Locator is implemented by writers that write to a named place (a path,
// a table, an object key).
type Locator interface {
	Location() string
}
