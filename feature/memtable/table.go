package memtable

import (
	"context"
	"sync"

	"delta-apply/core/dataset"
	"delta-apply/core/reconcile"
)

// Table is an in-memory keyed table.
type Table struct {
	name string

	mu      sync.RWMutex
	current *dataset.Dataset

	// writing is held for the lifetime of an open writer.
	writing sync.Mutex
}

// New creates a table holding ds.
func New(name string, ds *dataset.Dataset) *Table {
	return &Table{name: name, current: ds}
}

// Name returns the backend name.
func (t *Table) Name() string {
	return "memtable:" + t.name
}

// ReadAll returns the current dataset.
func (t *Table) ReadAll(ctx context.Context) (*dataset.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return t.Snapshot(), nil
}

// Snapshot returns the current dataset. It is never modified afterwards.
func (t *Table) Snapshot() *dataset.Dataset {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current
}

// Begin opens a copy-on-write writer.
func (t *Table) Begin(ctx context.Context) (reconcile.Writer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !t.writing.TryLock() {
		return nil, &reconcile.BackendBusyError{Backend: t.Name(), Reason: "another writer is open"}
	}
	return &writer{table: t, editor: dataset.NewEditor(t.Snapshot())}, nil
}

type writer struct {
	table  *Table
	editor *dataset.Editor
	result *dataset.Dataset
	done   bool
}

func (w *writer) Atomic() bool { return true }

func (w *writer) DeleteRows(ctx context.Context, keyColumns []string, rows []dataset.Row) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return w.editor.Delete(keyColumns, rows), nil
}

func (w *writer) InsertRows(ctx context.Context, rows []dataset.Row) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return w.editor.Insert(rows)
}

func (w *writer) UpdateRows(ctx context.Context, keyColumns, columns []string, rows []dataset.Row) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return w.editor.Update(keyColumns, columns, rows)
}

func (w *writer) Commit(ctx context.Context) error {
	if w.done {
		return nil
	}
	ds, err := w.editor.Dataset()
	if err != nil {
		return err
	}

	w.table.mu.Lock()
	w.table.current = ds
	w.table.mu.Unlock()

	w.result = ds
	w.release()
	return nil
}

func (w *writer) Rollback(ctx context.Context) error {
	w.release()
	return nil
}

// Result returns the table as committed.
func (w *writer) Result() *dataset.Dataset {
	return w.result
}

func (w *writer) release() {
	if !w.done {
		w.done = true
		w.table.writing.Unlock()
	}
}
