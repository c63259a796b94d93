package delimited

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"delta-apply/core/dataset"
	"delta-apply/core/reconcile"

	"github.com/gofrs/flock"
	"github.com/moby/sys/atomicwriter"
	"go.uber.org/zap"
)

// File is a delimited file backend.
type File struct {
	path      string
	delimiter rune
	logger    *zap.Logger
}

// Option configures a File.
type Option func(*File)

// WithDelimiter sets the field delimiter.
func WithDelimiter(d rune) Option {
	return func(f *File) { f.delimiter = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(f *File) { f.logger = l }
}

// New creates a backend for the file at path. The delimiter defaults to a
// tab for .tsv files and a comma otherwise.
func New(path string, opts ...Option) *File {
	f := &File{
		path:      path,
		delimiter: DefaultDelimiter(path),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// DefaultDelimiter guesses the delimiter from a file name.
func DefaultDelimiter(name string) rune {
	if strings.EqualFold(filepath.Ext(name), ".tsv") {
		return '\t'
	}
	return ','
}

// Name returns the backend name.
func (f *File) Name() string {
	return "delimited:" + f.path
}

// Path returns the file path.
func (f *File) Path() string {
	return f.path
}

// ReadAll parses the whole file.
func (f *File) ReadAll(ctx context.Context) (*dataset.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := f.read()
	if err != nil {
		return nil, err
	}
	return doc.Dataset(), nil
}

func (f *File) read() (*Document, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, err
	}

	doc, err := Parse(data, f.delimiter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.path, err)
	}
	return doc, nil
}

// Begin locks the file and loads it for editing.
func (f *File) Begin(ctx context.Context) (reconcile.Writer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lock := flock.New(f.path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", f.path, err)
	}
	if !locked {
		return nil, &reconcile.BackendBusyError{Backend: f.Name(), Reason: "file is locked by another writer"}
	}

	doc, err := f.read()
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	return &writer{file: f, lock: lock, doc: doc, editor: dataset.NewEditor(doc.Dataset())}, nil
}

type writer struct {
	file   *File
	lock   *flock.Flock
	doc    *Document
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

// Commit replaces the file with the edited rows. Rows the edits did not touch
// keep their original bytes.
func (w *writer) Commit(ctx context.Context) error {
	if w.done {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	ds, err := w.editor.Dataset()
	if err != nil {
		return err
	}

	data, err := w.doc.Render(w.editor.Entries())
	if err != nil {
		return fmt.Errorf("failed to encode: %w", err)
	}

	perm := os.FileMode(0o644)
	if info, err := os.Stat(w.file.path); err == nil {
		perm = info.Mode().Perm()
	}
	if err := atomicwriter.WriteFile(w.file.path, data, perm); err != nil {
		return err
	}

	w.file.logger.Debug("File replaced",
		zap.String("path", w.file.path),
		zap.Int("rows", ds.Len()),
		zap.Int("bytes", len(data)),
	)

	w.result = ds
	return w.release()
}

// Rollback drops the edits. The file on disk was never touched.
func (w *writer) Rollback(ctx context.Context) error {
	return w.release()
}

func (w *writer) Result() *dataset.Dataset {
	return w.result
}

func (w *writer) Location() string {
	return w.file.path
}

func (w *writer) release() error {
	if w.done {
		return nil
	}
	w.done = true
	return w.lock.Unlock()
}
