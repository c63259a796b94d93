package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"delta-apply/core/dataset"
	"delta-apply/core/reconcile"
	"delta-apply/core/storage"
	"delta-apply/feature/delimited"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// Object is a delimited object backend.
type Object struct {
	client    storage.Client
	bucket    string
	key       string
	delimiter rune
	logger    *zap.Logger

	// writing is held for the lifetime of an open writer.
	writing sync.Mutex
}

// Option configures an Object.
type Option func(*Object)

// WithDelimiter sets the field delimiter.
func WithDelimiter(d rune) Option {
	return func(o *Object) { o.delimiter = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Object) { o.logger = l }
}

// New creates a backend for the object key in bucket. The delimiter
// defaults from the key's extension like delimited files.
func New(client storage.Client, bucket, key string, opts ...Option) *Object {
	o := &Object{
		client:    client,
		bucket:    bucket,
		key:       key,
		delimiter: delimited.DefaultDelimiter(key),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Name returns the backend name.
func (o *Object) Name() string {
	return "s3:" + o.bucket + "/" + o.key
}

// ReadAll downloads and parses the object.
func (o *Object) ReadAll(ctx context.Context) (*dataset.Dataset, error) {
	doc, _, err := o.load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Dataset(), nil
}

// load returns the parsed object and the ETag it was read at.
func (o *Object) load(ctx context.Context) (*delimited.Document, string, error) {
	exists, err := o.client.BucketExists(ctx, o.bucket)
	if err != nil {
		return nil, "", fmt.Errorf("failed to check bucket %s: %w", o.bucket, err)
	}
	if !exists {
		return nil, "", fmt.Errorf("bucket %s does not exist", o.bucket)
	}

	info, err := o.client.StatObject(ctx, o.bucket, o.key, minio.StatObjectOptions{})
	if err != nil {
		return nil, "", fmt.Errorf("failed to stat %s: %w", o.key, err)
	}

	// Pin the read to the version we just looked at.
	getOpts := minio.GetObjectOptions{}
	if info.ETag != "" {
		if err := getOpts.SetMatchETag(info.ETag); err != nil {
			return nil, "", err
		}
	}

	reader, err := o.client.GetObject(ctx, o.bucket, o.key, getOpts)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get %s: %w", o.key, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", o.key, err)
	}
	doc, err := delimited.Parse(data, o.delimiter)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", o.key, err)
	}
	return doc, info.ETag, nil
}

// Begin loads the object for editing.
func (o *Object) Begin(ctx context.Context) (reconcile.Writer, error) {
	if !o.writing.TryLock() {
		return nil, &reconcile.BackendBusyError{Backend: o.Name(), Reason: "another writer is open"}
	}

	doc, etag, err := o.load(ctx)
	if err != nil {
		o.writing.Unlock()
		return nil, err
	}

	return &writer{object: o, etag: etag, doc: doc, editor: dataset.NewEditor(doc.Dataset())}, nil
}

type writer struct {
	object *Object
	etag   string
	doc    *delimited.Document
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

// Commit uploads the edited object if nobody replaced it in the meantime.
func (w *writer) Commit(ctx context.Context) error {
	if w.done {
		return nil
	}
	o := w.object

	ds, err := w.editor.Dataset()
	if err != nil {
		return err
	}

	data, err := w.doc.Render(w.editor.Entries())
	if err != nil {
		return fmt.Errorf("failed to encode: %w", err)
	}

	info, err := o.client.StatObject(ctx, o.bucket, o.key, minio.StatObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", o.key, err)
	}
	if info.ETag != w.etag {
		return &reconcile.BackendBusyError{
			Backend: o.Name(),
			Reason:  fmt.Sprintf("object changed since it was read (etag %s, now %s)", w.etag, info.ETag),
		}
	}

	upload, err := o.client.PutObject(ctx, o.bucket, o.key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType(o.delimiter),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", o.key, err)
	}

	o.logger.Debug("Object replaced",
		zap.String("bucket", o.bucket),
		zap.String("key", o.key),
		zap.String("etag", upload.ETag),
		zap.Int("rows", ds.Len()),
	)

	w.result = ds
	w.release()
	return nil
}

func (w *writer) Rollback(ctx context.Context) error {
	w.release()
	return nil
}

func (w *writer) Result() *dataset.Dataset {
	return w.result
}

func (w *writer) Location() string {
	return w.object.bucket + "/" + w.object.key
}

func (w *writer) release() {
	if !w.done {
		w.done = true
		w.object.writing.Unlock()
	}
}

func contentType(delimiter rune) string {
	if delimiter == '\t' {
		return "text/tab-separated-values"
	}
	return "text/csv"
}
