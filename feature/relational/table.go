package relational

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"delta-apply/core/database"
	"delta-apply/core/dataset"
	"delta-apply/core/reconcile"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultBatchSize is the number of rows per multi-row statement.
const DefaultBatchSize = 500

// Table is a relational table backend.
type Table struct {
	db                 *gorm.DB
	table              string
	batchSize          int
	perPartitionCommit bool
	logger             *zap.Logger
}

// Option configures a Table.
type Option func(*Table)

// WithPerPartitionCommit commits each partition in its own transaction.
func WithPerPartitionCommit() Option {
	return func(t *Table) { t.perPartitionCommit = true }
}

// WithBatchSize sets the number of rows per multi-row statement.
func WithBatchSize(n int) Option {
	return func(t *Table) {
		if n > 0 {
			t.batchSize = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(t *Table) { t.logger = l }
}

// New creates a backend for table in db.
func New(db *gorm.DB, table string, opts ...Option) *Table {
	t := &Table{
		db:        db,
		table:     table,
		batchSize: DefaultBatchSize,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Name returns the backend name.
func (t *Table) Name() string {
	return "relational:" + t.table
}

// Schema reads the table's columns.
func (t *Table) Schema(ctx context.Context) (dataset.Schema, error) {
	infos, err := database.GetTableColumns(ctx, t.db, t.table)
	if err != nil {
		return dataset.Schema{}, err
	}
	if len(infos) == 0 {
		return dataset.Schema{}, fmt.Errorf("table %s does not exist or has no columns", t.table)
	}

	cols := make([]dataset.Column, len(infos))
	for i, info := range infos {
		cols[i] = dataset.Column{Name: info.Field, Type: columnType(info.Type)}
	}
	return dataset.NewSchema(cols...)
}

// ReadAll loads every row of the table.
func (t *Table) ReadAll(ctx context.Context) (*dataset.Dataset, error) {
	schema, err := t.Schema(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := t.db.WithContext(ctx).Raw("SELECT * FROM ?", clause.Table{Name: t.table}).Rows()
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", t.table, err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		if !schema.Has(name) {
			return nil, fmt.Errorf("column %q returned by %s is not in its schema", name, t.table)
		}
	}

	var scanned [][]any
	for rows.Next() {
		raw := make([]any, len(names))
		dest := make([]any, len(names))
		for i := range raw {
			dest[i] = &raw[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", t.table, err)
		}
		scanned = append(scanned, raw)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Columns may hold values their declared type does not describe, as
	// SQLite stores whatever it is given. Such columns are read as the
	// narrowest type that holds all of them.
	column := make([]any, len(scanned))
	for i, name := range names {
		col, _ := schema.Column(name)
		for ri, raw := range scanned {
			column[ri] = raw[i]
		}
		if typ := readType(col.Type, column); typ != col.Type {
			t.logger.Warn("Column holds values outside its declared type",
				zap.String("table", t.table),
				zap.String("column", name),
				zap.String("declared", string(col.Type)),
				zap.String("read_as", string(typ)),
			)
			schema.Columns[schema.Index(name)].Type = typ
		}
	}

	out := make([]dataset.Row, len(scanned))
	for ri, raw := range scanned {
		row := make(dataset.Row, len(names))
		for i, name := range names {
			col, _ := schema.Column(name)
			v, err := cellValue(raw[i], col.Type)
			if err != nil {
				return nil, fmt.Errorf("row %d, column %q: %w", ri, name, err)
			}
			row[name] = v
		}
		out[ri] = row
	}

	return dataset.New(schema, out)
}

// Begin opens a transaction, or a per-partition writer when configured.
func (t *Table) Begin(ctx context.Context) (reconcile.Writer, error) {
	schema, err := t.Schema(ctx)
	if err != nil {
		return nil, err
	}
	w := &writer{
		table:   t,
		schema:  schema,
		columns: schema.Names(),
		strict:  t.db.Dialector.Name() != "sqlite",
	}

	if t.perPartitionCommit {
		return w, nil
	}

	tx := t.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	w.tx = tx
	return w, nil
}

// writer writes through one transaction, or one per partition when tx is nil.
type writer struct {
	table   *Table
	schema  dataset.Schema
	columns []string
	tx      *gorm.DB
	done    bool

	// strict is set for databases that reject or round values outside a
	// column's type instead of storing them as given.
	strict bool
}

func (w *writer) Atomic() bool { return w.tx != nil }

func (w *writer) Location() string { return w.table.table }

// run executes fn inside the writer's transaction, or in a transaction of
// its own.
func (w *writer) run(ctx context.Context, fn func(tx *gorm.DB) (int, error)) (int, error) {
	if w.tx != nil {
		return fn(w.tx.WithContext(ctx))
	}
	var n int
	err := w.table.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		n, err = fn(tx)
		return err
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (w *writer) DeleteRows(ctx context.Context, keyColumns []string, rows []dataset.Row) (int, error) {
	return w.run(ctx, func(tx *gorm.DB) (int, error) {
		table := tx.Statement.Quote(w.table.table)
		total := 0

		// Single-column keys without nulls are deleted in IN batches.
		var single []any
		var rest []dataset.Row
		for _, r := range rows {
			if len(keyColumns) == 1 && r[keyColumns[0]] != nil {
				single = append(single, r[keyColumns[0]])
			} else {
				rest = append(rest, r)
			}
		}

		for chunk := range slices.Chunk(single, w.table.batchSize) {
			sql := fmt.Sprintf("DELETE FROM %s WHERE %s IN ?", table, tx.Statement.Quote(keyColumns[0]))
			res := tx.Exec(sql, chunk)
			if res.Error != nil {
				return total, res.Error
			}
			total += int(res.RowsAffected)
		}

		for _, r := range rest {
			where, args := keyPredicate(tx, keyColumns, r)
			res := tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE %s", table, where), args...)
			if res.Error != nil {
				return total, res.Error
			}
			total += int(res.RowsAffected)
		}
		return total, nil
	})
}

func (w *writer) InsertRows(ctx context.Context, rows []dataset.Row) (int, error) {
	if err := w.checkFit(rows, w.columns); err != nil {
		return 0, err
	}
	return w.run(ctx, func(tx *gorm.DB) (int, error) {
		quoted := make([]string, len(w.columns))
		for i, c := range w.columns {
			quoted[i] = tx.Statement.Quote(c)
		}
		placeholder := "(" + strings.TrimSuffix(strings.Repeat("?,", len(w.columns)), ",") + ")"
		prefix := fmt.Sprintf("INSERT INTO %s (%s) VALUES ", tx.Statement.Quote(w.table.table), strings.Join(quoted, ","))

		total := 0
		for chunk := range slices.Chunk(rows, w.table.batchSize) {
			values := make([]string, len(chunk))
			args := make([]any, 0, len(chunk)*len(w.columns))
			for i, r := range chunk {
				values[i] = placeholder
				args = append(args, r.Project(w.columns)...)
			}
			res := tx.Exec(prefix+strings.Join(values, ","), args...)
			if res.Error != nil {
				return total, res.Error
			}
			total += int(res.RowsAffected)
		}
		return total, nil
	})
}

func (w *writer) UpdateRows(ctx context.Context, keyColumns, columns []string, rows []dataset.Row) (int, error) {
	var set []string
	for _, c := range columns {
		if slices.Contains(w.columns, c) {
			set = append(set, c)
		}
	}
	if len(set) == 0 {
		return 0, nil
	}
	if err := w.checkFit(rows, set); err != nil {
		return 0, err
	}

	return w.run(ctx, func(tx *gorm.DB) (int, error) {
		assignments := make([]string, len(set))
		for i, c := range set {
			assignments[i] = tx.Statement.Quote(c) + " = ?"
		}
		prefix := fmt.Sprintf("UPDATE %s SET %s WHERE ", tx.Statement.Quote(w.table.table), strings.Join(assignments, ", "))

		total := 0
		for _, r := range rows {
			where, keyArgs := keyPredicate(tx, keyColumns, r)
			args := append(r.Project(set), keyArgs...)
			res := tx.Exec(prefix+where, args...)
			if res.Error != nil {
				return total, res.Error
			}
			total += int(res.RowsAffected)
		}
		return total, nil
	})
}

func (w *writer) Commit(ctx context.Context) error {
	if w.done || w.tx == nil {
		w.done = true
		return nil
	}
	if err := w.tx.Commit().Error; err != nil {
		return err
	}
	w.done = true
	return nil
}

func (w *writer) Rollback(ctx context.Context) error {
	if w.done || w.tx == nil {
		w.done = true
		return nil
	}
	w.done = true
	return w.tx.Rollback().Error
}

// checkFit fails on the first value a strict database would reject or
// silently change, before anything is sent.
func (w *writer) checkFit(rows []dataset.Row, columns []string) error {
	if !w.strict {
		return nil
	}
	for _, r := range rows {
		for _, c := range columns {
			col, _ := w.schema.Column(c)
			if _, err := cellValue(r[c], col.Type); err != nil {
				return &reconcile.SchemaMismatchError{
					Side:   reconcile.SideTarget,
					Reason: fmt.Sprintf("column %q of type %s cannot store %v (%s)", c, col.Type, r[c], dataset.TypeOf(r[c])),
				}
			}
		}
	}
	return nil
}

// keyPredicate builds "k1 = ? AND k2 IS NULL" for a row's key.
func keyPredicate(tx *gorm.DB, keyColumns []string, r dataset.Row) (string, []any) {
	parts := make([]string, len(keyColumns))
	var args []any
	for i, k := range keyColumns {
		if v := r[k]; v == nil {
			parts[i] = tx.Statement.Quote(k) + " IS NULL"
		} else {
			parts[i] = tx.Statement.Quote(k) + " = ?"
			args = append(args, v)
		}
	}
	return strings.Join(parts, " AND "), args
}
