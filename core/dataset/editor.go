package dataset

import (
	"fmt"
	"slices"
	"strings"

	"delta-apply/core/utils"
)

// Editor applies row-level edits to a private copy of a dataset and builds a
// new Dataset from the result. The dataset it was created from is never
// modified.
//
// Rows passed in may come from a dataset with a different schema; they are
// projected onto the edited dataset's schema. Columns the schema does not
// carry are dropped and missing ones are null. Values keep their own type
// until Dataset widens each column to fit everything it holds.
type Editor struct {
	schema Schema
	rows   []Row // nil entries are deleted rows

	// origin is the position a row had in the source dataset, -1 for
	// inserts. modified marks rows an update touched.
	origin   []int
	modified []bool

	// index maps encoded keys to positions for indexedBy key columns.
	indexedBy []string
	index     map[string]int
}

// NewEditor starts editing a copy of ds.
func NewEditor(ds *Dataset) *Editor {
	origin := make([]int, len(ds.rows))
	for i := range origin {
		origin[i] = i
	}
	return &Editor{
		schema:   ds.Schema(),
		rows:     slices.Clone(ds.rows),
		origin:   origin,
		modified: make([]bool, len(ds.rows)),
	}
}

// Entry is a live row of the edited dataset with its provenance.
type Entry struct {
	Row Row
	// Origin is the row's position in the dataset the editor started from,
	// or -1 if it was inserted.
	Origin   int
	Modified bool
}

// Schema returns the schema edits are projected onto.
func (e *Editor) Schema() Schema {
	return Schema{Columns: slices.Clone(e.schema.Columns)}
}

// Delete removes the rows whose key matches one of rows and returns how many
// were removed.
func (e *Editor) Delete(keyColumns []string, rows []Row) int {
	idx := e.keyIndex(keyColumns)
	n := 0
	for _, r := range rows {
		enc := KeyOf(r, keyColumns).Encode()
		pos, ok := idx[enc]
		if !ok {
			continue
		}
		e.rows[pos] = nil
		delete(idx, enc)
		n++
	}
	return n
}

// Insert appends rows in order.
func (e *Editor) Insert(rows []Row) (int, error) {
	for i, r := range rows {
		projected, err := e.project(r, e.schema.Names())
		if err != nil {
			return 0, fmt.Errorf("insert row %d: %w", i, err)
		}
		e.rows = append(e.rows, projected)
		e.origin = append(e.origin, -1)
		e.modified = append(e.modified, false)
		if e.index != nil {
			e.index[KeyOf(projected, e.indexedBy).Encode()] = len(e.rows) - 1
		}
	}
	return len(rows), nil
}

// Update overwrites columns on the rows whose key matches one of rows, in
// place, and returns how many rows matched. Columns the schema does not
// carry are skipped.
func (e *Editor) Update(keyColumns, columns []string, rows []Row) (int, error) {
	idx := e.keyIndex(keyColumns)

	var cols []string
	for _, c := range columns {
		if e.schema.Has(c) {
			cols = append(cols, c)
		}
	}

	n := 0
	for i, r := range rows {
		pos, ok := idx[KeyOf(r, keyColumns).Encode()]
		if !ok {
			continue
		}
		patch, err := e.project(r, cols)
		if err != nil {
			return n, fmt.Errorf("update row %d: %w", i, err)
		}
		updated := e.rows[pos].Clone()
		for _, c := range cols {
			updated[c] = patch[c]
		}
		e.rows[pos] = updated
		e.modified[pos] = true
		n++
	}
	return n, nil
}

// Entries returns the live rows in order. Values are as they were inserted
// or updated, before any column widening.
func (e *Editor) Entries() []Entry {
	out := make([]Entry, 0, len(e.rows))
	for i, r := range e.rows {
		if r != nil {
			out = append(out, Entry{Row: r, Origin: e.origin[i], Modified: e.modified[i]})
		}
	}
	return out
}

// Dataset builds the edited dataset. A column whose values no longer share
// its declared type is widened to their common type: ints and floats meet at
// float, anything else mixed becomes string.
func (e *Editor) Dataset() (*Dataset, error) {
	entries := e.Entries()

	schema := e.Schema()
	for ci := range schema.Columns {
		col := &schema.Columns[ci]
		typ := TypeUnknown
		for _, en := range entries {
			if v := en.Row[col.Name]; v != nil {
				typ = CommonType(typ, TypeOf(v))
			}
		}
		if typ != TypeUnknown {
			col.Type = typ
		}
	}

	live := make([]Row, len(entries))
	for i, en := range entries {
		row := make(Row, len(schema.Columns))
		for _, col := range schema.Columns {
			row[col.Name] = Coerce(en.Row[col.Name], col.Type)
		}
		live[i] = row
	}
	return New(schema, live)
}

// keyIndex returns the key index for keyColumns, rebuilding it when the key
// columns change.
func (e *Editor) keyIndex(keyColumns []string) map[string]int {
	if e.index != nil && slices.Equal(e.indexedBy, keyColumns) {
		return e.index
	}
	e.indexedBy = slices.Clone(keyColumns)
	e.index = make(map[string]int, len(e.rows))
	for i, r := range e.rows {
		if r != nil {
			e.index[KeyOf(r, keyColumns).Encode()] = i
		}
	}
	return e.index
}

// project normalizes the given columns of r.
func (e *Editor) project(r Row, columns []string) (Row, error) {
	out := make(Row, len(columns))
	var bad []string
	for _, name := range columns {
		v, err := utils.Normalize(r[name])
		if err != nil {
			bad = append(bad, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		out[name] = v
	}
	if len(bad) > 0 {
		return nil, fmt.Errorf("%s", strings.Join(bad, "; "))
	}
	return out, nil
}
