package dataset

import (
	"fmt"
	"maps"
	"slices"

	"delta-apply/core/utils"
)

// Row maps column names to normalized values.
type Row map[string]any

// Clone returns a shallow copy of the row. Values are scalars, so a shallow
// copy is independent of the original.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	maps.Copy(out, r)
	return out
}

// Project returns the row's values for the given columns, nil for columns
// the row does not carry.
func (r Row) Project(columns []string) []any {
	vals := make([]any, len(columns))
	for i, c := range columns {
		vals[i] = r[c]
	}
	return vals
}

// Dataset is an ordered sequence of rows sharing one schema.
// A Dataset is never modified after construction; writers build new ones.
type Dataset struct {
	schema Schema
	rows   []Row
}

// New builds a dataset from a schema and rows.
// Values are normalized and checked against the declared column types; an
// int in a float column is widened, any other mismatch is an error. Columns a
// row does not carry are filled with null, and columns of type unknown take
// the type of their first non-null value.
func New(schema Schema, rows []Row) (*Dataset, error) {
	schema, err := NewSchema(schema.Columns...)
	if err != nil {
		return nil, err
	}

	out := make([]Row, len(rows))
	for i, row := range rows {
		for name := range row {
			if !schema.Has(name) {
				return nil, fmt.Errorf("row %d: column %q is not in the schema", i, name)
			}
		}

		normalized := make(Row, len(schema.Columns))
		for ci := range schema.Columns {
			col := &schema.Columns[ci]
			v, err := utils.Normalize(row[col.Name])
			if err != nil {
				return nil, fmt.Errorf("row %d, column %q: %w", i, col.Name, err)
			}
			v, err = conform(v, col)
			if err != nil {
				return nil, fmt.Errorf("row %d, column %q: %w", i, col.Name, err)
			}
			normalized[col.Name] = v
		}
		out[i] = normalized
	}

	return &Dataset{schema: schema, rows: out}, nil
}

// conform checks v against the column type, resolving unknown columns.
func conform(v any, col *Column) (any, error) {
	if v == nil {
		return nil, nil
	}
	got := TypeOf(v)
	switch {
	case col.Type == TypeUnknown:
		col.Type = got
		return v, nil
	case col.Type == got:
		return v, nil
	case col.Type == TypeFloat && got == TypeInt:
		return float64(v.(int64)), nil
	default:
		return nil, fmt.Errorf("value %v of type %s does not match column type %s", v, got, col.Type)
	}
}

// FromRecords builds a dataset from column names and positional records,
// inferring each column's type from its values. A column mixing ints and
// floats is widened to float.
func FromRecords(columns []string, records [][]any) (*Dataset, error) {
	cols := make([]Column, len(columns))
	for i, name := range columns {
		cols[i] = Column{Name: name, Type: TypeUnknown}
	}

	rows := make([]Row, len(records))
	for i, rec := range records {
		if len(rec) != len(columns) {
			return nil, fmt.Errorf("record %d has %d values, expected %d", i, len(rec), len(columns))
		}
		row := make(Row, len(columns))
		for ci, name := range columns {
			v, err := utils.Normalize(rec[ci])
			if err != nil {
				return nil, fmt.Errorf("record %d, column %q: %w", i, name, err)
			}
			row[name] = v
			cols[ci].Type = widen(cols[ci].Type, TypeOf(v))
		}
		rows[i] = row
	}

	schema, err := NewSchema(cols...)
	if err != nil {
		return nil, err
	}
	return New(schema, rows)
}

func widen(current, next ColumnType) ColumnType {
	switch {
	case next == TypeUnknown || current == next:
		return current
	case current == TypeUnknown:
		return next
	case (current == TypeInt && next == TypeFloat) || (current == TypeFloat && next == TypeInt):
		return TypeFloat
	default:
		// Leave the first type in place; New reports the mismatch.
		return current
	}
}

// Schema returns the dataset schema.
func (d *Dataset) Schema() Schema {
	return Schema{Columns: slices.Clone(d.schema.Columns)}
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.rows)
}

// Row returns the i-th row. Callers must not modify it.
func (d *Dataset) Row(i int) Row {
	return d.rows[i]
}

// Rows returns the rows in order. The slice is a fresh copy; the rows are
// shared and must not be modified.
func (d *Dataset) Rows() []Row {
	return slices.Clone(d.rows)
}

// Records returns the rows as positional records in schema order.
func (d *Dataset) Records() [][]any {
	names := d.schema.Names()
	out := make([][]any, len(d.rows))
	for i, r := range d.rows {
		out[i] = r.Project(names)
	}
	return out
}
