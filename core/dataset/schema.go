package dataset

import (
	"fmt"

	"delta-apply/core/utils"
)

// ColumnType is the declared scalar kind of a column.
type ColumnType string

const (
	// TypeUnknown marks a column whose values are all null.
	TypeUnknown ColumnType = "unknown"
	TypeInt     ColumnType = "int"
	TypeFloat   ColumnType = "float"
	TypeString  ColumnType = "string"
	TypeBool    ColumnType = "bool"
)

// TypeOf returns the column type of a normalized value.
func TypeOf(v any) ColumnType {
	switch v.(type) {
	case int64:
		return TypeInt
	case float64:
		return TypeFloat
	case string:
		return TypeString
	case bool:
		return TypeBool
	default:
		return TypeUnknown
	}
}

// Column is a named, typed column.
type Column struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// Schema is an ordered list of uniquely named columns.
type Schema struct {
	Columns []Column `json:"columns"`
}

// NewSchema validates column names and returns a schema.
func NewSchema(columns ...Column) (Schema, error) {
	seen := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		if c.Name == "" {
			return Schema{}, fmt.Errorf("column name must not be empty")
		}
		if _, dup := seen[c.Name]; dup {
			return Schema{}, fmt.Errorf("duplicate column %q", c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	cols := make([]Column, len(columns))
	copy(cols, columns)
	for i := range cols {
		if cols[i].Type == "" {
			cols[i].Type = TypeUnknown
		}
	}
	return Schema{Columns: cols}, nil
}

// Names returns the column names in order.
func (s Schema) Names() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// Index returns the position of the named column, or -1.
func (s Schema) Index(name string) int {
	for i, c := range s.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Has reports whether the schema contains the named column.
func (s Schema) Has(name string) bool {
	return s.Index(name) >= 0
}

// Column returns the named column.
func (s Schema) Column(name string) (Column, bool) {
	if i := s.Index(name); i >= 0 {
		return s.Columns[i], true
	}
	return Column{}, false
}

// InferType picks a column type for raw text cells the way a dataframe
// reader would: int, then float, then bool, then string. Empty cells are
// nulls and do not vote.
func InferType(cells []string) ColumnType {
	isInt, isFloat, isBool := true, true, true
	seen := false
	for _, c := range cells {
		if c == "" {
			continue
		}
		seen = true
		if isInt {
			_, isInt = utils.ParseInt(c)
		}
		if isFloat {
			_, isFloat = utils.ParseFloat(c)
		}
		if isBool {
			_, isBool = utils.ParseBool(c)
		}
	}
	switch {
	case !seen:
		return TypeUnknown
	case isInt:
		return TypeInt
	case isFloat:
		return TypeFloat
	case isBool:
		return TypeBool
	default:
		return TypeString
	}
}

// ParseCell converts raw text into a value of the given type.
// The empty string is null for every type; delimited text cannot tell an
// empty string from a missing value.
func ParseCell(text string, typ ColumnType) (any, error) {
	if text == "" {
		return nil, nil
	}
	switch typ {
	case TypeInt:
		if v, ok := utils.ParseInt(text); ok {
			return v, nil
		}
	case TypeFloat:
		if v, ok := utils.ParseFloat(text); ok {
			return v, nil
		}
	case TypeBool:
		if v, ok := utils.ParseBool(text); ok {
			return v, nil
		}
	case TypeString, TypeUnknown:
		return text, nil
	}
	return nil, fmt.Errorf("cannot parse %q as %s", text, typ)
}
