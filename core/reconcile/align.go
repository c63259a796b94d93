package reconcile

import (
	"slices"

	"delta-apply/core/dataset"
)

// Align checks that both schemas carry every key column and returns the
// columns to compare: those present in both schemas, minus the keys and any
// ignored columns, in the source's column order.
func Align(source, target dataset.Schema, keyColumns, ignoreColumns []string) ([]string, error) {
	if len(keyColumns) == 0 {
		return nil, &SchemaMismatchError{Reason: "no key columns given"}
	}
	for i, k := range keyColumns {
		if slices.Contains(keyColumns[:i], k) {
			return nil, &SchemaMismatchError{Reason: "key column listed twice", MissingColumns: []string{k}}
		}
	}

	for _, side := range []struct {
		side   Side
		schema dataset.Schema
	}{
		{SideSource, source},
		{SideTarget, target},
	} {
		var missing []string
		for _, k := range keyColumns {
			if !side.schema.Has(k) {
				missing = append(missing, k)
			}
		}
		if len(missing) > 0 {
			return nil, &SchemaMismatchError{
				Side:           side.side,
				MissingColumns: missing,
				Reason:         "key columns not found",
			}
		}
	}

	var compared []string
	for _, col := range source.Names() {
		if slices.Contains(keyColumns, col) || slices.Contains(ignoreColumns, col) {
			continue
		}
		if target.Has(col) {
			compared = append(compared, col)
		}
	}
	if len(compared) == 0 {
		return nil, &SchemaMismatchError{Reason: "no comparable non-key columns shared by source and target"}
	}

	return compared, nil
}

// CommonTypes returns, for each compared column whose type differs between
// source and target, the type both sides are compared in. Columns that
// already agree are left out.
func CommonTypes(source, target dataset.Schema, compared []string) map[string]dataset.ColumnType {
	out := make(map[string]dataset.ColumnType)
	for _, name := range compared {
		s, _ := source.Column(name)
		t, _ := target.Column(name)
		if s.Type != t.Type {
			out[name] = dataset.CommonType(s.Type, t.Type)
		}
	}
	return out
}
