package reconcile

import (
	"delta-apply/core/dataset"
)

// Diff partitions the union of source and target keys into inserts,
// deletes, updates and unchanged rows.
//
// Inserts and the common keys follow the source index order, deletes follow
// the target index order. Updates and unchanged rows record the source row.
// Values are compared with dataset.EqualWithin, which is exact equality
// unless opts.FloatTolerance is positive. Columns listed in opts.ColumnTypes
// are converted to that type on both sides first.
func Diff(source, target *KeyIndex, compared []string, targetSchema dataset.Schema, opts CompareOptions) *ChangeSet {
	cs := &ChangeSet{
		keyColumns:      source.keyColumns,
		comparedColumns: compared,
		targetSchema:    targetSchema,
		inserts:         []dataset.Row{},
		updates:         []dataset.Row{},
		deletes:         []dataset.Row{},
		unchanged:       []dataset.Row{},
		changed:         make(map[string][]string),
	}

	for _, key := range source.order {
		srcRow := source.rows[key]
		tgtRow, common := target.rows[key]
		if !common {
			cs.inserts = append(cs.inserts, srcRow)
			continue
		}

		if diff := compareRows(srcRow, tgtRow, compared, opts); len(diff) > 0 {
			cs.updates = append(cs.updates, srcRow)
			cs.changed[key] = diff
		} else {
			cs.unchanged = append(cs.unchanged, srcRow)
		}
	}

	for _, key := range target.order {
		if _, common := source.rows[key]; !common {
			cs.deletes = append(cs.deletes, target.rows[key])
		}
	}

	return cs
}

// compareRows returns the compared columns whose values differ.
func compareRows(a, b dataset.Row, compared []string, opts CompareOptions) []string {
	var diff []string
	for _, col := range compared {
		x, y := a[col], b[col]
		if typ, ok := opts.ColumnTypes[col]; ok {
			x, y = dataset.Coerce(x, typ), dataset.Coerce(y, typ)
		}
		if !dataset.EqualWithin(x, y, opts.FloatTolerance) {
			diff = append(diff, col)
		}
	}
	return diff
}
