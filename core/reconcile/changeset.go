package reconcile

import (
	"slices"

	"delta-apply/core/dataset"
)

// ChangeSet is the four-way partition of rows produced by Diff.
// Every key of source ∪ target appears in exactly one partition. A ChangeSet
// is never modified after Diff returns it; accessors hand out fresh slices.
type ChangeSet struct {
	keyColumns      []string
	comparedColumns []string
	targetSchema    dataset.Schema

	inserts   []dataset.Row
	updates   []dataset.Row
	deletes   []dataset.Row
	unchanged []dataset.Row

	// changed maps an update's encoded key to the columns that differ.
	changed map[string][]string
}

// KeyColumns returns the key columns the diff used.
func (c *ChangeSet) KeyColumns() []string { return slices.Clone(c.keyColumns) }

// ComparedColumns returns the columns the diff compared.
func (c *ChangeSet) ComparedColumns() []string { return slices.Clone(c.comparedColumns) }

// TargetSchema returns the target's schema, which write-back projects onto.
func (c *ChangeSet) TargetSchema() dataset.Schema {
	return dataset.Schema{Columns: slices.Clone(c.targetSchema.Columns)}
}

// Inserts returns source rows whose keys are absent from the target.
func (c *ChangeSet) Inserts() []dataset.Row { return slices.Clone(c.inserts) }

// Updates returns source rows whose compared columns differ from the target.
func (c *ChangeSet) Updates() []dataset.Row { return slices.Clone(c.updates) }

// Deletes returns target rows whose keys are absent from the source.
func (c *ChangeSet) Deletes() []dataset.Row { return slices.Clone(c.deletes) }

// Unchanged returns rows equal on every compared column.
func (c *ChangeSet) Unchanged() []dataset.Row { return slices.Clone(c.unchanged) }

// Partition returns the rows written by op.
func (c *ChangeSet) Partition(op Operation) []dataset.Row {
	switch op {
	case OpInsert:
		return c.Inserts()
	case OpUpdate:
		return c.Updates()
	case OpDelete:
		return c.Deletes()
	default:
		return nil
	}
}

// ChangedColumns returns the compared columns that differ for an updated
// key, or nil when the key is not an update.
func (c *ChangeSet) ChangedColumns(key dataset.Key) []string {
	return slices.Clone(c.changed[key.Encode()])
}

// Summary returns the per-partition counts.
func (c *ChangeSet) Summary() Summary {
	return Summary{
		InsertCount:    len(c.inserts),
		UpdateCount:    len(c.updates),
		DeleteCount:    len(c.deletes),
		UnchangedCount: len(c.unchanged),
	}
}

// IsEmpty reports whether there is nothing to insert, update or delete.
func (c *ChangeSet) IsEmpty() bool {
	return c.Summary().Pending() == 0
}
