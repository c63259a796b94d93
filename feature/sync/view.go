package sync

import (
	"math"
	"strings"

	"delta-apply/core/dataset"
	"delta-apply/core/reconcile"
	"delta-apply/core/utils"
)

// Partition names accepted by Changes.
const (
	PartitionInserts   = "inserts"
	PartitionUpdates   = "updates"
	PartitionDeletes   = "deletes"
	PartitionUnchanged = "unchanged"
)

// UpdateView is an updated row with the columns that differ.
type UpdateView struct {
	Row            map[string]any `json:"row"`
	ChangedColumns []string       `json:"changed_columns"`
}

// ChangesView is the JSON form of a ChangeSet.
type ChangesView struct {
	KeyColumns      []string          `json:"key_columns"`
	ComparedColumns []string          `json:"compared_columns"`
	Summary         reconcile.Summary `json:"summary"`
	Inserts         []map[string]any  `json:"inserts,omitempty"`
	Updates         []UpdateView      `json:"updates,omitempty"`
	Deletes         []map[string]any  `json:"deletes,omitempty"`
	Unchanged       []map[string]any  `json:"unchanged,omitempty"`
}

// ApplyView is the JSON form of an ApplyResult.
type ApplyView struct {
	DryRun     bool                   `json:"dry_run"`
	Operations []reconcile.Operation  `json:"operations"`
	Counts     reconcile.Summary      `json:"counts"`
	Inserts    []map[string]any       `json:"inserts"`
	Updates    []map[string]any       `json:"updates"`
	Deletes    []map[string]any       `json:"deletes"`
	Report     *reconcile.WriteReport `json:"report,omitempty"`
}

// NormalizePartition maps a partition name to its canonical plural form.
// Empty means every partition.
func NormalizePartition(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return "", nil
	case "insert", PartitionInserts:
		return PartitionInserts, nil
	case "update", PartitionUpdates:
		return PartitionUpdates, nil
	case "delete", PartitionDeletes:
		return PartitionDeletes, nil
	case PartitionUnchanged:
		return PartitionUnchanged, nil
	}
	return "", &reconcile.UnsupportedOperationError{Operation: name}
}

// NewChangesView renders cs. partition limits the rows to one partition;
// the summary always covers all of them.
func NewChangesView(cs *reconcile.ChangeSet, partition string) *ChangesView {
	v := &ChangesView{
		KeyColumns:      cs.KeyColumns(),
		ComparedColumns: cs.ComparedColumns(),
		Summary:         cs.Summary(),
	}
	all := partition == ""
	if all || partition == PartitionInserts {
		v.Inserts = rowViews(cs.Inserts())
	}
	if all || partition == PartitionUpdates {
		keys := cs.KeyColumns()
		for _, r := range cs.Updates() {
			v.Updates = append(v.Updates, UpdateView{
				Row:            rowView(r),
				ChangedColumns: cs.ChangedColumns(dataset.KeyOf(r, keys)),
			})
		}
	}
	if all || partition == PartitionDeletes {
		v.Deletes = rowViews(cs.Deletes())
	}
	if all || partition == PartitionUnchanged {
		v.Unchanged = rowViews(cs.Unchanged())
	}
	return v
}

// NewApplyView renders an apply result.
func NewApplyView(r *reconcile.ApplyResult) *ApplyView {
	return &ApplyView{
		DryRun:     r.DryRun,
		Operations: r.Operations,
		Counts:     r.Counts,
		Inserts:    rowViews(r.Inserts),
		Updates:    rowViews(r.Updates),
		Deletes:    rowViews(r.Deletes),
		Report:     r.Report,
	}
}

func rowViews(rows []dataset.Row) []map[string]any {
	out := make([]map[string]any, len(rows))
	for i, r := range rows {
		out[i] = rowView(r)
	}
	return out
}

// rowView copies a row, spelling out floats JSON cannot carry.
func rowView(r dataset.Row) map[string]any {
	out := make(map[string]any, len(r))
	for k, v := range r {
		if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
			v = utils.ToString(f)
		}
		out[k] = v
	}
	return out
}
