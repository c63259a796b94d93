package reconcile

import (
	"fmt"
	"strings"
	"time"

	"delta-apply/core/dataset"

	"go.uber.org/zap"
)

// Side identifies which dataset of a comparison something belongs to.
type Side string

const (
	SideSource Side = "source"
	SideTarget Side = "target"
)

// Operation is a kind of write-back a caller may request.
type Operation string

const (
	OpInsert Operation = "insert"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// applyOrder is the order partitions are written in. The partitions touch
// disjoint keys, so the order only matters for logs and tests.
var applyOrder = []Operation{OpDelete, OpInsert, OpUpdate}

// AllOperations returns insert, update and delete.
func AllOperations() OperationSet {
	return OperationSet{OpInsert: {}, OpUpdate: {}, OpDelete: {}}
}

// OperationSet is a set of requested operations.
type OperationSet map[Operation]struct{}

// Has reports whether op is in the set.
func (s OperationSet) Has(op Operation) bool {
	_, ok := s[op]
	return ok
}

// Ordered returns the set's operations in apply order.
func (s OperationSet) Ordered() []Operation {
	out := make([]Operation, 0, len(s))
	for _, op := range applyOrder {
		if s.Has(op) {
			out = append(out, op)
		}
	}
	return out
}

// ParseOperations validates operation names. An empty list means all three.
// Names are matched case-insensitively after trimming.
func ParseOperations(names []string) (OperationSet, error) {
	if len(names) == 0 {
		return AllOperations(), nil
	}
	set := make(OperationSet, len(names))
	for _, name := range names {
		op := Operation(strings.ToLower(strings.TrimSpace(name)))
		switch op {
		case OpInsert, OpUpdate, OpDelete:
			set[op] = struct{}{}
		default:
			return nil, &UnsupportedOperationError{Operation: name}
		}
	}
	return set, nil
}

// DuplicatePolicy decides what KeyIndexer does with a repeated key.
type DuplicatePolicy string

const (
	// DuplicateFail rejects the dataset with a DuplicateKeyError. Default.
	DuplicateFail DuplicatePolicy = "fail"
	// DuplicateKeepFirst keeps the first row seen for a key.
	DuplicateKeepFirst DuplicatePolicy = "keep-first"
	// DuplicateKeepLast keeps the last row seen for a key, at the first
	// row's position.
	DuplicateKeepLast DuplicatePolicy = "keep-last"
)

// ParseDuplicatePolicy validates a policy name; empty means fail.
func ParseDuplicatePolicy(name string) (DuplicatePolicy, error) {
	switch p := DuplicatePolicy(strings.ToLower(strings.TrimSpace(name))); p {
	case "":
		return DuplicateFail, nil
	case DuplicateFail, DuplicateKeepFirst, DuplicateKeepLast:
		return p, nil
	default:
		return "", fmt.Errorf("unknown duplicate key policy %q", name)
	}
}

// CompareOptions tunes the DiffEngine's value comparison.
type CompareOptions struct {
	// FloatTolerance, when positive, treats two floats within this absolute
	// distance as equal. Zero means exact equality.
	FloatTolerance float64
	// ColumnTypes maps compared columns to the type both sides are converted
	// to before comparing. Columns not listed are compared as they are.
	ColumnTypes map[string]dataset.ColumnType
}

// Options configures a Syncer.
type Options struct {
	// DuplicatePolicy controls repeated keys; empty means DuplicateFail.
	DuplicatePolicy DuplicatePolicy
	// FloatTolerance is passed to the DiffEngine.
	FloatTolerance float64
	// IgnoreColumns are excluded from comparison even when both sides carry them.
	IgnoreColumns []string
	// CacheTTL keeps a computed ChangeSet for reuse. Zero disables caching.
	CacheTTL time.Duration
	// Logger receives progress logs. Nil means no logging.
	Logger *zap.Logger
}

// Summary holds per-partition counts of a ChangeSet.
type Summary struct {
	InsertCount    int `json:"insert_count"`
	UpdateCount    int `json:"update_count"`
	DeleteCount    int `json:"delete_count"`
	UnchangedCount int `json:"unchanged_count"`
}

// Pending returns the number of rows that would be written if all
// operations were applied.
func (s Summary) Pending() int {
	return s.InsertCount + s.UpdateCount + s.DeleteCount
}

// ApplyOptions controls a single Apply call.
type ApplyOptions struct {
	// DryRun describes the writes without touching the backend.
	DryRun bool
	// Logger receives per-partition logs. Nil means no logging.
	Logger *zap.Logger
}

// WriteReport describes what a backend wrote.
type WriteReport struct {
	// Backend is the backend's name.
	Backend string `json:"backend"`
	// Location is the file path, table or object written, when there is one.
	Location string `json:"location,omitempty"`
	// Committed lists the partitions that were made durable, in apply order.
	Committed []Operation `json:"committed"`
	Inserted  int         `json:"inserted"`
	Updated   int         `json:"updated"`
	Deleted   int         `json:"deleted"`
	// Dataset is the target as it stands after the write, for backends
	// that materialize one.
	Dataset *dataset.Dataset `json:"-"`
}

// ApplyResult is what Apply returns. For a dry run it describes the writes
// that would happen; for a real run Report describes what happened. The
// rows and counts are identical between the two for the same inputs.
type ApplyResult struct {
	DryRun     bool          `json:"dry_run"`
	Operations []Operation   `json:"operations"`
	Inserts    []dataset.Row `json:"inserts"`
	Updates    []dataset.Row `json:"updates"`
	Deletes    []dataset.Row `json:"deletes"`
	Counts     Summary       `json:"counts"`
	Report     *WriteReport  `json:"report,omitempty"`
}
