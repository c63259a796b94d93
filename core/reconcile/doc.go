// Package reconcile computes the row-level changes that turn a target dataset
// into a source dataset, and applies a chosen subset of them back to the
// target's storage.
//
// # Architecture
//
// A comparison runs through four stages:
//
// 1. Align: checks both schemas carry the key columns and derives the compared
// columns (shared non-key columns, in source order).
//
// 2. Index: builds a KeyIndex per side. Duplicate keys fail unless an explicit
// DuplicatePolicy says otherwise.
//
// 3. Diff: partitions the union of keys into inserts, updates, deletes and
// unchanged rows using null-aware exact equality. A column typed differently
// on each side is compared in the type both can hold (see CommonTypes).
//
// 4. Apply: writes the requested partitions through a Backend's Writer,
// deletes first, then inserts, then updates.
//
// Backends live in feature packages and only need to implement Backend and
// Writer. Source and target may be different kinds of backend.
//
// # Usage Example
//
//	source := delimited.New("desired.csv")
//	target := relational.New(db, "users")
//
//	s, err := reconcile.New(source, target, []string{"id"}, reconcile.Options{
//	    Logger:   log,
//	    CacheTTL: time.Minute,
//	})
//
//	summary, err := s.Summary(ctx)
//
//	// Only add missing rows, leave everything else alone
//	result, err := s.ApplyInsertsOnly(ctx)
//
// # Errors
//
// Every failure the package reports matches one of the Err* sentinels via
// errors.Is; errors.As recovers the structured type with its details.
package reconcile
