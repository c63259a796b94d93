// Package dataset defines the tabular model delta-apply diffs and writes back.
//
// A Dataset is an ordered sequence of Rows sharing one Schema. Every cell holds
// a scalar: int64, float64, string, bool, or nil for null. Values from callers
// and drivers are normalized into these kinds on construction, so comparisons
// downstream never have to reason about int widths or byte slices.
//
// # Keys
//
// A Key is the tuple of a row's key-column values. Keys encode to a
// type-tagged string (see Key.Encode) so that int64(1), float64(1) and "1"
// never collide in an index.
//
// # Equality
//
// Equal implements the comparison used by the diff engine: null-aware and
// exact. Values of different kinds are never equal, and floats must match
// exactly unless a caller opts into EqualWithin.
//
// When two datasets type the same column differently, CommonType gives the
// type both are compared and stored in, and Coerce converts values into it.
// An int column meets a float column at float; anything else mixed is text.
package dataset
