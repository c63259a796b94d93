// Package utils provides low-level value conversion helpers for delta-apply.
// It normalizes driver and caller values into the scalar kinds a dataset cell
// may hold, and converts between those scalars and delimited-file text.
package utils
