// Package memtable implements an in-memory table backend.
//
// A Table holds one immutable dataset.Dataset. Writers edit a private copy
// and Commit swaps the table's current dataset for the edited one, so
// readers holding the previous dataset never see a partial write. Only one
// writer may be open at a time; a second Begin fails with a
// reconcile.BackendBusyError.
package memtable
