// Package objectstore implements a backend over a delimited text object in
// an S3-compatible bucket.
//
// The object is parsed with the delimited codec. A writer loads the object,
// edits its rows in memory and uploads the whole object on Commit; object
// PUTs replace the previous version atomically. The ETag seen when the
// writer opened is checked again right before the upload, and a changed
// object fails the commit with a reconcile.BackendBusyError instead of
// overwriting someone else's write.
package objectstore
