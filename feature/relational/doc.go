// Package relational implements a backend over a SQL table through GORM.
//
// The dataset schema is read from the live table and rows are loaded with a
// single SELECT. Writes are parametrized DELETE, INSERT and UPDATE
// statements matched on the key columns. By default all partitions of one
// apply run in one transaction that is committed only if every statement
// succeeds. WithPerPartitionCommit trades that for one transaction per
// partition, in which case a failure is reported as a
// reconcile.PartialApplyFailure.
//
// The table's schema is never altered: source columns the table does not
// have are dropped, and table columns the source does not have are written
// as NULL on insert and left alone on update.
package relational
