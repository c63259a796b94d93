package reconcile

import (
	"errors"
	"fmt"
	"strings"

	"delta-apply/core/dataset"
)

// Sentinel errors. Every structured error below matches exactly one of
// these through errors.Is.
var (
	ErrSchemaMismatch       = errors.New("schema mismatch")
	ErrDuplicateKey         = errors.New("duplicate key")
	ErrUnsupportedOperation = errors.New("unsupported operation")
	ErrBackendIO            = errors.New("backend I/O error")
	ErrPartialApply         = errors.New("partial apply failure")
	ErrBackendBusy          = errors.New("backend busy")
)

// SchemaMismatchError reports key columns missing from a side, or the
// absence of any comparable column.
type SchemaMismatchError struct {
	// Side is the dataset the problem was found in; empty when it concerns both.
	Side Side
	// MissingColumns lists key columns absent from Side.
	MissingColumns []string
	// Reason describes the mismatch.
	Reason string
}

func (e *SchemaMismatchError) Error() string {
	var b strings.Builder
	b.WriteString("schema mismatch: ")
	b.WriteString(e.Reason)
	if e.Side != "" {
		fmt.Fprintf(&b, " (%s)", e.Side)
	}
	if len(e.MissingColumns) > 0 {
		fmt.Fprintf(&b, ": %s", strings.Join(e.MissingColumns, ", "))
	}
	return b.String()
}

func (e *SchemaMismatchError) Is(target error) bool { return target == ErrSchemaMismatch }

// DuplicateKeyError reports a key that occurs more than once within one side.
type DuplicateKeyError struct {
	Side       Side
	KeyColumns []string
	Key        dataset.Key
	// FirstRow and SecondRow are the 0-based positions of the conflicting rows.
	FirstRow  int
	SecondRow int
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key (%s) in %s at rows %d and %d",
		e.Key.Format(e.KeyColumns), e.Side, e.FirstRow, e.SecondRow)
}

func (e *DuplicateKeyError) Is(target error) bool { return target == ErrDuplicateKey }

// UnsupportedOperationError reports a requested operation outside
// insert, update and delete.
type UnsupportedOperationError struct {
	Operation string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("unsupported operation %q (want insert, update or delete)", e.Operation)
}

func (e *UnsupportedOperationError) Is(target error) bool { return target == ErrUnsupportedOperation }

// BackendIOError wraps a storage or transport failure.
type BackendIOError struct {
	Backend string
	// Op is what was being attempted, e.g. "read", "begin", "commit", or
	// the partition being written.
	Op  string
	Err error
}

func (e *BackendIOError) Error() string {
	return fmt.Sprintf("backend %s: %s failed: %v", e.Backend, e.Op, e.Err)
}

func (e *BackendIOError) Is(target error) bool { return target == ErrBackendIO }

func (e *BackendIOError) Unwrap() error { return e.Err }

// PartialApplyFailure is returned by writers that cannot offer whole-call
// atomicity. Committed partitions are durable; Failed was not applied.
type PartialApplyFailure struct {
	Backend   string
	Committed []Operation
	Failed    Operation
	Err       error
}

func (e *PartialApplyFailure) Error() string {
	committed := make([]string, len(e.Committed))
	for i, op := range e.Committed {
		committed[i] = string(op)
	}
	return fmt.Sprintf("backend %s: %s failed after committing [%s]: %v",
		e.Backend, e.Failed, strings.Join(committed, ", "), e.Err)
}

func (e *PartialApplyFailure) Is(target error) bool { return target == ErrPartialApply }

func (e *PartialApplyFailure) Unwrap() error { return e.Err }

// BackendBusyError is returned when a backend detects another writer
// holding the target resource.
type BackendBusyError struct {
	Backend string
	Reason  string
}

func (e *BackendBusyError) Error() string {
	return fmt.Sprintf("backend %s is busy: %s", e.Backend, e.Reason)
}

func (e *BackendBusyError) Is(target error) bool { return target == ErrBackendBusy }

// ioError wraps err as a BackendIOError unless it already carries one of
// the structured kinds.
func ioError(backend, op string, err error) error {
	if err == nil {
		return nil
	}
	var busy *BackendBusyError
	var bio *BackendIOError
	if errors.As(err, &busy) || errors.As(err, &bio) {
		return err
	}
	return &BackendIOError{Backend: backend, Op: op, Err: err}
}
