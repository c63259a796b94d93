package reconcile

import (
	"context"
	"slices"

	"delta-apply/core/dataset"

	"go.uber.org/zap"
)

// Apply writes the requested partitions of a ChangeSet back to a backend.
//
// An empty ops means insert, update and delete. With opts.DryRun nothing is
// read or written; the result lists the rows a real run would write.
// Otherwise one Writer is opened for the whole call and partitions are
// written deletes first, then inserts, then updates. Unrequested partitions
// are never touched.
//
// On a write failure an atomic writer is rolled back and the error is a
// BackendIOError naming the partition. A non-atomic writer yields a
// PartialApplyFailure listing what was committed before the failure.
func Apply(ctx context.Context, cs *ChangeSet, ops OperationSet, backend Backend, opts ApplyOptions) (*ApplyResult, error) {
	if len(ops) == 0 {
		ops = AllOperations()
	}
	for op := range ops {
		if _, err := ParseOperations([]string{string(op)}); err != nil {
			return nil, err
		}
	}

	l := opts.Logger
	if l == nil {
		l = zap.NewNop()
	}

	ordered := ops.Ordered()
	result := planResult(cs, ordered, opts.DryRun)

	if opts.DryRun {
		l.Info("Dry run: no changes written",
			zap.String("backend", backend.Name()),
			zap.Int("deletes", result.Counts.DeleteCount),
			zap.Int("inserts", result.Counts.InsertCount),
			zap.Int("updates", result.Counts.UpdateCount),
		)
		return result, nil
	}

	report, err := writeChanges(ctx, cs, ordered, backend, l)
	if err != nil {
		return nil, err
	}
	result.Report = report
	return result, nil
}

// planResult lists the rows each requested operation writes.
func planResult(cs *ChangeSet, ordered []Operation, dryRun bool) *ApplyResult {
	result := &ApplyResult{
		DryRun:     dryRun,
		Operations: ordered,
		Inserts:    []dataset.Row{},
		Updates:    []dataset.Row{},
		Deletes:    []dataset.Row{},
	}
	for _, op := range ordered {
		switch op {
		case OpInsert:
			result.Inserts = cs.Inserts()
		case OpUpdate:
			result.Updates = cs.Updates()
		case OpDelete:
			result.Deletes = cs.Deletes()
		}
	}
	result.Counts = Summary{
		InsertCount:    len(result.Inserts),
		UpdateCount:    len(result.Updates),
		DeleteCount:    len(result.Deletes),
		UnchangedCount: len(cs.unchanged),
	}
	return result
}

// writeChanges runs the requested partitions through one writer scope.
func writeChanges(ctx context.Context, cs *ChangeSet, ordered []Operation, backend Backend, l *zap.Logger) (*WriteReport, error) {
	name := backend.Name()

	w, err := backend.Begin(ctx)
	if err != nil {
		return nil, ioError(name, "begin", err)
	}

	report := &WriteReport{Backend: name, Committed: []Operation{}}

	for _, op := range ordered {
		rows := cs.Partition(op)

		var n int
		if len(rows) > 0 {
			switch op {
			case OpDelete:
				n, err = w.DeleteRows(ctx, cs.keyColumns, rows)
			case OpInsert:
				n, err = w.InsertRows(ctx, rows)
			case OpUpdate:
				n, err = w.UpdateRows(ctx, cs.keyColumns, cs.comparedColumns, rows)
			}
		}

		if err != nil {
			if rbErr := w.Rollback(ctx); rbErr != nil {
				l.Warn("Rollback failed", zap.String("backend", name), zap.Error(rbErr))
			}
			if w.Atomic() {
				l.Error("Write failed, rolled back",
					zap.String("backend", name),
					zap.String("operation", string(op)),
					zap.Error(err),
				)
				return nil, ioError(name, string(op), err)
			}
			l.Error("Write failed after partial commit",
				zap.String("backend", name),
				zap.String("operation", string(op)),
				zap.Int("committed_partitions", len(report.Committed)),
				zap.Error(err),
			)
			return nil, &PartialApplyFailure{
				Backend:   name,
				Committed: slices.Clone(report.Committed),
				Failed:    op,
				Err:       err,
			}
		}

		switch op {
		case OpDelete:
			report.Deleted = n
		case OpInsert:
			report.Inserted = n
		case OpUpdate:
			report.Updated = n
		}
		if !w.Atomic() {
			report.Committed = append(report.Committed, op)
		}

		l.Info("Partition written",
			zap.String("backend", name),
			zap.String("operation", string(op)),
			zap.Int("rows", len(rows)),
			zap.Int("affected", n),
		)
	}

	if err := w.Commit(ctx); err != nil {
		if rbErr := w.Rollback(ctx); rbErr != nil {
			l.Warn("Rollback failed", zap.String("backend", name), zap.Error(rbErr))
		}
		return nil, ioError(name, "commit", err)
	}
	if w.Atomic() {
		report.Committed = slices.Clone(ordered)
	}

	if m, ok := w.(Materializer); ok {
		report.Dataset = m.Result()
	}
	if loc, ok := w.(Locator); ok {
		report.Location = loc.Location()
	}

	return report, nil
}
