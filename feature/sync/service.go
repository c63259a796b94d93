package sync

import (
	"context"

	"delta-apply/core/reconcile"

	"go.uber.org/zap"
)

// Service runs one configured sync job.
type Service struct {
	syncer     *reconcile.Syncer
	operations []string
	logger     *zap.Logger
}

// NewService creates a sync service. operations is used when an apply
// request names none; empty means all three.
func NewService(syncer *reconcile.Syncer, operations []string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{syncer: syncer, operations: operations, logger: logger}
}

// Summary returns the pending change counts.
func (s *Service) Summary(ctx context.Context) (reconcile.Summary, error) {
	return s.syncer.Summary(ctx)
}

// Changes returns the pending rows, optionally limited to one partition.
func (s *Service) Changes(ctx context.Context, partition string) (*ChangesView, error) {
	p, err := NormalizePartition(partition)
	if err != nil {
		return nil, err
	}
	cs, err := s.syncer.ComputeChangeSet(ctx)
	if err != nil {
		return nil, err
	}
	return NewChangesView(cs, p), nil
}

// Apply writes the requested operations to the target.
func (s *Service) Apply(ctx context.Context, operations []string, dryRun bool) (*ApplyView, error) {
	if len(operations) == 0 {
		operations = s.operations
	}
	result, err := s.syncer.Apply(ctx, operations, dryRun)
	if err != nil {
		return nil, err
	}
	return NewApplyView(result), nil
}
