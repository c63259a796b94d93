package reconcile

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"delta-apply/core/dataset"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Syncer ties a source, a target and key columns together and exposes the
// primary operations: compute the ChangeSet, summarize it, apply it.
// A Syncer holds no state besides its optional ChangeSet cache.
type Syncer struct {
	source     Backend
	target     Backend
	keyColumns []string
	opts       Options
	logger     *zap.Logger
	cache      *changeSetCache
}

// New creates a Syncer. Source and target may be any mix of backends.
func New(source, target Backend, keyColumns []string, opts Options) (*Syncer, error) {
	if source == nil || target == nil {
		return nil, fmt.Errorf("source and target backends are required")
	}
	if len(keyColumns) == 0 {
		return nil, &SchemaMismatchError{Reason: "no key columns given"}
	}
	policy, err := ParseDuplicatePolicy(string(opts.DuplicatePolicy))
	if err != nil {
		return nil, err
	}
	opts.DuplicatePolicy = policy
	if opts.FloatTolerance < 0 {
		return nil, fmt.Errorf("float tolerance must not be negative, got %v", opts.FloatTolerance)
	}

	l := opts.Logger
	if l == nil {
		l = zap.NewNop()
	}

	return &Syncer{
		source:     source,
		target:     target,
		keyColumns: slices.Clone(keyColumns),
		opts:       opts,
		logger:     l,
		cache:      newChangeSetCache(opts.CacheTTL),
	}, nil
}

// KeyColumns returns the key columns rows are matched on.
func (s *Syncer) KeyColumns() []string {
	return slices.Clone(s.keyColumns)
}

// cacheKey identifies this comparison in the cache.
func (s *Syncer) cacheKey() string {
	return s.source.Name() + "|" + s.target.Name() + "|" + strings.Join(s.keyColumns, ",")
}

// ComputeChangeSet reads both sides and diffs them.
func (s *Syncer) ComputeChangeSet(ctx context.Context) (*ChangeSet, error) {
	return s.cache.getOrBuild(ctx, s.cacheKey(), s.compute)
}

func (s *Syncer) compute(ctx context.Context) (*ChangeSet, error) {
	var source, target *dataset.Dataset

	// Load both sides concurrently
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ds, err := s.source.ReadAll(gctx)
		if err != nil {
			return ioError(s.source.Name(), "read", err)
		}
		source = ds
		return nil
	})
	g.Go(func() error {
		ds, err := s.target.ReadAll(gctx)
		if err != nil {
			return ioError(s.target.Name(), "read", err)
		}
		target = ds
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return DiffDatasets(ctx, source, target, s.keyColumns, s.opts)
}

// DiffDatasets aligns, indexes and diffs two in-memory datasets.
func DiffDatasets(ctx context.Context, source, target *dataset.Dataset, keyColumns []string, opts Options) (*ChangeSet, error) {
	l := opts.Logger
	if l == nil {
		l = zap.NewNop()
	}

	targetSchema := target.Schema()
	compared, err := Align(source.Schema(), targetSchema, keyColumns, opts.IgnoreColumns)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Both indexes are built concurrently; the source's error wins when
	// both sides fail so the result does not depend on scheduling.
	var (
		srcIdx, tgtIdx *KeyIndex
		srcErr, tgtErr error
		g              errgroup.Group
	)
	g.Go(func() error {
		srcIdx, srcErr = BuildIndex(SideSource, source, keyColumns, opts.DuplicatePolicy)
		return nil
	})
	g.Go(func() error {
		tgtIdx, tgtErr = BuildIndex(SideTarget, target, keyColumns, opts.DuplicatePolicy)
		return nil
	})
	_ = g.Wait()
	if srcErr != nil {
		return nil, srcErr
	}
	if tgtErr != nil {
		return nil, tgtErr
	}

	cs := Diff(srcIdx, tgtIdx, compared, targetSchema, CompareOptions{
		FloatTolerance: opts.FloatTolerance,
		ColumnTypes:    CommonTypes(source.Schema(), targetSchema, compared),
	})

	s := cs.Summary()
	l.Info("Change set computed",
		zap.Strings("key_columns", keyColumns),
		zap.Strings("compared_columns", compared),
		zap.Int("inserts", s.InsertCount),
		zap.Int("updates", s.UpdateCount),
		zap.Int("deletes", s.DeleteCount),
		zap.Int("unchanged", s.UnchangedCount),
	)

	return cs, nil
}

// Summary returns per-partition counts of the current ChangeSet.
func (s *Syncer) Summary(ctx context.Context) (Summary, error) {
	cs, err := s.ComputeChangeSet(ctx)
	if err != nil {
		return Summary{}, err
	}
	return cs.Summary(), nil
}

// Apply computes the ChangeSet and writes the requested operations to the
// target. operations must be a subset of insert, update and delete; empty
// means all three. Unsupported names fail before any read.
func (s *Syncer) Apply(ctx context.Context, operations []string, dryRun bool) (*ApplyResult, error) {
	ops, err := ParseOperations(operations)
	if err != nil {
		return nil, err
	}

	cs, err := s.ComputeChangeSet(ctx)
	if err != nil {
		return nil, err
	}

	return s.applyChangeSet(ctx, cs, ops, dryRun)
}

// ApplyChangeSet writes the requested operations of a ChangeSet computed
// earlier, such as one a user has already reviewed, without diffing again.
func (s *Syncer) ApplyChangeSet(ctx context.Context, cs *ChangeSet, operations []string, dryRun bool) (*ApplyResult, error) {
	ops, err := ParseOperations(operations)
	if err != nil {
		return nil, err
	}
	return s.applyChangeSet(ctx, cs, ops, dryRun)
}

func (s *Syncer) applyChangeSet(ctx context.Context, cs *ChangeSet, ops OperationSet, dryRun bool) (*ApplyResult, error) {
	result, err := Apply(ctx, cs, ops, s.target, ApplyOptions{DryRun: dryRun, Logger: s.logger})
	if !dryRun {
		// The target has (or may have) changed either way.
		s.cache.invalidate(s.cacheKey())
	}
	return result, err
}

// ApplyInsertsOnly applies only the insert partition.
func (s *Syncer) ApplyInsertsOnly(ctx context.Context) (*ApplyResult, error) {
	return s.Apply(ctx, []string{string(OpInsert)}, false)
}
