package memtable

import (
	"context"
	"testing"

	"delta-apply/core/dataset"
	"delta-apply/core/reconcile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func users(t *testing.T, records ...[]any) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.FromRecords([]string{"id", "name", "amount"}, records)
	require.NoError(t, err)
	return ds
}

func TestTable_ApplyAllConverges(t *testing.T) {
	ctx := context.Background()
	source := New("source", users(t,
		[]any{1, "Alice", 10},
		[]any{2, "Bob Updated", 25},
		[]any{3, "Charlie", 30},
		[]any{4, "David", 40},
	))
	original := users(t,
		[]any{1, "Alice", 10},
		[]any{2, "Bob", 20},
		[]any{5, "Eve", 50},
	)
	target := New("target", original)

	s, err := reconcile.New(source, target, []string{"id"}, reconcile.Options{})
	require.NoError(t, err)

	result, err := s.Apply(ctx, nil, false)
	require.NoError(t, err)
	require.NotNil(t, result.Report.Dataset)

	// Updated rows stay in place, inserts are appended, deletes removed.
	assert.Equal(t, [][]any{
		{int64(1), "Alice", int64(10)},
		{int64(2), "Bob Updated", int64(25)},
		{int64(3), "Charlie", int64(30)},
		{int64(4), "David", int64(40)},
	}, target.Snapshot().Records())
	assert.Same(t, target.Snapshot(), result.Report.Dataset)

	// The dataset the table started with is untouched
	assert.Equal(t, 3, original.Len())
	assert.Equal(t, "Bob", original.Row(1)["name"])

	summary, err := s.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, reconcile.Summary{UnchangedCount: 4}, summary)
}

func TestTable_MixedColumnTypesConverge(t *testing.T) {
	tests := []struct {
		name         string
		source, want []any
		target       []any
	}{
		{name: "fractional float into int column", source: []any{10.5, 20}, target: []any{10, 20}, want: []any{10.5, 20.0}},
		{name: "int into float column", source: []any{10, 7}, target: []any{10.5, 7.0}, want: []any{10.0, 7.0}},
		{name: "text into int column", source: []any{"B9", "8"}, target: []any{9, 8}, want: []any{"B9", "8"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			build := func(vals []any) *dataset.Dataset {
				ds, err := dataset.FromRecords([]string{"id", "v"}, [][]any{{1, vals[0]}, {2, vals[1]}})
				require.NoError(t, err)
				return ds
			}
			target := New("target", build(tt.target))

			s, err := reconcile.New(New("source", build(tt.source)), target, []string{"id"}, reconcile.Options{})
			require.NoError(t, err)

			result, err := s.Apply(ctx, nil, false)
			require.NoError(t, err)
			assert.Equal(t, 1, result.Report.Updated)
			assert.Equal(t, tt.want, []any{target.Snapshot().Row(0)["v"], target.Snapshot().Row(1)["v"]})

			summary, err := s.Summary(ctx)
			require.NoError(t, err)
			assert.Equal(t, reconcile.Summary{UnchangedCount: 2}, summary)
		})
	}
}

func TestTable_InsertsOnlyLeavesOtherRowsAlone(t *testing.T) {
	ctx := context.Background()
	source := New("source", users(t, []any{1, "Alice", 11}, []any{3, "Charlie", 30}))
	target := New("target", users(t, []any{1, "Alice", 10}, []any{5, "Eve", 50}))

	s, err := reconcile.New(source, target, []string{"id"}, reconcile.Options{})
	require.NoError(t, err)

	_, err = s.ApplyInsertsOnly(ctx)
	require.NoError(t, err)

	assert.Equal(t, [][]any{
		{int64(1), "Alice", int64(10)},
		{int64(5), "Eve", int64(50)},
		{int64(3), "Charlie", int64(30)},
	}, target.Snapshot().Records())
}

func TestTable_DryRunDoesNotMutate(t *testing.T) {
	ctx := context.Background()
	source := New("source", users(t, []any{1, "Alice", 11}))
	before := users(t, []any{1, "Alice", 10}, []any{2, "Bob", 20})
	target := New("target", before)

	s, err := reconcile.New(source, target, []string{"id"}, reconcile.Options{})
	require.NoError(t, err)

	result, err := s.Apply(ctx, nil, true)
	require.NoError(t, err)
	assert.True(t, result.DryRun)
	assert.Equal(t, 1, result.Counts.UpdateCount)
	assert.Equal(t, 1, result.Counts.DeleteCount)
	assert.Same(t, before, target.Snapshot())
}

func TestTable_SecondWriterIsBusy(t *testing.T) {
	ctx := context.Background()
	table := New("t", users(t, []any{1, "Alice", 10}))

	w, err := table.Begin(ctx)
	require.NoError(t, err)

	_, err = table.Begin(ctx)
	assert.ErrorIs(t, err, reconcile.ErrBackendBusy)

	require.NoError(t, w.Rollback(ctx))

	w2, err := table.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, w2.Commit(ctx))
	// Rollback after Commit is a no-op
	assert.NoError(t, w2.Rollback(ctx))
}

func TestTable_RollbackDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	before := users(t, []any{1, "Alice", 10})
	table := New("t", before)

	w, err := table.Begin(ctx)
	require.NoError(t, err)
	_, err = w.InsertRows(ctx, []dataset.Row{{"id": int64(2), "name": "Bob", "amount": int64(20)}})
	require.NoError(t, err)
	require.NoError(t, w.Rollback(ctx))

	assert.Same(t, before, table.Snapshot())
}
