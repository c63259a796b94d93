package delimited

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"delta-apply/core/reconcile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	sourceCSV = "id,name,amount\n" +
		"1,Alice,10\n" +
		"2,Bob Updated,25\n" +
		"3,Charlie,30\n" +
		"4,David,40\n"
	targetCSV = "id,name,amount\n" +
		"1,Alice,10\n" +
		"2,Bob,20\n" +
		"5,Eve,50\n"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func newSyncer(t *testing.T, source, target string) *reconcile.Syncer {
	t.Helper()
	s, err := reconcile.New(New(source), New(target), []string{"id"}, reconcile.Options{})
	require.NoError(t, err)
	return s
}

func TestFile_ApplyAllConverges(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	src := writeFile(t, dir, "source.csv", sourceCSV)
	tgt := writeFile(t, dir, "target.csv", targetCSV)

	s := newSyncer(t, src, tgt)
	result, err := s.Apply(ctx, nil, false)
	require.NoError(t, err)
	assert.Equal(t, tgt, result.Report.Location)
	assert.Equal(t, 2, result.Report.Inserted)
	assert.Equal(t, 1, result.Report.Updated)
	assert.Equal(t, 1, result.Report.Deleted)

	assert.Equal(t, "id,name,amount\n"+
		"1,Alice,10\n"+
		"2,Bob Updated,25\n"+
		"3,Charlie,30\n"+
		"4,David,40\n", readFile(t, tgt))

	summary, err := s.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, reconcile.Summary{UnchangedCount: 4}, summary)
}

func TestFile_InsertsOnlyLeavesOtherRowsByteIdentical(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	src := writeFile(t, dir, "source.csv", sourceCSV)
	tgt := writeFile(t, dir, "target.csv", targetCSV)

	_, err := newSyncer(t, src, tgt).ApplyInsertsOnly(ctx)
	require.NoError(t, err)

	assert.Equal(t, targetCSV+
		"3,Charlie,30\n"+
		"4,David,40\n", readFile(t, tgt))
}

func TestFile_UntouchedRowsKeepTheirBytes(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	src := writeFile(t, dir, "source.csv", "id,name,amount\n"+
		"7,Bob,20.5\n"+
		"5,Eve,50\n"+
		"9,Zed,1\n"+
		"3,Charlie,30\n")
	target := "id,name,amount\r\n" +
		"007,Bob,20.50\r\n" +
		"5,\"Eve\",5e1\r\n" +
		"9,\"Zed\",2.00"
	tgt := writeFile(t, dir, "target.csv", target)

	_, err := newSyncer(t, src, tgt).ApplyInsertsOnly(ctx)
	require.NoError(t, err)
	assert.Equal(t, target+"\r\n3,Charlie,30.0\r\n", readFile(t, tgt))

	// A full apply re-encodes only the row that changed.
	writeFile(t, dir, "target.csv", target)
	_, err = newSyncer(t, src, tgt).Apply(ctx, nil, false)
	require.NoError(t, err)
	assert.Equal(t, "id,name,amount\r\n"+
		"007,Bob,20.50\r\n"+
		"5,\"Eve\",5e1\r\n"+
		"9,Zed,1.0\r\n"+
		"3,Charlie,30.0\r\n", readFile(t, tgt))
}

func TestFile_MixedColumnTypesConverge(t *testing.T) {
	tests := []struct {
		name   string
		source string
		target string
		want   string
	}{
		{
			name:   "fractional float into int column",
			source: "id,amount\n1,10.5\n2,20\n",
			target: "id,amount\n1,10\n2,20\n",
			want:   "id,amount\n1,10.5\n2,20\n",
		},
		{
			name:   "int into float column",
			source: "id,amount\n1,10\n2,7\n",
			target: "id,amount\n1,10.5\n2,7.0\n",
			want:   "id,amount\n1,10\n2,7.0\n",
		},
		{
			name:   "text into int column",
			source: "id,code\n1,B9\n2,8\n",
			target: "id,code\n1,9\n2,8\n",
			want:   "id,code\n1,B9\n2,8\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			dir := t.TempDir()
			src := writeFile(t, dir, "source.csv", tt.source)
			tgt := writeFile(t, dir, "target.csv", tt.target)

			s := newSyncer(t, src, tgt)
			result, err := s.Apply(ctx, nil, false)
			require.NoError(t, err)
			assert.Equal(t, 1, result.Report.Updated)
			assert.Equal(t, tt.want, readFile(t, tgt))

			summary, err := s.Summary(ctx)
			require.NoError(t, err)
			assert.Equal(t, reconcile.Summary{UnchangedCount: 2}, summary)
		})
	}
}

func TestFile_DryRunDoesNotTouchFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	src := writeFile(t, dir, "source.csv", sourceCSV)
	tgt := writeFile(t, dir, "target.csv", targetCSV)
	before, err := os.Stat(tgt)
	require.NoError(t, err)

	result, err := newSyncer(t, src, tgt).Apply(ctx, nil, true)
	require.NoError(t, err)
	assert.Equal(t, 4, result.Counts.Pending())

	after, err := os.Stat(tgt)
	require.NoError(t, err)
	assert.Equal(t, targetCSV, readFile(t, tgt))
	assert.Equal(t, before.ModTime(), after.ModTime())

	_, err = os.Stat(tgt + ".lock")
	assert.True(t, os.IsNotExist(err), "dry run must not take the lock")
}

func TestFile_TargetColumnsKeepTheirOrder(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	src := writeFile(t, dir, "source.csv", "id,amount,name,extra\n1,11,Alice,x\n2,20,Bob,y\n")
	tgt := writeFile(t, dir, "target.csv", "name,id,amount,note\nAlice,1,10,vip\n")

	_, err := newSyncer(t, src, tgt).Apply(ctx, nil, false)
	require.NoError(t, err)

	assert.Equal(t, "name,id,amount,note\n"+
		"Alice,1,11,vip\n"+
		"Bob,2,20,\n", readFile(t, tgt))
}

func TestFile_TSV(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	src := writeFile(t, dir, "source.tsv", "id\tname\n1\ta\n2\tb\n")
	tgt := writeFile(t, dir, "target.tsv", "id\tname\n1\ta\n")

	_, err := newSyncer(t, src, tgt).Apply(ctx, nil, false)
	require.NoError(t, err)
	assert.Equal(t, "id\tname\n1\ta\n2\tb\n", readFile(t, tgt))
}

func TestFile_LockedTargetIsBusy(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	tgt := writeFile(t, dir, "target.csv", targetCSV)

	f := New(tgt)
	w, err := f.Begin(ctx)
	require.NoError(t, err)
	defer w.Rollback(ctx)

	_, err = New(tgt).Begin(ctx)
	assert.ErrorIs(t, err, reconcile.ErrBackendBusy)
}

func TestFile_MissingFileIsBackendIO(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "source.csv", sourceCSV)

	_, err := newSyncer(t, src, filepath.Join(dir, "nope.csv")).Summary(context.Background())
	assert.ErrorIs(t, err, reconcile.ErrBackendIO)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFile_DuplicateKeyLeavesTargetAlone(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "source.csv", "id,name\n1,a\n2,b\n2,c\n")
	tgt := writeFile(t, dir, "target.csv", "id,name\n1,a\n")

	_, err := newSyncer(t, src, tgt).Apply(context.Background(), nil, false)
	require.ErrorIs(t, err, reconcile.ErrDuplicateKey)
	assert.Contains(t, err.Error(), "id=2")
	assert.Equal(t, "id,name\n1,a\n", readFile(t, tgt))
}
