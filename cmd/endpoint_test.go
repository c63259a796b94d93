package cmd

import (
	"bytes"
	"context"
	"testing"

	"delta-apply/core/config"
	"delta-apply/core/dataset"
	"delta-apply/core/job"
	"delta-apply/core/reconcile"
	"delta-apply/feature/delimited"
	"delta-apply/feature/objectstore"
	"delta-apply/feature/relational"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		in      string
		want    Endpoint
		wantErr bool
	}{
		{"users.csv", Endpoint{Kind: KindFile, Location: "users.csv", Delimiter: ','}, false},
		{"data/users.TSV", Endpoint{Kind: KindFile, Location: "data/users.TSV", Delimiter: '\t'}, false},
		{"csv:/tmp/export", Endpoint{Kind: KindFile, Location: "/tmp/export", Delimiter: ','}, false},
		{"tsv:users.dat", Endpoint{Kind: KindFile, Location: "users.dat", Delimiter: '\t'}, false},
		{"sql:users", Endpoint{Kind: KindTable, Location: "users"}, false},
		{"s3:/exports/users.tsv", Endpoint{Kind: KindObject, Location: "exports/users.tsv", Delimiter: '\t'}, false},
		{"sql:", Endpoint{}, true},
		{"ftp:users.csv", Endpoint{}, true},
		{"users.json", Endpoint{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEndpoint(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolver(t *testing.T) {
	cfg := &config.Config{}
	cfg.Database.Driver = "sqlite"
	cfg.Database.Name = ":memory:"
	cfg.Storage.Endpoint = "localhost:9000"
	cfg.Storage.Bucket = "datasets"

	r := newResolver(cfg, zap.NewNop(), 0)
	defer r.Close()

	b, err := r.Resolve("users.csv")
	require.NoError(t, err)
	assert.IsType(t, &delimited.File{}, b)
	assert.Equal(t, "delimited:users.csv", b.Name())

	b, err = r.Resolve("sql:users")
	require.NoError(t, err)
	assert.IsType(t, &relational.Table{}, b)

	b, err = r.Resolve("s3:exports/users.csv")
	require.NoError(t, err)
	assert.IsType(t, &objectstore.Object{}, b)
	assert.Equal(t, "s3:datasets/exports/users.csv", b.Name())
}

func TestJobFromFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	addJobFlags(cmd)
	require.NoError(t, cmd.Flags().Parse([]string{"--target", "sql:users", "--key", "tenant,id"}))

	base := job.Config{Source: "a.csv", Target: "b.csv", Keys: "id", CacheTTLSeconds: 30}
	j := jobFromFlags(cmd, base)

	assert.Equal(t, "a.csv", j.Source)
	assert.Equal(t, "sql:users", j.Target)
	assert.Equal(t, []string{"tenant", "id"}, j.KeyColumns())
	assert.Zero(t, j.CacheTTLSeconds)
}

func scenarioChangeSet(t *testing.T) *reconcile.ChangeSet {
	t.Helper()
	cols := []string{"id", "name", "amount"}
	src, err := dataset.FromRecords(cols, [][]any{
		{1, "Alice", 10}, {2, "Bob Updated", 25}, {3, "Charlie", 30}, {4, "David", 40},
	})
	require.NoError(t, err)
	tgt, err := dataset.FromRecords(cols, [][]any{
		{1, "Alice", 10}, {2, "Bob", 20}, {5, "Eve", 50},
	})
	require.NoError(t, err)

	cs, err := reconcile.DiffDatasets(context.Background(), src, tgt, []string{"id"}, reconcile.Options{})
	require.NoError(t, err)
	return cs
}

func TestPrintChangeSet(t *testing.T) {
	var buf bytes.Buffer
	printChangeSet(&buf, scenarioChangeSet(t), "")

	assert.Equal(t, `key: id  compared: name,amount
inserts: 2  updates: 1  deletes: 1  unchanged: 1
+ id=3 name="Charlie" amount=30
+ id=4 name="David" amount=40
~ id=2 name="Bob Updated" amount=25
- id=5
`, buf.String())

	buf.Reset()
	printChangeSet(&buf, scenarioChangeSet(t), "unchanged")
	assert.Contains(t, buf.String(), "  id=1\n")
	assert.NotContains(t, buf.String(), "+ ")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, scenarioChangeSet(t).Summary()))

	var got reconcile.Summary
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, reconcile.Summary{InsertCount: 2, UpdateCount: 1, DeleteCount: 1, UnchangedCount: 1}, got)
}
