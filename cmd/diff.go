package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"delta-apply/core/config"
	"delta-apply/core/dataset"
	"delta-apply/core/logger"
	"delta-apply/core/reconcile"
	"delta-apply/core/utils"
	syncfeature "delta-apply/feature/sync"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	outputFormat  string
	partitionFlag string
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Show the changes that would bring the target in line with the source",
	Long: `Compare the source and target datasets by key and print the rows to insert,
update and delete. Nothing is written.

Examples:
  # Compare two CSV files on the id column
  delta-apply diff --source desired.csv --target current.csv --key id

  # Compare a file with a SQL table, JSON output
  delta-apply diff --source desired.csv --target sql:users --key id --output json

  # Only show updates, ignoring a timestamp column
  delta-apply diff --source a.tsv --target s3:exports/b.tsv --key tenant,id --partition updates --ignore updated_at`,
	RunE: runDiff,
}

func init() {
	addJobFlags(diffCmd)
	diffCmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "Output format: text or json")
	diffCmd.Flags().StringVar(&partitionFlag, "partition", "", "Only show one partition: inserts, updates, deletes or unchanged")

	RootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer l.Sync()

	partition, err := syncfeature.NormalizePartition(partitionFlag)
	if err != nil {
		return err
	}

	s, r, err := buildSyncer(cfg, jobFromFlags(cmd, cfg.Sync), l)
	if err != nil {
		return err
	}
	defer r.Close()

	cs, err := s.ComputeChangeSet(ctx)
	if err != nil {
		return err
	}

	switch outputFormat {
	case "json":
		return writeJSON(os.Stdout, syncfeature.NewChangesView(cs, partition))
	case "text":
		printChangeSet(os.Stdout, cs, partition)
		l.Debug("Diff complete", zap.Int("pending", cs.Summary().Pending()))
		return nil
	default:
		return fmt.Errorf("unknown output format %q", outputFormat)
	}
}

func writeJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

// printChangeSet writes a diff-like listing: + inserts, ~ updates, - deletes.
func printChangeSet(w io.Writer, cs *reconcile.ChangeSet, partition string) {
	keys := cs.KeyColumns()
	s := cs.Summary()

	fmt.Fprintf(w, "key: %s  compared: %s\n", strings.Join(keys, ","), strings.Join(cs.ComparedColumns(), ","))
	fmt.Fprintf(w, "inserts: %d  updates: %d  deletes: %d  unchanged: %d\n",
		s.InsertCount, s.UpdateCount, s.DeleteCount, s.UnchangedCount)

	all := partition == ""
	if all || partition == syncfeature.PartitionInserts {
		for _, row := range cs.Inserts() {
			fmt.Fprintf(w, "+ %s\n", formatRow(row, keys, cs.ComparedColumns()))
		}
	}
	if all || partition == syncfeature.PartitionUpdates {
		for _, row := range cs.Updates() {
			key := dataset.KeyOf(row, keys)
			changed := cs.ChangedColumns(key)
			fmt.Fprintf(w, "~ %s\n", formatRow(row, keys, changed))
		}
	}
	if all || partition == syncfeature.PartitionDeletes {
		for _, row := range cs.Deletes() {
			fmt.Fprintf(w, "- %s\n", dataset.KeyOf(row, keys).Format(keys))
		}
	}
	if partition == syncfeature.PartitionUnchanged {
		for _, row := range cs.Unchanged() {
			fmt.Fprintf(w, "  %s\n", dataset.KeyOf(row, keys).Format(keys))
		}
	}
}

func formatRow(row dataset.Row, keys, columns []string) string {
	parts := []string{dataset.KeyOf(row, keys).Format(keys)}
	for _, c := range columns {
		v := row[c]
		text := "null"
		if v != nil {
			text = utils.ToString(v)
			if _, ok := v.(string); ok {
				text = fmt.Sprintf("%q", text)
			}
		}
		parts = append(parts, c+"="+text)
	}
	return strings.Join(parts, " ")
}
