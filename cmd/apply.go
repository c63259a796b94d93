package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"delta-apply/core/config"
	"delta-apply/core/logger"
	"delta-apply/core/reconcile"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	opsFlag    string
	dryRunFlag bool
	yesConfirm bool
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply source changes to the target",
	Long: `Compare the source and target datasets by key and write the requested
operations to the target. Deletes run first, then inserts, then updates.

Examples:
  # Preview everything without writing
  delta-apply apply --source desired.csv --target sql:users --key id --dry-run

  # Only add missing rows (with interactive confirmation)
  delta-apply apply --source desired.csv --target sql:users --key id --ops insert

  # Inserts and updates, auto-confirmed (non-interactive)
  delta-apply apply --source desired.csv --target current.csv --key id --ops insert,update --yes`,
	RunE: runApply,
}

func init() {
	addJobFlags(applyCmd)
	applyCmd.Flags().StringVar(&opsFlag, "ops", "", "Comma-separated operations: insert, update, delete (default all, or SYNC_OPERATIONS)")
	applyCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Describe the writes without touching the target")
	applyCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm writes (non-interactive)")

	RootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, args []string) error {
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

	j := jobFromFlags(cmd, cfg.Sync)
	if cmd.Flags().Changed("ops") {
		j.Operations = opsFlag
	}
	ops, err := reconcile.ParseOperations(j.OperationList())
	if err != nil {
		return err
	}

	s, r, err := buildSyncer(cfg, j, l)
	if err != nil {
		return err
	}
	defer r.Close()

	// Step 1: Plan
	l.Info("Computing changes...")
	cs, err := s.ComputeChangeSet(ctx)
	if err != nil {
		return fmt.Errorf("failed to compute changes: %w", err)
	}
	printApplyPlan(l, cs, ops)

	if dryRunFlag {
		result, err := s.ApplyChangeSet(ctx, cs, j.OperationList(), true)
		if err != nil {
			return err
		}
		l.Info("Dry-run mode: No changes were made.", zap.Int("would_write", writeCount(result)))
		return nil
	}

	pending := 0
	for _, op := range ops.Ordered() {
		pending += len(cs.Partition(op))
	}
	if pending == 0 {
		l.Info("No changes required for the requested operations.")
		return nil
	}

	// Step 2: Confirm
	if !confirmWrite(pending) {
		l.Warn("Operation cancelled by user. No changes were made.")
		return nil
	}

	// Step 3: Apply
	l.Info("Applying changes...")
	result, err := s.ApplyChangeSet(ctx, cs, j.OperationList(), false)
	if err != nil {
		return fmt.Errorf("failed to apply changes: %w", err)
	}

	rep := result.Report
	l.Info("Successfully applied changes",
		zap.String("backend", rep.Backend),
		zap.String("location", rep.Location),
		zap.Int("inserted", rep.Inserted),
		zap.Int("updated", rep.Updated),
		zap.Int("deleted", rep.Deleted),
	)
	return nil
}

// printApplyPlan logs the summary and a sample of the requested writes.
func printApplyPlan(l *zap.Logger, cs *reconcile.ChangeSet, ops reconcile.OperationSet) {
	s := cs.Summary()
	l.Info("Change report",
		zap.Strings("key", cs.KeyColumns()),
		zap.Int("inserts", s.InsertCount),
		zap.Int("updates", s.UpdateCount),
		zap.Int("deletes", s.DeleteCount),
		zap.Int("unchanged", s.UnchangedCount),
	)

	const maxShow = 5
	keys := cs.KeyColumns()
	for _, op := range ops.Ordered() {
		rows := cs.Partition(op)
		for i, row := range rows {
			if i == maxShow {
				l.Info("Additional rows not shown", zap.String("operation", string(op)), zap.Int("count", len(rows)-maxShow))
				break
			}
			l.Info("Sample change", zap.String("operation", string(op)), zap.String("row", formatRow(row, keys, nil)))
		}
	}
}

func writeCount(r *reconcile.ApplyResult) int {
	return len(r.Inserts) + len(r.Updates) + len(r.Deletes)
}

// confirmWrite prompts the user for confirmation or uses --yes flag.
func confirmWrite(pending int) bool {
	if yesConfirm {
		fmt.Println("\n✓ Auto-confirmed via --yes flag")
		return true
	}

	fmt.Printf("\n⚠️  %d rows will be written. Type 'yes' to confirm: ", pending)
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.TrimSpace(response) == "yes"
}
