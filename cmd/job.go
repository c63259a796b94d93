package cmd

import (
	"fmt"

	"delta-apply/core/config"
	"delta-apply/core/job"
	"delta-apply/core/reconcile"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Flags shared by diff and apply. Unset flags fall back to the SYNC_*
// configuration.
var (
	sourceFlag          string
	targetFlag          string
	keyFlag             string
	duplicatePolicyFlag string
	toleranceFlag       float64
	ignoreFlag          string
	delimiterFlag       string
)

func addJobFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&sourceFlag, "source", "", "Source endpoint holding the desired rows (e.g. users.csv, sql:users, s3:exports/users.csv)")
	cmd.Flags().StringVar(&targetFlag, "target", "", "Target endpoint to bring in line with the source")
	cmd.Flags().StringVar(&keyFlag, "key", "", "Comma-separated key columns (default from SYNC_KEYS)")
	cmd.Flags().StringVar(&duplicatePolicyFlag, "on-duplicate", "", "Duplicate key policy: fail, keep-first or keep-last")
	cmd.Flags().Float64Var(&toleranceFlag, "float-tolerance", 0, "Treat floats within this distance as equal")
	cmd.Flags().StringVar(&ignoreFlag, "ignore", "", "Comma-separated columns left out of comparison")
	cmd.Flags().StringVar(&delimiterFlag, "delimiter", "", "Field delimiter for file and object endpoints (e.g. ';' or tab)")
}

// jobFromFlags overlays the flags that were set onto the configured job.
func jobFromFlags(cmd *cobra.Command, base job.Config) job.Config {
	j := base
	flags := cmd.Flags()
	if flags.Changed("source") {
		j.Source = sourceFlag
	}
	if flags.Changed("target") {
		j.Target = targetFlag
	}
	if flags.Changed("key") {
		j.Keys = keyFlag
	}
	if flags.Changed("on-duplicate") {
		j.DuplicatePolicy = duplicatePolicyFlag
	}
	if flags.Changed("float-tolerance") {
		j.FloatTolerance = toleranceFlag
	}
	if flags.Changed("ignore") {
		j.IgnoreColumns = ignoreFlag
	}
	if flags.Changed("delimiter") {
		j.Delimiter = delimiterFlag
	}
	// One-shot commands compute once; a cache would only hide target changes.
	j.CacheTTLSeconds = 0
	return j
}

// buildSyncer resolves both endpoints of j. The returned resolver must be
// closed by the caller.
func buildSyncer(cfg *config.Config, j job.Config, l *zap.Logger) (*reconcile.Syncer, *resolver, error) {
	if err := j.Validate(); err != nil {
		return nil, nil, err
	}
	opts, err := j.Options(l)
	if err != nil {
		return nil, nil, err
	}
	delim, err := j.DelimiterRune()
	if err != nil {
		return nil, nil, err
	}

	r := newResolver(cfg, l, delim)
	source, err := r.Resolve(j.Source)
	if err != nil {
		r.Close()
		return nil, nil, fmt.Errorf("source: %w", err)
	}
	target, err := r.Resolve(j.Target)
	if err != nil {
		r.Close()
		return nil, nil, fmt.Errorf("target: %w", err)
	}

	s, err := reconcile.New(source, target, j.KeyColumns(), opts)
	if err != nil {
		r.Close()
		return nil, nil, err
	}
	return s, r, nil
}
