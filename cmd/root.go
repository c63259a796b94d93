package cmd

import (
	"fmt"
	"os"

	"delta-apply/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "delta-apply",
	Short: "Keyed dataset sync",
	Long: `delta-apply compares a source dataset with a target dataset by key and
applies the inserts, updates and deletes that bring the target in line.
Datasets may live in delimited files, SQL tables or objects in a bucket.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Console format with ISO8601 timestamps reads better on a terminal
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}
