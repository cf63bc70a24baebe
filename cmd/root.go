package cmd

import (
	"fmt"
	"os"

	"conduit-sync/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	envDir       string
	conduitsFile string
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "conduit-sync",
	Short: "Keep folders and buckets in sync",
	Long: `Conduit Sync keeps pairs of endpoints (folders, S3 buckets) in sync.
It detects changes on either side, resolves conflicts by policy and remembers
which records correspond to each other between passes.

Each pair is a conduit, declared in the conduits file (see --conduits).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	RootCmd.PersistentFlags().StringVar(&envDir, "env-dir", ".", "Directory holding the .env file")
	RootCmd.PersistentFlags().StringVar(&conduitsFile, "conduits", "", "Conduit definitions file (overrides SYNC_CONDUITS_FILE)")
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	err := RootCmd.Execute()
	if err == nil {
		return
	}

	// Config may be what failed, so errors get a fixed console logger.
	l, logErr := logger.New(&logger.Config{Level: "debug", Format: "console"})
	if logErr != nil {
		fmt.Fprintln(os.Stderr, err)
	} else {
		l.Error("Command failed", zap.Error(err))
		_ = l.Sync()
	}
	os.Exit(1)
}
