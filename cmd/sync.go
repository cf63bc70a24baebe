package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"conduit-sync/core/reconcile"
	"conduit-sync/feature/conduit"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	syncAll    bool
	syncSlow   bool
	syncDryRun bool
)

// syncCmd runs one pass of the named conduits.
var syncCmd = &cobra.Command{
	Use:   "sync [conduit...]",
	Short: "Run a synchronization pass",
	Long: `Runs one reconciliation pass for each named conduit.

Examples:
  # Sync one conduit
  sync photos

  # Show what would change without touching anything
  sync photos --dry-run

  # Compare every record, ignoring change logs
  sync --all --slow`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncAll, "all", false, "Sync every configured conduit")
	syncCmd.Flags().BoolVar(&syncSlow, "slow", false, "Compare every record instead of using change logs")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "Plan only, change nothing")
	RootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	if syncAll == (len(args) > 0) {
		return errors.New("name conduits or pass --all")
	}

	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	names := args
	if syncAll {
		names = a.conduits.Names()
	}

	opts := conduit.SyncOptions{Slow: syncSlow, DryRun: syncDryRun}
	failed := 0
	for _, name := range names {
		res, err := a.conduits.Sync(ctx, name, opts)
		if err != nil {
			a.logger.Error("Sync failed", zap.String("conduit", name), zap.Error(err))
			failed++
			continue
		}
		printSyncReport(a.logger, res)
		if res.Aborted {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d conduits failed", failed, len(names))
	}
	return nil
}

// printSyncReport prints a pass result using the logger.
func printSyncReport(l *zap.Logger, res *reconcile.Result) {
	l = l.With(zap.String("conduit", res.Conduit))

	if res.Skipped {
		l.Warn("Conduit skipped, an endpoint is not configured")
		return
	}
	if res.Aborted {
		l.Error("Pass aborted", zap.String("cause", res.AbortCause))
		return
	}

	l.Info("Sync report",
		zap.Stringer("status", res.Status()),
		zap.Int("forward_added", res.Forward.Added),
		zap.Int("forward_modified", res.Forward.Modified),
		zap.Int("forward_deleted", res.Forward.Deleted),
		zap.Int("reverse_added", res.Reverse.Added),
		zap.Int("reverse_modified", res.Reverse.Modified),
		zap.Int("reverse_deleted", res.Reverse.Deleted),
		zap.Int("conflicts", res.Conflicted),
		zap.Int("errors", res.Errored),
		zap.Duration("duration", res.Duration),
	)

	for _, c := range res.Conflicts {
		l.Warn("Conflict",
			zap.String("kind", c.Kind),
			zap.String("direction", string(c.Direction)),
			zap.String("uid", c.UID),
			zap.String("counterpart", c.Counterpart),
		)
	}
	for _, e := range res.Errors {
		l.Error("Item failed",
			zap.String("uid", e.UID),
			zap.String("direction", string(e.Direction)),
			zap.String("error", e.Message),
		)
	}

	if res.DryRun {
		// Show a sample of the plan (max 10 for logger)
		maxShow := 10
		if len(res.Plan) < maxShow {
			maxShow = len(res.Plan)
		}
		for _, action := range res.Plan[:maxShow] {
			l.Info("Planned action",
				zap.String("type", string(action.Type)),
				zap.String("direction", string(action.Direction)),
				zap.String("uid", action.UID),
				zap.String("reason", action.Reason),
			)
		}
		if len(res.Plan) > maxShow {
			l.Info("Additional actions not shown", zap.Int("count", len(res.Plan)-maxShow))
		}
		l.Info("Dry-run mode: No changes were made.")
	}
}
