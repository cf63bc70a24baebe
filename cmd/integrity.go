package cmd

import (
	"context"

	"conduit-sync/feature/integrity"
	"conduit-sync/feature/integrity/checks"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var fixFlag bool

// integrityCmd represents the integrity command
var integrityCmd = &cobra.Command{
	Use:   "integrity",
	Short: "Check the mapping schema and conduit endpoints",
	Long:  `Checks that the mapping table matches the mapping model and that every folder and bucket used by a conduit exists.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		logg := a.logger
		svc := integrity.NewService(a.db, a.conduits, logg)

		logg.Info("Checking mapping schema...")
		report, err := svc.CheckSchema()
		if err != nil {
			logg.Error("Schema check failed", zap.Error(err))
		} else if report.Matched {
			logg.Info("Mapping schema matches the model.", zap.String("dialect", report.Dialect))
		} else {
			for table, tbl := range report.Tables {
				if tbl.Status != "ok" {
					logg.Warn("Missing Columns", zap.String("table", table), zap.Strings("columns", tbl.MissingColumns))
				}
			}
			for _, e := range report.Errors {
				logg.Error("Inspection Error", zap.String("error", e))
			}
		}

		logg.Info("Checking endpoints...")
		var reports []checks.EndpointReport
		if fixFlag {
			reports = svc.FixEndpoints(context.Background())
		} else {
			reports = svc.CheckEndpoints(context.Background())
		}

		broken := 0
		for _, r := range reports {
			fields := []zap.Field{
				zap.String("conduit", r.Conduit),
				zap.String("side", r.Side),
				zap.String("uid", r.UID),
				zap.String("status", r.Status),
			}
			switch {
			case r.Fixed:
				logg.Info("Endpoint fixed", fields...)
			case r.Status == checks.StatusError:
				broken++
				logg.Warn("Endpoint unavailable", append(fields, zap.String("error", r.Error))...)
			default:
				logg.Info("Endpoint checked", fields...)
			}
		}
		if broken > 0 && !fixFlag {
			logg.Info("Run with --fix to create missing folders and buckets.")
		}
		return nil
	},
}

func init() {
	integrityCmd.Flags().BoolVar(&fixFlag, "fix", false, "Create missing folders and buckets")
	RootCmd.AddCommand(integrityCmd)
}
