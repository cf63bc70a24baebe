package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	mappingsJSON bool
	yesConfirm   bool
)

// mappingsCmd is the parent command for mapping maintenance.
var mappingsCmd = &cobra.Command{
	Use:   "mappings",
	Short: "Inspect and reset the mappings of a conduit",
}

var mappingsListCmd = &cobra.Command{
	Use:   "list <conduit>",
	Short: "List the mappings of a conduit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}

		rows, err := a.conduits.Mappings(context.Background(), args[0])
		if err != nil {
			return err
		}

		if mappingsJSON {
			data, err := json.MarshalIndent(rows, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		for _, m := range rows {
			fmt.Printf("%s  %s -> %s\n", m.OID, m.SourceUID, m.SinkUID)
		}
		total, err := a.mappings.Count(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("\n%d mappings (%d across all conduits)\n", len(rows), total)
		return nil
	},
}

var mappingsPurgeCmd = &cobra.Command{
	Use:   "purge <conduit>",
	Short: "Delete every mapping of a conduit",
	Long: `Deletes every mapping of a conduit. The next pass treats all records
on both sides as new and matches them again.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		name := args[0]

		rows, err := a.conduits.Mappings(context.Background(), name)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			a.logger.Info("No mappings to purge", zap.String("conduit", name))
			return nil
		}
		a.logger.Warn("About to purge mappings", zap.String("conduit", name), zap.Int("count", len(rows)))

		if !confirmDestructiveAction() {
			a.logger.Warn("Operation cancelled by user. No changes were made.")
			return nil
		}

		n, err := a.conduits.PurgeMappings(context.Background(), name)
		if err != nil {
			return err
		}
		a.logger.Info("Purged mappings", zap.String("conduit", name), zap.Int64("count", n))
		return nil
	},
}

func init() {
	mappingsListCmd.Flags().BoolVar(&mappingsJSON, "json", false, "Output JSON")
	mappingsPurgeCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm (non-interactive)")
	mappingsCmd.AddCommand(mappingsListCmd, mappingsPurgeCmd)
	RootCmd.AddCommand(mappingsCmd)
}

// confirmDestructiveAction prompts the user for confirmation or uses --yes flag.
func confirmDestructiveAction() bool {
	if yesConfirm {
		fmt.Println("\n✓ Auto-confirmed via --yes flag")
		return true
	}

	fmt.Print("\n⚠️  Type 'yes' to confirm destructive actions: ")
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	return strings.TrimSpace(response) == "yes"
}
