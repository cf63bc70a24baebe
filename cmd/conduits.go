package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var conduitsJSON bool

// conduitsCmd lists the configured conduits and the registered conversions.
var conduitsCmd = &cobra.Command{
	Use:   "conduits",
	Short: "List configured conduits",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}

		list := a.conduits.List()
		if conduitsJSON {
			data, err := json.MarshalIndent(map[string]any{
				"conduits":    list,
				"conversions": a.conduits.Graph().Edges(),
			}, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tSOURCE\tSINK\tTWO-WAY\tCONFLICT\tDELETED\tAUTOSYNC")
		for _, c := range list {
			fmt.Fprintf(w, "%s\t%s (%s)\t%s (%s)\t%t\t%s\t%s\t%t\n",
				c.Name,
				c.Source.UID, c.Source.Status,
				c.Sink.UID, c.Sink.Status,
				c.Options.TwoWay, c.Options.Conflict, c.Options.Deleted, c.Autosync,
			)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		fmt.Println("\nConversions:")
		for _, e := range a.conduits.Graph().Edges() {
			fmt.Printf("  %s -> %s\n", e.From, e.To)
		}
		return nil
	},
}

func init() {
	conduitsCmd.Flags().BoolVar(&conduitsJSON, "json", false, "Output JSON")
	RootCmd.AddCommand(conduitsCmd)
}
