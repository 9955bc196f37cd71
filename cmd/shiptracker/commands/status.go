package commands

import (
	"fmt"

	"shiptracker/internal/components/telemetry"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Prints the last notified shipment status.",
	Run: func(cmd *cobra.Command, args []string) {
		store := openStore(telemetry.SlogAPI{})
		status := store.Load()
		if status.LastCheck == "" {
			fmt.Printf("No status recorded yet in %s\n", store.Path())
			return
		}

		t := newTable()
		t.AppendHeader(table.Row{"Field", "Value"})
		t.AppendRows([]table.Row{
			{"Last location", status.LastLocation},
			{"Last status", status.LastStatus},
			{"Last check", status.LastCheck},
		})
		if status.FullData != nil {
			t.AppendSeparator()
			t.AppendRows([]table.Row{
				{"Date", status.FullData.Date},
				{"Time", status.FullData.Time},
				{"Full status", status.FullData.FullStatus},
			})
		}
		t.Render()
	},
}
