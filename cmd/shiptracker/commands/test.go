package commands

import (
	"fmt"
	"os"

	"shiptracker/internal/components/telemetry"
	"shiptracker/internal/shipment"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(testCmd)
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Fetches and parses the tracking page once without emailing or saving anything.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client := newScraper(cfg, telemetry.SlogAPI{})

		record, err := client.Current(cmd.Context())
		if err != nil {
			return fmt.Errorf("get shipment status: %w", err)
		}

		t := newTable()
		t.SetTitle("Shipment " + shipment.TrackingNumber)
		t.AppendHeader(table.Row{"Field", "Value"})
		t.AppendRows([]table.Row{
			{"Location", record.Location},
			{"Status", record.Status},
			{"Date", record.Date},
			{"Time", record.Time},
			{"Full status", record.FullStatus},
			{"Parsed at", record.Timestamp},
		})
		t.Render()
		return nil
	},
}
