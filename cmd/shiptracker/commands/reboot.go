package commands

import (
	"log/slog"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(rebootCmd)
}

var rebootCmd = &cobra.Command{
	Use:   "reboot-report",
	Short: "Emails a system and shipment report, meant to run once at boot.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		// a failed send is already reported, boot must not be marked failed
		err = newTracker(cfg).RebootReport(cmd.Context())
		if err != nil {
			slog.Error("failed to send reboot report", "err", err)
		}
		return nil
	},
}
