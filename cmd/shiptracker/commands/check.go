package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Fetches the shipment status once and emails it if it changed.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		t := newTracker(cfg)
		ctx := cmd.Context()

		defer func() {
			r := recover()
			if r == nil {
				return
			}
			err := fmt.Errorf("check panicked: %v", r)
			slog.Error("unexpected failure during check", "err", err)
			t.ReportFailure(ctx, err)
		}()

		outcome, err := t.Check(ctx)
		if err != nil {
			// a failed fetch ends the cycle, the next scheduled run retries
			slog.Warn("no shipment data this cycle", "err", err)
		}
		slog.Debug("check finished", "outcome", outcome.String())
		return nil
	},
}
