package commands

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"shiptracker/internal/components/chrono"
	"shiptracker/internal/components/sysinfo"
	"shiptracker/internal/components/telemetry"
	"shiptracker/internal/config"
	"shiptracker/internal/mailer"
	"shiptracker/internal/scrapers/vehicleshift"
	"shiptracker/internal/statusstore"
	"shiptracker/internal/tracker"
	"shiptracker/lib/restyutil"
)

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func openStore(tel telemetry.API) statusstore.Store {
	return statusstore.NewStore(filepath.Join(baseDir, "last_status.json"), tel)
}

func newScraper(cfg config.Config, tel telemetry.API) vehicleshift.Client {
	opts := vehicleshift.ClientOptions{
		Nonce: cfg.Tracking.Nonce,
	}
	if verbose {
		output, err := restyutil.NewFilesystemOutput(filepath.Join(baseDir, "logs", "http"), runID)
		if err != nil {
			slog.Warn("failed to create http dump directory", "err", err)
		} else {
			opts.Output = output
		}
	}
	return vehicleshift.NewClient(opts, chrono.NewStandardTime(), tel)
}

func newTracker(cfg config.Config) tracker.Tracker {
	tel := telemetry.SlogAPI{}
	return tracker.NewTracker(
		newScraper(cfg, tel),
		openStore(tel),
		mailer.NewSMTP(cfg.Email, tel),
		sysinfo.NewHost(tel),
		chrono.NewStandardTime(),
		tel,
	)
}
