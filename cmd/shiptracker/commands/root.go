package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"shiptracker/internal/components/telemetry"

	"github.com/mazen160/go-random"
	"github.com/spf13/cobra"
)

const serviceName = "shiptracker"

var (
	baseDir string
	verbose bool

	runID   string
	logFile *os.File
	otelTel telemetry.Telemetry
)

func init() {
	rootCmd.PersistentFlags().StringVar(&baseDir, "dir", "/home/pi/vehicle-tracker", "The directory holding config.json, last_status.json and logs/.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logs and dump raw http exchanges to <dir>/logs/http.")
}

var rootCmd = &cobra.Command{
	Use:   serviceName,
	Short: "shiptracker watches a vehicle shipment and emails status changes.",

	SilenceErrors: true,
	SilenceUsage:  true,

	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()

		tel, err := telemetry.SetupFromEnv(cmd.Context(), serviceName)
		if err != nil {
			slog.Warn("failed to setup otel, export disabled", "err", err)
		}
		otelTel = tel
	},
}

// setupLogging mirrors every log line to stdout and <dir>/logs/tracker.log.
// A log file that cannot be opened only disables the file half.
func setupLogging() {
	id, err := random.String(8)
	if err != nil {
		id = "unknown"
	}
	runID = id

	var out io.Writer = os.Stdout
	logDir := filepath.Join(baseDir, "logs")
	err = os.MkdirAll(logDir, 0755)
	if err == nil {
		logFile, err = os.OpenFile(
			filepath.Join(logDir, "tracker.log"),
			os.O_CREATE|os.O_APPEND|os.O_WRONLY,
			0644,
		)
	}
	if err == nil {
		out = io.MultiWriter(os.Stdout, logFile)
	}

	telemetry.InitSlog(out, verbose, "run", runID)
	if err != nil {
		slog.Warn("failed to open log file, logging to stdout only", "err", err)
	}
}

// cleanup flushes otel and closes the log file, it runs whether or not the
// command succeeded.
func cleanup(ctx context.Context) {
	err := otelTel.Shutdown(context.WithoutCancel(ctx))
	if err != nil {
		slog.Warn("failed to flush telemetry", "err", err)
	}
	otelTel = telemetry.Telemetry{}

	if logFile != nil {
		telemetry.InitSlog(os.Stdout, verbose, "run", runID)
		logFile.Close()
		logFile = nil
	}
}

func execute(ctx context.Context, args []string) error {
	defer cleanup(ctx)

	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		slog.Error("command failed", "err", err)
	}
	return err
}

func ExecuteContext(ctx context.Context) {
	err := execute(ctx, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
