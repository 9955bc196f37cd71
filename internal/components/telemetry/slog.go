package telemetry

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"
)

// InitSlog installs the process-wide slog logger. Every line goes to w
// (usually stdout and the log file together) and carries the given attrs.
func InitSlog(w io.Writer, verbose bool, attrs ...any) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.DateTime,
		NoColor:    true,
	}))
	if len(attrs) > 0 {
		logger = logger.With(attrs...)
	}
	slog.SetDefault(logger)
}

// SlogAPI implements API on top of the default slog logger. An error param is
// logged under "err", every other param under "params.<n>".
type SlogAPI struct{}

func slogAttrs(head []any, params []any) []any {
	attrs := head
	n := 0
	for _, p := range params {
		if err, ok := p.(error); ok {
			attrs = append(attrs, "err", err.Error())
			continue
		}
		attrs = append(attrs, fmt.Sprintf("params.%d", n), p)
		n++
	}
	return attrs
}

func (SlogAPI) ReportBroken(id string, params ...any) {
	slog.Error("broken component", slogAttrs([]any{"id", id}, params)...)
}

func (SlogAPI) ReportWarning(id string, params ...any) {
	slog.Warn("warning", slogAttrs([]any{"id", id}, params)...)
}

func (SlogAPI) ReportDebug(msg string, params ...any) {
	slog.Debug(msg, slogAttrs(nil, params)...)
}

func (SlogAPI) ReportCount(id string, count int64) {
	slog.Info("count", "id", id, "n", count)
}
