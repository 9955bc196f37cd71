package tracker

import (
	"context"
	"fmt"
	"log/slog"

	"shiptracker/internal/components/assert"
	"shiptracker/internal/components/chrono"
	"shiptracker/internal/components/sysinfo"
	"shiptracker/internal/components/telemetry"
	"shiptracker/internal/mailer"
	"shiptracker/internal/shipment"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

var (
	tracer = otel.Tracer("shiptracker.tracker")
	meter  = otel.Meter("shiptracker.tracker")

	checksCounter, _ = meter.Int64Counter(
		"tracker.checks",
		metric.WithDescription("check cycles by outcome"),
	)
)

const (
	report_tracker_check          = "tracker.check"
	report_tracker_notify         = "tracker.notify"
	report_tracker_persist        = "tracker.persist"
	report_tracker_reboot_report  = "tracker.reboot-report"
	report_tracker_report_failure = "tracker.report-failure"
)

// Source produces the current shipment status, the error wraps a fetch or
// parse failure.
type Source interface {
	Current(ctx context.Context) (shipment.StatusRecord, error)
}

// StatusStore holds the last notified status between runs.
type StatusStore interface {
	Load() shipment.PersistedStatus
	Save(status shipment.PersistedStatus) error
}

// Outcome is the result of a single check cycle.
type Outcome int

const (
	// OutcomeNoData means fetching or parsing failed, nothing was changed.
	OutcomeNoData Outcome = iota
	// OutcomeUnchanged means location and status match the persisted state.
	OutcomeUnchanged
	// OutcomeChanged means a notification was attempted and the state rewritten.
	OutcomeChanged
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoData:
		return "no-data"
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeChanged:
		return "changed"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Changed reports whether current differs from the persisted state. Only
// location and status are compared, a state that was never checked always
// counts as changed.
func Changed(last shipment.PersistedStatus, current shipment.StatusRecord) bool {
	return current.Location != last.LastLocation ||
		current.Status != last.LastStatus ||
		last.LastCheck == ""
}

type Tracker struct {
	source Source
	store  StatusStore
	mailer mailer.Mailer
	sys    sysinfo.API
	clock  chrono.TimeAPI
	tel    telemetry.API
}

func NewTracker(
	source Source,
	store StatusStore,
	mail mailer.Mailer,
	sys sysinfo.API,
	clock chrono.TimeAPI,
	tel telemetry.API,
) Tracker {
	assert.NotNil("source", source)
	assert.NotNil("store", store)
	assert.NotNil("mailer", mail)
	assert.NotNil("sysinfo", sys)
	assert.NotNil("clock", clock)
	assert.NotNil("telemetry", tel)

	return Tracker{
		source: source,
		store:  store,
		mailer: mail,
		sys:    sys,
		clock:  clock,
		tel:    telemetry.NewScopedAPI("tracker", tel),
	}
}

// Check runs one fetch, parse, diff, notify, persist cycle. The returned error
// is only non-nil for OutcomeNoData. Notification and persistence failures are
// reported but do not change the outcome: the state is saved even when the
// email could not be sent.
func (t Tracker) Check(ctx context.Context) (outcome Outcome, err error) {
	ctx, span := tracer.Start(ctx, "Check")
	defer span.End()
	defer func() {
		span.SetAttributes(attribute.String("outcome", outcome.String()))
		checksCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome.String())))
	}()

	slog.InfoContext(ctx, "starting shipment check", "tracking_number", shipment.TrackingNumber)

	current, err := t.source.Current(ctx)
	if err != nil {
		t.tel.ReportWarning(report_tracker_check, fmt.Errorf("no shipment data: %w", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "no shipment data")
		return OutcomeNoData, err
	}

	last := t.store.Load()
	if !Changed(last, current) {
		slog.InfoContext(
			ctx, "no changes detected",
			"location", current.Location,
			"status", current.Status,
		)
		return OutcomeUnchanged, nil
	}

	subject, body := UpdateMessage(current, t.clock.Now())
	err = t.mailer.Send(ctx, subject, body)
	if err != nil {
		t.tel.ReportBroken(report_tracker_notify, err)
	} else {
		slog.InfoContext(
			ctx, "status update sent",
			"location", current.Location,
			"status", current.Status,
		)
	}

	err = t.store.Save(shipment.Persist(current))
	if err != nil {
		t.tel.ReportBroken(report_tracker_persist, err)
	}

	return OutcomeChanged, nil
}

// RebootReport emails a system and shipment report. It always attempts
// exactly one email and never touches the persisted status.
func (t Tracker) RebootReport(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "RebootReport")
	defer span.End()

	sys := SystemReport{
		Uptime:    t.sys.Uptime(ctx),
		Address:   t.sys.PrimaryAddress(ctx),
		DiskUsage: t.sys.DiskUsage(ctx),
	}

	var current *shipment.StatusRecord
	record, err := t.source.Current(ctx)
	if err != nil {
		t.tel.ReportWarning(report_tracker_reboot_report, fmt.Errorf("could not fetch shipment data: %w", err))
	} else {
		current = &record
	}

	last := t.store.Load()
	subject, body := RebootMessage(sys, current, last, t.clock.Now())

	err = t.mailer.Send(ctx, subject, body)
	if err != nil {
		t.tel.ReportBroken(report_tracker_reboot_report, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send reboot report")
		return err
	}

	slog.InfoContext(ctx, "system reboot detected - notification sent")
	return nil
}

// ReportFailure emails the cause of a crashed cycle, best effort.
func (t Tracker) ReportFailure(ctx context.Context, cause error) error {
	subject, body := FailureMessage(cause, t.clock.Now())
	err := t.mailer.Send(ctx, subject, body)
	if err != nil {
		t.tel.ReportBroken(report_tracker_report_failure, err)
		return err
	}
	return nil
}
