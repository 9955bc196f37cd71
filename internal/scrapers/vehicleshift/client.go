// client.go contains the logic for submitting the vehicleshift tracking form,
// parse.go turns the resulting page into a shipment.StatusRecord.

package vehicleshift

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shiptracker/internal/components/assert"
	"shiptracker/internal/components/chrono"
	"shiptracker/internal/components/telemetry"
	"shiptracker/internal/shipment"
	"shiptracker/lib/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("shiptracker.scrapers.vehicleshift")

// ErrFetch wraps any failure to retrieve the tracking page, network errors and
// non-2xx responses alike.
var ErrFetch = errors.New("fetch error")

const (
	DefaultBaseUrl = "https://www.vehicleshift.com"
	// DefaultNonce is the WordPress form nonce the tracking page was captured
	// with, the site may rotate it.
	DefaultNonce = "c6c49001d9"

	trackPath = "/track-vehicle/"
	userAgent = "Mozilla/5.0 (X11; Linux armv7l) AppleWebKit/537.36"
)

const (
	report_client_fetch        = "client.fetch"
	report_client_current      = "client.current"
	report_client_history_rows = "client.history-rows"
)

type ClientOptions struct {
	// BaseUrl defaults to DefaultBaseUrl.
	BaseUrl string
	// Nonce defaults to DefaultNonce.
	Nonce string
	// TrackingNumber defaults to shipment.TrackingNumber.
	TrackingNumber string
	// Timeout defaults to 30 seconds.
	Timeout time.Duration
	// Output receives a dump of every http exchange if set.
	Output restyutil.InstrumentOutput
}

type Client struct {
	http           *resty.Client
	nonce          string
	trackingNumber string
	clock          chrono.TimeAPI
	tel            telemetry.API
}

func NewClient(opts ClientOptions, clock chrono.TimeAPI, tel telemetry.API) Client {
	assert.NotNil("clock", clock)
	assert.NotNil("telemetry", tel)

	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	if opts.Nonce == "" {
		opts.Nonce = DefaultNonce
	}
	if opts.TrackingNumber == "" {
		opts.TrackingNumber = shipment.TrackingNumber
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}

	tel = telemetry.NewScopedAPI("vehicleshift", tel)

	httpClient := resty.New()
	httpClient.SetBaseURL(opts.BaseUrl)
	httpClient.SetTimeout(opts.Timeout)
	httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	httpClient.SetHeaders(map[string]string{
		"accept":     "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"origin":     opts.BaseUrl,
		"referer":    opts.BaseUrl + trackPath,
		"user-agent": userAgent,
	})
	// resty only decodes gzip, keep the bypass transport from asking for br
	httpClient.SetHeader("accept-encoding", "gzip")

	telemetry.InstrumentResty(httpClient, tel)
	restyutil.InstrumentClient(httpClient, tracer, opts.Output)

	return Client{
		http:           httpClient,
		nonce:          opts.Nonce,
		trackingNumber: opts.TrackingNumber,
		clock:          clock,
		tel:            tel,
	}
}

// Fetch submits the tracking form once and returns the raw result page.
// It never retries, a failure simply ends the current cycle.
func (c Client) Fetch(ctx context.Context) (string, error) {
	ctx, span := tracer.Start(ctx, "Fetch")
	defer span.End()

	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("content-type", "application/x-www-form-urlencoded").
		SetFormData(map[string]string{
			"track_shipment_nonce":    c.nonce,
			"_wp_http_referer":        trackPath,
			"wpcargo_tracking_number": c.trackingNumber,
			"wpcargo-submit":          "TRACK RESULT",
		}).
		Post(trackPath)
	if err != nil {
		err = fmt.Errorf("%w: post tracking form: %w", ErrFetch, err)
		c.tel.ReportBroken(report_client_fetch, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to post tracking form")
		return "", err
	}
	if !res.IsSuccess() {
		err = fmt.Errorf("%w: unexpected status %s", ErrFetch, res.Status())
		c.tel.ReportBroken(report_client_fetch, err)
		span.SetStatus(codes.Error, "non-2xx response")
		return "", err
	}

	return string(res.Body()), nil
}

// Current fetches the tracking page and parses it, the error wraps either
// ErrFetch or ErrParse.
func (c Client) Current(ctx context.Context) (shipment.StatusRecord, error) {
	ctx, span := tracer.Start(ctx, "Current")
	defer span.End()

	page, err := c.Fetch(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch tracking page")
		return shipment.StatusRecord{}, err
	}

	record, rows, err := parse(page, c.clock.Now())
	if err != nil {
		c.tel.ReportBroken(report_client_current, err, len(page))
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse tracking page")
		return shipment.StatusRecord{}, err
	}

	c.tel.ReportCount(report_client_history_rows, int64(rows))
	c.tel.ReportDebug("parsed status", record.Location, record.Status)
	return record, nil
}
