package telemetry

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-resty/resty/v2"
)

const (
	report_resty_request  = "resty.request"
	report_resty_response = "resty.response"
)

type instrumentResty struct {
	tel       API
	idcounter *uint64
}

// InstrumentResty reports every request made through the client: a debug line
// before and after each request and a broken report when a request errors out.
func InstrumentResty(client *resty.Client, tel API) {
	var idcounter uint64
	i := instrumentResty{tel: tel, idcounter: &idcounter}

	client.OnBeforeRequest(i.onBeforeRequest)
	client.OnAfterResponse(i.onAfterResponse)
	client.OnError(i.onError)
}

type reqCtxKeyType int

var reqCtxKey reqCtxKeyType

type reqCtx struct {
	id        uint64
	startTime time.Time
}

func (i instrumentResty) onBeforeRequest(_ *resty.Client, req *resty.Request) error {
	id := atomic.AddUint64(i.idcounter, 1)
	ctx := context.WithValue(req.Context(), reqCtxKey, reqCtx{
		id:        id,
		startTime: time.Now(),
	})
	i.tel.ReportDebug(report_resty_request, id, req.Method, req.URL)

	req.SetContext(ctx)
	return nil
}

func (i instrumentResty) onAfterResponse(_ *resty.Client, res *resty.Response) error {
	rc, _ := res.Request.Context().Value(reqCtxKey).(reqCtx)
	i.tel.ReportDebug(
		report_resty_response,
		rc.id,
		res.Status(),
		humanize.Bytes(uint64(res.Size())),
		time.Since(rc.startTime).Round(time.Millisecond).String(),
	)
	return nil
}

// onError covers transport failures and timeouts only, resty does not call
// it for non-2xx responses.
func (i instrumentResty) onError(req *resty.Request, err error) {
	rc, _ := req.Context().Value(reqCtxKey).(reqCtx)
	i.tel.ReportBroken(
		report_resty_response,
		err,
		rc.id,
		req.Method,
		req.URL,
		time.Since(rc.startTime).Round(time.Millisecond).String(),
	)
}
