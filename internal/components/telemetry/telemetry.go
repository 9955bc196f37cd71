package telemetry

import (
	"fmt"
)

// API is how components report failures and counters. Components take an API
// instead of logging directly so tests can assert that a failure was reported.
//
// note: fault injection point
type API interface {
	// ReportBroken reports a failure someone has to look at, e.g. the tracking
	// page could not be fetched or the status file could not be written.
	//
	// The id names the component and operation, not the failing call inside
	// it: "client.fetch", not "client.fetch.http-post". Put details in params
	// or wrap the error. Ids are lowercase with a dot between the component
	// and the operation and dashes inside multi-word operations.
	ReportBroken(id string, params ...any)

	// ReportWarning reports something unexpected that the run recovers from,
	// like a corrupt status file. Ids follow ReportBroken.
	ReportWarning(id string, params ...any)

	// ReportDebug is only shown with --verbose.
	ReportDebug(msg string, params ...any)

	// ReportCount reports a point-in-time value, not an increment.
	ReportCount(id string, count int64)
}

// ScopedAPI prefixes every id with "<namespace>: ".
type ScopedAPI struct {
	namespace string
	inner     API
}

func NewScopedAPI(namespace string, inner API) ScopedAPI {
	return ScopedAPI{namespace: namespace, inner: inner}
}

func (s ScopedAPI) scoped(id string) string {
	return fmt.Sprintf("%s: %s", s.namespace, id)
}

func (s ScopedAPI) ReportBroken(id string, params ...any) {
	s.inner.ReportBroken(s.scoped(id), params...)
}

func (s ScopedAPI) ReportWarning(id string, params ...any) {
	s.inner.ReportWarning(s.scoped(id), params...)
}

func (s ScopedAPI) ReportDebug(msg string, params ...any) {
	s.inner.ReportDebug(s.scoped(msg), params...)
}

func (s ScopedAPI) ReportCount(id string, count int64) {
	s.inner.ReportCount(s.scoped(id), count)
}
