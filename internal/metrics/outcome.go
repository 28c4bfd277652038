// Package metrics provides concurrency-safe aggregation of request outcomes
// and point-in-time statistics snapshots for load test runs.
package metrics

import "time"

// ErrorKind classifies a failed request outcome.
type ErrorKind string

const (
	// ErrorKindNone marks a successful outcome.
	ErrorKindNone ErrorKind = ""

	// ErrorKindTransport covers connection-level failures that never
	// produced a status code (refused, reset, DNS).
	ErrorKindTransport ErrorKind = "transport"

	// ErrorKindTimeout covers requests that exceeded the per-request timeout.
	ErrorKindTimeout ErrorKind = "timeout"

	// ErrorKindApplication covers responses with HTTP status >= 400.
	ErrorKindApplication ErrorKind = "application"
)

// Outcome is the result of a single dispatched request. It is produced once
// by the owning worker and immediately consumed by the aggregator.
type Outcome struct {
	// Endpoint is the catalog key ("METHOD /path") the request was sent to.
	Endpoint string

	// StatusCode is the HTTP status, or 0 when the request never produced
	// a response (transport failure or timeout).
	StatusCode int

	// Duration is the observed response time.
	Duration time.Duration

	// Bytes is the response body size.
	Bytes int64

	// ErrorKind classifies the failure, ErrorKindNone on success.
	ErrorKind ErrorKind

	// ErrorDetail keys the error-taxonomy histogram, e.g. "connection
	// refused" or "HTTP 503". Empty on success.
	ErrorDetail string

	// Timestamp is when the outcome was observed.
	Timestamp time.Time
}

// Failed reports whether the outcome counts as an error.
func (o Outcome) Failed() bool {
	return o.ErrorKind != ErrorKindNone
}
