package loadgen

import (
	"context"
	"time"

	"github.com/mwhitfield/barrage/internal/metrics"
)

// Request is one dispatch handed to the Transport.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string

	// Timeout bounds this single request; zero means no per-request bound
	// beyond the supplied context.
	Timeout time.Duration
}

// Response is a completed exchange. A status >= 400 still arrives here, not
// as an error: application failures are classified by the worker.
type Response struct {
	StatusCode int
	Duration   time.Duration
	Bytes      int64

	// ErrorMessage carries a taxonomy key for status >= 400 responses
	// when the transport can extract one from the body.
	ErrorMessage string
}

// Transport is the black-box request/response collaborator. Connection
// pooling, TLS, and keep-alive are its concern; the core depends only on
// this signature. Implementations must honor context cancellation and are
// expected to return *RequestError for dispatches that never produced a
// response.
type Transport interface {
	Send(ctx context.Context, req Request) (Response, error)
}

// RequestError is returned by Transport implementations when a dispatch
// fails before producing a usable response.
type RequestError struct {
	Kind     metrics.ErrorKind
	Detail   string
	Duration time.Duration
}

func (e *RequestError) Error() string {
	return string(e.Kind) + ": " + e.Detail
}
