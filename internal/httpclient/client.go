// Package httpclient implements the loadgen.Transport collaborator over
// net/http with a pooled, tunable transport.
package httpclient

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"

	"github.com/mwhitfield/barrage/internal/loadgen"
	"github.com/mwhitfield/barrage/internal/metrics"
)

// Connection pool sizing for a single-host load test.
const (
	defaultMaxIdleConns        = 1000
	defaultMaxIdleConnsPerHost = 100
)

// Client is a loadgen.Transport backed by a shared net/http client. One
// Client serves all workers; the pool keeps per-host connections warm across
// dispatches.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// Option configures a Client.
type Option func(*Client, *http.Transport)

// WithUserAgent sets the User-Agent header on every request.
func WithUserAgent(ua string) Option {
	return func(c *Client, _ *http.Transport) {
		c.userAgent = ua
	}
}

// WithInsecureTLS skips TLS certificate verification.
func WithInsecureTLS() Option {
	return func(_ *Client, t *http.Transport) {
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
}

// WithMaxConnsPerHost caps concurrent connections per host.
func WithMaxConnsPerHost(n int) Option {
	return func(_ *Client, t *http.Transport) {
		t.MaxConnsPerHost = n
	}
}

// New creates a Client with the given options.
func New(opts ...Option) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = defaultMaxIdleConns
	transport.MaxIdleConnsPerHost = defaultMaxIdleConnsPerHost
	transport.IdleConnTimeout = 90 * time.Second

	c := &Client{
		httpClient: &http.Client{Transport: transport},
	}
	for _, opt := range opts {
		opt(c, transport)
	}
	return c
}

// Send dispatches one request. Connection failures and timeouts come back as
// *loadgen.RequestError; HTTP error statuses come back as normal responses
// with an ErrorMessage taxonomy key, classification being the worker's job.
func (c *Client) Send(ctx context.Context, req loadgen.Request) (loadgen.Response, error) {
	start := time.Now()

	reqCtx := ctx
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(reqCtx, req.Method, req.URL, nil)
	if err != nil {
		return loadgen.Response{}, &loadgen.RequestError{
			Kind:     metrics.ErrorKindTransport,
			Detail:   err.Error(),
			Duration: time.Since(start),
		}
	}

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return loadgen.Response{}, classify(err, time.Since(start))
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return loadgen.Response{}, classify(err, time.Since(start))
	}

	out := loadgen.Response{
		StatusCode: resp.StatusCode,
		Duration:   time.Since(start),
		Bytes:      int64(len(body)),
	}
	if resp.StatusCode >= 400 {
		out.ErrorMessage = errorMessage(resp.StatusCode, body)
	}
	return out, nil
}

// classify turns a request error into a taxonomy-keyed RequestError,
// separating timeouts from other transport failures.
func classify(err error, elapsed time.Duration) *loadgen.RequestError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return &loadgen.RequestError{
			Kind:     metrics.ErrorKindTimeout,
			Detail:   "request timeout",
			Duration: elapsed,
		}
	}

	// Peel the url.Error / net.OpError wrappers so the taxonomy keys on
	// the root cause ("connection refused", "no such host", ...).
	detail := err.Error()
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		detail = urlErr.Err.Error()
		var opErr *net.OpError
		if errors.As(urlErr.Err, &opErr) && opErr.Err != nil {
			detail = opErr.Err.Error()
		}
	}

	return &loadgen.RequestError{
		Kind:     metrics.ErrorKindTransport,
		Detail:   detail,
		Duration: elapsed,
	}
}

// errorMessage derives the taxonomy key for an HTTP error status, pulling a
// message out of common JSON error body shapes when one is present.
func errorMessage(status int, body []byte) string {
	if gjson.ValidBytes(body) {
		for _, path := range []string{"error", "message", "detail"} {
			v := gjson.GetBytes(body, path)
			if v.Type == gjson.String && v.Str != "" {
				return fmt.Sprintf("HTTP %d: %s", status, v.Str)
			}
		}
	}
	return fmt.Sprintf("HTTP %d", status)
}
