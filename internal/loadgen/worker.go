package loadgen

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/mwhitfield/barrage/internal/metrics"
)

// pollSlice caps a single pacing sleep so a sleeping worker notices the stop
// flag and ramp progression promptly.
const pollSlice = 100 * time.Millisecond

// WorkerState is owned exclusively by its worker goroutine and never touched
// by others.
type WorkerState struct {
	ID             int
	StartedAt      time.Time
	PacingInterval time.Duration
}

type worker struct {
	id       int
	pool     *Pool
	rng      *rand.Rand
	state    WorkerState
	lastSend time.Time
}

func newWorker(p *Pool, id int, seed int64) *worker {
	return &worker{
		id:   id,
		pool: p,
		rng:  rand.New(rand.NewSource(seed)),
	}
}

// run is the pacing loop: wait until the next send time per the ramp
// schedule, pick an endpoint, dispatch exactly one request, record the
// outcome, repeat until the pool clears the running flag. The next send time
// is recomputed from the wall clock every iteration, so a slow request
// delays the following one instead of causing a burst.
func (w *worker) run(ctx context.Context) {
	defer w.pool.wg.Done()

	w.state.ID = w.id
	w.state.StartedAt = time.Now()
	w.lastSend = w.pool.startTime

	for w.pool.running.Load() {
		elapsed := time.Since(w.pool.startTime)
		interval := w.pool.ramp.PacingInterval(elapsed)
		w.state.PacingInterval = interval

		wait := time.Until(w.lastSend.Add(interval))
		if wait > 0 {
			if wait > pollSlice {
				wait = pollSlice
			}
			if !sleepCtx(ctx, wait) {
				return
			}
			continue
		}

		endpoint := w.pool.selector.Pick(w.rng)
		w.lastSend = time.Now()
		w.dispatch(ctx, endpoint)
	}
}

// dispatch sends one request and records its outcome. Failures of any kind
// are recorded and never halt the loop.
func (w *worker) dispatch(ctx context.Context, ep Endpoint) {
	key := ep.Key()

	req := Request{
		Method:  ep.Method,
		URL:     w.pool.cfg.BaseURL + ep.Path,
		Timeout: w.pool.cfg.RequestTimeout,
	}
	if ep.RequiresAuth {
		token, err := w.pool.cfg.Credentials.Token()
		switch {
		case err != nil:
			w.pool.logger.Warn("credential provider failed",
				zap.Int("worker", w.id), zap.Error(err))
		case token != "":
			req.Headers = map[string]string{"Authorization": "Bearer " + token}
		}
	}

	w.pool.agg.RecordDispatch(key)
	resp, err := w.pool.cfg.Transport.Send(ctx, req)

	out := metrics.Outcome{
		Endpoint:  key,
		Timestamp: time.Now(),
	}

	switch {
	case err != nil:
		var reqErr *RequestError
		if errors.As(err, &reqErr) {
			out.ErrorKind = reqErr.Kind
			out.ErrorDetail = reqErr.Detail
			out.Duration = reqErr.Duration
		} else {
			out.ErrorKind = metrics.ErrorKindTransport
			out.ErrorDetail = err.Error()
		}

	case resp.StatusCode >= 400:
		out.StatusCode = resp.StatusCode
		out.Duration = resp.Duration
		out.Bytes = resp.Bytes
		out.ErrorKind = metrics.ErrorKindApplication
		out.ErrorDetail = resp.ErrorMessage
		if out.ErrorDetail == "" {
			out.ErrorDetail = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}

	default:
		out.StatusCode = resp.StatusCode
		out.Duration = resp.Duration
		out.Bytes = resp.Bytes
	}

	w.pool.agg.Record(out)
}

// sleepCtx sleeps for d, returning false when the context was cancelled.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
