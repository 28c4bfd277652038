package loadgen

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mwhitfield/barrage/internal/metrics"
)

// Defaults applied by NewPool when the corresponding Config field is zero.
const (
	DefaultRequestTimeout   = 10 * time.Second
	DefaultDrainTimeout     = 10 * time.Second
	DefaultProgressInterval = time.Second
)

// Config wires a Pool together. Profile, Catalog, and Transport are
// required; everything else has sensible defaults.
type Config struct {
	Profile Profile

	// Catalog supplies the endpoint list, read once at construction.
	Catalog CatalogSource

	// BaseURL is prepended to each endpoint's path.
	BaseURL string

	// Transport dispatches the requests.
	Transport Transport

	// Credentials supplies bearer tokens for auth-requiring endpoints.
	// Defaults to Anonymous.
	Credentials CredentialProvider

	// RequestTimeout bounds each individual request.
	RequestTimeout time.Duration

	// DrainTimeout bounds how long shutdown waits for in-flight requests.
	// Outcomes arriving after the drain deadline are abandoned.
	DrainTimeout time.Duration

	// OnProgress, when set, is called every ProgressInterval with a cheap
	// read-only view of the aggregator. Informational only.
	OnProgress       func(metrics.LiveStats)
	ProgressInterval time.Duration

	// Seed makes worker randomness reproducible; 0 seeds from the clock.
	Seed int64

	Logger *zap.Logger
}

// Pool spawns the scenario's workers, coordinates start/stop/drain, and owns
// the metrics aggregator for exactly one run.
type Pool struct {
	cfg      Config
	runID    string
	selector *Selector
	ramp     RampSchedule
	agg      *metrics.Aggregator
	logger   *zap.Logger

	running   atomic.Bool
	started   atomic.Bool
	startTime time.Time
	wg        sync.WaitGroup

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewPool validates the configuration and prepares a single-run pool. All
// configuration failures surface here, before any worker starts.
func NewPool(cfg Config) (*Pool, error) {
	if err := cfg.Profile.Validate(); err != nil {
		return nil, err
	}
	if cfg.Catalog == nil {
		return nil, &ValidationError{Field: "catalog", Message: "catalog source is required"}
	}
	if cfg.Transport == nil {
		return nil, &ValidationError{Field: "transport", Message: "transport is required"}
	}
	if cfg.Credentials == nil {
		cfg.Credentials = Anonymous{}
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = DefaultDrainTimeout
	}
	if cfg.ProgressInterval <= 0 {
		cfg.ProgressInterval = DefaultProgressInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	endpoints, err := cfg.Catalog.ListEndpoints()
	if err != nil {
		return nil, err
	}
	selector, err := NewSelector(endpoints)
	if err != nil {
		return nil, err
	}

	keys := make([]string, len(endpoints))
	for i, ep := range endpoints {
		keys[i] = ep.Key()
	}

	runID := uuid.NewString()

	return &Pool{
		cfg:      cfg,
		runID:    runID,
		selector: selector,
		ramp:     NewRampSchedule(cfg.Profile.WorkerRate(), cfg.Profile.RampUp),
		agg:      metrics.NewAggregator(runID, cfg.Profile.Name, keys),
		logger:   cfg.Logger,
		stopCh:   make(chan struct{}),
	}, nil
}

// RunID identifies this run in snapshots and reports.
func (p *Pool) RunID() string {
	return p.runID
}

// Run drives the load test to completion: it spawns the workers, waits for
// the scenario duration (or an early stop), drains in-flight requests under
// the bounded drain timeout, seals the aggregator, and returns the final
// snapshot. It blocks for the whole run.
func (p *Pool) Run(ctx context.Context) (*metrics.Snapshot, error) {
	if !p.started.CompareAndSwap(false, true) {
		return nil, errors.New("loadgen: pool has already run")
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	p.startTime = time.Now()
	p.running.Store(true)

	profile := p.cfg.Profile
	p.logger.Info("starting load generation",
		zap.String("runId", p.runID),
		zap.String("scenario", profile.Name),
		zap.Duration("duration", profile.Duration),
		zap.Int("workers", profile.Workers),
		zap.Float64("targetRate", profile.TargetRate),
		zap.Float64("workerRate", profile.WorkerRate()),
		zap.Duration("rampUp", profile.RampUp))

	seed := p.cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	for i := 0; i < profile.Workers; i++ {
		w := newWorker(p, i, seed+int64(i))
		p.wg.Add(1)
		go w.run(runCtx)
	}

	progressDone := make(chan struct{})
	go p.reportProgress(runCtx, progressDone)

	select {
	case <-time.After(profile.Duration):
	case <-ctx.Done():
	case <-p.stopCh:
	}
	p.running.Store(false)

	drained := p.waitWorkers(p.cfg.DrainTimeout)
	p.agg.Seal()
	cancel()
	if !drained {
		p.logger.Warn("drain timeout exceeded, abandoning outstanding requests",
			zap.Duration("drainTimeout", p.cfg.DrainTimeout))
	}
	<-progressDone

	snapshot := p.agg.Snapshot()
	p.logger.Info("run complete",
		zap.String("runId", p.runID),
		zap.Int64("requests", snapshot.TotalRequests),
		zap.Int64("responses", snapshot.TotalResponses),
		zap.Int64("errors", snapshot.TotalErrors),
		zap.Float64("rps", snapshot.RequestsPerSec))

	return snapshot, nil
}

// Stop signals an early end of the run. Workers exit their loops and the
// normal drain path applies. Safe to call from any goroutine, more than once.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
}

// Snapshot returns the aggregator's current point-in-time view.
func (p *Pool) Snapshot() *metrics.Snapshot {
	return p.agg.Snapshot()
}

// LiveStats returns the cheap progress view of the aggregator.
func (p *Pool) LiveStats() metrics.LiveStats {
	return p.agg.LiveStats()
}

// waitWorkers blocks until every worker exits or the timeout elapses.
func (p *Pool) waitWorkers(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// reportProgress polls the aggregator on a fixed cadence and hands the
// result to the configured callback. It is a pure read and runs
// independently of worker pacing.
func (p *Pool) reportProgress(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	if p.cfg.OnProgress == nil {
		return
	}

	ticker := time.NewTicker(p.cfg.ProgressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.cfg.OnProgress(p.agg.LiveStats())
		}
	}
}
