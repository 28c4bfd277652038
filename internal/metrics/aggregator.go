package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// HDR histogram bounds: 1 microsecond to 1 hour, 3 significant figures.
const (
	histMin     = 1
	histMax     = 3600000000
	histSigFigs = 3
)

// endpointMaxBuckets bounds per-endpoint time series independently of the
// global series.
const endpointMaxBuckets = 2048

// Aggregator ingests request outcomes from all workers and produces
// consistent snapshots. It is the single piece of cross-worker mutable state
// in a run; a single mutex guards every update, which is sufficient because
// per-call work is O(1) amortized aside from the sample append.
//
// Full response-time sample sets are retained (globally and per endpoint) so
// snapshot percentiles follow the exact nearest-rank rule. Memory therefore
// grows with the number of recorded outcomes; long soak runs at high rates
// would need a bounded reservoir or streaming quantile estimator instead.
// The HDR histogram carried alongside serves the frequent progress reads in
// O(1) so the raw samples are only sorted when a full snapshot is taken.
type Aggregator struct {
	mu sync.Mutex

	runID    string
	scenario string

	startTime time.Time
	nowFn     func() time.Time

	totalRequests  int64
	totalResponses int64
	totalErrors    int64
	totalBytes     int64

	samples     []time.Duration
	statusCodes map[int]int64
	errorTypes  map[string]int64

	endpoints map[string]*endpointMetrics
	order     []string

	series *bucketSeries
	peaks  Peaks
	live   *hdrhistogram.Histogram

	sealed   bool
	sealedAt time.Time
}

type endpointMetrics struct {
	requests    int64
	responses   int64
	errors      int64
	bytes       int64
	samples     []time.Duration
	statusCodes map[int]int64
	series      *bucketSeries
}

func newEndpointMetrics() *endpointMetrics {
	return &endpointMetrics{
		statusCodes: make(map[int]int64),
		series:      newBucketSeries(endpointMaxBuckets),
	}
}

// NewAggregator creates a fresh aggregator for a single run. Endpoint keys
// are pre-registered so the snapshot's per-endpoint array keeps catalog
// order; outcomes for unknown keys register on first sight.
func NewAggregator(runID, scenario string, endpointKeys []string) *Aggregator {
	a := &Aggregator{
		runID:       runID,
		scenario:    scenario,
		nowFn:       time.Now,
		statusCodes: make(map[int]int64),
		errorTypes:  make(map[string]int64),
		endpoints:   make(map[string]*endpointMetrics),
		series:      newBucketSeries(defaultMaxBuckets),
		live:        hdrhistogram.New(histMin, histMax, histSigFigs),
	}
	a.startTime = a.nowFn()
	for _, key := range endpointKeys {
		a.register(key)
	}
	return a
}

func (a *Aggregator) register(key string) *endpointMetrics {
	ep, ok := a.endpoints[key]
	if !ok {
		ep = newEndpointMetrics()
		a.endpoints[key] = ep
		a.order = append(a.order, key)
	}
	return ep
}

// RecordDispatch counts a request the moment it leaves a worker, before any
// response exists. This keeps totalRequests >= totalResponses observable in
// snapshots while requests are in flight.
func (a *Aggregator) RecordDispatch(endpointKey string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.sealed {
		return
	}

	a.totalRequests++
	a.register(endpointKey).requests++
}

// Record ingests one completed outcome. Safe for concurrent use from every
// worker. Calls after Seal are dropped: outcomes completing past the drain
// deadline are abandoned by contract.
func (a *Aggregator) Record(o Outcome) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.sealed {
		return
	}

	now := o.Timestamp
	if now.IsZero() {
		now = a.nowFn()
	}

	a.totalResponses++
	a.totalBytes += o.Bytes
	a.samples = append(a.samples, o.Duration)

	if o.StatusCode > 0 {
		a.statusCodes[o.StatusCode]++
	}
	if o.Failed() {
		a.totalErrors++
		detail := o.ErrorDetail
		if detail == "" {
			detail = string(o.ErrorKind)
		}
		a.errorTypes[detail]++
	}

	if o.Duration > a.peaks.MaxLatency {
		a.peaks.MaxLatency = o.Duration
	}
	a.observeBucket(a.series.record(now, o.Failed(), o.Bytes, o.Duration))

	micros := o.Duration.Microseconds()
	if micros < histMin {
		micros = histMin
	}
	if micros > histMax {
		micros = histMax
	}
	a.live.RecordValue(micros)

	ep := a.register(o.Endpoint)
	ep.responses++
	ep.bytes += o.Bytes
	ep.samples = append(ep.samples, o.Duration)
	if o.StatusCode > 0 {
		ep.statusCodes[o.StatusCode]++
	}
	if o.Failed() {
		ep.errors++
	}
	ep.series.record(now, o.Failed(), o.Bytes, o.Duration)
}

// observeBucket folds a closed bucket into the peak trackers.
func (a *Aggregator) observeBucket(b Bucket, closed bool) {
	if !closed {
		return
	}
	if b.RequestsPerSec > a.peaks.MaxThroughput {
		a.peaks.MaxThroughput = b.RequestsPerSec
	}
	if b.ErrorRate > a.peaks.MaxErrorRate {
		a.peaks.MaxErrorRate = b.ErrorRate
	}
}

// Seal finalizes the aggregator at the end of a run: open time-series buckets
// are closed, elapsed time freezes, and any further Record calls become
// no-ops. Snapshots taken after Seal are fully stable.
func (a *Aggregator) Seal() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.sealed {
		return
	}

	now := a.nowFn()
	a.observeBucket(a.series.seal(now))
	for _, ep := range a.endpoints {
		ep.series.seal(now)
	}

	a.sealed = true
	a.sealedAt = now
}

// elapsed assumes the lock is held.
func (a *Aggregator) elapsed(now time.Time) time.Duration {
	if a.sealed {
		return a.sealedAt.Sub(a.startTime)
	}
	return now.Sub(a.startTime)
}

// LiveStats returns the cheap progress view. Percentiles come from the HDR
// histogram, so this never touches the raw sample arrays.
func (a *Aggregator) LiveStats() LiveStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.nowFn()
	elapsed := a.elapsed(now)

	ls := LiveStats{
		Elapsed:        elapsed,
		TotalRequests:  a.totalRequests,
		TotalResponses: a.totalResponses,
		TotalErrors:    a.totalErrors,
		P50:            time.Duration(a.live.ValueAtQuantile(50)) * time.Microsecond,
		P95:            time.Duration(a.live.ValueAtQuantile(95)) * time.Microsecond,
		P99:            time.Duration(a.live.ValueAtQuantile(99)) * time.Microsecond,
		MaxLatency:     a.peaks.MaxLatency,
	}
	if secs := elapsed.Seconds(); secs > 0 {
		ls.RequestsPerSec = float64(a.totalResponses) / secs
	}
	if a.totalResponses > 0 {
		ls.ErrorRate = float64(a.totalErrors) / float64(a.totalResponses)
	}
	return ls
}

// Snapshot computes the full point-in-time view. It is a pure read: the
// aggregator is never mutated and every map and slice in the result is a
// copy. Sorting the retained samples makes this O(n log n); snapshots are
// expected to be far less frequent than ingestion.
func (a *Aggregator) Snapshot() *Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.nowFn()
	elapsed := a.elapsed(now)
	seriesNow := now
	if a.sealed {
		seriesNow = a.sealedAt
	}

	s := &Snapshot{
		RunID:          a.runID,
		Scenario:       a.scenario,
		StartTime:      a.startTime,
		Timestamp:      now,
		Elapsed:        elapsed,
		TotalRequests:  a.totalRequests,
		TotalResponses: a.totalResponses,
		TotalErrors:    a.totalErrors,
		TotalBytes:     a.totalBytes,
		Latency:        NewDistribution(a.samples),
		StatusCodes:    copyIntMap(a.statusCodes),
		ErrorTypes:     copyStringMap(a.errorTypes),
		TimeSeries:     a.series.snapshot(seriesNow),
		Peaks:          a.peaks,
	}
	if secs := elapsed.Seconds(); secs > 0 {
		s.RequestsPerSec = float64(a.totalResponses) / secs
	}
	if a.totalResponses > 0 {
		s.ErrorRate = float64(a.totalErrors) / float64(a.totalResponses)
	}

	s.Endpoints = make([]EndpointSnapshot, 0, len(a.order))
	for _, key := range a.order {
		ep := a.endpoints[key]
		es := EndpointSnapshot{
			Key:         key,
			Requests:    ep.requests,
			Responses:   ep.responses,
			Errors:      ep.errors,
			Bytes:       ep.bytes,
			StatusCodes: copyIntMap(ep.statusCodes),
			Latency:     NewDistribution(ep.samples),
			TimeSeries:  ep.series.snapshot(seriesNow),
		}
		if ep.responses > 0 {
			es.ErrorRate = float64(ep.errors) / float64(ep.responses)
		}
		if secs := elapsed.Seconds(); secs > 0 {
			es.RequestsPerSec = float64(ep.responses) / secs
		}
		s.Endpoints = append(s.Endpoints, es)
	}

	return s
}

// RankedErrorEndpoints returns endpoint snapshots ordered by error count
// descending, endpoints without errors excluded.
func RankedErrorEndpoints(s *Snapshot) []EndpointSnapshot {
	ranked := make([]EndpointSnapshot, 0, len(s.Endpoints))
	for _, ep := range s.Endpoints {
		if ep.Errors > 0 {
			ranked = append(ranked, ep)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Errors > ranked[j].Errors })
	return ranked
}

func copyIntMap(m map[int]int64) map[int]int64 {
	if len(m) == 0 {
		return nil
	}
	out := make(map[int]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyStringMap(m map[string]int64) map[string]int64 {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
