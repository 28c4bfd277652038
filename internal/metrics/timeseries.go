package metrics

import "time"

// BucketWidth is the fixed width of a time-series sampling window.
const BucketWidth = 5 * time.Second

// defaultMaxBuckets bounds retained time series for long soak runs
// (8192 * 5s is a little over 11 hours of data).
const defaultMaxBuckets = 8192

// Bucket captures aggregate activity inside one fixed-width window.
// Latency is tracked as an incrementally updated running mean rather than
// raw samples, keeping per-bucket memory constant.
type Bucket struct {
	Start          time.Time     `json:"start"`
	Requests       int64         `json:"requests"`
	Errors         int64         `json:"errors"`
	Bytes          int64         `json:"bytes"`
	MeanLatency    time.Duration `json:"meanLatency"`
	RequestsPerSec float64       `json:"requestsPerSec"`
	ErrorRate      float64       `json:"errorRate"`
}

// bucketSeries accumulates fixed-width buckets. A new bucket opens lazily on
// the first sample after the previous bucket's width has elapsed; there is no
// background ticker. Not safe for concurrent use: callers synchronize (the
// aggregator records under its own mutex).
type bucketSeries struct {
	closed []Bucket
	max    int

	open      bool
	start     time.Time
	requests  int64
	errors    int64
	bytes     int64
	meanNanos float64
}

func newBucketSeries(max int) *bucketSeries {
	if max <= 0 {
		max = defaultMaxBuckets
	}
	return &bucketSeries{max: max}
}

// record adds one outcome to the series, rolling the window first when the
// current bucket's width has elapsed. It returns the closed bucket, if any,
// so the caller can update peak trackers.
func (bs *bucketSeries) record(now time.Time, failed bool, bytes int64, latency time.Duration) (Bucket, bool) {
	closed, rolled := bs.roll(now)

	bs.requests++
	if failed {
		bs.errors++
	}
	bs.bytes += bytes
	bs.meanNanos += (float64(latency) - bs.meanNanos) / float64(bs.requests)

	return closed, rolled
}

// roll opens a fresh bucket at now when needed, closing the previous one.
func (bs *bucketSeries) roll(now time.Time) (Bucket, bool) {
	if !bs.open {
		bs.open = true
		bs.start = now
		return Bucket{}, false
	}
	if now.Sub(bs.start) <= BucketWidth {
		return Bucket{}, false
	}

	closed := bs.finalize(BucketWidth)
	bs.closed = append(bs.closed, closed)
	if len(bs.closed) > bs.max {
		bs.closed = bs.closed[1:]
	}

	bs.start = now
	bs.requests = 0
	bs.errors = 0
	bs.bytes = 0
	bs.meanNanos = 0

	return closed, true
}

// finalize derives the rate figures for the open bucket over the given span.
func (bs *bucketSeries) finalize(span time.Duration) Bucket {
	if span <= 0 {
		span = BucketWidth
	}

	b := Bucket{
		Start:       bs.start,
		Requests:    bs.requests,
		Errors:      bs.errors,
		Bytes:       bs.bytes,
		MeanLatency: time.Duration(bs.meanNanos),
	}
	b.RequestsPerSec = float64(b.Requests) / span.Seconds()
	if b.Requests > 0 {
		b.ErrorRate = float64(b.Errors) / float64(b.Requests)
	}
	return b
}

// seal closes the in-progress bucket, if any, pro-rated over the time it has
// actually been open. Called once at the end of a run.
func (bs *bucketSeries) seal(now time.Time) (Bucket, bool) {
	if !bs.open || bs.requests == 0 {
		bs.open = false
		return Bucket{}, false
	}

	span := now.Sub(bs.start)
	if span > BucketWidth {
		span = BucketWidth
	}
	closed := bs.finalize(span)
	bs.closed = append(bs.closed, closed)
	if len(bs.closed) > bs.max {
		bs.closed = bs.closed[1:]
	}
	bs.open = false

	return closed, true
}

// snapshot returns all closed buckets plus the in-progress bucket pro-rated
// as of now. The returned slice is a copy.
func (bs *bucketSeries) snapshot(now time.Time) []Bucket {
	out := make([]Bucket, len(bs.closed), len(bs.closed)+1)
	copy(out, bs.closed)

	if bs.open && bs.requests > 0 {
		span := now.Sub(bs.start)
		if span > BucketWidth {
			span = BucketWidth
		}
		out = append(out, bs.finalize(span))
	}

	return out
}
