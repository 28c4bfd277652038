package metrics

import "time"

// Peaks holds monotonic max-so-far trackers, updated O(1) per ingestion or
// bucket close.
type Peaks struct {
	// MaxLatency is the largest single response time observed.
	MaxLatency time.Duration `json:"maxLatency"`

	// MaxThroughput is the highest per-bucket request rate, in requests
	// per second.
	MaxThroughput float64 `json:"maxThroughput"`

	// MaxErrorRate is the highest per-bucket error rate (0.0 to 1.0).
	MaxErrorRate float64 `json:"maxErrorRate"`
}

// EndpointSnapshot is the per-endpoint block of a Snapshot.
type EndpointSnapshot struct {
	Key            string        `json:"key"`
	Requests       int64         `json:"requests"`
	Responses      int64         `json:"responses"`
	Errors         int64         `json:"errors"`
	Bytes          int64         `json:"bytes"`
	ErrorRate      float64       `json:"errorRate"`
	RequestsPerSec float64       `json:"requestsPerSec"`
	StatusCodes    map[int]int64 `json:"statusCodes,omitempty"`
	Latency        Distribution  `json:"latency"`
	TimeSeries     []Bucket      `json:"timeSeries,omitempty"`
}

// Snapshot is the read-only view handed to report renderers and progress
// output. It is derived from the aggregator at a point in time and never
// shares mutable state with it: repeated reads without intervening ingestion
// are identical apart from the wall-clock dependent Timestamp and Elapsed.
type Snapshot struct {
	RunID     string        `json:"runId"`
	Scenario  string        `json:"scenario,omitempty"`
	StartTime time.Time     `json:"startTime"`
	Timestamp time.Time     `json:"timestamp"`
	Elapsed   time.Duration `json:"elapsed"`

	// Aggregate block. TotalRequests counts dispatches, TotalResponses
	// counts recorded outcomes, so TotalRequests >= TotalResponses while
	// requests are in flight.
	TotalRequests  int64   `json:"totalRequests"`
	TotalResponses int64   `json:"totalResponses"`
	TotalErrors    int64   `json:"totalErrors"`
	TotalBytes     int64   `json:"totalBytes"`
	RequestsPerSec float64 `json:"requestsPerSec"`
	ErrorRate      float64 `json:"errorRate"`

	// Distribution block, computed from the full retained sample set.
	Latency Distribution `json:"latency"`

	// Histograms.
	StatusCodes map[int]int64    `json:"statusCodes,omitempty"`
	ErrorTypes  map[string]int64 `json:"errorTypes,omitempty"`

	// Per-endpoint breakdown in catalog order.
	Endpoints []EndpointSnapshot `json:"endpoints"`

	// Global time series.
	TimeSeries []Bucket `json:"timeSeries,omitempty"`

	Peaks Peaks `json:"peaks"`
}

// LiveStats is the cheap read used by the periodic progress line. Percentiles
// come from an HDR histogram in O(1) rather than sorting the raw sample sets.
type LiveStats struct {
	Elapsed        time.Duration
	TotalRequests  int64
	TotalResponses int64
	TotalErrors    int64
	RequestsPerSec float64
	ErrorRate      float64
	P50            time.Duration
	P95            time.Duration
	P99            time.Duration
	MaxLatency     time.Duration
}
