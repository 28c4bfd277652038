package metrics

import (
	"math"
	"sort"
	"time"
)

// Percentile returns the p-th percentile of an ascending-sorted sample set
// using the nearest-rank rule: index ceil(p/100*n)-1, clamped to [0, n-1].
// The result is always a member of the sample set; an empty set yields 0.
func Percentile(sorted []time.Duration, p float64) time.Duration {
	n := len(sorted)
	if n == 0 {
		return 0
	}

	idx := int(math.Ceil(p/100*float64(n))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}

	return sorted[idx]
}

// Distribution summarizes a response-time sample set.
type Distribution struct {
	Count  int64         `json:"count"`
	Min    time.Duration `json:"min"`
	Mean   time.Duration `json:"mean"`
	Median time.Duration `json:"median"`
	P75    time.Duration `json:"p75"`
	P90    time.Duration `json:"p90"`
	P95    time.Duration `json:"p95"`
	P99    time.Duration `json:"p99"`
	P999   time.Duration `json:"p999"`
	Max    time.Duration `json:"max"`
}

// NewDistribution computes a Distribution from raw samples. The input slice
// is not modified; sorting happens on a copy. Computing the full distribution
// is O(n log n) and intended for snapshot time, not the ingestion path.
func NewDistribution(samples []time.Duration) Distribution {
	n := len(samples)
	if n == 0 {
		return Distribution{}
	}

	sorted := make([]time.Duration, n)
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var sum time.Duration
	for _, s := range sorted {
		sum += s
	}

	return Distribution{
		Count:  int64(n),
		Min:    sorted[0],
		Mean:   sum / time.Duration(n),
		Median: Percentile(sorted, 50),
		P75:    Percentile(sorted, 75),
		P90:    Percentile(sorted, 90),
		P95:    Percentile(sorted, 95),
		P99:    Percentile(sorted, 99),
		P999:   Percentile(sorted, 99.9),
		Max:    sorted[n-1],
	}
}
