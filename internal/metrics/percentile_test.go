package metrics

import (
	"testing"
	"time"
)

func millis(values ...int) []time.Duration {
	out := make([]time.Duration, len(values))
	for i, v := range values {
		out[i] = time.Duration(v) * time.Millisecond
	}
	return out
}

func TestPercentile_Empty(t *testing.T) {
	if got := Percentile(nil, 95); got != 0 {
		t.Errorf("Percentile(nil, 95) = %v, want 0", got)
	}
}

func TestPercentile_SingleSample(t *testing.T) {
	samples := millis(42)
	for _, p := range []float64{0, 50, 99, 100} {
		if got := Percentile(samples, p); got != 42*time.Millisecond {
			t.Errorf("Percentile(single, %v) = %v, want 42ms", p, got)
		}
	}
}

// TestPercentile_NearestRank checks the ceil(p/100*n)-1 index rule against
// 50 uniform samples 10ms..500ms in 10ms steps.
func TestPercentile_NearestRank(t *testing.T) {
	samples := make([]time.Duration, 50)
	for i := range samples {
		samples[i] = time.Duration((i+1)*10) * time.Millisecond
	}

	tests := []struct {
		p    float64
		want time.Duration
	}{
		{50, 250 * time.Millisecond},  // ceil(25)-1 = index 24
		{75, 380 * time.Millisecond},  // ceil(37.5)-1 = index 37
		{90, 450 * time.Millisecond},  // ceil(45)-1 = index 44
		{95, 480 * time.Millisecond},  // ceil(47.5)-1 = index 47
		{99, 500 * time.Millisecond},  // ceil(49.5)-1 = index 49
		{100, 500 * time.Millisecond}, // clamped to last index
	}

	for _, tt := range tests {
		if got := Percentile(samples, tt.p); got != tt.want {
			t.Errorf("Percentile(samples, %v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

// TestPercentile_MemberAndMonotonic verifies the result is always a member
// of the sample set and non-decreasing in p.
func TestPercentile_MemberAndMonotonic(t *testing.T) {
	samples := millis(7, 13, 13, 91, 150, 150, 151, 400, 999)
	members := make(map[time.Duration]bool, len(samples))
	for _, s := range samples {
		members[s] = true
	}

	prev := time.Duration(-1)
	for p := 0.0; p <= 100; p += 0.5 {
		got := Percentile(samples, p)
		if !members[got] {
			t.Fatalf("Percentile(samples, %v) = %v, not a member of the sample set", p, got)
		}
		if got < prev {
			t.Fatalf("Percentile not monotonic: p=%v gave %v after %v", p, got, prev)
		}
		prev = got
	}
}

func TestNewDistribution(t *testing.T) {
	// Unsorted on purpose: NewDistribution sorts a copy.
	samples := millis(300, 100, 200, 500, 400)

	d := NewDistribution(samples)

	if d.Count != 5 {
		t.Errorf("Count = %d, want 5", d.Count)
	}
	if d.Min != 100*time.Millisecond {
		t.Errorf("Min = %v, want 100ms", d.Min)
	}
	if d.Max != 500*time.Millisecond {
		t.Errorf("Max = %v, want 500ms", d.Max)
	}
	if d.Mean != 300*time.Millisecond {
		t.Errorf("Mean = %v, want 300ms", d.Mean)
	}
	if d.Median != 300*time.Millisecond {
		t.Errorf("Median = %v, want 300ms", d.Median)
	}

	// Input order must be preserved.
	if samples[0] != 300*time.Millisecond {
		t.Errorf("NewDistribution mutated its input: %v", samples)
	}
}

func TestNewDistribution_Empty(t *testing.T) {
	d := NewDistribution(nil)
	if d.Count != 0 || d.Min != 0 || d.Max != 0 {
		t.Errorf("NewDistribution(nil) = %+v, want zero value", d)
	}
}
