package metrics

import (
	"testing"
	"time"
)

func TestBucketSeries_LazyRoll(t *testing.T) {
	bs := newBucketSeries(16)
	t0 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	// First samples fall inside a single window, no bucket closes.
	for i := 0; i < 4; i++ {
		if _, rolled := bs.record(t0.Add(time.Duration(i)*time.Second), false, 100, 20*time.Millisecond); rolled {
			t.Fatalf("bucket rolled inside the window at sample %d", i)
		}
	}

	// Window is left-open on its own width: exactly 5s later still lands in
	// the same bucket, the next sample past the width closes it.
	if _, rolled := bs.record(t0.Add(BucketWidth), true, 100, 40*time.Millisecond); rolled {
		t.Fatal("bucket rolled at exactly the bucket width")
	}

	closed, rolled := bs.record(t0.Add(BucketWidth+time.Second), false, 100, 30*time.Millisecond)
	if !rolled {
		t.Fatal("bucket did not roll after its width had elapsed")
	}
	if closed.Requests != 5 {
		t.Errorf("closed bucket Requests = %d, want 5", closed.Requests)
	}
	if closed.Errors != 1 {
		t.Errorf("closed bucket Errors = %d, want 1", closed.Errors)
	}
	if closed.Start != t0 {
		t.Errorf("closed bucket Start = %v, want %v", closed.Start, t0)
	}
	if want := 1.0; closed.RequestsPerSec != want {
		t.Errorf("closed bucket RequestsPerSec = %v, want %v", closed.RequestsPerSec, want)
	}
	if want := 0.2; closed.ErrorRate != want {
		t.Errorf("closed bucket ErrorRate = %v, want %v", closed.ErrorRate, want)
	}
}

func TestBucketSeries_RunningMean(t *testing.T) {
	bs := newBucketSeries(16)
	t0 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	bs.record(t0, false, 0, 10*time.Millisecond)
	bs.record(t0.Add(time.Second), false, 0, 20*time.Millisecond)
	bs.record(t0.Add(2*time.Second), false, 0, 60*time.Millisecond)

	closed, rolled := bs.record(t0.Add(BucketWidth+time.Second), false, 0, time.Millisecond)
	if !rolled {
		t.Fatal("expected a closed bucket")
	}
	if want := 30 * time.Millisecond; closed.MeanLatency != want {
		t.Errorf("MeanLatency = %v, want %v", closed.MeanLatency, want)
	}
}

func TestBucketSeries_SealProRatesOpenBucket(t *testing.T) {
	bs := newBucketSeries(16)
	t0 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	bs.record(t0, false, 0, 10*time.Millisecond)
	bs.record(t0.Add(time.Second), false, 0, 10*time.Millisecond)

	closed, ok := bs.seal(t0.Add(2 * time.Second))
	if !ok {
		t.Fatal("seal should close the in-progress bucket")
	}
	if want := 1.0; closed.RequestsPerSec != want {
		t.Errorf("sealed bucket RequestsPerSec = %v, want %v (2 requests over 2s)", closed.RequestsPerSec, want)
	}

	// Sealing twice is a no-op.
	if _, ok := bs.seal(t0.Add(3 * time.Second)); ok {
		t.Error("second seal closed another bucket")
	}
}

func TestBucketSeries_SnapshotIncludesOpenBucket(t *testing.T) {
	bs := newBucketSeries(16)
	t0 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	bs.record(t0, false, 0, 10*time.Millisecond)
	bs.record(t0.Add(BucketWidth+time.Second), false, 0, 10*time.Millisecond)

	buckets := bs.snapshot(t0.Add(BucketWidth + 2*time.Second))
	if len(buckets) != 2 {
		t.Fatalf("snapshot returned %d buckets, want 2 (one closed, one open)", len(buckets))
	}
	if buckets[0].Requests != 1 || buckets[1].Requests != 1 {
		t.Errorf("bucket request counts = %d, %d, want 1, 1", buckets[0].Requests, buckets[1].Requests)
	}
}

func TestBucketSeries_BoundedRetention(t *testing.T) {
	bs := newBucketSeries(3)
	t0 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 10; i++ {
		bs.record(t0.Add(time.Duration(i)*(BucketWidth+time.Second)), false, 0, time.Millisecond)
	}

	if len(bs.closed) != 3 {
		t.Errorf("retained %d closed buckets, want 3", len(bs.closed))
	}
	// Oldest buckets are discarded first.
	want := t0.Add(6 * (BucketWidth + time.Second))
	if bs.closed[0].Start != want {
		t.Errorf("oldest retained bucket starts at %v, want %v", bs.closed[0].Start, want)
	}
}
