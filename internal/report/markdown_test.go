package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mwhitfield/barrage/internal/metrics"
)

func sampleSnapshot() *metrics.Snapshot {
	start := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	return &metrics.Snapshot{
		RunID:          "run-123",
		Scenario:       "baseline",
		StartTime:      start,
		Elapsed:        60 * time.Second,
		TotalRequests:  1000,
		TotalResponses: 1000,
		TotalErrors:    100,
		TotalBytes:     4096,
		RequestsPerSec: 16.7,
		ErrorRate:      0.1,
		Latency: metrics.Distribution{
			Count: 1000, Min: time.Millisecond, Mean: 25 * time.Millisecond,
			Median: 20 * time.Millisecond, P95: 48 * time.Millisecond,
			P99: 50 * time.Millisecond, Max: 55 * time.Millisecond,
		},
		StatusCodes: map[int]int64{200: 900, 500: 100},
		ErrorTypes:  map[string]int64{"HTTP 500": 100},
		Endpoints: []metrics.EndpointSnapshot{
			{Key: "GET /api/users", Responses: 700, Errors: 70, ErrorRate: 0.1},
			{Key: "POST /api/orders", Responses: 300, Errors: 30, ErrorRate: 0.1},
		},
		TimeSeries: []metrics.Bucket{
			{Start: start, Requests: 80, RequestsPerSec: 16, MeanLatency: 25 * time.Millisecond, ErrorRate: 0.1},
			{Start: start.Add(5 * time.Second), Requests: 85, RequestsPerSec: 17, MeanLatency: 24 * time.Millisecond, ErrorRate: 0.09},
		},
		Peaks: metrics.Peaks{MaxLatency: 55 * time.Millisecond, MaxThroughput: 17, MaxErrorRate: 0.1},
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleSnapshot()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"# Load Test Report",
		"**Scenario:** baseline",
		"**Run ID:** run-123",
		"## Aggregate",
		"| Requests dispatched | 1000 |",
		"| Errors | 100 (10.00%) |",
		"## Latency distribution",
		"## Status codes",
		"| 200 | 900 |",
		"## Errors by type",
		"| HTTP 500 | 100 |",
		"## Endpoints",
		"| GET /api/users | 700 |",
		"## Time series (2 buckets of 5s)",
		"| 10:00:00 | 80 |",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestWrite_OmitsEmptySections(t *testing.T) {
	s := sampleSnapshot()
	s.StatusCodes = nil
	s.ErrorTypes = nil
	s.TimeSeries = nil

	var buf bytes.Buffer
	if err := Write(&buf, s); err != nil {
		t.Fatalf("Write: %v", err)
	}

	out := buf.String()
	for _, absent := range []string{"## Status codes", "## Errors by type", "## Time series"} {
		if strings.Contains(out, absent) {
			t.Errorf("report should omit %q when empty", absent)
		}
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.md")
	if err := WriteFile(path, sampleSnapshot()); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}
	if !strings.HasPrefix(string(data), "# Load Test Report") {
		t.Errorf("report starts with %q", string(data[:40]))
	}
}
