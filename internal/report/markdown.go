// Package report renders a metrics snapshot as a Markdown document.
package report

import (
	"fmt"
	"io"
	"os"
	"text/template"
	"time"

	"github.com/mwhitfield/barrage/internal/metrics"
)

const markdownTemplate = `# Load Test Report

- **Scenario:** {{.Scenario}}
- **Run ID:** {{.RunID}}
- **Started:** {{.StartTime.Format "2006-01-02 15:04:05 MST"}}
- **Duration:** {{fmtDur .Elapsed}}

## Aggregate

| Metric | Value |
|---|---|
| Requests dispatched | {{.TotalRequests}} |
| Responses recorded | {{.TotalResponses}} |
| Errors | {{.TotalErrors}} ({{fmtPct .ErrorRate}}) |
| Throughput | {{printf "%.1f" .RequestsPerSec}} req/s |
| Peak throughput | {{printf "%.1f" .Peaks.MaxThroughput}} req/s |
| Peak error rate | {{fmtPct .Peaks.MaxErrorRate}} |
| Max response time | {{fmtDur .Peaks.MaxLatency}} |
| Bytes received | {{.TotalBytes}} |

## Latency distribution

| min | mean | p50 | p75 | p90 | p95 | p99 | p99.9 | max |
|---|---|---|---|---|---|---|---|---|
| {{fmtDur .Latency.Min}} | {{fmtDur .Latency.Mean}} | {{fmtDur .Latency.Median}} | {{fmtDur .Latency.P75}} | {{fmtDur .Latency.P90}} | {{fmtDur .Latency.P95}} | {{fmtDur .Latency.P99}} | {{fmtDur .Latency.P999}} | {{fmtDur .Latency.Max}} |
{{- if .StatusCodes}}

## Status codes

| Code | Count |
|---|---|
{{- range $code, $count := .StatusCodes}}
| {{$code}} | {{$count}} |
{{- end}}
{{- end}}
{{- if .ErrorTypes}}

## Errors by type

| Error | Count |
|---|---|
{{- range $kind, $count := .ErrorTypes}}
| {{$kind}} | {{$count}} |
{{- end}}
{{- end}}

## Endpoints

| Endpoint | Responses | req/s | p50 | p95 | p99 | Errors | Error rate |
|---|---|---|---|---|---|---|---|
{{- range .Endpoints}}
| {{.Key}} | {{.Responses}} | {{printf "%.1f" .RequestsPerSec}} | {{fmtDur .Latency.Median}} | {{fmtDur .Latency.P95}} | {{fmtDur .Latency.P99}} | {{.Errors}} | {{fmtPct .ErrorRate}} |
{{- end}}
{{- if .TimeSeries}}

## Time series ({{len .TimeSeries}} buckets of 5s)

| Start | Requests | req/s | Mean latency | Error rate |
|---|---|---|---|---|
{{- range .TimeSeries}}
| {{.Start.Format "15:04:05"}} | {{.Requests}} | {{printf "%.1f" .RequestsPerSec}} | {{fmtDur .MeanLatency}} | {{fmtPct .ErrorRate}} |
{{- end}}
{{- end}}
`

var tmpl = template.Must(template.New("markdown").Funcs(template.FuncMap{
	"fmtDur": func(d time.Duration) string { return d.Round(10 * time.Microsecond).String() },
	"fmtPct": func(f float64) string { return fmt.Sprintf("%.2f%%", f*100) },
}).Parse(markdownTemplate))

// Write renders the snapshot as Markdown to w.
func Write(w io.Writer, s *metrics.Snapshot) error {
	return tmpl.Execute(w, s)
}

// WriteFile renders the snapshot as Markdown into a file.
func WriteFile(path string, s *metrics.Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	defer f.Close()

	if err := Write(f, s); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
