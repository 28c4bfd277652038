// Package output renders live progress and the final run summary to a
// terminal.
package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/mwhitfield/barrage/internal/metrics"
)

const progressBarWidth = 24

// ColorScheme defines the colors used for summary elements.
type ColorScheme struct {
	Title       *color.Color
	Label       *color.Color
	Value       *color.Color
	StatusOK    *color.Color
	StatusWarn  *color.Color
	StatusError *color.Color
}

// DefaultColorScheme returns the default color scheme.
func DefaultColorScheme() *ColorScheme {
	return &ColorScheme{
		Title:       color.New(color.FgCyan, color.Bold),
		Label:       color.New(color.FgYellow),
		Value:       color.New(color.FgWhite),
		StatusOK:    color.New(color.FgGreen, color.Bold),
		StatusWarn:  color.New(color.FgYellow, color.Bold),
		StatusError: color.New(color.FgRed, color.Bold),
	}
}

// NoColorScheme returns a scheme with all colors disabled.
func NoColorScheme() *ColorScheme {
	scheme := DefaultColorScheme()
	scheme.Title.DisableColor()
	scheme.Label.DisableColor()
	scheme.Value.DisableColor()
	scheme.StatusOK.DisableColor()
	scheme.StatusWarn.DisableColor()
	scheme.StatusError.DisableColor()
	return scheme
}

// Console writes the one-line live progress readout and the final summary.
type Console struct {
	w             io.Writer
	scheme        *ColorScheme
	isTTY         bool
	quiet         bool
	totalDuration time.Duration
	wroteProgress bool
}

// NewConsole creates a console bound to w. On a TTY the progress line
// rewrites itself in place; otherwise each update is its own line.
func NewConsole(w io.Writer, totalDuration time.Duration, quiet bool) *Console {
	tty := false
	if f, ok := w.(*os.File); ok {
		tty = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}

	scheme := DefaultColorScheme()
	if !tty {
		scheme = NoColorScheme()
	}

	return &Console{
		w:             w,
		scheme:        scheme,
		isTTY:         tty,
		quiet:         quiet,
		totalDuration: totalDuration,
	}
}

// Progress renders one live stats sample.
func (c *Console) Progress(ls metrics.LiveStats) {
	if c.quiet {
		return
	}

	frac := 0.0
	if c.totalDuration > 0 {
		frac = float64(ls.Elapsed) / float64(c.totalDuration)
		if frac > 1 {
			frac = 1
		}
	}

	line := fmt.Sprintf("[%s] %5.1f%%  %s  %6d req  %7.1f req/s  err %5.2f%%  p95 %s",
		progressBar(frac),
		frac*100,
		formatDuration(ls.Elapsed),
		ls.TotalResponses,
		ls.RequestsPerSec,
		ls.ErrorRate*100,
		formatDuration(ls.P95))

	if c.isTTY {
		fmt.Fprintf(c.w, "\r\033[K%s", line)
		c.wroteProgress = true
	} else {
		fmt.Fprintln(c.w, line)
	}
}

// Summary renders the final snapshot.
func (c *Console) Summary(s *metrics.Snapshot) {
	if c.isTTY && c.wroteProgress {
		fmt.Fprintln(c.w)
	}

	c.section("Run summary")
	c.row("Scenario", s.Scenario)
	c.row("Run ID", s.RunID)
	c.row("Duration", formatDuration(s.Elapsed))
	c.row("Requests", fmt.Sprintf("%d dispatched, %d completed", s.TotalRequests, s.TotalResponses))
	c.row("Throughput", fmt.Sprintf("%.1f req/s (peak %.1f req/s)", s.RequestsPerSec, s.Peaks.MaxThroughput))
	c.row("Bytes", formatBytes(s.TotalBytes))

	errLine := fmt.Sprintf("%d (%.2f%%, peak %.2f%%)", s.TotalErrors, s.ErrorRate*100, s.Peaks.MaxErrorRate*100)
	if s.TotalErrors == 0 {
		c.rowColored("Errors", errLine, c.scheme.StatusOK)
	} else {
		c.rowColored("Errors", errLine, c.scheme.StatusError)
	}

	c.section("Latency")
	d := s.Latency
	c.row("min / mean / max", fmt.Sprintf("%s / %s / %s",
		formatDuration(d.Min), formatDuration(d.Mean), formatDuration(d.Max)))
	c.row("p50 / p75 / p90", fmt.Sprintf("%s / %s / %s",
		formatDuration(d.Median), formatDuration(d.P75), formatDuration(d.P90)))
	c.row("p95 / p99 / p99.9", fmt.Sprintf("%s / %s / %s",
		formatDuration(d.P95), formatDuration(d.P99), formatDuration(d.P999)))

	if len(s.StatusCodes) > 0 {
		c.section("Status codes")
		for _, code := range sortedCodes(s.StatusCodes) {
			label := fmt.Sprintf("HTTP %d", code)
			value := fmt.Sprintf("%d", s.StatusCodes[code])
			switch {
			case code >= 500:
				c.rowColored(label, value, c.scheme.StatusError)
			case code >= 400:
				c.rowColored(label, value, c.scheme.StatusWarn)
			default:
				c.rowColored(label, value, c.scheme.StatusOK)
			}
		}
	}

	if len(s.ErrorTypes) > 0 {
		c.section("Errors by type")
		for _, kv := range sortedCounts(s.ErrorTypes) {
			c.row(kv.key, fmt.Sprintf("%d", kv.count))
		}

		if ranked := metrics.RankedErrorEndpoints(s); len(ranked) > 0 {
			c.section("Most error-prone endpoints")
			for i, ep := range ranked {
				if i == 5 {
					break
				}
				c.row(ep.Key, fmt.Sprintf("%d errors (%.2f%%)", ep.Errors, ep.ErrorRate*100))
			}
		}
	}

	c.section("Endpoints")
	for _, ep := range s.Endpoints {
		c.row(ep.Key, fmt.Sprintf("%d req  %7.1f req/s  p95 %s  err %.2f%%",
			ep.Responses, ep.RequestsPerSec, formatDuration(ep.Latency.P95), ep.ErrorRate*100))
	}
}

func (c *Console) section(title string) {
	fmt.Fprintln(c.w)
	c.scheme.Title.Fprintln(c.w, title)
}

func (c *Console) row(label, value string) {
	c.rowColored(label, value, c.scheme.Value)
}

func (c *Console) rowColored(label, value string, valueColor *color.Color) {
	c.scheme.Label.Fprintf(c.w, "  %-28s", label)
	valueColor.Fprintln(c.w, value)
}

func progressBar(frac float64) string {
	filled := int(frac * progressBarWidth)
	if filled > progressBarWidth {
		filled = progressBarWidth
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", progressBarWidth-filled)
}

func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Minute:
		return d.Round(time.Second).String()
	case d >= time.Second:
		return d.Round(10 * time.Millisecond).String()
	case d >= time.Millisecond:
		return d.Round(10 * time.Microsecond).String()
	default:
		return d.Round(time.Microsecond).String()
	}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func sortedCodes(m map[int]int64) []int {
	codes := make([]int, 0, len(m))
	for code := range m {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	return codes
}

type countEntry struct {
	key   string
	count int64
}

func sortedCounts(m map[string]int64) []countEntry {
	entries := make([]countEntry, 0, len(m))
	for k, v := range m {
		entries = append(entries, countEntry{k, v})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].key < entries[j].key
	})
	return entries
}
