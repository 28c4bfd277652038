// Package loadgen implements the rate-controlled load generation core:
// scenario profiles, weighted endpoint selection, ramp-up pacing, and the
// worker pool that drives a Transport and feeds the metrics aggregator.
package loadgen

import (
	"fmt"
	"sort"
	"time"
)

// Profile is an immutable bundle of scenario settings, fixed for the
// lifetime of a run.
type Profile struct {
	Name        string
	Description string

	// Duration is how long workers generate load before draining.
	Duration time.Duration

	// Workers is the number of independent pacing loops. Each worker has
	// at most one request in flight, so true peak concurrency equals
	// Workers.
	Workers int

	// TargetRate is the aggregate target throughput in requests per
	// second, divided evenly across workers. With RatePerWorker set, each
	// worker instead paces at TargetRate on its own, reproducing the
	// historical interpretation where the pool aims at Workers*TargetRate.
	TargetRate float64

	// RampUp is the window over which the target rate climbs linearly
	// from zero. Zero disables ramping.
	RampUp time.Duration

	RatePerWorker bool
}

// Overrides carries caller-supplied replacements for a profile's numeric
// fields. Nil fields keep the profile's value; zero is a meaningful override
// for RampUp.
type Overrides struct {
	Duration      *time.Duration
	Workers       *int
	TargetRate    *float64
	RampUp        *time.Duration
	RatePerWorker *bool
}

var profiles = map[string]Profile{
	"baseline": {
		Name:        "baseline",
		Description: "steady moderate load for everyday regression checks",
		Duration:    60 * time.Second,
		Workers:     10,
		TargetRate:  50,
		RampUp:      10 * time.Second,
	},
	"spike": {
		Name:        "spike",
		Description: "sudden burst with a very short ramp",
		Duration:    2 * time.Minute,
		Workers:     100,
		TargetRate:  500,
		RampUp:      5 * time.Second,
	},
	"stress": {
		Name:        "stress",
		Description: "sustained high load to find the breaking point",
		Duration:    5 * time.Minute,
		Workers:     200,
		TargetRate:  1000,
		RampUp:      60 * time.Second,
	},
	"endurance": {
		Name:        "endurance",
		Description: "medium load held long enough to expose drift",
		Duration:    30 * time.Minute,
		Workers:     50,
		TargetRate:  100,
		RampUp:      30 * time.Second,
	},
	"soak": {
		Name:        "soak",
		Description: "light load over hours to surface leaks",
		Duration:    4 * time.Hour,
		Workers:     25,
		TargetRate:  50,
		RampUp:      60 * time.Second,
	},
}

// ProfileNames returns the built-in scenario names, sorted.
func ProfileNames() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupProfile resolves a named scenario and applies overrides. An unknown
// name or an invalid override is a fatal configuration error, surfaced
// before any worker starts.
func LookupProfile(name string, ov Overrides) (Profile, error) {
	p, ok := profiles[name]
	if !ok {
		return Profile{}, &ValidationError{
			Field:   "scenario",
			Message: fmt.Sprintf("unknown scenario %q (known: %v)", name, ProfileNames()),
		}
	}

	if ov.Duration != nil {
		p.Duration = *ov.Duration
	}
	if ov.Workers != nil {
		p.Workers = *ov.Workers
	}
	if ov.TargetRate != nil {
		p.TargetRate = *ov.TargetRate
	}
	if ov.RampUp != nil {
		p.RampUp = *ov.RampUp
	}
	if ov.RatePerWorker != nil {
		p.RatePerWorker = *ov.RatePerWorker
	}

	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Validate checks the profile's numeric invariants.
func (p Profile) Validate() error {
	if p.Duration <= 0 {
		return &ValidationError{Field: "duration", Message: "duration must be > 0"}
	}
	if p.Workers <= 0 {
		return &ValidationError{Field: "workers", Message: "workers must be > 0"}
	}
	if p.TargetRate <= 0 {
		return &ValidationError{Field: "rate", Message: "target rate must be > 0"}
	}
	if p.RampUp < 0 {
		return &ValidationError{Field: "rampUp", Message: "ramp-up must be >= 0"}
	}
	return nil
}

// WorkerRate returns the per-worker share of the target rate.
func (p Profile) WorkerRate() float64 {
	if p.RatePerWorker {
		return p.TargetRate
	}
	return p.TargetRate / float64(p.Workers)
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "validation error on field '" + e.Field + "': " + e.Message
}
