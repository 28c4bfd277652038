package loadgen

import "time"

// epsilonRate is the floor applied before converting a rate into an
// interval, so the zero-rate start of a ramp never divides by zero.
const epsilonRate = 1e-3

// RampSchedule is a pure mapping from elapsed run time to one worker's
// instantaneous pacing interval. During the ramp window the target rate
// climbs linearly from zero; at and after the window it is constant.
//
// The schedule is consulted every loop iteration against the current wall
// clock (closed loop): a slow request simply delays the next send, it never
// produces a compensating burst of queued requests.
type RampSchedule struct {
	rate   float64
	rampUp time.Duration
}

// NewRampSchedule builds a schedule for a single worker's rate share.
func NewRampSchedule(workerRate float64, rampUp time.Duration) RampSchedule {
	return RampSchedule{rate: workerRate, rampUp: rampUp}
}

// Rate returns the instantaneous target rate at the given elapsed time,
// in requests per second.
func (s RampSchedule) Rate(elapsed time.Duration) float64 {
	if elapsed < 0 {
		elapsed = 0
	}
	if s.rampUp <= 0 || elapsed >= s.rampUp {
		return s.rate
	}
	return s.rate * (elapsed.Seconds() / s.rampUp.Seconds())
}

// PacingInterval returns the delay between consecutive sends at the given
// elapsed time. The epsilon floor keeps the interval finite at the start of
// a ramp.
func (s RampSchedule) PacingInterval(elapsed time.Duration) time.Duration {
	rate := s.Rate(elapsed)
	if rate < epsilonRate {
		rate = epsilonRate
	}
	return time.Duration(float64(time.Second) / rate)
}
