// Package backoff provides the fixed exponential delay schedule used by the
// publisher's retry policy: delay(n) = min(base * multiplier^n, max).
package backoff

import (
	"math"
	"time"
)

// Schedule computes retry delays for attempts 1..N. Unlike a jittered
// free-running backoff, this schedule is pure and stateless: the same
// attempt number always yields the same delay.
type Schedule struct {
	Base       time.Duration
	Multiplier float64
	Max        time.Duration
}

// Default returns the standard publish-retry schedule: 2^n * 100ms, i.e.
// 200ms, 400ms, 800ms for attempts 1, 2, 3.
func Default() Schedule {
	return Schedule{Base: 100 * time.Millisecond, Multiplier: 2, Max: 0}
}

// Delay returns the sleep duration before attempt n (n >= 1).
func (s Schedule) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	d := float64(s.Base) * math.Pow(s.Multiplier, float64(attempt))
	if s.Max > 0 && d > float64(s.Max) {
		return s.Max
	}
	return time.Duration(d)
}
