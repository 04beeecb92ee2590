// Package clock provides pause-aware elapsed-time accounting.
//
// Active time is wall time minus every paused sub-interval. All gameplay
// durations (spawn gaps, invincibility, tumbling, difficulty) are measured
// in active time so a pause never counts toward them.
package clock

import "time"

// Clock tracks wall time and the portion of it that was not paused.
// Callers pass the current wall time explicitly so the game loop stays
// deterministic under test. Not safe for concurrent use.
type Clock struct {
	origin      time.Time
	paused      bool
	pausedAt    time.Time
	pausedTotal time.Duration
}

// New starts a clock at now.
func New(now time.Time) *Clock {
	return &Clock{origin: now}
}

// Reset restarts active-time accounting at now, unpaused.
func (c *Clock) Reset(now time.Time) {
	*c = Clock{origin: now}
}

// Paused reports whether active time is frozen.
func (c *Clock) Paused() bool {
	return c.paused
}

// Pause freezes active time. Pausing twice is a no-op.
func (c *Clock) Pause(now time.Time) {
	if c.paused {
		return
	}
	c.paused = true
	c.pausedAt = now
}

// Resume unfreezes active time, closing the current paused sub-interval.
func (c *Clock) Resume(now time.Time) {
	if !c.paused {
		return
	}
	if now.After(c.pausedAt) {
		c.pausedTotal += now.Sub(c.pausedAt)
	}
	c.paused = false
}

// Active returns the active time elapsed since the clock's origin.
func (c *Clock) Active(now time.Time) time.Duration {
	end := now
	if c.paused {
		end = c.pausedAt
	}
	active := end.Sub(c.origin) - c.pausedTotal
	if active < 0 {
		return 0
	}
	return active
}

// PausedTotal returns the summed length of all closed paused sub-intervals.
func (c *Clock) PausedTotal() time.Duration {
	return c.pausedTotal
}

// Stopwatch measures active time from the moment it was started.
type Stopwatch struct {
	clock *Clock
	start time.Duration
}

// Stopwatch starts a stopwatch at now.
func (c *Clock) Stopwatch(now time.Time) Stopwatch {
	return Stopwatch{clock: c, start: c.Active(now)}
}

// Elapsed returns (now − start) minus every paused sub-interval inside the window.
func (s Stopwatch) Elapsed(now time.Time) time.Duration {
	return s.clock.Active(now) - s.start
}
