// Package clock maps negotiation progress to normalized time in [0,1].
package clock

import (
	"sync"
	"time"
)

// Clock reports elapsed fraction of the negotiation, non-decreasing.
type Clock interface {
	NormalizedTime() float64
}

// #region deadline
// Deadline maps wall-clock time between start and start+duration onto [0,1].
type Deadline struct {
	start    time.Time
	duration time.Duration
	now      func() time.Time
}

// NewDeadlineAt builds a deadline clock with an explicit start and time source.
func NewDeadlineAt(start time.Time, duration time.Duration, now func() time.Time) *Deadline {
	return &Deadline{start: start, duration: duration, now: now}
}

// NormalizedTime implements Clock.
func (d *Deadline) NormalizedTime() float64 {
	if d.duration <= 0 {
		return 1
	}
	return clamp(float64(d.now().Sub(d.start)) / float64(d.duration))
}

// Remaining returns the wall time left before the deadline.
func (d *Deadline) Remaining() time.Duration {
	left := d.duration - d.now().Sub(d.start)
	if left < 0 {
		return 0
	}
	return left
}

// #endregion deadline

// #region rounds
// Rounds advances time by one step per Tick over a fixed number of rounds.
type Rounds struct {
	mu    sync.Mutex
	total int
	done  int
}

// NewRounds creates a rounds clock; total <= 0 is treated as already expired.
func NewRounds(total int) *Rounds {
	return &Rounds{total: total}
}

// Tick marks one round as completed.
func (r *Rounds) Tick() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done < r.total {
		r.done++
	}
}

// Done reports whether every round has been used.
func (r *Rounds) Done() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done >= r.total
}

// NormalizedTime implements Clock.
func (r *Rounds) NormalizedTime() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.total <= 0 {
		return 1
	}
	return clamp(float64(r.done) / float64(r.total))
}

// #endregion rounds

// #region manual
// Manual is set by whoever runs the protocol. It never moves backwards.
type Manual struct {
	mu sync.Mutex
	t  float64
}

// NewManual starts a manual clock at 0.
func NewManual() *Manual { return &Manual{} }

// Set advances the clock to t; earlier values are ignored.
func (m *Manual) Set(t float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t = clamp(t); t > m.t {
		m.t = t
	}
}

// NormalizedTime implements Clock.
func (m *Manual) NormalizedTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.t
}

// #endregion manual

// #region fixed
// Fixed is a clock pinned to one value. Used by replay and tests.
type Fixed float64

// NormalizedTime implements Clock.
func (f Fixed) NormalizedTime() float64 { return clamp(float64(f)) }

// #endregion fixed

func clamp(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
