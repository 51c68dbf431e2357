package engine

import "time"

// DefaultQuietPeriod is the minimum quiet time before a pending write fires.
const DefaultQuietPeriod = 2 * time.Second

// Debouncer is a single pending-write slot. Scheduling replaces any pending
// write and restarts the quiet period; only the newest generation may fire.
type Debouncer struct {
	quiet    time.Duration
	gen      uint64
	pending  bool
	deadline time.Time
}

// NewDebouncer creates a Debouncer with the given quiet period.
func NewDebouncer(quiet time.Duration) *Debouncer {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	return &Debouncer{quiet: quiet}
}

// Quiet returns the quiet period.
func (d *Debouncer) Quiet() time.Duration {
	return d.quiet
}

// Schedule fills the slot and returns the generation the caller's timer must
// present to Fire.
func (d *Debouncer) Schedule(now time.Time) uint64 {
	d.gen++
	d.pending = true
	d.deadline = now.Add(d.quiet)
	return d.gen
}

// Fire empties the slot if gen is the latest generation and its quiet period
// has elapsed. Stale or early timers get false.
func (d *Debouncer) Fire(gen uint64, now time.Time) bool {
	if !d.pending || gen != d.gen {
		return false
	}
	if now.Before(d.deadline) {
		return false
	}
	d.pending = false
	return true
}

// Cancel empties the slot without firing.
func (d *Debouncer) Cancel() {
	d.pending = false
}

// Pending reports whether a write is waiting.
func (d *Debouncer) Pending() bool {
	return d.pending
}

// Deadline returns when the pending write becomes due.
func (d *Debouncer) Deadline() time.Time {
	return d.deadline
}
