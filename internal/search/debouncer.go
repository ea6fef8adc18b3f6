// Package search turns raw search-box input into committed catalog queries.
package search

import (
	"sync"
	"time"
)

// DefaultQuietPeriod is used when a Debouncer is created with a non-positive period.
const DefaultQuietPeriod = 300 * time.Millisecond

// Debouncer holds the latest pushed text and commits it once no newer text
// arrives within the quiet period. Superseded values are dropped.
//
// commit runs on a timer goroutine (or the caller's, for Flush). Calls to
// commit never overlap and see values in the order they settled.
type Debouncer struct {
	quiet  time.Duration
	commit func(string)

	mu         sync.Mutex
	timer      *time.Timer
	pending    string
	hasPending bool
	gen        uint64
	closed     bool

	// settled values waiting for the goroutine that is currently committing
	queue    []string
	draining bool
}

// NewDebouncer creates a Debouncer that calls commit with settled text.
// commit may call back into the Debouncer; a Flush made from inside commit
// queues its value and returns, and the value is committed as soon as the
// running commit returns.
func NewDebouncer(quiet time.Duration, commit func(string)) *Debouncer {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	return &Debouncer{quiet: quiet, commit: commit}
}

// Push records text as the latest value and restarts the quiet period.
func (d *Debouncer) Push(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.stopLocked()
	d.pending = text
	d.hasPending = true
	gen := d.gen
	d.timer = time.AfterFunc(d.quiet, func() { d.fire(gen) })
}

// Flush commits the pending value now, if there is one. While another commit
// is running the value is queued behind it instead.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if !d.hasPending || d.closed {
		d.mu.Unlock()
		return
	}
	d.stopLocked()
	d.settleLocked()
}

// Cancel drops the pending value without committing it.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
	d.hasPending = false
	d.pending = ""
}

// Close cancels any pending or queued value and ignores all later pushes.
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
	d.hasPending = false
	d.pending = ""
	d.queue = nil
	d.closed = true
}

// Pending returns the value waiting to be committed.
func (d *Debouncer) Pending() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending, d.hasPending
}

// stopLocked invalidates the running timer. A callback that already started
// sees a newer generation and returns without committing.
func (d *Debouncer) stopLocked() {
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || !d.hasPending || d.closed {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.settleLocked()
}

// settleLocked moves the pending value onto the commit queue and, unless
// another goroutine is already draining it, commits the queue in order.
// It is called with d.mu held and returns with it released.
func (d *Debouncer) settleLocked() {
	d.queue = append(d.queue, d.pending)
	d.pending = ""
	d.hasPending = false
	if d.draining {
		d.mu.Unlock()
		return
	}

	d.draining = true
	for len(d.queue) > 0 && !d.closed {
		text := d.queue[0]
		d.queue = d.queue[1:]
		d.mu.Unlock()
		d.commit(text)
		d.mu.Lock()
	}
	d.queue = nil
	d.draining = false
	d.mu.Unlock()
}
