// Package debounce collapses a rapidly changing input into a single
// settled value once the input has stopped changing for a quiet period.
package debounce

import (
	"sync"
	"time"

	"github.com/artpar/liftoff/internal/clock"
)

// Option configures a Debouncer.
type Option func(*options)

type options struct {
	clock clock.Clock
}

// WithClock sets the time source. Defaults to clock.Real().
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// Debouncer holds a settled value that only follows the input after the
// input has stayed the same for the full delay. Every Set restarts the
// timer against the new value, so intermediate values are never
// observed.
//
// The settled value equals the initial input from construction, with no
// artificial delay.
type Debouncer[T comparable] struct {
	mu       sync.Mutex
	clock    clock.Clock
	delay    time.Duration
	value    T
	pending  *T
	timer    *clock.Timer
	seq      uint64
	onSettle func(T)
	stopped  bool
}

// New creates a Debouncer whose settled value starts at initial.
// onSettle, if non-nil, is called exactly once per settle with the new
// value, from the timer's goroutine and without any lock held.
func New[T comparable](initial T, delay time.Duration, onSettle func(T), opts ...Option) *Debouncer[T] {
	o := options{clock: clock.Real()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Debouncer[T]{
		clock:    o.clock,
		delay:    delay,
		value:    initial,
		onSettle: onSettle,
	}
}

// Set records a new input value and restarts the quiet period. Setting
// the value that is already settled cancels any pending change.
func (d *Debouncer[T]) Set(v T) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}

	d.cancelLocked()
	if v == d.value {
		d.mu.Unlock()
		return
	}

	if d.delay <= 0 {
		d.value = v
		cb := d.onSettle
		d.mu.Unlock()
		if cb != nil {
			cb(v)
		}
		return
	}

	d.seq++
	seq := d.seq
	d.pending = &v
	d.mu.Unlock()

	// Registered outside the lock: a fake clock may run the callback
	// synchronously.
	timer := d.clock.AfterFunc(d.delay, func() { d.fire(seq) })

	d.mu.Lock()
	if d.seq == seq && d.pending != nil && !d.stopped {
		d.timer = timer
	} else {
		timer.Stop()
	}
	d.mu.Unlock()
}

// Reset replaces both the input and the settled value immediately,
// dropping any pending change. onSettle is not called.
func (d *Debouncer[T]) Reset(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
	d.value = v
}

// Value returns the settled value.
func (d *Debouncer[T]) Value() T {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.value
}

// Pending returns the value waiting to settle, if any.
func (d *Debouncer[T]) Pending() (T, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending == nil {
		var zero T
		return zero, false
	}
	return *d.pending, true
}

// Stop cancels any pending timer. Later calls to Set are ignored.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
	d.stopped = true
}

func (d *Debouncer[T]) cancelLocked() {
	d.seq++
	d.pending = nil
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Debouncer[T]) fire(seq uint64) {
	d.mu.Lock()
	if d.stopped || seq != d.seq || d.pending == nil {
		d.mu.Unlock()
		return
	}
	d.value = *d.pending
	d.pending = nil
	d.timer = nil
	v, cb := d.value, d.onSettle
	d.mu.Unlock()

	if cb != nil {
		cb(v)
	}
}
