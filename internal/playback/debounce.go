package playback

import (
	"sync"
	"time"
)

// Debouncer delays calls to fn until delay has passed without another
// call. Only the most recent value is delivered. With a max wait, a value
// pending for that long is delivered even while calls keep coming.
type Debouncer[T any] struct {
	mu      sync.Mutex
	delay   time.Duration
	maxWait time.Duration
	fn      func(T)
	timer   *time.Timer
	gen     uint64
	value   T
	pending bool
	since   time.Time
	now     func() time.Time
}

// NewDebouncer creates a debouncer that calls fn with the last value.
// A zero maxWait waits for quiet indefinitely.
func NewDebouncer[T any](delay, maxWait time.Duration, fn func(T)) *Debouncer[T] {
	return &Debouncer[T]{delay: delay, maxWait: maxWait, fn: fn, now: time.Now}
}

// Call schedules fn(v), replacing any value not yet delivered.
func (d *Debouncer[T]) Call(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.pending {
		d.since = d.now()
	}
	d.value = v
	d.pending = true
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}

	wait := d.delay
	if d.maxWait > 0 {
		left := d.maxWait - d.now().Sub(d.since)
		if left < 0 {
			left = 0
		}
		if left < wait {
			wait = left
		}
	}
	d.timer = time.AfterFunc(wait, func() { d.fire(gen) })
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || !d.pending {
		d.mu.Unlock()
		return
	}
	v := d.value
	d.pending = false
	d.mu.Unlock()

	d.fn(v)
}

// Flush delivers a pending value now.
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	v, pending := d.value, d.pending
	d.pending = false
	d.mu.Unlock()

	if pending {
		d.fn(v)
	}
}

// Cancel drops a pending value.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	d.pending = false
}
