package surface

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tessro/finch/internal/core"
)

const eventBuffer = 32

// ErrNotLoaded is returned by transport calls before Load.
var ErrNotLoaded = errors.New("surface: nothing loaded")

// Clock is a headless surface. It renders nothing and advances position in
// real time while playing.
type Clock struct {
	mu       sync.Mutex
	loaded   bool
	playing  bool
	ended    bool
	base     core.Ticks
	anchor   time.Time
	duration core.Ticks
	volume   int
	closed   bool
	load     uint64

	interval time.Duration
	now      func() time.Time
	events   chan Event
	stop     chan struct{}
	done     chan struct{}
}

var _ Surface = (*Clock)(nil)

// NewClock starts a clock that emits a progress event every interval while playing.
func NewClock(interval time.Duration) *Clock {
	if interval <= 0 {
		interval = time.Second
	}
	c := &Clock{
		volume:   100,
		interval: interval,
		now:      time.Now,
		events:   make(chan Event, eventBuffer),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go c.run()
	return c
}

func (c *Clock) run() {
	defer close(c.done)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.tick()
		}
	}
}

func (c *Clock) tick() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.playing {
		return
	}
	pos := c.positionLocked()
	if c.duration > 0 && pos >= c.duration {
		c.base = c.duration
		c.playing = false
		if !c.ended {
			c.ended = true
			c.emitLocked(Event{Kind: EventEnded, Position: core.At(c.duration)})
		}
		return
	}
	c.emitLocked(Event{Kind: EventProgress, Position: core.At(pos)})
}

// Load resets the clock to the media's start offset, paused.
func (c *Clock) Load(_ context.Context, m Media) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.load++
	c.loaded = true
	c.playing = false
	c.ended = false
	c.base = 0
	if m.Start.Known {
		c.base = m.Start.Ticks
	}
	c.duration = m.Duration
	if c.duration > 0 {
		c.emitLocked(Event{Kind: EventDuration, Duration: c.duration})
	}
	return nil
}

// Play starts advancing the position.
func (c *Clock) Play(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loaded {
		return ErrNotLoaded
	}
	if !c.playing {
		c.anchor = c.now()
		c.playing = true
	}
	return nil
}

// Pause freezes the position.
func (c *Clock) Pause(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loaded {
		return ErrNotLoaded
	}
	c.base = c.positionLocked()
	c.playing = false
	c.emitLocked(Event{Kind: EventProgress, Position: core.At(c.base)})
	return nil
}

// Seek jumps to pos.
func (c *Clock) Seek(_ context.Context, pos core.Ticks) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loaded {
		return ErrNotLoaded
	}
	if pos < 0 {
		pos = 0
	}
	if c.duration > 0 && pos > c.duration {
		pos = c.duration
	}
	c.base = pos
	c.anchor = c.now()
	c.ended = false
	c.emitLocked(Event{Kind: EventProgress, Position: core.At(pos)})
	return nil
}

// Stop unloads the media. Later transport calls fail until the next Load.
func (c *Clock) Stop(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = false
	c.playing = false
	c.ended = false
	c.base = 0
	c.duration = 0
	return nil
}

// SetVolume records the volume.
func (c *Clock) SetVolume(_ context.Context, percent int) error {
	c.mu.Lock()
	c.volume = percent
	c.mu.Unlock()
	return nil
}

// Volume returns the last volume set.
func (c *Clock) Volume() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.volume
}

// Playing reports whether the clock is advancing.
func (c *Clock) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

// Position returns the current position, unknown before Load.
func (c *Clock) Position() core.Position {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded {
		return core.Position{}
	}
	return core.At(c.positionLocked())
}

// Sync overrides the position with one observed elsewhere.
func (c *Clock) Sync(pos core.Ticks) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.base = pos
	c.anchor = c.now()
}

// Emit publishes an event on the clock's channel.
func (c *Clock) Emit(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.emitLocked(ev)
}

// Generation returns the number of Load calls so far.
func (c *Clock) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load
}

// Events returns the event channel. It is closed by Close.
func (c *Clock) Events() <-chan Event {
	return c.events
}

// Close stops the clock. It is safe to call more than once.
func (c *Clock) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.playing = false
	close(c.stop)
	c.mu.Unlock()

	<-c.done

	c.mu.Lock()
	close(c.events)
	c.mu.Unlock()
	return nil
}

func (c *Clock) positionLocked() core.Ticks {
	if !c.playing {
		return c.base
	}
	return c.base + core.TicksFromDuration(c.now().Sub(c.anchor))
}

// emitLocked stamps ev with the current load and sends without blocking;
// a full buffer drops the event.
func (c *Clock) emitLocked(ev Event) {
	if c.closed {
		return
	}
	ev.Load = c.load
	select {
	case c.events <- ev:
	default:
	}
}
