// Package tail follows playback across the user's devices.
package tail

import (
	"context"
	"time"

	"github.com/tessro/finch/internal/core"
)

// EventType represents the type of playback event.
type EventType int

const (
	EventStarted EventType = iota
	EventStopped
	EventItemChange
	EventPause
	EventResume
	EventSeek
	EventVolumeChange
)

func (t EventType) String() string {
	return eventTypeName(t)
}

// seekTolerance is how far a position may drift from the expected one
// before it counts as a seek.
const seekTolerance = 5 * time.Second

// Event represents a playback change on one session.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Previous  *core.RemoteSession
	Current   *core.RemoteSession
}

// Session returns the session the event is about.
func (e Event) Session() *core.RemoteSession {
	if e.Current != nil {
		return e.Current
	}
	return e.Previous
}

// SessionLister lists server sessions. *client.Client satisfies it.
type SessionLister interface {
	GetSessions(ctx context.Context, activeWithinSeconds int) ([]core.RemoteSession, error)
}

// Watcher polls the server's session list and emits events.
type Watcher struct {
	sessions SessionLister
	interval time.Duration
	userID   string
	deviceID string
	events   chan Event
	done     chan struct{}
	now      func() time.Time
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// ForUser limits events to sessions of one user.
func ForUser(userID string) WatcherOption {
	return func(w *Watcher) { w.userID = userID }
}

// ForDevice limits events to one device.
func ForDevice(deviceID string) WatcherOption {
	return func(w *Watcher) { w.deviceID = deviceID }
}

// NewWatcher creates a new session watcher.
func NewWatcher(sessions SessionLister, interval time.Duration, opts ...WatcherOption) *Watcher {
	if interval == 0 {
		interval = time.Second
	}
	w := &Watcher{
		sessions: sessions,
		interval: interval,
		events:   make(chan Event, 16),
		done:     make(chan struct{}),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Events returns the channel of playback events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start polls until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	defer close(w.events)

	prev, _ := w.poll(ctx)
	for _, e := range diffSessions(nil, prev, w.interval, w.now()) {
		w.emit(e)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.done:
			return nil
		case <-ticker.C:
			curr, err := w.poll(ctx)
			if err != nil {
				continue
			}
			for _, e := range diffSessions(prev, curr, w.interval, w.now()) {
				w.emit(e)
			}
			prev = curr
		}
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	close(w.done)
}

func (w *Watcher) emit(e Event) {
	select {
	case w.events <- e:
	default:
		// Drop event if channel is full
	}
}

func (w *Watcher) poll(ctx context.Context) (map[string]*core.RemoteSession, error) {
	list, err := w.sessions.GetSessions(ctx, 0)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*core.RemoteSession, len(list))
	for i := range list {
		s := &list[i]
		if w.userID != "" && s.UserID != w.userID {
			continue
		}
		if w.deviceID != "" && s.DeviceID != w.deviceID {
			continue
		}
		out[s.ID] = s
	}
	return out, nil
}

// diffSessions compares two polls and returns detected events.
func diffSessions(prev, curr map[string]*core.RemoteSession, elapsed time.Duration, now time.Time) []Event {
	var events []Event

	for id, c := range curr {
		events = append(events, diffSession(prev[id], c, elapsed, now)...)
	}
	for id, p := range prev {
		if _, ok := curr[id]; !ok && p.HasItem() {
			events = append(events, Event{Type: EventStopped, Timestamp: now, Previous: p})
		}
	}
	return events
}

func diffSession(prev, curr *core.RemoteSession, elapsed time.Duration, now time.Time) []Event {
	ev := func(t EventType) Event {
		return Event{Type: t, Timestamp: now, Previous: prev, Current: curr}
	}

	switch {
	case !prev.HasItem() && curr.HasItem():
		return []Event{ev(EventStarted)}
	case prev.HasItem() && !curr.HasItem():
		return []Event{ev(EventStopped)}
	case !prev.HasItem():
		return nil
	case prev.NowPlaying.ID != curr.NowPlaying.ID:
		return []Event{ev(EventItemChange)}
	}

	var events []Event
	if prev.IsPlaying() && curr.IsPaused {
		events = append(events, ev(EventPause))
	} else if prev.IsPaused && curr.IsPlaying() {
		events = append(events, ev(EventResume))
	}
	if seeked(prev, curr, elapsed) {
		events = append(events, ev(EventSeek))
	}
	if prev.VolumeLevel != curr.VolumeLevel || prev.IsMuted != curr.IsMuted {
		events = append(events, ev(EventVolumeChange))
	}
	return events
}

// seeked reports a position jump that normal playback cannot explain.
func seeked(prev, curr *core.RemoteSession, elapsed time.Duration) bool {
	if !prev.Position.Known || !curr.Position.Known {
		return false
	}
	expected := prev.Position.Duration()
	if prev.IsPlaying() {
		expected += elapsed
	}
	drift := curr.Position.Duration() - expected
	if drift < 0 {
		drift = -drift
	}
	return drift > seekTolerance+elapsed
}
