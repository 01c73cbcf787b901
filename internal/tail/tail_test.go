package tail

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tessro/finch/internal/core"
)

func session(id, itemID string, pos time.Duration, paused bool) *core.RemoteSession {
	s := &core.RemoteSession{
		ID:         id,
		UserID:     "u1",
		DeviceName: "Living Room",
		IsPaused:   paused,
		Position:   core.AtDuration(pos),
	}
	if itemID != "" {
		s.NowPlaying = &core.MediaItem{ID: itemID, Name: "Item " + itemID, Type: core.ItemMovie}
	}
	return s
}

func types(events []Event) []EventType {
	out := make([]EventType, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}

func TestDiffSession(t *testing.T) {
	now := time.Now()
	elapsed := time.Second

	tests := []struct {
		name string
		prev *core.RemoteSession
		curr *core.RemoteSession
		want []EventType
	}{
		{"new session playing", nil, session("s", "a", 0, false), []EventType{EventStarted}},
		{"idle session appears", nil, session("s", "", 0, false), nil},
		{"item loaded", session("s", "", 0, false), session("s", "a", 0, false), []EventType{EventStarted}},
		{"item unloaded", session("s", "a", time.Minute, false), session("s", "", 0, false), []EventType{EventStopped}},
		{"item change", session("s", "a", time.Minute, false), session("s", "b", 0, false), []EventType{EventItemChange}},
		{"pause", session("s", "a", time.Minute, false), session("s", "a", time.Minute+time.Second, true), []EventType{EventPause}},
		{"resume", session("s", "a", time.Minute, true), session("s", "a", time.Minute, false), []EventType{EventResume}},
		{"steady playback", session("s", "a", time.Minute, false), session("s", "a", time.Minute+time.Second, false), nil},
		{"seek forward", session("s", "a", time.Minute, false), session("s", "a", 10*time.Minute, false), []EventType{EventSeek}},
		{"seek while paused", session("s", "a", time.Minute, true), session("s", "a", 20*time.Second, true), []EventType{EventSeek}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := types(diffSession(tt.prev, tt.curr, elapsed, now))
			if len(got) != len(tt.want) {
				t.Fatalf("events = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("event %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestDiffSessionsDetectsVanishedSession(t *testing.T) {
	prev := map[string]*core.RemoteSession{"s": session("s", "a", 0, false)}
	events := diffSessions(prev, map[string]*core.RemoteSession{}, time.Second, time.Now())
	if len(events) != 1 || events[0].Type != EventStopped {
		t.Fatalf("events = %v", types(events))
	}
	if events[0].Session().ID != "s" {
		t.Errorf("Session() = %v", events[0].Session())
	}
}

func TestVolumeChange(t *testing.T) {
	prev := session("s", "a", 0, true)
	curr := session("s", "a", 0, true)
	curr.VolumeLevel = 40
	got := types(diffSession(prev, curr, time.Second, time.Now()))
	if len(got) != 1 || got[0] != EventVolumeChange {
		t.Errorf("events = %v", got)
	}
}

type scriptedLister struct {
	mu    sync.Mutex
	polls [][]core.RemoteSession
}

func (l *scriptedLister) GetSessions(context.Context, int) ([]core.RemoteSession, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.polls) == 0 {
		return nil, nil
	}
	next := l.polls[0]
	if len(l.polls) > 1 {
		l.polls = l.polls[1:]
	}
	return next, nil
}

func TestWatcherFiltersByUser(t *testing.T) {
	other := *session("x", "z", 0, false)
	other.UserID = "u2"
	mine := *session("s", "a", 0, false)

	lister := &scriptedLister{polls: [][]core.RemoteSession{
		{other},
		{other, mine},
	}}
	w := NewWatcher(lister, 5*time.Millisecond, ForUser("u1"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	select {
	case e := <-w.Events():
		if e.Type != EventStarted || e.Current.ID != "s" {
			t.Errorf("got %v for session %s", e.Type, e.Current.ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event")
	}

	w.Stop()
	if err := <-done; err != nil {
		t.Errorf("Start returned %v", err)
	}
}

func TestFormatter(t *testing.T) {
	e := Event{
		Type:      EventStarted,
		Timestamp: time.Date(2024, 1, 1, 20, 15, 0, 0, time.UTC),
		Current:   session("s", "a", 0, false),
	}

	f := NewFormatter(WithEmoji(false))
	if got := f.Format(e); got != "Now playing: Item a on Living Room" {
		t.Errorf("Format = %q", got)
	}

	f = NewFormatter(WithEmoji(true), WithTimestamp(true))
	if got := f.Format(e); !strings.HasPrefix(got, "20:15:00 🎬 ") {
		t.Errorf("Format = %q", got)
	}

	f = NewFormatter(WithTemplate("{{.Type}}|{{.Title}}|{{.Device}}"))
	if got := f.Format(e); got != "started|Item a|Living Room" {
		t.Errorf("template Format = %q", got)
	}

	seek := Event{Type: EventSeek, Current: session("s", "a", 65*time.Minute+3*time.Second, false)}
	f = NewFormatter(WithEmoji(false))
	if got := f.Format(seek); got != "Seeked to 1:05:03 on Living Room" {
		t.Errorf("seek Format = %q", got)
	}
}
