package surface

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tessro/finch/internal/core"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func nextEvent(t *testing.T, ch <-chan Event, kind EventKind) Event {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatalf("events closed while waiting for %s", kind)
			}
			if ev.Kind == kind {
				return ev
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s event", kind)
		}
	}
}

func TestClockRequiresLoad(t *testing.T) {
	c := NewClock(time.Hour)
	defer c.Close()

	ctx := context.Background()
	assert.ErrorIs(t, c.Play(ctx), ErrNotLoaded)
	assert.ErrorIs(t, c.Seek(ctx, 10), ErrNotLoaded)
	assert.False(t, c.Position().Known)
}

func TestClockAdvancesWhilePlaying(t *testing.T) {
	c := NewClock(time.Hour)
	defer c.Close()

	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }

	ctx := context.Background()
	require.NoError(t, c.Load(ctx, Media{Start: core.At(5 * core.TicksPerSecond)}))
	assert.Equal(t, core.At(5*core.TicksPerSecond), c.Position())

	require.NoError(t, c.Play(ctx))
	now = now.Add(3 * time.Second)
	assert.Equal(t, core.Ticks(8*core.TicksPerSecond), c.Position().Ticks)

	require.NoError(t, c.Pause(ctx))
	now = now.Add(10 * time.Second)
	assert.Equal(t, core.Ticks(8*core.TicksPerSecond), c.Position().Ticks)

	require.NoError(t, c.Seek(ctx, 2*core.TicksPerSecond))
	assert.Equal(t, core.Ticks(2*core.TicksPerSecond), c.Position().Ticks)
}

func TestClockEmitsEndedAtDuration(t *testing.T) {
	c := NewClock(5 * time.Millisecond)
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Load(ctx, Media{Duration: core.TicksFromDuration(30 * time.Millisecond)}))
	ev := nextEvent(t, c.Events(), EventDuration)
	assert.Equal(t, core.TicksFromDuration(30*time.Millisecond), ev.Duration)

	require.NoError(t, c.Play(ctx))
	ended := nextEvent(t, c.Events(), EventEnded)
	assert.Equal(t, core.TicksFromDuration(30*time.Millisecond), ended.Position.Ticks)
	assert.False(t, c.Playing())
}

func TestClockCloseIsIdempotent(t *testing.T) {
	c := NewClock(time.Millisecond)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	_, ok := <-c.Events()
	assert.False(t, ok)
}

func TestExternalReportsExit(t *testing.T) {
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("true not available")
	}

	e := NewExternal(ExternalConfig{Command: "true", Interval: time.Hour}, zerolog.Nop())
	defer e.Close()

	require.NoError(t, e.Load(context.Background(), Media{URL: "http://example.invalid/stream"}))
	nextEvent(t, e.Events(), EventEnded)
}

func TestExternalReportsFailure(t *testing.T) {
	if _, err := exec.LookPath("false"); err != nil {
		t.Skip("false not available")
	}

	e := NewExternal(ExternalConfig{Command: "false", Interval: time.Hour}, zerolog.Nop())
	defer e.Close()

	require.NoError(t, e.Load(context.Background(), Media{URL: "http://example.invalid/stream"}))
	ev := nextEvent(t, e.Events(), EventError)
	assert.Error(t, ev.Err)
}

func TestExternalPlayerArgs(t *testing.T) {
	e := NewExternal(ExternalConfig{}, zerolog.Nop())
	defer e.Close()

	m := Media{
		URL:          "http://srv/stream.mkv",
		Start:        core.At(90 * core.TicksPerSecond),
		Title:        "Film",
		SubtitleURLs: []string{"http://srv/sub.srt"},
	}
	m.Headers = map[string][]string{"Authorization": {`MediaBrowser Token="t"`}}

	args := e.playerArgs(m)
	assert.Contains(t, args, "--start=90.000")
	assert.Contains(t, args, `--http-header-fields=Authorization: MediaBrowser Token="t"`)
	assert.Contains(t, args, "--force-media-title=Film")
	assert.Contains(t, args, "--sub-file=http://srv/sub.srt")
	assert.Equal(t, "http://srv/stream.mkv", args[len(args)-1])
}

func TestClockStopUnloads(t *testing.T) {
	c := NewClock(time.Hour)
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Load(ctx, Media{Start: core.At(10)}))
	require.NoError(t, c.Play(ctx))
	require.NoError(t, c.Stop(ctx))

	assert.False(t, c.Playing())
	assert.False(t, c.Position().Known)
	assert.ErrorIs(t, c.Play(ctx), ErrNotLoaded)
}

func TestClockStampsLoadGeneration(t *testing.T) {
	c := NewClock(time.Hour)
	defer c.Close()

	ctx := context.Background()
	assert.Zero(t, c.Generation())

	require.NoError(t, c.Load(ctx, Media{Duration: 100}))
	first := nextEvent(t, c.Events(), EventDuration)
	assert.Equal(t, uint64(1), first.Load)

	require.NoError(t, c.Load(ctx, Media{Duration: 200}))
	assert.Equal(t, uint64(2), c.Generation())
	c.Emit(Event{Kind: EventEnded, Load: 99})
	second := nextEvent(t, c.Events(), EventDuration)
	assert.Equal(t, uint64(2), second.Load)
	ended := nextEvent(t, c.Events(), EventEnded)
	assert.Equal(t, uint64(2), ended.Load)
}
