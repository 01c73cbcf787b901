package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tessro/finch/internal/core"
	finchErrors "github.com/tessro/finch/internal/errors"
	"github.com/tessro/finch/internal/jellyfin/client"
	"github.com/tessro/finch/internal/playback"
)

type beginCall struct {
	itemID string
	start  core.Position
	force  bool
}

type fakePlayer struct {
	mu      sync.Mutex
	session *core.PlaybackSession
	begins  []beginCall
	seeks   []core.Ticks
	queue   []core.MediaItem
	beginFn func(force bool) error
}

func (p *fakePlayer) Begin(_ context.Context, item *core.MediaItem, _ string, start core.Position, opts playback.BeginOptions) error {
	p.mu.Lock()
	p.begins = append(p.begins, beginCall{itemID: item.ID, start: start, force: opts.Force})
	fn := p.beginFn
	p.mu.Unlock()
	if fn != nil {
		return fn(opts.Force)
	}
	return nil
}

func (p *fakePlayer) Seek(_ context.Context, pos core.Ticks) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seeks = append(p.seeks, pos)
	return nil
}

func (p *fakePlayer) SetQueue(items []core.MediaItem, _ int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queue = items
}

func (p *fakePlayer) Stop(context.Context) error            { return nil }
func (p *fakePlayer) TogglePlayPause(context.Context) error { return nil }
func (p *fakePlayer) SetVolume(context.Context, int) error  { return nil }
func (p *fakePlayer) Mute(context.Context) error            { return nil }
func (p *fakePlayer) Unmute(context.Context) error          { return nil }
func (p *fakePlayer) SkipSegment(context.Context) error     { return nil }
func (p *fakePlayer) Next(context.Context) error            { return nil }
func (p *fakePlayer) Prev(context.Context) error            { return nil }
func (p *fakePlayer) Session() *core.PlaybackSession        { return p.session.Clone() }
func (p *fakePlayer) History() []core.HistoryEntry          { return nil }
func (p *fakePlayer) Subscribe() *playback.Subscription {
	return &playback.Subscription{Done: make(chan struct{})}
}

type fakeLibrary struct {
	children map[string][]core.MediaItem
	items    map[string]*core.MediaItem
}

func (l *fakeLibrary) GetViews(context.Context) ([]core.MediaItem, error) {
	return l.children[""], nil
}

func (l *fakeLibrary) GetItems(_ context.Context, q client.ItemQuery) (*client.ItemPage, error) {
	items := l.children[q.ParentID]
	return &client.ItemPage{Items: items, Total: len(items)}, nil
}

func (l *fakeLibrary) GetItem(_ context.Context, id string) (*core.MediaItem, error) {
	if item, ok := l.items[id]; ok {
		return item, nil
	}
	return nil, errors.New("not found")
}

func (l *fakeLibrary) Search(context.Context, string, []core.ItemType, int) ([]core.MediaItem, error) {
	return nil, nil
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// run executes cmd and everything it batches, returning the messages.
// Callers must not pass commands that wait on timers.
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, run(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

var episode = core.MediaItem{ID: "ep1", Name: "Pilot", Type: core.ItemEpisode, RunTimeTicks: 600 * core.TicksPerSecond}

func pausedSession() *core.PlaybackSession {
	item := episode
	return &core.PlaybackSession{
		Item:     &item,
		Position: core.At(100 * core.TicksPerSecond),
		Duration: 600 * core.TicksPerSecond,
		Volume:   80,
		Segments: []core.Segment{{Type: core.SegmentIntro, StartTicks: 90 * core.TicksPerSecond, EndTicks: 110 * core.TicksPerSecond}},
	}
}

func newTestModel(player *fakePlayer, lib *fakeLibrary) Model {
	if lib == nil {
		lib = &fakeLibrary{}
	}
	m := NewModel(context.Background(), &App{Library: lib, Player: player})
	m.view.Resize(120, 40)
	return m
}

func TestWindowSizeUpdatesView(t *testing.T) {
	m := newTestModel(&fakePlayer{}, nil)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 200, Height: 50})
	assert.Equal(t, 200, m.view.Width)
	assert.Equal(t, 50, m.view.Height)
}

func TestScrubIssuesSingleSeek(t *testing.T) {
	player := &fakePlayer{session: pausedSession()}
	m := newTestModel(player, nil)
	m, _ = update(t, m, stateMsg{Current: playback.StatePaused, Session: player.Session()})

	m, _ = update(t, m, key("right"))
	m, _ = update(t, m, key("right"))
	require.True(t, m.view.Seeking())
	staleGen := m.scrubGen

	// progress is ignored while scrubbing
	m, _ = update(t, m, positionMsg{Position: core.At(101 * core.TicksPerSecond)})
	assert.Equal(t, core.At(120*core.TicksPerSecond), m.view.Position())

	m, cmd := update(t, m, key("enter"))
	run(cmd)
	assert.False(t, m.view.Seeking())

	// a late auto-commit and a second enter must not seek again
	m, cmd = update(t, m, scrubCommitMsg{gen: staleGen})
	run(cmd)
	_, cmd = update(t, m, key("enter"))
	run(cmd)

	require.Equal(t, []core.Ticks{120 * core.TicksPerSecond}, player.seeks)
}

func TestScrubAutoCommits(t *testing.T) {
	player := &fakePlayer{session: pausedSession()}
	m := newTestModel(player, nil)
	m, _ = update(t, m, stateMsg{Current: playback.StatePaused, Session: player.Session()})

	m, _ = update(t, m, key("left"))
	m, cmd := update(t, m, scrubCommitMsg{gen: m.scrubGen})
	run(cmd)

	assert.False(t, m.view.Seeking())
	assert.Equal(t, []core.Ticks{90 * core.TicksPerSecond}, player.seeks)
}

func TestSkipHintShownInsideSegment(t *testing.T) {
	player := &fakePlayer{session: pausedSession()}
	m := newTestModel(player, nil)
	m, _ = update(t, m, stateMsg{Current: playback.StatePaused, Session: player.Session()})

	info := m.playerInfo()
	require.NotNil(t, info.Segment)
	assert.Equal(t, core.SegmentIntro, info.Segment.Type)
	assert.Contains(t, m.View(), "skip intro")
}

func TestForcePromptOnNegotiationFailure(t *testing.T) {
	player := &fakePlayer{beginFn: func(force bool) error {
		if force {
			return nil
		}
		return &playback.NegotiationError{ItemID: "ep1", Stage: "negotiate", Err: finchErrors.ErrNoSession, ForcePlayable: true}
	}}
	m := newTestModel(player, nil)

	item := episode
	for _, msg := range run(m.play(playRequest{item: &item, start: core.At(0)})) {
		m, _ = update(t, m, msg)
	}
	require.NotNil(t, m.prompt)
	assert.Contains(t, m.View(), "force play")

	// other keys are swallowed while the prompt is up
	m, cmd := update(t, m, key("q"))
	assert.Nil(t, cmd)
	assert.False(t, m.quitting)

	m, cmd = update(t, m, key("f"))
	assert.Nil(t, m.prompt)
	run(cmd)

	require.Len(t, player.begins, 2)
	assert.False(t, player.begins[0].force)
	assert.True(t, player.begins[1].force)
}

func TestPromptDismiss(t *testing.T) {
	m := newTestModel(&fakePlayer{}, nil)
	item := episode
	m, _ = update(t, m, playFailedMsg{
		req: playRequest{item: &item},
		err: &playback.NegotiationError{ItemID: "ep1", Err: finchErrors.ErrNoMediaSource, ForcePlayable: true},
	})
	require.NotNil(t, m.prompt)

	m, _ = update(t, m, key("esc"))
	assert.Nil(t, m.prompt)
}

func TestUnforceableFailureShowsError(t *testing.T) {
	m := newTestModel(&fakePlayer{}, nil)
	item := episode
	m, _ = update(t, m, playFailedMsg{req: playRequest{item: &item}, err: errors.New("server down")})

	assert.Nil(t, m.prompt)
	require.Error(t, m.lastError)
	assert.True(t, strings.Contains(m.View(), "server down"))
}

func TestLibraryNavigationAndPlay(t *testing.T) {
	movies := core.MediaItem{ID: "movies", Name: "Movies", Type: core.ItemCollectionFolder, IsFolder: true}
	first := core.MediaItem{ID: "m1", Name: "First", Type: core.ItemMovie}
	second := core.MediaItem{ID: "m2", Name: "Second", Type: core.ItemMovie, UserData: core.UserData{PlaybackPositionTicks: 42}}
	lib := &fakeLibrary{
		children: map[string][]core.MediaItem{
			"":       {movies},
			"movies": {first, second},
		},
		items: map[string]*core.MediaItem{"m2": &second},
	}
	player := &fakePlayer{}
	m := newTestModel(player, lib)

	for _, msg := range run(m.loadViews()) {
		m, _ = update(t, m, msg)
	}
	require.Len(t, m.stack, 1)

	m, cmd := update(t, m, key("enter"))
	for _, msg := range run(cmd) {
		m, _ = update(t, m, msg)
	}
	require.Len(t, m.stack, 2)
	assert.Equal(t, "Movies", m.stack[1].name)

	m, _ = update(t, m, key("j"))
	m, cmd = update(t, m, key("enter"))
	for _, msg := range run(cmd) {
		m, _ = update(t, m, msg)
	}
	require.NotNil(t, m.detail)
	assert.Equal(t, "m2", m.detail.ID)

	m, cmd = update(t, m, key("enter"))
	run(cmd)
	require.Len(t, player.begins, 1)
	assert.Equal(t, beginCall{itemID: "m2", start: core.At(42)}, player.begins[0])
	require.Len(t, player.queue, 2)
	assert.Equal(t, "m1", player.queue[0].ID)

	m, _ = update(t, m, key("esc"))
	assert.Nil(t, m.detail)
	m, _ = update(t, m, key("backspace"))
	assert.Len(t, m.stack, 1)
}

func TestStateChangeToIdleResetsView(t *testing.T) {
	player := &fakePlayer{session: pausedSession()}
	m := newTestModel(player, nil)
	m, _ = update(t, m, stateMsg{Current: playback.StatePaused, Session: player.Session()})
	require.True(t, m.view.Position().Known)

	m, _ = update(t, m, stateMsg{Previous: playback.StatePaused, Current: playback.StateIdle})
	assert.False(t, m.view.Position().Known)
	assert.Contains(t, m.View(), "Nothing playing")
}

func TestRemoteMessageShownInStatusBar(t *testing.T) {
	m := newTestModel(&fakePlayer{}, nil)
	m, _ = update(t, m, remoteMsg{Header: "Admin", Text: "Server restarting"})
	assert.Contains(t, m.View(), "Admin: Server restarting")
}
