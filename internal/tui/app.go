package tui

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tessro/finch/internal/core"
	"github.com/tessro/finch/internal/downloads"
	"github.com/tessro/finch/internal/jellyfin/client"
	"github.com/tessro/finch/internal/playback"
	"github.com/tessro/finch/internal/trickplay"
	"github.com/tessro/finch/internal/tui/components"
	"github.com/tessro/finch/internal/tui/styles"
)

// Panel represents which panel is focused
type Panel int

const (
	PanelNowPlaying Panel = iota
	PanelLibrary
	PanelDownloads
	PanelHistory

	panelCount = 4
)

const (
	scrubStep         = 10 * core.TicksPerSecond
	scrubCommitDelay  = 800 * time.Millisecond
	controlsHideDelay = 4 * time.Second
	volumeStep        = 5
	errorDisplay      = 5 * time.Second
	childLimit        = 500
)

// Library is the part of the media server the UI browses.
type Library interface {
	GetViews(ctx context.Context) ([]core.MediaItem, error)
	GetItems(ctx context.Context, q client.ItemQuery) (*client.ItemPage, error)
	GetItem(ctx context.Context, id string) (*core.MediaItem, error)
	Search(ctx context.Context, term string, types []core.ItemType, limit int) ([]core.MediaItem, error)
}

// Player is the playback controller as the UI drives it.
type Player interface {
	Begin(ctx context.Context, item *core.MediaItem, mediaSourceID string, start core.Position, opts playback.BeginOptions) error
	Stop(ctx context.Context) error
	TogglePlayPause(ctx context.Context) error
	Seek(ctx context.Context, pos core.Ticks) error
	SetVolume(ctx context.Context, percent int) error
	Mute(ctx context.Context) error
	Unmute(ctx context.Context) error
	SkipSegment(ctx context.Context) error
	SetQueue(items []core.MediaItem, current int)
	Next(ctx context.Context) error
	Prev(ctx context.Context) error
	Session() *core.PlaybackSession
	History() []core.HistoryEntry
	Subscribe() *playback.Subscription
}

// DownloadQueue is the background download store.
type DownloadQueue interface {
	Enqueue(itemID, name, path string) (int64, error)
	List() ([]downloads.Job, error)
	Cancel(id int64) error
}

// App holds the TUI's collaborators.
type App struct {
	Library     Library
	Player      Player
	Downloads   DownloadQueue // nil hides download actions
	DownloadDir string
	RefreshRate time.Duration
}

// listing is one level of the library browser.
type listing struct {
	name     string
	parentID string
	items    []core.MediaItem
	selected int
}

// playRequest is a Begin call, kept so a failed start can be forced.
type playRequest struct {
	item     *core.MediaItem
	sourceID string
	start    core.Position
	force    bool
	queue    []core.MediaItem
	index    int
}

// forcePrompt blocks the UI until the user forces or dismisses.
type forcePrompt struct {
	req playRequest
	err error
}

// Model is the main TUI model
type Model struct {
	app          *App
	ctx          context.Context
	sub          *playback.Subscription
	focusedPanel Panel

	// Player
	view    ViewState
	session *core.PlaybackSession
	history []core.HistoryEntry

	// Library browser
	stack   []listing
	detail  *core.MediaItem
	loading bool

	jobs []downloads.Job

	// Components
	nowPlaying    *components.NowPlaying
	libraryView   *components.Library
	downloadsView *components.Downloads
	historyView   *components.History

	// Overlays
	showHelp bool
	search   searchState
	prompt   *forcePrompt

	notice       string
	noticeExpiry time.Time

	lastError   error
	errorExpiry time.Time

	scrubGen    int
	controlsGen int

	quitting bool
}

// NewModel creates a new TUI model
func NewModel(ctx context.Context, app *App) Model {
	ti := textinput.New()
	ti.Placeholder = "Search movies, shows, music..."
	ti.CharLimit = 100
	ti.Width = 50

	if app.RefreshRate <= 0 {
		app.RefreshRate = time.Second
	}

	return Model{
		app:           app,
		ctx:           ctx,
		sub:           app.Player.Subscribe(),
		focusedPanel:  PanelLibrary,
		view:          NewViewState(),
		session:       app.Player.Session(),
		history:       app.Player.History(),
		nowPlaying:    components.NewNowPlaying(),
		libraryView:   components.NewLibrary(),
		downloadsView: components.NewDownloads(),
		historyView:   components.NewHistory(),
		search:        searchState{input: ti},
	}
}

// Messages
type tickMsg time.Time
type stateMsg playback.StateChange
type positionMsg playback.PositionChange
type playerErrMsg playback.ErrorEvent
type remoteMsg playback.MessageEvent
type subClosedMsg struct{}
type jobsMsg []downloads.Job
type errMsg error
type noticeMsg string

type listingMsg struct {
	name     string
	parentID string
	items    []core.MediaItem
	push     bool
	err      error
}

type detailMsg struct {
	item *core.MediaItem
	err  error
}

type playFailedMsg struct {
	req playRequest
	err error
}

type scrubCommitMsg struct{ gen int }
type hideControlsMsg struct{ gen int }

// Commands
func (m Model) tick() tea.Cmd {
	return tea.Tick(m.app.RefreshRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForEvent bridges one controller event into the program.
func waitForEvent(sub *playback.Subscription) tea.Cmd {
	return func() tea.Msg {
		select {
		case e := <-sub.StateChanged:
			return stateMsg(e)
		case e := <-sub.PositionChanged:
			return positionMsg(e)
		case e := <-sub.Error:
			return playerErrMsg(e)
		case e := <-sub.Message:
			return remoteMsg(e)
		case <-sub.Done:
			return subClosedMsg{}
		}
	}
}

func (m Model) fetchJobs() tea.Cmd {
	if m.app.Downloads == nil {
		return nil
	}
	return func() tea.Msg {
		jobs, err := m.app.Downloads.List()
		if err != nil {
			return errMsg(err)
		}
		return jobsMsg(jobs)
	}
}

func (m Model) loadViews() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, 10*time.Second)
		defer cancel()

		views, err := m.app.Library.GetViews(ctx)
		return listingMsg{items: views, err: err}
	}
}

func (m Model) loadChildren(parent core.MediaItem) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, 10*time.Second)
		defer cancel()

		page, err := m.app.Library.GetItems(ctx, client.ItemQuery{
			ParentID: parent.ID,
			SortBy:   "SortName",
			Limit:    childLimit,
		})
		msg := listingMsg{name: parent.Name, parentID: parent.ID, push: true, err: err}
		if page != nil {
			msg.items = page.Items
		}
		return msg
	}
}

func (m Model) loadDetail(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, 10*time.Second)
		defer cancel()

		item, err := m.app.Library.GetItem(ctx, id)
		return detailMsg{item: item, err: err}
	}
}

func (m Model) play(req playRequest) tea.Cmd {
	return func() tea.Msg {
		if len(req.queue) > 0 {
			m.app.Player.SetQueue(req.queue, req.index)
		}
		err := m.app.Player.Begin(m.ctx, req.item, req.sourceID, req.start, playback.BeginOptions{Force: req.force})
		if err != nil {
			return playFailedMsg{req: req, err: err}
		}
		return nil
	}
}

// action runs a controller call off the update loop.
func (m Model) action(fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(m.ctx); err != nil {
			return errMsg(err)
		}
		return nil
	}
}

func (m Model) enqueueDownload(item *core.MediaItem) tea.Cmd {
	if m.app.Downloads == nil || item == nil {
		return nil
	}
	return func() tea.Msg {
		container := ""
		if len(item.MediaSources) > 0 {
			container = item.MediaSources[0].Container
		}
		path := filepath.Join(m.app.DownloadDir, downloads.FileName(item.DisplayName(), container))
		if _, err := m.app.Downloads.Enqueue(item.ID, item.DisplayName(), path); err != nil {
			return errMsg(err)
		}
		return noticeMsg("Queued " + item.DisplayName())
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.tick(),
		m.loadViews(),
		m.fetchJobs(),
		waitForEvent(m.sub),
	)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.view.Resize(msg.Width, msg.Height)
		return m, nil

	case tickMsg:
		m.expire()
		if sess := m.app.Player.Session(); sess != nil {
			m.session = sess
		}
		return m, tea.Batch(m.tick(), m.fetchJobs())

	case stateMsg:
		return m.handleStateChange(playback.StateChange(msg))

	case positionMsg:
		m.view.Buffering = false
		m.view.Progress(msg.Position, msg.Duration)
		return m, waitForEvent(m.sub)

	case playerErrMsg:
		m.setError(msg.Err)
		return m, waitForEvent(m.sub)

	case remoteMsg:
		timeout := msg.Timeout
		if timeout <= 0 {
			timeout = errorDisplay
		}
		m.notice = msg.Text
		if msg.Header != "" {
			m.notice = msg.Header + ": " + msg.Text
		}
		m.noticeExpiry = time.Now().Add(timeout)
		return m, waitForEvent(m.sub)

	case subClosedMsg:
		return m, nil

	case jobsMsg:
		m.jobs = msg
		return m, nil

	case listingMsg:
		m.loading = false
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		l := listing{name: msg.name, parentID: msg.parentID, items: msg.items}
		if msg.push {
			if n := len(m.stack); n > 0 {
				m.stack[n-1].selected = m.libraryView.Selected()
			}
			m.stack = append(m.stack, l)
		} else {
			m.stack = []listing{l}
		}
		m.libraryView.Select(0)
		return m, nil

	case detailMsg:
		m.loading = false
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.detail = msg.item
		return m, nil

	case playFailedMsg:
		if playback.IsForcePlayable(msg.err) {
			m.prompt = &forcePrompt{req: msg.req, err: msg.err}
			return m, nil
		}
		m.setError(msg.err)
		return m, nil

	case errMsg:
		m.setError(msg)
		return m, nil

	case noticeMsg:
		m.notice = string(msg)
		m.noticeExpiry = time.Now().Add(errorDisplay)
		return m, m.fetchJobs()

	case scrubCommitMsg:
		if msg.gen != m.scrubGen {
			return m, nil
		}
		cmd := m.commitScrub()
		return m, cmd

	case hideControlsMsg:
		if msg.gen == m.controlsGen && !m.view.Seeking() && m.session.Active() && m.session.IsPlaying {
			m.view.ControlsVisible = false
		}
		return m, nil

	case searchDebounceMsg:
		if msg.query == m.search.input.Value() && msg.query != m.search.lastQuery {
			m.search.lastQuery = msg.query
			m.search.searching = true
			return m, m.doSearch(msg.query)
		}

	case searchResultsMsg:
		m.search.searching = false
		m.search.results = msg.results
		m.search.err = msg.err
		m.search.cursor = 0
		return m, nil
	}

	// Forward other messages to textinput when search is active
	if m.search.active {
		var inputCmd tea.Cmd
		m.search.input, inputCmd = m.search.input.Update(msg)
		return m, inputCmd
	}

	return m, nil
}

func (m Model) handleStateChange(e playback.StateChange) (tea.Model, tea.Cmd) {
	prevID := ""
	if m.session.Active() {
		prevID = m.session.Item.ID
	}
	m.session = e.Session

	switch {
	case !e.Session.Active():
		m.view.Reset(0)
		m.history = m.app.Player.History()
	case e.Session.Item.ID != prevID:
		m.view.Reset(e.Session.Duration)
		m.view.Progress(e.Session.Position, e.Session.Duration)
		m.view.ControlsVisible = true
	}
	m.view.Buffering = e.Current == playback.StateBuffering || e.Current == playback.StateLoading

	return m, waitForEvent(m.sub)
}

func (m *Model) setError(err error) {
	m.lastError = err
	m.errorExpiry = time.Now().Add(errorDisplay)
}

func (m *Model) expire() {
	now := time.Now()
	if m.lastError != nil && now.After(m.errorExpiry) {
		m.lastError = nil
	}
	if m.notice != "" && now.After(m.noticeExpiry) {
		m.notice = ""
	}
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global keys (always work)
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	}

	// The force prompt swallows everything else
	if m.prompt != nil {
		return m.handlePromptKeyPress(msg)
	}

	// Help overlay
	if m.showHelp {
		switch msg.String() {
		case "?", "esc":
			m.showHelp = false
		}
		return m, nil
	}

	// Search overlay
	if m.search.active {
		return m.handleSearchKeyPress(msg)
	}

	showCmd := m.showControls()

	// Scrubbing
	switch msg.String() {
	case "left", "h":
		cmd := m.scrub(-scrubStep)
		return m, tea.Batch(showCmd, cmd)
	case "right", "l":
		cmd := m.scrub(scrubStep)
		return m, tea.Batch(showCmd, cmd)
	}
	if m.view.Seeking() {
		switch msg.String() {
		case "enter":
			cmd := m.commitScrub()
			return m, tea.Batch(showCmd, cmd)
		case "esc":
			m.view.CancelScrub()
			m.scrubGen++
			return m, showCmd
		}
	}

	// Normal mode
	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit

	case "?":
		m.showHelp = true
		return m, nil

	case "/":
		m.search.open()
		return m, textinput.Blink

	case "tab":
		m.focusedPanel = (m.focusedPanel + 1) % panelCount
		return m, showCmd

	case "shift+tab":
		m.focusedPanel = (m.focusedPanel + panelCount - 1) % panelCount
		return m, showCmd
	}

	// Playback controls
	switch msg.String() {
	case " ":
		return m, tea.Batch(showCmd, m.action(m.app.Player.TogglePlayPause))
	case "n":
		return m, tea.Batch(showCmd, m.action(m.app.Player.Next))
	case "p":
		return m, tea.Batch(showCmd, m.action(m.app.Player.Prev))
	case "S":
		return m, m.action(m.app.Player.Stop)
	case "s":
		return m, tea.Batch(showCmd, m.action(m.app.Player.SkipSegment))
	case "+", "=":
		return m, tea.Batch(showCmd, m.changeVolume(volumeStep))
	case "-":
		return m, tea.Batch(showCmd, m.changeVolume(-volumeStep))
	case "m":
		return m, tea.Batch(showCmd, m.toggleMute())
	}

	// Panel-specific keys
	var cmd tea.Cmd
	switch m.focusedPanel {
	case PanelLibrary:
		m, cmd = m.handleLibraryKeyPress(msg)
	case PanelDownloads:
		switch msg.String() {
		case "j", "down":
			m.downloadsView.SelectNext()
		case "k", "up":
			m.downloadsView.SelectPrev()
		case "x":
			cmd = m.cancelDownload()
		}
	}

	return m, tea.Batch(showCmd, cmd)
}

func (m Model) handleLibraryKeyPress(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.detail != nil {
		switch msg.String() {
		case "esc", "backspace":
			m.detail = nil
		case "enter":
			return m, m.play(m.requestFor(m.detail, m.detail.ResumePosition()))
		case "r":
			return m, m.play(m.requestFor(m.detail, core.At(0)))
		case "d":
			return m, m.enqueueDownload(m.detail)
		}
		return m, nil
	}

	items := m.currentItems()
	switch msg.String() {
	case "j", "down":
		m.libraryView.SelectNext(len(items))
	case "k", "up":
		m.libraryView.SelectPrev()
	case "esc", "backspace":
		if len(m.stack) > 1 {
			m.stack = m.stack[:len(m.stack)-1]
			m.libraryView.Select(m.stack[len(m.stack)-1].selected)
		}
	case "enter":
		i := m.libraryView.Selected()
		if i < 0 || i >= len(items) {
			return m, nil
		}
		m.loading = true
		if items[i].Type.IsPlayable() {
			return m, m.loadDetail(items[i].ID)
		}
		return m, m.loadChildren(items[i])
	}
	return m, nil
}

func (m Model) handlePromptKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "f", "enter":
		req := m.prompt.req
		req.force = true
		m.prompt = nil
		return m, m.play(req)
	case "esc", "d", "n":
		m.prompt = nil
	}
	return m, nil
}

// requestFor builds a play request that queues the playable items of the
// current listing around item.
func (m Model) requestFor(item *core.MediaItem, start core.Position) playRequest {
	req := playRequest{item: item, start: start}
	var playable []core.MediaItem
	for _, it := range m.currentItems() {
		if !it.Type.IsPlayable() {
			continue
		}
		if it.ID == item.ID {
			req.index = len(playable)
			it = *item
		}
		playable = append(playable, it)
	}
	if req.index < len(playable) && playable[req.index].ID == item.ID {
		req.queue = playable
	} else {
		req.queue = []core.MediaItem{*item}
		req.index = 0
	}
	return req
}

func (m Model) currentItems() []core.MediaItem {
	if len(m.stack) == 0 {
		return nil
	}
	return m.stack[len(m.stack)-1].items
}

func (m *Model) scrub(delta core.Ticks) tea.Cmd {
	if !m.session.Active() {
		return nil
	}
	m.view.ScrubBy(delta)
	m.scrubGen++
	gen := m.scrubGen
	return tea.Tick(scrubCommitDelay, func(time.Time) tea.Msg {
		return scrubCommitMsg{gen: gen}
	})
}

// commitScrub ends the scrub and issues its single seek.
func (m *Model) commitScrub() tea.Cmd {
	m.scrubGen++
	target, ok := m.view.EndScrub()
	if !ok {
		return nil
	}
	return m.action(func(ctx context.Context) error {
		return m.app.Player.Seek(ctx, target)
	})
}

// showControls reveals the controls and, while playing, schedules hiding them.
func (m *Model) showControls() tea.Cmd {
	m.view.ControlsVisible = true
	m.controlsGen++
	if !m.session.Active() || !m.session.IsPlaying {
		return nil
	}
	gen := m.controlsGen
	return tea.Tick(controlsHideDelay, func(time.Time) tea.Msg {
		return hideControlsMsg{gen: gen}
	})
}

func (m Model) changeVolume(delta int) tea.Cmd {
	if !m.session.Active() {
		return nil
	}
	vol := m.session.Volume + delta
	if vol > 100 {
		vol = 100
	}
	if vol < 0 {
		vol = 0
	}
	m.session.Volume = vol
	return m.action(func(ctx context.Context) error {
		return m.app.Player.SetVolume(ctx, vol)
	})
}

func (m Model) toggleMute() tea.Cmd {
	if m.session.Active() && m.session.Muted {
		return m.action(m.app.Player.Unmute)
	}
	return m.action(m.app.Player.Mute)
}

func (m Model) cancelDownload() tea.Cmd {
	if m.app.Downloads == nil {
		return nil
	}
	i := m.downloadsView.Selected()
	if i < 0 || i >= len(m.jobs) {
		return nil
	}
	id := m.jobs[i].ID
	return func() tea.Msg {
		if err := m.app.Downloads.Cancel(id); err != nil {
			return errMsg(err)
		}
		return noticeMsg("Cancelled download")
	}
}

// playerInfo gathers what the now playing panel needs.
func (m Model) playerInfo() components.PlayerInfo {
	pos := m.view.Position()
	info := components.PlayerInfo{
		Session:   m.session,
		Position:  pos,
		Duration:  m.view.Duration(),
		Percent:   m.view.Percent(),
		Seeking:   m.view.Seeking(),
		Buffering: m.view.Buffering,
		Controls:  m.view.ControlsVisible,
	}
	if !m.session.Active() {
		return info
	}
	if info.Duration == 0 {
		info.Duration = m.session.Item.RunTimeTicks
	}
	if info.Seeking {
		if tile, ok := trickplay.Locate(m.session.Item.Trickplay, pos); ok {
			info.Preview = &tile
		}
	} else if seg, ok := core.ActiveSegment(m.session.Segments, pos); ok {
		info.Segment = &seg
	}
	return info
}

// View renders the UI
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.view.Width == 0 {
		return "Loading..."
	}

	if m.prompt != nil {
		return m.renderPrompt()
	}

	if m.showHelp {
		return m.renderHelp()
	}

	if m.search.active {
		return m.renderSearch()
	}

	// Left: Now Playing (top), Library (bottom)
	// Right: Downloads (top), History (bottom)
	width, height := m.view.Width, m.view.Height-1
	leftWidth := width * 60 / 100
	rightWidth := width - leftWidth - 2
	topHeight := height * 40 / 100
	bottomHeight := height - topHeight - 2

	lib := components.LibraryView{Detail: m.detail, Loading: m.loading, Items: m.currentItems()}
	for _, l := range m.stack {
		if l.name != "" {
			lib.Crumbs = append(lib.Crumbs, l.name)
		}
	}

	nowPlaying := m.nowPlaying.Render(m.playerInfo(), leftWidth-2, topHeight-2, m.focusedPanel == PanelNowPlaying)
	library := m.libraryView.Render(lib, leftWidth-2, bottomHeight-2, m.focusedPanel == PanelLibrary)
	downloadsView := m.downloadsView.Render(m.jobs, rightWidth-2, topHeight-2, m.focusedPanel == PanelDownloads)
	historyView := m.historyView.Render(m.history, rightWidth-2, bottomHeight-2, m.focusedPanel == PanelHistory)

	leftCol := lipgloss.JoinVertical(lipgloss.Left, nowPlaying, library)
	rightCol := lipgloss.JoinVertical(lipgloss.Left, downloadsView, historyView)

	main := lipgloss.JoinHorizontal(lipgloss.Top, leftCol, rightCol)

	return lipgloss.JoinVertical(lipgloss.Left, main, m.renderStatusBar())
}

func (m Model) renderStatusBar() string {
	status := styles.Dim.Render("q:quit  ?:help  /:search  space:play/pause  ←/→:scrub  s:skip  n/p:next/prev  +/-:volume  tab:panel")

	switch {
	case m.lastError != nil:
		status = styles.Failed.Render("Error: " + m.lastError.Error())
	case m.notice != "":
		status = styles.Highlight.Render(m.notice)
	case m.view.Seeking():
		status = styles.Highlight.Render("Seeking to " + components.FormatPosition(m.view.Position()) + "  enter:seek  esc:cancel")
	}

	return lipgloss.NewStyle().
		Width(m.view.Width).
		Padding(0, 1).
		Render(status)
}

func (m Model) renderPrompt() string {
	name := ""
	if m.prompt.req.item != nil {
		name = m.prompt.req.item.DisplayName()
	}
	body := lipgloss.JoinVertical(lipgloss.Left,
		styles.Failed.Bold(true).Render("Playback failed"),
		"",
		styles.Title.Render(name),
		lipgloss.NewStyle().Width(56).Render(m.prompt.err.Error()),
		"",
		"The server did not offer a playable stream. Try to play it anyway?",
		"",
		styles.Highlight.Render("f")+" force play    "+styles.Highlight.Render("esc")+" dismiss",
	)

	return lipgloss.NewStyle().
		Width(m.view.Width).
		Height(m.view.Height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(styles.AlertBorder.Padding(1, 2).Render(body))
}

func (m Model) renderHelp() string {
	title := "finch - Keyboard Shortcuts"

	help := `
  ` + title + `
  ` + strings.Repeat("═", len(title)) + `

  Global
  ──────
  q, Ctrl+C    Quit
  ?            Toggle help
  /            Search
  Tab          Next panel
  Shift+Tab    Previous panel

  Playback
  ────────
  Space        Play/Pause
  ←/→, h/l     Scrub 10s (enter to seek now)
  s            Skip intro/credits
  S            Stop
  n / p        Next / previous in queue
  +/=  -       Volume up / down
  m            Mute

  Library Panel
  ─────────────
  j/↓  k/↑     Move
  Enter        Open / play
  r            Play from start
  d            Download
  Esc          Back

  Downloads Panel
  ───────────────
  x            Cancel selected

  Press ? or Esc to close
`

	return lipgloss.NewStyle().
		Width(m.view.Width).
		Height(m.view.Height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(styles.BorderStyle.Render(help))
}

// Run starts the TUI and blocks until the user quits or ctx ends.
func Run(ctx context.Context, app *App) error {
	model := NewModel(ctx, app)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	_, err := p.Run()
	return err
}
