// Package playback owns the single active playback session.
package playback

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tessro/finch/internal/core"
	finchErrors "github.com/tessro/finch/internal/errors"
	"github.com/tessro/finch/internal/jellyfin/auth"
	"github.com/tessro/finch/internal/jellyfin/client"
	"github.com/tessro/finch/internal/log"
	"github.com/tessro/finch/internal/stream"
	"github.com/tessro/finch/internal/surface"
)

const (
	defaultDebounce = 500 * time.Millisecond
	reportTimeout   = 10 * time.Second
	historySize     = 50
)

// API is the subset of the server client the controller needs.
type API interface {
	ServerURL() string
	UserID() string
	Token() string
	Device() auth.Device
	PostCapabilities(ctx context.Context, caps client.Capabilities) error
	GetPlaybackInfo(ctx context.Context, itemID string, req client.PlaybackInfoRequest) (*client.PlaybackInfo, error)
	GetMediaSegments(ctx context.Context, itemID string) ([]core.Segment, error)
	ReportPlaybackStart(ctx context.Context, r client.PlaybackReport) error
	ReportPlaybackProgress(ctx context.Context, r client.PlaybackReport) error
	ReportPlaybackStopped(ctx context.Context, r client.StopReport) error
}

// Config tunes a Controller.
type Config struct {
	Debounce   time.Duration
	MaxBitrate int
	Volume     int
	// ProgressMaxWait caps how long a position can go unreported while
	// samples keep arriving. Zero means twice Debounce.
	ProgressMaxWait time.Duration
	// SupportedCommands is advertised to the server with the capabilities.
	SupportedCommands []string
	Logger            *zerolog.Logger
}

// BeginOptions adjust a single Begin call.
type BeginOptions struct {
	// Force skips the direct-play check and tolerates a missing source or
	// play session id.
	Force         bool
	AudioIndex    *int
	SubtitleIndex *int
}

type pendingReport struct {
	playSessionID string
	position      core.Position
	paused        bool
	event         string
}

// Controller negotiates streams, drives the surface, and reports playback
// to the server. At most one session is active.
type Controller struct {
	api        API
	surface    surface.Surface
	logger     zerolog.Logger
	maxBitrate int
	commands   []string

	// opMu serializes Begin and Stop so sessions never overlap.
	opMu sync.Mutex

	mu         sync.Mutex
	session    *core.PlaybackSession
	state      State
	volume     int
	lastVolume int
	muted      bool
	queue      core.Queue
	history    []core.HistoryEntry
	// loadGen is the surface generation of the active session's media.
	loadGen uint64

	progress  *Debouncer[pendingReport]
	playState *Debouncer[pendingReport]

	subsMu sync.RWMutex
	subs   []*Subscription

	loopDone chan struct{}
	closed   bool
}

var _ core.Player = (*Controller)(nil)

// New creates a controller and starts consuming surface events.
func New(api API, surf surface.Surface, cfg Config) *Controller {
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaultDebounce
	}
	if cfg.ProgressMaxWait <= 0 {
		cfg.ProgressMaxWait = 2 * cfg.Debounce
	}
	if cfg.Volume <= 0 || cfg.Volume > 100 {
		cfg.Volume = 100
	}
	logger := log.WithComponent("playback")
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	c := &Controller{
		api:        api,
		surface:    surf,
		logger:     logger,
		maxBitrate: cfg.MaxBitrate,
		commands:   cfg.SupportedCommands,
		volume:     cfg.Volume,
		lastVolume: cfg.Volume,
		loopDone:   make(chan struct{}),
	}
	c.progress = NewDebouncer(cfg.Debounce, cfg.ProgressMaxWait, c.sendReport)
	c.playState = NewDebouncer(cfg.Debounce, 0, c.sendReport)

	go c.consumeSurface()
	return c
}

// Subscribe returns a new event subscription.
func (c *Controller) Subscribe() *Subscription {
	sub := newSubscription()
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	if c.closed {
		sub.close()
		return sub
	}
	c.subs = append(c.subs, sub)
	return sub
}

// Session returns a snapshot of the active session, or nil.
func (c *Controller) Session() *core.PlaybackSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Clone()
}

// State returns the current play state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// History returns recently stopped sessions, newest first.
func (c *Controller) History() []core.HistoryEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]core.HistoryEntry, len(c.history))
	copy(out, c.history)
	return out
}

// Begin starts playing item, stopping any active session first.
func (c *Controller) Begin(ctx context.Context, item *core.MediaItem, mediaSourceID string, start core.Position, opts BeginOptions) error {
	if item == nil {
		return ErrNoItem
	}

	c.opMu.Lock()
	defer c.opMu.Unlock()

	if err := c.stopLocked(ctx, core.Position{}); err != nil {
		c.logger.Warn().Err(err).Msg("stopping previous session")
	}
	c.setState(StateLoading, nil)

	sess, media, err := c.negotiate(ctx, item, mediaSourceID, start, opts)
	if err != nil {
		c.setState(StateIdle, nil)
		return err
	}

	if err := c.surface.Load(ctx, media); err != nil {
		c.setState(StateIdle, nil)
		return fmt.Errorf("load surface: %w", err)
	}
	c.mu.Lock()
	c.loadGen = c.surface.Generation()
	c.mu.Unlock()
	if err := c.surface.SetVolume(ctx, c.effectiveVolume()); err != nil {
		c.logger.Debug().Err(err).Msg("surface volume")
	}
	if err := c.surface.Play(ctx); err != nil {
		_ = c.surface.Stop(ctx)
		c.setState(StateIdle, nil)
		return fmt.Errorf("start surface: %w", err)
	}

	c.mu.Lock()
	sess.Volume = c.volume
	sess.Muted = c.muted
	sess.IsPlaying = true
	c.session = sess
	snapshot := sess.Clone()
	c.mu.Unlock()

	if snapshot.Reportable() {
		rctx, cancel := context.WithTimeout(ctx, reportTimeout)
		if err := c.api.ReportPlaybackStart(rctx, c.report(snapshot, snapshot.Position, false, "")); err != nil {
			c.logger.Warn().Err(err).Msg("report playback start")
		}
		cancel()
	}

	logger := log.WithContext(log.ContextWithPlaySession(ctx, snapshot.ServerSessionID), c.logger)
	logger.Info().Str("item", item.ID).Str("method", string(snapshot.PlayMethod)).Msg("playback started")
	c.setState(StatePlaying, snapshot)
	return nil
}

func (c *Controller) negotiate(ctx context.Context, item *core.MediaItem, mediaSourceID string, start core.Position, opts BeginOptions) (*core.PlaybackSession, surface.Media, error) {
	caps := client.Capabilities{
		PlayableMediaTypes:   []string{"Audio", "Video"},
		SupportedCommands:    c.commands,
		SupportsMediaControl: true,
	}
	if err := c.api.PostCapabilities(ctx, caps); err != nil {
		c.logger.Warn().Err(err).Msg("post capabilities")
	}

	profile := client.DefaultDeviceProfile(c.maxBitrate)
	req := client.PlaybackInfoRequest{
		UserID:              c.api.UserID(),
		MediaSourceID:       mediaSourceID,
		AudioStreamIndex:    opts.AudioIndex,
		SubtitleStreamIndex: opts.SubtitleIndex,
		MaxStreamingBitrate: c.maxBitrate,
		EnableDirectPlay:    true,
		EnableDirectStream:  true,
		EnableTranscoding:   true,
		AutoOpenLiveStream:  true,
		DeviceProfile:       &profile,
	}
	if start.Known {
		req.StartTimeTicks = int64(start.Ticks)
	}

	info, err := c.api.GetPlaybackInfo(ctx, item.ID, req)
	if err != nil {
		return nil, surface.Media{}, negotiationError(item.ID, "playback info", err, opts.Force)
	}

	source := info.Source(mediaSourceID)
	if source == nil && opts.Force {
		source = item.Source(mediaSourceID)
		if source == nil && len(info.Sources) > 0 {
			source = &info.Sources[0]
		}
	}
	if source == nil {
		return nil, surface.Media{}, negotiationError(item.ID, "media source", finchErrors.ErrNoMediaSource, opts.Force)
	}

	if info.PlaySessionID == "" && !opts.Force {
		return nil, surface.Media{}, negotiationError(item.ID, "play session", finchErrors.ErrNoSession, opts.Force)
	}

	audio := opts.AudioIndex
	if audio == nil {
		audio = source.DefaultAudioStreamIndex
	}
	subtitle := opts.SubtitleIndex
	if subtitle == nil {
		subtitle = source.DefaultSubtitleStreamIndex
	}

	resolved, err := stream.Resolve(item, source, stream.Context{
		ServerURL:     c.api.ServerURL(),
		UserID:        c.api.UserID(),
		DeviceID:      c.api.Device().ID,
		AccessToken:   c.api.Token(),
		PlaySessionID: info.PlaySessionID,
		AudioIndex:    audio,
		SubtitleIndex: subtitle,
		MaxBitrate:    c.maxBitrate,
		Force:         opts.Force,
	})
	if err != nil {
		return nil, surface.Media{}, negotiationError(item.ID, "stream url", err, opts.Force)
	}

	segments, err := c.api.GetMediaSegments(ctx, item.ID)
	if err != nil {
		c.logger.Debug().Err(err).Msg("media segments unavailable")
	}

	duration := source.RunTimeTicks
	if duration == 0 {
		duration = item.RunTimeTicks
	}

	sess := &core.PlaybackSession{
		Item:            item,
		MediaSourceID:   source.ID,
		StreamURL:       resolved.URL,
		ServerSessionID: info.PlaySessionID,
		PlayMethod:      resolved.Method,
		Position:        start,
		Duration:        duration,
		AudioIndex:      audio,
		SubtitleIndex:   subtitle,
		Segments:        segments,
		StartedAt:       time.Now(),
	}
	if !sess.Position.Known {
		sess.Position = core.At(0)
	}

	media := surface.Media{
		URL:      resolved.URL,
		Headers:  resolved.Headers,
		Start:    start,
		Duration: duration,
		Title:    item.DisplayName(),
	}
	for _, st := range source.Streams(core.StreamSubtitle) {
		track := core.SubtitleTrack{
			Index:    st.Index,
			Title:    st.DisplayTitle,
			Language: st.Language,
			External: st.IsExternal,
		}
		if st.IsExternal && st.DeliveryURL != "" {
			track.URL = joinServer(c.api.ServerURL(), st.DeliveryURL)
			media.SubtitleURLs = append(media.SubtitleURLs, track.URL)
		}
		sess.SubtitleTracks = append(sess.SubtitleTracks, track)
	}

	return sess, media, nil
}

// Stop ends the active session and reports its final position. Stopping
// with no active session does nothing.
func (c *Controller) Stop(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	return c.stopLocked(ctx, core.Position{})
}

// stopLocked ends the session at final, or at the surface's position when
// final is unknown.
func (c *Controller) stopLocked(ctx context.Context, final core.Position) error {
	c.mu.Lock()
	sess := c.session
	c.session = nil
	c.mu.Unlock()

	if sess == nil {
		return nil
	}

	c.progress.Cancel()
	c.playState.Cancel()

	if !final.Known {
		final = sess.Position
		if p, ok := c.surface.(surface.Positioner); ok {
			if pos := p.Position(); pos.Known {
				final = pos
			}
		}
	}

	if err := c.surface.Stop(ctx); err != nil {
		c.logger.Debug().Err(err).Msg("surface stop")
	}

	c.mu.Lock()
	c.history = append([]core.HistoryEntry{{Item: sess.Item, Position: final, PlayedAt: sess.StartedAt}}, c.history...)
	if len(c.history) > historySize {
		c.history = c.history[:historySize]
	}
	c.mu.Unlock()

	var err error
	if sess.Reportable() {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reportTimeout)
		err = c.api.ReportPlaybackStopped(rctx, client.StopReport{
			ItemID:        sess.Item.ID,
			MediaSourceID: sess.MediaSourceID,
			PlaySessionID: sess.ServerSessionID,
			PositionTicks: int64(final.Ticks),
		})
		cancel()
	}

	c.logger.Info().Str("item", sess.Item.ID).Dur("position", final.Duration()).Msg("playback stopped")
	c.setState(StateIdle, nil)
	if err != nil {
		return fmt.Errorf("report stopped: %w", err)
	}
	return nil
}

// ReportProgress records the position and schedules a debounced report.
// Unknown positions and sessions the server does not know are ignored.
func (c *Controller) ReportProgress(pos core.Position) {
	if !pos.Known {
		return
	}
	c.mu.Lock()
	sess := c.session
	if sess == nil || sess.ServerSessionID == "" {
		c.mu.Unlock()
		return
	}
	sess.Position = pos
	r := pendingReport{playSessionID: sess.ServerSessionID, position: pos, paused: !sess.IsPlaying, event: "timeupdate"}
	c.mu.Unlock()

	c.progress.Call(r)
}

// SetPlaying updates the local play state at once; the server hears about
// it after the debounce window.
func (c *Controller) SetPlaying(playing bool) {
	c.mu.Lock()
	sess := c.session
	if sess == nil {
		c.mu.Unlock()
		return
	}
	sess.IsPlaying = playing
	sess.IsBuffering = false
	r := pendingReport{playSessionID: sess.ServerSessionID, position: sess.Position, paused: !playing, event: "unpause"}
	if !playing {
		r.event = "pause"
	}
	snapshot := sess.Clone()
	c.mu.Unlock()

	if playing {
		c.setState(StatePlaying, snapshot)
	} else {
		c.setState(StatePaused, snapshot)
	}
	if r.playSessionID != "" {
		c.playState.Call(r)
	}
}

// SetBuffering marks the session as waiting on data.
func (c *Controller) SetBuffering(buffering bool) {
	c.mu.Lock()
	sess := c.session
	if sess == nil {
		c.mu.Unlock()
		return
	}
	sess.IsBuffering = buffering
	playing := sess.IsPlaying
	snapshot := sess.Clone()
	c.mu.Unlock()

	switch {
	case buffering:
		c.setState(StateBuffering, snapshot)
	case playing:
		c.setState(StatePlaying, snapshot)
	default:
		c.setState(StatePaused, snapshot)
	}
}

// SetFullscreen records the surface's fullscreen state.
func (c *Controller) SetFullscreen(on bool) {
	c.mu.Lock()
	if c.session != nil {
		c.session.IsFullscreen = on
	}
	c.mu.Unlock()
}

// Play resumes the active session.
func (c *Controller) Play(ctx context.Context) error {
	if c.Session() == nil {
		return finchErrors.ErrNoActiveSession
	}
	if err := c.surface.Play(ctx); err != nil {
		return err
	}
	c.SetPlaying(true)
	return nil
}

// Pause pauses the active session.
func (c *Controller) Pause(ctx context.Context) error {
	if c.Session() == nil {
		return finchErrors.ErrNoActiveSession
	}
	if err := c.surface.Pause(ctx); err != nil {
		return err
	}
	c.SetPlaying(false)
	return nil
}

// TogglePlayPause flips the play state as it is at the time of the call.
func (c *Controller) TogglePlayPause(ctx context.Context) error {
	sess := c.Session()
	if sess == nil {
		return finchErrors.ErrNoActiveSession
	}
	if sess.IsPlaying {
		return c.Pause(ctx)
	}
	return c.Play(ctx)
}

// Seek jumps to pos and reports the new position.
func (c *Controller) Seek(ctx context.Context, pos core.Ticks) error {
	if c.Session() == nil {
		return finchErrors.ErrNoActiveSession
	}
	if pos < 0 {
		pos = 0
	}
	if err := c.surface.Seek(ctx, pos); err != nil {
		return err
	}
	c.mu.Lock()
	if c.session != nil {
		c.session.Position = core.At(pos)
	}
	c.mu.Unlock()
	c.broadcastPosition(core.At(pos))
	c.ReportProgress(core.At(pos))
	return nil
}

// SetVolume sets the volume (0-100). Zero mutes.
func (c *Controller) SetVolume(ctx context.Context, percent int) error {
	percent = max(0, min(100, percent))
	if err := c.surface.SetVolume(ctx, percent); err != nil {
		return err
	}
	c.mu.Lock()
	c.volume = percent
	c.muted = percent == 0
	if percent > 0 {
		c.lastVolume = percent
	}
	c.syncVolumeLocked()
	c.mu.Unlock()
	return nil
}

// Volume implements core.Player.
func (c *Controller) Volume(ctx context.Context, percent int) error {
	return c.SetVolume(ctx, percent)
}

// Mute silences playback, remembering the volume for Unmute.
func (c *Controller) Mute(ctx context.Context) error {
	c.mu.Lock()
	if c.muted {
		c.mu.Unlock()
		return nil
	}
	if c.volume > 0 {
		c.lastVolume = c.volume
	}
	c.mu.Unlock()

	if err := c.surface.SetVolume(ctx, 0); err != nil {
		return err
	}
	c.mu.Lock()
	c.muted = true
	c.syncVolumeLocked()
	c.mu.Unlock()
	return nil
}

// Unmute restores the volume from before Mute.
func (c *Controller) Unmute(ctx context.Context) error {
	c.mu.Lock()
	restore := c.lastVolume
	c.mu.Unlock()
	if restore <= 0 {
		restore = 100
	}
	return c.SetVolume(ctx, restore)
}

// Muted reports whether playback is muted.
func (c *Controller) Muted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.muted
}

func (c *Controller) effectiveVolume() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.muted {
		return 0
	}
	return c.volume
}

func (c *Controller) syncVolumeLocked() {
	if c.session != nil {
		c.session.Volume = c.volume
		c.session.Muted = c.muted
	}
}

// SkipSegment jumps past the intro or credits at the current position.
func (c *Controller) SkipSegment(ctx context.Context) error {
	sess := c.Session()
	if sess == nil {
		return finchErrors.ErrNoActiveSession
	}
	pos := sess.Position
	if p, ok := c.surface.(surface.Positioner); ok {
		if sp := p.Position(); sp.Known {
			pos = sp
		}
	}
	seg, ok := core.ActiveSegment(sess.Segments, pos)
	if !ok {
		return ErrNoSegment
	}
	return c.Seek(ctx, seg.EndTicks)
}

// SetQueue replaces the play queue used by Next and Prev.
func (c *Controller) SetQueue(items []core.MediaItem, current int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue = core.Queue{Items: append([]core.MediaItem(nil), items...), CurrentIndex: current}
}

// Next plays the next queued item.
func (c *Controller) Next(ctx context.Context) error {
	return c.advance(ctx, 1)
}

// Prev plays the previous queued item.
func (c *Controller) Prev(ctx context.Context) error {
	return c.advance(ctx, -1)
}

func (c *Controller) advance(ctx context.Context, delta int) error {
	c.mu.Lock()
	next := c.queue.Advance(delta)
	c.mu.Unlock()
	if next == nil {
		if delta > 0 {
			return ErrQueueEnd
		}
		return ErrQueueStart
	}
	item := *next
	return c.Begin(ctx, &item, "", item.ResumePosition(), BeginOptions{})
}

// GetState implements core.Player.
func (c *Controller) GetState(context.Context) (*core.PlaybackSession, error) {
	return c.Session(), nil
}

// GetQueue implements core.Player.
func (c *Controller) GetQueue(context.Context) (*core.Queue, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	q := core.Queue{Items: append([]core.MediaItem(nil), c.queue.Items...), CurrentIndex: c.queue.CurrentIndex}
	return &q, nil
}

// DisplayMessage forwards a remote message to subscribers.
func (c *Controller) DisplayMessage(header, text string, timeout time.Duration) {
	c.subsMu.RLock()
	defer c.subsMu.RUnlock()
	for _, sub := range c.subs {
		sub.sendMessage(MessageEvent{Header: header, Text: text, Timeout: timeout})
	}
}

// Close stops playback, closes the surface and ends all subscriptions.
func (c *Controller) Close() error {
	c.subsMu.Lock()
	if c.closed {
		c.subsMu.Unlock()
		return nil
	}
	c.closed = true
	c.subsMu.Unlock()

	err := c.Stop(context.Background())
	if cerr := c.surface.Close(); cerr != nil && err == nil {
		err = cerr
	}
	<-c.loopDone

	c.subsMu.Lock()
	for _, sub := range c.subs {
		sub.close()
	}
	c.subs = nil
	c.subsMu.Unlock()
	return err
}

// consumeSurface turns surface events into controller calls.
func (c *Controller) consumeSurface() {
	defer close(c.loopDone)
	for ev := range c.surface.Events() {
		if c.stale(ev) {
			continue
		}
		switch ev.Kind {
		case surface.EventProgress:
			c.broadcastPosition(ev.Position)
			c.ReportProgress(ev.Position)
		case surface.EventDuration:
			c.mu.Lock()
			if c.session != nil {
				c.session.Duration = ev.Duration
			}
			c.mu.Unlock()
		case surface.EventEnded:
			c.opMu.Lock()
			active := c.Session() != nil
			err := c.stopLocked(context.Background(), ev.Position)
			c.opMu.Unlock()
			if err != nil {
				c.logger.Warn().Err(err).Msg("stop after end")
			}
			if active {
				c.autoAdvance()
			}
		case surface.EventError:
			c.logger.Error().Err(ev.Err).Msg("surface error")
			c.SetPlaying(false)
			c.broadcastError(ev.Err)
		}
	}
}

// stale reports whether ev was queued before the current media was loaded.
func (c *Controller) stale(ev surface.Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ev.Load < c.loadGen
}

func (c *Controller) autoAdvance() {
	c.mu.Lock()
	hasNext := len(c.queue.Upcoming()) > 0
	c.mu.Unlock()
	if !hasNext {
		return
	}
	go func() {
		if err := c.Next(context.Background()); err != nil {
			c.logger.Warn().Err(err).Msg("advance queue")
			c.broadcastError(err)
		}
	}()
}

func (c *Controller) sendReport(r pendingReport) {
	c.mu.Lock()
	sess := c.session
	if sess == nil || sess.ServerSessionID != r.playSessionID {
		c.mu.Unlock()
		return
	}
	report := c.report(sess, r.position, r.paused, r.event)
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
	defer cancel()
	if err := c.api.ReportPlaybackProgress(ctx, report); err != nil {
		c.logger.Warn().Err(err).Msg("report progress")
	}
}

func (c *Controller) report(sess *core.PlaybackSession, pos core.Position, paused bool, event string) client.PlaybackReport {
	return client.PlaybackReport{
		ItemID:              sess.Item.ID,
		MediaSourceID:       sess.MediaSourceID,
		PlaySessionID:       sess.ServerSessionID,
		PositionTicks:       int64(pos.Ticks),
		IsPaused:            paused,
		IsMuted:             sess.Muted,
		VolumeLevel:         sess.Volume,
		AudioStreamIndex:    sess.AudioIndex,
		SubtitleStreamIndex: sess.SubtitleIndex,
		PlayMethod:          string(sess.PlayMethod),
		CanSeek:             true,
		EventName:           event,
	}
}

func (c *Controller) setState(next State, sess *core.PlaybackSession) {
	c.mu.Lock()
	prev := c.state
	c.state = next
	c.mu.Unlock()

	if prev == next && next != StateLoading && sess == nil {
		return
	}

	c.subsMu.RLock()
	defer c.subsMu.RUnlock()
	for _, sub := range c.subs {
		sub.sendState(StateChange{Previous: prev, Current: next, Session: sess.Clone()})
	}
}

func (c *Controller) broadcastPosition(pos core.Position) {
	c.mu.Lock()
	var duration core.Ticks
	if c.session != nil {
		duration = c.session.Duration
	}
	c.mu.Unlock()

	c.subsMu.RLock()
	defer c.subsMu.RUnlock()
	for _, sub := range c.subs {
		sub.sendPosition(PositionChange{Position: pos, Duration: duration})
	}
}

func (c *Controller) broadcastError(err error) {
	c.subsMu.RLock()
	defer c.subsMu.RUnlock()
	for _, sub := range c.subs {
		sub.sendError(ErrorEvent{Err: err})
	}
}

func joinServer(server, ref string) string {
	if len(ref) > 0 && ref[0] == '/' {
		return server + ref
	}
	return ref
}
