package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
	"github.com/tessro/finch/internal/core"
	finchErrors "github.com/tessro/finch/internal/errors"
	"github.com/tessro/finch/internal/jellyfin/client"
	"github.com/tessro/finch/internal/log"
	"github.com/tessro/finch/internal/playback"
	"github.com/tessro/finch/internal/remote"
	"github.com/tessro/finch/internal/stream"
	"github.com/tessro/finch/internal/surface"
	"github.com/tessro/finch/internal/wizard"
)

const (
	// queueGrace is how long play waits after an item ends for the queue
	// to start the next one.
	queueGrace  = 5 * time.Second
	stopTimeout = 10 * time.Second
)

var (
	playSource   string
	playStart    string
	playForce    bool
	playHeadless bool
	playAudio    string
	playSubtitle string
	playNoRemote bool

	streamCopy     bool
	streamOriginal bool
	streamSource   string
)

var playCmd = &cobra.Command{
	Use:   "play [item]",
	Short: "Play an item",
	Long: `Play a movie, episode, track or a whole album, season or playlist.
The item is given by id or title; without one, an interactive search opens.
Playback resumes where you left off unless --start is given.

Examples:
  finch play "The Matrix"
  finch play 5d0b2c1e9a3f4e1c8b7a6d5e4f3a2b1c --start 0
  finch play "Kind of Blue"          # queue the whole album
  finch play "Pilot" --audio jpn --subtitle eng
  finch play "Pilot" --force         # skip server negotiation checks
  finch play "Pilot" --headless      # report playback without a player`,
	RunE: runPlay,
}

var streamURLCmd = &cobra.Command{
	Use:   "stream-url [item]",
	Short: "Print a playable stream URL",
	Long: `Negotiate playback for an item and print the URL to stream it,
for use with any player.

Examples:
  finch stream-url "The Matrix" | xargs vlc
  finch stream-url "The Matrix" --copy
  finch stream-url "The Matrix" --original   # the untouched file`,
	RunE: runStreamURL,
}

func init() {
	playCmd.Flags().StringVar(&playSource, "source", "", "media source (version) id")
	playCmd.Flags().StringVar(&playStart, "start", "", "start position (90, 1:30, 1:02:03 or 1h2m)")
	playCmd.Flags().BoolVarP(&playForce, "force", "f", false, "force direct play, ignoring negotiation failures")
	playCmd.Flags().BoolVar(&playHeadless, "headless", false, "track and report playback without launching a player")
	playCmd.Flags().StringVar(&playAudio, "audio", "", "audio track by language or stream index")
	playCmd.Flags().StringVar(&playSubtitle, "subtitle", "", "subtitle track by language, stream index or \"off\"")
	playCmd.Flags().BoolVar(&playNoRemote, "no-remote", false, "do not accept remote-control commands while playing")

	streamURLCmd.Flags().BoolVar(&streamCopy, "copy", false, "copy the URL to the clipboard")
	streamURLCmd.Flags().BoolVar(&streamOriginal, "original", false, "print the download URL of the original file")
	streamURLCmd.Flags().StringVar(&streamSource, "source", "", "media source (version) id")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(streamURLCmd)
}

// parseStart parses a start position given as seconds, [h:]m:ss or a Go duration.
func parseStart(s string) (core.Position, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return core.Position{}, nil
	}

	if d, err := time.ParseDuration(s); err == nil && strings.ContainsAny(s, "hms") {
		if d < 0 {
			return core.Position{}, fmt.Errorf("start position must not be negative")
		}
		return core.AtDuration(d), nil
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return core.Position{}, fmt.Errorf("invalid start position %q", s)
	}
	total := 0
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return core.Position{}, fmt.Errorf("invalid start position %q", s)
		}
		if i > 0 && n >= 60 {
			return core.Position{}, fmt.Errorf("invalid start position %q", s)
		}
		total = total*60 + n
	}
	return core.AtDuration(time.Duration(total) * time.Second), nil
}

// pickStream resolves a --audio or --subtitle value against a source. A
// language that the source lacks is an error only when required is set.
func pickStream(src *core.MediaSource, t core.StreamType, value string, required bool) (*int, error) {
	value = strings.TrimSpace(value)
	if value == "" || src == nil {
		return nil, nil
	}

	if t == core.StreamSubtitle && (value == "off" || value == "none") {
		off := -1
		return &off, nil
	}

	if n, err := strconv.Atoi(value); err == nil {
		for _, st := range src.Streams(t) {
			if st.Index == n {
				return &n, nil
			}
		}
		return nil, fmt.Errorf("no %s stream with index %d", strings.ToLower(string(t)), n)
	}

	idx := src.StreamByLanguage(t, value)
	if idx < 0 {
		if required {
			return nil, fmt.Errorf("no %s stream in language %q", strings.ToLower(string(t)), value)
		}
		return nil, nil
	}
	return &idx, nil
}

// pickSource returns the source to play: the one asked for, or the first.
func pickSource(item *core.MediaItem, id string) *core.MediaSource {
	if src := item.Source(id); src != nil {
		return src
	}
	if id == "" && len(item.MediaSources) > 0 {
		return &item.MediaSources[0]
	}
	return nil
}

func reportInterval() time.Duration {
	return time.Duration(cfg.Playback.ReportInterval) * time.Millisecond
}

func newSurface(headless bool) surface.Surface {
	if headless {
		return surface.NewClock(reportInterval())
	}
	return surface.NewExternal(surface.ExternalConfig{
		Command:  cfg.Playback.Player,
		Args:     cfg.Playback.PlayerArgs,
		Interval: reportInterval(),
		IPC:      strings.TrimSuffix(filepath.Base(cfg.Playback.Player), ".exe") == "mpv",
	}, log.WithComponent("surface"))
}

func newController(e *env, c *client.Client, surf surface.Surface) *playback.Controller {
	logger := log.WithComponent("playback")
	return playback.New(c, surf, playback.Config{
		Debounce:          time.Duration(cfg.Playback.ProgressDebounce) * time.Millisecond,
		MaxBitrate:        e.settings.MaxBitrate(cfg.Playback.MaxBitrate),
		Volume:            e.settings.Volume(cfg.Playback.Volume),
		SupportedCommands: remote.SupportedCommands,
		Logger:            &logger,
	})
}

// queueFor returns what to queue for item: the playable children of a
// folder, or the item alone.
func queueFor(ctx context.Context, c *client.Client, item *core.MediaItem) ([]core.MediaItem, error) {
	if item.Type.IsPlayable() {
		return []core.MediaItem{*item}, nil
	}
	if !item.IsFolder {
		return nil, fmt.Errorf("%s is a %s and cannot be played", item.Name, item.Type)
	}

	page, err := c.GetItems(ctx, client.ItemQuery{
		ParentID:  item.ID,
		Recursive: true,
		Types: []core.ItemType{
			core.ItemMovie, core.ItemEpisode, core.ItemAudio, core.ItemAudioBook,
			core.ItemMusicVideo, core.ItemVideo,
		},
		SortBy:    "ParentIndexNumber,IndexNumber,SortName",
		SortOrder: "Ascending",
		Limit:     500,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", item.Name, err)
	}
	if len(page.Items) == 0 {
		return nil, fmt.Errorf("%s has nothing playable", item.Name)
	}
	return page.Items, nil
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	c, err := e.client()
	if err != nil {
		return err
	}

	item, err := findItem(ctx, c, strings.Join(args, " "), nil)
	if err != nil {
		return err
	}
	queue, err := queueFor(ctx, c, item)
	if err != nil {
		return err
	}
	first := &queue[0]

	interactive := wizard.NewInteractive()
	interactive.SetEnabled(!JSONOutput())

	sourceID := playSource
	if sourceID == "" {
		if sourceID, err = interactive.PromptSource(first); err != nil {
			return err
		}
	}

	start := first.ResumePosition()
	if cmd.Flags().Changed("start") {
		if start, err = parseStart(playStart); err != nil {
			return err
		}
	}

	opts := playback.BeginOptions{
		Force: playForce || cfg.Playback.ForceDirectPlay || e.settings.ForceDirectPlay(),
	}
	src := pickSource(first, sourceID)
	audioPref, subtitlePref := playAudio, playSubtitle
	if audioPref == "" {
		audioPref = firstNonEmpty(e.settings.AudioLanguage(), cfg.Playback.AudioLanguage)
	}
	if subtitlePref == "" {
		subtitlePref = firstNonEmpty(e.settings.SubtitleLanguage(), cfg.Playback.SubtitleLanguage)
	}
	if opts.AudioIndex, err = pickStream(src, core.StreamAudio, audioPref, playAudio != ""); err != nil {
		return err
	}
	if opts.SubtitleIndex, err = pickStream(src, core.StreamSubtitle, subtitlePref, playSubtitle != ""); err != nil {
		return err
	}

	ctrl := newController(e, c, newSurface(playHeadless))
	defer ctrl.Close()
	sub := ctrl.Subscribe()

	if cfg.Remote.Enabled && !playNoRemote {
		rc, err := startRemote(ctx, e, ctrl)
		if err != nil {
			logger := log.WithComponent("remote")
			logger.Warn().Err(err).Msg("remote control unavailable")
		} else {
			defer rc.Close()
		}
	}

	ctrl.SetQueue(queue, 0)
	err = ctrl.Begin(ctx, first, sourceID, start, opts)
	if err != nil && !opts.Force && playback.IsForcePlayable(err) && interactive.CanInteract() {
		ok, cerr := wizard.Confirm("Playback failed", err.Error()+"\n\nTry direct play anyway?")
		if cerr == nil && ok {
			opts.Force = true
			err = ctrl.Begin(ctx, first, sourceID, start, opts)
		}
	}
	if err != nil {
		return err
	}

	defer func() { _ = finishPlayback(e, ctrl) }()

	return followPlayback(ctx, ctrl, sub)
}

// finishPlayback remembers the volume for next time and ends any open
// session, reporting the stop to the server.
func finishPlayback(e *env, ctrl *playback.Controller) error {
	if sess := ctrl.Session(); sess != nil {
		_ = e.settings.SetVolume(sess.Volume)
	}
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	return ctrl.Stop(ctx)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// followPlayback prints playback events until the queue runs out or ctx ends.
func followPlayback(ctx context.Context, ctrl *playback.Controller, sub *playback.Subscription) error {
	progress := wizard.IsTerminal() && !JSONOutput()
	var (
		title string
		grace <-chan time.Time
	)

	if sess := ctrl.Session(); sess != nil {
		title = sess.Item.DisplayName()
		announce(sess)
	}

	for {
		select {
		case <-ctx.Done():
			if progress {
				fmt.Println()
			}
			return nil

		case <-sub.Done:
			return nil

		case <-grace:
			return nil

		case ev := <-sub.StateChanged:
			switch ev.Current {
			case playback.StateIdle:
				if progress {
					fmt.Println()
				}
				q, _ := ctrl.GetQueue(ctx)
				if q == nil || len(q.Upcoming()) == 0 {
					return nil
				}
				grace = time.After(queueGrace)
			case playback.StatePlaying:
				grace = nil
				if ev.Session != nil && ev.Session.Item.DisplayName() != title {
					if progress {
						fmt.Println()
					}
					title = ev.Session.Item.DisplayName()
					announce(ev.Session)
				}
			}

		case ev := <-sub.PositionChanged:
			if progress && ev.Position.Known {
				fmt.Printf("\r  %s / %s ", FormatDuration(ev.Position.Duration()), FormatDuration(ev.Duration.Duration()))
				if ev.Duration > 0 {
					fmt.Print(FormatProgress(float64(ev.Position.Ticks)/float64(ev.Duration)*100, 30))
				}
			}

		case ev := <-sub.Error:
			if progress {
				fmt.Println()
			}
			fmt.Fprintf(os.Stderr, "Playback error: %v\n", ev.Err)
			if ctrl.Session() == nil {
				return ev.Err
			}

		case ev := <-sub.Message:
			if progress {
				fmt.Println()
			}
			fmt.Printf("💬 %s: %s\n", ev.Header, ev.Text)
		}
	}
}

func announce(sess *core.PlaybackSession) {
	if JSONOutput() {
		_ = printJSON(map[string]any{
			"status":      "playing",
			"item_id":     sess.Item.ID,
			"name":        sess.Item.DisplayName(),
			"play_method": sess.PlayMethod,
			"position":    sess.Position.Ticks,
		})
		return
	}
	fmt.Printf("▶ %s (%s)\n", sess.Item.DisplayName(), strings.ToLower(string(sess.PlayMethod)))
}

func runStreamURL(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	return withClient(func(e *env, c *client.Client) error {
		item, err := findItem(ctx, c, strings.Join(args, " "), nil)
		if err != nil {
			return err
		}
		if !item.Type.IsPlayable() {
			return fmt.Errorf("%s is a %s and has no stream", item.Name, item.Type)
		}

		var url string
		if streamOriginal {
			url = c.DownloadURL(item.ID)
		} else {
			if url, err = negotiateURL(ctx, e, c, item, streamSource); err != nil {
				return err
			}
		}

		if streamCopy {
			if err := clipboard.WriteAll(url); err != nil {
				return fmt.Errorf("failed to copy to clipboard: %w", err)
			}
		}

		if JSONOutput() {
			return printJSON(map[string]any{"item_id": item.ID, "url": url, "copied": streamCopy})
		}
		fmt.Println(url)
		if streamCopy {
			fmt.Fprintln(os.Stderr, "Copied to clipboard")
		}
		return nil
	})
}

// negotiateURL asks the server how to play item and builds the stream URL.
func negotiateURL(ctx context.Context, e *env, c *client.Client, item *core.MediaItem, sourceID string) (string, error) {
	maxBitrate := e.settings.MaxBitrate(cfg.Playback.MaxBitrate)
	profile := client.DefaultDeviceProfile(maxBitrate)
	info, err := c.GetPlaybackInfo(ctx, item.ID, client.PlaybackInfoRequest{
		MediaSourceID:       sourceID,
		MaxStreamingBitrate: maxBitrate,
		EnableDirectPlay:    true,
		EnableDirectStream:  true,
		EnableTranscoding:   true,
		DeviceProfile:       &profile,
	})
	if err != nil {
		return "", fmt.Errorf("playback negotiation failed: %w", err)
	}

	source := info.Source(sourceID)
	if source == nil {
		return "", finchErrors.ErrNoMediaSource
	}

	resolved, err := stream.Resolve(item, source, stream.Context{
		ServerURL:     c.ServerURL(),
		UserID:        c.UserID(),
		DeviceID:      c.Device().ID,
		AccessToken:   c.Token(),
		PlaySessionID: info.PlaySessionID,
		AudioIndex:    source.DefaultAudioStreamIndex,
		SubtitleIndex: source.DefaultSubtitleStreamIndex,
		MaxBitrate:    maxBitrate,
	})
	if err != nil {
		return "", err
	}
	return resolved.URL, nil
}
