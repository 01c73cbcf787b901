package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/tessro/finch/internal/core"
	finchErrors "github.com/tessro/finch/internal/errors"
	"github.com/tessro/finch/internal/jellyfin/client"
	"github.com/tessro/finch/internal/wizard"
)

const messageTimeout = 5 * time.Second

var (
	sessionsActive   time.Duration
	sessionsPlaying  bool
	controlMsgHeader string
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List sessions on the server",
	Long:  `List the playback sessions you can see and control, on any device.`,
	RunE:  runSessions,
}

var controlCmd = &cobra.Command{
	Use:   "control <session> <command> [value]",
	Short: "Control playback on another device",
	Long: `Send a command to another session. The session is given by id, device id
or (part of) the device name.

Commands:
  toggle            Play or pause
  pause, resume     Pause or resume
  stop              Stop playback
  next, prev        Skip within the session's queue
  seek <position>   Seek (90, 1:30, 1:02:03 or 1h2m)
  volume <0-100>    Set volume
  mute, unmute      Mute or unmute
  message <text>    Show a message on screen

Examples:
  finch control "Living Room" pause
  finch control tv seek 12:30
  finch control tv message "Dinner is ready"`,
	Args: cobra.MinimumNArgs(2),
	RunE: runControl,
}

func init() {
	sessionsCmd.Flags().DurationVar(&sessionsActive, "active", 15*time.Minute, "only sessions active within this window (0 for all)")
	sessionsCmd.Flags().BoolVar(&sessionsPlaying, "playing", false, "only sessions with something loaded")
	controlCmd.Flags().StringVar(&controlMsgHeader, "header", "finch", "header for message")
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(controlCmd)
}

func runSessions(cmd *cobra.Command, args []string) error {
	return withClient(func(e *env, c *client.Client) error {
		sessions, err := c.GetSessions(cmd.Context(), int(sessionsActive.Seconds()))
		if err != nil {
			return fmt.Errorf("failed to list sessions: %w", err)
		}

		if sessionsPlaying {
			playing := sessions[:0]
			for _, s := range sessions {
				if s.HasItem() {
					playing = append(playing, s)
				}
			}
			sessions = playing
		}

		if JSONOutput() {
			return printJSON(sessions)
		}
		if len(sessions) == 0 {
			fmt.Println("No sessions")
			return nil
		}

		for i := range sessions {
			printSession(&sessions[i], sessions[i].DeviceID == e.device.ID)
		}
		return nil
	})
}

func printSession(s *core.RemoteSession, self bool) {
	me := ""
	if self {
		me = " (this device)"
	}
	fmt.Printf("%s %s%s\n", StatusIcon(s.IsPlaying()), s.DeviceName, me)
	fmt.Printf("    %s %s · %s · active %s\n", s.Client, s.ApplicationVersion, s.UserName, humanize.Time(s.LastActivity))

	if s.NowPlaying != nil {
		icon := "▶"
		if s.IsPaused {
			icon = "⏸"
		}
		fmt.Printf("    %s %s\n", icon, s.NowPlaying.DisplayName())
		if s.NowPlaying.RunTimeTicks > 0 && s.Position.Known {
			pct := float64(s.Position.Ticks) / float64(s.NowPlaying.RunTimeTicks) * 100
			fmt.Printf("    %s %s / %s\n", FormatProgress(pct, 30),
				FormatDuration(s.Position.Duration()), FormatDuration(s.NowPlaying.Runtime()))
		}
	}

	if Verbose() {
		fmt.Printf("    ID: %s\n", s.ID)
		fmt.Printf("    Device ID: %s\n", s.DeviceID)
		fmt.Printf("    Remote control: %v\n", s.SupportsRemote)
	}
}

// controlRequest is a parsed control command. Exactly one of playstate,
// general and message is set.
type controlRequest struct {
	playstate client.PlaystateCommand
	seek      core.Ticks
	general   *client.GeneralCommand
	message   string
}

func parseControl(command string, args []string) (controlRequest, error) {
	value := strings.Join(args, " ")
	needValue := func() error {
		if value == "" {
			return fmt.Errorf("%s needs a value", command)
		}
		return nil
	}

	switch strings.ToLower(command) {
	case "toggle", "playpause", "play-pause":
		return controlRequest{playstate: client.PlaystatePlayPause}, nil
	case "pause":
		return controlRequest{playstate: client.PlaystatePause}, nil
	case "resume", "unpause", "play":
		return controlRequest{playstate: client.PlaystateUnpause}, nil
	case "stop":
		return controlRequest{playstate: client.PlaystateStop}, nil
	case "next", "skip":
		return controlRequest{playstate: client.PlaystateNextTrack}, nil
	case "prev", "previous", "back":
		return controlRequest{playstate: client.PlaystatePreviousTrack}, nil
	case "seek":
		if err := needValue(); err != nil {
			return controlRequest{}, err
		}
		pos, err := parseStart(value)
		if err != nil {
			return controlRequest{}, err
		}
		return controlRequest{playstate: client.PlaystateSeek, seek: pos.Ticks}, nil
	case "volume", "vol":
		if err := needValue(); err != nil {
			return controlRequest{}, err
		}
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 || n > 100 {
			return controlRequest{}, fmt.Errorf("volume must be between 0 and 100")
		}
		return controlRequest{general: &client.GeneralCommand{
			Name:      "SetVolume",
			Arguments: map[string]string{"Volume": strconv.Itoa(n)},
		}}, nil
	case "mute":
		return controlRequest{general: &client.GeneralCommand{Name: "Mute"}}, nil
	case "unmute":
		return controlRequest{general: &client.GeneralCommand{Name: "Unmute"}}, nil
	case "message", "msg":
		if err := needValue(); err != nil {
			return controlRequest{}, err
		}
		return controlRequest{message: value}, nil
	default:
		return controlRequest{}, finchErrors.WithSuggestion(
			fmt.Errorf("unknown command %q", command),
			"Run 'finch control --help' for the list of commands",
		)
	}
}

// findSession resolves ref exactly, then by device-name substring. Several
// partial matches are offered in a picker.
func findSession(ctx context.Context, c *client.Client, ref string) (*core.RemoteSession, error) {
	if s, err := c.FindSession(ctx, ref); err == nil {
		return s, nil
	}

	sessions, err := c.GetSessions(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	var matches []core.RemoteSession
	needle := strings.ToLower(ref)
	for _, s := range sessions {
		if strings.Contains(strings.ToLower(s.DeviceName), needle) {
			matches = append(matches, s)
		}
	}

	interactive := wizard.NewInteractive()
	interactive.SetEnabled(!JSONOutput())
	s, err := interactive.PromptSession(matches)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("%w: %q", finchErrors.ErrSessionNotFound, ref)
	}
	return s, nil
}

func runControl(cmd *cobra.Command, args []string) error {
	req, err := parseControl(args[1], args[2:])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	return withClient(func(_ *env, c *client.Client) error {
		s, err := findSession(ctx, c, args[0])
		if err != nil {
			return err
		}

		switch {
		case req.general != nil:
			err = c.SendSessionCommand(ctx, s.ID, *req.general)
		case req.message != "":
			err = c.SendMessage(ctx, s.ID, controlMsgHeader, req.message, int(messageTimeout.Milliseconds()))
		default:
			err = c.SendPlaystateCommand(ctx, s.ID, req.playstate, req.seek)
		}
		if err != nil {
			return fmt.Errorf("failed to send %s to %s: %w", args[1], s.DeviceName, err)
		}

		if JSONOutput() {
			return printJSON(map[string]string{
				"status":  "sent",
				"session": s.ID,
				"device":  s.DeviceName,
				"command": strings.ToLower(args[1]),
			})
		}
		fmt.Printf("%s → %s\n", strings.ToLower(args[1]), s.DeviceName)
		return nil
	})
}
