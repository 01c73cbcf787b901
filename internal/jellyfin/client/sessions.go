package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/tessro/finch/internal/core"
)

// PlaystateCommand is a transport command sent to another session.
type PlaystateCommand string

const (
	PlaystatePlayPause     PlaystateCommand = "PlayPause"
	PlaystatePause         PlaystateCommand = "Pause"
	PlaystateUnpause       PlaystateCommand = "Unpause"
	PlaystateStop          PlaystateCommand = "Stop"
	PlaystateNextTrack     PlaystateCommand = "NextTrack"
	PlaystatePreviousTrack PlaystateCommand = "PreviousTrack"
	PlaystateSeek          PlaystateCommand = "Seek"
)

// GeneralCommand is a non-transport command (volume, mute, message).
type GeneralCommand struct {
	Name      string            `json:"Name"`
	Arguments map[string]string `json:"Arguments,omitempty"`
}

// GetSessions lists sessions the current user can see, optionally only
// those active within the given number of seconds.
func (c *Client) GetSessions(ctx context.Context, activeWithinSeconds int) ([]core.RemoteSession, error) {
	params := map[string]string{"controllableByUserId": c.UserID()}
	if activeWithinSeconds > 0 {
		params["activeWithinSeconds"] = strconv.Itoa(activeWithinSeconds)
	}

	var sessions []SessionInfo
	if err := c.Get(ctx, BuildURL("/Sessions", params), &sessions); err != nil {
		return nil, err
	}

	out := make([]core.RemoteSession, 0, len(sessions))
	for i := range sessions {
		out = append(out, convertSession(&sessions[i]))
	}
	return out, nil
}

// FindSession resolves a session by id, device id or device name.
func (c *Client) FindSession(ctx context.Context, ref string) (*core.RemoteSession, error) {
	sessions, err := c.GetSessions(ctx, 0)
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		s := &sessions[i]
		if s.ID == ref || s.DeviceID == ref || s.DeviceName == ref {
			return s, nil
		}
	}
	return nil, fmt.Errorf("session %q not found", ref)
}

// SendPlaystateCommand sends a transport command to a session. seek is
// only used by PlaystateSeek.
func (c *Client) SendPlaystateCommand(ctx context.Context, sessionID string, cmd PlaystateCommand, seek core.Ticks) error {
	path := "/Sessions/" + url.PathEscape(sessionID) + "/Playing/" + string(cmd)
	if cmd == PlaystateSeek {
		path = BuildURL(path, map[string]string{"seekPositionTicks": strconv.FormatInt(int64(seek), 10)})
	}
	return c.Post(ctx, path, nil, nil)
}

// SendSessionCommand sends a general command to a session.
func (c *Client) SendSessionCommand(ctx context.Context, sessionID string, cmd GeneralCommand) error {
	return c.Post(ctx, "/Sessions/"+url.PathEscape(sessionID)+"/Command", cmd, nil)
}

// SendMessage shows a message on a session's screen.
func (c *Client) SendMessage(ctx context.Context, sessionID, header, text string, timeoutMs int) error {
	body := map[string]any{"Header": header, "Text": text}
	if timeoutMs > 0 {
		body["TimeoutMs"] = timeoutMs
	}
	return c.Post(ctx, "/Sessions/"+url.PathEscape(sessionID)+"/Message", body, nil)
}
