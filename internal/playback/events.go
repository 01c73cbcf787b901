package playback

import (
	"time"

	"github.com/tessro/finch/internal/core"
)

// StateChange is emitted when the play state or the active item changes.
type StateChange struct {
	Previous State
	Current  State
	Session  *core.PlaybackSession // nil when idle
}

// PositionChange is emitted on surface progress.
type PositionChange struct {
	Position core.Position
	Duration core.Ticks
}

// ErrorEvent reports a playback failure the user should see.
type ErrorEvent struct {
	Err error
}

// MessageEvent is a message pushed by a remote controller.
type MessageEvent struct {
	Header  string
	Text    string
	Timeout time.Duration
}
