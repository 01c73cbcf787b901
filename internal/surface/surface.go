// Package surface is the boundary to whatever actually renders media.
package surface

import (
	"context"
	"net/http"

	"github.com/tessro/finch/internal/core"
)

// EventKind is the type of a surface event.
type EventKind int

const (
	EventProgress EventKind = iota
	EventDuration
	EventEnded
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventProgress:
		return "progress"
	case EventDuration:
		return "duration"
	case EventEnded:
		return "ended"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is emitted by a surface while media is loaded.
type Event struct {
	Kind     EventKind
	Position core.Position
	Duration core.Ticks
	Err      error
	// Load is the Generation of the Load the event belongs to.
	Load uint64
}

// Media is what a surface is asked to open.
type Media struct {
	URL          string
	Headers      http.Header
	Start        core.Position
	Duration     core.Ticks
	Title        string
	SubtitleURLs []string
}

// Surface plays a single media stream.
type Surface interface {
	Load(ctx context.Context, m Media) error
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Seek(ctx context.Context, pos core.Ticks) error
	SetVolume(ctx context.Context, percent int) error
	// Stop unloads the current media. The surface stays usable.
	Stop(ctx context.Context) error
	Events() <-chan Event
	// Generation counts Load calls. Events queued before the latest Load
	// carry a smaller number.
	Generation() uint64
	Close() error
}

// Positioner is implemented by surfaces that can report their own position.
type Positioner interface {
	Position() core.Position
}
