package core

import (
	"context"
	"time"
)

// Player defines the interface for controlling playback on the local device.
type Player interface {
	// Playback control
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Stop(ctx context.Context) error
	Next(ctx context.Context) error
	Prev(ctx context.Context) error
	Seek(ctx context.Context, pos Ticks) error

	// Volume control
	Volume(ctx context.Context, percent int) error

	// State queries
	GetState(ctx context.Context) (*PlaybackSession, error)
	GetQueue(ctx context.Context) (*Queue, error)
}

// HistoryEntry represents a recently played item.
type HistoryEntry struct {
	Item     *MediaItem
	Position Position
	PlayedAt time.Time
}
