package core

import "time"

// TicksPerSecond is the media server's time resolution.
const TicksPerSecond = 10_000_000

// Ticks is a position or duration in server ticks (100ns units).
type Ticks int64

// Duration converts ticks to a time.Duration.
func (t Ticks) Duration() time.Duration {
	return time.Duration(t) * 100 * time.Nanosecond
}

// Seconds returns the tick value in whole seconds.
func (t Ticks) Seconds() int {
	return int(t / TicksPerSecond)
}

// TicksFromDuration converts a time.Duration to ticks.
func TicksFromDuration(d time.Duration) Ticks {
	return Ticks(d / 100)
}

// Position is a playback position that may not be known yet.
// A zero Position is "unknown", distinct from a known position at 0.
type Position struct {
	Ticks Ticks
	Known bool
}

// At returns a known position.
func At(t Ticks) Position {
	return Position{Ticks: t, Known: true}
}

// AtDuration returns a known position from a duration.
func AtDuration(d time.Duration) Position {
	return At(TicksFromDuration(d))
}

// Duration returns the position as a duration, or 0 if unknown.
func (p Position) Duration() time.Duration {
	if !p.Known {
		return 0
	}
	return p.Ticks.Duration()
}
