package tui

import "github.com/tessro/finch/internal/core"

// ViewState is the player screen's local state. None of it is persisted and
// none of it feeds back into the playback session except through EndScrub.
type ViewState struct {
	Width  int
	Height int

	Buffering       bool
	ControlsVisible bool

	position core.Position
	duration core.Ticks

	seeking bool
	scrub   core.Ticks
}

// NewViewState returns a state with controls shown.
func NewViewState() ViewState {
	return ViewState{ControlsVisible: true}
}

// Resize records new window dimensions. Layout only.
func (v *ViewState) Resize(width, height int) {
	v.Width = width
	v.Height = height
}

// Progress applies a position from the controller. It is dropped while a
// scrub is in progress so the head doesn't jump under the user.
func (v *ViewState) Progress(pos core.Position, duration core.Ticks) {
	if duration > 0 {
		v.duration = duration
	}
	if v.seeking {
		return
	}
	v.position = pos
}

// Reset clears position and scrub state, e.g. when the item changes.
func (v *ViewState) Reset(duration core.Ticks) {
	v.position = core.Position{}
	v.duration = duration
	v.seeking = false
	v.scrub = 0
	v.Buffering = false
}

// BeginScrub enters seeking mode at the current position.
func (v *ViewState) BeginScrub() {
	if v.seeking {
		return
	}
	v.seeking = true
	v.scrub = 0
	if v.position.Known {
		v.scrub = v.position.Ticks
	}
}

// ScrubBy moves the scrub head, starting a scrub if needed.
func (v *ViewState) ScrubBy(delta core.Ticks) {
	v.BeginScrub()
	v.scrub = v.clamp(v.scrub + delta)
}

// ScrubTo moves the scrub head to an absolute position.
func (v *ViewState) ScrubTo(pos core.Ticks) {
	v.BeginScrub()
	v.scrub = v.clamp(pos)
}

// EndScrub leaves seeking mode. ok is false when no scrub was in progress,
// so a caller seeks exactly once per drag.
func (v *ViewState) EndScrub() (target core.Ticks, ok bool) {
	if !v.seeking {
		return 0, false
	}
	v.seeking = false
	v.position = core.At(v.scrub)
	return v.scrub, true
}

// CancelScrub leaves seeking mode without a seek.
func (v *ViewState) CancelScrub() {
	v.seeking = false
}

// Seeking reports whether a scrub is in progress.
func (v *ViewState) Seeking() bool {
	return v.seeking
}

// Position is the head to draw: the scrub target while seeking.
func (v *ViewState) Position() core.Position {
	if v.seeking {
		return core.At(v.scrub)
	}
	return v.position
}

// Duration returns the known duration, 0 if none.
func (v *ViewState) Duration() core.Ticks {
	return v.duration
}

// Percent returns the head's progress, 0-100.
func (v *ViewState) Percent() float64 {
	pos := v.Position()
	if !pos.Known || v.duration <= 0 {
		return 0
	}
	return float64(pos.Ticks) / float64(v.duration) * 100
}

func (v *ViewState) clamp(t core.Ticks) core.Ticks {
	if t < 0 {
		return 0
	}
	if v.duration > 0 && t > v.duration {
		return v.duration
	}
	return t
}
