package tui

import (
	"testing"

	"github.com/tessro/finch/internal/core"
)

func TestViewStateScrubSuspendsProgress(t *testing.T) {
	v := NewViewState()
	v.Progress(core.At(100*core.TicksPerSecond), 600*core.TicksPerSecond)

	v.ScrubBy(30 * core.TicksPerSecond)
	v.Progress(core.At(101*core.TicksPerSecond), 0)

	if got := v.Position(); got.Ticks != 130*core.TicksPerSecond {
		t.Fatalf("Position() while seeking = %v, want 130s", got.Ticks.Duration())
	}
	if !v.Seeking() {
		t.Fatal("expected seeking mode")
	}

	target, ok := v.EndScrub()
	if !ok || target != 130*core.TicksPerSecond {
		t.Fatalf("EndScrub() = %v, %v", target, ok)
	}
	if _, ok := v.EndScrub(); ok {
		t.Error("second EndScrub should report no scrub")
	}

	v.Progress(core.At(131*core.TicksPerSecond), 0)
	if got := v.Position(); got.Ticks != 131*core.TicksPerSecond {
		t.Errorf("progress after scrub = %v, want 131s", got.Ticks.Duration())
	}
}

func TestViewStateScrubClamps(t *testing.T) {
	tests := []struct {
		name  string
		start core.Position
		delta core.Ticks
		want  core.Ticks
	}{
		{"before start", core.At(5 * core.TicksPerSecond), -30 * core.TicksPerSecond, 0},
		{"past end", core.At(590 * core.TicksPerSecond), 30 * core.TicksPerSecond, 600 * core.TicksPerSecond},
		{"unknown position starts at zero", core.Position{}, 10 * core.TicksPerSecond, 10 * core.TicksPerSecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewViewState()
			v.Progress(tt.start, 600*core.TicksPerSecond)
			v.ScrubBy(tt.delta)
			if got, _ := v.EndScrub(); got != tt.want {
				t.Errorf("EndScrub() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestViewStateCancelScrub(t *testing.T) {
	v := NewViewState()
	v.Progress(core.At(50), 100)
	v.ScrubTo(80)
	v.CancelScrub()

	if v.Seeking() {
		t.Fatal("still seeking after cancel")
	}
	if got := v.Position(); got.Ticks != 50 {
		t.Errorf("Position() = %d, want 50", got.Ticks)
	}
	if _, ok := v.EndScrub(); ok {
		t.Error("EndScrub after cancel should not seek")
	}
}

func TestViewStatePercent(t *testing.T) {
	v := NewViewState()
	if v.Percent() != 0 {
		t.Error("unknown position should be 0%")
	}
	v.Progress(core.At(25), 100)
	if got := v.Percent(); got != 25 {
		t.Errorf("Percent() = %v, want 25", got)
	}
	v.Reset(0)
	if v.Percent() != 0 || v.Duration() != 0 {
		t.Error("Reset should clear position and duration")
	}
}
