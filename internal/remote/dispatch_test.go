package remote

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tessro/finch/internal/core"
)

type recordingHandler struct {
	calls []string
}

func (h *recordingHandler) record(format string, args ...any) error {
	h.calls = append(h.calls, fmt.Sprintf(format, args...))
	return nil
}

func (h *recordingHandler) TogglePlayPause(context.Context) error { return h.record("toggle") }
func (h *recordingHandler) Play(context.Context) error            { return h.record("play") }
func (h *recordingHandler) Pause(context.Context) error           { return h.record("pause") }
func (h *recordingHandler) Stop(context.Context) error            { return h.record("stop") }
func (h *recordingHandler) Mute(context.Context) error            { return h.record("mute") }
func (h *recordingHandler) Unmute(context.Context) error          { return h.record("unmute") }
func (h *recordingHandler) Next(context.Context) error            { return h.record("next") }
func (h *recordingHandler) Prev(context.Context) error            { return h.record("prev") }

func (h *recordingHandler) SetVolume(_ context.Context, v int) error {
	return h.record("volume %d", v)
}

func (h *recordingHandler) Seek(_ context.Context, pos core.Ticks) error {
	return h.record("seek %d", pos.Seconds())
}

func (h *recordingHandler) DisplayMessage(header, text string, timeout time.Duration) {
	_ = h.record("message %s/%s/%s", header, text, timeout)
}

func TestDispatch(t *testing.T) {
	tests := []struct {
		cmd  Command
		want string
	}{
		{Command{Kind: KindPlayPause}, "toggle"},
		{Command{Kind: KindPause}, "pause"},
		{Command{Kind: KindUnpause}, "play"},
		{Command{Kind: KindStop}, "stop"},
		{Command{Kind: KindMute}, "mute"},
		{Command{Kind: KindUnmute}, "unmute"},
		{Command{Kind: KindSetVolume, Volume: 35}, "volume 35"},
		{Command{Kind: KindSeek, Position: 12 * core.TicksPerSecond}, "seek 12"},
		{Command{Kind: KindNextTrack}, "next"},
		{Command{Kind: KindPreviousTrack}, "prev"},
		{Command{Kind: KindDisplayMessage, Header: "h", Text: "t", Timeout: time.Second}, "message h/t/1s"},
	}

	for _, tt := range tests {
		t.Run(tt.cmd.Kind.String(), func(t *testing.T) {
			h := &recordingHandler{}
			if err := Dispatch(context.Background(), h, tt.cmd); err != nil {
				t.Fatalf("Dispatch: %v", err)
			}
			if len(h.calls) != 1 || h.calls[0] != tt.want {
				t.Errorf("calls = %v, want [%s]", h.calls, tt.want)
			}
		})
	}
}

func TestDispatchUnknownIsIgnored(t *testing.T) {
	h := &recordingHandler{}
	before := testutil.ToFloat64(commandsTotal.WithLabelValues("Unknown"))

	if err := Dispatch(context.Background(), h, Command{Kind: KindUnknown, Raw: "GoHome"}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(h.calls) != 0 {
		t.Errorf("unexpected calls %v", h.calls)
	}
	if got := testutil.ToFloat64(commandsTotal.WithLabelValues("Unknown")); got != before+1 {
		t.Errorf("unknown counter = %v, want %v", got, before+1)
	}
}
