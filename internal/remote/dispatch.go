package remote

import (
	"context"
	"time"

	"github.com/tessro/finch/internal/core"
	"github.com/tessro/finch/internal/log"
)

// Handler carries out remote commands. *playback.Controller satisfies it.
type Handler interface {
	TogglePlayPause(ctx context.Context) error
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Stop(ctx context.Context) error
	Mute(ctx context.Context) error
	Unmute(ctx context.Context) error
	SetVolume(ctx context.Context, percent int) error
	Seek(ctx context.Context, pos core.Ticks) error
	Next(ctx context.Context) error
	Prev(ctx context.Context) error
	DisplayMessage(header, text string, timeout time.Duration)
}

// Dispatch applies cmd to h. Unknown commands are logged and ignored.
func Dispatch(ctx context.Context, h Handler, cmd Command) error {
	commandsTotal.WithLabelValues(cmd.Kind.String()).Inc()

	switch cmd.Kind {
	case KindPlayPause:
		return h.TogglePlayPause(ctx)
	case KindPause:
		return h.Pause(ctx)
	case KindUnpause:
		return h.Play(ctx)
	case KindStop:
		return h.Stop(ctx)
	case KindMute:
		return h.Mute(ctx)
	case KindUnmute:
		return h.Unmute(ctx)
	case KindSetVolume:
		return h.SetVolume(ctx, cmd.Volume)
	case KindSeek:
		return h.Seek(ctx, cmd.Position)
	case KindNextTrack:
		return h.Next(ctx)
	case KindPreviousTrack:
		return h.Prev(ctx)
	case KindDisplayMessage:
		h.DisplayMessage(cmd.Header, cmd.Text, cmd.Timeout)
		return nil
	case KindUnknown:
		logger := log.WithComponent("remote")
		logger.Warn().Str("command", cmd.Raw).Msg("ignoring unsupported remote command")
		return nil
	default:
		logger := log.WithComponent("remote")
		logger.Error().Int("kind", int(cmd.Kind)).Msg("unhandled command kind")
		return nil
	}
}
