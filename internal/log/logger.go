// Package log provides structured logging for finch.
package log

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// Config captures options for configuring the global logger.
type Config struct {
	Level   string    // optional log level ("debug", "info", etc.)
	Output  io.Writer // optional writer (defaults to os.Stderr)
	Console bool      // human-readable output instead of JSON
}

var (
	mu   sync.Mutex
	once sync.Once
	base = zerolog.New(io.Discard)
)

// Configure initialises the global logger. Only the first call takes effect.
func Configure(cfg Config) {
	once.Do(func() {
		level := zerolog.WarnLevel
		if cfg.Level != "" {
			if parsed, err := zerolog.ParseLevel(cfg.Level); err == nil {
				level = parsed
			}
		} else if env := os.Getenv("FINCH_LOG_LEVEL"); env != "" {
			if parsed, err := zerolog.ParseLevel(env); err == nil {
				level = parsed
			}
		}
		zerolog.SetGlobalLevel(level)
		zerolog.TimeFieldFormat = time.RFC3339

		writer := cfg.Output
		if writer == nil {
			writer = os.Stderr
			if term.IsTerminal(int(os.Stderr.Fd())) {
				cfg.Console = true
			}
		}
		if cfg.Console {
			writer = zerolog.ConsoleWriter{Out: writer, TimeFormat: time.Kitchen}
		}

		mu.Lock()
		base = zerolog.New(writer).With().Timestamp().Logger()
		mu.Unlock()
	})
}

// Base returns the configured base logger. Before Configure it discards output.
func Base() zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return base
}

// WithComponent returns a child logger annotated with the given component name.
func WithComponent(component string) zerolog.Logger {
	return Base().With().Str("component", component).Logger()
}

// Derive attaches arbitrary fields to a child logger using the provided builder function.
func Derive(build func(*zerolog.Context)) zerolog.Logger {
	ctx := Base().With()
	if build != nil {
		build(&ctx)
	}
	return ctx.Logger()
}

type ctxKey string

const playSessionKey ctxKey = "play_session_id"

// ContextWithPlaySession stores the server play session id in ctx.
func ContextWithPlaySession(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, playSessionKey, id)
}

// PlaySessionFromContext extracts the play session id, if present.
func PlaySessionFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(playSessionKey).(string); ok {
		return v
	}
	return ""
}

// WithContext enriches the logger with fields carried by ctx.
func WithContext(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	if id := PlaySessionFromContext(ctx); id != "" {
		return logger.With().Str("play_session_id", id).Logger()
	}
	return logger
}
