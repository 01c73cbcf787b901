package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tessro/finch/internal/core"
	"github.com/tessro/finch/internal/log"
)

// SessionSource exposes the active playback session.
type SessionSource interface {
	Session() *core.PlaybackSession
}

// StatusSource exposes the channel's connection state.
type StatusSource interface {
	Status() Status
}

type health struct {
	Status  string `json:"status"`
	Channel string `json:"channel"`
}

// NewRouter serves /metrics, /healthz and /session.
func NewRouter(sessions SessionSource, channel StatusSource) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", promhttp.Handler())

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		h := health{Status: "ok", Channel: channel.Status().String()}
		code := http.StatusOK
		if channel.Status() == StatusDisconnected {
			h.Status = "degraded"
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, h)
	})

	r.Get("/session", func(w http.ResponseWriter, _ *http.Request) {
		sess := sessions.Session()
		if sess == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, sess)
	})

	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Serve runs handler on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return serveListener(ctx, ln, handler)
}

func serveListener(ctx context.Context, ln net.Listener, handler http.Handler) error {
	logger := log.WithComponent("remote")
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	logger.Info().Str("addr", ln.Addr().String()).Msg("metrics endpoint listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
