package remote

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessro/finch/internal/core"
)

type stubSessions struct{ sess *core.PlaybackSession }

func (s stubSessions) Session() *core.PlaybackSession { return s.sess }

type stubStatus Status

func (s stubStatus) Status() Status { return Status(s) }

func TestRouterHealthz(t *testing.T) {
	tests := []struct {
		status   Status
		wantCode int
		wantBody string
	}{
		{StatusConnected, http.StatusOK, "connected"},
		{StatusIdle, http.StatusOK, "idle"},
		{StatusDisconnected, http.StatusServiceUnavailable, "disconnected"},
	}
	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			r := NewRouter(stubSessions{}, stubStatus(tt.status))
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			var h health
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &h))
			assert.Equal(t, tt.wantBody, h.Channel)
		})
	}
}

func TestRouterSession(t *testing.T) {
	r := NewRouter(stubSessions{}, stubStatus(StatusIdle))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/session", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	sess := &core.PlaybackSession{
		Item:            &core.MediaItem{ID: "m1", Name: "Heat"},
		ServerSessionID: "ps1",
		Position:        core.At(3 * core.TicksPerSecond),
	}
	r = NewRouter(stubSessions{sess: sess}, stubStatus(StatusConnected))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/session", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got core.PlaybackSession
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "ps1", got.ServerSessionID)
	assert.Equal(t, "m1", got.Item.ID)
}

func TestRouterMetrics(t *testing.T) {
	require.NoError(t, Dispatch(context.Background(), &recordingHandler{}, Command{Kind: KindMute}))

	r := NewRouter(stubSessions{}, stubStatus(StatusIdle))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `finch_remote_commands_total{command="Mute"}`))
}

func TestServeShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- serveListener(ctx, ln, NewRouter(stubSessions{}, stubStatus(StatusIdle)))
	}()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	require.Eventually(t, func() bool {
		resp, err := client.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
