package downloads

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tessro/finch/internal/db"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	conn, err := db.Open(filepath.Join(t.TempDir(), "finch.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	m, err := New(conn)
	require.NoError(t, err)
	return m
}

type fakeSource struct {
	base string
}

func (f fakeSource) DownloadURL(itemID string) string { return f.base + "/Items/" + itemID + "/Download" }
func (f fakeSource) AuthorizationHeader() string       { return `MediaBrowser Token="tok"` }

func newMediaServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		parts := strings.Split(r.URL.Path, "/")
		id := parts[2]
		if id == "missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("contents of " + id))
	}))
	t.Cleanup(func() {
		srv.CloseClientConnections()
		srv.Close()
	})
	return srv
}

func testOptions(opts WorkerOptions) WorkerOptions {
	l := zerolog.Nop()
	opts.Logger = &l
	opts.HTTPClient = &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	return opts
}

func TestEnqueueDeduplicates(t *testing.T) {
	m := newTestManager(t)

	id1, err := m.Enqueue("i1", "Heat", "/tmp/heat.mkv")
	require.NoError(t, err)
	id2, err := m.Enqueue("i1", "Heat", "/tmp/heat.mkv")
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	id3, err := m.Enqueue("i1", "Heat", "/tmp/other.mkv")
	require.NoError(t, err)
	assert.NotEqual(t, id1, id3)

	jobs, err := m.List()
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, StatusPending, jobs[0].Status)
}

func TestGetCancelRemove(t *testing.T) {
	m := newTestManager(t)

	_, err := m.Get(42)
	assert.ErrorIs(t, err, ErrNotFound)

	id, err := m.Enqueue("i1", "Heat", "/tmp/heat.mkv")
	require.NoError(t, err)

	require.NoError(t, m.Cancel(id))
	job, err := m.Get(id)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, job.Status)
	assert.Equal(t, "cancelled", job.Error)

	assert.Error(t, m.Cancel(id))
	assert.ErrorIs(t, m.Cancel(99), ErrNotFound)

	require.NoError(t, m.Retry(id))
	job, err = m.Get(id)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, job.Status)
	assert.Empty(t, job.Error)

	require.NoError(t, m.Remove(id))
	assert.ErrorIs(t, m.Remove(id), ErrNotFound)
}

func TestWorkerDownloadsAllPending(t *testing.T) {
	m := newTestManager(t)
	srv := newMediaServer(t, nil)
	dir := t.TempDir()

	var ids []int64
	for _, item := range []string{"a", "b", "c", "missing"} {
		id, err := m.Enqueue(item, item, filepath.Join(dir, "sub", item+".bin"))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	w := NewWorker(m, fakeSource{base: srv.URL}, testOptions(WorkerOptions{Concurrency: 2}))
	require.NoError(t, w.Run(context.Background()))

	for _, item := range []string{"a", "b", "c"} {
		data, err := os.ReadFile(filepath.Join(dir, "sub", item+".bin"))
		require.NoError(t, err)
		assert.Equal(t, "contents of "+item, string(data))
	}

	jobs, err := m.List()
	require.NoError(t, err)
	require.Len(t, jobs, 4)
	for _, j := range jobs[:3] {
		assert.Equal(t, StatusCompleted, j.Status, j.ItemID)
		assert.Equal(t, int64(len("contents of ")+1), j.Bytes)
		assert.Equal(t, 100.0, j.Percent())
	}
	assert.Equal(t, StatusFailed, jobs[3].Status)
	assert.Contains(t, jobs[3].Error, "404")

	_, err = os.Stat(filepath.Join(dir, "sub", "missing.bin"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestWorkerSkipsCancelled(t *testing.T) {
	m := newTestManager(t)
	var hits atomic.Int32
	srv := newMediaServer(t, &hits)

	id, err := m.Enqueue("a", "a", filepath.Join(t.TempDir(), "a.bin"))
	require.NoError(t, err)
	require.NoError(t, m.Cancel(id))

	w := NewWorker(m, fakeSource{base: srv.URL}, testOptions(WorkerOptions{}))
	require.NoError(t, w.Run(context.Background()))
	assert.Zero(t, hits.Load())
}

func TestWorkerThrottled(t *testing.T) {
	m := newTestManager(t)
	srv := newMediaServer(t, nil)
	path := filepath.Join(t.TempDir(), "a.bin")

	_, err := m.Enqueue("a", "a", path)
	require.NoError(t, err)

	w := NewWorker(m, fakeSource{base: srv.URL}, testOptions(WorkerOptions{RateLimit: 1024}))
	require.NoError(t, w.Run(context.Background()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "contents of a", string(data))
}

func TestWorkerRequeuesOnCancel(t *testing.T) {
	m := newTestManager(t)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("partial"))
		w.(http.Flusher).Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	id, err := m.Enqueue("a", "a", filepath.Join(t.TempDir(), "a.bin"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	w := NewWorker(m, fakeSource{base: srv.URL}, testOptions(WorkerOptions{}))

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		j, err := m.Get(id)
		return err == nil && j.Bytes > 0
	}, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}

	job, err := m.Get(id)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, job.Status)
}

func TestFileName(t *testing.T) {
	tests := []struct {
		name, container, want string
	}{
		{"Heat", "mkv", "Heat.mkv"},
		{"AC/DC: Live", "flac", "AC_DC_ Live.flac"},
		{"movie.mp4", "mov,mp4,m4a", "movie.mp4.mov"},
		{"  ", "", "download"},
		{"clip.MKV", "mkv", "clip.MKV"},
	}
	for _, tt := range tests {
		if got := FileName(tt.name, tt.container); got != tt.want {
			t.Errorf("FileName(%q, %q) = %q, want %q", tt.name, tt.container, got, tt.want)
		}
	}
}

func TestJobDescribe(t *testing.T) {
	j := Job{Bytes: 1536, Total: 4096, UpdatedAt: time.Now()}
	assert.Contains(t, j.Describe(), "1.5 KiB / 4.0 KiB")
	assert.InDelta(t, 37.5, j.Percent(), 0.01)
}
