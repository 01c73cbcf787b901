package remote

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessro/finch/internal/jellyfin/auth"
)

type identityLog struct {
	mu   sync.Mutex
	seen [][2]string
}

func (l *identityLog) apply(_ context.Context, deviceID, token string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seen = append(l.seen, [2]string{deviceID, token})
}

func (l *identityLog) last() ([2]string, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.seen) == 0 {
		return [2]string{}, 0
	}
	return l.seen[len(l.seen)-1], len(l.seen)
}

func TestCredentialsWatcherFollowsLoginAndLogout(t *testing.T) {
	storage, err := auth.NewStorage(filepath.Join(t.TempDir(), "finch", "credentials.json"))
	require.NoError(t, err)

	idents := &identityLog{}
	w := NewCredentialsWatcher(storage, idents.apply)
	w.debounce = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Close()

	got, n := idents.last()
	assert.Equal(t, 1, n)
	assert.Equal(t, [2]string{"", ""}, got)

	require.NoError(t, storage.Save(&auth.Credentials{
		ServerURL:   "http://jf.local",
		UserID:      "u1",
		AccessToken: "tok1",
		DeviceID:    "dev1",
	}))
	require.Eventually(t, func() bool {
		got, _ := idents.last()
		return got == [2]string{"dev1", "tok1"}
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, storage.Delete())
	require.Eventually(t, func() bool {
		got, _ := idents.last()
		return got == [2]string{"", ""}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCredentialsWatcherStopsOnCancel(t *testing.T) {
	storage, err := auth.NewStorage(filepath.Join(t.TempDir(), "credentials.json"))
	require.NoError(t, err)

	w := NewCredentialsWatcher(storage, func(context.Context, string, string) {})
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))

	cancel()
	select {
	case <-w.done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
	_ = w.Close()
}
