package remote

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/tessro/finch/internal/jellyfin/auth"
	"github.com/tessro/finch/internal/log"
)

const defaultWatchDebounce = 200 * time.Millisecond

// IdentityFunc receives the device id and token after a credentials change.
// Both are empty once the user logs out.
type IdentityFunc func(ctx context.Context, deviceID, token string)

// CredentialsWatcher follows the credentials file and reports identity
// changes. The directory is watched because saves replace the file.
type CredentialsWatcher struct {
	storage  *auth.Storage
	apply    IdentityFunc
	debounce time.Duration
	logger   zerolog.Logger

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewCredentialsWatcher creates a watcher over storage's file.
func NewCredentialsWatcher(storage *auth.Storage, apply IdentityFunc) *CredentialsWatcher {
	return &CredentialsWatcher{
		storage:  storage,
		apply:    apply,
		debounce: defaultWatchDebounce,
		logger:   log.WithComponent("remote"),
	}
}

// Start applies the current identity and begins watching. The watch ends
// when ctx is cancelled or Close is called.
func (w *CredentialsWatcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.storage.Path())
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create credentials directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.watcher = watcher
	w.done = make(chan struct{})

	w.reload(ctx)
	go w.loop(ctx)
	return nil
}

// Close stops watching and waits for the loop to exit.
func (w *CredentialsWatcher) Close() error {
	if w.watcher == nil {
		return nil
	}
	err := w.watcher.Close()
	<-w.done
	return err
}

func (w *CredentialsWatcher) loop(ctx context.Context) {
	defer close(w.done)

	name := filepath.Base(w.storage.Path())
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			_ = w.watcher.Close()
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			w.logger.Debug().Str("op", event.Op.String()).Msg("credentials changed")
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.reload(ctx)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("credentials watcher error")
		}
	}
}

func (w *CredentialsWatcher) reload(ctx context.Context) {
	creds, err := w.storage.Load()
	if err != nil {
		w.logger.Warn().Err(err).Msg("reading credentials")
		return
	}
	if creds == nil || !creds.Valid() {
		w.apply(ctx, "", "")
		return
	}
	w.apply(ctx, creds.DeviceID, creds.AccessToken)
}
