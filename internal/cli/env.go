package cli

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/tessro/finch/internal/core"
	"github.com/tessro/finch/internal/db"
	finchErrors "github.com/tessro/finch/internal/errors"
	"github.com/tessro/finch/internal/jellyfin/auth"
	"github.com/tessro/finch/internal/jellyfin/client"
	"github.com/tessro/finch/internal/log"
	"github.com/tessro/finch/internal/settings"
	"github.com/tessro/finch/internal/wizard"
)

// env is the local state most commands need: the database, preferences,
// stored credentials and the device identity.
type env struct {
	db       *sql.DB
	settings *settings.Store
	storage  *auth.Storage
	creds    *auth.Credentials
	device   auth.Device
}

func openEnv() (*env, error) {
	conn, err := db.Open("")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	store, err := settings.New(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}

	storage, err := auth.NewStorage("")
	if err != nil {
		conn.Close()
		return nil, err
	}

	creds, err := storage.Load()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("load credentials: %w", err)
	}

	// A logged-in device keeps the id it authenticated with.
	deviceID := ""
	if creds != nil {
		deviceID = creds.DeviceID
	}
	if deviceID == "" {
		if deviceID, err = store.DeviceID(); err != nil {
			conn.Close()
			return nil, err
		}
	}

	return &env{
		db:       conn,
		settings: store,
		storage:  storage,
		creds:    creds,
		device:   auth.NewDevice(deviceName(), deviceID, Version),
	}, nil
}

func (e *env) Close() error {
	return e.db.Close()
}

// client returns an authenticated server client.
func (e *env) client() (*client.Client, error) {
	if !e.creds.Valid() {
		return nil, finchErrors.WithSuggestion(finchErrors.ErrNotAuthenticated, "Run 'finch login' first")
	}
	return client.NewFromCredentials(e.creds, e.device, clientOptions()...), nil
}

func clientOptions() []client.Option {
	return []client.Option{
		client.WithTimeout(time.Duration(cfg.Server.Timeout) * time.Second),
		client.WithMaxRetries(cfg.Server.MaxRetries),
		client.WithCache(cfg.Cache.Size, time.Duration(cfg.Cache.TTL)*time.Second),
		client.WithLogger(log.WithComponent("client")),
	}
}

func deviceName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return auth.ClientName
	}
	return host
}

var itemIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{32}$|^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// isItemID reports whether ref looks like a server item id rather than a title.
func isItemID(ref string) bool {
	return itemIDPattern.MatchString(ref)
}

// itemSearcher is the part of the client item lookup needs.
type itemSearcher interface {
	GetItem(ctx context.Context, id string) (*core.MediaItem, error)
	Search(ctx context.Context, term string, types []core.ItemType, limit int) ([]core.MediaItem, error)
}

// findItem resolves ref to an item: an id is fetched directly, anything else
// is searched by title. With no ref the interactive search wizard is used.
func findItem(ctx context.Context, api itemSearcher, ref string, types []core.ItemType) (*core.MediaItem, error) {
	if ref == "" {
		interactive := wizard.NewInteractive()
		interactive.SetSearchFunc(func(query string, st wizard.SearchType) ([]core.MediaItem, error) {
			return api.Search(ctx, query, st.ItemTypes(), 20)
		})
		item, err := interactive.PromptItem()
		if err != nil {
			return nil, err
		}
		if item == nil {
			return nil, fmt.Errorf("no item given")
		}
		ref = item.ID
	}

	if isItemID(ref) {
		item, err := api.GetItem(ctx, ref)
		if err != nil {
			if client.IsNotFound(err) {
				return nil, fmt.Errorf("%w: %s", finchErrors.ErrItemNotFound, ref)
			}
			return nil, err
		}
		return item, nil
	}

	results, err := api.Search(ctx, ref, types, 1)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	if len(results) == 0 {
		return nil, finchErrors.WithSuggestion(
			fmt.Errorf("%w: %q", finchErrors.ErrItemNotFound, ref),
			"Try 'finch search' to see matching titles",
		)
	}
	// search results carry no media sources
	return api.GetItem(ctx, results[0].ID)
}
