// Package settings stores user preferences that change at runtime, as
// opposed to the hand-edited config file.
package settings

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Keys used by the typed helpers.
const (
	KeyDeviceID         = "device_id"
	KeyVolume           = "volume"
	KeyAudioLanguage    = "audio_language"
	KeySubtitleLanguage = "subtitle_language"
	KeyForceDirectPlay  = "force_direct_play"
	KeyMaxBitrate       = "max_bitrate"
)

// ErrNotFound is returned by Get for a missing key.
var ErrNotFound = errors.New("setting not found")

// Store is a key/value table in the local database.
type Store struct {
	db *sql.DB
}

// New creates the settings table if needed.
func New(db *sql.DB) (*Store, error) {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("create settings table: %w", err)
	}
	return &Store{db: db}, nil
}

// Get returns the value for key, or ErrNotFound.
func (s *Store) Get(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// Set stores value under key.
func (s *Store) Set(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value, time.Now().Unix())
	return err
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM settings WHERE key = ?`, key)
	return err
}

// All returns every setting.
func (s *Store) All() (map[string]string, error) {
	rows, err := s.db.Query(`SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

// DeviceID returns the persisted device id, generating one on first use.
func (s *Store) DeviceID() (string, error) {
	id, err := s.Get(KeyDeviceID)
	if err == nil && id != "" {
		return id, nil
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		return "", err
	}
	id = uuid.NewString()
	if err := s.Set(KeyDeviceID, id); err != nil {
		return "", err
	}
	return id, nil
}

// Volume returns the last volume, or fallback when none is saved.
func (s *Store) Volume(fallback int) int {
	return s.intOr(KeyVolume, fallback)
}

// SetVolume saves the volume.
func (s *Store) SetVolume(v int) error {
	return s.Set(KeyVolume, strconv.Itoa(v))
}

// AudioLanguage returns the preferred audio language.
func (s *Store) AudioLanguage() string {
	v, _ := s.Get(KeyAudioLanguage)
	return v
}

// SubtitleLanguage returns the preferred subtitle language.
func (s *Store) SubtitleLanguage() string {
	v, _ := s.Get(KeySubtitleLanguage)
	return v
}

// ForceDirectPlay reports whether negotiation should be skipped by default.
func (s *Store) ForceDirectPlay() bool {
	v, err := s.Get(KeyForceDirectPlay)
	if err != nil {
		return false
	}
	b, _ := strconv.ParseBool(v)
	return b
}

// MaxBitrate returns the saved bitrate cap, or fallback.
func (s *Store) MaxBitrate(fallback int) int {
	return s.intOr(KeyMaxBitrate, fallback)
}

func (s *Store) intOr(key string, fallback int) int {
	v, err := s.Get(key)
	if err != nil {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// Validate checks a value before it is stored under a known key.
func Validate(key, value string) error {
	switch key {
	case KeyVolume:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 || n > 100 {
			return fmt.Errorf("%s must be between 0 and 100", key)
		}
	case KeyMaxBitrate:
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("%s must be a positive number of bits per second", key)
		}
	case KeyForceDirectPlay:
		if _, err := strconv.ParseBool(value); err != nil {
			return fmt.Errorf("%s must be true or false", key)
		}
	case KeyDeviceID:
		if _, err := uuid.Parse(value); err != nil {
			return fmt.Errorf("%s must be a UUID", key)
		}
	}
	return nil
}
