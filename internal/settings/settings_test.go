package settings

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/tessro/finch/internal/db"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	conn, err := db.Open(filepath.Join(t.TempDir(), "finch.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	s, err := New(conn)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestGetSetDelete(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(missing) err = %v, want ErrNotFound", err)
	}

	if err := s.Set("theme", "mocha"); err != nil {
		t.Fatal(err)
	}
	if err := s.Set("theme", "latte"); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get("theme")
	if err != nil || got != "latte" {
		t.Fatalf("Get(theme) = %q, %v", got, err)
	}

	if err := s.Delete("theme"); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete("theme"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if _, err := s.Get("theme"); !errors.Is(err, ErrNotFound) {
		t.Errorf("after delete err = %v", err)
	}
}

func TestAll(t *testing.T) {
	s := newTestStore(t)
	for k, v := range map[string]string{"a": "1", "b": "2"} {
		if err := s.Set(k, v); err != nil {
			t.Fatal(err)
		}
	}
	all, err := s.All()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all["a"] != "1" || all["b"] != "2" {
		t.Errorf("All() = %v", all)
	}
}

func TestDeviceIDIsStable(t *testing.T) {
	s := newTestStore(t)

	first, err := s.DeviceID()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := uuid.Parse(first); err != nil {
		t.Fatalf("device id %q is not a uuid", first)
	}
	second, err := s.DeviceID()
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("device id changed: %s -> %s", first, second)
	}
}

func TestTypedHelpers(t *testing.T) {
	s := newTestStore(t)

	if got := s.Volume(70); got != 70 {
		t.Errorf("Volume fallback = %d", got)
	}
	if err := s.SetVolume(35); err != nil {
		t.Fatal(err)
	}
	if got := s.Volume(70); got != 35 {
		t.Errorf("Volume = %d, want 35", got)
	}

	if s.ForceDirectPlay() {
		t.Error("ForceDirectPlay should default to false")
	}
	_ = s.Set(KeyForceDirectPlay, "true")
	if !s.ForceDirectPlay() {
		t.Error("ForceDirectPlay not read back")
	}

	_ = s.Set(KeyMaxBitrate, "garbage")
	if got := s.MaxBitrate(8_000_000); got != 8_000_000 {
		t.Errorf("MaxBitrate = %d, want fallback", got)
	}

	_ = s.Set(KeyAudioLanguage, "jpn")
	_ = s.Set(KeySubtitleLanguage, "eng")
	if s.AudioLanguage() != "jpn" || s.SubtitleLanguage() != "eng" {
		t.Errorf("languages = %q/%q", s.AudioLanguage(), s.SubtitleLanguage())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		key, value string
		wantErr    bool
	}{
		{KeyVolume, "50", false},
		{KeyVolume, "101", true},
		{KeyVolume, "loud", true},
		{KeyMaxBitrate, "0", true},
		{KeyMaxBitrate, "4000000", false},
		{KeyForceDirectPlay, "yes", true},
		{KeyForceDirectPlay, "false", false},
		{KeyDeviceID, "not-a-uuid", true},
		{"anything", "goes", false},
	}
	for _, tt := range tests {
		err := Validate(tt.key, tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate(%s, %s) err = %v, wantErr %v", tt.key, tt.value, err, tt.wantErr)
		}
	}
}
