package auth

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestStorage(t *testing.T) {
	tmpDir := t.TempDir()
	credPath := filepath.Join(tmpDir, "credentials.json")

	storage, err := NewStorage(credPath)
	if err != nil {
		t.Fatalf("NewStorage() error = %v", err)
	}

	// Initially should not exist
	if storage.Exists() {
		t.Error("Exists() = true, want false for new storage")
	}

	// Load should return nil for missing credentials
	creds, err := storage.Load()
	if err != nil {
		t.Errorf("Load() error = %v", err)
	}
	if creds != nil {
		t.Error("Load() should return nil for missing credentials")
	}

	testCreds := &Credentials{
		ServerURL:   "http://media.local:8096",
		UserID:      "user-1",
		UserName:    "alice",
		AccessToken: "token_123",
		DeviceID:    "device-1",
		SavedAt:     time.Now(),
	}

	if err := storage.Save(testCreds); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if !storage.Exists() {
		t.Error("Exists() = false after save, want true")
	}

	loaded, err := storage.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.AccessToken != testCreds.AccessToken {
		t.Errorf("AccessToken = %q, want %q", loaded.AccessToken, testCreds.AccessToken)
	}
	if !loaded.Valid() {
		t.Error("Valid() = false for complete credentials")
	}

	// Verify file permissions
	info, err := os.Stat(credPath)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		t.Errorf("File permissions = %o, want 0600", mode)
	}

	if err := storage.Delete(); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if storage.Exists() {
		t.Error("Exists() = true after delete, want false")
	}
}

func TestStorageNestedDirectory(t *testing.T) {
	credPath := filepath.Join(t.TempDir(), "nested", "dir", "credentials.json")

	storage, err := NewStorage(credPath)
	if err != nil {
		t.Fatalf("NewStorage() error = %v", err)
	}
	if err := storage.Save(&Credentials{AccessToken: "test"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !storage.Exists() {
		t.Error("credentials file not created in nested directory")
	}
}

func TestStorageDeleteNonExistent(t *testing.T) {
	storage, err := NewStorage(filepath.Join(t.TempDir(), "nonexistent.json"))
	if err != nil {
		t.Fatalf("NewStorage() error = %v", err)
	}
	if err := storage.Delete(); err != nil {
		t.Errorf("Delete() on non-existent file error = %v", err)
	}
}

func TestStoragePath(t *testing.T) {
	path := "/custom/path/credentials.json"
	storage, err := NewStorage(path)
	if err != nil {
		t.Fatalf("NewStorage() error = %v", err)
	}
	if storage.Path() != path {
		t.Errorf("Path() = %q, want %q", storage.Path(), path)
	}
}
