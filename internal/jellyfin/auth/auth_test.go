package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestDeviceHeader(t *testing.T) {
	d := Device{Client: "finch", Name: "laptop", ID: "dev-1", Version: "1.0.0"}

	got := d.Header("")
	want := `MediaBrowser Client="finch", Device="laptop", DeviceId="dev-1", Version="1.0.0"`
	if got != want {
		t.Errorf("Header(\"\") = %q, want %q", got, want)
	}

	if withToken := d.Header("abc"); !strings.HasSuffix(withToken, `, Token="abc"`) {
		t.Errorf("Header(abc) = %q, want Token suffix", withToken)
	}
}

func TestNewDeviceGeneratesID(t *testing.T) {
	d := NewDevice("", "", "dev")
	if d.ID == "" {
		t.Fatal("NewDevice should generate an id")
	}
	if d.Client != ClientName || d.Name != ClientName {
		t.Errorf("NewDevice defaults = %+v", d)
	}
	if kept := NewDevice("tv", "fixed", "dev"); kept.ID != "fixed" {
		t.Errorf("ID = %q, want fixed", kept.ID)
	}
}

func TestNormalizeServerURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"media.local:8096", "http://media.local:8096", false},
		{"https://jf.example.com/", "https://jf.example.com", false},
		{"https://jf.example.com/jellyfin/?x=1", "https://jf.example.com/jellyfin", false},
		{"", "", true},
		{"ftp://host", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeServerURL(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormalizeServerURL() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("NormalizeServerURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAuthenticateByName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Users/AuthenticateByName" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if !strings.HasPrefix(r.Header.Get("Authorization"), "MediaBrowser ") {
			t.Errorf("missing MediaBrowser authorization header")
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["Username"] != "alice" || body["Pw"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"User":{"Id":"u1","Name":"alice"},"AccessToken":"tok","ServerId":"srv"}`))
	}))
	defer server.Close()

	device := NewDevice("test", "dev-1", "0.0.1")

	creds, err := AuthenticateByName(context.Background(), server.URL, device, "alice", "secret")
	if err != nil {
		t.Fatalf("AuthenticateByName() error = %v", err)
	}
	if creds.AccessToken != "tok" || creds.UserID != "u1" || creds.ServerID != "srv" {
		t.Errorf("credentials = %+v", creds)
	}
	if creds.ServerURL != server.URL || creds.DeviceID != "dev-1" {
		t.Errorf("ServerURL/DeviceID = %q/%q", creds.ServerURL, creds.DeviceID)
	}

	if _, err := AuthenticateByName(context.Background(), server.URL, device, "alice", "wrong"); err == nil {
		t.Error("expected error for wrong password")
	}
}

func TestQuickConnectWait(t *testing.T) {
	var polls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/QuickConnect/Initiate":
			_, _ = w.Write([]byte(`{"Code":"123456","Secret":"s3cret","Authenticated":false}`))
		case "/QuickConnect/Connect":
			if r.URL.Query().Get("secret") != "s3cret" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			approved := polls.Add(1) >= 2
			_ = json.NewEncoder(w).Encode(map[string]any{"Authenticated": approved})
		case "/Users/AuthenticateWithQuickConnect":
			_, _ = w.Write([]byte(`{"User":{"Id":"u1","Name":"bob"},"AccessToken":"qc-token"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	qc, err := InitiateQuickConnect(ctx, server.URL, NewDevice("test", "dev", "0"))
	if err != nil {
		t.Fatalf("InitiateQuickConnect() error = %v", err)
	}
	if qc.Code != "123456" {
		t.Errorf("Code = %q, want 123456", qc.Code)
	}

	creds, err := qc.Wait(ctx, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if creds.AccessToken != "qc-token" || creds.UserName != "bob" {
		t.Errorf("credentials = %+v", creds)
	}
}

func TestQuickConnectWaitCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Authenticated":false,"Secret":"s","Code":"c"}`))
	}))
	defer server.Close()

	qc, err := InitiateQuickConnect(context.Background(), server.URL, NewDevice("", "", "0"))
	if err != nil {
		t.Fatalf("InitiateQuickConnect() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := qc.Wait(ctx, 10*time.Millisecond); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() error = %v, want DeadlineExceeded", err)
	}
}
