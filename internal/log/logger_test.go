package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestPlaySessionContext(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
		id   string
	}{
		{"nil context", nil, "abc"},
		{"background", context.Background(), "def"},
		{"empty id", context.Background(), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := ContextWithPlaySession(tt.ctx, tt.id)
			if got := PlaySessionFromContext(ctx); got != tt.id {
				t.Errorf("PlaySessionFromContext() = %q, want %q", got, tt.id)
			}
		})
	}
}

func TestWithContextAddsField(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	ctx := ContextWithPlaySession(context.Background(), "ps-1")

	l := WithContext(ctx, logger)
	l.Error().Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if entry["play_session_id"] != "ps-1" {
		t.Errorf("play_session_id = %v, want ps-1", entry["play_session_id"])
	}
}

func TestConfigureWritesComponent(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "debug", Output: &buf})

	l := WithComponent("test")
	l.Error().Msg("boom")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if entry["component"] != "test" {
		t.Errorf("component = %v, want test", entry["component"])
	}
}
