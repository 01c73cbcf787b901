package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

type statusErr int

func (e statusErr) Error() string   { return fmt.Sprintf("status %d", int(e)) }
func (e statusErr) HTTPStatus() int { return int(e) }

func TestGetSuggestion(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"not authenticated", ErrNotAuthenticated, "finch login"},
		{"wrapped no session", fmt.Errorf("begin: %w", ErrNoSession), "--force"},
		{"no playable url", ErrNoPlayableURL, "--force"},
		{"explicit suggestion", WithSuggestion(errors.New("boom"), "do the thing"), "do the thing"},
		{"status 401", fmt.Errorf("get user: %w", statusErr(401)), "finch login"},
		{"status 404", statusErr(404), "finch search"},
		{"status 503", statusErr(503), "having issues"},
		{"message text", errors.New("dial tcp: connection refused"), "reachable"},
		{"unknown", errors.New("something odd"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GetSuggestion(tt.err)
			if tt.want == "" {
				if got != "" {
					t.Errorf("GetSuggestion() = %q, want empty", got)
				}
				return
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("GetSuggestion() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestWithSuggestionUnwraps(t *testing.T) {
	err := WithSuggestion(ErrNoMediaSource, "pick another source")
	if !errors.Is(err, ErrNoMediaSource) {
		t.Error("errors.Is should see through FinchError")
	}
	if !strings.Contains(Format(err), "Suggestion: pick another source") {
		t.Errorf("Format() = %q", Format(err))
	}
}

func TestPartialResult(t *testing.T) {
	var p PartialResult[int]
	p.AddError(nil)
	if p.HasErrors() {
		t.Fatal("nil error should not be recorded")
	}
	p.AddError(errors.New("a"))
	p.AddError(errors.New("b"))
	if !strings.HasPrefix(p.ErrorSummary(), "2 errors occurred") {
		t.Errorf("ErrorSummary() = %q", p.ErrorSummary())
	}
}
