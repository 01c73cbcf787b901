package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error types for common failure scenarios.
var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNoMediaSource    = errors.New("media source not found in playback info")
	ErrNoSession        = errors.New("server did not return a play session id")
	ErrNoPlayableURL    = errors.New("no playable stream url")
	ErrNoActiveSession  = errors.New("no active playback session")
	ErrItemNotFound     = errors.New("item not found")
	ErrSessionNotFound  = errors.New("session not found")
	ErrServerNotFound   = errors.New("no media server found")
	ErrRateLimited      = errors.New("rate limited")
	ErrNetworkError     = errors.New("network error")
	ErrTimeout          = errors.New("request timeout")
	ErrConfigNotFound   = errors.New("config file not found")
	ErrInvalidConfig    = errors.New("invalid configuration")
)

// FinchError wraps an error with a user-friendly suggestion.
type FinchError struct {
	Err        error
	Suggestion string
}

func (e *FinchError) Error() string {
	return e.Err.Error()
}

func (e *FinchError) Unwrap() error {
	return e.Err
}

// WithSuggestion wraps an error with a helpful suggestion.
func WithSuggestion(err error, suggestion string) error {
	return &FinchError{
		Err:        err,
		Suggestion: suggestion,
	}
}

// statusError is implemented by errors that carry an HTTP status, such as
// the media server client's APIError.
type statusError interface {
	HTTPStatus() int
}

// suggestion maps errors to a hint. Rules are tried in order; the first
// match wins.
type suggestion struct {
	sentinels []error
	statuses  []int
	substrs   []string
	text      string
}

var suggestions = []suggestion{
	{
		sentinels: []error{ErrNotAuthenticated},
		statuses:  []int{401},
		substrs:   []string{"not authenticated", "unauthorized"},
		text:      "Run 'finch login' to sign in to your server",
	},
	{
		sentinels: []error{ErrNoMediaSource, ErrNoSession, ErrNoPlayableURL},
		text:      "Retry with --force to attempt direct play anyway",
	},
	{
		sentinels: []error{ErrNoActiveSession},
		text:      "Start something with 'finch play <item>' first",
	},
	{
		sentinels: []error{ErrItemNotFound},
		statuses:  []int{404},
		text:      "Run 'finch search <query>' to find the item id",
	},
	{
		sentinels: []error{ErrSessionNotFound},
		text:      "Run 'finch sessions' to see active sessions",
	},
	{
		sentinels: []error{ErrServerNotFound},
		text:      "Pass the server address explicitly with 'finch login --server <url>'",
	},
	{
		sentinels: []error{ErrRateLimited},
		statuses:  []int{429},
		substrs:   []string{"rate limit"},
		text:      "Too many requests. Wait a moment and try again",
	},
	{
		sentinels: []error{ErrNetworkError, ErrTimeout},
		substrs:   []string{"network", "timeout", "connection refused", "no such host"},
		text:      "Check that the server is reachable and try again",
	},
	{
		sentinels: []error{ErrConfigNotFound, ErrInvalidConfig},
		text:      "Run 'finch config init' to create a configuration",
	},
	{
		statuses: []int{500, 502, 503, 504},
		text:     "The media server is having issues. Try again in a moment",
	},
}

func (s suggestion) matches(err error, status int, msg string) bool {
	for _, target := range s.sentinels {
		if errors.Is(err, target) {
			return true
		}
	}
	for _, code := range s.statuses {
		if status == code {
			return true
		}
	}
	for _, sub := range s.substrs {
		if strings.Contains(msg, sub) {
			return true
		}
	}
	return false
}

// GetSuggestion returns a suggestion for the given error.
func GetSuggestion(err error) string {
	if err == nil {
		return ""
	}

	var finchErr *FinchError
	if errors.As(err, &finchErr) && finchErr.Suggestion != "" {
		return finchErr.Suggestion
	}

	status := 0
	var se statusError
	if errors.As(err, &se) {
		status = se.HTTPStatus()
	}
	msg := strings.ToLower(err.Error())

	for _, s := range suggestions {
		if s.matches(err, status, msg) {
			return s.text
		}
	}
	return ""
}

// Format returns a formatted error message with suggestion if available.
func Format(err error) string {
	if err == nil {
		return ""
	}

	suggestion := GetSuggestion(err)
	if suggestion != "" {
		return fmt.Sprintf("Error: %s\n\nSuggestion: %s", err.Error(), suggestion)
	}

	return fmt.Sprintf("Error: %s", err.Error())
}

// PartialResult represents a result that may have partial failures.
type PartialResult[T any] struct {
	Data   T
	Errors []error
}

// HasErrors returns true if there were any errors.
func (p *PartialResult[T]) HasErrors() bool {
	return len(p.Errors) > 0
}

// AddError adds an error to the partial result.
func (p *PartialResult[T]) AddError(err error) {
	if err != nil {
		p.Errors = append(p.Errors, err)
	}
}

// ErrorSummary returns a summary of all errors.
func (p *PartialResult[T]) ErrorSummary() string {
	if len(p.Errors) == 0 {
		return ""
	}
	if len(p.Errors) == 1 {
		return p.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d errors occurred:\n", len(p.Errors)))
	for i, err := range p.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}
