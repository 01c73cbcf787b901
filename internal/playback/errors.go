package playback

import (
	"errors"
	"fmt"

	finchErrors "github.com/tessro/finch/internal/errors"
)

var (
	// ErrNoSegment is returned by SkipSegment outside any intro or credits.
	ErrNoSegment = errors.New("no skippable segment at current position")
	ErrNoItem    = errors.New("no item to play")
	// ErrQueueEnd and ErrQueueStart are returned by Next and Prev at the
	// ends of the queue.
	ErrQueueEnd   = errors.New("no next item in queue")
	ErrQueueStart = errors.New("no previous item in queue")
)

// NegotiationError is a failure to start playback. ForcePlayable is set
// when retrying with Force might succeed.
type NegotiationError struct {
	ItemID        string
	Stage         string
	Err           error
	ForcePlayable bool
}

func (e *NegotiationError) Error() string {
	return fmt.Sprintf("cannot play %s: %s: %v", e.ItemID, e.Stage, e.Err)
}

func (e *NegotiationError) Unwrap() error {
	return e.Err
}

func negotiationError(itemID, stage string, err error, forced bool) *NegotiationError {
	forceable := errors.Is(err, finchErrors.ErrNoMediaSource) ||
		errors.Is(err, finchErrors.ErrNoSession) ||
		errors.Is(err, finchErrors.ErrNoPlayableURL)
	return &NegotiationError{
		ItemID:        itemID,
		Stage:         stage,
		Err:           err,
		ForcePlayable: forceable && !forced,
	}
}

// IsForcePlayable reports whether err is a negotiation failure that
// forcing direct play could get past.
func IsForcePlayable(err error) bool {
	var ne *NegotiationError
	return errors.As(err, &ne) && ne.ForcePlayable
}
