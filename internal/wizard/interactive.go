package wizard

import (
	"os"

	"github.com/tessro/finch/internal/core"
	"golang.org/x/term"
)

// Interactive decides when commands may fall back to prompts.
type Interactive struct {
	enabled    bool
	searchFunc SearchFunc
}

// NewInteractive creates a new interactive handler.
func NewInteractive() *Interactive {
	return &Interactive{
		enabled: true,
	}
}

// SetEnabled enables or disables interactive mode.
func (i *Interactive) SetEnabled(enabled bool) {
	i.enabled = enabled
}

// SetSearchFunc sets the search function for the search wizard.
func (i *Interactive) SetSearchFunc(fn SearchFunc) {
	i.searchFunc = fn
}

// IsTerminal returns true if stdout is a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// CanInteract returns true if interactive mode is available.
func (i *Interactive) CanInteract() bool {
	return i.enabled && IsTerminal()
}

// PromptItem launches the search wizard if interactive mode is available.
// Returns the selected item, or nil if cancelled or not interactive.
func (i *Interactive) PromptItem() (*core.MediaItem, error) {
	if !i.CanInteract() || i.searchFunc == nil {
		return nil, nil
	}
	return RunSearch(i.searchFunc)
}

// PromptSession picks one of several remote sessions. A single session is
// returned without asking.
func (i *Interactive) PromptSession(sessions []core.RemoteSession) (*core.RemoteSession, error) {
	if len(sessions) == 1 {
		return &sessions[0], nil
	}
	if !i.CanInteract() || len(sessions) == 0 {
		return nil, nil
	}
	options := make([]Option, len(sessions))
	for n, s := range sessions {
		options[n] = SessionOption(s)
	}
	idx, err := RunPicker("📺 Select Session", options)
	if err != nil || idx < 0 {
		return nil, err
	}
	return &sessions[idx], nil
}

// PromptSource picks a media source when an item has more than one.
// It returns "" to let the server choose.
func (i *Interactive) PromptSource(item *core.MediaItem) (string, error) {
	if item == nil || len(item.MediaSources) < 2 || !i.CanInteract() {
		return "", nil
	}
	options := make([]Option, len(item.MediaSources))
	for n, src := range item.MediaSources {
		options[n] = SourceOption(src)
	}
	idx, err := RunPicker("🎞  Select Version", options)
	if err != nil || idx < 0 {
		return "", err
	}
	return item.MediaSources[idx].ID, nil
}
