package tail

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/tessro/finch/internal/core"
)

// Formatter formats events for output.
type Formatter struct {
	showEmoji     bool
	showTimestamp bool
	template      *template.Template
}

// FormatterOption configures a Formatter.
type FormatterOption func(*Formatter)

// WithEmoji enables emoji output.
func WithEmoji(enabled bool) FormatterOption {
	return func(f *Formatter) {
		f.showEmoji = enabled
	}
}

// WithTimestamp enables timestamp output.
func WithTimestamp(enabled bool) FormatterOption {
	return func(f *Formatter) {
		f.showTimestamp = enabled
	}
}

// WithTemplate sets a custom format template.
func WithTemplate(tmpl string) FormatterOption {
	return func(f *Formatter) {
		if tmpl != "" {
			t, err := template.New("format").Parse(tmpl)
			if err == nil {
				f.template = t
			}
		}
	}
}

// NewFormatter creates a new formatter with the given options.
func NewFormatter(opts ...FormatterOption) *Formatter {
	f := &Formatter{
		showEmoji:     true,
		showTimestamp: false,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format formats an event as a string.
func (f *Formatter) Format(e Event) string {
	if f.template != nil {
		return f.formatTemplate(e)
	}
	return f.formatLine(e)
}

// formatLine formats an event as a simple line.
func (f *Formatter) formatLine(e Event) string {
	var parts []string

	// Timestamp
	if f.showTimestamp {
		parts = append(parts, e.Timestamp.Format("15:04:05"))
	}

	// Emoji
	if f.showEmoji {
		parts = append(parts, eventEmoji(e.Type))
	}

	// Event description
	parts = append(parts, f.eventDescription(e))

	return strings.Join(parts, " ")
}

// formatTemplate formats an event using a custom template.
func (f *Formatter) formatTemplate(e Event) string {
	data := templateData{
		Type:      eventTypeName(e.Type),
		Emoji:     eventEmoji(e.Type),
		Timestamp: e.Timestamp,
		Time:      e.Timestamp.Format("15:04:05"),
	}

	if s := e.Session(); s != nil {
		data.Device = s.DeviceName
		data.User = s.UserName
		data.Volume = s.VolumeLevel
		if s.Position.Known {
			data.Position = formatPosition(s.Position.Duration())
		}
		if s.NowPlaying != nil {
			data.Title = s.NowPlaying.DisplayName()
			data.ItemID = s.NowPlaying.ID
			data.ItemType = string(s.NowPlaying.Type)
		}
	}

	var buf bytes.Buffer
	if err := f.template.Execute(&buf, data); err != nil {
		return f.formatLine(e)
	}
	return buf.String()
}

type templateData struct {
	Type      string
	Emoji     string
	Timestamp time.Time
	Time      string
	Title     string
	ItemID    string
	ItemType  string
	Device    string
	User      string
	Position  string
	Volume    int
}

func itemName(s *core.RemoteSession) string {
	if s == nil || s.NowPlaying == nil {
		return ""
	}
	return s.NowPlaying.DisplayName()
}

func onDevice(s *core.RemoteSession) string {
	if s == nil || s.DeviceName == "" {
		return ""
	}
	return " on " + s.DeviceName
}

func formatPosition(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	sec := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%d:%02d", m, sec)
}

// eventDescription returns a human-readable description of the event.
func (f *Formatter) eventDescription(e Event) string {
	switch e.Type {
	case EventStarted:
		if name := itemName(e.Current); name != "" {
			return fmt.Sprintf("Now playing: %s%s", name, onDevice(e.Current))
		}
		return "Playback started"

	case EventStopped:
		if name := itemName(e.Previous); name != "" {
			return fmt.Sprintf("Stopped: %s%s", name, onDevice(e.Previous))
		}
		return "Playback stopped"

	case EventItemChange:
		if name := itemName(e.Current); name != "" {
			return fmt.Sprintf("Now playing: %s%s", name, onDevice(e.Current))
		}
		return "Item changed"

	case EventPause:
		return "Paused" + onDevice(e.Current)

	case EventResume:
		return "Resumed" + onDevice(e.Current)

	case EventSeek:
		if e.Current != nil && e.Current.Position.Known {
			return fmt.Sprintf("Seeked to %s%s", formatPosition(e.Current.Position.Duration()), onDevice(e.Current))
		}
		return "Seeked"

	case EventVolumeChange:
		if e.Current != nil {
			if e.Current.IsMuted {
				return "Muted" + onDevice(e.Current)
			}
			return fmt.Sprintf("Volume: %d%%%s", e.Current.VolumeLevel, onDevice(e.Current))
		}
		return "Volume changed"

	default:
		return "Unknown event"
	}
}

// eventEmoji returns an emoji for the event type.
func eventEmoji(t EventType) string {
	switch t {
	case EventStarted:
		return "🎬"
	case EventStopped:
		return "⏹️"
	case EventItemChange:
		return "🎵"
	case EventPause:
		return "⏸️"
	case EventResume:
		return "▶️"
	case EventSeek:
		return "⏩"
	case EventVolumeChange:
		return "🔊"
	default:
		return "❓"
	}
}

// eventTypeName returns the name of the event type.
func eventTypeName(t EventType) string {
	switch t {
	case EventStarted:
		return "started"
	case EventStopped:
		return "stopped"
	case EventItemChange:
		return "item_change"
	case EventPause:
		return "pause"
	case EventResume:
		return "resume"
	case EventSeek:
		return "seek"
	case EventVolumeChange:
		return "volume_change"
	default:
		return "unknown"
	}
}
