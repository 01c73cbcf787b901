package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/tessro/finch/internal/core"
)

// Table provides a simple table formatter.
type Table struct {
	w       *tabwriter.Writer
	headers []string
}

// NewTable creates a new table with the given headers.
func NewTable(headers ...string) *Table {
	return NewTableWriter(os.Stdout, headers...)
}

// NewTableWriter creates a table writing to a specific writer.
func NewTableWriter(out io.Writer, headers ...string) *Table {
	t := &Table{
		w:       tabwriter.NewWriter(out, 0, 0, 2, ' ', 0),
		headers: headers,
	}
	if len(headers) > 0 {
		_, _ = t.w.Write([]byte(strings.Join(headers, "\t") + "\n"))
	}
	return t
}

// Row adds a row to the table.
func (t *Table) Row(values ...string) {
	_, _ = t.w.Write([]byte(strings.Join(values, "\t") + "\n"))
}

// Flush writes the table output.
func (t *Table) Flush() {
	_ = t.w.Flush()
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// StatusIcon returns an icon for the given boolean status.
func StatusIcon(active bool) string {
	if active {
		return "●"
	}
	return "○"
}

// TruncateString truncates a string to maxLen runes, adding "..." if truncated.
func TruncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// FormatDuration formats a duration as m:ss or h:mm:ss.
func FormatDuration(d time.Duration) string {
	seconds := int(d.Round(time.Second) / time.Second)
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60

	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// FormatProgress formats a progress bar for a percentage.
func FormatProgress(percent float64, width int) string {
	filled := int(percent / 100 * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("━", filled) + strings.Repeat("─", width-filled)
}

// typeIcon returns an emoji for an item type.
func typeIcon(t core.ItemType) string {
	switch {
	case t == core.ItemMovie:
		return "🎬"
	case t == core.ItemSeries || t == core.ItemSeason:
		return "📺"
	case t == core.ItemEpisode:
		return "🎞"
	case t == core.ItemPerson:
		return "👤"
	case t.IsAudio() || t == core.ItemMusicAlbum || t == core.ItemMusicArtist:
		return "🎵"
	case t == core.ItemCollectionFolder || t == core.ItemFolder:
		return "📁"
	default:
		return "•"
	}
}

// itemSubtitle returns the year and runtime of an item, if known.
func itemSubtitle(item *core.MediaItem) string {
	var parts []string
	if item.ProductionYear > 0 {
		parts = append(parts, fmt.Sprintf("%d", item.ProductionYear))
	}
	if item.RunTimeTicks > 0 {
		parts = append(parts, FormatDuration(item.Runtime()))
	}
	if item.IsFolder && item.ChildCount > 0 {
		parts = append(parts, fmt.Sprintf("%d items", item.ChildCount))
	}
	return strings.Join(parts, " · ")
}
