package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/tessro/finch/internal/core"
	"github.com/tessro/finch/internal/tui/styles"
)

// History displays recently stopped sessions
type History struct{}

// NewHistory creates a new History component
func NewHistory() *History {
	return &History{}
}

// Render renders the history panel
func (h *History) Render(entries []core.HistoryEntry, width, height int, focused bool) string {
	title := styles.PanelTitle("History", focused)

	var content string
	if len(entries) == 0 {
		content = styles.Muted.Render("No history yet")
	} else {
		content = h.renderHistory(entries, width-4, height-4)
	}

	panel := styles.Panel(focused).
		Width(width).
		Height(height)

	return panel.Render(lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		content,
	))
}

func (h *History) renderHistory(entries []core.HistoryEntry, width, maxLines int) string {
	lines := make([]string, 0, maxLines)

	for _, entry := range entries {
		if len(lines) >= maxLines {
			break
		}
		if entry.Item == nil {
			continue
		}

		ago := formatTimeAgo(entry.PlayedAt)
		stopped := FormatPosition(entry.Position)

		// icon + spaces + stop position + age
		available := width - 4 - len(stopped) - len(ago)
		name := truncate(entry.Item.DisplayName(), available)

		padding := width - 2 - lipgloss.Width(name) - 1 - len(stopped) - 1 - len(ago)
		if padding < 1 {
			padding = 1
		}

		line := fmt.Sprintf("%s %s%*s%s %s",
			styles.TypeIcon(string(entry.Item.Type)),
			name,
			padding, "",
			styles.Dim.Render(stopped),
			styles.Dim.Render(ago))
		lines = append(lines, line)
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func formatTimeAgo(t time.Time) string {
	if time.Since(t) < time.Minute {
		return "now"
	}
	return humanize.Time(t)
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
