package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/tessro/finch/internal/core"
	"github.com/tessro/finch/internal/tui/styles"
)

// Library is a scrolling item list with a cursor, plus a detail card for
// a single item.
type Library struct {
	offset   int
	selected int
}

// NewLibrary creates a new Library component
func NewLibrary() *Library {
	return &Library{}
}

// SelectNext moves the cursor down, stopping at the last of n items.
func (l *Library) SelectNext(n int) {
	if l.selected < n-1 {
		l.selected++
	}
}

// SelectPrev moves the cursor up.
func (l *Library) SelectPrev() {
	if l.selected > 0 {
		l.selected--
	}
}

// Selected returns the cursor index.
func (l *Library) Selected() int {
	return l.selected
}

// Select moves the cursor to i.
func (l *Library) Select(i int) {
	if i < 0 {
		i = 0
	}
	l.selected = i
	if l.offset > i {
		l.offset = i
	}
}

// LibraryView is what the library panel draws.
type LibraryView struct {
	Crumbs  []string
	Items   []core.MediaItem
	Detail  *core.MediaItem
	Loading bool
}

// Render renders the library panel
func (l *Library) Render(v LibraryView, width, height int, focused bool) string {
	heading := "Library"
	if len(v.Crumbs) > 0 {
		heading += " › " + strings.Join(v.Crumbs, " › ")
	}
	title := styles.PanelTitle(truncate(heading, width-6), focused)

	var content string
	switch {
	case v.Loading:
		content = styles.Muted.Render("Loading...")
	case v.Detail != nil:
		content = renderDetail(v.Detail, width-4)
	case len(v.Items) == 0:
		content = styles.Muted.Render("Nothing here")
	default:
		content = l.renderItems(v.Items, width-4, height-4, focused)
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

func (l *Library) renderItems(items []core.MediaItem, width, maxLines int, focused bool) string {
	if l.selected >= len(items) {
		l.selected = len(items) - 1
	}
	if l.selected < 0 {
		l.selected = 0
	}

	visible := maxLines - 1 // room for the "more" line
	if visible < 1 {
		visible = 1
	}
	if l.selected < l.offset {
		l.offset = l.selected
	}
	if l.selected >= l.offset+visible {
		l.offset = l.selected - visible + 1
	}

	end := l.offset + visible
	if end > len(items) {
		end = len(items)
	}

	lines := make([]string, 0, end-l.offset+1)
	for i := l.offset; i < end; i++ {
		item := items[i]

		selector := "  "
		if focused && i == l.selected {
			selector = "▸ "
		}

		name := truncate(item.DisplayName(), width-12)
		if focused && i == l.selected {
			name = styles.Highlight.Render(name)
		}

		var suffix string
		switch {
		case item.IsFolder && item.ChildCount > 0:
			suffix = styles.Dim.Render(fmt.Sprintf(" (%d)", item.ChildCount))
		case item.UserData.Played:
			suffix = styles.Playing.Render(" ✓")
		case item.ResumePosition().Known:
			suffix = styles.Paused.Render(" ◐")
		}

		lines = append(lines, fmt.Sprintf("%s%s %s%s", selector, styles.TypeIcon(string(item.Type)), name, suffix))
	}

	if end < len(items) {
		lines = append(lines, styles.Dim.Render(fmt.Sprintf("    ... and %d more", len(items)-end)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderDetail(item *core.MediaItem, width int) string {
	lines := []string{
		styles.TypeIcon(string(item.Type)) + " " + styles.Title.Render(item.DisplayName()),
	}

	var meta []string
	if item.ProductionYear > 0 {
		meta = append(meta, fmt.Sprintf("%d", item.ProductionYear))
	}
	if item.RunTimeTicks > 0 {
		meta = append(meta, FormatTicks(item.RunTimeTicks))
	}
	meta = append(meta, string(item.Type))
	lines = append(lines, styles.Subtitle.Render(strings.Join(meta, " · ")))

	if resume := item.ResumePosition(); resume.Known {
		lines = append(lines, styles.Paused.Render("Resume at "+FormatPosition(resume)))
	}

	if item.Overview != "" {
		lines = append(lines, "", lipgloss.NewStyle().Width(width).Render(item.Overview))
	}

	if len(item.MediaSources) > 1 {
		lines = append(lines, "", styles.Label.Render("Versions"))
		for _, src := range item.MediaSources {
			lines = append(lines, styles.Dim.Render("  "+sourceLabel(src)))
		}
	}

	var cast []string
	for _, p := range item.People {
		if len(cast) == 5 {
			break
		}
		cast = append(cast, p.Name)
	}
	if len(cast) > 0 {
		lines = append(lines, "", styles.Label.Render("With ")+strings.Join(cast, ", "))
	}

	lines = append(lines, "", styles.Dim.Render("enter: play  r: restart  d: download  esc: back"))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func sourceLabel(src core.MediaSource) string {
	name := src.Name
	if name == "" {
		name = src.ID
	}
	if src.Container != "" {
		name += " [" + src.Container + "]"
	}
	return name
}
