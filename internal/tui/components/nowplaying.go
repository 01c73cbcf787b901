package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/tessro/finch/internal/core"
	"github.com/tessro/finch/internal/trickplay"
	"github.com/tessro/finch/internal/tui/styles"
)

// PlayerInfo is everything the now playing panel draws.
type PlayerInfo struct {
	Session   *core.PlaybackSession
	Position  core.Position
	Duration  core.Ticks
	Percent   float64
	Seeking   bool
	Buffering bool
	Controls  bool
	Preview   *trickplay.Tile
	Segment   *core.Segment
}

// NowPlaying displays the active session
type NowPlaying struct{}

// NewNowPlaying creates a new NowPlaying component
func NewNowPlaying() *NowPlaying {
	return &NowPlaying{}
}

// Render renders the now playing panel
func (n *NowPlaying) Render(info PlayerInfo, width, height int, focused bool) string {
	title := styles.PanelTitle("Now Playing", focused)

	var content string
	if !info.Session.Active() {
		content = styles.Muted.Render("Nothing playing")
	} else {
		content = n.renderSession(info, width-4)
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

func (n *NowPlaying) renderSession(info PlayerInfo, width int) string {
	sess := info.Session
	item := sess.Item

	icon := styles.StatusIcon(sess.IsPlaying, info.Buffering || sess.IsBuffering)
	title := styles.Title.Width(max(width-4, 1)).Render(item.DisplayName())

	var meta []string
	if item.ProductionYear > 0 {
		meta = append(meta, fmt.Sprintf("%d", item.ProductionYear))
	}
	if sess.PlayMethod != "" {
		meta = append(meta, string(sess.PlayMethod))
	}
	if sess.ServerSessionID == "" {
		meta = append(meta, "forced")
	}
	subtitle := styles.Subtitle.Render(strings.Join(meta, " · "))

	barWidth := width - 20
	if barWidth < 10 {
		barWidth = 10
	}
	marker := ""
	if info.Seeking {
		marker = "◆"
	}
	bar := styles.ProgressBar(info.Percent, barWidth, marker)
	progress := fmt.Sprintf("%s %s %s", FormatPosition(info.Position), bar, FormatTicks(info.Duration))

	lines := []string{
		icon + " " + title,
		"  " + subtitle,
		"",
		progress,
	}

	if info.Seeking && info.Preview != nil {
		p := info.Preview
		lines = append(lines, styles.Dim.Render(fmt.Sprintf(
			"  preview #%d  sheet %d  @%d,%d  %dx%d", p.Index, p.Sheet, p.X, p.Y, p.W, p.H)))
	}

	if info.Segment != nil {
		lines = append(lines, styles.Highlight.Render("  s: skip "+segmentLabel(info.Segment.Type)))
	}

	lines = append(lines, "", n.renderVolume(sess))
	if info.Controls {
		lines = append(lines, n.renderControls(sess))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (n *NowPlaying) renderVolume(sess *core.PlaybackSession) string {
	if sess.Muted || sess.Volume == 0 {
		return styles.Muted.Render("🔇 muted")
	}
	return styles.Muted.Render(fmt.Sprintf("🔊 %d%%", sess.Volume))
}

func (n *NowPlaying) renderControls(sess *core.PlaybackSession) string {
	controls := styles.Dim.Render("⏮ ")

	if sess.IsPlaying {
		controls += styles.Playing.Render("⏸")
	} else {
		controls += styles.Paused.Render("▶")
	}

	controls += styles.Dim.Render(" ⏭")

	return lipgloss.NewStyle().
		Align(lipgloss.Center).
		Render(controls)
}

func segmentLabel(t core.SegmentType) string {
	switch t {
	case core.SegmentIntro:
		return "intro"
	case core.SegmentOutro:
		return "credits"
	case core.SegmentRecap:
		return "recap"
	case core.SegmentPreview:
		return "preview"
	default:
		return strings.ToLower(string(t))
	}
}

// FormatPosition renders a position, "--:--" when unknown.
func FormatPosition(p core.Position) string {
	if !p.Known {
		return "--:--"
	}
	return FormatTicks(p.Ticks)
}

// FormatTicks renders ticks as m:ss or h:mm:ss.
func FormatTicks(t core.Ticks) string {
	total := int64(t.Duration().Seconds())
	if total < 0 {
		total = 0
	}
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
