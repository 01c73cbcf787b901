package styles

import (
	"strings"

	catppuccin "github.com/catppuccin/go"
	"github.com/charmbracelet/lipgloss"
)

// Palette follows catppuccin: Latte on light terminals, Mocha on dark ones.
var (
	light = catppuccin.Latte
	dark  = catppuccin.Mocha

	Primary   = adaptive(light.Mauve(), dark.Mauve())
	Secondary = adaptive(light.Teal(), dark.Teal())
	Accent    = adaptive(light.Peach(), dark.Peach())

	Success = adaptive(light.Green(), dark.Green())
	Warning = adaptive(light.Yellow(), dark.Yellow())
	Error   = adaptive(light.Red(), dark.Red())
	Info    = adaptive(light.Blue(), dark.Blue())

	Surface   = adaptive(light.Surface0(), dark.Surface0())
	Border    = adaptive(light.Overlay0(), dark.Overlay0())
	Text      = adaptive(light.Text(), dark.Text())
	TextMuted = adaptive(light.Subtext0(), dark.Subtext0())
	TextDim   = adaptive(light.Overlay1(), dark.Overlay1())
)

func adaptive(l, d catppuccin.Color) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: l.Hex, Dark: d.Hex}
}

// Text styles
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Text)

	Subtitle = lipgloss.NewStyle().
			Foreground(TextMuted)

	Label = lipgloss.NewStyle().
		Foreground(TextDim)

	Highlight = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary)

	Muted = lipgloss.NewStyle().
		Foreground(TextMuted)

	Dim = lipgloss.NewStyle().
		Foreground(TextDim)

	Playing = lipgloss.NewStyle().
		Foreground(Success)

	Paused = lipgloss.NewStyle().
		Foreground(Warning)

	Failed = lipgloss.NewStyle().
		Foreground(Error)

	Selected = lipgloss.NewStyle().
			Background(Surface)
)

// Border styles
var (
	BorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Border)

	FocusedBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary)

	AlertBorder = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(Error)
)

// Panel returns the frame style for a panel.
func Panel(focused bool) lipgloss.Style {
	if focused {
		return FocusedBorder.Padding(0, 1)
	}
	return BorderStyle.Padding(0, 1)
}

// PanelTitle creates a styled panel title
func PanelTitle(title string, focused bool) string {
	style := Label
	if focused {
		style = Highlight
	}
	return style.Render(" " + title + " ")
}

// ProgressBar renders a bar with the head at percent. marker, when
// non-empty, replaces the head glyph (used while scrubbing).
func ProgressBar(percent float64, width int, marker string) string {
	filled := int(percent / 100 * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	filledStyle := lipgloss.NewStyle().Foreground(Primary)
	emptyStyle := lipgloss.NewStyle().Foreground(Border)

	if marker == "" || filled == width {
		return filledStyle.Render(strings.Repeat("━", filled)) +
			emptyStyle.Render(strings.Repeat("─", width-filled))
	}
	return filledStyle.Render(strings.Repeat("━", filled)) +
		Highlight.Render(marker) +
		emptyStyle.Render(strings.Repeat("─", width-filled-1))
}

// StatusIcon returns an icon for playback status
func StatusIcon(playing, buffering bool) string {
	switch {
	case buffering:
		return lipgloss.NewStyle().Foreground(Info).Render("◌")
	case playing:
		return Playing.Render("▶")
	default:
		return Paused.Render("⏸")
	}
}

// TypeIcon returns an icon for an item type.
func TypeIcon(itemType string) string {
	switch itemType {
	case "Movie", "Video":
		return "🎬"
	case "Series", "Season", "Episode":
		return "📺"
	case "Audio", "MusicAlbum", "MusicArtist":
		return "🎵"
	case "AudioBook":
		return "📖"
	case "TvChannel":
		return "📡"
	default:
		return "📁"
	}
}
