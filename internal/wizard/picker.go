package wizard

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/tessro/finch/internal/core"
	"github.com/tessro/finch/internal/tui/styles"
)

// Option is one row of a picker.
type Option struct {
	Label  string
	Detail string
	Active bool
}

// SessionOption describes a remote session for the picker.
func SessionOption(s core.RemoteSession) Option {
	detail := s.Client
	if s.UserName != "" {
		detail += " - " + s.UserName
	}
	if s.NowPlaying != nil {
		detail += " - " + s.NowPlaying.DisplayName()
	}
	return Option{Label: s.DeviceName, Detail: detail, Active: s.IsPlaying()}
}

// SourceOption describes a media source for the picker.
func SourceOption(src core.MediaSource) Option {
	label := src.Name
	if label == "" {
		label = src.ID
	}
	var detail []string
	if src.Container != "" {
		detail = append(detail, src.Container)
	}
	if src.Size > 0 {
		detail = append(detail, humanize.IBytes(uint64(src.Size)))
	}
	if src.Bitrate > 0 {
		detail = append(detail, fmt.Sprintf("%.1f Mbps", float64(src.Bitrate)/1_000_000))
	}
	return Option{Label: label, Detail: strings.Join(detail, ", "), Active: src.SupportsDirectPlay}
}

// PickerModel is the bubbletea model for a single-choice list.
type PickerModel struct {
	title    string
	options  []Option
	cursor   int
	selected int
	width    int
	height   int
}

// Styles for the picker
var (
	pickerTitleStyle = styles.Highlight

	pickerItemStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	pickerSelectedStyle = lipgloss.NewStyle().
				PaddingLeft(2).
				Background(styles.Surface)

	pickerActiveStyle   = styles.Playing
	pickerInactiveStyle = styles.Dim
	pickerDetailStyle   = styles.Muted
)

// NewPickerModel creates a new picker model.
func NewPickerModel(title string, options []Option) PickerModel {
	return PickerModel{
		title:    title,
		options:  options,
		selected: -1,
		width:    80,
		height:   20,
	}
}

// Init initializes the model.
func (m PickerModel) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			return m, tea.Quit

		case "enter", " ":
			if len(m.options) > 0 && m.cursor < len(m.options) {
				m.selected = m.cursor
				return m, tea.Quit
			}

		case "up", "k", "ctrl+p":
			if m.cursor > 0 {
				m.cursor--
			}

		case "down", "j", "ctrl+n":
			if m.cursor < len(m.options)-1 {
				m.cursor++
			}

		case "home", "g":
			m.cursor = 0

		case "end", "G":
			m.cursor = len(m.options) - 1
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	return m, nil
}

// View renders the model.
func (m PickerModel) View() string {
	var b strings.Builder

	b.WriteString(pickerTitleStyle.Render(m.title))
	b.WriteString("\n\n")

	if len(m.options) == 0 {
		b.WriteString(pickerInactiveStyle.Render("Nothing to choose from"))
		b.WriteString("\n")
	}

	for i, opt := range m.options {
		var line strings.Builder

		if opt.Active {
			line.WriteString(pickerActiveStyle.Render("● "))
		} else {
			line.WriteString(pickerInactiveStyle.Render("○ "))
		}

		line.WriteString(opt.Label)

		if opt.Detail != "" {
			line.WriteString(" " + pickerDetailStyle.Render("("+opt.Detail+")"))
		}

		if i == m.cursor {
			b.WriteString(pickerSelectedStyle.Render("▸ " + line.String()))
		} else {
			b.WriteString(pickerItemStyle.Render("  " + line.String()))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(pickerDetailStyle.Render("↑/↓ navigate • enter select • esc quit"))

	return b.String()
}

// Selected returns the chosen index, or -1 if cancelled.
func (m PickerModel) Selected() int {
	return m.selected
}

// RunPicker shows the picker and returns the chosen index, -1 if cancelled.
func RunPicker(title string, options []Option) (int, error) {
	model := NewPickerModel(title, options)
	p := tea.NewProgram(model, tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return -1, err
	}
	return finalModel.(PickerModel).Selected(), nil
}
