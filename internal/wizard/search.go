package wizard

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tessro/finch/internal/core"
	"github.com/tessro/finch/internal/tui/styles"
)

// SearchType represents the type of search to perform.
type SearchType int

const (
	SearchAll SearchType = iota
	SearchMovies
	SearchEpisodes
	SearchMusic

	searchTypeCount = 4
)

var searchTabs = []string{"All", "Movies", "Episodes", "Music"}

// ItemTypes returns the playable server item types a filter covers.
func (t SearchType) ItemTypes() []core.ItemType {
	switch t {
	case SearchMovies:
		return []core.ItemType{core.ItemMovie}
	case SearchEpisodes:
		return []core.ItemType{core.ItemEpisode}
	case SearchMusic:
		return []core.ItemType{core.ItemAudio, core.ItemAudioBook}
	default:
		return []core.ItemType{core.ItemMovie, core.ItemEpisode, core.ItemAudio, core.ItemAudioBook, core.ItemVideo}
	}
}

// SearchFunc is a function that performs a search.
type SearchFunc func(query string, searchType SearchType) ([]core.MediaItem, error)

// SearchModel is the bubbletea model for the search wizard.
type SearchModel struct {
	input      textinput.Model
	results    []core.MediaItem
	cursor     int
	searchType SearchType
	searchFunc SearchFunc
	selected   *core.MediaItem
	err        error
	debounce   time.Duration
	lastQuery  string
	searching  bool
	width      int
	height     int
}

// Styles
var (
	searchTitleStyle = styles.Highlight

	searchTabStyle = lipgloss.NewStyle().
			Padding(0, 2)

	searchActiveTabStyle = lipgloss.NewStyle().
				Padding(0, 2).
				Background(styles.Primary).
				Foreground(styles.Surface)

	searchResultStyle = lipgloss.NewStyle().
				PaddingLeft(2)

	searchSelectedStyle = lipgloss.NewStyle().
				PaddingLeft(2).
				Background(styles.Surface)

	searchSubtitleStyle = styles.Muted
)

// NewSearchModel creates a new search wizard model.
func NewSearchModel(searchFunc SearchFunc) SearchModel {
	ti := textinput.New()
	ti.Placeholder = "Search movies, episodes, music..."
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 50

	return SearchModel{
		input:      ti,
		searchFunc: searchFunc,
		debounce:   300 * time.Millisecond,
		searchType: SearchAll,
		width:      80,
		height:     20,
	}
}

// Init initializes the model.
func (m SearchModel) Init() tea.Cmd {
	return textinput.Blink
}

// debounceMsg is sent after the debounce period.
type debounceMsg struct {
	query string
}

// searchResultsMsg contains search results.
type searchResultsMsg struct {
	results []core.MediaItem
	err     error
}

// Update handles messages.
func (m SearchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "enter":
			if len(m.results) > 0 && m.cursor < len(m.results) {
				m.selected = &m.results[m.cursor]
				return m, tea.Quit
			}

		case "up", "ctrl+p":
			if m.cursor > 0 {
				m.cursor--
			}

		case "down", "ctrl+n":
			if m.cursor < len(m.results)-1 {
				m.cursor++
			}

		case "tab":
			m.searchType = (m.searchType + 1) % searchTypeCount
			if m.input.Value() != "" {
				m.searching = true
				return m, m.doSearch(m.input.Value())
			}

		case "shift+tab":
			m.searchType = (m.searchType + searchTypeCount - 1) % searchTypeCount
			if m.input.Value() != "" {
				m.searching = true
				return m, m.doSearch(m.input.Value())
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = msg.Width - 4

	case debounceMsg:
		if msg.query == m.input.Value() && msg.query != m.lastQuery {
			m.lastQuery = msg.query
			m.searching = true
			return m, m.doSearch(msg.query)
		}

	case searchResultsMsg:
		m.searching = false
		m.results = msg.results
		m.err = msg.err
		m.cursor = 0
	}

	var inputCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	cmds = append(cmds, inputCmd)

	// Debounce search
	if query := m.input.Value(); query != m.lastQuery {
		cmds = append(cmds, tea.Tick(m.debounce, func(time.Time) tea.Msg {
			return debounceMsg{query: query}
		}))
	}

	return m, tea.Batch(cmds...)
}

// doSearch performs the search.
func (m SearchModel) doSearch(query string) tea.Cmd {
	searchType := m.searchType
	return func() tea.Msg {
		if strings.TrimSpace(query) == "" {
			return searchResultsMsg{results: nil}
		}
		results, err := m.searchFunc(query, searchType)
		return searchResultsMsg{results: results, err: err}
	}
}

// View renders the model.
func (m SearchModel) View() string {
	var b strings.Builder

	b.WriteString(searchTitleStyle.Render("🔍 Search"))
	b.WriteString("\n\n")

	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	for i, tab := range searchTabs {
		if SearchType(i) == m.searchType {
			b.WriteString(searchActiveTabStyle.Render(tab))
		} else {
			b.WriteString(searchTabStyle.Render(tab))
		}
	}
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(styles.Failed.Render("Error: " + m.err.Error()))
	case m.searching:
		b.WriteString("Searching...")
	case len(m.results) == 0 && m.input.Value() != "":
		b.WriteString("No results found")
	default:
		maxResults := m.height - 10
		if maxResults < 5 {
			maxResults = 5
		}
		for i, item := range m.results {
			if i >= maxResults {
				b.WriteString(searchSubtitleStyle.Render("  ...and more"))
				break
			}

			line := item.DisplayName()
			if item.ProductionYear > 0 {
				line += " " + searchSubtitleStyle.Render("("+strconv.Itoa(item.ProductionYear)+")")
			}

			if i == m.cursor {
				b.WriteString(searchSelectedStyle.Render("▸ " + line))
			} else {
				b.WriteString(searchResultStyle.Render("  " + line))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(searchSubtitleStyle.Render("↑/↓ navigate • tab switch type • enter select • esc quit"))

	return b.String()
}

// Selected returns the selected item, or nil if none.
func (m SearchModel) Selected() *core.MediaItem {
	return m.selected
}

// RunSearch runs the search wizard and returns the selected item.
func RunSearch(searchFunc SearchFunc) (*core.MediaItem, error) {
	model := NewSearchModel(searchFunc)
	p := tea.NewProgram(model, tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return nil, err
	}
	return finalModel.(SearchModel).Selected(), nil
}
