package tui

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tessro/finch/internal/core"
	"github.com/tessro/finch/internal/tui/components"
	"github.com/tessro/finch/internal/tui/styles"
)

// SearchType filters search results by kind
type SearchType int

const (
	SearchAll SearchType = iota
	SearchMovies
	SearchShows
	SearchEpisodes
	SearchMusic

	searchTypeCount = 5
)

const (
	searchDebounce   = 300 * time.Millisecond
	searchLimit      = 20
	searchMaxResults = 10
)

var searchTabs = []string{"All", "Movies", "Shows", "Episodes", "Music"}

// itemTypes returns the server item types a filter searches.
func (t SearchType) itemTypes() []core.ItemType {
	switch t {
	case SearchMovies:
		return []core.ItemType{core.ItemMovie}
	case SearchShows:
		return []core.ItemType{core.ItemSeries}
	case SearchEpisodes:
		return []core.ItemType{core.ItemEpisode}
	case SearchMusic:
		return []core.ItemType{core.ItemAudio, core.ItemMusicAlbum, core.ItemMusicArtist}
	default:
		return []core.ItemType{
			core.ItemMovie, core.ItemSeries, core.ItemEpisode,
			core.ItemAudio, core.ItemMusicAlbum, core.ItemAudioBook,
		}
	}
}

type searchState struct {
	active     bool
	input      textinput.Model
	results    []core.MediaItem
	cursor     int
	searchType SearchType
	searching  bool
	lastQuery  string
	err        error
}

func (s *searchState) open() {
	s.active = true
	s.input.SetValue("")
	s.input.Focus()
	s.results = nil
	s.cursor = 0
	s.searchType = SearchAll
	s.lastQuery = ""
	s.err = nil
}

func (s *searchState) close() {
	s.active = false
	s.input.Blur()
}

func (s *searchState) selected() *core.MediaItem {
	if s.cursor < 0 || s.cursor >= len(s.results) {
		return nil
	}
	return &s.results[s.cursor]
}

// Search messages
type searchDebounceMsg struct{ query string }
type searchResultsMsg struct {
	results []core.MediaItem
	err     error
}

func (m Model) doSearch(query string) tea.Cmd {
	types := m.search.searchType.itemTypes()
	return func() tea.Msg {
		if strings.TrimSpace(query) == "" {
			return searchResultsMsg{results: nil}
		}

		ctx, cancel := context.WithTimeout(m.ctx, 5*time.Second)
		defer cancel()

		results, err := m.app.Library.Search(ctx, query, types, searchLimit)
		if err != nil {
			return searchResultsMsg{err: err}
		}
		return searchResultsMsg{results: results}
	}
}

func (m Model) handleSearchKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg.String() {
	case "esc":
		m.search.close()
		return m, nil

	case "enter":
		item := m.search.selected()
		if item == nil {
			return m, nil
		}
		m.search.close()
		m.focusedPanel = PanelLibrary
		m.loading = true
		if item.Type.IsPlayable() {
			return m, m.loadDetail(item.ID)
		}
		m.detail = nil
		return m, m.loadChildren(*item)

	case "ctrl+p":
		// play straight from the results
		item := m.search.selected()
		if item == nil || !item.Type.IsPlayable() {
			return m, nil
		}
		m.search.close()
		it := *item
		return m, m.play(playRequest{item: &it, start: it.ResumePosition()})

	case "ctrl+d":
		item := m.search.selected()
		if item == nil || !item.Type.IsPlayable() {
			return m, nil
		}
		it := *item
		return m, m.enqueueDownload(&it)

	case "up":
		if m.search.cursor > 0 {
			m.search.cursor--
		}
		return m, nil

	case "down", "ctrl+n":
		if m.search.cursor < len(m.search.results)-1 {
			m.search.cursor++
		}
		return m, nil

	case "ctrl+t":
		m.search.searchType = (m.search.searchType + 1) % searchTypeCount
		if m.search.input.Value() != "" {
			m.search.searching = true
			return m, m.doSearch(m.search.input.Value())
		}
		return m, nil
	}

	var inputCmd tea.Cmd
	m.search.input, inputCmd = m.search.input.Update(msg)
	cmds = append(cmds, inputCmd)

	// Debounce search
	if query := m.search.input.Value(); query != m.search.lastQuery {
		cmds = append(cmds, tea.Tick(searchDebounce, func(time.Time) tea.Msg {
			return searchDebounceMsg{query: query}
		}))
	}

	return m, tea.Batch(cmds...)
}

func (m Model) renderSearch() string {
	var b strings.Builder

	b.WriteString(styles.Highlight.Render("Search"))
	b.WriteString("\n\n")

	b.WriteString(m.search.input.View())
	b.WriteString("\n\n")

	activeTabStyle := lipgloss.NewStyle().Padding(0, 1).Background(styles.Primary).Foreground(styles.Surface)
	tabStyle := lipgloss.NewStyle().Padding(0, 1).Foreground(styles.TextDim)
	for i, tab := range searchTabs {
		if SearchType(i) == m.search.searchType {
			b.WriteString(activeTabStyle.Render(tab))
		} else {
			b.WriteString(tabStyle.Render(tab))
		}
	}
	b.WriteString("\n\n")

	switch {
	case m.search.err != nil:
		b.WriteString(styles.Failed.Render("Error: " + m.search.err.Error()))
	case m.search.searching:
		b.WriteString(styles.Muted.Render("Searching..."))
	case len(m.search.results) == 0 && m.search.input.Value() != "" && m.search.lastQuery != "":
		b.WriteString(styles.Muted.Render("No results found"))
	default:
		for i, item := range m.search.results {
			if i >= searchMaxResults {
				b.WriteString(styles.Muted.Render("  ...and more"))
				break
			}

			line := styles.TypeIcon(string(item.Type)) + " " + item.DisplayName()
			var extra []string
			if item.ProductionYear > 0 {
				extra = append(extra, strconv.Itoa(item.ProductionYear))
			}
			if item.RunTimeTicks > 0 {
				extra = append(extra, components.FormatTicks(item.RunTimeTicks))
			}
			if len(extra) > 0 {
				line += " " + styles.Muted.Render(strings.Join(extra, " · "))
			}

			if i == m.search.cursor {
				b.WriteString(styles.Selected.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(styles.Muted.Render("Ctrl+t:filter  ↑/↓:nav  Enter:open  Ctrl+p:play  Ctrl+d:download  Esc:close"))

	content := lipgloss.NewStyle().
		Width(64).
		Padding(1, 2).
		Render(b.String())

	return lipgloss.NewStyle().
		Width(m.view.Width).
		Height(m.view.Height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(styles.FocusedBorder.Render(content))
}
