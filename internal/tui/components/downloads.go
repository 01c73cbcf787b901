package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/tessro/finch/internal/downloads"
	"github.com/tessro/finch/internal/tui/styles"
)

// Downloads displays the background download queue
type Downloads struct {
	selected int
}

// NewDownloads creates a new Downloads component
func NewDownloads() *Downloads {
	return &Downloads{}
}

// SelectNext selects the next job
func (d *Downloads) SelectNext() {
	d.selected++
}

// SelectPrev selects the previous job
func (d *Downloads) SelectPrev() {
	if d.selected > 0 {
		d.selected--
	}
}

// Selected returns the selected job index
func (d *Downloads) Selected() int {
	return d.selected
}

// Render renders the downloads panel
func (d *Downloads) Render(jobs []downloads.Job, width, height int, focused bool) string {
	title := styles.PanelTitle("Downloads", focused)

	var content string
	if len(jobs) == 0 {
		content = styles.Muted.Render("No downloads")
	} else {
		content = d.renderJobs(jobs, width-4, height-4, focused)
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

func (d *Downloads) renderJobs(jobs []downloads.Job, width, maxLines int, focused bool) string {
	if d.selected >= len(jobs) {
		d.selected = len(jobs) - 1
	}
	if d.selected < 0 {
		d.selected = 0
	}

	lines := make([]string, 0, len(jobs))

	for i := range jobs {
		job := &jobs[i]

		selector := "  "
		if focused && i == d.selected {
			selector = "▸ "
		}

		name := truncate(job.Name, width-28)
		if focused && i == d.selected {
			name = styles.Highlight.Render(name)
		}

		line := fmt.Sprintf("%s%s %s  %s", selector, statusIcon(job.Status), name, styles.Dim.Render(jobDetail(job)))
		lines = append(lines, line)

		if len(lines) >= maxLines {
			break
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func statusIcon(status string) string {
	switch status {
	case downloads.StatusDownloading:
		return styles.Playing.Render("↓")
	case downloads.StatusCompleted:
		return styles.Playing.Render("✓")
	case downloads.StatusFailed:
		return styles.Failed.Render("✗")
	default:
		return styles.Dim.Render("…")
	}
}

func jobDetail(job *downloads.Job) string {
	switch job.Status {
	case downloads.StatusDownloading:
		if job.Total > 0 {
			return fmt.Sprintf("%.0f%%", job.Percent())
		}
		return job.Describe()
	case downloads.StatusFailed:
		return job.Error
	default:
		return job.Describe()
	}
}
