package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/tessro/encore/internal/core"
	"github.com/tessro/encore/internal/tui/styles"
)

// History displays recently played tracks
type History struct {
	selected int
	now      func() time.Time
}

// NewHistory creates a new History component
func NewHistory() *History {
	return &History{now: time.Now}
}

// MoveDown moves the selection down, bounded by n entries.
func (h *History) MoveDown(n int) {
	if h.selected < n-1 {
		h.selected++
	}
}

// MoveUp moves the selection up
func (h *History) MoveUp() {
	if h.selected > 0 {
		h.selected--
	}
}

// Selected returns the selected entry index.
func (h *History) Selected() int {
	return h.selected
}

// Render renders the history panel
func (h *History) Render(entries []core.HistoryEntry, width, height int, focused bool) string {
	title := styles.PanelTitle("History", focused)

	var content string
	if len(entries) == 0 {
		content = styles.Muted.Render("No history yet")
	} else {
		content = h.renderHistory(entries, width-4, height-4, focused)
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

func (h *History) renderHistory(entries []core.HistoryEntry, width, maxLines int, focused bool) string {
	if h.selected >= len(entries) {
		h.selected = len(entries) - 1
	}
	lines := make([]string, 0, maxLines)
	now := h.now()

	for i, entry := range entries {
		if i >= maxLines {
			break
		}

		ago := FormatTimeAgo(entry.PlayedAt, now)
		available := width - 6 - len(ago)
		artistSpace := available / 3
		if artistSpace < 8 {
			artistSpace = 8
		}
		title := styles.Truncate(entry.Track.Title, available-artistSpace)
		artist := styles.Truncate(entry.Track.Artist, artistSpace)
		info := fmt.Sprintf("%s — %s", title, artist)

		padding := width - 2 - lipgloss.Width(info) - len(ago)
		if padding < 1 {
			padding = 1
		}

		line := fmt.Sprintf("%s %s%s%s",
			styles.Dim.Render("✓"),
			info,
			lipgloss.NewStyle().Width(padding).Render(""),
			styles.Dim.Render(ago))
		if focused && i == h.selected {
			line = styles.Selected.Render(line)
		}
		lines = append(lines, line)
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// FormatTimeAgo renders t relative to now ("now", "3 minutes ago").
func FormatTimeAgo(t, now time.Time) string {
	if now.Sub(t) < time.Minute {
		return "now"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}
