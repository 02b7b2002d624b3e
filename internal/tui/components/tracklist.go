package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/encore/internal/core"
	"github.com/tessro/encore/internal/tui/styles"
)

// TrackList is a scrollable, selectable list of catalog results. Rows
// holding the current track are highlighted.
type TrackList struct {
	title    string
	items    []core.SearchResult
	offset   int
	selected int
}

// NewTrackList creates a new TrackList component
func NewTrackList(title string) *TrackList {
	return &TrackList{title: title}
}

// SetItems replaces the list contents and resets the selection.
func (l *TrackList) SetItems(title string, items []core.SearchResult) {
	l.title = title
	l.items = items
	l.offset = 0
	l.selected = 0
}

// Title returns the panel title.
func (l *TrackList) Title() string {
	return l.title
}

// Len returns the number of items.
func (l *TrackList) Len() int {
	return len(l.items)
}

// MoveDown moves the selection down
func (l *TrackList) MoveDown() {
	if l.selected < len(l.items)-1 {
		l.selected++
	}
}

// MoveUp moves the selection up
func (l *TrackList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// Selected returns the selected item, if any.
func (l *TrackList) Selected() (core.SearchResult, bool) {
	if l.selected < 0 || l.selected >= len(l.items) {
		return core.SearchResult{}, false
	}
	return l.items[l.selected], true
}

// Render renders the list panel
func (l *TrackList) Render(current *core.Track, width, height int, focused bool) string {
	title := styles.PanelTitle(l.title, focused)

	var content string
	if len(l.items) == 0 {
		content = styles.Muted.Render("Nothing here")
	} else {
		content = l.renderItems(current, width-4, height-4, focused)
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

func (l *TrackList) renderItems(current *core.Track, width, maxLines int, focused bool) string {
	visible := maxLines - 1 // room for the "more" line
	if visible < 1 {
		visible = 1
	}

	// Keep the selection on screen
	if l.selected < l.offset {
		l.offset = l.selected
	}
	if l.selected >= l.offset+visible {
		l.offset = l.selected - visible + 1
	}

	end := l.offset + visible
	if end > len(l.items) {
		end = len(l.items)
	}

	lines := make([]string, 0, end-l.offset+1)

	// "XX. " (4) + marker (2) + " — " (3)
	const overhead = 9

	for i := l.offset; i < end; i++ {
		item := l.items[i]
		num := fmt.Sprintf("%2d.", i+1)

		available := width - overhead
		subSpace := available / 3
		if subSpace < 8 {
			subSpace = 8
		}
		if n := len([]rune(item.Subtitle)); n < subSpace {
			subSpace = n
		}
		name := styles.Truncate(item.Title, available-subSpace)
		sub := styles.Truncate(item.Subtitle, subSpace)
		if item.Kind != core.SearchTracks {
			name = styles.Truncate(fmt.Sprintf("[%s] %s", kindLabel(item.Kind), item.Title), available-subSpace)
		}

		var line string
		switch {
		case item.Track != nil && item.Track.SameAs(current):
			line = styles.Playing.Render(fmt.Sprintf("%s ▶ %s — %s", num, name, sub))
		default:
			line = fmt.Sprintf("%s   %s — %s", styles.Dim.Render(num), name, styles.Muted.Render(sub))
		}
		if i == l.selected && focused {
			line = styles.Selected.Render(line)
		}
		lines = append(lines, line)
	}

	if end < len(l.items) {
		lines = append(lines, styles.Dim.Render(fmt.Sprintf("    ... and %d more", len(l.items)-end)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func kindLabel(k core.SearchKind) string {
	switch k {
	case core.SearchArtists:
		return "artist"
	case core.SearchAlbums:
		return "album"
	default:
		return "track"
	}
}
