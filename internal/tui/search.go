package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/encore/internal/catalog"
	"github.com/tessro/encore/internal/core"
	"github.com/tessro/encore/internal/tui/styles"
)

var overlayKinds = []core.SearchKind{core.SearchAll, core.SearchTracks, core.SearchArtists, core.SearchAlbums}

// searchOverlay is the "/" search popup. Queries are debounced and results
// for anything but the current input are discarded.
type searchOverlay struct {
	visible bool
	input   textinput.Model
	kind    core.SearchKind

	sent      string // last query handed to the catalog
	searching bool
	results   []core.SearchResult
	err       error
	cursor    int
}

type searchDebounceMsg struct{ query string }

type searchResultsMsg struct {
	query   string
	results []core.SearchResult
	err     error
}

func newSearchOverlay() searchOverlay {
	ti := textinput.New()
	ti.Placeholder = "Search tracks, artists, albums..."
	ti.CharLimit = 100
	ti.Width = 50
	return searchOverlay{input: ti}
}

// open resets the overlay and focuses the input.
func (s *searchOverlay) open() tea.Cmd {
	*s = searchOverlay{visible: true, input: s.input}
	s.input.SetValue("")
	s.input.Focus()
	return textinput.Blink
}

func (s *searchOverlay) close() {
	s.visible = false
	s.input.Blur()
}

// query builds the command that runs q against cat with the current kind.
func (s *searchOverlay) query(cat *catalog.Catalog, q string) tea.Cmd {
	s.sent = q
	s.searching = true
	kind := s.kind
	return func() tea.Msg {
		if q == "" || cat == nil {
			return searchResultsMsg{query: q}
		}
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		results, err := cat.Search(ctx, q, kind, searchLimit)
		return searchResultsMsg{query: q, results: results, err: err}
	}
}

// receive applies a response, ignoring those for a superseded query.
func (s *searchOverlay) receive(msg searchResultsMsg) {
	if msg.query != s.input.Value() {
		return
	}
	s.searching = false
	s.results, s.err = msg.results, msg.err
	s.cursor = 0
}

// debounced starts a query once typing has settled on msg.query.
func (s *searchOverlay) debounced(cat *catalog.Catalog, msg searchDebounceMsg) tea.Cmd {
	if msg.query != s.input.Value() || msg.query == s.sent {
		return nil
	}
	return s.query(cat, msg.query)
}

// key handles a key press. The returned item is non-nil when the user
// chose a result.
func (s *searchOverlay) key(cat *catalog.Catalog, msg tea.KeyMsg) (*core.SearchResult, tea.Cmd) {
	switch msg.String() {
	case "esc":
		s.close()
		return nil, nil
	case "enter":
		if s.cursor < len(s.results) {
			item := s.results[s.cursor]
			s.close()
			return &item, nil
		}
		return nil, nil
	case "up", "ctrl+p":
		if s.cursor > 0 {
			s.cursor--
		}
		return nil, nil
	case "down", "ctrl+n":
		if s.cursor < len(s.results)-1 {
			s.cursor++
		}
		return nil, nil
	case "ctrl+t":
		s.kind = (s.kind + 1) % core.SearchKind(len(overlayKinds))
		if v := s.input.Value(); v != "" {
			return nil, s.query(cat, v)
		}
		return nil, nil
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	q := s.input.Value()
	if q == s.sent {
		return nil, cmd
	}
	return nil, tea.Batch(cmd, tea.Tick(searchDebounce, func(time.Time) tea.Msg {
		return searchDebounceMsg{query: q}
	}))
}

func (s searchOverlay) view(width, height int) string {
	var b strings.Builder

	b.WriteString(styles.Highlight.Render("Search"))
	b.WriteString("\n\n")
	b.WriteString(s.input.View())
	b.WriteString("\n\n")

	on := lipgloss.NewStyle().Padding(0, 1).Background(styles.Primary).Foreground(lipgloss.Color("0"))
	off := lipgloss.NewStyle().Padding(0, 1).Foreground(styles.TextMuted)
	for _, kind := range overlayKinds {
		style := off
		if kind == s.kind {
			style = on
		}
		b.WriteString(style.Render(kind.String()))
	}
	b.WriteString("\n\n")

	switch {
	case s.err != nil:
		b.WriteString(styles.ErrorText.Render("Error: " + s.err.Error()))
	case s.searching:
		b.WriteString(styles.Muted.Render("Searching..."))
	case len(s.results) == 0 && s.sent != "":
		b.WriteString(styles.Muted.Render("No results found"))
	default:
		for i, r := range s.results {
			line := r.Title
			if r.Subtitle != "" {
				line += " " + styles.Muted.Render(r.Subtitle)
			}
			if r.Kind != core.SearchTracks {
				line += styles.Dim.Render(" (" + kindLabel(r.Kind) + ")")
			}
			if i == s.cursor {
				line = styles.Selected.Render("> " + line)
			} else {
				line = "  " + line
			}
			b.WriteString(line + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(styles.Muted.Render("Ctrl+t:filter  ↑/↓:nav  Enter:open  Esc:close"))

	box := styles.FocusedBorder.Render(lipgloss.NewStyle().Width(60).Padding(1, 2).Render(b.String()))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}

func kindLabel(k core.SearchKind) string {
	return strings.TrimSuffix(strings.ToLower(k.String()), "s")
}
