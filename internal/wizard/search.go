package wizard

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/encore/internal/core"
	"github.com/tessro/encore/internal/tui/styles"
)

// searchKinds is the tab order of the kind filter.
var searchKinds = []core.SearchKind{core.SearchAll, core.SearchTracks, core.SearchArtists, core.SearchAlbums}

const searchDebounce = 300 * time.Millisecond

// SearchFunc runs one catalog query.
type SearchFunc func(query string, kind core.SearchKind) ([]core.SearchResult, error)

// SearchModel lets the user type a query, filter by kind and pick a result.
type SearchModel struct {
	input  textinput.Model
	search SearchFunc
	kind   core.SearchKind

	// lastQuery is the query most recently sent to search.
	lastQuery string
	searching bool
	results   []core.SearchResult
	err       error

	cursor   int
	offset   int
	selected *core.SearchResult

	width  int
	height int
}

var (
	tabStyle       = lipgloss.NewStyle().Padding(0, 2).Foreground(styles.TextMuted)
	activeTabStyle = lipgloss.NewStyle().Padding(0, 2).Bold(true).Background(styles.Primary).Foreground(lipgloss.Color("0"))
)

// NewSearchModel creates a search wizard backed by search.
func NewSearchModel(search SearchFunc) SearchModel {
	ti := textinput.New()
	ti.Placeholder = "Artist, song or album"
	ti.Prompt = "? "
	ti.CharLimit = 100
	ti.Width = 50
	ti.Focus()

	return SearchModel{
		input:  ti,
		search: search,
		kind:   core.SearchAll,
		width:  80,
		height: 20,
	}
}

// debounceMsg fires once typing has paused on query.
type debounceMsg struct {
	query string
}

// searchResultsMsg carries the response for query.
type searchResultsMsg struct {
	query   string
	results []core.SearchResult
	err     error
}

func (m SearchModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m SearchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if next, cmd, handled := m.handleKey(msg); handled {
			return next, cmd
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = msg.Width - 4
		return m, nil

	case debounceMsg:
		if msg.query != m.input.Value() || msg.query == m.lastQuery {
			return m, nil
		}
		return m, m.runQuery(msg.query)

	case searchResultsMsg:
		if msg.query != m.input.Value() {
			return m, nil
		}
		m.searching = false
		m.results, m.err = msg.results, msg.err
		m.cursor, m.offset = 0, 0
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if query := m.input.Value(); query != m.lastQuery {
		return m, tea.Batch(cmd, tea.Tick(searchDebounce, func(time.Time) tea.Msg {
			return debounceMsg{query: query}
		}))
	}
	return m, cmd
}

// handleKey processes navigation keys. Keys it does not consume are left
// for the text input.
func (m SearchModel) handleKey(msg tea.KeyMsg) (SearchModel, tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit, true
	case "enter":
		if m.cursor < len(m.results) {
			m.selected = &m.results[m.cursor]
			return m, tea.Quit, true
		}
		return m, nil, true
	case "up", "ctrl+p":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil, true
	case "down", "ctrl+n":
		if m.cursor < len(m.results)-1 {
			m.cursor++
		}
		return m, nil, true
	case "tab":
		return m.cycleKind(1)
	case "shift+tab":
		return m.cycleKind(-1)
	}
	return m, nil, false
}

func (m SearchModel) cycleKind(step int) (SearchModel, tea.Cmd, bool) {
	n := len(searchKinds)
	m.kind = core.SearchKind((int(m.kind) + step + n) % n)
	if m.input.Value() == "" {
		return m, nil, true
	}
	return m, m.runQuery(m.input.Value()), true
}

// runQuery marks query as in flight and returns the command that runs it.
func (m *SearchModel) runQuery(query string) tea.Cmd {
	m.lastQuery = query
	m.searching = true
	search, kind := m.search, m.kind
	return func() tea.Msg {
		if query == "" || search == nil {
			return searchResultsMsg{query: query}
		}
		results, err := search(query, kind)
		return searchResultsMsg{query: query, results: results, err: err}
	}
}

func (m SearchModel) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("Search the catalog"))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	for _, kind := range searchKinds {
		style := tabStyle
		if kind == m.kind {
			style = activeTabStyle
		}
		b.WriteString(style.Render(kind.String()))
	}
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(styles.ErrorText.Render("Error: " + m.err.Error()))
	case m.searching:
		b.WriteString(styles.Muted.Render("Searching..."))
	case len(m.results) == 0 && m.lastQuery != "":
		b.WriteString(styles.Muted.Render("No results found"))
	default:
		b.WriteString(m.renderResults())
	}

	b.WriteString("\n")
	b.WriteString(styles.Dim.Render("↑/↓ move  tab kind  enter select  esc quit"))
	return b.String()
}

func (m *SearchModel) renderResults() string {
	rows := m.height - 10
	if rows < 5 {
		rows = 5
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
	end := m.offset + rows
	if end > len(m.results) {
		end = len(m.results)
	}

	var b strings.Builder
	for i := m.offset; i < end; i++ {
		b.WriteString(m.renderResult(i))
		b.WriteString("\n")
	}
	if end < len(m.results) {
		b.WriteString(styles.Dim.Render(fmt.Sprintf("  ... %d more", len(m.results)-end)))
		b.WriteString("\n")
	}
	return b.String()
}

func (m SearchModel) renderResult(i int) string {
	r := m.results[i]
	line := styles.Truncate(r.Title, m.width/2)
	if r.Subtitle != "" {
		line += " " + styles.Muted.Render(r.Subtitle)
	}
	switch {
	case r.Kind != core.SearchTracks:
		line += styles.Dim.Render(" [" + strings.TrimSuffix(strings.ToLower(r.Kind.String()), "s") + "]")
	case r.Track != nil && !r.Track.Playable():
		line += styles.Dim.Render(" (no preview)")
	}

	if i == m.cursor {
		return styles.Selected.Render("▸ " + line)
	}
	return "  " + line
}

// Selected returns the chosen result, or nil if the user quit.
func (m SearchModel) Selected() *core.SearchResult {
	return m.selected
}

// RunSearch runs the search wizard and returns the chosen result.
func RunSearch(search SearchFunc) (*core.SearchResult, error) {
	final, err := tea.NewProgram(NewSearchModel(search), tea.WithAltScreen()).Run()
	if err != nil {
		return nil, err
	}
	return final.(SearchModel).Selected(), nil
}
