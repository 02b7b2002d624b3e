// Package tui implements the interactive terminal interface.
package tui

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/tessro/encore/internal/catalog"
	"github.com/tessro/encore/internal/core"
	"github.com/tessro/encore/internal/history"
	"github.com/tessro/encore/internal/playback"
	"github.com/tessro/encore/internal/tui/components"
	"github.com/tessro/encore/internal/tui/styles"
)

// Panel represents which panel is focused
type Panel int

const (
	PanelBrowse Panel = iota
	PanelHistory
)

const (
	searchDebounce = 300 * time.Millisecond
	searchLimit    = 10
	requestTimeout = 15 * time.Second
	errorDuration  = 5 * time.Second
)

// App holds the services the TUI drives.
type App struct {
	Player       *playback.Player
	Catalog      *catalog.Catalog
	History      *history.Store // nil when history is disabled
	HistoryLimit int
	RefreshRate  time.Duration
	Logger       zerolog.Logger
}

// Model is the main TUI model
type Model struct {
	app          *App
	sub          *playback.Subscription
	width        int
	height       int
	focusedPanel Panel

	// State
	state   core.PlaybackState
	home    []core.SearchResult
	history []core.HistoryEntry

	// Components
	browse      *components.TrackList
	historyView *components.History
	miniPlayer  *components.MiniPlayer

	// Overlays
	showHelp bool

	search searchOverlay

	// Error handling
	lastError   error
	errorExpiry time.Time

	quitting bool
}

// NewModel creates a new TUI model subscribed to the app's player.
func NewModel(app *App) Model {
	return Model{
		app:          app,
		sub:          app.Player.Subscribe(),
		focusedPanel: PanelBrowse,
		browse:       components.NewTrackList("Chart"),
		historyView:  components.NewHistory(),
		miniPlayer:   components.NewMiniPlayer(),
		search:       newSearchOverlay(),
	}
}

// Messages
type tickMsg time.Time
type stateMsg core.PlaybackState
type playbackErrMsg struct{ err error }
type subClosedMsg struct{}
type historyMsg []core.HistoryEntry
type errMsg error

type homeMsg struct {
	items []core.SearchResult
	err   error
}

type listMsg struct {
	title string
	items []core.SearchResult
}

// Commands
func (m Model) tick() tea.Cmd {
	return tea.Tick(m.app.RefreshRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForPlayback blocks on the subscription until the player publishes a
// snapshot or an error.
func waitForPlayback(sub *playback.Subscription) tea.Cmd {
	return func() tea.Msg {
		select {
		case state, ok := <-sub.Updates:
			if !ok {
				return subClosedMsg{}
			}
			return stateMsg(state)
		case err, ok := <-sub.Errors:
			if !ok {
				return subClosedMsg{}
			}
			return playbackErrMsg{err: err}
		}
	}
}

func (m Model) fetchHome() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		result := m.app.Catalog.Home(ctx)
		return homeMsg{items: catalog.HomeResults(result.Data), err: result.Err()}
	}
}

func (m Model) fetchHistory() tea.Cmd {
	store := m.app.History
	limit := m.app.HistoryLimit
	return func() tea.Msg {
		if store == nil {
			return nil
		}
		entries, err := store.Recent(limit)
		if err != nil {
			return errMsg(err)
		}
		return historyMsg(entries)
	}
}

// open plays a track result or expands an artist or album into the browse
// list.
func (m Model) open(item core.SearchResult) tea.Cmd {
	player := m.app.Player
	cat := m.app.Catalog
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		switch item.Kind {
		case core.SearchArtists:
			details, err := cat.Artist(ctx, item.ID)
			if err != nil {
				return errMsg(err)
			}
			return listMsg{title: details.Artist.Name, items: catalog.TrackResults(details.Tracks)}

		case core.SearchAlbums:
			details, err := cat.Album(ctx, item.ID)
			if err != nil {
				return errMsg(err)
			}
			return listMsg{title: details.Album.Title, items: catalog.TrackResults(details.Tracks)}

		default:
			if item.Track == nil {
				return nil
			}
			if err := player.RequestPlayback(*item.Track); err != nil {
				return errMsg(err)
			}
			return nil
		}
	}
}

func (m Model) play(track core.Track) tea.Cmd {
	player := m.app.Player
	return func() tea.Msg {
		if err := player.RequestPlayback(track); err != nil {
			return errMsg(err)
		}
		return nil
	}
}

func (m Model) togglePlayPause() tea.Cmd {
	player := m.app.Player
	return func() tea.Msg {
		if err := player.TogglePlayback(); err != nil {
			return errMsg(err)
		}
		return nil
	}
}

func (m Model) stop() tea.Cmd {
	player := m.app.Player
	return func() tea.Msg {
		if err := player.StopPlayback(); err != nil {
			return errMsg(err)
		}
		return nil
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.tick(),
		waitForPlayback(m.sub),
		m.fetchHome(),
		m.fetchHistory(),
	)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		if time.Now().After(m.errorExpiry) {
			m.lastError = nil
		}
		return m, m.tick()

	case stateMsg:
		prev := m.state
		m.state = core.PlaybackState(msg)
		cmds := []tea.Cmd{waitForPlayback(m.sub)}
		// The recorder writes asynchronously; reload once it has had a moment.
		if m.state.HasTrack() && m.state.Generation != prev.Generation {
			cmds = append(cmds, tea.Tick(500*time.Millisecond, func(time.Time) tea.Msg {
				return reloadHistoryMsg{}
			}))
		}
		return m, tea.Batch(cmds...)

	case playbackErrMsg:
		m.setError(msg.err)
		return m, waitForPlayback(m.sub)

	case subClosedMsg:
		return m, nil

	case reloadHistoryMsg:
		return m, m.fetchHistory()

	case historyMsg:
		m.history = msg
		return m, nil

	case homeMsg:
		m.home = msg.items
		m.browse.SetItems("Chart", msg.items)
		if msg.err != nil {
			m.setError(msg.err)
		}
		return m, nil

	case listMsg:
		m.browse.SetItems(msg.title, msg.items)
		m.focusedPanel = PanelBrowse
		return m, nil

	case errMsg:
		m.setError(msg)
		return m, nil

	case searchDebounceMsg:
		cmd := m.search.debounced(m.app.Catalog, msg)
		return m, cmd

	case searchResultsMsg:
		m.search.receive(msg)
		return m, nil
	}

	// Cursor blink and similar messages belong to the search input
	if m.search.visible {
		var cmd tea.Cmd
		m.search.input, cmd = m.search.input.Update(msg)
		return m, cmd
	}

	return m, nil
}

type reloadHistoryMsg struct{}

func (m *Model) setError(err error) {
	m.lastError = err
	m.errorExpiry = time.Now().Add(errorDuration)
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global keys (always work)
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	}

	// Help overlay
	if m.showHelp {
		switch msg.String() {
		case "?", "esc":
			m.showHelp = false
		}
		return m, nil
	}

	if m.search.visible {
		item, cmd := m.search.key(m.app.Catalog, msg)
		if item != nil {
			return m, m.open(*item)
		}
		return m, cmd
	}

	// Normal mode
	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit

	case "?":
		m.showHelp = true
		return m, nil

	case "/":
		cmd := m.search.open()
		return m, cmd

	case "tab", "shift+tab":
		m.focusedPanel = (m.focusedPanel + 1) % 2
		return m, nil

	case "h", "backspace":
		m.browse.SetItems("Chart", m.home)
		return m, nil

	case "r":
		return m, tea.Batch(m.fetchHome(), m.fetchHistory())
	}

	// Playback controls
	switch msg.String() {
	case " ":
		return m, m.togglePlayPause()
	case "x":
		return m, m.stop()
	}

	// Panel-specific keys
	switch m.focusedPanel {
	case PanelBrowse:
		switch msg.String() {
		case "j", "down":
			m.browse.MoveDown()
		case "k", "up":
			m.browse.MoveUp()
		case "enter":
			if item, ok := m.browse.Selected(); ok {
				return m, m.open(item)
			}
		}
	case PanelHistory:
		switch msg.String() {
		case "j", "down":
			m.historyView.MoveDown(len(m.history))
		case "k", "up":
			m.historyView.MoveUp()
		case "enter":
			if i := m.historyView.Selected(); i >= 0 && i < len(m.history) {
				return m, m.play(m.history[i].Track)
			}
		}
	}

	return m, nil
}

// View renders the UI
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.width == 0 {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	if m.search.visible {
		return m.search.view(m.width, m.height)
	}

	// Browse on the left, history on the right, mini-player below both
	leftWidth := m.width * 60 / 100
	rightWidth := m.width - leftWidth - 2

	height := m.height - 1
	var player string
	if m.miniPlayer.Visible(m.state) {
		player = m.miniPlayer.Render(m.state, m.width, m.loading())
		height -= lipgloss.Height(player)
	}

	browse := m.browse.Render(m.state.Track, leftWidth-2, height-2, m.focusedPanel == PanelBrowse)
	hist := m.historyView.Render(m.history, rightWidth-2, height-2, m.focusedPanel == PanelHistory)

	parts := []string{lipgloss.JoinHorizontal(lipgloss.Top, browse, hist)}
	if player != "" {
		parts = append(parts, player)
	}
	parts = append(parts, m.renderStatusBar())

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// loading reports whether the current track is still being fetched.
func (m Model) loading() bool {
	return m.state.HasTrack() && !m.state.IsPlaying && m.state.Total == 0 && m.lastError == nil
}

func (m Model) renderStatusBar() string {
	status := styles.Dim.Render("q:quit  ?:help  /:search  space:play/pause  x:stop  enter:open  h:home  tab:switch panel")

	if m.lastError != nil {
		status = styles.ErrorText.Render("Error: " + m.lastError.Error())
	}

	return lipgloss.NewStyle().
		Width(m.width).
		Padding(0, 1).
		Render(status)
}

// helpSections lists the key bindings shown by "?".
var helpSections = []struct {
	name string
	keys [][2]string
}{
	{"Global", [][2]string{
		{"q, Ctrl+C", "Quit"},
		{"?", "Toggle help"},
		{"/", "Search (Ctrl+t cycles the kind)"},
		{"Tab", "Switch panel"},
		{"h", "Back to chart"},
		{"r", "Refresh"},
	}},
	{"Playback", [][2]string{
		{"Space", "Play/Pause"},
		{"x", "Stop"},
	}},
	{"Lists", [][2]string{
		{"j/↓  k/↑", "Move selection"},
		{"Enter", "Play track, or open artist/album"},
	}},
}

func (m Model) renderHelp() string {
	var b strings.Builder
	b.WriteString(styles.Highlight.Render("Encore - Keyboard Shortcuts"))
	b.WriteString("\n")

	key := lipgloss.NewStyle().Width(12).Foreground(styles.Primary)
	for _, section := range helpSections {
		b.WriteString("\n" + styles.Title.Render(section.name) + "\n")
		for _, k := range section.keys {
			b.WriteString("  " + key.Render(k[0]) + " " + k[1] + "\n")
		}
	}
	b.WriteString("\n" + styles.Dim.Render("Press ? or Esc to close"))

	box := styles.BorderStyle.Padding(1, 3).Render(b.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// Close releases the model's player subscription.
func (m Model) Close() {
	m.sub.Close()
}

// Run starts the TUI and blocks until the user quits.
func Run(app *App) error {
	if app.RefreshRate <= 0 {
		app.RefreshRate = time.Second
	}

	model := NewModel(app)
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
