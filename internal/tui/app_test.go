package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tessro/encore/internal/core"
	"github.com/tessro/encore/internal/engine/enginetest"
	"github.com/tessro/encore/internal/playback"
)

var (
	song  = core.Track{ID: "1", Title: "Song", Artist: "Band", Preview: "https://x/1.mp3"}
	other = core.Track{ID: "2", Title: "Other", Artist: "Band", Preview: "https://x/2.mp3"}
)

func newTestModel(t *testing.T) (Model, *playback.Player, *enginetest.Engine) {
	t.Helper()
	eng := enginetest.New()
	player := playback.New(eng)
	t.Cleanup(func() { _ = player.Close() })

	m := NewModel(&App{Player: player, RefreshRate: time.Second})
	t.Cleanup(m.Close)
	return m, player, eng
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+t":
		return tea.KeyMsg{Type: tea.KeyCtrlT}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func homeItems() homeMsg {
	return homeMsg{items: []core.SearchResult{
		{Kind: core.SearchTracks, ID: song.ID, Title: song.Title, Subtitle: song.Artist, Track: &song},
		{Kind: core.SearchTracks, ID: other.ID, Title: other.Title, Subtitle: other.Artist, Track: &other},
	}}
}

func TestEnterRequestsSelectedTrack(t *testing.T) {
	m, player, _ := newTestModel(t)
	m, _ = update(t, m, homeItems())
	m, _ = update(t, m, key("j"))

	_, cmd := update(t, m, key("enter"))
	if cmd == nil {
		t.Fatal("enter returned no command")
	}
	if msg := cmd(); msg != nil {
		t.Fatalf("open() = %v, want nil", msg)
	}

	waitFor(t, func() bool { return player.State().IsPlaying })
	if got := player.State().Track.ID; got != other.ID {
		t.Errorf("current track = %q, want %q", got, other.ID)
	}
}

func TestSpaceWithoutTrackIsHarmless(t *testing.T) {
	m, player, eng := newTestModel(t)

	_, cmd := update(t, m, key("space"))
	if cmd == nil {
		t.Fatal("space returned no command")
	}
	if msg := cmd(); msg != nil {
		t.Errorf("toggle = %v, want nil", msg)
	}
	if player.State().Track != nil {
		t.Error("toggle created a track")
	}
	if eng.Plays() != 0 || eng.Pauses() != 0 {
		t.Errorf("engine calls = %d plays, %d pauses, want none", eng.Plays(), eng.Pauses())
	}
}

func TestStateMessagesDriveMiniPlayer(t *testing.T) {
	m, _, _ := newTestModel(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})

	if strings.Contains(m.View(), "0:30") {
		t.Error("mini-player shown without a track")
	}

	m, cmd := update(t, m, stateMsg(core.PlaybackState{
		Track:      &song,
		IsPlaying:  true,
		Elapsed:    15 * time.Second,
		Total:      30 * time.Second,
		Progress:   50,
		Generation: 1,
	}))
	if cmd == nil {
		t.Error("state update did not keep listening")
	}

	view := m.View()
	for _, want := range []string{"Song", "0:15", "0:30"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

func TestSubscriptionDeliversSnapshots(t *testing.T) {
	m, player, _ := newTestModel(t)

	// The first message is the snapshot queued at subscribe time.
	msg, ok := waitForPlayback(m.sub)().(stateMsg)
	first := core.PlaybackState(msg)
	if !ok || first.HasTrack() {
		t.Fatalf("first message = %v, want empty snapshot", msg)
	}

	if err := player.RequestPlayback(song); err != nil {
		t.Fatalf("RequestPlayback() error = %v", err)
	}
	msg, ok = waitForPlayback(m.sub)().(stateMsg)
	next := core.PlaybackState(msg)
	if !ok || !next.HasTrack() || next.Track.ID != song.ID {
		t.Errorf("message = %v, want snapshot for %q", msg, song.ID)
	}
}

func TestSubscriptionClosed(t *testing.T) {
	m, player, _ := newTestModel(t)
	_ = player.Close()

	deadline := time.After(time.Second)
	for {
		select {
		case <-deadline:
			t.Fatal("no close message")
		default:
		}
		if _, ok := waitForPlayback(m.sub)().(subClosedMsg); ok {
			return
		}
	}
}

func TestSearchOverlay(t *testing.T) {
	m, _, _ := newTestModel(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})

	m, _ = update(t, m, key("/"))
	if !m.search.visible {
		t.Fatal("search overlay not shown")
	}

	m, _ = update(t, m, key("ctrl+t"))
	if m.search.kind != core.SearchTracks {
		t.Errorf("searchKind = %v, want %v", m.search.kind, core.SearchTracks)
	}

	// Results for a superseded query are ignored
	m.search.input.SetValue("new")
	m, _ = update(t, m, searchResultsMsg{query: "old", results: []core.SearchResult{{Title: "Stale"}}})
	if len(m.search.results) != 0 {
		t.Errorf("searchResults = %v, want none", m.search.results)
	}

	m, _ = update(t, m, key("esc"))
	if m.search.visible {
		t.Error("search overlay still shown after esc")
	}
}

func TestErrorsShownInStatusBar(t *testing.T) {
	m, _, _ := newTestModel(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 30})

	m, _ = update(t, m, playbackErrMsg{err: &playback.LoadError{Track: song, Err: errTest}})
	if !strings.Contains(m.View(), "boom") {
		t.Errorf("View() does not show the playback error")
	}
}

var errTest = testError("boom")

type testError string

func (e testError) Error() string { return string(e) }

func TestSearchEnterOpensResult(t *testing.T) {
	m, player, _ := newTestModel(t)
	m, _ = update(t, m, key("/"))
	m.search.input.SetValue("song")
	m, _ = update(t, m, searchResultsMsg{query: "song", results: homeItems().items})
	m, _ = update(t, m, key("down"))

	m, cmd := update(t, m, key("enter"))
	if m.search.visible {
		t.Error("search overlay still shown after choosing a result")
	}
	if cmd == nil {
		t.Fatal("enter returned no command")
	}
	cmd()

	waitFor(t, func() bool { return player.State().IsPlaying })
	if got := player.State().Track.ID; got != other.ID {
		t.Errorf("current track = %q, want %q", got, other.ID)
	}
}

func TestHelpOverlay(t *testing.T) {
	m, _, _ := newTestModel(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	m, _ = update(t, m, key("?"))
	if !strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Error("help not shown")
	}
	m, _ = update(t, m, key("esc"))
	if m.showHelp {
		t.Error("help still shown after esc")
	}
}
