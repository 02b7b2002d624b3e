package shell

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tessro/encore/internal/core"
	"github.com/tessro/encore/internal/engine/enginetest"
	"github.com/tessro/encore/internal/playback"
)

var (
	song   = core.Track{ID: "1", Title: "Song", Artist: "Band", Preview: "https://x/1.mp3"}
	silent = core.Track{ID: "2", Title: "Silent", Artist: "Band"}
)

func newTestShell(t *testing.T) (*Shell, *playback.Player, *bytes.Buffer) {
	t.Helper()
	player := playback.New(enginetest.New())
	t.Cleanup(func() { _ = player.Close() })

	var out bytes.Buffer
	return New(player, nil, nil, &out, zerolog.Nop()), player, &out
}

func waitPlaying(t *testing.T, p *playback.Player) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !p.State().IsPlaying {
		if time.Now().After(deadline) {
			t.Fatal("player never started")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestExecPlayToggleStop(t *testing.T) {
	s, player, out := newTestShell(t)
	s.list([]core.SearchResult{
		{Kind: core.SearchTracks, ID: song.ID, Title: song.Title, Subtitle: song.Artist, Track: &song},
	})

	if _, err := s.Exec(context.Background(), "play 1"); err != nil {
		t.Fatalf("play error = %v", err)
	}
	waitPlaying(t, player)

	out.Reset()
	if _, err := s.Exec(context.Background(), "status"); err != nil {
		t.Fatalf("status error = %v", err)
	}
	if !strings.HasPrefix(out.String(), "Playing: Band - Song") {
		t.Errorf("status = %q", out.String())
	}

	if _, err := s.Exec(context.Background(), "toggle"); err != nil {
		t.Fatalf("toggle error = %v", err)
	}
	if player.State().IsPlaying {
		t.Error("toggle did not pause")
	}

	if _, err := s.Exec(context.Background(), "stop"); err != nil {
		t.Fatalf("stop error = %v", err)
	}
	if player.State().Track != nil {
		t.Error("stop left a track")
	}
}

func TestExecPlayErrors(t *testing.T) {
	s, player, _ := newTestShell(t)
	s.list([]core.SearchResult{
		{Kind: core.SearchTracks, ID: silent.ID, Title: silent.Title, Track: &silent},
		{Kind: core.SearchArtists, ID: "9", Title: "Band"},
	})

	tests := []struct {
		line string
		want string
	}{
		{"play", "usage"},
		{"play 7", "no result"},
		{"play x", "no result"},
		{"play 2", "not a track"},
		{"play 1", "no preview"},
		{"artist 1", "not an artist"},
		{"bogus", "unknown command"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			_, err := s.Exec(context.Background(), tt.line)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Exec(%q) error = %v, want %q", tt.line, err, tt.want)
			}
		})
	}

	if player.State().Track != nil {
		t.Error("rejected requests changed the player")
	}
}

func TestExecQuit(t *testing.T) {
	s, _, _ := newTestShell(t)
	for _, line := range []string{"quit", "exit", "q"} {
		quit, err := s.Exec(context.Background(), line)
		if !quit || err != nil {
			t.Errorf("Exec(%q) = %v, %v, want true, nil", line, quit, err)
		}
	}
	if quit, _ := s.Exec(context.Background(), "   "); quit {
		t.Error("blank line quit the shell")
	}
}

func TestListMarksKinds(t *testing.T) {
	s, _, out := newTestShell(t)
	s.list([]core.SearchResult{
		{Kind: core.SearchTracks, Title: "Silent", Subtitle: "Band", Track: &silent},
		{Kind: core.SearchAlbums, Title: "Record", Subtitle: "Band"},
	})

	want := "  1. Silent - Band (no preview)\n  2. Record - Band [album]\n"
	if out.String() != want {
		t.Errorf("list output = %q, want %q", out.String(), want)
	}
}

func TestStatusWithoutTrack(t *testing.T) {
	s, _, out := newTestShell(t)
	if _, err := s.Exec(context.Background(), "status"); err != nil {
		t.Fatalf("status error = %v", err)
	}
	if out.String() != "Nothing playing.\n" {
		t.Errorf("status = %q", out.String())
	}
}

func TestHistoryDisabled(t *testing.T) {
	s, _, _ := newTestShell(t)
	if _, err := s.Exec(context.Background(), "history"); err == nil {
		t.Error("history with no store returned nil error")
	}
}
