// Package shell is a line-oriented front end over the shared player.
package shell

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/rs/zerolog"

	"github.com/tessro/encore/internal/catalog"
	"github.com/tessro/encore/internal/core"
	"github.com/tessro/encore/internal/errors"
	"github.com/tessro/encore/internal/history"
	"github.com/tessro/encore/internal/playback"
	"github.com/tessro/encore/internal/watch"
)

const (
	searchLimit    = 15
	requestTimeout = 15 * time.Second
)

// Shell reads commands and drives the player. Numbered results from the
// last listing can be played or opened by index.
type Shell struct {
	player  *playback.Player
	catalog *catalog.Catalog
	history *history.Store
	out     io.Writer
	logger  zerolog.Logger

	results []core.SearchResult
}

// New creates a shell. store may be nil when history is disabled.
func New(player *playback.Player, cat *catalog.Catalog, store *history.Store, out io.Writer, logger zerolog.Logger) *Shell {
	return &Shell{
		player:  player,
		catalog: cat,
		history: store,
		out:     out,
		logger:  logger.With().Str("component", "shell").Logger(),
	}
}

func completer() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("search",
			readline.PcItem("--tracks"),
			readline.PcItem("--artists"),
			readline.PcItem("--albums"),
		),
		readline.PcItem("chart"),
		readline.PcItem("artist"),
		readline.PcItem("album"),
		readline.PcItem("play"),
		readline.PcItem("toggle"),
		readline.PcItem("stop"),
		readline.PcItem("status"),
		readline.PcItem("history"),
		readline.PcItem("help"),
		readline.PcItem("quit"),
	)
}

// Run reads lines until EOF, "quit" or ctx is cancelled. Playback errors
// reported by the player are printed as they arrive.
func (s *Shell) Run(ctx context.Context, historyFile string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "encore> ",
		HistoryFile:     historyFile,
		AutoComplete:    completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return fmt.Errorf("failed to start shell: %w", err)
	}
	defer rl.Close()

	sub := s.player.Subscribe()
	defer sub.Close()
	go func() {
		for err := range sub.Errors {
			fmt.Fprintln(rl.Stderr(), errors.Format(err))
		}
	}()

	go func() {
		<-ctx.Done()
		_ = rl.Close()
	}()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if line == "" {
				return nil
			}
			continue
		}
		if err != nil {
			return nil
		}

		quit, err := s.Exec(ctx, line)
		if err != nil {
			fmt.Fprintln(s.out, errors.Format(err))
		}
		if quit {
			return nil
		}
	}
}

// Exec runs one command line. It reports whether the shell should exit.
func (s *Shell) Exec(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	cmd, args := fields[0], fields[1:]
	s.logger.Debug().Str("command", cmd).Strs("args", args).Msg("exec")

	switch cmd {
	case "quit", "exit", "q":
		return true, nil
	case "help", "?":
		s.printHelp()
		return false, nil
	case "search", "s":
		return false, s.search(ctx, args)
	case "chart":
		return false, s.chart(ctx)
	case "artist":
		return false, s.open(ctx, core.SearchArtists, args)
	case "album":
		return false, s.open(ctx, core.SearchAlbums, args)
	case "play", "p":
		return false, s.play(args)
	case "toggle", "pause", "t":
		return false, s.player.TogglePlayback()
	case "stop":
		return false, s.player.StopPlayback()
	case "status":
		s.printStatus(s.player.State())
		return false, nil
	case "history":
		return false, s.printHistory(args)
	default:
		return false, fmt.Errorf("unknown command %q (try 'help')", cmd)
	}
}

func (s *Shell) search(ctx context.Context, args []string) error {
	kind := core.SearchAll
	var terms []string
	for _, a := range args {
		switch a {
		case "--tracks":
			kind = core.SearchTracks
		case "--artists":
			kind = core.SearchArtists
		case "--albums":
			kind = core.SearchAlbums
		default:
			terms = append(terms, a)
		}
	}
	if len(terms) == 0 {
		return fmt.Errorf("usage: search [--tracks|--artists|--albums] <query>")
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	results, err := s.catalog.Search(ctx, strings.Join(terms, " "), kind, searchLimit)
	if err != nil {
		return err
	}
	s.list(results)
	return nil
}

func (s *Shell) chart(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	result := s.catalog.Home(ctx)
	s.list(catalog.HomeResults(result.Data))
	if result.HasErrors() {
		fmt.Fprintf(s.out, "(some sections failed: %s)\n", result.ErrorSummary())
	}
	return nil
}

// open lists an artist's top tracks or an album's tracks. The argument is
// either a result index or a catalog ID.
func (s *Shell) open(ctx context.Context, kind core.SearchKind, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: %s <n|id>", strings.ToLower(strings.TrimSuffix(kind.String(), "s")))
	}
	id := args[0]
	if item, ok := s.resolve(id); ok {
		if item.Kind != kind {
			return fmt.Errorf("result %s is not an %s", id, strings.ToLower(strings.TrimSuffix(kind.String(), "s")))
		}
		id = item.ID
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	var tracks []core.Track
	switch kind {
	case core.SearchArtists:
		details, err := s.catalog.Artist(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "%s\n", details.Artist.Name)
		tracks = details.Tracks
	default:
		details, err := s.catalog.Album(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "%s - %s\n", details.Album.Artist, details.Album.Title)
		tracks = details.Tracks
	}
	s.list(catalog.TrackResults(tracks))
	return nil
}

func (s *Shell) play(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: play <n>")
	}
	item, ok := s.resolve(args[0])
	if !ok {
		return fmt.Errorf("no result %q", args[0])
	}
	if item.Track == nil {
		return fmt.Errorf("result %s is not a track", args[0])
	}
	return s.player.RequestPlayback(*item.Track)
}

// resolve maps a 1-based index to the last listing.
func (s *Shell) resolve(arg string) (core.SearchResult, bool) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(s.results) {
		return core.SearchResult{}, false
	}
	return s.results[n-1], true
}

func (s *Shell) list(results []core.SearchResult) {
	s.results = results
	if len(results) == 0 {
		fmt.Fprintln(s.out, "No results.")
		return
	}
	for i, r := range results {
		line := fmt.Sprintf("%3d. %s", i+1, r.Title)
		if r.Subtitle != "" {
			line += " - " + r.Subtitle
		}
		if r.Kind != core.SearchTracks {
			line += " [" + strings.ToLower(strings.TrimSuffix(r.Kind.String(), "s")) + "]"
		} else if r.Track != nil && !r.Track.Playable() {
			line += " (no preview)"
		}
		fmt.Fprintln(s.out, line)
	}
}

func (s *Shell) printStatus(state core.PlaybackState) {
	if !state.HasTrack() {
		fmt.Fprintln(s.out, "Nothing playing.")
		return
	}
	status := "Paused"
	if state.IsPlaying {
		status = "Playing"
	}
	fmt.Fprintf(s.out, "%s: %s - %s  %s / %s (%.0f%%)\n",
		status,
		state.Track.Artist,
		state.Track.Title,
		watch.FormatDuration(state.Elapsed),
		watch.FormatDuration(state.Total),
		state.Progress)
}

func (s *Shell) printHistory(args []string) error {
	if s.history == nil {
		return fmt.Errorf("history is disabled")
	}
	limit := 10
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("invalid limit %q", args[0])
		}
		limit = n
	}

	entries, err := s.history.Recent(limit)
	if err != nil {
		return err
	}
	results := make([]core.SearchResult, 0, len(entries))
	for _, e := range entries {
		results = append(results, catalog.TrackResults([]core.Track{e.Track})...)
	}
	s.list(results)
	return nil
}

func (s *Shell) printHelp() {
	fmt.Fprint(s.out, `Commands:
  search [--tracks|--artists|--albums] <query>
  chart                 Trending songs, artists and albums
  artist <n|id>         Top tracks for an artist
  album <n|id>          Tracks on an album
  play <n>              Play result n
  toggle                Pause or resume
  stop                  Stop playback
  status                Show the current track
  history [n]           Recently played tracks
  quit
`)
}
