package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tessro/encore/internal/catalog"
	"github.com/tessro/encore/internal/core"
	"github.com/tessro/encore/internal/errors"
	"github.com/tessro/encore/internal/watch"
	"github.com/tessro/encore/internal/wizard"
)

const playSearchLimit = 25

var (
	playID        string
	playPick      bool
	playProgress  bool
	playNoEmoji   bool
	playTimestamp bool
	playFormat    string
)

var playCmd = &cobra.Command{
	Use:   "play [query]",
	Short: "Search and play a preview",
	Long: `Search the catalog and play the first track with a preview, then follow
playback until the clip ends or Ctrl+C.

Without a query, pick from the current chart.

Examples:
  encore play "around the world"   # Play the first playable hit
  encore play --pick daft punk     # Choose among the hits
  encore play --id 3135556         # Play a specific track
  encore play --progress --format '{{.Elapsed}} {{.Title}}'`,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVar(&playID, "id", "", "play a specific track ID")
	playCmd.Flags().BoolVar(&playPick, "pick", false, "choose among the search hits")
	playCmd.Flags().BoolVarP(&playProgress, "progress", "p", false, "print progress while playing")
	playCmd.Flags().BoolVar(&playNoEmoji, "no-emoji", false, "disable emoji output")
	playCmd.Flags().BoolVarP(&playTimestamp, "timestamp", "t", false, "show timestamps")
	playCmd.Flags().StringVarP(&playFormat, "format", "f", "", "custom event template")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	if _, err := watch.ParseTemplate(playFormat); err != nil {
		return fmt.Errorf("invalid format: %w", err)
	}

	// Handle Ctrl+C gracefully
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	track, err := resolvePlayTrack(ctx, a, strings.Join(args, " "))
	if err != nil {
		return err
	}
	if track == nil {
		return nil
	}

	return playAndFollow(ctx, a, *track)
}

// resolvePlayTrack picks the track to play. A nil track with a nil error
// means the user cancelled.
func resolvePlayTrack(ctx context.Context, a *app, query string) (*core.Track, error) {
	interactive := wizard.NewInteractive()

	if playID != "" {
		return a.catalog.Track(ctx, playID)
	}

	if query == "" {
		if !interactive.CanInteract() {
			return nil, fmt.Errorf("a query is required when not running in a terminal")
		}
		home := a.catalog.Home(ctx)
		if len(home.Data.Songs) == 0 {
			return nil, fmt.Errorf("chart unavailable: %w", home.Err())
		}
		return interactive.PromptTrack("Trending now", home.Data.Songs)
	}

	tracks, err := a.catalog.SearchTracks(ctx, query, playSearchLimit)
	if err != nil {
		return nil, err
	}

	if playPick {
		if picked, err := interactive.PromptTrack(fmt.Sprintf("Results for %q", query), tracks); picked != nil || err != nil {
			return picked, err
		}
	}

	track, ok := catalog.FirstPlayable(tracks)
	if !ok {
		return nil, errors.WithSuggestion(
			fmt.Errorf("no preview for %q: %w", query, errors.ErrNoPlayableSource),
			"Try a different query, or 'encore search' to browse results")
	}
	return &track, nil
}

// playEvent is the JSON form of a playback event.
type playEvent struct {
	Type     string      `json:"type"`
	Time     time.Time   `json:"time"`
	Track    *core.Track `json:"track,omitempty"`
	Playing  bool        `json:"playing"`
	Elapsed  float64     `json:"elapsed"`
	Total    float64     `json:"total"`
	Progress float64     `json:"progress"`
}

func newPlayEvent(e watch.Event) playEvent {
	out := playEvent{Type: watch.EventTypeName(e.Type), Time: e.Timestamp}
	if s := e.Current; s != nil {
		out.Track = s.Track
		out.Playing = s.IsPlaying
		out.Elapsed = s.Elapsed.Seconds()
		out.Total = s.Total.Seconds()
		out.Progress = s.Progress
	}
	return out
}

// playAndFollow requests track and prints events until the clip ends, the
// player stops or ctx is cancelled.
func playAndFollow(ctx context.Context, a *app, track core.Track) error {
	formatter := watch.NewFormatter(
		watch.WithEmoji(!playNoEmoji),
		watch.WithTimestamp(playTimestamp),
		watch.WithTemplate(playFormat),
	)

	sub := a.player.Subscribe()
	defer sub.Close()

	watcher := watch.NewWatcher(sub.Updates, watch.WithProgress(playProgress))
	go func() { _ = watcher.Run(ctx) }()

	if err := a.player.RequestPlayback(track); err != nil {
		return err
	}

	errs := sub.Errors
	for {
		select {
		case e, ok := <-watcher.Events():
			if !ok {
				return nil
			}
			if JSONOutput() {
				if err := printJSON(newPlayEvent(e)); err != nil {
					return err
				}
			} else {
				fmt.Println(formatter.Format(e))
			}
			if e.Type == watch.EventTrackComplete || e.Type == watch.EventStop {
				return nil
			}

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			return err

		case <-ctx.Done():
			return nil
		}
	}
}
