package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tessro/encore/internal/core"
	"github.com/tessro/encore/internal/wizard"
)

var (
	searchTracks  bool
	searchArtists bool
	searchAlbums  bool
	searchLimit   int
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the catalog",
	Long: `Search tracks, artists and albums.

Without a query in a terminal, opens the interactive search; choosing a
track plays it and choosing an artist or album lists its tracks.

Examples:
  encore search "harder better"
  encore search --artists daft punk
  encore search --albums --limit 5 discovery`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&searchTracks, "tracks", false, "only tracks")
	searchCmd.Flags().BoolVar(&searchArtists, "artists", false, "only artists")
	searchCmd.Flags().BoolVar(&searchAlbums, "albums", false, "only albums")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "l", 10, "results per kind")
	searchCmd.MarkFlagsMutuallyExclusive("tracks", "artists", "albums")
	rootCmd.AddCommand(searchCmd)
}

func searchKind() core.SearchKind {
	switch {
	case searchTracks:
		return core.SearchTracks
	case searchArtists:
		return core.SearchArtists
	case searchAlbums:
		return core.SearchAlbums
	default:
		return core.SearchAll
	}
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	if wizard.NeedsQuery(args) {
		return runInteractiveSearch(cmd)
	}

	a, err := newCatalogApp()
	if err != nil {
		return err
	}
	defer a.Close()

	results, err := a.catalog.Search(cmd.Context(), query, searchKind(), searchLimit)
	if err != nil {
		return err
	}

	if JSONOutput() {
		return printJSON(results)
	}
	writeResults(os.Stdout, results)
	return nil
}

func runInteractiveSearch(cmd *cobra.Command) error {
	interactive := wizard.NewInteractive()
	if !interactive.CanInteract() {
		return fmt.Errorf("a query is required when not running in a terminal")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	selected, err := interactive.PromptSearch(func(query string, kind core.SearchKind) ([]core.SearchResult, error) {
		ctx, cancel := context.WithTimeout(ctx, cfg.Deezer.HTTPTimeout())
		defer cancel()
		return a.catalog.Search(ctx, query, kind, searchLimit)
	})
	if err != nil || selected == nil {
		return err
	}

	switch selected.Kind {
	case core.SearchArtists:
		details, err := a.catalog.Artist(ctx, selected.ID)
		if err != nil {
			return err
		}
		fmt.Printf("%s\n\n", details.Artist.Name)
		writeTracks(os.Stdout, details.Tracks)
		return nil

	case core.SearchAlbums:
		details, err := a.catalog.Album(ctx, selected.ID)
		if err != nil {
			return err
		}
		fmt.Printf("%s - %s\n\n", details.Album.Artist, details.Album.Title)
		writeTracks(os.Stdout, details.Tracks)
		return nil

	default:
		if selected.Track == nil {
			return nil
		}
		return playAndFollow(ctx, a, *selected.Track)
	}
}
