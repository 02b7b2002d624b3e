package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tessro/encore/internal/catalog"
	"github.com/tessro/encore/internal/core"
	"github.com/tessro/encore/internal/errors"
)

var browsePlay bool

var artistCmd = &cobra.Command{
	Use:   "artist <id>",
	Short: "Show an artist's top tracks",
	Args:  cobra.ExactArgs(1),
	RunE:  runArtist,
}

var albumCmd = &cobra.Command{
	Use:   "album <id>",
	Short: "Show an album's tracks",
	Args:  cobra.ExactArgs(1),
	RunE:  runAlbum,
}

func init() {
	for _, c := range []*cobra.Command{artistCmd, albumCmd} {
		c.Flags().BoolVar(&browsePlay, "play", false, "play the first track with a preview")
		rootCmd.AddCommand(c)
	}
}

func runArtist(cmd *cobra.Command, args []string) error {
	a, err := newCatalogApp()
	if err != nil {
		return err
	}
	defer a.Close()

	details, err := a.catalog.Artist(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if browsePlay {
		return playFirst(cmd, details.Tracks)
	}

	if JSONOutput() {
		return printJSON(details)
	}
	fmt.Printf("%s", details.Artist.Name)
	if details.Artist.Fans > 0 {
		fmt.Printf(" (%s fans)", humanize.Comma(int64(details.Artist.Fans)))
	}
	fmt.Print("\n\n")
	writeTracks(os.Stdout, details.Tracks)
	return nil
}

func runAlbum(cmd *cobra.Command, args []string) error {
	a, err := newCatalogApp()
	if err != nil {
		return err
	}
	defer a.Close()

	details, err := a.catalog.Album(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if browsePlay {
		return playFirst(cmd, details.Tracks)
	}

	if JSONOutput() {
		return printJSON(details)
	}
	fmt.Printf("%s - %s", details.Album.Artist, details.Album.Title)
	if details.Album.ReleaseDate != "" {
		fmt.Printf(" (%s)", details.Album.ReleaseDate)
	}
	fmt.Print("\n\n")
	writeTracks(os.Stdout, details.Tracks)
	return nil
}

// playFirst plays the first track with a preview and follows it.
func playFirst(cmd *cobra.Command, tracks []core.Track) error {
	track, ok := catalog.FirstPlayable(tracks)
	if !ok {
		return errors.ErrNoPlayableSource
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	return playAndFollow(ctx, a, track)
}
