package cli

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var chartCmd = &cobra.Command{
	Use:     "chart",
	Aliases: []string{"home", "trending"},
	Short:   "Show trending songs, artists and albums",
	RunE:    runChart,
}

func init() {
	rootCmd.AddCommand(chartCmd)
}

func runChart(cmd *cobra.Command, args []string) error {
	a, err := newCatalogApp()
	if err != nil {
		return err
	}
	defer a.Close()

	result := a.catalog.Home(cmd.Context())
	home := result.Data

	if JSONOutput() {
		return printJSON(home)
	}

	if len(home.Songs) == 0 && len(home.Artists) == 0 && len(home.Albums) == 0 && result.HasErrors() {
		return result.Err()
	}

	fmt.Println("Songs")
	writeTracks(os.Stdout, home.Songs)

	fmt.Println("\nArtists")
	t := NewTable("#", "ID", "NAME", "FANS")
	for i, ar := range home.Artists {
		t.Row(fmt.Sprintf("%d", i+1), ar.ID, TruncateString(ar.Name, 40), humanize.Comma(int64(ar.Fans)))
	}
	t.Flush()

	fmt.Println("\nAlbums")
	t = NewTable("#", "ID", "TITLE", "ARTIST")
	for i, al := range home.Albums {
		t.Row(fmt.Sprintf("%d", i+1), al.ID, TruncateString(al.Title, 40), TruncateString(al.Artist, 30))
	}
	t.Flush()

	if result.HasErrors() {
		fmt.Fprintf(os.Stderr, "\nWarning: %s\n", result.ErrorSummary())
	}
	return nil
}
