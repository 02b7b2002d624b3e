package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tessro/encore/internal/browser"
)

var openCmd = &cobra.Command{
	Use:   "open <track-id>",
	Short: "Open a track on deezer.com",
	Args:  cobra.ExactArgs(1),
	RunE:  runOpen,
}

func init() {
	rootCmd.AddCommand(openCmd)
}

func runOpen(cmd *cobra.Command, args []string) error {
	a, err := newCatalogApp()
	if err != nil {
		return err
	}
	defer a.Close()

	track, err := a.catalog.Track(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if track.Link == "" {
		return fmt.Errorf("track %s has no link", track.ID)
	}

	if err := browser.Open(track.Link); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	if JSONOutput() {
		return printJSON(map[string]string{"status": "opened", "url": track.Link})
	}
	fmt.Printf("Opened %s - %s\n", track.Artist, track.Title)
	return nil
}
