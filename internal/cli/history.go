package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tessro/encore/internal/history"
)

var (
	historyLimit int
	historyClear bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently played tracks",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 0, "number of entries (default: history.limit)")
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "delete all history")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	if cfg.History.Disabled {
		return fmt.Errorf("history is disabled (history.disabled = true)")
	}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	if historyClear {
		if err := store.Clear(); err != nil {
			return err
		}
		if JSONOutput() {
			return printJSON(map[string]string{"status": "cleared"})
		}
		fmt.Println("History cleared")
		return nil
	}

	limit := historyLimit
	if limit <= 0 {
		limit = cfg.History.Limit
	}

	entries, err := store.Recent(limit)
	if err != nil {
		return err
	}

	if JSONOutput() {
		return printJSON(entries)
	}
	if len(entries) == 0 {
		fmt.Println("No history yet. Play something with 'encore play'.")
		return nil
	}

	t := NewTable("PLAYED", "ID", "TITLE", "ARTIST")
	for _, e := range entries {
		t.Row(humanize.Time(e.PlayedAt), e.Track.ID, TruncateString(e.Track.Title, 40), TruncateString(e.Track.Artist, 30))
	}
	t.Flush()
	return nil
}
