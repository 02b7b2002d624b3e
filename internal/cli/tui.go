package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/tessro/encore/internal/tui"
	"github.com/tessro/encore/internal/tui/styles"
)

var tuiRefresh int

var tuiCmd = &cobra.Command{
	Use:     "ui",
	Aliases: []string{"tui"},
	Short:   "Launch interactive browser",
	Long: `Launch the interactive terminal browser.

The browser provides:
  • Chart - trending songs, artists and albums
  • History - recently played tracks
  • Mini-player - current track and clip progress

Keyboard shortcuts:
  q, Ctrl+C    Quit
  ?            Help
  /            Search
  Enter        Play track / open artist or album
  Space        Play/Pause
  x            Stop
  h            Back to chart
  Tab          Switch panel`,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().IntVar(&tuiRefresh, "refresh", 0, "refresh interval in milliseconds (default: tui.refresh_interval)")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	refresh := cfg.TUI.RefreshInterval
	if tuiRefresh > 0 {
		refresh = tuiRefresh
	}

	styles.ApplyTheme(cfg.TUI.Theme)
	return tui.Run(&tui.App{
		Player:       a.player,
		Catalog:      a.catalog,
		History:      a.history,
		HistoryLimit: cfg.History.Limit,
		RefreshRate:  time.Duration(refresh) * time.Millisecond,
		Logger:       a.logger,
	})
}
