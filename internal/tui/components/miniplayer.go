package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/encore/internal/core"
	"github.com/tessro/encore/internal/tui/styles"
)

// MiniPlayer is the persistent now-playing bar. It is hidden while no
// track is current.
type MiniPlayer struct{}

// NewMiniPlayer creates a new MiniPlayer component
func NewMiniPlayer() *MiniPlayer {
	return &MiniPlayer{}
}

// Visible reports whether the mini-player should be drawn for state.
func (p *MiniPlayer) Visible(state core.PlaybackState) bool {
	return state.HasTrack()
}

// Height is the number of rows Render produces when visible.
func (p *MiniPlayer) Height() int {
	return 4
}

// Render renders the mini-player, or "" when no track is current.
func (p *MiniPlayer) Render(state core.PlaybackState, width int, loading bool) string {
	if !p.Visible(state) {
		return ""
	}
	track := state.Track
	inner := width - 4
	if inner < 20 {
		inner = 20
	}

	icon := styles.StatusIcon(state.IsPlaying)
	if loading {
		icon = styles.Dim.Render("…")
	}
	title := styles.Title.Render(styles.Truncate(track.Title, inner/2)) + styles.ExplicitBadge(track.Explicit)
	artist := styles.Subtitle.Render(styles.Truncate(track.Artist, inner/3))
	header := fmt.Sprintf("%s %s %s %s", icon, title, styles.Dim.Render("—"), artist)

	// Times on either side of the bar
	progressWidth := inner - 12
	if progressWidth < 10 {
		progressWidth = 10
	}
	bar := styles.ProgressBar(state.Progress, progressWidth)
	progress := fmt.Sprintf("%s %s %s", formatDuration(state.Elapsed), bar, formatDuration(state.Total))

	return styles.Panel(true).
		Width(width - 2).
		Render(lipgloss.JoinVertical(lipgloss.Left, header, progress))
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	m := d / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%d:%02d", m, s)
}
