package wizard

import (
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/tessro/encore/internal/core"
)

// trackOptions builds picker options for the playable tracks, keyed by
// their index in tracks.
func trackOptions(tracks []core.Track) []huh.Option[int] {
	var options []huh.Option[int]
	for i, t := range tracks {
		if !t.Playable() {
			continue
		}
		label := fmt.Sprintf("%s - %s", t.Artist, t.Title)
		if t.Album != "" {
			label = fmt.Sprintf("%s (%s)", label, t.Album)
		}
		options = append(options, huh.NewOption(label, i))
	}
	return options
}

// RunTrackPicker asks the user to choose one of tracks. Tracks without a
// preview are not offered.
func RunTrackPicker(title string, tracks []core.Track) (*core.Track, error) {
	options := trackOptions(tracks)
	if len(options) == 0 {
		return nil, fmt.Errorf("no playable tracks")
	}

	var selected int
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title(title).
				Description("Previews play for 30 seconds").
				Options(options...).
				Value(&selected),
		),
	)

	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("selection cancelled: %w", err)
	}
	return &tracks[selected], nil
}
