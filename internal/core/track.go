package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/tessro/encore/internal/errors"
)

// Track represents a playable audio track.
//
// Only ID, Title and Preview matter to the player. The remaining fields are
// filled by the catalog for display surfaces.
type Track struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Artist   string        `json:"artist"`
	Image    string        `json:"image,omitempty"`
	Preview  string        `json:"preview"`
	ArtistID string        `json:"artist_id,omitempty"`
	Album    string        `json:"album,omitempty"`
	AlbumID  string        `json:"album_id,omitempty"`
	Link     string        `json:"link,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
	Explicit bool          `json:"explicit,omitempty"`
}

// Playable returns true if the track carries a preview locator.
func (t *Track) Playable() bool {
	return t != nil && strings.TrimSpace(t.Preview) != ""
}

// Validate returns ErrNoPlayableSource if the track cannot be loaded.
func (t *Track) Validate() error {
	if t == nil {
		return errors.ErrNoPlayableSource
	}
	if !t.Playable() {
		return fmt.Errorf("track %q: %w", t.ID, errors.ErrNoPlayableSource)
	}
	return nil
}

// SameAs reports whether two tracks share an identity.
func (t *Track) SameAs(other *Track) bool {
	if t == nil || other == nil {
		return false
	}
	return t.ID == other.ID
}

// HistoryEntry represents a recently played track.
type HistoryEntry struct {
	Track    Track     `json:"track"`
	PlayedAt time.Time `json:"played_at"`
}
