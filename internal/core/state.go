package core

import (
	"math"
	"time"
)

// PlaybackState is the snapshot published to display surfaces.
type PlaybackState struct {
	Track      *Track        `json:"track"`
	IsPlaying  bool          `json:"is_playing"`
	Elapsed    time.Duration `json:"elapsed"`
	Total      time.Duration `json:"total"`
	Progress   float64       `json:"progress_percent"`
	Generation uint64        `json:"generation"`
}

// HasTrack returns true if there is an active track.
func (s *PlaybackState) HasTrack() bool {
	return s != nil && s.Track != nil
}

// ProgressPercent returns elapsed as a percentage (0-100) of total.
// The result is always finite; an unknown or zero total yields 0.
func ProgressPercent(elapsed, total time.Duration) float64 {
	if total <= 0 || elapsed <= 0 {
		return 0
	}
	p := float64(elapsed) / float64(total) * 100
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
