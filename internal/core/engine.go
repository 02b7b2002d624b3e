package core

import (
	"context"
	"time"
)

// Engine is the single-slot audio output the player drives.
// Only the playback core may call the mutating methods.
type Engine interface {
	// Load replaces the current source. It must not swap the slot once ctx
	// has been cancelled.
	Load(ctx context.Context, source string) error
	Play() error
	Pause() error

	// Status reports the live engine state.
	Status() EngineStatus
}

// EngineStatus is a single sample of the engine's live state.
type EngineStatus struct {
	Source    string        `json:"source"`
	IsPlaying bool          `json:"is_playing"`
	Elapsed   time.Duration `json:"elapsed"`
	Total     time.Duration `json:"total"`
	At        time.Time     `json:"at"`
}
