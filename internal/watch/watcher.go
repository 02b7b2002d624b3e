// Package watch turns the player's snapshot stream into playback events.
package watch

import (
	"context"
	"time"

	"github.com/mitchellh/hashstructure/v2"

	"github.com/tessro/encore/internal/core"
)

// EventType represents the type of playback event.
type EventType int

const (
	EventTrackChange EventType = iota
	EventTrackComplete
	EventTrackSkip
	EventPause
	EventResume
	EventStop
	EventProgress
)

// completeThreshold is the progress at which a clip counts as finished.
const completeThreshold = 99.0

// Event represents a playback state change.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Previous  *core.PlaybackState
	Current   *core.PlaybackState
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithProgress enables progress events, at most one per whole percent.
func WithProgress(enabled bool) Option {
	return func(w *Watcher) {
		w.progress = enabled
	}
}

// WithClock sets the time source for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(w *Watcher) {
		w.now = now
	}
}

// Watcher reads snapshots and emits events.
type Watcher struct {
	updates  <-chan core.PlaybackState
	events   chan Event
	progress bool
	now      func() time.Time

	lastProgress uint64
}

// NewWatcher creates a watcher over a snapshot stream, typically a
// playback subscription's Updates channel.
func NewWatcher(updates <-chan core.PlaybackState, opts ...Option) *Watcher {
	w := &Watcher{
		updates: updates,
		events:  make(chan Event, 16),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Events returns the channel of playback events. It is closed when Run
// returns.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Run emits events until ctx is cancelled or the snapshot stream closes.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.events)

	var prev *core.PlaybackState
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case state, ok := <-w.updates:
			if !ok {
				return nil
			}
			curr := state
			for _, e := range w.diff(prev, &curr) {
				select {
				case w.events <- e:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			prev = &curr
		}
	}
}

// diff compares two snapshots and returns the detected events.
func (w *Watcher) diff(prev, curr *core.PlaybackState) []Event {
	now := w.now()
	event := func(t EventType) Event {
		return Event{Type: t, Timestamp: now, Previous: prev, Current: curr}
	}

	// First snapshot - no previous state
	if prev == nil {
		if curr.HasTrack() {
			return []Event{event(EventTrackChange)}
		}
		return nil
	}

	var events []Event

	switch {
	case prev.HasTrack() && !curr.HasTrack():
		if wasCompleted(prev) {
			events = append(events, event(EventTrackComplete))
		}
		return append(events, event(EventStop))

	case trackChanged(prev, curr):
		if prev.HasTrack() {
			if wasCompleted(prev) {
				events = append(events, event(EventTrackComplete))
			} else {
				events = append(events, event(EventTrackSkip))
			}
		}
		return append(events, event(EventTrackChange))

	case !curr.HasTrack():
		return nil
	}

	// Pause/Resume detection
	if prev.IsPlaying && !curr.IsPlaying {
		if wasCompleted(curr) {
			events = append(events, event(EventTrackComplete))
		} else {
			events = append(events, event(EventPause))
		}
	} else if !prev.IsPlaying && curr.IsPlaying {
		events = append(events, event(EventResume))
	}

	if w.progress && curr.IsPlaying && w.progressChanged(curr) {
		events = append(events, event(EventProgress))
	}

	return events
}

type progressKey struct {
	Generation uint64
	Percent    int
}

// progressChanged reports whether curr is in a new whole percent since the
// last progress event.
func (w *Watcher) progressChanged(curr *core.PlaybackState) bool {
	h, err := hashstructure.Hash(progressKey{
		Generation: curr.Generation,
		Percent:    int(curr.Progress),
	}, hashstructure.FormatV2, nil)
	if err != nil || h == w.lastProgress {
		return false
	}
	w.lastProgress = h
	return true
}

// trackChanged returns true if a new request replaced the track.
func trackChanged(prev, curr *core.PlaybackState) bool {
	if !prev.HasTrack() && !curr.HasTrack() {
		return false
	}
	if !prev.HasTrack() || !curr.HasTrack() {
		return true
	}
	return prev.Generation != curr.Generation
}

// wasCompleted returns true if the clip played to its end.
func wasCompleted(state *core.PlaybackState) bool {
	return state.HasTrack() && state.Total > 0 && state.Progress >= completeThreshold
}
