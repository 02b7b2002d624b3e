// Package playback owns the now-playing slot and the single audio engine.
//
// A Player is constructed once by the application root and shared by
// reference with every display surface. Display surfaces read snapshots
// through Subscribe and issue commands with RequestPlayback,
// TogglePlayback and StopPlayback; only the Player touches the engine.
package playback

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tessro/encore/internal/core"
	"github.com/tessro/encore/internal/errors"
)

// DefaultInterval is the engine status poll interval used by Run.
const DefaultInterval = 250 * time.Millisecond

// Option configures a Player.
type Option func(*Player)

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Player) {
		p.logger = logger.With().Str("component", "playback").Logger()
	}
}

// WithInterval sets the status poll interval used by Run.
func WithInterval(d time.Duration) Option {
	return func(p *Player) {
		if d > 0 {
			p.interval = d
		}
	}
}

// LoadError reports that the engine could not load or start a track.
// It matches errors.ErrAdapterLoad.
type LoadError struct {
	Track core.Track
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%v: track %q: %v", errors.ErrAdapterLoad, e.Track.ID, e.Err)
}

func (e *LoadError) Unwrap() []error {
	return []error{errors.ErrAdapterLoad, e.Err}
}

// Player is the single source of truth for what is loaded and whether it
// is playing.
type Player struct {
	engine   core.Engine
	logger   zerolog.Logger
	interval time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu sync.Mutex

	current *core.Track
	// seq is bumped by every accepted request and every stop. A load only
	// takes effect while its generation is still seq.
	seq        uint64
	loaded     uint64
	cancelLoad context.CancelFunc

	status   core.EngineStatus
	lastTick time.Time

	subs   map[*Subscription]struct{}
	closed bool
}

// New creates a player driving engine.
func New(engine core.Engine, opts ...Option) *Player {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Player{
		engine:   engine,
		logger:   zerolog.Nop(),
		interval: DefaultInterval,
		ctx:      ctx,
		cancel:   cancel,
		subs:     make(map[*Subscription]struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RequestPlayback makes track the current track and starts loading it.
//
// A track without a preview is rejected with errors.ErrNoPlayableSource and
// leaves the player untouched. Otherwise the new track is published right
// away and the call returns without waiting for audio. Load failures are
// delivered as *LoadError on subscription error channels; the track stays
// current.
func (p *Player) RequestPlayback(track core.Track) error {
	if err := track.Validate(); err != nil {
		p.logger.Warn().
			Str("track", track.ID).
			Str("title", track.Title).
			Msg("rejected track without preview")
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return errors.ErrClosed
	}

	if p.cancelLoad != nil {
		p.cancelLoad()
	}

	// Replacing a track silences the old one right away; it must not keep
	// playing while the new one loads or after the new load fails.
	if p.current != nil {
		if err := p.engine.Pause(); err != nil {
			p.logger.Warn().Err(err).Str("track", p.current.ID).Msg("failed to pause replaced track")
		}
	}

	p.seq++
	gen := p.seq
	p.current = &track
	p.status = core.EngineStatus{}
	p.lastTick = time.Time{}

	ctx, cancel := context.WithCancel(p.ctx)
	p.cancelLoad = cancel

	p.logger.Info().
		Uint64("generation", gen).
		Str("track", track.ID).
		Str("title", track.Title).
		Msg("playback requested")

	p.publishLocked()

	p.wg.Add(1)
	go p.load(ctx, gen, track)

	return nil
}

func (p *Player) load(ctx context.Context, gen uint64, track core.Track) {
	defer p.wg.Done()

	err := p.engine.Load(ctx, track.Preview)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || gen != p.seq {
		p.logger.Debug().
			Uint64("generation", gen).
			Str("track", track.ID).
			Msg("discarding superseded load")
		return
	}
	p.cancelLoad = nil

	if err != nil {
		p.failLocked(track, err)
		return
	}
	p.loaded = gen

	if err := p.engine.Play(); err != nil {
		p.failLocked(track, err)
		return
	}

	p.applyLocked(p.engine.Status())
}

func (p *Player) failLocked(track core.Track, err error) {
	p.logger.Error().
		Err(err).
		Str("track", track.ID).
		Str("source", track.Preview).
		Msg("engine failed to start track")

	loadErr := &LoadError{Track: track, Err: err}
	for s := range p.subs {
		s.sendErr(loadErr)
	}
}

// TogglePlayback pauses a playing track or resumes a paused one, based on
// the engine's live status. It does nothing when no track is current or
// the current track has not finished loading.
func (p *Player) TogglePlayback() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return errors.ErrClosed
	}
	if p.current == nil || p.loaded != p.seq {
		return nil
	}

	live := p.engine.Status()
	var err error
	if live.IsPlaying {
		err = p.engine.Pause()
	} else {
		err = p.engine.Play()
	}
	if err != nil {
		p.logger.Error().Err(err).Bool("was_playing", live.IsPlaying).Msg("toggle failed")
		return fmt.Errorf("failed to toggle playback: %w", err)
	}

	p.applyLocked(p.engine.Status())
	return nil
}

// StopPlayback pauses the engine and clears the current track. The engine
// keeps its source. The slot is cleared even if the engine fails to pause.
func (p *Player) StopPlayback() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return errors.ErrClosed
	}

	if p.cancelLoad != nil {
		p.cancelLoad()
		p.cancelLoad = nil
	}

	pauseErr := p.engine.Pause()
	if pauseErr != nil {
		p.logger.Error().Err(pauseErr).Msg("failed to pause engine on stop")
	}

	if p.current != nil {
		p.logger.Info().Str("track", p.current.ID).Msg("playback stopped")
		p.seq++
		p.current = nil
		p.status = core.EngineStatus{}
		p.lastTick = time.Time{}
		p.publishLocked()
	}

	if pauseErr != nil {
		return fmt.Errorf("failed to pause engine: %w", pauseErr)
	}
	return nil
}

// State returns the latest snapshot.
func (p *Player) State() core.PlaybackState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

// Refresh samples the engine once and publishes the result if it applies
// to the current track.
func (p *Player) Refresh() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.applyLocked(p.engine.Status())
}

// Run polls the engine until ctx is cancelled or the player is closed.
func (p *Player) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.ctx.Done():
			return nil
		case <-ticker.C:
			p.Refresh()
		}
	}
}

// Close cancels pending loads, stops Run and ends all subscriptions.
// The engine is left as is. Close is safe to call more than once.
func (p *Player) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	if p.cancelLoad != nil {
		p.cancelLoad()
		p.cancelLoad = nil
	}
	p.cancel()
	for s := range p.subs {
		s.closeLocked()
	}
	p.subs = nil
	p.mu.Unlock()

	p.wg.Wait()
	return nil
}

// applyLocked takes an engine sample into the state. Samples for a load
// that has not been confirmed, or older than the last applied sample, are
// dropped. A sample for another source means the current track is not
// audible, so only IsPlaying is cleared.
func (p *Player) applyLocked(st core.EngineStatus) bool {
	if p.current == nil || p.loaded != p.seq {
		return false
	}
	if st.Source != p.current.Preview {
		if p.status.IsPlaying {
			p.logger.Warn().
				Str("engine_source", st.Source).
				Str("track", p.current.ID).
				Msg("engine holds another source")
			p.status.IsPlaying = false
			p.publishLocked()
		}
		return false
	}
	if !p.lastTick.IsZero() && st.At.Before(p.lastTick) {
		p.logger.Debug().Time("at", st.At).Time("last", p.lastTick).Msg("dropping stale status")
		return false
	}

	p.status = st
	p.lastTick = st.At
	p.publishLocked()
	return true
}

func (p *Player) snapshotLocked() core.PlaybackState {
	state := core.PlaybackState{Generation: p.seq}
	if p.current == nil {
		return state
	}

	track := *p.current
	state.Track = &track
	state.IsPlaying = p.status.IsPlaying
	state.Elapsed = p.status.Elapsed
	state.Total = p.status.Total
	state.Progress = core.ProgressPercent(p.status.Elapsed, p.status.Total)
	return state
}

func (p *Player) publishLocked() {
	state := p.snapshotLocked()
	for s := range p.subs {
		s.send(state)
	}
}
