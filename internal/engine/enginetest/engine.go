// Package enginetest provides a scripted in-memory audio engine for tests.
package enginetest

import (
	"context"
	"sync"
	"time"

	"github.com/tessro/encore/internal/core"
)

// Engine is a fake core.Engine. Loads complete immediately unless a gate
// has been installed for the source with Block.
type Engine struct {
	mu sync.Mutex

	source  string
	playing bool
	elapsed time.Duration
	total   time.Duration
	at      time.Time

	gates        map[string]chan struct{}
	loadErrs     map[string]error
	playErr      error
	pauseErr     error
	ignoreCancel bool

	loads  []string
	plays  int
	pauses int
}

// New creates a new fake engine.
func New() *Engine {
	return &Engine{
		gates:    make(map[string]chan struct{}),
		loadErrs: make(map[string]error),
	}
}

// Block holds loads of source open until the returned release func is
// called or the load's context is cancelled.
func (e *Engine) Block(source string) (release func()) {
	ch := make(chan struct{})
	e.mu.Lock()
	e.gates[source] = ch
	e.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

// IgnoreCancel makes loads swap the slot even when their context was
// cancelled, like a misbehaving adapter.
func (e *Engine) IgnoreCancel(ignore bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ignoreCancel = ignore
}

// FailLoad makes every load of source return err.
func (e *Engine) FailLoad(source string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loadErrs[source] = err
}

// FailPlay makes Play return err until cleared with nil.
func (e *Engine) FailPlay(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.playErr = err
}

// FailPause makes Pause return err until cleared with nil.
func (e *Engine) FailPause(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pauseErr = err
}

// SetPosition sets the reported elapsed and total times.
func (e *Engine) SetPosition(elapsed, total time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.elapsed = elapsed
	e.total = total
}

// SetPlaying changes the playing flag behind the core's back, the way an OS
// audio interruption would.
func (e *Engine) SetPlaying(playing bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.playing = playing
}

// SetSampleTime pins the timestamp reported by Status. The zero value
// restores the wall clock.
func (e *Engine) SetSampleTime(at time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.at = at
}

// Load implements core.Engine.
func (e *Engine) Load(ctx context.Context, source string) error {
	e.mu.Lock()
	e.loads = append(e.loads, source)
	gate := e.gates[source]
	ignoreCancel := e.ignoreCancel
	e.mu.Unlock()

	if gate != nil {
		if ignoreCancel {
			<-gate
		} else {
			select {
			case <-gate:
			case <-ctx.Done():
			}
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil && !e.ignoreCancel {
		return err
	}
	if err := e.loadErrs[source]; err != nil {
		return err
	}

	e.source = source
	e.playing = false
	e.elapsed = 0
	e.total = 0
	return nil
}

// Play implements core.Engine.
func (e *Engine) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.plays++
	if e.playErr != nil {
		return e.playErr
	}
	e.playing = true
	return nil
}

// Pause implements core.Engine.
func (e *Engine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pauses++
	if e.pauseErr != nil {
		return e.pauseErr
	}
	e.playing = false
	return nil
}

// Status implements core.Engine.
func (e *Engine) Status() core.EngineStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	at := e.at
	if at.IsZero() {
		at = time.Now()
	}
	return core.EngineStatus{
		Source:    e.source,
		IsPlaying: e.playing,
		Elapsed:   e.elapsed,
		Total:     e.total,
		At:        at,
	}
}

// Source returns the currently loaded source.
func (e *Engine) Source() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.source
}

// Loads returns every source Load was called with, in order.
func (e *Engine) Loads() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.loads...)
}

// Plays returns the number of Play calls.
func (e *Engine) Plays() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.plays
}

// Pauses returns the number of Pause calls.
func (e *Engine) Pauses() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pauses
}

var _ core.Engine = (*Engine)(nil)
