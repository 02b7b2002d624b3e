package playback

import (
	"github.com/tessro/encore/internal/core"
)

const errBuffer = 8

// Subscription delivers player snapshots and asynchronous errors.
//
// Updates holds at most one pending snapshot; a reader that falls behind
// skips intermediate snapshots and always sees the newest one. Errors drops
// new errors while full. Both channels are closed when the subscription
// ends.
type Subscription struct {
	Updates <-chan core.PlaybackState
	Errors  <-chan error

	updates chan core.PlaybackState
	errs    chan error
	done    chan struct{}
	player  *Player
}

// Subscribe registers a new subscriber. The current snapshot is queued
// immediately.
func (p *Player) Subscribe() *Subscription {
	updates := make(chan core.PlaybackState, 1)
	errs := make(chan error, errBuffer)
	s := &Subscription{
		Updates: updates,
		Errors:  errs,
		updates: updates,
		errs:    errs,
		done:    make(chan struct{}),
		player:  p,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		s.closeLocked()
		return s
	}
	p.subs[s] = struct{}{}
	s.send(p.snapshotLocked())
	return s
}

// Done is closed when the subscription ends.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Close unsubscribes. It is safe to call more than once.
func (s *Subscription) Close() {
	p := s.player
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.subs[s]; !ok {
		return
	}
	delete(p.subs, s)
	s.closeLocked()
}

// send replaces any pending snapshot with state. Callers hold the player
// lock, so there is a single sender.
func (s *Subscription) send(state core.PlaybackState) {
	select {
	case <-s.updates:
	default:
	}
	select {
	case s.updates <- state:
	default:
	}
}

func (s *Subscription) sendErr(err error) {
	select {
	case s.errs <- err:
	default:
	}
}

func (s *Subscription) closeLocked() {
	close(s.done)
	close(s.updates)
	close(s.errs)
}
