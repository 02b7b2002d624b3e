package history

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/tessro/encore/internal/core"
	"github.com/tessro/encore/internal/playback"
)

// Recorder writes every newly accepted track to a Store.
type Recorder struct {
	store  *Store
	sub    *playback.Subscription
	logger zerolog.Logger
}

// NewRecorder subscribes to player. The subscription starts immediately so
// no request made before Run is missed.
func NewRecorder(store *Store, player *playback.Player, logger zerolog.Logger) *Recorder {
	return &Recorder{
		store:  store,
		sub:    player.Subscribe(),
		logger: logger.With().Str("component", "history").Logger(),
	}
}

// Run records until ctx is cancelled or the player closes.
func (r *Recorder) Run(ctx context.Context) error {
	defer r.sub.Close()

	var lastGen uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case state, ok := <-r.sub.Updates:
			if !ok {
				return nil
			}
			if !state.HasTrack() || state.Generation == lastGen {
				continue
			}
			lastGen = state.Generation
			r.record(*state.Track)
		}
	}
}

func (r *Recorder) record(track core.Track) {
	if err := r.store.Add(core.HistoryEntry{Track: track}); err != nil {
		r.logger.Error().Err(err).Str("track", track.ID).Msg("failed to record history")
		return
	}
	r.logger.Debug().Str("track", track.ID).Msg("recorded")
}
