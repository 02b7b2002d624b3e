package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/tessro/encore/internal/core"
	"github.com/tessro/encore/internal/engine/enginetest"
	"github.com/tessro/encore/internal/playback"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err, "Failed to open history store")
	t.Cleanup(func() { store.Close() })
	return store
}

func entry(id string, at time.Time) core.HistoryEntry {
	return core.HistoryEntry{
		Track:    core.Track{ID: id, Title: "Song " + id, Preview: "https://x/" + id + ".mp3"},
		PlayedAt: at,
	}
}

func TestStore_History(t *testing.T) {
	store := openTestStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Add(entry("1", base)))
	require.NoError(t, store.Add(entry("2", base.Add(time.Minute))))
	require.NoError(t, store.Add(entry("3", base.Add(2*time.Minute))))

	history, err := store.Recent(10)
	require.NoError(t, err)
	require.Len(t, history, 3)
	require.Equal(t, "3", history[0].Track.ID, "The most recent track should be first")
	require.Equal(t, "2", history[1].Track.ID)
	require.Equal(t, "1", history[2].Track.ID)
	require.True(t, history[2].PlayedAt.Equal(base))

	require.NoError(t, store.Add(entry("1", base.Add(3*time.Minute))))

	history, err = store.Recent(10)
	require.NoError(t, err)
	require.Len(t, history, 3, "Replaying a track should not add a duplicate")
	require.Equal(t, "1", history[0].Track.ID, "The replayed track should now be first")
	require.Equal(t, "3", history[1].Track.ID)

	limited, err := store.Recent(2)
	require.NoError(t, err)
	require.Len(t, limited, 2)

	all, err := store.Recent(0)
	require.NoError(t, err)
	require.Len(t, all, 3)
}

func TestStore_AddDefaultsTime(t *testing.T) {
	store := openTestStore(t)
	fixed := time.Date(2026, 5, 5, 5, 5, 5, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	require.NoError(t, store.Add(core.HistoryEntry{Track: core.Track{ID: "9"}}))

	history, err := store.Recent(1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.True(t, history[0].PlayedAt.Equal(fixed))
}

func TestStore_RejectsMissingID(t *testing.T) {
	store := openTestStore(t)
	require.Error(t, store.Add(core.HistoryEntry{}))
}

func TestStore_Prune(t *testing.T) {
	store := openTestStore(t)
	store.maxEntries = 2
	base := time.Now()

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Add(entry(id, base.Add(time.Duration(i)*time.Second))))
	}

	history, err := store.Recent(0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, "c", history[0].Track.ID)
	require.Equal(t, "b", history[1].Track.ID)
}

func TestStore_Clear(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.Add(entry("1", time.Now())))
	require.NoError(t, store.Clear())

	history, err := store.Recent(10)
	require.NoError(t, err)
	require.Empty(t, history)

	require.NoError(t, store.Add(entry("2", time.Now())))
	history, err = store.Recent(10)
	require.NoError(t, err)
	require.Len(t, history, 1)
}

func TestRecorder(t *testing.T) {
	store := openTestStore(t)
	eng := enginetest.New()
	player := playback.New(eng)
	defer player.Close()

	rec := NewRecorder(store, player, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rec.Run(ctx) }()

	track := core.Track{ID: "42", Title: "Answer", Preview: "https://x/42.mp3"}
	require.NoError(t, player.RequestPlayback(track))

	require.Eventually(t, func() bool {
		history, err := store.Recent(10)
		return err == nil && len(history) == 1 && history[0].Track.ID == "42"
	}, 2*time.Second, 5*time.Millisecond)

	// Progress ticks for the same request are not new plays.
	player.Refresh()
	require.NoError(t, player.TogglePlayback())
	time.Sleep(20 * time.Millisecond)

	history, err := store.Recent(10)
	require.NoError(t, err)
	require.Len(t, history, 1)

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("recorder did not stop")
	}
}

func TestRecorderStopsWithPlayer(t *testing.T) {
	store := openTestStore(t)
	player := playback.New(enginetest.New())

	rec := NewRecorder(store, player, zerolog.Nop())
	done := make(chan error, 1)
	go func() { done <- rec.Run(context.Background()) }()

	require.NoError(t, player.Close())
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("recorder did not stop after player closed")
	}
}
