package playback

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/tessro/encore/internal/core"
	"github.com/tessro/encore/internal/engine/enginetest"
	encerrors "github.com/tessro/encore/internal/errors"
)

var (
	track1 = core.Track{ID: "1", Title: "Song", Artist: "Artist", Preview: "https://x/1.mp3"}
	track2 = core.Track{ID: "2", Title: "Bad", Artist: "X"}
	track3 = core.Track{ID: "3", Title: "Other", Artist: "Y", Preview: "https://x/3.mp3"}
)

func newTestPlayer(t *testing.T, opts ...Option) (*Player, *enginetest.Engine) {
	t.Helper()
	eng := enginetest.New()
	p := New(eng, opts...)
	t.Cleanup(func() { p.Close() })
	return p, eng
}

func waitState(t *testing.T, sub *Subscription, cond func(core.PlaybackState) bool) core.PlaybackState {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case s, ok := <-sub.Updates:
			if !ok {
				t.Fatal("subscription closed while waiting for state")
			}
			if cond(s) {
				return s
			}
		case <-timeout:
			t.Fatal("timed out waiting for state")
			return core.PlaybackState{}
		}
	}
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}

func playing(id string) func(core.PlaybackState) bool {
	return func(s core.PlaybackState) bool {
		return s.Track != nil && s.Track.ID == id && s.IsPlaying
	}
}

func drain(sub *Subscription) {
	for {
		select {
		case <-sub.Updates:
		default:
			return
		}
	}
}

func startPlaying(t *testing.T, p *Player, sub *Subscription, track core.Track) core.PlaybackState {
	t.Helper()
	if err := p.RequestPlayback(track); err != nil {
		t.Fatalf("RequestPlayback(%s) error = %v", track.ID, err)
	}
	return waitState(t, sub, playing(track.ID))
}

func TestRequestPlaybackStartsTrack(t *testing.T) {
	p, eng := newTestPlayer(t)
	sub := p.Subscribe()

	if err := p.RequestPlayback(track1); err != nil {
		t.Fatalf("RequestPlayback() error = %v", err)
	}

	// The track is published before the engine confirms.
	first := waitState(t, sub, func(s core.PlaybackState) bool { return s.HasTrack() })
	if first.Track.ID != "1" {
		t.Errorf("Track.ID = %q, want %q", first.Track.ID, "1")
	}

	state := waitState(t, sub, playing("1"))
	if state.Progress != 0 {
		t.Errorf("Progress = %v, want 0", state.Progress)
	}
	if got := eng.Loads(); !reflect.DeepEqual(got, []string{track1.Preview}) {
		t.Errorf("Loads() = %v, want [%s]", got, track1.Preview)
	}
	if eng.Plays() != 1 {
		t.Errorf("Plays() = %d, want 1", eng.Plays())
	}
}

func TestRequestPlaybackRejectsMissingPreview(t *testing.T) {
	tests := []struct {
		name    string
		preload *core.Track
	}{
		{"empty player", nil},
		{"while playing", &track1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, eng := newTestPlayer(t)
			sub := p.Subscribe()
			if tt.preload != nil {
				startPlaying(t, p, sub, *tt.preload)
			}
			drain(sub)

			before := p.State()
			loads := len(eng.Loads())

			for _, bad := range []core.Track{track2, {ID: "4", Title: "Blank", Preview: "   "}} {
				err := p.RequestPlayback(bad)
				if !encerrors.Is(err, encerrors.ErrNoPlayableSource) {
					t.Errorf("RequestPlayback(%s) error = %v, want ErrNoPlayableSource", bad.ID, err)
				}
			}

			if after := p.State(); !reflect.DeepEqual(before, after) {
				t.Errorf("State() = %+v, want unchanged %+v", after, before)
			}
			if got := len(eng.Loads()); got != loads {
				t.Errorf("Loads() count = %d, want %d", got, loads)
			}
			select {
			case s := <-sub.Updates:
				t.Errorf("unexpected publish after rejection: %+v", s)
			default:
			}
		})
	}
}

func TestTogglePlayback(t *testing.T) {
	p, _ := newTestPlayer(t)
	sub := p.Subscribe()
	startPlaying(t, p, sub, track1)

	if err := p.TogglePlayback(); err != nil {
		t.Fatalf("TogglePlayback() error = %v", err)
	}
	if s := p.State(); s.IsPlaying {
		t.Error("IsPlaying = true after first toggle, want false")
	}

	if err := p.TogglePlayback(); err != nil {
		t.Fatalf("TogglePlayback() error = %v", err)
	}
	if s := p.State(); !s.IsPlaying {
		t.Error("IsPlaying = false after second toggle, want true")
	}
}

func TestToggleWithoutTrack(t *testing.T) {
	p, eng := newTestPlayer(t)
	before := p.State()

	for i := 0; i < 5; i++ {
		if err := p.TogglePlayback(); err != nil {
			t.Fatalf("TogglePlayback() error = %v", err)
		}
	}

	if after := p.State(); !reflect.DeepEqual(before, after) {
		t.Errorf("State() = %+v, want %+v", after, before)
	}
	if eng.Plays() != 0 || eng.Pauses() != 0 {
		t.Errorf("engine touched: plays=%d pauses=%d", eng.Plays(), eng.Pauses())
	}
}

func TestToggleFollowsLiveEngineStatus(t *testing.T) {
	p, eng := newTestPlayer(t)
	sub := p.Subscribe()
	startPlaying(t, p, sub, track1)

	// Audio interrupted outside the player.
	eng.SetPlaying(false)

	if err := p.TogglePlayback(); err != nil {
		t.Fatalf("TogglePlayback() error = %v", err)
	}
	if !p.State().IsPlaying {
		t.Error("IsPlaying = false, want toggle to resume interrupted audio")
	}
	if eng.Plays() != 2 {
		t.Errorf("Plays() = %d, want 2", eng.Plays())
	}
	if eng.Pauses() != 0 {
		t.Errorf("Pauses() = %d, want 0", eng.Pauses())
	}
}

func TestTogglePlaybackEngineFailure(t *testing.T) {
	p, eng := newTestPlayer(t)
	sub := p.Subscribe()
	startPlaying(t, p, sub, track1)

	boom := fmt.Errorf("device busy")
	eng.FailPause(boom)

	err := p.TogglePlayback()
	if !encerrors.Is(err, boom) {
		t.Fatalf("TogglePlayback() error = %v, want %v", err, boom)
	}
	if s := p.State(); s.Track == nil || s.Track.ID != "1" {
		t.Errorf("Track = %+v, want track 1 to stay current", s.Track)
	}
}

func TestStopPlayback(t *testing.T) {
	p, eng := newTestPlayer(t)
	sub := p.Subscribe()
	startPlaying(t, p, sub, track1)

	if err := p.StopPlayback(); err != nil {
		t.Fatalf("StopPlayback() error = %v", err)
	}

	state := waitState(t, sub, func(s core.PlaybackState) bool { return !s.HasTrack() })
	if state.IsPlaying || state.Progress != 0 {
		t.Errorf("State = %+v, want empty snapshot", state)
	}

	status := eng.Status()
	if status.IsPlaying {
		t.Error("engine still playing after stop")
	}
	if status.Source != track1.Preview {
		t.Errorf("engine source = %q, want %q (not unloaded)", status.Source, track1.Preview)
	}

	pauses := eng.Pauses()
	if err := p.TogglePlayback(); err != nil {
		t.Fatalf("TogglePlayback() error = %v", err)
	}
	if p.State().Track != nil {
		t.Error("toggle after stop restored a track")
	}
	if eng.Pauses() != pauses || eng.Plays() != 1 {
		t.Errorf("toggle after stop touched engine: plays=%d pauses=%d", eng.Plays(), eng.Pauses())
	}
}

func TestStopPlaybackPauseFailure(t *testing.T) {
	p, eng := newTestPlayer(t)
	sub := p.Subscribe()
	startPlaying(t, p, sub, track1)

	eng.FailPause(fmt.Errorf("device gone"))

	if err := p.StopPlayback(); err == nil {
		t.Error("StopPlayback() error = nil, want pause failure")
	}
	if p.State().Track != nil {
		t.Error("track still current after failed pause")
	}
}

func TestStopCancelsPendingLoad(t *testing.T) {
	p, eng := newTestPlayer(t)
	release := eng.Block(track1.Preview)
	defer release()

	if err := p.RequestPlayback(track1); err != nil {
		t.Fatalf("RequestPlayback() error = %v", err)
	}
	if err := p.StopPlayback(); err != nil {
		t.Fatalf("StopPlayback() error = %v", err)
	}
	release()
	p.wg.Wait()

	if p.State().Track != nil {
		t.Error("track current after stop")
	}
	if eng.Plays() != 0 {
		t.Errorf("Plays() = %d, want 0", eng.Plays())
	}
}

func TestProgress(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		total   time.Duration
		want    float64
	}{
		{"quarter", 50 * time.Second, 200 * time.Second, 25},
		{"unknown total", 0, 0, 0},
		{"elapsed before metadata", 3 * time.Second, 0, 0},
		{"overrun", 31 * time.Second, 30 * time.Second, 100},
	}

	p, eng := newTestPlayer(t)
	sub := p.Subscribe()
	startPlaying(t, p, sub, track1)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng.SetPosition(tt.elapsed, tt.total)
			p.Refresh()

			got := p.State().Progress
			if got != tt.want {
				t.Errorf("Progress = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProgressAlwaysFinite(t *testing.T) {
	p, eng := newTestPlayer(t)
	sub := p.Subscribe()
	startPlaying(t, p, sub, track1)

	positions := []time.Duration{-time.Second, 0, 1, time.Second, 30 * time.Second, math.MaxInt64}
	for _, elapsed := range positions {
		for _, total := range positions {
			eng.SetPosition(elapsed, total)
			p.Refresh()

			got := p.State().Progress
			if math.IsNaN(got) || math.IsInf(got, 0) || got < 0 || got > 100 {
				t.Errorf("Progress(%v, %v) = %v, want finite in [0,100]", elapsed, total, got)
			}
		}
	}
}

func TestSwapSupersedesPendingLoad(t *testing.T) {
	p, eng := newTestPlayer(t)
	sub := p.Subscribe()

	releaseA := eng.Block(track1.Preview)
	defer releaseA()

	if err := p.RequestPlayback(track1); err != nil {
		t.Fatalf("RequestPlayback(1) error = %v", err)
	}
	if err := p.RequestPlayback(track3); err != nil {
		t.Fatalf("RequestPlayback(3) error = %v", err)
	}

	waitState(t, sub, playing("3"))
	releaseA()
	p.wg.Wait()

	state := p.State()
	if state.Track == nil || state.Track.ID != "3" {
		t.Fatalf("Track = %+v, want track 3", state.Track)
	}
	if eng.Source() != track3.Preview {
		t.Errorf("engine source = %q, want %q", eng.Source(), track3.Preview)
	}
	if eng.Plays() != 1 {
		t.Errorf("Plays() = %d, want 1", eng.Plays())
	}
}

func TestLateLoadFromEngineIgnoringCancel(t *testing.T) {
	p, eng := newTestPlayer(t)
	eng.IgnoreCancel(true)
	sub := p.Subscribe()

	releaseA := eng.Block(track1.Preview)
	defer releaseA()

	if err := p.RequestPlayback(track1); err != nil {
		t.Fatalf("RequestPlayback(1) error = %v", err)
	}
	startPlaying(t, p, sub, track3)

	// The stale load swaps the engine slot back to track 1.
	releaseA()
	eventually(t, func() bool { return eng.Source() == track1.Preview })
	p.wg.Wait()
	p.Refresh()

	state := p.State()
	if state.Track == nil || state.Track.ID != "3" {
		t.Fatalf("Track = %+v, want track 3", state.Track)
	}
	if state.IsPlaying {
		t.Error("IsPlaying = true while the engine holds another source")
	}
	if eng.Plays() != 1 {
		t.Errorf("Plays() = %d, want stale load never played", eng.Plays())
	}
}

func TestSwapSilencesPreviousTrack(t *testing.T) {
	tests := []struct {
		name  string
		setup func(eng *enginetest.Engine) (cleanup func())
	}{
		{"pending load", func(eng *enginetest.Engine) func() {
			return eng.Block(track3.Preview)
		}},
		{"failed load", func(eng *enginetest.Engine) func() {
			eng.FailLoad(track3.Preview, fmt.Errorf("decode failed"))
			return func() {}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, eng := newTestPlayer(t)
			sub := p.Subscribe()
			startPlaying(t, p, sub, track1)

			cleanup := tt.setup(eng)
			defer cleanup()

			if err := p.RequestPlayback(track3); err != nil {
				t.Fatalf("RequestPlayback(3) error = %v", err)
			}

			// The old source is paused before the new one is loaded.
			live := eng.Status()
			if live.IsPlaying {
				t.Errorf("engine still playing %s after swap", live.Source)
			}
			if eng.Pauses() != 1 {
				t.Errorf("Pauses() = %d, want 1", eng.Pauses())
			}

			state := p.State()
			if state.Track == nil || state.Track.ID != "3" || state.IsPlaying {
				t.Errorf("State() = %+v, want track 3 not playing", state)
			}
		})
	}
}

func TestFailedSwapStaysSilent(t *testing.T) {
	p, eng := newTestPlayer(t)
	sub := p.Subscribe()
	startPlaying(t, p, sub, track1)

	eng.FailLoad(track3.Preview, fmt.Errorf("decode failed"))
	if err := p.RequestPlayback(track3); err != nil {
		t.Fatalf("RequestPlayback(3) error = %v", err)
	}

	select {
	case err := <-sub.Errors:
		if !encerrors.Is(err, encerrors.ErrAdapterLoad) {
			t.Errorf("error = %v, want ErrAdapterLoad", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no load error delivered")
	}

	// Toggle cannot resume the old source for the failed track.
	if err := p.TogglePlayback(); err != nil {
		t.Fatalf("TogglePlayback() error = %v", err)
	}
	p.Refresh()
	if live := eng.Status(); live.IsPlaying {
		t.Errorf("engine playing %s after failed swap", live.Source)
	}
	if p.State().IsPlaying {
		t.Error("IsPlaying = true after failed swap")
	}
}

func TestSwapPauseFailureIsNotReturned(t *testing.T) {
	p, eng := newTestPlayer(t)
	sub := p.Subscribe()
	startPlaying(t, p, sub, track1)

	eng.FailPause(fmt.Errorf("device busy"))
	if err := p.RequestPlayback(track3); err != nil {
		t.Fatalf("RequestPlayback(3) error = %v, want nil", err)
	}
	waitState(t, sub, playing("3"))
}

func TestLoadFailureKeepsTrack(t *testing.T) {
	p, eng := newTestPlayer(t)
	sub := p.Subscribe()

	boom := fmt.Errorf("decode failed")
	eng.FailLoad(track1.Preview, boom)

	if err := p.RequestPlayback(track1); err != nil {
		t.Fatalf("RequestPlayback() error = %v, want nil (load is asynchronous)", err)
	}

	select {
	case err := <-sub.Errors:
		if !encerrors.Is(err, encerrors.ErrAdapterLoad) {
			t.Errorf("error = %v, want ErrAdapterLoad", err)
		}
		if !encerrors.Is(err, boom) {
			t.Errorf("error = %v, want wrapping %v", err, boom)
		}
		var loadErr *LoadError
		if !encerrors.As(err, &loadErr) || loadErr.Track.ID != "1" {
			t.Errorf("error = %#v, want *LoadError for track 1", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for load error")
	}

	p.Refresh()
	state := p.State()
	if state.Track == nil || state.Track.ID != "1" {
		t.Errorf("Track = %+v, want track 1 kept after failure", state.Track)
	}
	if state.IsPlaying {
		t.Error("IsPlaying = true after failed load")
	}
	if err := p.TogglePlayback(); err != nil {
		t.Errorf("TogglePlayback() error = %v", err)
	}
	if eng.Plays() != 0 {
		t.Errorf("Plays() = %d, want 0", eng.Plays())
	}
}

func TestPlayFailureCanBeRetried(t *testing.T) {
	p, eng := newTestPlayer(t)
	sub := p.Subscribe()

	eng.FailPlay(fmt.Errorf("no audio device"))
	if err := p.RequestPlayback(track1); err != nil {
		t.Fatalf("RequestPlayback() error = %v", err)
	}

	select {
	case err := <-sub.Errors:
		if !encerrors.Is(err, encerrors.ErrAdapterLoad) {
			t.Errorf("error = %v, want ErrAdapterLoad", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for play error")
	}

	eng.FailPlay(nil)
	if err := p.TogglePlayback(); err != nil {
		t.Fatalf("TogglePlayback() error = %v", err)
	}
	if !p.State().IsPlaying {
		t.Error("IsPlaying = false after retry")
	}
}

func TestStaleStatusDropped(t *testing.T) {
	p, eng := newTestPlayer(t)
	sub := p.Subscribe()
	startPlaying(t, p, sub, track1)

	now := time.Now()
	eng.SetSampleTime(now.Add(time.Hour))
	eng.SetPosition(10*time.Second, 30*time.Second)
	p.Refresh()

	eng.SetSampleTime(now)
	eng.SetPosition(5*time.Second, 30*time.Second)
	p.Refresh()

	if got := p.State().Elapsed; got != 10*time.Second {
		t.Errorf("Elapsed = %v, want 10s (older sample dropped)", got)
	}
}

func TestIdentityFollowsLastAcceptedRequest(t *testing.T) {
	tests := []struct {
		name string
		ops  []func(p *Player)
		want string
	}{
		{
			name: "last valid wins",
			ops: []func(p *Player){
				func(p *Player) { p.RequestPlayback(track1) },
				func(p *Player) { p.RequestPlayback(track3) },
				func(p *Player) { p.RequestPlayback(track2) },
			},
			want: "3",
		},
		{
			name: "stop clears",
			ops: []func(p *Player){
				func(p *Player) { p.RequestPlayback(track1) },
				func(p *Player) { p.StopPlayback() },
				func(p *Player) { p.RequestPlayback(track2) },
				func(p *Player) { p.TogglePlayback() },
			},
			want: "",
		},
		{
			name: "request after stop",
			ops: []func(p *Player){
				func(p *Player) { p.StopPlayback() },
				func(p *Player) { p.RequestPlayback(track3) },
				func(p *Player) { p.RequestPlayback(track1) },
			},
			want: "1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newTestPlayer(t)
			for _, op := range tt.ops {
				op(p)
			}

			got := ""
			if s := p.State(); s.Track != nil {
				got = s.Track.ID
			}
			if got != tt.want {
				t.Errorf("current track = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGenerationAdvances(t *testing.T) {
	p, _ := newTestPlayer(t)

	p.RequestPlayback(track1)
	g1 := p.State().Generation
	p.RequestPlayback(track2)
	if got := p.State().Generation; got != g1 {
		t.Errorf("Generation = %d after rejection, want %d", got, g1)
	}
	p.RequestPlayback(track3)
	if got := p.State().Generation; got <= g1 {
		t.Errorf("Generation = %d, want > %d", got, g1)
	}
}

func TestSubscribeReceivesCurrentSnapshot(t *testing.T) {
	p, _ := newTestPlayer(t)
	first := p.Subscribe()
	startPlaying(t, p, first, track1)

	late := p.Subscribe()
	select {
	case s := <-late.Updates:
		if s.Track == nil || s.Track.ID != "1" {
			t.Errorf("initial snapshot Track = %+v, want track 1", s.Track)
		}
	default:
		t.Fatal("new subscription has no initial snapshot")
	}

	late.Close()
	late.Close()
	if _, ok := <-late.Updates; ok {
		t.Error("Updates still open after Close")
	}
}

func TestRunPublishesTicks(t *testing.T) {
	p, eng := newTestPlayer(t, WithInterval(5*time.Millisecond))
	sub := p.Subscribe()
	startPlaying(t, p, sub, track1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	eng.SetPosition(15*time.Second, 30*time.Second)
	waitState(t, sub, func(s core.PlaybackState) bool { return s.Progress == 50 })

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestClose(t *testing.T) {
	p, eng := newTestPlayer(t)
	sub := p.Subscribe()
	release := eng.Block(track1.Preview)
	defer release()

	p.RequestPlayback(track1)

	if err := p.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}

	select {
	case <-sub.Done():
	default:
		t.Error("subscription not done after Close")
	}
	for range sub.Updates {
	}

	if err := p.RequestPlayback(track3); !encerrors.Is(err, encerrors.ErrClosed) {
		t.Errorf("RequestPlayback() after Close error = %v, want ErrClosed", err)
	}
	if err := p.Run(context.Background()); err != nil {
		t.Errorf("Run() after Close error = %v, want nil", err)
	}

	late := p.Subscribe()
	if _, ok := <-late.Updates; ok {
		t.Error("subscription on closed player is open")
	}
}
