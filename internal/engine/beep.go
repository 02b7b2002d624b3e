// Package engine implements the audio engine that plays preview clips.
package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/rs/zerolog"

	"github.com/tessro/encore/internal/core"
)

// DefaultSampleRate is the speaker rate used when none is configured.
const DefaultSampleRate = 44100

// maxClipSize bounds a downloaded preview. Previews are 30 second MP3s.
const maxClipSize = 16 << 20

// Option configures a Beep engine.
type Option func(*Beep)

// WithSampleRate sets the speaker sample rate.
func WithSampleRate(rate int) Option {
	return func(b *Beep) {
		if rate > 0 {
			b.rate = beep.SampleRate(rate)
		}
	}
}

// WithHTTPClient sets the client used to fetch previews.
func WithHTTPClient(c *http.Client) Option {
	return func(b *Beep) {
		b.http = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(b *Beep) {
		b.logger = logger.With().Str("component", "engine").Logger()
	}
}

// output is where the slot's streamer is mixed. lock guards anything the
// audio callback reads.
type output interface {
	init(rate beep.SampleRate) error
	play(s beep.Streamer)
	clear()
	lock()
	unlock()
}

// speakerOutput is the system speaker, opened on first use.
type speakerOutput struct {
	once sync.Once
	err  error
}

func (o *speakerOutput) init(rate beep.SampleRate) error {
	o.once.Do(func() {
		if err := speaker.Init(rate, rate.N(100*time.Millisecond)); err != nil {
			o.err = fmt.Errorf("failed to open speaker: %w", err)
		}
	})
	return o.err
}

func (*speakerOutput) play(s beep.Streamer) { speaker.Play(s) }
func (*speakerOutput) clear()               { speaker.Clear() }
func (*speakerOutput) lock()                { speaker.Lock() }
func (*speakerOutput) unlock()              { speaker.Unlock() }

// Beep plays one MP3 source at a time through the system speaker.
type Beep struct {
	http   *http.Client
	rate   beep.SampleRate
	logger zerolog.Logger
	out    output

	// mu serializes slot changes. Fields read by the audio callback are
	// also guarded by the output lock.
	mu     sync.Mutex
	source string
	stream beep.StreamSeekCloser
	format beep.Format
	ctrl   *beep.Ctrl
}

// NewBeep creates a speaker engine. The speaker is opened on first load.
func NewBeep(opts ...Option) *Beep {
	b := &Beep{
		http:   &http.Client{Timeout: 30 * time.Second},
		rate:   DefaultSampleRate,
		logger: zerolog.Nop(),
		out:    &speakerOutput{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Load fetches and decodes source and puts it in the slot, paused.
// If ctx is cancelled before the swap the slot is left untouched.
func (b *Beep) Load(ctx context.Context, source string) error {
	data, err := b.fetch(ctx, source)
	if err != nil {
		return err
	}

	stream, format, err := mp3.Decode(memReader{bytes.NewReader(data)})
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", source, err)
	}
	return b.swap(ctx, source, stream, format)
}

// swap puts stream in the slot, paused, replacing and closing the previous
// one. stream is closed instead when ctx is already done.
func (b *Beep) swap(ctx context.Context, source string, stream beep.StreamSeekCloser, format beep.Format) error {
	if err := b.out.init(b.rate); err != nil {
		stream.Close()
		return err
	}

	ctrl := &beep.Ctrl{Streamer: b.convert(stream, format), Paused: true}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := ctx.Err(); err != nil {
		stream.Close()
		return err
	}

	b.out.clear()
	old := b.stream

	b.out.lock()
	b.source = source
	b.stream = stream
	b.format = format
	b.ctrl = ctrl
	b.out.unlock()

	b.out.play(ctrl)

	if old != nil {
		old.Close()
	}

	b.logger.Debug().
		Str("source", source).
		Int("sample_rate", int(format.SampleRate)).
		Dur("length", format.SampleRate.D(stream.Len())).
		Msg("loaded")
	return nil
}

// convert adapts stream to the output sample rate.
func (b *Beep) convert(stream beep.Streamer, format beep.Format) beep.Streamer {
	if format.SampleRate == b.rate {
		return stream
	}
	return beep.Resample(4, format.SampleRate, b.rate, stream)
}

func (b *Beep) fetch(ctx context.Context, source string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid source %q: %w", source, err)
	}

	resp, err := b.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s: status %d", source, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxClipSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", source, err)
	}
	return data, nil
}

// Play resumes the loaded source. A finished clip restarts from the top.
func (b *Beep) Play() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ctrl == nil {
		return fmt.Errorf("no source loaded")
	}

	b.out.lock()
	finished := b.stream.Position() >= b.stream.Len()
	if finished {
		if err := b.stream.Seek(0); err != nil {
			b.out.unlock()
			return fmt.Errorf("failed to rewind: %w", err)
		}
		// The mixer drops a drained streamer, and a resampler stays
		// drained, so the rewound clip goes back in under a fresh Ctrl.
		// The old one is emptied in case the mixer still holds it.
		b.ctrl.Streamer = nil
		b.ctrl = &beep.Ctrl{Streamer: b.convert(b.stream, b.format)}
	}
	b.ctrl.Paused = false
	ctrl := b.ctrl
	b.out.unlock()

	if finished {
		b.out.play(ctrl)
		b.logger.Debug().Str("source", b.source).Msg("replaying finished clip")
	}
	return nil
}

// Pause pauses the loaded source. Pausing an empty slot is a no-op.
func (b *Beep) Pause() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ctrl == nil {
		return nil
	}

	b.out.lock()
	b.ctrl.Paused = true
	b.out.unlock()
	return nil
}

// Status samples the slot.
func (b *Beep) Status() core.EngineStatus {
	b.mu.Lock()
	defer b.mu.Unlock()

	st := core.EngineStatus{Source: b.source, At: time.Now()}
	if b.ctrl == nil {
		return st
	}

	b.out.lock()
	pos, length := b.stream.Position(), b.stream.Len()
	paused := b.ctrl.Paused
	b.out.unlock()

	st.Elapsed = b.format.SampleRate.D(pos)
	st.Total = b.format.SampleRate.D(length)
	st.IsPlaying = !paused && pos < length
	return st
}

// Close stops output and releases the decoder.
func (b *Beep) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stream == nil {
		return nil
	}
	b.out.clear()
	err := b.stream.Close()
	b.stream = nil
	b.ctrl = nil
	b.source = ""
	return err
}

// memReader lets the decoder seek within a downloaded clip.
type memReader struct {
	*bytes.Reader
}

func (memReader) Close() error { return nil }

var _ core.Engine = (*Beep)(nil)
