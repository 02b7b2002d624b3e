package cli

import (
	"context"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tessro/encore/internal/catalog"
	"github.com/tessro/encore/internal/deezer"
	"github.com/tessro/encore/internal/engine"
	"github.com/tessro/encore/internal/history"
	"github.com/tessro/encore/internal/logging"
	"github.com/tessro/encore/internal/playback"
)

// app is the application root. Commands that play audio build exactly one
// and share its player with every surface they start.
type app struct {
	logger  zerolog.Logger
	catalog *catalog.Catalog
	engine  *engine.Beep
	player  *playback.Player
	history *history.Store // nil when disabled

	logCloser io.Closer
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// newCatalogApp builds the logger and catalog only, for commands that
// never play audio.
func newCatalogApp() (*app, error) {
	logger, closer, err := logging.New(cfg.Log, verbose)
	if err != nil {
		return nil, err
	}

	client := deezer.New(cfg.Deezer.BaseURL,
		deezer.WithTimeout(cfg.Deezer.HTTPTimeout()),
		deezer.WithLogger(logger),
	)

	return &app{
		logger:    logger,
		catalog:   catalog.New(client, logger),
		logCloser: closer,
	}, nil
}

// newApp builds the full root: engine, player, history recorder and
// catalog. The player's status loop and the recorder run until Close.
func newApp(ctx context.Context) (*app, error) {
	a, err := newCatalogApp()
	if err != nil {
		return nil, err
	}

	a.engine = engine.NewBeep(
		engine.WithSampleRate(cfg.Playback.SampleRate),
		engine.WithLogger(a.logger),
	)
	a.player = playback.New(a.engine,
		playback.WithLogger(a.logger),
		playback.WithInterval(cfg.Playback.Interval()),
	)

	var recorder *history.Recorder
	if !cfg.History.Disabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			// History is optional; playback works without it.
			a.logger.Warn().Err(err).Str("path", cfg.History.Path).Msg("history unavailable")
		} else {
			a.history = store
			recorder = history.NewRecorder(store, a.player, a.logger)
		}
	}

	ctx, a.cancel = context.WithCancel(ctx)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		_ = a.player.Run(ctx)
	}()
	if recorder != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			_ = recorder.Run(ctx)
		}()
	}

	a.logger.Debug().Msg("application started")
	return a, nil
}

// Close stops playback and releases everything newApp opened.
func (a *app) Close() error {
	if a.player != nil {
		_ = a.player.Close()
		a.cancel()
		a.wg.Wait()
		_ = a.engine.Close()
	}
	if a.history != nil {
		_ = a.history.Close()
	}
	return a.logCloser.Close()
}
