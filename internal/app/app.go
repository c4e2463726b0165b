package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/five82/tally/internal/config"
	"github.com/five82/tally/internal/inventory"
	"github.com/five82/tally/internal/logging"
	"github.com/five82/tally/internal/metrics"
	"github.com/five82/tally/internal/prefs"
	"github.com/five82/tally/internal/state"
	"github.com/five82/tally/internal/ui"
)

// Options configure the tally application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/tally/prefs.toml
	PollEvery  int    // seconds; zero uses poll_interval from config
}

// Run boots the tally TUI until the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, closeLog, err := logging.New(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = closeLog() }()

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		logger.Warn("using default preferences", zap.Error(err))
	}

	m := metrics.New()
	client, err := inventory.NewClient(cfg.APIURL,
		inventory.WithTimeout(cfg.RequestTimeout),
		inventory.WithObserver(m.ObserveRequest),
	)
	if err != nil {
		return fmt.Errorf("init inventory client: %w", err)
	}
	logger.Info("starting tally",
		zap.String("api", client.BaseURL()),
		zap.Int("page_size", cfg.PageSize),
	)

	store := &state.Store{}

	interval := cfg.PollInterval
	if opts.PollEvery > 0 {
		interval = time.Duration(opts.PollEvery) * time.Second
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.MetricsBind != "" {
		go func() {
			if err := m.Serve(ctx, cfg.MetricsBind, logger.Named("metrics")); err != nil {
				logger.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}

	// Populate the store before the first frame, then keep it fresh.
	refresh(ctx, store, client, logger.Named("poller"), m)
	StartPoller(ctx, store, client, interval, logger.Named("poller"), m)

	return ui.Run(ui.Options{
		Context:   ctx,
		API:       client,
		Store:     store,
		Config:    &cfg,
		Logger:    logger.Named("ui"),
		Metrics:   m,
		ThemeName: userPrefs.Theme,
		SalesSort: userPrefs.SalesSort,
		PrefsPath: opts.PrefsPath,
	})
}
