package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/ppiankov/wayfare/internal/cache"
	"github.com/ppiankov/wayfare/internal/currency"
	"github.com/ppiankov/wayfare/internal/llm"
	"github.com/ppiankov/wayfare/internal/metrics"
	"github.com/ppiankov/wayfare/internal/model"
	"github.com/ppiankov/wayfare/internal/pipeline"
	"github.com/ppiankov/wayfare/internal/worker"
	"go.uber.org/zap"
)

// app holds what every command needs: config, logger and the rate state
type app struct {
	cfg        *model.Config
	logger     *zap.Logger
	normalizer *currency.Normalizer
	source     currency.Source
	refresher  *currency.Refresher
	metrics    *metrics.Collector
}

// newApp loads config and seeds the normalizer with the configured static
// rates, so every command works offline. A nil collector disables metrics.
func newApp(collector *metrics.Collector) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg.Log)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, metrics: collector}
	a.source = a.rateSource()

	seed, err := a.seed()
	if err != nil {
		return nil, err
	}
	a.normalizer = currency.NewNormalizer(seed, cfg.Currency.MaxAge, logger.Named("currency"))

	var observer currency.RefreshObserver
	if collector != nil {
		observer = collector
		collector.TrackSnapshot(seed)
	}
	a.refresher = currency.NewRefresher(a.source, a.normalizer, cfg.Currency.RefreshInterval, observer, logger.Named("refresher"))
	return a, nil
}

// rateSource picks the feed: HTTP, then file, then the static table
func (a *app) rateSource() currency.Source {
	c := a.cfg.Currency
	switch {
	case c.SourceURL != "":
		var store cache.Cache
		if a.cfg.Cache.Enabled {
			store = cache.NewLayeredCache(a.cfg.Cache.MemoryTTL, a.cfg.Cache.Dir, a.cfg.Cache.DiskTTL)
		}
		limiter := worker.NewLimiter(c.RequestsPerSecond, 1)
		return currency.NewHTTPSource(c, limiter, store, a.logger.Named("feed"))
	case c.SourceFile != "":
		return currency.NewFileSource(c.SourceFile)
	default:
		return currency.NewStaticSource(c.Rates)
	}
}

// seed builds the snapshot used before the first refresh. Behind a live
// feed the bundled table is stamped at the epoch, so it reads as stale and
// any fetched snapshot replaces it.
func (a *app) seed() (*currency.Snapshot, error) {
	rates := a.cfg.Currency.Rates
	if len(rates) == 0 {
		return nil, nil
	}
	if _, static := a.source.(*currency.StaticSource); static {
		snap, err := a.source.Fetch(context.Background())
		if err != nil {
			return nil, fmt.Errorf("static rates: %w", err)
		}
		return snap, nil
	}
	snap, err := currency.NewSnapshot(time.Unix(0, 0).UTC(), "bundled", rates)
	if err != nil {
		return nil, fmt.Errorf("bundled rates: %w", err)
	}
	return snap, nil
}

// refreshOnce pulls live rates when a feed is configured. Failure keeps the
// static seed and is only logged.
func (a *app) refreshOnce(ctx context.Context) {
	if _, static := a.source.(*currency.StaticSource); static {
		return
	}
	if err := a.refresher.Refresh(ctx); err != nil {
		a.logger.Warn("using bundled rates", zap.Error(err))
	}
}

// pipeline builds the ranking pipeline. Narration is attached only when
// narrate is set and an LLM provider is configured.
func (a *app) pipeline(narrate bool, limit int) (*pipeline.Pipeline, error) {
	opts := pipeline.Options{
		Limit:  limit,
		Logger: a.logger.Named("pipeline"),
	}
	if a.metrics != nil {
		opts.Observer = a.metrics
	}

	if narrate {
		narrator, err := llm.NewNarrator(llm.ApplyEnv(llm.ConfigFromModel(a.cfg.LLM)), a.logger.Named("llm"))
		if err != nil {
			return nil, err
		}
		if !narrator.IsEnabled() {
			return nil, fmt.Errorf("narration requested but no LLM provider is configured (set llm.provider)")
		}
		opts.Narrator = narrator
	}

	return pipeline.NewFromConfig(a.cfg, a.normalizer, opts), nil
}

func (a *app) close() {
	_ = a.logger.Sync()
}
