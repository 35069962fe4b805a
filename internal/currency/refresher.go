package currency

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// RefreshObserver is told about every refresh attempt
type RefreshObserver interface {
	ObserveRefresh(source string, err error, snapshot *Snapshot)
}

// Refresher is the single writer of a Normalizer's snapshot. Refresh calls
// are serialised; a failed fetch keeps the previous snapshot.
type Refresher struct {
	source   Source
	target   *Normalizer
	interval time.Duration
	observer RefreshObserver
	logger   *zap.Logger

	mu sync.Mutex
}

// NewRefresher creates a refresher. observer may be nil.
func NewRefresher(source Source, target *Normalizer, interval time.Duration, observer RefreshObserver, logger *zap.Logger) *Refresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refresher{
		source:   source,
		target:   target,
		interval: interval,
		observer: observer,
		logger:   logger,
	}
}

// Refresh fetches one snapshot and swaps it in
func (r *Refresher) Refresh(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap, err := r.source.Fetch(ctx)
	if err == nil {
		err = r.target.Replace(snap)
	}
	if r.observer != nil {
		r.observer.ObserveRefresh(r.source.Name(), err, r.target.Snapshot())
	}
	if err != nil {
		r.logger.Warn("rate refresh failed, keeping previous snapshot",
			zap.String("source", r.source.Name()),
			zap.Error(err))
		return fmt.Errorf("refresh rates: %w", err)
	}

	r.logger.Info("rates refreshed",
		zap.String("source", snap.Source),
		zap.Int("pairs", snap.Len()),
		zap.Time("timestamp", snap.Timestamp))
	return nil
}

// Run refreshes immediately and then every interval until ctx is done.
// A non-positive interval refreshes once.
func (r *Refresher) Run(ctx context.Context) {
	_ = r.Refresh(ctx)
	if r.interval <= 0 {
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = r.Refresh(ctx)
		}
	}
}
