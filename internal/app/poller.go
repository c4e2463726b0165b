package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/five82/tally/internal/inventory"
	"github.com/five82/tally/internal/metrics"
	"github.com/five82/tally/internal/state"
)

const (
	defaultPollInterval = 30 * time.Second
	maxBackoff          = 5 * time.Minute
)

// ProductLister is the slice of the inventory API the poller needs.
type ProductLister interface {
	FetchProducts(ctx context.Context) ([]inventory.Product, error)
}

// calculateBackoff doubles base for every consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	delay := base
	for i := 0; i < failures; i++ {
		delay *= 2
		if delay >= maxBackoff {
			return maxBackoff
		}
	}
	return delay
}

// StartPoller launches a background goroutine that refreshes the product
// snapshot. Consecutive failures stretch the delay until the backend answers
// again. It returns immediately.
func StartPoller(ctx context.Context, store *state.Store, client ProductLister, interval time.Duration, logger *zap.Logger, m *metrics.Metrics) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	go func() {
		timer := time.NewTimer(interval)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}
			refresh(ctx, store, client, logger, m)
			timer.Reset(calculateBackoff(store.Snapshot().ConsecutiveFailures, interval))
		}
	}()
}

func refresh(ctx context.Context, store *state.Store, client ProductLister, logger *zap.Logger, m *metrics.Metrics) {
	products, err := client.FetchProducts(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		store.Update(nil, err)
		logger.Warn("product poll failed",
			zap.String("kind", inventory.Kind(err)),
			zap.Int("failures", store.Snapshot().ConsecutiveFailures),
			zap.Error(err),
		)
		return
	}
	store.Update(products, nil)
	m.SetProducts(len(products))
	logger.Debug("products refreshed", zap.Int("count", len(products)))
}
