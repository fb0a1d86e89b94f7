package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/DanielPopoola/ficmart-commerce/internal/config"
)

// Purger deletes up to limit entries that expired at or before now and
// reports how many went.
type Purger interface {
	PurgeExpired(ctx context.Context, now time.Time, limit int) (int, error)
}

// PurgeTarget names a Purger for logging.
type PurgeTarget struct {
	Name   string
	Purger Purger
}

// maxPurgeRounds bounds how many full batches one tick removes per target.
const maxPurgeRounds = 10

// IntentExpirationWorker periodically removes expired payment intents and
// any other expiring state handed to it, such as cached idempotency records.
type IntentExpirationWorker struct {
	targets   []PurgeTarget
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
	now       func() time.Time
}

func NewIntentExpirationWorker(cfg config.WorkerConfig, logger *slog.Logger, targets ...PurgeTarget) *IntentExpirationWorker {
	return &IntentExpirationWorker{
		targets:   targets,
		interval:  cfg.Interval,
		batchSize: cfg.BatchSize,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (w *IntentExpirationWorker) Start(ctx context.Context) {
	w.logger.Info("expiration worker started", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	if _, err := w.PurgeOnce(ctx); err != nil {
		w.logger.Error("expiration processing failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("expiration worker stopping")
			return
		case <-ticker.C:
			if _, err := w.PurgeOnce(ctx); err != nil {
				w.logger.Error("expiration processing failed", "error", err)
			}
		}
	}
}

// PurgeOnce runs one pass over every target. A failing target does not stop
// the others; their errors are joined.
func (w *IntentExpirationWorker) PurgeOnce(ctx context.Context) (int, error) {
	now := w.now()
	var total int
	var errs []error

	for _, target := range w.targets {
		purged, err := w.purgeTarget(ctx, target, now)
		total += purged
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if purged > 0 {
			w.logger.Info("purged expired entries", "target", target.Name, "count", purged)
		}
	}

	return total, errors.Join(errs...)
}

func (w *IntentExpirationWorker) purgeTarget(ctx context.Context, target PurgeTarget, now time.Time) (int, error) {
	var purged int
	for round := 0; round < maxPurgeRounds; round++ {
		if err := ctx.Err(); err != nil {
			return purged, err
		}
		n, err := target.Purger.PurgeExpired(ctx, now, w.batchSize)
		purged += n
		if err != nil {
			w.logger.Error("purge failed", "target", target.Name, "error", err)
			return purged, err
		}
		if n < w.batchSize {
			break
		}
	}
	return purged, nil
}
