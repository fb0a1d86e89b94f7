package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/DanielPopoola/ficmart-commerce/internal/application"
	"github.com/DanielPopoola/ficmart-commerce/internal/application/events"
	"github.com/DanielPopoola/ficmart-commerce/internal/application/idempotency"
	"github.com/DanielPopoola/ficmart-commerce/internal/config"
	"github.com/DanielPopoola/ficmart-commerce/internal/domain"
)

const maxRelayBackoff = time.Hour

// SubscriptionSource lists the handlers registered for an event type.
type SubscriptionSource interface {
	Subscriptions(eventType domain.EventType) []events.Subscription
}

// OutboxRelay delivers outbox envelopes to the registered handlers. Each
// (handler, event) pair runs at most once through the idempotency engine,
// so a batch that partially failed can be retried as a whole.
type OutboxRelay struct {
	uow       application.UnitOfWork
	outbox    application.OutboxRepository
	subs      SubscriptionSource
	engine    *idempotency.Engine
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
	now       func() time.Time
}

func NewOutboxRelay(
	uow application.UnitOfWork,
	outbox application.OutboxRepository,
	subs SubscriptionSource,
	engine *idempotency.Engine,
	cfg config.WorkerConfig,
	logger *slog.Logger,
) *OutboxRelay {
	return &OutboxRelay{
		uow:       uow,
		outbox:    outbox,
		subs:      subs,
		engine:    engine,
		interval:  cfg.Interval,
		batchSize: cfg.BatchSize,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (r *OutboxRelay) Start(ctx context.Context) {
	r.logger.Info("outbox relay started", "interval", r.interval, "batch_size", r.batchSize)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay stopping")
			return
		case <-ticker.C:
			if _, err := r.RelayOnce(ctx); err != nil {
				r.logger.Error("outbox relay failed", "error", err)
			}
		}
	}
}

// RelayOnce delivers one batch of due envelopes and returns how many were
// delivered. Envelopes whose handlers fail are rescheduled, not returned as
// an error.
func (r *OutboxRelay) RelayOnce(ctx context.Context) (int, error) {
	var delivered int
	err := r.uow.WithinTx(ctx, func(ctx context.Context) error {
		now := r.now()
		pending, err := r.outbox.FetchPending(ctx, r.batchSize, now)
		if err != nil {
			return fmt.Errorf("fetch pending events: %w", err)
		}

		for _, env := range pending {
			if err := r.deliver(ctx, env); err != nil {
				next := now.Add(r.backoff(env.Attempts))
				r.logger.Warn("event delivery failed",
					"event_id", env.ID,
					"event", env.Type,
					"attempts", env.Attempts+1,
					"next_attempt_at", next,
					"error", err)
				if err := r.outbox.MarkFailed(ctx, env.ID, err.Error(), next); err != nil {
					return fmt.Errorf("mark event %s failed: %w", env.ID, err)
				}
				continue
			}

			if err := r.outbox.MarkDelivered(ctx, env.ID, r.now()); err != nil {
				return fmt.Errorf("mark event %s delivered: %w", env.ID, err)
			}
			delivered++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return delivered, nil
}

func (r *OutboxRelay) deliver(ctx context.Context, env domain.EventEnvelope) error {
	event, err := domain.DecodeEvent(env)
	if err != nil {
		return err
	}

	for _, sub := range r.subs.Subscriptions(env.Type) {
		handler := sub.Handler
		_, _, err := idempotency.Execute(ctx, r.engine, idempotency.Request{
			Endpoint:    "event:" + sub.Name,
			Key:         env.ID,
			Fingerprint: string(env.Type) + ":" + env.AggregateID,
		}, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, handler(ctx, event)
		})
		if err != nil {
			return fmt.Errorf("handler %s: %w", sub.Name, err)
		}
	}
	return nil
}

// backoff doubles the worker interval per failed attempt, capped at an hour.
func (r *OutboxRelay) backoff(attempts int) time.Duration {
	delay := r.interval
	for i := 0; i < attempts && delay < maxRelayBackoff; i++ {
		delay *= 2
	}
	return min(delay, maxRelayBackoff)
}
