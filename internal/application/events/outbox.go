package events

import (
	"context"
	"time"

	"github.com/DanielPopoola/ficmart-commerce/internal/application"
	"github.com/DanielPopoola/ficmart-commerce/internal/config"
	"github.com/DanielPopoola/ficmart-commerce/internal/domain"
	"github.com/google/uuid"
)

// OutboxPublisher writes events to the outbox inside the caller's unit of
// work. Delivery happens later, from the relay worker.
type OutboxPublisher struct {
	repo application.OutboxRepository
	now  func() time.Time
}

func NewOutboxPublisher(repo application.OutboxRepository) *OutboxPublisher {
	return &OutboxPublisher{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (p *OutboxPublisher) Publish(ctx context.Context, events ...domain.Event) error {
	if len(events) == 0 {
		return nil
	}
	envelopes := make([]domain.EventEnvelope, 0, len(events))
	for _, event := range events {
		env, err := domain.NewEventEnvelope(uuid.NewString(), event, p.now())
		if err != nil {
			return application.NewSerializationError(err)
		}
		envelopes = append(envelopes, env)
	}
	if err := p.repo.Append(ctx, envelopes...); err != nil {
		return application.NewRepositoryError(err)
	}
	return nil
}

// NewPublisher picks the delivery mode configured under events.mode.
func NewPublisher(cfg config.EventsConfig, dispatcher *Dispatcher, repo application.OutboxRepository) application.EventPublisher {
	if cfg.Mode == config.EventsModeOutbox {
		return NewOutboxPublisher(repo)
	}
	return dispatcher
}
