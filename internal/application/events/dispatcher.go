// Package events carries domain events from the aggregate that raised them
// to the handlers of the other aggregate.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/DanielPopoola/ficmart-commerce/internal/domain"
)

type Handler func(ctx context.Context, event domain.Event) error

// Subscription is a named handler. The name identifies the handler across
// restarts so outbox deliveries can be de-duplicated per handler.
type Subscription struct {
	Name    string
	Handler Handler
}

// Dispatcher delivers events synchronously, in registration order, on the
// caller's goroutine and context. The first failing handler stops delivery
// and its error is returned to the publisher.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[domain.EventType][]Subscription
	logger   *slog.Logger
}

func NewDispatcher(logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[domain.EventType][]Subscription),
		logger:   logger,
	}
}

func (d *Dispatcher) Subscribe(eventType domain.EventType, name string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = append(d.handlers[eventType], Subscription{Name: name, Handler: h})
}

// Subscriptions returns a snapshot of the handlers for eventType.
func (d *Dispatcher) Subscriptions(eventType domain.EventType) []Subscription {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]Subscription(nil), d.handlers[eventType]...)
}

func (d *Dispatcher) Publish(ctx context.Context, events ...domain.Event) error {
	for _, event := range events {
		for _, sub := range d.Subscriptions(event.EventType()) {
			if err := sub.Handler(ctx, event); err != nil {
				d.logger.Warn("event handler failed",
					"event", event.EventType(),
					"aggregate_id", event.AggregateID(),
					"handler", sub.Name,
					"error", err,
				)
				return fmt.Errorf("%s handler %s: %w", event.EventType(), sub.Name, err)
			}
		}
	}
	return nil
}

// LogEvents returns a handler that records every event it sees.
func LogEvents(logger *slog.Logger) Handler {
	return func(ctx context.Context, event domain.Event) error {
		logger.InfoContext(ctx, "domain event",
			"event", event.EventType(),
			"aggregate_id", event.AggregateID(),
		)
		return nil
	}
}
