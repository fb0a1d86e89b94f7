package services

import (
	"context"
	"log/slog"

	"github.com/DanielPopoola/ficmart-commerce/internal/application/events"
	"github.com/DanielPopoola/ficmart-commerce/internal/domain"
)

// RegisterEventHandlers wires each aggregate's reactions to the other's
// events. Handler names are stable; the outbox relay de-duplicates on them.
func RegisterEventHandlers(d *events.Dispatcher, orders *OrderService, payments *PaymentService, logger *slog.Logger) {
	d.Subscribe(domain.EventPaymentApproved, "order.payment-approved", func(ctx context.Context, e domain.Event) error {
		return orders.HandlePaymentApproved(ctx, e.(domain.PaymentApproved))
	})
	d.Subscribe(domain.EventPaymentCanceled, "order.payment-canceled", func(ctx context.Context, e domain.Event) error {
		return orders.HandlePaymentCanceled(ctx, e.(domain.PaymentCanceled))
	})
	d.Subscribe(domain.EventOrderCanceled, "payment.order-canceled", func(ctx context.Context, e domain.Event) error {
		return payments.HandleOrderCanceled(ctx, e.(domain.OrderCanceled))
	})

	logEvents := events.LogEvents(logger)
	for _, t := range []domain.EventType{
		domain.EventOrderCreated,
		domain.EventOrderCanceled,
		domain.EventOrderPaid,
		domain.EventPaymentApproved,
		domain.EventPaymentCanceled,
	} {
		d.Subscribe(t, "audit.log", logEvents)
	}
}
