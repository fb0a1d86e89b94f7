package services_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DanielPopoola/ficmart-commerce/internal/application/events"
	"github.com/DanielPopoola/ficmart-commerce/internal/application/idempotency"
	"github.com/DanielPopoola/ficmart-commerce/internal/application/services"
	"github.com/DanielPopoola/ficmart-commerce/internal/config"
	"github.com/DanielPopoola/ficmart-commerce/internal/domain"
	"github.com/DanielPopoola/ficmart-commerce/internal/domain/domaintest"
	"github.com/DanielPopoola/ficmart-commerce/internal/mocks"
)

type fixture struct {
	orders     *mocks.MockOrderRepository
	payments   *mocks.MockPaymentRepository
	intents    *mocks.MockIntentRepository
	records    *mocks.MockIdempotencyStore
	uow        *mocks.InMemoryUnitOfWork
	provider   *mocks.MockPaymentProvider
	members    *mocks.MockMemberDirectory
	dispatcher *events.Dispatcher
	orderSvc   *services.OrderService
	paymentSvc *services.PaymentService
}

func newFixture(t *testing.T) *fixture {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	f := &fixture{
		orders:   mocks.NewMockOrderRepository(),
		payments: mocks.NewMockPaymentRepository(),
		intents:  mocks.NewMockIntentRepository(),
		records:  mocks.NewMockIdempotencyStore(),
		provider: mocks.NewMockPaymentProvider(t),
		members:  mocks.NewMockMemberDirectory(t),
	}
	f.uow = mocks.NewInMemoryUnitOfWork(f.orders, f.payments, f.intents, f.records)
	f.dispatcher = events.NewDispatcher(logger)

	engine := idempotency.NewEngine(f.records, f.uow, config.IdempotencyConfig{
		OperationTimeout: time.Second,
		WaitTimeout:      time.Second,
		PollInterval:     5 * time.Millisecond,
	}, logger)

	f.orderSvc = services.NewOrderService(f.orders, f.members, f.uow, f.dispatcher, engine, logger)
	f.paymentSvc = services.NewPaymentService(
		f.payments, f.intents, f.orders, f.provider, f.uow, f.dispatcher, engine, 30*time.Minute, logger,
	)
	services.RegisterEventHandlers(f.dispatcher, f.orderSvc, f.paymentSvc, logger)
	return f
}

func (f *fixture) givenOrder(id string, status domain.OrderStatus, amount int64) *domain.Order {
	order := domaintest.AnOrder().WithID(id).InStatus(status).WithAmount(amount).Build()
	f.orders.Put(order)
	return order
}

func (f *fixture) givenIntent(t *testing.T, id, orderID string, amount int64) *domain.PaymentIntent {
	intent, err := domain.NewPaymentIntent(id, orderID, amount, "https://shop/ok", "https://shop/fail", "", time.Hour, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	_ = f.intents.Create(context.Background(), intent)
	return intent
}

func (f *fixture) orderStatus(t *testing.T, id string) domain.OrderStatus {
	order, err := f.orders.FindByID(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	return order.Status()
}
