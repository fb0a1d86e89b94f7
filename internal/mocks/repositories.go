// Package mocks holds test doubles for the application ports: in-memory
// repositories with overridable behaviour, and generated expecter mocks for
// the external collaborators.
package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/DanielPopoola/ficmart-commerce/internal/application"
	"github.com/DanielPopoola/ficmart-commerce/internal/domain"
)

// snapshotter is implemented by every in-memory repository so
// InMemoryUnitOfWork can roll their contents back.
type snapshotter interface {
	snapshot() func()
}

// InMemoryUnitOfWork restores the registered repositories when fn fails,
// at every nesting level.
type InMemoryUnitOfWork struct {
	mu     sync.Mutex
	stores []snapshotter
	Calls  int
}

func NewInMemoryUnitOfWork(stores ...snapshotter) *InMemoryUnitOfWork {
	return &InMemoryUnitOfWork{stores: stores}
}

func (u *InMemoryUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	u.mu.Lock()
	u.Calls++
	restores := make([]func(), 0, len(u.stores))
	for _, s := range u.stores {
		restores = append(restores, s.snapshot())
	}
	u.mu.Unlock()

	if err := fn(ctx); err != nil {
		for _, restore := range restores {
			restore()
		}
		return err
	}
	return nil
}

// MockOrderRepository
type MockOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]domain.Order

	CreateFn   func(ctx context.Context, order *domain.Order) error
	UpdateFn   func(ctx context.Context, order *domain.Order) error
	FindByIDFn func(ctx context.Context, id string) (*domain.Order, error)
}

func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{orders: make(map[string]domain.Order)}
}

func (m *MockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, order)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ID()] = *order
	return nil
}

func (m *MockOrderRepository) Update(ctx context.Context, order *domain.Order) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, order)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[order.ID()]; !ok {
		return domain.NewOrderNotFoundError(order.ID())
	}
	m.orders[order.ID()] = *order
	return nil
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	if m.FindByIDFn != nil {
		return m.FindByIDFn(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if o, ok := m.orders[id]; ok {
		return &o, nil
	}
	return nil, domain.NewOrderNotFoundError(id)
}

func (m *MockOrderRepository) FindByIDForUpdate(ctx context.Context, id string) (*domain.Order, error) {
	return m.FindByID(ctx, id)
}

// Put stores order as-is, for arranging tests.
func (m *MockOrderRepository) Put(order *domain.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ID()] = *order
}

func (m *MockOrderRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.orders)
}

func (m *MockOrderRepository) snapshot() func() {
	m.mu.RLock()
	saved := make(map[string]domain.Order, len(m.orders))
	for k, v := range m.orders {
		saved[k] = v
	}
	m.mu.RUnlock()
	return func() {
		m.mu.Lock()
		m.orders = saved
		m.mu.Unlock()
	}
}

// MockPaymentRepository enforces the version token like the real one.
type MockPaymentRepository struct {
	mu       sync.RWMutex
	payments map[string]domain.Payment
	inserted map[string]int

	CreateFn func(ctx context.Context, payment *domain.Payment) error
	UpdateFn func(ctx context.Context, payment *domain.Payment) error
}

func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{
		payments: make(map[string]domain.Payment),
		inserted: make(map[string]int),
	}
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, payment)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if payment.Status() == domain.PaymentStatusApproved {
		for _, p := range m.payments {
			if p.OrderID() == payment.OrderID() && p.Status() == domain.PaymentStatusApproved {
				return domain.ErrDuplicatePaymentApproval
			}
		}
	}
	m.put(payment, 1)
	return nil
}

func (m *MockPaymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, payment)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.payments[payment.ID()]
	if !ok {
		return domain.NewPaymentNotFoundError(payment.ID())
	}
	if stored.Version() != payment.Version() {
		return domain.ErrConcurrentModification
	}
	m.put(payment, payment.Version()+1)
	return nil
}

// put stores a copy of payment at version. The copy is rebuilt so callers
// keep their own instance at the version they read.
func (m *MockPaymentRepository) put(p *domain.Payment, version int64) {
	if _, ok := m.inserted[p.ID()]; !ok {
		m.inserted[p.ID()] = len(m.inserted)
	}
	m.payments[p.ID()] = *domain.ReconstitutePayment(
		p.ID(), p.OrderID(), p.PaidAmount(), p.CanceledAmount(), p.RefundedAmount(), p.Status(),
		p.ProviderTxnID(), p.CancelReason(), p.RefundReason(), p.CreatedAt(),
		p.ApprovedAt(), p.CanceledAt(), p.RefundedAt(), version,
	)
}

func (m *MockPaymentRepository) FindByID(ctx context.Context, id string) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.payments[id]; ok {
		return &p, nil
	}
	return nil, domain.NewPaymentNotFoundError(id)
}

func (m *MockPaymentRepository) FindByIDForUpdate(ctx context.Context, id string) (*domain.Payment, error) {
	return m.FindByID(ctx, id)
}

func (m *MockPaymentRepository) FindLatestByOrderID(ctx context.Context, orderID string) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var matches []domain.Payment
	for _, p := range m.payments {
		if p.OrderID() == orderID {
			matches = append(matches, p)
		}
	}
	if len(matches) == 0 {
		return nil, domain.NewPaymentNotFoundError(orderID)
	}
	sort.Slice(matches, func(i, j int) bool { return m.inserted[matches[i].ID()] > m.inserted[matches[j].ID()] })
	return &matches[0], nil
}

func (m *MockPaymentRepository) FindApprovedByOrderID(ctx context.Context, orderID string) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.payments {
		if p.OrderID() == orderID && p.Status() == domain.PaymentStatusApproved {
			return &p, nil
		}
	}
	return nil, domain.NewPaymentNotFoundError(orderID)
}

// Put stores payment as-is, keeping its version.
func (m *MockPaymentRepository) Put(payment *domain.Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(payment, payment.Version())
}

func (m *MockPaymentRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.payments)
}

func (m *MockPaymentRepository) snapshot() func() {
	m.mu.RLock()
	saved := make(map[string]domain.Payment, len(m.payments))
	for k, v := range m.payments {
		saved[k] = v
	}
	savedOrder := make(map[string]int, len(m.inserted))
	for k, v := range m.inserted {
		savedOrder[k] = v
	}
	m.mu.RUnlock()
	return func() {
		m.mu.Lock()
		m.payments = saved
		m.inserted = savedOrder
		m.mu.Unlock()
	}
}

// MockIntentRepository
type MockIntentRepository struct {
	mu      sync.RWMutex
	intents map[string]domain.PaymentIntent
	now     func() time.Time
}

func NewMockIntentRepository() *MockIntentRepository {
	return &MockIntentRepository{
		intents: make(map[string]domain.PaymentIntent),
		now:     time.Now,
	}
}

func (m *MockIntentRepository) Create(ctx context.Context, intent *domain.PaymentIntent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intents[intent.ID] = *intent
	return nil
}

func (m *MockIntentRepository) FindByID(ctx context.Context, id string) (*domain.PaymentIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	intent, ok := m.intents[id]
	if !ok {
		return nil, domain.NewIntentNotFoundError(id)
	}
	if intent.IsExpired(m.now()) {
		delete(m.intents, id)
		return nil, domain.NewIntentNotFoundError(id)
	}
	return &intent, nil
}

func (m *MockIntentRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.intents, id)
	return nil
}

func (m *MockIntentRepository) PurgeExpired(ctx context.Context, now time.Time, limit int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	purged := 0
	for id, intent := range m.intents {
		if purged == limit {
			break
		}
		if intent.IsExpired(now) {
			delete(m.intents, id)
			purged++
		}
	}
	return purged, nil
}

func (m *MockIntentRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.intents)
}

func (m *MockIntentRepository) snapshot() func() {
	m.mu.RLock()
	saved := make(map[string]domain.PaymentIntent, len(m.intents))
	for k, v := range m.intents {
		saved[k] = v
	}
	m.mu.RUnlock()
	return func() {
		m.mu.Lock()
		m.intents = saved
		m.mu.Unlock()
	}
}

// MockOutboxRepository keeps envelopes in append order.
type MockOutboxRepository struct {
	mu        sync.Mutex
	envelopes []domain.EventEnvelope
	delivered map[string]time.Time
	failures  map[string]int
	nextAt    map[string]time.Time
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{
		delivered: make(map[string]time.Time),
		failures:  make(map[string]int),
		nextAt:    make(map[string]time.Time),
	}
}

func (m *MockOutboxRepository) Append(ctx context.Context, envelopes ...domain.EventEnvelope) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.envelopes = append(m.envelopes, envelopes...)
	return nil
}

func (m *MockOutboxRepository) FetchPending(ctx context.Context, limit int, now time.Time) ([]domain.EventEnvelope, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var pending []domain.EventEnvelope
	for _, env := range m.envelopes {
		if len(pending) == limit {
			break
		}
		if _, done := m.delivered[env.ID]; done {
			continue
		}
		if next, ok := m.nextAt[env.ID]; ok && next.After(now) {
			continue
		}
		env.Attempts = m.failures[env.ID]
		pending = append(pending, env)
	}
	return pending, nil
}

func (m *MockOutboxRepository) MarkDelivered(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delivered[id] = at
	return nil
}

func (m *MockOutboxRepository) MarkFailed(ctx context.Context, id string, lastErr string, nextAttemptAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[id]++
	m.nextAt[id] = nextAttemptAt
	return nil
}

func (m *MockOutboxRepository) Envelopes() []domain.EventEnvelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.EventEnvelope(nil), m.envelopes...)
}

func (m *MockOutboxRepository) Delivered(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.delivered[id]
	return ok
}

func (m *MockOutboxRepository) Failures(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failures[id]
}

var (
	_ application.OrderRepository   = (*MockOrderRepository)(nil)
	_ application.PaymentRepository = (*MockPaymentRepository)(nil)
	_ application.IntentRepository  = (*MockIntentRepository)(nil)
	_ application.OutboxRepository  = (*MockOutboxRepository)(nil)
	_ application.UnitOfWork        = (*InMemoryUnitOfWork)(nil)
)
