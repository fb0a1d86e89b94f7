package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DanielPopoola/ficmart-commerce/internal/domain"
)

// ErrIdempotencyRecordNotFound is returned by IdempotencyStore.Find and
// RecordCache.Get when no record exists for the key.
var ErrIdempotencyRecordNotFound = errors.New("idempotency record not found")

// UnitOfWork runs fn atomically. Calls nest: an inner WithinTx joins the
// outer transaction and can be rolled back on its own.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	// FindByIDForUpdate locks the row for the rest of the unit of work.
	FindByIDForUpdate(ctx context.Context, id string) (*domain.Order, error)
	Update(ctx context.Context, order *domain.Order) error
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	FindByID(ctx context.Context, id string) (*domain.Payment, error)
	FindByIDForUpdate(ctx context.Context, id string) (*domain.Payment, error)
	FindLatestByOrderID(ctx context.Context, orderID string) (*domain.Payment, error)
	// FindApprovedByOrderID returns domain.ErrPaymentNotFound when the order
	// has no payment in APPROVED.
	FindApprovedByOrderID(ctx context.Context, orderID string) (*domain.Payment, error)
	// Update fails with domain.ErrConcurrentModification when the stored
	// version no longer matches payment.Version().
	Update(ctx context.Context, payment *domain.Payment) error
}

type IntentRepository interface {
	Create(ctx context.Context, intent *domain.PaymentIntent) error
	// FindByID treats an expired intent as absent and purges it.
	FindByID(ctx context.Context, id string) (*domain.PaymentIntent, error)
	Delete(ctx context.Context, id string) error
	PurgeExpired(ctx context.Context, now time.Time, limit int) (int, error)
}

// IdempotencyStore is the durable (endpoint, key) -> record map.
type IdempotencyStore interface {
	Find(ctx context.Context, endpoint, key string) (*domain.IdempotencyRecord, error)
	// Claim inserts a PENDING record if none exists for (endpoint, key).
	// It reports false when another record already holds the pair.
	Claim(ctx context.Context, record *domain.IdempotencyRecord) (bool, error)
	// Complete stores the final outcome of a PENDING record held by record.Owner.
	Complete(ctx context.Context, record *domain.IdempotencyRecord) error
	// Release drops a PENDING claim so the key can be retried. Claims held by
	// another owner and completed records are left untouched.
	Release(ctx context.Context, endpoint, key, owner string) error
}

// RecordCache holds completed records only.
type RecordCache interface {
	Get(ctx context.Context, endpoint, key string) (*domain.IdempotencyRecord, error)
	Put(ctx context.Context, record *domain.IdempotencyRecord) error
}

type EventPublisher interface {
	Publish(ctx context.Context, events ...domain.Event) error
}

type OutboxRepository interface {
	Append(ctx context.Context, envelopes ...domain.EventEnvelope) error
	// FetchPending locks up to limit undelivered envelopes that are due.
	FetchPending(ctx context.Context, limit int, now time.Time) ([]domain.EventEnvelope, error)
	MarkDelivered(ctx context.Context, id string, at time.Time) error
	MarkFailed(ctx context.Context, id string, lastErr string, nextAttemptAt time.Time) error
}

// MemberDirectory is the read-only member lookup. It returns
// domain.ErrMemberNotFound for unknown or inactive members.
type MemberDirectory interface {
	FindActiveMember(ctx context.Context, memberID string) (*domain.Member, error)
}

// PaymentProvider is the port for the external payment provider.
type PaymentProvider interface {
	Confirm(ctx context.Context, req ProviderConfirmRequest) (*ProviderConfirmResponse, error)
	Cancel(ctx context.Context, req ProviderCancelRequest) (*ProviderCancelResponse, error)
}

type ProviderConfirmRequest struct {
	PaymentKey string `json:"payment_key"`
	OrderID    string `json:"order_id"`
	Amount     int64  `json:"amount"`
}

type ProviderConfirmResponse struct {
	PaymentKey  string    `json:"payment_key"`
	OrderID     string    `json:"order_id"`
	TotalAmount int64     `json:"total_amount"`
	Status      string    `json:"status"`
	ApprovedAt  time.Time `json:"approved_at"`
}

type ProviderCancelRequest struct {
	PaymentKey   string `json:"-"`
	CancelAmount int64  `json:"cancel_amount"`
	CancelReason string `json:"cancel_reason"`
	// IdempotencyKey is sent as a header. The retrying client fills it in
	// once per call when it is empty.
	IdempotencyKey string `json:"-"`
}

type ProviderCancelResponse struct {
	PaymentKey     string `json:"payment_key"`
	Status         string `json:"status"`
	CanceledAmount int64  `json:"canceled_amount"`
}

// ProviderAPIError is a non-2xx answer from the provider.
type ProviderAPIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *ProviderAPIError) Error() string {
	return fmt.Sprintf("provider error [%d] %s: %s", e.StatusCode, e.Code, e.Message)
}

// ProviderNetworkError means the provider could not be reached or its
// answer could not be read.
type ProviderNetworkError struct {
	Err error
}

func (e *ProviderNetworkError) Error() string {
	return fmt.Sprintf("provider unreachable: %v", e.Err)
}

func (e *ProviderNetworkError) Unwrap() error {
	return e.Err
}
