// Package domaintest builds aggregates in arbitrary states for tests.
package domaintest

import (
	"time"

	"github.com/DanielPopoola/ficmart-commerce/internal/domain"
)

var DefaultTime = time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

type OrderBuilder struct {
	id           string
	memberID     string
	totalAmount  int64
	status       domain.OrderStatus
	cancelReason *string
	createdAt    time.Time
}

func AnOrder() *OrderBuilder {
	return &OrderBuilder{
		id:          "order-1",
		memberID:    "member-1",
		totalAmount: 10000,
		status:      domain.OrderStatusCreated,
		createdAt:   DefaultTime,
	}
}

func (b *OrderBuilder) WithID(id string) *OrderBuilder {
	b.id = id
	return b
}

func (b *OrderBuilder) WithMember(memberID string) *OrderBuilder {
	b.memberID = memberID
	return b
}

func (b *OrderBuilder) WithAmount(amount int64) *OrderBuilder {
	b.totalAmount = amount
	return b
}

func (b *OrderBuilder) InStatus(status domain.OrderStatus) *OrderBuilder {
	b.status = status
	return b
}

func (b *OrderBuilder) Build() *domain.Order {
	return domain.ReconstituteOrder(b.id, b.memberID, b.totalAmount, b.status, b.cancelReason, b.createdAt, b.createdAt)
}

type PaymentBuilder struct {
	id             string
	orderID        string
	paidAmount     int64
	canceledAmount int64
	refundedAmount int64
	status         domain.PaymentStatus
	providerTxnID  string
	version        int64
}

func APayment() *PaymentBuilder {
	return &PaymentBuilder{
		id:            "payment-1",
		orderID:       "order-1",
		paidAmount:    10000,
		status:        domain.PaymentStatusPending,
		providerTxnID: "txn-1",
	}
}

func (b *PaymentBuilder) WithID(id string) *PaymentBuilder {
	b.id = id
	return b
}

func (b *PaymentBuilder) ForOrder(orderID string) *PaymentBuilder {
	b.orderID = orderID
	return b
}

func (b *PaymentBuilder) WithPaidAmount(amount int64) *PaymentBuilder {
	b.paidAmount = amount
	return b
}

func (b *PaymentBuilder) WithCanceledAmount(amount int64) *PaymentBuilder {
	b.canceledAmount = amount
	return b
}

func (b *PaymentBuilder) WithRefundedAmount(amount int64) *PaymentBuilder {
	b.refundedAmount = amount
	return b
}

func (b *PaymentBuilder) WithProviderTxnID(txnID string) *PaymentBuilder {
	b.providerTxnID = txnID
	return b
}

func (b *PaymentBuilder) WithVersion(version int64) *PaymentBuilder {
	b.version = version
	return b
}

func (b *PaymentBuilder) InStatus(status domain.PaymentStatus) *PaymentBuilder {
	b.status = status
	return b
}

// Approved is shorthand for InStatus(APPROVED).
func (b *PaymentBuilder) Approved() *PaymentBuilder {
	b.status = domain.PaymentStatusApproved
	return b
}

func (b *PaymentBuilder) Build() *domain.Payment {
	var approvedAt, canceledAt, refundedAt *time.Time
	at := DefaultTime
	switch b.status {
	case domain.PaymentStatusRefunded:
		refundedAt = &at
		fallthrough
	case domain.PaymentStatusCanceled:
		canceledAt = &at
		fallthrough
	case domain.PaymentStatusApproved:
		approvedAt = &at
	}
	return domain.ReconstitutePayment(
		b.id, b.orderID, b.paidAmount, b.canceledAmount, b.refundedAmount, b.status,
		b.providerTxnID, nil, nil, DefaultTime, approvedAt, canceledAt, refundedAt, b.version,
	)
}
