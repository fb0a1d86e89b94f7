// Package domain holds the order and payment aggregates, the payment intent,
// idempotency records and the events exchanged between the two aggregates.
package domain

import (
	"time"
)

// PaymentStatus represents the current state of a payment in its lifecycle
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusApproved PaymentStatus = "APPROVED"
	PaymentStatusCanceled PaymentStatus = "CANCELED"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

// Payment moves strictly PENDING -> APPROVED -> CANCELED -> REFUNDED.
// Running totals hold canceledAmount <= paidAmount and
// refundedAmount <= canceledAmount.
type Payment struct {
	id             string
	orderID        string
	paidAmount     int64
	canceledAmount int64
	refundedAmount int64
	status         PaymentStatus
	providerTxnID  string
	cancelReason   *string
	refundReason   *string
	createdAt      time.Time
	approvedAt     *time.Time
	canceledAt     *time.Time
	refundedAt     *time.Time
	version        int64
}

func NewPayment(id, orderID string, paidAmount int64, providerTxnID string, now time.Time) (*Payment, error) {
	if id == "" {
		return nil, NewMissingRequiredFieldError("payment id")
	}
	if orderID == "" {
		return nil, NewMissingRequiredFieldError("order id")
	}
	if providerTxnID == "" {
		return nil, NewMissingRequiredFieldError("provider transaction id")
	}
	if paidAmount <= 0 {
		return nil, ErrInvalidPaymentAmount
	}

	return &Payment{
		id:            id,
		orderID:       orderID,
		paidAmount:    paidAmount,
		status:        PaymentStatusPending,
		providerTxnID: providerTxnID,
		createdAt:     now,
	}, nil
}

// ReconstitutePayment rebuilds a payment from stored state, version included.
func ReconstitutePayment(
	id string,
	orderID string,
	paidAmount int64,
	canceledAmount int64,
	refundedAmount int64,
	status PaymentStatus,
	providerTxnID string,
	cancelReason *string,
	refundReason *string,
	createdAt time.Time,
	approvedAt *time.Time,
	canceledAt *time.Time,
	refundedAt *time.Time,
	version int64,
) *Payment {
	return &Payment{
		id:             id,
		orderID:        orderID,
		paidAmount:     paidAmount,
		canceledAmount: canceledAmount,
		refundedAmount: refundedAmount,
		status:         status,
		providerTxnID:  providerTxnID,
		cancelReason:   cancelReason,
		refundReason:   refundReason,
		createdAt:      createdAt,
		approvedAt:     approvedAt,
		canceledAt:     canceledAt,
		refundedAt:     refundedAt,
		version:        version,
	}
}

func (p *Payment) ID() string             { return p.id }
func (p *Payment) OrderID() string        { return p.orderID }
func (p *Payment) PaidAmount() int64      { return p.paidAmount }
func (p *Payment) CanceledAmount() int64  { return p.canceledAmount }
func (p *Payment) RefundedAmount() int64  { return p.refundedAmount }
func (p *Payment) Status() PaymentStatus  { return p.status }
func (p *Payment) ProviderTxnID() string  { return p.providerTxnID }
func (p *Payment) CancelReason() *string  { return p.cancelReason }
func (p *Payment) RefundReason() *string  { return p.refundReason }
func (p *Payment) CreatedAt() time.Time   { return p.createdAt }
func (p *Payment) ApprovedAt() *time.Time { return p.approvedAt }
func (p *Payment) CanceledAt() *time.Time { return p.canceledAt }
func (p *Payment) RefundedAt() *time.Time { return p.refundedAt }

// Version is the optimistic concurrency token. Repositories persist a
// change only if the stored version still equals this value.
func (p *Payment) Version() int64 { return p.version }

func (p *Payment) CanApprove() bool { return p.status == PaymentStatusPending }
func (p *Payment) CanCancel() bool  { return p.status == PaymentStatusApproved }
func (p *Payment) CanRefund() bool  { return p.status == PaymentStatusCanceled }

func (p *Payment) CancelableAmount() int64 { return p.paidAmount - p.canceledAmount }
func (p *Payment) RefundableAmount() int64 { return p.canceledAmount - p.refundedAmount }

// Approve requires the paid amount to equal the order total exactly.
func (p *Payment) Approve(expectedTotal int64, at time.Time) error {
	if !p.CanApprove() {
		return newPaymentStateError(ErrPaymentCannotApprove, p.status)
	}
	if p.paidAmount != expectedTotal {
		return NewAmountMismatchError(expectedTotal, p.paidAmount)
	}
	p.status = PaymentStatusApproved
	p.approvedAt = &at
	return nil
}

func (p *Payment) Cancel(amount int64, reason string, at time.Time) error {
	if !p.CanCancel() {
		return newPaymentStateError(ErrPaymentCannotCancel, p.status)
	}
	if amount <= 0 {
		return ErrInvalidCancelAmount
	}
	if amount > p.CancelableAmount() {
		return newAmountExceededError(ErrCancelAmountExceeded, amount, p.CancelableAmount())
	}
	p.canceledAmount += amount
	p.cancelReason = optionalString(reason)
	p.canceledAt = &at
	p.status = PaymentStatusCanceled
	return nil
}

func (p *Payment) Refund(amount int64, reason string, at time.Time) error {
	if !p.CanRefund() {
		return newPaymentStateError(ErrPaymentCannotRefund, p.status)
	}
	if amount <= 0 {
		return ErrInvalidRefundAmount
	}
	if amount > p.RefundableAmount() {
		return newAmountExceededError(ErrRefundAmountExceeded, amount, p.RefundableAmount())
	}
	p.refundedAmount += amount
	p.refundReason = optionalString(reason)
	p.refundedAt = &at
	p.status = PaymentStatusRefunded
	return nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
