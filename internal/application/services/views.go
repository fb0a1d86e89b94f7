package services

import (
	"time"

	"github.com/DanielPopoola/ficmart-commerce/internal/domain"
)

// Views are what commands return and what the idempotency store records.

type OrderView struct {
	ID           string                   `json:"id"`
	MemberID     string                   `json:"member_id"`
	TotalAmount  int64                    `json:"total_amount"`
	Status       domain.OrderStatus       `json:"status"`
	LegacyStatus domain.LegacyOrderStatus `json:"legacy_status"`
	CancelReason *string                  `json:"cancel_reason,omitempty"`
	CreatedAt    time.Time                `json:"created_at"`
	UpdatedAt    time.Time                `json:"updated_at"`
}

type PaymentView struct {
	ID             string               `json:"id"`
	OrderID        string               `json:"order_id"`
	PaidAmount     int64                `json:"paid_amount"`
	CanceledAmount int64                `json:"canceled_amount"`
	RefundedAmount int64                `json:"refunded_amount"`
	Status         domain.PaymentStatus `json:"status"`
	ProviderTxnID  string               `json:"provider_txn_id"`
	CreatedAt      time.Time            `json:"created_at"`
	ApprovedAt     *time.Time           `json:"approved_at,omitempty"`
	CanceledAt     *time.Time           `json:"canceled_at,omitempty"`
	RefundedAt     *time.Time           `json:"refunded_at,omitempty"`
}

type IntentView struct {
	IntentID   string    `json:"intent_id"`
	OrderID    string    `json:"order_id"`
	Amount     int64     `json:"amount"`
	SuccessURL string    `json:"success_url"`
	FailURL    string    `json:"fail_url"`
	ExpiresAt  time.Time `json:"expires_at"`
}

func toOrderView(o *domain.Order) *OrderView {
	return &OrderView{
		ID:           o.ID(),
		MemberID:     o.MemberID(),
		TotalAmount:  o.TotalAmount(),
		Status:       o.Status(),
		LegacyStatus: o.Status().Legacy(),
		CancelReason: o.CancelReason(),
		CreatedAt:    o.CreatedAt(),
		UpdatedAt:    o.UpdatedAt(),
	}
}

func toPaymentView(p *domain.Payment) *PaymentView {
	return &PaymentView{
		ID:             p.ID(),
		OrderID:        p.OrderID(),
		PaidAmount:     p.PaidAmount(),
		CanceledAmount: p.CanceledAmount(),
		RefundedAmount: p.RefundedAmount(),
		Status:         p.Status(),
		ProviderTxnID:  p.ProviderTxnID(),
		CreatedAt:      p.CreatedAt(),
		ApprovedAt:     p.ApprovedAt(),
		CanceledAt:     p.CanceledAt(),
		RefundedAt:     p.RefundedAt(),
	}
}

func toIntentView(i *domain.PaymentIntent) *IntentView {
	return &IntentView{
		IntentID:   i.ID,
		OrderID:    i.OrderID,
		Amount:     i.Amount,
		SuccessURL: i.SuccessURL,
		FailURL:    i.FailURL,
		ExpiresAt:  i.ExpiresAt,
	}
}
