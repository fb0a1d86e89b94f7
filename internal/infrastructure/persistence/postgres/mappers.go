package postgres

import (
	"encoding/json"

	"github.com/DanielPopoola/ficmart-commerce/internal/domain"
)

func toOrderDomain(m OrderModel) *domain.Order {
	return domain.ReconstituteOrder(
		m.ID,
		m.MemberID,
		m.TotalAmount,
		domain.OrderStatus(m.Status),
		m.CancelReason,
		m.CreatedAt,
		m.UpdatedAt,
	)
}

func toOrderModel(o *domain.Order) OrderModel {
	return OrderModel{
		ID:           o.ID(),
		MemberID:     o.MemberID(),
		TotalAmount:  o.TotalAmount(),
		Status:       string(o.Status()),
		CancelReason: o.CancelReason(),
		CreatedAt:    o.CreatedAt(),
		UpdatedAt:    o.UpdatedAt(),
	}
}

func toPaymentDomain(m PaymentModel) *domain.Payment {
	return domain.ReconstitutePayment(
		m.ID,
		m.OrderID,
		m.PaidAmount,
		m.CanceledAmount,
		m.RefundedAmount,
		domain.PaymentStatus(m.Status),
		m.ProviderTxnID,
		m.CancelReason,
		m.RefundReason,
		m.CreatedAt,
		m.ApprovedAt,
		m.CanceledAt,
		m.RefundedAt,
		m.Version,
	)
}

func toPaymentModel(p *domain.Payment) PaymentModel {
	return PaymentModel{
		ID:             p.ID(),
		OrderID:        p.OrderID(),
		PaidAmount:     p.PaidAmount(),
		CanceledAmount: p.CanceledAmount(),
		RefundedAmount: p.RefundedAmount(),
		Status:         string(p.Status()),
		ProviderTxnID:  p.ProviderTxnID(),
		CancelReason:   p.CancelReason(),
		RefundReason:   p.RefundReason(),
		Version:        p.Version(),
		CreatedAt:      p.CreatedAt(),
		ApprovedAt:     p.ApprovedAt(),
		CanceledAt:     p.CanceledAt(),
		RefundedAt:     p.RefundedAt(),
	}
}

func toIntentDomain(m PaymentIntentModel) *domain.PaymentIntent {
	return &domain.PaymentIntent{
		ID:             m.ID,
		OrderID:        m.OrderID,
		Amount:         m.Amount,
		SuccessURL:     m.SuccessURL,
		FailURL:        m.FailURL,
		IdempotencyKey: m.IdempotencyKey,
		CreatedAt:      m.CreatedAt,
		ExpiresAt:      m.ExpiresAt,
	}
}

func toRecordDomain(m IdempotencyRecordModel) *domain.IdempotencyRecord {
	record := &domain.IdempotencyRecord{
		Endpoint:    m.Endpoint,
		Key:         m.Key,
		RequestHash: m.RequestHash,
		Status:      domain.IdempotencyStatus(m.Status),
		Owner:       m.Owner,
		LockedAt:    m.LockedAt,
		RecordedAt:  m.RecordedAt,
	}
	if len(m.StoredResult) > 0 {
		record.StoredResult = json.RawMessage(m.StoredResult)
	}
	if m.FailureCode != nil {
		record.Failure = &domain.RecordedFailure{Code: *m.FailureCode}
		if m.FailureMessage != nil {
			record.Failure.Message = *m.FailureMessage
		}
	}
	return record
}

func toEnvelope(m OutboxEventModel) domain.EventEnvelope {
	return domain.EventEnvelope{
		ID:          m.ID,
		Type:        domain.EventType(m.EventType),
		AggregateID: m.AggregateID,
		Payload:     json.RawMessage(m.Payload),
		OccurredAt:  m.OccurredAt,
		Attempts:    m.Attempts,
	}
}

// jsonb maps an empty document to NULL.
func jsonb(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
