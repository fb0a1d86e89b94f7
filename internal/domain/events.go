package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

type EventType string

const (
	EventOrderCreated    EventType = "OrderCreated"
	EventOrderCanceled   EventType = "OrderCanceled"
	EventOrderPaid       EventType = "OrderPaid"
	EventPaymentApproved EventType = "PaymentApproved"
	EventPaymentCanceled EventType = "PaymentCanceled"
)

// Event is a fact published by one aggregate for the other to react to.
type Event interface {
	EventType() EventType
	AggregateID() string
}

type OrderCreated struct {
	OrderID     string `json:"order_id"`
	MemberID    string `json:"member_id"`
	TotalAmount int64  `json:"total_amount"`
}

type OrderCanceled struct {
	OrderID string  `json:"order_id"`
	Reason  *string `json:"reason,omitempty"`
}

type OrderPaid struct {
	OrderID string `json:"order_id"`
	Amount  int64  `json:"amount"`
}

type PaymentApproved struct {
	PaymentID     string `json:"payment_id"`
	OrderID       string `json:"order_id"`
	Amount        int64  `json:"amount"`
	ProviderTxnID string `json:"provider_txn_id"`
}

type PaymentCanceled struct {
	PaymentID string      `json:"payment_id"`
	OrderID   string      `json:"order_id"`
	Amount    int64       `json:"amount"`
	Cause     CancelCause `json:"cause"`
}

func (OrderCreated) EventType() EventType    { return EventOrderCreated }
func (OrderCanceled) EventType() EventType   { return EventOrderCanceled }
func (OrderPaid) EventType() EventType       { return EventOrderPaid }
func (PaymentApproved) EventType() EventType { return EventPaymentApproved }
func (PaymentCanceled) EventType() EventType { return EventPaymentCanceled }

func (e OrderCreated) AggregateID() string    { return e.OrderID }
func (e OrderCanceled) AggregateID() string   { return e.OrderID }
func (e OrderPaid) AggregateID() string       { return e.OrderID }
func (e PaymentApproved) AggregateID() string { return e.PaymentID }
func (e PaymentCanceled) AggregateID() string { return e.PaymentID }

// EventEnvelope is the stored form of an event, as written to the outbox.
type EventEnvelope struct {
	ID          string
	Type        EventType
	AggregateID string
	Payload     json.RawMessage
	OccurredAt  time.Time
	// Attempts counts failed deliveries so far.
	Attempts int
}

func NewEventEnvelope(id string, event Event, now time.Time) (EventEnvelope, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return EventEnvelope{}, fmt.Errorf("marshal %s: %w", event.EventType(), err)
	}
	return EventEnvelope{
		ID:          id,
		Type:        event.EventType(),
		AggregateID: event.AggregateID(),
		Payload:     payload,
		OccurredAt:  now,
	}, nil
}

// DecodeEvent turns an envelope back into its typed event.
func DecodeEvent(env EventEnvelope) (Event, error) {
	var event Event
	switch env.Type {
	case EventOrderCreated:
		event = &OrderCreated{}
	case EventOrderCanceled:
		event = &OrderCanceled{}
	case EventOrderPaid:
		event = &OrderPaid{}
	case EventPaymentApproved:
		event = &PaymentApproved{}
	case EventPaymentCanceled:
		event = &PaymentCanceled{}
	default:
		return nil, fmt.Errorf("unknown event type %q", env.Type)
	}
	if err := json.Unmarshal(env.Payload, event); err != nil {
		return nil, fmt.Errorf("decode %s: %w", env.Type, err)
	}
	return deref(event), nil
}

func deref(e Event) Event {
	switch v := e.(type) {
	case *OrderCreated:
		return *v
	case *OrderCanceled:
		return *v
	case *OrderPaid:
		return *v
	case *PaymentApproved:
		return *v
	case *PaymentCanceled:
		return *v
	}
	return e
}
