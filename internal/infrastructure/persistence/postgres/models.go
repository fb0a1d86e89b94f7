package postgres

import (
	"time"
)

type OrderModel struct {
	ID           string
	MemberID     string
	TotalAmount  int64
	Status       string
	CancelReason *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PaymentModel carries the version column used for optimistic updates.
type PaymentModel struct {
	ID             string
	OrderID        string
	PaidAmount     int64
	CanceledAmount int64
	RefundedAmount int64
	Status         string
	ProviderTxnID  string
	CancelReason   *string
	RefundReason   *string
	Version        int64
	CreatedAt      time.Time
	ApprovedAt     *time.Time
	CanceledAt     *time.Time
	RefundedAt     *time.Time
}

type PaymentIntentModel struct {
	ID             string
	OrderID        string
	Amount         int64
	SuccessURL     string
	FailURL        string
	IdempotencyKey string
	CreatedAt      time.Time
	ExpiresAt      time.Time
}

// IdempotencyRecordModel is unique on (Endpoint, Key). Owner identifies the
// claim so only its holder can complete or release it.
type IdempotencyRecordModel struct {
	Endpoint       string
	Key            string
	RequestHash    string
	Status         string
	StoredResult   []byte
	FailureCode    *string
	FailureMessage *string
	Owner          string
	LockedAt       time.Time
	RecordedAt     *time.Time
}

type OutboxEventModel struct {
	ID          string
	EventType   string
	AggregateID string
	Payload     []byte
	OccurredAt  time.Time
	Attempts    int
}
