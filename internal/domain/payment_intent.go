package domain

import "time"

// PaymentIntent captures the parameters of a prospective payment until the
// provider confirms it. It is consumed on approval or purged once expired.
type PaymentIntent struct {
	ID             string
	OrderID        string
	Amount         int64
	SuccessURL     string
	FailURL        string
	IdempotencyKey string
	CreatedAt      time.Time
	ExpiresAt      time.Time
}

func NewPaymentIntent(
	id string,
	orderID string,
	amount int64,
	successURL string,
	failURL string,
	idempotencyKey string,
	ttl time.Duration,
	now time.Time,
) (*PaymentIntent, error) {
	if id == "" {
		return nil, NewMissingRequiredFieldError("intent id")
	}
	if orderID == "" {
		return nil, NewMissingRequiredFieldError("order id")
	}
	if amount <= 0 {
		return nil, ErrInvalidPaymentAmount
	}
	if ttl <= 0 {
		return nil, ErrInvalidIntentTTL
	}

	return &PaymentIntent{
		ID:             id,
		OrderID:        orderID,
		Amount:         amount,
		SuccessURL:     successURL,
		FailURL:        failURL,
		IdempotencyKey: idempotencyKey,
		CreatedAt:      now,
		ExpiresAt:      now.Add(ttl),
	}, nil
}

func (i *PaymentIntent) IsExpired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}

// Matches re-verifies that an approval targets the order and amount the
// intent was prepared for.
func (i *PaymentIntent) Matches(orderID string, amount int64) error {
	if i.OrderID != orderID || i.Amount != amount {
		return NewAmountMismatchError(i.Amount, amount)
	}
	return nil
}
