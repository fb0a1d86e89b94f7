package services

type CreateOrderCommand struct {
	MemberID       string
	TotalAmount    int64
	IdempotencyKey string
}

type CancelOrderCommand struct {
	OrderID        string
	Reason         string
	IdempotencyKey string
}

type PreparePaymentCommand struct {
	OrderID        string
	Amount         int64
	SuccessURL     string
	FailURL        string
	IdempotencyKey string
}

type ApprovePaymentCommand struct {
	IntentID       string
	PaymentKey     string
	OrderID        string
	Amount         int64
	IdempotencyKey string
}

type CancelPaymentCommand struct {
	PaymentID      string
	Amount         int64
	Reason         string
	IdempotencyKey string
}

type RefundPaymentCommand struct {
	PaymentID      string
	Amount         int64
	Reason         string
	IdempotencyKey string
}

// Fingerprints leave the key out so a retry with the same key and the same
// parameters hashes the same.

func (c CreateOrderCommand) Fingerprint() string {
	c.IdempotencyKey = ""
	return ComputeHash(c)
}

func (c CancelOrderCommand) Fingerprint() string {
	c.IdempotencyKey = ""
	return ComputeHash(c)
}

func (c PreparePaymentCommand) Fingerprint() string {
	c.IdempotencyKey = ""
	return ComputeHash(c)
}

func (c ApprovePaymentCommand) Fingerprint() string {
	c.IdempotencyKey = ""
	return ComputeHash(c)
}

func (c CancelPaymentCommand) Fingerprint() string {
	c.IdempotencyKey = ""
	return ComputeHash(c)
}

func (c RefundPaymentCommand) Fingerprint() string {
	c.IdempotencyKey = ""
	return ComputeHash(c)
}
