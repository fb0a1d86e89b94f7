package domain

// CancelCause tags why a payment was canceled so the
// order side can tell its own cancellation echo apart from a direct one.
type CancelCause string

const (
	CancelCauseRequested     CancelCause = "REQUESTED"
	CancelCauseOrderCanceled CancelCause = "ORDER_CANCELED"
)

// Member is the read-only view of an account the order side depends on.
type Member struct {
	ID     string
	Email  string
	Active bool
}
