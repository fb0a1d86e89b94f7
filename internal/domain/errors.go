package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business logic error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches any DomainError carrying the same code, so sentinels below work
// with errors.Is regardless of the message.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Code == e.Code
}

// Order errors
const (
	ErrCodeMemberIDRequired                   = "MEMBER_ID_REQUIRED"
	ErrCodeInvalidOrderAmount                 = "INVALID_ORDER_AMOUNT"
	ErrCodeNegativeOrderAmount                = "NEGATIVE_ORDER_AMOUNT"
	ErrCodeOrderNotFound                      = "ORDER_NOT_FOUND"
	ErrCodeInvalidOrderState                  = "INVALID_ORDER_STATE"
	ErrCodeInvalidTransitionToPaid            = "INVALID_TRANSITION_TO_PAID"
	ErrCodeInvalidTransitionToCancelRequested = "INVALID_TRANSITION_TO_CANCEL_REQUESTED"
	ErrCodeInvalidTransitionToCanceled        = "INVALID_TRANSITION_TO_CANCELED"
	ErrCodeInvalidTransitionToShipped         = "INVALID_TRANSITION_TO_SHIPPED"
	ErrCodeInvalidTransitionToDelivered       = "INVALID_TRANSITION_TO_DELIVERED"
	ErrCodeInvalidTransitionToCompleted       = "INVALID_TRANSITION_TO_COMPLETED"
	ErrCodeOrderAlreadyConfirmed              = "ORDER_ALREADY_CONFIRMED"
	ErrCodeCancelAlreadyRequested             = "CANCEL_ALREADY_REQUESTED"
	ErrCodeAlreadyCanceled                    = "ALREADY_CANCELED"
	ErrCodeDuplicateApproval                  = "DUPLICATE_APPROVAL"
	ErrCodeMemberNotFound                     = "MEMBER_NOT_FOUND"
)

// Payment errors
const (
	ErrCodeMissingRequiredField     = "MISSING_REQUIRED_FIELD"
	ErrCodeInvalidPaymentAmount     = "INVALID_PAYMENT_AMOUNT"
	ErrCodePaymentNotFound          = "PAYMENT_NOT_FOUND"
	ErrCodePaymentAmountMismatch    = "PAYMENT_AMOUNT_MISMATCH"
	ErrCodePaymentCannotApprove     = "PAYMENT_CANNOT_APPROVE"
	ErrCodeInvalidCancelAmount      = "INVALID_CANCEL_AMOUNT"
	ErrCodeCancelAmountExceeded     = "CANCEL_AMOUNT_EXCEEDED"
	ErrCodePaymentCannotCancel      = "PAYMENT_CANNOT_CANCEL"
	ErrCodeInvalidRefundAmount      = "INVALID_REFUND_AMOUNT"
	ErrCodeRefundAmountExceeded     = "REFUND_AMOUNT_EXCEEDED"
	ErrCodePaymentCannotRefund      = "PAYMENT_CANNOT_REFUND"
	ErrCodeDuplicatePaymentApproval = "DUPLICATE_PAYMENT_APPROVAL"
	ErrCodeConcurrentModification   = "CONCURRENT_MODIFICATION"
	ErrCodeIntentNotFound           = "PAYMENT_INTENT_NOT_FOUND"
	ErrCodeInvalidIntentTTL         = "INVALID_INTENT_TTL"
	ErrCodeIdempotencyRecordFinal   = "IDEMPOTENCY_RECORD_FINAL"
)

// Sentinels for errors.Is. Constructors below add context to the message but
// keep the code, which is what Is compares.
var (
	ErrMemberIDRequired       = &DomainError{Code: ErrCodeMemberIDRequired, Message: "member id is required"}
	ErrInvalidOrderAmount     = &DomainError{Code: ErrCodeInvalidOrderAmount, Message: "order amount must be greater than zero"}
	ErrNegativeOrderAmount    = &DomainError{Code: ErrCodeNegativeOrderAmount, Message: "order amount cannot be negative"}
	ErrOrderNotFound          = &DomainError{Code: ErrCodeOrderNotFound, Message: "order not found"}
	ErrInvalidOrderState      = &DomainError{Code: ErrCodeInvalidOrderState, Message: "invalid order state"}
	ErrOrderAlreadyConfirmed  = &DomainError{Code: ErrCodeOrderAlreadyConfirmed, Message: "order is already confirmed"}
	ErrCancelAlreadyRequested = &DomainError{Code: ErrCodeCancelAlreadyRequested, Message: "order cancellation is already requested"}
	ErrAlreadyCanceled        = &DomainError{Code: ErrCodeAlreadyCanceled, Message: "order is already canceled"}
	ErrDuplicateApproval      = &DomainError{Code: ErrCodeDuplicateApproval, Message: "order payment was already approved"}
	ErrMemberNotFound         = &DomainError{Code: ErrCodeMemberNotFound, Message: "member not found or inactive"}

	ErrMissingRequiredField     = &DomainError{Code: ErrCodeMissingRequiredField, Message: "missing required field"}
	ErrInvalidPaymentAmount     = &DomainError{Code: ErrCodeInvalidPaymentAmount, Message: "payment amount must be greater than zero"}
	ErrPaymentNotFound          = &DomainError{Code: ErrCodePaymentNotFound, Message: "payment not found"}
	ErrPaymentAmountMismatch    = &DomainError{Code: ErrCodePaymentAmountMismatch, Message: "payment amount mismatch"}
	ErrPaymentCannotApprove     = &DomainError{Code: ErrCodePaymentCannotApprove, Message: "payment cannot be approved"}
	ErrInvalidCancelAmount      = &DomainError{Code: ErrCodeInvalidCancelAmount, Message: "cancel amount must be greater than zero"}
	ErrCancelAmountExceeded     = &DomainError{Code: ErrCodeCancelAmountExceeded, Message: "cancel amount exceeds the cancelable amount"}
	ErrPaymentCannotCancel      = &DomainError{Code: ErrCodePaymentCannotCancel, Message: "payment cannot be canceled"}
	ErrInvalidRefundAmount      = &DomainError{Code: ErrCodeInvalidRefundAmount, Message: "refund amount must be greater than zero"}
	ErrRefundAmountExceeded     = &DomainError{Code: ErrCodeRefundAmountExceeded, Message: "refund amount exceeds the refundable amount"}
	ErrPaymentCannotRefund      = &DomainError{Code: ErrCodePaymentCannotRefund, Message: "payment cannot be refunded"}
	ErrDuplicatePaymentApproval = &DomainError{Code: ErrCodeDuplicatePaymentApproval, Message: "order already has an approved payment"}
	ErrConcurrentModification   = &DomainError{Code: ErrCodeConcurrentModification, Message: "aggregate was modified concurrently"}
	ErrIntentNotFound           = &DomainError{Code: ErrCodeIntentNotFound, Message: "payment intent not found or expired"}
	ErrInvalidIntentTTL         = &DomainError{Code: ErrCodeInvalidIntentTTL, Message: "payment intent ttl must be positive"}
	ErrIdempotencyRecordFinal   = &DomainError{Code: ErrCodeIdempotencyRecordFinal, Message: "idempotency record already holds a result"}
)

func NewMissingRequiredFieldError(field string) *DomainError {
	return &DomainError{
		Code:    ErrCodeMissingRequiredField,
		Message: fmt.Sprintf("%s is required", field),
	}
}

func NewOrderNotFoundError(id string) *DomainError {
	return &DomainError{
		Code:    ErrCodeOrderNotFound,
		Message: fmt.Sprintf("order with ID %s not found", id),
	}
}

func NewPaymentNotFoundError(id string) *DomainError {
	return &DomainError{
		Code:    ErrCodePaymentNotFound,
		Message: fmt.Sprintf("payment with ID %s not found", id),
	}
}

func NewIntentNotFoundError(id string) *DomainError {
	return &DomainError{
		Code:    ErrCodeIntentNotFound,
		Message: fmt.Sprintf("payment intent %s not found or expired", id),
	}
}

func NewMemberNotFoundError(memberID string) *DomainError {
	return &DomainError{
		Code:    ErrCodeMemberNotFound,
		Message: fmt.Sprintf("member %s not found or inactive", memberID),
	}
}

func NewAmountMismatchError(expected, actual int64) *DomainError {
	return &DomainError{
		Code:    ErrCodePaymentAmountMismatch,
		Message: fmt.Sprintf("amount mismatch: expected %d, got %d", expected, actual),
	}
}

// newOrderTransitionError reports a transition that the order can never make
// from its current state. It wraps ErrInvalidOrderState so callers that only
// care about the family can match on that.
func newOrderTransitionError(code string, from, to OrderStatus) *DomainError {
	return &DomainError{
		Code:    code,
		Message: fmt.Sprintf("cannot transition order from %s to %s", from, to),
		Err:     ErrInvalidOrderState,
	}
}

// NewInvalidOrderStateError reports an order that is not in the state an
// operation requires.
func NewInvalidOrderStateError(actual, required OrderStatus) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidOrderState,
		Message: fmt.Sprintf("order is %s, expected %s", actual, required),
	}
}

func newPaymentStateError(sentinel *DomainError, status PaymentStatus) *DomainError {
	return &DomainError{
		Code:    sentinel.Code,
		Message: fmt.Sprintf("%s: payment is %s", sentinel.Message, status),
	}
}

func newAmountExceededError(sentinel *DomainError, requested, available int64) *DomainError {
	return &DomainError{
		Code:    sentinel.Code,
		Message: fmt.Sprintf("%s: requested %d, available %d", sentinel.Message, requested, available),
	}
}

// IsErrorCode checks if an error is a DomainError with a specific code
func IsErrorCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}
