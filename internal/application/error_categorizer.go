package application

import (
	"context"
	"errors"
	"net/http"

	"github.com/DanielPopoola/ficmart-commerce/internal/domain"
)

// domainKinds classifies every domain code. Codes missing here are INTERNAL.
var domainKinds = map[string]ErrorKind{
	domain.ErrCodeMemberIDRequired:      KindValidation,
	domain.ErrCodeInvalidOrderAmount:    KindValidation,
	domain.ErrCodeNegativeOrderAmount:   KindValidation,
	domain.ErrCodeMissingRequiredField:  KindValidation,
	domain.ErrCodeInvalidPaymentAmount:  KindValidation,
	domain.ErrCodePaymentAmountMismatch: KindValidation,
	domain.ErrCodeInvalidCancelAmount:   KindValidation,
	domain.ErrCodeCancelAmountExceeded:  KindValidation,
	domain.ErrCodeInvalidRefundAmount:   KindValidation,
	domain.ErrCodeRefundAmountExceeded:  KindValidation,
	domain.ErrCodeInvalidIntentTTL:      KindValidation,

	domain.ErrCodeOrderNotFound:   KindNotFound,
	domain.ErrCodePaymentNotFound: KindNotFound,
	domain.ErrCodeIntentNotFound:  KindNotFound,
	domain.ErrCodeMemberNotFound:  KindNotFound,

	domain.ErrCodeInvalidOrderState:                  KindStateConflict,
	domain.ErrCodeInvalidTransitionToPaid:            KindStateConflict,
	domain.ErrCodeInvalidTransitionToCancelRequested: KindStateConflict,
	domain.ErrCodeInvalidTransitionToCanceled:        KindStateConflict,
	domain.ErrCodeInvalidTransitionToShipped:         KindStateConflict,
	domain.ErrCodeInvalidTransitionToDelivered:       KindStateConflict,
	domain.ErrCodeInvalidTransitionToCompleted:       KindStateConflict,
	domain.ErrCodeOrderAlreadyConfirmed:              KindStateConflict,
	domain.ErrCodeCancelAlreadyRequested:             KindStateConflict,
	domain.ErrCodeAlreadyCanceled:                    KindStateConflict,
	domain.ErrCodeDuplicateApproval:                  KindStateConflict,
	domain.ErrCodePaymentCannotApprove:               KindStateConflict,
	domain.ErrCodePaymentCannotCancel:                KindStateConflict,
	domain.ErrCodePaymentCannotRefund:                KindStateConflict,
	domain.ErrCodeDuplicatePaymentApproval:           KindStateConflict,
	domain.ErrCodeConcurrentModification:             KindStateConflict,
	domain.ErrCodeIdempotencyRecordFinal:             KindStateConflict,
}

var serviceKinds = map[string]ErrorKind{
	ErrCodeInvalidRequest:        KindValidation,
	ErrCodeInvalidIdempotencyKey: KindValidation,
	ErrCodeIdempotencyMismatch:   KindIdempotencyConflict,
	ErrCodeRequestProcessing:     KindIdempotencyConflict,
	ErrCodeOperationTimeout:      KindTimeout,
	ErrCodeSerialization:         KindInternal,
	ErrCodeRepository:            KindRepository,
	ErrCodeProviderAPI:           KindUpstream,
	ErrCodeProviderNetwork:       KindUpstream,
	ErrCodeInternal:              KindInternal,
}

func kindForCode(code string) ErrorKind {
	if kind, ok := domainKinds[code]; ok {
		return kind
	}
	if kind, ok := serviceKinds[code]; ok {
		return kind
	}
	return KindInternal
}

func statusForKind(kind ErrorKind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindStateConflict, KindIdempotencyConflict:
		return http.StatusConflict
	case KindUpstream:
		return http.StatusBadGateway
	case KindRepository:
		return http.StatusServiceUnavailable
	case KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// KindOf classifies err into the caller-facing taxonomy.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}

	if svcErr, ok := IsServiceError(err); ok && svcErr.Kind != "" {
		return svcErr.Kind
	}

	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		return kindForCode(domainErr.Code)
	}

	var apiErr *ProviderAPIError
	var netErr *ProviderNetworkError
	if errors.As(err, &apiErr) || errors.As(err, &netErr) {
		return KindUpstream
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	return KindInternal
}

// IsRetryable reports whether repeating the same command may succeed.
// Only these kinds are kept out of the idempotency store.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindUpstream, KindRepository, KindTimeout, KindInternal:
		return true
	}
	return false
}

// ToHTTPStatus maps error to appropriate HTTP status code
func ToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if svcErr, ok := IsServiceError(err); ok && svcErr.HTTPStatus != 0 {
		return svcErr.HTTPStatus
	}
	return statusForKind(KindOf(err))
}

// ToErrorCode clear error code for API responses
func ToErrorCode(err error) string {
	if svcErr, ok := IsServiceError(err); ok {
		return svcErr.Code
	}

	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}

	var netErr *ProviderNetworkError
	if errors.As(err, &netErr) {
		return ErrCodeProviderNetwork
	}
	var apiErr *ProviderAPIError
	if errors.As(err, &apiErr) {
		return ErrCodeProviderAPI
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrCodeOperationTimeout
	}

	return ErrCodeInternal
}

// ToErrorMessage returns the message safe to show a caller. Internal
// failures are not described.
func ToErrorMessage(err error) string {
	if svcErr, ok := IsServiceError(err); ok {
		return svcErr.Message
	}
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	switch KindOf(err) {
	case KindUpstream:
		return "Payment provider request failed"
	case KindTimeout:
		return "Operation did not finish in time"
	}
	return "An internal error occurred"
}
