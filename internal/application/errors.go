package application

import (
	"errors"
	"fmt"
	"net/http"
)

// APPLICATION-LEVEL ERRORS (Orchestration)

// ErrorKind is the caller-facing classification of a failure.
type ErrorKind string

const (
	KindValidation          ErrorKind = "VALIDATION"
	KindNotFound            ErrorKind = "NOT_FOUND"
	KindStateConflict       ErrorKind = "STATE_CONFLICT"
	KindIdempotencyConflict ErrorKind = "IDEMPOTENCY_CONFLICT"
	KindUpstream            ErrorKind = "UPSTREAM"
	KindRepository          ErrorKind = "REPOSITORY"
	KindTimeout             ErrorKind = "TIMEOUT"
	KindInternal            ErrorKind = "INTERNAL"
)

type ServiceError struct {
	Code       string
	Message    string
	Kind       ErrorKind
	HTTPStatus int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

const (
	ErrCodeInvalidRequest        = "INVALID_REQUEST"
	ErrCodeInvalidIdempotencyKey = "INVALID_IDEMPOTENCY_KEY"
	ErrCodeIdempotencyMismatch   = "IDEMPOTENCY_MISMATCH"
	ErrCodeRequestProcessing     = "REQUEST_PROCESSING"
	ErrCodeOperationTimeout      = "OPERATION_TIMEOUT"
	ErrCodeSerialization         = "SERIALIZATION_ERROR"
	ErrCodeRepository            = "REPOSITORY_ERROR"
	ErrCodeProviderAPI           = "PROVIDER_API_ERROR"
	ErrCodeProviderNetwork       = "PROVIDER_NETWORK_ERROR"
	ErrCodeInternal              = "INTERNAL_ERROR"
)

// NewInvalidRequestError reports a request body that failed decoding or
// field validation before reaching a service.
func NewInvalidRequestError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInvalidRequest,
		Message:    fmt.Sprintf("Invalid request: %v", err),
		Kind:       KindValidation,
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
	}
}

func NewInvalidIdempotencyKeyError() *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInvalidIdempotencyKey,
		Message:    "Idempotency key must not be blank",
		Kind:       KindValidation,
		HTTPStatus: http.StatusBadRequest,
	}
}

func NewIdempotencyMismatchError() *ServiceError {
	return &ServiceError{
		Code:       ErrCodeIdempotencyMismatch,
		Message:    "Idempotency key reused with different request parameters",
		Kind:       KindIdempotencyConflict,
		HTTPStatus: http.StatusConflict,
	}
}

func NewRequestProcessingError() *ServiceError {
	return &ServiceError{
		Code:       ErrCodeRequestProcessing,
		Message:    "Request is being processed. Please retry in a moment.",
		Kind:       KindIdempotencyConflict,
		HTTPStatus: http.StatusConflict,
	}
}

func NewOperationTimeoutError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeOperationTimeout,
		Message:    "Operation did not finish in time",
		Kind:       KindTimeout,
		HTTPStatus: http.StatusGatewayTimeout,
		Err:        err,
	}
}

func NewSerializationError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeSerialization,
		Message:    "Result could not be recorded",
		Kind:       KindInternal,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func NewRepositoryError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeRepository,
		Message:    "Storage is unavailable",
		Kind:       KindRepository,
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

func NewUpstreamError(err error) *ServiceError {
	code := ErrCodeProviderAPI
	message := "Payment provider rejected the request"
	var netErr *ProviderNetworkError
	if errors.As(err, &netErr) {
		code = ErrCodeProviderNetwork
		message = "Payment provider is unreachable"
	}
	return &ServiceError{
		Code:       code,
		Message:    message,
		Kind:       KindUpstream,
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

func NewInternalError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInternal,
		Message:    "An internal error occurred",
		Kind:       KindInternal,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewReplayedError rebuilds a recorded terminal failure so the replay carries
// the original code and message.
func NewReplayedError(code, message string) *ServiceError {
	kind := kindForCode(code)
	return &ServiceError{
		Code:       code,
		Message:    message,
		Kind:       kind,
		HTTPStatus: statusForKind(kind),
	}
}

func IsServiceError(err error) (*ServiceError, bool) {
	var svcErr *ServiceError
	ok := errors.As(err, &svcErr)
	return svcErr, ok
}
