package rest

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/DanielPopoola/ficmart-commerce/internal/application"
	"github.com/DanielPopoola/ficmart-commerce/internal/application/idempotency"
	"github.com/gin-gonic/gin"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderReplayed       = "X-Idempotent-Replayed"
	HeaderRecordedAt     = "X-Idempotent-Recorded-At"
	HeaderRequestID      = "X-Request-ID"
	contextKeyRequestID  = "request_id"
)

type SuccessResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError maps application errors to HTTP responses. The message is the
// caller-safe one; the cause is logged for server-side failures only.
func WriteError(c *gin.Context, err error, logger *slog.Logger) {
	statusCode := application.ToHTTPStatus(err)
	if statusCode >= http.StatusInternalServerError && logger != nil {
		logger.Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"request_id", c.GetString(contextKeyRequestID),
			"code", application.ToErrorCode(err),
			"error", err)
	}

	c.AbortWithStatusJSON(statusCode, ErrorResponse{
		Success: false,
		Error: ErrorDetail{
			Code:    application.ToErrorCode(err),
			Message: application.ToErrorMessage(err),
		},
	})
}

func WriteJSON(c *gin.Context, status int, data any) {
	c.JSON(status, SuccessResponse{Success: true, Data: data})
}

// WriteOutcome echoes how the idempotency layer resolved the request.
func WriteOutcome(c *gin.Context, outcome idempotency.Outcome) {
	if outcome.Key == "" {
		return
	}
	c.Header(HeaderIdempotencyKey, outcome.Key)
	if outcome.Replayed {
		c.Header(HeaderReplayed, "true")
	} else {
		c.Header(HeaderReplayed, "false")
	}
	if !outcome.RecordedAt.IsZero() {
		c.Header(HeaderRecordedAt, outcome.RecordedAt.UTC().Format(time.RFC3339Nano))
	}
}

// RequestID returns the id the request-id middleware assigned.
func RequestID(c *gin.Context) string {
	return c.GetString(contextKeyRequestID)
}

// SetRequestID stores id on the gin context for handlers and loggers.
func SetRequestID(c *gin.Context, id string) {
	c.Set(contextKeyRequestID, id)
}
