package middleware

import (
	"log/slog"
	"time"

	"github.com/DanielPopoola/ficmart-commerce/internal/interfaces/rest"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestID reuses an inbound X-Request-ID or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(rest.HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		rest.SetRequestID(c, id)
		c.Header(rest.HeaderRequestID, id)
		c.Next()
	}
}

func Logging(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", rest.RequestID(c),
		}
		if key := c.Writer.Header().Get(rest.HeaderIdempotencyKey); key != "" {
			attrs = append(attrs, "idempotency_key", key,
				"replayed", c.Writer.Header().Get(rest.HeaderReplayed))
		}

		switch {
		case c.Writer.Status() >= 500:
			logger.Error("request completed", attrs...)
		case c.Writer.Status() >= 400:
			logger.Warn("request completed", attrs...)
		default:
			logger.Info("request completed", attrs...)
		}
	}
}
