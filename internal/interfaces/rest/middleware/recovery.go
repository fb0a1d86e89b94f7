package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/DanielPopoola/ficmart-commerce/internal/application"
	"github.com/DanielPopoola/ficmart-commerce/internal/interfaces/rest"
	"github.com/gin-gonic/gin"
)

// Recovery turns a handler panic into the standard INTERNAL_ERROR body.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			logger.Error("handler panicked",
				"request_id", rest.RequestID(c),
				"route", c.FullPath(),
				"panic", rec,
				"stack", string(debug.Stack()),
			)
			rest.WriteError(c, application.NewInternalError(fmt.Errorf("panic: %v", rec)), logger)
			c.Abort()
		}()

		c.Next()
	}
}
