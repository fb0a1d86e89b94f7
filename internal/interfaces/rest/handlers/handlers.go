package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/DanielPopoola/ficmart-commerce/internal/application"
	"github.com/DanielPopoola/ficmart-commerce/internal/application/idempotency"
	"github.com/DanielPopoola/ficmart-commerce/internal/application/services"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator"
)

type OrderService interface {
	CreateOrder(ctx context.Context, cmd services.CreateOrderCommand) (*services.OrderView, idempotency.Outcome, error)
	CancelOrder(ctx context.Context, cmd services.CancelOrderCommand) (*services.OrderView, idempotency.Outcome, error)
	RequestCancel(ctx context.Context, orderID string) (*services.OrderView, error)
	Ship(ctx context.Context, orderID string) (*services.OrderView, error)
	Deliver(ctx context.Context, orderID string) (*services.OrderView, error)
	Complete(ctx context.Context, orderID string) (*services.OrderView, error)
	GetOrder(ctx context.Context, orderID string) (*services.OrderView, error)
}

type PaymentService interface {
	PreparePayment(ctx context.Context, cmd services.PreparePaymentCommand) (*services.IntentView, idempotency.Outcome, error)
	ApprovePayment(ctx context.Context, cmd services.ApprovePaymentCommand) (*services.PaymentView, idempotency.Outcome, error)
	CancelPayment(ctx context.Context, cmd services.CancelPaymentCommand) (*services.PaymentView, idempotency.Outcome, error)
	RefundPayment(ctx context.Context, cmd services.RefundPaymentCommand) (*services.PaymentView, idempotency.Outcome, error)
	GetPayment(ctx context.Context, paymentID string) (*services.PaymentView, error)
	GetPaymentByOrder(ctx context.Context, orderID string) (*services.PaymentView, error)
}

type Handlers struct {
	orders   OrderService
	payments PaymentService
	validate *validator.Validate
	logger   *slog.Logger
}

func NewHandlers(orders OrderService, payments PaymentService, logger *slog.Logger) *Handlers {
	return &Handlers{
		orders:   orders,
		payments: payments,
		validate: validator.New(),
		logger:   logger,
	}
}

func (h *Handlers) RegisterRoutes(r gin.IRouter) {
	orders := r.Group("/orders")
	orders.POST("", h.CreateOrder)
	orders.GET("/:id", h.GetOrder)
	orders.POST("/:id/cancel", h.CancelOrder)
	orders.POST("/:id/cancel-request", h.RequestCancel)
	orders.POST("/:id/ship", h.ShipOrder)
	orders.POST("/:id/deliver", h.DeliverOrder)
	orders.POST("/:id/complete", h.CompleteOrder)
	orders.GET("/:id/payment", h.GetOrderPayment)

	payments := r.Group("/payments")
	payments.POST("/intents", h.PreparePayment)
	payments.POST("/approve", h.ApprovePayment)
	payments.GET("/:id", h.GetPayment)
	payments.POST("/:id/cancel", h.CancelPayment)
	payments.POST("/:id/refund", h.RefundPayment)
}

// bind decodes and validates the JSON body. An empty body is accepted when
// optional is set.
func (h *Handlers) bind(c *gin.Context, req any, optional bool) error {
	if err := c.ShouldBindJSON(req); err != nil {
		if !(optional && errors.Is(err, io.EOF)) {
			return application.NewInvalidRequestError(err)
		}
	}
	if err := h.validate.Struct(req); err != nil {
		return application.NewInvalidRequestError(err)
	}
	return nil
}

func idempotencyKey(c *gin.Context) string {
	return c.GetHeader("Idempotency-Key")
}
