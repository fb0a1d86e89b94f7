package handlers

import (
	"context"
	"net/http"

	"github.com/DanielPopoola/ficmart-commerce/internal/application/services"
	"github.com/DanielPopoola/ficmart-commerce/internal/interfaces/rest"
	"github.com/gin-gonic/gin"
)

type CreateOrderRequest struct {
	MemberID    string `json:"member_id" validate:"required"`
	TotalAmount int64  `json:"total_amount"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason" validate:"max=255"`
}

// CreateOrder handles POST /orders. Amount rules are enforced by the domain
// so the caller sees the same codes as every other entry point.
func (h *Handlers) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := h.bind(c, &req, false); err != nil {
		rest.WriteError(c, err, h.logger)
		return
	}

	order, outcome, err := h.orders.CreateOrder(c.Request.Context(), services.CreateOrderCommand{
		MemberID:       req.MemberID,
		TotalAmount:    req.TotalAmount,
		IdempotencyKey: idempotencyKey(c),
	})
	rest.WriteOutcome(c, outcome)
	if err != nil {
		rest.WriteError(c, err, h.logger)
		return
	}

	rest.WriteJSON(c, http.StatusCreated, order)
}

func (h *Handlers) CancelOrder(c *gin.Context) {
	var req CancelOrderRequest
	if err := h.bind(c, &req, true); err != nil {
		rest.WriteError(c, err, h.logger)
		return
	}

	order, outcome, err := h.orders.CancelOrder(c.Request.Context(), services.CancelOrderCommand{
		OrderID:        c.Param("id"),
		Reason:         req.Reason,
		IdempotencyKey: idempotencyKey(c),
	})
	rest.WriteOutcome(c, outcome)
	if err != nil {
		rest.WriteError(c, err, h.logger)
		return
	}

	rest.WriteJSON(c, http.StatusOK, order)
}

func (h *Handlers) GetOrder(c *gin.Context) {
	h.orderAction(c, h.orders.GetOrder)
}

func (h *Handlers) RequestCancel(c *gin.Context) {
	h.orderAction(c, h.orders.RequestCancel)
}

func (h *Handlers) ShipOrder(c *gin.Context) {
	h.orderAction(c, h.orders.Ship)
}

func (h *Handlers) DeliverOrder(c *gin.Context) {
	h.orderAction(c, h.orders.Deliver)
}

func (h *Handlers) CompleteOrder(c *gin.Context) {
	h.orderAction(c, h.orders.Complete)
}

func (h *Handlers) GetOrderPayment(c *gin.Context) {
	payment, err := h.payments.GetPaymentByOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		rest.WriteError(c, err, h.logger)
		return
	}
	rest.WriteJSON(c, http.StatusOK, payment)
}

func (h *Handlers) orderAction(c *gin.Context, action func(context.Context, string) (*services.OrderView, error)) {
	order, err := action(c.Request.Context(), c.Param("id"))
	if err != nil {
		rest.WriteError(c, err, h.logger)
		return
	}
	rest.WriteJSON(c, http.StatusOK, order)
}
