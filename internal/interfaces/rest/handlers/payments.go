package handlers

import (
	"net/http"

	"github.com/DanielPopoola/ficmart-commerce/internal/application/services"
	"github.com/DanielPopoola/ficmart-commerce/internal/interfaces/rest"
	"github.com/gin-gonic/gin"
)

type PreparePaymentRequest struct {
	OrderID    string `json:"order_id" validate:"required"`
	Amount     int64  `json:"amount"`
	SuccessURL string `json:"success_url" validate:"omitempty,url"`
	FailURL    string `json:"fail_url" validate:"omitempty,url"`
}

type ApprovePaymentRequest struct {
	IntentID   string `json:"intent_id"`
	PaymentKey string `json:"payment_key"`
	OrderID    string `json:"order_id"`
	Amount     int64  `json:"amount"`
}

type AmountRequest struct {
	Amount int64  `json:"amount"`
	Reason string `json:"reason" validate:"max=255"`
}

func (h *Handlers) PreparePayment(c *gin.Context) {
	var req PreparePaymentRequest
	if err := h.bind(c, &req, false); err != nil {
		rest.WriteError(c, err, h.logger)
		return
	}

	intent, outcome, err := h.payments.PreparePayment(c.Request.Context(), services.PreparePaymentCommand{
		OrderID:        req.OrderID,
		Amount:         req.Amount,
		SuccessURL:     req.SuccessURL,
		FailURL:        req.FailURL,
		IdempotencyKey: idempotencyKey(c),
	})
	rest.WriteOutcome(c, outcome)
	if err != nil {
		rest.WriteError(c, err, h.logger)
		return
	}

	rest.WriteJSON(c, http.StatusCreated, intent)
}

// ApprovePayment leaves field checks to the service, which reports every
// missing field under one MISSING_REQUIRED_FIELD error.
func (h *Handlers) ApprovePayment(c *gin.Context) {
	var req ApprovePaymentRequest
	if err := h.bind(c, &req, false); err != nil {
		rest.WriteError(c, err, h.logger)
		return
	}

	payment, outcome, err := h.payments.ApprovePayment(c.Request.Context(), services.ApprovePaymentCommand{
		IntentID:       req.IntentID,
		PaymentKey:     req.PaymentKey,
		OrderID:        req.OrderID,
		Amount:         req.Amount,
		IdempotencyKey: idempotencyKey(c),
	})
	rest.WriteOutcome(c, outcome)
	if err != nil {
		rest.WriteError(c, err, h.logger)
		return
	}

	rest.WriteJSON(c, http.StatusCreated, payment)
}

func (h *Handlers) CancelPayment(c *gin.Context) {
	var req AmountRequest
	if err := h.bind(c, &req, false); err != nil {
		rest.WriteError(c, err, h.logger)
		return
	}

	payment, outcome, err := h.payments.CancelPayment(c.Request.Context(), services.CancelPaymentCommand{
		PaymentID:      c.Param("id"),
		Amount:         req.Amount,
		Reason:         req.Reason,
		IdempotencyKey: idempotencyKey(c),
	})
	rest.WriteOutcome(c, outcome)
	if err != nil {
		rest.WriteError(c, err, h.logger)
		return
	}

	rest.WriteJSON(c, http.StatusOK, payment)
}

func (h *Handlers) RefundPayment(c *gin.Context) {
	var req AmountRequest
	if err := h.bind(c, &req, false); err != nil {
		rest.WriteError(c, err, h.logger)
		return
	}

	payment, outcome, err := h.payments.RefundPayment(c.Request.Context(), services.RefundPaymentCommand{
		PaymentID:      c.Param("id"),
		Amount:         req.Amount,
		Reason:         req.Reason,
		IdempotencyKey: idempotencyKey(c),
	})
	rest.WriteOutcome(c, outcome)
	if err != nil {
		rest.WriteError(c, err, h.logger)
		return
	}

	rest.WriteJSON(c, http.StatusOK, payment)
}

func (h *Handlers) GetPayment(c *gin.Context) {
	payment, err := h.payments.GetPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		rest.WriteError(c, err, h.logger)
		return
	}
	rest.WriteJSON(c, http.StatusOK, payment)
}
