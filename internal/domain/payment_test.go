package domain_test

import (
	"testing"

	"github.com/DanielPopoola/ficmart-commerce/internal/domain"
	"github.com/DanielPopoola/ficmart-commerce/internal/domain/domaintest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPayment(t *testing.T) {
	t.Run("creates payment successfully", func(t *testing.T) {
		payment, err := domain.NewPayment("pay-123", "order-456", 5000, "txn-789", now)

		require.NoError(t, err)
		assert.Equal(t, "pay-123", payment.ID())
		assert.Equal(t, "order-456", payment.OrderID())
		assert.Equal(t, int64(5000), payment.PaidAmount())
		assert.Equal(t, "txn-789", payment.ProviderTxnID())
		assert.Equal(t, domain.PaymentStatusPending, payment.Status())
		assert.Zero(t, payment.CanceledAmount())
		assert.Zero(t, payment.RefundedAmount())
		assert.Nil(t, payment.ApprovedAt())
	})

	t.Run("rejects empty order ID", func(t *testing.T) {
		_, err := domain.NewPayment("pay-123", "", 5000, "txn-789", now)

		assert.ErrorIs(t, err, domain.ErrMissingRequiredField)
		assert.Contains(t, err.Error(), "order id is required")
	})

	t.Run("rejects empty provider transaction", func(t *testing.T) {
		_, err := domain.NewPayment("pay-123", "order-456", 5000, "", now)
		assert.ErrorIs(t, err, domain.ErrMissingRequiredField)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		_, err := domain.NewPayment("pay-123", "order-456", 0, "txn-789", now)
		assert.ErrorIs(t, err, domain.ErrInvalidPaymentAmount)
	})
}

func TestPayment_Approve(t *testing.T) {
	t.Run("approves pending payment with matching total", func(t *testing.T) {
		payment := domaintest.APayment().WithPaidAmount(10000).Build()

		require.NoError(t, payment.Approve(10000, now))

		assert.Equal(t, domain.PaymentStatusApproved, payment.Status())
		require.NotNil(t, payment.ApprovedAt())
		assert.Equal(t, now, *payment.ApprovedAt())
	})

	t.Run("rejects mismatched total", func(t *testing.T) {
		payment := domaintest.APayment().WithPaidAmount(10000).Build()

		err := payment.Approve(9999, now)

		assert.ErrorIs(t, err, domain.ErrPaymentAmountMismatch)
		assert.Equal(t, domain.PaymentStatusPending, payment.Status())
	})

	for _, status := range []domain.PaymentStatus{
		domain.PaymentStatusApproved,
		domain.PaymentStatusCanceled,
		domain.PaymentStatusRefunded,
	} {
		t.Run("rejects approve from "+string(status), func(t *testing.T) {
			payment := domaintest.APayment().InStatus(status).Build()

			err := payment.Approve(payment.PaidAmount(), now)

			assert.ErrorIs(t, err, domain.ErrPaymentCannotApprove)
			assert.Equal(t, status, payment.Status())
		})
	}
}

func TestPayment_Cancel(t *testing.T) {
	t.Run("rejects amount above paid amount", func(t *testing.T) {
		payment := domaintest.APayment().WithPaidAmount(10000).Approved().Build()

		err := payment.Cancel(15000, "x", now)

		assert.ErrorIs(t, err, domain.ErrCancelAmountExceeded)
		assert.Equal(t, domain.PaymentStatusApproved, payment.Status())
		assert.Zero(t, payment.CanceledAmount())
	})

	t.Run("cancels full amount", func(t *testing.T) {
		payment := domaintest.APayment().WithPaidAmount(10000).Approved().Build()

		require.NoError(t, payment.Cancel(10000, "x", now))

		assert.Equal(t, domain.PaymentStatusCanceled, payment.Status())
		assert.Equal(t, int64(10000), payment.CanceledAmount())
		assert.Equal(t, "x", *payment.CancelReason())
		assert.NotNil(t, payment.CanceledAt())
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		payment := domaintest.APayment().Approved().Build()
		assert.ErrorIs(t, payment.Cancel(0, "x", now), domain.ErrInvalidCancelAmount)
		assert.ErrorIs(t, payment.Cancel(-1, "x", now), domain.ErrInvalidCancelAmount)
	})

	for _, status := range []domain.PaymentStatus{
		domain.PaymentStatusPending,
		domain.PaymentStatusCanceled,
		domain.PaymentStatusRefunded,
	} {
		t.Run("rejects cancel from "+string(status), func(t *testing.T) {
			payment := domaintest.APayment().InStatus(status).Build()
			assert.ErrorIs(t, payment.Cancel(1, "x", now), domain.ErrPaymentCannotCancel)
		})
	}
}

func TestPayment_Refund(t *testing.T) {
	canceled := func() *domain.Payment {
		return domaintest.APayment().
			WithPaidAmount(10000).
			WithCanceledAmount(6000).
			InStatus(domain.PaymentStatusCanceled).
			Build()
	}

	t.Run("refunds up to canceled amount", func(t *testing.T) {
		payment := canceled()

		require.NoError(t, payment.Refund(6000, "returned", now))

		assert.Equal(t, domain.PaymentStatusRefunded, payment.Status())
		assert.Equal(t, int64(6000), payment.RefundedAmount())
		assert.Zero(t, payment.RefundableAmount())
	})

	t.Run("rejects more than canceled amount", func(t *testing.T) {
		payment := canceled()

		err := payment.Refund(6001, "returned", now)

		assert.ErrorIs(t, err, domain.ErrRefundAmountExceeded)
		assert.Equal(t, domain.PaymentStatusCanceled, payment.Status())
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		assert.ErrorIs(t, canceled().Refund(0, "", now), domain.ErrInvalidRefundAmount)
	})

	for _, status := range []domain.PaymentStatus{
		domain.PaymentStatusPending,
		domain.PaymentStatusApproved,
		domain.PaymentStatusRefunded,
	} {
		t.Run("rejects refund from "+string(status), func(t *testing.T) {
			payment := domaintest.APayment().InStatus(status).Build()
			assert.ErrorIs(t, payment.Refund(1, "", now), domain.ErrPaymentCannotRefund)
		})
	}
}

// Drives every operation with a spread of amounts and checks the running
// totals never cross their bounds.
func TestPayment_AmountsStayBounded(t *testing.T) {
	amounts := []int64{-1, 0, 1, 2500, 5000, 9999, 10000, 10001, 20000}

	for _, cancelAmt := range amounts {
		for _, refundAmt := range amounts {
			payment := domaintest.APayment().WithPaidAmount(10000).Build()
			_ = payment.Approve(10000, now)
			_ = payment.Cancel(cancelAmt, "", now)
			_ = payment.Cancel(cancelAmt, "", now)
			_ = payment.Refund(refundAmt, "", now)
			_ = payment.Refund(refundAmt, "", now)

			assert.LessOrEqual(t, payment.CanceledAmount(), payment.PaidAmount())
			assert.LessOrEqual(t, payment.RefundedAmount(), payment.CanceledAmount())
			assert.GreaterOrEqual(t, payment.RefundedAmount(), int64(0))
		}
	}
}
