package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/DanielPopoola/ficmart-commerce/internal/application"
	"github.com/DanielPopoola/ficmart-commerce/internal/application/idempotency"
	"github.com/DanielPopoola/ficmart-commerce/internal/domain"
	"github.com/google/uuid"
)

const (
	EndpointPreparePayment = "prepare-payment"
	EndpointApprovePayment = "approve-payment"
	EndpointCancelPayment  = "cancel-payment"
	EndpointRefundPayment  = "refund-payment"
)

const orderCanceledReason = "order canceled"

type PaymentService struct {
	payments  application.PaymentRepository
	intents   application.IntentRepository
	orders    application.OrderRepository
	provider  application.PaymentProvider
	uow       application.UnitOfWork
	publisher application.EventPublisher
	engine    *idempotency.Engine
	intentTTL time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

func NewPaymentService(
	payments application.PaymentRepository,
	intents application.IntentRepository,
	orders application.OrderRepository,
	provider application.PaymentProvider,
	uow application.UnitOfWork,
	publisher application.EventPublisher,
	engine *idempotency.Engine,
	intentTTL time.Duration,
	logger *slog.Logger,
) *PaymentService {
	return &PaymentService{
		payments:  payments,
		intents:   intents,
		orders:    orders,
		provider:  provider,
		uow:       uow,
		publisher: publisher,
		engine:    engine,
		intentTTL: intentTTL,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// PreparePayment opens a payment intent for an unpaid order.
func (s *PaymentService) PreparePayment(ctx context.Context, cmd PreparePaymentCommand) (*IntentView, idempotency.Outcome, error) {
	if cmd.OrderID == "" {
		return nil, idempotency.Outcome{}, domain.NewMissingRequiredFieldError("order id")
	}
	if cmd.Amount <= 0 {
		return nil, idempotency.Outcome{}, domain.ErrInvalidPaymentAmount
	}

	return runCommand(ctx, s.engine, EndpointPreparePayment, cmd.IdempotencyKey, cmd.Fingerprint(), nil,
		func(ctx context.Context) (*IntentView, error) {
			order, err := s.orders.FindByID(ctx, cmd.OrderID)
			if err != nil {
				return nil, repoErr(err)
			}
			if order.Status() != domain.OrderStatusCreated {
				return nil, domain.NewInvalidOrderStateError(order.Status(), domain.OrderStatusCreated)
			}
			if order.TotalAmount() != cmd.Amount {
				return nil, domain.NewAmountMismatchError(order.TotalAmount(), cmd.Amount)
			}

			intent, err := domain.NewPaymentIntent(
				uuid.NewString(), cmd.OrderID, cmd.Amount, cmd.SuccessURL, cmd.FailURL,
				cmd.IdempotencyKey, s.intentTTL, s.now(),
			)
			if err != nil {
				return nil, err
			}
			if err := s.intents.Create(ctx, intent); err != nil {
				return nil, repoErr(err)
			}
			return toIntentView(intent), nil
		})
}

// ApprovePayment confirms a prepared intent with the provider and records
// the approved payment. If anything fails after the provider confirmed,
// including storing the idempotency record, the provider charge is canceled
// again.
func (s *PaymentService) ApprovePayment(ctx context.Context, cmd ApprovePaymentCommand) (*PaymentView, idempotency.Outcome, error) {
	switch {
	case cmd.IntentID == "":
		return nil, idempotency.Outcome{}, domain.NewMissingRequiredFieldError("intent id")
	case cmd.PaymentKey == "":
		return nil, idempotency.Outcome{}, domain.NewMissingRequiredFieldError("payment key")
	case cmd.OrderID == "":
		return nil, idempotency.Outcome{}, domain.NewMissingRequiredFieldError("order id")
	case cmd.Amount <= 0:
		return nil, idempotency.Outcome{}, domain.ErrInvalidPaymentAmount
	}

	return runCommand(ctx, s.engine, EndpointApprovePayment, cmd.IdempotencyKey, cmd.Fingerprint(), idempotency.RecordStateConflicts,
		func(ctx context.Context) (*PaymentView, error) {
			return s.approve(ctx, cmd)
		})
}

func (s *PaymentService) approve(ctx context.Context, cmd ApprovePaymentCommand) (*PaymentView, error) {
	intent, err := s.intents.FindByID(ctx, cmd.IntentID)
	if err != nil {
		return nil, repoErr(err)
	}
	if err := intent.Matches(cmd.OrderID, cmd.Amount); err != nil {
		return nil, err
	}

	_, err = s.payments.FindApprovedByOrderID(ctx, cmd.OrderID)
	switch {
	case err == nil:
		return nil, domain.ErrDuplicatePaymentApproval
	case !errors.Is(err, domain.ErrPaymentNotFound):
		return nil, repoErr(err)
	}

	order, err := s.orders.FindByID(ctx, cmd.OrderID)
	if err != nil {
		return nil, repoErr(err)
	}

	confirmed, err := s.provider.Confirm(ctx, application.ProviderConfirmRequest{
		PaymentKey: cmd.PaymentKey,
		OrderID:    cmd.OrderID,
		Amount:     cmd.Amount,
	})
	if err != nil {
		return nil, application.NewUpstreamError(err)
	}

	txnID := confirmed.PaymentKey
	if txnID == "" {
		txnID = cmd.PaymentKey
	}
	undo := s.compensation(txnID, confirmed.TotalAmount)
	idempotency.OnAbort(ctx, func(ctx context.Context) {
		undo(ctx, "payment record rolled back")
	})

	if confirmed.TotalAmount != cmd.Amount {
		undo(ctx, "confirmed amount mismatch")
		return nil, domain.NewAmountMismatchError(cmd.Amount, confirmed.TotalAmount)
	}

	payment, err := domain.NewPayment(uuid.NewString(), order.ID(), confirmed.TotalAmount, txnID, s.now())
	if err != nil {
		undo(ctx, "payment could not be recorded")
		return nil, err
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context) error {
		if err := payment.Approve(order.TotalAmount(), s.now()); err != nil {
			return err
		}
		if err := s.payments.Create(ctx, payment); err != nil {
			return repoErr(err)
		}
		if err := s.intents.Delete(ctx, intent.ID); err != nil {
			return repoErr(err)
		}
		return s.publisher.Publish(ctx, domain.PaymentApproved{
			PaymentID:     payment.ID(),
			OrderID:       payment.OrderID(),
			Amount:        payment.PaidAmount(),
			ProviderTxnID: payment.ProviderTxnID(),
		})
	})
	if err != nil {
		undo(ctx, "payment could not be recorded")
		return nil, err
	}

	s.logger.InfoContext(ctx, "payment approved",
		"payment_id", payment.ID(), "order_id", payment.OrderID(), "amount", payment.PaidAmount())
	return toPaymentView(payment), nil
}

// compensation returns an undo for one provider charge that runs at most
// once, however many failure paths reach it.
func (s *PaymentService) compensation(paymentKey string, amount int64) func(ctx context.Context, reason string) {
	var once sync.Once
	return func(ctx context.Context, reason string) {
		once.Do(func() { s.compensate(ctx, paymentKey, amount, reason) })
	}
}

// compensate reverses a provider charge that could not be recorded locally.
func (s *PaymentService) compensate(ctx context.Context, paymentKey string, amount int64, reason string) {
	_, err := s.provider.Cancel(context.WithoutCancel(ctx), application.ProviderCancelRequest{
		PaymentKey:   paymentKey,
		CancelAmount: amount,
		CancelReason: reason,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "provider compensation failed, charge needs manual reconciliation",
			"payment_key", paymentKey, "amount", amount, "error", err)
		return
	}
	s.logger.WarnContext(ctx, "provider charge compensated", "payment_key", paymentKey, "amount", amount, "reason", reason)
}

// CancelPayment cancels at the provider last, so nothing local is left to
// roll back once the provider has acted.
func (s *PaymentService) CancelPayment(ctx context.Context, cmd CancelPaymentCommand) (*PaymentView, idempotency.Outcome, error) {
	if cmd.PaymentID == "" {
		return nil, idempotency.Outcome{}, domain.NewMissingRequiredFieldError("payment id")
	}
	if cmd.Amount <= 0 {
		return nil, idempotency.Outcome{}, domain.ErrInvalidCancelAmount
	}

	return runCommand(ctx, s.engine, EndpointCancelPayment, cmd.IdempotencyKey, cmd.Fingerprint(), idempotency.RecordStateConflicts,
		func(ctx context.Context) (*PaymentView, error) {
			return s.cancel(ctx, cmd.PaymentID, cmd.Amount, cmd.Reason, domain.CancelCauseRequested)
		})
}

// HandleOrderCanceled cancels whatever is left of the order's approved
// payment. Orders without an approved payment need nothing.
func (s *PaymentService) HandleOrderCanceled(ctx context.Context, event domain.OrderCanceled) error {
	payment, err := s.payments.FindApprovedByOrderID(ctx, event.OrderID)
	if errors.Is(err, domain.ErrPaymentNotFound) {
		return nil
	}
	if err != nil {
		return repoErr(err)
	}

	reason := orderCanceledReason
	if event.Reason != nil {
		reason = *event.Reason
	}
	_, err = s.cancel(ctx, payment.ID(), payment.CancelableAmount(), reason, domain.CancelCauseOrderCanceled)
	return err
}

func (s *PaymentService) cancel(ctx context.Context, paymentID string, amount int64, reason string, cause domain.CancelCause) (*PaymentView, error) {
	var view *PaymentView
	err := s.uow.WithinTx(ctx, func(ctx context.Context) error {
		payment, err := s.payments.FindByIDForUpdate(ctx, paymentID)
		if err != nil {
			return repoErr(err)
		}
		if err := payment.Cancel(amount, reason, s.now()); err != nil {
			return err
		}
		if err := s.payments.Update(ctx, payment); err != nil {
			return repoErr(err)
		}
		err = s.publisher.Publish(ctx, domain.PaymentCanceled{
			PaymentID: payment.ID(),
			OrderID:   payment.OrderID(),
			Amount:    amount,
			Cause:     cause,
		})
		if err != nil {
			return err
		}

		if _, err := s.provider.Cancel(ctx, application.ProviderCancelRequest{
			PaymentKey:   payment.ProviderTxnID(),
			CancelAmount: amount,
			CancelReason: reason,
		}); err != nil {
			return application.NewUpstreamError(err)
		}
		// The provider cannot be un-canceled, so a rolled back claim has to
		// bring the local record in line instead.
		idempotency.OnAbort(ctx, func(ctx context.Context) {
			s.recordProviderCancel(ctx, paymentID, amount, reason, cause)
		})

		s.logger.InfoContext(ctx, "payment canceled",
			"payment_id", payment.ID(), "order_id", payment.OrderID(), "amount", amount, "cause", cause)
		view = toPaymentView(payment)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// recordProviderCancel applies a cancel the provider already performed to a
// payment whose first local write was rolled back.
func (s *PaymentService) recordProviderCancel(ctx context.Context, paymentID string, amount int64, reason string, cause domain.CancelCause) {
	err := s.uow.WithinTx(ctx, func(ctx context.Context) error {
		payment, err := s.payments.FindByIDForUpdate(ctx, paymentID)
		if err != nil {
			return repoErr(err)
		}
		if err := payment.Cancel(amount, reason, s.now()); err != nil {
			return err
		}
		if err := s.payments.Update(ctx, payment); err != nil {
			return repoErr(err)
		}
		return s.publisher.Publish(ctx, domain.PaymentCanceled{
			PaymentID: payment.ID(),
			OrderID:   payment.OrderID(),
			Amount:    amount,
			Cause:     cause,
		})
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "provider cancel not reflected locally, payment needs manual reconciliation",
			"payment_id", paymentID, "amount", amount, "error", err)
		return
	}
	s.logger.WarnContext(ctx, "provider cancel re-applied after rollback", "payment_id", paymentID, "amount", amount)
}

func (s *PaymentService) RefundPayment(ctx context.Context, cmd RefundPaymentCommand) (*PaymentView, idempotency.Outcome, error) {
	if cmd.PaymentID == "" {
		return nil, idempotency.Outcome{}, domain.NewMissingRequiredFieldError("payment id")
	}
	if cmd.Amount <= 0 {
		return nil, idempotency.Outcome{}, domain.ErrInvalidRefundAmount
	}

	return runCommand(ctx, s.engine, EndpointRefundPayment, cmd.IdempotencyKey, cmd.Fingerprint(), idempotency.RecordStateConflicts,
		func(ctx context.Context) (*PaymentView, error) {
			var view *PaymentView
			err := s.uow.WithinTx(ctx, func(ctx context.Context) error {
				payment, err := s.payments.FindByIDForUpdate(ctx, cmd.PaymentID)
				if err != nil {
					return repoErr(err)
				}
				if err := payment.Refund(cmd.Amount, cmd.Reason, s.now()); err != nil {
					return err
				}
				if err := s.payments.Update(ctx, payment); err != nil {
					return repoErr(err)
				}
				view = toPaymentView(payment)
				return nil
			})
			if err != nil {
				return nil, err
			}
			s.logger.InfoContext(ctx, "payment refunded", "payment_id", cmd.PaymentID, "amount", cmd.Amount)
			return view, nil
		})
}

func (s *PaymentService) GetPayment(ctx context.Context, paymentID string) (*PaymentView, error) {
	payment, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		return nil, repoErr(err)
	}
	return toPaymentView(payment), nil
}

func (s *PaymentService) GetPaymentByOrder(ctx context.Context, orderID string) (*PaymentView, error) {
	payment, err := s.payments.FindLatestByOrderID(ctx, orderID)
	if err != nil {
		return nil, repoErr(err)
	}
	return toPaymentView(payment), nil
}
