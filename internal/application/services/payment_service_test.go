package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DanielPopoola/ficmart-commerce/internal/application"
	"github.com/DanielPopoola/ficmart-commerce/internal/application/services"
	"github.com/DanielPopoola/ficmart-commerce/internal/domain"
	"github.com/DanielPopoola/ficmart-commerce/internal/domain/domaintest"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type PaymentServiceTestSuite struct {
	suite.Suite
	f *fixture
}

func TestPaymentServiceSuite(t *testing.T) {
	suite.Run(t, new(PaymentServiceTestSuite))
}

func (suite *PaymentServiceTestSuite) SetupTest() {
	suite.f = newFixture(suite.T())
}

func approveCommand(key string) services.ApprovePaymentCommand {
	return services.ApprovePaymentCommand{
		IntentID:       "intent-1",
		PaymentKey:     "pk-1",
		OrderID:        "order-5",
		Amount:         10000,
		IdempotencyKey: key,
	}
}

func confirmed(amount int64) *application.ProviderConfirmResponse {
	return &application.ProviderConfirmResponse{PaymentKey: "pk-1", OrderID: "order-5", TotalAmount: amount, Status: "DONE"}
}

func (suite *PaymentServiceTestSuite) givenApprovedPayment(orderStatus domain.OrderStatus) *domain.Payment {
	suite.f.givenOrder("order-5", orderStatus, 10000)
	payment := domaintest.APayment().
		WithID("payment-1").
		ForOrder("order-5").
		WithPaidAmount(10000).
		WithProviderTxnID("pk-1").
		Approved().
		Build()
	suite.f.payments.Put(payment)
	return payment
}

// ============================================================================
// PREPARE
// ============================================================================

func (suite *PaymentServiceTestSuite) Test_PreparePayment_Success() {
	ctx := context.Background()
	suite.f.givenOrder("order-5", domain.OrderStatusCreated, 10000)

	intent, _, err := suite.f.paymentSvc.PreparePayment(ctx, services.PreparePaymentCommand{
		OrderID: "order-5", Amount: 10000, SuccessURL: "https://ok", FailURL: "https://fail",
	})

	suite.Require().NoError(err)
	suite.NotEmpty(intent.IntentID)
	suite.Equal("order-5", intent.OrderID)
	suite.Equal(1, suite.f.intents.Count())
}

func (suite *PaymentServiceTestSuite) Test_PreparePayment_ReplaysSameKey() {
	ctx := context.Background()
	suite.f.givenOrder("order-5", domain.OrderStatusCreated, 10000)
	cmd := services.PreparePaymentCommand{OrderID: "order-5", Amount: 10000, IdempotencyKey: "prep-1"}

	first, _, err := suite.f.paymentSvc.PreparePayment(ctx, cmd)
	suite.Require().NoError(err)
	second, outcome, err := suite.f.paymentSvc.PreparePayment(ctx, cmd)
	suite.Require().NoError(err)

	suite.Equal(first.IntentID, second.IntentID)
	suite.True(outcome.Replayed)
	suite.Equal(1, suite.f.intents.Count())
}

func (suite *PaymentServiceTestSuite) Test_PreparePayment_Rejections() {
	ctx := context.Background()
	suite.f.givenOrder("order-5", domain.OrderStatusCreated, 10000)
	suite.f.givenOrder("order-6", domain.OrderStatusConfirmed, 10000)

	_, _, err := suite.f.paymentSvc.PreparePayment(ctx, services.PreparePaymentCommand{OrderID: "order-5", Amount: 9000})
	suite.ErrorIs(err, domain.ErrPaymentAmountMismatch)

	_, _, err = suite.f.paymentSvc.PreparePayment(ctx, services.PreparePaymentCommand{OrderID: "order-6", Amount: 10000})
	suite.ErrorIs(err, domain.ErrInvalidOrderState)

	_, _, err = suite.f.paymentSvc.PreparePayment(ctx, services.PreparePaymentCommand{OrderID: "order-5", Amount: 0})
	suite.ErrorIs(err, domain.ErrInvalidPaymentAmount)

	_, _, err = suite.f.paymentSvc.PreparePayment(ctx, services.PreparePaymentCommand{OrderID: "missing", Amount: 10})
	suite.ErrorIs(err, domain.ErrOrderNotFound)

	suite.Zero(suite.f.intents.Count())
}

// ============================================================================
// APPROVE
// ============================================================================

func (suite *PaymentServiceTestSuite) Test_ApprovePayment_ConfirmsOrder() {
	ctx := context.Background()
	suite.f.givenOrder("order-5", domain.OrderStatusCreated, 10000)
	suite.f.givenIntent(suite.T(), "intent-1", "order-5", 10000)

	suite.f.provider.EXPECT().
		Confirm(mock.Anything, application.ProviderConfirmRequest{PaymentKey: "pk-1", OrderID: "order-5", Amount: 10000}).
		Return(confirmed(10000), nil).
		Once()

	payment, outcome, err := suite.f.paymentSvc.ApprovePayment(ctx, approveCommand(""))

	suite.Require().NoError(err)
	suite.False(outcome.Replayed)
	suite.Equal(domain.PaymentStatusApproved, payment.Status)
	suite.Equal("pk-1", payment.ProviderTxnID)
	suite.NotNil(payment.ApprovedAt)
	suite.Equal(domain.OrderStatusConfirmed, suite.f.orderStatus(suite.T(), "order-5"))
	suite.Zero(suite.f.intents.Count())
}

func (suite *PaymentServiceTestSuite) Test_ApprovePayment_ReplayDoesNotCallProviderAgain() {
	ctx := context.Background()
	suite.f.givenOrder("order-5", domain.OrderStatusCreated, 10000)
	suite.f.givenIntent(suite.T(), "intent-1", "order-5", 10000)

	suite.f.provider.EXPECT().
		Confirm(mock.Anything, mock.Anything).
		Return(confirmed(10000), nil).
		Once()

	first, _, err := suite.f.paymentSvc.ApprovePayment(ctx, approveCommand("approve-1"))
	suite.Require().NoError(err)
	second, outcome, err := suite.f.paymentSvc.ApprovePayment(ctx, approveCommand("approve-1"))
	suite.Require().NoError(err)

	suite.Equal(first.ID, second.ID)
	suite.True(outcome.Replayed)
	suite.Equal(1, suite.f.payments.Count())
}

func (suite *PaymentServiceTestSuite) Test_ApprovePayment_IntentMismatch() {
	suite.f.givenOrder("order-5", domain.OrderStatusCreated, 10000)
	suite.f.givenIntent(suite.T(), "intent-1", "order-5", 5000)

	_, _, err := suite.f.paymentSvc.ApprovePayment(context.Background(), approveCommand("approve-1"))

	suite.ErrorIs(err, domain.ErrPaymentAmountMismatch)
	suite.Equal(application.KindValidation, application.KindOf(err))
	suite.False(suite.f.records.Has(services.EndpointApprovePayment, "approve-1"))
}

func (suite *PaymentServiceTestSuite) Test_ApprovePayment_UnknownIntent() {
	_, _, err := suite.f.paymentSvc.ApprovePayment(context.Background(), approveCommand(""))

	suite.ErrorIs(err, domain.ErrIntentNotFound)
}

func (suite *PaymentServiceTestSuite) Test_ApprovePayment_AlreadyApproved() {
	suite.givenApprovedPayment(domain.OrderStatusConfirmed)
	suite.f.givenIntent(suite.T(), "intent-1", "order-5", 10000)

	_, _, err := suite.f.paymentSvc.ApprovePayment(context.Background(), approveCommand(""))

	suite.ErrorIs(err, domain.ErrDuplicatePaymentApproval)
}

func (suite *PaymentServiceTestSuite) Test_ApprovePayment_ProviderFailureStaysRetryable() {
	ctx := context.Background()
	suite.f.givenOrder("order-5", domain.OrderStatusCreated, 10000)
	suite.f.givenIntent(suite.T(), "intent-1", "order-5", 10000)

	suite.f.provider.EXPECT().
		Confirm(mock.Anything, mock.Anything).
		Return(nil, &application.ProviderNetworkError{Err: errors.New("timeout")}).
		Once()

	_, _, err := suite.f.paymentSvc.ApprovePayment(ctx, approveCommand("approve-1"))
	suite.Equal(application.ErrCodeProviderNetwork, application.ToErrorCode(err))
	suite.False(suite.f.records.Has(services.EndpointApprovePayment, "approve-1"))

	suite.f.provider.EXPECT().
		Confirm(mock.Anything, mock.Anything).
		Return(confirmed(10000), nil).
		Once()

	payment, outcome, err := suite.f.paymentSvc.ApprovePayment(ctx, approveCommand("approve-1"))
	suite.Require().NoError(err)
	suite.False(outcome.Replayed)
	suite.Equal(domain.PaymentStatusApproved, payment.Status)
}

func (suite *PaymentServiceTestSuite) Test_ApprovePayment_CompensatesWhenOrderRejects() {
	ctx := context.Background()
	suite.f.givenOrder("order-5", domain.OrderStatusCreated, 10000)
	suite.f.givenIntent(suite.T(), "intent-1", "order-5", 10000)

	suite.f.provider.EXPECT().
		Confirm(mock.Anything, mock.Anything).
		Return(confirmed(10000), nil).
		Once()
	suite.f.provider.EXPECT().
		Cancel(mock.Anything, mock.MatchedBy(func(req application.ProviderCancelRequest) bool {
			return req.PaymentKey == "pk-1" && req.CancelAmount == 10000
		})).
		Return(&application.ProviderCancelResponse{Status: "CANCELED"}, nil).
		Once()

	// The order is canceled between intent preparation and approval.
	suite.f.givenOrder("order-5", domain.OrderStatusCanceled, 10000)

	_, _, err := suite.f.paymentSvc.ApprovePayment(ctx, approveCommand(""))

	suite.ErrorIs(err, domain.ErrInvalidOrderState)
	suite.Zero(suite.f.payments.Count())
	suite.Equal(1, suite.f.intents.Count())
}

func (suite *PaymentServiceTestSuite) Test_ApprovePayment_ProviderConfirmsDifferentAmount() {
	suite.f.givenOrder("order-5", domain.OrderStatusCreated, 10000)
	suite.f.givenIntent(suite.T(), "intent-1", "order-5", 10000)

	suite.f.provider.EXPECT().Confirm(mock.Anything, mock.Anything).Return(confirmed(9000), nil).Once()
	suite.f.provider.EXPECT().Cancel(mock.Anything, mock.Anything).Return(&application.ProviderCancelResponse{}, nil).Once()

	_, _, err := suite.f.paymentSvc.ApprovePayment(context.Background(), approveCommand(""))

	suite.ErrorIs(err, domain.ErrPaymentAmountMismatch)
	suite.Equal(domain.OrderStatusCreated, suite.f.orderStatus(suite.T(), "order-5"))
}

func (suite *PaymentServiceTestSuite) Test_ApprovePayment_CompensatesWhenRecordCannotBeStored() {
	ctx := context.Background()
	suite.f.givenOrder("order-5", domain.OrderStatusCreated, 10000)
	suite.f.givenIntent(suite.T(), "intent-1", "order-5", 10000)
	suite.f.records.CompleteErr = errors.New("connection reset")

	suite.f.provider.EXPECT().
		Confirm(mock.Anything, mock.Anything).
		Return(confirmed(10000), nil).
		Once()
	suite.f.provider.EXPECT().
		Cancel(mock.Anything, mock.MatchedBy(func(req application.ProviderCancelRequest) bool {
			return req.PaymentKey == "pk-1" && req.CancelAmount == 10000
		})).
		Return(&application.ProviderCancelResponse{Status: "CANCELED"}, nil).
		Once()

	_, _, err := suite.f.paymentSvc.ApprovePayment(ctx, approveCommand("approve-1"))

	suite.Equal(application.KindRepository, application.KindOf(err))
	suite.Zero(suite.f.payments.Count())
	suite.Equal(1, suite.f.intents.Count())
	suite.Equal(domain.OrderStatusCreated, suite.f.orderStatus(suite.T(), "order-5"))
	suite.False(suite.f.records.Has(services.EndpointApprovePayment, "approve-1"))
}

func (suite *PaymentServiceTestSuite) Test_ApprovePayment_CompensatesOnlyOnce() {
	suite.f.givenOrder("order-5", domain.OrderStatusCreated, 10000)
	suite.f.givenIntent(suite.T(), "intent-1", "order-5", 10000)

	// The mismatch compensates inside the operation and is not recorded, so
	// the claim rolls back as well.
	suite.f.provider.EXPECT().Confirm(mock.Anything, mock.Anything).Return(confirmed(9000), nil).Once()
	suite.f.provider.EXPECT().Cancel(mock.Anything, mock.Anything).Return(&application.ProviderCancelResponse{}, nil).Once()

	_, _, err := suite.f.paymentSvc.ApprovePayment(context.Background(), approveCommand("approve-1"))

	suite.ErrorIs(err, domain.ErrPaymentAmountMismatch)
	suite.Zero(suite.f.payments.Count())
	suite.False(suite.f.records.Has(services.EndpointApprovePayment, "approve-1"))
}

func (suite *PaymentServiceTestSuite) Test_ApprovePayment_MissingFields() {
	cmd := approveCommand("")
	cmd.PaymentKey = ""

	_, _, err := suite.f.paymentSvc.ApprovePayment(context.Background(), cmd)

	suite.ErrorIs(err, domain.ErrMissingRequiredField)
}

// ============================================================================
// CANCEL / REFUND
// ============================================================================

func (suite *PaymentServiceTestSuite) Test_CancelPayment_CancelsOrder() {
	ctx := context.Background()
	suite.givenApprovedPayment(domain.OrderStatusConfirmed)

	suite.f.provider.EXPECT().
		Cancel(mock.Anything, application.ProviderCancelRequest{PaymentKey: "pk-1", CancelAmount: 10000, CancelReason: "x"}).
		Return(&application.ProviderCancelResponse{Status: "CANCELED", CanceledAmount: 10000}, nil).
		Once()

	payment, _, err := suite.f.paymentSvc.CancelPayment(ctx, services.CancelPaymentCommand{PaymentID: "payment-1", Amount: 10000, Reason: "x"})

	suite.Require().NoError(err)
	suite.Equal(domain.PaymentStatusCanceled, payment.Status)
	suite.Equal(int64(10000), payment.CanceledAmount)
	suite.Equal(domain.OrderStatusCanceled, suite.f.orderStatus(suite.T(), "order-5"))
}

func (suite *PaymentServiceTestSuite) Test_CancelPayment_AmountExceeded() {
	suite.givenApprovedPayment(domain.OrderStatusConfirmed)

	_, _, err := suite.f.paymentSvc.CancelPayment(context.Background(), services.CancelPaymentCommand{PaymentID: "payment-1", Amount: 15000, Reason: "x"})

	suite.ErrorIs(err, domain.ErrCancelAmountExceeded)
	stored, _ := suite.f.payments.FindByID(context.Background(), "payment-1")
	suite.Equal(domain.PaymentStatusApproved, stored.Status())
	suite.Zero(stored.CanceledAmount())
}

func (suite *PaymentServiceTestSuite) Test_CancelPayment_ProviderFailureRollsBack() {
	ctx := context.Background()
	suite.givenApprovedPayment(domain.OrderStatusConfirmed)

	suite.f.provider.EXPECT().
		Cancel(mock.Anything, mock.Anything).
		Return(nil, &application.ProviderAPIError{StatusCode: 400, Code: "NOT_CANCELABLE"}).
		Once()

	_, _, err := suite.f.paymentSvc.CancelPayment(ctx, services.CancelPaymentCommand{PaymentID: "payment-1", Amount: 10000})

	suite.Equal(application.KindUpstream, application.KindOf(err))
	stored, _ := suite.f.payments.FindByID(ctx, "payment-1")
	suite.Equal(domain.PaymentStatusApproved, stored.Status())
	suite.Equal(domain.OrderStatusConfirmed, suite.f.orderStatus(suite.T(), "order-5"))
}

func (suite *PaymentServiceTestSuite) Test_CancelPayment_KeepsProviderCancelWhenRecordCannotBeStored() {
	ctx := context.Background()
	suite.givenApprovedPayment(domain.OrderStatusConfirmed)
	suite.f.records.CompleteErr = errors.New("connection reset")

	suite.f.provider.EXPECT().
		Cancel(mock.Anything, mock.Anything).
		Return(&application.ProviderCancelResponse{Status: "CANCELED", CanceledAmount: 10000}, nil).
		Once()

	_, _, err := suite.f.paymentSvc.CancelPayment(ctx, services.CancelPaymentCommand{
		PaymentID: "payment-1", Amount: 10000, Reason: "x", IdempotencyKey: "cancel-1",
	})

	suite.Equal(application.KindRepository, application.KindOf(err))
	stored, err := suite.f.payments.FindByID(ctx, "payment-1")
	suite.Require().NoError(err)
	suite.Equal(domain.PaymentStatusCanceled, stored.Status())
	suite.Equal(int64(10000), stored.CanceledAmount())
	suite.Equal(domain.OrderStatusCanceled, suite.f.orderStatus(suite.T(), "order-5"))
}

func (suite *PaymentServiceTestSuite) Test_CancelPayment_ShippedOrderRejects() {
	suite.givenApprovedPayment(domain.OrderStatusShipped)

	_, _, err := suite.f.paymentSvc.CancelPayment(context.Background(), services.CancelPaymentCommand{PaymentID: "payment-1", Amount: 10000})

	suite.ErrorIs(err, domain.ErrInvalidOrderState)
	stored, _ := suite.f.payments.FindByID(context.Background(), "payment-1")
	suite.Equal(domain.PaymentStatusApproved, stored.Status())
}

func (suite *PaymentServiceTestSuite) Test_CancelOrder_CancelsApprovedPayment() {
	ctx := context.Background()
	suite.givenApprovedPayment(domain.OrderStatusConfirmed)

	suite.f.provider.EXPECT().
		Cancel(mock.Anything, application.ProviderCancelRequest{PaymentKey: "pk-1", CancelAmount: 10000, CancelReason: "out of stock"}).
		Return(&application.ProviderCancelResponse{Status: "CANCELED"}, nil).
		Once()

	order, _, err := suite.f.orderSvc.CancelOrder(ctx, services.CancelOrderCommand{OrderID: "order-5", Reason: "out of stock"})

	suite.Require().NoError(err)
	suite.Equal(domain.OrderStatusCanceled, order.Status)
	payment, err := suite.f.paymentSvc.GetPaymentByOrder(ctx, "order-5")
	suite.Require().NoError(err)
	suite.Equal(domain.PaymentStatusCanceled, payment.Status)
	suite.Equal(int64(10000), payment.CanceledAmount)
}

func (suite *PaymentServiceTestSuite) Test_CancelPayment_ConcurrentModificationIsNotRecorded() {
	ctx := context.Background()
	suite.givenApprovedPayment(domain.OrderStatusConfirmed)
	suite.f.payments.UpdateFn = func(context.Context, *domain.Payment) error {
		return domain.ErrConcurrentModification
	}

	_, _, err := suite.f.paymentSvc.CancelPayment(ctx, services.CancelPaymentCommand{PaymentID: "payment-1", Amount: 100, IdempotencyKey: "c1"})

	suite.ErrorIs(err, domain.ErrConcurrentModification)
	suite.False(suite.f.records.Has(services.EndpointCancelPayment, "c1"))
}

func (suite *PaymentServiceTestSuite) Test_RefundPayment() {
	ctx := context.Background()
	suite.f.givenOrder("order-5", domain.OrderStatusCanceled, 10000)
	suite.f.payments.Put(domaintest.APayment().
		WithID("payment-1").
		ForOrder("order-5").
		WithPaidAmount(10000).
		WithCanceledAmount(10000).
		InStatus(domain.PaymentStatusCanceled).
		Build())

	_, _, err := suite.f.paymentSvc.RefundPayment(ctx, services.RefundPaymentCommand{PaymentID: "payment-1", Amount: 20000})
	suite.ErrorIs(err, domain.ErrRefundAmountExceeded)

	payment, _, err := suite.f.paymentSvc.RefundPayment(ctx, services.RefundPaymentCommand{PaymentID: "payment-1", Amount: 4000, Reason: "damaged"})
	suite.Require().NoError(err)
	suite.Equal(domain.PaymentStatusRefunded, payment.Status)
	suite.Equal(int64(4000), payment.RefundedAmount)

	_, _, err = suite.f.paymentSvc.RefundPayment(ctx, services.RefundPaymentCommand{PaymentID: "payment-1", Amount: 1000})
	suite.ErrorIs(err, domain.ErrPaymentCannotRefund)
}

func (suite *PaymentServiceTestSuite) Test_RefundPayment_ReplaysRecordedConflict() {
	ctx := context.Background()
	suite.givenApprovedPayment(domain.OrderStatusConfirmed)
	cmd := services.RefundPaymentCommand{PaymentID: "payment-1", Amount: 100, IdempotencyKey: "r1"}

	_, _, err := suite.f.paymentSvc.RefundPayment(ctx, cmd)
	suite.ErrorIs(err, domain.ErrPaymentCannotRefund)

	_, outcome, err := suite.f.paymentSvc.RefundPayment(ctx, cmd)
	suite.True(outcome.Replayed)
	suite.Equal(domain.ErrCodePaymentCannotRefund, application.ToErrorCode(err))
}

func (suite *PaymentServiceTestSuite) Test_GetPayment() {
	suite.givenApprovedPayment(domain.OrderStatusConfirmed)

	payment, err := suite.f.paymentSvc.GetPayment(context.Background(), "payment-1")
	suite.Require().NoError(err)
	suite.Equal("order-5", payment.OrderID)

	_, err = suite.f.paymentSvc.GetPayment(context.Background(), "nope")
	suite.ErrorIs(err, domain.ErrPaymentNotFound)
}
