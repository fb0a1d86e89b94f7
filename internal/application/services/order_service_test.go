package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DanielPopoola/ficmart-commerce/internal/application"
	"github.com/DanielPopoola/ficmart-commerce/internal/application/services"
	"github.com/DanielPopoola/ficmart-commerce/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type OrderServiceTestSuite struct {
	suite.Suite
	f *fixture
}

func TestOrderServiceSuite(t *testing.T) {
	suite.Run(t, new(OrderServiceTestSuite))
}

func (suite *OrderServiceTestSuite) SetupTest() {
	suite.f = newFixture(suite.T())
}

func (suite *OrderServiceTestSuite) expectActiveMember(memberID string) {
	suite.f.members.EXPECT().
		FindActiveMember(mock.Anything, memberID).
		Return(&domain.Member{ID: memberID, Active: true}, nil)
}

// ============================================================================
// CREATE
// ============================================================================

func (suite *OrderServiceTestSuite) Test_CreateOrder_WithoutKey() {
	ctx := context.Background()
	suite.expectActiveMember("member-1")

	order, outcome, err := suite.f.orderSvc.CreateOrder(ctx, services.CreateOrderCommand{
		MemberID:    "member-1",
		TotalAmount: 10000,
	})

	suite.Require().NoError(err)
	suite.Equal(domain.OrderStatusCreated, order.Status)
	suite.Equal(domain.LegacyStatusPending, order.LegacyStatus)
	suite.Equal(int64(10000), order.TotalAmount)
	suite.False(outcome.Replayed)
	suite.Empty(outcome.Key)
	suite.Equal(1, suite.f.orders.Count())
}

func (suite *OrderServiceTestSuite) Test_CreateOrder_ReplaysSameKey() {
	ctx := context.Background()
	suite.expectActiveMember("member-1")
	cmd := services.CreateOrderCommand{MemberID: "member-1", TotalAmount: 10000, IdempotencyKey: "k1"}

	first, firstOutcome, err := suite.f.orderSvc.CreateOrder(ctx, cmd)
	suite.Require().NoError(err)
	second, secondOutcome, err := suite.f.orderSvc.CreateOrder(ctx, cmd)
	suite.Require().NoError(err)

	suite.Equal(first.ID, second.ID)
	suite.False(firstOutcome.Replayed)
	suite.True(secondOutcome.Replayed)
	suite.Equal("k1", secondOutcome.Key)
	suite.Equal(services.EndpointCreateOrder, secondOutcome.Endpoint)
	suite.Equal(1, suite.f.orders.Count())
}

func (suite *OrderServiceTestSuite) Test_CreateOrder_SameKeyDifferentBody() {
	ctx := context.Background()
	suite.expectActiveMember("member-1")

	_, _, err := suite.f.orderSvc.CreateOrder(ctx, services.CreateOrderCommand{MemberID: "member-1", TotalAmount: 10000, IdempotencyKey: "k1"})
	suite.Require().NoError(err)
	_, _, err = suite.f.orderSvc.CreateOrder(ctx, services.CreateOrderCommand{MemberID: "member-1", TotalAmount: 20000, IdempotencyKey: "k1"})

	suite.Equal(application.ErrCodeIdempotencyMismatch, application.ToErrorCode(err))
	suite.Equal(1, suite.f.orders.Count())
}

func (suite *OrderServiceTestSuite) Test_CreateOrder_RejectsBadInputBeforeClaimingKey() {
	ctx := context.Background()

	_, _, err := suite.f.orderSvc.CreateOrder(ctx, services.CreateOrderCommand{MemberID: "member-1", TotalAmount: -500, IdempotencyKey: "k1"})
	suite.ErrorIs(err, domain.ErrNegativeOrderAmount)

	_, _, err = suite.f.orderSvc.CreateOrder(ctx, services.CreateOrderCommand{MemberID: "", TotalAmount: 500, IdempotencyKey: "k1"})
	suite.ErrorIs(err, domain.ErrMemberIDRequired)

	_, _, err = suite.f.orderSvc.CreateOrder(ctx, services.CreateOrderCommand{MemberID: "member-1", TotalAmount: 0, IdempotencyKey: "k1"})
	suite.ErrorIs(err, domain.ErrInvalidOrderAmount)

	suite.False(suite.f.records.Has(services.EndpointCreateOrder, "k1"))
	suite.Zero(suite.f.orders.Count())
}

func (suite *OrderServiceTestSuite) Test_CreateOrder_UnknownMember() {
	ctx := context.Background()
	suite.f.members.EXPECT().
		FindActiveMember(mock.Anything, "ghost").
		Return(nil, domain.NewMemberNotFoundError("ghost")).
		Once()

	_, _, err := suite.f.orderSvc.CreateOrder(ctx, services.CreateOrderCommand{MemberID: "ghost", TotalAmount: 100, IdempotencyKey: "k1"})

	suite.ErrorIs(err, domain.ErrMemberNotFound)
	suite.Equal(application.KindNotFound, application.KindOf(err))
	suite.False(suite.f.records.Has(services.EndpointCreateOrder, "k1"))
}

func (suite *OrderServiceTestSuite) Test_CreateOrder_MemberLookupFails() {
	ctx := context.Background()
	suite.f.members.EXPECT().
		FindActiveMember(mock.Anything, "member-1").
		Return(nil, errors.New("connection refused")).
		Once()

	_, _, err := suite.f.orderSvc.CreateOrder(ctx, services.CreateOrderCommand{MemberID: "member-1", TotalAmount: 100})

	suite.Equal(application.KindRepository, application.KindOf(err))
}

func (suite *OrderServiceTestSuite) Test_CreateOrder_RollsBackWhenPublishFails() {
	ctx := context.Background()
	suite.expectActiveMember("member-1")
	suite.f.dispatcher.Subscribe(domain.EventOrderCreated, "failing", func(context.Context, domain.Event) error {
		return errors.New("handler down")
	})

	_, _, err := suite.f.orderSvc.CreateOrder(ctx, services.CreateOrderCommand{MemberID: "member-1", TotalAmount: 100})

	suite.Error(err)
	suite.Zero(suite.f.orders.Count())
}

// ============================================================================
// CANCEL
// ============================================================================

func (suite *OrderServiceTestSuite) Test_CancelOrder_Created() {
	ctx := context.Background()
	suite.f.givenOrder("order-1", domain.OrderStatusCreated, 10000)

	var published []domain.OrderCanceled
	suite.f.dispatcher.Subscribe(domain.EventOrderCanceled, "capture", func(_ context.Context, e domain.Event) error {
		published = append(published, e.(domain.OrderCanceled))
		return nil
	})

	order, _, err := suite.f.orderSvc.CancelOrder(ctx, services.CancelOrderCommand{OrderID: "order-1", Reason: "changed mind"})

	suite.Require().NoError(err)
	suite.Equal(domain.OrderStatusCanceled, order.Status)
	suite.Require().Len(published, 1)
	suite.Equal("order-1", published[0].OrderID)
	suite.Equal("changed mind", *published[0].Reason)
}

func (suite *OrderServiceTestSuite) Test_CancelOrder_Shipped() {
	ctx := context.Background()
	suite.f.givenOrder("order-1", domain.OrderStatusShipped, 10000)

	_, _, err := suite.f.orderSvc.CancelOrder(ctx, services.CancelOrderCommand{OrderID: "order-1"})

	suite.ErrorIs(err, domain.ErrInvalidOrderState)
	suite.Equal(domain.OrderStatusShipped, suite.f.orderStatus(suite.T(), "order-1"))
}

func (suite *OrderServiceTestSuite) Test_CancelOrder_AlreadyCanceled() {
	ctx := context.Background()
	suite.f.givenOrder("order-1", domain.OrderStatusCanceled, 10000)

	_, _, err := suite.f.orderSvc.CancelOrder(ctx, services.CancelOrderCommand{OrderID: "order-1"})

	suite.ErrorIs(err, domain.ErrAlreadyCanceled)
}

func (suite *OrderServiceTestSuite) Test_CancelOrder_ReplaysRecordedConflict() {
	ctx := context.Background()
	suite.f.givenOrder("order-1", domain.OrderStatusShipped, 10000)
	cmd := services.CancelOrderCommand{OrderID: "order-1", IdempotencyKey: "cancel-1"}

	_, first, err := suite.f.orderSvc.CancelOrder(ctx, cmd)
	suite.ErrorIs(err, domain.ErrInvalidOrderState)
	suite.False(first.Replayed)

	// Even once the order could be canceled, the key keeps its first answer.
	suite.f.givenOrder("order-1", domain.OrderStatusConfirmed, 10000)
	_, second, err := suite.f.orderSvc.CancelOrder(ctx, cmd)

	suite.True(second.Replayed)
	suite.Equal(domain.ErrCodeInvalidTransitionToCanceled, application.ToErrorCode(err))
	suite.Equal(domain.OrderStatusConfirmed, suite.f.orderStatus(suite.T(), "order-1"))
}

func (suite *OrderServiceTestSuite) Test_CancelOrder_NotFound() {
	_, _, err := suite.f.orderSvc.CancelOrder(context.Background(), services.CancelOrderCommand{OrderID: "missing"})
	suite.ErrorIs(err, domain.ErrOrderNotFound)
}

// ============================================================================
// FULFILLMENT
// ============================================================================

func (suite *OrderServiceTestSuite) Test_Fulfillment_FullPath() {
	ctx := context.Background()
	suite.f.givenOrder("order-1", domain.OrderStatusConfirmed, 10000)

	order, err := suite.f.orderSvc.Ship(ctx, "order-1")
	suite.Require().NoError(err)
	suite.Equal(domain.OrderStatusShipped, order.Status)

	order, err = suite.f.orderSvc.Deliver(ctx, "order-1")
	suite.Require().NoError(err)
	suite.Equal(domain.OrderStatusDelivered, order.Status)

	order, err = suite.f.orderSvc.Complete(ctx, "order-1")
	suite.Require().NoError(err)
	suite.Equal(domain.OrderStatusCompleted, order.Status)
	suite.Equal(domain.LegacyStatusCompleted, order.LegacyStatus)
}

func (suite *OrderServiceTestSuite) Test_Ship_Unpaid() {
	suite.f.givenOrder("order-1", domain.OrderStatusCreated, 10000)

	_, err := suite.f.orderSvc.Ship(context.Background(), "order-1")

	suite.ErrorIs(err, domain.ErrInvalidOrderState)
	suite.Equal(domain.OrderStatusCreated, suite.f.orderStatus(suite.T(), "order-1"))
}

func (suite *OrderServiceTestSuite) Test_RequestCancel() {
	ctx := context.Background()
	suite.f.givenOrder("order-1", domain.OrderStatusConfirmed, 10000)

	order, err := suite.f.orderSvc.RequestCancel(ctx, "order-1")
	suite.Require().NoError(err)
	suite.Equal(domain.OrderStatusCancelRequested, order.Status)

	_, err = suite.f.orderSvc.RequestCancel(ctx, "order-1")
	suite.ErrorIs(err, domain.ErrCancelAlreadyRequested)
}

// ============================================================================
// EVENT HANDLERS
// ============================================================================

func (suite *OrderServiceTestSuite) Test_HandlePaymentApproved() {
	ctx := context.Background()
	suite.f.givenOrder("order-1", domain.OrderStatusCreated, 10000)

	var paid []domain.OrderPaid
	suite.f.dispatcher.Subscribe(domain.EventOrderPaid, "capture", func(_ context.Context, e domain.Event) error {
		paid = append(paid, e.(domain.OrderPaid))
		return nil
	})

	err := suite.f.orderSvc.HandlePaymentApproved(ctx, domain.PaymentApproved{OrderID: "order-1", Amount: 10000})

	suite.Require().NoError(err)
	suite.Equal(domain.OrderStatusConfirmed, suite.f.orderStatus(suite.T(), "order-1"))
	suite.Equal([]domain.OrderPaid{{OrderID: "order-1", Amount: 10000}}, paid)

	err = suite.f.orderSvc.HandlePaymentApproved(ctx, domain.PaymentApproved{OrderID: "order-1", Amount: 10000})
	suite.ErrorIs(err, domain.ErrDuplicateApproval)
}

func (suite *OrderServiceTestSuite) Test_HandlePaymentApproved_CanceledOrder() {
	suite.f.givenOrder("order-1", domain.OrderStatusCanceled, 10000)

	err := suite.f.orderSvc.HandlePaymentApproved(context.Background(), domain.PaymentApproved{OrderID: "order-1"})

	suite.ErrorIs(err, domain.ErrInvalidOrderState)
	suite.NotErrorIs(err, domain.ErrDuplicateApproval)
}

func (suite *OrderServiceTestSuite) Test_HandlePaymentCanceled() {
	ctx := context.Background()
	suite.f.givenOrder("order-1", domain.OrderStatusConfirmed, 10000)

	err := suite.f.orderSvc.HandlePaymentCanceled(ctx, domain.PaymentCanceled{OrderID: "order-1", Cause: domain.CancelCauseRequested})

	suite.Require().NoError(err)
	suite.Equal(domain.OrderStatusCanceled, suite.f.orderStatus(suite.T(), "order-1"))
}

func (suite *OrderServiceTestSuite) Test_HandlePaymentCanceled_RequiresConfirmed() {
	suite.f.givenOrder("order-1", domain.OrderStatusCreated, 10000)

	err := suite.f.orderSvc.HandlePaymentCanceled(context.Background(), domain.PaymentCanceled{OrderID: "order-1", Cause: domain.CancelCauseRequested})

	suite.ErrorIs(err, domain.ErrInvalidOrderState)
	suite.Equal(domain.OrderStatusCreated, suite.f.orderStatus(suite.T(), "order-1"))
}

func (suite *OrderServiceTestSuite) Test_HandlePaymentCanceled_IgnoresOwnEcho() {
	suite.f.givenOrder("order-1", domain.OrderStatusCanceled, 10000)

	err := suite.f.orderSvc.HandlePaymentCanceled(context.Background(), domain.PaymentCanceled{OrderID: "order-1", Cause: domain.CancelCauseOrderCanceled})

	suite.NoError(err)
}

func TestCommandFingerprintIgnoresKey(t *testing.T) {
	a := services.CreateOrderCommand{MemberID: "m", TotalAmount: 1, IdempotencyKey: "a"}
	b := services.CreateOrderCommand{MemberID: "m", TotalAmount: 1, IdempotencyKey: "b"}
	c := services.CreateOrderCommand{MemberID: "m", TotalAmount: 2, IdempotencyKey: "a"}

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
	require.Len(t, a.Fingerprint(), 64)
}
