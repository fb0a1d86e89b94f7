package domain_test

import (
	"errors"
	"testing"

	"github.com/DanielPopoola/ficmart-commerce/internal/domain"
	"github.com/DanielPopoola/ficmart-commerce/internal/domain/domaintest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = domaintest.DefaultTime

func TestNewOrder(t *testing.T) {
	t.Run("creates order in CREATED", func(t *testing.T) {
		order, err := domain.NewOrder("order-1", "member-1", 10000, now)

		require.NoError(t, err)
		assert.Equal(t, "order-1", order.ID())
		assert.Equal(t, "member-1", order.MemberID())
		assert.Equal(t, int64(10000), order.TotalAmount())
		assert.Equal(t, domain.OrderStatusCreated, order.Status())
		assert.Equal(t, now, order.CreatedAt())
	})

	t.Run("rejects missing member", func(t *testing.T) {
		_, err := domain.NewOrder("order-1", "", 10000, now)
		assert.ErrorIs(t, err, domain.ErrMemberIDRequired)
	})

	t.Run("rejects negative amount", func(t *testing.T) {
		_, err := domain.NewOrder("order-1", "member-1", -500, now)
		assert.ErrorIs(t, err, domain.ErrNegativeOrderAmount)
	})

	t.Run("rejects zero amount", func(t *testing.T) {
		_, err := domain.NewOrder("order-1", "member-1", 0, now)
		assert.ErrorIs(t, err, domain.ErrInvalidOrderAmount)
	})

	t.Run("rejects empty id", func(t *testing.T) {
		_, err := domain.NewOrder("", "member-1", 100, now)
		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeMissingRequiredField))
	})
}

func TestOrder_Transitions(t *testing.T) {
	later := now.Add(1)

	apply := map[domain.OrderStatus]func(o *domain.Order) error{
		domain.OrderStatusConfirmed:       func(o *domain.Order) error { return o.Confirm(later) },
		domain.OrderStatusCancelRequested: func(o *domain.Order) error { return o.RequestCancel(later) },
		domain.OrderStatusCanceled:        func(o *domain.Order) error { return o.Cancel(nil, later) },
		domain.OrderStatusShipped:         func(o *domain.Order) error { return o.Ship(later) },
		domain.OrderStatusDelivered:       func(o *domain.Order) error { return o.Deliver(later) },
		domain.OrderStatusCompleted:       func(o *domain.Order) error { return o.Complete(later) },
	}

	legal := map[domain.OrderStatus][]domain.OrderStatus{
		domain.OrderStatusCreated:         {domain.OrderStatusConfirmed, domain.OrderStatusCancelRequested, domain.OrderStatusCanceled},
		domain.OrderStatusConfirmed:       {domain.OrderStatusCancelRequested, domain.OrderStatusCanceled, domain.OrderStatusShipped},
		domain.OrderStatusCancelRequested: {domain.OrderStatusCanceled},
		domain.OrderStatusShipped:         {domain.OrderStatusDelivered},
		domain.OrderStatusDelivered:       {domain.OrderStatusCompleted},
	}

	all := []domain.OrderStatus{
		domain.OrderStatusCreated,
		domain.OrderStatusConfirmed,
		domain.OrderStatusCancelRequested,
		domain.OrderStatusCanceled,
		domain.OrderStatusShipped,
		domain.OrderStatusDelivered,
		domain.OrderStatusCompleted,
	}

	for _, from := range all {
		for target, fn := range apply {
			allowed := false
			for _, s := range legal[from] {
				if s == target {
					allowed = true
				}
			}

			order := domaintest.AnOrder().InStatus(from).Build()
			err := fn(order)

			if allowed {
				require.NoError(t, err, "%s -> %s", from, target)
				assert.Equal(t, target, order.Status())
				assert.Equal(t, later, order.UpdatedAt())
				continue
			}

			require.Error(t, err, "%s -> %s", from, target)
			assert.Equal(t, from, order.Status(), "status must not change on %s -> %s", from, target)

			var domainErr *domain.DomainError
			require.True(t, errors.As(err, &domainErr))
			if from != target || target == domain.OrderStatusShipped ||
				target == domain.OrderStatusDelivered || target == domain.OrderStatusCompleted {
				assert.ErrorIs(t, err, domain.ErrInvalidOrderState, "%s -> %s", from, target)
			}
		}
	}
}

func TestOrder_AlreadyInTarget(t *testing.T) {
	t.Run("confirm twice", func(t *testing.T) {
		order := domaintest.AnOrder().InStatus(domain.OrderStatusConfirmed).Build()
		err := order.Confirm(now)
		assert.ErrorIs(t, err, domain.ErrOrderAlreadyConfirmed)
		assert.NotErrorIs(t, err, domain.ErrInvalidOrderState)
	})

	t.Run("cancel twice", func(t *testing.T) {
		order := domaintest.AnOrder().InStatus(domain.OrderStatusCanceled).Build()
		assert.ErrorIs(t, order.Cancel(nil, now), domain.ErrAlreadyCanceled)
	})

	t.Run("request cancel twice", func(t *testing.T) {
		order := domaintest.AnOrder().InStatus(domain.OrderStatusCancelRequested).Build()
		assert.ErrorIs(t, order.RequestCancel(now), domain.ErrCancelAlreadyRequested)
	})
}

func TestOrder_CancelAfterShipment(t *testing.T) {
	for _, status := range []domain.OrderStatus{
		domain.OrderStatusShipped,
		domain.OrderStatusDelivered,
		domain.OrderStatusCompleted,
	} {
		order := domaintest.AnOrder().InStatus(status).Build()

		err := order.Cancel(nil, now)

		assert.ErrorIs(t, err, domain.ErrInvalidOrderState)
		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeInvalidTransitionToCanceled))
		assert.Equal(t, status, order.Status())
	}
}

func TestOrder_CancelRecordsReason(t *testing.T) {
	reason := "changed my mind"
	order := domaintest.AnOrder().Build()

	require.NoError(t, order.Cancel(&reason, now))

	require.NotNil(t, order.CancelReason())
	assert.Equal(t, reason, *order.CancelReason())
}

func TestOrderStatus_Legacy(t *testing.T) {
	cases := map[domain.OrderStatus]domain.LegacyOrderStatus{
		domain.OrderStatusCreated:         domain.LegacyStatusPending,
		domain.OrderStatusCancelRequested: domain.LegacyStatusPending,
		domain.OrderStatusConfirmed:       domain.LegacyStatusPaid,
		domain.OrderStatusShipped:         domain.LegacyStatusPaid,
		domain.OrderStatusDelivered:       domain.LegacyStatusPaid,
		domain.OrderStatusCanceled:        domain.LegacyStatusCanceled,
		domain.OrderStatusCompleted:       domain.LegacyStatusCompleted,
	}
	for status, want := range cases {
		assert.Equal(t, want, status.Legacy(), status)
	}
}
