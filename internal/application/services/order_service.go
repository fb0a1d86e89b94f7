package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/DanielPopoola/ficmart-commerce/internal/application"
	"github.com/DanielPopoola/ficmart-commerce/internal/application/idempotency"
	"github.com/DanielPopoola/ficmart-commerce/internal/domain"
	"github.com/google/uuid"
)

const (
	EndpointCreateOrder = "create-order"
	EndpointCancelOrder = "cancel-order"
)

type OrderService struct {
	orders    application.OrderRepository
	members   application.MemberDirectory
	uow       application.UnitOfWork
	publisher application.EventPublisher
	engine    *idempotency.Engine
	logger    *slog.Logger
	now       func() time.Time
}

func NewOrderService(
	orders application.OrderRepository,
	members application.MemberDirectory,
	uow application.UnitOfWork,
	publisher application.EventPublisher,
	engine *idempotency.Engine,
	logger *slog.Logger,
) *OrderService {
	return &OrderService{
		orders:    orders,
		members:   members,
		uow:       uow,
		publisher: publisher,
		engine:    engine,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateOrder validates input and the member before touching the
// idempotency store, so a malformed request never uses up a key.
func (s *OrderService) CreateOrder(ctx context.Context, cmd CreateOrderCommand) (*OrderView, idempotency.Outcome, error) {
	if err := domain.ValidateOrderInput(cmd.MemberID, cmd.TotalAmount); err != nil {
		return nil, idempotency.Outcome{}, err
	}
	if _, err := s.members.FindActiveMember(ctx, cmd.MemberID); err != nil {
		return nil, idempotency.Outcome{}, repoErr(err)
	}

	return runCommand(ctx, s.engine, EndpointCreateOrder, cmd.IdempotencyKey, cmd.Fingerprint(), nil,
		func(ctx context.Context) (*OrderView, error) {
			return s.createOrder(ctx, cmd)
		})
}

func (s *OrderService) createOrder(ctx context.Context, cmd CreateOrderCommand) (*OrderView, error) {
	order, err := domain.NewOrder(uuid.NewString(), cmd.MemberID, cmd.TotalAmount, s.now())
	if err != nil {
		return nil, err
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.orders.Create(ctx, order); err != nil {
			return repoErr(err)
		}
		return s.publisher.Publish(ctx, domain.OrderCreated{
			OrderID:     order.ID(),
			MemberID:    order.MemberID(),
			TotalAmount: order.TotalAmount(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "order created", "order_id", order.ID(), "member_id", order.MemberID())
	return toOrderView(order), nil
}

// CancelOrder records state conflicts against the key: a repeated cancel
// replays the first answer, including "already canceled".
func (s *OrderService) CancelOrder(ctx context.Context, cmd CancelOrderCommand) (*OrderView, idempotency.Outcome, error) {
	if cmd.OrderID == "" {
		return nil, idempotency.Outcome{}, domain.NewMissingRequiredFieldError("order id")
	}

	return runCommand(ctx, s.engine, EndpointCancelOrder, cmd.IdempotencyKey, cmd.Fingerprint(), idempotency.RecordStateConflicts,
		func(ctx context.Context) (*OrderView, error) {
			reason := optionalReason(cmd.Reason)
			return s.transition(ctx, cmd.OrderID, func(order *domain.Order) ([]domain.Event, error) {
				if err := order.Cancel(reason, s.now()); err != nil {
					return nil, err
				}
				return []domain.Event{domain.OrderCanceled{OrderID: order.ID(), Reason: reason}}, nil
			})
		})
}

func (s *OrderService) RequestCancel(ctx context.Context, orderID string) (*OrderView, error) {
	return s.transition(ctx, orderID, func(order *domain.Order) ([]domain.Event, error) {
		return nil, order.RequestCancel(s.now())
	})
}

func (s *OrderService) Ship(ctx context.Context, orderID string) (*OrderView, error) {
	return s.transition(ctx, orderID, func(order *domain.Order) ([]domain.Event, error) {
		return nil, order.Ship(s.now())
	})
}

func (s *OrderService) Deliver(ctx context.Context, orderID string) (*OrderView, error) {
	return s.transition(ctx, orderID, func(order *domain.Order) ([]domain.Event, error) {
		return nil, order.Deliver(s.now())
	})
}

func (s *OrderService) Complete(ctx context.Context, orderID string) (*OrderView, error) {
	return s.transition(ctx, orderID, func(order *domain.Order) ([]domain.Event, error) {
		return nil, order.Complete(s.now())
	})
}

func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*OrderView, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, repoErr(err)
	}
	return toOrderView(order), nil
}

// HandlePaymentApproved confirms the order the payment was approved for.
// It runs in the publisher's unit of work.
func (s *OrderService) HandlePaymentApproved(ctx context.Context, event domain.PaymentApproved) error {
	_, err := s.transition(ctx, event.OrderID, func(order *domain.Order) ([]domain.Event, error) {
		if order.Status() == domain.OrderStatusConfirmed {
			return nil, domain.ErrDuplicateApproval
		}
		if err := order.Confirm(s.now()); err != nil {
			return nil, err
		}
		return []domain.Event{domain.OrderPaid{OrderID: order.ID(), Amount: order.TotalAmount()}}, nil
	})
	return err
}

// HandlePaymentCanceled cancels a confirmed order whose payment was canceled.
// Cancellations caused by the order itself are ignored.
func (s *OrderService) HandlePaymentCanceled(ctx context.Context, event domain.PaymentCanceled) error {
	if event.Cause == domain.CancelCauseOrderCanceled {
		s.logger.DebugContext(ctx, "ignoring payment cancel caused by order cancel", "order_id", event.OrderID)
		return nil
	}

	_, err := s.transition(ctx, event.OrderID, func(order *domain.Order) ([]domain.Event, error) {
		if order.Status() != domain.OrderStatusConfirmed {
			return nil, domain.NewInvalidOrderStateError(order.Status(), domain.OrderStatusConfirmed)
		}
		if err := order.Cancel(nil, s.now()); err != nil {
			return nil, err
		}
		return []domain.Event{domain.OrderCanceled{OrderID: order.ID()}}, nil
	})
	return err
}

// transition locks the order, applies change and persists the result
// together with the events change returns.
func (s *OrderService) transition(
	ctx context.Context,
	orderID string,
	change func(order *domain.Order) ([]domain.Event, error),
) (*OrderView, error) {
	var view *OrderView
	err := s.uow.WithinTx(ctx, func(ctx context.Context) error {
		order, err := s.orders.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return repoErr(err)
		}

		from := order.Status()
		events, err := change(order)
		if err != nil {
			return err
		}

		if err := s.orders.Update(ctx, order); err != nil {
			return repoErr(err)
		}
		if err := s.publisher.Publish(ctx, events...); err != nil {
			return err
		}

		s.logger.InfoContext(ctx, "order transitioned",
			"order_id", order.ID(), "from", from, "to", order.Status())
		view = toOrderView(order)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}
