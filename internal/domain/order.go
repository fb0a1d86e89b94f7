package domain

import (
	"slices"
	"time"
)

// OrderStatus represents the current state of an order in its lifecycle
type OrderStatus string

const (
	OrderStatusCreated         OrderStatus = "CREATED"
	OrderStatusConfirmed       OrderStatus = "CONFIRMED"
	OrderStatusCancelRequested OrderStatus = "CANCEL_REQUESTED"
	OrderStatusCanceled        OrderStatus = "CANCELED"
	OrderStatusShipped         OrderStatus = "SHIPPED"
	OrderStatusDelivered       OrderStatus = "DELIVERED"
	OrderStatusCompleted       OrderStatus = "COMPLETED"
)

// LegacyOrderStatus is the four-state vocabulary older clients still read.
type LegacyOrderStatus string

const (
	LegacyStatusPending   LegacyOrderStatus = "PENDING"
	LegacyStatusPaid      LegacyOrderStatus = "PAID"
	LegacyStatusCanceled  LegacyOrderStatus = "CANCELED"
	LegacyStatusCompleted LegacyOrderStatus = "COMPLETED"
)

// Legacy projects the fulfillment-aware status onto the legacy vocabulary.
// A pending cancellation still reads as paid or pending until it lands.
func (s OrderStatus) Legacy() LegacyOrderStatus {
	switch s {
	case OrderStatusConfirmed, OrderStatusShipped, OrderStatusDelivered:
		return LegacyStatusPaid
	case OrderStatusCanceled:
		return LegacyStatusCanceled
	case OrderStatusCompleted:
		return LegacyStatusCompleted
	default:
		return LegacyStatusPending
	}
}

func (s OrderStatus) IsValid() bool {
	return slices.Contains(orderStatuses, s)
}

var orderStatuses = []OrderStatus{
	OrderStatusCreated,
	OrderStatusConfirmed,
	OrderStatusCancelRequested,
	OrderStatusCanceled,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCompleted,
}

// orderTransitions lists, per target, the states an order may leave to reach it.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusConfirmed:       {OrderStatusCreated},
	OrderStatusCancelRequested: {OrderStatusCreated, OrderStatusConfirmed},
	OrderStatusCanceled:        {OrderStatusCreated, OrderStatusConfirmed, OrderStatusCancelRequested},
	OrderStatusShipped:         {OrderStatusConfirmed},
	OrderStatusDelivered:       {OrderStatusShipped},
	OrderStatusCompleted:       {OrderStatusDelivered},
}

var transitionErrorCodes = map[OrderStatus]string{
	OrderStatusConfirmed:       ErrCodeInvalidTransitionToPaid,
	OrderStatusCancelRequested: ErrCodeInvalidTransitionToCancelRequested,
	OrderStatusCanceled:        ErrCodeInvalidTransitionToCanceled,
	OrderStatusShipped:         ErrCodeInvalidTransitionToShipped,
	OrderStatusDelivered:       ErrCodeInvalidTransitionToDelivered,
	OrderStatusCompleted:       ErrCodeInvalidTransitionToCompleted,
}

// alreadyInTarget reports the "nothing to do" sub-kinds so a caller can tell
// a repeated command apart from one that can never succeed.
var alreadyInTarget = map[OrderStatus]*DomainError{
	OrderStatusConfirmed:       ErrOrderAlreadyConfirmed,
	OrderStatusCancelRequested: ErrCancelAlreadyRequested,
	OrderStatusCanceled:        ErrAlreadyCanceled,
}

type Order struct {
	id           string
	memberID     string
	totalAmount  int64
	status       OrderStatus
	cancelReason *string
	createdAt    time.Time
	updatedAt    time.Time
}

// ValidateOrderInput checks creation preconditions without building an order.
func ValidateOrderInput(memberID string, totalAmount int64) error {
	if memberID == "" {
		return ErrMemberIDRequired
	}
	if totalAmount < 0 {
		return ErrNegativeOrderAmount
	}
	if totalAmount == 0 {
		return ErrInvalidOrderAmount
	}
	return nil
}

func NewOrder(id, memberID string, totalAmount int64, now time.Time) (*Order, error) {
	if id == "" {
		return nil, NewMissingRequiredFieldError("order id")
	}
	if err := ValidateOrderInput(memberID, totalAmount); err != nil {
		return nil, err
	}

	return &Order{
		id:          id,
		memberID:    memberID,
		totalAmount: totalAmount,
		status:      OrderStatusCreated,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// ReconstituteOrder rebuilds an order from stored state. It skips the
// creation checks and is meant for repositories and test builders only.
func ReconstituteOrder(
	id string,
	memberID string,
	totalAmount int64,
	status OrderStatus,
	cancelReason *string,
	createdAt time.Time,
	updatedAt time.Time,
) *Order {
	return &Order{
		id:           id,
		memberID:     memberID,
		totalAmount:  totalAmount,
		status:       status,
		cancelReason: cancelReason,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

func (o *Order) ID() string            { return o.id }
func (o *Order) MemberID() string      { return o.memberID }
func (o *Order) TotalAmount() int64    { return o.totalAmount }
func (o *Order) Status() OrderStatus   { return o.status }
func (o *Order) CancelReason() *string { return o.cancelReason }
func (o *Order) CreatedAt() time.Time  { return o.createdAt }
func (o *Order) UpdatedAt() time.Time  { return o.updatedAt }
func (o *Order) IsCanceled() bool      { return o.status == OrderStatusCanceled }

// Confirm marks the order as paid.
func (o *Order) Confirm(at time.Time) error {
	return o.transition(OrderStatusConfirmed, at)
}

func (o *Order) RequestCancel(at time.Time) error {
	return o.transition(OrderStatusCancelRequested, at)
}

// Cancel is only legal before fulfillment begins.
func (o *Order) Cancel(reason *string, at time.Time) error {
	if err := o.transition(OrderStatusCanceled, at); err != nil {
		return err
	}
	o.cancelReason = reason
	return nil
}

func (o *Order) Ship(at time.Time) error {
	return o.transition(OrderStatusShipped, at)
}

func (o *Order) Deliver(at time.Time) error {
	return o.transition(OrderStatusDelivered, at)
}

func (o *Order) Complete(at time.Time) error {
	return o.transition(OrderStatusCompleted, at)
}

// CanTransitionTo reports whether target is reachable in one step.
func (o *Order) CanTransitionTo(target OrderStatus) bool {
	return slices.Contains(orderTransitions[target], o.status)
}

func (o *Order) transition(target OrderStatus, at time.Time) error {
	if o.CanTransitionTo(target) {
		o.status = target
		o.updatedAt = at
		return nil
	}
	if o.status == target {
		if err, ok := alreadyInTarget[target]; ok {
			return err
		}
	}
	return newOrderTransitionError(transitionErrorCodes[target], o.status, target)
}
