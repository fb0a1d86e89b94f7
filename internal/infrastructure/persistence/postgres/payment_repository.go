package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/DanielPopoola/ficmart-commerce/internal/application"
	"github.com/DanielPopoola/ficmart-commerce/internal/domain"
	"github.com/jackc/pgx/v5"
)

const paymentColumns = `
	id, order_id, paid_amount, canceled_amount, refunded_amount, status,
	provider_txn_id, cancel_reason, refund_reason, version,
	created_at, approved_at, canceled_at, refunded_at`

const approvedPaymentIndex = "uq_payments_order_approved"

type PaymentRepository struct {
	db *DB
}

func NewPaymentRepository(db *DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create stores a new payment at version 1.
func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1, $10, $11, $12, $13)
	`

	p := toPaymentModel(payment)
	_, err := r.db.executor(ctx).Exec(ctx, query,
		p.ID,
		p.OrderID,
		p.PaidAmount,
		p.CanceledAmount,
		p.RefundedAmount,
		p.Status,
		p.ProviderTxnID,
		p.CancelReason,
		p.RefundReason,
		p.CreatedAt,
		p.ApprovedAt,
		p.CanceledAt,
		p.RefundedAt,
	)
	if err != nil {
		if isConstraint(err, approvedPaymentIndex) {
			return domain.ErrDuplicatePaymentApproval
		}
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

// FindByID retrieves a payment
func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	return scanPayment(r.db.executor(ctx).QueryRow(ctx, query, id), id)
}

// FindByIDForUpdate retrieves a payment with row-level lock
func (r *PaymentRepository) FindByIDForUpdate(ctx context.Context, id string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1 FOR UPDATE`
	return scanPayment(r.db.executor(ctx).QueryRow(ctx, query, id), id)
}

func (r *PaymentRepository) FindLatestByOrderID(ctx context.Context, orderID string) (*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments WHERE order_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	return scanPayment(r.db.executor(ctx).QueryRow(ctx, query, orderID), orderID)
}

func (r *PaymentRepository) FindApprovedByOrderID(ctx context.Context, orderID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE order_id = $1 AND status = 'APPROVED'`
	return scanPayment(r.db.executor(ctx).QueryRow(ctx, query, orderID), orderID)
}

// Update writes the payment only if the stored version still matches the
// one it was read at, and bumps the version.
func (r *PaymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	query := `
		UPDATE payments
		SET status = $1,
			canceled_amount = $2, refunded_amount = $3,
			cancel_reason = $4, refund_reason = $5,
			approved_at = $6, canceled_at = $7, refunded_at = $8,
			version = version + 1
		WHERE id = $9 AND version = $10
	`

	p := toPaymentModel(payment)
	exec := r.db.executor(ctx)
	tag, err := exec.Exec(ctx, query,
		p.Status,
		p.CanceledAmount,
		p.RefundedAmount,
		p.CancelReason,
		p.RefundReason,
		p.ApprovedAt,
		p.CanceledAt,
		p.RefundedAt,
		p.ID,
		p.Version,
	)
	if err != nil {
		if isConstraint(err, approvedPaymentIndex) {
			return domain.ErrDuplicatePaymentApproval
		}
		return fmt.Errorf("failed to update payment: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := exec.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM payments WHERE id = $1)`, p.ID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check payment: %w", err)
	}
	if !exists {
		return domain.NewPaymentNotFoundError(p.ID)
	}
	return domain.ErrConcurrentModification
}

func scanPayment(row pgx.Row, lookup string) (*domain.Payment, error) {
	var m PaymentModel
	err := row.Scan(
		&m.ID, &m.OrderID, &m.PaidAmount, &m.CanceledAmount, &m.RefundedAmount, &m.Status,
		&m.ProviderTxnID, &m.CancelReason, &m.RefundReason, &m.Version,
		&m.CreatedAt, &m.ApprovedAt, &m.CanceledAt, &m.RefundedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewPaymentNotFoundError(lookup)
		}
		return nil, fmt.Errorf("failed to scan payment: %w", err)
	}
	return toPaymentDomain(m), nil
}

var _ application.PaymentRepository = (*PaymentRepository)(nil)
