package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/DanielPopoola/ficmart-commerce/internal/application"
	"github.com/DanielPopoola/ficmart-commerce/internal/domain"
	"github.com/jackc/pgx/v5"
)

const orderColumns = `id, member_id, total_amount, status, cancel_reason, created_at, updated_at`

type OrderRepository struct {
	db *DB
}

func NewOrderRepository(db *DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	m := toOrderModel(order)
	_, err := r.db.executor(ctx).Exec(ctx, query,
		m.ID,
		m.MemberID,
		m.TotalAmount,
		m.Status,
		m.CancelReason,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

// FindByID retrieves an order
func (r *OrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	return r.scan(r.db.executor(ctx).QueryRow(ctx, query, id), id)
}

// FindByIDForUpdate retrieves an order with a row-level lock
func (r *OrderRepository) FindByIDForUpdate(ctx context.Context, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`
	return r.scan(r.db.executor(ctx).QueryRow(ctx, query, id), id)
}

func (r *OrderRepository) Update(ctx context.Context, order *domain.Order) error {
	query := `
		UPDATE orders
		SET status = $1, cancel_reason = $2, updated_at = $3
		WHERE id = $4
	`

	m := toOrderModel(order)
	tag, err := r.db.executor(ctx).Exec(ctx, query, m.Status, m.CancelReason, m.UpdatedAt, m.ID)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewOrderNotFoundError(m.ID)
	}

	return nil
}

func (r *OrderRepository) scan(row pgx.Row, id string) (*domain.Order, error) {
	var m OrderModel
	err := row.Scan(&m.ID, &m.MemberID, &m.TotalAmount, &m.Status, &m.CancelReason, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewOrderNotFoundError(id)
		}
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}
	return toOrderDomain(m), nil
}

var _ application.OrderRepository = (*OrderRepository)(nil)
