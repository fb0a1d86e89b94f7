package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DanielPopoola/ficmart-commerce/internal/application"
	"github.com/DanielPopoola/ficmart-commerce/internal/domain"
	"github.com/jackc/pgx/v5"
)

type IntentRepository struct {
	db  *DB
	now func() time.Time
}

func NewIntentRepository(db *DB) *IntentRepository {
	return &IntentRepository{db: db, now: time.Now}
}

func (r *IntentRepository) Create(ctx context.Context, intent *domain.PaymentIntent) error {
	query := `
		INSERT INTO payment_intents (id, order_id, amount, success_url, fail_url, idempotency_key, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.executor(ctx).Exec(ctx, query,
		intent.ID,
		intent.OrderID,
		intent.Amount,
		intent.SuccessURL,
		intent.FailURL,
		intent.IdempotencyKey,
		intent.CreatedAt,
		intent.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment intent: %w", err)
	}
	return nil
}

// FindByID purges the intent and reports it missing once it has expired.
// The purge goes straight to the pool so a caller's transaction rolling back
// on the not-found error does not bring the intent back.
func (r *IntentRepository) FindByID(ctx context.Context, id string) (*domain.PaymentIntent, error) {
	query := `
		SELECT id, order_id, amount, success_url, fail_url, idempotency_key, created_at, expires_at
		FROM payment_intents WHERE id = $1
	`

	var m PaymentIntentModel
	err := r.db.executor(ctx).QueryRow(ctx, query, id).Scan(
		&m.ID, &m.OrderID, &m.Amount, &m.SuccessURL, &m.FailURL, &m.IdempotencyKey, &m.CreatedAt, &m.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewIntentNotFoundError(id)
		}
		return nil, fmt.Errorf("failed to find payment intent: %w", err)
	}

	intent := toIntentDomain(m)
	if now := r.now(); intent.IsExpired(now) {
		if err := r.purgeExpired(context.WithoutCancel(ctx), id, now); err != nil {
			return nil, err
		}
		return nil, domain.NewIntentNotFoundError(id)
	}
	return intent, nil
}

func (r *IntentRepository) purgeExpired(ctx context.Context, id string, now time.Time) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM payment_intents WHERE id = $1 AND expires_at <= $2`, id, now)
	if err != nil {
		return fmt.Errorf("failed to purge expired payment intent: %w", err)
	}
	return nil
}

func (r *IntentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.executor(ctx).Exec(ctx, `DELETE FROM payment_intents WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete payment intent: %w", err)
	}
	return nil
}

// PurgeExpired deletes up to limit expired intents, skipping rows another
// worker already holds.
func (r *IntentRepository) PurgeExpired(ctx context.Context, now time.Time, limit int) (int, error) {
	query := `
		DELETE FROM payment_intents
		WHERE id IN (
			SELECT id FROM payment_intents
			WHERE expires_at <= $1
			ORDER BY expires_at ASC
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
	`

	tag, err := r.db.executor(ctx).Exec(ctx, query, now, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired payment intents: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

var _ application.IntentRepository = (*IntentRepository)(nil)
