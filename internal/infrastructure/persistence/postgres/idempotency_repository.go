package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/DanielPopoola/ficmart-commerce/internal/application"
	"github.com/DanielPopoola/ficmart-commerce/internal/domain"
	"github.com/jackc/pgx/v5"
)

// ErrClaimNotHeld is returned by Complete when the record is no longer a
// PENDING claim of the caller.
var ErrClaimNotHeld = errors.New("idempotency claim is not held by caller")

// IdempotencyRepository is the durable record store. Inside a unit of work
// a Claim on a key another transaction is claiming blocks until that
// transaction ends.
type IdempotencyRepository struct {
	db *DB
}

func NewIdempotencyRepository(db *DB) *IdempotencyRepository {
	return &IdempotencyRepository{db: db}
}

func (r *IdempotencyRepository) Find(ctx context.Context, endpoint, key string) (*domain.IdempotencyRecord, error) {
	query := `
		SELECT endpoint, key, request_hash, status, stored_result, failure_code, failure_message,
		       owner, locked_at, recorded_at
		FROM idempotency_records
		WHERE endpoint = $1 AND key = $2
	`

	var m IdempotencyRecordModel
	err := r.db.executor(ctx).QueryRow(ctx, query, endpoint, key).Scan(
		&m.Endpoint,
		&m.Key,
		&m.RequestHash,
		&m.Status,
		&m.StoredResult,
		&m.FailureCode,
		&m.FailureMessage,
		&m.Owner,
		&m.LockedAt,
		&m.RecordedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, application.ErrIdempotencyRecordNotFound
		}
		return nil, fmt.Errorf("failed to find idempotency record: %w", err)
	}

	return toRecordDomain(m), nil
}

func (r *IdempotencyRepository) Claim(ctx context.Context, record *domain.IdempotencyRecord) (bool, error) {
	query := `
		INSERT INTO idempotency_records (endpoint, key, request_hash, status, owner, locked_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (endpoint, key) DO NOTHING
	`

	tag, err := r.db.executor(ctx).Exec(ctx, query,
		record.Endpoint,
		record.Key,
		record.RequestHash,
		string(domain.IdempotencyStatusPending),
		record.Owner,
		record.LockedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to claim idempotency key: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r *IdempotencyRepository) Complete(ctx context.Context, record *domain.IdempotencyRecord) error {
	query := `
		UPDATE idempotency_records
		SET status = $1, stored_result = $2, failure_code = $3, failure_message = $4, recorded_at = $5
		WHERE endpoint = $6 AND key = $7 AND owner = $8 AND status = 'PENDING'
	`

	var code, message *string
	if record.Failure != nil {
		code, message = &record.Failure.Code, &record.Failure.Message
	}

	tag, err := r.db.executor(ctx).Exec(ctx, query,
		string(record.Status),
		jsonb(record.StoredResult),
		code,
		message,
		record.RecordedAt,
		record.Endpoint,
		record.Key,
		record.Owner,
	)
	if err != nil {
		return fmt.Errorf("failed to complete idempotency record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s/%s", ErrClaimNotHeld, record.Endpoint, record.Key)
	}

	return nil
}

func (r *IdempotencyRepository) Release(ctx context.Context, endpoint, key, owner string) error {
	query := `
		DELETE FROM idempotency_records
		WHERE endpoint = $1 AND key = $2 AND owner = $3 AND status = 'PENDING'
	`

	if _, err := r.db.executor(ctx).Exec(ctx, query, endpoint, key, owner); err != nil {
		return fmt.Errorf("failed to release idempotency claim: %w", err)
	}
	return nil
}

var _ application.IdempotencyStore = (*IdempotencyRepository)(nil)
