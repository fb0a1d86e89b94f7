package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/DanielPopoola/ficmart-commerce/internal/application"
	"github.com/DanielPopoola/ficmart-commerce/internal/domain"
	"github.com/jackc/pgx/v5"
)

type OutboxRepository struct {
	db *DB
}

func NewOutboxRepository(db *DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// Append writes envelopes in the caller's unit of work, so they commit or
// roll back with the state change that raised them.
func (r *OutboxRepository) Append(ctx context.Context, envelopes ...domain.EventEnvelope) error {
	if len(envelopes) == 0 {
		return nil
	}

	query := `
		INSERT INTO outbox_events (id, event_type, aggregate_id, payload, occurred_at, next_attempt_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`

	batch := &pgx.Batch{}
	for _, env := range envelopes {
		batch.Queue(query, env.ID, string(env.Type), env.AggregateID, jsonb(env.Payload), env.OccurredAt)
	}

	results := r.db.executor(ctx).SendBatch(ctx, batch)
	defer results.Close()

	for range envelopes {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to append outbox event: %w", err)
		}
	}
	return nil
}

// FetchPending locks due, undelivered envelopes for the caller's unit of
// work. Rows locked by another relay are skipped.
func (r *OutboxRepository) FetchPending(ctx context.Context, limit int, now time.Time) ([]domain.EventEnvelope, error) {
	query := `
		SELECT id, event_type, aggregate_id, payload, occurred_at, attempts
		FROM outbox_events
		WHERE delivered_at IS NULL AND next_attempt_at <= $1
		ORDER BY occurred_at ASC
		LIMIT $2
		FOR UPDATE SKIP LOCKED
	`

	rows, err := r.db.executor(ctx).Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending outbox events: %w", err)
	}

	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.EventEnvelope, error) {
		var m OutboxEventModel
		err := row.Scan(&m.ID, &m.EventType, &m.AggregateID, &m.Payload, &m.OccurredAt, &m.Attempts)
		return toEnvelope(m), err
	})
	if err != nil {
		return nil, fmt.Errorf("scan pending outbox events: %w", err)
	}
	return results, nil
}

func (r *OutboxRepository) MarkDelivered(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE outbox_events SET delivered_at = $1, last_error = NULL WHERE id = $2`
	if _, err := r.db.executor(ctx).Exec(ctx, query, at, id); err != nil {
		return fmt.Errorf("failed to mark outbox event delivered: %w", err)
	}
	return nil
}

func (r *OutboxRepository) MarkFailed(ctx context.Context, id string, lastErr string, nextAttemptAt time.Time) error {
	query := `
		UPDATE outbox_events
		SET attempts = attempts + 1, last_error = $1, next_attempt_at = $2
		WHERE id = $3
	`
	if _, err := r.db.executor(ctx).Exec(ctx, query, lastErr, nextAttemptAt, id); err != nil {
		return fmt.Errorf("failed to mark outbox event failed: %w", err)
	}
	return nil
}

var _ application.OutboxRepository = (*OutboxRepository)(nil)
