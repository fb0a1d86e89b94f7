package idempotency

import (
	"context"
	"errors"
	"log/slog"

	"github.com/DanielPopoola/ficmart-commerce/internal/application"
	"github.com/DanielPopoola/ficmart-commerce/internal/domain"
)

// CachedStore reads completed records through a fast cache and falls back
// to the durable store. Only committed, completed records reach the cache:
// it is filled on read, never on Complete, because Complete may still be
// rolled back with its unit of work.
type CachedStore struct {
	durable application.IdempotencyStore
	cache   application.RecordCache
	logger  *slog.Logger
}

func NewCachedStore(durable application.IdempotencyStore, cache application.RecordCache, logger *slog.Logger) *CachedStore {
	return &CachedStore{durable: durable, cache: cache, logger: logger}
}

func (s *CachedStore) Find(ctx context.Context, endpoint, key string) (*domain.IdempotencyRecord, error) {
	record, err := s.cache.Get(ctx, endpoint, key)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, application.ErrIdempotencyRecordNotFound) {
		s.logger.Warn("idempotency cache read failed", "endpoint", endpoint, "key", key, "error", err)
	}

	record, err = s.durable.Find(ctx, endpoint, key)
	if err != nil {
		return nil, err
	}

	if record.IsCompleted() {
		if err := s.cache.Put(ctx, record); err != nil {
			s.logger.Warn("idempotency cache write failed", "endpoint", endpoint, "key", key, "error", err)
		}
	}
	return record, nil
}

func (s *CachedStore) Claim(ctx context.Context, record *domain.IdempotencyRecord) (bool, error) {
	return s.durable.Claim(ctx, record)
}

func (s *CachedStore) Complete(ctx context.Context, record *domain.IdempotencyRecord) error {
	return s.durable.Complete(ctx, record)
}

func (s *CachedStore) Release(ctx context.Context, endpoint, key, owner string) error {
	return s.durable.Release(ctx, endpoint, key, owner)
}
