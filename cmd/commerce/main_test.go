package main

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/DanielPopoola/ficmart-commerce/internal/application/idempotency"
	"github.com/DanielPopoola/ficmart-commerce/internal/config"
	"github.com/DanielPopoola/ficmart-commerce/internal/infrastructure/persistence/bolt"
	"github.com/DanielPopoola/ficmart-commerce/internal/infrastructure/persistence/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
)

func TestDependencyGraph(t *testing.T) {
	err := fx.ValidateApp(
		configModule,
		persistenceModule,
		applicationModule,
		transportModule,
		fx.Invoke(StartWorkers),
		fx.Invoke(StartServer),
	)
	require.NoError(t, err)
}

func TestProvideIdempotencyStore(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	durable := postgres.NewIdempotencyRepository(nil)
	cache, err := bolt.Open(filepath.Join(t.TempDir(), "records.db"), time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	pgCfg := &config.Config{Idempotency: config.IdempotencyConfig{Store: config.IdempotencyStorePostgres}}
	boltCfg := &config.Config{Idempotency: config.IdempotencyConfig{Store: config.IdempotencyStoreBolt}}

	t.Run("postgres without cache", func(t *testing.T) {
		store, err := provideIdempotencyStore(pgCfg, durable, nil, logger)
		require.NoError(t, err)
		assert.Same(t, durable, store)
	})

	t.Run("postgres behind bolt cache", func(t *testing.T) {
		store, err := provideIdempotencyStore(pgCfg, durable, cache, logger)
		require.NoError(t, err)
		assert.IsType(t, &idempotency.CachedStore{}, store)
	})

	t.Run("bolt record store", func(t *testing.T) {
		store, err := provideIdempotencyStore(boltCfg, durable, cache, logger)
		require.NoError(t, err)
		assert.Same(t, cache, store)
	})

	t.Run("bolt record store without a file", func(t *testing.T) {
		_, err := provideIdempotencyStore(boltCfg, durable, nil, logger)
		assert.Error(t, err)
	})
}

func TestProvideEngine_BoltRecordsRunWithoutTransaction(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cache, err := bolt.Open(filepath.Join(t.TempDir(), "records.db"), time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	cfg := &config.Config{Idempotency: config.IdempotencyConfig{
		Store:            config.IdempotencyStoreBolt,
		OperationTimeout: time.Second,
		WaitTimeout:      time.Second,
		PollInterval:     5 * time.Millisecond,
	}}
	// The coordinator has no pool and would panic if the engine used it.
	engine := provideEngine(cache, postgres.NewTransactionCoordinator(nil), cfg, logger)

	req := idempotency.Request{Endpoint: "create-order", Key: "k1", Fingerprint: "fp"}
	calls := 0
	op := func(ctx context.Context) (string, error) {
		calls++
		return "order-1", nil
	}

	first, _, err := idempotency.Execute(context.Background(), engine, req, op)
	require.NoError(t, err)
	second, outcome, err := idempotency.Execute(context.Background(), engine, req, op)
	require.NoError(t, err)

	assert.Equal(t, "order-1", first)
	assert.Equal(t, first, second)
	assert.True(t, outcome.Replayed)
	assert.Equal(t, 1, calls)
}
