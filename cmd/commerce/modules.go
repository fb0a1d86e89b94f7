package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/DanielPopoola/ficmart-commerce/internal/application"
	"github.com/DanielPopoola/ficmart-commerce/internal/application/events"
	"github.com/DanielPopoola/ficmart-commerce/internal/application/idempotency"
	"github.com/DanielPopoola/ficmart-commerce/internal/application/services"
	"github.com/DanielPopoola/ficmart-commerce/internal/config"
	"github.com/DanielPopoola/ficmart-commerce/internal/infrastructure/persistence/bolt"
	"github.com/DanielPopoola/ficmart-commerce/internal/infrastructure/persistence/postgres"
	"github.com/DanielPopoola/ficmart-commerce/internal/infrastructure/provider"
	"github.com/DanielPopoola/ficmart-commerce/internal/interfaces/rest/handlers"
	"github.com/DanielPopoola/ficmart-commerce/internal/worker"
	"go.uber.org/fx"
)

var configModule = fx.Provide(
	config.LoadConfig,
	provideLogger,
)

var persistenceModule = fx.Provide(
	provideDB,
	fx.Annotate(postgres.NewTransactionCoordinator, fx.As(new(application.UnitOfWork))),
	fx.Annotate(postgres.NewOrderRepository, fx.As(new(application.OrderRepository))),
	fx.Annotate(postgres.NewPaymentRepository, fx.As(new(application.PaymentRepository))),
	postgres.NewIntentRepository,
	fx.Annotate(postgres.NewMemberRepository, fx.As(new(application.MemberDirectory))),
	fx.Annotate(postgres.NewOutboxRepository, fx.As(new(application.OutboxRepository))),
	postgres.NewIdempotencyRepository,
	provideRecordCache,
	provideIdempotencyStore,
)

var applicationModule = fx.Options(
	fx.Provide(
		provideEngine,
		events.NewDispatcher,
		providePublisher,
		providePaymentProvider,
		provideOrderService,
		providePaymentService,
		provideExpirationWorker,
		provideOutboxRelay,
	),
	fx.Invoke(services.RegisterEventHandlers),
)

var transportModule = fx.Provide(
	provideHandlers,
	ProvideRouter,
)

func provideLogger(cfg *config.Config) *slog.Logger {
	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)
	logger.Info("starting commerce service",
		"port", cfg.Server.Port,
		"log_level", cfg.Logger.Level,
		"events_mode", cfg.Events.Mode,
	)
	return logger
}

func provideDB(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) (*postgres.DB, error) {
	db, err := postgres.Connect(context.Background(), &cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(db.Close))
	return db, nil
}

// provideRecordCache opens the bolt cache tier. It is nil when no cache
// path is configured.
func provideRecordCache(lc fx.Lifecycle, cfg *config.Config) (*bolt.Store, error) {
	if cfg.Idempotency.CachePath == "" {
		return nil, nil
	}
	store, err := bolt.Open(cfg.Idempotency.CachePath, cfg.Idempotency.CacheTTL)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(store.Close))
	return store, nil
}

// provideIdempotencyStore picks where records live. Postgres records share
// the services' transactions, optionally behind the bolt cache; the bolt
// record store keeps them in the local file and suits a single process.
func provideIdempotencyStore(
	cfg *config.Config,
	durable *postgres.IdempotencyRepository,
	cache *bolt.Store,
	logger *slog.Logger,
) (application.IdempotencyStore, error) {
	switch {
	case cfg.Idempotency.Store == config.IdempotencyStoreBolt:
		if cache == nil {
			return nil, errors.New("bolt idempotency store needs idempotency.cache_path")
		}
		logger.Info("idempotency records kept in bolt", "path", cfg.Idempotency.CachePath)
		return cache, nil
	case cache == nil:
		return durable, nil
	default:
		return idempotency.NewCachedStore(durable, cache, logger), nil
	}
}

// provideEngine claims keys inside the Postgres unit of work unless the
// records live in bolt, which cannot join it.
func provideEngine(
	store application.IdempotencyStore,
	uow application.UnitOfWork,
	cfg *config.Config,
	logger *slog.Logger,
) *idempotency.Engine {
	if cfg.Idempotency.Store == config.IdempotencyStoreBolt {
		uow = idempotency.NoTx{}
	}
	return idempotency.NewEngine(store, uow, cfg.Idempotency, logger)
}

func providePublisher(cfg *config.Config, d *events.Dispatcher, outbox application.OutboxRepository) application.EventPublisher {
	return events.NewPublisher(cfg.Events, d, outbox)
}

func providePaymentProvider(cfg *config.Config) application.PaymentProvider {
	return provider.NewRetryClient(provider.NewClient(cfg.Provider), cfg.Retry)
}

func provideOrderService(
	orders application.OrderRepository,
	members application.MemberDirectory,
	uow application.UnitOfWork,
	publisher application.EventPublisher,
	engine *idempotency.Engine,
	logger *slog.Logger,
) *services.OrderService {
	return services.NewOrderService(orders, members, uow, publisher, engine, logger)
}

func providePaymentService(
	cfg *config.Config,
	payments application.PaymentRepository,
	intents *postgres.IntentRepository,
	orders application.OrderRepository,
	paymentProvider application.PaymentProvider,
	uow application.UnitOfWork,
	publisher application.EventPublisher,
	engine *idempotency.Engine,
	logger *slog.Logger,
) *services.PaymentService {
	return services.NewPaymentService(
		payments, intents, orders, paymentProvider, uow, publisher, engine, cfg.Intent.TTL, logger,
	)
}

func provideExpirationWorker(
	cfg *config.Config,
	intents *postgres.IntentRepository,
	cache *bolt.Store,
	logger *slog.Logger,
) *worker.IntentExpirationWorker {
	targets := []worker.PurgeTarget{{Name: "payment_intents", Purger: intents}}
	if cache != nil {
		targets = append(targets, worker.PurgeTarget{Name: "idempotency_cache", Purger: cache})
	}
	return worker.NewIntentExpirationWorker(cfg.Worker, logger, targets...)
}

func provideOutboxRelay(
	cfg *config.Config,
	uow application.UnitOfWork,
	outbox application.OutboxRepository,
	d *events.Dispatcher,
	engine *idempotency.Engine,
	logger *slog.Logger,
) *worker.OutboxRelay {
	return worker.NewOutboxRelay(uow, outbox, d, engine, cfg.Worker, logger)
}

func provideHandlers(orders *services.OrderService, payments *services.PaymentService, logger *slog.Logger) *handlers.Handlers {
	return handlers.NewHandlers(orders, payments, logger)
}
