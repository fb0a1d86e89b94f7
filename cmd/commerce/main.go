package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/DanielPopoola/ficmart-commerce/internal/config"
	"github.com/DanielPopoola/ficmart-commerce/internal/infrastructure/persistence/postgres"
	"github.com/DanielPopoola/ficmart-commerce/internal/interfaces/rest/handlers"
	"github.com/DanielPopoola/ficmart-commerce/internal/interfaces/rest/middleware"
	"github.com/DanielPopoola/ficmart-commerce/internal/worker"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

func main() {
	app := fx.New(
		configModule,
		persistenceModule,
		applicationModule,
		transportModule,

		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger}
		}),
		fx.Invoke(StartWorkers),
		fx.Invoke(StartServer),
	)

	app.Run()
}

func ProvideRouter(cfg *config.Config, h *handlers.Handlers, db *postgres.DB, logger *slog.Logger) *gin.Engine {
	if cfg.Primary.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	r.GET("/healthz", func(c *gin.Context) {
		if err := db.Ping(c.Request.Context()); err != nil {
			logger.Warn("health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	h.RegisterRoutes(r.Group("/api/v1"))

	return r
}

func StartServer(lc fx.Lifecycle, cfg *config.Config, engine *gin.Engine, logger *slog.Logger) {
	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logger.Info("server starting", "addr", server.Addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server error", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("shutting down server...")
			return server.Shutdown(ctx)
		},
	})
}

// StartWorkers runs the background workers for the life of the app. The
// outbox relay only runs when events go through the outbox.
func StartWorkers(
	lc fx.Lifecycle,
	cfg *config.Config,
	expiration *worker.IntentExpirationWorker,
	relay *worker.OutboxRelay,
	logger *slog.Logger,
) {
	var wg sync.WaitGroup
	workerCtx, cancelWorkers := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			wg.Add(1)
			go func() {
				defer wg.Done()
				expiration.Start(workerCtx)
			}()

			if cfg.Events.Mode == config.EventsModeOutbox {
				wg.Add(1)
				go func() {
					defer wg.Done()
					relay.Start(workerCtx)
				}()
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancelWorkers()
			done := make(chan struct{})
			go func() {
				wg.Wait()
				close(done)
			}()
			select {
			case <-done:
				logger.Info("workers stopped")
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}
