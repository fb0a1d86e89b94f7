// Package idempotency runs client commands at most once per
// (endpoint, key) and replays the recorded outcome to every later caller.
package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/DanielPopoola/ficmart-commerce/internal/application"
	"github.com/DanielPopoola/ficmart-commerce/internal/config"
	"github.com/DanielPopoola/ficmart-commerce/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Request names the dedup slot and the policy for one command.
type Request struct {
	Endpoint string
	Key      string
	// Fingerprint identifies the command's parameters. A key reused with a
	// different fingerprint is rejected.
	Fingerprint string
	// RecordFailure decides which terminal errors are stored and replayed.
	// Retryable errors are never stored, whatever it returns.
	RecordFailure func(err error) bool
}

// Outcome is the replay metadata handed back with every result.
type Outcome struct {
	Endpoint   string
	Key        string
	Replayed   bool
	RecordedAt time.Time
}

// Operation is the command being protected. It runs inside the unit of work
// that holds the claim; side effects outside that unit of work register
// their undo with OnAbort.
type Operation[T any] func(ctx context.Context) (T, error)

type Engine struct {
	store            application.IdempotencyStore
	uow              application.UnitOfWork
	logger           *slog.Logger
	group            singleflight.Group
	operationTimeout time.Duration
	waitTimeout      time.Duration
	pollInterval     time.Duration
	now              func() time.Time
	// rollsBack is false under NoTx, where a failed claim leaves the
	// operation's writes in place and abort hooks must not undo them.
	rollsBack bool
}

func NewEngine(
	store application.IdempotencyStore,
	uow application.UnitOfWork,
	cfg config.IdempotencyConfig,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		store:            store,
		uow:              uow,
		logger:           logger,
		operationTimeout: cfg.OperationTimeout,
		waitTimeout:      cfg.WaitTimeout,
		pollInterval:     cfg.PollInterval,
		now:              func() time.Time { return time.Now().UTC() },
		rollsBack:        !isNoTx(uow),
	}
}

func isNoTx(uow application.UnitOfWork) bool {
	_, ok := uow.(NoTx)
	return ok
}

// NoTx is a UnitOfWork for stores without transactions. Claims are then
// visible to other callers while the operation runs, and the operation's own
// writes stand even when the record cannot be completed.
type NoTx struct{}

func (NoTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// RecordStateConflicts stores STATE_CONFLICT failures so a repeated command
// replays the first rejection. A lost optimistic-lock race is left
// retryable.
func RecordStateConflicts(err error) bool {
	return application.KindOf(err) == application.KindStateConflict &&
		!errors.Is(err, domain.ErrConcurrentModification)
}

// recordable filters what RecordFailure may store: retryable errors must
// stay retryable and bad input must not use up the key.
func recordable(req Request, err error) bool {
	if req.RecordFailure == nil || application.IsRetryable(err) {
		return false
	}
	if application.KindOf(err) == application.KindValidation {
		return false
	}
	return req.RecordFailure(err)
}

type flightResult struct {
	value   any
	outcome Outcome
}

// Execute runs op at most once for (req.Endpoint, req.Key). Later and
// concurrent callers get the stored result, or the stored failure, with
// Outcome.Replayed set.
func Execute[T any](ctx context.Context, e *Engine, req Request, op Operation[T]) (T, Outcome, error) {
	var zero T
	req.Key = strings.TrimSpace(req.Key)
	if req.Key == "" {
		return zero, Outcome{}, application.NewInvalidIdempotencyKeyError()
	}

	leader := false
	flightKey := req.Endpoint + "\x00" + req.Key + "\x00" + req.Fingerprint
	// The shared run outlives any single caller; each caller only stops
	// waiting for it when its own context ends.
	ch := e.group.DoChan(flightKey, func() (any, error) {
		leader = true
		value, outcome, err := execute(context.WithoutCancel(ctx), e, req, op)
		return flightResult{value: value, outcome: outcome}, err
	})

	var shared singleflight.Result
	select {
	case shared = <-ch:
	case <-ctx.Done():
		return zero, Outcome{Endpoint: req.Endpoint, Key: req.Key}, ctx.Err()
	}

	err := shared.Err
	res, _ := shared.Val.(flightResult)
	outcome := res.outcome
	if outcome.Endpoint == "" {
		outcome = Outcome{Endpoint: req.Endpoint, Key: req.Key}
	}
	if !leader {
		outcome.Replayed = true
	}
	value, _ := res.value.(T)
	return value, outcome, err
}

func execute[T any](ctx context.Context, e *Engine, req Request, op Operation[T]) (T, Outcome, error) {
	var zero T
	deadline := time.Now().Add(e.waitTimeout)
	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		record, err := e.store.Find(ctx, req.Endpoint, req.Key)
		switch {
		case errors.Is(err, application.ErrIdempotencyRecordNotFound):
			value, outcome, claimed, err := claimAndRun(ctx, e, req, op)
			if claimed || err != nil {
				return value, outcome, err
			}
			// Lost the race; the winner's record is read on the next pass.
			if time.Now().After(deadline) {
				return zero, Outcome{}, application.NewRequestProcessingError()
			}
			continue
		case err != nil:
			return zero, Outcome{}, application.NewRepositoryError(err)
		}

		if record.RequestHash != req.Fingerprint {
			return zero, Outcome{}, application.NewIdempotencyMismatchError()
		}
		if record.IsCompleted() {
			return replay[T](e, record)
		}

		// Claims are bounded by the operation timeout, so one held twice as
		// long was left behind by a caller that died.
		if time.Since(record.LockedAt) > 2*e.operationTimeout {
			e.logger.Warn("releasing stale idempotency claim",
				"endpoint", req.Endpoint, "key", req.Key, "owner", record.Owner, "locked_at", record.LockedAt)
			if err := e.store.Release(ctx, req.Endpoint, req.Key, record.Owner); err != nil {
				return zero, Outcome{}, application.NewRepositoryError(err)
			}
			continue
		}

		if time.Now().After(deadline) {
			return zero, Outcome{}, application.NewRequestProcessingError()
		}
		select {
		case <-ctx.Done():
			return zero, Outcome{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

// claimAndRun claims the key, runs op and records its outcome in one unit of
// work. claimed is false when another caller holds the key.
func claimAndRun[T any](ctx context.Context, e *Engine, req Request, op Operation[T]) (T, Outcome, bool, error) {
	var zero T
	owner := uuid.NewString()
	claim := domain.NewIdempotencyClaim(req.Endpoint, req.Key, req.Fingerprint, owner, e.now())

	var (
		result    T
		claimed   bool
		recordErr error
	)
	hooks := &abortHooks{}
	txCtx := ctx
	if e.rollsBack {
		txCtx = context.WithValue(ctx, abortKey{}, hooks)
	}
	err := e.uow.WithinTx(txCtx, func(ctx context.Context) error {
		ok, err := e.store.Claim(ctx, claim)
		if err != nil {
			return application.NewRepositoryError(err)
		}
		if !ok {
			return nil
		}
		claimed = true

		opCtx, cancel := context.WithTimeout(ctx, e.operationTimeout)
		defer cancel()

		// The operation gets its own savepoint so a recorded failure keeps
		// the record but discards whatever the operation wrote.
		opErr := e.uow.WithinTx(opCtx, func(opCtx context.Context) error {
			v, err := op(opCtx)
			result = v
			return err
		})
		if opErr != nil {
			if errors.Is(opCtx.Err(), context.DeadlineExceeded) {
				return application.NewOperationTimeoutError(opErr)
			}
			if !recordable(req, opErr) {
				return opErr
			}
			if err := claim.CompleteWithFailure(domain.RecordedFailure{
				Code:    application.ToErrorCode(opErr),
				Message: application.ToErrorMessage(opErr),
			}, e.now()); err != nil {
				return err
			}
			if err := e.store.Complete(ctx, claim); err != nil {
				return application.NewRepositoryError(err)
			}
			recordErr = opErr
			return nil
		}

		raw, err := json.Marshal(result)
		if err != nil {
			e.logger.Warn("operation completed but its result could not be serialized",
				"endpoint", req.Endpoint, "key", req.Key, "error", err)
			return application.NewSerializationError(err)
		}
		if err := claim.CompleteWithResult(raw, e.now()); err != nil {
			return err
		}
		if err := e.store.Complete(ctx, claim); err != nil {
			return application.NewRepositoryError(err)
		}
		return nil
	})

	if err != nil {
		if claimed {
			if n := hooks.run(context.WithoutCancel(ctx)); n > 0 {
				e.logger.Warn("idempotent operation rolled back, ran abort hooks",
					"endpoint", req.Endpoint, "key", req.Key, "hooks", n, "error", err)
			}
			if relErr := e.store.Release(context.WithoutCancel(ctx), req.Endpoint, req.Key, owner); relErr != nil {
				e.logger.Error("failed to release idempotency claim",
					"endpoint", req.Endpoint, "key", req.Key, "error", relErr)
			}
		}
		return zero, Outcome{}, claimed, err
	}
	if !claimed {
		return zero, Outcome{}, false, nil
	}

	outcome := Outcome{Endpoint: req.Endpoint, Key: req.Key, RecordedAt: *claim.RecordedAt}
	if recordErr != nil {
		return zero, outcome, true, recordErr
	}
	return result, outcome, true, nil
}

func replay[T any](e *Engine, record *domain.IdempotencyRecord) (T, Outcome, error) {
	var value T
	outcome := Outcome{
		Endpoint: record.Endpoint,
		Key:      record.Key,
		Replayed: true,
	}
	if record.RecordedAt != nil {
		outcome.RecordedAt = *record.RecordedAt
	}

	if record.Failure != nil {
		return value, outcome, application.NewReplayedError(record.Failure.Code, record.Failure.Message)
	}
	if err := json.Unmarshal(record.StoredResult, &value); err != nil {
		e.logger.Warn("stored idempotent result could not be decoded",
			"endpoint", record.Endpoint, "key", record.Key, "error", err)
		return value, outcome, application.NewSerializationError(err)
	}
	return value, outcome, nil
}
