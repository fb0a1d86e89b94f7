package services

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/DanielPopoola/ficmart-commerce/internal/application"
	"github.com/DanielPopoola/ficmart-commerce/internal/application/idempotency"
	"github.com/DanielPopoola/ficmart-commerce/internal/domain"
)

func ComputeHash(v interface{}) string {
	data := fmt.Sprintf("%+v", v)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// runCommand executes op directly when no key was supplied and through the
// idempotency engine otherwise.
func runCommand[T any](
	ctx context.Context,
	engine *idempotency.Engine,
	endpoint string,
	key string,
	fingerprint string,
	recordFailure func(error) bool,
	op idempotency.Operation[T],
) (T, idempotency.Outcome, error) {
	if key == "" {
		v, err := op(ctx)
		return v, idempotency.Outcome{}, err
	}
	return idempotency.Execute(ctx, engine, idempotency.Request{
		Endpoint:      endpoint,
		Key:           key,
		Fingerprint:   fingerprint,
		RecordFailure: recordFailure,
	}, op)
}

// repoErr passes classified errors through and marks anything else coming
// out of a repository as a storage failure.
func repoErr(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := application.IsServiceError(err); ok {
		return err
	}
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return application.NewRepositoryError(err)
}

func optionalReason(reason string) *string {
	if reason == "" {
		return nil
	}
	return &reason
}
