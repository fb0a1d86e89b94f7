package provider

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/DanielPopoola/ficmart-commerce/internal/application"
	"github.com/DanielPopoola/ficmart-commerce/internal/config"
	"github.com/google/uuid"
)

// RetryClient retries transport failures and 5xx answers with exponential
// backoff. Every attempt of one call carries the same idempotency key.
type RetryClient struct {
	inner      application.PaymentProvider
	baseDelay  time.Duration
	maxRetries int
}

func NewRetryClient(inner application.PaymentProvider, cfg config.RetryConfig) *RetryClient {
	maxRetries := int(cfg.MaxRetries)
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &RetryClient{
		inner:      inner,
		baseDelay:  cfg.BaseDelay,
		maxRetries: maxRetries,
	}
}

// Confirm with retry logic
func (r *RetryClient) Confirm(ctx context.Context, req application.ProviderConfirmRequest) (*application.ProviderConfirmResponse, error) {
	return retry(r, ctx, func(ctx context.Context) (*application.ProviderConfirmResponse, error) {
		return r.inner.Confirm(ctx, req)
	})
}

// Cancel with retry logic
func (r *RetryClient) Cancel(ctx context.Context, req application.ProviderCancelRequest) (*application.ProviderCancelResponse, error) {
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = uuid.NewString()
	}
	return retry(r, ctx, func(ctx context.Context) (*application.ProviderCancelResponse, error) {
		return r.inner.Cancel(ctx, req)
	})
}

// Generic retry helper
func retry[T any](r *RetryClient, ctx context.Context, operation func(ctx context.Context) (*T, error)) (*T, error) {
	var lastErr error

	for attempt := 0; attempt < r.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := operation(ctx)
		if err == nil {
			return resp, nil
		}

		lastErr = err

		if !isRetryable(err) {
			return nil, err
		}

		if attempt < r.maxRetries-1 {
			timer := time.NewTimer(r.backoff(attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}
	}

	return nil, fmt.Errorf("maximum retries exceeded: %w", lastErr)
}

func isRetryable(err error) bool {
	var apiErr *application.ProviderAPIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500
	}

	var netErr *application.ProviderNetworkError
	return errors.As(err, &netErr)
}

// Backoff calculation with exponential delay and jitter
func (r *RetryClient) backoff(attempt int) time.Duration {
	base := r.baseDelay * time.Duration(1<<attempt)
	if base <= 0 {
		return 0
	}

	jitter := time.Duration(rand.Int63n(int64(base)/2 + 1))

	return base + jitter
}

var _ application.PaymentProvider = (*RetryClient)(nil)
