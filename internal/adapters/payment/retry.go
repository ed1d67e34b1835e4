package payment

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/DanielPopoola/atelier-storefront/internal/config"
	"github.com/DanielPopoola/atelier-storefront/internal/core/domain"
	"github.com/DanielPopoola/atelier-storefront/internal/core/ports"
)

// RetryGateway retries transient provider failures. Charges are safe to
// repeat because the provider deduplicates on the request reference.
type RetryGateway struct {
	inner      ports.PaymentGateway
	baseDelay  time.Duration
	maxRetries int
}

func NewRetryGateway(inner ports.PaymentGateway, cfg config.RetryConfig) *RetryGateway {
	maxRetries := cfg.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &RetryGateway{
		inner:      inner,
		baseDelay:  cfg.BaseDelay,
		maxRetries: maxRetries,
	}
}

func (r *RetryGateway) Charge(ctx context.Context, req domain.PaymentRequest) (domain.PaymentResult, error) {
	return retry(r, ctx, func(ctx context.Context) (domain.PaymentResult, error) {
		return r.inner.Charge(ctx, req)
	})
}

func (r *RetryGateway) Verify(ctx context.Context, requestReference string) (domain.PaymentResult, error) {
	return retry(r, ctx, func(ctx context.Context) (domain.PaymentResult, error) {
		return r.inner.Verify(ctx, requestReference)
	})
}

func retry[T any](r *RetryGateway, ctx context.Context, operation func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt < r.maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		resp, err := operation(ctx)
		if err == nil {
			return resp, nil
		}

		lastErr = err

		if !isRetryable(err) {
			return zero, err
		}

		if attempt < r.maxRetries-1 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(r.backoff(attempt)):
			}
		}
	}

	return zero, fmt.Errorf("maximum retries exceeded: %w", lastErr)
}

// isRetryable: declines, pending charges and 4xx answers are final.
func isRetryable(err error) bool {
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		return false
	}

	if providerErr, ok := IsProviderError(err); ok {
		return providerErr.IsRetryable()
	}

	if errors.Is(err, context.Canceled) {
		return false
	}

	return true
}

// Backoff calculation with exponential delay and jitter
func (r *RetryGateway) backoff(attempt int) time.Duration {
	base := r.baseDelay * time.Duration(1<<attempt)

	jitter := time.Duration(rand.Intn(1000)) * time.Millisecond

	return base + jitter
}
var _ ports.PaymentGateway = (*RetryGateway)(nil)
