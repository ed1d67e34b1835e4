package ports

import (
	"context"

	"github.com/DanielPopoola/atelier-storefront/internal/core/domain"
)

// PaymentGateway is the external payment capture service.
type PaymentGateway interface {
	// Charge asks the shopper to pay. It returns Captured or Cancelled; an
	// error means the outcome is unknown or the charge was declined.
	Charge(ctx context.Context, req domain.PaymentRequest) (domain.PaymentResult, error)
	// Verify looks up the outcome of an earlier Charge by request reference.
	Verify(ctx context.Context, requestReference string) (domain.PaymentResult, error)
}
