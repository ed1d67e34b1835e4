package ports

import (
	"context"
	"time"

	"github.com/DanielPopoola/atelier-storefront/internal/core/domain"
	"github.com/google/uuid"
)

// CustomerRepository persists customers keyed by email.
type CustomerRepository interface {
	// UpsertCustomer creates the customer or, if the email exists, overwrites
	// contact fields and increments the counters in one statement.
	UpsertCustomer(ctx context.Context, u domain.CustomerUpsert) (*domain.Customer, error)
	FindCustomerByEmail(ctx context.Context, email string) (*domain.Customer, error)
}

// OrderRepository persists orders. Order numbers and payment references are unique.
type OrderRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	FindOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	FindOrderByPaymentReference(ctx context.Context, reference string) (*domain.Order, error)
}

// AttemptRepository persists checkout attempts, the outbox written before payment.
// UpdateAttempt succeeds only when attempt.Version matches the stored row and
// then increments it; otherwise it returns STALE_ATTEMPT.
type AttemptRepository interface {
	CreateAttempt(ctx context.Context, attempt *domain.CheckoutAttempt) error
	UpdateAttempt(ctx context.Context, attempt *domain.CheckoutAttempt) error
	FindAttemptByID(ctx context.Context, id uuid.UUID) (*domain.CheckoutAttempt, error)
	FindAttemptForUpdate(ctx context.Context, id uuid.UUID) (*domain.CheckoutAttempt, error)
	FindStaleAttempts(ctx context.Context, statuses []domain.AttemptStatus, olderThan time.Duration, limit int) ([]*domain.CheckoutAttempt, error)
}

// Store is the durable store.
type Store interface {
	CustomerRepository
	OrderRepository
	AttemptRepository

	// WithTx executes a function within a database transaction.
	WithTx(ctx context.Context, fn func(Store) error) error
}
