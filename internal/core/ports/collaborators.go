package ports

import (
	"context"
	"errors"

	"github.com/DanielPopoola/atelier-storefront/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ErrStateNotFound is returned by LocalStore.Load when nothing is stored under the key.
var ErrStateNotFound = errors.New("local state not found")

// LocalStore keeps per-session client state such as the cart and selected currency.
type LocalStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Clear(ctx context.Context, key string) error
}

// Catalog is the read-only product store.
type Catalog interface {
	FindProduct(ctx context.Context, id string) (*domain.Product, error)
}

// ShippingRules computes a shipping fee in the base currency.
type ShippingRules interface {
	Fee(subtotalBase decimal.Decimal, country string) decimal.Decimal
}

// Notification is a message for the shopper.
type Notification struct {
	RecipientEmail string
	Subject        string
	Template       string
	TemplateData   map[string]any
}

// Notifier delivers notifications. Callers treat failures as non-fatal.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// PostCommitHook runs after an order is durably stored. Its failure never
// affects the order.
type PostCommitHook interface {
	Name() string
	AfterCommit(ctx context.Context, order *domain.Order) error
}
