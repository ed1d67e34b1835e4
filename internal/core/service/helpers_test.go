package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/DanielPopoola/atelier-storefront/internal/adapters/localstore"
	"github.com/DanielPopoola/atelier-storefront/internal/core/domain"
	"github.com/DanielPopoola/atelier-storefront/internal/core/ports"
	"github.com/shopspring/decimal"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testTable(t *testing.T) *domain.CurrencyTable {
	t.Helper()
	table, err := domain.NewCurrencyTable([]domain.Currency{
		{Code: "NGN", Symbol: "₦", Name: "Nigerian Naira", Rate: decimal.NewFromInt(1), Base: true},
		{Code: "USD", Symbol: "$", Name: "US Dollar", Rate: decimal.RequireFromString("0.00065")},
		{Code: "GBP", Symbol: "£", Name: "British Pound", Rate: decimal.RequireFromString("0.0005")},
	})
	if err != nil {
		t.Fatalf("currency table: %v", err)
	}
	return table
}

func dress() domain.Product {
	return domain.Product{
		ID:            "prod-ankara",
		Name:          "Ankara Wrap Dress",
		Slug:          "ankara-wrap-dress",
		Price:         decimal.NewFromInt(20000),
		StockQuantity: 4,
		Images:        []string{"https://cdn.example.com/ankara-1.jpg"},
	}
}

func dressLine(qty int) domain.LineItem {
	return domain.LineItem{
		Product:  dress(),
		Quantity: qty,
		Size:     "M",
		Color:    domain.ColorSelection{Name: "Black", Hex: "#000000"},
	}
}

func validForm() domain.CheckoutForm {
	return domain.CheckoutForm{
		FirstName: "Adaeze",
		LastName:  "Okafor",
		Email:     "adaeze@example.com",
		Phone:     "+2348012345678",
		Address:   "12 Admiralty Way",
		City:      "Lekki",
		State:     "Lagos",
		Country:   "Nigeria",
	}
}

// brokenStore fails every call, like a LocalStore whose backend is down.
type brokenStore struct{}

var errBackendDown = errors.New("connection refused")

func (brokenStore) Load(context.Context, string) ([]byte, error) { return nil, errBackendDown }
func (brokenStore) Save(context.Context, string, []byte) error  { return errBackendDown }
func (brokenStore) Clear(context.Context, string) error         { return errBackendDown }

// deadlineStore refuses writes once the caller's context is done, like a
// network-backed LocalStore.
type deadlineStore struct {
	*localstore.MemoryStore
}

func (s deadlineStore) Clear(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.MemoryStore.Clear(ctx, key)
}

type checkoutFixture struct {
	local      *localstore.MemoryStore
	store      *MockStore
	gateway    *MockGateway
	carts      *CartService
	currencies *CurrencyService
	mat        *Materializer
	svc        *CheckoutService
}

func newCheckoutFixture(t *testing.T, hooks ...*recordingHook) *checkoutFixture {
	t.Helper()
	f := &checkoutFixture{
		local:   localstore.NewMemoryStore(),
		store:   NewMockStore(),
		gateway: &MockGateway{},
	}
	logger := testLogger()
	f.carts = NewCartService(f.local, logger)
	f.currencies = NewCurrencyService(testTable(t), f.local, logger)

	var portsHooks []ports.PostCommitHook
	for _, h := range hooks {
		portsHooks = append(portsHooks, h)
	}
	f.mat = NewMaterializer(f.store, MaterializerConfig{SupportContact: "support@atelier.example"}, logger, portsHooks...)
	f.rebuild(t)
	return f
}

// rebuild recreates the checkout service from the fixture's current parts.
func (f *checkoutFixture) rebuild(t *testing.T) {
	t.Helper()
	svc, err := NewCheckoutService(f.carts, f.currencies, f.store, f.gateway,
		FixedShipping{FeeBase: decimal.NewFromInt(2500)}, f.mat,
		CheckoutConfig{
			PublicKey:      "pk_test",
			PaymentMethod:  "card",
			SupportContact: "support@atelier.example",
			Settlement:     domain.SettlementPolicy{Allowed: []string{"NGN", "USD"}, Default: "NGN"},
		}, testLogger())
	if err != nil {
		t.Fatalf("new checkout service: %v", err)
	}
	f.svc = svc
}

type recordingHook struct {
	mu     sync.Mutex
	name   string
	orders []domain.Order
	err    error
	panics bool
}

func (h *recordingHook) Name() string { return h.name }

func (h *recordingHook) AfterCommit(_ context.Context, order *domain.Order) error {
	if h.panics {
		panic("hook exploded")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.orders = append(h.orders, *order)
	return h.err
}

func (h *recordingHook) calls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.orders)
}
