package service

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/DanielPopoola/atelier-storefront/internal/core/domain"
	"github.com/DanielPopoola/atelier-storefront/internal/core/ports"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MockStore is an in-memory ports.Store. It enforces the same unique keys and
// attempt version check as the database and rolls WithTx back when fn fails.
type MockStore struct {
	mu        sync.RWMutex
	customers map[string]domain.Customer
	orders    map[uuid.UUID]domain.Order
	attempts  map[uuid.UUID]domain.CheckoutAttempt

	UpsertCustomerFn func(ctx context.Context, u domain.CustomerUpsert) (*domain.Customer, error)
	CreateOrderFn    func(ctx context.Context, order *domain.Order) error
	CreateAttemptFn  func(ctx context.Context, attempt *domain.CheckoutAttempt) error
	UpdateAttemptFn  func(ctx context.Context, attempt *domain.CheckoutAttempt) error
	WithTxFn         func(ctx context.Context, fn func(ports.Store) error) error
}

func NewMockStore() *MockStore {
	return &MockStore{
		customers: make(map[string]domain.Customer),
		orders:    make(map[uuid.UUID]domain.Order),
		attempts:  make(map[uuid.UUID]domain.CheckoutAttempt),
	}
}

func (m *MockStore) UpsertCustomer(ctx context.Context, u domain.CustomerUpsert) (*domain.Customer, error) {
	if m.UpsertCustomerFn != nil {
		return m.UpsertCustomerFn(ctx, u)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	c, ok := m.customers[u.Contact.Email]
	if ok {
		c.RecordOrder(u, now)
	} else {
		c = *domain.NewCustomer(u, now)
	}
	m.customers[u.Contact.Email] = c
	return &c, nil
}

func (m *MockStore) FindCustomerByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.customers[email]
	if !ok {
		return nil, domain.NewNotFoundError("customer", email)
	}
	return &c, nil
}

func (m *MockStore) CreateOrder(ctx context.Context, order *domain.Order) error {
	if m.CreateOrderFn != nil {
		return m.CreateOrderFn(ctx, order)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.OrderNumber == order.OrderNumber {
			return domain.NewDuplicateOrderNumberError(order.OrderNumber)
		}
		if o.PaymentReference == order.PaymentReference {
			return domain.NewDuplicatePaymentReferenceError(order.PaymentReference)
		}
	}
	m.orders[order.ID] = *order
	return nil
}

func (m *MockStore) FindOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, domain.NewNotFoundError("order", id.String())
	}
	return &o, nil
}

func (m *MockStore) FindOrderByPaymentReference(ctx context.Context, reference string) (*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, o := range m.orders {
		if o.PaymentReference == reference {
			return &o, nil
		}
	}
	return nil, domain.NewNotFoundError("order", reference)
}

func (m *MockStore) CreateAttempt(ctx context.Context, attempt *domain.CheckoutAttempt) error {
	if m.CreateAttemptFn != nil {
		return m.CreateAttemptFn(ctx, attempt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.attempts {
		if a.RequestReference == attempt.RequestReference {
			return domain.NewDuplicateRequestReferenceError(attempt.RequestReference)
		}
	}
	m.attempts[attempt.ID] = *attempt
	return nil
}

func (m *MockStore) UpdateAttempt(ctx context.Context, attempt *domain.CheckoutAttempt) error {
	if m.UpdateAttemptFn != nil {
		return m.UpdateAttemptFn(ctx, attempt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.attempts[attempt.ID]
	if !ok {
		return domain.NewNotFoundError("checkout attempt", attempt.ID.String())
	}
	if stored.Version != attempt.Version {
		return domain.NewStaleAttemptError(attempt.ID.String())
	}
	attempt.Version++
	m.attempts[attempt.ID] = *attempt
	return nil
}

func (m *MockStore) FindAttemptByID(ctx context.Context, id uuid.UUID) (*domain.CheckoutAttempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.attempts[id]
	if !ok {
		return nil, domain.NewNotFoundError("checkout attempt", id.String())
	}
	return &a, nil
}

func (m *MockStore) FindAttemptForUpdate(ctx context.Context, id uuid.UUID) (*domain.CheckoutAttempt, error) {
	return m.FindAttemptByID(ctx, id)
}

func (m *MockStore) FindStaleAttempts(ctx context.Context, statuses []domain.AttemptStatus, olderThan time.Duration, limit int) ([]*domain.CheckoutAttempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cutoff := time.Now().Add(-olderThan)
	var out []*domain.CheckoutAttempt
	for _, a := range m.attempts {
		if a.UpdatedAt.After(cutoff) {
			continue
		}
		for _, s := range statuses {
			if a.Status == s {
				a := a
				out = append(out, &a)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockStore) WithTx(ctx context.Context, fn func(ports.Store) error) error {
	if m.WithTxFn != nil {
		return m.WithTxFn(ctx, fn)
	}

	m.mu.RLock()
	customers := maps.Clone(m.customers)
	orders := maps.Clone(m.orders)
	attempts := maps.Clone(m.attempts)
	m.mu.RUnlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.customers, m.orders, m.attempts = customers, orders, attempts
		m.mu.Unlock()
		return err
	}
	return nil
}

// SeedAttempt stores an attempt as-is, bypassing uniqueness checks.
func (m *MockStore) SeedAttempt(attempt *domain.CheckoutAttempt) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts[attempt.ID] = *attempt
}

func (m *MockStore) Orders() []domain.Order {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Order, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, o)
	}
	return out
}

func (m *MockStore) Attempts() []domain.CheckoutAttempt {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.CheckoutAttempt, 0, len(m.attempts))
	for _, a := range m.attempts {
		out = append(out, a)
	}
	return out
}

// MockGateway
type MockGateway struct {
	mu       sync.Mutex
	calls    map[string]int
	Delay    time.Duration
	ChargeFn func(ctx context.Context, req domain.PaymentRequest) (domain.PaymentResult, error)
	VerifyFn func(ctx context.Context, requestReference string) (domain.PaymentResult, error)
	Requests []domain.PaymentRequest
}

func (m *MockGateway) inc(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[method]++
}

func (m *MockGateway) GetCalls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *MockGateway) Charge(ctx context.Context, req domain.PaymentRequest) (domain.PaymentResult, error) {
	m.inc("Charge")
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()
	if m.Delay > 0 {
		time.Sleep(m.Delay)
	}
	if m.ChargeFn != nil {
		return m.ChargeFn(ctx, req)
	}
	return domain.Captured("PSK-" + req.Reference), nil
}

func (m *MockGateway) Verify(ctx context.Context, requestReference string) (domain.PaymentResult, error) {
	m.inc("Verify")
	if m.VerifyFn != nil {
		return m.VerifyFn(ctx, requestReference)
	}
	return domain.Captured("PSK-" + requestReference), nil
}

// FixedShipping charges the same fee everywhere.
type FixedShipping struct {
	FeeBase decimal.Decimal
}

func (f FixedShipping) Fee(decimal.Decimal, string) decimal.Decimal {
	return f.FeeBase
}
