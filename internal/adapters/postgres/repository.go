package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/DanielPopoola/atelier-storefront/internal/core/domain"
	"github.com/DanielPopoola/atelier-storefront/internal/core/ports"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	customerColumns = `id, email, first_name, last_name, phone, address, city, state, country, postal_code,
				total_orders, total_spent::text, currency, created_at, updated_at`

	orderColumns = `id, order_number, customer_id, first_name, last_name, email, phone, address, city, state,
				country, postal_code, items, subtotal::text, shipping_fee::text, total_amount::text,
				currency_code, payment_method, payment_status, payment_reference, order_status,
				tracking_number, admin_notes, created_at, updated_at`

	attemptColumns = `id, session_id, request_reference, provider_reference, status, snapshot,
				customer_id, order_id, attempt_count, last_error, version, created_at, updated_at`
)

// Repository implements ports.Store on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
	q    Executor
}

func NewRepository(db *DB) *Repository {
	return &Repository{
		pool: db.Pool,
		q:    db.Pool,
	}
}

// UpsertCustomer inserts the customer or, when the email exists, overwrites
// the contact fields and bumps the counters in the same statement.
func (r *Repository) UpsertCustomer(ctx context.Context, u domain.CustomerUpsert) (*domain.Customer, error) {
	query := `INSERT INTO customers (
				id, email, first_name, last_name, phone, address, city, state, country, postal_code,
				total_orders, total_spent, currency, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 1, $11::numeric, $12, $13, $13)
			ON CONFLICT (email) DO UPDATE SET
				first_name = EXCLUDED.first_name,
				last_name = EXCLUDED.last_name,
				phone = EXCLUDED.phone,
				address = EXCLUDED.address,
				city = EXCLUDED.city,
				state = EXCLUDED.state,
				country = EXCLUDED.country,
				postal_code = EXCLUDED.postal_code,
				total_orders = customers.total_orders + 1,
				total_spent = customers.total_spent + EXCLUDED.total_spent,
				currency = EXCLUDED.currency,
				updated_at = EXCLUDED.updated_at
			RETURNING ` + customerColumns

	c := u.Contact
	row := r.q.QueryRow(ctx, query,
		uuid.New(),
		c.Email,
		c.FirstName,
		c.LastName,
		c.Phone,
		c.Address,
		c.City,
		c.State,
		c.Country,
		c.PostalCode,
		u.OrderTotal.String(),
		u.Currency,
		time.Now(),
	)

	customer, err := scanCustomer(row)
	if err != nil {
		if violatedConstraint(err) == "customers_email_key" {
			return nil, domain.NewDuplicateEmailError(c.Email)
		}
		return nil, fmt.Errorf("failed to upsert customer: %w", err)
	}
	return customer, nil
}

func (r *Repository) FindCustomerByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE email = $1`

	customer, err := scanCustomer(r.q.QueryRow(ctx, query, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NewNotFoundError("customer", email)
	}
	return customer, err
}

func (r *Repository) CreateOrder(ctx context.Context, o *domain.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("encode order items: %w", err)
	}

	query := `INSERT INTO orders (
				id, order_number, customer_id, first_name, last_name, email, phone, address, city, state,
				country, postal_code, items, subtotal, shipping_fee, total_amount, currency_code,
				payment_method, payment_status, payment_reference, order_status, tracking_number,
				admin_notes, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14::numeric, $15::numeric,
				$16::numeric, $17, $18, $19, $20, $21, $22, $23, $24, $25)`

	c := o.Contact
	_, err = r.q.Exec(ctx, query,
		o.ID,
		o.OrderNumber,
		o.CustomerID,
		c.FirstName,
		c.LastName,
		c.Email,
		c.Phone,
		c.Address,
		c.City,
		c.State,
		c.Country,
		c.PostalCode,
		items,
		o.Subtotal.String(),
		o.ShippingFee.String(),
		o.TotalAmount.String(),
		o.CurrencyCode,
		o.PaymentMethod,
		o.PaymentStatus,
		o.PaymentReference,
		o.OrderStatus,
		o.TrackingNumber,
		o.AdminNotes,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		switch violatedConstraint(err) {
		case "orders_order_number_key":
			return domain.NewDuplicateOrderNumberError(o.OrderNumber)
		case "orders_payment_reference_key":
			return domain.NewDuplicatePaymentReferenceError(o.PaymentReference)
		}
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *Repository) FindOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NewNotFoundError("order", id.String())
	}
	return order, err
}

func (r *Repository) FindOrderByPaymentReference(ctx context.Context, reference string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE payment_reference = $1`

	order, err := scanOrder(r.q.QueryRow(ctx, query, reference))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NewNotFoundError("order", reference)
	}
	return order, err
}

func (r *Repository) CreateAttempt(ctx context.Context, a *domain.CheckoutAttempt) error {
	snapshot, err := json.Marshal(a.Snapshot)
	if err != nil {
		return fmt.Errorf("encode attempt snapshot: %w", err)
	}

	query := `INSERT INTO checkout_attempts (` + attemptColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err = r.q.Exec(ctx, query,
		a.ID,
		a.SessionID,
		a.RequestReference,
		a.ProviderReference,
		a.Status,
		snapshot,
		a.CustomerID,
		a.OrderID,
		a.AttemptCount,
		a.LastError,
		a.Version,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		if violatedConstraint(err) == "checkout_attempts_request_reference_key" {
			return domain.NewDuplicateRequestReferenceError(a.RequestReference)
		}
		return fmt.Errorf("failed to create checkout attempt: %w", err)
	}
	return nil
}

// UpdateAttempt writes the mutable attempt fields if the stored version still
// matches a.Version, then bumps it. The snapshot never changes.
func (r *Repository) UpdateAttempt(ctx context.Context, a *domain.CheckoutAttempt) error {
	query := `
			UPDATE checkout_attempts SET provider_reference = $1, status = $2, customer_id = $3,
				order_id = $4, attempt_count = $5, last_error = $6, updated_at = $7,
				version = version + 1
			WHERE id = $8 AND version = $9
	`

	cmdTag, err := r.q.Exec(ctx, query,
		a.ProviderReference,
		a.Status,
		a.CustomerID,
		a.OrderID,
		a.AttemptCount,
		a.LastError,
		a.UpdatedAt,
		a.ID,
		a.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update checkout attempt: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		var exists bool
		if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM checkout_attempts WHERE id = $1)`, a.ID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check checkout attempt: %w", err)
		}
		if exists {
			return domain.NewStaleAttemptError(a.ID.String())
		}
		return domain.NewNotFoundError("checkout attempt", a.ID.String())
	}
	a.Version++
	return nil
}

func (r *Repository) FindAttemptByID(ctx context.Context, id uuid.UUID) (*domain.CheckoutAttempt, error) {
	query := `SELECT ` + attemptColumns + ` FROM checkout_attempts WHERE id = $1`
	return r.findAttempt(ctx, query, id)
}

// FindAttemptForUpdate locks the row until the surrounding transaction ends.
func (r *Repository) FindAttemptForUpdate(ctx context.Context, id uuid.UUID) (*domain.CheckoutAttempt, error) {
	query := `SELECT ` + attemptColumns + ` FROM checkout_attempts WHERE id = $1 FOR UPDATE`
	return r.findAttempt(ctx, query, id)
}

func (r *Repository) findAttempt(ctx context.Context, query string, id uuid.UUID) (*domain.CheckoutAttempt, error) {
	attempt, err := scanAttempt(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NewNotFoundError("checkout attempt", id.String())
	}
	return attempt, err
}

func (r *Repository) FindStaleAttempts(ctx context.Context, statuses []domain.AttemptStatus, olderThan time.Duration, limit int) ([]*domain.CheckoutAttempt, error) {
	cutoff := time.Now().Add(-olderThan)

	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}

	query := `
			SELECT ` + attemptColumns + `
			FROM checkout_attempts
			WHERE status = ANY($1)
				AND updated_at < $2
			ORDER BY updated_at ASC
			LIMIT $3
	`

	rows, err := r.q.Query(ctx, query, names, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("query stale attempts: %w", err)
	}

	attempts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.CheckoutAttempt, error) {
		return scanAttempt(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan stale attempts: %w", err)
	}
	return attempts, nil
}

// WithTx executes a function within a database transaction
func (r *Repository) WithTx(ctx context.Context, fn func(ports.Store) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	// Defer rollback in case of panic or error (if commit isn't reached)
	defer tx.Rollback(ctx)

	repoWithTx := &Repository{
		pool: r.pool,
		q:    tx, // Switch the executor to the transaction
	}

	if err := fn(repoWithTx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func scanCustomer(row pgx.Row) (*domain.Customer, error) {
	var c customerRow
	err := row.Scan(
		&c.ID,
		&c.Email,
		&c.FirstName,
		&c.LastName,
		&c.Phone,
		&c.Address,
		&c.City,
		&c.State,
		&c.Country,
		&c.PostalCode,
		&c.TotalOrders,
		&c.TotalSpent,
		&c.Currency,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return toDomainCustomer(c)
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o orderRow
	err := row.Scan(
		&o.ID,
		&o.OrderNumber,
		&o.CustomerID,
		&o.FirstName,
		&o.LastName,
		&o.Email,
		&o.Phone,
		&o.Address,
		&o.City,
		&o.State,
		&o.Country,
		&o.PostalCode,
		&o.Items,
		&o.Subtotal,
		&o.ShippingFee,
		&o.TotalAmount,
		&o.CurrencyCode,
		&o.PaymentMethod,
		&o.PaymentStatus,
		&o.PaymentReference,
		&o.OrderStatus,
		&o.TrackingNumber,
		&o.AdminNotes,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return toDomainOrder(o)
}

func scanAttempt(row pgx.Row) (*domain.CheckoutAttempt, error) {
	var a attemptRow
	err := row.Scan(
		&a.ID,
		&a.SessionID,
		&a.RequestReference,
		&a.ProviderReference,
		&a.Status,
		&a.Snapshot,
		&a.CustomerID,
		&a.OrderID,
		&a.AttemptCount,
		&a.LastError,
		&a.Version,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return toDomainAttempt(a)
}
