package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/DanielPopoola/atelier-storefront/internal/core/domain"
	"github.com/DanielPopoola/atelier-storefront/internal/core/ports"
	"github.com/google/uuid"
)

type MaterializerConfig struct {
	Timeout             time.Duration
	HookTimeout         time.Duration
	FailureWriteTimeout time.Duration
	SupportContact      string
	OrderNumberAttempts int
}

// Materializer turns a captured checkout attempt into a customer and an order.
type Materializer struct {
	store  ports.Store
	hooks  []ports.PostCommitHook
	cfg    MaterializerConfig
	logger *slog.Logger
	wg     sync.WaitGroup
}

func NewMaterializer(store ports.Store, cfg MaterializerConfig, logger *slog.Logger, hooks ...ports.PostCommitHook) *Materializer {
	if cfg.OrderNumberAttempts <= 0 {
		cfg.OrderNumberAttempts = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.HookTimeout <= 0 {
		cfg.HookTimeout = 10 * time.Second
	}
	if cfg.FailureWriteTimeout <= 0 {
		cfg.FailureWriteTimeout = 5 * time.Second
	}
	return &Materializer{
		store:  store,
		hooks:  hooks,
		cfg:    cfg,
		logger: logger,
	}
}

// Materialize runs customer upsert then order insert, strictly in that order.
// It ignores cancellation of ctx: once payment is captured the work runs to
// completion or to a recorded failure within the configured timeout.
// Any failure is a *domain.MaterializationError. When another worker has
// already claimed the attempt the cause is STALE_ATTEMPT and nothing is written.
func (m *Materializer) Materialize(ctx context.Context, attempt *domain.CheckoutAttempt, providerReference string) (*domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.cfg.Timeout)
	defer cancel()

	if err := attempt.MarkMaterializing(providerReference, time.Now()); err != nil {
		return nil, m.fail(attempt, providerReference, domain.StageAttemptUpdate, err)
	}
	if err := m.store.UpdateAttempt(ctx, attempt); err != nil {
		return nil, m.fail(attempt, providerReference, domain.StageAttemptUpdate, err)
	}

	customerID, err := m.ensureCustomer(ctx, attempt)
	if err != nil {
		return nil, m.fail(attempt, providerReference, domain.StageCustomerUpsert, err)
	}

	order, err := m.insertOrder(ctx, attempt, customerID)
	if err != nil {
		m.logger.Error("ORPHANED_CUSTOMER_UPDATE",
			"customer_id", customerID,
			"payment_reference", providerReference,
			"request_reference", attempt.RequestReference,
			"error", err,
		)
		return nil, m.fail(attempt, providerReference, domain.StageOrderInsert, err)
	}

	m.logger.Info("order materialized",
		"order_id", order.ID,
		"order_number", order.OrderNumber,
		"payment_reference", providerReference,
		"total", order.TotalAmount.String(),
		"currency", order.CurrencyCode,
	)

	m.runHooks(order)
	return order, nil
}

// Drain waits for running post-commit hooks.
func (m *Materializer) Drain() {
	m.wg.Wait()
}

// ensureCustomer upserts the customer once per attempt. The customer id is
// stored on the attempt in the same transaction so a retry skips the upsert.
func (m *Materializer) ensureCustomer(ctx context.Context, attempt *domain.CheckoutAttempt) (uuid.UUID, error) {
	if attempt.CustomerID != nil {
		return *attempt.CustomerID, nil
	}

	snap := attempt.Snapshot
	var updated domain.CheckoutAttempt
	err := m.store.WithTx(ctx, func(tx ports.Store) error {
		c, err := tx.UpsertCustomer(ctx, domain.CustomerUpsert{
			Contact:    domain.ContactFromForm(snap.Form),
			OrderTotal: snap.Total,
			Currency:   snap.Currency,
		})
		if err != nil {
			return err
		}

		updated = *attempt
		updated.RecordCustomer(c.ID, time.Now())
		return tx.UpdateAttempt(ctx, &updated)
	})
	if err != nil {
		return uuid.Nil, err
	}

	*attempt = updated
	return *attempt.CustomerID, nil
}

// insertOrder writes the order and marks the attempt done in one transaction,
// re-rolling the order number on a collision.
func (m *Materializer) insertOrder(ctx context.Context, attempt *domain.CheckoutAttempt, customerID uuid.UUID) (*domain.Order, error) {
	for i := 0; i < m.cfg.OrderNumberAttempts; i++ {
		now := time.Now()
		order := domain.NewOrder(attempt.Snapshot, customerID, *attempt.ProviderReference, now)

		done := *attempt
		if err := done.MarkDone(order.ID, now); err != nil {
			return nil, err
		}

		err := m.store.WithTx(ctx, func(tx ports.Store) error {
			if err := tx.CreateOrder(ctx, order); err != nil {
				return err
			}
			return tx.UpdateAttempt(ctx, &done)
		})
		if err == nil {
			*attempt = done
			return order, nil
		}
		if !domain.IsErrorCode(err, domain.ErrCodeDuplicateOrderNumber) {
			return nil, err
		}
		m.logger.Warn("order number collision, re-rolling", "order_number", order.OrderNumber, "attempt", i+1)
	}
	return nil, fmt.Errorf("no unique order number after %d attempts", m.cfg.OrderNumberAttempts)
}

// fail records the failure on the attempt and builds the error shown to the shopper.
func (m *Materializer) fail(attempt *domain.CheckoutAttempt, providerReference string, stage domain.MaterializationStage, cause error) error {
	if errors.Is(cause, context.DeadlineExceeded) {
		stage = domain.StageTimeout
	}

	matErr := &domain.MaterializationError{
		PaymentReference: providerReference,
		RequestReference: attempt.RequestReference,
		Stage:            stage,
		SupportContact:   m.cfg.SupportContact,
		Err:              cause,
	}

	if domain.IsErrorCode(cause, domain.ErrCodeStaleAttempt) {
		m.logger.Warn("checkout attempt claimed by another worker",
			"payment_reference", providerReference,
			"request_reference", attempt.RequestReference,
			"attempt_id", attempt.ID,
			"stage", stage,
		)
		return matErr
	}

	m.logger.Error("PAID_WITHOUT_ORDER",
		"payment_reference", providerReference,
		"request_reference", attempt.RequestReference,
		"attempt_id", attempt.ID,
		"stage", stage,
		"error", cause,
		"action", "MANUAL_RECONCILIATION_REQUIRED",
	)

	if attempt.Status == domain.AttemptMaterializing {
		_ = attempt.MarkFailed(cause, time.Now())
		ctx, cancel := context.WithTimeout(context.Background(), m.cfg.FailureWriteTimeout)
		defer cancel()
		if err := m.store.UpdateAttempt(ctx, attempt); err != nil {
			m.logger.Error("failed to record materialization failure", "attempt_id", attempt.ID, "error", err)
		}
	}

	return matErr
}

// runHooks fires each hook in its own goroutine. A hook sees a copy of the
// order and its error or panic is only logged.
func (m *Materializer) runHooks(order *domain.Order) {
	for _, hook := range m.hooks {
		snapshot := *order
		m.wg.Add(1)
		go func(h ports.PostCommitHook) {
			defer m.wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					m.logger.Error("post-commit hook panicked", "hook", h.Name(), "order_id", snapshot.ID, "panic", rec)
				}
			}()

			ctx, cancel := context.WithTimeout(context.Background(), m.cfg.HookTimeout)
			defer cancel()

			if err := h.AfterCommit(ctx, &snapshot); err != nil {
				m.logger.Warn("post-commit hook failed", "hook", h.Name(), "order_id", snapshot.ID, "error", err)
			}
		}(hook)
	}
}
