package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/DanielPopoola/atelier-storefront/internal/core/domain"
	"github.com/DanielPopoola/atelier-storefront/internal/core/ports"
)

type OrderMaterializer interface {
	Materialize(ctx context.Context, attempt *domain.CheckoutAttempt, providerReference string) (*domain.Order, error)
}

type ReconcilerConfig struct {
	Interval    time.Duration
	BatchSize   int
	StaleAfter  time.Duration
	MaxAttempts int
}

// Reconciler finishes checkout attempts the request path left behind:
// payments whose outcome was never seen and captured payments without an order.
type Reconciler struct {
	store        ports.Store
	gateway      ports.PaymentGateway
	materializer OrderMaterializer
	cfg          ReconcilerConfig
	logger       *slog.Logger
}

func NewReconciler(
	store ports.Store,
	gateway ports.PaymentGateway,
	materializer OrderMaterializer,
	cfg ReconcilerConfig,
	logger *slog.Logger,
) *Reconciler {
	return &Reconciler{
		store:        store,
		gateway:      gateway,
		materializer: materializer,
		cfg:          cfg,
		logger:       logger,
	}
}

func (r *Reconciler) Start(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	r.logger.Info("starting background reconciler", "interval", r.cfg.Interval, "batch_size", r.cfg.BatchSize)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("stopping background reconciler")
			return
		case <-ticker.C:
			r.run(ctx)
		}
	}
}

// RunOnce executes a single reconciliation cycle.
func (r *Reconciler) RunOnce(ctx context.Context) {
	r.run(ctx)
}

func (r *Reconciler) run(ctx context.Context) {
	r.reconcileInFlight(ctx)
	r.reconcileUnmaterialized(ctx)
}

// reconcileInFlight asks the provider what happened to payments whose
// request died before the outcome was recorded.
func (r *Reconciler) reconcileInFlight(ctx context.Context) {
	attempts, err := r.store.FindStaleAttempts(ctx, []domain.AttemptStatus{domain.AttemptPaymentInFlight}, r.cfg.StaleAfter, r.cfg.BatchSize)
	if err != nil {
		r.logger.Error("failed to fetch in-flight attempts", "error", err)
		return
	}
	if len(attempts) == 0 {
		return
	}

	r.logger.Info("verifying in-flight payments", "count", len(attempts))

	for _, a := range attempts {
		result, err := r.gateway.Verify(ctx, a.RequestReference)
		if err != nil {
			if domain.IsErrorCode(err, domain.ErrCodePaymentDeclined) {
				r.abandon(ctx, a)
				continue
			}
			r.logger.Warn("payment verification failed, will retry", "attempt_id", a.ID, "request_reference", a.RequestReference, "error", err)
			continue
		}

		if !result.IsCaptured() {
			r.abandon(ctx, a)
			continue
		}

		order, err := r.materializer.Materialize(ctx, a, result.Reference)
		if domain.IsErrorCode(err, domain.ErrCodeStaleAttempt) {
			r.logger.Info("attempt was claimed concurrently, skipping", "attempt_id", a.ID, "request_reference", a.RequestReference)
			continue
		}
		if err != nil {
			r.logger.Error("reconciled payment could not be materialized", "attempt_id", a.ID, "payment_reference", result.Reference, "error", err)
			continue
		}
		r.logger.Info("materialized order for reconciled payment", "attempt_id", a.ID, "order_id", order.ID, "payment_reference", result.Reference)
	}
}

// reconcileUnmaterialized retries captured payments that still have no order.
func (r *Reconciler) reconcileUnmaterialized(ctx context.Context) {
	statuses := []domain.AttemptStatus{domain.AttemptFailed, domain.AttemptMaterializing}
	attempts, err := r.store.FindStaleAttempts(ctx, statuses, r.cfg.StaleAfter, r.cfg.BatchSize)
	if err != nil {
		r.logger.Error("failed to fetch unmaterialized attempts", "error", err)
		return
	}

	for _, a := range attempts {
		if !a.Captured() {
			r.logger.Error("captured attempt has no payment reference", "attempt_id", a.ID, "status", a.Status)
			continue
		}
		reference := *a.ProviderReference

		if a.AttemptCount >= r.cfg.MaxAttempts {
			r.logger.Error("PAID_WITHOUT_ORDER",
				"payment_reference", reference,
				"request_reference", a.RequestReference,
				"attempt_id", a.ID,
				"attempts", a.AttemptCount,
				"action", "MANUAL_RECONCILIATION_REQUIRED",
			)
			continue
		}

		existing, err := r.store.FindOrderByPaymentReference(ctx, reference)
		if err == nil {
			r.markDone(ctx, a, existing)
			continue
		}
		if !domain.IsErrorCode(err, domain.ErrCodeNotFound) {
			r.logger.Error("failed to look up order by payment reference", "payment_reference", reference, "error", err)
			continue
		}

		if a.Status == domain.AttemptMaterializing {
			if err := a.MarkFailed(errors.New("materialization stalled"), time.Now()); err != nil {
				r.logger.Error("failed to reset stalled attempt", "attempt_id", a.ID, "error", err)
				continue
			}
			err := r.store.UpdateAttempt(ctx, a)
			if domain.IsErrorCode(err, domain.ErrCodeStaleAttempt) {
				r.logger.Info("attempt was claimed concurrently, skipping", "attempt_id", a.ID, "request_reference", a.RequestReference)
				continue
			}
			if err != nil {
				r.logger.Error("failed to reset stalled attempt", "attempt_id", a.ID, "error", err)
				continue
			}
		}

		order, err := r.materializer.Materialize(ctx, a, reference)
		if domain.IsErrorCode(err, domain.ErrCodeStaleAttempt) {
			r.logger.Info("attempt was claimed concurrently, skipping", "attempt_id", a.ID, "request_reference", a.RequestReference)
			continue
		}
		if err != nil {
			r.logger.Error("retry materialization failed", "attempt_id", a.ID, "payment_reference", reference, "attempts", a.AttemptCount, "error", err)
			continue
		}
		r.logger.Info("materialized order on retry", "attempt_id", a.ID, "order_id", order.ID, "payment_reference", reference)
	}
}

func (r *Reconciler) abandon(ctx context.Context, a *domain.CheckoutAttempt) {
	err := r.store.WithTx(ctx, func(tx ports.Store) error {
		attempt, err := tx.FindAttemptForUpdate(ctx, a.ID)
		if err != nil {
			return err
		}
		if attempt.Status != domain.AttemptPaymentInFlight {
			return nil
		}
		if err := attempt.MarkAbandoned(time.Now()); err != nil {
			return err
		}
		return tx.UpdateAttempt(ctx, attempt)
	})

	if err != nil {
		r.logger.Error("failed to abandon attempt", "attempt_id", a.ID, "error", err)
	} else {
		r.logger.Info("abandoned unpaid attempt", "attempt_id", a.ID, "request_reference", a.RequestReference)
	}
}

// markDone closes an attempt whose order was written but never recorded on it.
func (r *Reconciler) markDone(ctx context.Context, a *domain.CheckoutAttempt, order *domain.Order) {
	if err := a.MarkDone(order.ID, time.Now()); err != nil {
		r.logger.Error("failed to close attempt", "attempt_id", a.ID, "error", err)
		return
	}
	if err := r.store.UpdateAttempt(ctx, a); err != nil {
		r.logger.Error("failed to close attempt", "attempt_id", a.ID, "error", err)
		return
	}
	r.logger.Info("attempt already had an order", "attempt_id", a.ID, "order_id", order.ID)
}
