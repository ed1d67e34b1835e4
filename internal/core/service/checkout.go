package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/DanielPopoola/atelier-storefront/internal/core/domain"
	"github.com/DanielPopoola/atelier-storefront/internal/core/ports"
	"github.com/shopspring/decimal"
)

type CheckoutConfig struct {
	PaymentTimeout time.Duration
	PublicKey      string
	PaymentMethod  string
	SupportContact string
	Settlement     domain.SettlementPolicy
}

type CheckoutStatus string

const (
	CheckoutCompleted CheckoutStatus = "completed"
	CheckoutCancelled CheckoutStatus = "cancelled"
)

// CheckoutResult is the outcome of a pay action.
type CheckoutResult struct {
	Status           CheckoutStatus
	RequestReference string
	Order            *domain.Order
	ConfirmationPath string
}

type SummaryLine struct {
	Item      domain.LineItem
	UnitPrice string
	LineTotal string
}

// CheckoutSummary is the priced cart shown before payment, in the display currency.
type CheckoutSummary struct {
	Lines              []SummaryLine
	ItemCount          int
	Currency           domain.Currency
	Subtotal           decimal.Decimal
	ShippingFee        decimal.Decimal
	Total              decimal.Decimal
	SubtotalFormatted  string
	ShippingFormatted  string
	TotalFormatted     string
	SettlementCurrency string
	Substituted        bool
	AmountMinor        int64
}

// CheckoutService prices the cart, takes payment and hands captured
// payments to the Materializer.
type CheckoutService struct {
	carts        *CartService
	currencies   *CurrencyService
	store        ports.Store
	gateway      ports.PaymentGateway
	shipping     ports.ShippingRules
	materializer *Materializer
	cfg          CheckoutConfig
	guard        *sessionGuard
	logger       *slog.Logger
}

func NewCheckoutService(
	carts *CartService,
	currencies *CurrencyService,
	store ports.Store,
	gateway ports.PaymentGateway,
	shipping ports.ShippingRules,
	materializer *Materializer,
	cfg CheckoutConfig,
	logger *slog.Logger,
) (*CheckoutService, error) {
	table := currencies.Table()
	if _, ok := table.Lookup(cfg.Settlement.Default); !ok {
		return nil, fmt.Errorf("default settlement currency %q is not in the currency table", cfg.Settlement.Default)
	}
	for _, code := range cfg.Settlement.Allowed {
		if _, ok := table.Lookup(code); !ok {
			return nil, fmt.Errorf("settlement currency %q is not in the currency table", code)
		}
	}
	if cfg.PaymentTimeout <= 0 {
		cfg.PaymentTimeout = 2 * time.Minute
	}

	return &CheckoutService{
		carts:        carts,
		currencies:   currencies,
		store:        store,
		gateway:      gateway,
		shipping:     shipping,
		materializer: materializer,
		cfg:          cfg,
		guard:        newSessionGuard(),
		logger:       logger,
	}, nil
}

// View prices the session's cart. An empty cart returns CART_EMPTY so the
// caller can send the shopper back to the catalog.
func (s *CheckoutService) View(ctx context.Context, sessionID, country string) (*CheckoutSummary, error) {
	cart, err := s.carts.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, domain.NewCartEmptyError()
	}

	display := s.currencies.Selected(ctx, sessionID)
	settlement := s.settlementFor(display)

	subtotalBase := cart.Subtotal()
	shippingBase := s.shipping.Fee(subtotalBase, country)

	lines := make([]SummaryLine, 0, len(cart.Items()))
	for _, item := range cart.Items() {
		lines = append(lines, SummaryLine{
			Item:      item,
			UnitPrice: display.Format(item.Product.UnitPrice()),
			LineTotal: display.Format(item.LineTotal()),
		})
	}

	subtotal := display.Round(subtotalBase)
	shipping := display.Round(shippingBase)
	total := subtotal.Add(shipping)

	return &CheckoutSummary{
		Lines:              lines,
		ItemCount:          cart.ItemCount(),
		Currency:           display,
		Subtotal:           subtotal,
		ShippingFee:        shipping,
		Total:              total,
		SubtotalFormatted:  display.FormatConverted(subtotal),
		ShippingFormatted:  display.FormatConverted(shipping),
		TotalFormatted:     display.FormatConverted(total),
		SettlementCurrency: settlement.Code,
		Substituted:        settlement.Code != display.Code,
		AmountMinor:        settlement.MinorUnits(subtotalBase),
	}, nil
}

// Pay validates the form, records a checkout attempt, charges the shopper
// and, once captured, materializes the order and clears the cart.
//
// A cancellation leaves cart and form untouched. Errors before the charge
// is sent are retryable. A charge whose outcome is unknown returns
// *domain.PaymentUnconfirmedError and errors after capture are
// *domain.MaterializationError; neither may be retried by the shopper.
func (s *CheckoutService) Pay(ctx context.Context, sessionID string, form domain.CheckoutForm) (*CheckoutResult, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	if !s.guard.acquire(sessionID) {
		return nil, domain.NewCheckoutInProgressError()
	}
	defer s.guard.release(sessionID)

	cart, err := s.carts.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, domain.NewCartEmptyError()
	}

	display := s.currencies.Selected(ctx, sessionID)
	settlement := s.settlementFor(display)
	if settlement.Code != display.Code {
		s.logger.Info("substituting settlement currency", "session_id", sessionID, "display", display.Code, "settlement", settlement.Code)
	}

	shippingBase := s.shipping.Fee(cart.Subtotal(), form.Normalize().Country)
	snapshot := domain.NewCheckoutSnapshot(sessionID, cart, form, display, settlement, shippingBase, s.cfg.PaymentMethod)

	now := time.Now()
	reference := domain.NewRequestReference(now)
	attempt := domain.NewCheckoutAttempt(snapshot, reference, now)
	if err := s.store.CreateAttempt(ctx, attempt); err != nil {
		return nil, fmt.Errorf("record checkout attempt: %w", err)
	}

	req := snapshot.PaymentRequest(reference, s.cfg.PublicKey)
	result, err := s.charge(ctx, req)
	if err != nil {
		if domain.IsErrorCode(err, domain.ErrCodePaymentDeclined) || domain.IsErrorCode(err, domain.ErrCodePaymentFailed) {
			s.closeAttempt(attempt, domain.AttemptAbandoned)
			return nil, err
		}
		// Outcome unknown: the reconciler verifies the attempt later.
		s.logger.Warn("payment outcome unknown", "session_id", sessionID, "request_reference", reference, "error", err)
		return nil, &domain.PaymentUnconfirmedError{
			RequestReference: reference,
			SupportContact:   s.cfg.SupportContact,
			Err:              err,
		}
	}

	if !result.IsCaptured() {
		s.closeAttempt(attempt, domain.AttemptCancelled)
		s.logger.Info("payment cancelled by shopper", "session_id", sessionID, "request_reference", reference)
		return &CheckoutResult{Status: CheckoutCancelled, RequestReference: reference}, nil
	}

	order, err := s.materializer.Materialize(ctx, attempt, result.Reference)
	if err != nil {
		return nil, err
	}

	// The order exists; the cart is cleared even if the caller has gone away.
	clearCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	s.carts.Clear(clearCtx, sessionID)

	return &CheckoutResult{
		Status:           CheckoutCompleted,
		RequestReference: reference,
		Order:            order,
		ConfirmationPath: fmt.Sprintf("/orders/%s", order.ID),
	}, nil
}

func (s *CheckoutService) charge(ctx context.Context, req domain.PaymentRequest) (domain.PaymentResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.PaymentTimeout)
	defer cancel()
	return s.gateway.Charge(ctx, req)
}

func (s *CheckoutService) settlementFor(display domain.Currency) domain.Currency {
	code, _ := s.cfg.Settlement.Resolve(display.Code)
	return s.currencies.Table().Resolve(code)
}

// closeAttempt ends a pre-capture attempt. Failures are logged only; the
// reconciler resolves attempts left in flight.
func (s *CheckoutService) closeAttempt(attempt *domain.CheckoutAttempt, status domain.AttemptStatus) {
	var err error
	now := time.Now()
	switch status {
	case domain.AttemptCancelled:
		err = attempt.MarkCancelled(now)
	case domain.AttemptAbandoned:
		err = attempt.MarkAbandoned(now)
	}
	if err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = s.store.UpdateAttempt(ctx, attempt)
	}
	if err != nil {
		s.logger.Warn("failed to close checkout attempt", "attempt_id", attempt.ID, "status", status, "error", err)
	}
}

// sessionGuard rejects a second checkout for a session while one is running.
type sessionGuard struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func newSessionGuard() *sessionGuard {
	return &sessionGuard{active: make(map[string]struct{})}
}

func (g *sessionGuard) acquire(sessionID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.active[sessionID]; busy {
		return false
	}
	g.active[sessionID] = struct{}{}
	return true
}

func (g *sessionGuard) release(sessionID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.active, sessionID)
}
