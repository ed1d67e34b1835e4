package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CheckoutSnapshot is everything needed to build the order, frozen before
// the payment provider is called. Amounts other than SubtotalBase are in
// the settlement currency.
type CheckoutSnapshot struct {
	SessionID       string          `json:"session_id"`
	Lines           []LineItem      `json:"lines"`
	Form            CheckoutForm    `json:"form"`
	DisplayCurrency string          `json:"display_currency"`
	Currency        string          `json:"currency"`
	Rate            decimal.Decimal `json:"rate"`
	DecimalPlaces   int32           `json:"decimal_places"`
	SubtotalBase    decimal.Decimal `json:"subtotal_base"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	ShippingFee     decimal.Decimal `json:"shipping_fee"`
	Total           decimal.Decimal `json:"total"`
	AmountMinor     int64           `json:"amount_minor"`
	PaymentMethod   string          `json:"payment_method"`
}

// NewCheckoutSnapshot prices the cart in the settlement currency. The amount
// sent for payment is the subtotal; shippingFeeBase is added to the order
// total only.
func NewCheckoutSnapshot(
	sessionID string,
	cart *Cart,
	form CheckoutForm,
	display, settlement Currency,
	shippingFeeBase decimal.Decimal,
	paymentMethod string,
) CheckoutSnapshot {
	subtotalBase := cart.Subtotal()
	subtotal := settlement.Round(subtotalBase)
	shipping := settlement.Round(shippingFeeBase)
	return CheckoutSnapshot{
		SessionID:       sessionID,
		Lines:           cart.Items(),
		Form:            form.Normalize(),
		DisplayCurrency: display.Code,
		Currency:        settlement.Code,
		Rate:            settlement.Rate,
		DecimalPlaces:   settlement.DecimalPlaces(),
		SubtotalBase:    subtotalBase,
		Subtotal:        subtotal,
		ShippingFee:     shipping,
		Total:           subtotal.Add(shipping),
		AmountMinor:     settlement.MinorUnits(subtotalBase),
		PaymentMethod:   paymentMethod,
	}
}

// OrderLines converts the cart lines into order snapshots priced in the settlement currency.
func (s CheckoutSnapshot) OrderLines() []OrderLine {
	lines := make([]OrderLine, 0, len(s.Lines))
	for _, l := range s.Lines {
		lines = append(lines, OrderLine{
			ProductID:   l.Product.ID,
			ProductName: l.Product.Name,
			ProductSlug: l.Product.Slug,
			Quantity:    l.Quantity,
			UnitPrice:   l.Product.UnitPrice().Mul(s.Rate).Round(s.DecimalPlaces),
			Variant:     l.Variant(),
			ImageURL:    l.ImageURL,
		})
	}
	return lines
}

// PaymentRequest builds the provider request for this snapshot.
func (s CheckoutSnapshot) PaymentRequest(reference, publicKey string) PaymentRequest {
	return PaymentRequest{
		Reference:   reference,
		Email:       s.Form.Email,
		AmountMinor: s.AmountMinor,
		Currency:    s.Currency,
		PublicKey:   publicKey,
		Metadata: map[string]string{
			"session_id":       s.SessionID,
			"customer_name":    s.Form.FirstName + " " + s.Form.LastName,
			"display_currency": s.DisplayCurrency,
		},
	}
}

// AttemptStatus tracks a checkout attempt from payment through materialization.
type AttemptStatus string

const (
	AttemptPaymentInFlight AttemptStatus = "PAYMENT_IN_FLIGHT"
	AttemptCancelled       AttemptStatus = "CANCELLED"
	AttemptAbandoned       AttemptStatus = "ABANDONED"
	AttemptMaterializing   AttemptStatus = "MATERIALIZING"
	AttemptDone            AttemptStatus = "DONE"
	AttemptFailed          AttemptStatus = "FAILED"
)

// CheckoutAttempt is the durable record written before payment is requested.
// It lets a paid attempt be materialized later if the request path dies.
// Version is bumped by every store write; a write carrying an older version
// fails with STALE_ATTEMPT, so only one worker can claim a captured payment.
type CheckoutAttempt struct {
	ID                uuid.UUID
	SessionID         string
	RequestReference  string
	ProviderReference *string
	Status            AttemptStatus
	Snapshot          CheckoutSnapshot
	CustomerID        *uuid.UUID
	OrderID           *uuid.UUID
	AttemptCount      int
	LastError         *string
	Version           int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func NewCheckoutAttempt(snap CheckoutSnapshot, requestReference string, now time.Time) *CheckoutAttempt {
	return &CheckoutAttempt{
		ID:               uuid.New(),
		SessionID:        snap.SessionID,
		RequestReference: requestReference,
		Status:           AttemptPaymentInFlight,
		Snapshot:         snap,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// CanTransitionTo reports whether the attempt may move to target.
//
// Valid transitions are:
//   - PaymentInFlight → Cancelled, Abandoned, Materializing
//   - Materializing → Done, Failed
//   - Failed → Materializing, Done
func (a *CheckoutAttempt) CanTransitionTo(target AttemptStatus) error {
	switch a.Status {
	case AttemptPaymentInFlight:
		if target == AttemptCancelled || target == AttemptAbandoned || target == AttemptMaterializing {
			return nil
		}
	case AttemptMaterializing:
		if target == AttemptDone || target == AttemptFailed {
			return nil
		}
	case AttemptFailed:
		if target == AttemptMaterializing || target == AttemptDone {
			return nil
		}
	}
	return NewInvalidTransitionError(a.Status, target)
}

func (a *CheckoutAttempt) transition(target AttemptStatus, now time.Time) error {
	if err := a.CanTransitionTo(target); err != nil {
		return err
	}
	a.Status = target
	a.UpdatedAt = now
	return nil
}

func (a *CheckoutAttempt) MarkCancelled(now time.Time) error {
	return a.transition(AttemptCancelled, now)
}

func (a *CheckoutAttempt) MarkAbandoned(now time.Time) error {
	return a.transition(AttemptAbandoned, now)
}

// MarkMaterializing records the provider reference. Past this point the
// payment has been captured and the attempt must end in an order.
func (a *CheckoutAttempt) MarkMaterializing(providerReference string, now time.Time) error {
	if err := a.transition(AttemptMaterializing, now); err != nil {
		return err
	}
	a.ProviderReference = &providerReference
	a.AttemptCount++
	return nil
}

func (a *CheckoutAttempt) MarkDone(orderID uuid.UUID, now time.Time) error {
	if err := a.transition(AttemptDone, now); err != nil {
		return err
	}
	a.OrderID = &orderID
	a.LastError = nil
	return nil
}

func (a *CheckoutAttempt) MarkFailed(cause error, now time.Time) error {
	if err := a.transition(AttemptFailed, now); err != nil {
		return err
	}
	msg := cause.Error()
	a.LastError = &msg
	return nil
}

// RecordCustomer stores the upserted customer so a retry does not count the order twice.
func (a *CheckoutAttempt) RecordCustomer(customerID uuid.UUID, now time.Time) {
	a.CustomerID = &customerID
	a.UpdatedAt = now
}

func (a *CheckoutAttempt) IsTerminal() bool {
	switch a.Status {
	case AttemptCancelled, AttemptAbandoned, AttemptDone:
		return true
	default:
		return false
	}
}

// Captured reports whether money has moved for this attempt.
func (a *CheckoutAttempt) Captured() bool {
	return a.ProviderReference != nil
}
