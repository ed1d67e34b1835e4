package domain

import (
	"errors"
	"fmt"
	"strings"
)

// DomainError represents a business logic error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

const (
	ErrCodeCartEmpty                 = "CART_EMPTY"
	ErrCodeInvalidQuantity           = "INVALID_QUANTITY"
	ErrCodeInvalidLineItem           = "INVALID_LINE_ITEM"
	ErrCodeUnsupportedCurrency       = "UNSUPPORTED_CURRENCY"
	ErrCodeCheckoutInvalid           = "CHECKOUT_INVALID"
	ErrCodeCheckoutInProgress        = "CHECKOUT_IN_PROGRESS"
	ErrCodeInvalidTransition         = "INVALID_TRANSITION"
	ErrCodeNotFound                  = "NOT_FOUND"
	ErrCodeDuplicateOrderNumber      = "DUPLICATE_ORDER_NUMBER"
	ErrCodeDuplicatePaymentReference = "DUPLICATE_PAYMENT_REFERENCE"
	ErrCodeDuplicateEmail            = "DUPLICATE_EMAIL"
	ErrCodeDuplicateRequestReference = "DUPLICATE_REQUEST_REFERENCE"
	ErrCodeStaleAttempt              = "STALE_ATTEMPT"
	ErrCodePaymentFailed             = "PAYMENT_FAILED"
	ErrCodePaymentDeclined           = "PAYMENT_DECLINED"
	ErrCodePaymentPending            = "PAYMENT_PENDING"
	ErrCodePaidWithoutOrder          = "PAID_WITHOUT_ORDER"
	ErrCodeTimeout                   = "TIMEOUT"
)

func NewCartEmptyError() *DomainError {
	return &DomainError{
		Code:    ErrCodeCartEmpty,
		Message: "cart is empty",
	}
}

func NewInvalidQuantityError(quantity int) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidQuantity,
		Message: fmt.Sprintf("invalid quantity %d", quantity),
	}
}

func NewInvalidLineItemError(reason string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidLineItem,
		Message: fmt.Sprintf("invalid line item: %s", reason),
	}
}

func NewUnsupportedCurrencyError(code string) *DomainError {
	return &DomainError{
		Code:    ErrCodeUnsupportedCurrency,
		Message: fmt.Sprintf("currency %s is not supported", code),
	}
}

func NewCheckoutInvalidError(missing []string) *DomainError {
	return &DomainError{
		Code:    ErrCodeCheckoutInvalid,
		Message: fmt.Sprintf("missing required fields: %s", strings.Join(missing, ", ")),
	}
}

func NewCheckoutInProgressError() *DomainError {
	return &DomainError{
		Code:    ErrCodeCheckoutInProgress,
		Message: "a checkout for this session is already in progress",
	}
}

func NewInvalidTransitionError(from, to AttemptStatus) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidTransition,
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
	}
}

func NewNotFoundError(entity, id string) *DomainError {
	return &DomainError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s %s not found", entity, id),
	}
}

func NewDuplicateOrderNumberError(number string) *DomainError {
	return &DomainError{
		Code:    ErrCodeDuplicateOrderNumber,
		Message: fmt.Sprintf("order number %s already exists", number),
	}
}

func NewDuplicatePaymentReferenceError(reference string) *DomainError {
	return &DomainError{
		Code:    ErrCodeDuplicatePaymentReference,
		Message: fmt.Sprintf("an order for payment reference %s already exists", reference),
	}
}

func NewDuplicateEmailError(email string) *DomainError {
	return &DomainError{
		Code:    ErrCodeDuplicateEmail,
		Message: fmt.Sprintf("customer with email %s already exists", email),
	}
}

func NewDuplicateRequestReferenceError(reference string) *DomainError {
	return &DomainError{
		Code:    ErrCodeDuplicateRequestReference,
		Message: fmt.Sprintf("checkout attempt %s already exists", reference),
	}
}

// NewStaleAttemptError means the attempt changed since it was read.
func NewStaleAttemptError(id string) *DomainError {
	return &DomainError{
		Code:    ErrCodeStaleAttempt,
		Message: fmt.Sprintf("checkout attempt %s was modified concurrently", id),
	}
}

func NewPaymentFailedError(err error) *DomainError {
	return &DomainError{
		Code:    ErrCodePaymentFailed,
		Message: "payment could not be completed",
		Err:     err,
	}
}

func NewPaymentDeclinedError(reason string) *DomainError {
	return &DomainError{
		Code:    ErrCodePaymentDeclined,
		Message: fmt.Sprintf("payment declined: %s", reason),
	}
}

func NewPaymentPendingError(reference string) *DomainError {
	return &DomainError{
		Code:    ErrCodePaymentPending,
		Message: fmt.Sprintf("payment %s has not settled yet", reference),
	}
}

func NewTimeoutError(operation string) *DomainError {
	return &DomainError{
		Code:    ErrCodeTimeout,
		Message: fmt.Sprintf("timeout waiting for %s", operation),
	}
}

// IsErrorCode checks if an error is a DomainError with a specific code
func IsErrorCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// MaterializationStage names the step that failed after payment was captured.
type MaterializationStage string

const (
	StageAttemptUpdate  MaterializationStage = "attempt_update"
	StageCustomerUpsert MaterializationStage = "customer_upsert"
	StageOrderInsert    MaterializationStage = "order_insert"
	StageTimeout        MaterializationStage = "timeout"
)

// MaterializationError is returned when money has moved but no order exists.
// The shopper cannot fix this by retrying; the message always carries the
// payment reference and where to get help.
type MaterializationError struct {
	PaymentReference string
	RequestReference string
	Stage            MaterializationStage
	SupportContact   string
	Err              error
}

func (e *MaterializationError) Error() string {
	return fmt.Sprintf(
		"payment %s was received but the order could not be recorded (%s); contact %s with this reference: %v",
		e.PaymentReference, e.Stage, e.SupportContact, e.Err,
	)
}

func (e *MaterializationError) Unwrap() error {
	return e.Err
}

// UserMessage is the text shown to the shopper.
func (e *MaterializationError) UserMessage() string {
	return fmt.Sprintf(
		"Your payment was successful (reference %s) but we could not record your order. "+
			"Please do not pay again. Contact %s and quote this reference.",
		e.PaymentReference, e.SupportContact,
	)
}

// PaymentUnconfirmedError is returned when the charge was sent but its
// outcome never came back. Money may have moved, so the shopper must not pay
// again; the attempt is verified with the provider later.
type PaymentUnconfirmedError struct {
	RequestReference string
	SupportContact   string
	Err              error
}

func (e *PaymentUnconfirmedError) Error() string {
	return fmt.Sprintf("outcome of payment %s is unknown: %v", e.RequestReference, e.Err)
}

func (e *PaymentUnconfirmedError) Unwrap() error {
	return e.Err
}

func (e *PaymentUnconfirmedError) UserMessage() string {
	msg := fmt.Sprintf(
		"Your payment (reference %s) is being verified with the payment provider. "+
			"Please do not pay again; if it went through, your order is created automatically.",
		e.RequestReference,
	)
	if e.SupportContact != "" {
		msg += fmt.Sprintf(" Questions: %s.", e.SupportContact)
	}
	return msg
}

// Phase tells whether an error happened before or after payment capture.
type Phase string

const (
	PhasePrePayment         Phase = "pre_payment"
	PhasePaymentUnconfirmed Phase = "payment_unconfirmed"
	PhasePostPayment        Phase = "post_payment"
)

// PhaseOf classifies err. Only pre-payment failures are retryable by the shopper.
func PhaseOf(err error) Phase {
	var matErr *MaterializationError
	if errors.As(err, &matErr) {
		return PhasePostPayment
	}
	var unconfirmed *PaymentUnconfirmedError
	if errors.As(err, &unconfirmed) {
		return PhasePaymentUnconfirmed
	}
	return PhasePrePayment
}
