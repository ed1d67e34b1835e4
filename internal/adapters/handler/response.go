package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/DanielPopoola/atelier-storefront/internal/core/domain"
)

const (
	errCodeValidation     = "VALIDATION_ERROR"
	errCodeMissingSession = "MISSING_SESSION"
	errCodeInternal       = "INTERNAL_ERROR"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError tells the shopper whether trying again is safe. PaymentReference
// is set when money moved without an order, RequestReference when the
// payment outcome is still being verified.
type APIError struct {
	Code             string `json:"code"`
	Message          string `json:"message"`
	Retryable        bool   `json:"retryable"`
	PaymentReference string `json:"payment_reference,omitempty"`
	RequestReference string `json:"request_reference,omitempty"`
	SupportContact   string `json:"support_contact,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := APIResponse{
		Success: status >= 200 && status < 300,
	}

	if response.Success {
		response.Data = data
	} else {
		if apiErr, ok := data.(*APIError); ok {
			response.Error = apiErr
		}
	}

	_ = json.NewEncoder(w).Encode(response)
}

func respondWithError(w http.ResponseWriter, err error) {
	var matErr *domain.MaterializationError
	if errors.As(err, &matErr) {
		respondWithJSON(w, http.StatusInternalServerError, &APIError{
			Code:             domain.ErrCodePaidWithoutOrder,
			Message:          matErr.UserMessage(),
			Retryable:        false,
			PaymentReference: matErr.PaymentReference,
			SupportContact:   matErr.SupportContact,
		})
		return
	}

	var unconfirmed *domain.PaymentUnconfirmedError
	if errors.As(err, &unconfirmed) {
		respondWithJSON(w, http.StatusBadGateway, &APIError{
			Code:             domain.ErrCodePaymentPending,
			Message:          unconfirmed.UserMessage(),
			Retryable:        false,
			RequestReference: unconfirmed.RequestReference,
			SupportContact:   unconfirmed.SupportContact,
		})
		return
	}

	var domainErr *domain.DomainError
	code := errCodeInternal
	message := "internal server error"
	status := http.StatusInternalServerError

	if errors.As(err, &domainErr) {
		code = domainErr.Code
		message = domainErr.Message

		switch domainErr.Code {
		case errCodeValidation, errCodeMissingSession, domain.ErrCodeInvalidQuantity,
			domain.ErrCodeInvalidLineItem, domain.ErrCodeUnsupportedCurrency:
			status = http.StatusBadRequest
		case domain.ErrCodeCheckoutInvalid, domain.ErrCodeCartEmpty:
			status = http.StatusUnprocessableEntity
		case domain.ErrCodeNotFound:
			status = http.StatusNotFound
		case domain.ErrCodeCheckoutInProgress, domain.ErrCodeInvalidTransition, domain.ErrCodeStaleAttempt,
			domain.ErrCodeDuplicateOrderNumber, domain.ErrCodeDuplicatePaymentReference,
			domain.ErrCodeDuplicateEmail, domain.ErrCodeDuplicateRequestReference:
			status = http.StatusConflict
		case domain.ErrCodePaymentDeclined:
			status = http.StatusPaymentRequired
		case domain.ErrCodePaymentFailed, domain.ErrCodePaymentPending:
			status = http.StatusBadGateway
		case domain.ErrCodeTimeout:
			status = http.StatusGatewayTimeout
		default:
			status = http.StatusInternalServerError
		}
	}

	respondWithJSON(w, status, &APIError{
		Code:      code,
		Message:   message,
		Retryable: domain.PhaseOf(err) == domain.PhasePrePayment,
	})
}

func validationError(message string) *domain.DomainError {
	return &domain.DomainError{
		Code:    errCodeValidation,
		Message: message,
	}
}
