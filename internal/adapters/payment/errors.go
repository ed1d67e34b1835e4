package payment

import (
	"errors"
	"fmt"
)

// ProviderError is a non-200 answer from the payment provider.
type ProviderError struct {
	Code       string
	Message    string
	StatusCode int
}

type providerErrorResponse struct {
	Err     string `json:"error"`
	Message string `json:"message"`
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("payment provider error [%s]: %s (status: %d)", e.Code, e.Message, e.StatusCode)
}

func (e *ProviderError) IsRetryable() bool {
	return e.StatusCode >= 500
}

func IsProviderError(err error) (*ProviderError, bool) {
	var providerErr *ProviderError
	ok := errors.As(err, &providerErr)
	return providerErr, ok
}
