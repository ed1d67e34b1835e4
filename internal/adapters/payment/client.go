package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/DanielPopoola/atelier-storefront/internal/config"
	"github.com/DanielPopoola/atelier-storefront/internal/core/domain"
	"github.com/DanielPopoola/atelier-storefront/internal/core/ports"
)

// HTTPClient talks to the hosted payment provider.
type HTTPClient struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

func NewHTTPClient(cfg config.PaymentConfig) *HTTPClient {
	return &HTTPClient{
		baseURL:   cfg.BaseURL,
		secretKey: cfg.SecretKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

var _ ports.PaymentGateway = (*HTTPClient)(nil)

// Charge creates the charge. The request reference doubles as the
// idempotency key, so a repeated call never charges twice. A 4xx answer
// means the provider refused to create the charge and is reported as
// PAYMENT_FAILED; any other failure leaves the outcome unknown.
func (c *HTTPClient) Charge(ctx context.Context, req domain.PaymentRequest) (domain.PaymentResult, error) {
	body := chargeRequest{
		Reference: req.Reference,
		Email:     req.Email,
		Amount:    req.AmountMinor,
		Currency:  req.Currency,
		PublicKey: req.PublicKey,
		Metadata:  req.Metadata,
	}
	endpoint := fmt.Sprintf("%s/charges", c.baseURL)
	resp, err := sendRequest[chargeRequest, chargeResponse](c, ctx, http.MethodPost, endpoint, &body, req.Reference)
	if err != nil {
		if providerErr, ok := IsProviderError(err); ok && providerErr.StatusCode < 500 {
			return domain.PaymentResult{}, domain.NewPaymentFailedError(providerErr)
		}
		return domain.PaymentResult{}, err
	}
	return toResult(resp)
}

func (c *HTTPClient) Verify(ctx context.Context, requestReference string) (domain.PaymentResult, error) {
	endpoint := fmt.Sprintf("%s/charges/%s", c.baseURL, url.PathEscape(requestReference))
	resp, err := sendRequest[any, chargeResponse](c, ctx, http.MethodGet, endpoint, nil, "")
	if err != nil {
		return domain.PaymentResult{}, err
	}
	return toResult(resp)
}

func toResult(resp *chargeResponse) (domain.PaymentResult, error) {
	switch resp.Status {
	case statusSuccess:
		if resp.ProviderReference == "" {
			return domain.PaymentResult{}, fmt.Errorf("provider reported success for %s without a reference", resp.Reference)
		}
		return domain.Captured(resp.ProviderReference), nil
	case statusCancelled, statusAbandoned:
		return domain.Cancelled(), nil
	case statusFailed:
		return domain.PaymentResult{}, domain.NewPaymentDeclinedError(resp.GatewayResponse)
	case statusPending:
		return domain.PaymentResult{}, domain.NewPaymentPendingError(resp.Reference)
	default:
		return domain.PaymentResult{}, fmt.Errorf("unknown charge status %q for %s", resp.Status, resp.Reference)
	}
}

func sendRequest[Req any, Resp any](c *HTTPClient, ctx context.Context, method, url string, reqBody *Req, idempotencyKey string) (*Resp, error) {
	var bodyReader io.Reader
	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("error marshalling json: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)
	if reqBody != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	if idempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		var errResp providerErrorResponse
		if err := json.Unmarshal(body, &errResp); err != nil {
			return nil, &ProviderError{
				Code:       "unexpected_response",
				Message:    string(body),
				StatusCode: resp.StatusCode,
			}
		}
		return nil, &ProviderError{
			Code:       errResp.Err,
			Message:    errResp.Message,
			StatusCode: resp.StatusCode,
		}
	}

	var providerResp Resp
	if err := json.NewDecoder(resp.Body).Decode(&providerResp); err != nil {
		return nil, fmt.Errorf("error decoding json response: %w", err)
	}

	return &providerResp, nil
}
