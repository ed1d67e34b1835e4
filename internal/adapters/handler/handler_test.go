package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DanielPopoola/atelier-storefront/internal/adapters/handler/middleware"
	"github.com/DanielPopoola/atelier-storefront/internal/adapters/localstore"
	"github.com/DanielPopoola/atelier-storefront/internal/core/domain"
	"github.com/DanielPopoola/atelier-storefront/internal/core/service"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCatalog map[string]domain.Product

func (c stubCatalog) FindProduct(_ context.Context, id string) (*domain.Product, error) {
	p, ok := c[id]
	if !ok {
		return nil, domain.NewNotFoundError("product", id)
	}
	return &p, nil
}

type fixture struct {
	server  http.Handler
	store   *service.MockStore
	gateway *service.MockGateway
	local   *localstore.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	table, err := domain.NewCurrencyTable([]domain.Currency{
		{Code: "NGN", Symbol: "₦", Name: "Nigerian Naira", Rate: decimal.NewFromInt(1), Base: true},
		{Code: "USD", Symbol: "$", Name: "US Dollar", Rate: decimal.RequireFromString("0.00065")},
		{Code: "GBP", Symbol: "£", Name: "British Pound", Rate: decimal.RequireFromString("0.0005")},
	})
	require.NoError(t, err)

	local := localstore.NewMemoryStore()
	store := service.NewMockStore()
	gateway := &service.MockGateway{}

	currencies := service.NewCurrencyService(table, local, logger)
	carts := service.NewCartService(local, logger)
	materializer := service.NewMaterializer(store, service.MaterializerConfig{SupportContact: "care@atelier.ng"}, logger)
	checkout, err := service.NewCheckoutService(
		carts, currencies, store, gateway,
		service.FixedShipping{FeeBase: decimal.NewFromInt(2500)},
		materializer,
		service.CheckoutConfig{
			PaymentMethod:  "card",
			SupportContact: "care@atelier.ng",
			Settlement:     domain.SettlementPolicy{Allowed: []string{"NGN", "USD"}, Default: "NGN"},
		},
		logger,
	)
	require.NoError(t, err)

	catalog := stubCatalog{
		"dress-1": {
			ID:            "dress-1",
			Name:          "Adire Wrap Dress",
			Slug:          "adire-wrap-dress",
			Price:         decimal.NewFromInt(20000),
			StockQuantity: 5,
			Images:        []string{"https://cdn.atelier.ng/adire-1.jpg"},
		},
	}

	h := NewStorefrontHandler(currencies, carts, checkout, store, catalog, "/shop", logger)
	server, err := h.Routes()
	require.NoError(t, err)

	return &fixture{server: server, store: store, gateway: gateway, local: local}
}

func (f *fixture) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(sessionHeader, "sess-1")

	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	if data != nil && env.Data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func addDress(t *testing.T, f *fixture, qty int) *httptest.ResponseRecorder {
	t.Helper()
	return f.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequest{
		ProductID: "dress-1",
		Quantity:  qty,
		Size:      "M",
		Color:     domain.ColorSelection{Name: "Black", Hex: "#000000"},
	})
}

func validCheckout() CheckoutRequest {
	return CheckoutRequest{
		FirstName: "Ada",
		LastName:  "Obi",
		Email:     "ada@example.com",
		Phone:     "+2348012345678",
		Address:   "1 Marina",
		City:      "Lagos",
		State:     "Lagos",
		Country:   "Nigeria",
	}
}

func TestHandleListCurrencies_DefaultsToBase(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/currencies", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var data currencyListResponse
	decode(t, rec, &data)
	assert.Equal(t, "NGN", data.Selected)
	assert.Len(t, data.Currencies, 3)
}

func TestHandleSelectCurrency(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPut, "/api/v1/session/currency", SelectCurrencyRequest{Code: "usd"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/v1/currencies", nil)
	var data currencyListResponse
	decode(t, rec, &data)
	assert.Equal(t, "USD", data.Selected)

	rec = f.do(t, http.MethodPut, "/api/v1/session/currency", SelectCurrencyRequest{Code: "XYZ"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec, nil)
	assert.Equal(t, domain.ErrCodeUnsupportedCurrency, env.Error.Code)
}

func TestMissingSessionHeader(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec, nil)
	assert.Equal(t, errCodeMissingSession, env.Error.Code)
}

func TestHandleAddItem_MergesAndPrices(t *testing.T) {
	f := newFixture(t)

	rec := addDress(t, f, 1)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = addDress(t, f, 1)
	require.Equal(t, http.StatusCreated, rec.Code)

	var cart cartView
	decode(t, rec, &cart)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, 2, cart.ItemCount)
	assert.Equal(t, "₦20,000", cart.Items[0].UnitPrice)
	assert.Equal(t, "₦40,000", cart.SubtotalFormatted)
	assert.Equal(t, "https://cdn.atelier.ng/adire-1.jpg", cart.Items[0].ImageURL)
}

func TestHandleAddItem_Rejections(t *testing.T) {
	f := newFixture(t)

	rec := addDress(t, f, 0)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, domain.ErrCodeInvalidQuantity, decode(t, rec, nil).Error.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequest{
		ProductID: "missing",
		Quantity:  1,
		Size:      "M",
		Color:     domain.ColorSelection{Name: "Black", Hex: "#000000"},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequest{
		ProductID: "dress-1",
		Quantity:  1,
		Size:      "M",
		Color:     domain.ColorSelection{Name: "Black", Hex: "black"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartUpdateRemoveClear(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusCreated, addDress(t, f, 1).Code)

	rec := f.do(t, http.MethodPatch, "/api/v1/cart/items", UpdateQuantityRequest{
		ProductID: "dress-1",
		Size:      "M",
		ColorName: "Black",
		Quantity:  3,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var cart cartView
	decode(t, rec, &cart)
	assert.Equal(t, 3, cart.ItemCount)

	rec = f.do(t, http.MethodDelete, "/api/v1/cart/items?product_id=dress-1&size=M&color_name=Black", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cart = cartView{}
	decode(t, rec, &cart)
	assert.Empty(t, cart.Items)

	require.Equal(t, http.StatusCreated, addDress(t, f, 2).Code)
	rec = f.do(t, http.MethodDelete, "/api/v1/cart", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/cart", nil)
	cart = cartView{}
	decode(t, rec, &cart)
	assert.Equal(t, 0, cart.ItemCount)
}

func TestHandleViewCheckout_EmptyCartRedirects(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/checkout", nil)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/shop", rec.Header().Get("Location"))
}

func TestHandleViewCheckout_Summary(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusCreated, addDress(t, f, 2).Code)

	rec := f.do(t, http.MethodGet, "/api/v1/checkout?country=Nigeria", nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var summary checkoutSummaryView
	decode(t, rec, &summary)
	assert.Equal(t, "₦42,500", summary.TotalFormatted)
	assert.Equal(t, "NGN", summary.SettlementCurrency)
	assert.Equal(t, int64(4000000), summary.AmountMinor)
}

func TestHandlePay_Completed(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusCreated, addDress(t, f, 2).Code)

	rec := f.do(t, http.MethodPost, "/api/v1/checkout", validCheckout())

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result checkoutResultView
	decode(t, rec, &result)
	assert.Equal(t, service.CheckoutCompleted, result.Status)
	require.NotNil(t, result.Order)
	assert.Equal(t, "/orders/"+result.Order.ID.String(), result.ConfirmationPath)
	assert.Equal(t, "₦42,500", result.Order.TotalFormatted)
	assert.True(t, strings.HasPrefix(result.Order.PaymentReference, "PSK-CHK-"))

	rec = f.do(t, http.MethodGet, "/api/v1/cart", nil)
	var cart cartView
	decode(t, rec, &cart)
	assert.Empty(t, cart.Items, "cart is cleared after the order is recorded")

	rec = f.do(t, http.MethodGet, "/api/v1/orders/"+result.Order.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var order orderView
	decode(t, rec, &order)
	assert.Equal(t, result.Order.OrderNumber, order.OrderNumber)
	assert.Equal(t, "Ada", order.Contact.FirstName)
}

func TestHandlePay_FormErrors(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusCreated, addDress(t, f, 1).Code)

	form := validCheckout()
	form.City = ""
	rec := f.do(t, http.MethodPost, "/api/v1/checkout", form)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	env := decode(t, rec, nil)
	assert.Equal(t, domain.ErrCodeCheckoutInvalid, env.Error.Code)
	assert.Contains(t, env.Error.Message, "city")

	form = validCheckout()
	form.Email = "not-an-email"
	rec = f.do(t, http.MethodPost, "/api/v1/checkout", form)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	assert.Equal(t, 0, f.gateway.GetCalls("Charge"))
}

func TestHandlePay_CancelledKeepsCart(t *testing.T) {
	f := newFixture(t)
	f.gateway.ChargeFn = func(ctx context.Context, req domain.PaymentRequest) (domain.PaymentResult, error) {
		return domain.Cancelled(), nil
	}
	require.Equal(t, http.StatusCreated, addDress(t, f, 1).Code)

	rec := f.do(t, http.MethodPost, "/api/v1/checkout", validCheckout())

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result checkoutResultView
	decode(t, rec, &result)
	assert.Equal(t, service.CheckoutCancelled, result.Status)
	assert.Nil(t, result.Order)

	rec = f.do(t, http.MethodGet, "/api/v1/cart", nil)
	var cart cartView
	decode(t, rec, &cart)
	assert.Equal(t, 1, cart.ItemCount)
	assert.Empty(t, f.store.Orders())
}

func TestHandlePay_Declined(t *testing.T) {
	f := newFixture(t)
	f.gateway.ChargeFn = func(ctx context.Context, req domain.PaymentRequest) (domain.PaymentResult, error) {
		return domain.PaymentResult{}, domain.NewPaymentDeclinedError("insufficient funds")
	}
	require.Equal(t, http.StatusCreated, addDress(t, f, 1).Code)

	rec := f.do(t, http.MethodPost, "/api/v1/checkout", validCheckout())

	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	env := decode(t, rec, nil)
	assert.True(t, env.Error.Retryable)
}

func TestHandlePay_PaidWithoutOrder(t *testing.T) {
	f := newFixture(t)
	f.store.CreateOrderFn = func(ctx context.Context, order *domain.Order) error {
		return errors.New("connection reset")
	}
	require.Equal(t, http.StatusCreated, addDress(t, f, 1).Code)

	rec := f.do(t, http.MethodPost, "/api/v1/checkout", validCheckout())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	env := decode(t, rec, nil)
	require.NotNil(t, env.Error)
	assert.Equal(t, domain.ErrCodePaidWithoutOrder, env.Error.Code)
	assert.False(t, env.Error.Retryable)
	assert.True(t, strings.HasPrefix(env.Error.PaymentReference, "PSK-"))
	assert.Equal(t, "care@atelier.ng", env.Error.SupportContact)
	assert.Contains(t, env.Error.Message, env.Error.PaymentReference)
}

func TestHandlePay_OutcomeUnknown(t *testing.T) {
	f := newFixture(t)
	f.gateway.ChargeFn = func(ctx context.Context, req domain.PaymentRequest) (domain.PaymentResult, error) {
		return domain.PaymentResult{}, context.DeadlineExceeded
	}
	require.Equal(t, http.StatusCreated, addDress(t, f, 1).Code)

	rec := f.do(t, http.MethodPost, "/api/v1/checkout", validCheckout())

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	env := decode(t, rec, nil)
	require.NotNil(t, env.Error)
	assert.Equal(t, domain.ErrCodePaymentPending, env.Error.Code)
	assert.False(t, env.Error.Retryable, "an unknown charge must not invite a second payment")
	assert.True(t, strings.HasPrefix(env.Error.RequestReference, "CHK-"), env.Error.RequestReference)
	assert.Contains(t, env.Error.Message, env.Error.RequestReference)
	assert.Contains(t, env.Error.Message, "being verified")
	assert.Equal(t, "care@atelier.ng", env.Error.SupportContact)

	attempts := f.store.Attempts()
	require.Len(t, attempts, 1)
	assert.Equal(t, env.Error.RequestReference, attempts[0].RequestReference)
	assert.Equal(t, domain.AttemptPaymentInFlight, attempts[0].Status)

	rec = f.do(t, http.MethodGet, "/api/v1/cart", nil)
	var cart cartView
	decode(t, rec, &cart)
	assert.Equal(t, 1, cart.ItemCount)
}

func TestHandlePay_RejectedByProvider(t *testing.T) {
	f := newFixture(t)
	f.gateway.ChargeFn = func(ctx context.Context, req domain.PaymentRequest) (domain.PaymentResult, error) {
		return domain.PaymentResult{}, domain.NewPaymentFailedError(errors.New("invalid_amount"))
	}
	require.Equal(t, http.StatusCreated, addDress(t, f, 1).Code)

	rec := f.do(t, http.MethodPost, "/api/v1/checkout", validCheckout())

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	env := decode(t, rec, nil)
	assert.Equal(t, domain.ErrCodePaymentFailed, env.Error.Code)
	assert.True(t, env.Error.Retryable)
}

func TestHandlePay_RequestTimeoutDoesNotHideResult(t *testing.T) {
	t.Run("paid without order", func(t *testing.T) {
		f := newFixture(t)
		f.server = middleware.Timeout(300*time.Millisecond, IsCheckoutSubmission)(f.server)
		f.gateway.Delay = 200 * time.Millisecond
		f.store.CreateOrderFn = func(ctx context.Context, order *domain.Order) error {
			time.Sleep(200 * time.Millisecond)
			return errors.New("connection reset")
		}
		require.Equal(t, http.StatusCreated, addDress(t, f, 1).Code)

		rec := f.do(t, http.MethodPost, "/api/v1/checkout", validCheckout())

		assert.Equal(t, http.StatusInternalServerError, rec.Code, rec.Body.String())
		env := decode(t, rec, nil)
		require.NotNil(t, env.Error)
		assert.Equal(t, domain.ErrCodePaidWithoutOrder, env.Error.Code)
		assert.False(t, env.Error.Retryable)
		assert.True(t, strings.HasPrefix(env.Error.PaymentReference, "PSK-CHK-"), env.Error.PaymentReference)
	})

	t.Run("completed", func(t *testing.T) {
		f := newFixture(t)
		f.server = middleware.Timeout(300*time.Millisecond, IsCheckoutSubmission)(f.server)
		f.gateway.Delay = 400 * time.Millisecond
		require.Equal(t, http.StatusCreated, addDress(t, f, 1).Code)

		rec := f.do(t, http.MethodPost, "/api/v1/checkout", validCheckout())

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var result checkoutResultView
		decode(t, rec, &result)
		assert.Equal(t, service.CheckoutCompleted, result.Status)

		rec = f.do(t, http.MethodGet, "/api/v1/cart", nil)
		var cart cartView
		decode(t, rec, &cart)
		assert.Empty(t, cart.Items)
	})

	t.Run("other routes still time out", func(t *testing.T) {
		f := newFixture(t)
		f.server = middleware.Timeout(time.Millisecond, IsCheckoutSubmission)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(50 * time.Millisecond)
			w.WriteHeader(http.StatusOK)
		}))

		rec := f.do(t, http.MethodGet, "/api/v1/checkout", nil)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		env := decode(t, rec, nil)
		assert.Equal(t, "TIMEOUT", env.Error.Code)
	})
}

func TestHandleGetOrder_Errors(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/orders/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/orders/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleDocs(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/docs/openapi.yaml", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "openapi: 3.0.3")
}

func TestRespondWithError_Unknown(t *testing.T) {
	rec := httptest.NewRecorder()

	respondWithError(rec, errors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	env := decode(t, rec, nil)
	assert.Equal(t, errCodeInternal, env.Error.Code)
	assert.NotContains(t, env.Error.Message, "boom")
}
