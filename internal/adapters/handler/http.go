package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/DanielPopoola/atelier-storefront/internal/adapters/handler/middleware"
	"github.com/DanielPopoola/atelier-storefront/internal/core/domain"
	"github.com/DanielPopoola/atelier-storefront/internal/core/ports"
	"github.com/DanielPopoola/atelier-storefront/internal/core/service"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

const sessionHeader = "X-Session-ID"

type CurrencySelector interface {
	Table() *domain.CurrencyTable
	Selected(ctx context.Context, sessionID string) domain.Currency
	Select(ctx context.Context, sessionID, code string) (domain.Currency, error)
}

type CartManager interface {
	Load(ctx context.Context, sessionID string) (*domain.Cart, error)
	AddItem(ctx context.Context, sessionID string, item domain.LineItem) (*domain.Cart, error)
	RemoveItem(ctx context.Context, sessionID string, sel domain.LineSelector) (*domain.Cart, error)
	UpdateQuantity(ctx context.Context, sessionID string, sel domain.LineSelector, quantity int) (*domain.Cart, error)
	Clear(ctx context.Context, sessionID string)
}

type CheckoutRunner interface {
	View(ctx context.Context, sessionID, country string) (*service.CheckoutSummary, error)
	Pay(ctx context.Context, sessionID string, form domain.CheckoutForm) (*service.CheckoutResult, error)
}

type OrderFinder interface {
	FindOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
}

type StorefrontHandler struct {
	currencies  CurrencySelector
	carts       CartManager
	checkout    CheckoutRunner
	orders      OrderFinder
	catalog     ports.Catalog
	catalogPath string
	logger      *slog.Logger
}

func NewStorefrontHandler(
	currencies CurrencySelector,
	carts CartManager,
	checkout CheckoutRunner,
	orders OrderFinder,
	catalog ports.Catalog,
	catalogPath string,
	logger *slog.Logger,
) *StorefrontHandler {
	return &StorefrontHandler{
		currencies:  currencies,
		carts:       carts,
		checkout:    checkout,
		orders:      orders,
		catalog:     catalog,
		catalogPath: catalogPath,
		logger:      logger,
	}
}

// Routes mounts the API behind contract validation and the docs endpoint.
func (h *StorefrontHandler) Routes() (http.Handler, error) {
	doc, err := LoadOpenAPI()
	if err != nil {
		return nil, err
	}
	validate, err := middleware.RequestValidator(doc)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/docs/openapi.yaml", h.HandleDocs)

	r.Route("/api/v1", func(r chi.Router) {
		r.With(validate).Get("/orders/{orderID}", h.HandleGetOrder)

		r.Group(func(r chi.Router) {
			r.Use(requireSession)
			r.Use(validate)

			r.Get("/currencies", h.HandleListCurrencies)
			r.Put("/session/currency", h.HandleSelectCurrency)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.HandleGetCart)
				r.Delete("/", h.HandleClearCart)
				r.Post("/items", h.HandleAddItem)
				r.Patch("/items", h.HandleUpdateQuantity)
				r.Delete("/items", h.HandleRemoveItem)
			})

			r.Get("/checkout", h.HandleViewCheckout)
			r.Post("/checkout", h.HandlePay)
		})
	})

	return r, nil
}

// IsCheckoutSubmission reports whether r submits a checkout. Such requests
// carry their own payment and materialization deadlines and must not be cut
// short by a generic request timeout.
func IsCheckoutSubmission(r *http.Request) bool {
	return r.Method == http.MethodPost && r.URL.Path == "/api/v1/checkout"
}

func requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(sessionHeader) == "" {
			respondWithError(w, &domain.DomainError{
				Code:    errCodeMissingSession,
				Message: sessionHeader + " header is required",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func sessionID(r *http.Request) string {
	return r.Header.Get(sessionHeader)
}
