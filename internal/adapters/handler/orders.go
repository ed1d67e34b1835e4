package handler

import (
	"net/http"
	"time"

	"github.com/DanielPopoola/atelier-storefront/internal/core/domain"
	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/oapi-codegen/runtime/types"
)

type orderLineView struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	ProductSlug string `json:"product_slug"`
	Variant     string `json:"variant"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	ImageURL    string `json:"image_url"`
}

type orderView struct {
	ID                types.UUID      `json:"id"`
	OrderNumber       string          `json:"order_number"`
	Contact           domain.Contact  `json:"contact"`
	Items             []orderLineView `json:"items"`
	ItemCount         int             `json:"item_count"`
	Currency          string          `json:"currency"`
	Subtotal          string          `json:"subtotal"`
	ShippingFee       string          `json:"shipping_fee"`
	TotalAmount       string          `json:"total_amount"`
	SubtotalFormatted string          `json:"subtotal_formatted"`
	ShippingFormatted string          `json:"shipping_fee_formatted"`
	TotalFormatted    string          `json:"total_formatted"`
	PaymentMethod     string          `json:"payment_method"`
	PaymentStatus     string          `json:"payment_status"`
	PaymentReference  string          `json:"payment_reference"`
	OrderStatus       string          `json:"order_status"`
	TrackingNumber    *string         `json:"tracking_number,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

func (h *StorefrontHandler) HandleGetOrder(w http.ResponseWriter, r *http.Request) {
	var orderID types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", "orderID", chi.URLParam(r, "orderID"), &orderID, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		respondWithError(w, validationError("orderID must be a UUID"))
		return
	}

	order, err := h.orders.FindOrderByID(r.Context(), orderID)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, h.toOrderView(order))
}

func (h *StorefrontHandler) toOrderView(o *domain.Order) orderView {
	currency := h.currencies.Table().Resolve(o.CurrencyCode)

	lines := make([]orderLineView, 0, len(o.Items))
	for _, l := range o.Items {
		lines = append(lines, orderLineView{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			ProductSlug: l.ProductSlug,
			Variant:     l.Variant,
			Quantity:    l.Quantity,
			UnitPrice:   currency.FormatConverted(l.UnitPrice),
			ImageURL:    l.ImageURL,
		})
	}

	return orderView{
		ID:                o.ID,
		OrderNumber:       o.OrderNumber,
		Contact:           o.Contact,
		Items:             lines,
		ItemCount:         o.ItemCount(),
		Currency:          o.CurrencyCode,
		Subtotal:          o.Subtotal.String(),
		ShippingFee:       o.ShippingFee.String(),
		TotalAmount:       o.TotalAmount.String(),
		SubtotalFormatted: currency.FormatConverted(o.Subtotal),
		ShippingFormatted: currency.FormatConverted(o.ShippingFee),
		TotalFormatted:    currency.FormatConverted(o.TotalAmount),
		PaymentMethod:     o.PaymentMethod,
		PaymentStatus:     string(o.PaymentStatus),
		PaymentReference:  o.PaymentReference,
		OrderStatus:       string(o.OrderStatus),
		TrackingNumber:    o.TrackingNumber,
		CreatedAt:         o.CreatedAt,
	}
}
