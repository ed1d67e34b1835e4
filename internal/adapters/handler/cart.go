package handler

import (
	"encoding/json"
	"net/http"

	"github.com/DanielPopoola/atelier-storefront/internal/core/domain"
)

type AddItemRequest struct {
	ProductID          string                     `json:"product_id"`
	Quantity           int                        `json:"quantity"`
	Size               string                     `json:"size"`
	Color              domain.ColorSelection      `json:"color"`
	CustomMeasurements *domain.CustomMeasurements `json:"custom_measurements,omitempty"`
	ImageURL           string                     `json:"image_url,omitempty"`
}

type UpdateQuantityRequest struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
	ColorName string `json:"color_name"`
	ColorHex  string `json:"color_hex,omitempty"`
	Quantity  int    `json:"quantity"`
}

type cartLineView struct {
	ProductID          string                     `json:"product_id"`
	Name               string                     `json:"name"`
	Slug               string                     `json:"slug"`
	ImageURL           string                     `json:"image_url"`
	Quantity           int                        `json:"quantity"`
	Size               string                     `json:"size"`
	Color              domain.ColorSelection      `json:"color"`
	CustomMeasurements *domain.CustomMeasurements `json:"custom_measurements,omitempty"`
	Variant            string                     `json:"variant"`
	UnitPrice          string                     `json:"unit_price"`
	LineTotal          string                     `json:"line_total"`
}

type cartView struct {
	Items             []cartLineView `json:"items"`
	ItemCount         int            `json:"item_count"`
	Currency          string         `json:"currency"`
	Subtotal          string         `json:"subtotal"`
	SubtotalFormatted string         `json:"subtotal_formatted"`
}

func (h *StorefrontHandler) HandleGetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.Load(r.Context(), sessionID(r))
	if err != nil {
		respondWithError(w, err)
		return
	}
	h.respondWithCart(w, r, http.StatusOK, cart)
}

// HandleAddItem resolves the product from the catalog so the line carries
// the price and stock seen at add time.
func (h *StorefrontHandler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, validationError("invalid JSON body"))
		return
	}

	product, err := h.catalog.FindProduct(r.Context(), req.ProductID)
	if err != nil {
		respondWithError(w, err)
		return
	}

	cart, err := h.carts.AddItem(r.Context(), sessionID(r), domain.LineItem{
		Product:            *product,
		ImageURL:           req.ImageURL,
		Quantity:           req.Quantity,
		Size:               req.Size,
		Color:              req.Color,
		CustomMeasurements: req.CustomMeasurements,
	})
	if err != nil {
		respondWithError(w, err)
		return
	}
	h.respondWithCart(w, r, http.StatusCreated, cart)
}

// HandleUpdateQuantity sets the quantity of matching lines; zero or less removes them.
func (h *StorefrontHandler) HandleUpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, validationError("invalid JSON body"))
		return
	}

	sel := domain.LineSelector{
		ProductID: req.ProductID,
		Size:      req.Size,
		ColorName: req.ColorName,
		ColorHex:  req.ColorHex,
	}
	cart, err := h.carts.UpdateQuantity(r.Context(), sessionID(r), sel, req.Quantity)
	if err != nil {
		respondWithError(w, err)
		return
	}
	h.respondWithCart(w, r, http.StatusOK, cart)
}

func (h *StorefrontHandler) HandleRemoveItem(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sel := domain.LineSelector{
		ProductID: q.Get("product_id"),
		Size:      q.Get("size"),
		ColorName: q.Get("color_name"),
		ColorHex:  q.Get("color_hex"),
	}

	cart, err := h.carts.RemoveItem(r.Context(), sessionID(r), sel)
	if err != nil {
		respondWithError(w, err)
		return
	}
	h.respondWithCart(w, r, http.StatusOK, cart)
}

func (h *StorefrontHandler) HandleClearCart(w http.ResponseWriter, r *http.Request) {
	h.carts.Clear(r.Context(), sessionID(r))
	h.respondWithCart(w, r, http.StatusOK, domain.NewCart())
}

func (h *StorefrontHandler) respondWithCart(w http.ResponseWriter, r *http.Request, status int, cart *domain.Cart) {
	currency := h.currencies.Selected(r.Context(), sessionID(r))

	items := cart.Items()
	lines := make([]cartLineView, 0, len(items))
	for _, item := range items {
		lines = append(lines, cartLineView{
			ProductID:          item.Product.ID,
			Name:               item.Product.Name,
			Slug:               item.Product.Slug,
			ImageURL:           item.ImageURL,
			Quantity:           item.Quantity,
			Size:               item.Size,
			Color:              item.Color,
			CustomMeasurements: item.CustomMeasurements,
			Variant:            item.Variant(),
			UnitPrice:          currency.Format(item.Product.UnitPrice()),
			LineTotal:          currency.Format(item.LineTotal()),
		})
	}

	subtotal := cart.Subtotal()
	respondWithJSON(w, status, cartView{
		Items:             lines,
		ItemCount:         cart.ItemCount(),
		Currency:          currency.Code,
		Subtotal:          currency.Round(subtotal).String(),
		SubtotalFormatted: currency.Format(subtotal),
	})
}
