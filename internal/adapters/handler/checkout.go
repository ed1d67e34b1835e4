package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/DanielPopoola/atelier-storefront/internal/core/domain"
	"github.com/DanielPopoola/atelier-storefront/internal/core/service"
	"github.com/oapi-codegen/runtime/types"
)

type CheckoutRequest struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	Country    string `json:"country"`
	PostalCode string `json:"postal_code"`
}

func (req CheckoutRequest) form() domain.CheckoutForm {
	return domain.CheckoutForm{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Phone:      req.Phone,
		Address:    req.Address,
		City:       req.City,
		State:      req.State,
		Country:    req.Country,
		PostalCode: req.PostalCode,
	}
}

type checkoutSummaryView struct {
	Items              []cartLineView `json:"items"`
	ItemCount          int            `json:"item_count"`
	Currency           string         `json:"currency"`
	Subtotal           string         `json:"subtotal"`
	ShippingFee        string         `json:"shipping_fee"`
	Total              string         `json:"total"`
	SubtotalFormatted  string         `json:"subtotal_formatted"`
	ShippingFormatted  string         `json:"shipping_fee_formatted"`
	TotalFormatted     string         `json:"total_formatted"`
	SettlementCurrency string         `json:"settlement_currency"`
	Substituted        bool           `json:"settlement_substituted"`
	AmountMinor        int64          `json:"payment_amount_minor"`
}

type checkoutResultView struct {
	Status           service.CheckoutStatus `json:"status"`
	RequestReference string                 `json:"request_reference"`
	Order            *orderView             `json:"order,omitempty"`
	ConfirmationPath string                 `json:"confirmation_path,omitempty"`
}

// HandleViewCheckout prices the cart. An empty cart sends the shopper back to the catalog.
func (h *StorefrontHandler) HandleViewCheckout(w http.ResponseWriter, r *http.Request) {
	summary, err := h.checkout.View(r.Context(), sessionID(r), r.URL.Query().Get("country"))
	if domain.IsErrorCode(err, domain.ErrCodeCartEmpty) {
		http.Redirect(w, r, h.catalogPath, http.StatusSeeOther)
		return
	}
	if err != nil {
		respondWithError(w, err)
		return
	}

	lines := make([]cartLineView, 0, len(summary.Lines))
	for _, l := range summary.Lines {
		lines = append(lines, cartLineView{
			ProductID:          l.Item.Product.ID,
			Name:               l.Item.Product.Name,
			Slug:               l.Item.Product.Slug,
			ImageURL:           l.Item.ImageURL,
			Quantity:           l.Item.Quantity,
			Size:               l.Item.Size,
			Color:              l.Item.Color,
			CustomMeasurements: l.Item.CustomMeasurements,
			Variant:            l.Item.Variant(),
			UnitPrice:          l.UnitPrice,
			LineTotal:          l.LineTotal,
		})
	}

	respondWithJSON(w, http.StatusOK, checkoutSummaryView{
		Items:              lines,
		ItemCount:          summary.ItemCount,
		Currency:           summary.Currency.Code,
		Subtotal:           summary.Subtotal.String(),
		ShippingFee:        summary.ShippingFee.String(),
		Total:              summary.Total.String(),
		SubtotalFormatted:  summary.SubtotalFormatted,
		ShippingFormatted:  summary.ShippingFormatted,
		TotalFormatted:     summary.TotalFormatted,
		SettlementCurrency: summary.SettlementCurrency,
		Substituted:        summary.Substituted,
		AmountMinor:        summary.AmountMinor,
	})
}

// HandlePay runs the checkout. A cancelled payment is a 200 with status
// "cancelled"; the cart is left as it was.
func (h *StorefrontHandler) HandlePay(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, validationError("invalid JSON body"))
		return
	}

	form := req.form()
	if err := form.Validate(); err != nil {
		respondWithError(w, err)
		return
	}
	if !validEmail(form.Normalize().Email) {
		respondWithError(w, &domain.DomainError{
			Code:    domain.ErrCodeCheckoutInvalid,
			Message: "email address is not valid",
		})
		return
	}

	result, err := h.checkout.Pay(r.Context(), sessionID(r), form)
	if err != nil {
		if domain.PhaseOf(err) == domain.PhasePostPayment {
			h.logger.Error("checkout failed after payment", "session_id", sessionID(r), "error", err)
		}
		respondWithError(w, err)
		return
	}

	view := checkoutResultView{
		Status:           result.Status,
		RequestReference: result.RequestReference,
		ConfirmationPath: result.ConfirmationPath,
	}
	if result.Order != nil {
		ov := h.toOrderView(result.Order)
		view.Order = &ov
	}
	respondWithJSON(w, http.StatusOK, view)
}

func validEmail(s string) bool {
	var e types.Email
	return json.Unmarshal([]byte(strconv.Quote(s)), &e) == nil
}
