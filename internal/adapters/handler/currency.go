package handler

import (
	"encoding/json"
	"net/http"
)

type currencyView struct {
	Code          string `json:"code"`
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	Rate          string `json:"rate"`
	DecimalPlaces int32  `json:"decimal_places"`
	Base          bool   `json:"base"`
}

type currencyListResponse struct {
	Currencies []currencyView `json:"currencies"`
	Selected   string         `json:"selected"`
}

type SelectCurrencyRequest struct {
	Code string `json:"code"`
}

func (h *StorefrontHandler) HandleListCurrencies(w http.ResponseWriter, r *http.Request) {
	all := h.currencies.Table().All()
	views := make([]currencyView, 0, len(all))
	for _, c := range all {
		views = append(views, currencyView{
			Code:          c.Code,
			Symbol:        c.Symbol,
			Name:          c.Name,
			Rate:          c.Rate.String(),
			DecimalPlaces: c.DecimalPlaces(),
			Base:          c.Base,
		})
	}

	respondWithJSON(w, http.StatusOK, currencyListResponse{
		Currencies: views,
		Selected:   h.currencies.Selected(r.Context(), sessionID(r)).Code,
	})
}

func (h *StorefrontHandler) HandleSelectCurrency(w http.ResponseWriter, r *http.Request) {
	var req SelectCurrencyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, validationError("invalid JSON body"))
		return
	}

	c, err := h.currencies.Select(r.Context(), sessionID(r), req.Code)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, currencyView{
		Code:          c.Code,
		Symbol:        c.Symbol,
		Name:          c.Name,
		Rate:          c.Rate.String(),
		DecimalPlaces: c.DecimalPlaces(),
		Base:          c.Base,
	})
}
