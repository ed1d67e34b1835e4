package testhelpers

import (
	"time"

	"github.com/DanielPopoola/atelier-storefront/internal/core/domain"
	"github.com/shopspring/decimal"
)

func DefaultForm() domain.CheckoutForm {
	return domain.CheckoutForm{
		FirstName: "Adaeze",
		LastName:  "Okafor",
		Email:     "adaeze@example.com",
		Phone:     "+2348012345678",
		Address:   "12 Admiralty Way",
		City:      "Lekki",
		State:     "Lagos",
		Country:   "Nigeria",
	}
}

func BaseCurrency() domain.Currency {
	return domain.Currency{Code: "NGN", Symbol: "₦", Name: "Nigerian Naira", Rate: decimal.NewFromInt(1), Base: true}
}

// DefaultAttempt builds an in-flight attempt for two units of one dress.
func DefaultAttempt(form domain.CheckoutForm) *domain.CheckoutAttempt {
	cart := domain.NewCart()
	_ = cart.AddItem(domain.LineItem{
		Product: domain.Product{
			ID:            "prod-ankara",
			Name:          "Ankara Wrap Dress",
			Slug:          "ankara-wrap-dress",
			Price:         decimal.NewFromInt(20000),
			StockQuantity: 4,
			Images:        []string{"https://cdn.example.com/ankara-1.jpg"},
		},
		Quantity: 2,
		Size:     "M",
		Color:    domain.ColorSelection{Name: "Black", Hex: "#000000"},
	})

	ngn := BaseCurrency()
	now := time.Now()
	snap := domain.NewCheckoutSnapshot("sess-1", cart, form, ngn, ngn, decimal.NewFromInt(2500), "card")
	return domain.NewCheckoutAttempt(snap, domain.NewRequestReference(now), now)
}
