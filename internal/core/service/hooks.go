package service

import (
	"context"
	"fmt"

	"github.com/DanielPopoola/atelier-storefront/internal/core/domain"
	"github.com/DanielPopoola/atelier-storefront/internal/core/ports"
)

// ConfirmationEmailHook sends the order confirmation after commit.
type ConfirmationEmailHook struct {
	notifier       ports.Notifier
	currencies     *domain.CurrencyTable
	supportContact string
}

func NewConfirmationEmailHook(notifier ports.Notifier, currencies *domain.CurrencyTable, supportContact string) *ConfirmationEmailHook {
	return &ConfirmationEmailHook{
		notifier:       notifier,
		currencies:     currencies,
		supportContact: supportContact,
	}
}

func (h *ConfirmationEmailHook) Name() string {
	return "confirmation_email"
}

func (h *ConfirmationEmailHook) AfterCommit(ctx context.Context, order *domain.Order) error {
	currency := h.currencies.Resolve(order.CurrencyCode)

	items := make([]map[string]any, 0, len(order.Items))
	for _, l := range order.Items {
		items = append(items, map[string]any{
			"Name":      l.ProductName,
			"Variant":   l.Variant,
			"Quantity":  l.Quantity,
			"UnitPrice": currency.FormatConverted(l.UnitPrice),
			"ImageURL":  l.ImageURL,
		})
	}

	return h.notifier.Send(ctx, ports.Notification{
		RecipientEmail: order.Contact.Email,
		Subject:        fmt.Sprintf("Your order %s is confirmed", order.OrderNumber),
		Template:       "order_confirmation",
		TemplateData: map[string]any{
			"FirstName":        order.Contact.FirstName,
			"OrderNumber":      order.OrderNumber,
			"Items":            items,
			"Subtotal":         currency.FormatConverted(order.Subtotal),
			"ShippingFee":      currency.FormatConverted(order.ShippingFee),
			"Total":            currency.FormatConverted(order.TotalAmount),
			"PaymentReference": order.PaymentReference,
			"ShippingAddress":  fmt.Sprintf("%s, %s, %s, %s", order.Contact.Address, order.Contact.City, order.Contact.State, order.Contact.Country),
			"SupportContact":   h.supportContact,
		},
	})
}
