package postgres

import (
	"encoding/json"
	"fmt"

	"github.com/DanielPopoola/atelier-storefront/internal/core/domain"
	"github.com/shopspring/decimal"
)

func toDomainCustomer(r customerRow) (*domain.Customer, error) {
	spent, err := decimal.NewFromString(r.TotalSpent)
	if err != nil {
		return nil, fmt.Errorf("parse total_spent %q: %w", r.TotalSpent, err)
	}
	return &domain.Customer{
		ID: r.ID,
		Contact: domain.Contact{
			FirstName:  r.FirstName,
			LastName:   r.LastName,
			Email:      r.Email,
			Phone:      r.Phone,
			Address:    r.Address,
			City:       r.City,
			State:      r.State,
			Country:    r.Country,
			PostalCode: r.PostalCode,
		},
		TotalOrders: r.TotalOrders,
		TotalSpent:  spent,
		Currency:    r.Currency,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}, nil
}

func toDomainOrder(r orderRow) (*domain.Order, error) {
	var items []domain.OrderLine
	if err := json.Unmarshal(r.Items, &items); err != nil {
		return nil, fmt.Errorf("decode order items: %w", err)
	}

	amounts := make([]decimal.Decimal, 3)
	for i, s := range []string{r.Subtotal, r.ShippingFee, r.TotalAmount} {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil, fmt.Errorf("parse order amount %q: %w", s, err)
		}
		amounts[i] = d
	}

	return &domain.Order{
		ID:          r.ID,
		OrderNumber: r.OrderNumber,
		CustomerID:  r.CustomerID,
		Contact: domain.Contact{
			FirstName:  r.FirstName,
			LastName:   r.LastName,
			Email:      r.Email,
			Phone:      r.Phone,
			Address:    r.Address,
			City:       r.City,
			State:      r.State,
			Country:    r.Country,
			PostalCode: r.PostalCode,
		},
		Items:            items,
		Subtotal:         amounts[0],
		ShippingFee:      amounts[1],
		TotalAmount:      amounts[2],
		CurrencyCode:     r.CurrencyCode,
		PaymentMethod:    r.PaymentMethod,
		PaymentStatus:    domain.PaymentStatus(r.PaymentStatus),
		PaymentReference: r.PaymentReference,
		OrderStatus:      domain.OrderStatus(r.OrderStatus),
		TrackingNumber:   r.TrackingNumber,
		AdminNotes:       r.AdminNotes,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}, nil
}

func toDomainAttempt(r attemptRow) (*domain.CheckoutAttempt, error) {
	var snap domain.CheckoutSnapshot
	if err := json.Unmarshal(r.Snapshot, &snap); err != nil {
		return nil, fmt.Errorf("decode attempt snapshot: %w", err)
	}
	return &domain.CheckoutAttempt{
		ID:                r.ID,
		SessionID:         r.SessionID,
		RequestReference:  r.RequestReference,
		ProviderReference: r.ProviderReference,
		Status:            domain.AttemptStatus(r.Status),
		Snapshot:          snap,
		CustomerID:        r.CustomerID,
		OrderID:           r.OrderID,
		AttemptCount:      r.AttemptCount,
		LastError:         r.LastError,
		Version:           r.Version,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}, nil
}
