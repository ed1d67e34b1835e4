package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Contact is the contact and shipping block shared by customers and orders.
type Contact struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	Country    string `json:"country"`
	PostalCode string `json:"postal_code,omitempty"`
}

func ContactFromForm(f CheckoutForm) Contact {
	f = f.Normalize()
	return Contact{
		FirstName:  f.FirstName,
		LastName:   f.LastName,
		Email:      f.Email,
		Phone:      f.Phone,
		Address:    f.Address,
		City:       f.City,
		State:      f.State,
		Country:    f.Country,
		PostalCode: f.PostalCode,
	}
}

// Customer is keyed by email. TotalOrders and TotalSpent only grow.
type Customer struct {
	ID          uuid.UUID
	Contact     Contact
	TotalOrders int
	TotalSpent  decimal.Decimal
	Currency    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CustomerUpsert carries one checkout's contribution to a customer record.
type CustomerUpsert struct {
	Contact    Contact
	OrderTotal decimal.Decimal
	Currency   string
}

// NewCustomer creates the record for a first checkout.
func NewCustomer(u CustomerUpsert, now time.Time) *Customer {
	return &Customer{
		ID:          uuid.New(),
		Contact:     u.Contact,
		TotalOrders: 1,
		TotalSpent:  u.OrderTotal,
		Currency:    u.Currency,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// RecordOrder overwrites contact details with the latest values and
// accumulates the counters. Amounts are summed as-is across currencies.
func (c *Customer) RecordOrder(u CustomerUpsert, now time.Time) {
	c.Contact = u.Contact
	c.TotalOrders++
	c.TotalSpent = c.TotalSpent.Add(u.OrderTotal)
	c.Currency = u.Currency
	c.UpdatedAt = now
}
