package postgres

import (
	"time"

	"github.com/google/uuid"
)

// Numeric columns travel as text so decimals never pass through float64.

type customerRow struct {
	ID          uuid.UUID
	Email       string
	FirstName   string
	LastName    string
	Phone       string
	Address     string
	City        string
	State       string
	Country     string
	PostalCode  string
	TotalOrders int
	TotalSpent  string
	Currency    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type orderRow struct {
	ID               uuid.UUID
	OrderNumber      string
	CustomerID       uuid.UUID
	FirstName        string
	LastName         string
	Email            string
	Phone            string
	Address          string
	City             string
	State            string
	Country          string
	PostalCode       string
	Items            []byte
	Subtotal         string
	ShippingFee      string
	TotalAmount      string
	CurrencyCode     string
	PaymentMethod    string
	PaymentStatus    string
	PaymentReference string
	OrderStatus      string
	TrackingNumber   *string
	AdminNotes       *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type attemptRow struct {
	ID                uuid.UUID
	SessionID         string
	RequestReference  string
	ProviderReference *string
	Status            string
	Snapshot          []byte
	CustomerID        *uuid.UUID
	OrderID           *uuid.UUID
	AttemptCount      int
	LastError         *string
	Version           int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
