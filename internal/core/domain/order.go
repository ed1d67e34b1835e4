package domain

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

type PaymentStatus string

// PaymentPaid is the only status an order is created with.
const PaymentPaid PaymentStatus = "paid"

// OrderLine is a frozen copy of a cart line. UnitPrice is in the order currency.
type OrderLine struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	ProductSlug string          `json:"product_slug"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Variant     string          `json:"variant"`
	ImageURL    string          `json:"image_url"`
}

// Order is immutable after creation except for OrderStatus, TrackingNumber
// and AdminNotes.
type Order struct {
	ID               uuid.UUID
	OrderNumber      string
	CustomerID       uuid.UUID
	Contact          Contact
	Items            []OrderLine
	Subtotal         decimal.Decimal
	ShippingFee      decimal.Decimal
	TotalAmount      decimal.Decimal
	CurrencyCode     string
	PaymentMethod    string
	PaymentStatus    PaymentStatus
	PaymentReference string
	OrderStatus      OrderStatus
	TrackingNumber   *string
	AdminNotes       *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

const orderNumberAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewOrderNumber returns a human-readable number such as ORD-1718000000000-K3ZQ.
// Uniqueness is probabilistic; callers re-roll on a duplicate.
func NewOrderNumber(now time.Time) string {
	suffix := make([]byte, 4)
	for i := range suffix {
		suffix[i] = orderNumberAlphabet[rand.IntN(len(orderNumberAlphabet))]
	}
	return fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), suffix)
}

// NewOrder materializes a paid checkout snapshot.
func NewOrder(snap CheckoutSnapshot, customerID uuid.UUID, paymentReference string, now time.Time) *Order {
	return &Order{
		ID:               uuid.New(),
		OrderNumber:      NewOrderNumber(now),
		CustomerID:       customerID,
		Contact:          ContactFromForm(snap.Form),
		Items:            snap.OrderLines(),
		Subtotal:         snap.Subtotal,
		ShippingFee:      snap.ShippingFee,
		TotalAmount:      snap.Total,
		CurrencyCode:     snap.Currency,
		PaymentMethod:    snap.PaymentMethod,
		PaymentStatus:    PaymentPaid,
		PaymentReference: paymentReference,
		OrderStatus:      OrderPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// ItemCount is the number of units across all lines.
func (o *Order) ItemCount() int {
	n := 0
	for _, l := range o.Items {
		n += l.Quantity
	}
	return n
}
