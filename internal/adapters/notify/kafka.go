package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/DanielPopoola/atelier-storefront/internal/core/domain"
	"github.com/DanielPopoola/atelier-storefront/internal/core/ports"
	"github.com/segmentio/kafka-go"
)

const orderCreatedEvent = "order.created"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type orderCreatedPayload struct {
	OrderID          string             `json:"order_id"`
	OrderNumber      string             `json:"order_number"`
	CustomerID       string             `json:"customer_id"`
	Email            string             `json:"email"`
	Items            []domain.OrderLine `json:"items"`
	Subtotal         string             `json:"subtotal"`
	ShippingFee      string             `json:"shipping_fee"`
	TotalAmount      string             `json:"total_amount"`
	Currency         string             `json:"currency"`
	PaymentReference string             `json:"payment_reference"`
	CreatedAt        time.Time          `json:"created_at"`
}

// OrderEventPublisher publishes order.created for fulfilment after commit.
type OrderEventPublisher struct {
	writer messageWriter
}

func NewOrderEventPublisher(brokers []string, topic string) *OrderEventPublisher {
	return &OrderEventPublisher{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}}
}

var _ ports.PostCommitHook = (*OrderEventPublisher)(nil)

func (p *OrderEventPublisher) Name() string {
	return "order_event"
}

func (p *OrderEventPublisher) AfterCommit(ctx context.Context, order *domain.Order) error {
	payload, err := json.Marshal(orderCreatedPayload{
		OrderID:          order.ID.String(),
		OrderNumber:      order.OrderNumber,
		CustomerID:       order.CustomerID.String(),
		Email:            order.Contact.Email,
		Items:            order.Items,
		Subtotal:         order.Subtotal.String(),
		ShippingFee:      order.ShippingFee.String(),
		TotalAmount:      order.TotalAmount.String(),
		Currency:         order.CurrencyCode,
		PaymentReference: order.PaymentReference,
		CreatedAt:        order.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}

	msg := kafka.Message{
		// order id keeps events for one order on one partition
		Key:   []byte(order.ID.String()),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(orderCreatedEvent)},
		},
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *OrderEventPublisher) Close() error {
	return p.writer.Close()
}
