package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DanielPopoola/atelier-storefront/internal/config"
	"github.com/DanielPopoola/atelier-storefront/internal/core/domain"
	"github.com/DanielPopoola/atelier-storefront/internal/core/ports"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func confirmation() ports.Notification {
	return ports.Notification{
		RecipientEmail: "ada@example.com",
		Subject:        "Your order ORD-1-ABCD is confirmed",
		Template:       "order_confirmation",
		TemplateData: map[string]any{
			"FirstName":   "Ada",
			"OrderNumber": "ORD-1-ABCD",
			"Items": []map[string]any{
				{"Name": "Adire Wrap Dress", "Variant": "M / Black", "Quantity": 2, "UnitPrice": "₦20,000", "ImageURL": ""},
			},
			"Subtotal":         "₦40,000",
			"ShippingFee":      "₦2,500",
			"Total":            "₦42,500",
			"PaymentReference": "PSK-1",
			"ShippingAddress":  "1 Marina, Lagos, Lagos, Nigeria",
			"SupportContact":   "care@atelier.ng",
		},
	}
}

func TestEmailNotifier_Send(t *testing.T) {
	var got sendEmailRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"email_1"}`))
	}))
	defer srv.Close()

	n, err := NewEmailNotifier(config.NotificationConfig{
		EmailBaseURL: srv.URL,
		EmailAPIKey:  "re_test",
		FromAddress:  "orders@atelier.ng",
	})
	require.NoError(t, err)

	require.NoError(t, n.Send(context.Background(), confirmation()))

	assert.Equal(t, []string{"ada@example.com"}, got.To)
	assert.Equal(t, "orders@atelier.ng", got.From)
	assert.Contains(t, got.HTML, "ORD-1-ABCD")
	assert.Contains(t, got.HTML, "Adire Wrap Dress")
	assert.Contains(t, got.Text, "Total:    ₦42,500")
	assert.Contains(t, got.Text, "care@atelier.ng")
}

func TestEmailNotifier_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"The 'from' field is required."}`))
	}))
	defer srv.Close()

	n, err := NewEmailNotifier(config.NotificationConfig{EmailBaseURL: srv.URL})
	require.NoError(t, err)

	err = n.Send(context.Background(), confirmation())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
}

func TestEmailNotifier_UnknownTemplate(t *testing.T) {
	n, err := NewEmailNotifier(config.NotificationConfig{EmailBaseURL: "http://unused"})
	require.NoError(t, err)

	msg := confirmation()
	msg.Template = "password_reset"

	assert.Error(t, n.Send(context.Background(), msg))
}

type fakeWriter struct {
	messages []kafka.Message
	err      error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestOrderEventPublisher_AfterCommit(t *testing.T) {
	w := &fakeWriter{}
	p := &OrderEventPublisher{writer: w}

	order := &domain.Order{
		ID:               uuid.New(),
		OrderNumber:      "ORD-1-ABCD",
		CustomerID:       uuid.New(),
		Contact:          domain.Contact{Email: "ada@example.com"},
		Subtotal:         decimal.NewFromInt(40000),
		ShippingFee:      decimal.NewFromInt(2500),
		TotalAmount:      decimal.NewFromInt(42500),
		CurrencyCode:     "NGN",
		PaymentReference: "PSK-1",
		CreatedAt:        time.Now(),
	}

	require.NoError(t, p.AfterCommit(context.Background(), order))
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, order.ID.String(), string(msg.Key))
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, orderCreatedEvent, string(msg.Headers[0].Value))

	var payload orderCreatedPayload
	require.NoError(t, json.Unmarshal(msg.Value, &payload))
	assert.Equal(t, "42500", payload.TotalAmount)
	assert.Equal(t, "PSK-1", payload.PaymentReference)
}

func TestOrderEventPublisher_WriteError(t *testing.T) {
	p := &OrderEventPublisher{writer: &fakeWriter{err: errors.New("broker down")}}

	err := p.AfterCommit(context.Background(), &domain.Order{ID: uuid.New()})

	assert.EqualError(t, err, "broker down")
}
