package payment

type chargeRequest struct {
	Reference string            `json:"reference"`
	Email     string            `json:"email"`
	Amount    int64             `json:"amount"`
	Currency  string            `json:"currency"`
	PublicKey string            `json:"public_key,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// chargeResponse is returned by both the create and the lookup endpoints.
type chargeResponse struct {
	Reference         string `json:"reference"`
	ProviderReference string `json:"provider_reference"`
	Status            string `json:"status"`
	GatewayResponse   string `json:"gateway_response"`
	Amount            int64  `json:"amount"`
	Currency          string `json:"currency"`
}

const (
	statusSuccess   = "success"
	statusFailed    = "failed"
	statusCancelled = "cancelled"
	statusAbandoned = "abandoned"
	statusPending   = "pending"
)
