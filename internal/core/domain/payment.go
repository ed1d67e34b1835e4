package domain

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
	"time"
)

// PaymentRequest is what the payment provider needs to capture a charge.
type PaymentRequest struct {
	Reference   string            `json:"reference"`
	Email       string            `json:"email"`
	AmountMinor int64             `json:"amount"`
	Currency    string            `json:"currency"`
	PublicKey   string            `json:"public_key,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type PaymentOutcome string

const (
	PaymentCaptured  PaymentOutcome = "captured"
	PaymentCancelled PaymentOutcome = "cancelled"
)

// PaymentResult is either Captured with the provider's reference or Cancelled.
type PaymentResult struct {
	Outcome   PaymentOutcome
	Reference string
}

func Captured(reference string) PaymentResult {
	return PaymentResult{Outcome: PaymentCaptured, Reference: reference}
}

func Cancelled() PaymentResult {
	return PaymentResult{Outcome: PaymentCancelled}
}

func (r PaymentResult) IsCaptured() bool {
	return r.Outcome == PaymentCaptured && r.Reference != ""
}

// SettlementPolicy decides which currency the provider is actually asked to settle in.
type SettlementPolicy struct {
	Allowed []string
	Default string
}

// Resolve returns the settlement code for a display currency and whether it was substituted.
func (p SettlementPolicy) Resolve(displayCode string) (string, bool) {
	code := strings.ToUpper(displayCode)
	if slices.Contains(p.Allowed, code) {
		return code, false
	}
	return p.Default, true
}

// NewRequestReference builds the per-attempt reference sent to the provider,
// e.g. CHK-1718000000000-9f86d081.
func NewRequestReference(now time.Time) string {
	return fmt.Sprintf("CHK-%d-%s", now.UnixMilli(), randomHex(4))
}

func randomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
