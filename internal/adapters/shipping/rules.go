package shipping

import (
	"fmt"
	"strings"

	"github.com/DanielPopoola/atelier-storefront/internal/config"
	"github.com/DanielPopoola/atelier-storefront/internal/core/ports"
	"github.com/shopspring/decimal"
)

// FlatRateRules charges one fee for the home country and another for
// everywhere else. Orders at or above FreeThreshold ship free.
type FlatRateRules struct {
	homeCountry      string
	domesticFee      decimal.Decimal
	internationalFee decimal.Decimal
	freeThreshold    decimal.Decimal
}

func NewFlatRateRules(cfg config.ShippingConfig) (*FlatRateRules, error) {
	domestic, err := parseAmount("domestic_fee", cfg.DomesticFee)
	if err != nil {
		return nil, err
	}
	international, err := parseAmount("international_fee", cfg.InternationalFee)
	if err != nil {
		return nil, err
	}
	threshold := decimal.Zero
	if cfg.FreeThreshold != "" {
		threshold, err = parseAmount("free_threshold", cfg.FreeThreshold)
		if err != nil {
			return nil, err
		}
	}

	return &FlatRateRules{
		homeCountry:      strings.TrimSpace(cfg.HomeCountry),
		domesticFee:      domestic,
		internationalFee: international,
		freeThreshold:    threshold,
	}, nil
}

var _ ports.ShippingRules = (*FlatRateRules)(nil)

// Fee is in the base currency. An empty country is treated as domestic.
func (r *FlatRateRules) Fee(subtotalBase decimal.Decimal, country string) decimal.Decimal {
	if r.freeThreshold.IsPositive() && subtotalBase.GreaterThanOrEqual(r.freeThreshold) {
		return decimal.Zero
	}
	country = strings.TrimSpace(country)
	if country == "" || strings.EqualFold(country, r.homeCountry) {
		return r.domesticFee
	}
	return r.internationalFee
}

func parseAmount(field, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, fmt.Errorf("shipping %s %q: %w", field, value, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("shipping %s must not be negative", field)
	}
	return d, nil
}
