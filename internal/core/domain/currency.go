package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Currency is a display currency. Rate converts base amounts:
// amountInBase * Rate = amount in this currency.
type Currency struct {
	Code   string          `json:"code"`
	Symbol string          `json:"symbol"`
	Name   string          `json:"name"`
	Rate   decimal.Decimal `json:"rate"`
	Base   bool            `json:"base"`
}

// DecimalPlaces is 0 for the base currency and 2 for everything else.
func (c Currency) DecimalPlaces() int32 {
	if c.Base {
		return 0
	}
	return 2
}

// Convert applies the rate without rounding.
func (c Currency) Convert(amountInBase decimal.Decimal) decimal.Decimal {
	return amountInBase.Mul(c.Rate)
}

// Round converts and rounds to the currency's display precision.
func (c Currency) Round(amountInBase decimal.Decimal) decimal.Decimal {
	return c.Convert(amountInBase).Round(c.DecimalPlaces())
}

// Format converts and renders the amount with the symbol prefixed and
// thousands grouped, e.g. "₦12,500" or "$8.13".
func (c Currency) Format(amountInBase decimal.Decimal) string {
	return c.FormatConverted(c.Convert(amountInBase))
}

// FormatConverted renders an amount already expressed in this currency.
// Digits come straight from the decimal, so large amounts stay exact.
func (c Currency) FormatConverted(amount decimal.Decimal) string {
	places := c.DecimalPlaces()
	rounded := amount.Round(places)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Abs()
	}

	whole, frac, hasFrac := strings.Cut(rounded.StringFixed(places), ".")
	out := sign + c.Symbol + groupThousands(whole)
	if hasFrac {
		out += "." + frac
	}
	return out
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head := len(digits) % 3
	if head == 0 {
		head = 3
	}

	var b strings.Builder
	b.WriteString(digits[:head])
	for i := head; i < len(digits); i += 3 {
		b.WriteByte(',')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// MinorUnits converts to the smallest denomination: x100, rounded half away from zero.
func (c Currency) MinorUnits(amountInBase decimal.Decimal) int64 {
	return MinorUnits(c.Convert(amountInBase))
}

// MinorUnits turns an amount in major units into an integer count of minor units.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// CurrencyTable is the fixed set of supported currencies.
type CurrencyTable struct {
	currencies []Currency
	byCode     map[string]Currency
	base       Currency
}

// NewCurrencyTable validates the entries: codes are unique, rates positive
// and exactly one currency is the base with a rate of 1.
func NewCurrencyTable(currencies []Currency) (*CurrencyTable, error) {
	t := &CurrencyTable{byCode: make(map[string]Currency, len(currencies))}
	bases := 0
	for _, c := range currencies {
		c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
		if c.Code == "" {
			return nil, fmt.Errorf("currency code is required")
		}
		if _, dup := t.byCode[c.Code]; dup {
			return nil, fmt.Errorf("duplicate currency %s", c.Code)
		}
		if !c.Rate.IsPositive() {
			return nil, fmt.Errorf("currency %s: rate must be positive", c.Code)
		}
		if c.Base {
			if !c.Rate.Equal(decimal.NewFromInt(1)) {
				return nil, fmt.Errorf("base currency %s must have rate 1", c.Code)
			}
			bases++
			t.base = c
		}
		t.byCode[c.Code] = c
		t.currencies = append(t.currencies, c)
	}
	if bases != 1 {
		return nil, fmt.Errorf("expected exactly one base currency, got %d", bases)
	}
	return t, nil
}

func (t *CurrencyTable) Base() Currency {
	return t.base
}

func (t *CurrencyTable) Lookup(code string) (Currency, bool) {
	c, ok := t.byCode[strings.ToUpper(code)]
	return c, ok
}

// Resolve never fails: unknown codes fall back to the base currency.
func (t *CurrencyTable) Resolve(code string) Currency {
	if c, ok := t.Lookup(code); ok {
		return c
	}
	return t.base
}

func (t *CurrencyTable) All() []Currency {
	out := make([]Currency, len(t.currencies))
	copy(out, t.currencies)
	return out
}
