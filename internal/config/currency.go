package config

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/DanielPopoola/atelier-storefront/internal/core/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed currencies.yaml
var defaultCurrencies []byte

type currencyEntry struct {
	Code   string `yaml:"code"`
	Symbol string `yaml:"symbol"`
	Name   string `yaml:"name"`
	Rate   string `yaml:"rate"`
	Base   bool   `yaml:"base"`
}

type currencyFile struct {
	Currencies []currencyEntry `yaml:"currencies"`
}

// LoadCurrencyTable reads the currency table from c.File, or the built-in table when unset.
func (c CurrencyConfig) LoadCurrencyTable() (*domain.CurrencyTable, error) {
	data := defaultCurrencies
	if c.File != "" {
		var err error
		data, err = os.ReadFile(c.File)
		if err != nil {
			return nil, fmt.Errorf("reading currency table %s: %w", c.File, err)
		}
	}
	return ParseCurrencyTable(data)
}

func ParseCurrencyTable(data []byte) (*domain.CurrencyTable, error) {
	var f currencyFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing currency table: %w", err)
	}
	if len(f.Currencies) == 0 {
		return nil, fmt.Errorf("currency table has no currencies defined")
	}

	currencies := make([]domain.Currency, 0, len(f.Currencies))
	for _, e := range f.Currencies {
		rate, err := decimal.NewFromString(e.Rate)
		if err != nil {
			return nil, fmt.Errorf("currency %q: invalid rate %q: %w", e.Code, e.Rate, err)
		}
		currencies = append(currencies, domain.Currency{
			Code:   e.Code,
			Symbol: e.Symbol,
			Name:   e.Name,
			Rate:   rate,
			Base:   e.Base,
		})
	}
	return domain.NewCurrencyTable(currencies)
}
