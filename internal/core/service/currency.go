package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/DanielPopoola/atelier-storefront/internal/core/domain"
	"github.com/DanielPopoola/atelier-storefront/internal/core/ports"
)

func currencyKey(sessionID string) string {
	return fmt.Sprintf("session:%s:currency", sessionID)
}

// CurrencyService tracks the display currency chosen by each session.
type CurrencyService struct {
	table  *domain.CurrencyTable
	store  ports.LocalStore
	logger *slog.Logger
}

func NewCurrencyService(table *domain.CurrencyTable, store ports.LocalStore, logger *slog.Logger) *CurrencyService {
	return &CurrencyService{
		table:  table,
		store:  store,
		logger: logger,
	}
}

func (s *CurrencyService) Table() *domain.CurrencyTable {
	return s.table
}

// Selected returns the session's currency. Anything missing, unreadable or
// no longer supported resolves to the base currency.
func (s *CurrencyService) Selected(ctx context.Context, sessionID string) domain.Currency {
	data, err := s.store.Load(ctx, currencyKey(sessionID))
	if err != nil {
		if !errors.Is(err, ports.ErrStateNotFound) {
			s.logger.Warn("failed to load selected currency", "session_id", sessionID, "error", err)
		}
		return s.table.Base()
	}

	var code string
	if err := json.Unmarshal(data, &code); err != nil {
		s.logger.Warn("discarding unreadable currency selection", "session_id", sessionID, "error", err)
		return s.table.Base()
	}

	c, ok := s.table.Lookup(code)
	if !ok {
		s.logger.Info("selected currency no longer supported, using base", "session_id", sessionID, "code", code)
		return s.table.Base()
	}
	return c
}

// Select changes the session's currency. Orders already placed are unaffected.
func (s *CurrencyService) Select(ctx context.Context, sessionID, code string) (domain.Currency, error) {
	c, ok := s.table.Lookup(code)
	if !ok {
		return domain.Currency{}, domain.NewUnsupportedCurrencyError(code)
	}

	data, err := json.Marshal(c.Code)
	if err != nil {
		return domain.Currency{}, err
	}
	if err := s.store.Save(ctx, currencyKey(sessionID), data); err != nil {
		s.logger.Warn("failed to persist currency selection", "session_id", sessionID, "code", c.Code, "error", err)
	}
	return c, nil
}
