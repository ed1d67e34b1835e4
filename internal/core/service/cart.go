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

func cartKey(sessionID string) string {
	return fmt.Sprintf("session:%s:cart", sessionID)
}

// CartService loads a session's cart, applies one mutation and writes the
// whole line collection back. Concurrent writers for one session: last write wins.
type CartService struct {
	store  ports.LocalStore
	logger *slog.Logger
}

func NewCartService(store ports.LocalStore, logger *slog.Logger) *CartService {
	return &CartService{
		store:  store,
		logger: logger,
	}
}

// Load rehydrates the cart. A corrupt payload yields an empty cart; only a
// store transport failure is returned.
func (s *CartService) Load(ctx context.Context, sessionID string) (*domain.Cart, error) {
	data, err := s.store.Load(ctx, cartKey(sessionID))
	if errors.Is(err, ports.ErrStateNotFound) {
		return domain.NewCart(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	var lines []domain.LineItem
	if err := json.Unmarshal(data, &lines); err != nil {
		s.logger.Warn("discarding unreadable cart", "session_id", sessionID, "error", err)
		return domain.NewCart(), nil
	}
	return domain.RestoreCart(lines), nil
}

func (s *CartService) AddItem(ctx context.Context, sessionID string, item domain.LineItem) (*domain.Cart, error) {
	return s.mutate(ctx, sessionID, func(c *domain.Cart) error {
		return c.AddItem(item)
	})
}

func (s *CartService) RemoveItem(ctx context.Context, sessionID string, sel domain.LineSelector) (*domain.Cart, error) {
	return s.mutate(ctx, sessionID, func(c *domain.Cart) error {
		c.RemoveItem(sel)
		return nil
	})
}

func (s *CartService) UpdateQuantity(ctx context.Context, sessionID string, sel domain.LineSelector, quantity int) (*domain.Cart, error) {
	return s.mutate(ctx, sessionID, func(c *domain.Cart) error {
		c.UpdateQuantity(sel, quantity)
		return nil
	})
}

// Clear empties the cart. Failures are logged; the shopper still sees an empty cart.
func (s *CartService) Clear(ctx context.Context, sessionID string) {
	if err := s.store.Clear(ctx, cartKey(sessionID)); err != nil {
		s.logger.Error("failed to clear cart", "session_id", sessionID, "error", err)
	}
}

func (s *CartService) mutate(ctx context.Context, sessionID string, fn func(*domain.Cart) error) (*domain.Cart, error) {
	cart, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := fn(cart); err != nil {
		return nil, err
	}
	s.save(ctx, sessionID, cart)
	return cart, nil
}

// save never fails the caller: the in-memory cart stays correct even when
// persistence does not.
func (s *CartService) save(ctx context.Context, sessionID string, cart *domain.Cart) {
	data, err := json.Marshal(cart.Items())
	if err != nil {
		s.logger.Warn("failed to encode cart", "session_id", sessionID, "error", err)
		return
	}
	if err := s.store.Save(ctx, cartKey(sessionID), data); err != nil {
		s.logger.Warn("failed to persist cart", "session_id", sessionID, "error", err)
	}
}
