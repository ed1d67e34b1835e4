package service

import (
	"context"
	"errors"
	"testing"

	"github.com/DanielPopoola/atelier-storefront/internal/adapters/localstore"
	"github.com/DanielPopoola/atelier-storefront/internal/core/domain"
)

func TestCartService_AddItemPersists(t *testing.T) {
	ctx := context.Background()
	local := localstore.NewMemoryStore()
	svc := NewCartService(local, testLogger())

	if _, err := svc.AddItem(ctx, "sess-1", dressLine(1)); err != nil {
		t.Fatalf("add: %v", err)
	}
	cart, err := svc.AddItem(ctx, "sess-1", dressLine(2))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(cart.Items()) != 1 || cart.ItemCount() != 3 {
		t.Fatalf("expected one merged line of 3, got %d lines / %d units", len(cart.Items()), cart.ItemCount())
	}

	// a fresh service sees the same cart
	reloaded, err := NewCartService(local, testLogger()).Load(ctx, "sess-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if reloaded.ItemCount() != 3 {
		t.Errorf("expected 3 units after reload, got %d", reloaded.ItemCount())
	}
	if !reloaded.Subtotal().Equal(cart.Subtotal()) {
		t.Errorf("subtotal changed across reload: %s vs %s", reloaded.Subtotal(), cart.Subtotal())
	}
}

func TestCartService_InvalidItemRejected(t *testing.T) {
	svc := NewCartService(localstore.NewMemoryStore(), testLogger())

	_, err := svc.AddItem(context.Background(), "sess-1", dressLine(0))
	if !domain.IsErrorCode(err, domain.ErrCodeInvalidQuantity) {
		t.Fatalf("expected INVALID_QUANTITY, got %v", err)
	}
}

func TestCartService_UpdateAndRemove(t *testing.T) {
	ctx := context.Background()
	svc := NewCartService(localstore.NewMemoryStore(), testLogger())
	sel := domain.LineSelector{ProductID: "prod-ankara", Size: "M", ColorName: "Black"}

	if _, err := svc.AddItem(ctx, "sess-1", dressLine(1)); err != nil {
		t.Fatalf("add: %v", err)
	}

	cart, err := svc.UpdateQuantity(ctx, "sess-1", sel, 5)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if cart.ItemCount() != 5 {
		t.Errorf("expected 5 units, got %d", cart.ItemCount())
	}

	cart, err = svc.UpdateQuantity(ctx, "sess-1", sel, 0)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !cart.IsEmpty() {
		t.Errorf("quantity 0 should remove the line")
	}

	if _, err := svc.AddItem(ctx, "sess-1", dressLine(1)); err != nil {
		t.Fatalf("add: %v", err)
	}
	cart, err = svc.RemoveItem(ctx, "sess-1", sel)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !cart.IsEmpty() {
		t.Errorf("expected empty cart after remove")
	}
}

func TestCartService_CorruptPayloadYieldsEmptyCart(t *testing.T) {
	ctx := context.Background()
	local := localstore.NewMemoryStore()
	_ = local.Save(ctx, cartKey("sess-1"), []byte(`[{"product":`))

	cart, err := NewCartService(local, testLogger()).Load(ctx, "sess-1")
	if err != nil {
		t.Fatalf("corrupt cart should not error: %v", err)
	}
	if !cart.IsEmpty() {
		t.Errorf("expected empty cart")
	}
}

func TestCartService_StoreDown(t *testing.T) {
	svc := NewCartService(brokenStore{}, testLogger())

	_, err := svc.Load(context.Background(), "sess-1")
	if !errors.Is(err, errBackendDown) {
		t.Fatalf("expected transport error to surface, got %v", err)
	}

	// Clear swallows the failure.
	svc.Clear(context.Background(), "sess-1")
}

func TestCartService_SaveFailureKeepsInMemoryCart(t *testing.T) {
	local := localstore.NewMemoryStore()
	local.SaveErr = errBackendDown
	svc := NewCartService(local, testLogger())

	cart, err := svc.AddItem(context.Background(), "sess-1", dressLine(2))
	if err != nil {
		t.Fatalf("save failure should not fail add: %v", err)
	}
	if cart.ItemCount() != 2 {
		t.Errorf("expected 2 units in returned cart, got %d", cart.ItemCount())
	}
}

func TestCartService_ClearEmptiesCart(t *testing.T) {
	ctx := context.Background()
	svc := NewCartService(localstore.NewMemoryStore(), testLogger())
	if _, err := svc.AddItem(ctx, "sess-1", dressLine(1)); err != nil {
		t.Fatalf("add: %v", err)
	}

	svc.Clear(ctx, "sess-1")

	cart, err := svc.Load(ctx, "sess-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cart.IsEmpty() {
		t.Errorf("expected empty cart after clear")
	}
}
