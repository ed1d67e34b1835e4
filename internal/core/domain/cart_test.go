package domain_test

import (
	"testing"

	"github.com/DanielPopoola/atelier-storefront/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dress(price int64) domain.Product {
	return domain.Product{
		ID:            "prod-ankara-dress",
		Name:          "Ankara Wrap Dress",
		Slug:          "ankara-wrap-dress",
		Price:         decimal.NewFromInt(price),
		StockQuantity: 10,
		Images:        []string{"https://cdn.example.com/ankara-1.jpg"},
	}
}

func standardItem(qty int) domain.LineItem {
	return domain.LineItem{
		Product:  dress(100),
		Quantity: qty,
		Size:     "M",
		Color:    domain.ColorSelection{Name: "Emerald", Hex: "#1B7F5C"},
	}
}

func customItem(qty int, bust string) domain.LineItem {
	return domain.LineItem{
		Product:  dress(100),
		Quantity: qty,
		Size:     domain.CustomSize,
		Color:    domain.ColorSelection{Name: "Emerald", Hex: "#1B7F5C"},
		CustomMeasurements: &domain.CustomMeasurements{
			Bust: bust, Waist: "28in", Hips: "38in", Length: "52in",
		},
	}
}

func TestLineItemKey(t *testing.T) {
	t.Run("equal for merge-equivalent standard items", func(t *testing.T) {
		a := standardItem(1)
		b := standardItem(3)
		b.Color.Hex = "#1b7f5c"
		assert.Equal(t, domain.LineItemKey(a), domain.LineItemKey(b))
	})

	t.Run("differs when any standard identity field differs", func(t *testing.T) {
		base := standardItem(1)

		size := base
		size.Size = "L"
		colorName := base
		colorName.Color.Name = "Forest"
		colorHex := base
		colorHex.Color.Hex = "#000000"
		product := base
		product.Product.ID = "prod-other"

		for _, other := range []domain.LineItem{size, colorName, colorHex, product} {
			assert.NotEqual(t, domain.LineItemKey(base), domain.LineItemKey(other))
		}
	})

	t.Run("custom key ignores height and hex", func(t *testing.T) {
		a := customItem(1, "34in")
		b := customItem(1, "34in")
		b.CustomMeasurements.Height = "170cm"
		b.Color.Hex = "#FFFFFF"
		assert.Equal(t, domain.LineItemKey(a), domain.LineItemKey(b))
	})

	t.Run("custom and standard never collide", func(t *testing.T) {
		std := standardItem(1)
		std.Size = domain.CustomSize
		assert.NotEqual(t, domain.LineItemKey(std), domain.LineItemKey(customItem(1, "34in")))
	})

	t.Run("separator inside a field cannot forge another key", func(t *testing.T) {
		a := standardItem(1)
		a.Size = "M|Emerald"
		a.Color.Name = ""
		b := standardItem(1)
		b.Size = "M"
		b.Color.Name = "|Emerald"
		assert.NotEqual(t, domain.LineItemKey(a), domain.LineItemKey(b))
	})
}

func TestCart_AddItem(t *testing.T) {
	t.Run("merges identical standard items", func(t *testing.T) {
		cart := domain.NewCart()
		require.NoError(t, cart.AddItem(standardItem(2)))
		require.NoError(t, cart.AddItem(standardItem(3)))

		items := cart.Items()
		require.Len(t, items, 1)
		assert.Equal(t, 5, items[0].Quantity)
		assert.Equal(t, 5, cart.ItemCount())
	})

	t.Run("keeps custom items with different measurements apart", func(t *testing.T) {
		cart := domain.NewCart()
		require.NoError(t, cart.AddItem(customItem(1, "34in")))
		require.NoError(t, cart.AddItem(customItem(2, "36in")))

		items := cart.Items()
		require.Len(t, items, 2)
		assert.Equal(t, 1, items[0].Quantity)
		assert.Equal(t, 2, items[1].Quantity)
	})

	t.Run("merges custom items with identical measurements", func(t *testing.T) {
		cart := domain.NewCart()
		require.NoError(t, cart.AddItem(customItem(1, "34in")))
		require.NoError(t, cart.AddItem(customItem(2, "34in")))

		items := cart.Items()
		require.Len(t, items, 1)
		assert.Equal(t, 3, items[0].Quantity)
	})

	t.Run("standard item does not merge into a custom line", func(t *testing.T) {
		cart := domain.NewCart()
		require.NoError(t, cart.AddItem(customItem(1, "34in")))

		plainCustom := standardItem(1)
		plainCustom.Size = domain.CustomSize
		require.NoError(t, cart.AddItem(plainCustom))

		assert.Len(t, cart.Items(), 2)
	})

	t.Run("drops measurements from standard sizes", func(t *testing.T) {
		cart := domain.NewCart()
		item := standardItem(1)
		item.CustomMeasurements = &domain.CustomMeasurements{Bust: "34in"}
		require.NoError(t, cart.AddItem(item))
		require.NoError(t, cart.AddItem(standardItem(1)))

		items := cart.Items()
		require.Len(t, items, 1)
		assert.Nil(t, items[0].CustomMeasurements)
		assert.Equal(t, 2, items[0].Quantity)
	})

	t.Run("defaults image to first product image", func(t *testing.T) {
		cart := domain.NewCart()
		require.NoError(t, cart.AddItem(standardItem(1)))
		assert.Equal(t, "https://cdn.example.com/ankara-1.jpg", cart.Items()[0].ImageURL)
	})

	t.Run("rejects invalid items", func(t *testing.T) {
		cart := domain.NewCart()

		zero := standardItem(0)
		assert.True(t, domain.IsErrorCode(cart.AddItem(zero), domain.ErrCodeInvalidQuantity))

		badHex := standardItem(1)
		badHex.Color.Hex = "green"
		assert.True(t, domain.IsErrorCode(cart.AddItem(badHex), domain.ErrCodeInvalidLineItem))

		partial := customItem(1, "")
		assert.True(t, domain.IsErrorCode(cart.AddItem(partial), domain.ErrCodeInvalidLineItem))

		assert.True(t, cart.IsEmpty())
	})
}

func TestCart_RemoveAndUpdate(t *testing.T) {
	sel := domain.LineSelector{ProductID: "prod-ankara-dress", Size: "M", ColorName: "Emerald"}

	t.Run("update sets quantity exactly", func(t *testing.T) {
		cart := domain.NewCart()
		require.NoError(t, cart.AddItem(standardItem(2)))

		assert.Equal(t, 1, cart.UpdateQuantity(sel, 7))
		assert.Equal(t, 7, cart.ItemCount())
	})

	t.Run("zero or negative quantity removes the line", func(t *testing.T) {
		for _, qty := range []int{0, -3} {
			cart := domain.NewCart()
			require.NoError(t, cart.AddItem(standardItem(2)))

			cart.UpdateQuantity(sel, qty)

			assert.True(t, cart.IsEmpty())
			assert.Equal(t, 0, cart.ItemCount())
			assert.True(t, cart.Subtotal().IsZero())
		}
	})

	t.Run("hex disambiguates colours sharing a name", func(t *testing.T) {
		cart := domain.NewCart()
		light := standardItem(1)
		dark := standardItem(1)
		dark.Color.Hex = "#0B3F2C"
		require.NoError(t, cart.AddItem(light))
		require.NoError(t, cart.AddItem(dark))

		withHex := sel
		withHex.ColorHex = "#0b3f2c"
		assert.Equal(t, 1, cart.RemoveItem(withHex))
		require.Len(t, cart.Items(), 1)
		assert.Equal(t, "#1b7f5c", cart.Items()[0].Color.Hex)

		assert.Equal(t, 1, cart.RemoveItem(sel))
		assert.True(t, cart.IsEmpty())
	})

	t.Run("remove without hex removes every match including custom lines", func(t *testing.T) {
		cart := domain.NewCart()
		require.NoError(t, cart.AddItem(customItem(1, "34in")))
		require.NoError(t, cart.AddItem(customItem(1, "36in")))

		removed := cart.RemoveItem(domain.LineSelector{ProductID: "prod-ankara-dress", Size: domain.CustomSize, ColorName: "Emerald"})
		assert.Equal(t, 2, removed)
		assert.True(t, cart.IsEmpty())
	})

	t.Run("merge still works after a removal", func(t *testing.T) {
		cart := domain.NewCart()
		other := standardItem(1)
		other.Size = "S"
		require.NoError(t, cart.AddItem(other))
		require.NoError(t, cart.AddItem(standardItem(1)))
		cart.RemoveItem(domain.LineSelector{ProductID: "prod-ankara-dress", Size: "S", ColorName: "Emerald"})

		require.NoError(t, cart.AddItem(standardItem(4)))
		require.Len(t, cart.Items(), 1)
		assert.Equal(t, 5, cart.Items()[0].Quantity)
	})
}

func TestCart_Subtotal(t *testing.T) {
	cart := domain.NewCart()
	require.NoError(t, cart.AddItem(standardItem(2)))

	sale := decimal.NewFromInt(80)
	onSale := standardItem(3)
	onSale.Product.ID = "prod-kaftan"
	onSale.Product.SalePrice = &sale
	require.NoError(t, cart.AddItem(onSale))

	assert.True(t, decimal.NewFromInt(440).Equal(cart.Subtotal()), "got %s", cart.Subtotal())
	assert.Equal(t, 5, cart.ItemCount())
}

func TestRestoreCart(t *testing.T) {
	lines := []domain.LineItem{standardItem(1), standardItem(2), standardItem(0)}

	cart := domain.RestoreCart(lines)

	require.Len(t, cart.Items(), 1)
	assert.Equal(t, 3, cart.Items()[0].Quantity)
}

func TestLineItem_Variant(t *testing.T) {
	assert.Equal(t, "M / Emerald", standardItem(1).Variant())

	custom := customItem(1, "34in")
	custom.CustomMeasurements.Height = "170cm"
	assert.Equal(t, "Custom / Emerald (bust 34in, waist 28in, hips 38in, length 52in, height 170cm)", custom.Variant())
}
