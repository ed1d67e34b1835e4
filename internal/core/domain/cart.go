package domain

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// CustomSize marks a made-to-measure line.
const CustomSize = "Custom"

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Product is the catalog snapshot captured when a line is added.
// Prices are in the base currency.
type Product struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Slug          string           `json:"slug"`
	Price         decimal.Decimal  `json:"price"`
	SalePrice     *decimal.Decimal `json:"sale_price,omitempty"`
	StockQuantity int              `json:"stock_quantity"`
	Images        []string         `json:"images,omitempty"`
}

// UnitPrice is the sale price when present, otherwise the regular price.
func (p Product) UnitPrice() decimal.Decimal {
	if p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.Price
}

type ColorSelection struct {
	Name string `json:"name"`
	Hex  string `json:"hex"`
}

// CustomMeasurements are free-form values such as "34in"; they are not parsed.
type CustomMeasurements struct {
	Bust   string `json:"bust"`
	Waist  string `json:"waist"`
	Hips   string `json:"hips"`
	Length string `json:"length"`
	Height string `json:"height,omitempty"`
}

func (m CustomMeasurements) complete() bool {
	return m.Bust != "" && m.Waist != "" && m.Hips != "" && m.Length != ""
}

type LineItem struct {
	Product            Product             `json:"product"`
	ImageURL           string              `json:"image_url"`
	Quantity           int                 `json:"quantity"`
	Size               string              `json:"size"`
	Color              ColorSelection      `json:"color"`
	CustomMeasurements *CustomMeasurements `json:"custom_measurements,omitempty"`
}

// IsCustom reports whether the line is a bespoke configuration.
func (l LineItem) IsCustom() bool {
	return l.Size == CustomSize && l.CustomMeasurements != nil
}

func (l LineItem) LineTotal() decimal.Decimal {
	return l.Product.UnitPrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Variant renders size and colour for order snapshots, e.g. "M / Black".
func (l LineItem) Variant() string {
	v := fmt.Sprintf("%s / %s", l.Size, l.Color.Name)
	if l.IsCustom() {
		m := l.CustomMeasurements
		v += fmt.Sprintf(" (bust %s, waist %s, hips %s, length %s", m.Bust, m.Waist, m.Hips, m.Length)
		if m.Height != "" {
			v += ", height " + m.Height
		}
		v += ")"
	}
	return v
}

// Validate checks the item before it enters a cart.
func (l LineItem) Validate() error {
	if l.Quantity < 1 {
		return NewInvalidQuantityError(l.Quantity)
	}
	if l.Product.ID == "" {
		return NewInvalidLineItemError("product id is required")
	}
	if l.Size == "" {
		return NewInvalidLineItemError("size is required")
	}
	if l.Color.Name == "" {
		return NewInvalidLineItemError("color name is required")
	}
	if !hexColor.MatchString(l.Color.Hex) {
		return NewInvalidLineItemError(fmt.Sprintf("color hex %q must look like #RRGGBB", l.Color.Hex))
	}
	if l.Size == CustomSize && l.CustomMeasurements != nil && !l.CustomMeasurements.complete() {
		return NewInvalidLineItemError("custom size needs bust, waist, hips and length")
	}
	return nil
}

// normalize puts an item into canonical form. Measurements only make sense
// on a Custom size and hex colours compare case-insensitively.
func (l LineItem) normalize() LineItem {
	l.Color.Hex = strings.ToLower(l.Color.Hex)
	if l.Size != CustomSize {
		l.CustomMeasurements = nil
	}
	if l.ImageURL == "" && len(l.Product.Images) > 0 {
		l.ImageURL = l.Product.Images[0]
	}
	return l
}

var keyEscaper = strings.NewReplacer(`\`, `\\`, `|`, `\|`)

// LineItemKey returns the merge identity of an item. Two items with the same
// key are the same line and their quantities add up.
//
// Custom items are keyed on product, colour name and the four required
// measurements. Standard items are keyed on product, size and colour.
func LineItemKey(item LineItem) string {
	item = item.normalize()

	var parts []string
	if item.IsCustom() {
		m := item.CustomMeasurements
		parts = []string{"custom", item.Product.ID, CustomSize, item.Color.Name, m.Bust, m.Waist, m.Hips, m.Length}
	} else {
		parts = []string{"std", item.Product.ID, item.Size, item.Color.Name, item.Color.Hex}
	}
	for i, p := range parts {
		parts[i] = keyEscaper.Replace(p)
	}
	return strings.Join(parts, "|")
}

// LineSelector addresses lines for removal and quantity updates.
// An empty ColorHex matches any hex.
type LineSelector struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
	ColorName string `json:"color_name"`
	ColorHex  string `json:"color_hex,omitempty"`
}

func (s LineSelector) matches(l LineItem) bool {
	if l.Product.ID != s.ProductID || l.Size != s.Size || l.Color.Name != s.ColorName {
		return false
	}
	return s.ColorHex == "" || strings.EqualFold(l.Color.Hex, s.ColorHex)
}

// Cart is an ordered collection of line items. Totals are always derived.
type Cart struct {
	lines []LineItem
	index map[string]int
}

func NewCart() *Cart {
	return &Cart{index: make(map[string]int)}
}

// RestoreCart rebuilds a cart from persisted lines. Lines are re-merged so a
// hand-edited payload cannot break the one-line-per-key rule; unusable lines are dropped.
func RestoreCart(lines []LineItem) *Cart {
	c := NewCart()
	for _, l := range lines {
		_ = c.AddItem(l)
	}
	return c
}

// AddItem merges item into an existing line with the same key or appends it.
func (c *Cart) AddItem(item LineItem) error {
	if err := item.Validate(); err != nil {
		return err
	}
	item = item.normalize()
	key := LineItemKey(item)

	if i, ok := c.index[key]; ok {
		c.lines[i].Quantity += item.Quantity
		return nil
	}
	c.index[key] = len(c.lines)
	c.lines = append(c.lines, item)
	return nil
}

// RemoveItem drops every line matching sel and returns how many were removed.
func (c *Cart) RemoveItem(sel LineSelector) int {
	kept := c.lines[:0]
	removed := 0
	for _, l := range c.lines {
		if sel.matches(l) {
			removed++
			continue
		}
		kept = append(kept, l)
	}
	c.lines = kept
	c.reindex()
	return removed
}

// UpdateQuantity sets the quantity of matching lines. A quantity of zero or
// less removes them.
func (c *Cart) UpdateQuantity(sel LineSelector, quantity int) int {
	if quantity <= 0 {
		return c.RemoveItem(sel)
	}
	updated := 0
	for i := range c.lines {
		if sel.matches(c.lines[i]) {
			c.lines[i].Quantity = quantity
			updated++
		}
	}
	return updated
}

func (c *Cart) Clear() {
	c.lines = nil
	c.index = make(map[string]int)
}

// Items returns a copy of the lines in insertion order.
func (c *Cart) Items() []LineItem {
	out := make([]LineItem, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// Subtotal is in the base currency.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.LineTotal())
	}
	return total
}

func (c *Cart) reindex() {
	c.index = make(map[string]int, len(c.lines))
	for i, l := range c.lines {
		c.index[LineItemKey(l)] = i
	}
}
