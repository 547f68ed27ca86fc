// Package cart accumulates selected products for one storefront session
// and formats the order handoff message.
package cart

import (
	"github.com/c360studio/tienditas/store"
)

// Item is one cart line: a product with its selected quantity.
type Item struct {
	Product  store.Product `json:"product"`
	Quantity int           `json:"quantity"`
}

// Cart holds one session's selection. Insertion order is preserved; a cart
// lives only as long as its storefront session.
type Cart struct {
	items []Item
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// AddItem adds one unit of p: an existing line's quantity is incremented,
// otherwise a new line is appended.
func (c *Cart) AddItem(p store.Product) {
	for i := range c.items {
		if c.items[i].Product.ID == p.ID {
			c.items[i].Quantity++
			return
		}
	}
	c.items = append(c.items, Item{Product: p, Quantity: 1})
}

// UpdateQuantity sets the quantity for productID exactly. A quantity below
// one removes the line; an unknown id is a no-op and never creates a line.
func (c *Cart) UpdateQuantity(productID int64, quantity int) {
	if quantity < 1 {
		c.RemoveItem(productID)
		return
	}
	for i := range c.items {
		if c.items[i].Product.ID == productID {
			c.items[i].Quantity = quantity
			return
		}
	}
}

// RemoveItem drops the line for productID; absent ids are a no-op.
func (c *Cart) RemoveItem(productID int64) {
	for i := range c.items {
		if c.items[i].Product.ID == productID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.items = nil
}

// Items returns a copy of the cart lines in insertion order.
func (c *Cart) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Count returns the total unit count across all lines (the cart badge).
func (c *Cart) Count() int {
	total := 0
	for _, item := range c.items {
		total += item.Quantity
	}
	return total
}

// Total sums price times quantity over all lines. The sum accumulates
// unrounded; rounding to two decimals happens at formatting time only, so
// rounding error never compounds.
func (c *Cart) Total() float64 {
	total := 0.0
	for _, item := range c.items {
		total += item.Product.Price * float64(item.Quantity)
	}
	return total
}
