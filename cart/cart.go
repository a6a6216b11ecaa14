// Package cart holds the in-progress order lines for the current customer.
package cart

import (
	"fmt"
	"strings"

	"charlie-pos/models"
)

// Cart keeps lines in insertion order. No two lines share (ID, Notes) and every quantity is >= 1.
// Index arguments must be valid positions; an out-of-range index panics.
type Cart struct {
	items []models.CartItem
}

func New() *Cart {
	return &Cart{}
}

// Add puts one unit of p in the cart with the trimmed notes, merging into an identical line.
// It returns the index of the affected line.
func (c *Cart) Add(p models.Product, notes string) int {
	notes = strings.TrimSpace(notes)
	for i := range c.items {
		if c.items[i].ID == p.ID && c.items[i].Notes == notes {
			c.items[i].Quantity++
			return i
		}
	}
	c.items = append(c.items, models.CartItem{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		Quantity: 1,
		Notes:    notes,
	})
	return len(c.items) - 1
}

// ChangeQuantity adds delta to the line at index and removes it when the result is <= 0.
func (c *Cart) ChangeQuantity(index, delta int) {
	c.mustIndex(index)
	c.items[index].Quantity += delta
	if c.items[index].Quantity <= 0 {
		c.Remove(index)
	}
}

func (c *Cart) Remove(index int) {
	c.mustIndex(index)
	c.items = append(c.items[:index], c.items[index+1:]...)
}

// Clear empties the cart. Callers confirm with the user first.
func (c *Cart) Clear() {
	c.items = nil
}

func (c *Cart) Total() int64 {
	var total int64
	for _, it := range c.items {
		total += it.LineTotal()
	}
	return total
}

// Items returns a snapshot of the lines.
func (c *Cart) Items() []models.CartItem {
	return append([]models.CartItem(nil), c.items...)
}

func (c *Cart) Item(index int) models.CartItem {
	c.mustIndex(index)
	return c.items[index]
}

func (c *Cart) Len() int { return len(c.items) }

func (c *Cart) IsEmpty() bool { return len(c.items) == 0 }

func (c *Cart) mustIndex(index int) {
	if index < 0 || index >= len(c.items) {
		panic(fmt.Sprintf("cart: index %d out of range [0,%d)", index, len(c.items)))
	}
}
