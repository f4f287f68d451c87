// Package cart implements the in-memory sale being rung up at one terminal.
// A Cart lives for exactly one checkout session and is reset after a
// successful commit, a logout, or a manual clear.
package cart

import (
	"errors"

	"tokopos/internal/domain"
	"tokopos/internal/money"
)

var (
	ErrOutOfStock    = errors.New("item out of stock")
	ErrStockExceeded = errors.New("stock ceiling exceeded")
	ErrLineNotFound  = errors.New("cart line not found")
	ErrInactiveItem  = errors.New("item not active")
)

// Line is one cart row. Name, UnitPrice, and Stock are a denormalized
// snapshot taken when the item was first added; Stock is the ceiling no
// quantity edit may pass.
type Line struct {
	ItemID    string
	Name      string
	UnitPrice int64
	Stock     int
	Qty       int
	Subtotal  int64
}

type Cart struct {
	lines []Line
}

func New() *Cart {
	return &Cart{lines: make([]Line, 0, 8)}
}

// AddItem puts one unit of the menu item into the cart. If the item is
// already present its quantity is incremented, subject to the stock ceiling
// captured at first add. A rejected add leaves the cart unchanged.
func (c *Cart) AddItem(item domain.MenuItem) error {
	if !item.Active {
		return ErrInactiveItem
	}

	for i := range c.lines {
		if c.lines[i].ItemID != item.ID {
			continue
		}
		if c.lines[i].Qty+1 > c.lines[i].Stock {
			return ErrStockExceeded
		}
		c.lines[i].Qty++
		c.lines[i].Subtotal = money.Subtotal(c.lines[i].Qty, c.lines[i].UnitPrice)
		return nil
	}

	if item.Stock < 1 {
		return ErrOutOfStock
	}
	c.lines = append(c.lines, Line{
		ItemID:    item.ID,
		Name:      item.Name,
		UnitPrice: item.Price,
		Stock:     item.Stock,
		Qty:       1,
		Subtotal:  item.Price,
	})
	return nil
}

// SetQuantity replaces the quantity of the line at index. Negative input is
// clamped to zero; zero removes the line. Quantities above the stock
// ceiling are rejected, never silently kept.
func (c *Cart) SetQuantity(index int, qty int) error {
	if index < 0 || index >= len(c.lines) {
		return ErrLineNotFound
	}
	if qty < 0 {
		qty = 0
	}
	if qty > c.lines[index].Stock {
		return ErrStockExceeded
	}
	if qty == 0 {
		return c.RemoveLine(index)
	}

	c.lines[index].Qty = qty
	c.lines[index].Subtotal = money.Subtotal(qty, c.lines[index].UnitPrice)
	return nil
}

func (c *Cart) RemoveLine(index int) error {
	if index < 0 || index >= len(c.lines) {
		return ErrLineNotFound
	}
	c.lines = append(c.lines[:index], c.lines[index+1:]...)
	return nil
}

// Total is recomputed from the lines on every call to avoid drift against
// a cached value.
func (c *Cart) Total() int64 {
	var total int64
	for _, line := range c.lines {
		total += money.Subtotal(line.Qty, line.UnitPrice)
	}
	return total
}

func (c *Cart) Len() int {
	return len(c.lines)
}

func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Lines returns a copy of the cart rows.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// CommitLines converts the cart into the wire payload for the transaction
// service.
func (c *Cart) CommitLines() []domain.CommitLine {
	out := make([]domain.CommitLine, 0, len(c.lines))
	for _, line := range c.lines {
		out = append(out, domain.CommitLine{ItemID: line.ItemID, Quantity: line.Qty})
	}
	return out
}

func (c *Cart) Reset() {
	c.lines = c.lines[:0]
}
