// Package cart holds the in-session shopping cart.
//
// An Engine is owned by exactly one session and is not safe for concurrent
// use; callers serialize access (see storefront.Session).
package cart

import (
	"github.com/joao-fontenele/botica-storefront/internal/domain"
)

type Engine struct {
	lines []domain.CartLine
}

func NewEngine() *Engine {
	return &Engine{}
}

// Add puts one unit of product into the cart. An empty presentation resolves
// to the product's default. The unit price is captured now and never
// refreshed. Stock is not checked.
func (e *Engine) Add(product domain.Product, presentation string) domain.LineKey {
	resolved := presentation
	if resolved == "" {
		resolved = product.DefaultPresentation()
	}
	key := domain.LineKey{ProductID: product.ID, Presentation: resolved}

	if i := e.index(key); i >= 0 {
		if e.lines[i].Quantity < domain.MaxQuantity {
			e.lines[i].Quantity++
		}
		if presentation != "" {
			e.lines[i].Presentation = presentation
		}
		return key
	}

	e.lines = append(e.lines, domain.CartLine{
		Product:      product,
		Quantity:     1,
		Presentation: resolved,
		UnitPrice:    product.Price,
	})
	return key
}

// UpdateQuantity applies delta to a line, flooring at 1 and capping at
// domain.MaxQuantity. It never removes the line and reports false when the
// key is unknown.
func (e *Engine) UpdateQuantity(key domain.LineKey, delta int) bool {
	i := e.index(key)
	if i < 0 {
		return false
	}
	qty := e.lines[i].Quantity
	if delta > domain.MaxQuantity-qty {
		qty = domain.MaxQuantity
	} else {
		qty = max(1, qty+delta)
	}
	e.lines[i].Quantity = qty
	return true
}

// Remove deletes a line. Removing an unknown key is a no-op.
func (e *Engine) Remove(key domain.LineKey) {
	i := e.index(key)
	if i < 0 {
		return
	}
	e.lines = append(e.lines[:i], e.lines[i+1:]...)
}

// Total is recomputed from the lines on every call.
func (e *Engine) Total() domain.Money {
	var total domain.Money
	for _, l := range e.lines {
		total = total.Plus(l.Subtotal())
	}
	return total
}

// Count is the number of units across all lines.
func (e *Engine) Count() int {
	n := 0
	for _, l := range e.lines {
		n += l.Quantity
	}
	return n
}

func (e *Engine) Len() int {
	return len(e.lines)
}

func (e *Engine) Clear() {
	e.lines = nil
}

// Lines returns a copy of the lines in insertion order.
func (e *Engine) Lines() []domain.CartLine {
	out := make([]domain.CartLine, len(e.lines))
	copy(out, e.lines)
	return out
}

func (e *Engine) Line(key domain.LineKey) (domain.CartLine, bool) {
	i := e.index(key)
	if i < 0 {
		return domain.CartLine{}, false
	}
	return e.lines[i], true
}

func (e *Engine) index(key domain.LineKey) int {
	for i, l := range e.lines {
		if l.Key() == key {
			return i
		}
	}
	return -1
}
