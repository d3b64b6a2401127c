// Package cart models one operator's in-progress sale: the mutable set of
// (product, quantity) lines built up before checkout. Nothing here is
// persisted: the cart only reserves stock in the operator's head, and the
// checkout transaction is what makes it real.
//
// Every mutator enforces the stock-ceiling invariant
// 0 < quantity <= stock snapshot, so no call-site check is needed.
package cart

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/profitus-pos/internal/catalog"
	"github.com/jcmexdev/profitus-pos/internal/money"
)

var (
	// ErrOutOfStock means the requested quantity exceeds what the catalog
	// showed as available when the line was created.
	ErrOutOfStock = errors.New("insufficient stock available")

	// ErrInvalidQuantity means a non-positive quantity was supplied where
	// a removal was intended.
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")

	// ErrLineNotFound means the product has no line in this cart.
	ErrLineNotFound = errors.New("product not in cart")
)

// Line is one product inside the cart. Name, price and stock are
// snapshotted when the line is created: the USD price stays frozen for the
// life of the line (only its Bs display value follows the rate), and the
// stock snapshot is the ceiling for quantity increases.
type Line struct {
	ProductID     int64
	Name          string
	UnitPriceUSD  decimal.Decimal
	Quantity      decimal.Decimal
	StockSnapshot decimal.Decimal
}

// SubtotalUSD is the line's frozen-price subtotal, rounded to the cent.
func (l Line) SubtotalUSD() decimal.Decimal {
	return money.RoundAmount(l.Quantity.Mul(l.UnitPriceUSD))
}

// Cart is a single operator session's line set. It is not safe for
// concurrent use; each session owns exactly one Cart and the HTTP layer
// serialises access per session.
type Cart struct {
	lines map[int64]*Line
	order []int64 // insertion order, for display
}

func New() *Cart {
	return &Cart{lines: make(map[int64]*Line)}
}

var one = decimal.NewFromInt(1)

// Add puts one unit of the product into the cart, creating a line with
// quantity 1 or incrementing an existing line. p must carry the current
// committed stock; if less than one whole unit remains once the quantity
// already in the cart is accounted for, Add fails with ErrOutOfStock.
func (c *Cart) Add(p catalog.Product) (Line, error) {
	inCart := decimal.Zero
	if l, ok := c.lines[p.ID]; ok {
		inCart = l.Quantity
	}
	if p.Stock.Sub(inCart).LessThan(one) {
		return Line{}, ErrOutOfStock
	}

	l, ok := c.lines[p.ID]
	if !ok {
		l = &Line{
			ProductID:     p.ID,
			Name:          p.Name,
			UnitPriceUSD:  p.UnitPriceUSD,
			Quantity:      one,
			StockSnapshot: p.Stock,
		}
		c.lines[p.ID] = l
		c.order = append(c.order, p.ID)
		return *l, nil
	}

	l.Quantity = l.Quantity.Add(one)
	// The caller just read fresh committed stock; refresh the ceiling so
	// it tracks reality rather than the moment the line was first added.
	l.StockSnapshot = p.Stock
	return *l, nil
}

// SetQuantity replaces a line's quantity. Non-positive quantities are
// rejected (use Remove instead); quantities above the stock snapshot fail
// with ErrOutOfStock and leave the line unchanged.
func (c *Cart) SetQuantity(productID int64, qty decimal.Decimal) error {
	l, ok := c.lines[productID]
	if !ok {
		return ErrLineNotFound
	}
	if qty.Sign() <= 0 {
		return ErrInvalidQuantity
	}
	if qty.GreaterThan(l.StockSnapshot) {
		return ErrOutOfStock
	}
	l.Quantity = qty
	return nil
}

// AdjustQuantity changes a line's quantity by delta. A resulting quantity
// of zero or less removes the line. Adjusting an absent line is a no-op.
func (c *Cart) AdjustQuantity(productID int64, delta decimal.Decimal) error {
	l, ok := c.lines[productID]
	if !ok {
		return nil
	}
	next := l.Quantity.Add(delta)
	if next.Sign() <= 0 {
		c.Remove(productID)
		return nil
	}
	return c.SetQuantity(productID, next)
}

// Remove deletes the line for productID. Idempotent: removing an absent
// line is not an error.
func (c *Cart) Remove(productID int64) {
	if _, ok := c.lines[productID]; !ok {
		return
	}
	delete(c.lines, productID)
	for i, id := range c.order {
		if id == productID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// AvailableStock is committed stock minus the quantity this cart already
// holds, i.e. what the search screen shows as "how many more can I add".
func (c *Cart) AvailableStock(p catalog.Product) decimal.Decimal {
	if l, ok := c.lines[p.ID]; ok {
		return p.Stock.Sub(l.Quantity)
	}
	return p.Stock
}

// TotalUSD sums the per-line subtotals at their frozen USD prices.
func (c *Cart) TotalUSD() decimal.Decimal {
	total := decimal.Zero
	for _, id := range c.order {
		total = total.Add(c.lines[id].SubtotalUSD())
	}
	return total
}

// Totals returns the cart total in USD and, converted at the rate
// currently in effect, in local currency.
func (c *Cart) Totals(rate decimal.Decimal) (totalUSD, totalLocal decimal.Decimal) {
	totalUSD = c.TotalUSD()
	return totalUSD, money.ToLocal(totalUSD, rate)
}

// Lines returns copies of the cart lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.lines[id])
	}
	return out
}

// Len is the number of distinct product lines.
func (c *Cart) Len() int {
	return len(c.lines)
}

// Clear empties the cart. Called after a successful checkout or an
// explicit operator cancellation.
func (c *Cart) Clear() {
	c.lines = make(map[int64]*Line)
	c.order = nil
}
