// Package catalog holds the product catalog: the entity, the read port the
// sale core consumes, and helpers. Stock stored here is the committed
// stock; quantities merely reserved in an open cart never touch it.
package catalog

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when no product matches the given id or code.
var ErrNotFound = errors.New("product not found")

// Product is a catalog row. Prices are USD; Stock and MinStock may be
// fractional for weight or length based goods.
type Product struct {
	ID           int64           `json:"id"`
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	Stock        decimal.Decimal `json:"stock"`
	UnitPriceUSD decimal.Decimal `json:"unit_price_usd"`
	UnitCostUSD  decimal.Decimal `json:"unit_cost_usd"`
	MinStock     decimal.Decimal `json:"min_stock"`
	Category     string          `json:"category,omitempty"`
	Supplier     string          `json:"supplier,omitempty"`
	Brand        string          `json:"brand,omitempty"`
}

// LowStock reports whether committed stock has fallen to or below the
// alert threshold.
func (p Product) LowStock() bool {
	return p.Stock.LessThanOrEqual(p.MinStock)
}
