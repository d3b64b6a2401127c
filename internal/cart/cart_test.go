package cart

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/profitus-pos/internal/catalog"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func product(id int64, code, name, price, stock string) catalog.Product {
	return catalog.Product{
		ID:           id,
		Code:         code,
		Name:         name,
		UnitPriceUSD: dec(price),
		Stock:        dec(stock),
	}
}

func TestAddCreatesAndIncrements(t *testing.T) {
	c := New()
	p := product(1, "P001", "Laptop", "850.50", "10")

	l, err := c.Add(p)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !l.Quantity.Equal(dec("1")) {
		t.Fatalf("expected qty 1, got %s", l.Quantity)
	}

	l, err = c.Add(p)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if !l.Quantity.Equal(dec("2")) {
		t.Fatalf("expected qty 2, got %s", l.Quantity)
	}
	if c.Len() != 1 {
		t.Fatalf("expected 1 line, got %d", c.Len())
	}
}

func TestAddRespectsStock(t *testing.T) {
	c := New()
	p := product(1, "P001", "Laptop", "850.50", "2")

	for i := 0; i < 2; i++ {
		if _, err := c.Add(p); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}
	if _, err := c.Add(p); !errors.Is(err, ErrOutOfStock) {
		t.Fatalf("expected ErrOutOfStock, got %v", err)
	}
}

func TestAddZeroStock(t *testing.T) {
	c := New()
	if _, err := c.Add(product(1, "P001", "Laptop", "10", "0")); !errors.Is(err, ErrOutOfStock) {
		t.Fatalf("expected ErrOutOfStock, got %v", err)
	}
}

func TestStockCeilingInvariant(t *testing.T) {
	// No sequence of add/set operations may push a line past its snapshot.
	c := New()
	p := product(1, "P001", "Laptop", "10.00", "5")
	ops := []func() error{
		func() error { _, err := c.Add(p); return err },
		func() error { return c.SetQuantity(1, dec("5")) },
		func() error { return c.SetQuantity(1, dec("6")) },
		func() error { _, err := c.Add(p); return err },
		func() error { return c.AdjustQuantity(1, dec("3")) },
		func() error { return c.SetQuantity(1, dec("2")) },
		func() error { return c.AdjustQuantity(1, dec("2")) },
	}
	for i, op := range ops {
		_ = op()
		for _, l := range c.Lines() {
			if l.Quantity.GreaterThan(l.StockSnapshot) {
				t.Fatalf("after op %d: quantity %s exceeds snapshot %s", i, l.Quantity, l.StockSnapshot)
			}
			if l.Quantity.Sign() <= 0 {
				t.Fatalf("after op %d: non-positive quantity %s", i, l.Quantity)
			}
		}
	}
}

func TestSetQuantityErrors(t *testing.T) {
	c := New()
	p := product(1, "P001", "Laptop", "10.00", "5")
	if _, err := c.Add(p); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := c.SetQuantity(1, dec("0")); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
	if err := c.SetQuantity(1, dec("-2")); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
	if err := c.SetQuantity(1, dec("6")); !errors.Is(err, ErrOutOfStock) {
		t.Fatalf("expected ErrOutOfStock, got %v", err)
	}
	if err := c.SetQuantity(99, dec("1")); !errors.Is(err, ErrLineNotFound) {
		t.Fatalf("expected ErrLineNotFound, got %v", err)
	}

	// Fractional quantities are fine for weight-based goods.
	if err := c.SetQuantity(1, dec("2.5")); err != nil {
		t.Fatalf("fractional set: %v", err)
	}
}

func TestAdjustQuantityRemovesAtZero(t *testing.T) {
	c := New()
	p := product(1, "P001", "Laptop", "10.00", "5")
	if _, err := c.Add(p); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := c.AdjustQuantity(1, dec("-1")); err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if c.Len() != 0 {
		t.Fatalf("expected empty cart, got %d lines", c.Len())
	}
	// Adjusting an absent line is a no-op.
	if err := c.AdjustQuantity(1, dec("1")); err != nil {
		t.Fatalf("adjust absent: %v", err)
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	c := New()
	p := product(1, "P001", "Laptop", "10.00", "5")
	if _, err := c.Add(p); err != nil {
		t.Fatalf("add: %v", err)
	}

	c.Remove(1)
	after := c.Lines()
	c.Remove(1)
	if c.Len() != len(after) || c.Len() != 0 {
		t.Fatalf("double remove changed state: %d lines", c.Len())
	}
}

func TestAvailableStock(t *testing.T) {
	c := New()
	p := product(1, "P001", "Laptop", "10.00", "5")
	if got := c.AvailableStock(p); !got.Equal(dec("5")) {
		t.Fatalf("expected 5, got %s", got)
	}
	_, _ = c.Add(p)
	_, _ = c.Add(p)
	if got := c.AvailableStock(p); !got.Equal(dec("3")) {
		t.Fatalf("expected 3, got %s", got)
	}
}

func TestTotalsScenario(t *testing.T) {
	// Product A (10.00, stock 5) x2 and Product B (2.50, stock 100) x4 at
	// rate 36.00 must total 30.00 USD / 1080.00 Bs.
	c := New()
	a := product(1, "A", "Product A", "10.00", "5")
	b := product(2, "B", "Product B", "2.50", "100")
	if _, err := c.Add(a); err != nil {
		t.Fatalf("add a: %v", err)
	}
	if err := c.SetQuantity(1, dec("2")); err != nil {
		t.Fatalf("set a: %v", err)
	}
	if _, err := c.Add(b); err != nil {
		t.Fatalf("add b: %v", err)
	}
	if err := c.SetQuantity(2, dec("4")); err != nil {
		t.Fatalf("set b: %v", err)
	}

	usd, local := c.Totals(dec("36.00"))
	if !usd.Equal(dec("30.00")) {
		t.Fatalf("expected 30.00 USD, got %s", usd)
	}
	if !local.Equal(dec("1080.00")) {
		t.Fatalf("expected 1080.00 Bs, got %s", local)
	}
}

func TestLinesPreserveInsertionOrder(t *testing.T) {
	c := New()
	for i, code := range []string{"C", "A", "B"} {
		if _, err := c.Add(product(int64(i+1), code, "Product "+code, "1.00", "10")); err != nil {
			t.Fatalf("add %s: %v", code, err)
		}
	}
	lines := c.Lines()
	want := []string{"Product C", "Product A", "Product B"}
	for i, l := range lines {
		if l.Name != want[i] {
			t.Fatalf("position %d: expected %q, got %q", i, want[i], l.Name)
		}
	}
}

func TestClear(t *testing.T) {
	c := New()
	_, _ = c.Add(product(1, "P001", "Laptop", "10.00", "5"))
	c.Clear()
	if c.Len() != 0 || len(c.Lines()) != 0 {
		t.Fatal("expected cleared cart")
	}
	if !c.TotalUSD().Equal(decimal.Zero) {
		t.Fatalf("expected zero total, got %s", c.TotalUSD())
	}
}
