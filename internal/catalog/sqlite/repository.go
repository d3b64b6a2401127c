// Package sqlite implements catalog.Admin over the products table.
//
// Monetary columns and stock are stored as TEXT holding decimal strings,
// not REAL: SQLite floats would reintroduce exactly the binary rounding
// drift the core exists to avoid.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/profitus-pos/internal/catalog"
)

const selectCols = `id, code, name, stock, unit_price_usd, unit_cost_usd, min_stock,
       COALESCE(category,''), COALESCE(supplier,''), COALESCE(brand,'')`

type Repository struct {
	db *sql.DB
}

func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) FindByID(ctx context.Context, id int64) (catalog.Product, error) {
	q := `SELECT ` + selectCols + ` FROM products WHERE id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, q, id), fmt.Sprintf("id %d", id))
}

func (r *Repository) FindByCode(ctx context.Context, code string) (catalog.Product, error) {
	q := `SELECT ` + selectCols + ` FROM products WHERE code = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, q, code), fmt.Sprintf("code %q", code))
}

func (r *Repository) Search(ctx context.Context, term string) ([]catalog.Product, error) {
	q := `SELECT ` + selectCols + `
	      FROM products
	      WHERE code LIKE ? OR name LIKE ?
	      ORDER BY name COLLATE NOCASE ASC`
	pattern := "%" + term + "%"

	rows, err := r.db.QueryContext(ctx, q, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("sqlite: search products %q: %w", term, err)
	}
	defer rows.Close()
	return scanAll(rows)
}

func (r *Repository) ListLowStock(ctx context.Context) ([]catalog.Product, error) {
	// The TEXT columns hold plain decimal strings, so the comparison is
	// done in Go rather than trusting SQLite's affinity rules.
	all, err := r.Search(ctx, "")
	if err != nil {
		return nil, err
	}
	low := make([]catalog.Product, 0)
	for _, p := range all {
		if p.LowStock() {
			low = append(low, p)
		}
	}
	return low, nil
}

func (r *Repository) Create(ctx context.Context, p catalog.Product) (int64, error) {
	const q = `
		INSERT INTO products (code, name, stock, unit_price_usd, unit_cost_usd, min_stock, category, supplier, brand)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := r.db.ExecContext(ctx, q,
		p.Code, p.Name, p.Stock.String(), p.UnitPriceUSD.String(), p.UnitCostUSD.String(),
		p.MinStock.String(), p.Category, p.Supplier, p.Brand,
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: create product %q: %w", p.Code, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("sqlite: create product %q: %w", p.Code, err)
	}
	return id, nil
}

func (r *Repository) Update(ctx context.Context, p catalog.Product) error {
	const q = `
		UPDATE products SET
			code = ?, name = ?, stock = ?,
			unit_price_usd = ?, unit_cost_usd = ?, min_stock = ?,
			category = ?, supplier = ?, brand = ?
		WHERE id = ?`

	res, err := r.db.ExecContext(ctx, q,
		p.Code, p.Name, p.Stock.String(), p.UnitPriceUSD.String(), p.UnitCostUSD.String(),
		p.MinStock.String(), p.Category, p.Supplier, p.Brand, p.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: update product %d: %w", p.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: delete product %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

func (r *Repository) scanOne(row *sql.Row, what string) (catalog.Product, error) {
	p, err := scanProduct(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Product{}, catalog.ErrNotFound
	}
	if err != nil {
		return catalog.Product{}, fmt.Errorf("sqlite: product by %s: %w", what, err)
	}
	return p, nil
}

func scanAll(rows *sql.Rows) ([]catalog.Product, error) {
	out := make([]catalog.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan product: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate products: %w", err)
	}
	return out, nil
}

func scanProduct(scan func(dest ...any) error) (catalog.Product, error) {
	var p catalog.Product
	var stock, price, cost, minStock string
	err := scan(&p.ID, &p.Code, &p.Name, &stock, &price, &cost, &minStock,
		&p.Category, &p.Supplier, &p.Brand)
	if err != nil {
		return catalog.Product{}, err
	}
	if p.Stock, err = decimal.NewFromString(stock); err != nil {
		return catalog.Product{}, fmt.Errorf("stock %q: %w", stock, err)
	}
	if p.UnitPriceUSD, err = decimal.NewFromString(price); err != nil {
		return catalog.Product{}, fmt.Errorf("unit_price_usd %q: %w", price, err)
	}
	if p.UnitCostUSD, err = decimal.NewFromString(cost); err != nil {
		return catalog.Product{}, fmt.Errorf("unit_cost_usd %q: %w", cost, err)
	}
	if p.MinStock, err = decimal.NewFromString(minStock); err != nil {
		return catalog.Product{}, fmt.Errorf("min_stock %q: %w", minStock, err)
	}
	return p, nil
}
