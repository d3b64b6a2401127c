// Package sqlite implements sale.Repository.
//
// InsertSale is where the all-or-nothing guarantee lives: header insert,
// line inserts and the guarded stock decrements run inside one SQLite
// transaction. The connection pool is capped at a single connection
// (see sqlitedb.Open), so transactions serialise and two concurrent
// checkouts cannot both take the last unit of stock.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/profitus-pos/internal/sale"
)

type Repository struct {
	db *sql.DB
}

func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// InsertSale commits a sale as one atomic unit. Stock is re-validated
// against the live products table inside the transaction; a shortfall
// aborts everything and reports what is actually available.
func (r *Repository) InsertSale(ctx context.Context, s *sale.Sale) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin checkout: %w", err)
	}
	defer tx.Rollback()

	// Authoritative stock check first: the cart's snapshot may be stale.
	type decrement struct {
		productID int64
		newStock  decimal.Decimal
	}
	decrements := make([]decrement, 0, len(s.Lines))
	for _, l := range s.Lines {
		var stockRaw, name string
		err := tx.QueryRowContext(ctx,
			`SELECT stock, name FROM products WHERE id = ?`, l.ProductID,
		).Scan(&stockRaw, &name)
		if errors.Is(err, sql.ErrNoRows) {
			return &sale.InsufficientStockError{
				ProductID:   l.ProductID,
				ProductName: l.ProductName,
				Requested:   l.Quantity,
				Available:   decimal.Zero,
			}
		}
		if err != nil {
			return fmt.Errorf("sqlite: read stock for product %d: %w", l.ProductID, err)
		}
		stock, err := decimal.NewFromString(stockRaw)
		if err != nil {
			return fmt.Errorf("sqlite: product %d stock %q: %w", l.ProductID, stockRaw, err)
		}
		if stock.LessThan(l.Quantity) {
			return &sale.InsufficientStockError{
				ProductID:   l.ProductID,
				ProductName: name,
				Requested:   l.Quantity,
				Available:   stock,
			}
		}
		decrements = append(decrements, decrement{productID: l.ProductID, newStock: stock.Sub(l.Quantity)})
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO sales
			(receipt, sold_at, total_usd, total_local, exchange_rate, operator_id,
			 payment_method, amount_received_usd, change_given_usd, mobile_reference)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.Receipt,
		formatTime(s.SoldAt),
		s.TotalUSD.String(),
		s.TotalLocal.String(),
		s.ExchangeRate.String(),
		s.OperatorID,
		string(s.Payment),
		s.AmountReceivedUSD.String(),
		s.ChangeGivenUSD.String(),
		nullableString(s.MobileReference),
	)
	if err != nil {
		return fmt.Errorf("sqlite: insert sale header: %w", err)
	}
	saleID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: sale id: %w", err)
	}

	for i := range s.Lines {
		l := &s.Lines[i]
		res, err := tx.ExecContext(ctx, `
			INSERT INTO sale_lines
				(sale_id, product_id, product_name, quantity,
				 unit_price_usd, unit_price_local, subtotal_usd, subtotal_local)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			saleID,
			l.ProductID,
			l.ProductName,
			l.Quantity.String(),
			l.UnitPriceUSD.String(),
			l.UnitPriceLocal.String(),
			l.SubtotalUSD.String(),
			l.SubtotalLocal.String(),
		)
		if err != nil {
			return fmt.Errorf("sqlite: insert sale line for product %d: %w", l.ProductID, err)
		}
		if l.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("sqlite: sale line id: %w", err)
		}
	}

	for _, d := range decrements {
		if _, err := tx.ExecContext(ctx,
			`UPDATE products SET stock = ? WHERE id = ?`,
			d.newStock.String(), d.productID,
		); err != nil {
			return fmt.Errorf("sqlite: decrement stock for product %d: %w", d.productID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit checkout: %w", err)
	}
	s.ID = saleID
	return nil
}

func (r *Repository) GetSale(ctx context.Context, id int64) (*sale.Sale, error) {
	const headerQ = `
		SELECT id, receipt, sold_at, total_usd, total_local, exchange_rate,
		       operator_id, payment_method, amount_received_usd, change_given_usd,
		       COALESCE(mobile_reference, '')
		FROM sales WHERE id = ?`

	var s sale.Sale
	var soldAt, totalUSD, totalLocal, rate, received, change, payment string
	err := r.db.QueryRowContext(ctx, headerQ, id).Scan(
		&s.ID, &s.Receipt, &soldAt, &totalUSD, &totalLocal, &rate,
		&s.OperatorID, &payment, &received, &change, &s.MobileReference,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sale.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get sale %d: %w", id, err)
	}

	s.Payment = sale.PaymentMethod(payment)
	if s.SoldAt, err = parseRFC3339(soldAt); err != nil {
		return nil, err
	}
	if err := scanDecimals(map[*decimal.Decimal]string{
		&s.TotalUSD: totalUSD, &s.TotalLocal: totalLocal, &s.ExchangeRate: rate,
		&s.AmountReceivedUSD: received, &s.ChangeGivenUSD: change,
	}); err != nil {
		return nil, fmt.Errorf("sqlite: sale %d: %w", id, err)
	}

	const linesQ = `
		SELECT id, product_id, product_name, quantity,
		       unit_price_usd, unit_price_local, subtotal_usd, subtotal_local
		FROM sale_lines WHERE sale_id = ? ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, linesQ, id)
	if err != nil {
		return nil, fmt.Errorf("sqlite: sale %d lines: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var l sale.SaleLine
		var qty, unitUSD, unitLocal, subUSD, subLocal string
		if err := rows.Scan(&l.ID, &l.ProductID, &l.ProductName, &qty,
			&unitUSD, &unitLocal, &subUSD, &subLocal); err != nil {
			return nil, fmt.Errorf("sqlite: scan sale line: %w", err)
		}
		if err := scanDecimals(map[*decimal.Decimal]string{
			&l.Quantity: qty, &l.UnitPriceUSD: unitUSD, &l.UnitPriceLocal: unitLocal,
			&l.SubtotalUSD: subUSD, &l.SubtotalLocal: subLocal,
		}); err != nil {
			return nil, fmt.Errorf("sqlite: sale line %d: %w", l.ID, err)
		}
		s.Lines = append(s.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate sale lines: %w", err)
	}
	return &s, nil
}

func (r *Repository) UpdateLine(ctx context.Context, saleID int64, l sale.SaleLine) error {
	const q = `
		UPDATE sale_lines
		SET quantity = ?, subtotal_usd = ?, subtotal_local = ?
		WHERE id = ? AND sale_id = ?`

	res, err := r.db.ExecContext(ctx, q,
		l.Quantity.String(), l.SubtotalUSD.String(), l.SubtotalLocal.String(), l.ID, saleID)
	if err != nil {
		return fmt.Errorf("sqlite: update sale line %d: %w", l.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sale.ErrLineNotFound
	}
	return nil
}

func (r *Repository) DeleteLine(ctx context.Context, saleID, lineID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM sale_lines WHERE id = ? AND sale_id = ?`, lineID, saleID)
	if err != nil {
		return fmt.Errorf("sqlite: delete sale line %d: %w", lineID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sale.ErrLineNotFound
	}
	return nil
}

func (r *Repository) UpdateTotals(ctx context.Context, s *sale.Sale) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sales SET total_usd = ?, total_local = ? WHERE id = ?`,
		s.TotalUSD.String(), s.TotalLocal.String(), s.ID)
	if err != nil {
		return fmt.Errorf("sqlite: update totals for sale %d: %w", s.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sale.ErrNotFound
	}
	return nil
}

func (r *Repository) Query(ctx context.Context, f sale.Filters) ([]sale.Summary, error) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT id, receipt, sold_at, operator_id, payment_method, total_usd, total_local
		FROM sales WHERE 1=1`)
	args := make([]any, 0, 3)

	if f.From != nil {
		sb.WriteString(" AND sold_at >= ?")
		args = append(args, formatTime(*f.From))
	}
	if f.To != nil {
		sb.WriteString(" AND sold_at <= ?")
		args = append(args, formatTime(*f.To))
	}
	if f.OperatorID != nil {
		sb.WriteString(" AND operator_id = ?")
		args = append(args, *f.OperatorID)
	}
	sb.WriteString(" ORDER BY sold_at DESC, id DESC")

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query sales: %w", err)
	}
	defer rows.Close()

	out := make([]sale.Summary, 0)
	for rows.Next() {
		var sm sale.Summary
		var soldAt, payment, totalUSD, totalLocal string
		if err := rows.Scan(&sm.ID, &sm.Receipt, &soldAt, &sm.OperatorID, &payment, &totalUSD, &totalLocal); err != nil {
			return nil, fmt.Errorf("sqlite: scan sale summary: %w", err)
		}
		sm.Payment = sale.PaymentMethod(payment)
		if sm.SoldAt, err = parseRFC3339(soldAt); err != nil {
			return nil, err
		}
		if err := scanDecimals(map[*decimal.Decimal]string{
			&sm.TotalUSD: totalUSD, &sm.TotalLocal: totalLocal,
		}); err != nil {
			return nil, fmt.Errorf("sqlite: sale summary %d: %w", sm.ID, err)
		}
		out = append(out, sm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate sales: %w", err)
	}
	return out, nil
}

// formatTime renders a fixed-width RFC3339 UTC string. The width matters:
// sold_at is compared and sorted as TEXT, and a trimmed fractional part
// ("...00.5Z" vs "...00Z") would break lexicographic time order.
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z")
}

func scanDecimals(fields map[*decimal.Decimal]string) error {
	for dst, raw := range fields {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("decimal %q: %w", raw, err)
		}
		*dst = d
	}
	return nil
}

// nullableString maps "" to NULL so optional TEXT columns stay clean.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
