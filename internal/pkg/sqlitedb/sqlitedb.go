// Package sqlitedb opens the shared SQLite database and owns the base
// schema and the first-run seed data.
//
// WAL mode is enabled on Open so readers never block the writer; the
// report query may run while a checkout transaction is committing.
// We use modernc.org/sqlite instead of mattn/go-sqlite3 to avoid CGO
// requirements.
package sqlitedb

import (
	"database/sql"
	"fmt"

	// Register the pure-Go SQLite driver.
	_ "modernc.org/sqlite"
)

// schema is the DDL executed once on startup. Monetary and quantity
// columns are TEXT holding decimal strings; REAL would reintroduce
// binary-float rounding drift into money math.
const schema = `
CREATE TABLE IF NOT EXISTS products (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    code           TEXT    NOT NULL UNIQUE,
    name           TEXT    NOT NULL,
    stock          TEXT    NOT NULL DEFAULT '0',
    unit_price_usd TEXT    NOT NULL,
    unit_cost_usd  TEXT    NOT NULL,
    min_stock      TEXT    NOT NULL DEFAULT '0',
    category       TEXT,
    supplier       TEXT,
    brand          TEXT
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sales (
    id                  INTEGER PRIMARY KEY AUTOINCREMENT,
    receipt             TEXT    NOT NULL UNIQUE,
    sold_at             TEXT    NOT NULL,
    total_usd           TEXT    NOT NULL,
    total_local         TEXT    NOT NULL,
    exchange_rate       TEXT    NOT NULL,
    operator_id         INTEGER NOT NULL,
    payment_method      TEXT    NOT NULL,
    amount_received_usd TEXT    NOT NULL DEFAULT '0',
    change_given_usd    TEXT    NOT NULL DEFAULT '0',
    mobile_reference    TEXT
);

CREATE TABLE IF NOT EXISTS sale_lines (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    sale_id          INTEGER NOT NULL REFERENCES sales(id),
    product_id       INTEGER NOT NULL REFERENCES products(id),
    product_name     TEXT    NOT NULL,
    quantity         TEXT    NOT NULL,
    unit_price_usd   TEXT    NOT NULL,
    unit_price_local TEXT    NOT NULL,
    subtotal_usd     TEXT    NOT NULL,
    subtotal_local   TEXT    NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sales_sold_at ON sales(sold_at);
CREATE INDEX IF NOT EXISTS idx_sale_lines_sale_id ON sale_lines(sale_id);
`

// Open opens (or creates) the database at path and applies the schema.
//
//	db, err := sqlitedb.Open("./data/pos.db")
func Open(path string) (*sql.DB, error) {
	// The pure-Go driver uses _pragma query parameters to configure connection state.
	// WAL enables concurrent readers. foreign_keys=on enforces integrity.
	// busy_timeout waits for locks instead of failing immediately.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)", path)

	// Use "sqlite", not "sqlite3" for the modernc driver.
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	// SQLite performs best with a single writer connection; capping the
	// pool at one also serialises checkout transactions.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}

	return db, nil
}

// Seed inserts first-run data if the tables are empty: a handful of demo
// products and the default exchange rate. Idempotent.
func Seed(db *sql.DB, defaultRate string) error {
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		return fmt.Errorf("sqlite: count products: %w", err)
	}
	if n == 0 {
		products := []struct {
			code, name, stock, price, cost, minStock, category, supplier, brand string
		}{
			{"P001", `Gaming Laptop 15"`, "10", "850.50", "600.00", "5", "Electronics", "TechGlobal Inc.", "Alienware"},
			{"H001", "Fiberglass Claw Hammer", "45", "8.00", "5.00", "10", "Tools", "FerreMax S.A.", "Truper"},
			{"P002", `Curved Monitor 27"`, "25", "250.00", "180.00", "10", "Electronics", "TechGlobal Inc.", "Samsung"},
			{"P003", "Wireless Mouse", "50", "15.75", "8.50", "20", "Accessories", "AccesoCorp", "Logitech"},
			{"I001", "LED Bulb 10W", "150", "2.50", "1.20", "50", "Lighting", "ElectroWatts", "Philips"},
		}
		for _, p := range products {
			if _, err := db.Exec(`
				INSERT INTO products (code, name, stock, unit_price_usd, unit_cost_usd, min_stock, category, supplier, brand)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				p.code, p.name, p.stock, p.price, p.cost, p.minStock, p.category, p.supplier, p.brand,
			); err != nil {
				return fmt.Errorf("sqlite: seed product %s: %w", p.code, err)
			}
		}
	}

	if _, err := db.Exec(`
		INSERT INTO settings (key, value) VALUES ('exchange_rate', ?)
		ON CONFLICT(key) DO NOTHING`, defaultRate,
	); err != nil {
		return fmt.Errorf("sqlite: seed exchange rate: %w", err)
	}
	return nil
}
