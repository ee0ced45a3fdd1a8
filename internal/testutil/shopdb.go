package testutil

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite" // sqlite driver
)

// ShopOrders is the number of rows in the orders table of NewShopDB.
const ShopOrders = 30

// NewShopDB creates a SQLite file with customers, orders and an empty
// audit_log table, and returns its path. Order i (1-based) has total i*10
// and belongs to customer (i%3)+1.
func NewShopDB(t testing.TB) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shop.db")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open shop db: %v", err)
	}
	defer func() { _ = db.Close() }()

	stmts := []string{
		`CREATE TABLE customers (id INTEGER PRIMARY KEY, name TEXT NOT NULL, vip BOOLEAN NOT NULL DEFAULT 0)`,
		`CREATE TABLE orders (id INTEGER PRIMARY KEY, customer_id INTEGER NOT NULL, total REAL NOT NULL, note TEXT)`,
		`CREATE TABLE audit_log (id INTEGER PRIMARY KEY, message TEXT)`,
		`INSERT INTO customers (id, name, vip) VALUES (1, 'Ada', 1), (2, 'Grace', 0), (3, 'Linus', 0)`,
	}
	for i := 1; i <= ShopOrders; i++ {
		stmts = append(stmts, fmt.Sprintf(
			`INSERT INTO orders (id, customer_id, total, note) VALUES (%d, %d, %d, NULL)`, i, (i%3)+1, i*10))
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("seed shop db: %v", err)
		}
	}
	return path
}
