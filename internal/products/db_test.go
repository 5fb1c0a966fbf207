package products

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// The production schema lives in goose migrations and uses Postgres-only
// defaults, so repository tests create the touched tables by hand.
var testSchema = []string{
	`CREATE TABLE products (
		id TEXT PRIMARY KEY,
		producer_id TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT,
		unit TEXT NOT NULL DEFAULT 'piece',
		price NUMERIC NOT NULL DEFAULT 0,
		stock INTEGER NOT NULL DEFAULT 0,
		available BOOLEAN NOT NULL DEFAULT true,
		accept_deferred BOOLEAN NOT NULL DEFAULT false,
		min_order_qty INTEGER NOT NULL DEFAULT 1,
		alert_threshold INTEGER,
		alert_threshold_pct INTEGER,
		max_stock_qty INTEGER,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE production_schedule_entries (
		id TEXT PRIMARY KEY,
		product_id TEXT NOT NULL,
		date DATETIME NOT NULL,
		planned_qty INTEGER NOT NULL,
		produced_qty INTEGER,
		public BOOLEAN NOT NULL DEFAULT false,
		note TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE delivery_slots (
		id TEXT PRIMARY KEY,
		producer_id TEXT NOT NULL,
		product_id TEXT,
		starts_at DATETIME NOT NULL,
		ends_at DATETIME NOT NULL,
		capacity INTEGER NOT NULL,
		booked INTEGER NOT NULL DEFAULT 0,
		price NUMERIC,
		location TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	for _, ddl := range testSchema {
		if err := conn.Exec(ddl).Error; err != nil {
			t.Fatalf("create test schema: %v", err)
		}
	}
	return conn
}
