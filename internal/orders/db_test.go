package orders

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// The production schema lives in goose migrations with Postgres-only
// defaults, so repository tests create the touched tables by hand.
var testSchema = []string{
	`CREATE TABLE orders (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'draft',
		total NUMERIC NOT NULL DEFAULT 0,
		meta TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE order_items (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL,
		product_id TEXT NOT NULL,
		producer_id TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		unit_price NUMERIC NOT NULL,
		created_at DATETIME
	)`,
	`CREATE TABLE slot_bookings (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL,
		slot_id TEXT NOT NULL,
		producer_id TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		unit_price NUMERIC NOT NULL,
		created_at DATETIME
	)`,
	`CREATE TABLE users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		phone TEXT,
		role TEXT NOT NULL DEFAULT 'client',
		is_active BOOLEAN NOT NULL DEFAULT true,
		last_login_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE payment_intents (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL,
		method TEXT NOT NULL,
		amount NUMERIC NOT NULL,
		status TEXT NOT NULL,
		provider_payment_id TEXT,
		failure_reason TEXT,
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
