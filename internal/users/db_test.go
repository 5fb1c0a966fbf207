package users

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// The production schema lives in goose migrations with Postgres-only
// defaults, so repository tests create the touched tables by hand.
var testSchema = []string{
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
	`CREATE TABLE producer_profiles (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL UNIQUE,
		farm_name TEXT NOT NULL,
		description TEXT,
		address TEXT,
		siret TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
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
	`CREATE TABLE slot_bookings (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL,
		slot_id TEXT NOT NULL,
		producer_id TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		unit_price NUMERIC NOT NULL,
		created_at DATETIME
	)`,
	`CREATE TABLE wallets (
		id TEXT PRIMARY KEY,
		producer_id TEXT NOT NULL UNIQUE,
		balance NUMERIC NOT NULL DEFAULT 0,
		pending_balance NUMERIC NOT NULL DEFAULT 0,
		total_earned NUMERIC NOT NULL DEFAULT 0,
		total_withdrawn NUMERIC NOT NULL DEFAULT 0,
		pending_withdrawals INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE withdrawals (
		id TEXT PRIMARY KEY,
		wallet_id TEXT NOT NULL,
		producer_id TEXT NOT NULL,
		amount NUMERIC NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		decided_by TEXT,
		decided_at DATETIME,
		reject_reason TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE wallet_entries (
		id TEXT PRIMARY KEY,
		wallet_id TEXT NOT NULL,
		order_id TEXT,
		withdrawal_id TEXT,
		type TEXT NOT NULL,
		amount NUMERIC NOT NULL,
		created_at DATETIME
	)`,
	`CREATE TABLE notifications (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		type TEXT NOT NULL,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		link TEXT,
		read_at DATETIME,
		created_at DATETIME
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
