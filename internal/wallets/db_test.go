package wallets

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// The production schema lives in goose migrations with Postgres-only
// defaults, so repository tests create the touched tables by hand. The id
// defaults mimic gen_random_uuid so inserts without an explicit id work.
var testSchema = []string{
	`CREATE TABLE wallets (
		id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(4))||'-'||hex(randomblob(2))||'-'||hex(randomblob(2))||'-'||hex(randomblob(2))||'-'||hex(randomblob(6)))),
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
		id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(4))||'-'||hex(randomblob(2))||'-'||hex(randomblob(2))||'-'||hex(randomblob(2))||'-'||hex(randomblob(6)))),
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
		id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(4))||'-'||hex(randomblob(2))||'-'||hex(randomblob(2))||'-'||hex(randomblob(2))||'-'||hex(randomblob(6)))),
		wallet_id TEXT NOT NULL,
		order_id TEXT,
		withdrawal_id TEXT,
		type TEXT NOT NULL,
		amount NUMERIC NOT NULL,
		created_at DATETIME
	)`,
	`CREATE UNIQUE INDEX idx_wallet_entries_order_once ON wallet_entries (wallet_id, order_id, type) WHERE order_id IS NOT NULL`,
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
