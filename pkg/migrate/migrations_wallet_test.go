package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWalletMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_wallets.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no wallet migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS wallets",
		"CHECK (balance >= 0)",
		"CHECK (pending_balance >= 0)",
		"idx_wallet_entries_order_once",
		"WHERE order_id IS NOT NULL",
		"DROP TABLE IF EXISTS wallets",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestOrdersMigrationContainsStatusEnum(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_init_types.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no type migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	for _, status := range []string{
		"'draft'",
		"'pending'",
		"'confirmed'",
		"'shipped'",
		"'delivered'",
		"'cancelled'",
		"'invoice_pending'",
		"'invoice_paid'",
		"'invoice_overdue'",
	} {
		if !strings.Contains(content, status) {
			t.Errorf("order_status enum missing value %s", status)
		}
	}
	if !strings.Contains(content, "CREATE TYPE address_t AS") {
		t.Errorf("missing address_t composite type")
	}
}
