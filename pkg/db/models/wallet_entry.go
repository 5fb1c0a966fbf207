package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/matthieuvidal/fermelink-backend/pkg/enums"
)

// WalletEntry is the immutable audit trail behind wallet balances. The
// (wallet_id, order_id, type) uniqueness is what makes order credits
// idempotent across repeated confirmations.
type WalletEntry struct {
	ID           uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	WalletID     uuid.UUID             `gorm:"column:wallet_id;type:uuid;not null;uniqueIndex:idx_wallet_entries_order_once"`
	OrderID      *uuid.UUID            `gorm:"column:order_id;type:uuid;uniqueIndex:idx_wallet_entries_order_once"`
	WithdrawalID *uuid.UUID            `gorm:"column:withdrawal_id;type:uuid"`
	Type         enums.WalletEntryType `gorm:"column:type;type:wallet_entry_type;not null;uniqueIndex:idx_wallet_entries_order_once"`
	Amount       decimal.Decimal       `gorm:"column:amount;type:numeric(12,2);not null"`
	CreatedAt    time.Time             `gorm:"column:created_at;autoCreateTime"`
}
