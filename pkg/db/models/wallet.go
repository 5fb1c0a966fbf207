package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet accumulates a producer's marketplace earnings. Balance is the
// withdrawable amount, PendingBalance holds earnings from orders not yet
// delivered.
type Wallet struct {
	ID                 uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProducerID         uuid.UUID       `gorm:"column:producer_id;type:uuid;not null;uniqueIndex"`
	Balance            decimal.Decimal `gorm:"column:balance;type:numeric(12,2);not null;default:0"`
	PendingBalance     decimal.Decimal `gorm:"column:pending_balance;type:numeric(12,2);not null;default:0"`
	TotalEarned        decimal.Decimal `gorm:"column:total_earned;type:numeric(12,2);not null;default:0"`
	TotalWithdrawn     decimal.Decimal `gorm:"column:total_withdrawn;type:numeric(12,2);not null;default:0"`
	PendingWithdrawals int             `gorm:"column:pending_withdrawals;not null;default:0"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
