package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/matthieuvidal/fermelink-backend/pkg/enums"
)

// Withdrawal is a producer payout request debited from the wallet up front
// and refunded if an admin rejects it.
type Withdrawal struct {
	ID           uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	WalletID     uuid.UUID              `gorm:"column:wallet_id;type:uuid;not null"`
	ProducerID   uuid.UUID              `gorm:"column:producer_id;type:uuid;not null"`
	Amount       decimal.Decimal        `gorm:"column:amount;type:numeric(12,2);not null"`
	Status       enums.WithdrawalStatus `gorm:"column:status;type:withdrawal_status;not null;default:'pending'"`
	DecidedBy    *uuid.UUID             `gorm:"column:decided_by;type:uuid"`
	DecidedAt    *time.Time             `gorm:"column:decided_at"`
	RejectReason *string                `gorm:"column:reject_reason"`
	CreatedAt    time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
