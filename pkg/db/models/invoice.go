package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/matthieuvidal/fermelink-backend/pkg/enums"
)

// Invoice tracks a deferred payment for exactly one order. Its status is
// advanced by the mark-paid endpoint and the overdue sweep, never implicitly
// by order updates.
type Invoice struct {
	ID            uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       uuid.UUID            `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	UserID        uuid.UUID            `gorm:"column:user_id;type:uuid;not null"`
	Amount        decimal.Decimal      `gorm:"column:amount;type:numeric(12,2);not null"`
	Status        enums.InvoiceStatus  `gorm:"column:status;type:invoice_status;not null;default:'pending'"`
	PaidAt        *time.Time           `gorm:"column:paid_at"`
	PaymentMethod *enums.PaymentMethod `gorm:"column:payment_method;type:payment_method"`
	DueDate       time.Time            `gorm:"column:due_date;not null"`
	Meta          json.RawMessage      `gorm:"column:meta;type:jsonb"`
	CreatedAt     time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
