package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/matthieuvidal/fermelink-backend/pkg/enums"
)

// PaymentIntent tracks gateway payment progress for an order.
type PaymentIntent struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID           uuid.UUID           `gorm:"column:order_id;type:uuid;not null"`
	Method            enums.PaymentMethod `gorm:"column:method;type:payment_method;not null;default:'card'"`
	Status            enums.PaymentStatus `gorm:"column:status;type:payment_status;not null;default:'unpaid'"`
	Amount            decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	ProviderPaymentID *string             `gorm:"column:provider_payment_id"`
	FailureReason     *string             `gorm:"column:failure_reason"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
