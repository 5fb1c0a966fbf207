package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/matthieuvidal/fermelink-backend/pkg/enums"
	"github.com/matthieuvidal/fermelink-backend/pkg/types"
)

// Order is the customer-owned aggregate of items and slot bookings.
type Order struct {
	ID     uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID uuid.UUID         `gorm:"column:user_id;type:uuid;not null"`
	Status enums.OrderStatus `gorm:"column:status;type:order_status;not null;default:'draft'"`
	Total  decimal.Decimal   `gorm:"column:total;type:numeric(12,2);not null;default:0"`
	Meta   types.OrderMeta   `gorm:"column:meta;type:jsonb;serializer:json"`

	Items    []OrderItem   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Bookings []SlotBooking `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
