package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DeliverySlot is a bookable pickup or delivery window published by a producer.
type DeliverySlot struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProducerID uuid.UUID  `gorm:"column:producer_id;type:uuid;not null"`
	ProductID  *uuid.UUID `gorm:"column:product_id;type:uuid"`
	StartsAt   time.Time  `gorm:"column:starts_at;not null"`
	EndsAt     time.Time  `gorm:"column:ends_at;not null"`
	Capacity   int        `gorm:"column:capacity;not null"`
	Booked     int        `gorm:"column:booked;not null;default:0"`
	// Price overrides the product price for bookings in this slot when set.
	Price     *decimal.Decimal `gorm:"column:price;type:numeric(12,2)"`
	Location  *string          `gorm:"column:location"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
