package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductionScheduleEntry plans future production for a product on a given day.
// Public entries are visible to customers; private ones only to the owning
// producer.
type ProductionScheduleEntry struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID   uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Date        time.Time `gorm:"column:date;type:date;not null"`
	PlannedQty  int       `gorm:"column:planned_qty;not null"`
	ProducedQty *int      `gorm:"column:produced_qty"`
	Public      bool      `gorm:"column:public;not null;default:false"`
	Note        *string   `gorm:"column:note"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
