package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/matthieuvidal/fermelink-backend/pkg/types"
)

// ProducerProfile holds the farm-facing data attached to a producer user.
type ProducerProfile struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID      `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	FarmName    string         `gorm:"column:farm_name;not null"`
	Description *string        `gorm:"column:description"`
	Address     *types.Address `gorm:"column:address;type:address_t"`
	Siret       *string        `gorm:"column:siret"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
