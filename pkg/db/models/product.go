package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/matthieuvidal/fermelink-backend/pkg/enums"
)

// Product represents a producer listing.
type Product struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProducerID  uuid.UUID         `gorm:"column:producer_id;type:uuid;not null"`
	Name        string            `gorm:"column:name;not null"`
	Description *string           `gorm:"column:description"`
	Unit        enums.ProductUnit `gorm:"column:unit;type:product_unit;not null;default:'piece'"`
	Price       decimal.Decimal   `gorm:"column:price;type:numeric(12,2);not null"`
	Stock       int               `gorm:"column:stock;not null;default:0"`
	Available   bool              `gorm:"column:available;not null;default:true"`
	// AcceptDeferred marks a product as eligible for invoice payment.
	AcceptDeferred bool `gorm:"column:accept_deferred;not null;default:false"`
	MinOrderQty    int  `gorm:"column:min_order_qty;not null;default:1"`
	// AlertThreshold triggers a stock alert when stock falls at or below it.
	// AlertThresholdPct is evaluated against MaxStockQty when both are set.
	AlertThreshold    *int                      `gorm:"column:alert_threshold"`
	AlertThresholdPct *int                      `gorm:"column:alert_threshold_pct"`
	MaxStockQty       *int                      `gorm:"column:max_stock_qty"`
	Schedule          []ProductionScheduleEntry `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}
