package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/matthieuvidal/fermelink-backend/pkg/db/models"
	"github.com/matthieuvidal/fermelink-backend/pkg/enums"
)

// Filters describe the catalog browse knobs.
type Filters struct {
	ProducerID *uuid.UUID         `json:"producer_id,omitempty"`
	Unit       *enums.ProductUnit `json:"unit,omitempty"`
	Available  *bool              `json:"available,omitempty"`
	Deferred   *bool              `json:"accept_deferred,omitempty"`
	PriceMin   *decimal.Decimal   `json:"price_min,omitempty"`
	PriceMax   *decimal.Decimal   `json:"price_max,omitempty"`
	Query      string             `json:"q,omitempty"`
}

// View is a product read enriched with the computed stock-alert flag.
type View struct {
	Product     models.Product `json:"product"`
	ShouldAlert bool           `json:"should_alert"`
}

// List is one page of catalog results.
type List struct {
	Products   []View `json:"products"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// CreateInput carries a new listing from the producer dashboard.
type CreateInput struct {
	ProducerID        uuid.UUID
	Name              string
	Description       *string
	Unit              enums.ProductUnit
	Price             decimal.Decimal
	Stock             int
	Available         bool
	AcceptDeferred    bool
	MinOrderQty       int
	AlertThreshold    *int
	AlertThresholdPct *int
	MaxStockQty       *int
}

// UpdateInput patches an existing listing. Nil fields are left untouched.
type UpdateInput struct {
	Name              *string
	Description       *string
	Unit              *enums.ProductUnit
	Price             *decimal.Decimal
	Available         *bool
	AcceptDeferred    *bool
	MinOrderQty       *int
	AlertThreshold    *int
	AlertThresholdPct *int
	MaxStockQty       *int
}

// StockUpdateInput is the explicit stock mutation. Schedule entries never
// move stock, this endpoint is the only write path.
type StockUpdateInput struct {
	ProductID   uuid.UUID
	ActorUserID uuid.UUID
	ActorRole   enums.UserRole
	Stock       int
}

// ScheduleEntryInput is one planned production line.
type ScheduleEntryInput struct {
	Date       time.Time `json:"date" validate:"required"`
	PlannedQty int       `json:"planned_qty" validate:"gte=0"`
	Public     bool      `json:"public"`
	Note       *string   `json:"note,omitempty" validate:"omitempty,max=500"`
}

// SlotCreateInput publishes a bookable pickup or delivery window.
type SlotCreateInput struct {
	ProducerID uuid.UUID
	ProductID  *uuid.UUID
	StartsAt   time.Time
	EndsAt     time.Time
	Capacity   int
	Price      *decimal.Decimal
	Location   *string
}
