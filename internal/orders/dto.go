package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/matthieuvidal/fermelink-backend/pkg/db/models"
	"github.com/matthieuvidal/fermelink-backend/pkg/enums"
	"github.com/matthieuvidal/fermelink-backend/pkg/types"
)

// Filters describe the inputs supported by the order lists.
type Filters struct {
	Status   *enums.OrderStatus
	DateFrom *time.Time
	DateTo   *time.Time
	Query    string
}

// CustomerSummary is the buyer block embedded in list rows for producer and
// admin views.
type CustomerSummary struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
}

// Summary exposes the aggregated fields returned in order lists.
type Summary struct {
	ID           uuid.UUID         `json:"id"`
	Status       enums.OrderStatus `json:"status"`
	Total        decimal.Decimal   `json:"total"`
	ItemCount    int               `json:"item_count"`
	BookingCount int               `json:"booking_count"`
	Customer     *CustomerSummary  `json:"customer,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// List wraps the paginated orders plus the next page cursor.
type List struct {
	Orders     []Summary `json:"orders"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

// Detail is a full order view with items and bookings already narrowed to
// the requesting scope.
type Detail struct {
	Order    models.Order         `json:"order"`
	Items    []models.OrderItem   `json:"items"`
	Bookings []models.SlotBooking `json:"bookings"`
}

// TotalsSummary is the response of the order summary endpoint.
type TotalsSummary struct {
	OrderID         uuid.UUID           `json:"order_id"`
	Status          enums.OrderStatus   `json:"status"`
	ItemsSubtotal   decimal.Decimal     `json:"items_subtotal"`
	BookingSubtotal decimal.Decimal     `json:"bookings_subtotal"`
	DeliveryFee     decimal.Decimal     `json:"delivery_fee"`
	Total           decimal.Decimal     `json:"total"`
	Fees            *types.FeeBreakdown `json:"fees,omitempty"`
}

// ItemInput is one product line of a new order.
type ItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// BookingInput is one delivery-slot reservation of a new order.
type BookingInput struct {
	SlotID   uuid.UUID
	Quantity int
}

// CreateInput captures a new draft order for the authenticated buyer.
type CreateInput struct {
	UserID   uuid.UUID
	Items    []ItemInput
	Bookings []BookingInput
}

// StatusChangeInput captures the data required to advance an order.
type StatusChangeInput struct {
	OrderID     uuid.UUID
	Target      enums.OrderStatus
	ActorUserID uuid.UUID
	ActorRole   enums.UserRole
}
