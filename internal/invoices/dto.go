package invoices

import (
	"github.com/google/uuid"

	"github.com/matthieuvidal/fermelink-backend/pkg/db/models"
	"github.com/matthieuvidal/fermelink-backend/pkg/enums"
)

// MarkPaidInput captures the data required to settle an invoice.
type MarkPaidInput struct {
	InvoiceID     uuid.UUID
	ActorUserID   uuid.UUID
	ActorRole     enums.UserRole
	PaymentMethod enums.PaymentMethod
}

// List wraps the paginated invoices plus the next page cursor.
type List struct {
	Invoices   []models.Invoice `json:"invoices"`
	NextCursor string           `json:"next_cursor,omitempty"`
}
