package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/matthieuvidal/fermelink-backend/pkg/enums"
)

// OrderPlacedEvent signals that a checkout finalized a draft order.
type OrderPlacedEvent struct {
	OrderID     uuid.UUID           `json:"order_id"`
	UserID      uuid.UUID           `json:"user_id"`
	Total       decimal.Decimal     `json:"total"`
	Method      enums.PaymentMethod `json:"method"`
	ProducerIDs []uuid.UUID         `json:"producer_ids"`
}

// OrderStatusEvent is emitted on each order lifecycle transition.
type OrderStatusEvent struct {
	OrderID     uuid.UUID         `json:"order_id"`
	UserID      uuid.UUID         `json:"user_id"`
	Status      enums.OrderStatus `json:"status"`
	ProducerIDs []uuid.UUID       `json:"producer_ids"`
	ChangedAt   time.Time         `json:"changed_at"`
}

// InvoiceIssuedEvent is emitted when an order enters the invoice flow.
type InvoiceIssuedEvent struct {
	InvoiceID uuid.UUID       `json:"invoice_id"`
	OrderID   uuid.UUID       `json:"order_id"`
	UserID    uuid.UUID       `json:"user_id"`
	Amount    decimal.Decimal `json:"amount"`
	DueDate   time.Time       `json:"due_date"`
}

// InvoicePaidEvent is emitted once when an invoice is marked paid.
type InvoicePaidEvent struct {
	InvoiceID   uuid.UUID           `json:"invoice_id"`
	OrderID     uuid.UUID           `json:"order_id"`
	UserID      uuid.UUID           `json:"user_id"`
	Amount      decimal.Decimal     `json:"amount"`
	Method      enums.PaymentMethod `json:"method"`
	PaidAt      time.Time           `json:"paid_at"`
	ProducerIDs []uuid.UUID         `json:"producer_ids"`
}

// InvoiceOverdueEvent is emitted by the overdue sweep for unpaid invoices past due.
type InvoiceOverdueEvent struct {
	InvoiceID uuid.UUID `json:"invoice_id"`
	OrderID   uuid.UUID `json:"order_id"`
	UserID    uuid.UUID `json:"user_id"`
	DueDate   time.Time `json:"due_date"`
}

// WithdrawalDecidedEvent reports an admin payout decision.
type WithdrawalDecidedEvent struct {
	WithdrawalID uuid.UUID              `json:"withdrawal_id"`
	ProducerID   uuid.UUID              `json:"producer_id"`
	Amount       decimal.Decimal        `json:"amount"`
	Status       enums.WithdrawalStatus `json:"status"`
	Reason       string                 `json:"reason,omitempty"`
}

// StockAlertEvent fires when product stock crosses its alert threshold.
type StockAlertEvent struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProducerID  uuid.UUID `json:"producer_id"`
	ProductName string    `json:"product_name"`
	Stock       int       `json:"stock"`
	Threshold   int       `json:"threshold"`
}
