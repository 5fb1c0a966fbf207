package types

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/matthieuvidal/fermelink-backend/pkg/enums"
)

// DeliveryInfo carries the customer-facing delivery details chosen at checkout.
type DeliveryInfo struct {
	Address      *Address `json:"address,omitempty"`
	ContactName  string   `json:"contactName,omitempty"`
	ContactPhone string   `json:"contactPhone,omitempty"`
	Instructions string   `json:"instructions,omitempty"`
}

// FeeBreakdown records how the order total was assembled at checkout time.
type FeeBreakdown struct {
	ItemsSubtotal    decimal.Decimal `json:"itemsSubtotal"`
	BookingsSubtotal decimal.Decimal `json:"bookingsSubtotal"`
	DeliveryFee      decimal.Decimal `json:"deliveryFee"`
	Total            decimal.Decimal `json:"total"`
}

// OrderMeta is the typed metadata stored on an order. It replaces the
// old free-form blob, so every field is validated at write time and
// round-trips unchanged through the jsonb column.
type OrderMeta struct {
	DeliveryType  enums.DeliveryType  `json:"deliveryType,omitempty"`
	DeliveryInfo  *DeliveryInfo       `json:"deliveryInfo,omitempty"`
	PaymentMethod enums.PaymentMethod `json:"paymentMethod,omitempty"`
	PaymentStatus enums.PaymentStatus `json:"paymentStatus,omitempty"`
	// PaymentRef holds the gateway payment id once an intent is created.
	PaymentRef string        `json:"paymentRef,omitempty"`
	Fees       *FeeBreakdown `json:"fees,omitempty"`
}

// Validate rejects metadata whose enum fields are set but unknown.
func (m OrderMeta) Validate() error {
	if m.DeliveryType != "" && !m.DeliveryType.IsValid() {
		return fmt.Errorf("order meta: invalid delivery type %q", m.DeliveryType)
	}
	if m.PaymentMethod != "" && !m.PaymentMethod.IsValid() {
		return fmt.Errorf("order meta: invalid payment method %q", m.PaymentMethod)
	}
	if m.PaymentStatus != "" && !m.PaymentStatus.IsValid() {
		return fmt.Errorf("order meta: invalid payment status %q", m.PaymentStatus)
	}
	if m.DeliveryType == enums.DeliveryTypeDelivery && (m.DeliveryInfo == nil || m.DeliveryInfo.Address == nil) {
		return fmt.Errorf("order meta: delivery orders require an address")
	}
	return nil
}
