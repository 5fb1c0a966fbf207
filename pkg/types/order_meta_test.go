package types

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/matthieuvidal/fermelink-backend/pkg/enums"
)

func TestOrderMetaRoundTrip(t *testing.T) {
	meta := OrderMeta{
		DeliveryType: enums.DeliveryTypeDelivery,
		DeliveryInfo: &DeliveryInfo{
			Address: &Address{
				Line1:      "12 rue des Halles",
				City:       "Lyon",
				PostalCode: "69002",
				Country:    "FR",
				Lat:        45.7640,
				Lng:        4.8357,
			},
			ContactName:  "A. Dubois",
			ContactPhone: "+33612345678",
		},
		PaymentMethod: enums.PaymentMethodCard,
		PaymentStatus: enums.PaymentStatusUnpaid,
		Fees: &FeeBreakdown{
			ItemsSubtotal:    decimal.RequireFromString("25.00"),
			BookingsSubtotal: decimal.Zero,
			DeliveryFee:      decimal.RequireFromString("15.00"),
			Total:            decimal.RequireFromString("40.00"),
		},
	}

	raw, err := json.Marshal(meta)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got OrderMeta
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if got.DeliveryType != enums.DeliveryTypeDelivery {
		t.Fatalf("delivery type changed: %s", got.DeliveryType)
	}
	if got.DeliveryInfo == nil || got.DeliveryInfo.Address == nil {
		t.Fatalf("delivery info lost: %+v", got)
	}
	if got.DeliveryInfo.Address.City != "Lyon" {
		t.Fatalf("address city changed: %s", got.DeliveryInfo.Address.City)
	}
	if got.PaymentMethod != enums.PaymentMethodCard {
		t.Fatalf("payment method changed: %s", got.PaymentMethod)
	}
	if got.Fees == nil || !got.Fees.Total.Equal(decimal.RequireFromString("40.00")) {
		t.Fatalf("fee breakdown changed: %+v", got.Fees)
	}
}

func TestOrderMetaValidate(t *testing.T) {
	meta := OrderMeta{DeliveryType: "teleport"}
	if err := meta.Validate(); err == nil {
		t.Fatal("expected invalid delivery type to fail validation")
	}

	meta = OrderMeta{DeliveryType: enums.DeliveryTypeDelivery}
	if err := meta.Validate(); err == nil {
		t.Fatal("expected delivery without address to fail validation")
	}

	meta = OrderMeta{
		DeliveryType:  enums.DeliveryTypePickup,
		PaymentMethod: enums.PaymentMethodInvoice,
	}
	if err := meta.Validate(); err != nil {
		t.Fatalf("expected pickup meta to validate, got %v", err)
	}
}
