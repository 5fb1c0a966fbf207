package enums

import "fmt"

// DeliveryType selects how an order reaches the customer.
type DeliveryType string

const (
	DeliveryTypePickup   DeliveryType = "pickup"
	DeliveryTypeDelivery DeliveryType = "delivery"
)

func (d DeliveryType) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DeliveryType.
func (d DeliveryType) IsValid() bool {
	return d == DeliveryTypePickup || d == DeliveryTypeDelivery
}

// ParseDeliveryType converts raw input into a DeliveryType.
func ParseDeliveryType(value string) (DeliveryType, error) {
	switch DeliveryType(value) {
	case DeliveryTypePickup:
		return DeliveryTypePickup, nil
	case DeliveryTypeDelivery:
		return DeliveryTypeDelivery, nil
	default:
		return "", fmt.Errorf("invalid delivery type %q", value)
	}
}
