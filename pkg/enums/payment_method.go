package enums

import "fmt"

// PaymentMethod enumerates how a customer settles an order.
type PaymentMethod string

const (
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	// PaymentMethodInvoice defers settlement to a 30-day invoice and is only
	// allowed when every product in the order accepts deferred payment.
	PaymentMethodInvoice PaymentMethod = "invoice"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodCard,
	PaymentMethodBankTransfer,
	PaymentMethodInvoice,
}

func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethod.
func (p PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsDeferred reports whether the method settles through an invoice.
func (p PaymentMethod) IsDeferred() bool {
	return p == PaymentMethodInvoice
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
