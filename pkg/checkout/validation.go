package checkout

import (
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/matthieuvidal/fermelink-backend/pkg/errors"
)

// MinQtyValidationInput describes the data required to verify a line's minimum order quantity.
type MinQtyValidationInput struct {
	ProductID   uuid.UUID
	ProductName string
	MinOrderQty int
	Quantity    int
}

// MinQtyViolationDetail exposes the data returned to callers when a validation fails.
type MinQtyViolationDetail struct {
	ProductID    uuid.UUID `json:"product_id"`
	ProductName  string    `json:"product_name,omitempty"`
	RequiredQty  int       `json:"required_qty"`
	RequestedQty int       `json:"requested_qty"`
}

// ValidateMinOrderQty ensures every provided line meets its product's minimum order quantity.
func ValidateMinOrderQty(items []MinQtyValidationInput) error {
	var violations []MinQtyViolationDetail
	for _, item := range items {
		if item.MinOrderQty <= 1 {
			continue
		}
		if item.Quantity < item.MinOrderQty {
			violations = append(violations, MinQtyViolationDetail{
				ProductID:    item.ProductID,
				ProductName:  item.ProductName,
				RequiredQty:  item.MinOrderQty,
				RequestedQty: item.Quantity,
			})
		}
	}
	if len(violations) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("minimum order quantity not met for %d item(s)", len(violations))).WithDetails(map[string]any{
		"violations": violations,
	})
}

// DeferredValidationInput describes a product's deferred-payment eligibility.
type DeferredValidationInput struct {
	ProductID      uuid.UUID
	ProductName    string
	AcceptDeferred bool
}

// DeferredViolationDetail names a product that does not accept invoice payment.
type DeferredViolationDetail struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name,omitempty"`
}

// ValidateDeferredEligibility ensures every product in the order accepts
// invoice payment. Violations name each offending product.
func ValidateDeferredEligibility(items []DeferredValidationInput) error {
	var violations []DeferredViolationDetail
	for _, item := range items {
		if item.AcceptDeferred {
			continue
		}
		violations = append(violations, DeferredViolationDetail{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
		})
	}
	if len(violations) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%d product(s) do not accept deferred payment", len(violations))).WithDetails(map[string]any{
		"violations": violations,
	})
}

// AvailabilityValidationInput describes a product's purchasability.
type AvailabilityValidationInput struct {
	ProductID   uuid.UUID
	ProductName string
	Available   bool
}

// AvailabilityViolationDetail names a product that can no longer be bought.
type AvailabilityViolationDetail struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name,omitempty"`
}

// ValidateAvailability ensures every product referenced by the order is still
// available. Violations name each offending product.
func ValidateAvailability(items []AvailabilityValidationInput) error {
	var violations []AvailabilityViolationDetail
	for _, item := range items {
		if item.Available {
			continue
		}
		violations = append(violations, AvailabilityViolationDetail{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
		})
	}
	if len(violations) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%d product(s) are unavailable", len(violations))).WithDetails(map[string]any{
		"violations": violations,
	})
}
