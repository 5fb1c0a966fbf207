package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	pkgcheckout "github.com/matthieuvidal/fermelink-backend/pkg/checkout"
	"github.com/matthieuvidal/fermelink-backend/pkg/db/models"
	"github.com/matthieuvidal/fermelink-backend/pkg/enums"
	pkgerrors "github.com/matthieuvidal/fermelink-backend/pkg/errors"
)

// Create records a draft order for the buyer with unit prices snapshotted
// from the catalog. Delivery and payment choices come later through checkout
// preparation, and no event is emitted until the order is placed.
func (s *service) Create(ctx context.Context, input CreateInput) (*Detail, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if len(input.Items) == 0 && len(input.Bookings) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order needs at least one item or booking")
	}
	for _, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item product id required")
		}
		if item.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be at least 1")
		}
	}
	for _, booking := range input.Bookings {
		if booking.SlotID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking slot id required")
		}
		if booking.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking quantity must be at least 1")
		}
	}

	slots, err := s.loadSlots(ctx, input.Bookings)
	if err != nil {
		return nil, err
	}
	products, err := s.loadCatalogProducts(ctx, input.Items, slots)
	if err != nil {
		return nil, err
	}
	if err := validateCreate(input, products, slots); err != nil {
		return nil, err
	}

	order := buildOrder(input, products, slots)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := s.repo.WithTx(tx).Create(ctx, order)
		return err
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}
	return &Detail{Order: *order, Items: order.Items, Bookings: order.Bookings}, nil
}

func (s *service) loadSlots(ctx context.Context, bookings []BookingInput) (map[uuid.UUID]models.DeliverySlot, error) {
	slotIDs := make([]uuid.UUID, 0, len(bookings))
	for _, booking := range bookings {
		slotIDs = append(slotIDs, booking.SlotID)
	}
	rows, err := s.repo.FindSlots(ctx, slotIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery slots")
	}
	slots := make(map[uuid.UUID]models.DeliverySlot, len(rows))
	for _, slot := range rows {
		slots[slot.ID] = slot
	}
	return slots, nil
}

func (s *service) loadCatalogProducts(ctx context.Context, items []ItemInput, slots map[uuid.UUID]models.DeliverySlot) (map[uuid.UUID]models.Product, error) {
	productIDs := make([]uuid.UUID, 0, len(items)+len(slots))
	for _, item := range items {
		productIDs = append(productIDs, item.ProductID)
	}
	// Bookings inherit the product behind their slot when one is set.
	for _, slot := range slots {
		if slot.ProductID != nil {
			productIDs = append(productIDs, *slot.ProductID)
		}
	}
	rows, err := s.repo.FindProducts(ctx, productIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	products := make(map[uuid.UUID]models.Product, len(rows))
	for _, product := range rows {
		products[product.ID] = product
	}
	return products, nil
}

func validateCreate(input CreateInput, products map[uuid.UUID]models.Product, slots map[uuid.UUID]models.DeliverySlot) error {
	availability := make([]pkgcheckout.AvailabilityValidationInput, 0, len(input.Items))
	minQty := make([]pkgcheckout.MinQtyValidationInput, 0, len(input.Items))

	seen := map[uuid.UUID]bool{}
	addProduct := func(productID uuid.UUID) {
		if seen[productID] {
			return
		}
		seen[productID] = true
		product, ok := products[productID]
		if !ok {
			availability = append(availability, pkgcheckout.AvailabilityValidationInput{ProductID: productID})
			return
		}
		availability = append(availability, pkgcheckout.AvailabilityValidationInput{
			ProductID:   product.ID,
			ProductName: product.Name,
			Available:   product.Available,
		})
	}

	for _, item := range input.Items {
		addProduct(item.ProductID)
		if product, ok := products[item.ProductID]; ok {
			minQty = append(minQty, pkgcheckout.MinQtyValidationInput{
				ProductID:   product.ID,
				ProductName: product.Name,
				MinOrderQty: product.MinOrderQty,
				Quantity:    item.Quantity,
			})
		}
	}
	for _, booking := range input.Bookings {
		slot, ok := slots[booking.SlotID]
		if !ok {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown delivery slot %s", booking.SlotID))
		}
		if slot.Booked+booking.Quantity > slot.Capacity {
			return pkgerrors.New(
				pkgerrors.CodeStateConflict,
				fmt.Sprintf("slot %s cannot take %d more booking(s)", slot.ID, booking.Quantity),
			)
		}
		if slot.Price == nil && slot.ProductID == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("slot %s has no price", slot.ID))
		}
		if slot.ProductID != nil {
			addProduct(*slot.ProductID)
		}
	}

	if err := pkgcheckout.ValidateAvailability(availability); err != nil {
		return err
	}
	return pkgcheckout.ValidateMinOrderQty(minQty)
}

func buildOrder(input CreateInput, products map[uuid.UUID]models.Product, slots map[uuid.UUID]models.DeliverySlot) *models.Order {
	total := decimal.Zero

	items := make([]models.OrderItem, 0, len(input.Items))
	for _, line := range input.Items {
		product := products[line.ProductID]
		items = append(items, models.OrderItem{
			ProductID:  product.ID,
			ProducerID: product.ProducerID,
			Quantity:   line.Quantity,
			UnitPrice:  product.Price,
		})
		total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	bookings := make([]models.SlotBooking, 0, len(input.Bookings))
	for _, line := range input.Bookings {
		slot := slots[line.SlotID]
		price := decimal.Zero
		switch {
		case slot.Price != nil:
			price = *slot.Price
		case slot.ProductID != nil:
			price = products[*slot.ProductID].Price
		}
		bookings = append(bookings, models.SlotBooking{
			SlotID:     slot.ID,
			ProducerID: slot.ProducerID,
			Quantity:   line.Quantity,
			UnitPrice:  price,
		})
		total = total.Add(price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	return &models.Order{
		UserID:   input.UserID,
		Status:   enums.OrderStatusDraft,
		Total:    total,
		Items:    items,
		Bookings: bookings,
	}
}
