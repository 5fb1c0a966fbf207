package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/matthieuvidal/fermelink-backend/internal/orders"
	pkgcheckout "github.com/matthieuvidal/fermelink-backend/pkg/checkout"
	"github.com/matthieuvidal/fermelink-backend/pkg/config"
	"github.com/matthieuvidal/fermelink-backend/pkg/db/models"
	"github.com/matthieuvidal/fermelink-backend/pkg/enums"
	pkgerrors "github.com/matthieuvidal/fermelink-backend/pkg/errors"
	"github.com/matthieuvidal/fermelink-backend/pkg/logger"
	"github.com/matthieuvidal/fermelink-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// PrepareInput captures the checkout choices for an order.
type PrepareInput struct {
	OrderID       uuid.UUID
	ActorUserID   uuid.UUID
	DeliveryType  enums.DeliveryType
	DeliveryInfo  *types.DeliveryInfo
	PaymentMethod enums.PaymentMethod
	// PaymentToken is the card nonce for card payments. Empty defers the
	// gateway call to a later capture step.
	PaymentToken string
}

// Result reports the finalized totals and, for card payments, the intent.
type Result struct {
	Order         *models.Order         `json:"order"`
	Fees          types.FeeBreakdown    `json:"fees"`
	PaymentIntent *models.PaymentIntent `json:"payment_intent,omitempty"`
}

// Service finalizes an order's delivery and payment choices.
type Service interface {
	Prepare(ctx context.Context, input PrepareInput) (*Result, error)
}

type service struct {
	repo        Repository
	orderRepo   orders.Repository
	tx          txRunner
	gateway     PaymentGateway
	logg        *logger.Logger
	deliveryFee decimal.Decimal
}

// NewService builds the checkout preparer with the required dependencies.
func NewService(repo Repository, orderRepo orders.Repository, tx txRunner, gateway PaymentGateway, logg *logger.Logger, cfg config.CheckoutConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("checkout repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	deliveryFee, err := cfg.DeliveryFeeAmount()
	if err != nil {
		return nil, fmt.Errorf("invalid delivery fee: %w", err)
	}
	return &service{
		repo:        repo,
		orderRepo:   orderRepo,
		tx:          tx,
		gateway:     gateway,
		logg:        logg,
		deliveryFee: deliveryFee,
	}, nil
}

// Prepare validates the order contents against the requested delivery and
// payment choices, then persists the metadata and recomputed total in one
// transaction. The gateway call for card payments happens after commit: a
// gateway failure leaves the order in its updated-total state and surfaces
// as a payment error.
func (s *service) Prepare(ctx context.Context, input PrepareInput) (*Result, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.DeliveryType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery type must be pickup or delivery")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if input.DeliveryType == enums.DeliveryTypeDelivery && (input.DeliveryInfo == nil || input.DeliveryInfo.Address == nil) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery orders require an address")
	}

	order, err := s.orderRepo.Find(ctx, input.OrderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.UserID != input.ActorUserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
	}
	if order.Status != enums.OrderStatusDraft && order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.New(
			pkgerrors.CodeStateConflict,
			fmt.Sprintf("checkout cannot be prepared for a %s order", order.Status),
		)
	}
	if len(order.Items) == 0 && len(order.Bookings) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order is empty")
	}

	products, slotProducts, err := s.loadProducts(ctx, order)
	if err != nil {
		return nil, err
	}
	if err := s.validateContents(order, products, slotProducts, input.PaymentMethod); err != nil {
		return nil, err
	}

	fees := s.computeFees(order, input.DeliveryType)

	meta := order.Meta
	meta.DeliveryType = input.DeliveryType
	meta.DeliveryInfo = input.DeliveryInfo
	meta.PaymentMethod = input.PaymentMethod
	meta.PaymentStatus = enums.PaymentStatusUnpaid
	meta.Fees = &fees
	if err := meta.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order metadata")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.orderRepo.WithTx(tx).Update(ctx, order.ID, map[string]any{
			"meta":  meta,
			"total": fees.Total,
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist checkout")
	}
	order.Meta = meta
	order.Total = fees.Total

	result := &Result{Order: order, Fees: fees}

	if input.PaymentMethod == enums.PaymentMethodCard && input.PaymentToken != "" {
		intent, err := s.createPaymentIntent(ctx, order, input.PaymentToken)
		result.PaymentIntent = intent
		if err != nil {
			return result, err
		}
	}
	return result, nil
}

func (s *service) loadProducts(ctx context.Context, order *models.Order) (map[uuid.UUID]models.Product, map[uuid.UUID]uuid.UUID, error) {
	productIDs := make([]uuid.UUID, 0, len(order.Items))
	for _, item := range order.Items {
		productIDs = append(productIDs, item.ProductID)
	}

	slotIDs := make([]uuid.UUID, 0, len(order.Bookings))
	for _, booking := range order.Bookings {
		slotIDs = append(slotIDs, booking.SlotID)
	}
	slots, err := s.repo.FindSlots(ctx, slotIDs)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery slots")
	}

	// Bookings inherit the product behind their slot when one is set.
	slotProducts := map[uuid.UUID]uuid.UUID{}
	for _, slot := range slots {
		if slot.ProductID != nil {
			slotProducts[slot.ID] = *slot.ProductID
			productIDs = append(productIDs, *slot.ProductID)
		}
	}

	productRows, err := s.repo.FindProducts(ctx, productIDs)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	products := make(map[uuid.UUID]models.Product, len(productRows))
	for _, product := range productRows {
		products[product.ID] = product
	}
	return products, slotProducts, nil
}

func (s *service) validateContents(order *models.Order, products map[uuid.UUID]models.Product, slotProducts map[uuid.UUID]uuid.UUID, method enums.PaymentMethod) error {
	availability := make([]pkgcheckout.AvailabilityValidationInput, 0, len(products))
	minQty := make([]pkgcheckout.MinQtyValidationInput, 0, len(order.Items))
	deferred := make([]pkgcheckout.DeferredValidationInput, 0, len(products))

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
		deferred = append(deferred, pkgcheckout.DeferredValidationInput{
			ProductID:      product.ID,
			ProductName:    product.Name,
			AcceptDeferred: product.AcceptDeferred,
		})
	}

	for _, item := range order.Items {
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
	for _, booking := range order.Bookings {
		if productID, ok := slotProducts[booking.SlotID]; ok {
			addProduct(productID)
		}
	}

	if err := pkgcheckout.ValidateAvailability(availability); err != nil {
		return err
	}
	if err := pkgcheckout.ValidateMinOrderQty(minQty); err != nil {
		return err
	}
	if method.IsDeferred() {
		if err := pkgcheckout.ValidateDeferredEligibility(deferred); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) computeFees(order *models.Order, deliveryType enums.DeliveryType) types.FeeBreakdown {
	itemsSubtotal := decimal.Zero
	for _, item := range order.Items {
		itemsSubtotal = itemsSubtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	bookingsSubtotal := decimal.Zero
	for _, booking := range order.Bookings {
		bookingsSubtotal = bookingsSubtotal.Add(booking.UnitPrice.Mul(decimal.NewFromInt(int64(booking.Quantity))))
	}

	fee := decimal.Zero
	if deliveryType == enums.DeliveryTypeDelivery {
		fee = s.deliveryFee
	}

	return types.FeeBreakdown{
		ItemsSubtotal:    itemsSubtotal,
		BookingsSubtotal: bookingsSubtotal,
		DeliveryFee:      fee,
		Total:            itemsSubtotal.Add(bookingsSubtotal).Add(fee),
	}
}

// createPaymentIntent forwards the finalized total to the gateway and records
// the outcome. The order total was already committed, so failures here do not
// roll anything back.
func (s *service) createPaymentIntent(ctx context.Context, order *models.Order, token string) (*models.PaymentIntent, error) {
	if s.gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment gateway not configured")
	}

	providerID, gatewayErr := s.gateway.CreatePayment(ctx, order.Total, token, order.ID.String())

	intent := &models.PaymentIntent{
		OrderID: order.ID,
		Method:  enums.PaymentMethodCard,
		Amount:  order.Total,
	}
	if gatewayErr != nil {
		reason := gatewayErr.Error()
		intent.Status = enums.PaymentStatusFailed
		intent.FailureReason = &reason
	} else {
		intent.Status = enums.PaymentStatusAuthorized
		intent.ProviderPaymentID = &providerID
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orderRepo.WithTx(tx)
		if _, err := repo.CreatePaymentIntent(ctx, intent); err != nil {
			return err
		}

		meta := order.Meta
		if gatewayErr != nil {
			meta.PaymentStatus = enums.PaymentStatusFailed
		} else {
			meta.PaymentStatus = enums.PaymentStatusAuthorized
			meta.PaymentRef = providerID
		}
		if err := repo.Update(ctx, order.ID, map[string]any{"meta": meta}); err != nil {
			return err
		}
		order.Meta = meta
		return nil
	})
	if err != nil {
		s.logg.Error(ctx, "record payment intent", err)
	}

	if gatewayErr != nil {
		if typed := pkgerrors.As(gatewayErr); typed != nil {
			return intent, typed
		}
		return intent, pkgerrors.Wrap(pkgerrors.CodePaymentFailed, gatewayErr, "card payment failed")
	}
	return intent, nil
}
