package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/matthieuvidal/fermelink-backend/pkg/db/models"
	"github.com/matthieuvidal/fermelink-backend/pkg/enums"
	"github.com/matthieuvidal/fermelink-backend/pkg/pagination"
)

// Repository defines persistence operations for order tables. Scoped reads
// apply the role visibility rules; unscoped reads are for internal callers
// that already hold authorization.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindProducts(ctx context.Context, productIDs []uuid.UUID) ([]models.Product, error)
	FindSlots(ctx context.Context, slotIDs []uuid.UUID) ([]models.DeliverySlot, error)
	Find(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindScoped(ctx context.Context, scope Scope, orderID uuid.UUID) (*Detail, error)
	List(ctx context.Context, scope Scope, params pagination.Params, filters Filters) (*List, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error
	Update(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
	ProducerIDs(ctx context.Context, orderID uuid.UUID) ([]uuid.UUID, error)
	ProducerShares(ctx context.Context, orderID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)
	HasProducerProduct(ctx context.Context, orderID, producerID uuid.UUID) (bool, error)
	FindByStatusBefore(ctx context.Context, status enums.OrderStatus, cutoff time.Time) ([]models.Order, error)
	CreatePaymentIntent(ctx context.Context, intent *models.PaymentIntent) (*models.PaymentIntent, error)
	UpdatePaymentIntent(ctx context.Context, intentID uuid.UUID, updates map[string]any) error
	FindPaymentIntentByOrder(ctx context.Context, orderID uuid.UUID) (*models.PaymentIntent, error)
}
