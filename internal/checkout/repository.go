package checkout

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/matthieuvidal/fermelink-backend/pkg/db/models"
)

// Repository defines the reads the checkout preparer needs beyond the order
// itself.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindProducts(ctx context.Context, productIDs []uuid.UUID) ([]models.Product, error)
	FindSlots(ctx context.Context, slotIDs []uuid.UUID) ([]models.DeliverySlot, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a checkout repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindProducts(ctx context.Context, productIDs []uuid.UUID) ([]models.Product, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	var products []models.Product
	err := r.db.WithContext(ctx).Where("id IN ?", productIDs).Find(&products).Error
	return products, err
}

func (r *repository) FindSlots(ctx context.Context, slotIDs []uuid.UUID) ([]models.DeliverySlot, error) {
	if len(slotIDs) == 0 {
		return nil, nil
	}
	var slots []models.DeliverySlot
	err := r.db.WithContext(ctx).Where("id IN ?", slotIDs).Find(&slots).Error
	return slots, err
}
