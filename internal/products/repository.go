package products

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/matthieuvidal/fermelink-backend/pkg/db/models"
	"github.com/matthieuvidal/fermelink-backend/pkg/pagination"
)

// Repository is the persistence surface for listings, schedules, and slots.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	Find(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	Save(ctx context.Context, product *models.Product) (*models.Product, error)
	Delete(ctx context.Context, productID uuid.UUID) error
	List(ctx context.Context, params pagination.Params, filters Filters) ([]models.Product, string, error)
	AppendSchedule(ctx context.Context, entries []models.ProductionScheduleEntry) error
	ListSchedule(ctx context.Context, productID uuid.UUID, publicOnly bool, from time.Time) ([]models.ProductionScheduleEntry, error)
	CreateSlot(ctx context.Context, slot *models.DeliverySlot) (*models.DeliverySlot, error)
	ListSlots(ctx context.Context, producerID uuid.UUID, from time.Time) ([]models.DeliverySlot, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a products repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

func (r *repository) Find(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Where("id = ?", productID).First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) Save(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

func (r *repository) Delete(ctx context.Context, productID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", productID).Delete(&models.Product{}).Error
}

func (r *repository) List(ctx context.Context, params pagination.Params, filters Filters) ([]models.Product, string, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	q := r.db.WithContext(ctx).Model(&models.Product{})
	if filters.ProducerID != nil {
		q = q.Where("producer_id = ?", *filters.ProducerID)
	}
	if filters.Unit != nil {
		q = q.Where("unit = ?", *filters.Unit)
	}
	if filters.Available != nil {
		q = q.Where("available = ?", *filters.Available)
	}
	if filters.Deferred != nil {
		q = q.Where("accept_deferred = ?", *filters.Deferred)
	}
	if filters.PriceMin != nil {
		q = q.Where("price >= ?", *filters.PriceMin)
	}
	if filters.PriceMax != nil {
		q = q.Where("price <= ?", *filters.PriceMax)
	}
	if search := strings.TrimSpace(filters.Query); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(COALESCE(description, '')) LIKE ?", like, like)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}
	if cursor != nil {
		q = q.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Product
	err = q.Order("created_at DESC").
		Order("id DESC").
		Limit(limit + 1).
		Find(&rows).Error
	if err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, nextCursor, nil
}

func (r *repository) AppendSchedule(ctx context.Context, entries []models.ProductionScheduleEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&entries).Error
}

func (r *repository) ListSchedule(ctx context.Context, productID uuid.UUID, publicOnly bool, from time.Time) ([]models.ProductionScheduleEntry, error) {
	q := r.db.WithContext(ctx).Where("product_id = ?", productID)
	if publicOnly {
		q = q.Where("public = ?", true).Where("date >= ?", from)
	}
	var rows []models.ProductionScheduleEntry
	err := q.Order("date ASC").Order("created_at ASC").Find(&rows).Error
	return rows, err
}

func (r *repository) CreateSlot(ctx context.Context, slot *models.DeliverySlot) (*models.DeliverySlot, error) {
	if err := r.db.WithContext(ctx).Create(slot).Error; err != nil {
		return nil, err
	}
	return slot, nil
}

func (r *repository) ListSlots(ctx context.Context, producerID uuid.UUID, from time.Time) ([]models.DeliverySlot, error) {
	var rows []models.DeliverySlot
	err := r.db.WithContext(ctx).
		Where("producer_id = ? AND ends_at >= ?", producerID, from).
		Order("starts_at ASC").
		Find(&rows).Error
	return rows, err
}
