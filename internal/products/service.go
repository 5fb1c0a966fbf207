package products

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/matthieuvidal/fermelink-backend/pkg/db/models"
	"github.com/matthieuvidal/fermelink-backend/pkg/enums"
	pkgerrors "github.com/matthieuvidal/fermelink-backend/pkg/errors"
	"github.com/matthieuvidal/fermelink-backend/pkg/outbox"
	"github.com/matthieuvidal/fermelink-backend/pkg/outbox/payloads"
	"github.com/matthieuvidal/fermelink-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service covers producer listing management, the explicit stock write path,
// production schedules, and delivery slots.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*View, error)
	Update(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, productID uuid.UUID, input UpdateInput) (*View, error)
	Delete(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, productID uuid.UUID) error
	Get(ctx context.Context, productID uuid.UUID) (*View, error)
	List(ctx context.Context, params pagination.Params, filters Filters) (*List, error)
	UpdateStock(ctx context.Context, input StockUpdateInput) (*View, error)
	AppendSchedule(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, productID uuid.UUID, entries []ScheduleEntryInput) ([]models.ProductionScheduleEntry, error)
	GetSchedule(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, productID uuid.UUID) ([]models.ProductionScheduleEntry, error)
	CreateSlot(ctx context.Context, input SlotCreateInput) (*models.DeliverySlot, error)
	ListSlots(ctx context.Context, producerID uuid.UUID) ([]models.DeliverySlot, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

// NewService builds a products service with the required dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outboxSvc}, nil
}

// ShouldAlert reports whether the product's stock sits at or below its alert
// threshold. The absolute threshold wins; the percentage one needs a known
// max stock to be meaningful.
func ShouldAlert(product *models.Product) bool {
	if product.AlertThreshold != nil && product.Stock <= *product.AlertThreshold {
		return true
	}
	if product.AlertThresholdPct != nil && product.MaxStockQty != nil && *product.MaxStockQty > 0 {
		threshold := (*product.MaxStockQty * *product.AlertThresholdPct) / 100
		if product.Stock <= threshold {
			return true
		}
	}
	return false
}

// effectiveThreshold resolves the numeric threshold reported in alert events.
func effectiveThreshold(product *models.Product) int {
	if product.AlertThreshold != nil {
		return *product.AlertThreshold
	}
	if product.AlertThresholdPct != nil && product.MaxStockQty != nil {
		return (*product.MaxStockQty * *product.AlertThresholdPct) / 100
	}
	return 0
}

func (s *service) Create(ctx context.Context, input CreateInput) (*View, error) {
	if input.ProducerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "producer identity missing")
	}
	if err := validateListing(input.Name, input.Price, input.MinOrderQty, input.AlertThresholdPct, input.Stock); err != nil {
		return nil, err
	}

	product := &models.Product{
		ProducerID:        input.ProducerID,
		Name:              input.Name,
		Description:       input.Description,
		Unit:              input.Unit,
		Price:             input.Price,
		Stock:             input.Stock,
		Available:         input.Available,
		AcceptDeferred:    input.AcceptDeferred,
		MinOrderQty:       input.MinOrderQty,
		AlertThreshold:    input.AlertThreshold,
		AlertThresholdPct: input.AlertThresholdPct,
		MaxStockQty:       input.MaxStockQty,
	}
	if product.Unit == "" {
		product.Unit = enums.ProductUnitPiece
	}
	if product.MinOrderQty <= 0 {
		product.MinOrderQty = 1
	}

	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return s.view(created), nil
}

func (s *service) Update(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, productID uuid.UUID, input UpdateInput) (*View, error) {
	product, err := s.loadOwned(ctx, s.repo, actorID, actorRole, productID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		product.Name = *input.Name
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.Unit != nil {
		product.Unit = *input.Unit
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.Available != nil {
		product.Available = *input.Available
	}
	if input.AcceptDeferred != nil {
		product.AcceptDeferred = *input.AcceptDeferred
	}
	if input.MinOrderQty != nil {
		product.MinOrderQty = *input.MinOrderQty
	}
	if input.AlertThreshold != nil {
		product.AlertThreshold = input.AlertThreshold
	}
	if input.AlertThresholdPct != nil {
		product.AlertThresholdPct = input.AlertThresholdPct
	}
	if input.MaxStockQty != nil {
		product.MaxStockQty = input.MaxStockQty
	}

	if err := validateListing(product.Name, product.Price, product.MinOrderQty, product.AlertThresholdPct, product.Stock); err != nil {
		return nil, err
	}

	saved, err := s.repo.Save(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return s.view(saved), nil
}

func (s *service) Delete(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, productID uuid.UUID) error {
	if _, err := s.loadOwned(ctx, s.repo, actorID, actorRole, productID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	return nil
}

func (s *service) Get(ctx context.Context, productID uuid.UUID) (*View, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.repo.Find(ctx, productID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return s.view(product), nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters Filters) (*List, error) {
	rows, nextCursor, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	views := make([]View, 0, len(rows))
	for i := range rows {
		views = append(views, *s.view(&rows[i]))
	}
	return &List{Products: views, NextCursor: nextCursor}, nil
}

// UpdateStock is the only write path for stock. The alert event fires once,
// when the write crosses into alert territory, not on every low-stock save.
func (s *service) UpdateStock(ctx context.Context, input StockUpdateInput) (*View, error) {
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}

	var result *View
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		product, err := s.loadOwned(ctx, repo, input.ActorUserID, input.ActorRole, input.ProductID)
		if err != nil {
			return err
		}

		wasAlerting := ShouldAlert(product)
		product.Stock = input.Stock
		saved, err := repo.Save(ctx, product)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update stock")
		}

		if !wasAlerting && ShouldAlert(saved) {
			event := outbox.DomainEvent{
				EventType:     enums.OutboxEventStockBelowThreshold,
				AggregateType: enums.OutboxAggregateProduct,
				AggregateID:   saved.ID,
				Version:       1,
				Actor:         &outbox.ActorRef{UserID: input.ActorUserID, Role: string(input.ActorRole)},
				Data: payloads.StockAlertEvent{
					ProductID:   saved.ID,
					ProducerID:  saved.ProducerID,
					ProductName: saved.Name,
					Stock:       saved.Stock,
					Threshold:   effectiveThreshold(saved),
				},
			}
			if err := s.outbox.Emit(ctx, tx, event); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue stock alert")
			}
		}

		result = s.view(saved)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) AppendSchedule(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, productID uuid.UUID, entries []ScheduleEntryInput) ([]models.ProductionScheduleEntry, error) {
	if len(entries) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one schedule entry required")
	}
	if _, err := s.loadOwned(ctx, s.repo, actorID, actorRole, productID); err != nil {
		return nil, err
	}

	rows := make([]models.ProductionScheduleEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.Date.IsZero() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "schedule entry date required")
		}
		if entry.PlannedQty < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "planned quantity cannot be negative")
		}
		rows = append(rows, models.ProductionScheduleEntry{
			ProductID:  productID,
			Date:       entry.Date,
			PlannedQty: entry.PlannedQty,
			Public:     entry.Public,
			Note:       entry.Note,
		})
	}

	if err := s.repo.AppendSchedule(ctx, rows); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append production schedule")
	}
	return rows, nil
}

// GetSchedule returns every entry to the owning producer and admins, and only
// future public entries to everyone else.
func (s *service) GetSchedule(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, productID uuid.UUID) ([]models.ProductionScheduleEntry, error) {
	product, err := s.repo.Find(ctx, productID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	seesAll := actorRole == enums.UserRoleAdmin ||
		(actorRole == enums.UserRoleProducer && product.ProducerID == actorID)

	rows, err := s.repo.ListSchedule(ctx, productID, !seesAll, time.Now().UTC().Truncate(24*time.Hour))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list production schedule")
	}
	return rows, nil
}

func (s *service) CreateSlot(ctx context.Context, input SlotCreateInput) (*models.DeliverySlot, error) {
	if input.ProducerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "producer identity missing")
	}
	if input.Capacity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slot capacity must be positive")
	}
	if input.StartsAt.IsZero() || input.EndsAt.IsZero() || !input.EndsAt.After(input.StartsAt) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slot window must end after it starts")
	}
	if input.Price != nil && input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slot price cannot be negative")
	}
	if input.ProductID != nil {
		product, err := s.repo.Find(ctx, *input.ProductID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if product.ProducerID != input.ProducerID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "slot product belongs to another producer")
		}
	}

	slot := &models.DeliverySlot{
		ProducerID: input.ProducerID,
		ProductID:  input.ProductID,
		StartsAt:   input.StartsAt,
		EndsAt:     input.EndsAt,
		Capacity:   input.Capacity,
		Price:      input.Price,
		Location:   input.Location,
	}
	created, err := s.repo.CreateSlot(ctx, slot)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create delivery slot")
	}
	return created, nil
}

func (s *service) ListSlots(ctx context.Context, producerID uuid.UUID) ([]models.DeliverySlot, error) {
	if producerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "producer id required")
	}
	rows, err := s.repo.ListSlots(ctx, producerID, time.Now().UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list delivery slots")
	}
	return rows, nil
}

func (s *service) view(product *models.Product) *View {
	return &View{Product: *product, ShouldAlert: ShouldAlert(product)}
}

func (s *service) loadOwned(ctx context.Context, repo Repository, actorID uuid.UUID, actorRole enums.UserRole, productID uuid.UUID) (*models.Product, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := repo.Find(ctx, productID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if actorRole != enums.UserRoleAdmin && product.ProducerID != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "product belongs to another producer")
	}
	return product, nil
}

func validateListing(name string, price decimal.Decimal, minOrderQty int, alertPct *int, stock int) error {
	if name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product name required")
	}
	if price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if minOrderQty < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "min order quantity cannot be negative")
	}
	if stock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	if alertPct != nil && (*alertPct < 0 || *alertPct > 100) {
		return pkgerrors.New(pkgerrors.CodeValidation, "alert threshold percent must be between 0 and 100")
	}
	return nil
}
