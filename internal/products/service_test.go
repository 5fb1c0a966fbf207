package products

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/matthieuvidal/fermelink-backend/pkg/db/models"
	"github.com/matthieuvidal/fermelink-backend/pkg/enums"
	pkgerrors "github.com/matthieuvidal/fermelink-backend/pkg/errors"
	"github.com/matthieuvidal/fermelink-backend/pkg/outbox"
	"github.com/matthieuvidal/fermelink-backend/pkg/pagination"
)

type stubRepo struct {
	products       map[uuid.UUID]*models.Product
	schedule       []models.ProductionScheduleEntry
	slots          []models.DeliverySlot
	lastPublicOnly *bool
}

func newStubRepo(seed ...*models.Product) *stubRepo {
	repo := &stubRepo{products: map[uuid.UUID]*models.Product{}}
	for _, p := range seed {
		repo.products[p.ID] = p
	}
	return repo
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) Create(_ context.Context, product *models.Product) (*models.Product, error) {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	s.products[product.ID] = product
	return product, nil
}

func (s *stubRepo) Find(_ context.Context, id uuid.UUID) (*models.Product, error) {
	product, ok := s.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *product
	return &copied, nil
}

func (s *stubRepo) Save(_ context.Context, product *models.Product) (*models.Product, error) {
	s.products[product.ID] = product
	return product, nil
}

func (s *stubRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(s.products, id)
	return nil
}

func (s *stubRepo) List(_ context.Context, _ pagination.Params, _ Filters) ([]models.Product, string, error) {
	rows := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		rows = append(rows, *p)
	}
	return rows, "", nil
}

func (s *stubRepo) AppendSchedule(_ context.Context, entries []models.ProductionScheduleEntry) error {
	s.schedule = append(s.schedule, entries...)
	return nil
}

func (s *stubRepo) ListSchedule(_ context.Context, productID uuid.UUID, publicOnly bool, from time.Time) ([]models.ProductionScheduleEntry, error) {
	s.lastPublicOnly = &publicOnly
	var rows []models.ProductionScheduleEntry
	for _, entry := range s.schedule {
		if entry.ProductID != productID {
			continue
		}
		if publicOnly && (!entry.Public || entry.Date.Before(from)) {
			continue
		}
		rows = append(rows, entry)
	}
	return rows, nil
}

func (s *stubRepo) CreateSlot(_ context.Context, slot *models.DeliverySlot) (*models.DeliverySlot, error) {
	if slot.ID == uuid.Nil {
		slot.ID = uuid.New()
	}
	s.slots = append(s.slots, *slot)
	return slot, nil
}

func (s *stubRepo) ListSlots(_ context.Context, producerID uuid.UUID, _ time.Time) ([]models.DeliverySlot, error) {
	var rows []models.DeliverySlot
	for _, slot := range s.slots {
		if slot.ProducerID == producerID {
			rows = append(rows, slot)
		}
	}
	return rows, nil
}

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

func intPtr(v int) *int { return &v }

func newTestService(t *testing.T, repo Repository) (Service, *stubOutbox) {
	t.Helper()
	events := &stubOutbox{}
	svc, err := NewService(repo, stubTx{}, events)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, events
}

func TestShouldAlert(t *testing.T) {
	base := models.Product{Stock: 10}
	if ShouldAlert(&base) {
		t.Fatal("no thresholds configured, expected no alert")
	}

	absolute := base
	absolute.AlertThreshold = intPtr(10)
	if !ShouldAlert(&absolute) {
		t.Fatal("stock at threshold should alert")
	}

	percent := base
	percent.AlertThresholdPct = intPtr(20)
	percent.MaxStockQty = intPtr(100)
	percent.Stock = 20
	if !ShouldAlert(&percent) {
		t.Fatal("stock at 20 percent of max should alert")
	}
	percent.Stock = 21
	if ShouldAlert(&percent) {
		t.Fatal("stock above percent threshold should not alert")
	}
}

func TestUpdateStockEmitsAlertOnceOnCrossing(t *testing.T) {
	producerID := uuid.New()
	product := &models.Product{
		ID:             uuid.New(),
		ProducerID:     producerID,
		Name:           "Tomates anciennes",
		Price:          decimal.NewFromInt(4),
		Stock:          50,
		AlertThreshold: intPtr(5),
	}
	repo := newStubRepo(product)
	svc, events := newTestService(t, repo)

	view, err := svc.UpdateStock(context.Background(), StockUpdateInput{
		ProductID:   product.ID,
		ActorUserID: producerID,
		ActorRole:   enums.UserRoleProducer,
		Stock:       3,
	})
	if err != nil {
		t.Fatalf("update stock: %v", err)
	}
	if !view.ShouldAlert {
		t.Fatal("expected should_alert after crossing threshold")
	}
	if len(events.events) != 1 {
		t.Fatalf("expected 1 alert event, got %d", len(events.events))
	}
	if events.events[0].EventType != enums.OutboxEventStockBelowThreshold {
		t.Fatalf("unexpected event type %s", events.events[0].EventType)
	}

	// Already below threshold, a further decrease must not re-alert.
	if _, err := svc.UpdateStock(context.Background(), StockUpdateInput{
		ProductID:   product.ID,
		ActorUserID: producerID,
		ActorRole:   enums.UserRoleProducer,
		Stock:       2,
	}); err != nil {
		t.Fatalf("second update: %v", err)
	}
	if len(events.events) != 1 {
		t.Fatalf("expected no second alert, got %d events", len(events.events))
	}
}

func TestUpdateStockRejectsForeignProducer(t *testing.T) {
	product := &models.Product{
		ID:         uuid.New(),
		ProducerID: uuid.New(),
		Name:       "Miel de lavande",
		Price:      decimal.NewFromInt(8),
		Stock:      12,
	}
	repo := newStubRepo(product)
	svc, _ := newTestService(t, repo)

	_, err := svc.UpdateStock(context.Background(), StockUpdateInput{
		ProductID:   product.ID,
		ActorUserID: uuid.New(),
		ActorRole:   enums.UserRoleProducer,
		Stock:       1,
	})
	if err == nil {
		t.Fatal("expected forbidden error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestUpdateStockRejectsNegative(t *testing.T) {
	svc, _ := newTestService(t, newStubRepo())
	_, err := svc.UpdateStock(context.Background(), StockUpdateInput{
		ProductID:   uuid.New(),
		ActorUserID: uuid.New(),
		ActorRole:   enums.UserRoleProducer,
		Stock:       -1,
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateRejectsNegativePrice(t *testing.T) {
	svc, _ := newTestService(t, newStubRepo())
	_, err := svc.Create(context.Background(), CreateInput{
		ProducerID: uuid.New(),
		Name:       "Oeufs plein air",
		Price:      decimal.NewFromInt(-1),
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateDefaultsUnitAndMinQty(t *testing.T) {
	svc, _ := newTestService(t, newStubRepo())
	view, err := svc.Create(context.Background(), CreateInput{
		ProducerID: uuid.New(),
		Name:       "Fromage de chèvre",
		Price:      decimal.NewFromInt(6),
		Available:  true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if view.Product.Unit != enums.ProductUnitPiece {
		t.Fatalf("expected default unit piece, got %s", view.Product.Unit)
	}
	if view.Product.MinOrderQty != 1 {
		t.Fatalf("expected default min order qty 1, got %d", view.Product.MinOrderQty)
	}
}

func TestGetScheduleVisibility(t *testing.T) {
	producerID := uuid.New()
	product := &models.Product{
		ID:         uuid.New(),
		ProducerID: producerID,
		Name:       "Cidre fermier",
		Price:      decimal.NewFromInt(5),
	}
	repo := newStubRepo(product)
	svc, _ := newTestService(t, repo)

	future := time.Now().AddDate(0, 0, 7)
	entries := []ScheduleEntryInput{
		{Date: future, PlannedQty: 40, Public: true},
		{Date: future.AddDate(0, 0, 1), PlannedQty: 10, Public: false},
	}
	if _, err := svc.AppendSchedule(context.Background(), producerID, enums.UserRoleProducer, product.ID, entries); err != nil {
		t.Fatalf("append schedule: %v", err)
	}

	mine, err := svc.GetSchedule(context.Background(), producerID, enums.UserRoleProducer, product.ID)
	if err != nil {
		t.Fatalf("owner schedule: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("owner should see all entries, got %d", len(mine))
	}
	if repo.lastPublicOnly == nil || *repo.lastPublicOnly {
		t.Fatal("owner read should not be restricted to public entries")
	}

	public, err := svc.GetSchedule(context.Background(), uuid.New(), enums.UserRoleClient, product.ID)
	if err != nil {
		t.Fatalf("client schedule: %v", err)
	}
	if len(public) != 1 || !public[0].Public {
		t.Fatalf("client should see only public future entries, got %+v", public)
	}
}

func TestAppendScheduleRejectsForeignProducer(t *testing.T) {
	product := &models.Product{
		ID:         uuid.New(),
		ProducerID: uuid.New(),
		Name:       "Pain au levain",
		Price:      decimal.NewFromInt(4),
	}
	svc, _ := newTestService(t, newStubRepo(product))

	_, err := svc.AppendSchedule(context.Background(), uuid.New(), enums.UserRoleProducer, product.ID, []ScheduleEntryInput{
		{Date: time.Now(), PlannedQty: 10},
	})
	if err == nil {
		t.Fatal("expected forbidden error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestCreateSlotValidatesWindow(t *testing.T) {
	svc, _ := newTestService(t, newStubRepo())
	starts := time.Now().Add(24 * time.Hour)

	_, err := svc.CreateSlot(context.Background(), SlotCreateInput{
		ProducerID: uuid.New(),
		StartsAt:   starts,
		EndsAt:     starts.Add(-time.Hour),
		Capacity:   10,
	})
	if err == nil {
		t.Fatal("expected validation error for inverted window")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateSlotRejectsForeignProduct(t *testing.T) {
	product := &models.Product{
		ID:         uuid.New(),
		ProducerID: uuid.New(),
		Name:       "Confiture de fraises",
		Price:      decimal.NewFromInt(5),
	}
	svc, _ := newTestService(t, newStubRepo(product))
	starts := time.Now().Add(24 * time.Hour)

	_, err := svc.CreateSlot(context.Background(), SlotCreateInput{
		ProducerID: uuid.New(),
		ProductID:  &product.ID,
		StartsAt:   starts,
		EndsAt:     starts.Add(2 * time.Hour),
		Capacity:   10,
	})
	if err == nil {
		t.Fatal("expected forbidden error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}
