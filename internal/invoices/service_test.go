package invoices

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/matthieuvidal/fermelink-backend/internal/orders"
	"github.com/matthieuvidal/fermelink-backend/pkg/config"
	"github.com/matthieuvidal/fermelink-backend/pkg/db/models"
	"github.com/matthieuvidal/fermelink-backend/pkg/enums"
	pkgerrors "github.com/matthieuvidal/fermelink-backend/pkg/errors"
	"github.com/matthieuvidal/fermelink-backend/pkg/outbox"
	"github.com/matthieuvidal/fermelink-backend/pkg/pagination"
)

type stubInvoiceRepo struct {
	invoices map[uuid.UUID]*models.Invoice
	updates  []map[string]any
	pastDue  []models.Invoice
}

func newStubInvoiceRepo() *stubInvoiceRepo {
	return &stubInvoiceRepo{invoices: map[uuid.UUID]*models.Invoice{}}
}

func (s *stubInvoiceRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubInvoiceRepo) Create(ctx context.Context, invoice *models.Invoice) (*models.Invoice, error) {
	invoice.ID = uuid.New()
	s.invoices[invoice.ID] = invoice
	return invoice, nil
}

func (s *stubInvoiceRepo) Find(ctx context.Context, invoiceID uuid.UUID) (*models.Invoice, error) {
	invoice, ok := s.invoices[invoiceID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *invoice
	return &copied, nil
}

func (s *stubInvoiceRepo) FindByOrder(ctx context.Context, orderID uuid.UUID) (*models.Invoice, error) {
	for _, invoice := range s.invoices {
		if invoice.OrderID == orderID {
			return invoice, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubInvoiceRepo) Update(ctx context.Context, invoiceID uuid.UUID, updates map[string]any) error {
	s.updates = append(s.updates, updates)
	if invoice, ok := s.invoices[invoiceID]; ok {
		if status, ok := updates["status"].(enums.InvoiceStatus); ok {
			invoice.Status = status
		}
	}
	return nil
}

func (s *stubInvoiceRepo) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*List, error) {
	return &List{}, nil
}

func (s *stubInvoiceRepo) FindPendingPastDue(ctx context.Context, cutoff time.Time) ([]models.Invoice, error) {
	return s.pastDue, nil
}

type stubOrderRepo struct {
	orders       map[uuid.UUID]*models.Order
	updates      []map[string]any
	statusWrites []enums.OrderStatus
	involved     bool
	shares       map[uuid.UUID]decimal.Decimal
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{
		orders:   map[uuid.UUID]*models.Order{},
		involved: true,
		shares:   map[uuid.UUID]decimal.Decimal{},
	}
}

func (s *stubOrderRepo) WithTx(tx *gorm.DB) orders.Repository { return s }

func (s *stubOrderRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	s.orders[order.ID] = order
	return order, nil
}

func (s *stubOrderRepo) FindProducts(ctx context.Context, productIDs []uuid.UUID) ([]models.Product, error) {
	return nil, nil
}

func (s *stubOrderRepo) FindSlots(ctx context.Context, slotIDs []uuid.UUID) ([]models.DeliverySlot, error) {
	return nil, nil
}

func (s *stubOrderRepo) Find(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, ok := s.orders[orderID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *order
	return &copied, nil
}

func (s *stubOrderRepo) FindScoped(ctx context.Context, scope orders.Scope, orderID uuid.UUID) (*orders.Detail, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrderRepo) List(ctx context.Context, scope orders.Scope, params pagination.Params, filters orders.Filters) (*orders.List, error) {
	return &orders.List{}, nil
}

func (s *stubOrderRepo) UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error {
	s.statusWrites = append(s.statusWrites, status)
	if order, ok := s.orders[orderID]; ok {
		order.Status = status
	}
	return nil
}

func (s *stubOrderRepo) Update(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	s.updates = append(s.updates, updates)
	if order, ok := s.orders[orderID]; ok {
		if status, ok := updates["status"].(enums.OrderStatus); ok {
			order.Status = status
		}
	}
	return nil
}

func (s *stubOrderRepo) ProducerIDs(ctx context.Context, orderID uuid.UUID) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(s.shares))
	for id := range s.shares {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *stubOrderRepo) ProducerShares(ctx context.Context, orderID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	return s.shares, nil
}

func (s *stubOrderRepo) HasProducerProduct(ctx context.Context, orderID, producerID uuid.UUID) (bool, error) {
	return s.involved, nil
}

func (s *stubOrderRepo) FindByStatusBefore(ctx context.Context, status enums.OrderStatus, cutoff time.Time) ([]models.Order, error) {
	return nil, nil
}

func (s *stubOrderRepo) CreatePaymentIntent(ctx context.Context, intent *models.PaymentIntent) (*models.PaymentIntent, error) {
	return intent, nil
}

func (s *stubOrderRepo) UpdatePaymentIntent(ctx context.Context, intentID uuid.UUID, updates map[string]any) error {
	return nil
}

func (s *stubOrderRepo) FindPaymentIntentByOrder(ctx context.Context, orderID uuid.UUID) (*models.PaymentIntent, error) {
	return nil, gorm.ErrRecordNotFound
}

type stubLedger struct {
	credits map[uuid.UUID]map[uuid.UUID]decimal.Decimal
}

func newStubLedger() *stubLedger {
	return &stubLedger{credits: map[uuid.UUID]map[uuid.UUID]decimal.Decimal{}}
}

func (s *stubLedger) CreditPending(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, shares map[uuid.UUID]decimal.Decimal) error {
	s.credits[orderID] = shares
	return nil
}

func (s *stubLedger) ReleasePending(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, shares map[uuid.UUID]decimal.Decimal) error {
	return nil
}

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type testEnv struct {
	svc      Service
	invoices *stubInvoiceRepo
	orders   *stubOrderRepo
	ledger   *stubLedger
	events   *stubOutbox
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		invoices: newStubInvoiceRepo(),
		orders:   newStubOrderRepo(),
		ledger:   newStubLedger(),
		events:   &stubOutbox{},
	}
	svc, err := NewService(env.invoices, env.orders, env.ledger, stubTx{}, env.events, config.InvoiceConfig{DueDays: 30})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	env.svc = svc
	return env
}

func (e *testEnv) seedInvoiceWithOrder(orderStatus enums.OrderStatus) (*models.Invoice, *models.Order) {
	order := &models.Order{
		ID:     uuid.New(),
		UserID: uuid.New(),
		Status: orderStatus,
		Total:  decimal.RequireFromString("40.00"),
	}
	e.orders.orders[order.ID] = order

	invoice := &models.Invoice{
		ID:      uuid.New(),
		OrderID: order.ID,
		UserID:  order.UserID,
		Amount:  order.Total,
		Status:  enums.InvoiceStatusPending,
		DueDate: time.Now().UTC().AddDate(0, 0, 30),
	}
	e.invoices.invoices[invoice.ID] = invoice
	return invoice, order
}

func TestMarkPaidForbidsClients(t *testing.T) {
	env := newTestEnv(t)
	invoice, _ := env.seedInvoiceWithOrder(enums.OrderStatusInvoicePending)

	_, err := env.svc.MarkPaid(context.Background(), MarkPaidInput{
		InvoiceID:   invoice.ID,
		ActorUserID: uuid.New(),
		ActorRole:   enums.UserRoleClient,
	})
	if err == nil {
		t.Fatal("expected forbidden")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestMarkPaidForbidsUninvolvedProducer(t *testing.T) {
	env := newTestEnv(t)
	env.orders.involved = false
	invoice, _ := env.seedInvoiceWithOrder(enums.OrderStatusInvoicePending)

	_, err := env.svc.MarkPaid(context.Background(), MarkPaidInput{
		InvoiceID:   invoice.ID,
		ActorUserID: uuid.New(),
		ActorRole:   enums.UserRoleProducer,
	})
	if err == nil {
		t.Fatal("expected forbidden")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if len(env.invoices.updates) != 0 {
		t.Fatal("rejected mark-paid must not touch the invoice")
	}
}

func TestMarkPaidSettlesInvoiceAndCreditsWallets(t *testing.T) {
	env := newTestEnv(t)
	producerID := uuid.New()
	env.orders.shares = map[uuid.UUID]decimal.Decimal{
		producerID: decimal.RequireFromString("25.00"),
	}
	invoice, order := env.seedInvoiceWithOrder(enums.OrderStatusInvoicePending)

	paid, err := env.svc.MarkPaid(context.Background(), MarkPaidInput{
		InvoiceID:   invoice.ID,
		ActorUserID: uuid.New(),
		ActorRole:   enums.UserRoleAdmin,
	})
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if paid.Status != enums.InvoiceStatusPaid {
		t.Fatalf("expected paid invoice, got %s", paid.Status)
	}
	if paid.PaymentMethod == nil || *paid.PaymentMethod != enums.PaymentMethodBankTransfer {
		t.Fatalf("expected bank_transfer default, got %v", paid.PaymentMethod)
	}
	if env.orders.orders[order.ID].Status != enums.OrderStatusInvoicePaid {
		t.Fatalf("expected order in invoice_paid, got %s", env.orders.orders[order.ID].Status)
	}
	credited, ok := env.ledger.credits[order.ID]
	if !ok {
		t.Fatal("producer wallets were not credited")
	}
	if !credited[producerID].Equal(decimal.RequireFromString("25.00")) {
		t.Fatalf("unexpected credited share %s", credited[producerID])
	}
	if len(env.events.events) != 1 || env.events.events[0].EventType != enums.OutboxEventInvoicePaid {
		t.Fatalf("expected invoice.paid event, got %+v", env.events.events)
	}
}

func TestMarkPaidConfirmsPendingOrder(t *testing.T) {
	env := newTestEnv(t)
	env.orders.shares = map[uuid.UUID]decimal.Decimal{uuid.New(): decimal.NewFromInt(10)}
	invoice, order := env.seedInvoiceWithOrder(enums.OrderStatusPending)

	_, err := env.svc.MarkPaid(context.Background(), MarkPaidInput{
		InvoiceID:   invoice.ID,
		ActorUserID: uuid.New(),
		ActorRole:   enums.UserRoleAdmin,
	})
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if env.orders.orders[order.ID].Status != enums.OrderStatusConfirmed {
		t.Fatalf("expected confirmed order, got %s", env.orders.orders[order.ID].Status)
	}
}

func TestMarkPaidTwiceConflicts(t *testing.T) {
	env := newTestEnv(t)
	env.orders.shares = map[uuid.UUID]decimal.Decimal{uuid.New(): decimal.NewFromInt(10)}
	invoice, _ := env.seedInvoiceWithOrder(enums.OrderStatusInvoicePending)

	input := MarkPaidInput{
		InvoiceID:   invoice.ID,
		ActorUserID: uuid.New(),
		ActorRole:   enums.UserRoleAdmin,
	}
	if _, err := env.svc.MarkPaid(context.Background(), input); err != nil {
		t.Fatalf("first mark paid: %v", err)
	}

	_, err := env.svc.MarkPaid(context.Background(), input)
	if err == nil {
		t.Fatal("expected conflict on second mark paid")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestIssueForOrderRequiresTransaction(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.IssueForOrder(context.Background(), nil, &models.Order{ID: uuid.New()})
	if err == nil {
		t.Fatal("expected error without transaction")
	}
}

func TestIssueForOrderEmitsIssuedEvent(t *testing.T) {
	env := newTestEnv(t)
	order := &models.Order{
		ID:     uuid.New(),
		UserID: uuid.New(),
		Total:  decimal.RequireFromString("40.00"),
	}

	invoice, err := env.svc.IssueForOrder(context.Background(), &gorm.DB{}, order)
	if err != nil {
		t.Fatalf("issue invoice: %v", err)
	}
	if invoice.Status != enums.InvoiceStatusPending {
		t.Fatalf("expected pending invoice, got %s", invoice.Status)
	}
	if !invoice.Amount.Equal(order.Total) {
		t.Fatalf("invoice amount %s does not match order total %s", invoice.Amount, order.Total)
	}
	if len(env.events.events) != 1 || env.events.events[0].EventType != enums.OutboxEventInvoiceIssued {
		t.Fatalf("expected invoice.issued event, got %+v", env.events.events)
	}
}

func TestSweepOverdueFlipsPendingInvoices(t *testing.T) {
	env := newTestEnv(t)

	first, firstOrder := env.seedInvoiceWithOrder(enums.OrderStatusInvoicePending)
	second, secondOrder := env.seedInvoiceWithOrder(enums.OrderStatusShipped)
	env.invoices.pastDue = []models.Invoice{*first, *second}

	flipped, err := env.svc.SweepOverdue(context.Background(), time.Now().UTC())
	if err != nil {
		t.Fatalf("sweep overdue: %v", err)
	}
	if flipped != 2 {
		t.Fatalf("expected 2 flipped invoices, got %d", flipped)
	}
	if env.invoices.invoices[first.ID].Status != enums.InvoiceStatusOverdue {
		t.Fatal("first invoice should be overdue")
	}
	// Only orders still waiting on the invoice move lanes.
	if env.orders.orders[firstOrder.ID].Status != enums.OrderStatusInvoiceOverdue {
		t.Fatalf("expected invoice_overdue order, got %s", env.orders.orders[firstOrder.ID].Status)
	}
	if env.orders.orders[secondOrder.ID].Status != enums.OrderStatusShipped {
		t.Fatalf("shipped order must keep its status, got %s", env.orders.orders[secondOrder.ID].Status)
	}
	if len(env.events.events) != 2 {
		t.Fatalf("expected one event per invoice, got %d", len(env.events.events))
	}
	for _, event := range env.events.events {
		if event.EventType != enums.OutboxEventInvoiceOverdue {
			t.Fatalf("unexpected event %s", event.EventType)
		}
	}
}
