package orders

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

// WalletLedger applies the order-driven wallet movements inside the caller's
// transaction. Credits land on pending balances, releases move pending to
// available.
type WalletLedger interface {
	CreditPending(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, shares map[uuid.UUID]decimal.Decimal) error
	ReleasePending(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, shares map[uuid.UUID]decimal.Decimal) error
}

// InvoiceIssuer creates the invoice row when a deferred-payment order is
// placed.
type InvoiceIssuer interface {
	IssueForOrder(ctx context.Context, tx *gorm.DB, order *models.Order) (*models.Invoice, error)
}

// Service defines order-level operations beyond repository reads.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*Detail, error)
	ChangeStatus(ctx context.Context, input StatusChangeInput) (*models.Order, error)
	Get(ctx context.Context, scope Scope, orderID uuid.UUID) (*Detail, error)
	List(ctx context.Context, scope Scope, params pagination.Params, filters Filters) (*List, error)
	Summary(ctx context.Context, scope Scope, orderID uuid.UUID) (*TotalsSummary, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	outbox   outboxPublisher
	wallets  WalletLedger
	invoices InvoiceIssuer
}

// NewService builds an order service with the required dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, wallets WalletLedger, invoices InvoiceIssuer) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if wallets == nil {
		return nil, fmt.Errorf("wallet ledger required")
	}
	if invoices == nil {
		return nil, fmt.Errorf("invoice issuer required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		outbox:   outboxSvc,
		wallets:  wallets,
		invoices: invoices,
	}, nil
}

// allowedTransitions is the lifecycle graph. Deferred-payment orders take the
// invoice lane at placement and rejoin the fulfillment lane once paid.
var allowedTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusDraft:          {enums.OrderStatusPending, enums.OrderStatusInvoicePending, enums.OrderStatusCancelled},
	enums.OrderStatusPending:        {enums.OrderStatusConfirmed, enums.OrderStatusCancelled},
	enums.OrderStatusInvoicePending: {enums.OrderStatusInvoicePaid, enums.OrderStatusInvoiceOverdue, enums.OrderStatusCancelled},
	enums.OrderStatusInvoiceOverdue: {enums.OrderStatusInvoicePaid, enums.OrderStatusCancelled},
	enums.OrderStatusConfirmed:      {enums.OrderStatusShipped, enums.OrderStatusCancelled},
	enums.OrderStatusInvoicePaid:    {enums.OrderStatusShipped, enums.OrderStatusCancelled},
	enums.OrderStatusShipped:        {enums.OrderStatusDelivered},
}

// apiRequestableStatuses are the targets the status endpoint accepts. The
// invoice lane statuses only move via mark-paid and the overdue sweep.
var apiRequestableStatuses = map[enums.OrderStatus]bool{
	enums.OrderStatusPending:   true,
	enums.OrderStatusConfirmed: true,
	enums.OrderStatusShipped:   true,
	enums.OrderStatusDelivered: true,
	enums.OrderStatusCancelled: true,
}

// CanTransition reports whether the lifecycle graph permits from -> to.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

func (s *service) ChangeStatus(ctx context.Context, input StatusChangeInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !apiRequestableStatuses[input.Target] {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("status %s cannot be requested directly", input.Target))
	}

	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.Find(ctx, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		target := input.Target
		// Placing a deferred-payment order routes to the invoice lane.
		if target == enums.OrderStatusPending && order.Meta.PaymentMethod.IsDeferred() {
			target = enums.OrderStatusInvoicePending
		}

		if err := s.authorizeTransition(ctx, repo, order, input); err != nil {
			return err
		}
		if order.Status == target {
			result = order
			return nil
		}
		if !CanTransition(order.Status, target) {
			return pkgerrors.New(
				pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot transition order from %s to %s", order.Status, target),
			)
		}

		if err := repo.UpdateStatus(ctx, order.ID, target); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		order.Status = target

		// Wallet hooks run inside the same transaction as the status write.
		switch target {
		case enums.OrderStatusConfirmed:
			if err := s.creditProducers(ctx, repo, tx, order); err != nil {
				return err
			}
		case enums.OrderStatusDelivered:
			if err := s.releaseProducers(ctx, repo, tx, order); err != nil {
				return err
			}
		case enums.OrderStatusInvoicePending:
			if _, err := s.invoices.IssueForOrder(ctx, tx, order); err != nil {
				return err
			}
		}

		result = order
		return s.emitStatusEvent(ctx, tx, repo, order, input)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) authorizeTransition(ctx context.Context, repo Repository, order *models.Order, input StatusChangeInput) error {
	if input.ActorRole == enums.UserRoleAdmin {
		return nil
	}

	isOwner := order.UserID == input.ActorUserID
	switch input.Target {
	case enums.OrderStatusPending:
		if !isOwner {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the order owner can place it")
		}
		return nil
	case enums.OrderStatusCancelled:
		if isOwner {
			// Owners may cancel until a producer has confirmed.
			switch order.Status {
			case enums.OrderStatusDraft, enums.OrderStatusPending, enums.OrderStatusInvoicePending, enums.OrderStatusInvoiceOverdue:
				return nil
			}
		}
	}

	if input.ActorRole != enums.UserRoleProducer {
		return pkgerrors.New(pkgerrors.CodeForbidden, "role cannot change order status")
	}
	involved, err := repo.HasProducerProduct(ctx, order.ID, input.ActorUserID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check producer involvement")
	}
	if !involved {
		return pkgerrors.New(pkgerrors.CodeForbidden, "order contains none of your products")
	}
	return nil
}

func (s *service) creditProducers(ctx context.Context, repo Repository, tx *gorm.DB, order *models.Order) error {
	shares, err := repo.ProducerShares(ctx, order.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "compute producer shares")
	}
	return s.wallets.CreditPending(ctx, tx, order.ID, shares)
}

func (s *service) releaseProducers(ctx context.Context, repo Repository, tx *gorm.DB, order *models.Order) error {
	shares, err := repo.ProducerShares(ctx, order.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "compute producer shares")
	}
	return s.wallets.ReleasePending(ctx, tx, order.ID, shares)
}

func (s *service) emitStatusEvent(ctx context.Context, tx *gorm.DB, repo Repository, order *models.Order, input StatusChangeInput) error {
	producerIDs, err := repo.ProducerIDs(ctx, order.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "collect producer ids")
	}

	actor := &outbox.ActorRef{UserID: input.ActorUserID, Role: string(input.ActorRole)}

	var event outbox.DomainEvent
	switch order.Status {
	case enums.OrderStatusPending, enums.OrderStatusInvoicePending:
		event = outbox.DomainEvent{
			EventType:     enums.OutboxEventOrderPlaced,
			AggregateType: enums.OutboxAggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         actor,
			Data: payloads.OrderPlacedEvent{
				OrderID:     order.ID,
				UserID:      order.UserID,
				Total:       order.Total,
				Method:      order.Meta.PaymentMethod,
				ProducerIDs: producerIDs,
			},
		}
	default:
		eventType, ok := statusEventTypes[order.Status]
		if !ok {
			return nil
		}
		event = outbox.DomainEvent{
			EventType:     eventType,
			AggregateType: enums.OutboxAggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         actor,
			Data: payloads.OrderStatusEvent{
				OrderID:     order.ID,
				UserID:      order.UserID,
				Status:      order.Status,
				ProducerIDs: producerIDs,
				ChangedAt:   time.Now().UTC(),
			},
		}
	}
	return s.outbox.Emit(ctx, tx, event)
}

var statusEventTypes = map[enums.OrderStatus]enums.OutboxEventType{
	enums.OrderStatusConfirmed: enums.OutboxEventOrderConfirmed,
	enums.OrderStatusShipped:   enums.OutboxEventOrderShipped,
	enums.OrderStatusDelivered: enums.OutboxEventOrderDelivered,
	enums.OrderStatusCancelled: enums.OutboxEventOrderCancelled,
}

func (s *service) Get(ctx context.Context, scope Scope, orderID uuid.UUID) (*Detail, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	detail, err := s.repo.FindScoped(ctx, scope, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return detail, nil
}

func (s *service) List(ctx context.Context, scope Scope, params pagination.Params, filters Filters) (*List, error) {
	list, err := s.repo.List(ctx, scope, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

func (s *service) Summary(ctx context.Context, scope Scope, orderID uuid.UUID) (*TotalsSummary, error) {
	detail, err := s.Get(ctx, scope, orderID)
	if err != nil {
		return nil, err
	}

	itemsSubtotal := decimal.Zero
	for _, item := range detail.Items {
		itemsSubtotal = itemsSubtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	bookingSubtotal := decimal.Zero
	for _, booking := range detail.Bookings {
		bookingSubtotal = bookingSubtotal.Add(booking.UnitPrice.Mul(decimal.NewFromInt(int64(booking.Quantity))))
	}

	summary := &TotalsSummary{
		OrderID:         detail.Order.ID,
		Status:          detail.Order.Status,
		ItemsSubtotal:   itemsSubtotal,
		BookingSubtotal: bookingSubtotal,
		DeliveryFee:     decimal.Zero,
		Total:           detail.Order.Total,
	}
	if fees := detail.Order.Meta.Fees; fees != nil {
		f := *fees
		summary.Fees = &f
		summary.DeliveryFee = fees.DeliveryFee
	}
	return summary, nil
}
