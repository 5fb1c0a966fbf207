package invoices

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/matthieuvidal/fermelink-backend/internal/orders"
	"github.com/matthieuvidal/fermelink-backend/pkg/config"
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

// Service owns the invoice lifecycle: issuance at placement, the mark-paid
// settlement, and the overdue sweep.
type Service interface {
	IssueForOrder(ctx context.Context, tx *gorm.DB, order *models.Order) (*models.Invoice, error)
	MarkPaid(ctx context.Context, input MarkPaidInput) (*models.Invoice, error)
	Get(ctx context.Context, actorID uuid.UUID, role enums.UserRole, invoiceID uuid.UUID) (*models.Invoice, error)
	ListMine(ctx context.Context, userID uuid.UUID, params pagination.Params) (*List, error)
	SweepOverdue(ctx context.Context, now time.Time) (int, error)
}

type service struct {
	repo      Repository
	orderRepo orders.Repository
	wallets   orders.WalletLedger
	tx        txRunner
	outbox    outboxPublisher
	dueDays   int
}

// NewService builds an invoice service with the required dependencies.
func NewService(repo Repository, orderRepo orders.Repository, wallets orders.WalletLedger, tx txRunner, outboxSvc outboxPublisher, cfg config.InvoiceConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("invoices repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if wallets == nil {
		return nil, fmt.Errorf("wallet ledger required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	dueDays := cfg.DueDays
	if dueDays <= 0 {
		dueDays = 30
	}
	return &service{
		repo:      repo,
		orderRepo: orderRepo,
		wallets:   wallets,
		tx:        tx,
		outbox:    outboxSvc,
		dueDays:   dueDays,
	}, nil
}

// IssueForOrder creates the pending invoice for a deferred-payment order.
// Runs inside the placement transaction.
func (s *service) IssueForOrder(ctx context.Context, tx *gorm.DB, order *models.Order) (*models.Invoice, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required for invoice issuance")
	}
	repo := s.repo.WithTx(tx)

	dueDate := time.Now().UTC().AddDate(0, 0, s.dueDays)
	invoice, err := repo.Create(ctx, &models.Invoice{
		OrderID: order.ID,
		UserID:  order.UserID,
		Amount:  order.Total,
		Status:  enums.InvoiceStatusPending,
		DueDate: dueDate,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create invoice")
	}

	err = s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.OutboxEventInvoiceIssued,
		AggregateType: enums.OutboxAggregateInvoice,
		AggregateID:   invoice.ID,
		Version:       1,
		Data: payloads.InvoiceIssuedEvent{
			InvoiceID: invoice.ID,
			OrderID:   order.ID,
			UserID:    order.UserID,
			Amount:    invoice.Amount,
			DueDate:   invoice.DueDate,
		},
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

// MarkPaid settles an invoice. Invoice status, order metadata, order status,
// and the producer wallet credits all commit in one transaction; a repeated
// call fails with a conflict, and the wallet entry uniqueness keeps the
// credit single even across lanes.
func (s *service) MarkPaid(ctx context.Context, input MarkPaidInput) (*models.Invoice, error) {
	if input.InvoiceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice id required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.ActorRole != enums.UserRoleAdmin && input.ActorRole != enums.UserRoleProducer {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role cannot mark invoices paid")
	}
	if input.PaymentMethod != "" && !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}

	var result *models.Invoice
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		orderRepo := s.orderRepo.WithTx(tx)

		invoice, err := repo.Find(ctx, input.InvoiceID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invoice")
		}
		if invoice.Status == enums.InvoiceStatusPaid {
			return pkgerrors.New(pkgerrors.CodeConflict, "invoice already paid")
		}

		if input.ActorRole == enums.UserRoleProducer {
			involved, err := orderRepo.HasProducerProduct(ctx, invoice.OrderID, input.ActorUserID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check producer involvement")
			}
			if !involved {
				return pkgerrors.New(pkgerrors.CodeForbidden, "order contains none of your products")
			}
		}

		order, err := orderRepo.Find(ctx, invoice.OrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		now := time.Now().UTC()
		method := input.PaymentMethod
		if method == "" {
			method = enums.PaymentMethodBankTransfer
		}

		if err := repo.Update(ctx, invoice.ID, map[string]any{
			"status":         enums.InvoiceStatusPaid,
			"paid_at":        now,
			"payment_method": method,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update invoice")
		}

		meta := order.Meta
		meta.PaymentStatus = enums.PaymentStatusPaid

		orderUpdates := map[string]any{"meta": meta}
		var nextStatus enums.OrderStatus
		switch order.Status {
		case enums.OrderStatusPending:
			nextStatus = enums.OrderStatusConfirmed
		case enums.OrderStatusInvoicePending, enums.OrderStatusInvoiceOverdue:
			nextStatus = enums.OrderStatusInvoicePaid
		}
		if nextStatus != "" {
			orderUpdates["status"] = nextStatus
		}
		if err := orderRepo.Update(ctx, order.ID, orderUpdates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
		}

		producerIDs := []uuid.UUID{}
		if nextStatus != "" {
			shares, err := orderRepo.ProducerShares(ctx, order.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "compute producer shares")
			}
			if err := s.wallets.CreditPending(ctx, tx, order.ID, shares); err != nil {
				return err
			}
			for producerID := range shares {
				producerIDs = append(producerIDs, producerID)
			}
		} else {
			producerIDs, err = orderRepo.ProducerIDs(ctx, order.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "collect producer ids")
			}
		}

		invoice.Status = enums.InvoiceStatusPaid
		invoice.PaidAt = &now
		invoice.PaymentMethod = &method
		result = invoice

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.OutboxEventInvoicePaid,
			AggregateType: enums.OutboxAggregateInvoice,
			AggregateID:   invoice.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ActorUserID, Role: string(input.ActorRole)},
			Data: payloads.InvoicePaidEvent{
				InvoiceID:   invoice.ID,
				OrderID:     order.ID,
				UserID:      order.UserID,
				Amount:      invoice.Amount,
				Method:      method,
				PaidAt:      now,
				ProducerIDs: producerIDs,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) Get(ctx context.Context, actorID uuid.UUID, role enums.UserRole, invoiceID uuid.UUID) (*models.Invoice, error) {
	if invoiceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice id required")
	}
	invoice, err := s.repo.Find(ctx, invoiceID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invoice")
	}

	switch role {
	case enums.UserRoleAdmin:
	case enums.UserRoleProducer:
		involved, err := s.orderRepo.HasProducerProduct(ctx, invoice.OrderID, actorID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check producer involvement")
		}
		if !involved {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order contains none of your products")
		}
	default:
		if invoice.UserID != actorID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "invoice belongs to another user")
		}
	}
	return invoice, nil
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID, params pagination.Params) (*List, error) {
	list, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list invoices")
	}
	return list, nil
}

// SweepOverdue flips pending invoices past their due date to overdue, moves
// their orders to the overdue lane, and emits one event per invoice. Each
// invoice settles in its own transaction so one failure does not hold back
// the rest.
func (s *service) SweepOverdue(ctx context.Context, now time.Time) (int, error) {
	pastDue, err := s.repo.FindPendingPastDue(ctx, now)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find overdue invoices")
	}

	flipped := 0
	for _, invoice := range pastDue {
		invoice := invoice
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			orderRepo := s.orderRepo.WithTx(tx)

			if err := repo.Update(ctx, invoice.ID, map[string]any{
				"status": enums.InvoiceStatusOverdue,
			}); err != nil {
				return err
			}

			order, err := orderRepo.Find(ctx, invoice.OrderID)
			if err != nil {
				return err
			}
			if order.Status == enums.OrderStatusInvoicePending {
				if err := orderRepo.UpdateStatus(ctx, order.ID, enums.OrderStatusInvoiceOverdue); err != nil {
					return err
				}
			}

			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.OutboxEventInvoiceOverdue,
				AggregateType: enums.OutboxAggregateInvoice,
				AggregateID:   invoice.ID,
				Version:       1,
				Data: payloads.InvoiceOverdueEvent{
					InvoiceID: invoice.ID,
					OrderID:   invoice.OrderID,
					UserID:    invoice.UserID,
					DueDate:   invoice.DueDate,
				},
			})
		})
		if err != nil {
			return flipped, err
		}
		flipped++
	}
	return flipped, nil
}
