package wallets

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

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

// Service owns wallet balances, the append-only entry trail, and the
// withdrawal request/decision flow.
type Service interface {
	CreditPending(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, shares map[uuid.UUID]decimal.Decimal) error
	ReleasePending(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, shares map[uuid.UUID]decimal.Decimal) error
	GetWallet(ctx context.Context, producerID uuid.UUID) (*WalletView, error)
	ListEntries(ctx context.Context, producerID uuid.UUID, params pagination.Params) (*EntryList, error)
	RequestWithdrawal(ctx context.Context, input WithdrawalRequestInput) (*models.Withdrawal, error)
	Decide(ctx context.Context, input DecisionInput) (*models.Withdrawal, error)
	ListWithdrawals(ctx context.Context, params pagination.Params, filters WithdrawalFilters) (*WithdrawalList, error)
}

type service struct {
	repo          Repository
	tx            txRunner
	outbox        outboxPublisher
	minWithdrawal decimal.Decimal
}

// NewService builds a wallet service with the required dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, cfg config.WalletConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wallets repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	minWithdrawal, err := cfg.MinWithdrawalAmount()
	if err != nil {
		return nil, fmt.Errorf("invalid minimum withdrawal: %w", err)
	}
	return &service{
		repo:          repo,
		tx:            tx,
		outbox:        outboxSvc,
		minWithdrawal: minWithdrawal,
	}, nil
}

// CreditPending adds each producer's share of the order to their pending
// balance. Runs inside the caller's transaction; a duplicate credit for the
// same order is dropped by the entry uniqueness, keeping repeated
// confirmations idempotent.
func (s *service) CreditPending(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, shares map[uuid.UUID]decimal.Decimal) error {
	return s.applyOrderMovement(ctx, tx, orderID, shares, enums.WalletEntryCreditPending)
}

// ReleasePending moves each producer's share from pending to available once
// the order is delivered.
func (s *service) ReleasePending(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, shares map[uuid.UUID]decimal.Decimal) error {
	return s.applyOrderMovement(ctx, tx, orderID, shares, enums.WalletEntryRelease)
}

func (s *service) applyOrderMovement(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, shares map[uuid.UUID]decimal.Decimal, entryType enums.WalletEntryType) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for wallet movement")
	}
	repo := s.repo.WithTx(tx)

	for producerID, amount := range shares {
		if !amount.IsPositive() {
			continue
		}
		wallet, err := repo.EnsureWallet(ctx, producerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ensure wallet")
		}

		oid := orderID
		inserted, err := repo.CreateEntry(ctx, &models.WalletEntry{
			WalletID: wallet.ID,
			OrderID:  &oid,
			Type:     entryType,
			Amount:   amount,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record wallet entry")
		}
		if !inserted {
			continue
		}

		switch entryType {
		case enums.WalletEntryCreditPending:
			err = repo.ApplyCredit(ctx, wallet.ID, amount)
		case enums.WalletEntryRelease:
			err = repo.ApplyRelease(ctx, wallet.ID, amount)
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply wallet movement")
		}
	}
	return nil
}

func (s *service) GetWallet(ctx context.Context, producerID uuid.UUID) (*WalletView, error) {
	if producerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "producer id required")
	}
	wallet, err := s.repo.EnsureWallet(ctx, producerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wallet")
	}
	return &WalletView{
		WalletID:           wallet.ID,
		ProducerID:         wallet.ProducerID,
		Balance:            wallet.Balance,
		PendingBalance:     wallet.PendingBalance,
		TotalEarned:        wallet.TotalEarned,
		TotalWithdrawn:     wallet.TotalWithdrawn,
		PendingWithdrawals: wallet.PendingWithdrawals,
		UpdatedAt:          wallet.UpdatedAt,
	}, nil
}

func (s *service) ListEntries(ctx context.Context, producerID uuid.UUID, params pagination.Params) (*EntryList, error) {
	wallet, err := s.repo.EnsureWallet(ctx, producerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wallet")
	}
	list, err := s.repo.ListEntries(ctx, wallet.ID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wallet entries")
	}
	return list, nil
}

// RequestWithdrawal reserves the amount out of the available balance with a
// conditional update, then records the pending withdrawal and its debit
// entry, all in one transaction.
func (s *service) RequestWithdrawal(ctx context.Context, input WithdrawalRequestInput) (*models.Withdrawal, error) {
	if input.ProducerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "producer identity missing")
	}
	if input.Amount.LessThan(s.minWithdrawal) {
		return nil, pkgerrors.New(
			pkgerrors.CodeValidation,
			fmt.Sprintf("withdrawal amount must be at least %s", s.minWithdrawal.StringFixed(2)),
		)
	}

	var result *models.Withdrawal
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.EnsureWallet(ctx, input.ProducerID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ensure wallet")
		}

		wallet, ok, err := repo.DebitAvailableCAS(ctx, input.ProducerID, input.Amount)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve withdrawal amount")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeInsufficientFunds, "withdrawal exceeds available balance").
				WithDetails(map[string]any{"requested": input.Amount.StringFixed(2)})
		}

		withdrawal, err := repo.CreateWithdrawal(ctx, &models.Withdrawal{
			WalletID:   wallet.ID,
			ProducerID: input.ProducerID,
			Amount:     input.Amount,
			Status:     enums.WithdrawalStatusPending,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create withdrawal")
		}

		wid := withdrawal.ID
		if _, err := repo.CreateEntry(ctx, &models.WalletEntry{
			WalletID:     wallet.ID,
			WithdrawalID: &wid,
			Type:         enums.WalletEntryWithdrawalDebit,
			Amount:       input.Amount,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record withdrawal debit")
		}

		result = withdrawal
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Decide settles a pending withdrawal. Completion moves the reserved amount
// to total withdrawn; rejection returns it to the available balance. Both
// paths run in one transaction and emit a decision event.
func (s *service) Decide(ctx context.Context, input DecisionInput) (*models.Withdrawal, error) {
	if input.WithdrawalID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "withdrawal id required")
	}
	if input.AdminID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "admin identity missing")
	}
	if input.Decision != WithdrawalDecisionComplete && input.Decision != WithdrawalDecisionReject {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "decision must be complete or reject")
	}

	var result *models.Withdrawal
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		withdrawal, err := repo.FindWithdrawal(ctx, input.WithdrawalID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "withdrawal not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load withdrawal")
		}
		if withdrawal.Status.IsSettled() {
			return pkgerrors.New(pkgerrors.CodeConflict, "withdrawal already decided")
		}

		now := time.Now().UTC()
		status := enums.WithdrawalStatusCompleted
		if input.Decision == WithdrawalDecisionReject {
			status = enums.WithdrawalStatusRejected
		}

		updates := map[string]any{
			"status":     status,
			"decided_by": input.AdminID,
			"decided_at": now,
		}
		if input.Reason != nil {
			updates["reject_reason"] = *input.Reason
		}
		if err := repo.UpdateWithdrawal(ctx, withdrawal.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update withdrawal")
		}

		switch status {
		case enums.WithdrawalStatusCompleted:
			err = repo.SettleWithdrawal(ctx, withdrawal.WalletID, withdrawal.Amount)
		case enums.WithdrawalStatusRejected:
			if err := repo.RefundWithdrawal(ctx, withdrawal.WalletID, withdrawal.Amount); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refund withdrawal")
			}
			wid := withdrawal.ID
			_, err = repo.CreateEntry(ctx, &models.WalletEntry{
				WalletID:     withdrawal.WalletID,
				WithdrawalID: &wid,
				Type:         enums.WalletEntryWithdrawalRefund,
				Amount:       withdrawal.Amount,
			})
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "settle wallet")
		}

		withdrawal.Status = status
		withdrawal.DecidedBy = &input.AdminID
		withdrawal.DecidedAt = &now
		withdrawal.RejectReason = input.Reason
		result = withdrawal

		reason := ""
		if input.Reason != nil {
			reason = *input.Reason
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.OutboxEventWithdrawalDecided,
			AggregateType: enums.OutboxAggregateWithdrawal,
			AggregateID:   withdrawal.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.AdminID, Role: string(enums.UserRoleAdmin)},
			Data: payloads.WithdrawalDecidedEvent{
				WithdrawalID: withdrawal.ID,
				ProducerID:   withdrawal.ProducerID,
				Amount:       withdrawal.Amount,
				Status:       status,
				Reason:       reason,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) ListWithdrawals(ctx context.Context, params pagination.Params, filters WithdrawalFilters) (*WithdrawalList, error) {
	list, err := s.repo.ListWithdrawals(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list withdrawals")
	}
	return list, nil
}
