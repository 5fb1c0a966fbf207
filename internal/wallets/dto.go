package wallets

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/matthieuvidal/fermelink-backend/pkg/db/models"
	"github.com/matthieuvidal/fermelink-backend/pkg/enums"
)

// WithdrawalDecision is the action an admin can take on a payout request.
type WithdrawalDecision string

const (
	WithdrawalDecisionComplete WithdrawalDecision = "complete"
	WithdrawalDecisionReject   WithdrawalDecision = "reject"
)

// WithdrawalRequestInput captures a producer payout request.
type WithdrawalRequestInput struct {
	ProducerID uuid.UUID
	Amount     decimal.Decimal
}

// DecisionInput captures the admin resolution of a withdrawal.
type DecisionInput struct {
	WithdrawalID uuid.UUID
	Decision     WithdrawalDecision
	AdminID      uuid.UUID
	Reason       *string
}

// WithdrawalFilters narrow the admin withdrawal queue.
type WithdrawalFilters struct {
	Status     *enums.WithdrawalStatus
	ProducerID *uuid.UUID
}

// WithdrawalList wraps the paginated withdrawals plus the next cursor.
type WithdrawalList struct {
	Withdrawals []models.Withdrawal `json:"withdrawals"`
	NextCursor  string              `json:"next_cursor,omitempty"`
}

// EntryList wraps the paginated wallet entries plus the next cursor.
type EntryList struct {
	Entries    []models.WalletEntry `json:"entries"`
	NextCursor string               `json:"next_cursor,omitempty"`
}

// WalletView is the producer wallet read model.
type WalletView struct {
	WalletID           uuid.UUID       `json:"wallet_id"`
	ProducerID         uuid.UUID       `json:"producer_id"`
	Balance            decimal.Decimal `json:"balance"`
	PendingBalance     decimal.Decimal `json:"pending_balance"`
	TotalEarned        decimal.Decimal `json:"total_earned"`
	TotalWithdrawn     decimal.Decimal `json:"total_withdrawn"`
	PendingWithdrawals int             `json:"pending_withdrawals"`
	UpdatedAt          time.Time       `json:"updated_at"`
}
