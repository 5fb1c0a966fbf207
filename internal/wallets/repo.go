package wallets

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/matthieuvidal/fermelink-backend/pkg/db/models"
	"github.com/matthieuvidal/fermelink-backend/pkg/pagination"
)

// Repository defines persistence operations for wallet tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByProducer(ctx context.Context, producerID uuid.UUID) (*models.Wallet, error)
	EnsureWallet(ctx context.Context, producerID uuid.UUID) (*models.Wallet, error)
	ApplyCredit(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) error
	ApplyRelease(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) error
	DebitAvailableCAS(ctx context.Context, producerID uuid.UUID, amount decimal.Decimal) (*models.Wallet, bool, error)
	SettleWithdrawal(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) error
	RefundWithdrawal(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) error
	CreateEntry(ctx context.Context, entry *models.WalletEntry) (bool, error)
	ListEntries(ctx context.Context, walletID uuid.UUID, params pagination.Params) (*EntryList, error)
	CreateWithdrawal(ctx context.Context, withdrawal *models.Withdrawal) (*models.Withdrawal, error)
	FindWithdrawal(ctx context.Context, withdrawalID uuid.UUID) (*models.Withdrawal, error)
	UpdateWithdrawal(ctx context.Context, withdrawalID uuid.UUID, updates map[string]any) error
	ListWithdrawals(ctx context.Context, params pagination.Params, filters WithdrawalFilters) (*WithdrawalList, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a wallets repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByProducer(ctx context.Context, producerID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.WithContext(ctx).Where("producer_id = ?", producerID).First(&wallet).Error
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// EnsureWallet returns the producer wallet, creating an empty one on first
// touch. The insert races are absorbed by the producer_id unique index.
func (r *repository) EnsureWallet(ctx context.Context, producerID uuid.UUID) (*models.Wallet, error) {
	wallet := models.Wallet{ProducerID: producerID}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "producer_id"}}, DoNothing: true}).
		Create(&wallet).Error
	if err != nil {
		return nil, err
	}
	return r.FindByProducer(ctx, producerID)
}

func (r *repository) ApplyCredit(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) error {
	return r.db.WithContext(ctx).Model(&models.Wallet{}).
		Where("id = ?", walletID).
		Updates(map[string]any{
			"pending_balance": gorm.Expr("pending_balance + ?", amount),
			"total_earned":    gorm.Expr("total_earned + ?", amount),
		}).Error
}

func (r *repository) ApplyRelease(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) error {
	return r.db.WithContext(ctx).Model(&models.Wallet{}).
		Where("id = ?", walletID).
		Updates(map[string]any{
			"pending_balance": gorm.Expr("pending_balance - ?", amount),
			"balance":         gorm.Expr("balance + ?", amount),
		}).Error
}

// DebitAvailableCAS reserves a withdrawal amount with a conditional update so
// two concurrent requests cannot both spend the same balance. The boolean is
// false when the guard rejected the debit.
func (r *repository) DebitAvailableCAS(ctx context.Context, producerID uuid.UUID, amount decimal.Decimal) (*models.Wallet, bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Wallet{}).
		Where("producer_id = ? AND balance >= ?", producerID, amount).
		Updates(map[string]any{
			"balance":             gorm.Expr("balance - ?", amount),
			"pending_withdrawals": gorm.Expr("pending_withdrawals + 1"),
		})
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, false, nil
	}
	wallet, err := r.FindByProducer(ctx, producerID)
	if err != nil {
		return nil, false, err
	}
	return wallet, true, nil
}

func (r *repository) SettleWithdrawal(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) error {
	return r.db.WithContext(ctx).Model(&models.Wallet{}).
		Where("id = ?", walletID).
		Updates(map[string]any{
			"total_withdrawn":     gorm.Expr("total_withdrawn + ?", amount),
			"pending_withdrawals": gorm.Expr("pending_withdrawals - 1"),
		}).Error
}

func (r *repository) RefundWithdrawal(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) error {
	return r.db.WithContext(ctx).Model(&models.Wallet{}).
		Where("id = ?", walletID).
		Updates(map[string]any{
			"balance":             gorm.Expr("balance + ?", amount),
			"pending_withdrawals": gorm.Expr("pending_withdrawals - 1"),
		}).Error
}

// CreateEntry appends an audit row. The boolean is false when the
// (wallet, order, type) uniqueness swallowed a duplicate credit. The backing
// index is partial on order_id, so the conflict target must carry the same
// predicate or Postgres refuses to infer it.
func (r *repository) CreateEntry(ctx context.Context, entry *models.WalletEntry) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:     []clause.Column{{Name: "wallet_id"}, {Name: "order_id"}, {Name: "type"}},
			TargetWhere: clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: "order_id IS NOT NULL"}}},
			DoNothing:   true,
		}).
		Create(entry)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) ListEntries(ctx context.Context, walletID uuid.UUID, params pagination.Params) (*EntryList, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	q := r.db.WithContext(ctx).Model(&models.WalletEntry{}).Where("wallet_id = ?", walletID)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		q = q.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.WalletEntry
	err = q.Order("created_at DESC").Order("id DESC").Limit(limit + 1).Find(&rows).Error
	if err != nil {
		return nil, err
	}

	nextCursor := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return &EntryList{Entries: rows, NextCursor: nextCursor}, nil
}

func (r *repository) CreateWithdrawal(ctx context.Context, withdrawal *models.Withdrawal) (*models.Withdrawal, error) {
	if err := r.db.WithContext(ctx).Create(withdrawal).Error; err != nil {
		return nil, err
	}
	return withdrawal, nil
}

func (r *repository) FindWithdrawal(ctx context.Context, withdrawalID uuid.UUID) (*models.Withdrawal, error) {
	var withdrawal models.Withdrawal
	err := r.db.WithContext(ctx).Where("id = ?", withdrawalID).First(&withdrawal).Error
	if err != nil {
		return nil, err
	}
	return &withdrawal, nil
}

func (r *repository) UpdateWithdrawal(ctx context.Context, withdrawalID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.Withdrawal{}).
		Where("id = ?", withdrawalID).
		Updates(updates).Error
}

func (r *repository) ListWithdrawals(ctx context.Context, params pagination.Params, filters WithdrawalFilters) (*WithdrawalList, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	q := r.db.WithContext(ctx).Model(&models.Withdrawal{})
	if filters.Status != nil {
		q = q.Where("status = ?", *filters.Status)
	}
	if filters.ProducerID != nil {
		q = q.Where("producer_id = ?", *filters.ProducerID)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		q = q.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Withdrawal
	err = q.Order("created_at DESC").Order("id DESC").Limit(limit + 1).Find(&rows).Error
	if err != nil {
		return nil, err
	}

	nextCursor := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return &WithdrawalList{Withdrawals: rows, NextCursor: nextCursor}, nil
}
