package users

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/matthieuvidal/fermelink-backend/pkg/db/models"
	"github.com/matthieuvidal/fermelink-backend/pkg/pagination"
)

// Repository exposes user persistence plus the producer cascade removal.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Save(ctx context.Context, user *models.User) (*models.User, error)
	List(ctx context.Context, params pagination.Params, filters Filters) ([]models.User, string, error)
	FindProducerProfile(ctx context.Context, userID uuid.UUID) (*models.ProducerProfile, error)
	DeleteProducerGraph(ctx context.Context, userID uuid.UUID) error
	DeleteUser(ctx context.Context, userID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) Save(ctx context.Context, user *models.User) (*models.User, error) {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (r *repository) List(ctx context.Context, params pagination.Params, filters Filters) ([]models.User, string, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	q := r.db.WithContext(ctx).Model(&models.User{})
	if filters.Role != nil {
		q = q.Where("role = ?", *filters.Role)
	}
	if filters.IsActive != nil {
		q = q.Where("is_active = ?", *filters.IsActive)
	}
	if search := strings.TrimSpace(filters.Query); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where(
			"LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?",
			like, like, like,
		)
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

	var rows []models.User
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

func (r *repository) FindProducerProfile(ctx context.Context, userID uuid.UUID) (*models.ProducerProfile, error) {
	var profile models.ProducerProfile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// DeleteProducerGraph removes everything a producer account owns, in
// dependency order so no statement hits a row another one still references.
// Must run inside the caller's transaction together with DeleteUser.
func (r *repository) DeleteProducerGraph(ctx context.Context, userID uuid.UUID) error {
	db := r.db.WithContext(ctx)

	statements := []struct {
		query string
		args  []any
	}{
		{"DELETE FROM slot_bookings WHERE producer_id = ?", []any{userID}},
		{"DELETE FROM delivery_slots WHERE producer_id = ?", []any{userID}},
		{"DELETE FROM production_schedule_entries WHERE product_id IN (SELECT id FROM products WHERE producer_id = ?)", []any{userID}},
		{"DELETE FROM products WHERE producer_id = ?", []any{userID}},
		{"DELETE FROM withdrawals WHERE producer_id = ?", []any{userID}},
		{"DELETE FROM wallet_entries WHERE wallet_id IN (SELECT id FROM wallets WHERE producer_id = ?)", []any{userID}},
		{"DELETE FROM wallets WHERE producer_id = ?", []any{userID}},
		{"DELETE FROM producer_profiles WHERE user_id = ?", []any{userID}},
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt.query, stmt.args...).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Exec("DELETE FROM notifications WHERE user_id = ?", userID).Error; err != nil {
		return err
	}
	return db.Where("id = ?", userID).Delete(&models.User{}).Error
}
