package orders

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/matthieuvidal/fermelink-backend/pkg/db/models"
	"github.com/matthieuvidal/fermelink-backend/pkg/enums"
	"github.com/matthieuvidal/fermelink-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindProducts(ctx context.Context, productIDs []uuid.UUID) ([]models.Product, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	var products []models.Product
	err := r.db.WithContext(ctx).Where("id IN ?", productIDs).Find(&products).Error
	return products, err
}

func (r *repository) FindSlots(ctx context.Context, slotIDs []uuid.UUID) ([]models.DeliverySlot, error) {
	if len(slotIDs) == 0 {
		return nil, nil
	}
	var slots []models.DeliverySlot
	err := r.db.WithContext(ctx).Where("id IN ?", slotIDs).Find(&slots).Error
	return slots, err
}

func (r *repository) Find(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Bookings").
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// scopedQuery applies the role visibility rules to an orders query.
func (r *repository) scopedQuery(ctx context.Context, scope Scope) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Order{})
	switch {
	case scope.IsAdmin():
		return q
	case scope.IsProducer():
		return q.Where(
			"EXISTS (SELECT 1 FROM order_items oi WHERE oi.order_id = orders.id AND oi.producer_id = ?)"+
				" OR EXISTS (SELECT 1 FROM slot_bookings sb WHERE sb.order_id = orders.id AND sb.producer_id = ?)",
			scope.UserID, scope.UserID,
		)
	default:
		return q.Where("orders.user_id = ?", scope.UserID)
	}
}

func (r *repository) FindScoped(ctx context.Context, scope Scope, orderID uuid.UUID) (*Detail, error) {
	var order models.Order
	if err := r.scopedQuery(ctx, scope).Where("orders.id = ?", orderID).First(&order).Error; err != nil {
		return nil, err
	}

	itemsQ := r.db.WithContext(ctx).Where("order_id = ?", orderID)
	bookingsQ := r.db.WithContext(ctx).Where("order_id = ?", orderID)
	if scope.IsProducer() {
		itemsQ = itemsQ.Where("producer_id = ?", scope.UserID)
		bookingsQ = bookingsQ.Where("producer_id = ?", scope.UserID)
	}

	var items []models.OrderItem
	if err := itemsQ.Order("created_at ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	var bookings []models.SlotBooking
	if err := bookingsQ.Order("created_at ASC").Find(&bookings).Error; err != nil {
		return nil, err
	}

	return &Detail{Order: order, Items: items, Bookings: bookings}, nil
}

func (r *repository) List(ctx context.Context, scope Scope, params pagination.Params, filters Filters) (*List, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	q := r.scopedQuery(ctx, scope)

	if filters.Status != nil {
		q = q.Where("orders.status = ?", *filters.Status)
	} else {
		// Drafts are working copies, hidden unless explicitly requested.
		q = q.Where("orders.status <> ?", enums.OrderStatusDraft)
	}
	if filters.DateFrom != nil {
		q = q.Where("orders.created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		q = q.Where("orders.created_at <= ?", *filters.DateTo)
	}
	if query := strings.TrimSpace(filters.Query); query != "" {
		like := "%" + strings.ToLower(query) + "%"
		q = q.Joins("JOIN users cu ON cu.id = orders.user_id").
			Where(
				"LOWER(CAST(orders.id AS TEXT)) LIKE ?"+
					" OR LOWER(cu.first_name) LIKE ? OR LOWER(cu.last_name) LIKE ? OR LOWER(cu.email) LIKE ?",
				like, like, like, like,
			)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		q = q.Where(
			"orders.created_at < ? OR (orders.created_at = ? AND orders.id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Order
	err = q.Order("orders.created_at DESC").
		Order("orders.id DESC").
		Limit(limit + 1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	nextCursor := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	summaries, err := r.buildSummaries(ctx, scope, rows)
	if err != nil {
		return nil, err
	}

	return &List{Orders: summaries, NextCursor: nextCursor}, nil
}

func (r *repository) buildSummaries(ctx context.Context, scope Scope, rows []models.Order) ([]Summary, error) {
	summaries := make([]Summary, 0, len(rows))
	if len(rows) == 0 {
		return summaries, nil
	}

	orderIDs := make([]uuid.UUID, 0, len(rows))
	userIDs := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		orderIDs = append(orderIDs, row.ID)
		userIDs = append(userIDs, row.UserID)
	}

	itemCounts, err := r.countByOrder(ctx, scope, &models.OrderItem{}, orderIDs)
	if err != nil {
		return nil, err
	}
	bookingCounts, err := r.countByOrder(ctx, scope, &models.SlotBooking{}, orderIDs)
	if err != nil {
		return nil, err
	}

	customers := map[uuid.UUID]CustomerSummary{}
	if scope.Role != enums.UserRoleClient {
		var users []models.User
		if err := r.db.WithContext(ctx).Where("id IN ?", userIDs).Find(&users).Error; err != nil {
			return nil, err
		}
		for _, u := range users {
			customers[u.ID] = CustomerSummary{
				ID:        u.ID,
				FirstName: u.FirstName,
				LastName:  u.LastName,
				Email:     u.Email,
			}
		}
	}

	for _, row := range rows {
		summary := Summary{
			ID:           row.ID,
			Status:       row.Status,
			Total:        row.Total,
			ItemCount:    itemCounts[row.ID],
			BookingCount: bookingCounts[row.ID],
			CreatedAt:    row.CreatedAt,
		}
		if customer, ok := customers[row.UserID]; ok {
			c := customer
			summary.Customer = &c
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (r *repository) countByOrder(ctx context.Context, scope Scope, model any, orderIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	type countRow struct {
		OrderID uuid.UUID
		N       int
	}
	q := r.db.WithContext(ctx).Model(model).
		Select("order_id, COUNT(*) AS n").
		Where("order_id IN ?", orderIDs)
	if scope.IsProducer() {
		q = q.Where("producer_id = ?", scope.UserID)
	}
	var rows []countRow
	if err := q.Group("order_id").Find(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[uuid.UUID]int, len(rows))
	for _, row := range rows {
		counts[row.OrderID] = row.N
	}
	return counts, nil
}

func (r *repository) UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error {
	return r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("status", status).Error
}

func (r *repository) Update(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(updates).Error
}

func (r *repository) ProducerIDs(ctx context.Context, orderID uuid.UUID) ([]uuid.UUID, error) {
	shares, err := r.ProducerShares(ctx, orderID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(shares))
	for id := range shares {
		ids = append(ids, id)
	}
	return ids, nil
}

// ProducerShares sums each producer's take across items and bookings. The
// delivery fee is excluded, it belongs to the platform.
func (r *repository) ProducerShares(ctx context.Context, orderID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	shares := map[uuid.UUID]decimal.Decimal{}

	var items []models.OrderItem
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Find(&items).Error; err != nil {
		return nil, err
	}
	for _, item := range items {
		amount := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		shares[item.ProducerID] = shares[item.ProducerID].Add(amount)
	}

	var bookings []models.SlotBooking
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Find(&bookings).Error; err != nil {
		return nil, err
	}
	for _, booking := range bookings {
		amount := booking.UnitPrice.Mul(decimal.NewFromInt(int64(booking.Quantity)))
		shares[booking.ProducerID] = shares[booking.ProducerID].Add(amount)
	}

	return shares, nil
}

func (r *repository) HasProducerProduct(ctx context.Context, orderID, producerID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.OrderItem{}).
		Where("order_id = ? AND producer_id = ?", orderID, producerID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}
	err = r.db.WithContext(ctx).Model(&models.SlotBooking{}).
		Where("order_id = ? AND producer_id = ?", orderID, producerID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) FindByStatusBefore(ctx context.Context, status enums.OrderStatus, cutoff time.Time) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", status, cutoff).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) CreatePaymentIntent(ctx context.Context, intent *models.PaymentIntent) (*models.PaymentIntent, error) {
	if err := r.db.WithContext(ctx).Create(intent).Error; err != nil {
		return nil, err
	}
	return intent, nil
}

func (r *repository) UpdatePaymentIntent(ctx context.Context, intentID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.PaymentIntent{}).
		Where("id = ?", intentID).
		Updates(updates).Error
}

func (r *repository) FindPaymentIntentByOrder(ctx context.Context, orderID uuid.UUID) (*models.PaymentIntent, error) {
	var intent models.PaymentIntent
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		First(&intent).Error
	if err != nil {
		return nil, err
	}
	return &intent, nil
}
