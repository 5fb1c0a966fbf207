package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/matthieuvidal/fermelink-backend/pkg/db/models"
	"github.com/matthieuvidal/fermelink-backend/pkg/enums"
	"github.com/matthieuvidal/fermelink-backend/pkg/pagination"
)

type orderSeed struct {
	customer  uuid.UUID
	producerA uuid.UUID
	producerB uuid.UUID
	order     *models.Order
}

// seedSplitOrder creates one pending order holding a 2x7.50 item from
// producer A and a 2x5.00 booking from producer B.
func seedSplitOrder(t *testing.T, db *gorm.DB) orderSeed {
	t.Helper()
	seed := orderSeed{
		customer:  uuid.New(),
		producerA: uuid.New(),
		producerB: uuid.New(),
	}

	require.NoError(t, db.Create(&models.User{
		ID:           seed.customer,
		Email:        "client@fermelink.fr",
		PasswordHash: "x",
		FirstName:    "Jeanne",
		LastName:     "Martin",
		Role:         enums.UserRoleClient,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}).Error)

	seed.order = &models.Order{
		ID:        uuid.New(),
		UserID:    seed.customer,
		Status:    enums.OrderStatusPending,
		Total:     decimal.RequireFromString("25.00"),
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, db.Create(seed.order).Error)

	require.NoError(t, db.Create(&models.OrderItem{
		ID:         uuid.New(),
		OrderID:    seed.order.ID,
		ProductID:  uuid.New(),
		ProducerID: seed.producerA,
		Quantity:   2,
		UnitPrice:  decimal.RequireFromString("7.50"),
		CreatedAt:  time.Now().UTC(),
	}).Error)

	require.NoError(t, db.Create(&models.SlotBooking{
		ID:         uuid.New(),
		OrderID:    seed.order.ID,
		SlotID:     uuid.New(),
		ProducerID: seed.producerB,
		Quantity:   2,
		UnitPrice:  decimal.RequireFromString("5.00"),
		CreatedAt:  time.Now().UTC(),
	}).Error)

	return seed
}

func TestRepositoryFindScopedNarrowsByRole(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	seed := seedSplitOrder(t, db)

	// The owner sees everything.
	detail, err := repo.FindScoped(ctx, Scope{Role: enums.UserRoleClient, UserID: seed.customer}, seed.order.ID)
	require.NoError(t, err)
	require.Len(t, detail.Items, 1)
	require.Len(t, detail.Bookings, 1)

	// A producer only sees their own lines.
	detail, err = repo.FindScoped(ctx, Scope{Role: enums.UserRoleProducer, UserID: seed.producerA}, seed.order.ID)
	require.NoError(t, err)
	require.Len(t, detail.Items, 1)
	require.Empty(t, detail.Bookings)

	detail, err = repo.FindScoped(ctx, Scope{Role: enums.UserRoleProducer, UserID: seed.producerB}, seed.order.ID)
	require.NoError(t, err)
	require.Empty(t, detail.Items)
	require.Len(t, detail.Bookings, 1)

	// Uninvolved parties get a not-found, not an empty view.
	_, err = repo.FindScoped(ctx, Scope{Role: enums.UserRoleClient, UserID: uuid.New()}, seed.order.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = repo.FindScoped(ctx, Scope{Role: enums.UserRoleProducer, UserID: uuid.New()}, seed.order.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryListScopesAndHidesDrafts(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	seed := seedSplitOrder(t, db)

	draft := &models.Order{
		ID:        uuid.New(),
		UserID:    seed.customer,
		Status:    enums.OrderStatusDraft,
		CreatedAt: time.Now().UTC().Add(-time.Hour),
	}
	require.NoError(t, db.Create(draft).Error)

	ownerScope := Scope{Role: enums.UserRoleClient, UserID: seed.customer}
	list, err := repo.List(ctx, ownerScope, pagination.Params{}, Filters{})
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)
	require.Equal(t, seed.order.ID, list.Orders[0].ID)

	// Drafts come back when asked for explicitly.
	draftStatus := enums.OrderStatusDraft
	list, err = repo.List(ctx, ownerScope, pagination.Params{}, Filters{Status: &draftStatus})
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)
	require.Equal(t, draft.ID, list.Orders[0].ID)

	// Producer lists carry the customer block and their own line counts.
	producerScope := Scope{Role: enums.UserRoleProducer, UserID: seed.producerB}
	list, err = repo.List(ctx, producerScope, pagination.Params{}, Filters{})
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)
	require.NotNil(t, list.Orders[0].Customer)
	require.Equal(t, "client@fermelink.fr", list.Orders[0].Customer.Email)
	require.Equal(t, 0, list.Orders[0].ItemCount)
	require.Equal(t, 1, list.Orders[0].BookingCount)

	// Outsiders see nothing.
	list, err = repo.List(ctx, Scope{Role: enums.UserRoleProducer, UserID: uuid.New()}, pagination.Params{}, Filters{})
	require.NoError(t, err)
	require.Empty(t, list.Orders)
}

func TestRepositoryProducerSharesExcludeDeliveryFee(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	seed := seedSplitOrder(t, db)

	shares, err := repo.ProducerShares(ctx, seed.order.ID)
	require.NoError(t, err)
	require.Len(t, shares, 2)
	require.True(t, shares[seed.producerA].Equal(decimal.RequireFromString("15.00")),
		"producer A share %s", shares[seed.producerA])
	require.True(t, shares[seed.producerB].Equal(decimal.RequireFromString("10.00")),
		"producer B share %s", shares[seed.producerB])
}

func TestRepositoryHasProducerProduct(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	seed := seedSplitOrder(t, db)

	involved, err := repo.HasProducerProduct(ctx, seed.order.ID, seed.producerA)
	require.NoError(t, err)
	require.True(t, involved)

	// Booking-only producers count as involved too.
	involved, err = repo.HasProducerProduct(ctx, seed.order.ID, seed.producerB)
	require.NoError(t, err)
	require.True(t, involved)

	involved, err = repo.HasProducerProduct(ctx, seed.order.ID, uuid.New())
	require.NoError(t, err)
	require.False(t, involved)
}
