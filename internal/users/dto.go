package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/matthieuvidal/fermelink-backend/pkg/db/models"
	"github.com/matthieuvidal/fermelink-backend/pkg/enums"
	"github.com/matthieuvidal/fermelink-backend/pkg/types"
)

// View is the transport shape that omits credentials.
type View struct {
	ID          uuid.UUID      `json:"id"`
	Email       string         `json:"email"`
	FirstName   string         `json:"first_name"`
	LastName    string         `json:"last_name"`
	Phone       *string        `json:"phone,omitempty"`
	Role        enums.UserRole `json:"role"`
	IsActive    bool           `json:"is_active"`
	LastLoginAt *time.Time     `json:"last_login_at,omitempty"`
	Producer    *ProducerView  `json:"producer,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// ProducerView is the farm profile attached to producer accounts.
type ProducerView struct {
	FarmName    string         `json:"farm_name"`
	Description *string        `json:"description,omitempty"`
	Address     *types.Address `json:"address,omitempty"`
	Siret       *string        `json:"siret,omitempty"`
}

// UpdateInput patches a user from the admin panel. Nil fields stay untouched.
type UpdateInput struct {
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,min=1,max=100"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,min=1,max=100"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=30"`
	IsActive  *bool   `json:"is_active,omitempty"`
	Password  *string `json:"password,omitempty" validate:"omitempty,min=8,max=128"`
}

// Filters narrow the admin user listing.
type Filters struct {
	Role     *enums.UserRole `json:"role,omitempty"`
	IsActive *bool           `json:"is_active,omitempty"`
	Query    string          `json:"q,omitempty"`
}

// List is one page of users.
type List struct {
	Users      []View `json:"users"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// FromModel builds a View without the producer profile.
func FromModel(u *models.User) *View {
	if u == nil {
		return nil
	}
	return &View{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Phone:       u.Phone,
		Role:        u.Role,
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
