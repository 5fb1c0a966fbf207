package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/matthieuvidal/fermelink-backend/pkg/config"
	"github.com/matthieuvidal/fermelink-backend/pkg/db/models"
	"github.com/matthieuvidal/fermelink-backend/pkg/enums"
	pkgerrors "github.com/matthieuvidal/fermelink-backend/pkg/errors"
	"github.com/matthieuvidal/fermelink-backend/pkg/pagination"
	"github.com/matthieuvidal/fermelink-backend/pkg/security"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service backs the admin user management endpoints.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*View, error)
	List(ctx context.Context, params pagination.Params, filters Filters) (*List, error)
	Update(ctx context.Context, actorID, userID uuid.UUID, input UpdateInput) (*View, error)
	Delete(ctx context.Context, actorID, userID uuid.UUID) error
}

type service struct {
	repo     Repository
	tx       txRunner
	password config.PasswordConfig
}

// NewService builds a users service with the required dependencies.
func NewService(repo Repository, tx txRunner, password config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, password: password}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*View, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.buildView(ctx, user)
}

func (s *service) List(ctx context.Context, params pagination.Params, filters Filters) (*List, error) {
	rows, nextCursor, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	views := make([]View, 0, len(rows))
	for i := range rows {
		views = append(views, *FromModel(&rows[i]))
	}
	return &List{Users: views, NextCursor: nextCursor}, nil
}

func (s *service) Update(ctx context.Context, actorID, userID uuid.UUID, input UpdateInput) (*View, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if email == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "email cannot be empty")
		}
		if email != user.Email {
			existing, err := s.repo.FindByEmail(ctx, email)
			if err != nil && err != gorm.ErrRecordNotFound {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check email uniqueness")
			}
			if existing != nil && existing.ID != user.ID {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already in use")
			}
			user.Email = email
		}
	}
	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if input.Phone != nil {
		user.Phone = input.Phone
	}
	if input.IsActive != nil {
		if !*input.IsActive && user.ID == actorID {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cannot deactivate your own account")
		}
		user.IsActive = *input.IsActive
	}
	if input.Password != nil {
		hash, err := security.HashPassword(*input.Password, s.password)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "hash password")
		}
		user.PasswordHash = hash
	}

	saved, err := s.repo.Save(ctx, user)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user")
	}
	return s.buildView(ctx, saved)
}

// Delete removes the account. Producer accounts drag their whole ownership
// graph with them, inside one transaction, so no orphaned rows survive.
func (s *service) Delete(ctx context.Context, actorID, userID uuid.UUID) error {
	user, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	if user.ID == actorID {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "cannot delete your own account")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if user.Role == enums.UserRoleProducer {
			if err := repo.DeleteProducerGraph(ctx, user.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete producer data")
			}
		}
		if err := repo.DeleteUser(ctx, user.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete user")
		}
		return nil
	})
}

func (s *service) load(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

func (s *service) buildView(ctx context.Context, user *models.User) (*View, error) {
	view := FromModel(user)
	if user.Role != enums.UserRoleProducer {
		return view, nil
	}
	profile, err := s.repo.FindProducerProfile(ctx, user.ID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return view, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load producer profile")
	}
	view.Producer = &ProducerView{
		FarmName:    profile.FarmName,
		Description: profile.Description,
		Address:     profile.Address,
		Siret:       profile.Siret,
	}
	return view, nil
}
