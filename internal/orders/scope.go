package orders

import (
	"github.com/google/uuid"

	"github.com/matthieuvidal/fermelink-backend/pkg/enums"
)

// Scope is the single place order visibility rules live. Every read path
// (list, detail, summary) goes through it so the role filters cannot drift
// between endpoints.
type Scope struct {
	Role   enums.UserRole
	UserID uuid.UUID
}

// IsAdmin reports whether the scope sees all orders unfiltered.
func (s Scope) IsAdmin() bool {
	return s.Role == enums.UserRoleAdmin
}

// IsProducer reports whether item and booking lists must be narrowed to the
// actor's own products.
func (s Scope) IsProducer() bool {
	return s.Role == enums.UserRoleProducer
}
