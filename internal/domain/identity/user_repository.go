package identity

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository persists tenant members.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	// CountWithCustomRole counts users referencing a custom role. Callers
	// use it to satisfy the delete precondition on RoleRepository.Delete.
	CountWithCustomRole(ctx context.Context, tenantID, roleID uuid.UUID) (int64, error)
}
