package identity

import (
	"context"

	"github.com/google/uuid"
)

// RoleRepository persists tenant-defined custom roles.
//
// Create must serialize the "count existing roles, then insert" check per
// tenant (inside a transaction or equivalent store-side constraint) and
// return shared.ErrLimitExceeded once the tenant holds
// MaxCustomRolesPerTenant roles. Delete does not cascade: the caller is
// responsible for ensuring no active user still references the role.
type RoleRepository interface {
	// Create inserts a new role, enforcing the per-tenant cap atomically.
	Create(ctx context.Context, role *Role) error

	// Update persists changes to an existing role.
	Update(ctx context.Context, role *Role) error

	// Delete removes a role by ID within a tenant.
	Delete(ctx context.Context, tenantID, id uuid.UUID) error

	// FindByID finds a role by ID within a tenant.
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Role, error)

	// FindAll returns all custom roles for a tenant.
	FindAll(ctx context.Context, tenantID uuid.UUID) ([]*Role, error)

	// Count counts the custom roles held by a tenant.
	Count(ctx context.Context, tenantID uuid.UUID) (int64, error)
}
