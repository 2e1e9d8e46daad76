package identity

import (
	"strings"
	"time"

	"github.com/gestionale/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// MaxCustomRolesPerTenant caps how many custom roles a tenant may define.
// The repository enforces the cap atomically at insert time; the application
// service checks it up front for a friendlier error.
const MaxCustomRolesPerTenant = 15

// Role is a tenant-defined custom role: a display name plus a permission
// set. Built-in roles never pass through this aggregate; they live in the
// static matrix (builtin.go).
type Role struct {
	shared.TenantAggregateRoot
	Name        string
	Description string
	Icon        string
	Permissions PermissionSet
}

// NewRole creates a custom role. A role must grant at least one capability,
// otherwise it is meaningless and is rejected rather than persisted.
func NewRole(tenantID uuid.UUID, name string, permissions PermissionSet) (*Role, error) {
	if err := validateRoleName(name); err != nil {
		return nil, err
	}
	if permissions.IsEmpty() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Role must grant at least one permission")
	}

	role := &Role{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                strings.TrimSpace(name),
		Permissions:         permissions.Clone(),
	}

	role.AddDomainEvent(NewRoleCreatedEvent(role))

	return role, nil
}

// SetDescription sets the role description
func (r *Role) SetDescription(description string) {
	r.Description = strings.TrimSpace(description)
	r.UpdatedAt = time.Now()
}

// SetIcon sets the icon reference shown next to the role in pickers
func (r *Role) SetIcon(icon string) {
	r.Icon = strings.TrimSpace(icon)
	r.UpdatedAt = time.Now()
}

// Update replaces the role's name, description and permission set, applying
// the same validation as creation.
func (r *Role) Update(name, description string, permissions PermissionSet) error {
	if err := validateRoleName(name); err != nil {
		return err
	}
	if permissions.IsEmpty() {
		return shared.NewDomainError(shared.CodeInvalidInput, "Role must grant at least one permission")
	}

	r.Name = strings.TrimSpace(name)
	r.Description = strings.TrimSpace(description)
	r.Permissions = permissions.Clone()
	r.UpdatedAt = time.Now()
	r.IncrementVersion()

	r.AddDomainEvent(NewRoleUpdatedEvent(r))

	return nil
}

// Allows reports whether the role grants the given (section, action) pair.
func (r *Role) Allows(section Section, action Action) bool {
	return r.Permissions.Allows(section, action)
}

func validateRoleName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError(shared.CodeInvalidInput, "Role name cannot be empty")
	}
	if len(name) > 100 {
		return shared.NewDomainError(shared.CodeInvalidInput, "Role name cannot exceed 100 characters")
	}
	return nil
}
