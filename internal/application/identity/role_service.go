package identity

import (
	"context"

	"github.com/gestionale/backend/internal/domain/identity"
	"github.com/gestionale/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RoleService handles custom-role management for a tenant.
type RoleService struct {
	roleRepo identity.RoleRepository
	userRepo identity.UserRepository
	logger   *zap.Logger
}

// NewRoleService creates a new role service
func NewRoleService(
	roleRepo identity.RoleRepository,
	userRepo identity.UserRepository,
	logger *zap.Logger,
) *RoleService {
	return &RoleService{
		roleRepo: roleRepo,
		userRepo: userRepo,
		logger:   logger,
	}
}

// CreateRoleInput contains input for creating a custom role
type CreateRoleInput struct {
	TenantID    uuid.UUID
	Name        string
	Description string
	Icon        string
	Permissions map[identity.Section][]identity.Action
}

// UpdateRoleInput contains input for updating a custom role
type UpdateRoleInput struct {
	TenantID    uuid.UUID
	ID          uuid.UUID
	Name        string
	Description string
	Icon        string
	Permissions map[identity.Section][]identity.Action
}

// Create creates a new custom role. The per-tenant cap is checked here for
// a friendly error and enforced again atomically by the repository, so a
// race between two creates cannot overshoot the limit.
func (s *RoleService) Create(ctx context.Context, input CreateRoleInput) (*RoleDTO, error) {
	permissions, err := identity.NewPermissionSet(input.Permissions)
	if err != nil {
		return nil, err
	}

	count, err := s.roleRepo.Count(ctx, input.TenantID)
	if err != nil {
		s.logger.Error("Failed to count custom roles", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to check role limit")
	}
	if count >= identity.MaxCustomRolesPerTenant {
		return nil, shared.NewDomainError(shared.CodeLimitExceeded, "Maximum number of custom roles reached (15)")
	}

	role, err := identity.NewRole(input.TenantID, input.Name, permissions)
	if err != nil {
		return nil, err
	}
	if input.Description != "" {
		role.SetDescription(input.Description)
	}
	if input.Icon != "" {
		role.SetIcon(input.Icon)
	}

	if err := s.roleRepo.Create(ctx, role); err != nil {
		if shared.IsCode(err, shared.CodeLimitExceeded) {
			return nil, err
		}
		s.logger.Error("Failed to create role", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to create role")
	}

	s.logger.Info("Custom role created",
		zap.String("role_id", role.ID.String()),
		zap.String("tenant_id", role.TenantID.String()),
		zap.String("name", role.Name))

	return toRoleDTO(role), nil
}

// Update replaces a role's name, description, icon and permission set.
// Sessions already holding a snapshot of the old permissions keep it until
// they next resolve the role; the evaluator always reads stored state.
func (s *RoleService) Update(ctx context.Context, input UpdateRoleInput) (*RoleDTO, error) {
	role, err := s.roleRepo.FindByID(ctx, input.TenantID, input.ID)
	if err != nil {
		if shared.IsCode(err, shared.CodeNotFound) {
			return nil, shared.NewDomainError(shared.CodeNotFound, "Role not found")
		}
		s.logger.Error("Failed to find role", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to find role")
	}

	permissions, err := identity.NewPermissionSet(input.Permissions)
	if err != nil {
		return nil, err
	}
	if err := role.Update(input.Name, input.Description, permissions); err != nil {
		return nil, err
	}
	role.SetIcon(input.Icon)

	if err := s.roleRepo.Update(ctx, role); err != nil {
		s.logger.Error("Failed to update role", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update role")
	}

	return toRoleDTO(role), nil
}

// Delete removes a custom role. The store does not cascade: deletion is
// refused while any user still references the role.
func (s *RoleService) Delete(ctx context.Context, tenantID, roleID uuid.UUID) error {
	role, err := s.roleRepo.FindByID(ctx, tenantID, roleID)
	if err != nil {
		if shared.IsCode(err, shared.CodeNotFound) {
			return shared.NewDomainError(shared.CodeNotFound, "Role not found")
		}
		s.logger.Error("Failed to find role", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to find role")
	}

	inUse, err := s.userRepo.CountWithCustomRole(ctx, tenantID, roleID)
	if err != nil {
		s.logger.Error("Failed to count role references", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to check role references")
	}
	if inUse > 0 {
		return shared.NewDomainError("ROLE_IN_USE", "Role is still assigned to users")
	}

	if err := s.roleRepo.Delete(ctx, tenantID, roleID); err != nil {
		s.logger.Error("Failed to delete role", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to delete role")
	}

	s.logger.Info("Custom role deleted",
		zap.String("role_id", roleID.String()),
		zap.String("name", role.Name))

	return nil
}

// GetByID retrieves a role by ID
func (s *RoleService) GetByID(ctx context.Context, tenantID, roleID uuid.UUID) (*RoleDTO, error) {
	role, err := s.roleRepo.FindByID(ctx, tenantID, roleID)
	if err != nil {
		if shared.IsCode(err, shared.CodeNotFound) {
			return nil, shared.NewDomainError(shared.CodeNotFound, "Role not found")
		}
		s.logger.Error("Failed to find role", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to find role")
	}
	return toRoleDTO(role), nil
}

// List returns all custom roles for a tenant.
func (s *RoleService) List(ctx context.Context, tenantID uuid.UUID) ([]RoleDTO, error) {
	roles, err := s.roleRepo.FindAll(ctx, tenantID)
	if err != nil {
		s.logger.Error("Failed to list roles", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list roles")
	}

	dtos := make([]RoleDTO, len(roles))
	for i, role := range roles {
		dtos[i] = *toRoleDTO(role)
	}
	return dtos, nil
}
