package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gestionale/backend/internal/domain/identity"
	"github.com/gestionale/backend/internal/domain/shared"
	"github.com/gestionale/backend/internal/infrastructure/persistence/models"
)

// GormRoleRepository implements identity.RoleRepository using GORM.
type GormRoleRepository struct {
	db *gorm.DB
}

// NewGormRoleRepository creates a new GormRoleRepository
func NewGormRoleRepository(db *gorm.DB) *GormRoleRepository {
	return &GormRoleRepository{db: db}
}

// Create inserts a role, enforcing the per-tenant cap inside a transaction.
// On PostgreSQL the count-then-insert pair is serialized per tenant with an
// advisory lock, so two racing creates cannot both slip under the cap.
func (r *GormRoleRepository) Create(ctx context.Context, role *identity.Role) error {
	model, err := models.RoleModelFromDomain(role)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", role.TenantID.String()).Error; err != nil {
				return err
			}
		}

		var count int64
		if err := tx.Model(&models.RoleModel{}).
			Where("tenant_id = ?", role.TenantID).
			Count(&count).Error; err != nil {
			return err
		}
		if count >= identity.MaxCustomRolesPerTenant {
			return shared.ErrLimitExceeded
		}

		return tx.Create(model).Error
	})
}

// Update persists changes to an existing role.
func (r *GormRoleRepository) Update(ctx context.Context, role *identity.Role) error {
	model, err := models.RoleModelFromDomain(role)
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).
		Model(&models.RoleModel{}).
		Where("id = ? AND tenant_id = ?", role.ID, role.TenantID).
		Updates(map[string]any{
			"name":        model.Name,
			"description": model.Description,
			"icon":        model.Icon,
			"permissions": model.Permissions,
			"updated_at":  model.UpdatedAt,
			"version":     model.Version,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a role by ID within a tenant.
func (r *GormRoleRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Delete(&models.RoleModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds a role by ID within a tenant.
func (r *GormRoleRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*identity.Role, error) {
	var model models.RoleModel
	if err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindAll returns all custom roles for a tenant, ordered by name.
func (r *GormRoleRepository) FindAll(ctx context.Context, tenantID uuid.UUID) ([]*identity.Role, error) {
	var rows []models.RoleModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "name"}}).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	roles := make([]*identity.Role, 0, len(rows))
	for i := range rows {
		role, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, nil
}

// Count counts the custom roles held by a tenant.
func (r *GormRoleRepository) Count(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.RoleModel{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormRoleRepository implements RoleRepository
var _ identity.RoleRepository = (*GormRoleRepository)(nil)
