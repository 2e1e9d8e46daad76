package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gestionale/backend/internal/domain/expense"
	"github.com/gestionale/backend/internal/domain/shared"
	"github.com/gestionale/backend/internal/infrastructure/persistence/models"
)

// GormCategoryRepository implements expense.CategoryRepository using GORM.
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewGormCategoryRepository creates a new GormCategoryRepository
func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// Create inserts a new category.
func (r *GormCategoryRepository) Create(ctx context.Context, category *expense.Category) error {
	return r.db.WithContext(ctx).Create(models.CategoryModelFromDomain(category)).Error
}

// Update persists changes to an existing category.
func (r *GormCategoryRepository) Update(ctx context.Context, category *expense.Category) error {
	model := models.CategoryModelFromDomain(category)
	result := r.db.WithContext(ctx).
		Model(&models.CategoryModel{}).
		Where("id = ? AND tenant_id = ?", category.ID, category.TenantID).
		Updates(map[string]any{
			"name":                model.Name,
			"description":         model.Description,
			"colour":              model.Colour,
			"icon":                model.Icon,
			"max_amount":          model.MaxAmount,
			"requires_attachment": model.RequiresAttachment,
			"active":              model.Active,
			"sort_order":          model.SortOrder,
			"updated_at":          model.UpdatedAt,
			"version":             model.Version,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a category by ID within a tenant.
func (r *GormCategoryRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Delete(&models.CategoryModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds a category by ID within a tenant.
func (r *GormCategoryRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*expense.Category, error) {
	var model models.CategoryModel
	if err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll returns categories for a tenant, optionally only active ones,
// ordered for display.
func (r *GormCategoryRepository) FindAll(ctx context.Context, tenantID uuid.UUID, activeOnly bool) ([]*expense.Category, error) {
	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if activeOnly {
		query = query.Where("active = ?", true)
	}

	var rows []models.CategoryModel
	if err := query.Order("sort_order ASC, name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	categories := make([]*expense.Category, len(rows))
	for i := range rows {
		categories[i] = rows[i].ToDomain()
	}
	return categories, nil
}

// Ensure GormCategoryRepository implements CategoryRepository
var _ expense.CategoryRepository = (*GormCategoryRepository)(nil)
