package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gestionale/backend/internal/domain/expense"
	"github.com/gestionale/backend/internal/domain/shared"
	"github.com/gestionale/backend/internal/infrastructure/persistence/models"
)

// GormApprovalSettingRepository implements expense.ApprovalSettingRepository
// using GORM.
type GormApprovalSettingRepository struct {
	db *gorm.DB
}

// NewGormApprovalSettingRepository creates a new GormApprovalSettingRepository
func NewGormApprovalSettingRepository(db *gorm.DB) *GormApprovalSettingRepository {
	return &GormApprovalSettingRepository{db: db}
}

// Find returns the setting for a (project, claim type) pair, or
// shared.ErrNotFound when no row exists. The resolver maps the latter to
// "approval disabled".
func (r *GormApprovalSettingRepository) Find(ctx context.Context, tenantID, projectID uuid.UUID, claimType expense.ClaimType) (*expense.ApprovalSetting, error) {
	var model models.ApprovalSettingModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND project_id = ? AND claim_type = ?", tenantID, projectID, string(claimType)).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save upserts a setting on its (tenant, project, claim type) key.
func (r *GormApprovalSettingRepository) Save(ctx context.Context, setting *expense.ApprovalSetting) error {
	model := models.ApprovalSettingModelFromDomain(setting)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "tenant_id"}, {Name: "project_id"}, {Name: "claim_type"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"enabled", "updated_at"}),
		}).
		Create(model).Error
}

// FindAllForProject returns the stored settings for a project. Claim types
// with no row are simply absent; callers synthesize the defaults.
func (r *GormApprovalSettingRepository) FindAllForProject(ctx context.Context, tenantID, projectID uuid.UUID) ([]*expense.ApprovalSetting, error) {
	var rows []models.ApprovalSettingModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND project_id = ?", tenantID, projectID).
		Order("claim_type ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	settings := make([]*expense.ApprovalSetting, len(rows))
	for i := range rows {
		settings[i] = rows[i].ToDomain()
	}
	return settings, nil
}

// Ensure GormApprovalSettingRepository implements ApprovalSettingRepository
var _ expense.ApprovalSettingRepository = (*GormApprovalSettingRepository)(nil)
