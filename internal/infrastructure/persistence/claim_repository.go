package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gestionale/backend/internal/domain/expense"
	"github.com/gestionale/backend/internal/domain/shared"
	"github.com/gestionale/backend/internal/infrastructure/persistence/models"
)

// GormClaimRepository implements expense.ClaimRepository using GORM.
//
// Every state-changing write goes through a version check: the UPDATE
// carries "AND version = ?" with the version the aggregate was loaded at,
// and zero affected rows means another transaction got there first. Audit
// entries for a transition are inserted in the same transaction as the
// claim row update, so a lost race writes nothing at all.
type GormClaimRepository struct {
	db *gorm.DB
}

// NewGormClaimRepository creates a new GormClaimRepository
func NewGormClaimRepository(db *gorm.DB) *GormClaimRepository {
	return &GormClaimRepository{db: db}
}

// Create inserts a claim without an audit entry (draft save).
func (r *GormClaimRepository) Create(ctx context.Context, claim *expense.Claim) error {
	model, err := models.ClaimModelFromDomain(claim)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(model).Error
}

// CreateWithAudit inserts the claim and its "created" audit entry in one
// transaction.
func (r *GormClaimRepository) CreateWithAudit(ctx context.Context, claim *expense.Claim, entry *expense.AuditEntry) error {
	model, err := models.ClaimModelFromDomain(claim)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		return tx.Create(models.AuditEntryModelFromDomain(entry)).Error
	})
}

// FindByID finds a claim by ID within a tenant.
func (r *GormClaimRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*expense.Claim, error) {
	var model models.ClaimModel
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

// FindAll returns claims matching the filter plus the unpaginated total.
func (r *GormClaimRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter expense.ClaimFilter) ([]*expense.Claim, int64, error) {
	var total int64
	countQuery := applyClaimFilter(r.db.WithContext(ctx).
		Model(&models.ClaimModel{}).
		Where("tenant_id = ?", tenantID), filter)
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := applyClaimFilter(r.db.WithContext(ctx).
		Model(&models.ClaimModel{}).
		Where("tenant_id = ?", tenantID), filter).
		Order("claim_date DESC, created_at DESC")
	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize)
		if filter.Page > 1 {
			query = query.Offset((filter.Page - 1) * filter.PageSize)
		}
	}

	var rows []models.ClaimModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	claims := make([]*expense.Claim, 0, len(rows))
	for i := range rows {
		claim, err := rows[i].ToDomain()
		if err != nil {
			return nil, 0, err
		}
		claims = append(claims, claim)
	}
	return claims, total, nil
}

// SaveWithVersion performs the compare-and-swap write without an audit
// entry (draft edits, attachment additions).
func (r *GormClaimRepository) SaveWithVersion(ctx context.Context, claim *expense.Claim) error {
	return r.saveWithVersion(r.db.WithContext(ctx), claim)
}

// SaveWithVersionAndAudit performs the compare-and-swap write and appends
// the transition's audit entry in the same transaction.
func (r *GormClaimRepository) SaveWithVersionAndAudit(ctx context.Context, claim *expense.Claim, entry *expense.AuditEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.saveWithVersion(tx, claim); err != nil {
			return err
		}
		return tx.Create(models.AuditEntryModelFromDomain(entry)).Error
	})
}

// Delete removes a claim by ID within a tenant. Audit entries are kept: the
// trail of a previously rejected claim outlives the claim row.
func (r *GormClaimRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Delete(&models.ClaimModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// GenerateClaimNumber produces the next tenant-scoped claim number in the
// form NS-YYYYMM-NNNNN. The counter row is upserted and incremented in a
// single statement, so concurrent submissions never share a number.
func (r *GormClaimRepository) GenerateClaimNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	period := time.Now().Format("200601")

	var counter int64
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO claim_counters (tenant_id, period, counter)
		VALUES (?, ?, 1)
		ON CONFLICT (tenant_id, period)
		DO UPDATE SET counter = claim_counters.counter + 1
		RETURNING counter`, tenantID, period).
		Scan(&counter).Error
	if err != nil {
		return "", fmt.Errorf("failed to generate claim number: %w", err)
	}

	return fmt.Sprintf("NS-%s-%05d", period, counter), nil
}

func (r *GormClaimRepository) saveWithVersion(tx *gorm.DB, claim *expense.Claim) error {
	model, err := models.ClaimModelFromDomain(claim)
	if err != nil {
		return err
	}

	result := tx.Model(&models.ClaimModel{}).
		Where("id = ? AND tenant_id = ? AND version = ?", claim.ID, claim.TenantID, claim.Version).
		Updates(model.UpdateColumns())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := tx.Model(&models.ClaimModel{}).
			Where("id = ? AND tenant_id = ?", claim.ID, claim.TenantID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.ErrNotFound
		}
		return shared.ErrConcurrencyConflict
	}

	claim.IncrementVersion()
	return nil
}

func applyClaimFilter(query *gorm.DB, filter expense.ClaimFilter) *gorm.DB {
	if filter.EmployeeID != nil {
		query = query.Where("employee_id = ?", *filter.EmployeeID)
	}
	if filter.ProjectID != nil {
		query = query.Where("project_id = ?", *filter.ProjectID)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.State != nil {
		query = query.Where("state = ?", string(*filter.State))
	}
	if filter.FromDate != nil {
		query = query.Where("claim_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("claim_date <= ?", *filter.ToDate)
	}
	return query
}

// Ensure GormClaimRepository implements ClaimRepository
var _ expense.ClaimRepository = (*GormClaimRepository)(nil)
