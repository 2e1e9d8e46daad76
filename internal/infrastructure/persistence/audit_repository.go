package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gestionale/backend/internal/domain/expense"
	"github.com/gestionale/backend/internal/infrastructure/persistence/models"
)

// GormAuditRepository implements expense.AuditRepository using GORM. The
// table is append-only: this type deliberately exposes no update or delete.
type GormAuditRepository struct {
	db *gorm.DB
}

// NewGormAuditRepository creates a new GormAuditRepository
func NewGormAuditRepository(db *gorm.DB) *GormAuditRepository {
	return &GormAuditRepository{db: db}
}

// Append inserts an audit entry.
func (r *GormAuditRepository) Append(ctx context.Context, entry *expense.AuditEntry) error {
	return r.db.WithContext(ctx).Create(models.AuditEntryModelFromDomain(entry)).Error
}

// ListForClaim returns the full audit trail for a claim, newest first.
func (r *GormAuditRepository) ListForClaim(ctx context.Context, tenantID, claimID uuid.UUID) ([]*expense.AuditEntry, error) {
	var rows []models.AuditEntryModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND claim_id = ?", tenantID, claimID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	entries := make([]*expense.AuditEntry, len(rows))
	for i := range rows {
		entries[i] = rows[i].ToDomain()
	}
	return entries, nil
}

// Ensure GormAuditRepository implements AuditRepository
var _ expense.AuditRepository = (*GormAuditRepository)(nil)
