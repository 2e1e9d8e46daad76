package expense

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ClaimFilter defines filter criteria for claim queries
type ClaimFilter struct {
	EmployeeID *uuid.UUID
	ProjectID  *uuid.UUID
	CategoryID *uuid.UUID
	State      *ClaimState
	FromDate   *time.Time
	ToDate     *time.Time
	Page       int
	PageSize   int
}

// ClaimRepository persists expense claims.
//
// SaveWithVersion is the compare-and-swap write backing the workflow's
// serialization guarantee: it updates the row only where the stored version
// matches the version the aggregate was loaded at, and returns
// shared.ErrConcurrencyConflict when zero rows match. Two racing approve
// calls therefore produce exactly one success. Audit entries for a
// transition are appended by the same implementation inside the same
// transaction (SaveWithVersionAndAudit), so a failed CAS writes no entry.
type ClaimRepository interface {
	Create(ctx context.Context, claim *Claim) error
	// CreateWithAudit inserts the claim and its "created" audit entry in
	// one transaction.
	CreateWithAudit(ctx context.Context, claim *Claim, entry *AuditEntry) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Claim, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter ClaimFilter) ([]*Claim, int64, error)
	SaveWithVersion(ctx context.Context, claim *Claim) error
	SaveWithVersionAndAudit(ctx context.Context, claim *Claim, entry *AuditEntry) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	// GenerateClaimNumber produces the next tenant-scoped claim number
	// (NS-YYYYMM-NNNNN).
	GenerateClaimNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
}

// CategoryRepository persists expense categories.
type CategoryRepository interface {
	Create(ctx context.Context, category *Category) error
	Update(ctx context.Context, category *Category) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Category, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, activeOnly bool) ([]*Category, error)
}
