package expense

import (
	"context"
	"time"

	"github.com/gestionale/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ClaimType distinguishes the request kinds a project can gate behind
// approval. Only expense claims run through the workflow in this core;
// timesheets share the settings table.
type ClaimType string

const (
	ClaimTypeExpense   ClaimType = "expense_claims"
	ClaimTypeTimesheet ClaimType = "timesheets"
)

// IsValid checks if the value is a known ClaimType
func (t ClaimType) IsValid() bool {
	return t == ClaimTypeExpense || t == ClaimTypeTimesheet
}

// ApprovalSetting is a per-project, per-claim-type toggle: when enabled,
// newly submitted claims of that type wait in pending_approval.
type ApprovalSetting struct {
	shared.BaseEntity
	TenantID  uuid.UUID
	ProjectID uuid.UUID
	ClaimType ClaimType
	Enabled   bool
}

// NewApprovalSetting creates a setting for a (project, claim type) pair.
func NewApprovalSetting(tenantID, projectID uuid.UUID, claimType ClaimType, enabled bool) (*ApprovalSetting, error) {
	if projectID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Approval setting must reference a project")
	}
	if !claimType.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Unknown claim type: "+string(claimType))
	}
	return &ApprovalSetting{
		BaseEntity: shared.NewBaseEntity(),
		TenantID:   tenantID,
		ProjectID:  projectID,
		ClaimType:  claimType,
		Enabled:    enabled,
	}, nil
}

// SetEnabled flips the toggle.
func (s *ApprovalSetting) SetEnabled(enabled bool) {
	s.Enabled = enabled
	s.UpdatedAt = time.Now()
}

// ApprovalSettingRepository persists per-project approval toggles.
type ApprovalSettingRepository interface {
	// Find returns the setting for a (project, claim type) pair, or
	// shared.ErrNotFound when no setting exists.
	Find(ctx context.Context, tenantID, projectID uuid.UUID, claimType ClaimType) (*ApprovalSetting, error)
	Save(ctx context.Context, setting *ApprovalSetting) error
	FindAllForProject(ctx context.Context, tenantID, projectID uuid.UUID) ([]*ApprovalSetting, error)
}

// ApprovalResolver decides whether a claim requires approval at submission
// time. A missing setting means approval is disabled: claims auto-approve
// unless the project has explicitly turned approval on.
//
// The resolver is consulted exactly once per submission and once per
// resubmission. It is never re-checked for an in-flight claim.
type ApprovalResolver struct {
	settings ApprovalSettingRepository
}

// NewApprovalResolver creates an ApprovalResolver backed by the given store.
func NewApprovalResolver(settings ApprovalSettingRepository) *ApprovalResolver {
	return &ApprovalResolver{settings: settings}
}

// RequiresApproval reports whether claims of the given type in the given
// project must pass approval. Missing setting means no (fail-open).
func (r *ApprovalResolver) RequiresApproval(ctx context.Context, tenantID, projectID uuid.UUID, claimType ClaimType) (bool, error) {
	setting, err := r.settings.Find(ctx, tenantID, projectID, claimType)
	if err != nil {
		if shared.IsCode(err, shared.CodeNotFound) {
			return false, nil
		}
		return false, err
	}
	return setting.Enabled, nil
}
