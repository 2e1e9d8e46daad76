package expense

import (
	"context"

	appidentity "github.com/gestionale/backend/internal/application/identity"
	"github.com/gestionale/backend/internal/domain/expense"
	"github.com/gestionale/backend/internal/domain/identity"
	"github.com/gestionale/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ApprovalSettingService manages per-project approval toggles. Changing a
// toggle never touches in-flight claims: the resolver is only consulted at
// submission and resubmission time.
type ApprovalSettingService struct {
	settingRepo expense.ApprovalSettingRepository
	permissions PermissionChecker
	logger      *zap.Logger
}

// NewApprovalSettingService creates a new approval setting service
func NewApprovalSettingService(
	settingRepo expense.ApprovalSettingRepository,
	permissions PermissionChecker,
	logger *zap.Logger,
) *ApprovalSettingService {
	return &ApprovalSettingService{
		settingRepo: settingRepo,
		permissions: permissions,
		logger:      logger,
	}
}

// ListForProject returns every stored toggle for a project. A claim type
// with no row is reported as disabled, matching the resolver's fail-open
// default.
func (s *ApprovalSettingService) ListForProject(ctx context.Context, actor appidentity.Actor, projectID uuid.UUID) ([]ApprovalSettingDTO, error) {
	if !s.permissions.Check(ctx, actor, identity.SectionProjects, identity.ActionView) {
		return nil, shared.NewDomainError(shared.CodeForbidden, "Not allowed to view project settings")
	}

	settings, err := s.settingRepo.FindAllForProject(ctx, actor.TenantID, projectID)
	if err != nil {
		s.logger.Error("Failed to list approval settings", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list approval settings")
	}

	stored := make(map[expense.ClaimType]*expense.ApprovalSetting, len(settings))
	for _, setting := range settings {
		stored[setting.ClaimType] = setting
	}

	dtos := make([]ApprovalSettingDTO, 0, 2)
	for _, claimType := range []expense.ClaimType{expense.ClaimTypeExpense, expense.ClaimTypeTimesheet} {
		if setting, ok := stored[claimType]; ok {
			dtos = append(dtos, toApprovalSettingDTO(setting))
			continue
		}
		dtos = append(dtos, ApprovalSettingDTO{
			ProjectID: projectID.String(),
			ClaimType: string(claimType),
			Enabled:   false,
		})
	}
	return dtos, nil
}

// UpdateSettingInput identifies one toggle and its new value
type UpdateSettingInput struct {
	ProjectID uuid.UUID
	ClaimType expense.ClaimType
	Enabled   bool
}

// Update writes a toggle, creating the row when none exists yet.
func (s *ApprovalSettingService) Update(ctx context.Context, actor appidentity.Actor, input UpdateSettingInput) (*ApprovalSettingDTO, error) {
	if !s.permissions.Check(ctx, actor, identity.SectionProjects, identity.ActionUpdate) {
		return nil, shared.NewDomainError(shared.CodeForbidden, "Not allowed to change project settings")
	}
	if !input.ClaimType.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Unknown claim type: "+string(input.ClaimType))
	}

	setting, err := s.settingRepo.Find(ctx, actor.TenantID, input.ProjectID, input.ClaimType)
	if err != nil {
		if !shared.IsCode(err, shared.CodeNotFound) {
			s.logger.Error("Failed to load approval setting", zap.Error(err))
			return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to load approval setting")
		}
		setting, err = expense.NewApprovalSetting(actor.TenantID, input.ProjectID, input.ClaimType, input.Enabled)
		if err != nil {
			return nil, err
		}
	} else {
		setting.SetEnabled(input.Enabled)
	}

	if err := s.settingRepo.Save(ctx, setting); err != nil {
		s.logger.Error("Failed to save approval setting", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to save approval setting")
	}

	s.logger.Info("Approval setting updated",
		zap.String("project_id", input.ProjectID.String()),
		zap.String("claim_type", string(input.ClaimType)),
		zap.Bool("enabled", input.Enabled))

	dto := toApprovalSettingDTO(setting)
	return &dto, nil
}
