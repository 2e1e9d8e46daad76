package expense

import (
	"context"
	"io"
	"time"

	appidentity "github.com/gestionale/backend/internal/application/identity"
	"github.com/gestionale/backend/internal/domain/expense"
	"github.com/gestionale/backend/internal/domain/identity"
	"github.com/gestionale/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PermissionChecker answers authorization questions for an actor. Satisfied
// by the identity application's PermissionService.
type PermissionChecker interface {
	Check(ctx context.Context, actor appidentity.Actor, section identity.Section, action identity.Action) bool
}

// ClaimService orchestrates the expense claim workflow: permission guards,
// category rules, the approval resolver, the aggregate transition and the
// transactional audit write. The ordering is fixed: guards fail before any
// state is touched, and the audit entry is committed together with the
// state change or not at all.
type ClaimService struct {
	claimRepo    expense.ClaimRepository
	categoryRepo expense.CategoryRepository
	auditRepo    expense.AuditRepository
	resolver     *expense.ApprovalResolver
	permissions  PermissionChecker
	storage      AttachmentStorage
	logger       *zap.Logger
}

// NewClaimService creates a new claim service
func NewClaimService(
	claimRepo expense.ClaimRepository,
	categoryRepo expense.CategoryRepository,
	auditRepo expense.AuditRepository,
	resolver *expense.ApprovalResolver,
	permissions PermissionChecker,
	storage AttachmentStorage,
	logger *zap.Logger,
) *ClaimService {
	return &ClaimService{
		claimRepo:    claimRepo,
		categoryRepo: categoryRepo,
		auditRepo:    auditRepo,
		resolver:     resolver,
		permissions:  permissions,
		storage:      storage,
		logger:       logger,
	}
}

// SubmitClaimInput contains input for submitting a new claim
type SubmitClaimInput struct {
	ProjectID   uuid.UUID
	CategoryID  uuid.UUID
	ClaimDate   time.Time
	Amount      decimal.Decimal
	Description string
	Attachments []AttachmentDTO
}

// Submit creates a claim and moves it through submission in one operation.
// Category rules run first; the approval resolver then decides whether the
// claim waits in pending_approval or lands directly in approved. The claim
// row and its "created" audit entry commit in the same transaction.
func (s *ClaimService) Submit(ctx context.Context, actor appidentity.Actor, input SubmitClaimInput) (*ClaimDTO, error) {
	if !s.permissions.Check(ctx, actor, identity.SectionCosts, identity.ActionCreate) {
		return nil, shared.NewDomainError(shared.CodeForbidden, "Not allowed to submit expense claims")
	}

	category, err := s.loadActiveCategory(ctx, actor.TenantID, input.CategoryID)
	if err != nil {
		return nil, err
	}

	attachments := toDomainAttachments(input.Attachments)
	if err := category.ValidateClaim(input.Amount, len(attachments)); err != nil {
		return nil, err
	}

	claim, err := expense.NewClaim(
		actor.TenantID,
		input.ProjectID,
		actor.UserID,
		input.CategoryID,
		input.ClaimDate,
		input.Amount,
		input.Description,
		attachments,
		actor.UserID,
	)
	if err != nil {
		return nil, err
	}
	claim.SetCategoryDisplay(category.Name, category.Colour)

	requiresApproval, err := s.resolver.RequiresApproval(ctx, actor.TenantID, input.ProjectID, expense.ClaimTypeExpense)
	if err != nil {
		s.logger.Error("Failed to resolve approval setting", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to resolve approval setting")
	}

	if err := claim.Submit(requiresApproval); err != nil {
		return nil, err
	}

	number, err := s.claimRepo.GenerateClaimNumber(ctx, actor.TenantID)
	if err != nil {
		s.logger.Error("Failed to generate claim number", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate claim number")
	}
	claim.SetClaimNumber(number)

	entry, err := expense.NewAuditEntry(
		claim.ID, claim.TenantID,
		expense.AuditActionCreated, actor.UserID,
		expense.ClaimStateDraft, claim.State, "")
	if err != nil {
		return nil, err
	}

	if err := s.claimRepo.CreateWithAudit(ctx, claim, entry); err != nil {
		s.logger.Error("Failed to create claim", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to create claim")
	}

	s.logger.Info("Expense claim submitted",
		zap.String("claim_id", claim.ID.String()),
		zap.String("claim_number", claim.ClaimNumber),
		zap.String("state", claim.State.String()))

	return toClaimDTO(claim), nil
}

// Approve moves a pending claim to approved. Requires costs:update; the
// permission check runs before the claim is even loaded, so a denial leaves
// no trace.
func (s *ClaimService) Approve(ctx context.Context, actor appidentity.Actor, claimID uuid.UUID) (*ClaimDTO, error) {
	if !s.permissions.Check(ctx, actor, identity.SectionCosts, identity.ActionUpdate) {
		return nil, shared.NewDomainError(shared.CodeForbidden, "Not allowed to approve expense claims")
	}

	claim, err := s.loadClaim(ctx, actor.TenantID, claimID)
	if err != nil {
		return nil, err
	}

	previous := claim.State
	if err := claim.Approve(actor.UserID); err != nil {
		return nil, err
	}

	entry, err := expense.NewAuditEntry(
		claim.ID, claim.TenantID,
		expense.AuditActionApproved, actor.UserID,
		previous, claim.State, "")
	if err != nil {
		return nil, err
	}

	if err := s.claimRepo.SaveWithVersionAndAudit(ctx, claim, entry); err != nil {
		return nil, s.mapSaveError(err, "approve", claim.ID)
	}

	s.logger.Info("Expense claim approved",
		zap.String("claim_id", claim.ID.String()),
		zap.String("approved_by", actor.UserID.String()))

	return toClaimDTO(claim), nil
}

// Reject moves a pending claim to rejected. The reason is mandatory and is
// recorded in the audit entry's detail.
func (s *ClaimService) Reject(ctx context.Context, actor appidentity.Actor, claimID uuid.UUID, reason string) (*ClaimDTO, error) {
	if !s.permissions.Check(ctx, actor, identity.SectionCosts, identity.ActionUpdate) {
		return nil, shared.NewDomainError(shared.CodeForbidden, "Not allowed to reject expense claims")
	}

	claim, err := s.loadClaim(ctx, actor.TenantID, claimID)
	if err != nil {
		return nil, err
	}

	previous := claim.State
	if err := claim.Reject(actor.UserID, reason); err != nil {
		return nil, err
	}

	entry, err := expense.NewAuditEntry(
		claim.ID, claim.TenantID,
		expense.AuditActionRejected, actor.UserID,
		previous, claim.State, claim.RejectionReason)
	if err != nil {
		return nil, err
	}

	if err := s.claimRepo.SaveWithVersionAndAudit(ctx, claim, entry); err != nil {
		return nil, s.mapSaveError(err, "reject", claim.ID)
	}

	s.logger.Info("Expense claim rejected",
		zap.String("claim_id", claim.ID.String()),
		zap.String("rejected_by", actor.UserID.String()))

	return toClaimDTO(claim), nil
}

// Resubmit moves a rejected claim back into the workflow. Only the original
// submitter may resubmit; category rules and the approval resolver both run
// again, so a receipt added after rejection now counts and a project that
// disabled approval in the meantime auto-approves.
func (s *ClaimService) Resubmit(ctx context.Context, actor appidentity.Actor, claimID uuid.UUID) (*ClaimDTO, error) {
	claim, err := s.loadClaim(ctx, actor.TenantID, claimID)
	if err != nil {
		return nil, err
	}

	if !claim.IsSubmitter(actor.UserID) {
		return nil, shared.NewDomainError(shared.CodeForbidden, "Only the submitter can resubmit a claim")
	}
	if claim.State != expense.ClaimStateRejected {
		return nil, shared.NewDomainError(shared.CodeInvalidTransition, "Only rejected claims can be resubmitted")
	}

	category, err := s.loadActiveCategory(ctx, actor.TenantID, claim.CategoryID)
	if err != nil {
		return nil, err
	}
	if err := category.ValidateClaim(claim.Amount, len(claim.Attachments)); err != nil {
		return nil, err
	}

	requiresApproval, err := s.resolver.RequiresApproval(ctx, actor.TenantID, claim.ProjectID, expense.ClaimTypeExpense)
	if err != nil {
		s.logger.Error("Failed to resolve approval setting", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to resolve approval setting")
	}

	previous := claim.State
	if err := claim.Resubmit(requiresApproval); err != nil {
		return nil, err
	}

	entry, err := expense.NewAuditEntry(
		claim.ID, claim.TenantID,
		expense.AuditActionResubmitted, actor.UserID,
		previous, claim.State, "")
	if err != nil {
		return nil, err
	}

	if err := s.claimRepo.SaveWithVersionAndAudit(ctx, claim, entry); err != nil {
		return nil, s.mapSaveError(err, "resubmit", claim.ID)
	}

	s.logger.Info("Expense claim resubmitted",
		zap.String("claim_id", claim.ID.String()),
		zap.String("state", claim.State.String()))

	return toClaimDTO(claim), nil
}

// EditClaimInput contains input for editing a draft claim
type EditClaimInput struct {
	CategoryID  uuid.UUID
	ClaimDate   time.Time
	Amount      decimal.Decimal
	Description string
	Attachments []AttachmentDTO
}

// Edit updates a draft claim in place. Allowed to the submitter or a holder
// of costs:update. Edits re-run the category rules but write no audit entry:
// drafts have no trail until submitted.
func (s *ClaimService) Edit(ctx context.Context, actor appidentity.Actor, claimID uuid.UUID, input EditClaimInput) (*ClaimDTO, error) {
	claim, err := s.loadClaim(ctx, actor.TenantID, claimID)
	if err != nil {
		return nil, err
	}

	if !claim.IsSubmitter(actor.UserID) && !s.permissions.Check(ctx, actor, identity.SectionCosts, identity.ActionUpdate) {
		return nil, shared.NewDomainError(shared.CodeForbidden, "Not allowed to edit this claim")
	}

	category, err := s.loadActiveCategory(ctx, actor.TenantID, input.CategoryID)
	if err != nil {
		return nil, err
	}

	attachments := toDomainAttachments(input.Attachments)
	if err := category.ValidateClaim(input.Amount, len(attachments)); err != nil {
		return nil, err
	}

	if err := claim.Edit(input.CategoryID, input.ClaimDate, input.Amount, input.Description, attachments); err != nil {
		return nil, err
	}
	claim.SetCategoryDisplay(category.Name, category.Colour)

	if err := s.claimRepo.SaveWithVersion(ctx, claim); err != nil {
		return nil, s.mapSaveError(err, "edit", claim.ID)
	}

	return toClaimDTO(claim), nil
}

// AddAttachment uploads a receipt blob and appends its reference to the
// claim. Allowed in draft and rejected states to the submitter (or a
// costs:update holder), so a rejected claim can gain the missing receipt
// before resubmission.
func (s *ClaimService) AddAttachment(ctx context.Context, actor appidentity.Actor, claimID uuid.UUID, upload AttachmentUpload) (*ClaimDTO, error) {
	claim, err := s.loadClaim(ctx, actor.TenantID, claimID)
	if err != nil {
		return nil, err
	}

	if !claim.IsSubmitter(actor.UserID) && !s.permissions.Check(ctx, actor, identity.SectionCosts, identity.ActionUpdate) {
		return nil, shared.NewDomainError(shared.CodeForbidden, "Not allowed to modify this claim")
	}

	storagePath, err := s.storage.Put(ctx, actor.TenantID.String(), upload.FileName, upload.ContentType, upload.Body)
	if err != nil {
		s.logger.Error("Failed to store attachment", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to store attachment")
	}

	att := expense.Attachment{
		FileName:    upload.FileName,
		StoragePath: storagePath,
		FileSize:    upload.Size,
		MimeType:    upload.ContentType,
	}
	if err := claim.AddAttachment(att); err != nil {
		// The claim refused the attachment, drop the orphaned blob
		if delErr := s.storage.Delete(ctx, storagePath); delErr != nil {
			s.logger.Warn("Failed to delete orphaned attachment blob",
				zap.String("storage_path", storagePath), zap.Error(delErr))
		}
		return nil, err
	}

	if err := s.claimRepo.SaveWithVersion(ctx, claim); err != nil {
		return nil, s.mapSaveError(err, "attach", claim.ID)
	}

	return toClaimDTO(claim), nil
}

// Delete removes a claim. Only drafts and rejected claims can go; pending
// and approved claims keep their audit trail reachable forever. Allowed to
// the submitter or a holder of costs:delete.
func (s *ClaimService) Delete(ctx context.Context, actor appidentity.Actor, claimID uuid.UUID) error {
	claim, err := s.loadClaim(ctx, actor.TenantID, claimID)
	if err != nil {
		return err
	}

	if !claim.IsSubmitter(actor.UserID) && !s.permissions.Check(ctx, actor, identity.SectionCosts, identity.ActionDelete) {
		return shared.NewDomainError(shared.CodeForbidden, "Not allowed to delete this claim")
	}
	if !claim.CanDelete() {
		return shared.NewDomainError(shared.CodeInvalidTransition,
			"Cannot delete a claim in state "+claim.State.String())
	}

	if err := s.claimRepo.Delete(ctx, actor.TenantID, claimID); err != nil {
		s.logger.Error("Failed to delete claim", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to delete claim")
	}

	// Blob cleanup is best effort, the rows are already gone
	for _, att := range claim.Attachments {
		if err := s.storage.Delete(ctx, att.StoragePath); err != nil {
			s.logger.Warn("Failed to delete attachment blob",
				zap.String("storage_path", att.StoragePath), zap.Error(err))
		}
	}

	s.logger.Info("Expense claim deleted", zap.String("claim_id", claimID.String()))
	return nil
}

// GetByID retrieves a single claim. Visible to the submitter and to holders
// of costs:view.
func (s *ClaimService) GetByID(ctx context.Context, actor appidentity.Actor, claimID uuid.UUID) (*ClaimDTO, error) {
	claim, err := s.loadClaim(ctx, actor.TenantID, claimID)
	if err != nil {
		return nil, err
	}
	if !claim.IsSubmitter(actor.UserID) && !s.permissions.Check(ctx, actor, identity.SectionCosts, identity.ActionView) {
		return nil, shared.NewDomainError(shared.CodeForbidden, "Not allowed to view this claim")
	}
	return toClaimDTO(claim), nil
}

// ListClaimsInput carries the optional list filters
type ListClaimsInput struct {
	EmployeeID *uuid.UUID
	ProjectID  *uuid.UUID
	CategoryID *uuid.UUID
	State      *expense.ClaimState
	FromDate   *time.Time
	ToDate     *time.Time
	Page       int
	PageSize   int
}

// List returns a page of claims. Actors without costs:view only ever see
// their own claims, whatever filter they pass.
func (s *ClaimService) List(ctx context.Context, actor appidentity.Actor, input ListClaimsInput) (*ClaimListDTO, error) {
	filter := expense.ClaimFilter{
		EmployeeID: input.EmployeeID,
		ProjectID:  input.ProjectID,
		CategoryID: input.CategoryID,
		State:      input.State,
		FromDate:   input.FromDate,
		ToDate:     input.ToDate,
		Page:       input.Page,
		PageSize:   input.PageSize,
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	if !s.permissions.Check(ctx, actor, identity.SectionCosts, identity.ActionView) {
		own := actor.UserID
		filter.EmployeeID = &own
	}

	claims, total, err := s.claimRepo.FindAll(ctx, actor.TenantID, filter)
	if err != nil {
		s.logger.Error("Failed to list claims", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list claims")
	}

	dtos := make([]ClaimDTO, len(claims))
	for i, claim := range claims {
		dtos[i] = *toClaimDTO(claim)
	}
	return &ClaimListDTO{
		Claims:   dtos,
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}, nil
}

// ListAudit returns the full transition history of a claim, newest first.
func (s *ClaimService) ListAudit(ctx context.Context, actor appidentity.Actor, claimID uuid.UUID) ([]AuditEntryDTO, error) {
	claim, err := s.loadClaim(ctx, actor.TenantID, claimID)
	if err != nil {
		return nil, err
	}
	if !claim.IsSubmitter(actor.UserID) && !s.permissions.Check(ctx, actor, identity.SectionCosts, identity.ActionView) {
		return nil, shared.NewDomainError(shared.CodeForbidden, "Not allowed to view this claim")
	}

	entries, err := s.auditRepo.ListForClaim(ctx, actor.TenantID, claimID)
	if err != nil {
		s.logger.Error("Failed to list audit entries", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list audit entries")
	}

	dtos := make([]AuditEntryDTO, len(entries))
	for i, entry := range entries {
		dtos[i] = toAuditEntryDTO(entry)
	}
	return dtos, nil
}

// PresignAttachment returns a time-limited download URL for a stored
// attachment of a claim the actor may view.
func (s *ClaimService) PresignAttachment(ctx context.Context, actor appidentity.Actor, claimID uuid.UUID, storagePath string, expiry time.Duration) (string, error) {
	claim, err := s.loadClaim(ctx, actor.TenantID, claimID)
	if err != nil {
		return "", err
	}
	if !claim.IsSubmitter(actor.UserID) && !s.permissions.Check(ctx, actor, identity.SectionCosts, identity.ActionView) {
		return "", shared.NewDomainError(shared.CodeForbidden, "Not allowed to view this claim")
	}

	found := false
	for _, att := range claim.Attachments {
		if att.StoragePath == storagePath {
			found = true
			break
		}
	}
	if !found {
		return "", shared.NewDomainError(shared.CodeNotFound, "Attachment not found on claim")
	}

	url, err := s.storage.PresignGet(ctx, storagePath, expiry)
	if err != nil {
		s.logger.Error("Failed to presign attachment URL", zap.Error(err))
		return "", shared.NewDomainError("INTERNAL_ERROR", "Failed to generate download URL")
	}
	return url, nil
}

// AttachmentUpload carries an incoming attachment blob
type AttachmentUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

func (s *ClaimService) loadClaim(ctx context.Context, tenantID, claimID uuid.UUID) (*expense.Claim, error) {
	claim, err := s.claimRepo.FindByID(ctx, tenantID, claimID)
	if err != nil {
		if shared.IsCode(err, shared.CodeNotFound) {
			return nil, shared.NewDomainError(shared.CodeNotFound, "Claim not found")
		}
		s.logger.Error("Failed to load claim", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to load claim")
	}
	return claim, nil
}

func (s *ClaimService) loadActiveCategory(ctx context.Context, tenantID, categoryID uuid.UUID) (*expense.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, tenantID, categoryID)
	if err != nil {
		if shared.IsCode(err, shared.CodeNotFound) {
			return nil, shared.NewDomainError(shared.CodeNotFound, "Category not found")
		}
		s.logger.Error("Failed to load category", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to load category")
	}
	if !category.Active {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Category is not active")
	}
	return category, nil
}

func (s *ClaimService) mapSaveError(err error, op string, claimID uuid.UUID) error {
	if shared.IsCode(err, shared.CodeConcurrencyConflict) {
		s.logger.Warn("Claim version conflict",
			zap.String("op", op),
			zap.String("claim_id", claimID.String()))
		return shared.NewDomainError(shared.CodeConcurrencyConflict,
			"Claim was modified concurrently, reload and retry")
	}
	s.logger.Error("Failed to save claim",
		zap.String("op", op),
		zap.String("claim_id", claimID.String()),
		zap.Error(err))
	return shared.NewDomainError("INTERNAL_ERROR", "Failed to save claim")
}

func toDomainAttachments(dtos []AttachmentDTO) []expense.Attachment {
	attachments := make([]expense.Attachment, len(dtos))
	for i, dto := range dtos {
		attachments[i] = expense.Attachment{
			FileName:    dto.FileName,
			StoragePath: dto.StoragePath,
			FileSize:    dto.FileSize,
			MimeType:    dto.MimeType,
		}
	}
	return attachments
}
