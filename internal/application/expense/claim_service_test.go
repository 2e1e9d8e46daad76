package expense

import (
	"context"
	"strings"
	"testing"
	"time"

	appidentity "github.com/gestionale/backend/internal/application/identity"
	"github.com/gestionale/backend/internal/domain/expense"
	"github.com/gestionale/backend/internal/domain/identity"
	"github.com/gestionale/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type claimServiceFixture struct {
	claimRepo    *MockClaimRepository
	categoryRepo *MockCategoryRepository
	auditRepo    *MockAuditRepository
	settingRepo  *MockApprovalSettingRepository
	storage      *stubStorage
	svc          *ClaimService
}

func newClaimFixture(perms PermissionChecker) *claimServiceFixture {
	f := &claimServiceFixture{
		claimRepo:    new(MockClaimRepository),
		categoryRepo: new(MockCategoryRepository),
		auditRepo:    new(MockAuditRepository),
		settingRepo:  new(MockApprovalSettingRepository),
		storage:      newStubStorage(),
	}
	f.svc = NewClaimService(
		f.claimRepo,
		f.categoryRepo,
		f.auditRepo,
		expense.NewApprovalResolver(f.settingRepo),
		perms,
		f.storage,
		zap.NewNop(),
	)
	return f
}

func testActor() appidentity.Actor {
	ref, _ := identity.NewBuiltinRoleRef(identity.BuiltinOperator)
	return appidentity.Actor{UserID: uuid.New(), TenantID: uuid.New(), Role: ref}
}

func testCategory(t *testing.T, tenantID uuid.UUID) *expense.Category {
	t.Helper()
	cat, err := expense.NewCategory(tenantID, "Trasferte", "#1E88E5")
	require.NoError(t, err)
	return cat
}

func submitInput(categoryID uuid.UUID, attachments ...AttachmentDTO) SubmitClaimInput {
	return SubmitClaimInput{
		ProjectID:   uuid.New(),
		CategoryID:  categoryID,
		ClaimDate:   time.Now(),
		Amount:      decimal.NewFromFloat(120.50),
		Description: "Treno Milano-Roma",
		Attachments: attachments,
	}
}

func pendingClaim(t *testing.T, actor appidentity.Actor, categoryID uuid.UUID) *expense.Claim {
	t.Helper()
	claim, err := expense.NewClaim(
		actor.TenantID, uuid.New(), actor.UserID, categoryID,
		time.Now(), decimal.NewFromFloat(80), "Taxi", nil, actor.UserID)
	require.NoError(t, err)
	require.NoError(t, claim.Submit(true))
	return claim
}

func TestClaimService_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("approval enabled parks the claim in pending", func(t *testing.T) {
		actor := testActor()
		f := newClaimFixture(allowPerms("costs:create"))
		cat := testCategory(t, actor.TenantID)

		input := submitInput(cat.ID)
		setting, err := expense.NewApprovalSetting(actor.TenantID, input.ProjectID, expense.ClaimTypeExpense, true)
		require.NoError(t, err)

		f.categoryRepo.On("FindByID", mock.Anything, actor.TenantID, cat.ID).Return(cat, nil)
		f.settingRepo.On("Find", mock.Anything, actor.TenantID, input.ProjectID, expense.ClaimTypeExpense).Return(setting, nil)
		f.claimRepo.On("GenerateClaimNumber", mock.Anything, actor.TenantID).Return("NS-202608-00042", nil)
		f.claimRepo.On("CreateWithAudit", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		dto, err := f.svc.Submit(ctx, actor, input)

		require.NoError(t, err)
		assert.Equal(t, "pending_approval", dto.State)
		assert.Equal(t, "NS-202608-00042", dto.ClaimNumber)
		assert.Equal(t, "Trasferte", dto.CategoryName)

		entry := f.claimRepo.Calls[1].Arguments.Get(2).(*expense.AuditEntry)
		assert.Equal(t, expense.AuditActionCreated, entry.Action)
		assert.Equal(t, expense.ClaimStateDraft, entry.PreviousState)
		assert.Equal(t, expense.ClaimStatePending, entry.ResultingState)
	})

	t.Run("missing setting auto-approves", func(t *testing.T) {
		actor := testActor()
		f := newClaimFixture(allowPerms("costs:create"))
		cat := testCategory(t, actor.TenantID)
		input := submitInput(cat.ID)

		f.categoryRepo.On("FindByID", mock.Anything, actor.TenantID, cat.ID).Return(cat, nil)
		f.settingRepo.On("Find", mock.Anything, actor.TenantID, input.ProjectID, expense.ClaimTypeExpense).Return(nil, shared.ErrNotFound)
		f.claimRepo.On("GenerateClaimNumber", mock.Anything, actor.TenantID).Return("NS-202608-00043", nil)
		f.claimRepo.On("CreateWithAudit", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		dto, err := f.svc.Submit(ctx, actor, input)

		require.NoError(t, err)
		assert.Equal(t, "approved", dto.State)

		entry := f.claimRepo.Calls[1].Arguments.Get(2).(*expense.AuditEntry)
		assert.Equal(t, expense.ClaimStateApproved, entry.ResultingState)
	})

	t.Run("category requiring attachment blocks a bare claim", func(t *testing.T) {
		actor := testActor()
		f := newClaimFixture(allowPerms("costs:create"))
		cat := testCategory(t, actor.TenantID)
		cat.SetRequiresAttachment(true)

		f.categoryRepo.On("FindByID", mock.Anything, actor.TenantID, cat.ID).Return(cat, nil)

		_, err := f.svc.Submit(ctx, actor, submitInput(cat.ID))

		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeMissingAttachment))
		f.claimRepo.AssertNotCalled(t, "CreateWithAudit", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("amount above the category maximum is rejected", func(t *testing.T) {
		actor := testActor()
		f := newClaimFixture(allowPerms("costs:create"))
		cat := testCategory(t, actor.TenantID)
		require.NoError(t, cat.SetMaxAmount(decimal.NewFromInt(100)))

		f.categoryRepo.On("FindByID", mock.Anything, actor.TenantID, cat.ID).Return(cat, nil)

		_, err := f.svc.Submit(ctx, actor, submitInput(cat.ID))

		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeAmountExceeded))
	})

	t.Run("actor without costs:create is refused before any lookup", func(t *testing.T) {
		actor := testActor()
		f := newClaimFixture(denyAllPerms())

		_, err := f.svc.Submit(ctx, actor, submitInput(uuid.New()))

		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeForbidden))
		f.categoryRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("inactive category cannot take new claims", func(t *testing.T) {
		actor := testActor()
		f := newClaimFixture(allowPerms("costs:create"))
		cat := testCategory(t, actor.TenantID)
		cat.Deactivate()

		f.categoryRepo.On("FindByID", mock.Anything, actor.TenantID, cat.ID).Return(cat, nil)

		_, err := f.svc.Submit(ctx, actor, submitInput(cat.ID))
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeInvalidInput))
	})
}

func TestClaimService_Approve(t *testing.T) {
	ctx := context.Background()

	t.Run("approver with costs:update approves a pending claim", func(t *testing.T) {
		actor := testActor()
		f := newClaimFixture(allowPerms("costs:update"))
		claim := pendingClaim(t, actor, uuid.New())

		f.claimRepo.On("FindByID", mock.Anything, actor.TenantID, claim.ID).Return(claim, nil)
		f.claimRepo.On("SaveWithVersionAndAudit", mock.Anything, claim, mock.Anything).Return(nil)

		dto, err := f.svc.Approve(ctx, actor, claim.ID)

		require.NoError(t, err)
		assert.Equal(t, "approved", dto.State)
		require.NotNil(t, dto.ApprovedBy)
		assert.Equal(t, actor.UserID, *dto.ApprovedBy)

		entry := f.claimRepo.Calls[1].Arguments.Get(2).(*expense.AuditEntry)
		assert.Equal(t, expense.AuditActionApproved, entry.Action)
		assert.Equal(t, expense.ClaimStatePending, entry.PreviousState)
		assert.Equal(t, expense.ClaimStateApproved, entry.ResultingState)
	})

	t.Run("denied actor never loads the claim", func(t *testing.T) {
		actor := testActor()
		f := newClaimFixture(denyAllPerms())

		_, err := f.svc.Approve(ctx, actor, uuid.New())

		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeForbidden))
		f.claimRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("approving an approved claim is an invalid transition with no audit", func(t *testing.T) {
		actor := testActor()
		f := newClaimFixture(allowPerms("costs:update"))
		claim := pendingClaim(t, actor, uuid.New())
		require.NoError(t, claim.Approve(uuid.New()))

		f.claimRepo.On("FindByID", mock.Anything, actor.TenantID, claim.ID).Return(claim, nil)

		_, err := f.svc.Approve(ctx, actor, claim.ID)

		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeInvalidTransition))
		f.claimRepo.AssertNotCalled(t, "SaveWithVersionAndAudit", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("lost CAS race surfaces as concurrency conflict", func(t *testing.T) {
		actor := testActor()
		f := newClaimFixture(allowPerms("costs:update"))
		claim := pendingClaim(t, actor, uuid.New())

		f.claimRepo.On("FindByID", mock.Anything, actor.TenantID, claim.ID).Return(claim, nil)
		f.claimRepo.On("SaveWithVersionAndAudit", mock.Anything, claim, mock.Anything).Return(shared.ErrConcurrencyConflict)

		_, err := f.svc.Approve(ctx, actor, claim.ID)

		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeConcurrencyConflict))
	})
}

func TestClaimService_Reject(t *testing.T) {
	ctx := context.Background()

	t.Run("rejection records the reason in the audit detail", func(t *testing.T) {
		actor := testActor()
		f := newClaimFixture(allowPerms("costs:update"))
		claim := pendingClaim(t, actor, uuid.New())

		f.claimRepo.On("FindByID", mock.Anything, actor.TenantID, claim.ID).Return(claim, nil)
		f.claimRepo.On("SaveWithVersionAndAudit", mock.Anything, claim, mock.Anything).Return(nil)

		dto, err := f.svc.Reject(ctx, actor, claim.ID, "Scontrino mancante")

		require.NoError(t, err)
		assert.Equal(t, "rejected", dto.State)
		assert.Equal(t, "Scontrino mancante", dto.RejectionReason)

		entry := f.claimRepo.Calls[1].Arguments.Get(2).(*expense.AuditEntry)
		assert.Equal(t, expense.AuditActionRejected, entry.Action)
		assert.Equal(t, "Scontrino mancante", entry.Detail)
	})

	t.Run("empty reason is rejected with no write", func(t *testing.T) {
		actor := testActor()
		f := newClaimFixture(allowPerms("costs:update"))
		claim := pendingClaim(t, actor, uuid.New())

		f.claimRepo.On("FindByID", mock.Anything, actor.TenantID, claim.ID).Return(claim, nil)

		_, err := f.svc.Reject(ctx, actor, claim.ID, "   ")

		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeInvalidInput))
		assert.Equal(t, expense.ClaimStatePending, claim.State)
		f.claimRepo.AssertNotCalled(t, "SaveWithVersionAndAudit", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestClaimService_Resubmit(t *testing.T) {
	ctx := context.Background()

	rejected := func(t *testing.T, actor appidentity.Actor, categoryID uuid.UUID) *expense.Claim {
		claim := pendingClaim(t, actor, categoryID)
		require.NoError(t, claim.Reject(uuid.New(), "Importo sbagliato"))
		return claim
	}

	t.Run("submitter resubmits and the resolver is consulted again", func(t *testing.T) {
		actor := testActor()
		f := newClaimFixture(denyAllPerms())
		cat := testCategory(t, actor.TenantID)
		claim := rejected(t, actor, cat.ID)

		f.claimRepo.On("FindByID", mock.Anything, actor.TenantID, claim.ID).Return(claim, nil)
		f.categoryRepo.On("FindByID", mock.Anything, actor.TenantID, cat.ID).Return(cat, nil)
		// Approval has been switched off since the first submission
		f.settingRepo.On("Find", mock.Anything, actor.TenantID, claim.ProjectID, expense.ClaimTypeExpense).Return(nil, shared.ErrNotFound)
		f.claimRepo.On("SaveWithVersionAndAudit", mock.Anything, claim, mock.Anything).Return(nil)

		dto, err := f.svc.Resubmit(ctx, actor, claim.ID)

		require.NoError(t, err)
		assert.Equal(t, "approved", dto.State)
		assert.Empty(t, dto.RejectionReason)

		entry := f.claimRepo.Calls[1].Arguments.Get(2).(*expense.AuditEntry)
		assert.Equal(t, expense.AuditActionResubmitted, entry.Action)
		assert.Equal(t, expense.ClaimStateRejected, entry.PreviousState)
		assert.Equal(t, expense.ClaimStateApproved, entry.ResultingState)
	})

	t.Run("someone else cannot resubmit", func(t *testing.T) {
		actor := testActor()
		f := newClaimFixture(allowPerms("costs:update"))
		cat := testCategory(t, actor.TenantID)
		claim := rejected(t, actor, cat.ID)

		other := actor
		other.UserID = uuid.New()

		f.claimRepo.On("FindByID", mock.Anything, actor.TenantID, claim.ID).Return(claim, nil)

		_, err := f.svc.Resubmit(ctx, other, claim.ID)

		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeForbidden))
		assert.Equal(t, expense.ClaimStateRejected, claim.State)
	})

	t.Run("category rules run again on resubmission", func(t *testing.T) {
		actor := testActor()
		f := newClaimFixture(denyAllPerms())
		cat := testCategory(t, actor.TenantID)
		cat.SetRequiresAttachment(true)
		claim := rejected(t, actor, cat.ID)

		f.claimRepo.On("FindByID", mock.Anything, actor.TenantID, claim.ID).Return(claim, nil)
		f.categoryRepo.On("FindByID", mock.Anything, actor.TenantID, cat.ID).Return(cat, nil)

		_, err := f.svc.Resubmit(ctx, actor, claim.ID)

		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeMissingAttachment))
		f.claimRepo.AssertNotCalled(t, "SaveWithVersionAndAudit", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestClaimService_Edit(t *testing.T) {
	ctx := context.Background()

	draft := func(t *testing.T, actor appidentity.Actor, categoryID uuid.UUID) *expense.Claim {
		claim, err := expense.NewClaim(
			actor.TenantID, uuid.New(), actor.UserID, categoryID,
			time.Now(), decimal.NewFromFloat(50), "Pranzo", nil, actor.UserID)
		require.NoError(t, err)
		return claim
	}

	t.Run("submitter edits a draft without an audit entry", func(t *testing.T) {
		actor := testActor()
		f := newClaimFixture(denyAllPerms())
		cat := testCategory(t, actor.TenantID)
		claim := draft(t, actor, cat.ID)

		f.claimRepo.On("FindByID", mock.Anything, actor.TenantID, claim.ID).Return(claim, nil)
		f.categoryRepo.On("FindByID", mock.Anything, actor.TenantID, cat.ID).Return(cat, nil)
		f.claimRepo.On("SaveWithVersion", mock.Anything, claim).Return(nil)

		dto, err := f.svc.Edit(ctx, actor, claim.ID, EditClaimInput{
			CategoryID:  cat.ID,
			ClaimDate:   time.Now(),
			Amount:      decimal.NewFromFloat(65),
			Description: "Pranzo con cliente",
		})

		require.NoError(t, err)
		assert.Equal(t, "65.00", dto.Amount)
		f.claimRepo.AssertNotCalled(t, "SaveWithVersionAndAudit", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("pending claims are not editable", func(t *testing.T) {
		actor := testActor()
		f := newClaimFixture(denyAllPerms())
		cat := testCategory(t, actor.TenantID)
		claim := pendingClaim(t, actor, cat.ID)

		f.claimRepo.On("FindByID", mock.Anything, actor.TenantID, claim.ID).Return(claim, nil)
		f.categoryRepo.On("FindByID", mock.Anything, actor.TenantID, cat.ID).Return(cat, nil)

		_, err := f.svc.Edit(ctx, actor, claim.ID, EditClaimInput{
			CategoryID:  cat.ID,
			ClaimDate:   time.Now(),
			Amount:      decimal.NewFromFloat(65),
			Description: "Pranzo",
		})

		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeInvalidTransition))
	})

	t.Run("a stranger without costs:update cannot edit", func(t *testing.T) {
		actor := testActor()
		f := newClaimFixture(denyAllPerms())
		claim := draft(t, actor, uuid.New())

		other := actor
		other.UserID = uuid.New()

		f.claimRepo.On("FindByID", mock.Anything, actor.TenantID, claim.ID).Return(claim, nil)

		_, err := f.svc.Edit(ctx, other, claim.ID, EditClaimInput{
			CategoryID: claim.CategoryID,
			ClaimDate:  time.Now(),
			Amount:     decimal.NewFromFloat(65),
		})

		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeForbidden))
	})
}

func TestClaimService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("draft with attachments deletes rows and blobs", func(t *testing.T) {
		actor := testActor()
		f := newClaimFixture(denyAllPerms())

		path, err := f.storage.Put(ctx, actor.TenantID.String(), "scontrino.pdf", "application/pdf", strings.NewReader("pdf"))
		require.NoError(t, err)

		claim, err := expense.NewClaim(
			actor.TenantID, uuid.New(), actor.UserID, uuid.New(),
			time.Now(), decimal.NewFromFloat(10), "",
			[]expense.Attachment{{FileName: "scontrino.pdf", StoragePath: path, FileSize: 3, MimeType: "application/pdf"}},
			actor.UserID)
		require.NoError(t, err)

		f.claimRepo.On("FindByID", mock.Anything, actor.TenantID, claim.ID).Return(claim, nil)
		f.claimRepo.On("Delete", mock.Anything, actor.TenantID, claim.ID).Return(nil)

		require.NoError(t, f.svc.Delete(ctx, actor, claim.ID))
		assert.Empty(t, f.storage.blobs)
	})

	t.Run("approved claims are never deleted", func(t *testing.T) {
		actor := testActor()
		f := newClaimFixture(allowPerms("costs:delete"))
		claim := pendingClaim(t, actor, uuid.New())
		require.NoError(t, claim.Approve(uuid.New()))

		f.claimRepo.On("FindByID", mock.Anything, actor.TenantID, claim.ID).Return(claim, nil)

		err := f.svc.Delete(ctx, actor, claim.ID)

		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeInvalidTransition))
		f.claimRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestClaimService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("actor without costs:view only sees own claims", func(t *testing.T) {
		actor := testActor()
		f := newClaimFixture(denyAllPerms())

		f.claimRepo.On("FindAll", mock.Anything, actor.TenantID, mock.MatchedBy(func(filter expense.ClaimFilter) bool {
			return filter.EmployeeID != nil && *filter.EmployeeID == actor.UserID
		})).Return([]*expense.Claim{}, int64(0), nil)

		_, err := f.svc.List(ctx, actor, ListClaimsInput{})
		require.NoError(t, err)
		f.claimRepo.AssertExpectations(t)
	})

	t.Run("costs:view actor keeps the requested filter", func(t *testing.T) {
		actor := testActor()
		f := newClaimFixture(allowPerms("costs:view"))
		someoneElse := uuid.New()

		f.claimRepo.On("FindAll", mock.Anything, actor.TenantID, mock.MatchedBy(func(filter expense.ClaimFilter) bool {
			return filter.EmployeeID != nil && *filter.EmployeeID == someoneElse && filter.Page == 1 && filter.PageSize == 20
		})).Return([]*expense.Claim{}, int64(0), nil)

		_, err := f.svc.List(ctx, actor, ListClaimsInput{EmployeeID: &someoneElse})
		require.NoError(t, err)
	})
}

func TestClaimService_AddAttachment(t *testing.T) {
	ctx := context.Background()

	t.Run("rejected claim gains the missing receipt", func(t *testing.T) {
		actor := testActor()
		f := newClaimFixture(denyAllPerms())
		claim := pendingClaim(t, actor, uuid.New())
		require.NoError(t, claim.Reject(uuid.New(), "Manca lo scontrino"))

		f.claimRepo.On("FindByID", mock.Anything, actor.TenantID, claim.ID).Return(claim, nil)
		f.claimRepo.On("SaveWithVersion", mock.Anything, claim).Return(nil)

		dto, err := f.svc.AddAttachment(ctx, actor, claim.ID, AttachmentUpload{
			FileName:    "scontrino.jpg",
			ContentType: "image/jpeg",
			Size:        4,
			Body:        strings.NewReader("jpeg"),
		})

		require.NoError(t, err)
		require.Len(t, dto.Attachments, 1)
		assert.Equal(t, "scontrino.jpg", dto.Attachments[0].FileName)
		assert.Len(t, f.storage.blobs, 1)
	})

	t.Run("pending claim refuses attachments and the blob is dropped", func(t *testing.T) {
		actor := testActor()
		f := newClaimFixture(denyAllPerms())
		claim := pendingClaim(t, actor, uuid.New())

		f.claimRepo.On("FindByID", mock.Anything, actor.TenantID, claim.ID).Return(claim, nil)

		_, err := f.svc.AddAttachment(ctx, actor, claim.ID, AttachmentUpload{
			FileName:    "late.jpg",
			ContentType: "image/jpeg",
			Size:        4,
			Body:        strings.NewReader("jpeg"),
		})

		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeInvalidTransition))
		assert.Empty(t, f.storage.blobs)
	})
}

func TestClaimService_ListAudit(t *testing.T) {
	ctx := context.Background()
	actor := testActor()
	f := newClaimFixture(denyAllPerms())
	claim := pendingClaim(t, actor, uuid.New())

	entry, err := expense.NewAuditEntry(
		claim.ID, actor.TenantID, expense.AuditActionCreated, actor.UserID,
		expense.ClaimStateDraft, expense.ClaimStatePending, "")
	require.NoError(t, err)

	f.claimRepo.On("FindByID", mock.Anything, actor.TenantID, claim.ID).Return(claim, nil)
	f.auditRepo.On("ListForClaim", mock.Anything, actor.TenantID, claim.ID).Return([]*expense.AuditEntry{entry}, nil)

	dtos, err := f.svc.ListAudit(ctx, actor, claim.ID)
	require.NoError(t, err)
	require.Len(t, dtos, 1)
	assert.Equal(t, "created", dtos[0].Action)
	assert.Equal(t, "pending_approval", dtos[0].ResultingState)
}
