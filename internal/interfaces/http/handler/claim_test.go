package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	appexpense "github.com/gestionale/backend/internal/application/expense"
	appidentity "github.com/gestionale/backend/internal/application/identity"
	"github.com/gestionale/backend/internal/domain/expense"
	"github.com/gestionale/backend/internal/domain/identity"
	"github.com/gestionale/backend/internal/domain/shared"
	"github.com/gestionale/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type claimFixture struct {
	claimRepo    *MockClaimRepository
	categoryRepo *MockCategoryRepository
	auditRepo    *MockAuditRepository
	settingRepo  *MockApprovalSettingRepository
	actor        appidentity.Actor
	router       *gin.Engine
}

func newClaimFixture(withActor bool) *claimFixture {
	f := &claimFixture{
		claimRepo:    new(MockClaimRepository),
		categoryRepo: new(MockCategoryRepository),
		auditRepo:    new(MockAuditRepository),
		settingRepo:  new(MockApprovalSettingRepository),
	}
	ref, _ := identity.NewBuiltinRoleRef(identity.BuiltinOperator)
	f.actor = appidentity.Actor{UserID: uuid.New(), TenantID: uuid.New(), Role: ref}

	svc := appexpense.NewClaimService(
		f.claimRepo,
		f.categoryRepo,
		f.auditRepo,
		expense.NewApprovalResolver(f.settingRepo),
		allowAll{},
		stubStorage{},
		zap.NewNop(),
	)
	h := NewClaimHandler(svc)

	f.router = gin.New()
	api := f.router.Group("/api/v1")
	if withActor {
		api.Use(func(c *gin.Context) {
			c.Set(middleware.ActorKey, f.actor)
		})
	}
	h.RegisterRoutes(api)
	return f
}

func (f *claimFixture) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	f.router.ServeHTTP(w, req)
	return w
}

func (f *claimFixture) testCategory(t *testing.T) *expense.Category {
	t.Helper()
	cat, err := expense.NewCategory(f.actor.TenantID, "Trasferte", "#1E88E5")
	require.NoError(t, err)
	return cat
}

func (f *claimFixture) pendingClaim(t *testing.T, categoryID uuid.UUID) *expense.Claim {
	t.Helper()
	claim, err := expense.NewClaim(
		f.actor.TenantID, uuid.New(), f.actor.UserID, categoryID,
		time.Now(), decimal.NewFromFloat(80), "Taxi", nil, f.actor.UserID)
	require.NoError(t, err)
	require.NoError(t, claim.Submit(true))
	return claim
}

func submitBody(projectID, categoryID uuid.UUID) map[string]any {
	return map[string]any{
		"project_id":  projectID.String(),
		"category_id": categoryID.String(),
		"claim_date":  "2026-08-20",
		"amount":      "120.50",
		"description": "Treno Milano-Roma",
	}
}

func TestClaimHandler_Submit(t *testing.T) {
	t.Run("lands in pending when approval enabled", func(t *testing.T) {
		f := newClaimFixture(true)
		cat := f.testCategory(t)
		projectID := uuid.New()

		setting, err := expense.NewApprovalSetting(f.actor.TenantID, projectID, expense.ClaimTypeExpense, true)
		require.NoError(t, err)

		f.categoryRepo.On("FindByID", mock.Anything, f.actor.TenantID, cat.ID).Return(cat, nil)
		f.settingRepo.On("Find", mock.Anything, f.actor.TenantID, projectID, expense.ClaimTypeExpense).Return(setting, nil)
		f.claimRepo.On("GenerateClaimNumber", mock.Anything, f.actor.TenantID).Return("NS-202608-00042", nil)
		f.claimRepo.On("CreateWithAudit", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		w := f.do(http.MethodPost, "/api/v1/claims", submitBody(projectID, cat.ID))

		require.Equal(t, http.StatusCreated, w.Code)
		resp := decodeResponse(t, w)
		data := resp.Data.(map[string]any)
		assert.Equal(t, "pending_approval", data["state"])
		assert.Equal(t, "NS-202608-00042", data["claim_number"])
	})

	t.Run("invalid amount", func(t *testing.T) {
		f := newClaimFixture(true)
		body := submitBody(uuid.New(), uuid.New())
		body["amount"] = "not-a-number"

		w := f.do(http.MethodPost, "/api/v1/claims", body)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid claim date", func(t *testing.T) {
		f := newClaimFixture(true)
		body := submitBody(uuid.New(), uuid.New())
		body["claim_date"] = "20/08/2026"

		w := f.do(http.MethodPost, "/api/v1/claims", body)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		f := newClaimFixture(false)

		w := f.do(http.MethodPost, "/api/v1/claims", submitBody(uuid.New(), uuid.New()))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestClaimHandler_Approve(t *testing.T) {
	t.Run("lost concurrency race", func(t *testing.T) {
		f := newClaimFixture(true)
		claim := f.pendingClaim(t, uuid.New())

		f.claimRepo.On("FindByID", mock.Anything, f.actor.TenantID, claim.ID).Return(claim, nil)
		f.claimRepo.On("SaveWithVersionAndAudit", mock.Anything, mock.Anything, mock.Anything).
			Return(shared.ErrConcurrencyConflict)

		w := f.do(http.MethodPost, "/api/v1/claims/"+claim.ID.String()+"/approve", nil)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, shared.CodeConcurrencyConflict, decodeResponse(t, w).Error.Code)
	})

	t.Run("approving an approved claim", func(t *testing.T) {
		f := newClaimFixture(true)
		claim := f.pendingClaim(t, uuid.New())
		require.NoError(t, claim.Approve(uuid.New()))

		f.claimRepo.On("FindByID", mock.Anything, f.actor.TenantID, claim.ID).Return(claim, nil)

		w := f.do(http.MethodPost, "/api/v1/claims/"+claim.ID.String()+"/approve", nil)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, shared.CodeInvalidTransition, decodeResponse(t, w).Error.Code)
		f.claimRepo.AssertNotCalled(t, "SaveWithVersionAndAudit", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestClaimHandler_Reject(t *testing.T) {
	t.Run("missing reason", func(t *testing.T) {
		f := newClaimFixture(true)
		claimID := uuid.New()

		w := f.do(http.MethodPost, "/api/v1/claims/"+claimID.String()+"/reject", map[string]any{})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		f.claimRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects with reason", func(t *testing.T) {
		f := newClaimFixture(true)
		claim := f.pendingClaim(t, uuid.New())

		f.claimRepo.On("FindByID", mock.Anything, f.actor.TenantID, claim.ID).Return(claim, nil)
		f.claimRepo.On("SaveWithVersionAndAudit", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		w := f.do(http.MethodPost, "/api/v1/claims/"+claim.ID.String()+"/reject",
			map[string]any{"reason": "Missing receipt"})

		require.Equal(t, http.StatusOK, w.Code)
		data := decodeResponse(t, w).Data.(map[string]any)
		assert.Equal(t, "rejected", data["state"])
		assert.Equal(t, "Missing receipt", data["rejection_reason"])
	})
}

func TestClaimHandler_List(t *testing.T) {
	f := newClaimFixture(true)

	f.claimRepo.On("FindAll", mock.Anything, f.actor.TenantID, mock.Anything).
		Return([]*expense.Claim{}, int64(0), nil)

	w := f.do(http.MethodGet, "/api/v1/claims?page=1&page_size=20&state=pending_approval", nil)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(0), resp.Meta.Total)

	filter := f.claimRepo.Calls[0].Arguments.Get(2).(expense.ClaimFilter)
	require.NotNil(t, filter.State)
	assert.Equal(t, expense.ClaimStatePending, *filter.State)
}

func TestClaimHandler_ListInvalidState(t *testing.T) {
	f := newClaimFixture(true)

	w := f.do(http.MethodGet, "/api/v1/claims?state=bogus", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClaimHandler_Audit(t *testing.T) {
	f := newClaimFixture(true)
	claim := f.pendingClaim(t, uuid.New())

	entry, err := expense.NewAuditEntry(
		claim.ID, f.actor.TenantID, expense.AuditActionCreated, f.actor.UserID,
		expense.ClaimStateDraft, expense.ClaimStatePending, "")
	require.NoError(t, err)

	f.claimRepo.On("FindByID", mock.Anything, f.actor.TenantID, claim.ID).Return(claim, nil)
	f.auditRepo.On("ListForClaim", mock.Anything, f.actor.TenantID, claim.ID).
		Return([]*expense.AuditEntry{entry}, nil)

	w := f.do(http.MethodGet, "/api/v1/claims/"+claim.ID.String()+"/audit", nil)

	require.Equal(t, http.StatusOK, w.Code)
	entries := decodeResponse(t, w).Data.([]any)
	require.Len(t, entries, 1)
	first := entries[0].(map[string]any)
	assert.Equal(t, "created", first["action"])
}
