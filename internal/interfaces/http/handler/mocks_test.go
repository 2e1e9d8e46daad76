package handler

import (
	"context"
	"io"
	"time"

	appidentity "github.com/gestionale/backend/internal/application/identity"
	"github.com/gestionale/backend/internal/domain/expense"
	"github.com/gestionale/backend/internal/domain/identity"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// allowAll grants every permission; denyAll grants none. Route guards and
// service guards are exercised separately from the permission evaluator,
// which has its own tests.
type allowAll struct{}

func (allowAll) Check(context.Context, appidentity.Actor, identity.Section, identity.Action) bool {
	return true
}

type denyAll struct{}

func (denyAll) Check(context.Context, appidentity.Actor, identity.Section, identity.Action) bool {
	return false
}

// MockRoleRepository is a mock implementation of identity.RoleRepository
type MockRoleRepository struct {
	mock.Mock
}

func (m *MockRoleRepository) Create(ctx context.Context, role *identity.Role) error {
	args := m.Called(ctx, role)
	return args.Error(0)
}

func (m *MockRoleRepository) Update(ctx context.Context, role *identity.Role) error {
	args := m.Called(ctx, role)
	return args.Error(0)
}

func (m *MockRoleRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockRoleRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*identity.Role, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Role), args.Error(1)
}

func (m *MockRoleRepository) FindAll(ctx context.Context, tenantID uuid.UUID) ([]*identity.Role, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*identity.Role), args.Error(1)
}

func (m *MockRoleRepository) Count(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(int64), args.Error(1)
}

// MockUserRepository is a mock implementation of identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) CountWithCustomRole(ctx context.Context, tenantID, roleID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID, roleID)
	return args.Get(0).(int64), args.Error(1)
}

// MockClaimRepository is a mock implementation of expense.ClaimRepository
type MockClaimRepository struct {
	mock.Mock
}

func (m *MockClaimRepository) Create(ctx context.Context, claim *expense.Claim) error {
	args := m.Called(ctx, claim)
	return args.Error(0)
}

func (m *MockClaimRepository) CreateWithAudit(ctx context.Context, claim *expense.Claim, entry *expense.AuditEntry) error {
	args := m.Called(ctx, claim, entry)
	return args.Error(0)
}

func (m *MockClaimRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*expense.Claim, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*expense.Claim), args.Error(1)
}

func (m *MockClaimRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter expense.ClaimFilter) ([]*expense.Claim, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*expense.Claim), args.Get(1).(int64), args.Error(2)
}

func (m *MockClaimRepository) SaveWithVersion(ctx context.Context, claim *expense.Claim) error {
	args := m.Called(ctx, claim)
	return args.Error(0)
}

func (m *MockClaimRepository) SaveWithVersionAndAudit(ctx context.Context, claim *expense.Claim, entry *expense.AuditEntry) error {
	args := m.Called(ctx, claim, entry)
	return args.Error(0)
}

func (m *MockClaimRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockClaimRepository) GenerateClaimNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	args := m.Called(ctx, tenantID)
	return args.String(0), args.Error(1)
}

// MockCategoryRepository is a mock implementation of expense.CategoryRepository
type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) Create(ctx context.Context, category *expense.Category) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *MockCategoryRepository) Update(ctx context.Context, category *expense.Category) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *MockCategoryRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockCategoryRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*expense.Category, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*expense.Category), args.Error(1)
}

func (m *MockCategoryRepository) FindAll(ctx context.Context, tenantID uuid.UUID, activeOnly bool) ([]*expense.Category, error) {
	args := m.Called(ctx, tenantID, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*expense.Category), args.Error(1)
}

// MockAuditRepository is a mock implementation of expense.AuditRepository
type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Append(ctx context.Context, entry *expense.AuditEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditRepository) ListForClaim(ctx context.Context, tenantID, claimID uuid.UUID) ([]*expense.AuditEntry, error) {
	args := m.Called(ctx, tenantID, claimID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*expense.AuditEntry), args.Error(1)
}

// MockApprovalSettingRepository is a mock implementation of expense.ApprovalSettingRepository
type MockApprovalSettingRepository struct {
	mock.Mock
}

func (m *MockApprovalSettingRepository) Find(ctx context.Context, tenantID, projectID uuid.UUID, claimType expense.ClaimType) (*expense.ApprovalSetting, error) {
	args := m.Called(ctx, tenantID, projectID, claimType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*expense.ApprovalSetting), args.Error(1)
}

func (m *MockApprovalSettingRepository) Save(ctx context.Context, setting *expense.ApprovalSetting) error {
	args := m.Called(ctx, setting)
	return args.Error(0)
}

func (m *MockApprovalSettingRepository) FindAllForProject(ctx context.Context, tenantID, projectID uuid.UUID) ([]*expense.ApprovalSetting, error) {
	args := m.Called(ctx, tenantID, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*expense.ApprovalSetting), args.Error(1)
}

// stubStorage is an in-memory AttachmentStorage for handler tests
type stubStorage struct{}

func (stubStorage) Put(_ context.Context, tenantID, fileName, _ string, _ io.Reader) (string, error) {
	return "claims/" + tenantID + "/" + fileName, nil
}

func (stubStorage) PresignGet(_ context.Context, storagePath string, _ time.Duration) (string, error) {
	return "https://storage.local/" + storagePath + "?signed=1", nil
}

func (stubStorage) Delete(context.Context, string) error {
	return nil
}
