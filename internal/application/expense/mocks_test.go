package expense

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	appidentity "github.com/gestionale/backend/internal/application/identity"
	"github.com/gestionale/backend/internal/domain/expense"
	"github.com/gestionale/backend/internal/domain/identity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

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
		return nil, 0, args.Error(2)
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

// stubPermissions answers Check from a fixed grant set, keyed section:action.
type stubPermissions struct {
	grants map[string]bool
}

func allowPerms(pairs ...string) *stubPermissions {
	grants := make(map[string]bool, len(pairs))
	for _, p := range pairs {
		grants[p] = true
	}
	return &stubPermissions{grants: grants}
}

func denyAllPerms() *stubPermissions {
	return &stubPermissions{grants: map[string]bool{}}
}

func (p *stubPermissions) Check(_ context.Context, _ appidentity.Actor, section identity.Section, action identity.Action) bool {
	return p.grants[string(section)+":"+string(action)]
}

// stubStorage is an in-memory AttachmentStorage for tests.
type stubStorage struct {
	mu    sync.Mutex
	blobs map[string][]byte
	seq   int
}

func newStubStorage() *stubStorage {
	return &stubStorage{blobs: make(map[string][]byte)}
}

func (s *stubStorage) Put(_ context.Context, tenantID, fileName, _ string, body io.Reader) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	s.seq++
	path := fmt.Sprintf("%s/%d-%s", tenantID, s.seq, fileName)
	s.blobs[path] = data
	return path, nil
}

func (s *stubStorage) PresignGet(_ context.Context, storagePath string, _ time.Duration) (string, error) {
	return "https://storage.test/" + storagePath, nil
}

func (s *stubStorage) Delete(_ context.Context, storagePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, storagePath)
	return nil
}
