package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestionale/backend/internal/domain/identity"
	"github.com/gestionale/backend/internal/domain/shared"
)

func newTestUser(t *testing.T, tenantID uuid.UUID, email string) *identity.User {
	t.Helper()

	roleRef, err := identity.NewBuiltinRoleRef(identity.BuiltinOperator)
	require.NoError(t, err)

	user, err := identity.NewUser(tenantID, email, "Mario Rossi", "correct-horse-battery", roleRef)
	require.NoError(t, err)
	return user
}

func TestGormUserRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewGormUserRepository(setupTestDB(t))

	tenantID := uuid.New()
	user := newTestUser(t, tenantID, "Mario.Rossi@Example.com")
	require.NoError(t, repo.Create(ctx, user))

	t.Run("find by id round-trips role reference and hash", func(t *testing.T) {
		loaded, err := repo.FindByID(ctx, tenantID, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "mario.rossi@example.com", loaded.Email)
		assert.True(t, loaded.Role.IsBuiltin())
		assert.Equal(t, identity.BuiltinOperator, loaded.Role.Builtin)
		assert.True(t, loaded.VerifyPassword("correct-horse-battery"))
	})

	t.Run("find by email is case insensitive on input", func(t *testing.T) {
		loaded, err := repo.FindByEmail(ctx, "  MARIO.ROSSI@example.com ")
		require.NoError(t, err)
		assert.Equal(t, user.ID, loaded.ID)
	})

	t.Run("unknown email returns not found", func(t *testing.T) {
		_, err := repo.FindByEmail(ctx, "nessuno@example.com")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormUserRepository_Update(t *testing.T) {
	ctx := context.Background()
	repo := NewGormUserRepository(setupTestDB(t))

	tenantID := uuid.New()
	user := newTestUser(t, tenantID, "anna@example.com")
	require.NoError(t, repo.Create(ctx, user))

	user.RecordLogin(time.Date(2026, 8, 28, 9, 30, 0, 0, time.UTC))
	user.Disable()
	require.NoError(t, repo.Update(ctx, user))

	loaded, err := repo.FindByID(ctx, tenantID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, identity.UserStatusDisabled, loaded.Status)
	require.NotNil(t, loaded.LastLoginAt)
	assert.False(t, loaded.IsActive())
}

func TestGormUserRepository_CountWithCustomRole(t *testing.T) {
	ctx := context.Background()
	repo := NewGormUserRepository(setupTestDB(t))

	tenantID := uuid.New()
	roleID := uuid.New()
	roleRef, err := identity.NewCustomRoleRef(roleID)
	require.NoError(t, err)

	holder, err := identity.NewUser(tenantID, "capo@example.com", "Capo", "password123", roleRef)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, holder))

	bystander := newTestUser(t, tenantID, "altro@example.com")
	require.NoError(t, repo.Create(ctx, bystander))

	count, err := repo.CountWithCustomRole(ctx, tenantID, roleID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	count, err = repo.CountWithCustomRole(ctx, tenantID, uuid.New())
	require.NoError(t, err)
	assert.Zero(t, count)
}
