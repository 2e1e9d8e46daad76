package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestionale/backend/internal/domain/expense"
	"github.com/gestionale/backend/internal/domain/shared"
)

func newTestCategory(t *testing.T, tenantID uuid.UUID, name string) *expense.Category {
	t.Helper()
	category, err := expense.NewCategory(tenantID, name, "#1E88E5")
	require.NoError(t, err)
	return category
}

func TestGormCategoryRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewGormCategoryRepository(setupTestDB(t))

	tenantID := uuid.New()
	category := newTestCategory(t, tenantID, "Trasferte")
	require.NoError(t, category.SetMaxAmount(decimal.NewFromInt(500)))
	category.SetRequiresAttachment(true)

	require.NoError(t, repo.Create(ctx, category))

	loaded, err := repo.FindByID(ctx, tenantID, category.ID)
	require.NoError(t, err)
	assert.Equal(t, "Trasferte", loaded.Name)
	assert.True(t, loaded.RequiresAttachment)
	require.NotNil(t, loaded.MaxAmount)
	assert.True(t, loaded.MaxAmount.Equal(decimal.NewFromInt(500)))
	assert.True(t, loaded.Active)
}

func TestGormCategoryRepository_Update(t *testing.T) {
	ctx := context.Background()
	repo := NewGormCategoryRepository(setupTestDB(t))

	tenantID := uuid.New()
	category := newTestCategory(t, tenantID, "Vitto")
	require.NoError(t, category.SetMaxAmount(decimal.NewFromInt(100)))
	require.NoError(t, repo.Create(ctx, category))

	// Clearing the maximum must persist as NULL, not be skipped.
	category.ClearMaxAmount()
	category.Deactivate()
	require.NoError(t, repo.Update(ctx, category))

	loaded, err := repo.FindByID(ctx, tenantID, category.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded.MaxAmount)
	assert.False(t, loaded.Active)
}

func TestGormCategoryRepository_FindAll(t *testing.T) {
	ctx := context.Background()
	repo := NewGormCategoryRepository(setupTestDB(t))

	tenantID := uuid.New()
	active := newTestCategory(t, tenantID, "Alloggio")
	require.NoError(t, repo.Create(ctx, active))

	retired := newTestCategory(t, tenantID, "Benzina")
	retired.Deactivate()
	require.NoError(t, repo.Create(ctx, retired))

	all, err := repo.FindAll(ctx, tenantID, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyActive, err := repo.FindAll(ctx, tenantID, true)
	require.NoError(t, err)
	require.Len(t, onlyActive, 1)
	assert.Equal(t, "Alloggio", onlyActive[0].Name)
}

func TestGormCategoryRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewGormCategoryRepository(setupTestDB(t))

	category := newTestCategory(t, uuid.New(), "Temporanea")
	require.NoError(t, repo.Create(ctx, category))

	require.NoError(t, repo.Delete(ctx, category.TenantID, category.ID))
	assert.ErrorIs(t, repo.Delete(ctx, category.TenantID, category.ID), shared.ErrNotFound)
}
