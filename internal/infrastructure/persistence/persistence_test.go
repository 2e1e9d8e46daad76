package persistence

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/gestionale/backend/internal/infrastructure/persistence/models"
)

// setupTestDB opens an in-memory SQLite database with all tables migrated.
// The models carry no PostgreSQL-only defaults, so the same structs migrate
// cleanly on both engines.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.RoleModel{},
		&models.UserModel{},
		&models.ClaimModel{},
		&models.CategoryModel{},
		&models.AuditEntryModel{},
		&models.ApprovalSettingModel{},
		&models.ClaimCounterModel{},
	)
	require.NoError(t, err)

	return db
}
