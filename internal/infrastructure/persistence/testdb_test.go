package persistence

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tejit/billing/internal/infrastructure/persistence/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB opens an in-memory SQLite database with the full schema
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.ClientModel{},
		&models.ImportJobModel{},
		&models.UsageRecordModel{},
		&models.InvoiceModel{},
		&models.InvoiceLineItemModel{},
		&models.InvoiceSequenceModel{},
	)
	require.NoError(t, err)

	return db
}
