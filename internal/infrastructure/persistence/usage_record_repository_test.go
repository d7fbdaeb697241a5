package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tejit/billing/internal/domain/ingest"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newUsageRecord(jobID uuid.UUID, ordinal int) *ingest.UsageRecord {
	return &ingest.UsageRecord{
		JobID:     jobID,
		Ordinal:   ordinal,
		AccountID: "acct-1",
		UsageType: "BoxUsage",
		Quantity:  decimal.NewFromInt(int64(ordinal)),
		Rate:      decimal.RequireFromString("0.10"),
		Cost:      decimal.NewFromInt(int64(ordinal)).Mul(decimal.RequireFromString("0.10")),
		Currency:  "USD",
	}
}

func TestGormUsageRecordRepository_SaveBatch(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormUsageRecordRepository(db)
	ctx := context.Background()

	t.Run("persists a full batch", func(t *testing.T) {
		jobID := uuid.New()
		batch := make([]*ingest.UsageRecord, 10)
		for i := range batch {
			batch[i] = newUsageRecord(jobID, i+1)
		}

		require.NoError(t, repo.SaveBatch(ctx, jobID, batch))

		count, err := repo.CountByJob(ctx, jobID)
		require.NoError(t, err)
		assert.Equal(t, int64(10), count)
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		require.NoError(t, repo.SaveBatch(ctx, uuid.New(), nil))
	})

	t.Run("duplicate ordinal fails the whole batch", func(t *testing.T) {
		jobID := uuid.New()
		require.NoError(t, repo.SaveBatch(ctx, jobID, []*ingest.UsageRecord{newUsageRecord(jobID, 1)}))

		// Second batch collides with ordinal 1; ordinal 2 must not survive.
		err := repo.SaveBatch(ctx, jobID, []*ingest.UsageRecord{
			newUsageRecord(jobID, 1),
			newUsageRecord(jobID, 2),
		})
		require.Error(t, err)

		count, err := repo.CountByJob(ctx, jobID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})
}

func TestGormUsageRecordRepository_FindByJob(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormUsageRecordRepository(db)
	ctx := context.Background()

	jobID := uuid.New()
	// Insert out of order to verify read-side ordering.
	for _, ordinal := range []int{3, 1, 2, 5, 4} {
		require.NoError(t, repo.SaveBatch(ctx, jobID, []*ingest.UsageRecord{newUsageRecord(jobID, ordinal)}))
	}

	t.Run("returns records in ordinal order", func(t *testing.T) {
		records, err := repo.FindByJob(ctx, jobID, 0, 0)
		require.NoError(t, err)
		require.Len(t, records, 5)
		for i, record := range records {
			assert.Equal(t, i+1, record.Ordinal)
			assert.True(t, record.Cost.Equal(decimal.NewFromInt(int64(i+1)).Mul(decimal.RequireFromString("0.10"))),
				fmt.Sprintf("cost mismatch at ordinal %d: %s", record.Ordinal, record.Cost))
		}
	})

	t.Run("honors limit and offset", func(t *testing.T) {
		records, err := repo.FindByJob(ctx, jobID, 2, 2)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, 3, records[0].Ordinal)
		assert.Equal(t, 4, records[1].Ordinal)
	})

	t.Run("unknown job yields empty page", func(t *testing.T) {
		records, err := repo.FindByJob(ctx, uuid.New(), 0, 0)
		require.NoError(t, err)
		assert.Empty(t, records)
	})
}

// newMockUsageRecordRepository creates a repository with a mocked SQL connection
func newMockUsageRecordRepository(t *testing.T) (*GormUsageRecordRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormUsageRecordRepository(gormDB), mock, mockDB
}

func TestGormUsageRecordRepository_SaveBatchRollsBack(t *testing.T) {
	t.Run("insert failure rolls the transaction back", func(t *testing.T) {
		repo, mock, mockDB := newMockUsageRecordRepository(t)
		defer mockDB.Close()

		jobID := uuid.New()

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO "usage_records"`).
			WillReturnError(sql.ErrConnDone)
		mock.ExpectRollback()

		err := repo.SaveBatch(context.Background(), jobID, []*ingest.UsageRecord{newUsageRecord(jobID, 1)})

		require.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
