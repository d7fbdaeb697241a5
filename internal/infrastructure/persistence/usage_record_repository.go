package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/tejit/billing/internal/domain/ingest"
	"github.com/tejit/billing/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormUsageRecordRepository implements ingest.UsageRecordRepository using GORM.
// It is the storage side of the batch writer: each SaveBatch call is one
// transaction, so a failed flush leaves no partial batch behind.
type GormUsageRecordRepository struct {
	db *gorm.DB
}

// NewGormUsageRecordRepository creates a new GormUsageRecordRepository
func NewGormUsageRecordRepository(db *gorm.DB) *GormUsageRecordRepository {
	return &GormUsageRecordRepository{db: db}
}

// SaveBatch writes the batch atomically. On error nothing from the batch is
// persisted.
func (r *GormUsageRecordRepository) SaveBatch(ctx context.Context, jobID uuid.UUID, batch []*ingest.UsageRecord) error {
	if len(batch) == 0 {
		return nil
	}

	recordModels := make([]models.UsageRecordModel, len(batch))
	for i, record := range batch {
		recordModels[i].FromDomain(record)
		recordModels[i].JobID = jobID
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&recordModels).Error
	})
}

// CountByJob returns the number of persisted records for a job
func (r *GormUsageRecordRepository) CountByJob(ctx context.Context, jobID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UsageRecordModel{}).
		Where("job_id = ?", jobID).
		Count(&count).Error
	return count, err
}

// FindByJob returns a page of records for a job in ordinal order
func (r *GormUsageRecordRepository) FindByJob(ctx context.Context, jobID uuid.UUID, limit, offset int) ([]*ingest.UsageRecord, error) {
	query := r.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("ordinal ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var recordModels []models.UsageRecordModel
	if err := query.Find(&recordModels).Error; err != nil {
		return nil, err
	}

	records := make([]*ingest.UsageRecord, len(recordModels))
	for i := range recordModels {
		records[i] = recordModels[i].ToDomain()
	}
	return records, nil
}

// Compile-time interface compliance check
var _ ingest.UsageRecordRepository = (*GormUsageRecordRepository)(nil)
