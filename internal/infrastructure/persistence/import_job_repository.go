package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/tejit/billing/internal/domain/ingest"
	"github.com/tejit/billing/internal/domain/shared"
	"github.com/tejit/billing/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormImportJobRepository implements ingest.ImportJobRepository using GORM
type GormImportJobRepository struct {
	db *gorm.DB
}

// NewGormImportJobRepository creates a new GormImportJobRepository
func NewGormImportJobRepository(db *gorm.DB) *GormImportJobRepository {
	return &GormImportJobRepository{db: db}
}

// Save saves an import job (create or update)
func (r *GormImportJobRepository) Save(ctx context.Context, job *ingest.ImportJob) error {
	model := models.ImportJobModelFromDomain(job)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindByID finds an import job by ID
func (r *GormImportJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*ingest.ImportJob, error) {
	var model models.ImportJobModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll returns import jobs with pagination and filtering
func (r *GormImportJobRepository) FindAll(ctx context.Context, filter ingest.JobFilter, page, pageSize int) (*ingest.JobListResult, error) {
	query := r.db.WithContext(ctx).Model(&models.ImportJobModel{})

	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		return nil, err
	}

	if page > 0 && pageSize > 0 {
		offset := (page - 1) * pageSize
		query = query.Offset(offset).Limit(pageSize)
	}
	query = query.Order("created_at DESC")

	var jobModels []models.ImportJobModel
	if err := query.Find(&jobModels).Error; err != nil {
		return nil, err
	}

	jobs := make([]*ingest.ImportJob, len(jobModels))
	for i := range jobModels {
		jobs[i] = jobModels[i].ToDomain()
	}

	return &ingest.JobListResult{
		Items:      jobs,
		TotalCount: totalCount,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

// Delete deletes an import job and its usage records in one transaction.
// Jobs that are processing or completed are refused.
func (r *GormImportJobRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model models.ImportJobModel
		if err := tx.First(&model, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		if !model.ToDomain().Deletable() {
			if model.Status == ingest.JobStatusProcessing {
				return shared.ErrImportInProgress
			}
			return shared.ErrInvalidState
		}

		if err := tx.Delete(&models.UsageRecordModel{}, "job_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.ImportJobModel{}, "id = ?", id).Error
	})
}

// Compile-time interface compliance check
var _ ingest.ImportJobRepository = (*GormImportJobRepository)(nil)
