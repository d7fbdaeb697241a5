package ingest

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// JobFilter narrows import job listings.
type JobFilter struct {
	ClientID *uint
	Status   *JobStatus
}

// JobListResult is a paginated job listing.
type JobListResult struct {
	Items      []*ImportJob
	TotalCount int64
	Page       int
	PageSize   int
}

// ImportJobRepository persists import jobs.
type ImportJobRepository interface {
	Save(ctx context.Context, job *ImportJob) error
	FindByID(ctx context.Context, id uuid.UUID) (*ImportJob, error)
	FindAll(ctx context.Context, filter JobFilter, page, pageSize int) (*JobListResult, error)
	// Delete removes the job row and cascades to its usage records. It must
	// refuse jobs that are not Deletable.
	Delete(ctx context.Context, id uuid.UUID) error
}

// UsageRecordRepository is the batch writer: validated records are flushed in
// bounded batches, one storage transaction per batch.
type UsageRecordRepository interface {
	// SaveBatch writes the batch atomically. On error nothing from the batch
	// is persisted and the whole batch counts as failed.
	SaveBatch(ctx context.Context, jobID uuid.UUID, batch []*UsageRecord) error
	CountByJob(ctx context.Context, jobID uuid.UUID) (int64, error)
	FindByJob(ctx context.Context, jobID uuid.UUID, limit, offset int) ([]*UsageRecord, error)
}

// SourceOpener resolves a job's source handle to a byte stream.
type SourceOpener interface {
	Open(ctx context.Context, handle string) (io.ReadCloser, error)
}
