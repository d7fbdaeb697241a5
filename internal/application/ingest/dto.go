package ingest

import (
	"time"

	"github.com/google/uuid"
	"github.com/tejit/billing/internal/domain/ingest"
)

// CreateImportRequest is the payload for starting a bulk usage import
type CreateImportRequest struct {
	ClientID     uint     `json:"client_id" binding:"required"`
	SourceKind   string   `json:"source_kind" binding:"required"`
	SourceHandle string   `json:"source_handle"`
	PeriodStart  string   `json:"period_start" binding:"required"`
	PeriodEnd    string   `json:"period_end" binding:"required"`
	AccountScope []string `json:"account_scope"`
}

// ListImportsQuery narrows and paginates import job listings
type ListImportsQuery struct {
	ClientID *uint   `form:"client_id"`
	Status   *string `form:"status"`
	Page     int     `form:"page"`
	PageSize int     `form:"page_size"`
}

// ImportJobResponse is the API view of an import job
type ImportJobResponse struct {
	ID               uuid.UUID         `json:"id"`
	ClientID         uint              `json:"client_id"`
	SourceKind       string            `json:"source_kind"`
	SourceHandle     string            `json:"source_handle,omitempty"`
	PeriodStart      time.Time         `json:"period_start"`
	PeriodEnd        time.Time         `json:"period_end"`
	AccountScope     []string          `json:"account_scope,omitempty"`
	Status           string            `json:"status"`
	TotalRecords     int               `json:"total_records"`
	ProcessedRecords int               `json:"processed_records"`
	FailedRecords    int               `json:"failed_records"`
	ErrorSummary     string            `json:"error_summary,omitempty"`
	ErrorSamples     []ingest.RowError `json:"error_samples,omitempty"`
	StartedAt        *time.Time        `json:"started_at,omitempty"`
	CompletedAt      *time.Time        `json:"completed_at,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// ImportJobListResponse is a paginated job listing
type ImportJobListResponse struct {
	Items      []*ImportJobResponse `json:"items"`
	TotalCount int64                `json:"total_count"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"page_size"`
}

// toJobResponse maps a domain job to its API view
func toJobResponse(job *ingest.ImportJob) *ImportJobResponse {
	return &ImportJobResponse{
		ID:               job.ID,
		ClientID:         job.ClientID,
		SourceKind:       string(job.SourceKind),
		SourceHandle:     job.SourceHandle,
		PeriodStart:      job.PeriodStart,
		PeriodEnd:        job.PeriodEnd,
		AccountScope:     job.AccountScope,
		Status:           string(job.Status),
		TotalRecords:     job.TotalRecords,
		ProcessedRecords: job.ProcessedRecords,
		FailedRecords:    job.FailedRecords,
		ErrorSummary:     job.ErrorSummary,
		ErrorSamples:     job.ErrorSamples,
		StartedAt:        job.StartedAt,
		CompletedAt:      job.CompletedAt,
		CreatedAt:        job.CreatedAt,
		UpdatedAt:        job.UpdatedAt,
	}
}
