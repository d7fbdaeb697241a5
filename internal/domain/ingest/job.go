// Package ingest contains the usage-ingestion domain: import jobs, usage
// records and the row validator that feeds them.
package ingest

import (
	"fmt"
	"time"

	"github.com/tejit/billing/internal/domain/shared"
)

// SourceKind identifies where an import job reads its usage data from.
type SourceKind string

const (
	SourceKindFile        SourceKind = "file"
	SourceKindExternalAPI SourceKind = "external-api"
	SourceKindManual      SourceKind = "manual"
)

// IsValid checks if the source kind is valid
func (k SourceKind) IsValid() bool {
	switch k {
	case SourceKindFile, SourceKindExternalAPI, SourceKindManual:
		return true
	}
	return false
}

// JobStatus represents the lifecycle state of an import job.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// IsValid checks if the status is valid
func (s JobStatus) IsValid() bool {
	switch s {
	case JobStatusPending, JobStatusProcessing, JobStatusCompleted, JobStatusFailed:
		return true
	}
	return false
}

// IsTerminal returns true if this is a terminal state
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// MaxErrorSummaryLen bounds the error summary carried by a failed job.
const MaxErrorSummaryLen = 2000

// ImportJob is one bulk-ingestion run for one client and one declared billing
// period. It is created pending by the orchestrator and mutated only by the
// job controller that owns it.
type ImportJob struct {
	shared.BaseAggregateRoot
	ClientID         uint
	SourceKind       SourceKind
	SourceHandle     string
	PeriodStart      time.Time
	PeriodEnd        time.Time
	AccountScope     []string
	Status           JobStatus
	TotalRecords     int
	ProcessedRecords int
	FailedRecords    int
	ErrorSummary     string
	ErrorSamples     []RowError
	StartedAt        *time.Time
	CompletedAt      *time.Time
}

// NewImportJob creates a pending import job.
func NewImportJob(clientID uint, kind SourceKind, periodStart, periodEnd time.Time, sourceHandle string, accountScope []string) (*ImportJob, error) {
	if clientID == 0 {
		return nil, shared.ErrClientNotFound
	}
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_SOURCE_KIND", fmt.Sprintf("Invalid source kind: %s", kind))
	}
	if periodStart.After(periodEnd) {
		return nil, shared.ErrInvalidPeriod
	}
	if kind == SourceKindFile && sourceHandle == "" {
		return nil, shared.ErrMissingSource
	}

	return &ImportJob{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ClientID:          clientID,
		SourceKind:        kind,
		SourceHandle:      sourceHandle,
		PeriodStart:       periodStart,
		PeriodEnd:         periodEnd,
		AccountScope:      accountScope,
		Status:            JobStatusPending,
		ErrorSamples:      make([]RowError, 0),
	}, nil
}

// Start transitions the job from pending to processing. It happens at the
// first byte read from the source.
func (j *ImportJob) Start() error {
	if j.Status != JobStatusPending {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot start processing from state: %s", j.Status))
	}
	j.Status = JobStatusProcessing
	now := time.Now()
	j.StartedAt = &now
	j.UpdatedAt = now
	j.IncrementVersion()
	return nil
}

// RecordProgress advances the counters while the job is processing. Counters
// are monotonically non-decreasing; regressions are rejected.
func (j *ImportJob) RecordProgress(total, processed, failed int) error {
	if j.Status != JobStatusProcessing {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot record progress in state: %s", j.Status))
	}
	if total < j.TotalRecords || processed < j.ProcessedRecords || failed < j.FailedRecords {
		return shared.NewDomainError("COUNTER_REGRESSION", "Import counters cannot decrease")
	}
	if processed+failed > total {
		return shared.NewDomainError("COUNTER_OVERFLOW", "Processed plus failed cannot exceed total")
	}
	j.TotalRecords = total
	j.ProcessedRecords = processed
	j.FailedRecords = failed
	j.UpdatedAt = time.Now()
	return nil
}

// Complete marks the job completed. The whole stream must have been consumed:
// every row is accounted for as processed or failed.
func (j *ImportJob) Complete() error {
	if j.Status != JobStatusProcessing {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot complete from state: %s", j.Status))
	}
	if j.ProcessedRecords+j.FailedRecords != j.TotalRecords {
		return shared.NewDomainError("COUNTER_MISMATCH",
			fmt.Sprintf("Cannot complete: processed(%d)+failed(%d) != total(%d)", j.ProcessedRecords, j.FailedRecords, j.TotalRecords))
	}
	j.Status = JobStatusCompleted
	now := time.Now()
	j.CompletedAt = &now
	j.UpdatedAt = now
	j.IncrementVersion()
	return nil
}

// Fail marks the job failed with a bounded error summary. Counters freeze at
// their current values; partially written records remain.
func (j *ImportJob) Fail(summary string) error {
	if j.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot fail from terminal state: %s", j.Status))
	}
	if len(summary) > MaxErrorSummaryLen {
		summary = summary[:MaxErrorSummaryLen]
	}
	j.Status = JobStatusFailed
	j.ErrorSummary = summary
	now := time.Now()
	j.CompletedAt = &now
	j.UpdatedAt = now
	j.IncrementVersion()
	return nil
}

// AttachErrorSamples stores a capped sample of row errors for diagnostics.
func (j *ImportJob) AttachErrorSamples(samples []RowError) {
	j.ErrorSamples = samples
	j.UpdatedAt = time.Now()
}

// Deletable reports whether the job may be deleted. An import still
// processing must not be deletable; completed runs keep their records.
func (j *ImportJob) Deletable() bool {
	return j.Status == JobStatusPending || j.Status == JobStatusFailed
}

// IsTerminal returns true if the job reached a terminal state.
func (j *ImportJob) IsTerminal() bool {
	return j.Status.IsTerminal()
}

// Duration returns how long the job has been (or was) running.
func (j *ImportJob) Duration() time.Duration {
	if j.StartedAt == nil {
		return 0
	}
	end := time.Now()
	if j.CompletedAt != nil {
		end = *j.CompletedAt
	}
	return end.Sub(*j.StartedAt)
}
