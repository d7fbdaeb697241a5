package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tejit/billing/internal/domain/client"
	"github.com/tejit/billing/internal/domain/ingest"
	"github.com/tejit/billing/internal/domain/shared"
	"go.uber.org/zap"
)

// periodDateLayout is the wire format for import period boundaries.
const periodDateLayout = "2006-01-02"

// ImportService orchestrates bulk usage imports: it validates requests,
// creates pending jobs and hands each one to its own controller goroutine.
// The service itself holds no per-job state beyond the cancel registry.
type ImportService struct {
	jobs    ingest.ImportJobRepository
	clients client.Repository
	runner  *JobRunner
	cancels *cancelRegistry
	logger  *zap.Logger
}

// NewImportService creates a new ImportService
func NewImportService(
	jobs ingest.ImportJobRepository,
	clients client.Repository,
	runner *JobRunner,
	logger *zap.Logger,
) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{
		jobs:    jobs,
		clients: clients,
		runner:  runner,
		cancels: newCancelRegistry(),
		logger:  logger,
	}
}

// CreateImport validates the request, persists a pending job and launches
// its controller. The response reflects the job as created; progress is
// observed via GetImport.
func (s *ImportService) CreateImport(ctx context.Context, req CreateImportRequest) (*ImportJobResponse, error) {
	exists, err := s.clients.Exists(ctx, req.ClientID)
	if err != nil {
		return nil, fmt.Errorf("failed to check client: %w", err)
	}
	if !exists {
		return nil, shared.ErrClientNotFound
	}

	periodStart, err := time.Parse(periodDateLayout, req.PeriodStart)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_PERIOD", fmt.Sprintf("Invalid period start: %s", req.PeriodStart))
	}
	periodEnd, err := time.Parse(periodDateLayout, req.PeriodEnd)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_PERIOD", fmt.Sprintf("Invalid period end: %s", req.PeriodEnd))
	}

	job, err := ingest.NewImportJob(
		req.ClientID,
		ingest.SourceKind(req.SourceKind),
		periodStart,
		periodEnd,
		req.SourceHandle,
		req.AccountScope,
	)
	if err != nil {
		return nil, err
	}

	if err := s.jobs.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save import job: %w", err)
	}

	s.logger.Info("import job created",
		zap.String("job_id", job.ID.String()),
		zap.Uint("client_id", job.ClientID),
		zap.String("source_kind", string(job.SourceKind)),
	)

	// The controller outlives the request; only the registry can cancel it.
	runCtx, cancel := context.WithCancel(context.Background())
	s.cancels.register(job.ID, cancel)
	go func() {
		defer s.cancels.remove(job.ID)
		defer cancel()
		s.runner.Run(runCtx, job)
	}()

	return toJobResponse(job), nil
}

// GetImport returns the current state of a job.
func (s *ImportService) GetImport(ctx context.Context, id uuid.UUID) (*ImportJobResponse, error) {
	job, err := s.jobs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toJobResponse(job), nil
}

// ListImports returns a filtered, paginated job listing.
func (s *ImportService) ListImports(ctx context.Context, query ListImportsQuery) (*ImportJobListResponse, error) {
	filter := ingest.JobFilter{ClientID: query.ClientID}
	if query.Status != nil {
		status := ingest.JobStatus(*query.Status)
		if !status.IsValid() {
			return nil, shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Invalid job status: %s", *query.Status))
		}
		filter.Status = &status
	}

	page, pageSize := query.Page, query.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	result, err := s.jobs.FindAll(ctx, filter, page, pageSize)
	if err != nil {
		return nil, err
	}

	items := make([]*ImportJobResponse, len(result.Items))
	for i, job := range result.Items {
		items[i] = toJobResponse(job)
	}
	return &ImportJobListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Page:       result.Page,
		PageSize:   result.PageSize,
	}, nil
}

// CancelImport stops a running or pending job. A job whose controller lives
// in this process is cancelled cooperatively; a pending job with no
// controller (left over from a crash) is failed directly. Terminal jobs are
// refused.
func (s *ImportService) CancelImport(ctx context.Context, id uuid.UUID) error {
	job, err := s.jobs.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if job.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel import in state: %s", job.Status))
	}

	if s.cancels.cancel(id) {
		s.logger.Info("import cancellation requested", zap.String("job_id", id.String()))
		return nil
	}

	// No controller in this process; settle the job record directly.
	if err := job.Fail("cancelled by operator"); err != nil {
		return err
	}
	if err := s.jobs.Save(ctx, job); err != nil {
		return fmt.Errorf("failed to persist cancelled job: %w", err)
	}
	s.logger.Info("orphaned import job cancelled", zap.String("job_id", id.String()))
	return nil
}

// DeleteImport removes a pending or failed job together with its records.
func (s *ImportService) DeleteImport(ctx context.Context, id uuid.UUID) error {
	return s.jobs.Delete(ctx, id)
}
