package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/tejit/billing/internal/domain/ingest"
	usagecsv "github.com/tejit/billing/internal/infrastructure/ingest"
	"go.uber.org/zap"
)

// requiredColumns must be present in every usage source header.
var requiredColumns = []string{ingest.ColUsageType, ingest.ColCost, ingest.ColUsageQuantity}

// RunnerConfig tunes the job controller.
type RunnerConfig struct {
	BatchSize       int
	MaxErrorSamples int
	FlushRetryDelay time.Duration
	StallTimeout    time.Duration
}

// normalized fills zero values with defaults.
func (c RunnerConfig) normalized() RunnerConfig {
	if c.BatchSize < 1 {
		c.BatchSize = 200
	}
	if c.MaxErrorSamples < 1 {
		c.MaxErrorSamples = 50
	}
	if c.FlushRetryDelay <= 0 {
		c.FlushRetryDelay = 500 * time.Millisecond
	}
	if c.StallTimeout <= 0 {
		c.StallTimeout = 5 * time.Minute
	}
	return c
}

// JobRunner is the controller that owns one import job for its whole run: it
// streams the source, validates rows, flushes bounded batches and keeps the
// persisted counters current. One runner, one job; nothing else mutates a
// processing job.
type JobRunner struct {
	jobs    ingest.ImportJobRepository
	records ingest.UsageRecordRepository
	opener  ingest.SourceOpener
	cfg     RunnerConfig
	logger  *zap.Logger
}

// NewJobRunner creates a JobRunner.
func NewJobRunner(
	jobs ingest.ImportJobRepository,
	records ingest.UsageRecordRepository,
	opener ingest.SourceOpener,
	cfg RunnerConfig,
	logger *zap.Logger,
) *JobRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobRunner{
		jobs:    jobs,
		records: records,
		opener:  opener,
		cfg:     cfg.normalized(),
		logger:  logger,
	}
}

// runState carries the counters of one run. They only ever increase.
type runState struct {
	total     int
	processed int
	failed    int
	errs      *ingest.ErrorCollection
}

// Run drives the job to a terminal state. Row-level problems feed the failed
// counter and never abort the run; stream or storage faults fail the job
// with its counters frozen at the rows already accounted for.
func (r *JobRunner) Run(ctx context.Context, job *ingest.ImportJob) {
	log := r.logger.With(
		zap.String("job_id", job.ID.String()),
		zap.Uint("client_id", job.ClientID),
	)

	// Terminal-state saves must survive the cancellation that caused them.
	saveCtx := context.WithoutCancel(ctx)

	if err := job.Start(); err != nil {
		log.Error("cannot start import job", zap.Error(err))
		return
	}
	if err := r.jobs.Save(saveCtx, job); err != nil {
		log.Error("cannot persist started job", zap.Error(err))
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Watchdog: reset every time a row is accounted for, so only a source
	// that stops producing or a storage layer that stops accepting trips the
	// timer. Rate does not matter; an arbitrarily slow trickle that keeps
	// moving the counters never stalls.
	var stalled atomic.Bool
	watchdog := time.AfterFunc(r.cfg.StallTimeout, func() {
		stalled.Store(true)
		cancel()
	})
	defer watchdog.Stop()

	state := &runState{errs: ingest.NewErrorCollection(r.cfg.MaxErrorSamples)}

	src, err := r.opener.Open(runCtx, job.SourceHandle)
	if err != nil {
		r.fail(saveCtx, job, state, fmt.Sprintf("cannot open source %q: %v", job.SourceHandle, err), log)
		return
	}
	defer src.Close()

	reader, err := usagecsv.NewReader(src, usagecsv.WithLazyQuotes(false))
	if err != nil {
		r.fail(saveCtx, job, state, fmt.Sprintf("unreadable source: %v", err), log)
		return
	}
	if err := reader.ReadHeader(); err != nil {
		r.fail(saveCtx, job, state, fmt.Sprintf("unreadable header: %v", err), log)
		return
	}
	if missing := reader.MissingHeaders(requiredColumns); len(missing) > 0 {
		r.fail(saveCtx, job, state, fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")), log)
		return
	}

	batch := make([]*ingest.UsageRecord, 0, r.cfg.BatchSize)
	rowsSinceSave := 0

	for {
		if runCtx.Err() != nil {
			r.failInterrupted(saveCtx, job, state, stalled.Load(), log)
			return
		}

		row, err := reader.ReadRow()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				// The stream itself broke; rows not yet seen are unknowable.
				r.failInterrupted(saveCtx, job, state, stalled.Load(), log)
				return
			}
			state.total++
			state.failed++
			state.errs.Add(ingest.NewRowError(row.Line, "", ingest.ErrCodeRowMalformed, parseErr.Err.Error()))
			rowsSinceSave++
			watchdog.Reset(r.cfg.StallTimeout)
			continue
		}

		if row.IsEmpty() {
			continue
		}

		state.total++
		rowsSinceSave++
		watchdog.Reset(r.cfg.StallTimeout)

		record, rowErr := ingest.ValidateRow(job.ID, row)
		if rowErr != nil {
			state.failed++
			state.errs.Add(*rowErr)
		} else {
			batch = append(batch, record)
		}

		if len(batch) >= r.cfg.BatchSize {
			if aborted := r.flush(runCtx, saveCtx, job, state, &batch, log); aborted {
				return
			}
			r.saveProgress(saveCtx, job, state, log)
			rowsSinceSave = 0
		} else if rowsSinceSave >= r.cfg.BatchSize {
			// All-invalid stretches flush no batch but still persist progress.
			r.saveProgress(saveCtx, job, state, log)
			rowsSinceSave = 0
		}
	}

	if aborted := r.flush(runCtx, saveCtx, job, state, &batch, log); aborted {
		return
	}

	job.AttachErrorSamples(state.errs.Errors())
	if err := job.RecordProgress(state.total, state.processed, state.failed); err != nil {
		log.Error("final counters rejected", zap.Error(err))
	}
	if err := job.Complete(); err != nil {
		log.Error("cannot complete job", zap.Error(err))
		r.fail(saveCtx, job, state, fmt.Sprintf("completion rejected: %v", err), log)
		return
	}
	if err := r.jobs.Save(saveCtx, job); err != nil {
		log.Error("cannot persist completed job", zap.Error(err))
		return
	}

	log.Info("import job completed",
		zap.Int("total", state.total),
		zap.Int("processed", state.processed),
		zap.Int("failed", state.failed),
		zap.Duration("duration", job.Duration()),
	)
}

// flush writes the buffered batch with a single retry. A batch that still
// cannot be written counts entirely as failed rows unless the fault is
// systemic, in which case the job is aborted. Returns true when the run must
// stop.
func (r *JobRunner) flush(runCtx, saveCtx context.Context, job *ingest.ImportJob, state *runState, batch *[]*ingest.UsageRecord, log *zap.Logger) bool {
	if len(*batch) == 0 {
		return false
	}

	err := r.records.SaveBatch(runCtx, job.ID, *batch)
	if err != nil {
		log.Warn("batch flush failed, retrying once",
			zap.Int("batch_size", len(*batch)),
			zap.Error(err),
		)
		select {
		case <-time.After(r.cfg.FlushRetryDelay):
		case <-runCtx.Done():
			r.failInterrupted(saveCtx, job, state, false, log)
			return true
		}
		err = r.records.SaveBatch(runCtx, job.ID, *batch)
	}

	if err != nil {
		if isSystemicFault(err) {
			r.fail(saveCtx, job, state, fmt.Sprintf("storage fault while writing batch: %v", err), log)
			return true
		}
		// Data-shaped rejection: the batch is lost, the stream goes on.
		log.Warn("batch dropped after retry",
			zap.Int("batch_size", len(*batch)),
			zap.Error(err),
		)
		state.failed += len(*batch)
		for _, record := range *batch {
			state.errs.Add(ingest.NewRowError(record.Ordinal, "", ingest.ErrCodeRowMalformed, "batch write rejected by storage"))
		}
	} else {
		state.processed += len(*batch)
	}

	*batch = (*batch)[:0]
	return false
}

// saveProgress persists the current counters; a failed save is logged and
// retried implicitly at the next flush.
func (r *JobRunner) saveProgress(ctx context.Context, job *ingest.ImportJob, state *runState, log *zap.Logger) {
	if err := job.RecordProgress(state.total, state.processed, state.failed); err != nil {
		log.Error("progress counters rejected", zap.Error(err))
		return
	}
	if err := r.jobs.Save(ctx, job); err != nil {
		log.Warn("cannot persist progress", zap.Error(err))
	}
}

// failInterrupted distinguishes operator cancellation from a stall.
func (r *JobRunner) failInterrupted(ctx context.Context, job *ingest.ImportJob, state *runState, stalled bool, log *zap.Logger) {
	summary := "cancelled by operator"
	if stalled {
		summary = fmt.Sprintf("no progress within %s, import stalled", r.cfg.StallTimeout)
	}
	r.fail(ctx, job, state, summary, log)
}

// fail freezes the counters and moves the job to failed. Records already
// flushed stay in place.
func (r *JobRunner) fail(ctx context.Context, job *ingest.ImportJob, state *runState, summary string, log *zap.Logger) {
	if state.total > 0 {
		if err := job.RecordProgress(state.total, state.processed, state.failed); err != nil {
			log.Error("final counters rejected", zap.Error(err))
		}
	}
	job.AttachErrorSamples(state.errs.Errors())
	if err := job.Fail(summary); err != nil {
		log.Error("cannot mark job failed", zap.Error(err))
		return
	}
	if err := r.jobs.Save(ctx, job); err != nil {
		log.Error("cannot persist failed job", zap.Error(err))
		return
	}

	log.Warn("import job failed",
		zap.String("summary", summary),
		zap.Int("total", state.total),
		zap.Int("processed", state.processed),
		zap.Int("failed", state.failed),
	)
}
