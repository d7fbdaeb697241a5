package ingest

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPeriod() (time.Time, time.Time) {
	return time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
}

func pendingJob(t *testing.T) *ImportJob {
	t.Helper()
	start, end := testPeriod()
	job, err := NewImportJob(7, SourceKindFile, start, end, "usage/dec.csv", nil)
	require.NoError(t, err)
	return job
}

func TestNewImportJob(t *testing.T) {
	start, end := testPeriod()

	t.Run("creates a pending job", func(t *testing.T) {
		job := pendingJob(t)
		assert.Equal(t, JobStatusPending, job.Status)
		assert.NotEqual(t, job.ID.String(), "00000000-0000-0000-0000-000000000000")
		assert.Nil(t, job.StartedAt)
		assert.Nil(t, job.CompletedAt)
	})

	t.Run("rejects a zero client", func(t *testing.T) {
		_, err := NewImportJob(0, SourceKindFile, start, end, "usage/dec.csv", nil)
		assert.Error(t, err)
	})

	t.Run("rejects an inverted period", func(t *testing.T) {
		_, err := NewImportJob(7, SourceKindFile, end, start, "usage/dec.csv", nil)
		assert.Error(t, err)
	})

	t.Run("file sources need a handle, manual ones do not", func(t *testing.T) {
		_, err := NewImportJob(7, SourceKindFile, start, end, "", nil)
		assert.Error(t, err)

		_, err = NewImportJob(7, SourceKindManual, start, end, "", nil)
		assert.NoError(t, err)
	})

	t.Run("rejects an unknown source kind", func(t *testing.T) {
		_, err := NewImportJob(7, SourceKind("fax"), start, end, "", nil)
		assert.Error(t, err)
	})
}

func TestImportJob_Lifecycle(t *testing.T) {
	t.Run("pending to processing to completed", func(t *testing.T) {
		job := pendingJob(t)
		require.NoError(t, job.Start())
		assert.Equal(t, JobStatusProcessing, job.Status)
		require.NotNil(t, job.StartedAt)

		require.NoError(t, job.RecordProgress(10, 8, 2))
		require.NoError(t, job.Complete())
		assert.Equal(t, JobStatusCompleted, job.Status)
		require.NotNil(t, job.CompletedAt)
		assert.True(t, job.IsTerminal())
	})

	t.Run("cannot start twice", func(t *testing.T) {
		job := pendingJob(t)
		require.NoError(t, job.Start())
		assert.Error(t, job.Start())
	})

	t.Run("cannot complete with unaccounted rows", func(t *testing.T) {
		job := pendingJob(t)
		require.NoError(t, job.Start())
		require.NoError(t, job.RecordProgress(10, 8, 1))
		assert.Error(t, job.Complete())
	})

	t.Run("counters never regress", func(t *testing.T) {
		job := pendingJob(t)
		require.NoError(t, job.Start())
		require.NoError(t, job.RecordProgress(10, 5, 2))
		assert.Error(t, job.RecordProgress(9, 5, 2))
		assert.Error(t, job.RecordProgress(10, 4, 2))
		assert.Error(t, job.RecordProgress(10, 5, 1))
		// processed+failed can never exceed total
		assert.Error(t, job.RecordProgress(10, 9, 2))
	})

	t.Run("fail from any non-terminal state", func(t *testing.T) {
		job := pendingJob(t)
		require.NoError(t, job.Fail("source vanished"))
		assert.Equal(t, JobStatusFailed, job.Status)
		assert.Equal(t, "source vanished", job.ErrorSummary)
		require.NotNil(t, job.CompletedAt)

		assert.Error(t, job.Fail("again"))
	})

	t.Run("long failure summaries are truncated", func(t *testing.T) {
		job := pendingJob(t)
		require.NoError(t, job.Fail(strings.Repeat("x", MaxErrorSummaryLen+500)))
		assert.Len(t, job.ErrorSummary, MaxErrorSummaryLen)
	})

	t.Run("deletable only when pending or failed", func(t *testing.T) {
		job := pendingJob(t)
		assert.True(t, job.Deletable())

		require.NoError(t, job.Start())
		assert.False(t, job.Deletable())

		require.NoError(t, job.Complete())
		assert.False(t, job.Deletable())

		failed := pendingJob(t)
		require.NoError(t, failed.Fail("boom"))
		assert.True(t, failed.Deletable())
	})
}

func TestImportJob_Duration(t *testing.T) {
	job := pendingJob(t)
	assert.Zero(t, job.Duration())

	require.NoError(t, job.Start())
	started := time.Now().Add(-90 * time.Second)
	job.StartedAt = &started
	assert.GreaterOrEqual(t, job.Duration(), 90*time.Second)

	require.NoError(t, job.Complete())
	completed := started.Add(42 * time.Second)
	job.CompletedAt = &completed
	assert.Equal(t, 42*time.Second, job.Duration())
}

func TestErrorCollection(t *testing.T) {
	t.Run("samples up to the cap while counting everything", func(t *testing.T) {
		ec := NewErrorCollection(3)
		for i := 1; i <= 10; i++ {
			ec.Add(NewRowError(i, ColCost, ErrCodeRowInvalidNumber, "bad"))
		}
		assert.Len(t, ec.Errors(), 3)
		assert.Equal(t, 10, ec.TotalCount())
		assert.True(t, ec.IsTruncated())
		// the sample keeps the earliest errors
		assert.Equal(t, 1, ec.Errors()[0].Row)
	})

	t.Run("empty collection", func(t *testing.T) {
		ec := NewErrorCollection(3)
		assert.False(t, ec.HasErrors())
		assert.False(t, ec.IsTruncated())
	})
}

func TestRowError_Error(t *testing.T) {
	withColumn := NewRowError(4, ColCost, ErrCodeRowNegativeValue, "cost cannot be negative")
	assert.Equal(t, "row 4, column 'cost': cost cannot be negative", withColumn.Error())

	withoutColumn := NewRowError(4, "", ErrCodeRowMalformed, "bare quote")
	assert.Equal(t, "row 4: bare quote", withoutColumn.Error())
}
