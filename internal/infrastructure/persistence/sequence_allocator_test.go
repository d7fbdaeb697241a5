package persistence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tejit/billing/internal/domain/billing"
)

func TestGormSequenceAllocator_Allocate(t *testing.T) {
	db := setupTestDB(t)
	allocator := NewGormSequenceAllocator(db)
	ctx := context.Background()

	period := billing.Period{Year: 2024, Month: time.December}

	t.Run("starts at 1 and increments", func(t *testing.T) {
		for want := int64(1); want <= 5; want++ {
			got, err := allocator.Allocate(ctx, 7, period)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	})

	t.Run("keys are independent", func(t *testing.T) {
		got, err := allocator.Allocate(ctx, 8, period)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got)

		january := billing.Period{Year: 2025, Month: time.January}
		got, err = allocator.Allocate(ctx, 7, january)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got)

		// The original key keeps counting from where it was.
		got, err = allocator.Allocate(ctx, 7, period)
		require.NoError(t, err)
		assert.Equal(t, int64(6), got)
	})
}

func TestMemorySequenceAllocator_Allocate(t *testing.T) {
	ctx := context.Background()
	period := billing.Period{Year: 2024, Month: time.December}

	t.Run("starts at 1 and increments per key", func(t *testing.T) {
		allocator := NewMemorySequenceAllocator()

		got, err := allocator.Allocate(ctx, 7, period)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got)

		got, err = allocator.Allocate(ctx, 7, period)
		require.NoError(t, err)
		assert.Equal(t, int64(2), got)

		got, err = allocator.Allocate(ctx, 8, period)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got)
	})

	t.Run("concurrent allocations never duplicate", func(t *testing.T) {
		allocator := NewMemorySequenceAllocator()

		const workers = 100
		results := make(chan int64, workers)
		var wg sync.WaitGroup
		wg.Add(workers)
		for i := 0; i < workers; i++ {
			go func() {
				defer wg.Done()
				seq, err := allocator.Allocate(ctx, 7, period)
				assert.NoError(t, err)
				results <- seq
			}()
		}
		wg.Wait()
		close(results)

		seen := make(map[int64]bool, workers)
		for seq := range results {
			assert.False(t, seen[seq], "sequence %d allocated twice", seq)
			seen[seq] = true
		}
		assert.Len(t, seen, workers)
		// Contiguous 1..N since no allocation failed.
		for want := int64(1); want <= workers; want++ {
			assert.True(t, seen[want], "sequence %d missing", want)
		}
	})
}
