package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/lib/pq"
	"github.com/tejit/billing/internal/domain/billing"
	"github.com/tejit/billing/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSequenceAllocator implements billing.SequenceAllocator on top of the
// invoice_sequences table. Allocation is a single atomic
// "last_value = last_value + 1" update: the row lock it takes serializes
// concurrent allocations for one (client, period) while leaving other keys
// uncontended. The first allocation for a key inserts the row; losing that
// insert race to a concurrent allocator is resolved by falling back to the
// increment path.
type GormSequenceAllocator struct {
	db *gorm.DB
}

// NewGormSequenceAllocator creates a new GormSequenceAllocator
func NewGormSequenceAllocator(db *gorm.DB) *GormSequenceAllocator {
	return &GormSequenceAllocator{db: db}
}

// Allocate issues the next sequence number for the (client, period) pair.
func (a *GormSequenceAllocator) Allocate(ctx context.Context, clientID uint, period billing.Period) (int64, error) {
	var seq int64
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		seq, err = allocateSequence(tx, clientID, period)
		return err
	})
	return seq, err
}

// allocateSequence runs the allocation inside the caller's transaction. The
// invoice repository calls it from the same transaction that inserts the
// invoice row, so a rolled-back invoice never publishes its number.
func allocateSequence(tx *gorm.DB, clientID uint, period billing.Period) (int64, error) {
	key := period.Key()

	for attempt := 0; attempt < 3; attempt++ {
		result := tx.Model(&models.InvoiceSequenceModel{}).
			Where("client_id = ? AND period_key = ?", clientID, key).
			UpdateColumn("last_value", gorm.Expr("last_value + 1"))
		if result.Error != nil {
			return 0, result.Error
		}
		if result.RowsAffected == 1 {
			// We hold the row lock, so this read sees our increment.
			var row models.InvoiceSequenceModel
			if err := tx.Where("client_id = ? AND period_key = ?", clientID, key).
				First(&row).Error; err != nil {
				return 0, err
			}
			return row.LastValue, nil
		}

		// First allocation for this key: create the row at 1.
		row := models.InvoiceSequenceModel{
			ClientID:  clientID,
			PeriodKey: key,
			LastValue: 1,
			UpdatedAt: time.Now(),
		}
		err := tx.Create(&row).Error
		if err == nil {
			return 1, nil
		}
		if !isUniqueViolation(err) {
			return 0, err
		}
		// Lost the insert race; the row exists now, increment it.
	}

	return 0, fmt.Errorf("sequence allocation for client %d period %s did not converge", clientID, key)
}

// isUniqueViolation reports whether the error is a unique-constraint
// violation from postgres or sqlite.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key value")
}

// Compile-time interface compliance check
var _ billing.SequenceAllocator = (*GormSequenceAllocator)(nil)

// MemorySequenceAllocator is an in-memory billing.SequenceAllocator for
// tests and single-process setups. Each (client, period) key gets its own
// counter guarded by the map mutex.
type MemorySequenceAllocator struct {
	mu       sync.Mutex
	counters map[string]int64
}

// NewMemorySequenceAllocator creates a new MemorySequenceAllocator
func NewMemorySequenceAllocator() *MemorySequenceAllocator {
	return &MemorySequenceAllocator{counters: make(map[string]int64)}
}

// Allocate issues the next sequence number for the (client, period) pair.
func (a *MemorySequenceAllocator) Allocate(_ context.Context, clientID uint, period billing.Period) (int64, error) {
	key := fmt.Sprintf("%d/%s", clientID, period.Key())
	a.mu.Lock()
	defer a.mu.Unlock()
	a.counters[key]++
	return a.counters[key], nil
}

// Compile-time interface compliance check
var _ billing.SequenceAllocator = (*MemorySequenceAllocator)(nil)
