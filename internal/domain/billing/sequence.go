package billing

import "context"

// SequenceAllocator issues invoice sequence numbers scoped by
// (client, period): strictly increasing from 1, no two callers ever
// receiving the same number for the same pair. Failed invoice creation may
// leave gaps; duplicates are forbidden.
//
// Implementations serialize per key, not globally, so unrelated clients and
// months never contend. The persistence implementation runs the increment
// inside the same transaction that inserts the invoice row, so a crash can
// neither lose a reserved number in a way that blocks future allocations nor
// assign it twice.
type SequenceAllocator interface {
	Allocate(ctx context.Context, clientID uint, period Period) (int64, error)
}
