package ingest

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// cancelRegistry tracks the cancel functions of running job controllers.
// Each entry belongs to exactly one job; there is no global job state beyond
// this map, so one stuck import can never block another.
type cancelRegistry struct {
	mu      sync.Mutex
	cancels map[uuid.UUID]context.CancelFunc
}

func newCancelRegistry() *cancelRegistry {
	return &cancelRegistry{cancels: make(map[uuid.UUID]context.CancelFunc)}
}

func (r *cancelRegistry) register(id uuid.UUID, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancels[id] = cancel
}

// cancel fires the job's cancel function if it is still running.
func (r *cancelRegistry) cancel(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cancel, ok := r.cancels[id]
	if ok {
		cancel()
	}
	return ok
}

func (r *cancelRegistry) remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cancels, id)
}
