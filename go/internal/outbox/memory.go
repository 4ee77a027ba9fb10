package outbox

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MemoryRepository keeps the outbox in process. Used by the in-memory storage mode and tests.
// Only undelivered events are held; MarkSent drops them.
type MemoryRepository struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Insert(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *MemoryRepository) FetchUnsent(_ context.Context, limit int) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.events)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Event, n)
	copy(out, r.events[:n])
	return out, nil
}

func (r *MemoryRepository) FetchByID(_ context.Context, id uuid.UUID) (*Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, fmt.Errorf("outbox event %s not found or already sent", id)
}

func (r *MemoryRepository) MarkSent(_ context.Context, ids ...uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sent := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		sent[id] = true
	}
	kept := r.events[:0]
	for _, e := range r.events {
		if !sent[e.ID] {
			kept = append(kept, e)
		}
	}
	clear(r.events[len(kept):])
	r.events = kept
	return nil
}

func (r *MemoryRepository) CountPending(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events), nil
}

// Events returns a snapshot of the events still awaiting delivery.
func (r *MemoryRepository) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
