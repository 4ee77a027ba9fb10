package workflow

import (
	"context"
	"slices"
	"sync"

	"github.com/criclink/criclink/go/internal/apperrors"
	"github.com/google/uuid"
	"github.com/moby/locker"
)

// MemoryStore keeps requests in process. Transitions on one request are serialized by a
// per-id lock and applied only when the callback succeeds.
type MemoryStore[P any] struct {
	locks *locker.Locker

	mu       sync.RWMutex
	requests map[uuid.UUID]Request[P]
}

func NewMemoryStore[P any]() *MemoryStore[P] {
	return &MemoryStore[P]{locks: locker.New(), requests: map[uuid.UUID]Request[P]{}}
}

func (s *MemoryStore[P]) Create(_ context.Context, r *Request[P]) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[r.ID] = *r
	return nil
}

func (s *MemoryStore[P]) Get(_ context.Context, id uuid.UUID) (*Request[P], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, apperrors.NotFound("request", id)
	}
	return &r, nil
}

func (s *MemoryStore[P]) Transition(ctx context.Context, id uuid.UUID, fn func(ctx context.Context, r *Request[P]) error) (*Request[P], error) {
	key := id.String()
	s.locks.Lock(key)
	defer func() { _ = s.locks.Unlock(key) }()

	staged, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(ctx, staged); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.requests[id] = *staged
	s.mu.Unlock()
	out := *staged
	return &out, nil
}

func (s *MemoryStore[P]) ListByInitiator(_ context.Context, actor uuid.UUID) ([]Request[P], error) {
	return s.filter(func(r *Request[P]) bool { return r.InitiatorID == actor }), nil
}

func (s *MemoryStore[P]) ListByRecipients(_ context.Context, parties []uuid.UUID) ([]Request[P], error) {
	return s.filter(func(r *Request[P]) bool { return slices.Contains(parties, r.ToParty) }), nil
}

func (s *MemoryStore[P]) filter(keep func(*Request[P]) bool) []Request[P] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []Request[P]{}
	for _, r := range s.requests {
		if keep(&r) {
			out = append(out, r)
		}
	}
	return out
}
