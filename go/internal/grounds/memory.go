package grounds

import (
	"context"
	"maps"
	"sort"
	"sync"

	"github.com/criclink/criclink/go/internal/apperrors"
	"github.com/criclink/criclink/go/internal/models"
	"github.com/google/uuid"
)

// MemoryRepository is an in-process Repository.
type MemoryRepository struct {
	mu      sync.RWMutex
	grounds map[uuid.UUID]models.Ground
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{grounds: map[uuid.UUID]models.Ground{}}
}

func (r *MemoryRepository) CreateGround(_ context.Context, g *models.Ground) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.grounds[g.ID] = clone(*g)
	return nil
}

func (r *MemoryRepository) GetGround(_ context.Context, id uuid.UUID) (*models.Ground, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.grounds[id]
	if !ok {
		return nil, apperrors.NotFound("ground", id)
	}
	out := clone(g)
	return &out, nil
}

func (r *MemoryRepository) UpdateGround(_ context.Context, g *models.Ground) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.grounds[g.ID]; !ok {
		return apperrors.NotFound("ground", g.ID)
	}
	r.grounds[g.ID] = clone(*g)
	return nil
}

func (r *MemoryRepository) ListGroundsByOwner(_ context.Context, ownerID uuid.UUID) ([]models.Ground, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.Ground
	for _, g := range r.grounds {
		if g.OwnerID == ownerID {
			out = append(out, clone(g))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func clone(g models.Ground) models.Ground {
	g.AddOns = maps.Clone(g.AddOns)
	return g
}
