package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/wms-platform/putwall-service/internal/domain"
)

// PutWallRepository keeps wall snapshots in memory with the same optimistic
// versioning as the MongoDB repository. Events are not persisted.
type PutWallRepository struct {
	mu    sync.RWMutex
	walls map[domain.WallID]domain.WallSnapshot
}

// NewPutWallRepository creates an empty repository
func NewPutWallRepository() *PutWallRepository {
	return &PutWallRepository{walls: make(map[domain.WallID]domain.WallSnapshot)}
}

// Save stores the wall if nobody saved it since it was loaded
func (r *PutWallRepository) Save(_ context.Context, wall *domain.Wall) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := wall.Snapshot()
	stored, exists := r.walls[wall.ID()]
	switch {
	case wall.IsNew() && exists:
		return fmt.Errorf("%w: put wall %s already exists", domain.ErrConcurrentModification, wall.ID())
	case !wall.IsNew() && (!exists || stored.Version != snap.Version):
		return fmt.Errorf("%w: put wall %s at version %d", domain.ErrConcurrentModification, wall.ID(), snap.Version)
	}

	snap.Version++
	r.walls[wall.ID()] = snap
	wall.MarkSaved()
	return nil
}

// FindByID returns nil, nil when the wall does not exist
func (r *PutWallRepository) FindByID(_ context.Context, id domain.WallID) (*domain.Wall, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap, ok := r.walls[id]
	if !ok {
		return nil, nil
	}
	return domain.RehydrateWall(snap)
}

func (r *PutWallRepository) FindAll(context.Context) ([]*domain.Wall, error) {
	return r.find(func(*domain.Wall) bool { return true })
}

func (r *PutWallRepository) FindByLocation(_ context.Context, location string) ([]*domain.Wall, error) {
	return r.find(func(w *domain.Wall) bool { return w.Location() == location })
}

func (r *PutWallRepository) FindWithAvailableCapacity(_ context.Context, minCapacity int) ([]*domain.Wall, error) {
	return r.find(func(w *domain.Wall) bool { return w.AvailableCapacity() >= minCapacity })
}

// find returns matching walls ordered by creation time, then id
func (r *PutWallRepository) find(keep func(*domain.Wall) bool) ([]*domain.Wall, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Wall, 0, len(r.walls))
	for _, snap := range r.walls {
		wall, err := domain.RehydrateWall(snap)
		if err != nil {
			return nil, err
		}
		if keep(wall) {
			out = append(out, wall)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt().Equal(out[j].CreatedAt()) {
			return out[i].CreatedAt().Before(out[j].CreatedAt())
		}
		return out[i].ID() < out[j].ID()
	})
	return out, nil
}
