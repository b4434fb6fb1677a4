package domain

import "context"

// WallRepository persists put walls. Save stores the wall together with its
// queued events and fails with ErrConcurrentModification when another writer
// saved the same wall first.
type WallRepository interface {
	// FindByID returns nil, nil when the wall does not exist
	FindByID(ctx context.Context, id WallID) (*Wall, error)
	Save(ctx context.Context, wall *Wall) error
	FindAll(ctx context.Context) ([]*Wall, error)
	FindByLocation(ctx context.Context, location string) ([]*Wall, error)
	FindWithAvailableCapacity(ctx context.Context, minCapacity int) ([]*Wall, error)
}

// EventHandler is informed of events after the wall that raised them was saved
type EventHandler interface {
	Handle(ctx context.Context, events []DomainEvent)
}
