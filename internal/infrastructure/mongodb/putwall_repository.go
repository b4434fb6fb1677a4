package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/putwall-service/internal/domain"
	"github.com/wms-platform/putwall-service/pkg/cloudevents"
	"github.com/wms-platform/putwall-service/pkg/kafka"
	wmsmongo "github.com/wms-platform/putwall-service/pkg/mongodb"
	"github.com/wms-platform/putwall-service/pkg/outbox"
	outboxMongo "github.com/wms-platform/putwall-service/pkg/outbox/mongodb"
)

const (
	putWallCollection = "put_walls"
	aggregateType     = "PutWall"
)

type slotDocument struct {
	SlotID        string         `bson:"slotId"`
	Status        string         `bson:"status"`
	OrderID       string         `bson:"orderId,omitempty"`
	RequiredItems map[string]int `bson:"requiredItems,omitempty"`
	PlacedItems   map[string]int `bson:"placedItems,omitempty"`
	PutIDs        []string       `bson:"putIds,omitempty"`
}

type wallDocument struct {
	ID                string         `bson:"_id"`
	Location          string         `bson:"location"`
	Capacity          int            `bson:"capacity"`
	AvailableCapacity int            `bson:"availableCapacity"`
	Version           int64          `bson:"version"`
	CreatedAt         time.Time      `bson:"createdAt"`
	UpdatedAt         time.Time      `bson:"updatedAt"`
	Slots             []slotDocument `bson:"slots"`
}

// PutWallRepository stores walls in put_walls and their events in the outbox,
// both inside one session transaction
type PutWallRepository struct {
	client       *wmsmongo.InstrumentedClient
	collection   *wmsmongo.InstrumentedCollection
	outboxRepo   *outboxMongo.OutboxRepository
	eventFactory *cloudevents.EventFactory
}

var _ domain.WallRepository = (*PutWallRepository)(nil)

// NewPutWallRepository creates a PutWallRepository. Call EnsureIndexes once at startup.
func NewPutWallRepository(client *wmsmongo.InstrumentedClient, eventFactory *cloudevents.EventFactory) *PutWallRepository {
	return &PutWallRepository{
		client:       client,
		collection:   client.Collection(putWallCollection),
		outboxRepo:   outboxMongo.NewOutboxRepository(client.Database()),
		eventFactory: eventFactory,
	}
}

// EnsureIndexes creates the put wall and outbox indexes
func (r *PutWallRepository) EnsureIndexes(ctx context.Context) error {
	err := r.collection.CreateIndexes(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "location", Value: 1}}, Options: options.Index().SetName("idx_location")},
		{Keys: bson.D{{Key: "slots.orderId", Value: 1}}, Options: options.Index().SetName("idx_slots_orderId")},
		{Keys: bson.D{{Key: "availableCapacity", Value: -1}}, Options: options.Index().SetName("idx_availableCapacity")},
	})
	if err != nil {
		return fmt.Errorf("failed to create put wall indexes: %w", err)
	}
	return r.outboxRepo.EnsureIndexes(ctx)
}

// OutboxRepository exposes the outbox written by Save
func (r *PutWallRepository) OutboxRepository() outbox.Repository {
	return r.outboxRepo
}

// Save writes the wall and its queued events atomically. A new wall is
// inserted; an existing one is replaced only if the stored version still
// matches. The wall's version is bumped once the transaction commits.
// Pending events stay on the wall for the caller to drain.
func (r *PutWallRepository) Save(ctx context.Context, wall *domain.Wall) error {
	snap := wall.Snapshot()
	doc := toDocument(snap, wall.AvailableCapacity())
	doc.Version = snap.Version + 1

	events, err := toOutboxEvents(ctx, r.eventFactory, wall.DomainEvents())
	if err != nil {
		return err
	}

	err = r.client.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if wall.IsNew() {
			if _, err := r.collection.InsertOne(sessCtx, doc); err != nil {
				if mongo.IsDuplicateKeyError(err) {
					return fmt.Errorf("put wall %s already exists: %w", snap.ID, domain.ErrConcurrentModification)
				}
				return fmt.Errorf("failed to insert put wall: %w", err)
			}
		} else {
			result, err := r.collection.ReplaceOne(sessCtx, bson.M{"_id": snap.ID, "version": snap.Version}, doc)
			if err != nil {
				return fmt.Errorf("failed to replace put wall: %w", err)
			}
			if result.MatchedCount == 0 {
				return fmt.Errorf("put wall %s at version %d: %w", snap.ID, snap.Version, domain.ErrConcurrentModification)
			}
		}

		if len(events) > 0 {
			if err := r.outboxRepo.SaveAll(sessCtx, events); err != nil {
				return fmt.Errorf("failed to save outbox events: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	wall.MarkSaved()
	return nil
}

// FindByID returns nil, nil when no wall has the id
func (r *PutWallRepository) FindByID(ctx context.Context, id domain.WallID) (*domain.Wall, error) {
	var doc wallDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id.String()}, &doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find put wall %s: %w", id, err)
	}
	return fromDocument(doc)
}

// FindAll returns every wall ordered by creation
func (r *PutWallRepository) FindAll(ctx context.Context) ([]*domain.Wall, error) {
	return r.find(ctx, bson.M{})
}

// FindByLocation returns the walls at location
func (r *PutWallRepository) FindByLocation(ctx context.Context, location string) ([]*domain.Wall, error) {
	return r.find(ctx, bson.M{"location": location})
}

// FindWithAvailableCapacity returns walls with at least minCapacity free slots
func (r *PutWallRepository) FindWithAvailableCapacity(ctx context.Context, minCapacity int) ([]*domain.Wall, error) {
	return r.find(ctx, bson.M{"availableCapacity": bson.M{"$gte": minCapacity}})
}

func (r *PutWallRepository) find(ctx context.Context, filter bson.M) ([]*domain.Wall, error) {
	var docs []wallDocument
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	if err := r.collection.FindAll(ctx, filter, &docs, opts); err != nil {
		return nil, fmt.Errorf("failed to find put walls: %w", err)
	}

	walls := make([]*domain.Wall, 0, len(docs))
	for _, doc := range docs {
		wall, err := fromDocument(doc)
		if err != nil {
			return nil, err
		}
		walls = append(walls, wall)
	}
	return walls, nil
}

func toDocument(snap domain.WallSnapshot, available int) wallDocument {
	doc := wallDocument{
		ID:                snap.ID,
		Location:          snap.Location,
		Capacity:          len(snap.Slots),
		AvailableCapacity: available,
		Version:           snap.Version,
		CreatedAt:         snap.CreatedAt,
		UpdatedAt:         snap.UpdatedAt,
		Slots:             make([]slotDocument, len(snap.Slots)),
	}
	for i, s := range snap.Slots {
		doc.Slots[i] = slotDocument{
			SlotID:        s.ID,
			Status:        string(s.Status),
			OrderID:       s.OrderID,
			RequiredItems: s.Required,
			PlacedItems:   s.Placed,
			PutIDs:        s.PutIDs,
		}
	}
	return doc
}

func fromDocument(doc wallDocument) (*domain.Wall, error) {
	snap := domain.WallSnapshot{
		ID:        doc.ID,
		Location:  doc.Location,
		Version:   doc.Version,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
		Slots:     make([]domain.SlotSnapshot, len(doc.Slots)),
	}
	for i, s := range doc.Slots {
		snap.Slots[i] = domain.SlotSnapshot{
			ID:       s.SlotID,
			Status:   domain.SlotStatus(s.Status),
			OrderID:  s.OrderID,
			Required: s.RequiredItems,
			Placed:   s.PlacedItems,
			PutIDs:   s.PutIDs,
		}
	}

	wall, err := domain.RehydrateWall(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to rehydrate put wall %s: %w", doc.ID, err)
	}
	return wall, nil
}

// toOutboxEvents wraps each domain event as a CloudEvent keeping the domain
// event's id and time, with subject putwall/<wallId>
func toOutboxEvents(ctx context.Context, factory *cloudevents.EventFactory, events []domain.DomainEvent) ([]*outbox.OutboxEvent, error) {
	out := make([]*outbox.OutboxEvent, 0, len(events))
	for _, e := range events {
		ce := factory.CreateEventWithID(ctx, e.EventID(), e.OccurredAt(), e.EventType(), "putwall/"+e.AggregateID(), e)
		oe, err := outbox.NewOutboxEventFromCloudEvent(e.AggregateID(), aggregateType, kafka.Topics.PutWallEvents, ce)
		if err != nil {
			return nil, fmt.Errorf("failed to create outbox event: %w", err)
		}
		out = append(out, oe)
	}
	return out, nil
}
