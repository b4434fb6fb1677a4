package mongodb

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/wms-platform/putwall-service/internal/domain"
	"github.com/wms-platform/putwall-service/pkg/cloudevents"
	"github.com/wms-platform/putwall-service/pkg/logging"
	wmsmongo "github.com/wms-platform/putwall-service/pkg/mongodb"
	wmstesting "github.com/wms-platform/putwall-service/pkg/testing"
)

type PutWallRepositoryIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *wmstesting.MongoDBContainer
	client    *wmsmongo.Client
	repo      *PutWallRepository
}

func TestPutWallRepositoryIntegration(t *testing.T) {
	wmstesting.SkipIfShort(t)
	suite.Run(t, new(PutWallRepositoryIntegrationSuite))
}

func (s *PutWallRepositoryIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := wmstesting.NewMongoDBContainer(s.ctx)
	s.Require().NoError(err)
	s.container = container

	client, err := container.Connect(s.ctx, "putwall_test")
	s.Require().NoError(err)
	s.client = client

	cfg := logging.DefaultConfig("putwall-repo-test")
	cfg.Output = io.Discard
	instrumented := wmsmongo.NewInstrumentedClient(client, nil, logging.New(cfg))
	s.repo = NewPutWallRepository(instrumented, cloudevents.NewEventFactory(cloudevents.SourcePutWall))
	s.Require().NoError(s.repo.EnsureIndexes(s.ctx))
}

func (s *PutWallRepositoryIntegrationSuite) TearDownSuite() {
	if s.client != nil {
		_ = s.client.Close(s.ctx)
	}
	if s.container != nil {
		s.Require().NoError(s.container.Close(s.ctx))
	}
}

func (s *PutWallRepositoryIntegrationSuite) TearDownTest() {
	_, _ = s.client.Collection(putWallCollection).DeleteMany(s.ctx, bson.M{})
	_, _ = s.client.Collection("outbox_events").DeleteMany(s.ctx, bson.M{})
}

func (s *PutWallRepositoryIntegrationSuite) newWall(id, location string) *domain.Wall {
	wall, err := domain.NewWall(domain.WallID(id), location, []domain.SlotID{"A1", "A2"})
	s.Require().NoError(err)
	return wall
}

func (s *PutWallRepositoryIntegrationSuite) TestSaveAndLoad() {
	wall := progressedWall(s.T())
	s.Require().NoError(s.repo.Save(s.ctx, wall))
	s.Equal(int64(1), wall.Version())

	loaded, err := s.repo.FindByID(s.ctx, "PW-1")
	s.Require().NoError(err)
	s.Require().NotNil(loaded)
	s.Equal(int64(1), loaded.Version())
	s.Equal(wall.Snapshot().Slots, loaded.Snapshot().Slots)

	missing, err := s.repo.FindByID(s.ctx, "PW-404")
	s.NoError(err)
	s.Nil(missing)
}

func (s *PutWallRepositoryIntegrationSuite) TestSaveWritesOutboxInSameTransaction() {
	wall := progressedWall(s.T())
	pending := len(wall.DomainEvents())
	s.Require().NoError(s.repo.Save(s.ctx, wall))
	s.Len(wall.DomainEvents(), pending, "events are left for the caller to drain")

	stored, err := s.repo.OutboxRepository().FindByAggregateID(s.ctx, "PW-1")
	s.Require().NoError(err)
	s.Len(stored, pending)
	s.Equal(domain.EventTypeOrderAssignedToSlot, stored[0].EventType)
}

func (s *PutWallRepositoryIntegrationSuite) TestStaleVersionIsRejected() {
	s.Require().NoError(s.repo.Save(s.ctx, s.newWall("PW-2", "Zone 1")))

	first, err := s.repo.FindByID(s.ctx, "PW-2")
	s.Require().NoError(err)
	second, err := s.repo.FindByID(s.ctx, "PW-2")
	s.Require().NoError(err)

	required, err := domain.NewRequiredItems(map[string]int{"SKU-1": 1})
	s.Require().NoError(err)
	_, err = first.AssignOrderToSlot("ORD-1", required)
	s.Require().NoError(err)
	_, err = second.AssignOrderToSlot("ORD-2", required)
	s.Require().NoError(err)

	s.Require().NoError(s.repo.Save(s.ctx, first))
	err = s.repo.Save(s.ctx, second)
	s.ErrorIs(err, domain.ErrConcurrentModification)
	s.Equal(int64(1), second.Version())

	stored, err := s.repo.OutboxRepository().FindByAggregateID(s.ctx, "PW-2")
	s.Require().NoError(err)
	s.Len(stored, 1, "rolled back save must not leave outbox events")

	dup := s.newWall("PW-2", "Zone 1")
	s.ErrorIs(s.repo.Save(s.ctx, dup), domain.ErrConcurrentModification)
}

func (s *PutWallRepositoryIntegrationSuite) TestConcurrentSavesHaveOneWinner() {
	s.Require().NoError(s.repo.Save(s.ctx, s.newWall("PW-3", "Zone 1")))

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wall, err := s.repo.FindByID(s.ctx, "PW-3")
		s.Require().NoError(err)
		wg.Add(1)
		go func(i int, wall *domain.Wall) {
			defer wg.Done()
			errs[i] = s.repo.Save(s.ctx, wall)
		}(i, wall)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			s.ErrorIs(err, domain.ErrConcurrentModification)
		}
	}
	s.Equal(1, wins)
}

func (s *PutWallRepositoryIntegrationSuite) TestQueries() {
	s.Require().NoError(s.repo.Save(s.ctx, progressedWall(s.T())))
	s.Require().NoError(s.repo.Save(s.ctx, s.newWall("PW-4", "Zone 2")))

	all, err := s.repo.FindAll(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 2)

	zone2, err := s.repo.FindByLocation(s.ctx, "Zone 2")
	s.Require().NoError(err)
	s.Require().Len(zone2, 1)
	s.Equal(domain.WallID("PW-4"), zone2[0].ID())

	available, err := s.repo.FindWithAvailableCapacity(s.ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(available, 1)
	s.Equal(domain.WallID("PW-4"), available[0].ID())
}
