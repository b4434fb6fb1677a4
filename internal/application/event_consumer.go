package application

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wms-platform/putwall-service/internal/domain"
	"github.com/wms-platform/putwall-service/pkg/cloudevents"
	"github.com/wms-platform/putwall-service/pkg/logging"
)

// RemoteEventConsumer replays put wall events saved by another process,
// such as the Temporal worker, into the local event handler. Events from
// any other source are ignored; the local service already handled them.
type RemoteEventConsumer struct {
	handler *PutWallEventHandler
	repo    domain.WallRepository
	source  string
	logger  *logging.Logger
}

// NewRemoteEventConsumer consumes events whose CloudEvents source is source
func NewRemoteEventConsumer(handler *PutWallEventHandler, repo domain.WallRepository, source string, logger *logging.Logger) *RemoteEventConsumer {
	return &RemoteEventConsumer{
		handler: handler,
		repo:    repo,
		source:  source,
		logger:  logger.WithComponent("putwall-remote-events"),
	}
}

// Handle decodes one CloudEvent and feeds it to the handler, then refreshes
// occupancy from the stored wall. Undecodable events are logged and dropped.
func (c *RemoteEventConsumer) Handle(ctx context.Context, event *cloudevents.WMSCloudEvent) error {
	if event.Source != c.source {
		return nil
	}

	payload, err := json.Marshal(event.Data)
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).Warn("Dropping event with unreadable data", "eventId", event.ID)
		return nil
	}
	domainEvent, err := domain.DecodeEvent(event.Type, payload)
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).Warn("Dropping undecodable event", "eventId", event.ID, "eventType", event.Type)
		return nil
	}

	c.handler.Handle(ctx, []domain.DomainEvent{domainEvent})

	wallID, err := domain.NewWallID(domainEvent.AggregateID())
	if err != nil {
		return nil
	}
	wall, err := c.repo.FindByID(ctx, wallID)
	if err != nil {
		return fmt.Errorf("load put wall %s: %w", wallID, err)
	}
	if wall != nil {
		c.handler.ObserveWall(ctx, wall)
	}
	return nil
}
