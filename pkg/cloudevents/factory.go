package cloudevents

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/wms-platform/putwall-service/pkg/logging"
)

// EventFactory creates CloudEvents for one event source
type EventFactory struct {
	source string
}

// NewEventFactory creates a new EventFactory for a specific source
func NewEventFactory(source string) *EventFactory {
	return &EventFactory{source: source}
}

// Source returns the source attribute stamped on created events
func (f *EventFactory) Source() string {
	return f.source
}

// CreateEvent creates an event with a fresh id, stamping the correlation id found in ctx
func (f *EventFactory) CreateEvent(ctx context.Context, eventType string, subject string, data interface{}) *WMSCloudEvent {
	return f.CreateEventWithID(ctx, uuid.New().String(), time.Now().UTC(), eventType, subject, data)
}

// CreateEventWithID creates an event whose id and time come from the caller.
// The outbox passes the originating domain event id and time.
func (f *EventFactory) CreateEventWithID(ctx context.Context, id string, at time.Time, eventType string, subject string, data interface{}) *WMSCloudEvent {
	return &WMSCloudEvent{
		SpecVersion:     SpecVersion,
		Type:            eventType,
		Source:          f.source,
		Subject:         subject,
		ID:              id,
		Time:            at.UTC(),
		DataContentType: "application/json",
		Data:            data,
		CorrelationID:   logging.CorrelationIDFromContext(ctx),
	}
}
