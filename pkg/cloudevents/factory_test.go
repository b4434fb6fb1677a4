package cloudevents

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/putwall-service/pkg/logging"
)

func TestCreateEvent(t *testing.T) {
	factory := NewEventFactory(SourcePutWall)
	ctx := logging.ContextWithCorrelationID(context.Background(), "corr-42")

	event := factory.CreateEvent(ctx, "wms.putwall.order-assigned", "putwall/PW-1", map[string]string{"orderId": "O1"})

	assert.Equal(t, SpecVersion, event.SpecVersion)
	assert.Equal(t, SourcePutWall, event.Source)
	assert.Equal(t, "putwall/PW-1", event.Subject)
	assert.Equal(t, "application/json", event.DataContentType)
	assert.Equal(t, "corr-42", event.CorrelationID)
	assert.NotEmpty(t, event.ID)
	assert.WithinDuration(t, time.Now(), event.Time, time.Second)
}

func TestCreateEventWithIDKeepsIdentity(t *testing.T) {
	factory := NewEventFactory(SourcePutWall)
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.FixedZone("CET", 3600))

	event := factory.CreateEventWithID(context.Background(), "evt-1", at, "wms.putwall.slot-released", "putwall/PW-1", nil)

	assert.Equal(t, "evt-1", event.ID)
	assert.Equal(t, time.UTC, event.Time.Location())
	assert.True(t, at.Equal(event.Time))
	assert.Empty(t, event.CorrelationID)

	raw, err := json.Marshal(event)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "wmscorrelationid")
	assert.Contains(t, string(raw), `"specversion":"1.0"`)
}
