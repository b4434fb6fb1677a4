package idempotency

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/putwall-service/pkg/cloudevents"
	"github.com/wms-platform/putwall-service/pkg/metrics"
)

func TestDeduplicatingHandlerRunsOncePerEventID(t *testing.T) {
	m := metrics.New(metrics.DefaultConfig("idempotency-test"))
	config := DefaultConsumerConfig("idempotency-test", "wms.putwall.events", "putwall-kpi", NewMemoryMessageRepository(), testLogger())
	config.Metrics = m

	calls := 0
	handler := DeduplicatingHandler(config, func(context.Context, *cloudevents.WMSCloudEvent) error {
		calls++
		return nil
	})

	event := &cloudevents.WMSCloudEvent{ID: "evt-1", Type: "wms.putwall.slot-released"}
	require.NoError(t, handler(context.Background(), event))
	require.NoError(t, handler(context.Background(), event))

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MessagesConsumed.WithLabelValues("idempotency-test", "wms.putwall.events", "wms.putwall.slot-released", "duplicate")))
}

func TestDeduplicatingHandlerRetriesFailedEvent(t *testing.T) {
	config := DefaultConsumerConfig("idempotency-test", "wms.putwall.events", "putwall-kpi", NewMemoryMessageRepository(), testLogger())

	fail := true
	calls := 0
	handler := DeduplicatingHandler(config, func(context.Context, *cloudevents.WMSCloudEvent) error {
		calls++
		if fail {
			return errors.New("tracker unavailable")
		}
		return nil
	})

	event := &cloudevents.WMSCloudEvent{ID: "evt-1", Type: "wms.putwall.item-placed"}
	require.Error(t, handler(context.Background(), event))

	fail = false
	require.NoError(t, handler(context.Background(), event))
	assert.Equal(t, 2, calls)
}
