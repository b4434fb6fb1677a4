package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutWallCounters(t *testing.T) {
	m := New(DefaultConfig("putwall-service"))

	m.RecordOrderAssigned("PW-1")
	m.RecordItemsPlaced("PW-1", 3)
	m.RecordItemsPlaced("PW-1", 2)
	m.RecordOrderConsolidated("PW-1")
	m.RecordSlotReleased("PW-1")
	m.RecordCapacityRejection("PW-2")
	m.RecordSortationScan("PW-1", false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.OrdersAssigned.WithLabelValues("putwall-service", "PW-1")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.ItemsPlaced.WithLabelValues("putwall-service", "PW-1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OrdersConsolidated.WithLabelValues("putwall-service", "PW-1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SlotsReleased.WithLabelValues("putwall-service", "PW-1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CapacityRejections.WithLabelValues("putwall-service", "PW-2")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SortationScans.WithLabelValues("putwall-service", "PW-1", "unmatched")))
}

func TestOutboxAndInfraMetrics(t *testing.T) {
	m := New(DefaultConfig("putwall-service"))

	m.SetOutboxPending(7)
	m.RecordOutboxPublish("wms.putwall.item-placed", true)
	m.RecordOutboxPublish("wms.putwall.item-placed", false)
	m.RecordOutboxRetry("wms.putwall.item-placed")
	m.RecordHTTPRequest("GET", "/api/v1/putwalls", 200, 10*time.Millisecond)
	m.IncrementHTTPRequestsInFlight()

	assert.Equal(t, 7.0, testutil.ToFloat64(m.OutboxPending))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OutboxPublished.WithLabelValues("putwall-service", "wms.putwall.item-placed", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OutboxRetries.WithLabelValues("putwall-service", "wms.putwall.item-placed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("putwall-service", "GET", "/api/v1/putwalls", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsInFlight))
}

func TestIdempotencyAndConsumerMetrics(t *testing.T) {
	m := New(DefaultConfig("putwall-service"))

	m.RecordIdempotency("POST", "/api/v1/putwalls", "hit")
	m.RecordIdempotency("POST", "/api/v1/putwalls", "hit")
	m.RecordIdempotencyStorageError("acquire_lock")
	m.RecordMessageConsumed("wms.putwall.events", "wms.putwall.slot-released", "duplicate")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.IdempotencyRequests.WithLabelValues("putwall-service", "POST", "/api/v1/putwalls", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IdempotencyStorageErrors.WithLabelValues("putwall-service", "acquire_lock")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MessagesConsumed.WithLabelValues("putwall-service", "wms.putwall.events", "wms.putwall.slot-released", "duplicate")))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New(DefaultConfig("putwall-service"))
	m.RecordOrderAssigned("PW-1")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "wms_putwall_orders_assigned_total")
}
