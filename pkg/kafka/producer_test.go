package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/putwall-service/pkg/cloudevents"
	"github.com/wms-platform/putwall-service/pkg/logging"
	"github.com/wms-platform/putwall-service/pkg/metrics"
	"github.com/wms-platform/putwall-service/pkg/resilience"
)

func testEvent() *cloudevents.WMSCloudEvent {
	return &cloudevents.WMSCloudEvent{
		SpecVersion:     cloudevents.SpecVersion,
		Type:            "wms.putwall.order-consolidated",
		Source:          cloudevents.SourcePutWall,
		Subject:         "putwall/PW-1",
		ID:              "evt-1",
		Time:            time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		DataContentType: "application/json",
		Data:            map[string]string{"slotId": "A1"},
		CorrelationID:   "corr-1",
	}
}

func headers(t *testing.T, event *cloudevents.WMSCloudEvent, extra map[string]string) map[string]string {
	t.Helper()
	msg, err := BuildMessage(event, extra)
	require.NoError(t, err)
	out := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		out[h.Key] = string(h.Value)
	}
	return out
}

func TestBuildMessage(t *testing.T) {
	event := testEvent()

	msg, err := BuildMessage(event, nil)
	require.NoError(t, err)

	assert.Equal(t, "putwall/PW-1", string(msg.Key))
	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, "evt-1", body["id"])

	h := headers(t, event, map[string]string{"traceparent": "00-abc-def-01"})
	assert.Equal(t, "1.0", h["ce-specversion"])
	assert.Equal(t, "wms.putwall.order-consolidated", h["ce-type"])
	assert.Equal(t, cloudevents.SourcePutWall, h["ce-source"])
	assert.Equal(t, "evt-1", h["ce-id"])
	assert.Equal(t, "2024-01-02T03:04:05Z", h["ce-time"])
	assert.Equal(t, "corr-1", h["ce-wmscorrelationid"])
	assert.Equal(t, "00-abc-def-01", h["traceparent"])
	assert.NotContains(t, h, "ce-wmsworkflowid")
}

type fakeWriter struct {
	err    error
	calls  int
	extras []map[string]string
}

func (w *fakeWriter) publish(_ context.Context, _ string, _ *cloudevents.WMSCloudEvent, extra map[string]string) error {
	w.calls++
	w.extras = append(w.extras, extra)
	return w.err
}

func (w *fakeWriter) Close() error { return nil }

func discardLogger() *logging.Logger {
	cfg := logging.DefaultConfig("kafka-test")
	cfg.Output = io.Discard
	return logging.New(cfg)
}

func TestInstrumentedProducerPublishes(t *testing.T) {
	writer := &fakeWriter{}
	producer := newInstrumentedProducer(writer, metrics.New(metrics.DefaultConfig("kafka-test")), discardLogger())

	require.NoError(t, producer.PublishEvent(context.Background(), Topics.PutWallEvents, testEvent()))
	assert.Equal(t, 1, writer.calls)
}

func TestInstrumentedProducerOpensBreaker(t *testing.T) {
	writer := &fakeWriter{err: errors.New("broker down")}
	producer := newInstrumentedProducer(writer, nil, discardLogger())

	for i := 0; i < int(resilience.DefaultFailureThreshold); i++ {
		err := producer.PublishEvent(context.Background(), Topics.PutWallEvents, testEvent())
		assert.ErrorContains(t, err, "broker down")
	}

	err := producer.PublishEvent(context.Background(), Topics.PutWallEvents, testEvent())
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, int(resilience.DefaultFailureThreshold), writer.calls)
}
