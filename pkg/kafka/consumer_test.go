package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/putwall-service/pkg/cloudevents"
)

type fakeReader struct {
	messages chan kafka.Message

	mu        sync.Mutex
	committed []int64
}

func newFakeReader(msgs ...kafka.Message) *fakeReader {
	r := &fakeReader{messages: make(chan kafka.Message, len(msgs))}
	for _, m := range msgs {
		r.messages <- m
	}
	return r
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.messages:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func (r *fakeReader) committedOffsets() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

func message(t *testing.T, offset int64, event *cloudevents.WMSCloudEvent) kafka.Message {
	t.Helper()
	msg, err := BuildMessage(event, nil)
	require.NoError(t, err)
	msg.Offset = offset
	return msg
}

func runUntilCommitted(t *testing.T, c *Consumer, reader *fakeReader, n int) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	require.Eventually(t, func() bool { return len(reader.committedOffsets()) == n }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}

func TestConsumerRoutesByType(t *testing.T) {
	placed := testEvent()
	placed.Type = "wms.putwall.item-placed"
	placed.ID = "evt-2"

	reader := newFakeReader(message(t, 1, testEvent()), message(t, 2, placed))
	c := newConsumer(reader, Topics.PutWallEvents, "putwall-kpi", discardLogger())

	var mu sync.Mutex
	var specific, fallback []string
	c.Subscribe("wms.putwall.item-placed", func(_ context.Context, e *cloudevents.WMSCloudEvent) error {
		mu.Lock()
		defer mu.Unlock()
		specific = append(specific, e.ID)
		return nil
	})
	c.SubscribeAll(func(_ context.Context, e *cloudevents.WMSCloudEvent) error {
		mu.Lock()
		defer mu.Unlock()
		fallback = append(fallback, e.ID)
		return nil
	})

	runUntilCommitted(t, c, reader, 2)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"evt-2"}, specific)
	assert.Equal(t, []string{"evt-1"}, fallback)
}

func TestConsumerRetriesThenSkipsFailingEvent(t *testing.T) {
	reader := newFakeReader(message(t, 7, testEvent()))
	c := newConsumer(reader, Topics.PutWallEvents, "putwall-kpi", discardLogger())
	c.retry.InitialDelay = time.Millisecond

	var mu sync.Mutex
	attempts := 0
	c.SubscribeAll(func(context.Context, *cloudevents.WMSCloudEvent) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		return errors.New("tracker busy")
	})

	runUntilCommitted(t, c, reader, 1)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, c.retry.MaxAttempts, attempts)
	assert.Equal(t, []int64{7}, reader.committedOffsets())
}

func TestConsumerSkipsUnparseableMessage(t *testing.T) {
	reader := newFakeReader(kafka.Message{Offset: 3, Value: []byte("not json")})
	c := newConsumer(reader, Topics.PutWallEvents, "putwall-kpi", discardLogger())

	called := false
	c.SubscribeAll(func(context.Context, *cloudevents.WMSCloudEvent) error {
		called = true
		return nil
	})

	runUntilCommitted(t, c, reader, 1)
	assert.False(t, called)
}

func TestParseMessageReadsExtensions(t *testing.T) {
	event := testEvent()
	event.WorkflowID = "putwall-order-ORD-1"

	parsed, err := parseMessage(message(t, 0, event))
	require.NoError(t, err)

	assert.Equal(t, "evt-1", parsed.ID)
	assert.Equal(t, cloudevents.SourcePutWall, parsed.Source)
	assert.Equal(t, "corr-1", parsed.CorrelationID)
	assert.Equal(t, "putwall-order-ORD-1", parsed.WorkflowID)

	_, err = parseMessage(kafka.Message{Value: []byte(`{"type":"x"}`)})
	assert.Error(t, err)
}
