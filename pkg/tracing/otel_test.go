package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordingTracer() (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	return recorder, provider
}

func TestInitializeDisabled(t *testing.T) {
	cfg := DefaultConfig("putwall-service")
	cfg.Enabled = false

	tp, err := Initialize(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, tp.Tracer())
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestTracedOperationRecordsOutcome(t *testing.T) {
	recorder, provider := newRecordingTracer()
	tracer := provider.Tracer("test")

	got, err := TracedOperation(context.Background(), tracer, "putwall.assign", func(ctx context.Context) (string, error) {
		assert.NotEmpty(t, GetTraceID(ctx))
		return "A1", nil
	}, PutWallAttributes("PW-1", "")...)
	require.NoError(t, err)
	assert.Equal(t, "A1", got)

	boom := errors.New("boom")
	_, err = TracedOperation(context.Background(), tracer, "putwall.place", func(context.Context) (int, error) {
		return 0, boom
	}, PutWallAttributes("PW-1", "A1")...)
	assert.ErrorIs(t, err, boom)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "putwall.assign", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Len(t, spans[0].Attributes(), 1)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Len(t, spans[1].Attributes(), 2)
}

func TestTraceContextRoundTrip(t *testing.T) {
	_, provider := newRecordingTracer()
	ctx, span := provider.Tracer("test").Start(context.Background(), "parent")
	defer span.End()

	prop := propagation.TraceContext{}
	carrier := MapCarrier{}
	prop.Inject(ctx, carrier)
	require.Contains(t, carrier.Keys(), "traceparent")

	extracted := prop.Extract(context.Background(), carrier)
	assert.Equal(t, GetTraceID(ctx), GetTraceID(extracted))
	assert.Empty(t, GetTraceID(context.Background()))
}

func TestSampler(t *testing.T) {
	assert.Contains(t, Sampler(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, Sampler(0).Description(), "AlwaysOffSampler")
	assert.Contains(t, Sampler(0.25).Description(), "TraceIDRatioBased")
}
