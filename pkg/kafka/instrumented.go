package kafka

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/wms-platform/putwall-service/pkg/cloudevents"
	"github.com/wms-platform/putwall-service/pkg/logging"
	"github.com/wms-platform/putwall-service/pkg/metrics"
	"github.com/wms-platform/putwall-service/pkg/resilience"
	"github.com/wms-platform/putwall-service/pkg/tracing"
)

type messageWriter interface {
	publish(ctx context.Context, topic string, event *cloudevents.WMSCloudEvent, extra map[string]string) error
	Close() error
}

// InstrumentedProducer wraps a Producer with tracing, metrics and a circuit breaker
type InstrumentedProducer struct {
	producer messageWriter
	breaker  *resilience.CircuitBreaker
	metrics  *metrics.Metrics
	logger   *logging.Logger
	tracer   trace.Tracer
}

// NewInstrumentedProducer creates a new instrumented producer. m may be nil.
func NewInstrumentedProducer(producer *Producer, m *metrics.Metrics, logger *logging.Logger) *InstrumentedProducer {
	return newInstrumentedProducer(producer, m, logger)
}

func newInstrumentedProducer(producer messageWriter, m *metrics.Metrics, logger *logging.Logger) *InstrumentedProducer {
	cfg := resilience.DefaultCircuitBreakerConfig("kafka-producer")
	if m != nil {
		cfg.OnStateChange = func(name string, _, to gobreaker.State) {
			m.SetCircuitBreakerState(name, int(to))
			if to == gobreaker.StateOpen {
				m.RecordCircuitBreakerTrip(name)
			}
		}
	}

	return &InstrumentedProducer{
		producer: producer,
		breaker:  resilience.NewCircuitBreaker(cfg, logger.Logger),
		metrics:  m,
		logger:   logger,
		tracer:   otel.Tracer("kafka-producer"),
	}
}

// PublishEvent publishes a CloudEvent inside a producer span, propagating the
// trace context as W3C headers on the message
func (p *InstrumentedProducer) PublishEvent(ctx context.Context, topic string, event *cloudevents.WMSCloudEvent) error {
	start := time.Now()

	ctx, span := p.tracer.Start(ctx, "kafka.publish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			semconv.MessagingSystemKey.String("kafka"),
			semconv.MessagingDestinationNameKey.String(topic),
			semconv.MessagingOperationKey.String("publish"),
			attribute.String("messaging.kafka.event_type", event.Type),
			attribute.String("messaging.message_id", event.ID),
		),
	)
	defer span.End()
	if event.CorrelationID != "" {
		span.SetAttributes(attribute.String("wms.correlation_id", event.CorrelationID))
	}

	carrier := tracing.MapCarrier{}
	tracing.InjectTraceContext(ctx, carrier)

	_, err := p.breaker.Execute(ctx, func() (interface{}, error) {
		return nil, p.producer.publish(ctx, topic, event, carrier)
	})
	duration := time.Since(start)

	success := err == nil
	if p.metrics != nil {
		p.metrics.RecordKafkaPublish(topic, event.Type, success, duration)
	}
	p.logger.KafkaPublish(ctx, topic, event.Type, success, duration)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

// Close closes the underlying producer
func (p *InstrumentedProducer) Close() error {
	return p.producer.Close()
}
