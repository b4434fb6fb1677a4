package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/wms-platform/putwall-service/pkg/cloudevents"
	"github.com/wms-platform/putwall-service/pkg/logging"
	"github.com/wms-platform/putwall-service/pkg/resilience"
	"github.com/wms-platform/putwall-service/pkg/tracing"
)

// EventHandler handles one consumed CloudEvent
type EventHandler func(ctx context.Context, event *cloudevents.WMSCloudEvent) error

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads CloudEvents from one topic and routes them by type
type Consumer struct {
	topic    string
	group    string
	reader   messageReader
	handlers map[string]EventHandler
	retry    *resilience.RetryConfig
	logger   *logging.Logger
	tracer   trace.Tracer
}

// NewConsumer creates a consumer group reader on topic
func NewConsumer(config *Config, topic string, logger *logging.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        config.Brokers,
		GroupID:        config.ConsumerGroup,
		Topic:          topic,
		MinBytes:       config.MinBytes,
		MaxBytes:       config.MaxBytes,
		MaxWait:        config.MaxWait,
		CommitInterval: config.CommitInterval,
	})
	return newConsumer(reader, topic, config.ConsumerGroup, logger)
}

func newConsumer(reader messageReader, topic, group string, logger *logging.Logger) *Consumer {
	retry := resilience.DefaultRetryConfig()
	retry.RetryableErrors = func(err error) bool {
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}

	return &Consumer{
		topic:    topic,
		group:    group,
		reader:   reader,
		handlers: make(map[string]EventHandler),
		retry:    retry,
		logger:   logger.WithComponent("kafka-consumer").WithFields(map[string]any{"topic": topic, "group": group}),
		tracer:   otel.Tracer("kafka-consumer"),
	}
}

// Subscribe registers handler for eventType. Register before Run.
func (c *Consumer) Subscribe(eventType string, handler EventHandler) {
	c.handlers[eventType] = handler
}

// SubscribeAll registers handler for every type without its own handler
func (c *Consumer) SubscribeAll(handler EventHandler) {
	c.Subscribe("*", handler)
}

// Run consumes until ctx is cancelled. Messages are committed after their
// handler succeeds or, for unparseable and persistently failing messages,
// after they are logged and skipped.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("Starting consumer")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("Stopping consumer")
				return nil
			}
			c.logger.WithError(err).Error("Error fetching message")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}

		c.process(ctx, msg)

		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.logger.WithError(err).Error("Error committing message", "offset", msg.Offset)
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg kafka.Message) {
	event, err := parseMessage(msg)
	if err != nil {
		c.logger.WithError(err).Error("Skipping unparseable message", "offset", msg.Offset)
		return
	}

	handler, ok := c.handlers[event.Type]
	if !ok {
		handler, ok = c.handlers["*"]
	}
	if !ok {
		c.logger.Debug("No handler for event type", "eventType", event.Type)
		return
	}

	carrier := tracing.MapCarrier{}
	for _, h := range msg.Headers {
		carrier[h.Key] = string(h.Value)
	}
	ctx = tracing.ExtractTraceContext(ctx, carrier)
	if event.CorrelationID != "" {
		ctx = logging.ContextWithCorrelationID(ctx, event.CorrelationID)
	}

	ctx, span := c.tracer.Start(ctx, c.topic+" process",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			semconv.MessagingSystemKey.String("kafka"),
			semconv.MessagingDestinationNameKey.String(c.topic),
			semconv.MessagingOperationKey.String("process"),
			attribute.String("cloudevents.event_type", event.Type),
			attribute.String("cloudevents.event_id", event.ID),
		),
	)
	defer span.End()

	if err := resilience.Retry(ctx, c.retry, func() error { return handler(ctx, event) }); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.WithContext(ctx).WithError(err).Error("Skipping event after failed handling",
			"eventType", event.Type, "eventId", event.ID, "offset", msg.Offset)
		return
	}
	span.SetStatus(codes.Ok, "")
}

// parseMessage decodes the JSON body and lets ce-* headers fill gaps
func parseMessage(msg kafka.Message) (*cloudevents.WMSCloudEvent, error) {
	var event cloudevents.WMSCloudEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}

	for _, h := range msg.Headers {
		value := string(h.Value)
		switch h.Key {
		case "ce-type":
			if event.Type == "" {
				event.Type = value
			}
		case "ce-source":
			if event.Source == "" {
				event.Source = value
			}
		case "ce-id":
			if event.ID == "" {
				event.ID = value
			}
		case "ce-wmscorrelationid":
			event.CorrelationID = value
		case "ce-wmsworkflowid":
			event.WorkflowID = value
		}
	}

	if event.ID == "" || event.Type == "" {
		return nil, errors.New("event is missing id or type")
	}
	return &event, nil
}

// Close closes the reader
func (c *Consumer) Close() error {
	return c.reader.Close()
}
