package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/wms-platform/putwall-service/pkg/cloudevents"
)

// EventHandler handles one consumed CloudEvent
type EventHandler = func(ctx context.Context, event *cloudevents.WMSCloudEvent) error

// DeduplicatingHandler runs handler once per CloudEvent id. A failed handler
// leaves the id unrecorded so the message is redelivered.
func DeduplicatingHandler(config *ConsumerConfig, handler EventHandler) EventHandler {
	record := func(event *cloudevents.WMSCloudEvent, outcome string) {
		if config.Metrics != nil {
			config.Metrics.RecordMessageConsumed(config.Topic, event.Type, outcome)
		}
	}

	return func(ctx context.Context, event *cloudevents.WMSCloudEvent) error {
		logger := config.Logger.WithContext(ctx).WithFields(map[string]any{
			"messageId": event.ID,
			"topic":     config.Topic,
			"eventType": event.Type,
		})

		processed, err := config.Repository.IsProcessed(ctx, event.ID, config.Topic, config.ConsumerGroup)
		if err != nil {
			logger.WithError(err).Error("Failed to check processed message")
			record(event, "failed")
			return err
		}
		if processed {
			logger.Info("Duplicate message skipped")
			record(event, "duplicate")
			return nil
		}

		if err := handler(ctx, event); err != nil {
			record(event, "failed")
			return err
		}

		now := time.Now().UTC()
		err = config.Repository.MarkProcessed(ctx, &ProcessedMessage{
			MessageID:     event.ID,
			Topic:         config.Topic,
			EventType:     event.Type,
			ConsumerGroup: config.ConsumerGroup,
			ServiceID:     config.ServiceName,
			ProcessedAt:   now,
			ExpiresAt:     now.Add(config.RetentionPeriod),
			CorrelationID: event.CorrelationID,
			WorkflowID:    event.WorkflowID,
		})
		if errors.Is(err, ErrMessageAlreadyProcessed) {
			logger.Warn("Message was processed concurrently")
			record(event, "duplicate")
			return nil
		}
		if err != nil {
			logger.WithError(err).Error("Failed to mark message as processed")
			record(event, "failed")
			return err
		}

		record(event, "processed")
		return nil
	}
}
