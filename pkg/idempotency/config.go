package idempotency

import (
	"time"

	"github.com/wms-platform/putwall-service/pkg/logging"
	"github.com/wms-platform/putwall-service/pkg/metrics"
)

const (
	// DefaultMaxKeyLength is the longest key accepted in the Idempotency-Key header
	DefaultMaxKeyLength = 255

	// DefaultLockTimeout is how long an unfinished request holds its key
	DefaultLockTimeout = 5 * time.Minute

	// DefaultRetentionPeriod is how long keys and processed message ids are kept
	DefaultRetentionPeriod = 24 * time.Hour

	// DefaultMaxResponseSize is the largest response body that is cached
	DefaultMaxResponseSize = 1 << 20
)

// Config configures the HTTP idempotency middleware
type Config struct {
	ServiceName string
	Repository  KeyRepository
	Logger      *logging.Logger
	Metrics     *metrics.Metrics

	// RequireKey rejects mutating requests that carry no key
	RequireKey bool

	// OnlyMutating skips GET, HEAD and OPTIONS
	OnlyMutating bool

	MaxKeyLength    int
	LockTimeout     time.Duration
	RetentionPeriod time.Duration
	MaxResponseSize int
}

// DefaultConfig returns an optional-key configuration for mutating requests
func DefaultConfig(serviceName string, repository KeyRepository, logger *logging.Logger) *Config {
	return &Config{
		ServiceName:     serviceName,
		Repository:      repository,
		Logger:          logger,
		RequireKey:      false,
		OnlyMutating:    true,
		MaxKeyLength:    DefaultMaxKeyLength,
		LockTimeout:     DefaultLockTimeout,
		RetentionPeriod: DefaultRetentionPeriod,
		MaxResponseSize: DefaultMaxResponseSize,
	}
}

// ConsumerConfig configures message deduplication for a Kafka consumer
type ConsumerConfig struct {
	ServiceName     string
	Topic           string
	ConsumerGroup   string
	Repository      MessageRepository
	Logger          *logging.Logger
	Metrics         *metrics.Metrics
	RetentionPeriod time.Duration
}

// DefaultConsumerConfig returns a consumer configuration with the default retention
func DefaultConsumerConfig(serviceName, topic, consumerGroup string, repository MessageRepository, logger *logging.Logger) *ConsumerConfig {
	return &ConsumerConfig{
		ServiceName:     serviceName,
		Topic:           topic,
		ConsumerGroup:   consumerGroup,
		Repository:      repository,
		Logger:          logger,
		RetentionPeriod: DefaultRetentionPeriod,
	}
}
