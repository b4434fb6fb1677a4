package idempotency

import (
	"context"
	"time"
)

// KeyRepository stores idempotency keys for the HTTP middleware
type KeyRepository interface {
	// AcquireLock inserts key or takes over an existing unfinished key whose
	// lock is older than lockTimeout. acquired is false when the stored key is
	// completed or still locked by another request; the stored key is returned
	// in every case.
	AcquireLock(ctx context.Context, key *Key, lockTimeout time.Duration) (stored *Key, acquired bool, err error)

	// ReleaseLock frees the key so a retry can run the request again
	ReleaseLock(ctx context.Context, keyID, lockToken string) error

	// StoreResponse completes the key with the response to replay
	StoreResponse(ctx context.Context, keyID string, responseCode int, responseBody []byte, headers map[string]string) error

	// Get loads a key by its value
	Get(ctx context.Context, key, serviceID string) (*Key, error)

	EnsureIndexes(ctx context.Context) error
}

// MessageRepository records processed Kafka messages
type MessageRepository interface {
	// MarkProcessed returns ErrMessageAlreadyProcessed for a known message
	MarkProcessed(ctx context.Context, msg *ProcessedMessage) error

	IsProcessed(ctx context.Context, messageID, topic, consumerGroup string) (bool, error)

	EnsureIndexes(ctx context.Context) error
}
