package idempotency

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryKeyRepository keeps keys in process. Used by tests and local runs.
type MemoryKeyRepository struct {
	mu   sync.Mutex
	keys map[string]*Key
}

// NewMemoryKeyRepository creates an empty in-memory key repository
func NewMemoryKeyRepository() *MemoryKeyRepository {
	return &MemoryKeyRepository{keys: make(map[string]*Key)}
}

func memoryKey(serviceID, key string) string {
	return serviceID + "\x00" + key
}

func copyKey(k *Key) *Key {
	c := *k
	return &c
}

// AcquireLock mirrors MongoKeyRepository.AcquireLock
func (r *MemoryKeyRepository) AcquireLock(_ context.Context, key *Key, lockTimeout time.Duration) (*Key, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	id := memoryKey(key.ServiceID, key.Key)
	stored, ok := r.keys[id]
	if !ok {
		stored = copyKey(key)
		stored.ID = primitive.NewObjectID()
		r.keys[id] = stored
	} else if stored.IsCompleted() || stored.IsLocked(now, lockTimeout) {
		return copyKey(stored), false, nil
	}

	stored.LockToken = uuid.NewString()
	stored.LockedAt = &now
	return copyKey(stored), true, nil
}

func (r *MemoryKeyRepository) byID(keyID string) *Key {
	for _, k := range r.keys {
		if k.ID.Hex() == keyID {
			return k
		}
	}
	return nil
}

// ReleaseLock frees the key if lockToken still holds it
func (r *MemoryKeyRepository) ReleaseLock(_ context.Context, keyID, lockToken string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if k := r.byID(keyID); k != nil && k.LockToken == lockToken {
		k.LockToken = ""
		k.LockedAt = nil
	}
	return nil
}

// StoreResponse completes the key
func (r *MemoryKeyRepository) StoreResponse(_ context.Context, keyID string, responseCode int, responseBody []byte, headers map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := r.byID(keyID)
	if k == nil {
		return ErrNotFound
	}
	now := time.Now().UTC()
	k.ResponseCode = responseCode
	k.ResponseBody = append([]byte(nil), responseBody...)
	k.ResponseHeaders = headers
	k.CompletedAt = &now
	k.LockedAt = nil
	return nil
}

// Get loads a key by value and service
func (r *MemoryKeyRepository) Get(_ context.Context, key, serviceID string) (*Key, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k, ok := r.keys[memoryKey(serviceID, key)]
	if !ok {
		return nil, ErrNotFound
	}
	return copyKey(k), nil
}

// EnsureIndexes is a no-op
func (r *MemoryKeyRepository) EnsureIndexes(context.Context) error { return nil }

// MemoryMessageRepository keeps processed message ids in process
type MemoryMessageRepository struct {
	mu   sync.Mutex
	seen map[string]*ProcessedMessage
}

// NewMemoryMessageRepository creates an empty in-memory message repository
func NewMemoryMessageRepository() *MemoryMessageRepository {
	return &MemoryMessageRepository{seen: make(map[string]*ProcessedMessage)}
}

func messageKey(messageID, topic, consumerGroup string) string {
	return messageID + "\x00" + topic + "\x00" + consumerGroup
}

// MarkProcessed records msg or returns ErrMessageAlreadyProcessed
func (r *MemoryMessageRepository) MarkProcessed(_ context.Context, msg *ProcessedMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := messageKey(msg.MessageID, msg.Topic, msg.ConsumerGroup)
	if _, ok := r.seen[id]; ok {
		return ErrMessageAlreadyProcessed
	}
	c := *msg
	r.seen[id] = &c
	return nil
}

// IsProcessed reports whether the message id was recorded
func (r *MemoryMessageRepository) IsProcessed(_ context.Context, messageID, topic, consumerGroup string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.seen[messageKey(messageID, topic, consumerGroup)]
	return ok, nil
}

// EnsureIndexes is a no-op
func (r *MemoryMessageRepository) EnsureIndexes(context.Context) error { return nil }
