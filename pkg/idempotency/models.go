package idempotency

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Key is a stored Idempotency-Key together with the response it produced
type Key struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty"`
	Key                string             `bson:"key"`
	ServiceID          string             `bson:"serviceId"`
	RequestPath        string             `bson:"requestPath"`
	RequestMethod      string             `bson:"requestMethod"`
	RequestFingerprint string             `bson:"requestFingerprint"`

	// LockToken identifies the request currently holding the key
	LockToken string     `bson:"lockToken,omitempty"`
	LockedAt  *time.Time `bson:"lockedAt,omitempty"`

	ResponseCode    int               `bson:"responseCode,omitempty"`
	ResponseBody    []byte            `bson:"responseBody,omitempty"`
	ResponseHeaders map[string]string `bson:"responseHeaders,omitempty"`

	CreatedAt   time.Time  `bson:"createdAt"`
	CompletedAt *time.Time `bson:"completedAt,omitempty"`
	ExpiresAt   time.Time  `bson:"expiresAt"`
}

// IsCompleted reports whether a response has been stored for the key
func (k *Key) IsCompleted() bool {
	return k.CompletedAt != nil
}

// IsLocked reports whether a request is still working under the key
func (k *Key) IsLocked(now time.Time, timeout time.Duration) bool {
	return k.CompletedAt == nil && k.LockedAt != nil && now.Sub(*k.LockedAt) < timeout
}

// ProcessedMessage records a consumed CloudEvent id
type ProcessedMessage struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	MessageID     string             `bson:"messageId"`
	Topic         string             `bson:"topic"`
	EventType     string             `bson:"eventType"`
	ConsumerGroup string             `bson:"consumerGroup"`
	ServiceID     string             `bson:"serviceId"`
	ProcessedAt   time.Time          `bson:"processedAt"`
	ExpiresAt     time.Time          `bson:"expiresAt"`
	CorrelationID string             `bson:"correlationId,omitempty"`
	WorkflowID    string             `bson:"workflowId,omitempty"`
}
