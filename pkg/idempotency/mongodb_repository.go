package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	idempotencyKeysCollection   = "idempotency_keys"
	processedMessagesCollection = "processed_messages"
)

// MongoKeyRepository stores idempotency keys in MongoDB
type MongoKeyRepository struct {
	collection *mongo.Collection
}

// NewMongoKeyRepository creates a key repository on db
func NewMongoKeyRepository(db *mongo.Database) *MongoKeyRepository {
	return &MongoKeyRepository{collection: db.Collection(idempotencyKeysCollection)}
}

// AcquireLock upserts the key and takes the lock when the request may run
func (r *MongoKeyRepository) AcquireLock(ctx context.Context, key *Key, lockTimeout time.Duration) (*Key, bool, error) {
	now := time.Now().UTC()
	token := uuid.NewString()

	filter := bson.M{"serviceId": key.ServiceID, "key": key.Key}
	update := bson.M{
		"$setOnInsert": bson.M{
			"key":                key.Key,
			"serviceId":          key.ServiceID,
			"requestPath":        key.RequestPath,
			"requestMethod":      key.RequestMethod,
			"requestFingerprint": key.RequestFingerprint,
			"lockToken":          token,
			"lockedAt":           now,
			"createdAt":          key.CreatedAt,
			"expiresAt":          key.ExpiresAt,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored Key
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored); err != nil {
		return nil, false, err
	}
	if stored.LockToken == token {
		return &stored, true, nil
	}
	if stored.IsCompleted() || stored.IsLocked(now, lockTimeout) {
		return &stored, false, nil
	}

	// released or stale: only one caller wins the takeover
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": stored.ID, "lockToken": stored.LockToken, "completedAt": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"lockToken": token, "lockedAt": now}},
	)
	if err != nil {
		return nil, false, err
	}
	if result.ModifiedCount == 0 {
		return &stored, false, nil
	}
	stored.LockToken = token
	stored.LockedAt = &now
	return &stored, true, nil
}

// ReleaseLock frees the key if lockToken still holds it
func (r *MongoKeyRepository) ReleaseLock(ctx context.Context, keyID, lockToken string) error {
	objID, err := primitive.ObjectIDFromHex(keyID)
	if err != nil {
		return err
	}
	_, err = r.collection.UpdateOne(ctx,
		bson.M{"_id": objID, "lockToken": lockToken},
		bson.M{"$set": bson.M{"lockToken": ""}, "$unset": bson.M{"lockedAt": ""}},
	)
	return err
}

// StoreResponse completes the key
func (r *MongoKeyRepository) StoreResponse(ctx context.Context, keyID string, responseCode int, responseBody []byte, headers map[string]string) error {
	objID, err := primitive.ObjectIDFromHex(keyID)
	if err != nil {
		return err
	}
	_, err = r.collection.UpdateOne(ctx,
		bson.M{"_id": objID},
		bson.M{
			"$set": bson.M{
				"responseCode":    responseCode,
				"responseBody":    responseBody,
				"responseHeaders": headers,
				"completedAt":     time.Now().UTC(),
			},
			"$unset": bson.M{"lockedAt": ""},
		},
	)
	return err
}

// Get loads a key by value and service
func (r *MongoKeyRepository) Get(ctx context.Context, key, serviceID string) (*Key, error) {
	var stored Key
	err := r.collection.FindOne(ctx, bson.M{"serviceId": serviceID, "key": key}).Decode(&stored)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// EnsureIndexes creates the unique key index and the expiry TTL index
func (r *MongoKeyRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "serviceId", Value: 1}, {Key: "key", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_service_key"),
		},
		{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("idx_ttl"),
		},
	})
	return err
}

// MongoMessageRepository stores processed message ids in MongoDB
type MongoMessageRepository struct {
	collection *mongo.Collection
}

// NewMongoMessageRepository creates a message repository on db
func NewMongoMessageRepository(db *mongo.Database) *MongoMessageRepository {
	return &MongoMessageRepository{collection: db.Collection(processedMessagesCollection)}
}

// MarkProcessed inserts the message; the unique index rejects repeats
func (r *MongoMessageRepository) MarkProcessed(ctx context.Context, msg *ProcessedMessage) error {
	if _, err := r.collection.InsertOne(ctx, msg); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrMessageAlreadyProcessed
		}
		return err
	}
	return nil
}

// IsProcessed reports whether the message id was recorded for topic and group
func (r *MongoMessageRepository) IsProcessed(ctx context.Context, messageID, topic, consumerGroup string) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{
		"messageId":     messageID,
		"topic":         topic,
		"consumerGroup": consumerGroup,
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// EnsureIndexes creates the unique message index and the expiry TTL index
func (r *MongoMessageRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "messageId", Value: 1}, {Key: "topic", Value: 1}, {Key: "consumerGroup", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_msg_topic_group"),
		},
		{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("idx_ttl"),
		},
	})
	return err
}

// EnsureIndexes creates the indexes of both collections on db
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	if err := NewMongoKeyRepository(db).EnsureIndexes(ctx); err != nil {
		return err
	}
	return NewMongoMessageRepository(db).EnsureIndexes(ctx)
}
