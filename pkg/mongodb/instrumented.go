package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/wms-platform/putwall-service/pkg/logging"
	"github.com/wms-platform/putwall-service/pkg/metrics"
)

// InstrumentedClient wraps a Client with metrics and tracing
type InstrumentedClient struct {
	client  *Client
	metrics *metrics.Metrics
	logger  *logging.Logger
	tracer  trace.Tracer
}

// NewInstrumentedClient creates a new instrumented MongoDB client. m may be nil.
func NewInstrumentedClient(client *Client, m *metrics.Metrics, logger *logging.Logger) *InstrumentedClient {
	return &InstrumentedClient{
		client:  client,
		metrics: m,
		logger:  logger,
		tracer:  otel.Tracer("mongodb"),
	}
}

// Collection returns an instrumented collection
func (c *InstrumentedClient) Collection(name string) *InstrumentedCollection {
	return &InstrumentedCollection{
		collection: c.client.Collection(name),
		name:       name,
		database:   c.client.Database().Name(),
		metrics:    c.metrics,
		logger:     c.logger,
		tracer:     c.tracer,
	}
}

// Database returns the underlying database handle
func (c *InstrumentedClient) Database() *mongo.Database {
	return c.client.Database()
}

// Close disconnects the client
func (c *InstrumentedClient) Close(ctx context.Context) error {
	return c.client.Close(ctx)
}

// HealthCheck pings the primary inside a span
func (c *InstrumentedClient) HealthCheck(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "mongodb.ping", trace.WithAttributes(
		semconv.DBSystemMongoDB,
		semconv.DBNameKey.String(c.client.Database().Name()),
	))
	defer span.End()
	return endSpan(span, c.client.HealthCheck(ctx))
}

// WithTransaction runs fn in a traced session transaction
func (c *InstrumentedClient) WithTransaction(ctx context.Context, fn func(sessCtx mongo.SessionContext) error) error {
	ctx, span := c.tracer.Start(ctx, "mongodb.transaction", trace.WithAttributes(
		semconv.DBSystemMongoDB,
		semconv.DBNameKey.String(c.client.Database().Name()),
	))
	defer span.End()
	return endSpan(span, c.client.WithTransaction(ctx, fn))
}

func endSpan(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

// InstrumentedCollection wraps a mongo.Collection, emitting one span, one
// metric sample and one debug log line per operation
type InstrumentedCollection struct {
	collection *mongo.Collection
	name       string
	database   string
	metrics    *metrics.Metrics
	logger     *logging.Logger
	tracer     trace.Tracer
}

// observe runs op inside a client span and records its outcome.
// op returns the number of documents it affected.
func (c *InstrumentedCollection) observe(ctx context.Context, operation string, op func(ctx context.Context) (int64, error)) error {
	start := time.Now()
	ctx, span := c.tracer.Start(ctx, "mongodb."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.DBSystemMongoDB,
			semconv.DBNameKey.String(c.database),
			semconv.DBOperationKey.String(operation),
			attribute.String("db.collection", c.name),
		),
	)
	defer span.End()

	affected, err := op(ctx)
	duration := time.Since(start)
	success := err == nil || errors.Is(err, mongo.ErrNoDocuments)

	if c.metrics != nil {
		c.metrics.RecordMongoDBOperation(c.name, operation, success, duration)
	}
	if c.logger != nil {
		c.logger.DatabaseQuery(ctx, c.name, operation, duration, success, affected)
	}

	if !success {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "")
	span.SetAttributes(attribute.Int64("db.rows_affected", affected))
	return err
}

// InsertOne inserts a single document
func (c *InstrumentedCollection) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	var result *mongo.InsertOneResult
	err := c.observe(ctx, "insertOne", func(ctx context.Context) (int64, error) {
		var err error
		result, err = c.collection.InsertOne(ctx, document, opts...)
		if err != nil {
			return 0, err
		}
		return 1, nil
	})
	return result, err
}

// ReplaceOne replaces a single document
func (c *InstrumentedCollection) ReplaceOne(ctx context.Context, filter interface{}, replacement interface{}, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error) {
	var result *mongo.UpdateResult
	err := c.observe(ctx, "replaceOne", func(ctx context.Context) (int64, error) {
		var err error
		result, err = c.collection.ReplaceOne(ctx, filter, replacement, opts...)
		if err != nil {
			return 0, err
		}
		return result.ModifiedCount, nil
	})
	return result, err
}

// FindOne decodes the first matching document into out.
// It returns mongo.ErrNoDocuments when nothing matches.
func (c *InstrumentedCollection) FindOne(ctx context.Context, filter interface{}, out interface{}, opts ...*options.FindOneOptions) error {
	return c.observe(ctx, "findOne", func(ctx context.Context) (int64, error) {
		if err := c.collection.FindOne(ctx, filter, opts...).Decode(out); err != nil {
			return 0, err
		}
		return 1, nil
	})
}

// FindAll decodes every matching document into out, which must be a pointer to a slice
func (c *InstrumentedCollection) FindAll(ctx context.Context, filter interface{}, out interface{}, opts ...*options.FindOptions) error {
	return c.observe(ctx, "find", func(ctx context.Context) (int64, error) {
		cursor, err := c.collection.Find(ctx, filter, opts...)
		if err != nil {
			return 0, err
		}
		defer cursor.Close(ctx)
		return 0, cursor.All(ctx, out)
	})
}

// CountDocuments counts matching documents
func (c *InstrumentedCollection) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	var count int64
	err := c.observe(ctx, "countDocuments", func(ctx context.Context) (int64, error) {
		var err error
		count, err = c.collection.CountDocuments(ctx, filter, opts...)
		return count, err
	})
	return count, err
}

// CreateIndexes creates the given indexes
func (c *InstrumentedCollection) CreateIndexes(ctx context.Context, models []mongo.IndexModel) error {
	return c.observe(ctx, "createIndexes", func(ctx context.Context) (int64, error) {
		names, err := c.collection.Indexes().CreateMany(ctx, models)
		return int64(len(names)), err
	})
}

// Name returns the collection name
func (c *InstrumentedCollection) Name() string {
	return c.name
}
