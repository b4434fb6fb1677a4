package testing

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go/modules/mongodb"

	wmsmongo "github.com/wms-platform/putwall-service/pkg/mongodb"
)

// MongoDBContainer wraps a single-node replica set, which the wall
// repository needs for its save transactions
type MongoDBContainer struct {
	Container *mongodb.MongoDBContainer
	URI       string
}

// NewMongoDBContainer starts mongo:6 as replica set "rs"
func NewMongoDBContainer(ctx context.Context) (*MongoDBContainer, error) {
	container, err := mongodb.Run(ctx, "mongo:6", mongodb.WithReplicaSet("rs"))
	if err != nil {
		return nil, fmt.Errorf("failed to start mongodb container: %w", err)
	}

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	return &MongoDBContainer{Container: container, URI: uri}, nil
}

// Config returns a client config pointed at the container
func (m *MongoDBContainer) Config(database string) *wmsmongo.Config {
	cfg := wmsmongo.DefaultConfig()
	cfg.URI = m.URI
	cfg.Database = database
	cfg.MinPoolSize = 0
	cfg.Direct = true
	return cfg
}

// Connect opens a client against the container
func (m *MongoDBContainer) Connect(ctx context.Context, database string) (*wmsmongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return wmsmongo.NewClient(ctx, m.Config(database))
}

// Close terminates the MongoDB container
func (m *MongoDBContainer) Close(ctx context.Context) error {
	if m.Container != nil {
		return m.Container.Terminate(ctx)
	}
	return nil
}
