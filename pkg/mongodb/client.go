package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Config describes the put wall database connection. Saves run in
// transactions, so the server must be a replica set member.
type Config struct {
	URI      string
	Database string
	AppName  string

	ConnectTimeout time.Duration
	PingTimeout    time.Duration
	MaxPoolSize    uint64
	MinPoolSize    uint64

	Username   string
	Password   string
	AuthSource string

	ReplicaSet string
	// Direct talks to one node without discovery, as with a single-node
	// replica set behind a mapped container port
	Direct bool
}

// DefaultConfig targets a local replica set member
func DefaultConfig() *Config {
	return &Config{
		URI:            "mongodb://localhost:27017",
		Database:       "putwall_db",
		AppName:        "putwall-service",
		ConnectTimeout: 10 * time.Second,
		PingTimeout:    5 * time.Second,
		MaxPoolSize:    100,
		MinPoolSize:    5,
	}
}

func (c *Config) clientOptions() *options.ClientOptions {
	opts := options.Client().
		ApplyURI(c.URI).
		SetAppName(c.AppName).
		SetConnectTimeout(c.ConnectTimeout).
		SetMaxPoolSize(c.MaxPoolSize).
		SetMinPoolSize(c.MinPoolSize)

	if c.Username != "" {
		opts.SetAuth(options.Credential{Username: c.Username, Password: c.Password, AuthSource: c.AuthSource})
	}
	if c.ReplicaSet != "" {
		opts.SetReplicaSet(c.ReplicaSet)
	}
	if c.Direct {
		opts.SetDirect(true)
	}
	return opts
}

// Client is a connected driver client bound to the put wall database
type Client struct {
	client   *mongo.Client
	database *mongo.Database
}

// NewClient connects and fails unless the primary answers a ping
func NewClient(ctx context.Context, config *Config) (*Client, error) {
	client, err := mongo.Connect(ctx, config.clientOptions())
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	pingTimeout := config.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	return &Client{client: client, database: client.Database(config.Database)}, nil
}

// Database returns the put wall database
func (c *Client) Database() *mongo.Database { return c.database }

// Collection returns a collection of the put wall database
func (c *Client) Collection(name string) *mongo.Collection { return c.database.Collection(name) }

// Close disconnects
func (c *Client) Close(ctx context.Context) error { return c.client.Disconnect(ctx) }

// HealthCheck pings the primary
func (c *Client) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

// WithTransaction runs fn in a transaction on a fresh session. The driver
// re-runs fn on transient errors.
func (c *Client) WithTransaction(ctx context.Context, fn func(sessCtx mongo.SessionContext) error) error {
	session, err := c.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}
