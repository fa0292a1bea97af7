package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// ClientConfig holds configuration for a MongoDB client.
type ClientConfig struct {
	URI            string
	ConnectTimeout time.Duration
}

// DefaultClientConfig returns a ClientConfig with sensible defaults.
func DefaultClientConfig(uri string) ClientConfig {
	return ClientConfig{
		URI:            uri,
		ConnectTimeout: 10 * time.Second,
	}
}

// Client wraps a MongoDB client handle. The connector uses two of these: one
// for its own registry/mapping database and one for the asset catalog.
type Client struct {
	client *mongo.Client
}

// NewClient creates a new MongoDB client.
// It connects and pings during initialization to fail fast.
func NewClient(ctx context.Context, cfg ClientConfig) (*Client, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background()) // Best-effort cleanup; original error takes precedence
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &Client{client: client}, nil
}

// Database returns a handle on the named database.
// Use this for creating store instances.
func (c *Client) Database(name string) *mongo.Database {
	return c.client.Database(name)
}

// Ping verifies the connection is alive.
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}
