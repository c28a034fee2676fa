package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"laporan/internal/config"
)

var mongoConnect = mongo.Connect

// NewMongo connects to MongoDB and verifies the primary is reachable.
// The connect and ping share a 10s budget derived from ctx.
func NewMongo(ctx context.Context, c config.MongoConfig) (*mongo.Client, error) {
	if c.URI == "" || c.Database == "" || c.Collection == "" {
		return nil, fmt.Errorf("invalid mongo config: uri, database and collection are required")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongoConnect(ctx, options.Client().ApplyURI(c.URI).SetAppName(applicationName))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// MongoPinger adapts a mongo client to the PingContext shape used by health checks.
type MongoPinger struct {
	Client *mongo.Client
}

func (p MongoPinger) PingContext(ctx context.Context) error {
	return p.Client.Ping(ctx, readpref.Primary())
}
