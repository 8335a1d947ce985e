// shared/mongodb/client.go
package mongodb

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Client wraps a *mongo.Client bound to one database.
type Client struct {
	mongoClient *mongo.Client
	database    string
	log         *slog.Logger
}

// NewClient connects to MongoDB and pings the primary before returning.
func NewClient(ctx context.Context, connStr, databaseName string, logger *slog.Logger) (*Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(connStr))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		if disconnectErr := client.Disconnect(context.Background()); disconnectErr != nil {
			logger.Warn("failed to disconnect MongoDB client after ping failure", slog.Any("error", disconnectErr))
		}
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logger.Info("connected to MongoDB", slog.String("database", databaseName))
	return &Client{
		mongoClient: client,
		database:    databaseName,
		log:         logger,
	}, nil
}

// Collection returns a handle on the named collection of the bound database.
func (mc *Client) Collection(collectionName string) *mongo.Collection {
	return mc.mongoClient.Database(mc.database).Collection(collectionName)
}

func (mc *Client) Disconnect(ctx context.Context) error {
	mc.log.Info("disconnecting from MongoDB")
	return mc.mongoClient.Disconnect(ctx)
}
