package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var (
	db      *mongo.Database
	client  *mongo.Client
	once    sync.Once
	connErr error
)

// ConnectDB opens the MongoDB connection once and returns the database.
func ConnectDB(uri, name string) (*mongo.Database, error) {
	once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		c, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
		if err != nil {
			connErr = fmt.Errorf("connect to MongoDB: %w", err)
			return
		}
		if err := c.Ping(ctx, readpref.Primary()); err != nil {
			_ = c.Disconnect(context.Background())
			connErr = fmt.Errorf("ping MongoDB: %w", err)
			return
		}

		client = c
		db = client.Database(name)
	})
	return db, connErr
}

// DisconnectDB closes the connection opened by ConnectDB.
func DisconnectDB(ctx context.Context) error {
	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}
