package journal

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PoolConfig sizes the driver connection pool. Zero fields keep the driver defaults.
type PoolConfig struct {
	ConnectTimeout  time.Duration
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
}

// ConnectMongoDB connects and pings. The journal is written once per purchase, so the pool stays small.
func ConnectMongoDB(ctx context.Context, uri, database string, pool PoolConfig) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(5 * time.Second).
		SetAppName("caja-service")
	if pool.ConnectTimeout > 0 {
		clientOpts.SetConnectTimeout(pool.ConnectTimeout)
	}
	if pool.MaxPoolSize > 0 {
		clientOpts.SetMaxPoolSize(pool.MaxPoolSize)
	}
	if pool.MinPoolSize > 0 {
		clientOpts.SetMinPoolSize(pool.MinPoolSize)
	}
	if pool.MaxConnIdleTime > 0 {
		clientOpts.SetMaxConnIdleTime(pool.MaxConnIdleTime)
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}
