package database

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"storefront/internal/config"
	"storefront/internal/logger"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
)

type Mongo struct {
	Client   *mongo.Client
	Database *mongo.Database
}

var (
	instance *Mongo
	once     sync.Once
)

// Instance connects once using MONGO_URI and MONGO_DB_NAME unless uri or dbName override them.
func Instance(globalCtx context.Context, uri, dbName string) (*Mongo, error) {
	var err error

	once.Do(func() {
		cfg := config.Instance()

		if uri == "" {
			uri = cfg.MongoURI
		}
		if dbName == "" {
			dbName = cfg.MongoDBName
		}

		instance, err = Connect(globalCtx, uri, dbName)
	})

	return instance, err
}

// Connect dials MongoDB with command tracing enabled and verifies the connection with a ping.
func Connect(ctx context.Context, uri, dbName string) (*Mongo, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetMonitor(otelmongo.NewMonitor())

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		logger.Error(ctx, "Failed to connect to MongoDB", logger.Err(err))
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		logger.Error(ctx, "MongoDB ping failed", logger.Err(err))
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	logger.Info(ctx, "Connected to MongoDB successfully", slog.String("database", dbName))

	return &Mongo{
		Client:   client,
		Database: client.Database(dbName),
	}, nil
}

func (m *Mongo) Ping(ctx context.Context) error {
	return m.Client.Ping(ctx, nil)
}

func (m *Mongo) Disconnect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return m.Client.Disconnect(ctx)
}
