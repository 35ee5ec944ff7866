package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/polite-popup/internal/config"
	"github.com/ignite/polite-popup/internal/popup"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"
)

// New creates the exposure store described by cfg. Supported types are
// "redis", "postgres", "dynamodb" and "local" (the default).
func New(ctx context.Context, cfg config.StorageConfig) (popup.ExposureStore, error) {
	switch cfg.Type {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.RedisAddr, err)
		}
		return NewRedisStore(client, cfg.KeyPrefix), nil

	case "postgres":
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("opening postgres: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		store := NewPostgresStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("ensuring postgres schema: %w", err)
		}
		return store, nil

	case "dynamodb":
		return NewDynamoStore(ctx, cfg.DynamoDBTable, cfg.AWSRegion, cfg.AWSProfile, cfg.KeyPrefix)

	case "local", "":
		return NewLocalStore(cfg.LocalPath)

	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}
