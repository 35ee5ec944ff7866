package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/ignite/polite-popup/internal/popup"
	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces exposure records in shared backends.
const DefaultKeyPrefix = "polite-popup"

// RedisStore keeps one JSON-encoded exposure record per visitor under
// "<prefix>:<visitorID>". Records have no TTL: exposure history persists
// until the visitor's storage is cleared.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(visitorID string) string {
	return s.prefix + ":" + visitorID
}

func (s *RedisStore) Read(ctx context.Context, visitorID string) (popup.ExposureRecord, error) {
	val, err := s.client.Get(ctx, s.key(visitorID)).Result()
	if err == redis.Nil {
		return popup.DefaultExposureRecord(), nil
	}
	if err != nil {
		return popup.DefaultExposureRecord(), fmt.Errorf("reading exposure record: %w", err)
	}

	var rec popup.ExposureRecord
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		// Corrupt entry: fall back to the default rather than failing.
		log.Printf("WARN corrupt exposure record key=%s: %v", s.key(visitorID), err)
		return popup.DefaultExposureRecord(), nil
	}
	return rec, nil
}

func (s *RedisStore) Write(ctx context.Context, visitorID string, rec popup.ExposureRecord) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling exposure record: %w", err)
	}
	if err := s.client.Set(ctx, s.key(visitorID), body, 0).Err(); err != nil {
		return fmt.Errorf("writing exposure record: %w", err)
	}
	return nil
}
