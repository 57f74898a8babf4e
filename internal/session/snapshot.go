package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/interviewace/simulation-engine/internal/models"
)

const snapshotKeyPrefix = "sim:session:"

// RedisSnapshotter persists session snapshots in Redis so a restarted
// engine can pick up in-flight sessions. Each snapshot carries the
// idle TTL, so abandoned sessions age out of Redis on their own.
type RedisSnapshotter struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSnapshotter connects to Redis and verifies connectivity.
func NewRedisSnapshotter(address, password string, db int, ttl time.Duration) (*RedisSnapshotter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisSnapshotter{client: client, ttl: ttl}, nil
}

// Save writes the session as JSON under sim:session:<id>.
func (r *RedisSnapshotter) Save(ctx context.Context, sess *models.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := r.client.Set(ctx, snapshotKeyPrefix+sess.ID, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// Delete removes the snapshot for a session.
func (r *RedisSnapshotter) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, snapshotKeyPrefix+id).Err()
}

// LoadAll scans for all session snapshots and decodes them. Corrupt
// snapshots are dropped rather than failing recovery.
func (r *RedisSnapshotter) LoadAll(ctx context.Context) ([]*models.Session, error) {
	var sessions []*models.Session
	var cursor uint64

	for {
		keys, nextCursor, err := r.client.Scan(ctx, cursor, snapshotKeyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshots: %w", err)
		}

		for _, key := range keys {
			data, err := r.client.Get(ctx, key).Bytes()
			if err != nil {
				continue // expired between scan and get
			}

			var sess models.Session
			if err := json.Unmarshal(data, &sess); err != nil {
				continue
			}
			sessions = append(sessions, &sess)
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return sessions, nil
}

// Close closes the Redis connection.
func (r *RedisSnapshotter) Close() error {
	return r.client.Close()
}
