package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"padel_notifier/internal/domain/reminder"
)

// Redis stores each record as a JSON string under prefix+key. Keys never expire.
type Redis struct {
	client redis.Cmdable
	prefix string
}

func NewRedis(client redis.Cmdable, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

// NewRedisClient parses a redis:// URL and pings the server.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func (r *Redis) HasFired(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, r.prefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("error checking sent reminder %s: %w", key, err)
	}
	return n > 0, nil
}

// RecordFired uses SETNX so an existing record is never replaced.
func (r *Redis) RecordFired(ctx context.Context, rec reminder.Record) error {
	val, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("error encoding sent reminder %s: %w", rec.Key, err)
	}
	if err := r.client.SetNX(ctx, r.prefix+rec.Key, val, 0).Err(); err != nil {
		return fmt.Errorf("error recording sent reminder %s: %w", rec.Key, err)
	}
	return nil
}

// Get loads the stored record, reporting false when absent.
func (r *Redis) Get(ctx context.Context, key string) (reminder.Record, bool, error) {
	raw, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err == redis.Nil {
		return reminder.Record{}, false, nil
	}
	if err != nil {
		return reminder.Record{}, false, fmt.Errorf("error loading sent reminder %s: %w", key, err)
	}
	var rec reminder.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return reminder.Record{}, false, fmt.Errorf("error decoding sent reminder %s: %w", key, err)
	}
	return rec, true, nil
}
