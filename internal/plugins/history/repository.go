package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Repository is the storage contract for the history list: one named blob,
// read in full, rewritten in full on every mutation. No partial or append
// writes -- both implementations preserve whole-list semantics, so callers
// must serialize read-modify-write cycles (the service does).
type Repository interface {
	// Load returns the full record list in insertion order. An absent blob
	// is an empty list, not an error.
	Load(ctx context.Context) ([]Record, error)

	// Save replaces the stored list with the given one.
	Save(ctx context.Context, records []Record) error
}

// redisRepository keeps the serialized list under a single Redis key.
type redisRepository struct {
	client *redis.Client
	key    string
}

// NewRedisRepository creates a Redis-backed repository storing the list as
// a JSON blob under the given key.
func NewRedisRepository(client *redis.Client, key string) Repository {
	return &redisRepository{client: client, key: key}
}

// Load implements Repository.
func (r *redisRepository) Load(ctx context.Context) ([]Record, error) {
	raw, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading history blob: %w", err)
	}

	var records []Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decoding history blob: %w", err)
	}
	return records, nil
}

// Save implements Repository.
func (r *redisRepository) Save(ctx context.Context, records []Record) error {
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encoding history blob: %w", err)
	}
	if err := r.client.Set(ctx, r.key, raw, 0).Err(); err != nil {
		return fmt.Errorf("writing history blob: %w", err)
	}
	return nil
}
