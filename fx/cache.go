package fx

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
)

// CachedRate is the durable-tier payload for one (date, from, to) key.
// Date is the service-returned rate date, which may differ from the
// requested date in the key (weekends snap to the nearest trading day).
type CachedRate struct {
	Rate     float64 `json:"rate"`
	Date     string  `json:"date"`
	From     string  `json:"from"`
	To       string  `json:"to"`
	CachedAt int64   `json:"cached_at"` // unix seconds at insertion
}

// CacheStore is the durable cache tier. A missing key is (zero, false, nil),
// not an error. Implementations must tolerate concurrent writers racing on
// the same key; last writer wins.
type CacheStore interface {
	Get(ctx context.Context, key string) (CachedRate, bool, error)
	Set(ctx context.Context, key string, entry CachedRate) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

const redisKeyPrefix = "fx:"

// RedisStore keeps cached rates in Redis as JSON values under "fx:{key}".
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) (CachedRate, bool, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return CachedRate{}, false, nil
	}
	if err != nil {
		return CachedRate{}, false, err
	}

	var entry CachedRate
	if err := json.Unmarshal(data, &entry); err != nil {
		return CachedRate{}, false, err
	}
	return entry, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, entry CachedRate) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, redisKeyPrefix+key, data, 0).Err()
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, redisKeyPrefix+key).Err()
}

func (s *RedisStore) Clear(ctx context.Context) error {
	keys, err := s.client.Keys(ctx, redisKeyPrefix+"*").Result()
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}
