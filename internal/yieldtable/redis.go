package yieldtable

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the hash holding one JSON entry per rate field.
const DefaultRedisKey = "flourprice:yield_rates"

// RedisSource reads a table stored as a Redis hash: field = rate, value = JSON entry.
type RedisSource struct {
	client *redis.Client
	key    string
}

// NewRedisSource creates a Redis-backed source.
func NewRedisSource(addr, password string, db int, key string) *RedisSource {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisSource{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		key: key,
	}
}

// Close closes the Redis connection.
func (s *RedisSource) Close() {
	if s.client != nil {
		_ = s.client.Close()
	}
}

func (s *RedisSource) Load(ctx context.Context) (*Table, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("get yield rates: %w", err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("redis key %q: %w", s.key, ErrNoEntry)
	}
	return decodeHash(fields)
}

// SeedIfEmpty writes t to the hash unless it already holds entries. It reports whether it wrote.
func (s *RedisSource) SeedIfEmpty(ctx context.Context, t *Table) (bool, error) {
	n, err := s.client.HLen(ctx, s.key).Result()
	if err != nil {
		return false, fmt.Errorf("check yield rates: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	values, err := encodeHash(t)
	if err != nil {
		return false, err
	}
	if err := s.client.HSet(ctx, s.key, values).Err(); err != nil {
		return false, fmt.Errorf("store yield rates: %w", err)
	}
	return true, nil
}

func decodeHash(fields map[string]string) (*Table, error) {
	raw := make(map[string]Entry, len(fields))
	for k, v := range fields {
		var e Entry
		if err := json.Unmarshal([]byte(v), &e); err != nil {
			return nil, fmt.Errorf("decode yield rate %s: %w", k, err)
		}
		raw[k] = e
	}
	return fromStringKeys(raw)
}

func encodeHash(t *Table) (map[string]any, error) {
	values := make(map[string]any, t.Len())
	for _, rate := range t.Rates() {
		e, _ := t.Entry(rate)
		data, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("marshal yield rate %d: %w", rate, err)
		}
		values[strconv.Itoa(rate)] = string(data)
	}
	return values, nil
}
