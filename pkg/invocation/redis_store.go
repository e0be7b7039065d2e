// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package invocation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
)

const scanBatch = 100

// RedisStore is a Store shared between processes through Redis. Every key is
// prefixed with "<name>:" so several caches can share one database. Names may
// not contain ':', which keeps one cache's namespace from nesting another's.
type RedisStore struct {
	client  redis.UniversalClient
	prefix  string
	pattern string
}

var globEscaper = strings.NewReplacer(`\`, `\\`, "*", `\*`, "?", `\?`, "[", `\[`, "]", `\]`)

var _ Store = (*RedisStore)(nil)

// NewRedisStore wraps an existing client.
func NewRedisStore(client redis.UniversalClient, name string) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("invocation: redis client is nil")
	}
	if name == "" {
		return nil, errors.New("invocation: cache name is required")
	}
	if strings.Contains(name, ":") {
		return nil, fmt.Errorf("invocation: cache name %q must not contain ':'", name)
	}
	return &RedisStore{
		client:  client,
		prefix:  name + ":",
		pattern: globEscaper.Replace(name) + ":*",
	}, nil
}

// NewRedisStoreWithOptions creates a client from go-redis options and wraps it.
func NewRedisStoreWithOptions(options *redis.Options, name string) (*RedisStore, error) {
	if options == nil {
		return nil, errors.New("invocation: redis options are required")
	}
	return NewRedisStore(redis.NewClient(options), name)
}

func (s *RedisStore) key(k string) string {
	return s.prefix + k
}

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Has(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists %s: %w", key, err)
	}
	return n > 0, nil
}

func (s *RedisStore) Append(ctx context.Context, key string, value []byte) error {
	if err := s.client.RPush(ctx, s.key(key), value).Err(); err != nil {
		return fmt.Errorf("redis rpush %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context, key string) ([][]byte, error) {
	items, err := s.client.LRange(ctx, s.key(key), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange %s: %w", key, err)
	}
	out := make([][]byte, len(items))
	for i, item := range items {
		out[i] = []byte(item)
	}
	return out, nil
}

// Clear deletes every key under the store prefix. The name is escaped in the
// SCAN pattern so glob characters in it match literally.
func (s *RedisStore) Clear(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.pattern, scanBatch).Result()
		if err != nil {
			return fmt.Errorf("redis scan: %w", err)
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis del: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
