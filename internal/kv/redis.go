package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"bloodbridge/pkg/platform/sentinel"
)

const defaultRedisNamespace = "bloodbridge:kv:"

// RedisStore keeps values in Redis under a namespace so a shared instance can
// host other data without being touched by cache wipes.
type RedisStore struct {
	client    *redis.Client
	namespace string
	scanBatch int64
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithNamespace overrides the key namespace.
func WithNamespace(ns string) RedisOption {
	return func(s *RedisStore) {
		if ns != "" {
			s.namespace = ns
		}
	}
}

// NewRedisStore constructs a Redis-backed store. The client lifecycle is managed
// by the caller.
func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client:    client,
		namespace: defaultRedisNamespace,
		scanBatch: 200,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := s.client.Get(ctx, s.namespace+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("kv get %s: %w: %w", key, sentinel.ErrStorageUnavailable, err)
	}
	return v, true, nil
}

// Set writes without expiry; freshness is decided by the entry envelope.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.namespace+key, value, 0).Err(); err != nil {
		return fmt.Errorf("kv set %s: %w: %w", key, sentinel.ErrStorageUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.namespace + k
	}
	if err := s.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("kv delete: %w: %w", sentinel.ErrStorageUnavailable, err)
	}
	return nil
}

// Keys walks the namespace with SCAN so large caches never block the server.
func (s *RedisStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, s.namespace+prefix+"*", s.scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), s.namespace))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("kv scan %s: %w: %w", prefix, sentinel.ErrStorageUnavailable, err)
	}
	return keys, nil
}
