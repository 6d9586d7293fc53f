// Package kv provides the key-value backend the entity store and queues
// are mapped onto.
package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable marks a failure to reach the backend. Callers test for it
// with errors.Is; the underlying client error is wrapped alongside it.
var ErrUnavailable = errors.New("kv backend unavailable")

// ErrRejected marks an error reply from a reachable backend, such as
// WRONGTYPE or a failed EXEC.
var ErrRejected = errors.New("kv command rejected")

// Backend is the set of primitives the core needs from a key-value store.
type Backend interface {
	SAdd(ctx context.Context, set, member string) error
	SIsMember(ctx context.Context, set, member string) (bool, error)
	SCard(ctx context.Context, set string) (int64, error)
	SMembers(ctx context.Context, set string) ([]string, error)

	HSet(ctx context.Context, key, field, value string) error
	HGet(ctx context.Context, key, field string) (string, error)
	HLen(ctx context.Context, key string) (int64, error)

	LLen(ctx context.Context, list string) (int64, error)
	LRange(ctx context.Context, list string, start, stop int64) ([]string, error)
	RPush(ctx context.Context, list, value string) error
	LPop(ctx context.Context, list string) (string, bool, error)

	ScanPrefix(ctx context.Context, prefix string) ([]string, error)

	// Atomic applies every write queued by fn as one transaction.
	Atomic(ctx context.Context, fn func(Batch)) error
}

// Batch collects writes for Backend.Atomic.
type Batch interface {
	SAdd(set, member string)
	HSet(key, field, value string)
}

// RedisStore implements Backend on top of a Redis client
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to redisURL and verifies the connection
func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, backendErr("connect to redis", err)
	}

	return &RedisStore{client: client}, nil
}

// NewRedisStoreWithClient wraps an existing Redis client
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// backendErr tags err with ErrRejected when the server replied with an
// error and with ErrUnavailable otherwise.
func backendErr(op string, err error) error {
	var reply redis.Error
	if errors.As(err, &reply) {
		return fmt.Errorf("%s: %w: %w", op, ErrRejected, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

func (s *RedisStore) SAdd(ctx context.Context, set, member string) error {
	if err := s.client.SAdd(ctx, set, member).Err(); err != nil {
		return backendErr("sadd "+set, err)
	}
	return nil
}

func (s *RedisStore) SIsMember(ctx context.Context, set, member string) (bool, error) {
	ok, err := s.client.SIsMember(ctx, set, member).Result()
	if err != nil {
		return false, backendErr("sismember "+set, err)
	}
	return ok, nil
}

func (s *RedisStore) SCard(ctx context.Context, set string) (int64, error) {
	n, err := s.client.SCard(ctx, set).Result()
	if err != nil {
		return 0, backendErr("scard "+set, err)
	}
	return n, nil
}

func (s *RedisStore) SMembers(ctx context.Context, set string) ([]string, error) {
	members, err := s.client.SMembers(ctx, set).Result()
	if err != nil {
		return nil, backendErr("smembers "+set, err)
	}
	return members, nil
}

func (s *RedisStore) HSet(ctx context.Context, key, field, value string) error {
	if err := s.client.HSet(ctx, key, field, value).Err(); err != nil {
		return backendErr("hset "+key, err)
	}
	return nil
}

// HGet returns "" for a missing key or field.
func (s *RedisStore) HGet(ctx context.Context, key, field string) (string, error) {
	value, err := s.client.HGet(ctx, key, field).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", backendErr("hget "+key, err)
	}
	return value, nil
}

func (s *RedisStore) HLen(ctx context.Context, key string) (int64, error) {
	n, err := s.client.HLen(ctx, key).Result()
	if err != nil {
		return 0, backendErr("hlen "+key, err)
	}
	return n, nil
}

func (s *RedisStore) LLen(ctx context.Context, list string) (int64, error) {
	n, err := s.client.LLen(ctx, list).Result()
	if err != nil {
		return 0, backendErr("llen "+list, err)
	}
	return n, nil
}

// LRange follows Redis index semantics: stop is inclusive and -1 means the tail.
func (s *RedisStore) LRange(ctx context.Context, list string, start, stop int64) ([]string, error) {
	items, err := s.client.LRange(ctx, list, start, stop).Result()
	if err != nil {
		return nil, backendErr("lrange "+list, err)
	}
	return items, nil
}

func (s *RedisStore) RPush(ctx context.Context, list, value string) error {
	if err := s.client.RPush(ctx, list, value).Err(); err != nil {
		return backendErr("rpush "+list, err)
	}
	return nil
}

// LPop reports false when the list is empty.
func (s *RedisStore) LPop(ctx context.Context, list string) (string, bool, error) {
	value, err := s.client.LPop(ctx, list).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, backendErr("lpop "+list, err)
	}
	return value, true, nil
}

// ScanPrefix walks the keyspace with SCAN and returns every key starting
// with prefix. Keys are deduplicated since SCAN may repeat them.
func (s *RedisStore) ScanPrefix(ctx context.Context, prefix string) ([]string, error) {
	pattern := escapeGlob(prefix) + "*"
	seen := make(map[string]struct{})
	var keys []string
	var cursor uint64
	for {
		batch, next, err := s.client.Scan(ctx, cursor, pattern, 500).Result()
		if err != nil {
			return nil, backendErr("scan "+prefix, err)
		}
		for _, key := range batch {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
		if next == 0 {
			return keys, nil
		}
		cursor = next
	}
}

// Atomic runs the queued writes inside MULTI/EXEC so readers never observe
// a half-written hash.
func (s *RedisStore) Atomic(ctx context.Context, fn func(Batch)) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		fn(&pipelineBatch{ctx: ctx, pipe: pipe})
		return nil
	})
	if err != nil {
		return backendErr("atomic batch", err)
	}
	return nil
}

type pipelineBatch struct {
	ctx  context.Context
	pipe redis.Pipeliner
}

func (b *pipelineBatch) SAdd(set, member string) {
	b.pipe.SAdd(b.ctx, set, member)
}

func (b *pipelineBatch) HSet(key, field, value string) {
	b.pipe.HSet(b.ctx, key, field, value)
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks if Redis is reachable
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return backendErr("ping", err)
	}
	return nil
}

func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
