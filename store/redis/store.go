// Package redis implements store.Store on Redis with go-redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/storehook"
	hookstore "github.com/xraph/storehook/store"
)

// compile-time interface check
var _ hookstore.Store = (*Store)(nil)

// scanBatch is the page size used when walking lex indexes with filters.
const scanBatch = 256

// maxTxRetries bounds optimistic WATCH retries on contended keys.
const maxTxRetries = 8

// Store implements store.Store using Redis.
type Store struct {
	rdb goredis.UniversalClient
}

// New creates a new Redis store over an existing client.
func New(rdb goredis.UniversalClient) *Store {
	return &Store{rdb: rdb}
}

// NewFromURL parses a redis:// URL and connects a client.
func NewFromURL(url string) (*Store, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("storehook/redis: parse url: %w", err)
	}
	return New(goredis.NewClient(opts)), nil
}

// Client returns the underlying go-redis client.
func (s *Store) Client() goredis.UniversalClient { return s.rdb }

// Migrate is a no-op for Redis (no schema migrations needed).
func (s *Store) Migrate(_ context.Context) error {
	return nil
}

// Ping checks Redis connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		if errors.Is(err, goredis.ErrClosed) {
			return storehook.ErrStoreClosed
		}
		return err
	}
	return nil
}

// Close closes the client.
func (s *Store) Close() error {
	return s.rdb.Close()
}

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// scoreFromTime converts a time.Time to a sorted set score (unix seconds as float64).
func scoreFromTime(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

// isRedisNil checks if an error is a Redis nil (key not found).
func isRedisNil(err error) bool {
	return errors.Is(err, goredis.Nil)
}

// getEntity retrieves and decodes a JSON entity. Missing keys yield goredis.Nil.
func (s *Store) getEntity(ctx context.Context, key string, dest any) error {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

// setEntity encodes and stores a JSON entity.
func (s *Store) setEntity(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("storehook/redis: marshal entity: %w", err)
	}
	return s.rdb.Set(ctx, key, raw, 0).Err()
}

// lexBelow walks a lex-ordered index newest first, starting strictly below
// cursor, and calls keep for each member until it returns false.
func (s *Store) lexBelow(ctx context.Context, key, cursor string, keep func(ids []string) (bool, error)) error {
	maxBound := "+"
	if cursor != "" {
		maxBound = "(" + cursor
	}
	for {
		ids, err := s.rdb.ZRevRangeByLex(ctx, key, &goredis.ZRangeBy{
			Min:   "-",
			Max:   maxBound,
			Count: scanBatch,
		}).Result()
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		more, err := keep(ids)
		if err != nil || !more || len(ids) < scanBatch {
			return err
		}
		maxBound = "(" + ids[len(ids)-1]
	}
}
