package redisstore

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mediscan/quotakit/pkg/entitlement"
)

const (
	keyPrefix    = "usage:"
	anchorSuffix = "@anchor"
)

// Store implements entitlement.SessionStore on Redis. Each principal's
// counters live in a single hash under "usage:<key>": the field named after
// the feature holds the used count and "<feature>@anchor" holds the period
// anchor as unix seconds. Every write refreshes the hash TTL so idle
// sessions expire on their own.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// Option configures the Store.
type Option func(*Store)

// WithTTL overrides the sliding expiry applied to each principal's hash.
// A non-positive value disables expiry.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// New creates a Redis-backed session store. Panics if client is nil.
func New(client *redis.Client, opts ...Option) *Store {
	if client == nil {
		panic("redisstore: redis client is required")
	}

	s := &Store{
		client: client,
		ttl:    48 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns all counters stored for the principal key. A missing hash
// yields an empty map.
func (s *Store) Get(ctx context.Context, key string) (map[entitlement.FeatureKey]entitlement.Counter, error) {
	fields, err := s.client.HGetAll(ctx, keyPrefix+key).Result()
	if err != nil {
		return nil, errors.Join(ErrFailedToReadUsage, err)
	}

	counters := make(map[entitlement.FeatureKey]entitlement.Counter, len(fields))
	for field, raw := range fields {
		if strings.HasSuffix(field, anchorSuffix) {
			continue
		}
		used, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		c := entitlement.Counter{Used: used}
		if rawAnchor, ok := fields[field+anchorSuffix]; ok {
			if unix, err := strconv.ParseInt(rawAnchor, 10, 64); err == nil {
				c.PeriodAnchor = time.Unix(unix, 0).UTC()
			}
		}
		counters[entitlement.FeatureKey(field)] = c
	}
	return counters, nil
}

// Increment adds one unit to the feature counter and returns the new used
// count. The anchor field is written only when absent, so an existing
// counter keeps the anchor of the period it was opened in.
func (s *Store) Increment(ctx context.Context, key string, feature entitlement.FeatureKey, anchor time.Time) (int64, error) {
	hashKey := keyPrefix + key

	pipe := s.client.TxPipeline()
	incr := pipe.HIncrBy(ctx, hashKey, string(feature), 1)
	pipe.HSetNX(ctx, hashKey, string(feature)+anchorSuffix, anchor.Unix())
	if s.ttl > 0 {
		pipe.Expire(ctx, hashKey, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, errors.Join(ErrFailedToWriteUsage, err)
	}

	return incr.Val(), nil
}

// Set overwrites the feature counter and its anchor.
func (s *Store) Set(ctx context.Context, key string, feature entitlement.FeatureKey, c entitlement.Counter) error {
	hashKey := keyPrefix + key

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, hashKey, string(feature), c.Used, string(feature)+anchorSuffix, c.PeriodAnchor.Unix())
	if s.ttl > 0 {
		pipe.Expire(ctx, hashKey, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Join(ErrFailedToWriteUsage, err)
	}
	return nil
}

// Clear drops all counters for the principal key.
func (s *Store) Clear(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return errors.Join(ErrFailedToWriteUsage, err)
	}
	return nil
}
