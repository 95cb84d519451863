package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/suPer8Hu/tone-platform/internal/cache"
	"go.uber.org/zap"
)

const keyPrefix = "tone:research:"

type Store struct {
	rdb redis.UniversalClient
}

func New(addr, password string, db int) *Store {
	return &Store{rdb: redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})}
}

// NewWithClient wraps an existing client.
func NewWithClient(rdb redis.UniversalClient) *Store {
	return &Store{rdb: rdb}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

func (s *Store) getEntry(ctx context.Context, key string) (*cache.Entry, error) {
	raw, err := s.rdb.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, cache.ErrMiss
	}
	if err != nil {
		return nil, err
	}
	var e cache.Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("redis: decode %q: %w", key, err)
	}
	return &e, nil
}

func (s *Store) setEntry(ctx context.Context, e *cache.Entry, ttl time.Duration) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, keyPrefix+e.CacheKey, raw, ttl).Err()
}

// Tiered puts redis in front of a durable cache.Store. Redis failures are
// logged and fall through to the durable store; they never fail a request.
type Tiered struct {
	hot     *Store
	durable cache.Store
	ttl     time.Duration
	now     func() time.Time
	log     *zap.Logger
}

func NewTiered(hot *Store, durable cache.Store, ttl time.Duration, log *zap.Logger) *Tiered {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tiered{hot: hot, durable: durable, ttl: ttl, now: time.Now, log: log}
}

func (t *Tiered) Get(ctx context.Context, key string) (*cache.Entry, error) {
	e, err := t.hot.getEntry(ctx, key)
	if err == nil {
		return e, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		t.log.Warn("redis get failed, using database", zap.String("key", key), zap.Error(err))
	}

	e, err = t.durable.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	t.warm(ctx, e)
	return e, nil
}

func (t *Tiered) Upsert(ctx context.Context, e *cache.Entry) error {
	if err := t.durable.Upsert(ctx, e); err != nil {
		return err
	}
	t.warm(ctx, e)
	return nil
}

// warm copies e into redis for the rest of its freshness window.
func (t *Tiered) warm(ctx context.Context, e *cache.Entry) {
	remaining := t.ttl - t.now().Sub(e.UpdatedAt)
	if remaining <= 0 {
		return
	}
	if err := t.hot.setEntry(ctx, e, remaining); err != nil {
		t.log.Warn("redis set failed", zap.String("key", e.CacheKey), zap.Error(err))
	}
}

func (t *Tiered) List(ctx context.Context, limit int) ([]cache.Entry, error) {
	return t.durable.List(ctx, limit)
}

func (t *Tiered) Ping(ctx context.Context) error {
	return t.durable.Ping(ctx)
}
