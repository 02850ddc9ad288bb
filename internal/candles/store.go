// Package candles layers caching and request collapsing over a raw
// marketdata provider.
package candles

import (
	"context"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/redis"
)

// Store is the narrow cache the candle layer needs: typed get and set with a
// TTL. Implementations must treat failures as cache misses.
type Store interface {
	Get(ctx context.Context, key string, v interface{}) bool
	Set(ctx context.Context, key string, v interface{}, ttl time.Duration)
}

type redisStore struct {
	client *redis.Redis
}

// NewRedisStore builds a Store over go-zero redis. Values are stored as
// msgpack payloads to keep candle series compact.
func NewRedisStore(client *redis.Redis) Store {
	return &redisStore{client: client}
}

func (s *redisStore) Get(ctx context.Context, key string, v interface{}) bool {
	if s == nil || s.client == nil {
		return false
	}
	payload, err := s.client.GetCtx(ctx, key)
	if err != nil || payload == "" {
		return false
	}
	if err := msgpack.Unmarshal([]byte(payload), v); err != nil {
		logx.WithContext(ctx).Errorf("candles: decode cache %s: %v", key, err)
		return false
	}
	return true
}

func (s *redisStore) Set(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	if s == nil || s.client == nil || ttl <= 0 {
		return
	}
	payload, err := msgpack.Marshal(v)
	if err != nil {
		logx.WithContext(ctx).Errorf("candles: encode cache %s: %v", key, err)
		return
	}
	if err := s.client.SetexCtx(ctx, key, string(payload), int(ttl.Seconds())); err != nil {
		logx.WithContext(ctx).Errorf("candles: set cache %s: %v", key, err)
	}
}

// NopStore never hits and never stores. Used when redis is not configured.
type NopStore struct{}

func (NopStore) Get(context.Context, string, interface{}) bool          { return false }
func (NopStore) Set(context.Context, string, interface{}, time.Duration) {}
