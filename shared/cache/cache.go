package cache

//go:generate go run go.uber.org/mock/mockgen -source=./cache.go -destination=./mocks/cache_mock.go -package=mocks

import (
	"context"
	"encoding/json"
	"fmt"
	"rental/infras/otel"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	otelScopeName         = "cache"
	otelCacheKeyAttribute = "cache.key"
	scanBatchSize         = 100
	Nil                   = redis.Nil
)

// RedisCache stores JSON values under string keys. Durations are in seconds.
type RedisCache interface {
	Save(ctx context.Context, key string, value any, duration int) (err error)
	Get(ctx context.Context, key string, value any) (err error)
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context, prefix string) error
	// Increment bumps a counter and starts its expiry on the first hit.
	Increment(ctx context.Context, key string, duration int) (int64, error)
}

type redisCache struct {
	client *redis.Client
	otel   otel.Otel
}

func NewRedisCache(client *redis.Client, ot otel.Otel) RedisCache {
	return &redisCache{
		client: client,
		otel:   ot,
	}
}

func (cache *redisCache) scope(ctx context.Context, operation, key string) (context.Context, otel.Scope) {
	ctx, scope := cache.otel.NewScope(ctx, otelScopeName, otelScopeName+"."+operation)
	scope.SetAttribute(otelCacheKeyAttribute, key)

	return ctx, scope
}

func (cache *redisCache) Save(ctx context.Context, key string, value any, duration int) (err error) {
	ctx, scope := cache.scope(ctx, "Save", key)
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	payload, err := encode(value)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to marshal cache value")

		return err
	}

	if err = cache.client.Set(ctx, key, payload, seconds(duration)).Err(); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to set cache value")

		return fmt.Errorf("failed to set cache value: %w", err)
	}

	return nil
}

// Get decodes the stored value into value. A missing key returns an error wrapping Nil.
func (cache *redisCache) Get(ctx context.Context, key string, value any) (err error) {
	ctx, scope := cache.scope(ctx, "Get", key)
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	raw, err := cache.client.Get(ctx, key).Bytes()
	if err != nil {
		return fmt.Errorf("failed to get cache value: %w", err)
	}

	if target, ok := value.(*string); ok {
		*target = string(raw)

		return nil
	}

	if err = json.Unmarshal(raw, value); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to unmarshal cache value")

		return fmt.Errorf("failed to unmarshal cache value: %w", err)
	}

	return nil
}

func (cache *redisCache) Delete(ctx context.Context, key string) (err error) {
	ctx, scope := cache.scope(ctx, "Delete", key)
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if err = cache.client.Del(ctx, key).Err(); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to delete cache value")

		return fmt.Errorf("failed to delete cache value: %w", err)
	}

	return nil
}

// Clear removes every key matching the glob pattern, e.g. booking:gets:*.
func (cache *redisCache) Clear(ctx context.Context, pattern string) (err error) {
	ctx, scope := cache.scope(ctx, "Clear", pattern)
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	iter := cache.client.Scan(ctx, 0, pattern, scanBatchSize).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}

	if err = iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}

	if err = cache.client.Del(ctx, keys...).Err(); err != nil {
		log.Error().Err(err).Str("pattern", pattern).Int("keys", len(keys)).Msg("failed to clear cache")

		return fmt.Errorf("failed to delete cache value: %w", err)
	}

	return nil
}

func (cache *redisCache) Increment(ctx context.Context, key string, duration int) (count int64, err error) {
	ctx, scope := cache.scope(ctx, "Increment", key)
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	pipe := cache.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, seconds(duration))

	if _, err = pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to increment cache counter: %w", err)
	}

	return incr.Val(), nil
}

func encode(value any) ([]byte, error) {
	if text, ok := value.(string); ok {
		return []byte(text), nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cache value: %w", err)
	}

	return payload, nil
}

func seconds(duration int) time.Duration {
	return time.Duration(duration) * time.Second
}
