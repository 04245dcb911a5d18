package lock

//go:generate go run go.uber.org/mock/mockgen -source=./lock.go -destination=./mocks/lock_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"rental/config"
	"rental/infras/otel"
	"rental/shared/constant"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	keyPrefix = "lock"

	defaultTTL      = 10 * time.Second
	defaultWait     = 3 * time.Second
	retryBackoff    = 25 * time.Millisecond
	maxRetryBackoff = 200 * time.Millisecond

	otelAttrLockKey = "lock.key"
)

var ErrNotAcquired = errors.New("lock not acquired")

// releaseScript deletes the key only while it still holds the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker serializes work on a named resource across goroutines (and, for the redis
// implementation, across processes).
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// Key builds the lock key for a resource, e.g. lock:unit:7.
func Key(resource string, id any) string {
	return fmt.Sprintf("%s:%s:%v", keyPrefix, resource, id)
}

type redisLocker struct {
	client *redis.Client
	otel   otel.Otel
	ttl    time.Duration
	wait   time.Duration
}

func NewRedisLocker(client *redis.Client, cfg *config.Config, ot otel.Otel) Locker {
	ttl := time.Duration(cfg.Scheduler.LockTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = defaultTTL
	}

	wait := time.Duration(cfg.Scheduler.LockWaitMillis) * time.Millisecond
	if wait <= 0 {
		wait = defaultWait
	}

	return &redisLocker{
		client: client,
		otel:   ot,
		ttl:    ttl,
		wait:   wait,
	}
}

func (l *redisLocker) Lock(ctx context.Context, key string) (unlock func(), err error) {
	ctx, scope := l.otel.NewScope(ctx, constant.OtelLockScopeName, constant.OtelLockScopeName+".Lock")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	scope.SetAttribute(otelAttrLockKey, key)

	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)
	backoff := retryBackoff

	for {
		acquired, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			log.Error().Err(err).Str("key", key).Msg("failed to acquire lock")

			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}

		if acquired {
			break
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: %s", ErrNotAcquired, key)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, ctx.Err())
		case <-time.After(backoff):
		}

		backoff = min(backoff*2, maxRetryBackoff)
	}

	return func() {
		c := context.WithoutCancel(ctx)

		if err := releaseScript.Run(c, l.client, []string{key}, token).Err(); err != nil {
			log.Error().Err(err).Str("key", key).Msg("failed to release lock")
		}
	}, nil
}

type memoryEntry struct {
	mu   sync.Mutex
	refs int
}

type memoryLocker struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
}

// NewMemoryLocker returns a process-local Locker.
func NewMemoryLocker() Locker {
	return &memoryLocker{entries: map[string]*memoryEntry{}}
}

func (l *memoryLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()

	entry, ok := l.entries[key]
	if !ok {
		entry = &memoryEntry{}
		l.entries[key] = entry
	}

	entry.refs++
	l.mu.Unlock()

	acquired := make(chan struct{})

	go func() {
		entry.mu.Lock()
		close(acquired)
	}()

	select {
	case <-acquired:
	case <-ctx.Done():
		// the waiter still takes the mutex eventually; hand it straight back
		go func() {
			<-acquired
			l.release(key, entry)
		}()

		return nil, fmt.Errorf("failed to acquire lock %s: %w", key, ctx.Err())
	}

	var once sync.Once

	return func() {
		once.Do(func() {
			l.release(key, entry)
		})
	}, nil
}

func (l *memoryLocker) release(key string, entry *memoryEntry) {
	entry.mu.Unlock()

	l.mu.Lock()
	defer l.mu.Unlock()

	entry.refs--
	if entry.refs == 0 {
		delete(l.entries, key)
	}
}
