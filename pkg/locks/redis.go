package locks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our token
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// redisClient is the part of *redis.Client the locker needs
type redisClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// PlayerPrefix namespaces the per-player lock keys of a service
func PlayerPrefix(service string) string {
	return service + ":player:"
}

// RedisLocker is a Locker shared by every instance using the same Redis
type RedisLocker struct {
	client  redisClient
	prefix  string
	ttl     time.Duration
	timeout time.Duration
	retry   time.Duration
}

// NewRedisLocker creates a Redis-backed locker. Locks expire after ttl so a
// crashed holder cannot block a player forever.
func NewRedisLocker(client redisClient, prefix string, timeout, ttl time.Duration) *RedisLocker {
	return &RedisLocker{
		client:  client,
		prefix:  prefix,
		ttl:     ttl,
		timeout: timeout,
		retry:   25 * time.Millisecond,
	}
}

// Connect opens a Redis client and checks it is reachable
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}

	return rdb, nil
}

// Acquire takes the lock for key, polling until the wait times out
func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	name := l.prefix + key
	token := uuid.NewString()
	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, name, token, l.ttl).Result()
		if err != nil && ctx.Err() == nil {
			return nil, fmt.Errorf("acquire %s: %w", name, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %v", ErrTimeout, name, ctx.Err())
		case <-ticker.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			// An expired lock is simply gone, nothing to report
			_ = l.client.Eval(releaseCtx, releaseScript, []string{name}, token).Err()
		})
	}, nil
}
