package synccoord

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"bloodbridge/pkg/platform/sentinel"
)

// LocalLease is held by at most one coordinator in this process.
type LocalLease struct {
	mu   sync.Mutex
	held bool
}

func NewLocalLease() *LocalLease {
	return &LocalLease{}
}

func (l *LocalLease) TryAcquire(context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held {
		return false, nil
	}
	l.held = true
	return true, nil
}

func (l *LocalLease) Release(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held = false
	return nil
}

// releaseScript deletes the lease only if this owner still holds it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

const defaultLeaseKey = "bloodbridge:sync:lease"

// RedisLease is a single-key lock shared by every process draining the same
// queue. The TTL bounds how long a crashed holder blocks others.
type RedisLease struct {
	client redis.UniversalClient
	key    string
	owner  string
	ttl    time.Duration
}

type RedisLeaseOption func(*RedisLease)

func WithLeaseKey(key string) RedisLeaseOption {
	return func(l *RedisLease) {
		if key != "" {
			l.key = key
		}
	}
}

func WithLeaseTTL(ttl time.Duration) RedisLeaseOption {
	return func(l *RedisLease) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

func NewRedisLease(client redis.UniversalClient, opts ...RedisLeaseOption) *RedisLease {
	l := &RedisLease{
		client: client,
		key:    defaultLeaseKey,
		owner:  uuid.NewString(),
		ttl:    5 * time.Minute,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

func (l *RedisLease) TryAcquire(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, l.owner, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire sync lease: %w: %w", sentinel.ErrStorageUnavailable, err)
	}
	return ok, nil
}

func (l *RedisLease) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.key}, l.owner).Err(); err != nil {
		return fmt.Errorf("release sync lease: %w: %w", sentinel.ErrStorageUnavailable, err)
	}
	return nil
}
