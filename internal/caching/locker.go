package caching

import (
	"context"
	"fmt"
	"sync"
	"time"

	"firmbill/internal/common"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// InvoiceNumberLock is held while an invoice number is read and written.
const InvoiceNumberLock = "invoice-number"

// ScheduledInvoiceLock names the lock that claims one scheduled entry for processing.
func ScheduledInvoiceLock(id uuid.UUID) string {
	return "scheduled:" + id.String()
}

// Locker serializes critical sections across callers.
type Locker interface {
	Lock(ctx context.Context, name string) (unlock func(), err error)
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisLocker struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
	poll   time.Duration
}

// NewRedisLocker returns a Locker shared by every process using the same redis.
// ttl bounds how long a crashed holder keeps the lock; wait bounds how long
// Lock retries before giving up.
func NewRedisLocker(client *redis.Client, ttl, wait time.Duration) Locker {
	return &redisLocker{client: client, ttl: ttl, wait: wait, poll: 50 * time.Millisecond}
}

func lockKey(name string) string {
	return fmt.Sprintf("%s:lock:%s", keyPrefix, name)
}

func (l *redisLocker) Lock(ctx context.Context, name string) (func(), error) {
	key := lockKey(name)
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", name, err)
		}
		if ok {
			return func() {
				// Release with a fresh context so a cancelled caller still frees the lock.
				releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err()
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, common.Wrap("acquire lock "+name, common.ErrAllocationConflict, fmt.Errorf("timed out after %s", l.wait))
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.poll):
		}
	}
}

type localLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

// NewLocalLocker returns an in-process Locker for single-instance deployments.
func NewLocalLocker() Locker {
	return &localLocker{slots: make(map[string]chan struct{})}
}

func (l *localLocker) slot(name string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.slots[name]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[name] = ch
	}
	return ch
}

func (l *localLocker) Lock(ctx context.Context, name string) (func(), error) {
	ch := l.slot(name)
	select {
	case ch <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-ch }) }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
