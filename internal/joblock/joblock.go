// Package joblock provides a Redis lock that keeps a cron job from firing on
// more than one replica at a time.
//
// A nil *Locker, or one built without a client, always grants the lock, so a
// single-instance deployment needs no Redis at all.
package joblock

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "library:joblock:"

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker acquires named locks in Redis.
type Locker struct {
	rdb *redis.Client
}

// New wraps a Redis client. rdb may be nil.
func New(rdb *redis.Client) *Locker {
	return &Locker{rdb: rdb}
}

// Connect parses a redis:// URL and pings the server. An empty URL returns a
// Locker without a client.
func Connect(ctx context.Context, url string) (*Locker, error) {
	if url == "" {
		return New(nil), nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Printf("[SCHEDULER] Job lock backed by redis at %s", opts.Addr)
	return New(rdb), nil
}

// Acquire tries to take the named lock for ttl. It reports whether the lock
// was taken and returns a release func that is safe to call either way.
func (l *Locker) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, func(), error) {
	noop := func() {}
	if l == nil || l.rdb == nil {
		return true, noop, nil
	}

	key := keyPrefix + name
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return false, noop, fmt.Errorf("failed to acquire lock %s: %w", name, err)
	}
	if !ok {
		return false, noop, nil
	}

	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.rdb, []string{key}, token).Err(); err != nil {
			log.Printf("[SCHEDULER] Failed to release lock %s: %v", name, err)
		}
	}
	return true, release, nil
}

// Close closes the underlying client, if any.
func (l *Locker) Close() error {
	if l == nil || l.rdb == nil {
		return nil
	}
	return l.rdb.Close()
}
