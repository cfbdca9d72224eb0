// Package lease coordinates fetches across replicas so that only one of
// them refreshes a given key at a time.
package lease

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

const prefix = "anchor-autopilot:lease:"

// release deletes the lease only if this owner still holds it.
var release = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lease hands out short-lived per-key locks backed by Redis.
//
// A lease covers one fetch and is released when it completes. Each replica
// keeps its own cache, so a replica that lost the lease fetches the key on a
// later tick: fetches of a key are serialised across replicas, not
// deduplicated.
type Lease struct {
	rdb   *redis.Client
	owner string
}

// New creates a Lease backed by Redis.
func New(redisURL, password string) (*Lease, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	if password != "" {
		opts.Password = password
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	host, _ := os.Hostname()
	return &Lease{rdb: rdb, owner: fmt.Sprintf("%s:%d", host, os.Getpid())}, nil
}

// Close shuts down the Redis connection.
func (l *Lease) Close() error {
	return l.rdb.Close()
}

// Acquire takes the lease on key for ttl. It returns false only when another
// owner holds it. Redis errors count as acquired.
func (l *Lease) Acquire(ctx context.Context, key string, ttl time.Duration) bool {
	ok, err := l.rdb.SetNX(ctx, prefix+key, l.owner, ttl).Result()
	if err != nil {
		return true
	}
	return ok
}

// Release gives the lease on key back early if this owner holds it.
func (l *Lease) Release(ctx context.Context, key string) {
	release.Run(ctx, l.rdb, []string{prefix + key}, l.owner) //nolint:errcheck
}
