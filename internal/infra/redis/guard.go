// File: internal/infra/redis/guard.go
package redis

import (
	"context"
	"encoding/json"
	"time"

	"ai-tools-platform/internal/domain"
	"ai-tools-platform/internal/domain/ports/adapter"
	"ai-tools-platform/internal/infra/metrics"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// RedisGuard implements adapter.ConcurrencyGuard on a shared redis
// instance: SetNX leases with a compare-and-delete unlock, plus a JSON
// result cache.
var _ adapter.ConcurrencyGuard = (*RedisGuard)(nil)

type RedisGuard struct {
	cli *redis.Client
}

func NewGuard(c *redClient) *RedisGuard {
	return &RedisGuard{cli: c.cli}
}

const (
	leasePrefix = "guard_lease:"
	cachePrefix = "guard_cache:"
)

func (g *RedisGuard) Acquire(ctx context.Context, key string, ttl time.Duration) (adapter.Lease, error) {
	token := uuid.NewString()
	ok, err := g.cli.SetNX(ctx, leasePrefix+key, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		metrics.IncLeaseConflict()
		return nil, domain.ErrOperationInFlight
	}
	return &redisLease{g: g, key: leasePrefix + key, token: token}, nil
}

type redisLease struct {
	g     *RedisGuard
	key   string
	token string
}

// Unlock only when we still hold the token, so a lease that expired and
// was re-acquired by another worker is never deleted from under it.
var luaUnlock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end`)

func (l *redisLease) Release(ctx context.Context) error {
	_, err := luaUnlock.Run(ctx, l.g.cli, []string{l.key}, l.token).Result()
	return err
}

func (g *RedisGuard) CacheGet(ctx context.Context, key string, out any) (bool, error) {
	data, err := g.cli.Get(ctx, cachePrefix+key).Result()
	if err == redis.Nil {
		metrics.IncCacheLookup(false)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(data), out); err != nil {
		return false, err
	}
	metrics.IncCacheLookup(true)
	return true, nil
}

func (g *RedisGuard) CachePut(ctx context.Context, key string, val any, ttl time.Duration) error {
	data, err := json.Marshal(val)
	if err != nil {
		return err
	}
	return g.cli.Set(ctx, cachePrefix+key, data, ttl).Err()
}
