package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"ai-tools-platform/internal/domain"
	"ai-tools-platform/internal/domain/ports/adapter"
)

var _ adapter.ConcurrencyGuard = (*Guard)(nil)

// Guard is a single-process stand-in for the redis Guard. It honors the
// same lease/TTL semantics within one process only.
type Guard struct {
	mu     sync.Mutex
	leases map[string]time.Time // key -> expiry
	cache  map[string]cacheEntry
}

type cacheEntry struct {
	data   []byte
	expiry time.Time
}

func NewGuard() *Guard {
	return &Guard{leases: map[string]time.Time{}, cache: map[string]cacheEntry{}}
}

func (g *Guard) Acquire(ctx context.Context, key string, ttl time.Duration) (adapter.Lease, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if exp, ok := g.leases[key]; ok && time.Now().Before(exp) {
		return nil, domain.ErrOperationInFlight
	}
	g.leases[key] = time.Now().Add(ttl)
	return &memLease{g: g, key: key}, nil
}

type memLease struct {
	g   *Guard
	key string
}

func (l *memLease) Release(ctx context.Context) error {
	l.g.mu.Lock()
	defer l.g.mu.Unlock()
	delete(l.g.leases, l.key)
	return nil
}

func (g *Guard) CacheGet(ctx context.Context, key string, out any) (bool, error) {
	g.mu.Lock()
	entry, ok := g.cache[key]
	g.mu.Unlock()
	if !ok || time.Now().After(entry.expiry) {
		return false, nil
	}
	return true, json.Unmarshal(entry.data, out)
}

func (g *Guard) CachePut(ctx context.Context, key string, val any, ttl time.Duration) error {
	data, err := json.Marshal(val)
	if err != nil {
		return err
	}
	g.mu.Lock()
	g.cache[key] = cacheEntry{data: data, expiry: time.Now().Add(ttl)}
	g.mu.Unlock()
	return nil
}
