package redis

import (
	"context"
	"time"
)

// HealthCache memoizes a microservice health verdict for a short window
// so a degraded service is not probed by every executor. Grounded on the
// same pattern as a circuit breaker: an unhealthy verdict keeps callers
// away until the window lapses.
type HealthCache struct {
	client RedisClient
	ttl    time.Duration
}

func NewHealthCache(client RedisClient, ttl time.Duration) *HealthCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &HealthCache{client: client, ttl: ttl}
}

// Get returns (healthy, known). known is false when no recent verdict exists.
func (h *HealthCache) Get(ctx context.Context, service string) (bool, bool) {
	v, err := h.client.Get(ctx, "svc_health:"+service)
	if err != nil {
		return false, false
	}
	return v == "up", true
}

func (h *HealthCache) Put(ctx context.Context, service string, healthy bool) {
	v := "down"
	if healthy {
		v = "up"
	}
	_ = h.client.Set(ctx, "svc_health:"+service, v, h.ttl)
}
