package adapter

import (
	"context"
	"time"
)

// Lease is a held distributed mutex. Release is safe to defer on every
// exit path; releasing an expired or stolen lease is a harmless no-op.
type Lease interface {
	Release(ctx context.Context) error
}

// ConcurrencyGuard provides cross-process mutual exclusion plus short-lived
// memoization for expensive idempotent operations, keyed by an operation
// fingerprint. The lease TTL bounds worst-case staleness when a worker
// crashes mid-operation.
type ConcurrencyGuard interface {
	// Acquire takes the lease for key or returns domain.ErrOperationInFlight
	// when an identical operation already holds it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error)
	CacheGet(ctx context.Context, key string, out any) (bool, error)
	CachePut(ctx context.Context, key string, val any, ttl time.Duration) error
}
