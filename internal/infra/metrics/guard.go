package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(guardLeaseConflicts, guardCacheHits) }

var guardLeaseConflicts = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "guard_lease_conflicts_total",
		Help: "Lease acquisitions that found an identical operation in flight.",
	},
)

var guardCacheHits = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "guard_cache_lookups_total",
		Help: "Fingerprint cache lookups by outcome.",
	},
	[]string{"outcome"}, // 'hit', 'miss'
)

func IncLeaseConflict() { guardLeaseConflicts.Inc() }

func IncCacheLookup(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	guardCacheHits.WithLabelValues(outcome).Inc()
}
