package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(serviceCallLatencyMs, serviceErrorsTotal, serviceHealthChecks) }

var serviceCallLatencyMs = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "service_call_latency_ms",
		Help:    "Downstream microservice call latency distribution in milliseconds.",
		Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000, 15000, 60000},
	},
	[]string{"service", "endpoint", "success"},
)

var serviceErrorsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "service_errors_total",
		Help: "Downstream call failures by service and error kind.",
	},
	[]string{"service", "kind"},
)

var serviceHealthChecks = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "service_health_checks_total",
		Help: "Health probe outcomes by service.",
	},
	[]string{"service", "healthy"},
)

func ObserveServiceCall(service, endpoint string, latencyMs int, success bool) {
	serviceCallLatencyMs.WithLabelValues(norm(service), norm(endpoint), strconv.FormatBool(success)).
		Observe(float64(latencyMs))
}

func IncServiceError(service, kind string) {
	serviceErrorsTotal.WithLabelValues(norm(service), norm(kind)).Inc()
}

func IncHealthCheck(service string, healthy bool) {
	serviceHealthChecks.WithLabelValues(norm(service), strconv.FormatBool(healthy)).Inc()
}
