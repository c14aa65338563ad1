package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(cacheRequests) }

// Cache lookups by entity and result.
// result: hit|miss
var cacheRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cache_requests_total",
		Help: "Cache lookups by entity and result.",
	},
	[]string{"entity", "result"},
)

func IncCacheRequest(entity, result string) {
	cacheRequests.WithLabelValues(norm(entity), norm(result)).Inc()
}
