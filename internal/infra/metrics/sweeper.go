package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		entitlementsExpiredTotal,
		membershipsPromotedTotal,
		sweepDuration,
	)
}

var (
	entitlementsExpiredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entitlements_expired_total",
			Help: "Rows moved to expired by the expiry sweeper, by entitlement kind.",
		},
		[]string{"kind"}, // 'subscription', 'membership'
	)

	membershipsPromotedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "memberships_promoted_total",
			Help: "Stacked membership periods promoted from pending to active.",
		},
	)

	sweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "expiry_sweep_duration_seconds",
			Help:    "Duration of one expiry sweep run in seconds.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		},
	)
)

func AddEntitlementsExpired(kind string, count int64) {
	entitlementsExpiredTotal.WithLabelValues(norm(kind)).Add(float64(count))
}

func AddMembershipsPromoted(count int64) {
	membershipsPromotedTotal.Add(float64(count))
}

func ObserveSweepDuration(seconds float64) {
	sweepDuration.Observe(seconds)
}
