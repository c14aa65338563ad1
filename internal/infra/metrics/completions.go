package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		completionAttempts,
		notifyDuration,
		receiptDispatchTotal,
	)
}

var (
	// Completion attempts by channel and outcome.
	// channel: webhook|return|manual
	// outcome: completed|failed|noop|stale|not_found|forbidden|invalid_signature
	completionAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_completions_total",
			Help: "Completion attempts by delivery channel and outcome.",
		},
		[]string{"channel", "outcome"},
	)

	// Latency of the webhook handler grouped by result.
	notifyDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payment_notify_duration_seconds",
			Help:    "Duration of /api/v1/payments/notify handler in seconds.",
			Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"result"},
	)

	// Receipt dispatch attempts after successful completion.
	// status: sent|failed|dropped
	receiptDispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "receipt_dispatch_total",
			Help: "Payment receipt dispatch attempts by delivery status.",
		},
		[]string{"status"},
	)
)

func IncCompletion(channel, outcome string) {
	completionAttempts.WithLabelValues(norm(channel), norm(outcome)).Inc()
}

func ObserveNotifyDuration(result string, seconds float64) {
	notifyDuration.WithLabelValues(norm(result)).Observe(seconds)
}

func IncReceiptDispatch(status string) {
	receiptDispatchTotal.WithLabelValues(norm(status)).Inc()
}
