package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		subscriptionActivations,
		membershipActivations,
	)
}

var (
	// action: created|renewed|noop
	subscriptionActivations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscription_activations_total",
			Help: "Subscription activator outcomes per completed payment.",
		},
		[]string{"action"},
	)

	// action: created|stacked|noop
	membershipActivations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "membership_activations_total",
			Help: "Membership activator outcomes per completed payment.",
		},
		[]string{"action"},
	)
)

func IncSubscriptionActivation(action string) {
	subscriptionActivations.WithLabelValues(norm(action)).Inc()
}

func IncMembershipActivation(action string) {
	membershipActivations.WithLabelValues(norm(action)).Inc()
}
