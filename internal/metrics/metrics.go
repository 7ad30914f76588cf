// Package metrics exposes the service's prometheus collectors.
package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	prometheus.MustRegister(
		CallbackVerifications,
		PaymentTransitions,
		DroppedEvents,
		RefundRequests,
	)
}

var (
	// Count of callback re-verifications by result and bounded reason.
	// result: accepted|rejected
	// reason (rejected only): not_verified
	CallbackVerifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oxipay_callback_verifications_total",
			Help: "Count of gateway callback re-verifications by result and reason.",
		},
		[]string{"result", "reason"},
	)

	// Applied order-state transitions by notification channel and target status.
	PaymentTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oxipay_payment_transitions_total",
			Help: "Applied order payment transitions by channel and target status.",
		},
		[]string{"channel", "status"},
	)

	// Notifications dropped without order mutation, by channel and reason.
	// reason: unresolved_reference
	DroppedEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oxipay_dropped_events_total",
			Help: "Payment notifications dropped without order mutation.",
		},
		[]string{"channel", "reason"},
	)

	// Refund submissions by outcome.
	// result: ok|error
	RefundRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oxipay_refund_requests_total",
			Help: "Refund submissions to the gateway by outcome.",
		},
		[]string{"result"},
	)
)
