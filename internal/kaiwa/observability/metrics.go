package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WebhookRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kaiwa_webhook_requests_total",
			Help: "Inbound webhook requests by route and status code",
		},
		[]string{"route", "status"},
	)

	WebhookRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kaiwa_webhook_request_duration_seconds",
			Help:    "Time spent handling inbound webhook requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	EventsClassifiedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kaiwa_events_classified_total",
			Help: "Classified messaging events by kind",
		},
		[]string{"kind"},
	)

	OutboundRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kaiwa_outbound_requests_total",
			Help: "Outbound platform calls by operation and result",
		},
		[]string{"operation", "result"},
	)

	RelayDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kaiwa_relay_deliveries_total",
			Help: "Events handed to relay sinks by sink and result",
		},
		[]string{"sink", "result"},
	)

	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kaiwa_webhook_rate_limited_total",
			Help: "Inbound webhook requests rejected by the rate limiter",
		},
	)
)

// Result turns an error into the "result" label value.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
