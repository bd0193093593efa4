package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WebhooksReceived counts accepted webhook deliveries by event type.
	WebhooksReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "billpay_webhooks_received_total",
		Help: "Webhook deliveries accepted for processing, by event type.",
	}, []string{"event_type"})

	// WebhooksRejected counts webhook deliveries rejected before processing.
	WebhooksRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "billpay_webhooks_rejected_total",
		Help: "Webhook deliveries rejected before processing, by reason.",
	}, []string{"reason"})

	// SettlementsCreated counts settlement rows persisted, by status.
	SettlementsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "billpay_settlements_created_total",
		Help: "Settlement rows persisted, by status.",
	}, []string{"status"})

	// ZeroSumViolations counts settlement batches that failed balance validation.
	ZeroSumViolations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "billpay_zero_sum_violations_total",
		Help: "Settlement batches routed to review because amounts did not balance.",
	})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "billpay_http_request_duration_seconds",
		Help:    "HTTP request latency by path and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"path", "status"})
)

// Metrics wraps a handler and observes request latency per path and status.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		requestDuration.WithLabelValues(r.URL.Path, strconv.Itoa(recorder.status)).
			Observe(time.Since(start).Seconds())
	})
}
