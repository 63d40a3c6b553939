package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Submission outcomes recorded by ReferralsSubmitted.
const (
	OutcomeCreated      = "created"
	OutcomeInvalid      = "invalid"
	OutcomeStoreFailed  = "store_failed"
	OutcomeNotifyFailed = "notify_failed"
)

// Metrics holds all Prometheus metrics for the service. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	// Submissions by outcome
	ReferralsSubmitted *prometheus.CounterVec

	ReferralsListed prometheus.Counter

	// Time spent in the mail transport, successful or not
	NotificationSendDuration prometheus.Histogram

	// HTTP latency by method, route pattern and status
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ReferralsSubmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "referearn_referrals_submitted_total",
			Help: "Total referral submissions by outcome",
		}, []string{"outcome"}),

		ReferralsListed: factory.NewCounter(prometheus.CounterOpts{
			Name: "referearn_referrals_listed_total",
			Help: "Total successful referral list requests",
		}),

		NotificationSendDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "referearn_notification_send_duration_seconds",
			Help:    "Duration of referral email sends",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),

		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "referearn_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// IncrementSubmitted records a submission outcome.
func (m *Metrics) IncrementSubmitted(outcome string) {
	if m != nil {
		m.ReferralsSubmitted.WithLabelValues(outcome).Inc()
	}
}

// IncrementListed records a successful list.
func (m *Metrics) IncrementListed() {
	if m != nil {
		m.ReferralsListed.Inc()
	}
}

// ObserveNotificationSend records how long a send took.
func (m *Metrics) ObserveNotificationSend(d time.Duration) {
	if m != nil {
		m.NotificationSendDuration.Observe(d.Seconds())
	}
}

// ObserveHTTPRequest records one served request.
func (m *Metrics) ObserveHTTPRequest(method, route, status string, d time.Duration) {
	if m != nil {
		m.HTTPRequestDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
	}
}
