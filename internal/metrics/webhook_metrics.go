package metrics

import (
	"github.com/sirsiprashanth/trigr-payments/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WebhookMetrics records webhook processing metrics.
type WebhookMetrics interface {
	IncDelivery(eventType string)
	IncOutcome(outcome string)
	ObserveProcessing(eventType string, seconds float64)
	ObserveStoreRequest(op string, seconds float64)
}

type webhookMetrics struct {
	log           *logger.Logger
	deliveries    *prometheus.CounterVec
	outcomes      *prometheus.CounterVec
	processing    *prometheus.HistogramVec
	storeRequests *prometheus.HistogramVec
}

// NewWebhookMetrics registers webhook metrics against the given registry.
func NewWebhookMetrics(registry *prometheus.Registry, log *logger.Logger) WebhookMetrics {
	deliveries := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_deliveries_total",
			Help: "The total number of webhook deliveries received, by event type",
		},
		[]string{"event_type"},
	)

	outcomes := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_reconciliation_outcomes_total",
			Help: "The total number of reconciliation outcomes, by outcome",
		},
		[]string{"outcome"},
	)

	processing := promauto.With(registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "webhook_processing_duration_seconds",
			Help:    "Webhook processing duration distribution",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"event_type"},
	)

	storeRequests := promauto.With(registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "firestore_request_duration_seconds",
			Help:    "Firestore request duration distribution, by operation",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	return &webhookMetrics{
		log:           log,
		deliveries:    deliveries,
		outcomes:      outcomes,
		processing:    processing,
		storeRequests: storeRequests,
	}
}

// IncDelivery counts one received delivery.
func (m *webhookMetrics) IncDelivery(eventType string) {
	m.deliveries.WithLabelValues(eventType).Inc()
}

// IncOutcome counts one reconciliation outcome.
func (m *webhookMetrics) IncOutcome(outcome string) {
	m.outcomes.WithLabelValues(outcome).Inc()
}

// ObserveProcessing records end-to-end handling time for one delivery.
func (m *webhookMetrics) ObserveProcessing(eventType string, seconds float64) {
	m.processing.WithLabelValues(eventType).Observe(seconds)
}

// ObserveStoreRequest records one document store round-trip.
func (m *webhookMetrics) ObserveStoreRequest(op string, seconds float64) {
	m.storeRequests.WithLabelValues(op).Observe(seconds)
}
