// Package metrics exposes entitlement counters for Prometheus scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "stash"

// Outcome label values.
const (
	OutcomeCompleted    = "completed"
	OutcomeReplayed     = "replayed"
	OutcomeIgnored      = "ignored"
	OutcomeNotFound     = "not_found"
	OutcomeUnauthorized = "unauthorized"
	OutcomeInvalid      = "invalid"
	OutcomeError        = "error"

	OutcomePurchased         = "purchased"
	OutcomeInsufficientFunds = "insufficient_funds"
	OutcomeAlreadyPremium    = "already_premium"
	OutcomeInvalidTier       = "invalid_tier"

	OutcomeAllowed   = "allowed"
	OutcomeBlocked   = "blocked"
	OutcomeUnlimited = "unlimited"
)

// Metrics holds the service collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry          *prometheus.Registry
	webhookDeliveries *prometheus.CounterVec
	premiumPurchases  *prometheus.CounterVec
	views             *prometheus.CounterVec
	staleIntents      prometheus.Gauge
}

// New registers the collectors on registry, or on a fresh registry when nil.
func New(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		registry: registry,
		webhookDeliveries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "webhook_deliveries_total",
				Help:      "Donation webhook deliveries by outcome.",
			},
			[]string{"outcome"},
		),
		premiumPurchases: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "premium_purchases_total",
				Help:      "Coin-for-premium purchase attempts by outcome.",
			},
			[]string{"outcome"},
		),
		views: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "views_total",
				Help:      "Content view decisions by outcome.",
			},
			[]string{"outcome"},
		),
		staleIntents: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "stale_intents",
				Help:      "Donation intents still pending past the stale threshold at the last sweep.",
			},
		),
	}

	registry.MustRegister(
		m.webhookDeliveries,
		m.premiumPurchases,
		m.views,
		m.staleIntents,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) WebhookDelivery(outcome string) {
	if m == nil {
		return
	}
	m.webhookDeliveries.WithLabelValues(outcome).Inc()
}

func (m *Metrics) PremiumPurchase(outcome string) {
	if m == nil {
		return
	}
	m.premiumPurchases.WithLabelValues(outcome).Inc()
}

func (m *Metrics) View(outcome string) {
	if m == nil {
		return
	}
	m.views.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SetStaleIntents(n int) {
	if m == nil {
		return
	}
	m.staleIntents.Set(float64(n))
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
