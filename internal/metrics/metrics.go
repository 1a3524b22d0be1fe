// Package metrics exposes Prometheus counters for bot activity. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "valley_bot"

// Ad view outcomes.
const (
	AdOutcomeAwarded       = "awarded"
	AdOutcomeAlreadyViewed = "already_viewed"
	AdOutcomeNoAds         = "no_ads"
	AdOutcomeError         = "error"
)

// Metrics owns a private registry and the bot's collectors.
type Metrics struct {
	registry       *prometheus.Registry
	updates        *prometheus.CounterVec
	handlerErrors  *prometheus.CounterVec
	adViews        *prometheus.CounterVec
	languageLookup *prometheus.CounterVec
	registrations  *prometheus.CounterVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_total",
			Help:      "Inbound Telegram updates by route.",
		}, []string{"route"}),
		handlerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handler_errors_total",
			Help:      "Handler failures caught at the dispatch boundary.",
		}, []string{"route"}),
		adViews: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ad_views_total",
			Help:      "Advertisement view requests by outcome.",
		}, []string{"owner_type", "outcome"}),
		languageLookup: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "language_cache_lookups_total",
			Help:      "Language preference cache lookups.",
		}, []string{"result"}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Registration requests by owner type and result.",
		}, []string{"owner_type", "result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.updates,
		m.handlerErrors,
		m.adViews,
		m.languageLookup,
		m.registrations,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveUpdate counts a dispatched update.
func (m *Metrics) ObserveUpdate(route string) {
	if m == nil {
		return
	}
	m.updates.WithLabelValues(route).Inc()
}

// ObserveHandlerError counts a handler failure.
func (m *Metrics) ObserveHandlerError(route string) {
	if m == nil {
		return
	}
	m.handlerErrors.WithLabelValues(route).Inc()
}

// ObserveAdView counts an ad view outcome.
func (m *Metrics) ObserveAdView(ownerType, outcome string) {
	if m == nil {
		return
	}
	m.adViews.WithLabelValues(ownerType, outcome).Inc()
}

// ObserveLanguageLookup counts a cache hit or miss.
func (m *Metrics) ObserveLanguageLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.languageLookup.WithLabelValues(result).Inc()
}

// ObserveRegistration counts a registration by result (created, existing, error).
func (m *Metrics) ObserveRegistration(ownerType, result string) {
	if m == nil {
		return
	}
	m.registrations.WithLabelValues(ownerType, result).Inc()
}
