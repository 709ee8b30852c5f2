package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager holds the service's Prometheus collectors on a private registry.
// A nil *Manager is valid and records nothing.
type Manager struct {
	Registry                *prometheus.Registry
	HTTPRequestsTotal       *prometheus.CounterVec
	HTTPRequestLatency      *prometheus.HistogramVec
	UpstreamRequestsTotal   *prometheus.CounterVec
	ImageGenerationsTotal   *prometheus.CounterVec
	NewsletterSubscriptions prometheus.Counter
}

func NewManager(namespace string) *Manager {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by route and status.",
	}, []string{"method", "route", "status"})

	httpLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Latency of HTTP requests by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	upstream := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_requests_total",
		Help:      "Calls to news and threat-intel providers by source and outcome.",
	}, []string{"source", "outcome"})

	images := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "image_generations_total",
		Help:      "Article image generation attempts by outcome.",
	}, []string{"outcome"})

	subscriptions := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "newsletter_subscriptions_total",
		Help:      "Total number of newsletter subscriptions accepted.",
	})

	registry.MustRegister(
		httpRequests,
		httpLatency,
		upstream,
		images,
		subscriptions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Manager{
		Registry:                registry,
		HTTPRequestsTotal:       httpRequests,
		HTTPRequestLatency:      httpLatency,
		UpstreamRequestsTotal:   upstream,
		ImageGenerationsTotal:   images,
		NewsletterSubscriptions: subscriptions,
	}
}

func (m *Manager) ObserveHTTP(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestLatency.WithLabelValues(method, route).Observe(seconds)
}

func (m *Manager) UpstreamResult(source, outcome string) {
	if m == nil {
		return
	}
	m.UpstreamRequestsTotal.WithLabelValues(source, outcome).Inc()
}

func (m *Manager) ImageResult(outcome string) {
	if m == nil {
		return
	}
	m.ImageGenerationsTotal.WithLabelValues(outcome).Inc()
}

func (m *Manager) NewsletterSubscribed() {
	if m == nil {
		return
	}
	m.NewsletterSubscriptions.Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Manager) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
