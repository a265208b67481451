package infrastructure

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus registry and domain counters.
type Metrics struct {
	Registry *prometheus.Registry

	// ResultsClassified counts recorded measurements by verdict label.
	ResultsClassified *prometheus.CounterVec
	// CertificatesApproved counts report number issuances.
	CertificatesApproved prometheus.Counter
}

// NewMetrics creates a registry with runtime collectors and domain counters.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	classified := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "laudo",
		Name:      "results_classified_total",
		Help:      "Measurements recorded and classified, by verdict.",
	}, []string{"verdict"})

	approved := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "laudo",
		Name:      "certificates_approved_total",
		Help:      "Certificates approved and assigned a report number.",
	})

	registry.MustRegister(classified, approved)

	return &Metrics{
		Registry:             registry,
		ResultsClassified:    classified,
		CertificatesApproved: approved,
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
