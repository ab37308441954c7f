// Package observability records Prometheus metrics for outgoing API requests
// and writes them in the node-exporter textfile format.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LLMBuckets covers latencies from 100ms to two minutes.
var LLMBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

// Metrics holds the collectors of one CLI run. Each instance owns its
// registry so several clients never collide on registration.
type Metrics struct {
	Registry *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	InFlight         prometheus.Gauge
	ConnectionsBuilt prometheus.Counter
}

// New creates and registers the collectors. apiType is attached to every
// series as a constant label.
func New(apiType string) *Metrics {
	labels := prometheus.Labels{"api_type": apiType}
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "oai_requests_total",
				Help:        "Requests sent to the API",
				ConstLabels: labels,
			},
			[]string{"method", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "oai_request_duration_seconds",
				Help:        "Time until response headers arrived",
				Buckets:     LLMBuckets,
				ConstLabels: labels,
			},
			[]string{"method"},
		),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "oai_requests_in_flight",
			Help:        "Requests awaiting response headers",
			ConstLabels: labels,
		}),
		ConnectionsBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "oai_connections_built_total",
			Help:        "Connections created by the client",
			ConstLabels: labels,
		}),
	}
	m.Registry.MustRegister(m.RequestsTotal, m.RequestDuration, m.InFlight, m.ConnectionsBuilt)
	return m
}

// Extend instruments conn. Its signature matches api.ConnectionExtension.
func (m *Metrics) Extend(conn *http.Client) {
	m.ConnectionsBuilt.Inc()
	conn.Transport = &Transport{Base: conn.Transport, Metrics: m}
}

// WriteFile writes every gathered series to path atomically.
func (m *Metrics) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}

// Transport counts and times round trips.
type Transport struct {
	Base    http.RoundTripper
	Metrics *Metrics
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	t.Metrics.InFlight.Inc()
	defer t.Metrics.InFlight.Dec()

	start := time.Now()
	resp, err := base.RoundTrip(req)
	t.Metrics.RequestDuration.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())

	status := "error"
	if err == nil {
		status = strconv.Itoa(resp.StatusCode/100) + "xx"
	}
	t.Metrics.RequestsTotal.WithLabelValues(req.Method, status).Inc()
	return resp, err
}
