package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/bcnelson/pricing-catalog/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the service's Prometheus metrics. It implements
// catalog.Recorder so the catalog store can report into it directly.
type Collector struct {
	gatherer prometheus.Gatherer

	CatalogOperations *prometheus.CounterVec
	PersistDurations  *prometheus.HistogramVec
	TreeSize          *prometheus.GaugeVec

	HTTPRequests  *prometheus.CounterVec
	HTTPDurations *prometheus.HistogramVec
}

// New registers the metrics against reg, defaulting to the global registry
// when nil. Registering twice against the same registry reuses the existing
// collectors.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	ops, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_catalog_operations_total",
		Help: "Catalog operations, labeled by operation and result.",
	}, []string{"op", "result"}), "pricing_catalog_operations_total")
	if err != nil {
		return nil, err
	}

	persist, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pricing_catalog_persist_duration_seconds",
		Help:    "Latency of persistence gateway calls in seconds.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"op", "result"}), "pricing_catalog_persist_duration_seconds")
	if err != nil {
		return nil, err
	}

	size, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pricing_catalog_nodes",
		Help: "Current number of nodes in the catalog tree, labeled by level.",
	}, []string{"level"}), "pricing_catalog_nodes")
	if err != nil {
		return nil, err
	}

	requests, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_catalog_http_requests_total",
		Help: "HTTP requests, labeled by method, route and status code.",
	}, []string{"method", "route", "code"}), "pricing_catalog_http_requests_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pricing_catalog_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"}), "pricing_catalog_http_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:          gatherer,
		CatalogOperations: ops,
		PersistDurations:  persist,
		TreeSize:          size,
		HTTPRequests:      requests,
		HTTPDurations:     durations,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveOperation counts one catalog operation outcome.
func (c *Collector) ObserveOperation(op, result string) {
	if c == nil {
		return
	}
	c.CatalogOperations.WithLabelValues(op, result).Inc()
}

// ObservePersist records the latency of a gateway call.
func (c *Collector) ObservePersist(op string, d time.Duration, err error) {
	if c == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	c.PersistDurations.WithLabelValues(op, result).Observe(d.Seconds())
}

// SetTreeSize updates the tree size gauges.
func (c *Collector) SetTreeSize(stats domain.CatalogStats) {
	if c == nil {
		return
	}
	c.TreeSize.WithLabelValues("region").Set(float64(stats.Regions))
	c.TreeSize.WithLabelValues("country").Set(float64(stats.Countries))
	c.TreeSize.WithLabelValues("service").Set(float64(stats.Services))
}

// ObserveHTTP records one served HTTP request.
func (c *Collector) ObserveHTTP(method, route string, code int, d time.Duration) {
	if c == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	c.HTTPRequests.WithLabelValues(method, route, fmt.Sprintf("%d", code)).Inc()
	c.HTTPDurations.WithLabelValues(method, route).Observe(d.Seconds())
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
