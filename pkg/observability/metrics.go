package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds all Prometheus metrics for the application. Each collector
// owns its registry so tests can construct them freely.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Lineage metrics
	NodesCreated     prometheus.Counter
	BuffersOpen      prometheus.Gauge
	OperatorRuns     *prometheus.CounterVec
	OperatorDuration *prometheus.HistogramVec
}

// NewCollector creates a metrics collector with the given namespace
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	nodesCreated := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "content_nodes_created_total",
			Help:      "Total number of content nodes committed to the graph",
		},
	)

	buffersOpen := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "buffers_open",
			Help:      "Number of currently open buffers",
		},
	)

	operatorRuns := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operator_runs_total",
			Help:      "Total number of operator and pipeline applications",
		},
		[]string{"operator", "status"},
	)

	operatorDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operator_duration_seconds",
			Help:      "Operator and pipeline application duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operator"},
	)

	registry.MustRegister(httpRequests, httpDuration, nodesCreated, buffersOpen, operatorRuns, operatorDuration)

	return &Collector{
		registry:         registry,
		HTTPRequests:     httpRequests,
		HTTPDuration:     httpDuration,
		NodesCreated:     nodesCreated,
		BuffersOpen:      buffersOpen,
		OperatorRuns:     operatorRuns,
		OperatorDuration: operatorDuration,
	}
}

// Registry returns the collector's registry for exposition
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveOperator records one operator or pipeline run
func (c *Collector) ObserveOperator(operator, status string, elapsed time.Duration) {
	c.OperatorRuns.WithLabelValues(operator, status).Inc()
	c.OperatorDuration.WithLabelValues(operator).Observe(elapsed.Seconds())
}

// ObserveHTTP records one handled request
func (c *Collector) ObserveHTTP(method, route, status string, elapsed time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, status).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
