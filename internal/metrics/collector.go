// Package metrics exposes Prometheus metrics for sanitation runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/mmrzaf/datasanitizer/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "sanitizer"

	OutcomeSuccess = "success"
	outcomeUnknown = "error"
)

// Collector records run outcomes. It satisfies sanitation.Observer.
type Collector struct {
	registry *prometheus.Registry

	runsTotal   *prometheus.CounterVec
	rowsDeleted *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	lastSuccess *prometheus.GaugeVec
}

// NewCollector registers the sanitizer metrics on registry, or on a fresh
// private registry when registry is nil.
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{
		registry: registry,
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Sanitation runs by table and outcome.",
		}, []string{"table", "outcome"}),
		rowsDeleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_deleted_total",
			Help:      "Rows deleted after a successful export.",
		}, []string{"table"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a sanitation run.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		}, []string{"table"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}, []string{"table"}),
	}

	registry.MustRegister(c.runsTotal, c.rowsDeleted, c.duration, c.lastSuccess)
	return c
}

func (c *Collector) RunFinished(tableName string, elapsed time.Duration, result *domain.ExecutionResult, err error) {
	c.duration.WithLabelValues(tableName).Observe(elapsed.Seconds())
	if err != nil {
		c.runsTotal.WithLabelValues(tableName, outcome(err)).Inc()
		return
	}
	c.runsTotal.WithLabelValues(tableName, OutcomeSuccess).Inc()
	if result != nil {
		c.rowsDeleted.WithLabelValues(tableName).Add(float64(result.DeletedCount))
	}
	c.lastSuccess.WithLabelValues(tableName).SetToCurrentTime()
}

func outcome(err error) string {
	if kind := domain.KindOf(err); kind != "" {
		return string(kind)
	}
	return outcomeUnknown
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}
