// Package metrics provides Prometheus metrics for file tree operations.
package metrics

import (
	"net/http"
	"time"

	"github.com/brettbedarf/filetree"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records tree operation outcomes and sizes. A nil *Collector is
// valid and records nothing.
type Collector struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	directories       prometheus.Gauge
	files             prometheus.Gauge
}

// New registers the tree metrics with reg. Pass prometheus.DefaultRegisterer
// for the process-wide registry or a fresh registry in tests.
func New(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		operationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "filetree_operations_total",
				Help: "Total number of tree operations by outcome",
			},
			[]string{"op", "status"},
		),
		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "filetree_operation_duration_seconds",
				Help:    "Tree operation duration in seconds",
				Buckets: []float64{.000001, .00001, .0001, .001, .01, .1},
			},
			[]string{"op"},
		),
		directories: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "filetree_directories",
				Help: "Number of directories in the tree",
			},
		),
		files: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "filetree_files",
				Help: "Number of files in the tree",
			},
		),
	}
}

// ObserveOp records one call of op and its result
func (c *Collector) ObserveOp(op string, err error) {
	if c == nil {
		return
	}
	c.operationsTotal.WithLabelValues(op, filetree.StatusLabel(err)).Inc()
}

// ObserveDuration records how long op took since start
func (c *Collector) ObserveDuration(op string, start time.Time) {
	if c == nil {
		return
	}
	c.operationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// SetCounts publishes the current tree size
func (c *Collector) SetCounts(dirs, files int) {
	if c == nil {
		return
	}
	c.directories.Set(float64(dirs))
	c.files.Set(float64(files))
}

// Handler returns the HTTP handler exposing the metrics gathered by g
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
