package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// bias-correction and downscaling services.
type Metrics struct {
	RegionsWritten   prometheus.Counter
	StoresPrimed     prometheus.Counter
	CellsAdjusted    prometheus.Counter
	TrainingWindows  prometheus.Counter
	ValidationErrors prometheus.Counter
	ServiceRunning   prometheus.Gauge

	// Per-service wall-clock durations, labeled by service name.
	ServiceDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RegionsWritten,
		m.StoresPrimed,
		m.CellsAdjusted,
		m.TrainingWindows,
		m.ValidationErrors,
		m.ServiceRunning,
		m.ServiceDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RegionsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dodola",
			Name:      "regions_written_total",
			Help:      "Total chunk-aligned regions written to output stores.",
		}),
		StoresPrimed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dodola",
			Name:      "stores_primed_total",
			Help:      "Total output stores primed for regional writing.",
		}),
		CellsAdjusted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dodola",
			Name:      "cells_adjusted_total",
			Help:      "Total grid cells processed by an adjustment engine.",
		}),
		TrainingWindows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dodola",
			Name:      "training_windows_total",
			Help:      "Total day-of-year windows fitted during training.",
		}),
		ValidationErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dodola",
			Name:      "validation_errors_total",
			Help:      "Total datasets that failed validation.",
		}),
		ServiceRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dodola",
			Name:      "service_running",
			Help:      "1 while a service call is active, 0 otherwise.",
		}),
		ServiceDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dodola",
			Name:      "service_duration_seconds",
			Help:      "Wall-clock duration of service calls.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 1800, 7200},
		}, []string{"service"}),
	}
}
