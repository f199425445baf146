package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the WBGT
// pipeline.
type Metrics struct {
	GridsConsumed   prometheus.Counter
	ProductsWritten prometheus.Counter
	TransformErrors prometheus.Counter
	PipelineRunning prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Solver metrics.
	GridSolveDuration prometheus.Histogram
	CellsSolved       *prometheus.CounterVec // labels: outcome={converged,best_effort,degenerate,missing}
	SolverIterations  prometheus.Histogram
	ProductCache      *prometheus.CounterVec // labels: result={hit,miss}
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.GridsConsumed,
		m.ProductsWritten,
		m.TransformErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.GridSolveDuration,
		m.CellsSolved,
		m.SolverIterations,
		m.ProductCache,
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
		GridsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wbgt_etl",
			Name:      "grids_consumed_total",
			Help:      "Total grid messages read from the source topic.",
		}),
		ProductsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wbgt_etl",
			Name:      "products_written_total",
			Help:      "Total WBGT products written to the sink topic.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wbgt_etl",
			Name:      "transform_errors_total",
			Help:      "Total transformation failures (malformed or misaligned grids).",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wbgt_etl",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "wbgt_etl",
			Name:      "batch_size",
			Help:      "Number of grid messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 2, 5, 10, 20, 30, 50},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "wbgt_etl",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-transform-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		GridSolveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "wbgt_etl",
			Name:      "grid_solve_duration_seconds",
			Help:      "Duration of one grid's WBGT computation.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		CellsSolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wbgt_etl",
			Name:      "cells_solved_total",
			Help:      "Globe solver cell outcomes by result.",
		}, []string{"outcome"}),
		SolverIterations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "wbgt_etl",
			Name:      "solver_iterations_max",
			Help:      "Highest Newton iteration count observed per grid.",
			Buckets:   []float64{1, 2, 4, 8, 12, 16, 20, 50, 100},
		}),
		ProductCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wbgt_etl",
			Name:      "product_cache_total",
			Help:      "Product cache lookups by result.",
		}, []string{"result"}),
	}
}
