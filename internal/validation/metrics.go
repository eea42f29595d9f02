package validation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	validationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crosscheck_validations_total",
		Help: "Matrices processed, by operation and outcome (pass, fail, error).",
	}, []string{"operation", "outcome"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crosscheck_errors_total",
		Help: "Rejected matrices by error kind.",
	}, []string{"kind"})

	engineIterations = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "crosscheck_engine_iterations",
		Help:    "Iterations used by the priority engine per matrix.",
		Buckets: []float64{1, 2, 5, 10, 20, 50, 100, 250, 1000},
	}, []string{"engine"})

	maxDeltaObserved = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "crosscheck_max_delta",
		Help:    "Largest absolute delta between claimed and reference values per matrix.",
		Buckets: prometheus.ExponentialBuckets(1e-6, 10, 7),
	})

	oracleAvailable = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crosscheck_oracle_available",
		Help: "1 when the reference engine passed its self-check.",
	})
)

const (
	outcomePass  = "pass"
	outcomeFail  = "fail"
	outcomeError = "error"
)
