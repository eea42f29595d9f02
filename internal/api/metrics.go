package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "crosscheck_http_request_duration_seconds",
	Help:    "HTTP request latency by route",
	Buckets: prometheus.DefBuckets,
}, []string{"method", "route", "status"})
