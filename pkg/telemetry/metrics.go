package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nexus_requests_recorded_total",
		Help: "Inbound requests recorded in the usage log",
	}, []string{"endpoint", "status", "platform"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nexus_request_duration_seconds",
		Help:    "Inbound request duration as recorded in the usage log",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	logEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nexus_usage_log_entries",
		Help: "Current number of entries held in the usage log",
	})
)
