// Package metrics provides Prometheus metrics for the Sorrel service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MetadataFetchesTotal tracks metadata fetch operations by status
	MetadataFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sorrel",
			Subsystem: "metadata",
			Name:      "fetches_total",
			Help:      "Total number of metadata fetch operations by status",
		},
		[]string{"status"},
	)

	// MetadataFetchDuration tracks metadata fetch duration in seconds
	MetadataFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "sorrel",
			Subsystem: "metadata",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of metadata fetch operations in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
	)

	// MetadataRunsFetched tracks how many runs each fetch resolved
	MetadataRunsFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "sorrel",
			Subsystem: "metadata",
			Name:      "runs_fetched_total",
			Help:      "Total number of runs with assembled metadata",
		},
	)

	// MetadataRunsMissing tracks run ids the archive omitted
	MetadataRunsMissing = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "sorrel",
			Subsystem: "metadata",
			Name:      "runs_missing_total",
			Help:      "Total number of requested runs absent from archive responses",
		},
	)

	// DownloadsTotal tracks sequence downloads by outcome
	DownloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sorrel",
			Subsystem: "sequences",
			Name:      "downloads_total",
			Help:      "Total number of per-run download outcomes",
		},
		[]string{"outcome"},
	)

	// DownloadDuration tracks whole-batch download duration in seconds
	DownloadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "sorrel",
			Subsystem: "sequences",
			Name:      "download_duration_seconds",
			Help:      "Duration of download batches in seconds",
			Buckets:   []float64{1, 5, 15, 60, 300, 900, 1800, 3600},
		},
	)

	// EntrezRequestsTotal tracks outbound archive requests
	EntrezRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sorrel",
			Subsystem: "entrez",
			Name:      "requests_total",
			Help:      "Total number of outbound archive requests",
		},
		[]string{"endpoint", "status"},
	)
)
