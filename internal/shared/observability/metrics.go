package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cilscan_parsing_seconds",
		Help:    "Time spent scanning a disassembly listing.",
		Buckets: prometheus.DefBuckets,
	})

	FilesParsedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cilscan_files_parsed_total",
		Help: "Total number of listings scanned successfully.",
	})

	ParseFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cilscan_parse_failures_total",
		Help: "Total number of listings rejected, by error code.",
	}, []string{"code"})

	TypesDeclared = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cilscan_types_declared",
		Help: "Number of types in the most recent scan.",
	})

	ScanDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cilscan_scan_seconds",
		Help:    "Time spent on a full or incremental scan.",
		Buckets: prometheus.DefBuckets,
	}, []string{"mode"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cilscan_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})
)
