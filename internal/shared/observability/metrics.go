package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ExtractionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "crossref_extraction_seconds",
		Help:    "Time spent extracting symbols from a source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})

	FilesProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crossref_files_processed_total",
		Help: "Total number of files processed, by outcome.",
	}, []string{"outcome"})

	DefinitionsIndexed = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crossref_definitions_indexed",
		Help: "Number of definitions in the current symbol index.",
	})

	GraphEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crossref_graph_edges_total",
		Help: "Total number of edges in the current call graph.",
	})

	GraphEdgesUnresolved = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crossref_graph_edges_unresolved",
		Help: "Number of call graph edges that could not be resolved to a definition.",
	})

	PhaseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "crossref_phase_seconds",
		Help:    "Time spent in each pipeline phase.",
		Buckets: prometheus.DefBuckets,
	}, []string{"phase"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crossref_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	RebuildsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crossref_rebuilds_total",
		Help: "Total number of full graph rebuilds triggered.",
	})
)
