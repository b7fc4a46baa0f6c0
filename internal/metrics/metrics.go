package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Engine operation metrics: a duration histogram, an error counter and an
// attempt counter, each labeled by operation name. They are recorded for
// add/edit/delete/shift/check_shift and the read operations query,
// get_sections, get_section, get_seasons, get_episodes and get_stats; the
// purge operations (purge_check, all_purges, restore, ignore) are not
// recorded here.
var (
	EngineOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marker_engine_operation_duration_seconds",
			Help:    "Duration of marker engine operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	EngineOpErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marker_engine_operation_errors_total",
			Help: "Total marker engine operation errors by kind",
		},
		[]string{"operation", "kind"},
	)

	EngineOpTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marker_engine_operations_total",
			Help: "Total marker engine operations attempted",
		},
		[]string{"operation"},
	)

	// CacheSize tracks the number of parents currently tracked in the
	// marker cache's breakdown index, one gauge per section.
	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "marker_cache_parents",
			Help: "Number of parents tracked in the marker cache per section",
		},
		[]string{"section_id"},
	)

	CacheRebuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "marker_cache_rebuild_duration_seconds",
			Help:    "Duration of a full marker cache rebuild from the library DB",
			Buckets: prometheus.DefBuckets,
		},
	)

	// PurgeCandidates tracks the number of purge candidates currently held
	// in the reconciler's in-memory index.
	PurgeCandidates = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "marker_purge_candidates",
			Help: "Number of purge candidates tracked per section",
		},
		[]string{"section_id"},
	)

	ActionLogAppends = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marker_action_log_appends_total",
			Help: "Total action log entries appended, by op",
		},
		[]string{"op"},
	)
)
