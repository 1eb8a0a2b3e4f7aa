package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	TablesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "grammarsym_tables_created_total",
		Help: "Total number of symbol tables created.",
	})

	TableClears = promauto.NewCounter(prometheus.CounterOpts{
		Name: "grammarsym_table_clears_total",
		Help: "Total number of symbol table clears.",
	})

	DependencyNotifications = promauto.NewCounter(prometheus.CounterOpts{
		Name: "grammarsym_dependency_notifications_total",
		Help: "Total number of owner notifications issued while clearing tables.",
	})

	SymbolLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "grammarsym_symbol_lookups_total",
		Help: "Kind- and group-directed symbol lookups by outcome.",
	}, []string{"outcome"})

	DependencyResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "grammarsym_dependency_resolutions_total",
		Help: "Cross-file resolutions against direct dependencies by outcome.",
	}, []string{"outcome"})

	ActionListDegraded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "grammarsym_action_list_degraded_total",
		Help: "Action listings that fell back to a single internal-error entry.",
	})

	QueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "grammarsym_query_seconds",
		Help:    "Time spent answering a symbol query.",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	BuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "grammarsym_build_seconds",
		Help:    "Time spent building one grammar's symbol table.",
		Buckets: prometheus.DefBuckets,
	})

	ContextNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "grammarsym_context_nodes",
		Help: "Registered grammar source contexts.",
	})

	ContextEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "grammarsym_context_edges",
		Help: "Dependency edges between grammar source contexts.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "grammarsym_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})
)

const (
	OutcomeHit  = "hit"
	OutcomeMiss = "miss"
)

// Outcome maps a found/not-found result onto the label value used above.
func Outcome(found bool) string {
	if found {
		return OutcomeHit
	}
	return OutcomeMiss
}
