package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	GraphNodes = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "hyperbase_graph_nodes_total",
		Help: "Number of nodes currently held in memory, per namespace.",
	}, []string{"namespace"})

	GraphEdges = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "hyperbase_graph_edges_total",
		Help: "Number of hyperedges currently held in memory, per namespace.",
	}, []string{"namespace"})

	FlushesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hyperbase_flushes_total",
		Help: "Total number of namespace flushes to SQLite.",
	})

	FlushErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hyperbase_flush_errors_total",
		Help: "Total number of failed namespace flushes.",
	})

	FlushLatencySeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hyperbase_flush_seconds",
		Help:    "Latency of persisting one namespace to SQLite.",
		Buckets: prometheus.DefBuckets,
	})

	OperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hyperbase_operation_seconds",
		Help:    "Time spent executing engine operations.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	ToolCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hyperbase_tool_calls_total",
		Help: "Total MCP tool invocations, per tool and outcome.",
	}, []string{"tool", "outcome"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hyperbase_watcher_events_total",
		Help: "Total number of file system events received by the database watcher.",
	})
)
