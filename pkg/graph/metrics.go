package graph

import "github.com/prometheus/client_golang/prometheus"

var (
	runsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "grflow_runs_total",
		Help: "Total number of flowgraph executions started",
	})
	runDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "grflow_run_duration_seconds",
		Help:    "Wall-clock duration of flowgraph executions",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
	})
	itemsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "grflow_block_items_total",
		Help: "Items delivered by blocks, labelled by block type",
	}, []string{"block"})
)

func init() {
	prometheus.MustRegister(runsTotal, runDuration, itemsTotal)
}

// ObserveItems records items handled by a block type. Sink and limiting
// blocks call it so the counters reflect what actually reached the edge of
// the graph.
func ObserveItems(blockType string, n int) {
	itemsTotal.WithLabelValues(blockType).Add(float64(n))
}
