package rainbow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tablesBuilt = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rainbow",
		Name:      "tables_built_total",
		Help:      "Number of chain tables precomputed.",
	})

	trialsRun = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rainbow",
		Name:      "trials_total",
		Help:      "Number of targets the harness tried to invert.",
	})

	preimagesFound = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rainbow",
		Name:      "preimages_found_total",
		Help:      "Number of targets inverted with a verified preimage.",
	})

	falsePositives = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rainbow",
		Name:      "false_positives_total",
		Help:      "Number of chain end matches whose replay did not reach the target.",
	})

	searchCost = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "rainbow",
		Name:      "search_probes",
		Help:      "Binary search probes spent per trial.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 16),
	})
)
