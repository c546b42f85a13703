package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels successful operations.
	OutcomeSuccess = "success"
	// OutcomeError labels failed operations.
	OutcomeError = "error"
)

var (
	queriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cluster_atlas",
			Name:      "queries_total",
			Help:      "Total number of aggregation queries, partitioned by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	queryDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cluster_atlas",
			Name:      "query_seconds",
			Help:      "Aggregation query latency in seconds.",
			Buckets:   []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)

	artifactLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cluster_atlas",
			Name:      "artifact_loads_total",
			Help:      "Artifact loads partitioned by artifact kind, source scheme and outcome.",
		},
		[]string{"artifact", "scheme", "outcome"},
	)

	artifactLoadSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cluster_atlas",
			Name:      "artifact_load_seconds",
			Help:      "Artifact fetch and decode latency in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"artifact"},
	)

	artifactCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cluster_atlas",
			Name:      "artifact_cache_total",
			Help:      "Artifact cache lookups partitioned by layer (memory, redis) and result (hit, miss).",
		},
		[]string{"layer", "result"},
	)

	datasetCases = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "cluster_atlas",
			Name:      "dataset_cases",
			Help:      "Number of case rows in the active dataset snapshot.",
		},
	)

	datasetLoadedTimestamp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "cluster_atlas",
			Name:      "dataset_loaded_timestamp_seconds",
			Help:      "Unix time at which the active dataset snapshot was loaded.",
		},
	)
)

// Register attaches cluster-atlas collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		queriesTotal,
		queryDurationSeconds,
		artifactLoadsTotal,
		artifactLoadSeconds,
		artifactCacheTotal,
		datasetCases,
		datasetLoadedTimestamp,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveQuery records a query duration and outcome label for operation.
func ObserveQuery(operation string, duration time.Duration, outcome string) {
	queriesTotal.WithLabelValues(operation, normaliseOutcome(outcome)).Inc()
	queryDurationSeconds.WithLabelValues(operation).Observe(seconds(duration))
}

// ObserveArtifactLoad records one artifact fetch and decode.
func ObserveArtifactLoad(artifact, scheme string, duration time.Duration, outcome string) {
	artifactLoadsTotal.WithLabelValues(artifact, scheme, normaliseOutcome(outcome)).Inc()
	artifactLoadSeconds.WithLabelValues(artifact).Observe(seconds(duration))
}

// ObserveCache records a cache lookup on layer.
func ObserveCache(layer string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	artifactCacheTotal.WithLabelValues(layer, result).Inc()
}

// SetDataset publishes the size and load time of the active snapshot.
func SetDataset(cases int, loadedAt time.Time) {
	datasetCases.Set(float64(cases))
	datasetLoadedTimestamp.Set(float64(loadedAt.Unix()))
}

func normaliseOutcome(outcome string) string {
	if outcome != OutcomeError {
		return OutcomeSuccess
	}
	return outcome
}

func seconds(d time.Duration) float64 {
	if d < 0 {
		return 0
	}
	return d.Seconds()
}
