package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterIsIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := Register(reg); err != nil {
		t.Fatalf("second register: %v", err)
	}
}

func TestObserveQueryNormalisesOutcome(t *testing.T) {
	before := testutil.ToFloat64(queriesTotal.WithLabelValues("share", OutcomeSuccess))
	ObserveQuery("share", 3*time.Millisecond, "weird")
	ObserveQuery("share", -time.Second, OutcomeSuccess)
	if got := testutil.ToFloat64(queriesTotal.WithLabelValues("share", OutcomeSuccess)); got != before+2 {
		t.Fatalf("expected two successes, got %v", got-before)
	}
}

func TestObserveCacheAndDataset(t *testing.T) {
	before := testutil.ToFloat64(artifactCacheTotal.WithLabelValues("memory", "hit"))
	ObserveCache("memory", true)
	if got := testutil.ToFloat64(artifactCacheTotal.WithLabelValues("memory", "hit")); got != before+1 {
		t.Fatalf("expected hit counted")
	}
	SetDataset(42, time.Unix(100, 0))
	if testutil.ToFloat64(datasetCases) != 42 || testutil.ToFloat64(datasetLoadedTimestamp) != 100 {
		t.Fatalf("dataset gauges not set")
	}
}
