package engine

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/miradorstack/cluster-atlas/internal/models"
)

const (
	regionField  = "ent_resid"
	clusterField = "cluster"
)

func buildCases(t *testing.T, rows [][2]string) *models.CaseTable {
	t.Helper()
	b, err := models.NewCaseTableBuilder([]string{regionField, clusterField})
	if err != nil {
		t.Fatalf("builder: %v", err)
	}
	for _, r := range rows {
		if err := b.Append([]string{r[0], r[1]}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	return b.Build()
}

func scenarioCases(t *testing.T) *models.CaseTable {
	return buildCases(t, [][2]string{{"01", "0"}, {"01", "0"}, {"01", "2"}})
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestComputeClusterShareSingleRegion(t *testing.T) {
	shares, err := ComputeClusterShare(scenarioCases(t), regionField, clusterField, 2)
	if err != nil {
		t.Fatalf("share: %v", err)
	}
	if len(shares) != 1 {
		t.Fatalf("expected one region, got %v", shares)
	}
	if !almostEqual(shares["01"], 100.0/3) {
		t.Fatalf("expected 33.33, got %f", shares["01"])
	}
}

func TestComputeClusterShareAbsentClusterIsZero(t *testing.T) {
	cases := buildCases(t, [][2]string{{"01", "0"}, {"02", "1"}, {"02", "3"}})
	shares, err := ComputeClusterShare(cases, regionField, clusterField, 3)
	if err != nil {
		t.Fatalf("share: %v", err)
	}
	v, ok := shares["01"]
	if !ok {
		t.Fatalf("region without selected cluster must be present")
	}
	if v != 0 {
		t.Fatalf("expected exactly 0, got %f", v)
	}
	if !almostEqual(shares["02"], 50) {
		t.Fatalf("expected 50, got %f", shares["02"])
	}
}

func TestComputeDominantClusterMajority(t *testing.T) {
	dominant, err := ComputeDominantCluster(scenarioCases(t), regionField, clusterField)
	if err != nil {
		t.Fatalf("dominant: %v", err)
	}
	if dominant["01"] != 0 {
		t.Fatalf("expected cluster 0, got %d", dominant["01"])
	}
}

func TestComputeDominantClusterTieBreaksOnSmallestID(t *testing.T) {
	orders := [][][2]string{
		{{"05", "3"}, {"05", "1"}, {"05", "3"}, {"05", "1"}, {"05", "2"}},
		{{"05", "1"}, {"05", "3"}, {"05", "2"}, {"05", "1"}, {"05", "3"}},
		{{"05", "2"}, {"05", "3"}, {"05", "3"}, {"05", "1"}, {"05", "1"}},
	}
	for i, rows := range orders {
		dominant, err := ComputeDominantCluster(buildCases(t, rows), regionField, clusterField)
		if err != nil {
			t.Fatalf("order %d: %v", i, err)
		}
		if dominant["05"] != 1 {
			t.Fatalf("order %d: expected tie to resolve to 1, got %d", i, dominant["05"])
		}
	}
}

func TestDominantClusterHasMaximumCount(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	rows := make([][2]string, 0, 600)
	regionCodes := []string{"01", "02", "03", "04", "05", "06"}
	clusterIDs := []string{"0", "1", "2", "3"}
	for i := 0; i < 600; i++ {
		rows = append(rows, [2]string{regionCodes[rng.Intn(len(regionCodes))], clusterIDs[rng.Intn(len(clusterIDs))]})
	}
	cases := buildCases(t, rows)

	dominant, err := ComputeDominantCluster(cases, regionField, clusterField)
	if err != nil {
		t.Fatalf("dominant: %v", err)
	}
	counts, err := ClusterCounts(cases, regionField, clusterField)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	for region, chosen := range dominant {
		for id, n := range counts[region].Clusters {
			if counts[region].Clusters[chosen] < n {
				t.Fatalf("region %s: chosen %d has %d cases, cluster %d has %d", region, chosen, counts[region].Clusters[chosen], id, n)
			}
		}
	}
}

func TestMatchedCountsSumToTotal(t *testing.T) {
	cases := buildCases(t, [][2]string{
		{"01", "0"}, {"01", "1"}, {"01", "1"}, {"02", "3"}, {"02", "2"}, {"03", "0"},
	})
	counts, err := ClusterCounts(cases, regionField, clusterField)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	for region, rc := range counts {
		shareSum := 0.0
		matchedSum := 0
		for _, id := range []int{0, 1, 2, 3} {
			matchedSum += rc.Clusters[id]
			shares, err := ComputeClusterShare(cases, regionField, clusterField, id)
			if err != nil {
				t.Fatalf("share: %v", err)
			}
			shareSum += shares[region]
		}
		if matchedSum != rc.Total {
			t.Fatalf("region %s: matched %d != total %d", region, matchedSum, rc.Total)
		}
		if !almostEqual(shareSum, 100) {
			t.Fatalf("region %s: shares sum to %f", region, shareSum)
		}
	}
}

func TestDistributionForRegionOrderedByCluster(t *testing.T) {
	dist, err := DistributionForRegion(scenarioCases(t), regionField, clusterField, "01")
	if err != nil {
		t.Fatalf("distribution: %v", err)
	}
	if len(dist) != 2 {
		t.Fatalf("expected two entries, got %+v", dist)
	}
	if dist[0].ClusterID != 0 || !almostEqual(dist[0].Percentage, 200.0/3) {
		t.Fatalf("unexpected first entry %+v", dist[0])
	}
	if dist[1].ClusterID != 2 || !almostEqual(dist[1].Percentage, 100.0/3) {
		t.Fatalf("unexpected second entry %+v", dist[1])
	}
}

func TestDistributionSumsToHundred(t *testing.T) {
	cases := buildCases(t, [][2]string{
		{"07", "3"}, {"07", "0"}, {"07", "1"}, {"07", "1"}, {"07", "2"}, {"07", "2"}, {"07", "2"},
	})
	dist, err := DistributionForRegion(cases, regionField, clusterField, "07")
	if err != nil {
		t.Fatalf("distribution: %v", err)
	}
	sum := 0.0
	for i, s := range dist {
		sum += s.Percentage
		if i > 0 && dist[i-1].ClusterID >= s.ClusterID {
			t.Fatalf("distribution not sorted: %+v", dist)
		}
	}
	if !almostEqual(sum, 100) {
		t.Fatalf("expected 100, got %f", sum)
	}
}

func TestDistributionForUnknownRegionIsEmpty(t *testing.T) {
	dist, err := DistributionForRegion(scenarioCases(t), regionField, clusterField, "31")
	if err != nil {
		t.Fatalf("distribution: %v", err)
	}
	if dist == nil || len(dist) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", dist)
	}
}

// Region codes are opaque to the engine: loaders pad them before the table is built.
func TestUnpaddedRegionCodeIsNotNormalized(t *testing.T) {
	cases := buildCases(t, [][2]string{{"1", "2"}, {"01", "2"}})
	shares, err := ComputeClusterShare(cases, regionField, clusterField, 2)
	if err != nil {
		t.Fatalf("share: %v", err)
	}
	if len(shares) != 2 {
		t.Fatalf("expected \"1\" and \"01\" to stay distinct, got %v", shares)
	}
}

func TestMissingColumn(t *testing.T) {
	cases := scenarioCases(t)
	if _, err := ComputeClusterShare(cases, "estado", clusterField, 2); !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
	if _, err := ComputeDominantCluster(cases, regionField, "k"); !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
	if _, err := DistributionForRegion(cases, "estado", clusterField, "01"); !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
	if _, err := RegionCodes(cases, "estado"); !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
}

func TestInvalidClusterValue(t *testing.T) {
	cases := buildCases(t, [][2]string{{"01", "x"}})
	if err := ValidateColumns(cases, regionField, clusterField); !errors.Is(err, ErrInvalidCluster) {
		t.Fatalf("expected ErrInvalidCluster, got %v", err)
	}
	negative := buildCases(t, [][2]string{{"01", "-1"}})
	if _, err := ComputeClusterShare(negative, regionField, clusterField, 0); !errors.Is(err, ErrInvalidCluster) {
		t.Fatalf("expected ErrInvalidCluster, got %v", err)
	}
}

func TestIntegralFloatClusterValues(t *testing.T) {
	cases := buildCases(t, [][2]string{{"01", "2.0"}, {"01", "2"}, {"01", "1.0"}})
	dominant, err := ComputeDominantCluster(cases, regionField, clusterField)
	if err != nil {
		t.Fatalf("dominant: %v", err)
	}
	if dominant["01"] != 2 {
		t.Fatalf("expected 2, got %d", dominant["01"])
	}
	if _, err := ComputeDominantCluster(buildCases(t, [][2]string{{"01", "2.5"}}), regionField, clusterField); err == nil {
		t.Fatalf("expected error for fractional cluster")
	}
}

func TestRegionCodesSortedUnique(t *testing.T) {
	cases := buildCases(t, [][2]string{{"09", "0"}, {"01", "0"}, {"09", "1"}, {"15", "2"}})
	codes, err := RegionCodes(cases, regionField)
	if err != nil {
		t.Fatalf("codes: %v", err)
	}
	want := []string{"01", "09", "15"}
	if len(codes) != len(want) {
		t.Fatalf("unexpected codes %v", codes)
	}
	for i := range want {
		if codes[i] != want[i] {
			t.Fatalf("unexpected codes %v", codes)
		}
	}
}
