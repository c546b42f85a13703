// Package engine computes per-region cluster metrics from a case table and joins them onto
// boundary geometry. Every function is pure: inputs are read-only and results are freshly
// allocated on each call.
package engine

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/miradorstack/cluster-atlas/internal/models"
)

var (
	// ErrMissingColumn is returned when a required column is absent from the case table.
	ErrMissingColumn = errors.New("missing required column")
	// ErrInvalidCluster is returned when a cluster value is not a non-negative integer.
	ErrInvalidCluster = errors.New("invalid cluster value")
)

// RegionCounts holds the number of cases per cluster for one region.
type RegionCounts struct {
	Total    int
	Clusters map[int]int
}

// ClusterCounts groups cases by region and counts every cluster within each region.
func ClusterCounts(cases *models.CaseTable, regionField, clusterField string) (map[string]RegionCounts, error) {
	regions, clusters, err := columns(cases, regionField, clusterField)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]RegionCounts)
	for i, region := range regions {
		rc, ok := counts[region]
		if !ok {
			rc = RegionCounts{Clusters: make(map[int]int)}
		}
		rc.Total++
		rc.Clusters[clusters[i]]++
		counts[region] = rc
	}
	return counts, nil
}

// ComputeClusterShare returns, for every region present in cases, the percentage of its cases
// assigned to selected. Regions where selected never occurs map to exactly 0.
func ComputeClusterShare(cases *models.CaseTable, regionField, clusterField string, selected int) (map[string]float64, error) {
	regions, clusters, err := columns(cases, regionField, clusterField)
	if err != nil {
		return nil, err
	}
	total := make(map[string]int)
	matched := make(map[string]int)
	for i, region := range regions {
		total[region]++
		if clusters[i] == selected {
			matched[region]++
		}
	}
	shares := make(map[string]float64, len(total))
	for region, n := range total {
		shares[region] = float64(matched[region]) / float64(n) * 100
	}
	return shares, nil
}

// ComputeDominantCluster returns the most frequent cluster of every region. When several
// clusters share the highest count the smallest cluster id wins, whatever the row order.
func ComputeDominantCluster(cases *models.CaseTable, regionField, clusterField string) (map[string]int, error) {
	counts, err := ClusterCounts(cases, regionField, clusterField)
	if err != nil {
		return nil, err
	}
	dominant := make(map[string]int, len(counts))
	for region, rc := range counts {
		best, bestCount := -1, -1
		for id, n := range rc.Clusters {
			if n > bestCount || (n == bestCount && id < best) {
				best, bestCount = id, n
			}
		}
		dominant[region] = best
	}
	return dominant, nil
}

// DistributionForRegion returns the percentage share of every cluster present in region,
// ordered by cluster id. A region without rows yields an empty, non-nil slice.
func DistributionForRegion(cases *models.CaseTable, regionField, clusterField, region string) ([]models.ClusterShare, error) {
	regions, clusters, err := columns(cases, regionField, clusterField)
	if err != nil {
		return nil, err
	}
	counts := make(map[int]int)
	total := 0
	for i, r := range regions {
		if r != region {
			continue
		}
		counts[clusters[i]]++
		total++
	}
	out := make([]models.ClusterShare, 0, len(counts))
	if total == 0 {
		return out, nil
	}
	for id, n := range counts {
		out = append(out, models.ClusterShare{ClusterID: id, Percentage: float64(n) / float64(total) * 100})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClusterID < out[j].ClusterID })
	return out, nil
}

// RegionCodes returns the sorted unique region codes present in cases.
func RegionCodes(cases *models.CaseTable, regionField string) ([]string, error) {
	regions, ok := cases.Column(regionField)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, regionField)
	}
	seen := make(map[string]struct{})
	codes := make([]string, 0)
	for _, r := range regions {
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		codes = append(codes, r)
	}
	sort.Strings(codes)
	return codes, nil
}

// ValidateColumns checks that both required columns are present and every cluster value parses.
func ValidateColumns(cases *models.CaseTable, regionField, clusterField string) error {
	_, _, err := columns(cases, regionField, clusterField)
	return err
}

func columns(cases *models.CaseTable, regionField, clusterField string) ([]string, []int, error) {
	regions, ok := cases.Column(regionField)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrMissingColumn, regionField)
	}
	raw, ok := cases.Column(clusterField)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrMissingColumn, clusterField)
	}
	clusters := make([]int, len(raw))
	for i, v := range raw {
		id, err := parseClusterID(v)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: row %d: %q", ErrInvalidCluster, i, v)
		}
		clusters[i] = id
	}
	return regions, clusters, nil
}

// parseClusterID accepts integer renderings, including integral floats such as "2.0" that
// columnar exports produce for nullable integer columns.
func parseClusterID(v string) (int, error) {
	v = strings.TrimSpace(v)
	if id, err := strconv.Atoi(v); err == nil {
		if id < 0 {
			return 0, ErrInvalidCluster
		}
		return id, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, ErrInvalidCluster
	}
	return int(f), nil
}
