package models

import "time"

// MetricMode selects the per-region metric computed for a choropleth.
type MetricMode string

const (
	// MetricShare is the percentage share of one selected cluster.
	MetricShare MetricMode = "share"
	// MetricDominant is the most frequent cluster per region.
	MetricDominant MetricMode = "dominant"
)

// ShareRequest asks for the percentage share of a cluster in every region.
type ShareRequest struct {
	// ClusterID is nil when the caller relies on the configured highlight cluster.
	ClusterID *int
}

// ChoroplethRequest asks for geometry joined with a per-region metric.
type ChoroplethRequest struct {
	Mode      MetricMode
	ClusterID *int
}

// RegionValue is one region's metric ready for color encoding.
type RegionValue struct {
	Code  string  `json:"code"`
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Label string  `json:"label,omitempty"`
}

// ShareResult lists the share of ClusterID across regions, sorted by region code.
type ShareResult struct {
	ClusterID    int           `json:"cluster_id"`
	ClusterLabel string        `json:"cluster_label"`
	Regions      []RegionValue `json:"regions"`
}

// DominantResult lists the dominant cluster of every region, sorted by region code.
type DominantResult struct {
	Regions []RegionValue `json:"regions"`
}

// DistributionResult is the cluster breakdown of one region.
type DistributionResult struct {
	Region Region         `json:"region"`
	Total  int            `json:"total"`
	Shares []ClusterShare `json:"shares"`
}

// DatasetInfo summarises the loaded snapshot.
type DatasetInfo struct {
	Cases    int       `json:"cases"`
	Regions  int       `json:"regions"`
	Features int       `json:"features"`
	Clusters int       `json:"clusters"`
	LoadedAt time.Time `json:"loaded_at"`
}
