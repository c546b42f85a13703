package engine

import (
	"github.com/paulmach/orb/geojson"

	"github.com/miradorstack/cluster-atlas/internal/geo"
)

// DefaultMetricProperty is the feature property that receives the joined metric.
const DefaultMetricProperty = "metric"

// JoinOptions locates the region code on each feature and names the property to write.
type JoinOptions struct {
	// KeyPath is where each feature carries its region code, e.g. "properties.CVE_ENT" or "id".
	KeyPath string
	// Property receives the metric value.
	Property string
}

func (o JoinOptions) withDefaults() JoinOptions {
	if o.KeyPath == "" {
		o.KeyPath = geo.DefaultKeyPath
	}
	if o.Property == "" {
		o.Property = DefaultMetricProperty
	}
	return o
}

// JoinMetricToGeometry returns a copy of collection where every feature carries the metric
// value of its region, or def when the region is absent from metric or the feature has no
// region code. The input collection is left untouched.
func JoinMetricToGeometry[V any](collection *geojson.FeatureCollection, metric map[string]V, opts JoinOptions, def V) *geojson.FeatureCollection {
	if collection == nil {
		return geojson.NewFeatureCollection()
	}
	opts = opts.withDefaults()
	out := geo.Clone(collection)
	for _, f := range out.Features {
		if f == nil {
			continue
		}
		value := def
		if key, ok := geo.RegionKey(f, opts.KeyPath); ok {
			if v, found := metric[key]; found {
				value = v
			}
		}
		if f.Properties == nil {
			f.Properties = geojson.Properties{}
		}
		f.Properties[opts.Property] = value
	}
	return out
}

// Centroids returns a representative point per region code for point-map rendering.
// Features without a region code or geometry are skipped; for repeated codes the first wins.
func Centroids(collection *geojson.FeatureCollection, keyPath string) map[string][2]float64 {
	out := make(map[string][2]float64)
	if collection == nil {
		return out
	}
	if keyPath == "" {
		keyPath = geo.DefaultKeyPath
	}
	for _, f := range collection.Features {
		key, ok := geo.RegionKey(f, keyPath)
		if !ok {
			continue
		}
		if _, dup := out[key]; dup {
			continue
		}
		if pt, ok := geo.Centroid(f); ok {
			out[key] = [2]float64{pt.X(), pt.Y()}
		}
	}
	return out
}
