// Package geo holds the GeoJSON boundary handling used by the choropleth join: decoding,
// region key lookup at a property path, deep copies and representative points.
package geo

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// DefaultKeyPath is where Mexican INEGI boundary files carry the entity code.
const DefaultKeyPath = "properties.CVE_ENT"

// Decode parses a FeatureCollection or a single Feature into a FeatureCollection.
func Decode(data []byte) (*geojson.FeatureCollection, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}
	switch strings.ToLower(head.Type) {
	case "featurecollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, fmt.Errorf("decode feature collection: %w", err)
		}
		return fc, nil
	case "feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, fmt.Errorf("decode feature: %w", err)
		}
		fc := geojson.NewFeatureCollection()
		fc.Append(f)
		return fc, nil
	default:
		return nil, fmt.Errorf("unsupported geojson type %q", head.Type)
	}
}

// RegionKey reads the region code of f at keyPath. Supported paths are "id" and
// "properties.<name>[.<name>...]". Numbers are rendered without a fractional part when integral.
func RegionKey(f *geojson.Feature, keyPath string) (string, bool) {
	if f == nil {
		return "", false
	}
	parts := splitPath(keyPath)
	if len(parts) == 0 {
		return "", false
	}
	if parts[0] == "id" && len(parts) == 1 {
		return stringify(f.ID)
	}
	if parts[0] != "properties" || len(parts) < 2 {
		return "", false
	}
	var cur any = map[string]any(f.Properties)
	for _, p := range parts[1:] {
		m, ok := cur.(map[string]any)
		if !ok {
			return "", false
		}
		cur, ok = m[p]
		if !ok {
			return "", false
		}
	}
	return stringify(cur)
}

// NormalizeKeys rewrites the region key of every feature with fn. It mutates fc and is meant
// for freshly decoded collections owned by the caller.
func NormalizeKeys(fc *geojson.FeatureCollection, keyPath string, fn func(string) string) {
	if fc == nil || fn == nil {
		return
	}
	parts := splitPath(keyPath)
	for _, f := range fc.Features {
		key, ok := RegionKey(f, keyPath)
		if !ok {
			continue
		}
		normalized := fn(key)
		if len(parts) == 1 && parts[0] == "id" {
			f.ID = normalized
			continue
		}
		setProperty(f, parts[1:], normalized)
	}
}

// Clone deep-copies fc: features, properties (including nested maps and slices), bounding
// boxes and geometry.
func Clone(fc *geojson.FeatureCollection) *geojson.FeatureCollection {
	if fc == nil {
		return nil
	}
	out := *fc
	out.BBox = cloneBBox(fc.BBox)
	out.ExtraMembers = cloneProperties(fc.ExtraMembers)
	out.Features = make([]*geojson.Feature, 0, len(fc.Features))
	for _, f := range fc.Features {
		out.Features = append(out.Features, CloneFeature(f))
	}
	return &out
}

// CloneFeature deep-copies one feature.
func CloneFeature(f *geojson.Feature) *geojson.Feature {
	if f == nil {
		return nil
	}
	nf := *f
	nf.BBox = cloneBBox(f.BBox)
	nf.Properties = cloneProperties(f.Properties)
	if f.Geometry != nil {
		nf.Geometry = orb.Clone(f.Geometry)
	}
	return &nf
}

// Centroid returns an area-weighted representative point of the feature geometry.
func Centroid(f *geojson.Feature) (orb.Point, bool) {
	if f == nil || f.Geometry == nil {
		return orb.Point{}, false
	}
	switch g := f.Geometry.(type) {
	case orb.Polygon, orb.MultiPolygon, orb.Ring:
		pt, area := planar.CentroidArea(g)
		if area == 0 {
			return g.Bound().Center(), true
		}
		return pt, true
	case orb.Point:
		return g, true
	default:
		return f.Geometry.Bound().Center(), true
	}
}

func splitPath(keyPath string) []string {
	keyPath = strings.TrimSpace(keyPath)
	if keyPath == "" {
		return nil
	}
	return strings.Split(keyPath, ".")
}

func setProperty(f *geojson.Feature, path []string, value any) {
	if len(path) == 0 {
		return
	}
	if f.Properties == nil {
		f.Properties = geojson.Properties{}
	}
	cur := map[string]any(f.Properties)
	for _, p := range path[:len(path)-1] {
		next, ok := cur[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[p] = next
		}
		cur = next
	}
	cur[path[len(path)-1]] = value
}

func stringify(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case json.Number:
		return x.String(), true
	default:
		return fmt.Sprint(x), true
	}
}

func cloneBBox(b geojson.BBox) geojson.BBox {
	if b == nil {
		return nil
	}
	return append(geojson.BBox(nil), b...)
}

func cloneProperties(p geojson.Properties) geojson.Properties {
	if p == nil {
		return nil
	}
	out := make(geojson.Properties, len(p))
	for k, v := range p {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, vv := range x {
			m[k] = cloneValue(vv)
		}
		return m
	case geojson.Properties:
		return cloneProperties(x)
	case []any:
		s := make([]any, len(x))
		for i, vv := range x {
			s[i] = cloneValue(vv)
		}
		return s
	default:
		return v
	}
}
