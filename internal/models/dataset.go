package models

import (
	"time"

	"github.com/paulmach/orb/geojson"
)

// Dataset is one immutable snapshot of every loaded artifact. A reload produces a new Dataset;
// readers never observe a partially updated one.
type Dataset struct {
	Cases         *CaseTable
	Geometry      *geojson.FeatureCollection
	Regions       RegionCatalog
	Clusters      ClusterCatalog
	Profiles      ProfileTable
	ValidationPNG []byte
	LoadedAt      time.Time
}

// Info summarises the snapshot.
func (d *Dataset) Info() DatasetInfo {
	if d == nil {
		return DatasetInfo{}
	}
	info := DatasetInfo{
		Cases:    d.Cases.Len(),
		Regions:  len(d.Regions),
		Clusters: len(d.Clusters),
		LoadedAt: d.LoadedAt,
	}
	if d.Geometry != nil {
		info.Features = len(d.Geometry.Features)
	}
	return info
}
