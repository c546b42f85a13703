package models

import (
	"fmt"
	"sort"
)

// ClusterProfile describes one risk profile produced by the offline clustering run.
type ClusterProfile struct {
	ID          int    `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description"`
	Size        int    `json:"size,omitempty" yaml:"size"`
}

// ClusterCatalog maps cluster ids to their profile.
type ClusterCatalog map[int]ClusterProfile

// Label returns the display name for id, falling back to "Cluster <id>".
func (c ClusterCatalog) Label(id int) string {
	if p, ok := c[id]; ok && p.Name != "" {
		return p.Name
	}
	return fmt.Sprintf("Cluster %d", id)
}

// IDs returns the catalog ids sorted ascending.
func (c ClusterCatalog) IDs() []int {
	ids := make([]int, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Profiles returns the catalog entries sorted by id.
func (c ClusterCatalog) Profiles() []ClusterProfile {
	out := make([]ClusterProfile, 0, len(c))
	for _, id := range c.IDs() {
		out = append(out, c[id])
	}
	return out
}

// Merge returns a new catalog where non-empty fields of override replace the base entry.
func (c ClusterCatalog) Merge(override ClusterCatalog) ClusterCatalog {
	out := make(ClusterCatalog, len(c)+len(override))
	for id, p := range c {
		out[id] = p
	}
	for id, p := range override {
		base := out[id]
		base.ID = id
		if p.Name != "" {
			base.Name = p.Name
		}
		if p.Description != "" {
			base.Description = p.Description
		}
		if p.Size > 0 {
			base.Size = p.Size
		}
		out[id] = base
	}
	return out
}

// ProfileTable is the profile summary table as published, with its column order preserved.
type ProfileTable struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// ClusterShare is one entry of a per-region cluster distribution.
type ClusterShare struct {
	ClusterID  int     `json:"cluster_id"`
	Label      string  `json:"label,omitempty"`
	Percentage float64 `json:"percentage"`
}
