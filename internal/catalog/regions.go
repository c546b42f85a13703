// Package catalog loads the static lookup tables that give region codes and cluster ids their
// display names.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/miradorstack/cluster-atlas/internal/models"
)

//go:embed mx.yaml
var mexicoRegions []byte

// RegionFile is the YAML root structure of a region table.
type RegionFile struct {
	Regions []models.Region `yaml:"regions"`
}

// DefaultRegions returns the embedded table of Mexico's 32 federal entities.
func DefaultRegions() models.RegionCatalog {
	catalog, err := ParseRegions(mexicoRegions)
	if err != nil {
		panic(fmt.Sprintf("embedded region table: %v", err))
	}
	return catalog
}

// ParseRegions decodes a region table. Codes are normalized to the fixed code width.
func ParseRegions(data []byte) (models.RegionCatalog, error) {
	var file RegionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse region table: %w", err)
	}
	catalog := make(models.RegionCatalog, len(file.Regions))
	for i, r := range file.Regions {
		code := models.NormalizeRegionCode(r.Code)
		if code == "" {
			return nil, fmt.Errorf("parse region table: entry %d has no code", i)
		}
		catalog[code] = r.Name
	}
	return catalog, nil
}

// LoadRegions returns the embedded table with entries from path layered on top. An empty path or
// a missing file yields the embedded table unchanged.
func LoadRegions(path string) (models.RegionCatalog, error) {
	catalog := DefaultRegions()
	if path == "" {
		return catalog, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return catalog, nil
		}
		return nil, err
	}
	override, err := ParseRegions(data)
	if err != nil {
		return nil, err
	}
	return MergeRegions(catalog, override), nil
}

// MergeRegions returns a new catalog where override entries replace base entries.
func MergeRegions(base, override models.RegionCatalog) models.RegionCatalog {
	out := make(models.RegionCatalog, len(base)+len(override))
	for code, name := range base {
		out[code] = name
	}
	for code, name := range override {
		if name != "" {
			out[code] = name
		}
	}
	return out
}
