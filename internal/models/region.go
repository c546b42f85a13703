package models

import (
	"sort"
	"strings"
)

// RegionCodeWidth is the fixed width of a first-level region code.
const RegionCodeWidth = 2

// NormalizeRegionCode trims the value and left-pads it with zeros to RegionCodeWidth.
// Numeric renderings such as "1.0" are reduced to their integer part first. Values that are
// already wider than the code width are returned trimmed.
func NormalizeRegionCode(raw string) string {
	code := strings.TrimSpace(raw)
	if dot := strings.IndexByte(code, '.'); dot > 0 && strings.Trim(code[dot+1:], "0") == "" && isDigits(code[:dot]) {
		code = code[:dot]
	}
	if code == "" || len(code) >= RegionCodeWidth {
		return code
	}
	return strings.Repeat("0", RegionCodeWidth-len(code)) + code
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Region is a first-level administrative division.
type Region struct {
	Code string `json:"code" yaml:"code"`
	Name string `json:"name" yaml:"name"`
}

// RegionCatalog maps region codes to display names.
type RegionCatalog map[string]string

// Name returns the display name for code, falling back to a generic label.
func (c RegionCatalog) Name(code string) string {
	if name, ok := c[code]; ok && name != "" {
		return name
	}
	return "Entidad " + code
}

// Regions returns the catalog entries for the given codes, in the order given.
func (c RegionCatalog) Regions(codes []string) []Region {
	out := make([]Region, 0, len(codes))
	for _, code := range codes {
		out = append(out, Region{Code: code, Name: c.Name(code)})
	}
	return out
}

// Codes returns all catalog codes sorted ascending.
func (c RegionCatalog) Codes() []string {
	codes := make([]string, 0, len(c))
	for code := range c {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
