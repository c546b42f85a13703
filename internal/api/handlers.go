package api

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/miradorstack/cluster-atlas/internal/models"
)

// FromProtoShareRequest maps {cluster_id?: number} into a ShareRequest.
func FromProtoShareRequest(req *structpb.Struct) (models.ShareRequest, error) {
	id, err := optionalClusterID(req)
	if err != nil {
		return models.ShareRequest{}, err
	}
	return models.ShareRequest{ClusterID: id}, nil
}

// FromProtoDistributionRequest extracts the normalized region code from {region: string}.
func FromProtoDistributionRequest(req *structpb.Struct) (string, error) {
	if req == nil {
		return "", fmt.Errorf("request is nil")
	}
	v, ok := req.GetFields()["region"]
	if !ok {
		return "", fmt.Errorf("region is required")
	}
	var raw string
	switch kind := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		raw = kind.StringValue
	case *structpb.Value_NumberValue:
		raw = fmt.Sprintf("%d", int64(kind.NumberValue))
	default:
		return "", fmt.Errorf("region must be a string")
	}
	code := models.NormalizeRegionCode(raw)
	if code == "" {
		return "", fmt.Errorf("region is required")
	}
	return code, nil
}

// ToProtoShareResult converts a share result.
func ToProtoShareResult(res models.ShareResult) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"cluster_id":    res.ClusterID,
		"cluster_label": res.ClusterLabel,
		"regions":       regionValues(res.Regions),
	})
}

// ToProtoDominantResult converts a dominant-cluster result.
func ToProtoDominantResult(res models.DominantResult) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"regions": regionValues(res.Regions),
	})
}

// ToProtoDistributionResult converts a region distribution.
func ToProtoDistributionResult(res models.DistributionResult) (*structpb.Struct, error) {
	shares := make([]any, 0, len(res.Shares))
	for _, s := range res.Shares {
		shares = append(shares, map[string]any{
			"cluster_id": s.ClusterID,
			"label":      s.Label,
			"percentage": s.Percentage,
		})
	}
	return structpb.NewStruct(map[string]any{
		"region": map[string]any{"code": res.Region.Code, "name": res.Region.Name},
		"total":  res.Total,
		"shares": shares,
	})
}

// ToProtoRegions converts the region selector list.
func ToProtoRegions(regions []models.Region) (*structpb.Struct, error) {
	list := make([]any, 0, len(regions))
	for _, r := range regions {
		list = append(list, map[string]any{"code": r.Code, "name": r.Name})
	}
	return structpb.NewStruct(map[string]any{"regions": list})
}

// ToProtoProfiles converts the profile table and the cluster catalog.
func ToProtoProfiles(table models.ProfileTable, clusters []models.ClusterProfile) (*structpb.Struct, error) {
	columns := make([]any, 0, len(table.Columns))
	for _, c := range table.Columns {
		columns = append(columns, c)
	}
	rows := make([]any, 0, len(table.Rows))
	for _, row := range table.Rows {
		cells := make([]any, 0, len(row))
		for _, cell := range row {
			cells = append(cells, cell)
		}
		rows = append(rows, cells)
	}
	catalog := make([]any, 0, len(clusters))
	for _, p := range clusters {
		catalog = append(catalog, map[string]any{
			"id":          p.ID,
			"name":        p.Name,
			"description": p.Description,
			"size":        p.Size,
		})
	}
	return structpb.NewStruct(map[string]any{
		"columns":  columns,
		"rows":     rows,
		"clusters": catalog,
	})
}

// ToProtoHealth reports serving state and the active snapshot.
func ToProtoHealth(status string, info models.DatasetInfo) (*structpb.Struct, error) {
	fields := map[string]any{
		"status":   status,
		"cases":    info.Cases,
		"features": info.Features,
		"regions":  info.Regions,
		"clusters": info.Clusters,
	}
	if !info.LoadedAt.IsZero() {
		fields["loaded_at"] = info.LoadedAt.UTC().Format(time.RFC3339)
	}
	return structpb.NewStruct(fields)
}

func regionValues(values []models.RegionValue) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		entry := map[string]any{"code": v.Code, "name": v.Name, "value": v.Value}
		if v.Label != "" {
			entry["label"] = v.Label
		}
		out = append(out, entry)
	}
	return out
}

func optionalClusterID(req *structpb.Struct) (*int, error) {
	if req == nil {
		return nil, nil
	}
	v, ok := req.GetFields()["cluster_id"]
	if !ok {
		return nil, nil
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return nil, nil
	case *structpb.Value_NumberValue:
		return ClusterIDFromNumber(kind.NumberValue)
	case *structpb.Value_StringValue:
		return ParseClusterID(kind.StringValue)
	default:
		return nil, fmt.Errorf("cluster_id must be a number")
	}
}

// ClusterIDFromNumber validates a numeric cluster id.
func ClusterIDFromNumber(n float64) (*int, error) {
	if n < 0 || n != math.Trunc(n) || math.IsInf(n, 0) || n > math.MaxInt32 {
		return nil, fmt.Errorf("cluster_id must be a non-negative integer")
	}
	id := int(n)
	return &id, nil
}

// ParseClusterID validates a textual cluster id; an empty string means "not given".
func ParseClusterID(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("cluster_id must be a non-negative integer")
	}
	return ClusterIDFromNumber(n)
}
