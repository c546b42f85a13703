package catalog

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/miradorstack/cluster-atlas/internal/models"
)

// ErrEmptyProfiles is returned when the profile table has no header row.
var ErrEmptyProfiles = errors.New("profile table is empty")

// ProfileColumns names the profile table columns that feed the cluster catalog. Columns that
// are absent from the table are ignored; without an id column the row index is the cluster id.
type ProfileColumns struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Size        string `yaml:"size"`
}

// DefaultProfileColumns matches the published profile summary.
func DefaultProfileColumns() ProfileColumns {
	return ProfileColumns{
		ID:          "Cluster",
		Name:        "Perfil",
		Description: "Descripción",
		Size:        "Tamaño del Cluster",
	}
}

// ParseProfiles reads the profile CSV into the ordered table and the cluster catalog derived
// from it.
func ParseProfiles(data []byte, cols ProfileColumns) (models.ProfileTable, models.ClusterCatalog, error) {
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return models.ProfileTable{}, nil, ErrEmptyProfiles
		}
		return models.ProfileTable{}, nil, fmt.Errorf("read profile header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	field := func(row []string, name string) (string, bool) {
		i, ok := index[name]
		if !ok || name == "" || i >= len(row) {
			return "", false
		}
		return strings.TrimSpace(row[i]), true
	}

	table := models.ProfileTable{Columns: header, Rows: make([][]string, 0)}
	catalog := make(models.ClusterCatalog)
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return models.ProfileTable{}, nil, fmt.Errorf("read profile row %d: %w", line, err)
		}
		table.Rows = append(table.Rows, row)

		profile := models.ClusterProfile{ID: len(table.Rows) - 1}
		if raw, ok := field(row, cols.ID); ok {
			id, err := parseInt(raw)
			if err != nil {
				return models.ProfileTable{}, nil, fmt.Errorf("profile row %d: cluster id %q: %w", line, raw, err)
			}
			profile.ID = id
		}
		profile.Name, _ = field(row, cols.Name)
		profile.Description, _ = field(row, cols.Description)
		if raw, ok := field(row, cols.Size); ok && raw != "" {
			if size, err := parseInt(raw); err == nil {
				profile.Size = size
			}
		}
		catalog[profile.ID] = profile
	}
	return table, catalog, nil
}

// parseInt accepts "3", "3.0" and labels such as "Cluster 3".
func parseInt(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if fields := strings.Fields(raw); len(fields) > 1 {
		raw = fields[len(fields)-1]
	}
	raw = strings.ReplaceAll(raw, ",", "")
	if n, err := strconv.Atoi(raw); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("not an integer")
	}
	return int(f), nil
}
