package repo

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/miradorstack/cluster-atlas/internal/models"
)

// Case table formats.
const (
	FormatParquet  = "parquet"
	FormatCSV      = "csv"
	FormatPostgres = "postgres"
)

var parquetMagic = []byte("PAR1")

// DetectFormat resolves the case table format: an explicit format wins, then the reference
// extension, then the content itself.
func DetectFormat(format string, ref Ref, data []byte) string {
	if f := strings.ToLower(strings.TrimSpace(format)); f != "" {
		return f
	}
	switch ref.Ext() {
	case ".parquet", ".pq":
		return FormatParquet
	case ".csv":
		return FormatCSV
	}
	if bytes.HasPrefix(data, parquetMagic) {
		return FormatParquet
	}
	return FormatCSV
}

// DecodeCases decodes case table bytes in the given format. Values of regionColumn are
// normalized to fixed-width region codes as they are read.
func DecodeCases(format string, data []byte, regionColumn string) (*models.CaseTable, error) {
	switch format {
	case FormatParquet:
		return DecodeCasesParquet(data, regionColumn)
	case FormatCSV:
		return DecodeCasesCSV(data, regionColumn)
	default:
		return nil, fmt.Errorf("unsupported case table format %q", format)
	}
}

// DecodeCasesCSV reads a header row followed by one row per case.
func DecodeCasesCSV(data []byte, regionColumn string) (*models.CaseTable, error) {
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("case table is empty")
		}
		return nil, fmt.Errorf("read case header: %w", err)
	}
	names := make([]string, len(header))
	for i, h := range header {
		names[i] = strings.TrimSpace(h)
	}
	builder, err := models.NewCaseTableBuilder(names)
	if err != nil {
		return nil, err
	}
	builder.MapColumn(regionColumn, models.NormalizeRegionCode)

	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read case row %d: %w", line, err)
		}
		if err := builder.Append(row); err != nil {
			return nil, fmt.Errorf("case row %d: %w", line, err)
		}
	}
	return builder.Build(), nil
}
