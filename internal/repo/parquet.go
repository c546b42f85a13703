package repo

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/parquet-go/parquet-go"

	"github.com/miradorstack/cluster-atlas/internal/models"
)

const parquetReadBatch = 512

// DecodeCasesParquet reads every flat column of a Parquet file into a case table. Nested and
// repeated columns are skipped.
func DecodeCasesParquet(data []byte, regionColumn string) (*models.CaseTable, error) {
	file, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	// Leaf column index -> position in the case table.
	positions := make(map[int]int)
	names := make([]string, 0)
	for leaf, path := range file.Schema().Columns() {
		if len(path) != 1 {
			continue
		}
		positions[leaf] = len(names)
		names = append(names, path[0])
	}
	builder, err := models.NewCaseTableBuilder(names)
	if err != nil {
		return nil, err
	}
	builder.MapColumn(regionColumn, models.NormalizeRegionCode)

	buf := make([]parquet.Row, parquetReadBatch)
	record := make([]string, len(names))
	for _, rg := range file.RowGroups() {
		if err := readRowGroup(rg, buf, record, positions, builder); err != nil {
			return nil, err
		}
	}
	return builder.Build(), nil
}

func readRowGroup(rg parquet.RowGroup, buf []parquet.Row, record []string, positions map[int]int, builder *models.CaseTableBuilder) error {
	rows := rg.Rows()
	defer rows.Close()

	for {
		n, err := rows.ReadRows(buf)
		for _, row := range buf[:n] {
			for i := range record {
				record[i] = ""
			}
			seen := make(map[int]bool, len(record))
			for _, v := range row {
				pos, ok := positions[v.Column()]
				if !ok || seen[pos] {
					continue
				}
				seen[pos] = true
				record[pos] = parquetString(v)
			}
			if appendErr := builder.Append(record); appendErr != nil {
				return appendErr
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read parquet rows: %w", err)
		}
	}
}

func parquetString(v parquet.Value) string {
	if v.IsNull() {
		return ""
	}
	switch v.Kind() {
	case parquet.Boolean:
		return strconv.FormatBool(v.Boolean())
	case parquet.Int32:
		return strconv.FormatInt(int64(v.Int32()), 10)
	case parquet.Int64:
		return strconv.FormatInt(v.Int64(), 10)
	case parquet.Float:
		return strconv.FormatFloat(float64(v.Float()), 'f', -1, 32)
	case parquet.Double:
		return strconv.FormatFloat(v.Double(), 'f', -1, 64)
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(v.ByteArray())
	default:
		return v.String()
	}
}
