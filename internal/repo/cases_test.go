package repo

import (
	"bytes"
	"testing"

	"github.com/parquet-go/parquet-go"
)

func TestDecodeCasesCSVNormalizesRegion(t *testing.T) {
	data := []byte("ent_resid,cluster,edad\n1,2,34\n09,0,51\n15.0,2,19\n")
	cases, err := DecodeCasesCSV(data, "ent_resid")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	regions, _ := cases.Column("ent_resid")
	want := []string{"01", "09", "15"}
	for i := range want {
		if regions[i] != want[i] {
			t.Fatalf("unexpected regions %v", regions)
		}
	}
	if !cases.HasColumn("edad") || cases.Len() != 3 {
		t.Fatalf("unexpected table shape %v %d", cases.Columns(), cases.Len())
	}
}

func TestDecodeCasesCSVErrors(t *testing.T) {
	if _, err := DecodeCasesCSV(nil, "ent_resid"); err == nil {
		t.Fatalf("expected error for empty input")
	}
	if _, err := DecodeCasesCSV([]byte("ent_resid,cluster\n01\n"), "ent_resid"); err == nil {
		t.Fatalf("expected error for short row")
	}
}

type caseRow struct {
	EntResid int32   `parquet:"ent_resid"`
	Cluster  int64   `parquet:"cluster"`
	Edad     float64 `parquet:"edad"`
	Sexo     string  `parquet:"sexo"`
}

func writeParquet(t *testing.T, rows []caseRow) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := parquet.Write(&buf, rows); err != nil {
		t.Fatalf("write parquet: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeCasesParquet(t *testing.T) {
	data := writeParquet(t, []caseRow{
		{EntResid: 1, Cluster: 2, Edad: 34.5, Sexo: "Hombre"},
		{EntResid: 19, Cluster: 0, Edad: 22, Sexo: "Mujer"},
	})

	cases, err := DecodeCasesParquet(data, "ent_resid")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cases.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", cases.Len())
	}
	regions, _ := cases.Column("ent_resid")
	clusters, _ := cases.Column("cluster")
	sexo, _ := cases.Column("sexo")
	edad, _ := cases.Column("edad")
	if regions[0] != "01" || regions[1] != "19" {
		t.Fatalf("unexpected regions %v", regions)
	}
	if clusters[0] != "2" || clusters[1] != "0" {
		t.Fatalf("unexpected clusters %v", clusters)
	}
	if sexo[1] != "Mujer" || edad[0] != "34.5" || edad[1] != "22" {
		t.Fatalf("unexpected values %v %v", sexo, edad)
	}
}

func TestDetectFormat(t *testing.T) {
	drive, _ := ParseRef("gdrive://abc")
	csvRef, _ := ParseRef("data/casos.csv")
	if got := DetectFormat("", drive, []byte("PAR1\x00")); got != FormatParquet {
		t.Fatalf("expected parquet from magic, got %s", got)
	}
	if got := DetectFormat("", drive, []byte("ent_resid,cluster\n")); got != FormatCSV {
		t.Fatalf("expected csv fallback, got %s", got)
	}
	if got := DetectFormat("", csvRef, []byte("PAR1")); got != FormatCSV {
		t.Fatalf("extension should win over content, got %s", got)
	}
	if got := DetectFormat("Parquet", csvRef, nil); got != FormatParquet {
		t.Fatalf("explicit format should win, got %s", got)
	}
	if _, err := DecodeCases("xlsx", nil, "ent_resid"); err == nil {
		t.Fatalf("expected unsupported format error")
	}
}
