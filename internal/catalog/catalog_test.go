package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultRegionsCoversAllEntities(t *testing.T) {
	regions := DefaultRegions()
	if len(regions) != 32 {
		t.Fatalf("expected 32 entities, got %d", len(regions))
	}
	if regions["09"] != "Ciudad de México" {
		t.Fatalf("unexpected name for 09: %q", regions["09"])
	}
	if regions.Codes()[0] != "01" {
		t.Fatalf("expected sorted codes starting at 01")
	}
}

func TestParseRegionsNormalizesCodes(t *testing.T) {
	regions, err := ParseRegions([]byte("regions:\n  - {code: \"7\", name: Chiapas}\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if regions["07"] != "Chiapas" {
		t.Fatalf("expected padded code, got %v", regions)
	}
	if _, err := ParseRegions([]byte("regions:\n  - {name: Nowhere}\n")); err == nil {
		t.Fatalf("expected error for entry without code")
	}
}

func TestLoadRegionsOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regions.yaml")
	if err := os.WriteFile(path, []byte("regions:\n  - {code: \"15\", name: Estado de México}\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	regions, err := LoadRegions(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if regions["15"] != "Estado de México" || regions["01"] != "Aguascalientes" {
		t.Fatalf("override not layered: %q %q", regions["15"], regions["01"])
	}

	missing, err := LoadRegions(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil || len(missing) != 32 {
		t.Fatalf("expected embedded table for missing file, got %d %v", len(missing), err)
	}
}

const profileCSV = "\xef\xbb\xbfCluster,Perfil,Sexo,Edad promedio,Tamaño del Cluster\n" +
	"0,Adultos jóvenes,Hombre,27.4,\"12,431\"\n" +
	"1,Mujeres jóvenes,Mujer,22.1,5210\n" +
	"2,Hombres mayores,Hombre,48.9,9804\n"

func TestParseProfiles(t *testing.T) {
	table, clusters, err := ParseProfiles([]byte(profileCSV), DefaultProfileColumns())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(table.Columns) != 5 || table.Columns[0] != "Cluster" || table.Columns[4] != "Tamaño del Cluster" {
		t.Fatalf("unexpected columns %v", table.Columns)
	}
	if len(table.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(table.Rows))
	}
	if clusters[2].Name != "Hombres mayores" || clusters[2].Size != 9804 {
		t.Fatalf("unexpected profile %+v", clusters[2])
	}
	if clusters[0].Size != 12431 {
		t.Fatalf("expected thousands separator handled, got %d", clusters[0].Size)
	}
	if clusters.Label(1) != "Mujeres jóvenes" {
		t.Fatalf("unexpected label %q", clusters.Label(1))
	}
}

func TestParseProfilesWithoutIDColumnUsesRowIndex(t *testing.T) {
	_, clusters, err := ParseProfiles([]byte("Perfil\nA\nB\n"), DefaultProfileColumns())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if clusters[0].Name != "A" || clusters[1].Name != "B" {
		t.Fatalf("unexpected catalog %+v", clusters)
	}
}

func TestParseProfilesErrors(t *testing.T) {
	if _, _, err := ParseProfiles(nil, DefaultProfileColumns()); !errors.Is(err, ErrEmptyProfiles) {
		t.Fatalf("expected ErrEmptyProfiles, got %v", err)
	}
	if _, _, err := ParseProfiles([]byte("Cluster,Perfil\nx,A\n"), DefaultProfileColumns()); err == nil {
		t.Fatalf("expected error for non-numeric cluster id")
	}
	_, clusters, err := ParseProfiles([]byte("Cluster,Perfil\nCluster 3,C\n"), DefaultProfileColumns())
	if err != nil || clusters[3].Name != "C" {
		t.Fatalf("expected labelled id to parse, got %+v %v", clusters, err)
	}
}
