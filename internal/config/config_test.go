package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ATLAS_CONFIG", "")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Columns.Region != "ent_resid" || cfg.Columns.Cluster != "cluster" {
		t.Fatalf("unexpected default columns %+v", cfg.Columns)
	}
	if cfg.Clusters.Highlight != 2 {
		t.Fatalf("expected highlight cluster 2, got %d", cfg.Clusters.Highlight)
	}
	if cfg.Artifacts.Geometry.KeyPath != "properties.CVE_ENT" {
		t.Fatalf("unexpected key path %q", cfg.Artifacts.Geometry.KeyPath)
	}
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "atlas.yaml")
	data := []byte(`
server:
  address: ":6000"
artifacts:
  cases:
    uri: gdrive://abc123
    format: parquet
  watch: true
clusters:
  highlight: 1
  labels:
    2: "Riesgo principal"
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("ATLAS_HTTP_ADDRESS", ":9999")
	t.Setenv("ATLAS_CACHE_ENABLED", "true")
	t.Setenv("ATLAS_REMOTE_TIMEOUT", "45s")
	t.Setenv("ATLAS_LOG_FORMAT", "json")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Address != ":6000" || cfg.Server.HTTPAddress != ":9999" {
		t.Fatalf("unexpected server config %+v", cfg.Server)
	}
	if cfg.Artifacts.Cases.URI != "gdrive://abc123" || !cfg.Artifacts.Watch {
		t.Fatalf("unexpected artifacts %+v", cfg.Artifacts)
	}
	if cfg.Clusters.Highlight != 1 || cfg.Clusters.Labels[2] != "Riesgo principal" {
		t.Fatalf("unexpected clusters %+v", cfg.Clusters)
	}
	if !cfg.Cache.Enabled || cfg.Remote.Timeout != 45*time.Second || !cfg.Logging.JSON {
		t.Fatalf("env overrides not applied: %+v %+v", cfg.Cache, cfg.Remote)
	}
	if cfg.Columns.Region != "ent_resid" {
		t.Fatalf("defaults lost when file omits columns")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	cfg := defaultConfig()
	cfg.Artifacts.Cases.Format = "xlsx"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected unsupported format error")
	}

	cfg = defaultConfig()
	cfg.Artifacts.Cases.Format = "postgres"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected missing dsn error")
	}

	cfg = defaultConfig()
	cfg.Columns.Cluster = " "
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected missing column error")
	}
}
