package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the settings required to boot the atlas service and CLI.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Logging     LoggingConfig     `yaml:"logging"`
	Artifacts   ArtifactsConfig   `yaml:"artifacts"`
	Columns     ColumnsConfig     `yaml:"columns"`
	Clusters    ClustersConfig    `yaml:"clusters"`
	Remote      RemoteConfig      `yaml:"remote"`
	ObjectStore ObjectStoreConfig `yaml:"objectStore"`
	Postgres    PostgresConfig    `yaml:"postgres"`
	Cache       CacheConfig       `yaml:"cache"`
}

// ServerConfig controls the gRPC and HTTP listeners.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	HTTPAddress     string        `yaml:"httpAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// ArtifactsConfig locates the precomputed artifacts. Every URI accepts a local path, file://,
// http(s)://, s3://bucket/key or gdrive://<file-id>.
type ArtifactsConfig struct {
	Cases           CasesArtifact    `yaml:"cases"`
	Profiles        ProfilesArtifact `yaml:"profiles"`
	Geometry        GeometryArtifact `yaml:"geometry"`
	Regions         string           `yaml:"regions"`
	ValidationImage string           `yaml:"validationImage"`
	// Watch reloads the dataset when a local artifact changes on disk.
	Watch bool `yaml:"watch"`
	// TTL bounds how long decoded artifacts stay memoized in-process.
	TTL time.Duration `yaml:"ttl"`
}

// CasesArtifact locates the case table. Format is parquet, csv or postgres; empty infers it
// from the URI extension.
type CasesArtifact struct {
	URI    string `yaml:"uri"`
	Format string `yaml:"format"`
}

// ProfilesArtifact locates the profile summary CSV and names its catalog columns.
type ProfilesArtifact struct {
	URI               string `yaml:"uri"`
	IDColumn          string `yaml:"idColumn"`
	NameColumn        string `yaml:"nameColumn"`
	DescriptionColumn string `yaml:"descriptionColumn"`
	SizeColumn        string `yaml:"sizeColumn"`
}

// GeometryArtifact locates the boundary GeoJSON and the path of the region code on each feature.
type GeometryArtifact struct {
	URI     string `yaml:"uri"`
	KeyPath string `yaml:"keyPath"`
}

// ColumnsConfig names the case table columns the engine reads.
type ColumnsConfig struct {
	Region  string `yaml:"region"`
	Cluster string `yaml:"cluster"`
}

// ClustersConfig controls cluster presentation.
type ClustersConfig struct {
	// Highlight is the cluster shown when a request names none.
	Highlight int `yaml:"highlight"`
	// Labels overrides display names from the profile table.
	Labels map[int]string `yaml:"labels"`
}

// RemoteConfig bounds HTTP downloads of remote artifacts.
type RemoteConfig struct {
	Timeout  time.Duration `yaml:"timeout"`
	MaxBytes int64         `yaml:"maxBytes"`
	// DriveURL replaces the Google Drive download endpoint for gdrive:// references.
	DriveURL string `yaml:"driveURL"`
}

// ObjectStoreConfig configures s3:// artifact access.
type ObjectStoreConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Region    string `yaml:"region"`
	UseSSL    bool   `yaml:"useSSL"`
}

// PostgresConfig configures the postgres case table source.
type PostgresConfig struct {
	DSN   string `yaml:"dsn"`
	Table string `yaml:"table"`
}

// CacheConfig controls Redis-backed caching of downloaded artifact bytes.
type CacheConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Addr         string        `yaml:"addr"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	MaxRetries   int           `yaml:"maxRetries"`
	TLS          bool          `yaml:"tls"`
	Prefix       string        `yaml:"prefix"`
	ArtifactTTL  time.Duration `yaml:"artifactTTL"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("ATLAS_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Columns.Region) == "" || strings.TrimSpace(c.Columns.Cluster) == "" {
		return errors.New("config: columns.region and columns.cluster are required")
	}
	if c.Clusters.Highlight < 0 {
		return fmt.Errorf("config: clusters.highlight must be non-negative, got %d", c.Clusters.Highlight)
	}
	switch strings.ToLower(c.Artifacts.Cases.Format) {
	case "", "parquet", "csv", "postgres":
	default:
		return fmt.Errorf("config: unsupported cases format %q", c.Artifacts.Cases.Format)
	}
	if strings.EqualFold(c.Artifacts.Cases.Format, "postgres") && c.Postgres.DSN == "" {
		return errors.New("config: postgres.dsn is required for the postgres cases format")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":50051",
			HTTPAddress:     ":8080",
			GracefulTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
		Artifacts: ArtifactsConfig{
			Cases:           CasesArtifact{URI: "data/casos.parquet"},
			Profiles:        ProfilesArtifact{URI: "data/perfiles.csv"},
			Geometry:        GeometryArtifact{URI: "data/mexico.json", KeyPath: "properties.CVE_ENT"},
			ValidationImage: "data/13.tsne.PNG",
			TTL:             10 * time.Minute,
		},
		Columns:  ColumnsConfig{Region: "ent_resid", Cluster: "cluster"},
		Clusters: ClustersConfig{Highlight: 2},
		Remote:   RemoteConfig{Timeout: 30 * time.Second, MaxBytes: 512 << 20},
		Postgres: PostgresConfig{Table: "casos"},
		Cache: CacheConfig{
			Enabled:      false,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
			MaxRetries:   2,
			Prefix:       "atlas",
			ArtifactTTL:  time.Hour,
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setBool := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			*dst = strings.EqualFold(v, "true") || v == "1"
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	setDuration := func(key string, dst *time.Duration) {
		if v := os.Getenv(key); v != "" {
			if d, err := time.ParseDuration(v); err == nil {
				*dst = d
			}
		}
	}

	setString("ATLAS_SERVER_ADDRESS", &cfg.Server.Address)
	setString("ATLAS_HTTP_ADDRESS", &cfg.Server.HTTPAddress)
	setDuration("ATLAS_GRACEFUL_TIMEOUT", &cfg.Server.GracefulTimeout)

	setString("ATLAS_LOG_LEVEL", &cfg.Logging.Level)
	if v := os.Getenv("ATLAS_LOG_FORMAT"); v != "" {
		cfg.Logging.JSON = strings.EqualFold(v, "json")
	}

	setString("ATLAS_CASES_URI", &cfg.Artifacts.Cases.URI)
	setString("ATLAS_CASES_FORMAT", &cfg.Artifacts.Cases.Format)
	setString("ATLAS_PROFILES_URI", &cfg.Artifacts.Profiles.URI)
	setString("ATLAS_GEOMETRY_URI", &cfg.Artifacts.Geometry.URI)
	setString("ATLAS_GEOMETRY_KEY_PATH", &cfg.Artifacts.Geometry.KeyPath)
	setString("ATLAS_REGIONS_PATH", &cfg.Artifacts.Regions)
	setString("ATLAS_VALIDATION_IMAGE", &cfg.Artifacts.ValidationImage)
	setBool("ATLAS_WATCH", &cfg.Artifacts.Watch)
	setDuration("ATLAS_ARTIFACT_TTL", &cfg.Artifacts.TTL)

	setString("ATLAS_REGION_COLUMN", &cfg.Columns.Region)
	setString("ATLAS_CLUSTER_COLUMN", &cfg.Columns.Cluster)
	setInt("ATLAS_HIGHLIGHT_CLUSTER", &cfg.Clusters.Highlight)

	setDuration("ATLAS_REMOTE_TIMEOUT", &cfg.Remote.Timeout)
	setString("ATLAS_DRIVE_URL", &cfg.Remote.DriveURL)

	setString("ATLAS_S3_ENDPOINT", &cfg.ObjectStore.Endpoint)
	setString("ATLAS_S3_ACCESS_KEY", &cfg.ObjectStore.AccessKey)
	setString("ATLAS_S3_SECRET_KEY", &cfg.ObjectStore.SecretKey)
	setString("ATLAS_S3_REGION", &cfg.ObjectStore.Region)
	setBool("ATLAS_S3_USE_SSL", &cfg.ObjectStore.UseSSL)

	setString("ATLAS_POSTGRES_DSN", &cfg.Postgres.DSN)
	setString("ATLAS_POSTGRES_TABLE", &cfg.Postgres.Table)

	setBool("ATLAS_CACHE_ENABLED", &cfg.Cache.Enabled)
	setString("ATLAS_CACHE_ADDR", &cfg.Cache.Addr)
	setString("ATLAS_CACHE_USERNAME", &cfg.Cache.Username)
	setString("ATLAS_CACHE_PASSWORD", &cfg.Cache.Password)
	setInt("ATLAS_CACHE_DB", &cfg.Cache.DB)
	setBool("ATLAS_CACHE_TLS", &cfg.Cache.TLS)
	setDuration("ATLAS_CACHE_DIAL_TIMEOUT", &cfg.Cache.DialTimeout)
	setDuration("ATLAS_CACHE_READ_TIMEOUT", &cfg.Cache.ReadTimeout)
	setDuration("ATLAS_CACHE_WRITE_TIMEOUT", &cfg.Cache.WriteTimeout)
	setInt("ATLAS_CACHE_MAX_RETRIES", &cfg.Cache.MaxRetries)
	setDuration("ATLAS_CACHE_ARTIFACT_TTL", &cfg.Cache.ArtifactTTL)
}
