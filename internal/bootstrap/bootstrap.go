// Package bootstrap wires configuration into the artifact loaders and the atlas service.
// The server and the CLI share it so both read artifacts the same way.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/miradorstack/cluster-atlas/internal/cache"
	"github.com/miradorstack/cluster-atlas/internal/catalog"
	"github.com/miradorstack/cluster-atlas/internal/config"
	"github.com/miradorstack/cluster-atlas/internal/repo"
	"github.com/miradorstack/cluster-atlas/internal/services"
)

// Runtime holds the wired components and the resources they own.
type Runtime struct {
	Config  *config.Config
	Cache   cache.Provider
	Store   *repo.ArtifactStore
	Loader  *repo.DatasetLoader
	Service *services.AtlasService

	closers []func()
}

// Build wires the fetchers, memo layers, loaders and the service. No artifact is read until
// the service is reloaded.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	if logger == nil {
		logger = slog.Default()
	}
	rt := &Runtime{Config: cfg, Cache: cache.NoopProvider{}}

	if cfg.Cache.Enabled && cfg.Cache.Addr != "" {
		provider, err := cache.NewRedisProvider(cache.RedisConfig{
			Addr:         cfg.Cache.Addr,
			Username:     cfg.Cache.Username,
			Password:     cfg.Cache.Password,
			DB:           cfg.Cache.DB,
			DialTimeout:  cfg.Cache.DialTimeout,
			ReadTimeout:  cfg.Cache.ReadTimeout,
			WriteTimeout: cfg.Cache.WriteTimeout,
			MaxRetries:   cfg.Cache.MaxRetries,
			TLS:          cfg.Cache.TLS,
		})
		if err != nil {
			logger.Warn("redis cache unavailable", slog.Any("error", err))
		} else {
			rt.Cache = provider
			rt.closers = append(rt.closers, func() { _ = provider.Close() })
		}
	}

	fetcher, err := NewFetcher(cfg)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.Store = repo.NewArtifactStore(fetcher, rt.Cache, repo.StoreOptions{
		Prefix:    cfg.Cache.Prefix,
		MemoryTTL: cfg.Artifacts.TTL,
		SharedTTL: cfg.Cache.ArtifactTTL,
	}, logger)

	var postgres *repo.PostgresCases
	if strings.EqualFold(cfg.Artifacts.Cases.Format, repo.FormatPostgres) {
		pool, err := repo.NewPostgresPool(ctx, cfg.Postgres.DSN)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.closers = append(rt.closers, pool.Close)
		postgres = repo.NewPostgresCases(pool, cfg.Postgres.Table, cfg.Columns.Region, cfg.Columns.Cluster)
	}

	rt.Loader = repo.NewDatasetLoader(DatasetConfig(cfg), rt.Store, postgres, logger)
	rt.Service = services.NewAtlasService(logger, rt.Loader, services.Options{
		RegionColumn:     cfg.Columns.Region,
		ClusterColumn:    cfg.Columns.Cluster,
		KeyPath:          cfg.Artifacts.Geometry.KeyPath,
		HighlightCluster: cfg.Clusters.Highlight,
	})
	return rt, nil
}

// Close releases pooled connections in reverse order of acquisition.
func (r *Runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
	r.closers = nil
}

// NewFetcher routes file, http(s) and gdrive references, plus s3 when an object store is set.
func NewFetcher(cfg *config.Config) (*repo.Router, error) {
	httpFetcher := repo.NewHTTPFetcher(cfg.Remote.Timeout, cfg.Remote.MaxBytes).WithDriveURL(cfg.Remote.DriveURL)
	router := repo.NewRouter().
		Handle(repo.SchemeHTTP, httpFetcher).
		Handle(repo.SchemeGDrive, httpFetcher)
	if cfg.ObjectStore.Endpoint != "" {
		objects, err := repo.NewObjectFetcher(repo.ObjectStoreConfig{
			Endpoint:  cfg.ObjectStore.Endpoint,
			AccessKey: cfg.ObjectStore.AccessKey,
			SecretKey: cfg.ObjectStore.SecretKey,
			Region:    cfg.ObjectStore.Region,
			UseSSL:    cfg.ObjectStore.UseSSL,
			MaxBytes:  cfg.Remote.MaxBytes,
		})
		if err != nil {
			return nil, fmt.Errorf("object store: %w", err)
		}
		router.Handle(repo.SchemeS3, objects)
	}
	return router, nil
}

// DatasetConfig maps the artifact settings onto the loader configuration.
func DatasetConfig(cfg *config.Config) repo.DatasetConfig {
	return repo.DatasetConfig{
		CasesURI:        cfg.Artifacts.Cases.URI,
		CasesFormat:     strings.ToLower(cfg.Artifacts.Cases.Format),
		ProfilesURI:     cfg.Artifacts.Profiles.URI,
		ProfileColumns:  ProfileColumns(cfg.Artifacts.Profiles),
		GeometryURI:     cfg.Artifacts.Geometry.URI,
		KeyPath:         cfg.Artifacts.Geometry.KeyPath,
		RegionsPath:     cfg.Artifacts.Regions,
		ValidationImage: cfg.Artifacts.ValidationImage,
		RegionColumn:    cfg.Columns.Region,
		ClusterColumn:   cfg.Columns.Cluster,
		LabelOverrides:  cfg.Clusters.Labels,
	}
}

// ProfileColumns fills unset column names with the published defaults.
func ProfileColumns(p config.ProfilesArtifact) catalog.ProfileColumns {
	cols := catalog.DefaultProfileColumns()
	if p.IDColumn != "" {
		cols.ID = p.IDColumn
	}
	if p.NameColumn != "" {
		cols.Name = p.NameColumn
	}
	if p.DescriptionColumn != "" {
		cols.Description = p.DescriptionColumn
	}
	if p.SizeColumn != "" {
		cols.Size = p.SizeColumn
	}
	return cols
}
