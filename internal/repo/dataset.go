package repo

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/paulmach/orb/geojson"
	"golang.org/x/sync/errgroup"

	"github.com/miradorstack/cluster-atlas/internal/catalog"
	"github.com/miradorstack/cluster-atlas/internal/geo"
	"github.com/miradorstack/cluster-atlas/internal/models"
	"github.com/miradorstack/cluster-atlas/internal/utils"
)

// DatasetConfig locates every artifact of a dataset snapshot.
type DatasetConfig struct {
	CasesURI        string
	CasesFormat     string
	ProfilesURI     string
	ProfileColumns  catalog.ProfileColumns
	GeometryURI     string
	KeyPath         string
	RegionsPath     string
	ValidationImage string
	RegionColumn    string
	ClusterColumn   string
	LabelOverrides  map[int]string
}

// DatasetLoader assembles models.Dataset snapshots from artifacts. The case table and the
// boundary geometry are required; the profile table and validation image are optional and
// their failures are logged.
type DatasetLoader struct {
	cfg      DatasetConfig
	store    *ArtifactStore
	postgres *PostgresCases
	logger   *slog.Logger
	now      func() time.Time
}

// NewDatasetLoader builds a loader. postgres is only consulted for the postgres cases format.
func NewDatasetLoader(cfg DatasetConfig, store *ArtifactStore, postgres *PostgresCases, logger *slog.Logger) *DatasetLoader {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.KeyPath == "" {
		cfg.KeyPath = geo.DefaultKeyPath
	}
	return &DatasetLoader{cfg: cfg, store: store, postgres: postgres, logger: logger, now: time.Now}
}

// Config returns the loader configuration.
func (l *DatasetLoader) Config() DatasetConfig { return l.cfg }

// Load fetches and decodes every artifact in parallel.
func (l *DatasetLoader) Load(ctx context.Context) (*models.Dataset, error) {
	ds := &models.Dataset{Profiles: models.ProfileTable{Columns: []string{}, Rows: [][]string{}}}
	var clusters models.ClusterCatalog

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cases, err := l.loadCases(gctx)
		ds.Cases = cases
		return err
	})
	g.Go(func() error {
		fc, err := l.loadGeometry(gctx)
		ds.Geometry = fc
		return err
	})
	g.Go(func() error {
		regions, err := catalog.LoadRegions(l.cfg.RegionsPath)
		if err != nil {
			return utils.NewResourceError("load", l.cfg.RegionsPath, "no se pudo cargar la tabla de entidades", err)
		}
		ds.Regions = regions
		return nil
	})
	g.Go(func() error {
		table, catalogue, err := l.loadProfiles(gctx)
		if err != nil {
			l.logger.Warn("profile table unavailable", slog.String("ref", l.cfg.ProfilesURI), slog.Any("error", err))
			return nil
		}
		ds.Profiles = table
		clusters = catalogue
		return nil
	})
	g.Go(func() error {
		img, err := l.loadImage(gctx)
		if err != nil {
			l.logger.Warn("validation image unavailable", slog.String("ref", l.cfg.ValidationImage), slog.Any("error", err))
			return nil
		}
		ds.ValidationPNG = img
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if clusters == nil {
		clusters = models.ClusterCatalog{}
	}
	overrides := make(models.ClusterCatalog, len(l.cfg.LabelOverrides))
	for id, label := range l.cfg.LabelOverrides {
		overrides[id] = models.ClusterProfile{ID: id, Name: label}
	}
	ds.Clusters = clusters.Merge(overrides)
	ds.LoadedAt = l.now().UTC()
	return ds, nil
}

func (l *DatasetLoader) loadCases(ctx context.Context) (*models.CaseTable, error) {
	if strings.EqualFold(l.cfg.CasesFormat, FormatPostgres) {
		cases, err := l.postgres.Load(ctx)
		if err != nil {
			return nil, utils.NewResourceError("load", "postgres", "no se pudo cargar la tabla de casos", err)
		}
		return cases, nil
	}
	ref, err := ParseRef(l.cfg.CasesURI)
	if err != nil {
		return nil, utils.NewResourceError("load", l.cfg.CasesURI, "referencia de casos inválida", err)
	}
	data, err := l.store.Bytes(ctx, "cases", ref)
	if err != nil {
		return nil, utils.NewResourceError("load", ref.Raw, "no se pudo cargar la tabla de casos", err)
	}
	cases, err := DecodeCases(DetectFormat(l.cfg.CasesFormat, ref, data), data, l.cfg.RegionColumn)
	if err != nil {
		return nil, utils.NewResourceError("decode", ref.Raw, "tabla de casos ilegible", err)
	}
	return cases, nil
}

func (l *DatasetLoader) loadGeometry(ctx context.Context) (*geojson.FeatureCollection, error) {
	ref, err := ParseRef(l.cfg.GeometryURI)
	if err != nil {
		return nil, utils.NewResourceError("load", l.cfg.GeometryURI, "referencia de GeoJSON inválida", err)
	}
	data, err := l.store.Bytes(ctx, "geometry", ref)
	if err != nil {
		return nil, utils.NewResourceError("load", ref.Raw, "no se pudo cargar el GeoJSON", err)
	}
	fc, err := geo.Decode(data)
	if err != nil {
		return nil, utils.NewResourceError("decode", ref.Raw, "GeoJSON ilegible", err)
	}
	geo.NormalizeKeys(fc, l.cfg.KeyPath, models.NormalizeRegionCode)
	return fc, nil
}

func (l *DatasetLoader) loadProfiles(ctx context.Context) (models.ProfileTable, models.ClusterCatalog, error) {
	if l.cfg.ProfilesURI == "" {
		return models.ProfileTable{}, nil, utils.NewAppError("load", "sin tabla de perfiles configurada", nil)
	}
	ref, err := ParseRef(l.cfg.ProfilesURI)
	if err != nil {
		return models.ProfileTable{}, nil, err
	}
	data, err := l.store.Bytes(ctx, "profiles", ref)
	if err != nil {
		return models.ProfileTable{}, nil, err
	}
	return catalog.ParseProfiles(data, l.cfg.ProfileColumns)
}

func (l *DatasetLoader) loadImage(ctx context.Context) ([]byte, error) {
	if l.cfg.ValidationImage == "" {
		return nil, utils.NewAppError("load", "sin imagen de validación configurada", nil)
	}
	ref, err := ParseRef(l.cfg.ValidationImage)
	if err != nil {
		return nil, err
	}
	return l.store.Bytes(ctx, "validation_image", ref)
}

// Refs returns the parsed references of every configured artifact, skipping invalid ones.
func (l *DatasetLoader) Refs() []Ref {
	uris := []string{l.cfg.GeometryURI, l.cfg.ProfilesURI, l.cfg.ValidationImage, l.cfg.RegionsPath}
	if !strings.EqualFold(l.cfg.CasesFormat, FormatPostgres) {
		uris = append(uris, l.cfg.CasesURI)
	}
	refs := make([]Ref, 0, len(uris))
	for _, uri := range uris {
		if uri == "" {
			continue
		}
		if ref, err := ParseRef(uri); err == nil {
			refs = append(refs, ref)
		}
	}
	return refs
}

// Invalidate drops every memoized artifact so the next Load refetches.
func (l *DatasetLoader) Invalidate(ctx context.Context) {
	for _, ref := range l.Refs() {
		l.store.Invalidate(ctx, ref)
	}
}
