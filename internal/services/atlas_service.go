package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/miradorstack/cluster-atlas/internal/engine"
	"github.com/miradorstack/cluster-atlas/internal/geo"
	atlasv1 "github.com/miradorstack/cluster-atlas/internal/grpc/atlasv1"
	"github.com/miradorstack/cluster-atlas/internal/metrics"
	"github.com/miradorstack/cluster-atlas/internal/models"
	"github.com/miradorstack/cluster-atlas/internal/utils"
)

var (
	// ErrNotReady is returned while no dataset snapshot has been loaded.
	ErrNotReady = errors.New("dataset not loaded")
	// ErrInvalidRequest wraps caller mistakes.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNotFound is returned for optional artifacts that were not published.
	ErrNotFound = errors.New("not found")
)

// NoDominantCluster is the dominant value joined onto regions without cases.
const NoDominantCluster = -1

// Loader produces dataset snapshots.
type Loader interface {
	Load(ctx context.Context) (*models.Dataset, error)
	Invalidate(ctx context.Context)
}

// Options configures the service.
type Options struct {
	RegionColumn     string
	ClusterColumn    string
	KeyPath          string
	HighlightCluster int
}

// AtlasService serves cluster metrics from an immutable dataset snapshot. Reloads build a new
// snapshot and swap it atomically; readers keep using the one they started with.
type AtlasService struct {
	atlasv1.UnimplementedClusterAtlasServer

	logger    *slog.Logger
	loader    Loader
	opts      Options
	dataset   atomic.Pointer[models.Dataset]
	reloadMu  sync.Mutex
	latencies *utils.LatencyTracker
	onReady   func(bool)
}

// NewAtlasService constructs the service facade. No dataset is loaded until Reload.
func NewAtlasService(logger *slog.Logger, loader Loader, opts Options) *AtlasService {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.KeyPath == "" {
		opts.KeyPath = geo.DefaultKeyPath
	}
	return &AtlasService{
		logger:    logger,
		loader:    loader,
		opts:      opts,
		latencies: utils.NewLatencyTracker(1024),
	}
}

// OnReadyChange registers a callback invoked with the readiness after every reload attempt.
func (s *AtlasService) OnReadyChange(fn func(ready bool)) {
	s.onReady = fn
}

// Reload loads a fresh snapshot and swaps it in. On failure the previous snapshot stays active.
func (s *AtlasService) Reload(ctx context.Context) (models.DatasetInfo, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	if s.loader == nil {
		return models.DatasetInfo{}, fmt.Errorf("%w: no loader configured", ErrNotReady)
	}
	start := time.Now()
	ds, err := s.loader.Load(ctx)
	if err == nil {
		err = engine.ValidateColumns(ds.Cases, s.opts.RegionColumn, s.opts.ClusterColumn)
	}
	if err != nil {
		metrics.ObserveQuery("reload", time.Since(start), metrics.OutcomeError)
		s.logger.Error("dataset reload failed", slog.Any("error", err))
		s.notifyReady()
		return models.DatasetInfo{}, err
	}

	s.dataset.Store(ds)
	info := ds.Info()
	metrics.ObserveQuery("reload", time.Since(start), metrics.OutcomeSuccess)
	metrics.SetDataset(info.Cases, info.LoadedAt)
	s.logger.Info("dataset loaded",
		slog.Int("cases", info.Cases),
		slog.Int("features", info.Features),
		slog.Int("clusters", info.Clusters),
		slog.Duration("elapsed", time.Since(start)))
	s.notifyReady()
	return info, nil
}

// Refresh drops memoized artifacts and reloads.
func (s *AtlasService) Refresh(ctx context.Context) (models.DatasetInfo, error) {
	if s.loader != nil {
		s.loader.Invalidate(ctx)
	}
	return s.Reload(ctx)
}

// Ready reports whether a snapshot is active.
func (s *AtlasService) Ready() bool {
	return s.dataset.Load() != nil
}

// Info summarises the active snapshot.
func (s *AtlasService) Info() models.DatasetInfo {
	return s.dataset.Load().Info()
}

// HighlightCluster returns the cluster used when a request names none.
func (s *AtlasService) HighlightCluster() int {
	return s.opts.HighlightCluster
}

// Shares returns the percentage of the requested cluster (or the highlight cluster) per region.
func (s *AtlasService) Shares(ctx context.Context, req models.ShareRequest) (models.ShareResult, error) {
	var out models.ShareResult
	err := s.observe("share", func(ds *models.Dataset) error {
		cluster := s.clusterOrHighlight(req.ClusterID)
		shares, err := engine.ComputeClusterShare(ds.Cases, s.opts.RegionColumn, s.opts.ClusterColumn, cluster)
		if err != nil {
			return err
		}
		out = models.ShareResult{
			ClusterID:    cluster,
			ClusterLabel: ds.Clusters.Label(cluster),
			Regions:      make([]models.RegionValue, 0, len(shares)),
		}
		for _, code := range sortedKeys(shares) {
			out.Regions = append(out.Regions, models.RegionValue{Code: code, Name: ds.Regions.Name(code), Value: shares[code]})
		}
		return nil
	})
	return out, err
}

// Dominant returns the most frequent cluster of every region.
func (s *AtlasService) Dominant(ctx context.Context) (models.DominantResult, error) {
	var out models.DominantResult
	err := s.observe("dominant", func(ds *models.Dataset) error {
		dominant, err := engine.ComputeDominantCluster(ds.Cases, s.opts.RegionColumn, s.opts.ClusterColumn)
		if err != nil {
			return err
		}
		out.Regions = make([]models.RegionValue, 0, len(dominant))
		for _, code := range sortedKeys(dominant) {
			id := dominant[code]
			out.Regions = append(out.Regions, models.RegionValue{
				Code:  code,
				Name:  ds.Regions.Name(code),
				Value: float64(id),
				Label: ds.Clusters.Label(id),
			})
		}
		return nil
	})
	return out, err
}

// Distribution returns the cluster breakdown of one region. Unknown regions yield an empty list.
func (s *AtlasService) Distribution(ctx context.Context, code string) (models.DistributionResult, error) {
	var out models.DistributionResult
	code = models.NormalizeRegionCode(code)
	if code == "" {
		return out, fmt.Errorf("%w: region is required", ErrInvalidRequest)
	}
	err := s.observe("distribution", func(ds *models.Dataset) error {
		shares, err := engine.DistributionForRegion(ds.Cases, s.opts.RegionColumn, s.opts.ClusterColumn, code)
		if err != nil {
			return err
		}
		counts, err := engine.ClusterCounts(ds.Cases, s.opts.RegionColumn, s.opts.ClusterColumn)
		if err != nil {
			return err
		}
		for i := range shares {
			shares[i].Label = ds.Clusters.Label(shares[i].ClusterID)
		}
		out = models.DistributionResult{
			Region: models.Region{Code: code, Name: ds.Regions.Name(code)},
			Total:  counts[code].Total,
			Shares: shares,
		}
		return nil
	})
	return out, err
}

// Choropleth returns the boundary geometry with the requested metric joined under "metric".
// Each feature also carries "region_name", "centroid" and, in dominant mode, "label".
func (s *AtlasService) Choropleth(ctx context.Context, req models.ChoroplethRequest) (*geojson.FeatureCollection, error) {
	var out *geojson.FeatureCollection
	err := s.observe("choropleth", func(ds *models.Dataset) error {
		if ds.Geometry == nil {
			return fmt.Errorf("%w: boundary geometry", ErrNotFound)
		}
		opts := engine.JoinOptions{KeyPath: s.opts.KeyPath}
		var labels map[string]string
		switch req.Mode {
		case models.MetricDominant:
			dominant, err := engine.ComputeDominantCluster(ds.Cases, s.opts.RegionColumn, s.opts.ClusterColumn)
			if err != nil {
				return err
			}
			labels = make(map[string]string, len(dominant))
			for code, id := range dominant {
				labels[code] = ds.Clusters.Label(id)
			}
			out = engine.JoinMetricToGeometry(ds.Geometry, dominant, opts, NoDominantCluster)
			out.ExtraMembers = geojson.Properties{"metric": string(models.MetricDominant)}
		case models.MetricShare, "":
			cluster := s.clusterOrHighlight(req.ClusterID)
			shares, err := engine.ComputeClusterShare(ds.Cases, s.opts.RegionColumn, s.opts.ClusterColumn, cluster)
			if err != nil {
				return err
			}
			out = engine.JoinMetricToGeometry(ds.Geometry, shares, opts, 0.0)
			out.ExtraMembers = geojson.Properties{
				"metric":        string(models.MetricShare),
				"cluster_id":    cluster,
				"cluster_label": ds.Clusters.Label(cluster),
			}
		default:
			return fmt.Errorf("%w: unknown metric mode %q", ErrInvalidRequest, req.Mode)
		}
		s.annotate(out, ds, labels)
		return nil
	})
	return out, err
}

func (s *AtlasService) annotate(fc *geojson.FeatureCollection, ds *models.Dataset, labels map[string]string) {
	centroids := engine.Centroids(fc, s.opts.KeyPath)
	for _, f := range fc.Features {
		code, ok := geo.RegionKey(f, s.opts.KeyPath)
		if !ok {
			continue
		}
		f.Properties["region_name"] = ds.Regions.Name(code)
		if c, ok := centroids[code]; ok {
			f.Properties["centroid"] = []float64{c[0], c[1]}
		}
		if labels != nil {
			if label, ok := labels[code]; ok {
				f.Properties["label"] = label
			}
		}
	}
}

// Regions returns the region selector: codes present in the case table with display names.
func (s *AtlasService) Regions(ctx context.Context) ([]models.Region, error) {
	var out []models.Region
	err := s.observe("regions", func(ds *models.Dataset) error {
		codes, err := engine.RegionCodes(ds.Cases, s.opts.RegionColumn)
		if err != nil {
			return err
		}
		out = ds.Regions.Regions(codes)
		return nil
	})
	return out, err
}

// Profiles returns the profile table and the cluster catalog.
func (s *AtlasService) Profiles(ctx context.Context) (models.ProfileTable, []models.ClusterProfile, error) {
	ds := s.dataset.Load()
	if ds == nil {
		return models.ProfileTable{}, nil, ErrNotReady
	}
	return ds.Profiles, ds.Clusters.Profiles(), nil
}

// ValidationImage returns the t-SNE validation PNG.
func (s *AtlasService) ValidationImage(ctx context.Context) ([]byte, error) {
	ds := s.dataset.Load()
	if ds == nil {
		return nil, ErrNotReady
	}
	if len(ds.ValidationPNG) == 0 {
		return nil, fmt.Errorf("%w: validation image", ErrNotFound)
	}
	return ds.ValidationPNG, nil
}

// LatencyP95 returns the current p95 query latency.
func (s *AtlasService) LatencyP95() time.Duration {
	if s.latencies == nil {
		return 0
	}
	return s.latencies.Percentile(95)
}

func (s *AtlasService) observe(operation string, fn func(ds *models.Dataset) error) error {
	ds := s.dataset.Load()
	if ds == nil {
		return ErrNotReady
	}
	start := time.Now()
	err := fn(ds)
	duration := time.Since(start)
	if err != nil {
		metrics.ObserveQuery(operation, duration, metrics.OutcomeError)
		s.logger.Warn("query failed", slog.String("operation", operation), slog.Any("error", err))
		return err
	}
	metrics.ObserveQuery(operation, duration, metrics.OutcomeSuccess)
	s.latencies.Observe(duration)
	if count := s.latencies.Count(); count >= 100 && count%100 == 0 {
		s.logger.Info("query latency", slog.Duration("p95", s.latencies.Percentile(95)), slog.Int("samples", count))
	}
	return nil
}

func (s *AtlasService) clusterOrHighlight(id *int) int {
	if id != nil {
		return *id
	}
	return s.opts.HighlightCluster
}

func (s *AtlasService) notifyReady() {
	if s.onReady != nil {
		s.onReady(s.Ready())
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
