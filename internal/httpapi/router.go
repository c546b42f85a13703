// Package httpapi exposes the atlas queries as HTTP/JSON and GeoJSON for map front-ends.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/paulmach/orb/geojson"

	"github.com/miradorstack/cluster-atlas/internal/models"
)

// Atlas is the query surface served over HTTP.
type Atlas interface {
	Shares(ctx context.Context, req models.ShareRequest) (models.ShareResult, error)
	Dominant(ctx context.Context) (models.DominantResult, error)
	Distribution(ctx context.Context, code string) (models.DistributionResult, error)
	Choropleth(ctx context.Context, req models.ChoroplethRequest) (*geojson.FeatureCollection, error)
	Regions(ctx context.Context) ([]models.Region, error)
	Profiles(ctx context.Context) (models.ProfileTable, []models.ClusterProfile, error)
	ValidationImage(ctx context.Context) ([]byte, error)
	Refresh(ctx context.Context) (models.DatasetInfo, error)
	Ready() bool
	Info() models.DatasetInfo
}

// RouterConfig aggregates the router dependencies.
type RouterConfig struct {
	Atlas   Atlas
	Logger  *slog.Logger
	Metrics http.Handler
}

// NewRouter builds the HTTP route tree.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{atlas: cfg.Atlas, logger: logger}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/healthz", h.Health)
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}

	r.Route("/v1", func(v1 chi.Router) {
		v1.Get("/choropleth", h.Choropleth)
		v1.Get("/shares", h.Shares)
		v1.Get("/dominant", h.Dominant)
		v1.Get("/regions", h.Regions)
		v1.Get("/regions/{code}/distribution", h.Distribution)
		v1.Get("/profiles", h.Profiles)
		v1.Get("/validation/tsne", h.ValidationImage)
		v1.Post("/admin/reload", h.Reload)
	})
	return r
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("elapsed", time.Since(start)),
				slog.String("request_id", chimw.GetReqID(r.Context())))
		})
	}
}
