package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/miradorstack/cluster-atlas/internal/api"
	"github.com/miradorstack/cluster-atlas/internal/engine"
	"github.com/miradorstack/cluster-atlas/internal/models"
	"github.com/miradorstack/cluster-atlas/internal/services"
	"github.com/miradorstack/cluster-atlas/internal/utils"
)

// Handler serves the HTTP routes.
type Handler struct {
	atlas  Atlas
	logger *slog.Logger
}

type errorBody struct {
	Error string `json:"error"`
}

type profilesBody struct {
	Columns  []string                `json:"columns"`
	Rows     [][]string              `json:"rows"`
	Clusters []models.ClusterProfile `json:"clusters"`
}

type regionsBody struct {
	Regions []models.Region `json:"regions"`
}

type healthBody struct {
	Status string `json:"status"`
	models.DatasetInfo
}

// Health answers 200 once a dataset is loaded and 503 before.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if !h.atlas.Ready() {
		h.writeJSON(w, http.StatusServiceUnavailable, healthBody{Status: "loading"})
		return
	}
	h.writeJSON(w, http.StatusOK, healthBody{Status: "ok", DatasetInfo: h.atlas.Info()})
}

// Choropleth returns GeoJSON with the metric joined. Query: mode=share|dominant, cluster=N.
func (h *Handler) Choropleth(w http.ResponseWriter, r *http.Request) {
	id, err := api.ParseClusterID(r.URL.Query().Get("cluster"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	mode := models.MetricMode(strings.ToLower(r.URL.Query().Get("mode")))
	fc, err := h.atlas.Choropleth(r.Context(), models.ChoroplethRequest{Mode: mode, ClusterID: id})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Shares returns the share of ?cluster=N (or the highlight cluster) per region.
func (h *Handler) Shares(w http.ResponseWriter, r *http.Request) {
	id, err := api.ParseClusterID(r.URL.Query().Get("cluster"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.atlas.Shares(r.Context(), models.ShareRequest{ClusterID: id})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

// Dominant returns the dominant cluster per region.
func (h *Handler) Dominant(w http.ResponseWriter, r *http.Request) {
	res, err := h.atlas.Dominant(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

// Regions returns the region selector list.
func (h *Handler) Regions(w http.ResponseWriter, r *http.Request) {
	regions, err := h.atlas.Regions(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, regionsBody{Regions: regions})
}

// Distribution returns the cluster breakdown of {code}.
func (h *Handler) Distribution(w http.ResponseWriter, r *http.Request) {
	res, err := h.atlas.Distribution(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

// Profiles returns the profile table and cluster catalog.
func (h *Handler) Profiles(w http.ResponseWriter, r *http.Request) {
	table, clusters, err := h.atlas.Profiles(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, profilesBody{Columns: table.Columns, Rows: table.Rows, Clusters: clusters})
}

// ValidationImage streams the t-SNE PNG.
func (h *Handler) ValidationImage(w http.ResponseWriter, r *http.Request) {
	img, err := h.atlas.ValidationImage(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img)
}

// Reload drops memoized artifacts and loads a new snapshot.
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	info, err := h.atlas.Refresh(r.Context())
	if err != nil {
		h.logger.Error("reload failed", slog.Any("error", err))
		h.writeError(w, http.StatusBadGateway, utils.UserMessage(err))
		return
	}
	h.writeJSON(w, http.StatusOK, info)
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNotReady):
		h.writeError(w, http.StatusServiceUnavailable, "dataset not loaded yet")
	case errors.Is(err, services.ErrInvalidRequest):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, engine.ErrMissingColumn), errors.Is(err, engine.ErrInvalidCluster):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.logger.Error("request failed", slog.Any("error", err))
		h.writeError(w, http.StatusInternalServerError, utils.UserMessage(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, errorBody{Error: msg})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("write response failed", slog.Any("error", err))
	}
}
