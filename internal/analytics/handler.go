package analytics

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/authority-search/pkg/errors"
)

// IndexBuildSummary is the last index build reported by a searcher, with the
// share of requested pages that made it into the index.
type IndexBuildSummary struct {
	IndexEvent
	Coverage   float64 `json:"coverage"`
	AgeSeconds float64 `json:"age_seconds"`
}

// Handler exposes the aggregated search analytics over HTTP.
type Handler struct {
	aggregator *Aggregator
	now        func() time.Time
	logger     *slog.Logger
}

func NewHandler(aggregator *Aggregator) *Handler {
	return &Handler{
		aggregator: aggregator,
		now:        time.Now,
		logger:     slog.Default().With("component", "analytics-handler"),
	}
}

// Stats serves GET /api/v1/analytics/stats. The optional top parameter
// shortens the top and zero-result query lists.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats := h.aggregator.Stats()
	if raw := r.URL.Query().Get("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			err = fmt.Errorf("top must be a positive integer, got %q: %w", raw, apperrors.ErrInvalidInput)
			h.writeError(w, apperrors.HTTPStatusCode(err), err.Error())
			return
		}
		stats.TopQueries = truncate(stats.TopQueries, n)
		stats.ZeroResultQueries = truncate(stats.ZeroResultQueries, n)
	}
	h.writeJSON(w, http.StatusOK, stats)
}

// IndexBuild serves GET /api/v1/analytics/index with the most recent build
// summary, or 404 until a searcher has reported one.
func (h *Handler) IndexBuild(w http.ResponseWriter, r *http.Request) {
	build := h.aggregator.Stats().LastIndexBuild
	if build == nil {
		h.writeError(w, http.StatusNotFound, "no index build reported yet")
		return
	}
	summary := IndexBuildSummary{IndexEvent: *build}
	if build.Requested > 0 {
		summary.Coverage = float64(build.Indexed) / float64(build.Requested)
	}
	if !build.Timestamp.IsZero() {
		summary.AgeSeconds = h.now().Sub(build.Timestamp).Seconds()
	}
	h.writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/analytics/stats", h.Stats)
	mux.HandleFunc("GET /api/v1/analytics/index", h.IndexBuild)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write analytics response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

func truncate(counts []QueryCount, n int) []QueryCount {
	if len(counts) > n {
		return counts[:n]
	}
	return counts
}
