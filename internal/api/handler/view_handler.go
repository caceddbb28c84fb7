package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"go-sheet-pipeline/internal/config"
	"go-sheet-pipeline/internal/model"
	"go-sheet-pipeline/internal/pipeline"
	"go-sheet-pipeline/pkg/utils"
)

type viewResponse struct {
	Name       string                   `json:"name"`
	Generation uint64                   `json:"generation"`
	LoadedAt   time.Time                `json:"loadedAt"`
	View       model.AggregateView      `json:"view"`
	Sources    []model.SourceReport     `json:"sources"`
	Failures   []model.SourceFailure    `json:"failures"`
	Records    []model.NormalizedRecord `json:"records,omitempty"`
}

// ListViews returns the configured view names.
// @Summary List views
// @Tags views
// @Produce json
// @Success 200 {array} string
// @Router /views [get]
func (h *Handler) ListViews(w http.ResponseWriter, r *http.Request) {
	names := []string{}
	if h.Views != nil {
		names = h.Views.ViewNames()
	}
	writeJSON(w, http.StatusOK, names)
}

// GetView loads a view synchronously. The last snapshot is served unless
// refresh=true or none exists yet.
// @Summary Load a view
// @Description Fetches every source of the view concurrently, isolates failures and aggregates. A load superseded by a newer one answers 409.
// @Tags views
// @Produce json
// @Param name path string true "View name"
// @Param refresh query bool false "Force a new load"
// @Param topN query int false "Top-N size"
// @Param records query bool false "Include normalized records"
// @Success 200 {object} viewResponse
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse "Superseded by a newer load"
// @Router /views/{name} [get]
func (h *Handler) GetView(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	q := r.URL.Query()
	spec, err := pipeline.ExpandSpec(h.Views, model.RunSpec{View: name, TopN: utils.ParsePositiveInt(q.Get("topN"), 0)})
	if errors.Is(err, config.ErrUnknownView) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	orch := h.Hub.For(name)
	res := orch.Latest()
	if res == nil || q.Get("refresh") == "true" || q.Get("topN") != "" {
		res, err = orch.Load(r.Context(), pipeline.RequestFromSpec(spec))
		if errors.Is(err, model.ErrStaleRequest) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	resp := viewResponse{
		Name:       name,
		Generation: res.Generation,
		LoadedAt:   res.LoadedAt,
		View:       res.View,
		Sources:    res.Sources,
		Failures:   res.Failures,
	}
	if q.Get("records") == "true" {
		resp.Records = res.Records
	}
	writeJSON(w, http.StatusOK, resp)
}

// InvalidateCache drops every parsed source held by the view orchestrators.
// @Summary Invalidate the source cache
// @Tags views
// @Produce json
// @Success 200 {object} map[string]int
// @Router /cache/invalidate [post]
func (h *Handler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"dropped": h.Hub.Invalidate()})
}

// Healthz reports liveness.
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /healthz [get]
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
