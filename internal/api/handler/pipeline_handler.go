package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"go-sheet-pipeline/internal/model"
	"go-sheet-pipeline/internal/pipeline"
	"go-sheet-pipeline/internal/store"
	"go-sheet-pipeline/pkg/utils"
)

// RunStore is the run log as the API needs it.
type RunStore interface {
	pipeline.RunLog
	CreateRun(ctx context.Context, runID string, spec model.RunSpec) error
	ListRuns(ctx context.Context) ([]model.RunInfo, error)
	GetRun(ctx context.Context, runID string) (model.RunInfo, error)
	GetFailures(ctx context.Context, runID string) ([]model.SourceFailure, error)
}

// ViewCatalog lists and expands configured views.
type ViewCatalog interface {
	pipeline.ViewSource
	ViewNames() []string
}

// Handler serves the run and view endpoints.
type Handler struct {
	Store  RunStore
	Runner *pipeline.Runner
	Hub    *pipeline.Hub
	Views  ViewCatalog
	Output *utils.OutputManager
	// BaseCtx parents background runs; cancelling it stops them all.
	BaseCtx context.Context
}

type errorResponse struct {
	Error string `json:"error"`
}

type createRunResponse struct {
	Message   string    `json:"message"`
	RunID     string    `json:"runId"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

type runResponse struct {
	model.RunInfo
	Active bool `json:"active"`
}

type runViewResponse struct {
	RunID    string                `json:"runId"`
	View     model.AggregateView   `json:"view"`
	Sources  []model.SourceReport  `json:"sources"`
	Failures []model.SourceFailure `json:"failures"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("❌ encode response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// CreateRun validates a run spec and starts it in the background.
// @Summary Start a run
// @Description Ingest the listed sources (or a configured view), aggregate and optionally export. The run continues after the response.
// @Tags runs
// @Accept json
// @Produce json
// @Param run body model.RunSpec true "Run request"
// @Success 202 {object} createRunResponse
// @Failure 400 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /runs [post]
func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	var spec model.RunSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	expanded, err := h.Runner.Expand(spec)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := pipeline.ValidateRequest(pipeline.RequestFromSpec(expanded)); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	runID := uuid.New().String()
	if err := h.Store.CreateRun(r.Context(), runID, spec); err != nil {
		slog.Error("❌ save run failed", "run_id", runID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save run")
		return
	}

	base := h.BaseCtx
	if base == nil {
		base = context.Background()
	}
	go func() {
		_ = h.Runner.Run(base, runID, spec)
	}()

	writeJSON(w, http.StatusAccepted, createRunResponse{
		Message:   "Run started",
		RunID:     runID,
		Status:    model.StatusPending,
		CreatedAt: time.Now().UTC(),
	})
}

// ListRuns returns every run, newest first.
// @Summary List runs
// @Tags runs
// @Produce json
// @Success 200 {array} model.RunInfo
// @Failure 500 {object} errorResponse
// @Router /runs [get]
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.Store.ListRuns(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch runs")
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

// GetRun returns a run's status, spec and summary.
// @Summary Get run
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} runResponse
// @Failure 404 {object} errorResponse
// @Router /runs/{id} [get]
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["id"]
	info, err := h.Store.GetRun(r.Context(), runID)
	if errors.Is(err, store.ErrRunNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch run")
		return
	}
	writeJSON(w, http.StatusOK, runResponse{RunInfo: info, Active: h.Runner.Active(runID)})
}

// GetRunFailures lists the sources that failed in a run.
// @Summary Get run failures
// @Description Per-source failures (FetchError, DecodeError, HeaderNotFoundError) of a run.
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {array} model.SourceFailure
// @Failure 404 {object} errorResponse
// @Router /runs/{id}/failures [get]
func (h *Handler) GetRunFailures(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["id"]
	if _, err := h.Store.GetRun(r.Context(), runID); err != nil {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	fs, err := h.Store.GetFailures(r.Context(), runID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch failures")
		return
	}
	writeJSON(w, http.StatusOK, fs)
}

// GetRunView returns the aggregate view of a finished run while it is still
// held in memory.
// @Summary Get run view
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} runViewResponse
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse "Run still in progress"
// @Router /runs/{id}/view [get]
func (h *Handler) GetRunView(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["id"]
	res, ok := h.Runner.Results().Get(runID)
	if !ok {
		if h.Runner.Active(runID) {
			writeError(w, http.StatusConflict, "run still in progress")
			return
		}
		writeError(w, http.StatusNotFound, "no view held for this run")
		return
	}
	writeJSON(w, http.StatusOK, runViewResponse{RunID: runID, View: res.View, Sources: res.Sources, Failures: res.Failures})
}

// CancelRun stops a running run.
// @Summary Cancel run
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse "Run already finished"
// @Router /runs/{id}/cancel [post]
func (h *Handler) CancelRun(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["id"]
	if h.Runner.Cancel(runID) {
		writeJSON(w, http.StatusOK, map[string]string{"runId": runID, "status": "cancelling"})
		return
	}
	info, err := h.Store.GetRun(r.Context(), runID)
	if err != nil {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	writeError(w, http.StatusConflict, fmt.Sprintf("run is already %s", info.Status))
}

// ListRunFiles lists a run's exports.
// @Summary List run exports
// @Tags files
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {array} utils.OutputFile
// @Failure 400 {object} errorResponse
// @Router /runs/{id}/files [get]
func (h *Handler) ListRunFiles(w http.ResponseWriter, r *http.Request) {
	files, err := h.Output.ListFiles(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, files)
}

// DownloadFile serves one export.
// @Summary Download export
// @Tags files
// @Produce application/octet-stream
// @Param id path string true "Run ID"
// @Param name path string true "File name"
// @Success 200 {file} file
// @Failure 404 {object} errorResponse
// @Router /runs/{id}/files/{name} [get]
func (h *Handler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	path, err := h.Output.LocateFile(vars["id"], vars["name"])
	if err != nil {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", vars["name"]))
	w.Header().Set("Content-Type", "application/octet-stream")
	http.ServeFile(w, r, path)
}
