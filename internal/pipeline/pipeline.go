package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go-sheet-pipeline/internal/model"
	"go-sheet-pipeline/pkg/utils"
)

// RunLog persists run status, per-source failures and counts. Records are
// never persisted.
type RunLog interface {
	UpdateStatus(ctx context.Context, runID, status string) error
	SaveFailures(ctx context.Context, runID string, fs []model.SourceFailure) error
	SaveSummary(ctx context.Context, runID string, s model.RunSummary) error
	SaveError(ctx context.Context, runID string, err error) error
}

// ViewSource expands a configured view name into a run spec with its
// sources listed.
type ViewSource interface {
	ViewSpec(name string) (model.RunSpec, error)
}

// ErrUnknownRun is returned for run IDs the runner never saw.
var ErrUnknownRun = errors.New("unknown run")

// ------------------- Pipeline Runner -------------------

// Runner executes run specs: ingest, aggregate, export, with every status
// transition written to the run log.
type Runner struct {
	orch    *Orchestrator
	log     RunLog
	views   ViewSource
	results *Results
	tracker *Tracker
	output  *utils.OutputManager

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

func NewRunner(orch *Orchestrator, log RunLog, views ViewSource, results *Results, tracker *Tracker, outputDir string) *Runner {
	return &Runner{
		orch:    orch,
		log:     log,
		views:   views,
		results: results,
		tracker: tracker,
		output:  utils.NewOutputManager(outputDir),
		cancels: map[string]context.CancelFunc{},
	}
}

// Expand resolves spec.View when no sources are listed inline. Fields set on
// spec win over the view's own settings.
func (r *Runner) Expand(spec model.RunSpec) (model.RunSpec, error) {
	return ExpandSpec(r.views, spec)
}

func ExpandSpec(views ViewSource, spec model.RunSpec) (model.RunSpec, error) {
	if len(spec.Sources) > 0 || spec.View == "" {
		return spec, nil
	}
	if views == nil {
		return spec, fmt.Errorf("view %q: no views configured", spec.View)
	}
	vs, err := views.ViewSpec(spec.View)
	if err != nil {
		return spec, err
	}
	spec.Sources = vs.Sources
	spec.Dedup = spec.Dedup || vs.Dedup
	if spec.TopN == 0 {
		spec.TopN = vs.TopN
	}
	if spec.DateRange == nil {
		spec.DateRange = vs.DateRange
	}
	if len(spec.Transformations) == 0 {
		spec.Transformations = vs.Transformations
	}
	if spec.Concurrency.FetchWorkers == 0 {
		spec.Concurrency.FetchWorkers = vs.Concurrency.FetchWorkers
	}
	return spec, nil
}

// Run executes one spec to completion. The run ends completed, failed or
// cancelled; source failures alone never fail a run.
func (r *Runner) Run(ctx context.Context, runID string, spec model.RunSpec) (err error) {
	start := time.Now()
	slog.Info("🚀 starting run", "run_id", runID, "view", spec.View)

	ctx, cancel := context.WithTimeout(ctx, utils.ParseDuration(spec.Concurrency.JobTimeout))
	r.mu.Lock()
	r.cancels[runID] = cancel
	r.mu.Unlock()
	defer func() {
		cancel()
		r.mu.Lock()
		delete(r.cancels, runID)
		r.mu.Unlock()
	}()

	// status writes outlive the run context so a cancelled run is recorded
	bg := context.WithoutCancel(ctx)
	setStatus := func(s string) {
		if r.log == nil {
			return
		}
		if lerr := r.log.UpdateStatus(bg, runID, s); lerr != nil {
			slog.Error("❌ run log write failed", "run_id", runID, "status", s, "error", lerr)
		}
	}

	defer func() {
		status := model.StatusCompleted
		switch {
		case errors.Is(err, context.Canceled):
			status = model.StatusCancelled
		case err != nil:
			status = model.StatusFailed
			if r.log != nil {
				_ = r.log.SaveError(bg, runID, err)
			}
		}
		setStatus(status)
		r.tracker.RunFinished(status, time.Since(start))
		if err != nil {
			slog.Error("❌ run ended", "run_id", runID, "status", status, "error", err)
		} else {
			slog.Info("🏁 run completed", "run_id", runID, "duration_ms", time.Since(start).Milliseconds())
		}
	}()

	if spec, err = r.Expand(spec); err != nil {
		return err
	}
	req := RequestFromSpec(spec)
	if err = ValidateRequest(req); err != nil {
		return fmt.Errorf("invalid run: %w", err)
	}

	setStatus(model.StatusIngesting)
	req.OnStage = setStatus
	res, err := r.orch.Collect(ctx, req)
	if err != nil {
		return err
	}
	r.results.Put(runID, res)

	if r.log != nil {
		if err = r.log.SaveFailures(bg, runID, res.Failures); err != nil {
			return fmt.Errorf("save failures: %w", err)
		}
		if err = r.log.SaveSummary(bg, runID, res.Summary()); err != nil {
			return fmt.Errorf("save summary: %w", err)
		}
	}

	if spec.Export != nil {
		setStatus(model.StatusExporting)
		om := r.output
		if spec.Export.Dir != "" {
			om = utils.NewOutputManager(spec.Export.Dir)
		}
		for _, er := range ExportResult(runID, res, spec.Export.Formats, om) {
			if !er.Success {
				return fmt.Errorf("export %s: %s", er.Type, er.Error)
			}
		}
	}
	return ctx.Err()
}

// Cancel stops a running run. It reports whether the run was active.
func (r *Runner) Cancel(runID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cancels[runID]
	if ok {
		c()
	}
	return ok
}

// Active reports whether a run is executing.
func (r *Runner) Active(runID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.cancels[runID]
	return ok
}

// Results returns the registry the runner fills.
func (r *Runner) Results() *Results { return r.results }

// ---- Results registry ----

// DefaultResultsCapacity bounds the registry.
const DefaultResultsCapacity = 64

// Results keeps the most recent run results in memory; the oldest is evicted
// once capacity is reached.
type Results struct {
	mu    sync.RWMutex
	cap   int
	order []string
	byID  map[string]*Result
}

func NewResults(capacity int) *Results {
	if capacity <= 0 {
		capacity = DefaultResultsCapacity
	}
	return &Results{cap: capacity, byID: map[string]*Result{}}
}

func (rs *Results) Put(runID string, res *Result) {
	if rs == nil {
		return
	}
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if _, ok := rs.byID[runID]; !ok {
		rs.order = append(rs.order, runID)
	}
	rs.byID[runID] = res
	for len(rs.order) > rs.cap {
		delete(rs.byID, rs.order[0])
		rs.order = rs.order[1:]
	}
}

func (rs *Results) Get(runID string) (*Result, bool) {
	if rs == nil {
		return nil, false
	}
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	res, ok := rs.byID[runID]
	return res, ok
}

func (rs *Results) Len() int {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return len(rs.byID)
}
