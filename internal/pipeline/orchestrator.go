package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"go-sheet-pipeline/internal/aggregate"
	"go-sheet-pipeline/internal/cache"
	"go-sheet-pipeline/internal/model"
	"go-sheet-pipeline/internal/normalize"
)

// DefaultFetchWorkers bounds concurrent fetches when a request sets none.
const DefaultFetchWorkers = 4

// Request is one multi-source load.
type Request struct {
	Sources         []model.Source
	DateRange       *model.DateRange
	Dedup           bool
	Transformations []string
	TopN            int
	Workers         int
	// OnStage, when set, hears the switch from ingesting to aggregating.
	OnStage func(status string)
}

// RequestFromSpec builds a load request from a run spec whose sources are
// already expanded.
func RequestFromSpec(spec model.RunSpec) Request {
	return Request{
		Sources:         spec.Sources,
		DateRange:       spec.DateRange,
		Dedup:           spec.Dedup,
		Transformations: spec.Transformations,
		TopN:            spec.TopN,
		Workers:         spec.Concurrency.FetchWorkers,
	}
}

// Result is the merged outcome of a load. Sources is in request order.
type Result struct {
	Generation   uint64                   `json:"generation"`
	Records      []model.NormalizedRecord `json:"records"`
	View         model.AggregateView      `json:"view"`
	Sources      []model.SourceReport     `json:"sources"`
	Failures     []model.SourceFailure    `json:"failures"`
	Deduplicated int                      `json:"deduplicated"`
	LoadedAt     time.Time                `json:"loadedAt"`
	Duration     time.Duration            `json:"duration"`
}

// Summary condenses the result for the run log.
func (r *Result) Summary() model.RunSummary {
	failed := 0
	for _, s := range r.Sources {
		if s.Error != nil && s.Error.Kind != model.KindHeaderNotFound {
			failed++
		}
	}
	return model.RunSummary{
		SourcesTotal:  len(r.Sources),
		SourcesFailed: failed,
		Records:       len(r.Records),
		Deduplicated:  r.Deduplicated,
		Total:         r.View.Total,
		Duration:      r.Duration,
	}
}

// Orchestrator fans a request out over its sources and merges the results.
// Every Load takes a new generation; a load finishing after a newer one
// started is discarded with model.ErrStaleRequest.
type Orchestrator struct {
	fetcher  Fetcher
	cache    *cache.Cache[parsed]
	cacheTTL time.Duration
	tracker  *Tracker
	workers  int

	gen      atomic.Uint64
	inflight atomic.Int32
	mu       sync.RWMutex
	latest   *Result
}

type Option func(*Orchestrator)

// WithCacheTTL caches parsed sources for ttl. Zero disables the cache.
func WithCacheTTL(ttl time.Duration) Option { return func(o *Orchestrator) { o.cacheTTL = ttl } }

func WithTracker(t *Tracker) Option { return func(o *Orchestrator) { o.tracker = t } }

func WithWorkers(n int) Option { return func(o *Orchestrator) { o.workers = n } }

func NewOrchestrator(f Fetcher, opts ...Option) *Orchestrator {
	o := &Orchestrator{fetcher: f, workers: DefaultFetchWorkers}
	for _, opt := range opts {
		opt(o)
	}
	if o.cacheTTL > 0 {
		o.cache = cache.New[parsed](o.cacheTTL, o.tracker)
	}
	return o
}

// Load is Collect under a generation token: when another Load starts before
// this one finishes, this one returns model.ErrStaleRequest and its result is
// dropped. Latest keeps the last result that was not superseded.
func (o *Orchestrator) Load(ctx context.Context, req Request) (*Result, error) {
	o.inflight.Add(1)
	defer o.inflight.Add(-1)
	gen := o.gen.Add(1)
	res, err := o.Collect(ctx, req)
	if err != nil {
		return nil, err
	}
	res.Generation = gen

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.gen.Load() != gen {
		o.tracker.StaleDiscard()
		slog.Info("🗑️ discarding superseded load", "generation", gen)
		return nil, model.ErrStaleRequest
	}
	o.latest = res
	return res, nil
}

// Collect ingests every source concurrently, isolates per-source failures and
// aggregates what succeeded. Results merge in request order once every source
// has settled.
func (o *Orchestrator) Collect(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	transforms, err := ParseTransformations(req.Transformations)
	if err != nil {
		return nil, err
	}
	opts := IngestOptions{AllowedPeriods: allowedPeriods(req.Sources), DateRange: req.DateRange}

	workers := req.Workers
	if workers <= 0 {
		workers = o.workers
	}
	results := make([]IngestResult, len(req.Sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, src := range req.Sources {
		i, src := i, src
		g.Go(func() error {
			results[i] = o.ingest(gctx, src, opts)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if req.OnStage != nil {
		req.OnStage(model.StatusAggregating)
	}
	res := &Result{Sources: make([]model.SourceReport, 0, len(results))}
	var records []model.NormalizedRecord
	for _, r := range results {
		res.Sources = append(res.Sources, r.SourceReport())
		if r.Err != nil {
			res.Failures = append(res.Failures, r.Err.Failure())
		}
		records = append(records, r.Records...)
	}
	if req.Dedup {
		records, res.Deduplicated = normalize.Dedup(records)
	}
	if records, err = ApplyTransformations(records, transforms); err != nil {
		return nil, fmt.Errorf("transform: %w", err)
	}
	res.Records = records
	res.View = aggregate.Build(records, aggregate.Options{TopN: req.TopN})
	res.LoadedAt = time.Now()
	res.Duration = time.Since(start)
	slog.Info("📊 load complete", "sources", len(res.Sources), "failed", len(res.Failures),
		"records", len(records), "duration_ms", res.Duration.Milliseconds())
	return res, nil
}

// Latest is the last load that was not superseded, or nil.
func (o *Orchestrator) Latest() *Result {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.latest
}

// Busy reports whether a Load is running.
func (o *Orchestrator) Busy() bool { return o.inflight.Load() > 0 }

// Generation is the token of the most recent Load call.
func (o *Orchestrator) Generation() uint64 { return o.gen.Load() }

// Invalidate empties the parsed-source cache.
func (o *Orchestrator) Invalidate() int {
	if o.cache == nil {
		return 0
	}
	return o.cache.Purge()
}

func (o *Orchestrator) ingest(ctx context.Context, src model.Source, opts IngestOptions) IngestResult {
	start := time.Now()
	key := cache.IngestKey(src.URL, src.Hints)

	var res IngestResult
	if p, ok := o.cachedParse(key); ok {
		res = finish(p, src, opts)
		res.Cached = true
	} else {
		p, ierr := load(ctx, o.fetcher, src)
		if ierr != nil {
			res = IngestResult{Source: src, Err: ierr}
		} else {
			if o.cache != nil {
				o.cache.Set(key, p)
			}
			res = finish(p, src, opts)
		}
	}
	res.Duration = time.Since(start)
	o.tracker.ObserveSource(res)

	if res.Err != nil {
		slog.Warn("❌ source failed", "source", src.Tag, "url", src.URL, "kind", res.Err.Kind, "error", res.Err.Err)
	} else {
		slog.Debug("✅ source ingested", "source", src.Tag, "records", len(res.Records), "cached", res.Cached)
	}
	return res
}

func (o *Orchestrator) cachedParse(key string) (parsed, bool) {
	if o.cache == nil {
		return parsed{}, false
	}
	return o.cache.Get(key)
}

func allowedPeriods(sources []model.Source) map[string]bool {
	out := map[string]bool{}
	for _, s := range sources {
		if s.PeriodID != "" {
			out[s.PeriodID] = true
		}
	}
	return out
}
