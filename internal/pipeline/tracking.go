package pipeline

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Tracker records pipeline metrics on its own registry. A nil *Tracker is
// valid and records nothing.
type Tracker struct {
	registry *prometheus.Registry

	sourcesFetched *prometheus.CounterVec
	sourcesFailed  *prometheus.CounterVec
	records        prometheus.Counter
	ingestDuration prometheus.Histogram
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
	staleDiscards  prometheus.Counter
	runs           *prometheus.CounterVec
	breakerState   *prometheus.GaugeVec
}

func NewTracker() *Tracker {
	t := &Tracker{
		registry: prometheus.NewRegistry(),
		sourcesFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_sources_fetched_total",
			Help: "Sources ingested, by whether the parse came from cache.",
		}, []string{"cached"}),
		sourcesFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_sources_failed_total",
			Help: "Sources that failed, by error kind.",
		}, []string{"kind"}),
		records: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_records_total",
			Help: "Normalized records produced.",
		}),
		ingestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pipeline_ingest_duration_seconds",
			Help:    "Time to ingest one source.",
			Buckets: prometheus.DefBuckets,
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_cache_hits_total",
			Help: "Parsed-source cache hits.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_cache_misses_total",
			Help: "Parsed-source cache misses.",
		}),
		staleDiscards: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_stale_discards_total",
			Help: "Loads discarded because a newer request superseded them.",
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_runs_total",
			Help: "Finished runs by final status.",
		}, []string{"status"}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pipeline_breaker_state",
			Help: "Circuit breaker state per host (0 closed, 1 half-open, 2 open).",
		}, []string{"host"}),
	}
	t.registry.MustRegister(
		collectors.NewGoCollector(),
		t.sourcesFetched,
		t.sourcesFailed,
		t.records,
		t.ingestDuration,
		t.cacheHits,
		t.cacheMisses,
		t.staleDiscards,
		t.runs,
		t.breakerState,
	)
	return t
}

// Handler serves the registry in the Prometheus text format.
func (t *Tracker) Handler() http.Handler {
	if t == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{})
}

func (t *Tracker) Registry() *prometheus.Registry {
	if t == nil {
		return nil
	}
	return t.registry
}

// ObserveSource records one finished ingestion.
func (t *Tracker) ObserveSource(res IngestResult) {
	if t == nil {
		return
	}
	cached := "false"
	if res.Cached {
		cached = "true"
	}
	t.sourcesFetched.WithLabelValues(cached).Inc()
	t.records.Add(float64(len(res.Records)))
	t.ingestDuration.Observe(res.Duration.Seconds())
	if res.Err != nil {
		t.sourcesFailed.WithLabelValues(string(res.Err.Kind)).Inc()
	}
}

func (t *Tracker) CacheHit() {
	if t != nil {
		t.cacheHits.Inc()
	}
}

func (t *Tracker) CacheMiss() {
	if t != nil {
		t.cacheMisses.Inc()
	}
}

func (t *Tracker) StaleDiscard() {
	if t != nil {
		t.staleDiscards.Inc()
	}
}

func (t *Tracker) RunFinished(status string, _ time.Duration) {
	if t != nil {
		t.runs.WithLabelValues(status).Inc()
	}
}

// BreakerChanged matches HTTPFetcher.OnBreaker.
func (t *Tracker) BreakerChanged(host string, s BreakerState) {
	if t != nil {
		t.breakerState.WithLabelValues(host).Set(float64(s))
	}
}
