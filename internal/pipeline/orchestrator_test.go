package pipeline

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go-sheet-pipeline/internal/model"
)

const costCSV = `Produto,Quantidade,Lote,Custo PA
"Produto A","10","03082025","1000"
"Produto B","5","04082025","250"
"TOTAL","15","","1250"
`

const costCSVSept = `Produto,Quantidade,Lote,Custo PA
"Produto A","4","02092025","480"
"Produto C","2","05092025","90"
`

func costSource(t *testing.T, tag, url string) model.Source {
	t.Helper()
	h, ok := model.Preset("product-cost")
	if !ok {
		t.Fatal("product-cost preset missing")
	}
	return model.Source{Tag: tag, URL: url, Hints: h}
}

func staticFetcher(bodies map[string]string, calls *atomic.Int32) Fetcher {
	return FetcherFunc(func(ctx context.Context, url string) ([]byte, error) {
		if calls != nil {
			calls.Add(1)
		}
		b, ok := bodies[url]
		if !ok {
			return nil, Permanent(errors.New("not found"))
		}
		return []byte(b), nil
	})
}

func fastRetry() model.RetryPolicy {
	return model.RetryPolicy{MaxAttempts: 2, InitialDelay: time.Millisecond, BackoffMultiplier: 2}
}

func TestCollectIsolatesFailingSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/aug.csv":
			w.Write([]byte(costCSV))
		case "/sep.csv":
			w.Write([]byte(costCSVSept))
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5*time.Second, fastRetry(), model.DefaultBreakerPolicy)
	o := NewOrchestrator(f)
	res, err := o.Collect(context.Background(), Request{Sources: []model.Source{
		costSource(t, "aug", srv.URL+"/aug.csv"),
		costSource(t, "broken", srv.URL+"/broken.csv"),
		costSource(t, "sep", srv.URL+"/sep.csv"),
	}})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(res.Failures) != 1 || res.Failures[0].Tag != "broken" || res.Failures[0].Kind != model.KindFetch {
		t.Fatalf("unexpected failures: %+v", res.Failures)
	}
	if len(res.Records) != 4 {
		t.Fatalf("expected 4 records, got %d", len(res.Records))
	}
	if math.Abs(res.View.Total-1820) > 1e-9 {
		t.Fatalf("total = %v, want 1820", res.View.Total)
	}
	// merge keeps request order
	tags := []string{res.Sources[0].Tag, res.Sources[1].Tag, res.Sources[2].Tag}
	if strings.Join(tags, ",") != "aug,broken,sep" {
		t.Fatalf("source order = %v", tags)
	}
	if res.Records[0].SourceTag != "aug" || res.Records[3].SourceTag != "sep" {
		t.Fatalf("records out of request order: %+v", res.Records)
	}
	if s := res.Summary(); s.SourcesTotal != 3 || s.SourcesFailed != 1 || s.Records != 4 {
		t.Fatalf("unexpected summary: %+v", s)
	}
}

func TestLoadDiscardsSupersededGeneration(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	f := FetcherFunc(func(ctx context.Context, url string) ([]byte, error) {
		if url == "slow" {
			close(started)
			<-release
		}
		return []byte(costCSV), nil
	})
	o := NewOrchestrator(f)

	type outcome struct {
		res *Result
		err error
	}
	first := make(chan outcome, 1)
	old := Request{Sources: []model.Source{costSource(t, "old", "slow")}}
	go func() {
		res, err := o.Load(context.Background(), old)
		first <- outcome{res, err}
	}()
	<-started

	res, err := o.Load(context.Background(), Request{Sources: []model.Source{costSource(t, "new", "fast")}})
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	close(release)

	got := <-first
	if !errors.Is(got.err, model.ErrStaleRequest) || got.res != nil {
		t.Fatalf("expected stale discard, got %+v, %v", got.res, got.err)
	}
	if o.Latest() != res || res.Generation != 2 || o.Generation() != 2 {
		t.Fatalf("latest should be generation 2, got %+v", o.Latest())
	}
}

func TestLoadServesParsedSourcesFromCache(t *testing.T) {
	var calls atomic.Int32
	tracker := NewTracker()
	o := NewOrchestrator(staticFetcher(map[string]string{"aug": costCSV}, &calls),
		WithTracker(tracker), WithCacheTTL(time.Minute))
	req := Request{Sources: []model.Source{costSource(t, "aug", "aug")}}

	first, err := o.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("first Load: %v", err)
	}
	second, err := o.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("fetched %d times, want 1", calls.Load())
	}
	if first.Sources[0].Cached || !second.Sources[0].Cached {
		t.Fatalf("cached flags = %v, %v", first.Sources[0].Cached, second.Sources[0].Cached)
	}
	if first.View.Total != second.View.Total {
		t.Fatalf("cached load changed the total: %v vs %v", first.View.Total, second.View.Total)
	}

	// a different period re-runs normalization on the cached parse; dated
	// records outside the requested periods take the source period
	req.Sources[0].PeriodID = "2025-10"
	third, err := o.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("third Load: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("hints unchanged, should still hit cache")
	}
	if third.Records[0].PeriodID != "2025-10" {
		t.Fatalf("period = %q, want 2025-10", third.Records[0].PeriodID)
	}

	if n := o.Invalidate(); n != 1 {
		t.Fatalf("Invalidate dropped %d entries", n)
	}
	if _, err := o.Load(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected refetch after invalidation, calls = %d", calls.Load())
	}
}

func TestCollectDedupAndTransforms(t *testing.T) {
	bodies := map[string]string{"w1": costCSV, "w2": costCSV, "sep": costCSVSept}
	o := NewOrchestrator(staticFetcher(bodies, nil))
	res, err := o.Collect(context.Background(), Request{
		Sources: []model.Source{
			costSource(t, "w1", "w1"),
			costSource(t, "w2", "w2"),
			costSource(t, "sep", "sep"),
		},
		Dedup:           true,
		Transformations: []string{"periods:2025-08"},
	})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if res.Deduplicated != 2 {
		t.Fatalf("deduplicated = %d, want 2", res.Deduplicated)
	}
	if len(res.Records) != 2 || res.View.Total != 1250 {
		t.Fatalf("unexpected records after transforms: %+v", res.Records)
	}
	for _, r := range res.Records {
		if r.SourceTag != "w1" {
			t.Fatalf("first occurrence should win, got %q", r.SourceTag)
		}
	}
}

func TestCollectReportsMissingHeader(t *testing.T) {
	o := NewOrchestrator(staticFetcher(map[string]string{"odd": "foo,bar\n1,2\n"}, nil))
	res, err := o.Collect(context.Background(), Request{Sources: []model.Source{costSource(t, "odd", "odd")}})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(res.Failures) != 1 || res.Failures[0].Kind != model.KindHeaderNotFound {
		t.Fatalf("expected a header-not-found report, got %+v", res.Failures)
	}
	if s := res.Summary(); s.SourcesFailed != 0 {
		t.Fatalf("a missing header is not a failed source: %+v", s)
	}
}

func TestCollectHonoursCancellation(t *testing.T) {
	f := FetcherFunc(func(ctx context.Context, url string) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	o := NewOrchestrator(f)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := o.Collect(ctx, Request{Sources: []model.Source{costSource(t, "a", "a")}}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestHubKeepsViewsApart(t *testing.T) {
	built := 0
	h := NewHub(func() *Orchestrator {
		built++
		return NewOrchestrator(staticFetcher(nil, nil), WithCacheTTL(time.Minute))
	})
	if h.For("cost") != h.For("cost") {
		t.Fatal("same view should reuse its orchestrator")
	}
	if h.For("cost") == h.For("sales") || built != 2 {
		t.Fatalf("views should not share orchestrators (built %d)", built)
	}
	if n := h.Invalidate(); n != 0 {
		t.Fatalf("empty caches dropped %d", n)
	}
}

func TestCollectUnpublishedTabsDoNotTripBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/good" {
			w.Write([]byte(costCSV))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5*time.Second, fastRetry(), model.DefaultBreakerPolicy)
	o := NewOrchestrator(f, WithWorkers(1))
	var sources []model.Source
	for i := 0; i < model.DefaultBreakerPolicy.FailureThreshold; i++ {
		tag := "missing" + string(rune('0'+i))
		sources = append(sources, costSource(t, tag, srv.URL+"/"+tag))
	}
	sources = append(sources, costSource(t, "good", srv.URL+"/good"))

	res, err := o.Collect(context.Background(), Request{Sources: sources})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(res.Failures) != len(sources)-1 {
		t.Fatalf("failures = %+v", res.Failures)
	}
	for _, fl := range res.Failures {
		if fl.Tag == "good" || strings.Contains(fl.Message, ErrCircuitOpen.Error()) {
			t.Fatalf("healthy source failed: %+v", fl)
		}
	}
	if len(res.Records) != 2 {
		t.Fatalf("good source records = %d, want 2", len(res.Records))
	}
}
