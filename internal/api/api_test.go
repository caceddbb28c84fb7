package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go-sheet-pipeline/internal/api/handler"
	"go-sheet-pipeline/internal/config"
	"go-sheet-pipeline/internal/model"
	"go-sheet-pipeline/internal/pipeline"
	"go-sheet-pipeline/internal/store"
	"go-sheet-pipeline/pkg/router"
	"go-sheet-pipeline/pkg/utils"
)

const costCSV = `Produto,Quantidade,Lote,Custo PA
"Produto A","10","03082025","1000"
"Produto B","5","04082025","250"
`

type testServer struct {
	*httptest.Server
	exportPath string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dir := t.TempDir()
	exportPath := filepath.Join(dir, "aug.csv")
	if err := os.WriteFile(exportPath, []byte(costCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	db, err := store.Open(filepath.Join(dir, "runs.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := config.Default()
	cfg.Views = []config.View{{
		Name:    "cost",
		Preset:  "product-cost",
		Sources: []config.SourceConfig{{Tag: "aug", URL: exportPath}},
	}}

	tracker := pipeline.NewTracker()
	fetcher := pipeline.NewHTTPFetcher(time.Second, model.RetryPolicy{MaxAttempts: 1}, model.DefaultBreakerPolicy)
	build := func() *pipeline.Orchestrator {
		return pipeline.NewOrchestrator(fetcher, pipeline.WithTracker(tracker), pipeline.WithCacheTTL(time.Minute))
	}
	outDir := filepath.Join(dir, "outputs")
	runner := pipeline.NewRunner(build(), db, cfg, pipeline.NewResults(0), tracker, outDir)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h := &handler.Handler{
		Store:   db,
		Runner:  runner,
		Hub:     pipeline.NewHub(build),
		Views:   cfg,
		Output:  utils.NewOutputManager(outDir),
		BaseCtx: ctx,
	}
	r := router.New()
	RegisterRoutes(r, h, tracker.Handler())
	srv := httptest.NewServer(r.Handler())
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, exportPath: exportPath}
}

func (s *testServer) getJSON(t *testing.T, path string, want int, out any) {
	t.Helper()
	resp, err := http.Get(s.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != want {
		t.Fatalf("GET %s: status %d, want %d", path, resp.StatusCode, want)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
}

func (s *testServer) postJSON(t *testing.T, path string, body any, want int, out any) {
	t.Helper()
	b, _ := json.Marshal(body)
	resp, err := http.Post(s.URL+path, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != want {
		t.Fatalf("POST %s: status %d, want %d", path, resp.StatusCode, want)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
}

func TestRunEndToEnd(t *testing.T) {
	s := newTestServer(t)
	h, _ := model.Preset("product-cost")
	spec := model.RunSpec{
		Sources: []model.Source{
			{Tag: "aug", URL: s.exportPath, Hints: h},
			{Tag: "gone", URL: filepath.Join(filepath.Dir(s.exportPath), "missing.csv"), Hints: h},
		},
		Export: &model.Export{Formats: []string{"json", "csv"}},
	}
	var created struct {
		RunID  string `json:"runId"`
		Status string `json:"status"`
	}
	s.postJSON(t, "/api/v1/runs", spec, http.StatusAccepted, &created)
	if created.RunID == "" || created.Status != model.StatusPending {
		t.Fatalf("created = %+v", created)
	}

	var run struct {
		model.RunInfo
		Active bool `json:"active"`
	}
	deadline := time.Now().Add(5 * time.Second)
	for {
		s.getJSON(t, "/api/v1/runs/"+created.RunID, http.StatusOK, &run)
		if model.Terminal(run.Status) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("run stuck in %s", run.Status)
		}
		time.Sleep(20 * time.Millisecond)
	}
	if run.Status != model.StatusCompleted || run.Summary == nil || run.Summary.SourcesFailed != 1 {
		t.Fatalf("run = %+v", run)
	}

	var failures []model.SourceFailure
	s.getJSON(t, "/api/v1/runs/"+created.RunID+"/failures", http.StatusOK, &failures)
	if len(failures) != 1 || failures[0].Tag != "gone" || failures[0].Kind != model.KindFetch {
		t.Fatalf("failures = %+v", failures)
	}

	var view struct {
		View model.AggregateView `json:"view"`
	}
	s.getJSON(t, "/api/v1/runs/"+created.RunID+"/view", http.StatusOK, &view)
	if view.View.Total != 1250 || len(view.View.ByEntity) != 2 {
		t.Fatalf("view = %+v", view.View)
	}

	var files []utils.OutputFile
	s.getJSON(t, "/api/v1/runs/"+created.RunID+"/files", http.StatusOK, &files)
	if len(files) != 2 || files[0].Name != "records.csv" || files[1].Name != "view.json" {
		t.Fatalf("files = %+v", files)
	}
	resp, err := http.Get(s.URL + files[0].DownloadURL)
	if err != nil {
		t.Fatal(err)
	}
	body := new(bytes.Buffer)
	body.ReadFrom(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.HasPrefix(body.String(), "entity,value,quantity") {
		t.Fatalf("download: %d %q", resp.StatusCode, body.String())
	}

	var runs []model.RunInfo
	s.getJSON(t, "/api/v1/runs", http.StatusOK, &runs)
	if len(runs) != 1 || runs[0].ID != created.RunID {
		t.Fatalf("runs = %+v", runs)
	}
	// finished runs cannot be cancelled
	s.postJSON(t, "/api/v1/runs/"+created.RunID+"/cancel", nil, http.StatusConflict, nil)
}

func TestCreateRunRejectsBadSpecs(t *testing.T) {
	s := newTestServer(t)
	s.postJSON(t, "/api/v1/runs", model.RunSpec{}, http.StatusBadRequest, nil)
	s.postJSON(t, "/api/v1/runs", model.RunSpec{View: "nope"}, http.StatusBadRequest, nil)
	s.postJSON(t, "/api/v1/runs", model.RunSpec{View: "cost", Transformations: []string{"shuffle"}}, http.StatusBadRequest, nil)

	resp, err := http.Post(s.URL+"/api/v1/runs", "application/json", strings.NewReader("{"))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad JSON: status %d", resp.StatusCode)
	}
}

func TestViews(t *testing.T) {
	s := newTestServer(t)
	var names []string
	s.getJSON(t, "/api/v1/views", http.StatusOK, &names)
	if len(names) != 1 || names[0] != "cost" {
		t.Fatalf("views = %v", names)
	}

	var first, second struct {
		Generation uint64                   `json:"generation"`
		View       model.AggregateView      `json:"view"`
		Sources    []model.SourceReport     `json:"sources"`
		Records    []model.NormalizedRecord `json:"records"`
	}
	s.getJSON(t, "/api/v1/views/cost?records=true", http.StatusOK, &first)
	if first.View.Total != 1250 || len(first.Records) != 2 || first.Generation != 1 {
		t.Fatalf("first load = %+v", first)
	}
	s.getJSON(t, "/api/v1/views/cost", http.StatusOK, &second)
	if second.Generation != 1 || second.Records != nil {
		t.Fatalf("snapshot should be reused: %+v", second)
	}
	s.getJSON(t, "/api/v1/views/cost?refresh=true", http.StatusOK, &second)
	if second.Generation != 2 || !second.Sources[0].Cached {
		t.Fatalf("refresh should reload from cache: %+v", second)
	}

	s.getJSON(t, "/api/v1/views/nope", http.StatusNotFound, nil)

	var dropped map[string]int
	s.postJSON(t, "/api/v1/cache/invalidate", nil, http.StatusOK, &dropped)
	if dropped["dropped"] != 1 {
		t.Fatalf("dropped = %v", dropped)
	}
}

func TestMiscRoutes(t *testing.T) {
	s := newTestServer(t)
	s.getJSON(t, "/healthz", http.StatusOK, nil)
	s.getJSON(t, "/api/v1/runs/unknown", http.StatusNotFound, nil)
	s.getJSON(t, "/api/v1/runs/unknown/view", http.StatusNotFound, nil)
	s.postJSON(t, "/api/v1/runs/unknown/cancel", nil, http.StatusNotFound, nil)
	s.getJSON(t, "/api/v1/nothing-here", http.StatusNotFound, nil)

	resp, err := http.Get(s.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	body := new(bytes.Buffer)
	body.ReadFrom(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.Contains(body.String(), "go_goroutines") {
		t.Fatalf("metrics: %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodDelete, s.URL+"/api/v1/views", nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("DELETE /views: status %d", resp.StatusCode)
	}
}
