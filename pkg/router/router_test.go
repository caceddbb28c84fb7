package router

import (
	"bytes"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gorilla/mux"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	return &buf
}

func TestRoutesAndMethods(t *testing.T) {
	logs := captureLog(t)
	r := New()
	r.GET("/items/{id}", func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(mux.Vars(req)["id"]))
	})
	r.POST("/items", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	h := r.Handler()

	tests := []struct {
		method, path string
		want         int
		body         string
	}{
		{http.MethodGet, "/items/42", http.StatusOK, "42"},
		{http.MethodPost, "/items", http.StatusCreated, ""},
		{http.MethodDelete, "/items/42", http.StatusMethodNotAllowed, ""},
		{http.MethodGet, "/nowhere", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		if rec.Code != tt.want {
			t.Errorf("%s %s: status %d, want %d", tt.method, tt.path, rec.Code, tt.want)
		}
		if tt.body != "" && rec.Body.String() != tt.body {
			t.Errorf("%s %s: body %q", tt.method, tt.path, rec.Body.String())
		}
	}
	if !strings.Contains(logs.String(), "/nowhere") || !strings.Contains(logs.String(), "404") {
		t.Fatalf("access log missing the 404: %q", logs.String())
	}
}

func TestRecoversFromPanics(t *testing.T) {
	captureLog(t)
	r := New()
	r.GET("/boom", func(w http.ResponseWriter, req *http.Request) { panic("boom") })

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status %d, want 500", rec.Code)
	}
}

func TestCORSHeaders(t *testing.T) {
	captureLog(t)
	r := New()
	r.GET("/ping", func(w http.ResponseWriter, req *http.Request) {})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow-origin = %q", got)
	}
}

func TestStatusColor(t *testing.T) {
	if statusColor(201) != colorGreen || statusColor(404) != colorYellow || statusColor(503) != colorRed {
		t.Fatal("unexpected status colors")
	}
}
