package router

import (
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// --- ANSI color codes ---
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
)

type HandlerFunc func(http.ResponseWriter, *http.Request)

// Router is a gorilla/mux router with colored request logging, panic
// recovery and CORS.
type Router struct {
	mux *mux.Router
}

func New() *Router {
	r := &Router{mux: mux.NewRouter()}
	r.mux.Use(logRequests)
	r.mux.NotFoundHandler = logRequests(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	}))
	r.mux.MethodNotAllowedHandler = logRequests(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}))
	return r
}

// --- Register paths ---
func (r *Router) GET(path string, h HandlerFunc)    { r.mux.HandleFunc(path, h).Methods(http.MethodGet) }
func (r *Router) POST(path string, h HandlerFunc)   { r.mux.HandleFunc(path, h).Methods(http.MethodPost) }
func (r *Router) PUT(path string, h HandlerFunc)    { r.mux.HandleFunc(path, h).Methods(http.MethodPut) }
func (r *Router) PATCH(path string, h HandlerFunc)  { r.mux.HandleFunc(path, h).Methods(http.MethodPatch) }
func (r *Router) DELETE(path string, h HandlerFunc) { r.mux.HandleFunc(path, h).Methods(http.MethodDelete) }

// Handle mounts h for every method.
func (r *Router) Handle(path string, h http.Handler) { r.mux.Handle(path, h) }

// Prefix mounts h for every path under prefix.
func (r *Router) Prefix(prefix string, h http.Handler) { r.mux.PathPrefix(prefix).Handler(h) }

// Handler is the router wrapped in recovery and CORS.
func (r *Router) Handler() http.Handler {
	var h http.Handler = r.mux
	h = handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(h)
	return handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(h)
}

// Server builds the HTTP server; the caller owns ListenAndServe and Shutdown.
func (r *Router) Server(addr string) *http.Server {
	slog.Info("🚀 server configured", "url", colorGreen+"http://localhost"+addr+colorReset)
	return &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// --- Logging middleware ---

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(lrw, req)
		writeAccessLine(req.Method, req.URL.Path, lrw.statusCode, start)
	})
}

func writeAccessLine(method, path string, status int, start time.Time) {
	log.Printf("%s[%s]%s %s%s%s %s %s%d%s %s(%v)%s",
		colorCyan, start.Format("2006-01-02 15:04:05"), colorReset,
		methodColor(method), method, colorReset,
		path,
		statusColor(status), status, colorReset,
		colorBlue, time.Since(start), colorReset,
	)
}

// --- Logging response writer to capture status codes ---
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

// --- Color helpers ---
func statusColor(code int) string {
	switch {
	case code >= 200 && code < 300:
		return colorGreen
	case code >= 300 && code < 400:
		return colorCyan
	case code >= 400 && code < 500:
		return colorYellow
	default:
		return colorRed
	}
}

func methodColor(method string) string {
	switch method {
	case http.MethodGet:
		return colorGreen
	case http.MethodPost:
		return colorBlue
	case http.MethodPut, http.MethodPatch:
		return colorYellow
	case http.MethodDelete:
		return colorRed
	default:
		return colorCyan
	}
}
