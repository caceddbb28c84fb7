package api

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	_ "go-sheet-pipeline/docs"
	"go-sheet-pipeline/internal/api/handler"
	"go-sheet-pipeline/pkg/router"
)

// RegisterRoutes mounts the API, metrics and swagger UI. metrics may be nil.
func RegisterRoutes(r *router.Router, h *handler.Handler, metrics http.Handler) {
	r.POST("/api/v1/runs", h.CreateRun)
	r.GET("/api/v1/runs", h.ListRuns)
	r.GET("/api/v1/runs/{id}", h.GetRun)
	r.GET("/api/v1/runs/{id}/failures", h.GetRunFailures)
	r.GET("/api/v1/runs/{id}/view", h.GetRunView)
	r.POST("/api/v1/runs/{id}/cancel", h.CancelRun)
	r.GET("/api/v1/runs/{id}/files", h.ListRunFiles)
	r.GET("/api/v1/runs/{id}/files/{name}", h.DownloadFile)

	r.GET("/api/v1/views", h.ListViews)
	r.GET("/api/v1/views/{name}", h.GetView)
	r.POST("/api/v1/cache/invalidate", h.InvalidateCache)

	r.GET("/healthz", h.Healthz)
	if metrics != nil {
		r.Handle("/metrics", metrics)
	}
	r.Prefix("/swagger/", httpSwagger.WrapHandler)
}
