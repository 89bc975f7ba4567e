package api

import (
	httpSwagger "github.com/swaggo/http-swagger"

	_ "go-flight-analyzer/docs" // swagger spec, registered on import
	"go-flight-analyzer/internal/api/handler"
	"go-flight-analyzer/pkg/router"
)

// NewRouter builds the API router with every analysis route registered.
func NewRouter() *router.Router {
	r := router.New()
	RegisterRoutes(r)
	return r
}

func RegisterRoutes(r *router.Router) {
	r.POST("/api/v1/analyses", handler.CreateAnalysis)
	r.GET("/api/v1/analyses", handler.ListAnalyses)
	// More specific routes first
	r.GET("/api/v1/analyses/*/errors", handler.GetAnalysisErrors)
	r.GET("/api/v1/analyses/*/result", handler.GetAnalysisResult)
	r.GET("/api/v1/analyses/*/counts", handler.GetAnalysisCounts)
	r.GET("/api/v1/analyses/*/logs", handler.GetAnalysisLogs)
	r.GET("/api/v1/analyses/*/progress", handler.GetAnalysisProgress)
	r.GET("/api/v1/analyses/*/files", handler.GetAnalysisFiles)
	r.POST("/api/v1/analyses/*/retry", handler.RetryAnalysis)
	r.PATCH("/api/v1/analyses/*/cancel", handler.CancelAnalysis)
	r.DELETE("/api/v1/analyses/*", handler.DeleteAnalysis)
	// Generic analysis route last
	r.GET("/api/v1/analyses/*", handler.GetAnalysis)

	r.GET("/api/v1/download/*", handler.DownloadFile)

	// Swagger UI
	r.GET("/swagger/*", router.HandlerFunc(httpSwagger.WrapHandler))
}
