package api

import (
	httpSwagger "github.com/swaggo/http-swagger"

	_ "instituto-amostral/docs"
	"instituto-amostral/pkg/router"
)

// RegisterRoutes mounts the API on r.
func RegisterRoutes(r *router.Router, h *Handler) {
	r.GET("/health", h.Health)

	r.GET("/api/v1/ufs", h.ListUFs)
	r.GET("/api/v1/municipios", h.ListMunicipalities)
	r.GET("/api/v1/calcular-amostra", h.CalculateSample)
	r.GET("/api/v1/sample-size", h.SampleSize)
	r.GET("/api/v1/cenarios", h.ListScenarios)
	r.GET("/api/v1/plano", h.GeneratePlan)

	r.POST("/api/v1/plans", h.CreatePlan)
	r.GET("/api/v1/plans", h.ListPlans)
	r.GET("/api/v1/plans/*", h.GetPlan)

	r.POST("/api/v1/datasets", h.CreateDataset)

	r.GET("/api/v1/jobs", h.ListJobs)
	// More specific routes first
	r.GET("/api/v1/jobs/*/errors", h.GetJobErrors)
	r.GET("/api/v1/jobs/*/logs", h.GetJobLogs)
	r.GET("/api/v1/jobs/*/progress", h.GetJobProgress)
	r.GET("/api/v1/jobs/*", h.GetJob)

	r.GET("/api/v1/download/*/*", h.Download)
	r.GET("/swagger/*", httpSwagger.WrapHandler.ServeHTTP)
}
