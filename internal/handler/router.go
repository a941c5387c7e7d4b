package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ermuhamett/slagfield-api/internal/middleware"
	"github.com/ermuhamett/slagfield-api/internal/service"
)

// Handlers bundles every HTTP handler of the API.
type Handlers struct {
	Auth      *AuthHandler
	Place     *PlaceHandler
	Bucket    *BucketHandler
	Material  *MaterialHandler
	SlagField *SlagFieldHandler
	History   *HistoryHandler
	Metrics   *MetricsHandler
}

// RegisterRoutes mounts all API routes on the engine. Reads stay open for the
// yard dashboard; every mutating route requires an operator token.
func RegisterRoutes(r *gin.Engine, prefix string, h Handlers, auth *service.AuthService) {
	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Health)
	r.GET("/metrics", h.Metrics.Prometheus)

	api := r.Group(prefix)
	protected := middleware.JWT(auth)

	api.POST("/auth/login", h.Auth.Login)

	api.GET("/places", h.Place.List)
	api.GET("/places/:id", h.Place.Get)
	api.POST("/places", protected, h.Place.Create)
	api.PUT("/places/:id", protected, h.Place.Update)
	api.DELETE("/places/:id", protected, h.Place.Delete)

	api.GET("/buckets", h.Bucket.List)
	api.GET("/buckets/:id", h.Bucket.Get)
	api.POST("/buckets", protected, h.Bucket.Create)
	api.PUT("/buckets/:id", protected, h.Bucket.Update)
	api.DELETE("/buckets/:id", protected, h.Bucket.Delete)

	api.GET("/materials", h.Material.List)
	api.GET("/materials/:id", h.Material.Get)
	api.GET("/materials/:id/cooling-stages", h.Material.Stages)
	api.POST("/materials", protected, h.Material.Create)
	api.PUT("/materials/:id", protected, h.Material.Update)
	api.PUT("/materials/:id/cooling-stages", protected, h.Material.ReplaceStages)
	api.DELETE("/materials/:id", protected, h.Material.Delete)

	field := api.Group("/slagfield")
	field.GET("/state", h.SlagField.State)
	field.GET("/places/:id/eligibility", h.SlagField.Eligibility)
	field.GET("/places/:id/visual-stage", h.SlagField.VisualStage)
	field.POST("/places/:id/place-bucket", protected, h.SlagField.PlaceBucket)
	field.POST("/places/:id/empty-bucket", protected, h.SlagField.EmptyBucket)
	field.POST("/places/:id/remove-bucket", protected, h.SlagField.RemoveBucket)
	field.POST("/places/:id/invalid", protected, h.SlagField.InvalidateState)
	field.POST("/places/:id/went-in-use", protected, h.SlagField.EnablePlace)
	field.POST("/places/:id/out-of-use", protected, h.SlagField.DisablePlace)

	api.GET("/history", h.History.List)
	api.GET("/history/export", h.History.Export)
}
