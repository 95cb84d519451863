package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/tone-platform/internal/common"
	"github.com/suPer8Hu/tone-platform/internal/config"
	"github.com/suPer8Hu/tone-platform/internal/httpapi/handlers"
	"github.com/suPer8Hu/tone-platform/internal/httpapi/middleware"
	"go.uber.org/zap"
)

func NewRouter(h *handlers.Handler, cfg config.Config, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, "Not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.GET("/health", h.Health)

	api := r.Group("/")
	api.Use(middleware.Timeout(cfg.RequestTimeout))
	api.POST("/research", h.ResearchTone)
	api.POST("/adapt", h.AdaptTone)

	// async research (RabbitMQ)
	api.POST("/research/jobs", h.SubmitResearchJob)
	api.GET("/research/jobs/:job_id", h.GetResearchJob)

	admin := r.Group("/admin")
	admin.Use(middleware.AuthRequired(cfg.AdminJWTSecret))
	admin.GET("/cache", h.ListCache)
	return r
}
