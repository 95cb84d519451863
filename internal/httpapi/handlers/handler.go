package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/tone-platform/internal/adapt"
	"github.com/suPer8Hu/tone-platform/internal/cache"
	"github.com/suPer8Hu/tone-platform/internal/common"
	"github.com/suPer8Hu/tone-platform/internal/httpapi/middleware"
	"github.com/suPer8Hu/tone-platform/internal/research"
	"github.com/suPer8Hu/tone-platform/internal/tone"
	"go.uber.org/zap"
)

const (
	msgInvalidJSON = "Invalid JSON in request body"
	msgInternal    = "Internal server error"
)

// Handler serves the HTTP API. Nil fields switch their endpoints to 503,
// except Cache, whose absence is reported by /health.
type Handler struct {
	Research *research.Service
	Adapt    *adapt.Service
	Jobs     *research.Jobs
	Cache    cache.Store
	CacheTTL time.Duration
	Log      *zap.Logger

	now func() time.Time
}

type Deps struct {
	Research *research.Service
	Adapt    *adapt.Service
	Jobs     *research.Jobs
	Cache    cache.Store
	CacheTTL time.Duration
	Log      *zap.Logger
}

func NewHandler(d Deps) *Handler {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.CacheTTL <= 0 {
		d.CacheTTL = 24 * time.Hour
	}
	return &Handler{
		Research: d.Research,
		Adapt:    d.Adapt,
		Jobs:     d.Jobs,
		Cache:    d.Cache,
		CacheTTL: d.CacheTTL,
		Log:      d.Log,
		now:      time.Now,
	}
}

// fail maps a service error to a status and writes the envelope.
// upstreamStatus differs per endpoint.
func (h *Handler) fail(c *gin.Context, op string, err error, upstreamStatus int) {
	status := http.StatusInternalServerError
	switch tone.KindOf(err) {
	case tone.KindValidation:
		status = http.StatusBadRequest
	case tone.KindConfig:
		status = http.StatusServiceUnavailable
	case tone.KindUpstream:
		status = upstreamStatus
	case tone.KindSchema:
		status = http.StatusBadGateway
	}

	fields := []zap.Field{
		zap.String("op", op),
		zap.Int("status", status),
		zap.String(middleware.RequestIDKey, c.GetString(middleware.RequestIDKey)),
		zap.Error(err),
	}
	if status >= 500 {
		h.Log.Error("request failed", fields...)
	} else {
		h.Log.Info("request rejected", fields...)
	}
	common.Fail(c, status, tone.Message(err, msgInternal))
}
