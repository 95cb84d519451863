package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/tone-platform/internal/common"
	"github.com/suPer8Hu/tone-platform/internal/tone"
)

func (h *Handler) ResearchTone(c *gin.Context) {
	var q tone.Query
	if err := c.ShouldBindJSON(&q); err != nil {
		common.Fail(c, http.StatusBadRequest, msgInvalidJSON)
		return
	}
	if h.Research == nil {
		h.fail(c, "research", tone.NotConfigured(errors.New("research service missing")), http.StatusBadGateway)
		return
	}

	out, err := h.Research.Research(c.Request.Context(), q)
	if err != nil {
		h.fail(c, "research", err, http.StatusBadGateway)
		return
	}

	if out.Cached {
		common.OK(c, http.StatusOK, out.Result, gin.H{
			"cached":    true,
			"cached_at": out.CachedAt.UTC().Format(time.RFC3339Nano),
		})
		return
	}
	common.OK(c, http.StatusOK, out.Result, gin.H{"cached": false, "mode": out.Mode})
}

func (h *Handler) AdaptTone(c *gin.Context) {
	var req tone.AdaptationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, msgInvalidJSON)
		return
	}
	if h.Adapt == nil {
		h.fail(c, "adapt", tone.NotConfigured(errors.New("adapt service missing")), http.StatusInternalServerError)
		return
	}

	out, err := h.Adapt.Adapt(c.Request.Context(), req)
	if err != nil {
		h.fail(c, "adapt", err, http.StatusInternalServerError)
		return
	}
	common.OK(c, http.StatusOK, out, nil)
}
