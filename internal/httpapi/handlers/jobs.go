package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/tone-platform/internal/common"
	"github.com/suPer8Hu/tone-platform/internal/research"
	"github.com/suPer8Hu/tone-platform/internal/tone"
)

func (h *Handler) SubmitResearchJob(c *gin.Context) {
	var q tone.Query
	if err := c.ShouldBindJSON(&q); err != nil {
		common.Fail(c, http.StatusBadRequest, msgInvalidJSON)
		return
	}
	if h.Jobs == nil {
		h.fail(c, "submit_job", tone.NotConfigured(errors.New("jobs disabled")), http.StatusBadGateway)
		return
	}

	job, err := h.Jobs.Submit(c.Request.Context(), q)
	if err != nil {
		h.fail(c, "submit_job", err, http.StatusBadGateway)
		return
	}
	common.OK(c, http.StatusAccepted, gin.H{"job_id": job.ID}, nil)
}

func (h *Handler) GetResearchJob(c *gin.Context) {
	if h.Jobs == nil {
		h.fail(c, "get_job", tone.NotConfigured(errors.New("jobs disabled")), http.StatusBadGateway)
		return
	}
	jobID := strings.TrimSpace(c.Param("job_id"))
	if jobID == "" {
		common.Fail(c, http.StatusBadRequest, "job_id required")
		return
	}

	job, err := h.Jobs.Get(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, research.ErrJobNotFound) {
			common.Fail(c, http.StatusNotFound, "Job not found")
			return
		}
		h.fail(c, "get_job", err, http.StatusBadGateway)
		return
	}
	common.OK(c, http.StatusOK, gin.H{"job": job}, nil)
}
