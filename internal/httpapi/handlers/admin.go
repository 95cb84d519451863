package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/tone-platform/internal/common"
	"go.uber.org/zap"
)

type cacheRecord struct {
	Key        string    `json:"key"`
	Song       string    `json:"song"`
	Artist     string    `json:"artist"`
	Mode       string    `json:"mode"`
	Confidence float64   `json:"confidence"`
	UpdatedAt  time.Time `json:"updated_at"`
	Stale      bool      `json:"stale"`
}

// ListCache shows the most recently written research cache rows.
func (h *Handler) ListCache(c *gin.Context) {
	if h.Cache == nil {
		common.Fail(c, http.StatusServiceUnavailable, "Database not configured")
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	entries, err := h.Cache.List(c.Request.Context(), limit)
	if err != nil {
		h.Log.Error("list cache failed", zap.Error(err))
		common.Fail(c, http.StatusInternalServerError, msgInternal)
		return
	}

	now := h.now()
	out := make([]cacheRecord, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		out = append(out, cacheRecord{
			Key:        e.CacheKey,
			Song:       e.Payload.Song,
			Artist:     e.Payload.Artist,
			Mode:       string(e.Mode),
			Confidence: e.Confidence,
			UpdatedAt:  e.UpdatedAt,
			Stale:      !e.Fresh(now, h.CacheTTL),
		})
	}
	common.OK(c, http.StatusOK, gin.H{"entries": out, "ttl_seconds": int(h.CacheTTL.Seconds())}, nil)
}
