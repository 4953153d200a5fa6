package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"ubilite/lite"
	"ubilite/models"
)

const tileCacheTTL = 10 * time.Minute

// HandleSync is the lite client's delta-sync endpoint.
func HandleSync(c *gin.Context) {
	svc := ServiceInstance(c)
	if svc == nil {
		RespondError(c, "service unavailable", http.StatusInternalServerError)
		return
	}

	var req models.SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	resp, err := svc.Sync.DeltaSync(c.Request.Context(), req)
	if err != nil {
		log.Error().Err(err).Str("user_id", req.UserID).Msg("delta sync failed")
		RespondError(c, "sync failed", http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, resp)
}

// HandleSyncState returns the caller's sync cursor.
func HandleSyncState(c *gin.Context) {
	svc := ServiceInstance(c)
	if svc == nil {
		RespondError(c, "service unavailable", http.StatusInternalServerError)
		return
	}
	userID := c.Param("userId")
	state, err := svc.Sync.SyncStateFor(c.Request.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("sync state lookup failed")
		RespondError(c, "sync state lookup failed", http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, state)
}

// HandleTiles plans an offline map-tile download for a region. Plans are
// cached with an ETag; a matching If-None-Match answers 304 with no body.
func HandleTiles(c *gin.Context) {
	svc := ServiceInstance(c)
	if svc == nil {
		RespondError(c, "service unavailable", http.StatusInternalServerError)
		return
	}

	box, zoom, err := parseTileQuery(c)
	if err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	quality := c.DefaultQuery("quality", models.IMAGE_QUALITY_MEDIUM)
	network := c.Query("network")

	cacheKey := "tiles:" + c.Request.URL.RawQuery
	clientETag := c.GetHeader("If-None-Match")
	if payload, etag, notModified, ok, err := svc.Cache.Get(c.Request.Context(), cacheKey, clientETag); err == nil && ok {
		c.Header("ETag", etag)
		if notModified {
			c.Status(http.StatusNotModified)
			return
		}
		c.Data(http.StatusOK, "application/json", payload)
		return
	}

	plan, err := lite.PlanTiles(box, zoom, quality, network)
	if err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	payload, err := json.Marshal(plan)
	if err != nil {
		RespondError(c, "tile plan failed", http.StatusInternalServerError)
		return
	}
	etag, err := svc.Cache.Set(c.Request.Context(), cacheKey, payload, tileCacheTTL)
	if err != nil {
		log.Warn().Err(err).Msg("tile plan cache write failed")
		etag = lite.ETagFor(payload)
	}
	c.Header("ETag", etag)
	c.Data(http.StatusOK, "application/json", payload)
}

func parseTileQuery(c *gin.Context) (lite.BoundingBox, int, error) {
	var box lite.BoundingBox
	var err error
	if box.MinLat, err = strconv.ParseFloat(c.Query("minLat"), 64); err != nil {
		return box, 0, err
	}
	if box.MinLng, err = strconv.ParseFloat(c.Query("minLng"), 64); err != nil {
		return box, 0, err
	}
	if box.MaxLat, err = strconv.ParseFloat(c.Query("maxLat"), 64); err != nil {
		return box, 0, err
	}
	if box.MaxLng, err = strconv.ParseFloat(c.Query("maxLng"), 64); err != nil {
		return box, 0, err
	}
	zoom, err := strconv.Atoi(c.DefaultQuery("zoom", "14"))
	if err != nil {
		return box, 0, err
	}
	return box, zoom, nil
}
