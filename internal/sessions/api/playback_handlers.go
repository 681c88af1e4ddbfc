package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mantonx/viewra/internal/sessions"
)

// playbackStartRequest is the body of POST /sessions/:sessionId/playing.
type playbackStartRequest struct {
	ItemId        string              `json:"itemId"`
	MediaSourceId string              `json:"mediaSourceId"`
	PositionTicks int64               `json:"positionTicks"`
	PlayMethod    sessions.PlayMethod `json:"playMethod"`
	LiveStreamId  string              `json:"liveStreamId"`
}

// OnPlaybackStart handles POST /sessions/:sessionId/playing.
func (h *Handler) OnPlaybackStart(c *gin.Context) {
	var req playbackStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	err := h.mgr.OnPlaybackStart(c.Request.Context(), &sessions.PlaybackStartInfo{
		SessionId:     c.Param("sessionId"),
		ItemId:        req.ItemId,
		MediaSourceId: req.MediaSourceId,
		PositionTicks: req.PositionTicks,
		PlayMethod:    req.PlayMethod,
		LiveStreamId:  req.LiveStreamId,
	})
	if err != nil {
		writeError(c, "OnPlaybackStart", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// playbackProgressRequest is the body of POST
// /sessions/:sessionId/playing/progress. PositionTicks is a pointer so
// "not reported" and "reported as 0" are distinguishable (spec §4.E).
type playbackProgressRequest struct {
	ItemId              string              `json:"itemId"`
	MediaSourceId       string              `json:"mediaSourceId"`
	PositionTicks       *int64              `json:"positionTicks"`
	IsPaused            bool                `json:"isPaused"`
	IsMuted             bool                `json:"isMuted"`
	VolumeLevel         int                 `json:"volumeLevel"`
	AudioStreamIndex    int                 `json:"audioStreamIndex"`
	SubtitleStreamIndex int                 `json:"subtitleStreamIndex"`
	PlayMethod          sessions.PlayMethod `json:"playMethod"`
	RepeatMode          sessions.RepeatMode `json:"repeatMode"`
	CanSeek             bool                `json:"canSeek"`
	LiveStreamId        string              `json:"liveStreamId"`
}

// OnPlaybackProgress handles POST /sessions/:sessionId/playing/progress.
func (h *Handler) OnPlaybackProgress(c *gin.Context) {
	var req playbackProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	err := h.mgr.OnPlaybackProgress(c.Request.Context(), &sessions.PlaybackProgressInfo{
		SessionId:           c.Param("sessionId"),
		ItemId:              req.ItemId,
		MediaSourceId:       req.MediaSourceId,
		PositionTicks:       req.PositionTicks,
		IsPaused:            req.IsPaused,
		IsMuted:             req.IsMuted,
		VolumeLevel:         req.VolumeLevel,
		AudioStreamIndex:    req.AudioStreamIndex,
		SubtitleStreamIndex: req.SubtitleStreamIndex,
		PlayMethod:          req.PlayMethod,
		RepeatMode:          req.RepeatMode,
		CanSeek:             req.CanSeek,
		LiveStreamId:        req.LiveStreamId,
	}, false)
	if err != nil {
		writeError(c, "OnPlaybackProgress", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// playbackStopRequest is the body of POST /sessions/:sessionId/playing/stopped.
type playbackStopRequest struct {
	ItemId        string `json:"itemId"`
	MediaSourceId string `json:"mediaSourceId"`
	PositionTicks *int64 `json:"positionTicks"`
	LiveStreamId  string `json:"liveStreamId"`
}

// OnPlaybackStopped handles POST /sessions/:sessionId/playing/stopped.
func (h *Handler) OnPlaybackStopped(c *gin.Context) {
	var req playbackStopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	err := h.mgr.OnPlaybackStopped(c.Request.Context(), &sessions.PlaybackStopInfo{
		SessionId:     c.Param("sessionId"),
		ItemId:        req.ItemId,
		MediaSourceId: req.MediaSourceId,
		PositionTicks: req.PositionTicks,
		LiveStreamId:  req.LiveStreamId,
	})
	if err != nil {
		writeError(c, "OnPlaybackStopped", err)
		return
	}
	c.Status(http.StatusNoContent)
}
