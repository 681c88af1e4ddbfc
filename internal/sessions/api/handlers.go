// Package api provides the HTTP surface for the Session Manager, organized
// by domain the way the teacher's playbackmodule/api package is:
//   - handlers.go: Handler struct, error mapping, activity/session endpoints
//   - playback_handlers.go: playback start/progress/stopped reporting
//   - control_handlers.go: remote-control command dispatch
//   - auth_handlers.go: authentication/logout/token revocation
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	viewraerrors "github.com/mantonx/viewra/internal/errors"
	"github.com/mantonx/viewra/internal/sessions"
	sessionerrors "github.com/mantonx/viewra/internal/sessions/errors"
)

// Handler serves the Session Manager's HTTP API on top of a *sessions.Manager.
type Handler struct {
	mgr *sessions.Manager
}

// NewHandler constructs a Handler bound to mgr.
func NewHandler(mgr *sessions.Manager) *Handler {
	return &Handler{mgr: mgr}
}

// viewraErrorFor maps a SessionError's kind onto the app-wide ViewraError
// HTTP boundary type, per the teacher's internal/errors convention.
func viewraErrorFor(op string, err error) *viewraerrors.ViewraError {
	switch sessionerrors.GetType(err) {
	case sessionerrors.ErrorTypeInvalidArgument:
		return viewraerrors.NewValidationError(err.Error(), op)
	case sessionerrors.ErrorTypeNotFound:
		return viewraerrors.NewNotFoundError("session", op)
	case sessionerrors.ErrorTypeSecurityDenied:
		return viewraerrors.NewSecurityDeniedError(err.Error(), err)
	case sessionerrors.ErrorTypeDisposed:
		return viewraerrors.NewDisposedError(op)
	default:
		return viewraerrors.NewInternalError(err.Error(), err)
	}
}

// writeError renders err in the app-wide ViewraError JSON shape.
func writeError(c *gin.Context, op string, err error) {
	viewraErrorFor(op, err).ToGinResponse(c)
}

// logActivityRequest is the body of POST /sessions/activity.
type logActivityRequest struct {
	AppName    string `json:"appName" binding:"required"`
	AppVersion string `json:"appVersion" binding:"required"`
	DeviceId   string `json:"deviceId" binding:"required"`
	DeviceName string `json:"deviceName" binding:"required"`
	UserId     string `json:"userId"`
	UserName   string `json:"userName"`
}

// LogSessionActivity handles POST /sessions/activity: creates or refreshes
// the session for (appName, deviceId).
func (h *Handler) LogSessionActivity(c *gin.Context) {
	var req logActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	var user *sessions.User
	if req.UserId != "" {
		user = &sessions.User{Id: req.UserId, Name: req.UserName}
	}

	session, err := h.mgr.LogSessionActivity(c.Request.Context(),
		req.AppName, req.AppVersion, req.DeviceId, req.DeviceName, c.ClientIP(), user)
	if err != nil {
		writeError(c, "LogSessionActivity", err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// Sessions handles GET /sessions: returns every live session ordered by
// last activity, descending.
func (h *Handler) Sessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sessions": h.mgr.Sessions()})
}

// GetSessionById handles GET /sessions/:sessionId.
func (h *Handler) GetSessionById(c *gin.Context) {
	session := h.mgr.GetSessionById(c.Param("sessionId"))
	if session == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, session)
}

// ReportSessionEnded handles DELETE /sessions/:sessionId.
func (h *Handler) ReportSessionEnded(c *gin.Context) {
	if err := h.mgr.ReportSessionEnded(c.Request.Context(), c.Param("sessionId")); err != nil {
		writeError(c, "ReportSessionEnded", err)
		return
	}
	c.Status(http.StatusNoContent)
}
