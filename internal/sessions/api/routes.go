package api

import (
	"github.com/gin-gonic/gin"

	"github.com/mantonx/viewra/internal/sessions"
)

// RegisterRoutes mounts the Session Manager's REST surface on router.
// Transport upgrade endpoints (WebSocket, long-poll) are registered
// separately by the process that constructs the transport factories, since
// this package only depends on the core Manager.
func RegisterRoutes(router *gin.Engine, mgr *sessions.Manager) {
	h := NewHandler(mgr)

	sessionsGroup := router.Group("/sessions")
	{
		sessionsGroup.POST("/activity", h.LogSessionActivity)
		sessionsGroup.GET("", h.Sessions)
		sessionsGroup.GET("/:sessionId", h.GetSessionById)
		sessionsGroup.DELETE("/:sessionId", h.ReportSessionEnded)

		sessionsGroup.POST("/:sessionId/playing", h.OnPlaybackStart)
		sessionsGroup.POST("/:sessionId/playing/progress", h.OnPlaybackProgress)
		sessionsGroup.POST("/:sessionId/playing/stopped", h.OnPlaybackStopped)

		sessionsGroup.POST("/:sessionId/command", h.SendGeneralCommand)
		sessionsGroup.POST("/:sessionId/command/playstate", h.SendPlaystateCommand)
		sessionsGroup.POST("/:sessionId/command/play", h.SendPlayCommand)
		sessionsGroup.POST("/:sessionId/message", h.SendMessageCommand)
		sessionsGroup.POST("/:sessionId/browse", h.SendBrowseCommand)
	}

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/new", h.AuthenticateNewSession)
		authGroup.POST("/logout", h.Logout)
		authGroup.POST("/revoke", h.RevokeUserTokens)
	}
}
