package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mantonx/viewra/internal/sessions"
)

// authenticateRequest is the body of POST /auth/new.
type authenticateRequest struct {
	UserId          string `json:"userId"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	AppName         string `json:"appName" binding:"required"`
	AppVersion      string `json:"appVersion" binding:"required"`
	DeviceId        string `json:"deviceId" binding:"required"`
	DeviceName      string `json:"deviceName" binding:"required"`
	EnforcePassword bool   `json:"enforcePassword"`
}

// AuthenticateNewSession handles POST /auth/new.
func (h *Handler) AuthenticateNewSession(c *gin.Context) {
	var req authenticateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.mgr.AuthenticateNewSession(c.Request.Context(), sessions.AuthenticationRequest{
		UserId:          req.UserId,
		Username:        req.Username,
		Password:        req.Password,
		AppName:         req.AppName,
		AppVersion:      req.AppVersion,
		DeviceId:        req.DeviceId,
		DeviceName:      req.DeviceName,
		RemoteEndPoint:  c.ClientIP(),
		EnforcePassword: req.EnforcePassword,
	})
	if err != nil {
		writeError(c, "AuthenticateNewSession", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// logoutRequest is the body of POST /auth/logout.
type logoutRequest struct {
	AccessToken string `json:"accessToken" binding:"required"`
}

// Logout handles POST /auth/logout.
func (h *Handler) Logout(c *gin.Context) {
	var req logoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.mgr.Logout(c.Request.Context(), req.AccessToken); err != nil {
		writeError(c, "Logout", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// revokeTokensRequest is the body of POST /auth/revoke.
type revokeTokensRequest struct {
	UserId             string `json:"userId" binding:"required"`
	CurrentAccessToken string `json:"currentAccessToken"`
}

// RevokeUserTokens handles POST /auth/revoke.
func (h *Handler) RevokeUserTokens(c *gin.Context) {
	var req revokeTokensRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.mgr.RevokeUserTokens(c.Request.Context(), req.UserId, req.CurrentAccessToken); err != nil {
		writeError(c, "RevokeUserTokens", err)
		return
	}
	c.Status(http.StatusNoContent)
}
