package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mantonx/viewra/internal/sessions"
)

// generalCommandRequest is the body of POST /sessions/:sessionId/command.
type generalCommandRequest struct {
	ControllingSessionId string            `json:"controllingSessionId"`
	Name                 string            `json:"name" binding:"required"`
	Arguments            map[string]string `json:"arguments"`
}

// SendGeneralCommand handles POST /sessions/:sessionId/command.
func (h *Handler) SendGeneralCommand(c *gin.Context) {
	var req generalCommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	err := h.mgr.SendGeneralCommand(c.Request.Context(), req.ControllingSessionId, c.Param("sessionId"), sessions.GeneralCommand{
		Name:      req.Name,
		Arguments: req.Arguments,
	})
	if err != nil {
		writeError(c, "SendGeneralCommand", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// playstateCommandRequest is the body of POST
// /sessions/:sessionId/command/playstate.
type playstateCommandRequest struct {
	ControllingSessionId string `json:"controllingSessionId"`
	Command              string `json:"command" binding:"required"`
	SeekPositionTicks    int64  `json:"seekPositionTicks"`
}

// SendPlaystateCommand handles POST /sessions/:sessionId/command/playstate.
func (h *Handler) SendPlaystateCommand(c *gin.Context) {
	var req playstateCommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	err := h.mgr.SendPlaystateCommand(c.Request.Context(), req.ControllingSessionId, c.Param("sessionId"), sessions.PlaystateCommand{
		Command:           req.Command,
		SeekPositionTicks: req.SeekPositionTicks,
	})
	if err != nil {
		writeError(c, "SendPlaystateCommand", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// playCommandRequest is the body of POST /sessions/:sessionId/command/play.
type playCommandRequest struct {
	ControllingSessionId string                   `json:"controllingSessionId"`
	ItemIds              []string                 `json:"itemIds" binding:"required"`
	StartPositionTicks   int64                    `json:"startPositionTicks"`
	PlayCommand          sessions.PlayCommandVerb `json:"playCommand" binding:"required"`
}

// SendPlayCommand handles POST /sessions/:sessionId/command/play.
func (h *Handler) SendPlayCommand(c *gin.Context) {
	var req playCommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	err := h.mgr.SendPlayCommand(c.Request.Context(), req.ControllingSessionId, c.Param("sessionId"), sessions.PlayRequest{
		ItemIds:            req.ItemIds,
		StartPositionTicks: req.StartPositionTicks,
		PlayCommand:        req.PlayCommand,
	})
	if err != nil {
		writeError(c, "SendPlayCommand", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// messageCommandRequest is the body of POST /sessions/:sessionId/message.
type messageCommandRequest struct {
	ControllingSessionId string `json:"controllingSessionId"`
	Header               string `json:"header"`
	Text                 string `json:"text" binding:"required"`
	TimeoutMs            int64  `json:"timeoutMs"`
}

// SendMessageCommand handles POST /sessions/:sessionId/message.
func (h *Handler) SendMessageCommand(c *gin.Context) {
	var req messageCommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	err := h.mgr.SendMessageCommand(c.Request.Context(), req.ControllingSessionId, c.Param("sessionId"), req.Header, req.Text, req.TimeoutMs)
	if err != nil {
		writeError(c, "SendMessageCommand", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// browseCommandRequest is the body of POST /sessions/:sessionId/browse.
type browseCommandRequest struct {
	ControllingSessionId string `json:"controllingSessionId"`
	ItemId               string `json:"itemId" binding:"required"`
	ItemName             string `json:"itemName"`
	ItemType             string `json:"itemType"`
}

// SendBrowseCommand handles POST /sessions/:sessionId/browse.
func (h *Handler) SendBrowseCommand(c *gin.Context) {
	var req browseCommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	err := h.mgr.SendBrowseCommand(c.Request.Context(), req.ControllingSessionId, c.Param("sessionId"), req.ItemId, req.ItemName, req.ItemType)
	if err != nil {
		writeError(c, "SendBrowseCommand", err)
		return
	}
	c.Status(http.StatusNoContent)
}
