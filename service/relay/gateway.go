package relay

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"RelayGate/logger"
	"RelayGate/tools/errs"
)

// EmitRequest is the control-plane payload: exactly one of UserID,
// SessionID, or Room selects the target.
type EmitRequest struct {
	UserID    string          `json:"user_id"`
	SessionID string          `json:"session_id"`
	Room      string          `json:"room"`
	Event     string          `json:"event"`
	Data      json.RawMessage `json:"data"`
}

// HandleEmit lets the backend push an event to a user's connections (or a
// single session, or a room) without holding a transport connection itself.
func (s *Server) HandleEmit(c *gin.Context) {
	var req EmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid request body"})
		return
	}
	if req.Event == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Missing event"})
		return
	}
	if req.Data == nil {
		req.Data = json.RawMessage(`{}`)
	}

	var (
		sent int
		err  error
	)
	switch {
	case req.UserID != "":
		sent, err = s.EmitToUser(req.UserID, req.Event, req.Data)
	case req.SessionID != "":
		err = s.EmitToSession(req.SessionID, req.Event, req.Data)
		if err == nil {
			sent = 1
		}
	case req.Room != "":
		sent, err = s.BroadcastToRoom(req.Room, req.Event, req.Data, "")
	default:
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Must specify user_id, session_id, or room"})
		return
	}

	if err != nil {
		if errors.Is(err, errs.ErrTargetNotFound) {
			msg := "User not found"
			if req.SessionID != "" {
				msg = "Session not found"
			}
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": msg})
			return
		}
		logger.Errorf("[gateway] emit failed event=%s err=%v", req.Event, err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "sent": sent})
}

// HandleHealth reports liveness plus registry sizes.
func (s *Server) HandleHealth(c *gin.Context) {
	users, sessions := s.Stats()
	c.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"connected_users": users,
		"active_sessions": sessions,
	})
}
