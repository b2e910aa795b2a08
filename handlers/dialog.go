package handlers

import (
	"errors"
	"net/http"
	"time"

	"aerovoice/services/dialog"
	"aerovoice/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DialogHandler exposes the conversation flow engine over HTTP.
type DialogHandler struct {
	Engine dialog.Engine
	Logger *zap.Logger
}

func NewDialogHandler(engine dialog.Engine, logger *zap.Logger) *DialogHandler {
	return &DialogHandler{Engine: engine, Logger: logger}
}

type turnInput struct {
	Text      string `json:"text" binding:"required"`
	Timestamp string `json:"timestamp"`
}

// turnTime parses the client-supplied turn timestamp, falling back to server
// time. Relative dates in the utterance resolve against this instant.
func turnTime(in turnInput) time.Time {
	if in.Timestamp != "" {
		if at, err := time.Parse(time.RFC3339, in.Timestamp); err == nil {
			return at
		}
	}
	return time.Now()
}

// StartSessionHandler opens a new dialog session and returns its bearer token.
func (h *DialogHandler) StartSessionHandler(c *gin.Context) {
	sess, err := h.Engine.StartSession(c.Request.Context())
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to start session", err.Error())
		return
	}

	token, err := utils.GenerateSessionToken(sess.SessionID, utils.SessionTokenTTL)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to issue session token", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessionID": sess.SessionID,
		"stage":     sess.Stage,
		"token":     token,
	})
}

// ProcessTurnHandler runs one user utterance through the engine.
func (h *DialogHandler) ProcessTurnHandler(c *gin.Context) {
	sessionID := c.Param("sessionID")
	var input turnInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	outcome, err := h.Engine.ProcessTurn(c.Request.Context(), sessionID, input.Text, turnTime(input))
	if err != nil {
		if errors.Is(err, dialog.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found or expired"})
			return
		}
		h.Logger.Error("turn processing failed", zap.Error(err), zap.String("sessionId", sessionID))
		utils.JSONError(c, http.StatusInternalServerError, "failed to process turn", err.Error())
		return
	}

	c.JSON(http.StatusOK, outcome)
}

// RecordUtteranceHandler appends an externally rendered system utterance to
// the session history.
func (h *DialogHandler) RecordUtteranceHandler(c *gin.Context) {
	sessionID := c.Param("sessionID")
	var input turnInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	if err := h.Engine.RecordSystemUtterance(c.Request.Context(), sessionID, input.Text, turnTime(input)); err != nil {
		if errors.Is(err, dialog.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found or expired"})
			return
		}
		utils.JSONError(c, http.StatusInternalServerError, "failed to record utterance", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "recorded"})
}

// GetSessionHandler returns the current session snapshot.
func (h *DialogHandler) GetSessionHandler(c *gin.Context) {
	sessionID := c.Param("sessionID")
	sess, err := h.Engine.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, dialog.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found or expired"})
			return
		}
		utils.JSONError(c, http.StatusInternalServerError, "failed to fetch session", err.Error())
		return
	}

	c.JSON(http.StatusOK, sess)
}

// ResetSessionHandler discards the booking record and restarts the flow.
func (h *DialogHandler) ResetSessionHandler(c *gin.Context) {
	sessionID := c.Param("sessionID")
	if err := h.Engine.ResetSession(c.Request.Context(), sessionID); err != nil {
		if errors.Is(err, dialog.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found or expired"})
			return
		}
		utils.JSONError(c, http.StatusInternalServerError, "failed to reset session", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}
