package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	transcriptRepo "concierge/database/repository/transcript"
	"concierge/services/conversation"
	"concierge/services/voice"
)

// ConversationHandler exposes the slot-filling pipeline over HTTP.
type ConversationHandler struct {
	Engine     conversation.Engine
	Manager    *voice.Manager
	Transcript transcriptRepo.Repository
}

func NewConversationHandler(engine conversation.Engine, manager *voice.Manager, transcript transcriptRepo.Repository) *ConversationHandler {
	return &ConversationHandler{Engine: engine, Manager: manager, Transcript: transcript}
}

// PostUtterance runs one text utterance through the full pipeline and
// returns the extracted slots, merged context, reply and dispatch result.
func (h *ConversationHandler) PostUtterance(c *gin.Context) {
	session, err := h.Manager.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	var input struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	if strings.TrimSpace(input.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "utterance text is empty"})
		return
	}

	result, err := h.Engine.ProcessUtterance(c.Request.Context(), session.ID, session.Locale, input.Text)
	if err != nil {
		getLogger(c).Error("utterance processing failed", zap.String("sessionId", session.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process utterance", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetContext returns the session's current conversation context.
func (h *ConversationHandler) GetContext(c *gin.Context) {
	session, err := h.Manager.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	ctx, err := h.Engine.Context(c.Request.Context(), session.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load context", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, ctx)
}

// GetTranscript returns the session's archived turns, oldest first.
func (h *ConversationHandler) GetTranscript(c *gin.Context) {
	session, err := h.Manager.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	if h.Transcript == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "transcript archiving is not enabled"})
		return
	}

	records, err := h.Transcript.GetBySessionID(c.Request.Context(), session.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load transcript", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"turns": records})
}
