package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"concierge/config"
	"concierge/models"
	"concierge/services/voice"
	"concierge/utils"
)

// SessionHandler exposes the conversation session lifecycle.
type SessionHandler struct {
	Manager *voice.Manager
}

func NewSessionHandler(manager *voice.Manager) *SessionHandler {
	return &SessionHandler{Manager: manager}
}

// CreateSession starts a new conversation session and returns its bearer token.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var input struct {
		Locale string `json:"locale"`
	}
	// The body is optional; an empty one means default locale.
	_ = c.ShouldBindJSON(&input)
	if input.Locale == "" {
		input.Locale = config.AppConfig.DefaultLocale
	}

	session := h.Manager.Create(input.Locale)

	ttl := time.Duration(config.AppConfig.SessionTokenTTLMinutes) * time.Minute
	token, err := utils.GenerateSessionToken(session.ID, session.Locale, ttl)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue session token", "details": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"session": models.SessionInfo{ID: session.ID, Locale: session.Locale, CreatedAt: session.CreatedAt},
		"token":   token,
	})
}

// EndSession stops the session and clears its conversation state.
func (h *SessionHandler) EndSession(c *gin.Context) {
	id := c.Param("id")
	if err := h.Manager.End(c.Request.Context(), id); err != nil {
		if errors.Is(err, voice.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to end session", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ended"})
}

// StartListening transitions the session's turn controller to listening.
func (h *SessionHandler) StartListening(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	if err := session.Controller.Start(); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, voice.ErrCaptureUnsupported) || errors.Is(err, voice.ErrPermissionDenied) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": "failed to start listening", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": session.Controller.State().String()})
}

// StopListening forces the controller back to idle. Idempotent.
func (h *SessionHandler) StopListening(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	session.Controller.Stop()
	c.JSON(http.StatusOK, gin.H{"state": session.Controller.State().String()})
}

// PushFragment feeds one recognition fragment into the capture pipeline.
// Interim fragments update status only; final fragments are debounced into
// utterances by the controller.
func (h *SessionHandler) PushFragment(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var input struct {
		Text  string `json:"text" binding:"required"`
		Final bool   `json:"final"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	if input.Final {
		session.Capture.PushFinal(input.Text)
	} else {
		session.Capture.PushInterim(input.Text)
	}
	c.JSON(http.StatusAccepted, gin.H{"state": session.Controller.State().String()})
}

// PendingReplies drains composed replies queued for client-side playback.
func (h *SessionHandler) PendingReplies(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"replies": session.Playback.Drain(),
		"state":   session.Controller.State().String(),
	})
}

func (h *SessionHandler) session(c *gin.Context) (*voice.Session, bool) {
	session, err := h.Manager.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return nil, false
	}
	return session, true
}
