package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"concierge/config"
	"concierge/services/conversation"
	"concierge/services/voice"
)

func init() {
	gin.SetMode(gin.TestMode)
	config.AppConfig.DefaultLocale = "en"
	config.AppConfig.SessionTokenTTLMinutes = 120
}

func newTestStack(t *testing.T) (*gin.Engine, *voice.Manager, *SessionHandler, *ConversationHandler) {
	t.Helper()
	engine := &conversation.DefaultEngine{
		Store: conversation.NewMemoryContextStore(),
		Dispatcher: &conversation.Dispatcher{
			BaseURL:  "https://example.com/search",
			Launcher: conversation.LauncherFunc(func(string) error { return nil }),
		},
	}
	manager := voice.NewManager(engine, voice.Options{}, nil)
	sh := NewSessionHandler(manager)
	ch := NewConversationHandler(engine, manager, nil)

	router := gin.New()
	router.POST("/api/sessions", sh.CreateSession)
	router.DELETE("/api/sessions/:id", sh.EndSession)
	router.POST("/api/sessions/:id/listen", sh.StartListening)
	router.DELETE("/api/sessions/:id/listen", sh.StopListening)
	router.PUT("/api/sessions/:id/listen", sh.PushFragment)
	router.GET("/api/sessions/:id/replies", sh.PendingReplies)
	router.POST("/api/sessions/:id/utterance", ch.PostUtterance)
	router.GET("/api/sessions/:id/context", ch.GetContext)
	router.GET("/api/sessions/:id/transcript", ch.GetTranscript)
	return router, manager, sh, ch
}

func doJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateSession(t *testing.T) {
	router, _, _, _ := newTestStack(t)

	w := doJSON(router, http.MethodPost, "/api/sessions", gin.H{"locale": "hr"})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Session struct {
			ID     string `json:"id"`
			Locale string `json:"locale"`
		} `json:"session"`
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Session.ID)
	assert.Equal(t, "hr", resp.Session.Locale)
	assert.NotEmpty(t, resp.Token)
}

func TestCreateSessionDefaultLocale(t *testing.T) {
	router, _, _, _ := newTestStack(t)

	w := doJSON(router, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"locale":"en"`)
}

func TestEndSession(t *testing.T) {
	router, manager, _, _ := newTestStack(t)
	s := manager.Create("en")

	w := doJSON(router, http.MethodDelete, "/api/sessions/"+s.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodDelete, "/api/sessions/"+s.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListenLifecycle(t *testing.T) {
	router, manager, _, _ := newTestStack(t)
	s := manager.Create("en")

	w := doJSON(router, http.MethodPost, "/api/sessions/"+s.ID+"/listen", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"state":"listening"`)
	assert.True(t, s.Capture.Active())

	w = doJSON(router, http.MethodDelete, "/api/sessions/"+s.ID+"/listen", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"state":"idle"`)
	assert.False(t, s.Capture.Active())
}

func TestPushFragmentValidation(t *testing.T) {
	router, manager, _, _ := newTestStack(t)
	s := manager.Create("en")

	w := doJSON(router, http.MethodPut, "/api/sessions/"+s.ID+"/listen", gin.H{"final": true})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodPut, "/api/sessions/"+s.ID+"/listen", gin.H{"text": "hotel in split", "final": true})
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = doJSON(router, http.MethodPut, "/api/sessions/unknown/listen", gin.H{"text": "x", "final": true})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPendingRepliesEmpty(t *testing.T) {
	router, manager, _, _ := newTestStack(t)
	s := manager.Create("en")

	w := doJSON(router, http.MethodGet, "/api/sessions/"+s.ID+"/replies", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Replies []string `json:"replies"`
		State   string   `json:"state"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Replies)
	assert.Equal(t, "idle", resp.State)
}
