package voice

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"concierge/services/conversation"
)

// Session owns the per-conversation voice plumbing: one controller, one
// capture provider instance and one playback provider instance. Providers
// are created exactly once, at session creation.
type Session struct {
	ID        string
	Locale    string
	CreatedAt time.Time

	Controller *Controller
	Capture    *PushCaptureProvider
	Playback   *QueuedPlayback
}

// Manager creates and tracks voice sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	engine conversation.Engine
	opts   Options
	logger *zap.Logger
}

func NewManager(engine conversation.Engine, opts Options, logger *zap.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		engine:   engine,
		opts:     opts,
		logger:   logger,
	}
}

// Create builds a new session with its own provider pair and controller.
func (m *Manager) Create(locale string) *Session {
	id := uuid.New().String()
	capture := NewPushCaptureProvider()
	playback := NewQueuedPlayback()

	process := func(ctx context.Context, text string) (string, error) {
		result, err := m.engine.ProcessUtterance(ctx, id, locale, text)
		if err != nil {
			return "", err
		}
		return result.Reply, nil
	}

	session := &Session{
		ID:         id,
		Locale:     locale,
		CreatedAt:  time.Now(),
		Controller: NewController(capture, playback, process, m.opts, m.logger),
		Capture:    capture,
		Playback:   playback,
	}

	m.mu.Lock()
	m.sessions[id] = session
	m.mu.Unlock()

	if m.logger != nil {
		m.logger.Info("session created", zap.String("sessionId", id), zap.String("locale", locale))
	}
	return session
}

// Get returns a session by ID.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// End stops the session's controller, clears its conversation state and
// forgets it.
func (m *Manager) End(ctx context.Context, id string) error {
	m.mu.Lock()
	session, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	session.Controller.Stop()
	if err := m.engine.Reset(ctx, id); err != nil {
		return err
	}
	if m.logger != nil {
		m.logger.Info("session ended", zap.String("sessionId", id))
	}
	return nil
}
