package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	transcriptRepo "concierge/database/repository/transcript"
	"concierge/models"
)

// Engine runs the full per-turn pipeline: normalize, extract, merge,
// dispatch, compose. One instance serves all sessions; per-session state
// lives in the ContextStore.
type Engine interface {
	ProcessUtterance(ctx context.Context, sessionID, locale, rawText string) (*models.TurnResult, error)
	Context(ctx context.Context, sessionID string) (models.ConversationContext, error)
	Reset(ctx context.Context, sessionID string) error
}

// DefaultEngine is the production Engine. Transcript is optional; a nil
// repository simply skips archiving.
type DefaultEngine struct {
	Store      ContextStore
	Dispatcher *Dispatcher
	Transcript transcriptRepo.Repository
	Policy     MergePolicy
	Logger     *zap.Logger
}

func (e *DefaultEngine) ProcessUtterance(ctx context.Context, sessionID, locale, rawText string) (*models.TurnResult, error) {
	state, err := e.Store.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load context: %w", err)
	}

	loc := LocaleFor(locale)
	normalized := CollapseRepeats(Normalize(rawText), 1)
	utterance := models.Utterance{
		Speaker:        models.SpeakerUser,
		RawText:        rawText,
		NormalizedText: normalized,
		Timestamp:      time.Now(),
	}

	slots := NewExtractor(loc).Extract(rawText, state.Context)
	merged := Merge(state.Context, slots, e.Policy)
	merged, dispatch := e.Dispatcher.MaybeDispatch(merged)
	reply := NewComposer(loc).Compose(merged, slots, state.LastReply)

	state.Context = merged
	state.LastReply = reply
	if err := e.Store.Set(ctx, sessionID, state); err != nil {
		return nil, fmt.Errorf("save context: %w", err)
	}

	e.archiveTurn(ctx, sessionID, utterance, reply, dispatch)

	if e.Logger != nil {
		e.Logger.Debug("processed utterance",
			zap.String("sessionId", sessionID),
			zap.String("normalized", normalized),
			zap.String("location", merged.Location),
			zap.String("pending", string(merged.Pending)),
			zap.String("dispatch", string(dispatch.Outcome)),
		)
	}

	return &models.TurnResult{
		Utterance: utterance,
		Slots:     slots,
		Context:   merged,
		Reply:     reply,
		Dispatch:  dispatch,
	}, nil
}

func (e *DefaultEngine) Context(ctx context.Context, sessionID string) (models.ConversationContext, error) {
	state, err := e.Store.Get(ctx, sessionID)
	if err != nil {
		return models.ConversationContext{}, fmt.Errorf("load context: %w", err)
	}
	return state.Context, nil
}

func (e *DefaultEngine) Reset(ctx context.Context, sessionID string) error {
	if err := e.Store.Clear(ctx, sessionID); err != nil {
		return fmt.Errorf("clear context: %w", err)
	}
	if e.Transcript != nil {
		if err := e.Transcript.DeleteBySessionID(ctx, sessionID); err != nil && e.Logger != nil {
			e.Logger.Warn("transcript purge failed", zap.String("sessionId", sessionID), zap.Error(err))
		}
	}
	return nil
}

// archiveTurn records the turn to the transcript store, best effort.
func (e *DefaultEngine) archiveTurn(ctx context.Context, sessionID string, u models.Utterance, reply string, dispatch models.DispatchResult) {
	if e.Transcript == nil || strings.TrimSpace(u.RawText) == "" {
		return
	}
	record := models.TurnRecord{
		SessionID:      sessionID,
		Speaker:        models.SpeakerUser,
		RawText:        u.RawText,
		NormalizedText: u.NormalizedText,
		Reply:          reply,
		DispatchURL:    dispatch.URL,
		CreatedAt:      u.Timestamp,
	}
	if _, err := e.Transcript.Create(ctx, record); err != nil && e.Logger != nil {
		e.Logger.Warn("transcript archive failed", zap.String("sessionId", sessionID), zap.Error(err))
	}
}
