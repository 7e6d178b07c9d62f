package voice

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"concierge/services/conversation"
)

// State is the controller's position in the half-duplex turn cycle.
type State int

const (
	StateIdle State = iota
	StateListening
	StateDebouncing
	StateSpeaking
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateDebouncing:
		return "debouncing"
	case StateSpeaking:
		return "speaking"
	}
	return "unknown"
}

// Options tunes the controller's timing behavior.
type Options struct {
	// SettleWindow is how long after the last final fragment the buffer is
	// considered a complete utterance.
	SettleWindow time.Duration
	// DuplicateWindow suppresses re-processing an identical utterance that
	// arrives again within this span (recognizer echo).
	DuplicateWindow time.Duration
	// RestartBackoff delays capture restart after a provider-initiated end.
	RestartBackoff time.Duration
}

func (o Options) withDefaults() Options {
	if o.SettleWindow <= 0 {
		o.SettleWindow = 500 * time.Millisecond
	}
	if o.DuplicateWindow <= 0 {
		o.DuplicateWindow = 1500 * time.Millisecond
	}
	if o.RestartBackoff <= 0 {
		o.RestartBackoff = 600 * time.Millisecond
	}
	return o
}

// ProcessFunc turns a finalized utterance into the assistant's reply.
// An empty reply means nothing should be spoken.
type ProcessFunc func(ctx context.Context, text string) (string, error)

// StatusFunc receives live status text (interim transcripts, error notes).
type StatusFunc func(status string)

// RecognitionBuffer accumulates partial recognition results until the settle
// window elapses.
type RecognitionBuffer struct {
	Interim     string
	Final       string
	LastFinalAt time.Time
}

// Controller coordinates one session's capture/playback lifecycle as an
// explicit state machine. Capture and playback are never concurrently
// active: capture is aborted before playback starts and restarted only after
// playback finishes. All event handling is serialized on one mutex, which is
// the concurrency model the rest of the engine assumes.
type Controller struct {
	mu sync.Mutex

	state    State
	capture  CaptureProvider
	playback PlaybackProvider
	process  ProcessFunc
	onStatus StatusFunc
	opts     Options
	logger   *zap.Logger
	now      func() time.Time

	buffer          RecognitionBuffer
	settleTimer     *time.Timer
	settleGen       int
	restartTimer    *time.Timer
	wantListening   bool
	restartDisabled bool
	lastProcessed   string
	lastProcessedAt time.Time
}

// NewController wires a controller to its providers. capture may be nil, in
// which case Start reports ErrCaptureUnsupported.
func NewController(capture CaptureProvider, playback PlaybackProvider, process ProcessFunc, opts Options, logger *zap.Logger) *Controller {
	return &Controller{
		capture:  capture,
		playback: playback,
		process:  process,
		opts:     opts.withDefaults(),
		logger:   logger,
		now:      time.Now,
	}
}

// SetStatusFunc registers the live status callback.
func (c *Controller) SetStatusFunc(fn StatusFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onStatus = fn
}

// State returns the current FSM state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start begins listening. It is a no-op when already active. Errors are
// fatal to the session: ErrCaptureUnsupported when no provider exists,
// ErrPermissionDenied when the provider rejects access; both permanently
// disable auto-restart.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateIdle {
		return nil
	}
	if c.capture == nil {
		c.restartDisabled = true
		return ErrCaptureUnsupported
	}
	if c.restartDisabled {
		// A fatal capture error happened earlier in this session; an
		// explicit Start is the user asking to try again.
		c.restartDisabled = false
	}

	c.wantListening = true
	if err := c.capture.Start(c); err != nil {
		c.wantListening = false
		c.restartDisabled = true
		return fmt.Errorf("start capture: %w", err)
	}
	c.state = StateListening
	return nil
}

// Stop cancels any pending settle timer, aborts capture and playback, and
// forces the controller to Idle. Idempotent. A capture provider that never
// reports ended after this is tolerated; its late events are ignored.
func (c *Controller) Stop() {
	c.mu.Lock()
	prevState := c.state
	c.wantListening = false
	c.cancelTimersLocked()
	c.buffer = RecognitionBuffer{}
	c.state = StateIdle
	c.mu.Unlock()

	switch prevState {
	case StateIdle:
	case StateSpeaking:
		c.playback.Cancel()
	default:
		c.capture.Abort()
	}
}

// OnInterimResult implements CaptureSink. Interim fragments only feed the
// live status display.
func (c *Controller) OnInterimResult(text string) {
	c.mu.Lock()
	if c.state != StateListening {
		c.mu.Unlock()
		return
	}
	c.buffer.Interim = text
	status := c.onStatus
	c.mu.Unlock()

	if status != nil {
		status(text)
	}
}

// OnFinalResult implements CaptureSink. Final fragments append to the
// recognition buffer and (re)arm the settle timer; a fragment arriving while
// an earlier one is being processed extends the buffer instead of spawning a
// second pipeline.
func (c *Controller) OnFinalResult(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateListening && c.state != StateDebouncing {
		return
	}
	c.buffer.Final += text + " "
	c.buffer.Interim = ""
	c.buffer.LastFinalAt = c.now()
	c.armSettleTimerLocked()
}

// OnError implements CaptureSink.
func (c *Controller) OnError(kind ErrorKind) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case kind.fatal():
		c.restartDisabled = true
		c.wantListening = false
		c.cancelTimersLocked()
		if c.state == StateListening || c.state == StateDebouncing {
			c.state = StateIdle
		}
		if c.logger != nil {
			c.logger.Warn("capture failed permanently", zap.String("kind", string(kind)))
		}
	case kind == ErrKindAborted:
		// Expected after our own Abort; nothing to do.
	default:
		// no-speech and transport hiccups retry silently.
		c.scheduleRestartLocked()
	}
}

// OnEnded implements CaptureSink. A provider-initiated end while we still
// want to listen triggers a delayed restart.
func (c *Controller) OnEnded() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scheduleRestartLocked()
}

// armSettleTimerLocked (re)starts the settle timer, guaranteeing at most one
// is pending.
func (c *Controller) armSettleTimerLocked() {
	if c.settleTimer != nil {
		c.settleTimer.Stop()
	}
	c.settleGen++
	gen := c.settleGen
	c.settleTimer = time.AfterFunc(c.opts.SettleWindow, func() {
		c.settle(gen)
	})
}

func (c *Controller) cancelTimersLocked() {
	c.settleGen++
	if c.settleTimer != nil {
		c.settleTimer.Stop()
		c.settleTimer = nil
	}
	if c.restartTimer != nil {
		c.restartTimer.Stop()
		c.restartTimer = nil
	}
}

func (c *Controller) scheduleRestartLocked() {
	if !c.wantListening || c.restartDisabled {
		return
	}
	if c.state != StateListening && c.state != StateDebouncing {
		return
	}
	if c.restartTimer != nil {
		return
	}
	c.restartTimer = time.AfterFunc(c.opts.RestartBackoff, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.restartTimer = nil
		if !c.wantListening || c.restartDisabled {
			return
		}
		if c.state == StateDebouncing {
			// Processing is in flight; the restart must not be dropped or
			// the session would resume listening on a dead provider.
			c.scheduleRestartLocked()
			return
		}
		if c.state != StateListening {
			return
		}
		if err := c.capture.Start(c); err != nil {
			c.restartDisabled = true
			c.state = StateIdle
			if c.logger != nil {
				c.logger.Warn("capture restart failed", zap.Error(err))
			}
		}
	})
}

// settle fires when the settle window elapses: the buffered text becomes one
// finalized utterance and runs through the pipeline.
func (c *Controller) settle(gen int) {
	c.mu.Lock()
	if gen != c.settleGen || c.state != StateListening {
		c.mu.Unlock()
		return
	}
	text := strings.TrimSpace(c.buffer.Final)
	c.buffer = RecognitionBuffer{}
	if text == "" {
		c.mu.Unlock()
		return
	}

	// Recognizer echo: the same utterance finalized twice in quick
	// succession is processed only once.
	deduped := conversation.CollapseRepeats(conversation.Normalize(text), 1)
	now := c.now()
	if deduped == c.lastProcessed && now.Sub(c.lastProcessedAt) < c.opts.DuplicateWindow {
		c.mu.Unlock()
		return
	}
	c.lastProcessed = deduped
	c.lastProcessedAt = now
	c.state = StateDebouncing
	c.mu.Unlock()

	reply, err := c.process(context.Background(), text)

	c.mu.Lock()
	if c.state != StateDebouncing {
		// Stopped while processing.
		c.mu.Unlock()
		return
	}
	if err != nil || reply == "" {
		if err != nil && c.logger != nil {
			c.logger.Warn("utterance processing failed", zap.Error(err))
		}
		c.state = StateListening
		c.resumeBufferedLocked()
		c.mu.Unlock()
		return
	}

	// Half-duplex: capture goes fully down before playback starts.
	c.capture.Abort()
	c.state = StateSpeaking
	playback := c.playback
	c.mu.Unlock()

	if err := playback.Speak(context.Background(), reply); err != nil && c.logger != nil {
		// Fail-open: a broken speaker must not kill the conversation.
		c.logger.Warn("playback failed, resuming capture", zap.Error(err))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateSpeaking {
		return
	}
	if c.wantListening && !c.restartDisabled {
		// Capture is restarted right here; a pending backoff restart from a
		// provider end during processing would double-start it.
		if c.restartTimer != nil {
			c.restartTimer.Stop()
			c.restartTimer = nil
		}
		if err := c.capture.Start(c); err != nil {
			c.restartDisabled = true
			c.state = StateIdle
			if c.logger != nil {
				c.logger.Warn("capture restart after playback failed", zap.Error(err))
			}
			return
		}
		c.state = StateListening
		c.resumeBufferedLocked()
		return
	}
	c.state = StateIdle
}

// resumeBufferedLocked re-arms the settle timer when fragments accumulated
// while the pipeline was busy.
func (c *Controller) resumeBufferedLocked() {
	if strings.TrimSpace(c.buffer.Final) != "" {
		c.armSettleTimerLocked()
	}
}
