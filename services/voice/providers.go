package voice

import (
	"context"
	"sync"
)

// CaptureSink receives recognition events from a capture provider.
// Providers must never invoke sink methods synchronously from within
// Start, Stop or Abort.
type CaptureSink interface {
	OnInterimResult(text string)
	OnFinalResult(text string)
	OnError(kind ErrorKind)
	OnEnded()
}

// CaptureProvider is the injected speech capture port. Exactly one instance
// exists per session; the controller owns its lifecycle.
type CaptureProvider interface {
	Start(sink CaptureSink) error
	Stop()
	Abort()
}

// PlaybackProvider is the injected speech playback port. Speak blocks until
// playback completes or fails; Cancel interrupts an in-flight Speak.
type PlaybackProvider interface {
	Speak(ctx context.Context, text string) error
	Cancel()
}

// PushCaptureProvider adapts externally pushed transcript fragments (HTTP
// clients doing their own recognition) to the CaptureProvider port. Fragments
// pushed while the provider is inactive are dropped.
type PushCaptureProvider struct {
	mu     sync.Mutex
	sink   CaptureSink
	active bool
}

func NewPushCaptureProvider() *PushCaptureProvider {
	return &PushCaptureProvider{}
}

func (p *PushCaptureProvider) Start(sink CaptureSink) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sink = sink
	p.active = true
	return nil
}

func (p *PushCaptureProvider) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active = false
}

func (p *PushCaptureProvider) Abort() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active = false
}

// Active reports whether the provider is currently capturing.
func (p *PushCaptureProvider) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// PushInterim forwards an interim fragment to the controller.
func (p *PushCaptureProvider) PushInterim(text string) {
	if sink := p.activeSink(); sink != nil {
		sink.OnInterimResult(text)
	}
}

// PushFinal forwards a finalized fragment to the controller.
func (p *PushCaptureProvider) PushFinal(text string) {
	if sink := p.activeSink(); sink != nil {
		sink.OnFinalResult(text)
	}
}

func (p *PushCaptureProvider) activeSink() CaptureSink {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.active {
		return nil
	}
	return p.sink
}

// QueuedPlayback collects composed replies for a client that renders speech
// itself. Speak completes immediately; the client drains pending replies.
type QueuedPlayback struct {
	mu      sync.Mutex
	pending []string
}

func NewQueuedPlayback() *QueuedPlayback {
	return &QueuedPlayback{}
}

func (q *QueuedPlayback) Speak(_ context.Context, text string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, text)
	return nil
}

func (q *QueuedPlayback) Cancel() {}

// Drain returns and clears all pending replies.
func (q *QueuedPlayback) Drain() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.pending
	q.pending = nil
	return out
}
