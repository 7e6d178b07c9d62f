package voice

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Timings are compressed so tests settle quickly but still leave generous
// margins around every window.
var testOpts = Options{
	SettleWindow:    20 * time.Millisecond,
	DuplicateWindow: 150 * time.Millisecond,
	RestartBackoff:  40 * time.Millisecond,
}

type mockCapture struct {
	mu       sync.Mutex
	active   bool
	starts   int
	aborts   int
	startErr error
}

func (m *mockCapture) Start(sink CaptureSink) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.startErr != nil {
		return m.startErr
	}
	m.active = true
	m.starts++
	return nil
}

func (m *mockCapture) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = false
}

func (m *mockCapture) Abort() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = false
	m.aborts++
}

func (m *mockCapture) isActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

func (m *mockCapture) startCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.starts
}

// mockPlayback records everything spoken and flags any moment where capture
// was still live while speech played.
type mockPlayback struct {
	mu        sync.Mutex
	capture   *mockCapture
	delay     time.Duration
	spoken    []string
	overlaps  int
	cancels   int
	returnErr error
}

func (m *mockPlayback) Speak(_ context.Context, text string) error {
	m.mu.Lock()
	m.spoken = append(m.spoken, text)
	if m.capture != nil && m.capture.isActive() {
		m.overlaps++
	}
	delay := m.delay
	err := m.returnErr
	m.mu.Unlock()

	time.Sleep(delay)

	m.mu.Lock()
	if m.capture != nil && m.capture.isActive() {
		m.overlaps++
	}
	m.mu.Unlock()
	return err
}

func (m *mockPlayback) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancels++
}

func (m *mockPlayback) spokenTexts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.spoken...)
}

func (m *mockPlayback) overlapCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.overlaps
}

type processRecorder struct {
	mu    sync.Mutex
	texts []string
	reply string
	err   error
	block chan struct{}
}

func (p *processRecorder) fn(_ context.Context, text string) (string, error) {
	p.mu.Lock()
	p.texts = append(p.texts, text)
	block := p.block
	reply, err := p.reply, p.err
	p.mu.Unlock()
	if block != nil {
		<-block
	}
	return reply, err
}

func (p *processRecorder) processed() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.texts...)
}

func newTestController(t *testing.T) (*Controller, *mockCapture, *mockPlayback, *processRecorder) {
	t.Helper()
	capture := &mockCapture{}
	playback := &mockPlayback{capture: capture}
	proc := &processRecorder{reply: "composed reply"}
	c := NewController(capture, playback, proc.fn, testOpts, nil)
	return c, capture, playback, proc
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

func TestControllerStartStop(t *testing.T) {
	c, capture, playback, _ := newTestController(t)

	require.NoError(t, c.Start())
	assert.Equal(t, StateListening, c.State())
	assert.True(t, capture.isActive())

	// Start while already listening is a no-op.
	require.NoError(t, c.Start())
	assert.Equal(t, 1, capture.startCount())

	c.Stop()
	assert.Equal(t, StateIdle, c.State())
	assert.False(t, capture.isActive())

	// Stop is idempotent.
	c.Stop()
	assert.Equal(t, StateIdle, c.State())
	assert.Zero(t, playback.cancels)
}

func TestControllerNilCapture(t *testing.T) {
	c := NewController(nil, &mockPlayback{}, func(context.Context, string) (string, error) {
		return "", nil
	}, testOpts, nil)

	err := c.Start()
	assert.ErrorIs(t, err, ErrCaptureUnsupported)
	assert.Equal(t, StateIdle, c.State())
}

func TestControllerStartError(t *testing.T) {
	capture := &mockCapture{startErr: errors.New("device busy")}
	c := NewController(capture, &mockPlayback{}, func(context.Context, string) (string, error) {
		return "", nil
	}, testOpts, nil)

	err := c.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "device busy")
	assert.Equal(t, StateIdle, c.State())
}

func TestControllerSettleProcessesUtterance(t *testing.T) {
	c, capture, playback, proc := newTestController(t)
	require.NoError(t, c.Start())

	c.OnFinalResult("hotel in split")

	waitFor(t, func() bool { return len(proc.processed()) == 1 }, "utterance to process")
	assert.Equal(t, []string{"hotel in split"}, proc.processed())

	waitFor(t, func() bool { return c.State() == StateListening }, "listening to resume")
	assert.Equal(t, []string{"composed reply"}, playback.spokenTexts())
	assert.True(t, capture.isActive())
	assert.Zero(t, playback.overlapCount())
}

func TestControllerSettleJoinsFragments(t *testing.T) {
	c, _, _, proc := newTestController(t)
	require.NoError(t, c.Start())

	// Two fragments inside one settle window become one utterance.
	c.OnFinalResult("hotel in")
	time.Sleep(testOpts.SettleWindow / 2)
	c.OnFinalResult("split for two")

	waitFor(t, func() bool { return len(proc.processed()) == 1 }, "utterance to process")
	assert.Equal(t, []string{"hotel in split for two"}, proc.processed())
}

func TestControllerHalfDuplexInvariant(t *testing.T) {
	c, capture, playback, _ := newTestController(t)
	playback.delay = 30 * time.Millisecond
	require.NoError(t, c.Start())

	for i := 0; i < 5; i++ {
		c.OnFinalResult(fmt.Sprintf("utterance number %d please", i))
		waitFor(t, func() bool { return len(playback.spokenTexts()) == i+1 }, "playback")
		waitFor(t, func() bool { return c.State() == StateListening }, "listening to resume")
		// Fragments arriving mid-cycle must not break the invariant either.
		c.OnInterimResult("background noise")
	}

	assert.Zero(t, playback.overlapCount())
	assert.Equal(t, 5, capture.aborts)
	assert.Equal(t, 6, capture.startCount())
}

func TestControllerDuplicateWindow(t *testing.T) {
	c, _, _, proc := newTestController(t)
	require.NoError(t, c.Start())

	c.OnFinalResult("book a hotel")
	waitFor(t, func() bool { return len(proc.processed()) == 1 }, "first utterance")
	waitFor(t, func() bool { return c.State() == StateListening }, "listening to resume")

	// Identical text inside the duplicate window is dropped.
	c.OnFinalResult("book a hotel")
	time.Sleep(testOpts.SettleWindow * 3)
	assert.Len(t, proc.processed(), 1)

	// Once the window passes, the same text is a genuine repeat.
	time.Sleep(testOpts.DuplicateWindow)
	c.OnFinalResult("book a hotel")
	waitFor(t, func() bool { return len(proc.processed()) == 2 }, "repeat after window")
}

func TestControllerDifferentTextInsideWindow(t *testing.T) {
	c, _, _, proc := newTestController(t)
	require.NoError(t, c.Start())

	c.OnFinalResult("book a hotel")
	waitFor(t, func() bool { return len(proc.processed()) == 1 }, "first utterance")
	waitFor(t, func() bool { return c.State() == StateListening }, "listening to resume")

	c.OnFinalResult("in split")
	waitFor(t, func() bool { return len(proc.processed()) == 2 }, "second utterance")
}

func TestControllerEmptyReplyResumesListening(t *testing.T) {
	c, capture, playback, proc := newTestController(t)
	proc.reply = ""
	require.NoError(t, c.Start())

	c.OnFinalResult("mumble")
	waitFor(t, func() bool { return len(proc.processed()) == 1 }, "utterance to process")
	waitFor(t, func() bool { return c.State() == StateListening }, "listening to resume")

	assert.Empty(t, playback.spokenTexts())
	// No speech means no capture teardown happened.
	assert.Zero(t, capture.aborts)
}

func TestControllerProcessErrorResumesListening(t *testing.T) {
	c, _, playback, proc := newTestController(t)
	proc.err = errors.New("engine down")
	require.NoError(t, c.Start())

	c.OnFinalResult("hotel in split")
	waitFor(t, func() bool { return len(proc.processed()) == 1 }, "utterance to process")
	waitFor(t, func() bool { return c.State() == StateListening }, "listening to resume")
	assert.Empty(t, playback.spokenTexts())
}

func TestControllerRestartBackoff(t *testing.T) {
	c, capture, _, _ := newTestController(t)
	require.NoError(t, c.Start())
	require.Equal(t, 1, capture.startCount())

	c.OnEnded()
	// Not yet: the backoff has to elapse first.
	time.Sleep(testOpts.RestartBackoff / 2)
	assert.Equal(t, 1, capture.startCount())

	waitFor(t, func() bool { return capture.startCount() == 2 }, "backoff restart")
	assert.Equal(t, StateListening, c.State())
}

func TestControllerTransientErrorRestarts(t *testing.T) {
	c, capture, _, _ := newTestController(t)
	require.NoError(t, c.Start())

	c.OnError(ErrKindNoSpeech)
	waitFor(t, func() bool { return capture.startCount() == 2 }, "restart after no-speech")

	c.OnError(ErrKindNetwork)
	waitFor(t, func() bool { return capture.startCount() == 3 }, "restart after network error")
}

func TestControllerAbortedErrorIsIgnored(t *testing.T) {
	c, capture, _, _ := newTestController(t)
	require.NoError(t, c.Start())

	c.OnError(ErrKindAborted)
	time.Sleep(testOpts.RestartBackoff * 2)
	assert.Equal(t, 1, capture.startCount())
	assert.Equal(t, StateListening, c.State())
}

func TestControllerFatalErrorDisablesRestart(t *testing.T) {
	for _, kind := range []ErrorKind{ErrKindPermissionDenied, ErrKindCaptureUnsupported} {
		t.Run(string(kind), func(t *testing.T) {
			c, capture, _, _ := newTestController(t)
			require.NoError(t, c.Start())

			c.OnError(kind)
			assert.Equal(t, StateIdle, c.State())

			// Neither provider ends nor transient errors bring it back.
			c.OnEnded()
			c.OnError(ErrKindNetwork)
			time.Sleep(testOpts.RestartBackoff * 2)
			assert.Equal(t, 1, capture.startCount())
			assert.Equal(t, StateIdle, c.State())

			// An explicit user Start is a fresh request and may try again.
			require.NoError(t, c.Start())
			assert.Equal(t, StateListening, c.State())
		})
	}
}

func TestControllerStopDuringProcessing(t *testing.T) {
	c, _, playback, proc := newTestController(t)
	proc.block = make(chan struct{})
	require.NoError(t, c.Start())

	c.OnFinalResult("hotel in split")
	waitFor(t, func() bool { return len(proc.processed()) == 1 }, "processing to begin")

	c.Stop()
	close(proc.block)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, StateIdle, c.State())
	assert.Empty(t, playback.spokenTexts())
}

func TestControllerRestartAfterEndDuringProcessing(t *testing.T) {
	c, capture, _, proc := newTestController(t)
	proc.block = make(chan struct{})
	proc.reply = ""
	require.NoError(t, c.Start())

	c.OnFinalResult("faint mumble")
	waitFor(t, func() bool { return len(proc.processed()) == 1 }, "processing to begin")

	// The provider dies mid-processing and the backoff elapses before the
	// pipeline returns; the restart must survive that gap.
	c.OnEnded()
	time.Sleep(testOpts.RestartBackoff * 2)
	require.Equal(t, 1, capture.startCount())

	close(proc.block)
	waitFor(t, func() bool { return capture.startCount() == 2 }, "capture restart after processing")
	assert.Equal(t, StateListening, c.State())
	assert.True(t, capture.isActive())
}

func TestControllerBuffersDuringProcessing(t *testing.T) {
	c, _, _, proc := newTestController(t)
	proc.block = make(chan struct{})
	require.NoError(t, c.Start())

	c.OnFinalResult("hotel in split")
	waitFor(t, func() bool { return len(proc.processed()) == 1 }, "processing to begin")

	// Arrives while the pipeline is busy; must queue, not spawn a second run.
	c.OnFinalResult("for two people")
	assert.Len(t, proc.processed(), 1)

	close(proc.block)
	waitFor(t, func() bool { return len(proc.processed()) == 2 }, "buffered fragment to process")
	assert.Equal(t, "for two people", proc.processed()[1])
}

func TestControllerPlaybackFailureFailsOpen(t *testing.T) {
	c, capture, playback, proc := newTestController(t)
	playback.returnErr = errors.New("speaker broken")
	require.NoError(t, c.Start())

	c.OnFinalResult("hotel in split")
	waitFor(t, func() bool { return len(proc.processed()) == 1 }, "utterance to process")
	waitFor(t, func() bool { return c.State() == StateListening }, "listening resumes despite playback failure")
	assert.True(t, capture.isActive())
}

func TestControllerRandomEventInterleavings(t *testing.T) {
	c, _, playback, _ := newTestController(t)
	playback.delay = 5 * time.Millisecond
	require.NoError(t, c.Start())

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		switch rng.Intn(6) {
		case 0:
			c.OnInterimResult(fmt.Sprintf("interim %d", i))
		case 1, 2:
			c.OnFinalResult(fmt.Sprintf("utterance %d about hotels", i))
		case 3:
			c.OnEnded()
		case 4:
			c.OnError(ErrKindNoSpeech)
		case 5:
			c.OnError(ErrKindNetwork)
		}
		if rng.Intn(3) == 0 {
			time.Sleep(time.Duration(rng.Intn(10)) * time.Millisecond)
		}
	}

	// Let in-flight settles and playbacks drain.
	time.Sleep(200 * time.Millisecond)
	c.Stop()

	assert.Zero(t, playback.overlapCount(), "capture and playback were active at the same time")
}

func TestControllerInterimStatus(t *testing.T) {
	c, _, _, _ := newTestController(t)
	var (
		mu       sync.Mutex
		statuses []string
	)
	c.SetStatusFunc(func(s string) {
		mu.Lock()
		statuses = append(statuses, s)
		mu.Unlock()
	})

	// Interim results before Start are dropped.
	c.OnInterimResult("too early")
	require.NoError(t, c.Start())
	c.OnInterimResult("hot")
	c.OnInterimResult("hotel in")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"hot", "hotel in"}, statuses)
}
