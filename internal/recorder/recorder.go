// Package recorder owns the automated screen-capture pipeline: a
// background capture loop that encodes frames to video at a fixed
// cadence while driving periodic UI automation and watching for the
// visual completion signature.
package recorder

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"jordanella.com/chat-bridge-go/internal/actuator"
	"jordanella.com/chat-bridge-go/internal/cv"
	"jordanella.com/chat-bridge-go/internal/events"
	"jordanella.com/chat-bridge-go/internal/logging"
	"jordanella.com/chat-bridge-go/pkg/templates"
)

// ErrAlreadyRecording is returned when Start is called while a
// session is active. At most one session runs per recorder.
var ErrAlreadyRecording = errors.New("a recording session is already active")

// Locator resolves named reference templates against a frame.
// Implemented by templates.Registry; faked in tests.
type Locator interface {
	Locate(frame *image.RGBA, name string) cv.Outcome
	Get(name string) (templates.Template, bool)
}

// CompletionHandler receives the finalized artifact path. It is
// invoked synchronously from the capture goroutine's finalize step,
// so implementations must only schedule work, never block.
type CompletionHandler func(artifactPath string)

// Recorder runs at most one capture session at a time. Start spawns
// the worker goroutine; Stop requests cooperative shutdown; Wait
// joins with a timeout. Status may be queried from any goroutine.
type Recorder struct {
	capturer cv.Capturer
	locator  Locator
	act      actuator.Actuator
	opts     Options
	log      *logging.Logger

	bus        events.EventBus
	onComplete CompletionHandler

	mu         sync.Mutex
	active     bool
	cur        *session
	done       chan struct{}
	elapsed    time.Duration
	frames     int
	lastReason StopReason

	stopRequested atomic.Bool
}

// NewRecorder creates a recorder. The actuator may be actuator.Nop
// for headless use; automation actions then degrade to no-ops.
func NewRecorder(capturer cv.Capturer, locator Locator, act actuator.Actuator, opts Options) *Recorder {
	opts.sanitize()
	return &Recorder{
		capturer: capturer,
		locator:  locator,
		act:      act,
		opts:     opts,
		log:      logging.NewLogger("Recorder"),
	}
}

// WithEventBus publishes session lifecycle events to bus.
func (r *Recorder) WithEventBus(bus events.EventBus) *Recorder {
	r.bus = bus
	return r
}

// WithLogger replaces the default logger.
func (r *Recorder) WithLogger(log *logging.Logger) *Recorder {
	r.log = log
	return r
}

// OnComplete registers the completion handler invoked with the
// artifact path once Finalizing ends with an artifact on disk.
func (r *Recorder) OnComplete(handler CompletionHandler) *Recorder {
	r.onComplete = handler
	return r
}

// Start begins recording the given screen region and returns the
// artifact path the session will produce. Rejected with
// ErrAlreadyRecording while a session is active; a rejected start has
// no side effects on the running session.
func (r *Recorder) Start(region cv.Region) (string, error) {
	if region.Empty() {
		return "", fmt.Errorf("invalid capture region %+v", region)
	}

	r.mu.Lock()
	if r.active {
		r.mu.Unlock()
		return "", ErrAlreadyRecording
	}

	id := ulid.Make().String()
	s := &session{
		id:        id,
		region:    region,
		artifact:  filepath.Join(r.opts.OutputDir, fmt.Sprintf("recording_%s.avi", id)),
		startedAt: time.Now(),
	}

	r.active = true
	r.cur = s
	r.frames = 0
	r.elapsed = 0
	r.done = make(chan struct{})
	r.stopRequested.Store(false)
	r.mu.Unlock()

	// The scroll anchor is resolved once, before the loop starts; a
	// template miss here disables scrolling for the whole session.
	if frame, err := r.capturer.CaptureRegion(region); err == nil {
		s.scrollAnchor = r.resolveScrollAnchor(region, frame)
	} else {
		r.log.WarnWithContext("could not capture frame for anchor resolution", map[string]interface{}{
			"error": err.Error(),
		})
	}

	r.publish(events.EventTypeSessionStarted, map[string]interface{}{
		"session_id": s.id,
		"artifact":   s.artifact,
		"region":     fmt.Sprintf("%dx%d+%d+%d", region.W, region.H, region.X, region.Y),
	})
	r.log.InfoWithContext("recording started", map[string]interface{}{
		"session_id": s.id,
		"artifact":   s.artifact,
	})

	go r.recordLoop(s)

	return s.artifact, nil
}

// Stop requests cooperative shutdown. The worker observes the flag
// between iterations, so the transition to Finalizing happens within
// one frame interval. Safe to call when idle.
func (r *Recorder) Stop() {
	r.stopRequested.Store(true)
}

// Wait blocks until the current session has fully finalized, or the
// timeout elapses. Returns true if the session finished in time.
// Returns immediately when no session is active.
func (r *Recorder) Wait(timeout time.Duration) bool {
	r.mu.Lock()
	done := r.done
	active := r.active
	r.mu.Unlock()

	if !active || done == nil {
		return true
	}

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Status returns a read-only snapshot of recorder state.
func (r *Recorder) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := Status{
		Recording:  r.active,
		Elapsed:    r.elapsed,
		Frames:     r.frames,
		LastReason: r.lastReason,
	}
	if r.cur != nil {
		st.SessionID = r.cur.id
		st.Artifact = r.cur.artifact
		st.Region = r.cur.region
	}
	return st
}

// recordLoop is the worker. State machine: Recording for the body of
// the loop, Finalizing in the deferred block, Idle once the active
// flag clears.
func (r *Recorder) recordLoop(s *session) {
	frameInterval := time.Second / time.Duration(r.opts.FPS)
	scroll := newTimerState(r.opts.ScrollInterval)
	panel := newTimerState(r.opts.PanelInterval)
	detector := newCompletionDetector(r.opts.CheckInterval, r.opts.GracePeriod, r.opts.ConfirmHits)

	var enc *videoEncoder
	var encErr error
	frames := 0
	reason := StopMaxDuration

	// Finalizing is guaranteed even if an iteration panics: the
	// encoder is flushed, the active flag cleared, and the artifact
	// handed off only if it actually reached durable storage.
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("capture loop panicked", fmt.Errorf("%v", rec))
			reason = StopEncoderError
		}

		var closeErr error
		if enc != nil {
			closeErr = enc.Close()
			if closeErr != nil {
				r.log.Error("failed to finalize video", closeErr)
			}
		}

		r.finish(s, frames, reason, encErr == nil && closeErr == nil && frames > 0)
	}()

	for {
		now := time.Now()
		elapsed := now.Sub(s.startedAt)

		// Stop conditions, observed between iterations only.
		if elapsed >= r.opts.MaxDuration {
			reason = StopMaxDuration
			return
		}
		if r.stopRequested.Load() {
			reason = StopRequested
			return
		}
		if detector.shouldStop(now) {
			reason = StopCompleted
			return
		}

		frameStart := now

		frame, err := r.capturer.CaptureRegion(s.region)
		if err != nil {
			// A failed grab degrades this interval's FPS; the
			// session keeps running under the max-duration ceiling.
			r.log.WarnWithContext("frame capture failed", map[string]interface{}{
				"error": err.Error(),
			})
			r.pace(frameStart, frameInterval)
			continue
		}

		scaled := cv.Scale(frame, r.opts.Scale)

		if enc == nil {
			bounds := scaled.Bounds()
			enc, encErr = newVideoEncoder(s.artifact, bounds.Dx(), bounds.Dy(), r.opts.FPS, r.opts.JPEGQuality)
			if encErr != nil {
				r.log.Error("failed to open video output", encErr)
				reason = StopEncoderError
				return
			}
		}

		if err := enc.WriteFrame(scaled); err != nil {
			encErr = err
			r.log.Error("failed to write frame", err)
			reason = StopEncoderError
			return
		}
		frames++

		r.mu.Lock()
		r.frames = frames
		r.elapsed = elapsed
		r.mu.Unlock()

		// Automation and detection run against the frame just
		// captured, each on its own clock.
		if scroll.due(now) {
			r.fireScroll(s)
		}
		if panel.due(now) {
			r.firePanelDismiss(s, frame)
		}
		if detector.observe(now, func() bool {
			return r.locator.Locate(frame, templates.ResponseComplete).Found()
		}) {
			r.log.InfoWithContext("response completion detected", map[string]interface{}{
				"session_id": s.id,
				"grace":      r.opts.GracePeriod.String(),
			})
			r.publish(events.EventTypeCompletionDetected, map[string]interface{}{
				"session_id": s.id,
			})
		}

		r.pace(frameStart, frameInterval)
	}
}

// pace sleeps the remainder of the frame interval. A slow iteration
// yields a lower effective FPS for that interval; the loop never
// tries to catch up by dropping frames.
func (r *Recorder) pace(frameStart time.Time, frameInterval time.Duration) {
	if remaining := frameInterval - time.Since(frameStart); remaining > 0 {
		time.Sleep(remaining)
	}
}

// finish is the tail of Finalizing: clear the active flag, publish
// the terminal event, and hand the artifact off exactly once - and
// only if the encoder closed cleanly and the file is on disk.
func (r *Recorder) finish(s *session, frames int, reason StopReason, clean bool) {
	elapsed := time.Since(s.startedAt)

	r.mu.Lock()
	r.active = false
	r.cur = nil
	r.frames = frames
	r.elapsed = elapsed
	r.lastReason = reason
	done := r.done
	r.mu.Unlock()

	artifactReady := false
	if clean {
		if _, err := os.Stat(s.artifact); err == nil {
			artifactReady = true
		}
	}

	r.log.InfoWithContext("recording finished", map[string]interface{}{
		"session_id": s.id,
		"reason":     string(reason),
		"frames":     frames,
		"duration":   elapsed.Round(time.Millisecond).String(),
		"artifact":   artifactReady,
	})
	r.publish(events.EventTypeSessionFinished, map[string]interface{}{
		"session_id":  s.id,
		"artifact":    s.artifact,
		"reason":      string(reason),
		"frames":      frames,
		"duration_ms": elapsed.Milliseconds(),
		"delivered":   artifactReady,
	})

	if artifactReady && r.onComplete != nil {
		r.onComplete(s.artifact)
	}

	close(done)
}

func (r *Recorder) publish(eventType events.EventType, data map[string]interface{}) {
	if r.bus == nil {
		return
	}
	r.bus.Publish(events.Event{
		Type:   eventType,
		Source: "recorder",
		Data:   data,
	})
}
