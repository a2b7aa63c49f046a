package relay

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"jordanella.com/chat-bridge-go/internal/events"
	"jordanella.com/chat-bridge-go/internal/logging"
)

// Messenger sends an artifact to a chat channel. Fire-and-forget from
// the relay's perspective; implemented by the gateway.
type Messenger interface {
	SendFile(channelID int64, path, caption string) error
}

// Scheduler is the thread-safe handoff primitive into the messaging
// subsystem's execution context. Implemented by TaskLoop.
type Scheduler interface {
	Submit(fn Task) <-chan struct{}
}

// Relay bridges the capture worker's completion callback to the
// messaging context. OnComplete runs on the capture goroutine and
// only schedules; delivery and cleanup run on the scheduler's
// goroutine.
type Relay struct {
	sched     Scheduler
	messenger Messenger
	channelID int64
	bus       events.EventBus
	log       *logging.Logger
}

// NewRelay creates a relay delivering artifacts to channelID.
func NewRelay(sched Scheduler, messenger Messenger, channelID int64) *Relay {
	return &Relay{
		sched:     sched,
		messenger: messenger,
		channelID: channelID,
		log:       logging.NewLogger("Relay"),
	}
}

// WithEventBus publishes delivery events to bus.
func (r *Relay) WithEventBus(bus events.EventBus) *Relay {
	r.bus = bus
	return r
}

// WithLogger replaces the default logger.
func (r *Relay) WithLogger(log *logging.Logger) *Relay {
	r.log = log
	return r
}

// OnComplete is the recorder's completion handler. Invoked
// synchronously from the capture goroutine's finalize step; it must
// not block, so the artifact path is captured by value and the
// returned future is deliberately ignored.
func (r *Relay) OnComplete(artifactPath string) {
	path := artifactPath
	r.sched.Submit(func() {
		r.deliver(path)
	})
}

// deliver sends the artifact and removes it from durable storage.
// Runs on the scheduler goroutine. Each artifact is sent at most
// once; a file already gone at send or cleanup time counts as done,
// since a concurrent cleanup may legitimately have won the race.
func (r *Relay) deliver(path string) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			r.log.DebugWithContext("artifact already removed, skipping delivery", map[string]interface{}{
				"path": path,
			})
			return
		}
		r.fail(path, fmt.Errorf("failed to stat artifact: %w", err))
		return
	}

	if err := r.messenger.SendFile(r.channelID, path, caption(path)); err != nil {
		// Keep the file around so the artifact can still be
		// retrieved by hand.
		r.fail(path, fmt.Errorf("failed to send artifact: %w", err))
		return
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		r.log.WarnWithContext("could not remove delivered artifact", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
	}

	r.log.InfoWithContext("artifact delivered", map[string]interface{}{"path": path})
	r.publish(events.EventTypeArtifactSent, map[string]interface{}{"path": path})
}

func (r *Relay) fail(path string, err error) {
	r.log.Error("artifact delivery failed", err)
	r.publish(events.EventTypeArtifactFailed, map[string]interface{}{
		"path":  path,
		"error": err.Error(),
	})
}

func (r *Relay) publish(eventType events.EventType, data map[string]interface{}) {
	if r.bus == nil {
		return
	}
	r.bus.Publish(events.Event{Type: eventType, Source: "relay", Data: data})
}

func caption(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg":
		return "Screenshot"
	default:
		return "Response recording"
	}
}
