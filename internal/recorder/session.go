package recorder

import (
	"time"

	"jordanella.com/chat-bridge-go/internal/cv"
)

// StopReason records why a session left the Recording state.
type StopReason string

const (
	// StopMaxDuration - the deadman ceiling elapsed
	StopMaxDuration StopReason = "max_duration"
	// StopCompleted - the completion detector armed and its grace
	// period elapsed
	StopCompleted StopReason = "completed"
	// StopRequested - a caller asked for cooperative stop
	StopRequested StopReason = "stopped"
	// StopEncoderError - the output stream could not be opened or
	// written; fatal to this session only
	StopEncoderError StopReason = "encoder_error"
)

// session is the unit of work for one recording. Owned by the worker
// goroutine while Recording; callers only ever see Status snapshots.
type session struct {
	id        string
	region    cv.Region
	artifact  string
	startedAt time.Time

	// scroll anchor in screen coordinates, resolved once at start.
	// nil means the chat-input template never matched and the scroll
	// action stays off for the whole session.
	scrollAnchor *point
}

type point struct {
	X, Y int
}

// Status is a read-only snapshot of the recorder's state, safe to
// request from any goroutine.
type Status struct {
	Recording  bool
	SessionID  string
	Artifact   string
	Region     cv.Region
	Elapsed    time.Duration
	Frames     int
	LastReason StopReason // reason the previous session ended, if any
}

// Options configures a recorder instance.
type Options struct {
	FPS         int
	Scale       float64
	MaxDuration time.Duration
	OutputDir   string
	JPEGQuality int

	// Automation cadences. Each action keeps its own monotonic
	// timer; none of them is tied to the capture frame rate.
	ScrollInterval time.Duration
	PanelInterval  time.Duration
	CheckInterval  time.Duration

	// ScrollAnchorLift is how far above the matched chat-input
	// anchor the scroll gesture is issued, in pixels.
	ScrollAnchorLift int
	// ScrollTicks per gesture; negative scrolls down.
	ScrollTicks int
	// SettleDelay after a panel-dismiss click.
	SettleDelay time.Duration

	// GracePeriod keeps the capture running after completion is
	// first detected, so trailing visual state makes it into the
	// video.
	GracePeriod time.Duration
	// ConfirmHits is how many consecutive positive detections are
	// required before the grace period arms. 1 reproduces
	// single-hit arming; higher values reject one-off noise.
	ConfirmHits int
}

// DefaultOptions returns the recorder defaults tuned for small,
// chat-uploadable videos.
func DefaultOptions() Options {
	return Options{
		FPS:         8,
		Scale:       0.5,
		MaxDuration: 2 * time.Minute,
		OutputDir:   ".",
		JPEGQuality: 75,

		ScrollInterval: 3 * time.Second,
		PanelInterval:  2 * time.Second,
		CheckInterval:  2 * time.Second,

		ScrollAnchorLift: 200,
		ScrollTicks:      -10,
		SettleDelay:      300 * time.Millisecond,

		GracePeriod: 2 * time.Second,
		ConfirmHits: 1,
	}
}

func (o *Options) sanitize() {
	if o.FPS <= 0 {
		o.FPS = 8
	}
	if o.Scale <= 0 || o.Scale > 1 {
		o.Scale = 1
	}
	if o.MaxDuration <= 0 {
		o.MaxDuration = 2 * time.Minute
	}
	if o.OutputDir == "" {
		o.OutputDir = "."
	}
	if o.JPEGQuality <= 0 || o.JPEGQuality > 100 {
		o.JPEGQuality = 75
	}
	if o.ConfirmHits < 1 {
		o.ConfirmHits = 1
	}
}
