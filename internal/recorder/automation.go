package recorder

import (
	"image"
	"time"

	"jordanella.com/chat-bridge-go/internal/cv"
	"jordanella.com/chat-bridge-go/pkg/templates"
)

// timerState gates a periodic action. Intervals are compared against
// the wall clock (which carries Go's monotonic reading), never against
// frame counts, so cadence is independent of capture FPS drift.
type timerState struct {
	interval  time.Duration
	lastFired time.Time
}

func newTimerState(interval time.Duration) *timerState {
	return &timerState{interval: interval}
}

// due reports whether the action should fire now, consuming the
// interval when it does. An action fires at most once per interval.
func (t *timerState) due(now time.Time) bool {
	if now.Sub(t.lastFired) < t.interval {
		return false
	}
	t.lastFired = now
	return true
}

// resolveScrollAnchor locates the chat-input template in the first
// frame and derives the screen point scroll gestures are issued at,
// lifted a fixed distance above the input box. Resolution happens
// once per session; a miss here keeps the scroll action off for the
// entire recording rather than retrying mid-session.
func (r *Recorder) resolveScrollAnchor(region cv.Region, frame *image.RGBA) *point {
	outcome := r.locator.Locate(frame, templates.ChatInput)
	if outcome.Failed() {
		r.log.DebugWithContext("chat input anchor lookup failed", map[string]interface{}{
			"error": outcome.Err,
		})
		return nil
	}
	if !outcome.Found() {
		return nil
	}

	center := outcome.Region.Center()
	return &point{
		X: region.X + center.X,
		Y: region.Y + center.Y - r.opts.ScrollAnchorLift,
	}
}

// fireScroll issues a scroll-down gesture at the cached anchor.
func (r *Recorder) fireScroll(s *session) {
	if s.scrollAnchor == nil {
		return
	}
	r.act.Scroll(s.scrollAnchor.X, s.scrollAnchor.Y, r.opts.ScrollTicks)
}

// firePanelDismiss re-matches the panel header fresh (the panel
// appears and disappears dynamically, so nothing is cached) and
// clicks it away. The click lands at the matched center plus the
// template's configured offset vector; with no offset it falls back
// to the center itself. A miss or a matcher fault is a silent no-op.
func (r *Recorder) firePanelDismiss(s *session, frame *image.RGBA) {
	outcome := r.locator.Locate(frame, templates.PanelHeader)
	if outcome.Failed() {
		r.log.DebugWithContext("panel header match failed", map[string]interface{}{
			"error": outcome.Err,
		})
		return
	}
	if !outcome.Found() {
		return
	}

	center := outcome.Region.Center()
	target := point{X: s.region.X + center.X, Y: s.region.Y + center.Y}
	if tmpl, ok := r.locator.Get(templates.PanelHeader); ok && tmpl.Offset != nil {
		target.X += tmpl.Offset.X
		target.Y += tmpl.Offset.Y
	}

	r.act.Click(target.X, target.Y)
	time.Sleep(r.opts.SettleDelay)
}
