package recorder

import "time"

// completionDetector watches for the response-complete visual
// signature on its own cadence. Arming is edge-triggered: the first
// confirmed detection fixes the grace deadline, and later positive
// matches cannot push it back even if the matched icons stay on
// screen.
type completionDetector struct {
	timer       *timerState
	grace       time.Duration
	confirmHits int

	hits     int
	armed    bool
	armedAt  time.Time
	deadline time.Time
}

func newCompletionDetector(interval, grace time.Duration, confirmHits int) *completionDetector {
	if confirmHits < 1 {
		confirmHits = 1
	}
	return &completionDetector{
		timer:       newTimerState(interval),
		grace:       grace,
		confirmHits: confirmHits,
	}
}

// observe runs one detection probe if the check interval is due.
// Returns true exactly once, on the check that arms the grace period.
// A negative probe resets the consecutive-hit streak, so transient
// visual noise shorter than confirmHits checks never arms.
func (d *completionDetector) observe(now time.Time, probe func() bool) bool {
	if d.armed || !d.timer.due(now) {
		return false
	}

	if !probe() {
		d.hits = 0
		return false
	}

	d.hits++
	if d.hits < d.confirmHits {
		return false
	}

	d.armed = true
	d.armedAt = now
	d.deadline = now.Add(d.grace)
	return true
}

// shouldStop reports whether the armed grace period has elapsed.
func (d *completionDetector) shouldStop(now time.Time) bool {
	return d.armed && !now.Before(d.deadline)
}
