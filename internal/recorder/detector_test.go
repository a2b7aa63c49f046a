package recorder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimerStateFiresOncePerInterval(t *testing.T) {
	start := time.Now()
	timer := newTimerState(100 * time.Millisecond)

	assert.True(t, timer.due(start), "fresh timer should be due")
	assert.False(t, timer.due(start.Add(50*time.Millisecond)))
	assert.False(t, timer.due(start.Add(99*time.Millisecond)))
	assert.True(t, timer.due(start.Add(100*time.Millisecond)))
	assert.False(t, timer.due(start.Add(150*time.Millisecond)))
	assert.True(t, timer.due(start.Add(250*time.Millisecond)))
}

func TestDetectorArmsOnFirstHit(t *testing.T) {
	start := time.Now()
	d := newCompletionDetector(50*time.Millisecond, 2*time.Second, 1)

	hit := func() bool { return true }

	assert.True(t, d.observe(start, hit), "first confirmed hit should arm")
	assert.False(t, d.shouldStop(start.Add(time.Second)), "grace period still running")
	assert.False(t, d.shouldStop(start.Add(2*time.Second-time.Millisecond)))
	assert.True(t, d.shouldStop(start.Add(2*time.Second)))
}

func TestDetectorIsEdgeTriggered(t *testing.T) {
	start := time.Now()
	d := newCompletionDetector(50*time.Millisecond, time.Second, 1)

	probes := 0
	hit := func() bool { probes++; return true }

	assert.True(t, d.observe(start, hit))
	deadline := d.deadline

	// The icons staying visible must not restart the grace timer,
	// and the probe should not even run once armed.
	for i := 1; i <= 5; i++ {
		now := start.Add(time.Duration(i) * 100 * time.Millisecond)
		assert.False(t, d.observe(now, hit))
	}
	assert.Equal(t, 1, probes)
	assert.Equal(t, deadline, d.deadline)
}

func TestDetectorRespectsCheckInterval(t *testing.T) {
	start := time.Now()
	d := newCompletionDetector(100*time.Millisecond, time.Second, 1)

	probes := 0
	miss := func() bool { probes++; return false }

	d.observe(start, miss)
	d.observe(start.Add(30*time.Millisecond), miss)
	d.observe(start.Add(60*time.Millisecond), miss)
	d.observe(start.Add(100*time.Millisecond), miss)

	assert.Equal(t, 2, probes, "probe should only run when the interval is due")
}

func TestDetectorConfirmHits(t *testing.T) {
	start := time.Now()
	d := newCompletionDetector(50*time.Millisecond, time.Second, 3)

	tick := func(i int) time.Time { return start.Add(time.Duration(i) * 50 * time.Millisecond) }
	hit := func() bool { return true }
	miss := func() bool { return false }

	// Two hits, then a miss: streak resets, nothing arms.
	assert.False(t, d.observe(tick(0), hit))
	assert.False(t, d.observe(tick(1), hit))
	assert.False(t, d.observe(tick(2), miss))
	assert.False(t, d.armed)

	// Three consecutive hits arm on the third.
	assert.False(t, d.observe(tick(3), hit))
	assert.False(t, d.observe(tick(4), hit))
	assert.True(t, d.observe(tick(5), hit))
	assert.True(t, d.armed)
	assert.Equal(t, tick(5).Add(time.Second), d.deadline)
}
