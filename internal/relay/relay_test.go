package relay

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inlineScheduler runs tasks on the calling goroutine so tests stay
// deterministic without sleeps.
type inlineScheduler struct{}

func (inlineScheduler) Submit(fn Task) <-chan struct{} {
	fn()
	done := make(chan struct{})
	close(done)
	return done
}

type fakeMessenger struct {
	mu       sync.Mutex
	err      error
	sends    []string
	captions []string
	channels []int64
}

func (m *fakeMessenger) SendFile(channelID int64, path, caption string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sends = append(m.sends, path)
	m.captions = append(m.captions, caption)
	m.channels = append(m.channels, channelID)
	return m.err
}

func writeArtifact(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("payload"), 0644))
	return path
}

func TestRelayDeliversAndRemovesArtifact(t *testing.T) {
	messenger := &fakeMessenger{}
	rel := NewRelay(inlineScheduler{}, messenger, 42)

	path := writeArtifact(t, "recording_test.avi")
	rel.OnComplete(path)

	require.Len(t, messenger.sends, 1)
	assert.Equal(t, path, messenger.sends[0])
	assert.Equal(t, int64(42), messenger.channels[0])

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "delivered artifact must be removed")
}

func TestRelayMissingArtifactIsNotAFailure(t *testing.T) {
	messenger := &fakeMessenger{}
	rel := NewRelay(inlineScheduler{}, messenger, 1)

	rel.OnComplete(filepath.Join(t.TempDir(), "gone.avi"))

	assert.Empty(t, messenger.sends, "nothing to send when the file is already gone")
}

func TestRelaySendFailureKeepsArtifact(t *testing.T) {
	messenger := &fakeMessenger{err: errors.New("network down")}
	rel := NewRelay(inlineScheduler{}, messenger, 1)

	path := writeArtifact(t, "recording_keep.avi")
	rel.OnComplete(path)

	require.Len(t, messenger.sends, 1)
	_, err := os.Stat(path)
	assert.NoError(t, err, "failed deliveries must leave the file for manual retrieval")
}

func TestRelayDeliversEachArtifactOnce(t *testing.T) {
	messenger := &fakeMessenger{}
	rel := NewRelay(inlineScheduler{}, messenger, 1)

	path := writeArtifact(t, "recording_once.avi")
	rel.OnComplete(path)
	rel.OnComplete(path)

	assert.Len(t, messenger.sends, 1, "second handoff finds the file gone and does nothing")
}

func TestRelayCaptionByExtension(t *testing.T) {
	messenger := &fakeMessenger{}
	rel := NewRelay(inlineScheduler{}, messenger, 1)

	avi := writeArtifact(t, "recording.avi")
	png := writeArtifact(t, "screenshot.png")
	rel.OnComplete(avi)
	rel.OnComplete(png)

	require.Len(t, messenger.captions, 2)
	assert.Equal(t, "Response recording", messenger.captions[0])
	assert.Equal(t, "Screenshot", messenger.captions[1])
}

func TestRelayHandoffThroughTaskLoop(t *testing.T) {
	loop := NewTaskLoop(8)
	messenger := &fakeMessenger{}
	rel := NewRelay(loop, messenger, 7)

	path := writeArtifact(t, "recording_loop.avi")
	rel.OnComplete(path)
	loop.Stop()

	require.Len(t, messenger.sends, 1)
	assert.Equal(t, path, messenger.sends[0])
}
