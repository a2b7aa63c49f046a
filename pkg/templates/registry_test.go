package templates

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jordanella.com/chat-bridge-go/internal/cv"
)

func writeTestPNG(t *testing.T, path string, w, h int, gray uint8) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = gray
		img.Pix[i+1] = gray
		img.Pix[i+2] = gray
		img.Pix[i+3] = 255
	}

	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()
	require.NoError(t, png.Encode(file, img))
}

func TestRegistryLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	writeTestPNG(t, filepath.Join(dir, "panel.png"), 20, 10, 240)

	manifest := filepath.Join(dir, "templates.yaml")
	require.NoError(t, os.WriteFile(manifest, []byte(`
templates:
  - name: panel_header
    path: panel.png
    threshold: 0.8
    offset: {dx: 40, dy: 12}
  - name: chat_input
    path: missing.png
`), 0644))

	registry := NewRegistry(dir)
	require.NoError(t, registry.LoadFromFile(manifest))

	panel, ok := registry.Get(PanelHeader)
	require.True(t, ok)
	assert.Equal(t, 0.8, panel.Threshold)
	require.NotNil(t, panel.Offset)
	assert.Equal(t, 40, panel.Offset.X)
	assert.Equal(t, 12, panel.Offset.Y)

	// Unspecified threshold falls back to the default.
	chat, ok := registry.Get(ChatInput)
	require.True(t, ok)
	assert.Equal(t, 0.7, chat.Threshold)
	assert.Nil(t, chat.Offset)

	img, err := registry.Image(PanelHeader)
	require.NoError(t, err)
	assert.Equal(t, 20, img.Bounds().Dx())

	// Registered but unreadable image fails only on access.
	_, err = registry.Image(ChatInput)
	assert.Error(t, err)
}

func TestRegistryLoadRejectsBadManifest(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "templates.yaml")

	require.NoError(t, os.WriteFile(manifest, []byte("templates:\n  - path: x.png\n"), 0644))
	assert.Error(t, NewRegistry(dir).LoadFromFile(manifest), "missing name should be rejected")

	require.NoError(t, os.WriteFile(manifest, []byte("templates:\n  - name: x\n"), 0644))
	assert.Error(t, NewRegistry(dir).LoadFromFile(manifest), "missing path should be rejected")

	assert.Error(t, NewRegistry(dir).LoadFromFile(filepath.Join(dir, "nope.yaml")))
}

func TestRegistryLocate(t *testing.T) {
	dir := t.TempDir()
	writeTestPNG(t, filepath.Join(dir, "target.png"), 16, 12, 230)

	registry := NewRegistry(dir)
	registry.Register(Template{
		Name:      ResponseComplete,
		Path:      filepath.Join(dir, "target.png"),
		Threshold: 0.9,
	})

	frame := image.NewRGBA(image.Rect(0, 0, 100, 80))
	for i := 3; i < len(frame.Pix); i += 4 {
		frame.Pix[i] = 255
	}
	// Paint the target block at (50, 30).
	for y := 30; y < 42; y++ {
		for x := 50; x < 66; x++ {
			idx := y*frame.Stride + x*4
			frame.Pix[idx] = 230
			frame.Pix[idx+1] = 230
			frame.Pix[idx+2] = 230
		}
	}

	outcome := registry.Locate(frame, ResponseComplete)
	require.True(t, outcome.Found(), "confidence %.3f", outcome.Confidence)
	assert.Equal(t, 50, outcome.Region.X)
	assert.Equal(t, 30, outcome.Region.Y)

	// Absent template is an expected state, not a fault.
	missing := registry.Locate(frame, "never_calibrated")
	assert.Equal(t, cv.MatchNotFound, missing.State)
	assert.False(t, missing.Failed())

	// Registered template with an unreadable image reports a fault.
	registry.Register(Template{Name: "broken", Path: filepath.Join(dir, "gone.png"), Threshold: 0.9})
	broken := registry.Locate(frame, "broken")
	assert.True(t, broken.Failed())
}
