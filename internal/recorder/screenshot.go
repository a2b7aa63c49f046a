package recorder

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/oklog/ulid/v2"

	"jordanella.com/chat-bridge-go/internal/cv"
)

// Screenshot captures a single still of the region and writes it as a
// PNG artifact. Independent of any running video session.
func (r *Recorder) Screenshot(region cv.Region) (string, error) {
	frame, err := r.capturer.CaptureRegion(region)
	if err != nil {
		return "", fmt.Errorf("failed to capture screenshot: %w", err)
	}

	path := filepath.Join(r.opts.OutputDir, fmt.Sprintf("screenshot_%s.png", ulid.Make().String()))
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create screenshot file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, frame); err != nil {
		return "", fmt.Errorf("failed to encode screenshot: %w", err)
	}

	return path, nil
}
