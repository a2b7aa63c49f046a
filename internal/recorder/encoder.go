package recorder

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/icza/mjpeg"

	xdraw "golang.org/x/image/draw"
)

// videoEncoder appends RGBA frames to an MJPEG AVI file. MJPEG keeps
// the encoder dependency-free of cgo while staying playable in common
// players; file size is controlled upstream by scale and FPS.
type videoEncoder struct {
	writer  mjpeg.AviWriter
	width   int
	height  int
	quality int
	buf     bytes.Buffer
}

// newVideoEncoder opens an AVI container at path. Declared frame
// dimensions are fixed for the life of the file.
func newVideoEncoder(path string, width, height, fps, quality int) (*videoEncoder, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid output dimensions %dx%d", width, height)
	}

	writer, err := mjpeg.New(path, int32(width), int32(height), int32(fps))
	if err != nil {
		return nil, fmt.Errorf("failed to open video output %s: %w", path, err)
	}

	return &videoEncoder{
		writer:  writer,
		width:   width,
		height:  height,
		quality: quality,
	}, nil
}

// WriteFrame JPEG-encodes one frame and appends it. Frames that do
// not match the declared dimensions are resampled to fit, so a
// display-resolution change mid-session degrades quality instead of
// corrupting the container.
func (e *videoEncoder) WriteFrame(frame *image.RGBA) error {
	if frame == nil {
		return fmt.Errorf("nil frame")
	}

	bounds := frame.Bounds()
	if bounds.Dx() != e.width || bounds.Dy() != e.height {
		fitted := image.NewRGBA(image.Rect(0, 0, e.width, e.height))
		xdraw.ApproxBiLinear.Scale(fitted, fitted.Bounds(), frame, bounds, xdraw.Src, nil)
		frame = fitted
	}

	e.buf.Reset()
	if err := jpeg.Encode(&e.buf, frame, &jpeg.Options{Quality: e.quality}); err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}

	if err := e.writer.AddFrame(e.buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}

// Close finalizes the AVI index and flushes the file.
func (e *videoEncoder) Close() error {
	return e.writer.Close()
}
