package cv

import (
	"errors"
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
	xdraw "golang.org/x/image/draw"
)

// Capturer grabs pixels for a screen region.
type Capturer interface {
	CaptureRegion(r Region) (*image.RGBA, error)
	ScreenSize() (width, height int, err error)
}

// ErrNoDisplay is returned when no active display is attached.
var ErrNoDisplay = errors.New("no active displays found")

// ScreenCapturer captures from the primary display.
type ScreenCapturer struct{}

// NewScreenCapturer creates a capturer for the primary display.
func NewScreenCapturer() *ScreenCapturer {
	return &ScreenCapturer{}
}

// CaptureRegion grabs one frame of the given screen region.
func (c *ScreenCapturer) CaptureRegion(r Region) (*image.RGBA, error) {
	if r.Empty() {
		return nil, fmt.Errorf("invalid capture region %+v", r)
	}
	if screenshot.NumActiveDisplays() == 0 {
		return nil, ErrNoDisplay
	}

	img, err := screenshot.CaptureRect(r.ToImageRect())
	if err != nil {
		return nil, fmt.Errorf("failed to capture screen region: %w", err)
	}
	return img, nil
}

// ScreenSize returns the primary display dimensions.
func (c *ScreenCapturer) ScreenSize() (int, int, error) {
	if screenshot.NumActiveDisplays() == 0 {
		return 0, 0, ErrNoDisplay
	}
	bounds := screenshot.GetDisplayBounds(0)
	return bounds.Dx(), bounds.Dy(), nil
}

// RegionPreset names a screen-half selection.
type RegionPreset string

const (
	PresetLeft  RegionPreset = "left"
	PresetRight RegionPreset = "right"
	PresetFull  RegionPreset = "full"
)

// ResolvePreset converts a preset into concrete pixel coordinates
// against the capturer's current display size.
func ResolvePreset(c Capturer, preset RegionPreset) (Region, error) {
	width, height, err := c.ScreenSize()
	if err != nil {
		return Region{}, err
	}

	switch preset {
	case PresetLeft:
		return Region{X: 0, Y: 0, W: width / 2, H: height}, nil
	case PresetRight:
		return Region{X: width / 2, Y: 0, W: width / 2, H: height}, nil
	case PresetFull:
		return Region{X: 0, Y: 0, W: width, H: height}, nil
	default:
		return Region{}, fmt.Errorf("unknown region preset %q", preset)
	}
}

// Scale resizes an image by the given factor. A factor of 1 (or an
// out-of-range one) returns the source untouched.
func Scale(src *image.RGBA, factor float64) *image.RGBA {
	if src == nil || factor <= 0 || factor == 1.0 {
		return src
	}

	bounds := src.Bounds()
	outW := int(float64(bounds.Dx()) * factor)
	outH := int(float64(bounds.Dy()) * factor)
	if outW < 1 || outH < 1 {
		return src
	}

	dst := image.NewRGBA(image.Rect(0, 0, outW, outH))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, xdraw.Src, nil)
	return dst
}

// Crop extracts a rectangular area as a new zero-based image.
func Crop(src *image.RGBA, rect image.Rectangle) *image.RGBA {
	rect = rect.Intersect(src.Bounds())
	out := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			out.SetRGBA(x-rect.Min.X, y-rect.Min.Y, src.RGBAAt(x, y))
		}
	}
	return out
}
