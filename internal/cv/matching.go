package cv

import (
	"errors"
	"image"
)

// MatchState classifies the result of a template match.
type MatchState int

const (
	// MatchFound - best score met the threshold
	MatchFound MatchState = iota
	// MatchNotFound - scanned cleanly but nothing above threshold
	MatchNotFound
	// MatchFailed - the match could not be attempted at all
	MatchFailed
)

// Outcome is the result of one template match. Failure is an
// inspectable value here, never a panic or a swallowed error: callers
// that treat a miss and a fault the same way can just check Found().
type Outcome struct {
	State      MatchState
	Region     Region  // matched area, valid only when State == MatchFound
	Confidence float64 // best similarity score seen in [0,1]
	Err        error   // valid only when State == MatchFailed
}

// Found reports whether the match succeeded.
func (o Outcome) Found() bool {
	return o.State == MatchFound
}

// Failed reports whether the match could not run.
func (o Outcome) Failed() bool {
	return o.State == MatchFailed
}

func found(r Region, score float64) Outcome {
	return Outcome{State: MatchFound, Region: r, Confidence: score}
}

func notFound(score float64) Outcome {
	return Outcome{State: MatchNotFound, Confidence: score}
}

func failed(err error) Outcome {
	return Outcome{State: MatchFailed, Err: err}
}

var (
	ErrNilImage         = errors.New("nil image")
	ErrTemplateTooLarge = errors.New("template larger than search image")
)

// MatchConfig configures template matching.
type MatchConfig struct {
	Threshold    float64          // 0.0-1.0, higher = more strict
	SearchRegion *image.Rectangle // optional: limit search area
}

// DefaultMatchConfig returns recommended settings.
func DefaultMatchConfig() *MatchConfig {
	return &MatchConfig{Threshold: 0.85}
}

// MatchTemplate finds the best occurrence of needle within haystack.
// Comparison runs in luminance space so minor color-theme differences
// between the stored template and the live frame do not break the
// match. Safe for concurrent use; neither image is mutated.
func MatchTemplate(haystack, needle *image.RGBA, config *MatchConfig) Outcome {
	if haystack == nil || needle == nil {
		return failed(ErrNilImage)
	}
	if config == nil {
		config = DefaultMatchConfig()
	}

	hPlane := newIntensityPlane(haystack)
	nPlane := newIntensityPlane(needle)

	if nPlane.w == 0 || nPlane.h == 0 || hPlane.w == 0 || hPlane.h == 0 {
		return failed(ErrNilImage)
	}
	if nPlane.w > hPlane.w || nPlane.h > hPlane.h {
		return failed(ErrTemplateTooLarge)
	}

	searchBounds := haystack.Bounds()
	if config.SearchRegion != nil {
		searchBounds = config.SearchRegion.Intersect(haystack.Bounds())
		if searchBounds.Empty() {
			return notFound(0)
		}
	}

	// Positions are expressed in haystack coordinates; the plane is
	// zero-based, so offset by the bounds origin.
	origin := haystack.Bounds().Min
	maxY := searchBounds.Max.Y - nPlane.h
	maxX := searchBounds.Max.X - nPlane.w
	if maxY < searchBounds.Min.Y || maxX < searchBounds.Min.X {
		return notFound(0)
	}

	bestScore := 0.0
	bestAt := image.Point{}
	for y := searchBounds.Min.Y; y <= maxY; y++ {
		for x := searchBounds.Min.X; x <= maxX; x++ {
			score := scoreAt(hPlane, nPlane, x-origin.X, y-origin.Y)
			if score > bestScore {
				bestScore = score
				bestAt = image.Point{X: x, Y: y}
			}
		}
	}

	if bestScore < config.Threshold {
		return notFound(bestScore)
	}
	return found(Region{X: bestAt.X, Y: bestAt.Y, W: nPlane.w, H: nPlane.h}, bestScore)
}

// intensityPlane is a zero-based grayscale copy of an RGBA image.
type intensityPlane struct {
	pix  []uint8
	w, h int
}

func newIntensityPlane(img *image.RGBA) intensityPlane {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	plane := intensityPlane{pix: make([]uint8, w*h), w: w, h: h}

	for y := 0; y < h; y++ {
		srcRow := (bounds.Min.Y+y)*img.Stride + bounds.Min.X*4
		dstRow := y * w
		for x := 0; x < w; x++ {
			idx := srcRow + x*4
			r := int(img.Pix[idx])
			g := int(img.Pix[idx+1])
			b := int(img.Pix[idx+2])
			// Luminance formula
			plane.pix[dstRow+x] = uint8((r*299 + g*587 + b*114) / 1000)
		}
	}

	return plane
}

// scoreAt computes normalized similarity (1 - SSD/max) of the needle
// plane laid over the haystack plane at (x, y).
func scoreAt(haystack, needle intensityPlane, x, y int) float64 {
	var ssd uint64
	for ny := 0; ny < needle.h; ny++ {
		hRow := (y+ny)*haystack.w + x
		nRow := ny * needle.w
		for nx := 0; nx < needle.w; nx++ {
			d := int(haystack.pix[hRow+nx]) - int(needle.pix[nRow+nx])
			ssd += uint64(d * d)
		}
	}

	maxSSD := float64(needle.w*needle.h) * 255 * 255
	return 1.0 - (float64(ssd) / maxSSD)
}
