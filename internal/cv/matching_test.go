package cv

import (
	"errors"
	"image"
	"testing"
)

// fillRect paints a solid RGB block into an RGBA image.
func fillRect(img *image.RGBA, rect image.Rectangle, r, g, b uint8) {
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			idx := (y-img.Bounds().Min.Y)*img.Stride + (x-img.Bounds().Min.X)*4
			img.Pix[idx] = r
			img.Pix[idx+1] = g
			img.Pix[idx+2] = b
			img.Pix[idx+3] = 255
		}
	}
}

func makeFrameWithTarget(frameW, frameH, targetX, targetY, targetW, targetH int) (*image.RGBA, *image.RGBA) {
	frame := image.NewRGBA(image.Rect(0, 0, frameW, frameH))
	fillRect(frame, frame.Bounds(), 30, 30, 30)
	fillRect(frame, image.Rect(targetX, targetY, targetX+targetW, targetY+targetH), 240, 240, 240)

	template := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
	fillRect(template, template.Bounds(), 240, 240, 240)

	return frame, template
}

func TestMatchTemplateFindsTarget(t *testing.T) {
	frame, template := makeFrameWithTarget(200, 150, 60, 40, 30, 20)

	outcome := MatchTemplate(frame, template, &MatchConfig{Threshold: 0.95})

	if !outcome.Found() {
		t.Fatalf("template not found (confidence %.3f)", outcome.Confidence)
	}
	if outcome.Region.X != 60 || outcome.Region.Y != 40 {
		t.Errorf("expected match at (60, 40), got (%d, %d)", outcome.Region.X, outcome.Region.Y)
	}
	if outcome.Region.W != 30 || outcome.Region.H != 20 {
		t.Errorf("expected match size 30x20, got %dx%d", outcome.Region.W, outcome.Region.H)
	}
}

func TestMatchTemplateToleratesColorTheme(t *testing.T) {
	// Same luminance layout, different color cast: the stored
	// template is gray, the frame target is drawn with a hue whose
	// luminance is close. Luminance-space matching should still hit.
	frame := image.NewRGBA(image.Rect(0, 0, 120, 90))
	fillRect(frame, frame.Bounds(), 20, 20, 20)
	// 0.299*200 + 0.587*128 + 0.114*220 ~= 160
	fillRect(frame, image.Rect(30, 30, 60, 50), 200, 128, 220)

	template := image.NewRGBA(image.Rect(0, 0, 30, 20))
	fillRect(template, template.Bounds(), 160, 160, 160)

	outcome := MatchTemplate(frame, template, &MatchConfig{Threshold: 0.9})
	if !outcome.Found() {
		t.Fatalf("expected luminance-space match, got confidence %.3f", outcome.Confidence)
	}
	if outcome.Region.X != 30 || outcome.Region.Y != 30 {
		t.Errorf("expected match at (30, 30), got (%d, %d)", outcome.Region.X, outcome.Region.Y)
	}
}

func TestMatchTemplateNotFoundBelowThreshold(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 100, 100))
	fillRect(frame, frame.Bounds(), 10, 10, 10)

	template := image.NewRGBA(image.Rect(0, 0, 20, 20))
	fillRect(template, template.Bounds(), 250, 250, 250)

	outcome := MatchTemplate(frame, template, &MatchConfig{Threshold: 0.95})
	if outcome.Found() {
		t.Fatal("expected no match for dissimilar content")
	}
	if outcome.State != MatchNotFound {
		t.Fatalf("expected MatchNotFound, got state %v", outcome.State)
	}
	if outcome.Confidence >= 0.95 {
		t.Errorf("confidence %.3f should be below threshold", outcome.Confidence)
	}
}

func TestMatchTemplateSearchRegion(t *testing.T) {
	frame, template := makeFrameWithTarget(200, 150, 60, 40, 30, 20)

	inside := image.Rect(40, 20, 120, 80)
	outcome := MatchTemplate(frame, template, &MatchConfig{Threshold: 0.95, SearchRegion: &inside})
	if !outcome.Found() {
		t.Fatal("expected match inside search region")
	}
	if outcome.Region.X != 60 || outcome.Region.Y != 40 {
		t.Errorf("search region shifted coordinates: got (%d, %d)", outcome.Region.X, outcome.Region.Y)
	}

	outside := image.Rect(120, 80, 200, 150)
	outcome = MatchTemplate(frame, template, &MatchConfig{Threshold: 0.95, SearchRegion: &outside})
	if outcome.Found() {
		t.Error("template should not be found outside search region")
	}
}

func TestMatchTemplateOversizedTemplate(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 50, 50))
	template := image.NewRGBA(image.Rect(0, 0, 100, 100))

	outcome := MatchTemplate(frame, template, nil)
	if !outcome.Failed() {
		t.Fatal("expected failed outcome for oversized template")
	}
	if !errors.Is(outcome.Err, ErrTemplateTooLarge) {
		t.Errorf("expected ErrTemplateTooLarge, got %v", outcome.Err)
	}
}

func TestMatchTemplateNilImages(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 50, 50))

	for _, tc := range []struct {
		name     string
		haystack *image.RGBA
		needle   *image.RGBA
	}{
		{"nil haystack", nil, frame},
		{"nil needle", frame, nil},
		{"both nil", nil, nil},
	} {
		t.Run(tc.name, func(t *testing.T) {
			outcome := MatchTemplate(tc.haystack, tc.needle, nil)
			if !outcome.Failed() {
				t.Fatal("expected failed outcome")
			}
			if !errors.Is(outcome.Err, ErrNilImage) {
				t.Errorf("expected ErrNilImage, got %v", outcome.Err)
			}
		})
	}
}

func TestMatchTemplateEmptySearchRegion(t *testing.T) {
	frame, template := makeFrameWithTarget(100, 100, 10, 10, 20, 20)

	empty := image.Rect(300, 300, 400, 400) // no overlap with frame
	outcome := MatchTemplate(frame, template, &MatchConfig{Threshold: 0.9, SearchRegion: &empty})
	if outcome.Found() || outcome.Failed() {
		t.Fatalf("expected clean NotFound for empty search region, got state %v", outcome.State)
	}
}

func TestRegionCenter(t *testing.T) {
	r := NewRegion(10, 20, 30, 40)
	center := r.Center()
	if center.X != 25 || center.Y != 40 {
		t.Errorf("expected center (25, 40), got (%d, %d)", center.X, center.Y)
	}
}
