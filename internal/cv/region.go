package cv

import "image"

// Region is a rectangular screen area in pixel coordinates.
type Region struct {
	X, Y, W, H int
}

// NewRegion creates a region from origin and size.
func NewRegion(x, y, w, h int) Region {
	return Region{X: x, Y: y, W: w, H: h}
}

// Center returns the midpoint of the region.
func (r Region) Center() image.Point {
	return image.Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Empty reports whether the region has no area.
func (r Region) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// ToImageRect converts the region to an image.Rectangle.
func (r Region) ToImageRect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H)
}

// FromImageRect converts an image.Rectangle to a Region.
func FromImageRect(rect image.Rectangle) Region {
	return Region{X: rect.Min.X, Y: rect.Min.Y, W: rect.Dx(), H: rect.Dy()}
}
