/*
NAME
  box.go

LICENSE
  Copyright (c) 2024 the holoscan authors.

  Use of this source code is governed by a BSD-style license that can
  be found in the LICENSE file.
*/

// Package geom provides the bounding box type shared between the
// hologram verification pipeline's component stages.
package geom

// BBox is an axis-aligned bounding box in image space, expressed the way
// OpenCV's contour/component helpers report them: a top-left origin plus
// a width and height.
type BBox struct {
	X, Y, W, H int
}

// X2 returns the box's right edge.
func (b BBox) X2() int { return b.X + b.W }

// Y2 returns the box's bottom edge.
func (b BBox) Y2() int { return b.Y + b.H }

// Area returns the box's pixel area.
func (b BBox) Area() float64 { return float64(b.W * b.H) }

// IoU returns the intersection-over-union of b and o, in [0, 1].
func (b BBox) IoU(o BBox) float64 {
	x1 := max(b.X, o.X)
	y1 := max(b.Y, o.Y)
	x2 := min(b.X2(), o.X2())
	y2 := min(b.Y2(), o.Y2())

	iw := x2 - x1
	ih := y2 - y1
	if iw <= 0 || ih <= 0 {
		return 0
	}

	inter := float64(iw * ih)
	union := b.Area() + o.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}
