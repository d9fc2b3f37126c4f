/*
NAME
  annotate.go

LICENSE
  Copyright (c) 2024 the holoscan authors.

  Use of this source code is governed by a BSD-style license that can
  be found in the LICENSE file.
*/

//go:build withcv

package pipeline

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// annotate draws each detection's bounding box and confidence onto a
// copy of frame. The overlay is ornamental, per the pipeline's output
// contract, and callers are free to ignore the returned image and use
// only the detection records.
func annotate(frame gocv.Mat, detections []Detection) gocv.Mat {
	out := frame.Clone()
	for _, d := range detections {
		col := boxColor(d.Confidence)
		rect := image.Rect(d.Box.X, d.Box.Y, d.Box.X2(), d.Box.Y2())
		gocv.Rectangle(&out, rect, col, 2)
		label := fmt.Sprintf("hologram: %.2f", d.Confidence)
		gocv.PutText(&out, label, image.Pt(d.Box.X, max(d.Box.Y-8, 12)), gocv.FontHersheySimplex, 0.5, col, 1)
	}
	return out
}

// boxColor mirrors the reference implementation's confidence-tiered
// colour scheme: green for high confidence, yellow for medium, orange
// otherwise.
func boxColor(confidence float64) color.RGBA {
	switch {
	case confidence > 0.8:
		return color.RGBA{0, 255, 0, 0}
	case confidence > 0.6:
		return color.RGBA{255, 255, 0, 0}
	default:
		return color.RGBA{255, 165, 0, 0}
	}
}
