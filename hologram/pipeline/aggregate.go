/*
NAME
  aggregate.go

LICENSE
  Copyright (c) 2024 the holoscan authors.

  Use of this source code is governed by a BSD-style license that can
  be found in the LICENSE file.
*/

package pipeline

import "github.com/SuryaSundarVadali/holoscan/hologram/geom"

// Detection is a single verified candidate region, carrying the frame
// index it was observed in alongside its bounding box and confidence.
type Detection struct {
	Frame      int
	Box        geom.BBox
	Confidence float64
}

// Aggregate summarises a processed clip: total frame count, how many of
// those frames carried at least one detection, the concatenated
// detection list (ordered by Frame; detections from one frame are
// adjacent and share its index), the concatenated
// confidence scores, and the mean per-frame processing time.
type Aggregate struct {
	TotalFrames          int
	FramesWithDetections int
	Detections           []Detection
	ConfidenceScores     []float64
	AvgProcessingTime    float64
}

// AvgConfidence returns the mean confidence score across all
// detections, and false if the clip produced no detections (the
// reference implementation leaves avg_confidence absent in this case).
func (a Aggregate) AvgConfidence() (float64, bool) {
	if len(a.ConfidenceScores) == 0 {
		return 0, false
	}
	var sum float64
	for _, c := range a.ConfidenceScores {
		sum += c
	}
	return sum / float64(len(a.ConfidenceScores)), true
}

// MaxConfidence returns the largest confidence score across all
// detections, and false if the clip produced no detections.
func (a Aggregate) MaxConfidence() (float64, bool) {
	if len(a.ConfidenceScores) == 0 {
		return 0, false
	}
	max := a.ConfidenceScores[0]
	for _, c := range a.ConfidenceScores[1:] {
		if c > max {
			max = c
		}
	}
	return max, true
}

// Valid reports the outward validity verdict for the clip: at least
// max(3, total_frames/10) detections, and a mean confidence at or above
// threshold. This resolves spec open question (a) — validity is a pure
// function any caller can invoke, not something computed only by an
// HTTP layer.
func (a Aggregate) Valid(threshold float64) bool {
	minDetections := a.TotalFrames / 10
	if minDetections < 3 {
		minDetections = 3
	}
	if len(a.Detections) < minDetections {
		return false
	}
	mean, ok := a.AvgConfidence()
	if !ok {
		return false
	}
	return mean >= threshold
}
