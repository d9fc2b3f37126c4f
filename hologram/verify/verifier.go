/*
NAME
  verifier.go

LICENSE
  Copyright (c) 2024 the holoscan authors.

  Use of this source code is governed by a BSD-style license that can
  be found in the LICENSE file.
*/

//go:build withcv

// Package verify distinguishes a genuine dynamic hologram inside a
// candidate region from a static colourful print by comparing the
// current frame against a rolling median background: a real hologram
// leaves high per-channel energy in the difference image as its colour
// shifts with viewing angle, while a static print differences away to
// near zero once alignment has settled.
package verify

import (
	"image"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/stat"

	"github.com/SuryaSundarVadali/holoscan/hologram/config"
	"github.com/SuryaSundarVadali/holoscan/hologram/geom"
)

// Result is a single region's verification outcome.
type Result struct {
	Box        geom.BBox
	IsHologram bool
	Confidence float64
}

// Verifier maintains a rolling background model over aligned frames and
// scores candidate regions by the energy of their difference from that
// background, optionally delegating to a trained gradient-histogram
// classifier.
type Verifier struct {
	cfg config.Config
	bg  *backgroundRing

	classifier *linearClassifier
}

// New constructs a Verifier from cfg. If cfg.UseMLClassifier is set, an
// untrained linear classifier is attached; Verify falls back to the
// heuristic scorer until Train is called.
func New(cfg config.Config) *Verifier {
	v := &Verifier{
		cfg: cfg,
		bg:  newBackgroundRing(int(cfg.BackgroundFrames)),
	}
	if cfg.UseMLClassifier {
		v.classifier = newLinearClassifier(hogFeatureLength)
	}
	return v
}

// Add folds an aligned frame into the rolling background model.
func (v *Verifier) Add(frame gocv.Mat) {
	v.bg.add(frame)
}

// Difference returns the absolute difference between frame and the
// current background model, once in BGR and once in HSV. If no
// background model has been computed yet, both returned Mats are zero
// images the size of frame.
func (v *Verifier) Difference(frame gocv.Mat) (diffBGR, diffHSV gocv.Mat) {
	rows, cols := frame.Rows(), frame.Cols()
	if !v.bg.hasBackground {
		return gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV8UC3), gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV8UC3)
	}

	diffBGR = gocv.NewMat()
	gocv.AbsDiff(frame, v.bg.background, &diffBGR)

	frameHSV := gocv.NewMat()
	defer frameHSV.Close()
	gocv.CvtColor(frame, &frameHSV, gocv.ColorBGRToHSV)
	bgHSV := gocv.NewMat()
	defer bgHSV.Close()
	gocv.CvtColor(v.bg.background, &bgHSV, gocv.ColorBGRToHSV)

	diffHSV = gocv.NewMat()
	gocv.AbsDiff(frameHSV, bgHSV, &diffHSV)
	return diffBGR, diffHSV
}

// score computes the heuristic hue/saturation energy score for region
// within diffHSV: 0.7*hue_energy + 0.3*sat_energy, each a per-channel
// variance normalised by the channel's maximum squared value.
func score(diffHSV gocv.Mat, region geom.BBox, hueThreshold float64) (isHologram bool, confidence float64) {
	rect := image.Rect(region.X, region.Y, region.X2(), region.Y2())
	rect = rect.Intersect(image.Rect(0, 0, diffHSV.Cols(), diffHSV.Rows()))
	if rect.Empty() {
		return false, 0
	}

	roi := diffHSV.Region(rect)
	defer roi.Close()

	channels := gocv.Split(roi)
	defer func() {
		for _, c := range channels {
			c.Close()
		}
	}()

	hueVals := channelFloats(channels[0])
	satVals := channelFloats(channels[1])

	hueEnergy := stat.Variance(hueVals, nil) / (179.0 * 179.0)
	satEnergy := stat.Variance(satVals, nil) / (255.0 * 255.0)

	combined := 0.7*hueEnergy + 0.3*satEnergy
	isHologram = combined > hueThreshold
	confidence = combined / hueThreshold
	if confidence > 1 {
		confidence = 1
	}
	return isHologram, confidence
}

// channelFloats flattens a single-channel 8-bit Mat into a float64
// slice, the shape gonum/stat's Variance expects.
func channelFloats(ch gocv.Mat) []float64 {
	rows, cols, step := ch.Rows(), ch.Cols(), ch.Step()
	data, err := ch.DataPtrUint8()
	if err != nil {
		return nil
	}
	out := make([]float64, 0, rows*cols)
	for y := 0; y < rows; y++ {
		off := y * step
		for x := 0; x < cols; x++ {
			out = append(out, float64(data[off+x]))
		}
	}
	return out
}

// Verify scores each of regions against the current background model,
// in order, using the trained classifier when available and falling
// back to the heuristic hue/saturation energy score otherwise.
func (v *Verifier) Verify(frame gocv.Mat, regions []geom.BBox) []Result {
	results := make([]Result, 0, len(regions))
	if len(regions) == 0 {
		return results
	}

	diffBGR, diffHSV := v.Difference(frame)
	defer diffBGR.Close()
	defer diffHSV.Close()

	for _, r := range regions {
		var isHologram bool
		var confidence float64

		if v.classifier != nil && v.classifier.trained {
			isHologram, confidence = v.classifyRegion(diffBGR, r)
		} else {
			isHologram, confidence = score(diffHSV, r, v.cfg.HueEnergyThreshold)
		}

		results = append(results, Result{Box: r, IsHologram: isHologram, Confidence: confidence})
	}
	return results
}

// classifyRegion extracts the region's gradient-histogram descriptor
// from the BGR difference image and queries the classifier. It does not
// check that the classifier exists or is trained; Verify only calls it
// when it is, and uses the heuristic scorer otherwise.
func (v *Verifier) classifyRegion(diffBGR gocv.Mat, region geom.BBox) (bool, float64) {
	rect := image.Rect(region.X, region.Y, region.X2(), region.Y2())
	rect = rect.Intersect(image.Rect(0, 0, diffBGR.Cols(), diffBGR.Rows()))
	if rect.Empty() {
		return false, 0
	}
	roi := diffBGR.Region(rect)
	defer roi.Close()

	features := gradientHistogram(roi)
	label, confidence := v.classifier.predict(features)
	return label, confidence
}

// Train fits the optional classifier on pre-extracted gradient-histogram
// feature vectors and binary labels (1 = genuine hologram). It is a
// no-op if cfg.UseMLClassifier was false at construction.
func (v *Verifier) Train(features [][]float64, labels []int) {
	if v.classifier == nil {
		return
	}
	v.classifier.fit(features, labels)
}

// ExtractFeatures returns the gradient-histogram descriptor for region
// of the BGR difference image against the current background, for
// offline training-data preparation. It does not require the classifier
// to be enabled.
func (v *Verifier) ExtractFeatures(frame gocv.Mat, region geom.BBox) []float64 {
	diffBGR, diffHSV := v.Difference(frame)
	defer diffBGR.Close()
	defer diffHSV.Close()

	rect := image.Rect(region.X, region.Y, region.X2(), region.Y2())
	rect = rect.Intersect(image.Rect(0, 0, diffBGR.Cols(), diffBGR.Rows()))
	if rect.Empty() {
		return nil
	}
	roi := diffBGR.Region(rect)
	defer roi.Close()
	return gradientHistogram(roi)
}

// Reset clears the background model and ring buffer.
func (v *Verifier) Reset() {
	v.bg.reset()
}

// HasBackground reports whether enough frames have been added to
// compute a background model.
func (v *Verifier) HasBackground() bool {
	return v.bg.hasBackground
}
