/*
NAME
  selector.go

LICENSE
  Copyright (c) 2024 the holoscan authors.

  Use of this source code is governed by a BSD-style license that can
  be found in the LICENSE file.
*/

//go:build withcv

// Package hsv proposes candidate hologram regions from a single frame by
// adaptively thresholding the HSV saturation/value channels and filtering
// the resulting connected components by circular hue variance. Unlike
// the chroma package it needs no history, so it is cheap to run every
// frame and complements the accumulator's slower, temporally-grounded
// proposals.
package hsv

import (
	"image"
	"math"
	"sort"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/stat"

	"github.com/SuryaSundarVadali/holoscan/hologram/config"
	"github.com/SuryaSundarVadali/holoscan/hologram/geom"
)

// Floors applied to the adaptive percentile thresholds so that a mostly
// dark or desaturated frame does not collapse the mask onto noise.
const (
	minSaturationFloor = 40.0
	minValueFloor      = 50.0
)

// minHueSamples is the fewest hue observations a component may have for
// its circular variance to be considered meaningful.
const minHueSamples = 10

// Selector proposes candidate regions from a single BGR frame.
type Selector struct {
	cfg config.Config
}

// New constructs a Selector from cfg.
func New(cfg config.Config) *Selector {
	return &Selector{cfg: cfg}
}

// Select converts frame to HSV, derives adaptive saturation/value
// thresholds from cfg.SPercentile/VPercentile, thresholds and cleans up
// the resulting mask, then keeps only connected components whose
// circular hue variance exceeds cfg.HueVarianceThreshold. It returns the
// accepted bounding boxes and the union of their pixel masks.
func (s *Selector) Select(frame gocv.Mat) ([]geom.BBox, gocv.Mat) {
	hsvImg := gocv.NewMat()
	defer hsvImg.Close()
	gocv.CvtColor(frame, &hsvImg, gocv.ColorBGRToHSV)

	channels := gocv.Split(hsvImg)
	defer func() {
		for _, c := range channels {
			c.Close()
		}
	}()
	hCh, sCh, vCh := channels[0], channels[1], channels[2]

	sThreshold := adaptiveThreshold(sCh, s.cfg.SPercentile, minSaturationFloor)
	vThreshold := adaptiveThreshold(vCh, s.cfg.VPercentile, minValueFloor)

	mask := buildMask(sCh, vCh, sThreshold, vThreshold)
	defer mask.Close()

	closeKernel := gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(7, 7))
	defer closeKernel.Close()
	openKernel := gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(3, 3))
	defer openKernel.Close()
	gocv.MorphologyEx(mask, &mask, gocv.MorphClose, closeKernel)
	gocv.MorphologyEx(mask, &mask, gocv.MorphOpen, openKernel)

	labels := gocv.NewMat()
	defer labels.Close()
	stats := gocv.NewMat()
	defer stats.Close()
	centroids := gocv.NewMat()
	defer centroids.Close()
	numLabels := gocv.ConnectedComponentsWithStats(mask, &labels, &stats, &centroids, 8, gocv.MatTypeCV32S, gocv.CCL_DEFAULT)

	boxes := make([]geom.BBox, 0)
	combined := gocv.NewMatWithSize(frame.Rows(), frame.Cols(), gocv.MatTypeCV8U)

	hueData, err := hCh.DataPtrUint8()
	if err != nil {
		return boxes, combined
	}

	rows, cols := frame.Rows(), frame.Cols()
	for label := 1; label < numLabels; label++ {
		area := stats.GetIntAt(label, 4)
		if float64(area) < s.cfg.MinRegionArea {
			continue
		}

		variance, ok := circularHueVariance(hueData, hCh.Step(), labels, rows, cols, label)
		if !ok || variance <= s.cfg.HueVarianceThreshold {
			continue
		}

		boxes = append(boxes, geom.BBox{
			X: int(stats.GetIntAt(label, 0)),
			Y: int(stats.GetIntAt(label, 1)),
			W: int(stats.GetIntAt(label, 2)),
			H: int(stats.GetIntAt(label, 3)),
		})

		for y := 0; y < rows; y++ {
			for x := 0; x < cols; x++ {
				if int(labels.GetIntAt(y, x)) == label {
					combined.SetUCharAt(y, x, 255)
				}
			}
		}
	}

	return boxes, combined
}

// adaptiveThreshold returns the channel's percentile-th value, floored at
// floor so a dim or desaturated frame cannot drive the threshold to
// near-zero and flood the mask with noise.
func adaptiveThreshold(ch gocv.Mat, percentile, floor float64) float64 {
	data, err := ch.DataPtrUint8()
	if err != nil || len(data) == 0 {
		return floor
	}

	rows, cols, step := ch.Rows(), ch.Cols(), ch.Step()
	values := make([]float64, 0, rows*cols)
	for y := 0; y < rows; y++ {
		off := y * step
		for x := 0; x < cols; x++ {
			values = append(values, float64(data[off+x]))
		}
	}
	sort.Float64s(values)

	t := stat.Quantile(percentile/100.0, stat.LinInterp, values, nil)
	if t < floor {
		t = floor
	}
	return t
}

// buildMask returns a binary (0/255) mask where both S and V exceed
// their thresholds.
func buildMask(sCh, vCh gocv.Mat, sThreshold, vThreshold float64) gocv.Mat {
	rows, cols := sCh.Rows(), sCh.Cols()
	mask := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV8U)

	sData, errS := sCh.DataPtrUint8()
	vData, errV := vCh.DataPtrUint8()
	if errS != nil || errV != nil {
		return mask
	}

	sStep, vStep := sCh.Step(), vCh.Step()
	for y := 0; y < rows; y++ {
		sOff, vOff := y*sStep, y*vStep
		for x := 0; x < cols; x++ {
			if float64(sData[sOff+x]) > sThreshold && float64(vData[vOff+x]) > vThreshold {
				mask.SetUCharAt(y, x, 255)
			}
		}
	}
	return mask
}

// circularHueVariance computes 1-R over the hue samples (OpenCV hue
// range [0,179]) belonging to label within a connected-components label
// grid. Returns ok=false when fewer than minHueSamples pixels belong to
// the label, matching the reference implementation's refusal to define
// variance on too few samples.
func circularHueVariance(hue []uint8, hueStep int, labels gocv.Mat, rows, cols, label int) (float64, bool) {
	var sinSum, cosSum float64
	var n int
	for y := 0; y < rows; y++ {
		rowOff := y * hueStep
		for x := 0; x < cols; x++ {
			if int(labels.GetIntAt(y, x)) != label {
				continue
			}
			theta := 2.0 * float64(hue[rowOff+x]) * math.Pi / 180.0
			sinSum += math.Sin(theta)
			cosSum += math.Cos(theta)
			n++
		}
	}
	if n < minHueSamples {
		return 0, false
	}
	sinMean := sinSum / float64(n)
	cosMean := cosSum / float64(n)
	r := math.Sqrt(sinMean*sinMean + cosMean*cosMean)
	return 1 - r, true
}
