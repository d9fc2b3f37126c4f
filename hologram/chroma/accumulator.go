/*
NAME
  accumulator.go

LICENSE
  Copyright (c) 2024 the holoscan authors.

  Use of this source code is governed by a BSD-style license that can
  be found in the LICENSE file.
*/

//go:build withcv

// Package chroma accumulates per-pixel chromaticity statistics over a
// window of aligned frames to surface regions whose hue shifts rapidly
// over time but remain strongly saturated — the optical signature a
// genuine diffractive hologram leaves and a static colour print does
// not.
package chroma

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/SuryaSundarVadali/holoscan/hologram/config"
	"github.com/SuryaSundarVadali/holoscan/hologram/geom"
)

const epsilon = 1e-6

// Accumulator accumulates per-pixel maximum saturation, summed
// chromaticity scalar and valid-observation counts across frames added
// via Add. Grids are lazily sized from the first frame.
type Accumulator struct {
	cfg config.Config

	width, height int
	initialized   bool
	frameCount    int

	sMax   []float32
	cSum   []float32
	nCount []int32

	// ring holds the last cfg.BufferSize aligned frames for
	// visualization only; the accumulator statistics above are
	// independent of it and never read it back.
	ring []gocv.Mat
}

// New constructs an Accumulator from cfg.
func New(cfg config.Config) *Accumulator {
	return &Accumulator{cfg: cfg}
}

// chromaticity computes, for a single BGR frame, the per-pixel
// chromaticity scalar C and saturation S, following the MIDV-Holo
// dominant-channel formulation:
//
//	R dominant: C = (G-B)/S
//	G dominant: C = (B-R)/S + 2
//	B dominant: C = (R-G)/S + 4
//
// where S = (max-min)/max over the normalised RGB triple.
func chromaticity(frame gocv.Mat) (c, s []float32) {
	rows, cols := frame.Rows(), frame.Cols()
	n := rows * cols
	c = make([]float32, n)
	s = make([]float32, n)

	data, err := frame.DataPtrUint8()
	if err != nil {
		return c, s
	}

	idx := 0
	for y := 0; y < rows; y++ {
		rowOff := y * frame.Step()
		for x := 0; x < cols; x++ {
			off := rowOff + x*3
			bB := float32(data[off]) / 255.0
			gG := float32(data[off+1]) / 255.0
			rR := float32(data[off+2]) / 255.0

			maxV := rR
			if gG > maxV {
				maxV = gG
			}
			if bB > maxV {
				maxV = bB
			}
			minV := rR
			if gG < minV {
				minV = gG
			}
			if bB < minV {
				minV = bB
			}

			var sat float32
			if maxV > epsilon {
				sat = (maxV - minV) / maxV
			}
			s[idx] = sat

			if sat > epsilon {
				switch {
				case rR >= gG && rR >= bB:
					c[idx] = (gG - bB) / (sat + epsilon)
				case gG >= rR && gG >= bB:
					c[idx] = (bB-rR)/(sat+epsilon) + 2.0
				default:
					c[idx] = (rR-gG)/(sat+epsilon) + 4.0
				}
			}
			idx++
		}
	}
	return c, s
}

// Add folds an aligned BGR frame into the running chromaticity
// statistics.
func (a *Accumulator) Add(frame gocv.Mat) {
	rows, cols := frame.Rows(), frame.Cols()

	if !a.initialized {
		a.width, a.height = cols, rows
		n := rows * cols
		a.sMax = make([]float32, n)
		a.cSum = make([]float32, n)
		a.nCount = make([]int32, n)
		a.initialized = true
	}

	a.frameCount++

	c, s := chromaticity(frame)

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)
	grayData, err := gray.DataPtrUint8()
	if err != nil {
		return
	}

	// Config's SaturationThreshold is expressed 0-255 (HSV channel
	// range) for consistency across components; the accumulator's own
	// saturation is normalised to [0,1], so scale down for comparison.
	satThreshold := float32(a.cfg.SaturationThreshold) / 255.0

	idx := 0
	for y := 0; y < rows; y++ {
		grayOff := y * gray.Step()
		for x := 0; x < cols; x++ {
			if s[idx] > satThreshold && grayData[grayOff+x] < a.cfg.HighlightThreshold {
				a.cSum[idx] += c[idx]
				a.nCount[idx]++
			}
			if s[idx] > a.sMax[idx] {
				a.sMax[idx] = s[idx]
			}
			idx++
		}
	}

	a.pushRing(frame)
}

// pushRing appends an owned clone of frame to the visualization ring,
// evicting the oldest frame once cfg.BufferSize is exceeded.
func (a *Accumulator) pushRing(frame gocv.Mat) {
	limit := int(a.cfg.BufferSize)
	if limit < 1 {
		limit = 1
	}
	a.ring = append(a.ring, frame.Clone())
	if len(a.ring) > limit {
		a.ring[0].Close()
		a.ring = a.ring[1:]
	}
}

// Ring returns the frames currently held in the visualization ring,
// oldest first. Callers must not mutate or Close the returned Mats;
// they remain owned by the Accumulator.
func (a *Accumulator) Ring() []gocv.Mat {
	return a.ring
}

// HologramMap returns the accumulated hologram score map: high where
// saturation stays high but the mean chromaticity scalar magnitude
// stays low, i.e. the hue keeps shifting. When normalize is true the
// scores are rescaled so the map's peak becomes 255; otherwise each
// score in [0, 1] is multiplied by 255 without rescaling. Both forms
// are returned as 8-bit grayscale; no float32 map is produced.
func (a *Accumulator) HologramMap(normalize bool) gocv.Mat {
	if !a.initialized || a.frameCount == 0 {
		return gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8U)
	}

	n := len(a.sMax)
	score := make([]float32, n)
	maxM := float32(0)
	meanC := make([]float32, n)
	for i := range meanC {
		if a.nCount[i] > 0 {
			meanC[i] = a.cSum[i] / (float32(a.nCount[i]) + epsilon)
		}
		m := abs32(meanC[i])
		if m > maxM {
			maxM = m
		}
	}
	if maxM <= epsilon {
		maxM = 1.0
	}

	minObservations := int32(a.cfg.BufferSize) / 3
	if minObservations < 5 {
		minObservations = 5
	}

	maxScore := float32(0)
	for i := range score {
		mNorm := abs32(meanC[i]) / maxM
		v := a.sMax[i] * (1.0 - mNorm)
		if a.nCount[i] < minObservations {
			v = 0
		}
		score[i] = v
		if v > maxScore {
			maxScore = v
		}
	}

	out := gocv.NewMatWithSize(a.height, a.width, gocv.MatTypeCV8U)
	idx := 0
	for y := 0; y < a.height; y++ {
		for x := 0; x < a.width; x++ {
			var v byte
			if normalize {
				if maxScore > epsilon {
					v = byte(score[idx] / maxScore * 255)
				}
			} else {
				v = byte(clamp01(score[idx]) * 255)
			}
			out.SetUCharAt(y, x, v)
			idx++
		}
	}
	return out
}

// Regions extracts bounding boxes of connected components in the
// hologram map whose value exceeds threshold (a fraction of the map's
// peak score), after a 5x5 elliptical morphological close then open to
// bridge gaps and remove speckle noise.
func (a *Accumulator) Regions(threshold float64) []geom.BBox {
	raw := a.HologramMap(false)
	defer raw.Close()

	maxVal := maxUCharMat(raw)

	// Only the degenerate all-zero map substitutes a flat fallback;
	// when the map carries real signal, threshold is honored verbatim
	// against the map's own peak, however small the caller's fraction.
	var thresholdValue float64
	if maxVal > 0 {
		thresholdValue = threshold * float64(maxVal)
	} else {
		thresholdValue = 0.1 * 255
	}

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(raw, &binary, float32(thresholdValue), 255, gocv.ThresholdBinary)

	kernel := gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(5, 5))
	defer kernel.Close()
	gocv.MorphologyEx(binary, &binary, gocv.MorphClose, kernel)
	gocv.MorphologyEx(binary, &binary, gocv.MorphOpen, kernel)

	labels := gocv.NewMat()
	defer labels.Close()
	stats := gocv.NewMat()
	defer stats.Close()
	centroids := gocv.NewMat()
	defer centroids.Close()

	numLabels := gocv.ConnectedComponentsWithStats(binary, &labels, &stats, &centroids, 8, gocv.MatTypeCV32S, gocv.CCL_DEFAULT)

	regions := make([]geom.BBox, 0)
	for i := 1; i < numLabels; i++ {
		area := stats.GetIntAt(i, 4)
		if float64(area) < a.cfg.ChromaMinRegionArea {
			continue
		}
		b := geom.BBox{
			X: int(stats.GetIntAt(i, 0)),
			Y: int(stats.GetIntAt(i, 1)),
			W: int(stats.GetIntAt(i, 2)),
			H: int(stats.GetIntAt(i, 3)),
		}
		regions = append(regions, b)
	}
	return regions
}

// Reset clears all accumulated statistics, returning the Accumulator to
// its pre-Add state.
func (a *Accumulator) Reset() {
	a.sMax = nil
	a.cSum = nil
	a.nCount = nil
	for _, m := range a.ring {
		m.Close()
	}
	a.ring = nil
	a.initialized = false
	a.frameCount = 0
}

// Statistics reports the current frame count, used by the pipeline
// coordinator's per-clip aggregate and by diagnostics callers.
func (a *Accumulator) Statistics() (frameCount int, initialized bool) {
	return a.frameCount, a.initialized
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func clamp01(v float32) float32 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func maxUCharMat(m gocv.Mat) byte {
	data, err := m.DataPtrUint8()
	if err != nil || len(data) == 0 {
		return 0
	}
	max := data[0]
	for _, v := range data {
		if v > max {
			max = v
		}
	}
	return max
}
