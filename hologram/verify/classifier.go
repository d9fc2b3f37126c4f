/*
NAME
  classifier.go

LICENSE
  Copyright (c) 2024 the holoscan authors.

  Use of this source code is governed by a BSD-style license that can
  be found in the LICENSE file.
*/

//go:build withcv

package verify

import (
	"image"
	"math"

	"gocv.io/x/gocv"
)

// HOG-shaped descriptor parameters. These match the reference
// implementation's scikit-image hog() call: a 64x64 resized region,
// 9 orientation bins, 8x8 pixel cells, 2x2 cell blocks with L2-Hys
// normalisation.
const (
	hogSize          = 64
	hogOrientations  = 9
	hogCellPx        = 8
	hogCellsPerSide  = hogSize / hogCellPx // 8
	hogBlockCells    = 2
	hogBlocksPerSide = hogCellsPerSide - hogBlockCells + 1 // 7
	hogFeatureLength = hogBlocksPerSide * hogBlocksPerSide * hogBlockCells * hogBlockCells * hogOrientations
)

// l2HysClip is the value at which block-normalised feature components
// are clipped before a second renormalisation pass, matching
// scikit-image's L2-Hys block norm.
const l2HysClip = 0.2

// gradientHistogram extracts a fixed-length Histogram-of-Oriented-
// Gradients descriptor from a BGR (or grayscale) region, resized to
// 64x64, using Sobel gradients binned into 9 orientations over 8x8
// pixel cells and L2-Hys-normalised over overlapping 2x2 cell blocks.
// This mirrors _extract_hog_features in the reference implementation
// (itself skimage.feature.hog), reimplemented over gocv.Sobel since no
// dependency in the pack offers a ready-made HOG extractor.
func gradientHistogram(region gocv.Mat) []float64 {
	gray := gocv.NewMat()
	defer gray.Close()
	if region.Channels() == 3 {
		gocv.CvtColor(region, &gray, gocv.ColorBGRToGray)
	} else {
		gray = region.Clone()
	}

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(gray, &resized, image.Pt(hogSize, hogSize), 0, 0, gocv.InterpolationLinear)

	gx := gocv.NewMat()
	defer gx.Close()
	gy := gocv.NewMat()
	defer gy.Close()
	gocv.Sobel(resized, &gx, gocv.MatTypeCV32F, 1, 0, 3, 1, 0, gocv.BorderDefault)
	gocv.Sobel(resized, &gy, gocv.MatTypeCV32F, 0, 1, 3, 1, 0, gocv.BorderDefault)

	gxData, errX := gx.DataPtrFloat32()
	gyData, errY := gy.DataPtrFloat32()
	if errX != nil || errY != nil {
		return make([]float64, hogFeatureLength)
	}
	step := gx.Step() / 4 // float32 elements per row

	// cellHist[cy][cx] holds the 9-bin orientation histogram for cell
	// (cy, cx).
	cellHist := make([][][hogOrientations]float64, hogCellsPerSide)
	for i := range cellHist {
		cellHist[i] = make([][hogOrientations]float64, hogCellsPerSide)
	}

	for y := 0; y < hogSize; y++ {
		cy := y / hogCellPx
		for x := 0; x < hogSize; x++ {
			cx := x / hogCellPx
			vx := float64(gxData[y*step+x])
			vy := float64(gyData[y*step+x])
			mag := math.Hypot(vx, vy)
			angle := math.Atan2(vy, vx) * 180 / math.Pi
			if angle < 0 {
				angle += 180
			}
			bin := int(angle / (180.0 / hogOrientations))
			if bin >= hogOrientations {
				bin = hogOrientations - 1
			}
			cellHist[cy][cx][bin] += mag
		}
	}

	features := make([]float64, 0, hogFeatureLength)
	for by := 0; by < hogBlocksPerSide; by++ {
		for bx := 0; bx < hogBlocksPerSide; bx++ {
			block := make([]float64, 0, hogBlockCells*hogBlockCells*hogOrientations)
			for dy := 0; dy < hogBlockCells; dy++ {
				for dx := 0; dx < hogBlockCells; dx++ {
					hist := cellHist[by+dy][bx+dx]
					block = append(block, hist[:]...)
				}
			}
			features = append(features, l2Hys(block)...)
		}
	}
	return features
}

// l2Hys applies scikit-image's L2-Hys block normalisation: an L2 norm,
// clipping of components above l2HysClip, then a second L2
// renormalisation.
func l2Hys(v []float64) []float64 {
	normalize := func(v []float64) []float64 {
		var sumSq float64
		for _, x := range v {
			sumSq += x * x
		}
		norm := math.Sqrt(sumSq + 1e-10)
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = x / norm
		}
		return out
	}

	v = normalize(v)
	for i, x := range v {
		if x > l2HysClip {
			v[i] = l2HysClip
		}
	}
	return normalize(v)
}

// linearClassifier is a from-scratch online logistic-regression
// learner: a weight vector plus bias, trained with L2-regularised
// gradient descent (the same shape as the reference's SGDClassifier
// with loss='log_loss', penalty='l2'), and a sigmoid-mapped confidence.
// No dependency in the pack offers a depend-on-nothing online logistic
// learner, so this stays on math/stdlib by design.
type linearClassifier struct {
	weights []float64
	bias    float64
	trained bool
}

func newLinearClassifier(nfeatures int) *linearClassifier {
	return &linearClassifier{weights: make([]float64, nfeatures)}
}

const (
	classifierLearningRate = 0.01
	classifierL2           = 0.0001
	classifierEpochs       = 1000
)

// fit trains the classifier on labelled feature vectors (label 1 =
// genuine hologram, 0 = fraud) using batch gradient descent on the
// logistic loss with an L2 penalty.
func (c *linearClassifier) fit(features [][]float64, labels []int) {
	if len(features) == 0 {
		return
	}
	n := len(features[0])
	if len(c.weights) != n {
		c.weights = make([]float64, n)
	}

	for epoch := 0; epoch < classifierEpochs; epoch++ {
		gradW := make([]float64, n)
		var gradB float64
		for i, x := range features {
			y := float64(labels[i])
			p := sigmoid(c.dot(x) + c.bias)
			errTerm := p - y
			for j, xj := range x {
				gradW[j] += errTerm * xj
			}
			gradB += errTerm
		}
		scale := classifierLearningRate / float64(len(features))
		for j := range c.weights {
			c.weights[j] -= scale*gradW[j] + classifierLearningRate*classifierL2*c.weights[j]
		}
		c.bias -= scale * gradB
	}
	c.trained = true
}

// predict returns the predicted label and a sigmoid confidence.
func (c *linearClassifier) predict(features []float64) (bool, float64) {
	p := sigmoid(c.dot(features) + c.bias)
	return p >= 0.5, p
}

func (c *linearClassifier) dot(x []float64) float64 {
	n := len(x)
	if len(c.weights) < n {
		n = len(c.weights)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += c.weights[i] * x[i]
	}
	return sum
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}
