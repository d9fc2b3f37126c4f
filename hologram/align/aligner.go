/*
NAME
  aligner.go

LICENSE
  Copyright (c) 2024 the holoscan authors.

  Use of this source code is governed by a BSD-style license that can
  be found in the LICENSE file.
*/

//go:build withcv

// Package align registers consecutive video frames against a reference
// frame using feature-based homography estimation. Alignment is the
// precondition for the rest of the pipeline: background subtraction and
// per-pixel chromaticity accumulation are only meaningful once a
// document is held still in the same pixel coordinates across frames.
package align

import (
	"image"
	"math"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/SuryaSundarVadali/holoscan/hologram/config"
)

// ErrInsufficientFeatures is returned by SetReference when the reference
// frame does not carry enough keypoints to attempt matching. Align
// reports the same condition on a probe frame via its boolean instead.
var ErrInsufficientFeatures = errors.New("insufficient features for alignment")

// ErrNoReference is returned by Align and Quality when SetReference has
// not yet been called.
var ErrNoReference = errors.New("reference frame not set")

// minKeypoints mirrors the reference implementation's guard in
// set_reference_frame/align_frame: fewer than this many keypoints and
// there is nothing worth matching.
const minKeypoints = 10

// loweRatio is the threshold used by the Lowe ratio test when filtering
// knn matches down to "good" matches.
const loweRatio = 0.75

// Aligner aligns incoming frames to a reference frame via ORB or SIFT
// feature matching followed by RANSAC homography fitting.
//
// An Aligner owns gocv resources (the detector, matcher and reference
// frame/descriptor Mats) and must have Close called on it once it is no
// longer needed.
type Aligner struct {
	cfg config.Config

	orb  gocv.ORB
	sift gocv.SIFT
	bf   gocv.BFMatcher

	refSet   bool
	refColor gocv.Mat
	refGray  gocv.Mat
	refKps   []gocv.KeyPoint
	refDescs gocv.Mat
	refSize  image.Point
}

// New constructs an Aligner from cfg. cfg.FeatureDetector selects ORB or
// SIFT; cfg.MaxFeatures bounds how many keypoints ORB extracts per frame
// (gocv's SIFT binding does not expose an nfeatures cap the way OpenCV's
// Python SIFT_create does, so that knob only applies to the ORB path).
func New(cfg config.Config) *Aligner {
	a := &Aligner{cfg: cfg}

	if cfg.FeatureDetector == config.FeatureDetectorSIFT {
		a.sift = gocv.NewSIFT()
	} else {
		a.orb = gocv.NewORBWithParams(int(cfg.MaxFeatures), 1.2, 8, 31, 0, 2, gocv.ORBScoreTypeHarris, 31, 20)
	}
	a.bf = gocv.NewBFMatcher()

	return a
}

// Reset discards the current reference frame, returning the Aligner to
// its pre-SetReference state. The underlying detector and matcher are
// kept alive so a subsequent SetReference does not pay their setup cost
// again.
func (a *Aligner) Reset() {
	if a.refSet {
		a.refColor.Close()
		a.refGray.Close()
		a.refDescs.Close()
		a.refKps = nil
		a.refSet = false
	}
}

// Close releases the gocv resources owned by the Aligner.
func (a *Aligner) Close() error {
	if a.cfg.FeatureDetector == config.FeatureDetectorSIFT {
		a.sift.Close()
	} else {
		a.orb.Close()
	}
	a.bf.Close()
	if a.refSet {
		a.refColor.Close()
		a.refGray.Close()
		a.refDescs.Close()
	}
	return nil
}

// detectAndCompute runs the configured detector over gray and returns its
// keypoints and descriptors. The caller owns the returned Mat.
func (a *Aligner) detectAndCompute(gray gocv.Mat) ([]gocv.KeyPoint, gocv.Mat) {
	mask := gocv.NewMat()
	defer mask.Close()
	if a.cfg.FeatureDetector == config.FeatureDetectorSIFT {
		return a.sift.DetectAndCompute(gray, mask)
	}
	return a.orb.DetectAndCompute(gray, mask)
}

// SetReference sets the reference frame alignment is performed against.
// frame must be a BGR image. Returns ErrInsufficientFeatures if the
// frame does not carry enough keypoints.
func (a *Aligner) SetReference(frame gocv.Mat) error {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)

	kps, descs := a.detectAndCompute(gray)
	if descs.Empty() || len(kps) < minKeypoints {
		descs.Close()
		return ErrInsufficientFeatures
	}

	if a.refSet {
		a.refColor.Close()
		a.refGray.Close()
		a.refDescs.Close()
	}
	a.refColor = frame.Clone()
	a.refGray = gray.Clone()
	a.refKps = kps
	a.refDescs = descs
	a.refSize = image.Pt(frame.Cols(), frame.Rows())
	a.refSet = true
	return nil
}

// goodMatches runs KnnMatch between the reference descriptors and descs
// and applies the Lowe ratio test, the same test the reference
// implementation applies.
func (a *Aligner) goodMatches(descs gocv.Mat) []gocv.DMatch {
	knn := a.bf.KnnMatch(a.refDescs, descs, 2)
	good := make([]gocv.DMatch, 0, len(knn))
	for _, pair := range knn {
		if len(pair) != 2 {
			continue
		}
		if pair[0].Distance < loweRatio*pair[1].Distance {
			good = append(good, pair[0])
		}
	}
	return good
}

// Align registers frame against the reference frame set by SetReference.
// It returns the warped frame, whether alignment succeeded, and an error
// only for programmer errors (no reference set). A failure to find
// enough features or fit a homography is reported via the boolean, not
// an error, per the pipeline's non-exceptional alignment-failure
// convention: callers should skip the frame and continue, not abort.
func (a *Aligner) Align(frame gocv.Mat) (aligned gocv.Mat, ok bool, err error) {
	if !a.refSet {
		return gocv.NewMat(), false, ErrNoReference
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)

	kps, descs := a.detectAndCompute(gray)
	defer descs.Close()
	if descs.Empty() || len(kps) < minKeypoints {
		return frame.Clone(), false, nil
	}

	good := a.goodMatches(descs)
	if uint(len(good)) < a.cfg.MinFeatureMatches {
		return frame.Clone(), false, nil
	}

	refPts := make([]float32, 0, len(good)*2)
	currPts := make([]float32, 0, len(good)*2)
	for _, m := range good {
		rk := a.refKps[m.QueryIdx]
		ck := kps[m.TrainIdx]
		refPts = append(refPts, float32(rk.X), float32(rk.Y))
		currPts = append(currPts, float32(ck.X), float32(ck.Y))
	}

	refMat, err := pointsToMat(refPts)
	if err != nil {
		return frame.Clone(), false, nil
	}
	defer refMat.Close()
	currMat, err := pointsToMat(currPts)
	if err != nil {
		return frame.Clone(), false, nil
	}
	defer currMat.Close()

	mask := gocv.NewMat()
	defer mask.Close()
	h := gocv.FindHomography(currMat, refMat, gocv.HomographyMethodRANSAC, a.cfg.RansacThreshold, &mask, 2000, 0.995)
	defer h.Close()
	if h.Empty() {
		return frame.Clone(), false, nil
	}

	warped := gocv.NewMat()
	gocv.WarpPerspective(frame, &warped, h, a.refSize)
	return warped, true, nil
}

// pointsToMat packs an interleaved [x1, y1, x2, y2, ...] slice into the
// CV_32FC2 Mat shape gocv.FindHomography expects. The byte-level
// conversion mirrors the approach used elsewhere in the pack for
// feeding point correspondences to OpenCV from native Go slices.
func pointsToMat(xy []float32) (gocv.Mat, error) {
	rows := len(xy) / 2
	raw := make([]byte, len(xy)*4)
	for i, v := range xy {
		bits := math.Float32bits(v)
		raw[i*4] = byte(bits)
		raw[i*4+1] = byte(bits >> 8)
		raw[i*4+2] = byte(bits >> 16)
		raw[i*4+3] = byte(bits >> 24)
	}
	return gocv.NewMatFromBytes(rows, 1, gocv.MatTypeCV32FC2, raw)
}

// Quality estimates how well frame would align to the reference, as the
// fraction of reference keypoints that find a good match in frame,
// without actually performing the warp. This mirrors the reference
// implementation's get_alignment_quality and is intended for diagnostics
// and logging, not for gating the pipeline.
func (a *Aligner) Quality(frame gocv.Mat) (float64, error) {
	if !a.refSet {
		return 0, ErrNoReference
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)

	kps, descs := a.detectAndCompute(gray)
	defer descs.Close()
	if descs.Empty() {
		return 0, nil
	}

	good := a.goodMatches(descs)

	// Matches are queried reference-descriptor-first (see goodMatches),
	// so len(good) can never exceed len(a.refKps): quality is exactly
	// the fraction of reference keypoints that survived the ratio test.
	maxPossible := len(a.refKps)
	if maxPossible < 1 {
		maxPossible = 1
	}

	quality := float64(len(good)) / float64(maxPossible)
	if quality > 1 {
		quality = 1
	}
	return quality, nil
}

// UpdateReference blends frame into the current reference using an
// exponential moving average with weight alpha, then recomputes
// reference keypoints/descriptors against the blended image. This is an
// auxiliary, non-hot-path primitive intended for scenes where the
// reference document shifts slowly (e.g. held-hand jitter settling),
// not for per-frame use.
func (a *Aligner) UpdateReference(frame gocv.Mat, alpha float64) error {
	if !a.refSet {
		return a.SetReference(frame)
	}

	blended := gocv.NewMat()
	defer blended.Close()
	gocv.AddWeighted(a.refColor, 1-alpha, frame, alpha, 0, &blended)

	return a.SetReference(blended)
}
