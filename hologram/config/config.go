/*
NAME
  config.go

LICENSE
  Copyright (c) 2024 the holoscan authors.

  Use of this source code is governed by a BSD-style license that can
  be found in the LICENSE file.
*/

// Package config contains the configuration settings for the hologram
// verification pipeline.
package config

import (
	"github.com/pkg/errors"

	"github.com/ausocean/utils/logging"
)

// FeatureDetector selects the keypoint detector used by the frame aligner.
const (
	NothingDefined = iota
	FeatureDetectorORB
	FeatureDetectorSIFT
)

// ErrInvalidConfig is returned by Validate when a field carries a value
// that cannot be defaulted away, such as an unrecognised enum.
var ErrInvalidConfig = errors.New("invalid pipeline configuration")

// Config provides the parameters for a single hologram verification
// pipeline instance. A new Config must be passed to pipeline.New. Default
// values for these fields are defined as consts in variables.go.
type Config struct {
	// FeatureDetector selects the keypoint detector used by the frame
	// aligner: FeatureDetectorORB or FeatureDetectorSIFT.
	FeatureDetector uint8

	// MaxFeatures caps the number of keypoints the detector extracts per
	// frame.
	MaxFeatures uint

	// RansacThreshold is the RANSAC reprojection threshold, in pixels,
	// used when the frame aligner fits a homography.
	RansacThreshold float64

	// MinFeatureMatches is the minimum number of good matches (after the
	// Lowe ratio test) required for alignment to be attempted.
	MinFeatureMatches uint

	// BufferSize bounds how many recent frames the chromaticity
	// accumulator retains for visualisation purposes.
	BufferSize uint

	// UpdateInterval is the number of frames between regenerations of the
	// chromaticity hologram map.
	UpdateInterval uint

	// SaturationThreshold is the minimum HSV saturation (0-255) a pixel
	// must exceed to contribute to the chromaticity accumulator.
	SaturationThreshold uint8

	// HighlightThreshold is the grayscale intensity (0-255) a pixel must
	// stay below to be considered non-saturated (blown-out highlight
	// rejection) by the chromaticity accumulator.
	HighlightThreshold uint8

	// ChromaMinRegionArea is the minimum pixel area of a connected
	// component surfaced by the chromaticity accumulator's region step.
	ChromaMinRegionArea float64

	// SPercentile and VPercentile set the saturation/value percentiles
	// used to derive adaptive HSV thresholds.
	SPercentile float64
	VPercentile float64

	// MinRegionArea is the minimum pixel area of a connected component
	// surfaced by the HSV region selector.
	MinRegionArea float64

	// HueVarianceThreshold is the minimum circular hue variance (0-1) a
	// region must have to be considered colour-shifting ("flashy").
	HueVarianceThreshold float64

	// BackgroundFrames is the length of the rolling background ring
	// buffer maintained by the dynamic behaviour verifier.
	BackgroundFrames uint

	// HueEnergyThreshold is the heuristic score threshold above which a
	// region is judged to behave like a genuine hologram.
	HueEnergyThreshold float64

	// UseMLClassifier enables the optional online gradient-histogram
	// classifier. When false, or when the classifier is untrained, the
	// verifier always falls back to the heuristic scorer.
	UseMLClassifier bool

	// ConfidenceThreshold is the per-region confidence at or above which
	// a detection is retained by the pipeline coordinator.
	ConfidenceThreshold float64

	// NMSOverlapThreshold is the IoU at or above which non-maximum
	// suppression discards a candidate overlapping a kept box.
	NMSOverlapThreshold float64

	// Logger holds an implementation of the Logger interface. This must
	// be set for the pipeline to work correctly.
	Logger logging.Logger

	// LogLevel is the pipeline logging verbosity level. Valid values are
	// defined by enums from the logging package: logging.Debug,
	// logging.Info, logging.Warning, logging.Error, logging.Fatal.
	LogLevel int8

	Suppress bool // Holds logger suppression state.
}

// Validate checks for hard errors in the config fields, defaulting soft
// parameters if they have not been sensibly set, and returns
// ErrInvalidConfig if a field cannot be defaulted.
func (c *Config) Validate() error {
	for _, v := range Variables {
		if v.Validate != nil {
			v.Validate(c)
		}
	}

	switch c.FeatureDetector {
	case FeatureDetectorORB, FeatureDetectorSIFT:
	default:
		return errors.Wrap(ErrInvalidConfig, "FeatureDetector must be orb or sift")
	}

	return nil
}

// Update takes a map of configuration variable names and their
// corresponding values, parses the string values, and sets the Config
// struct fields as appropriate.
func (c *Config) Update(vars map[string]string) {
	for _, value := range Variables {
		if v, ok := vars[value.Name]; ok && value.Update != nil {
			value.Update(c, v)
		}
	}
}

// LogInvalidField logs that a field was bad or unset and has been
// defaulted to def.
func (c *Config) LogInvalidField(name string, def interface{}) {
	c.Logger.Info(name+" bad or unset, defaulting", name, def)
}
