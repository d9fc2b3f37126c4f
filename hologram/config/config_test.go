/*
DESCRIPTION
  config_test.go provides testing for the Config struct methods (Validate and Update).

LICENSE
  Copyright (c) 2024 the holoscan authors.

  Use of this source code is governed by a BSD-style license that can
  be found in the LICENSE file.
*/

package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"

	"github.com/ausocean/utils/logging"
)

type dumbLogger struct{}

func (dl *dumbLogger) Log(l int8, m string, a ...interface{})  {}
func (dl *dumbLogger) SetLevel(l int8)                         {}
func (dl *dumbLogger) Debug(msg string, args ...interface{})   {}
func (dl *dumbLogger) Info(msg string, args ...interface{})    {}
func (dl *dumbLogger) Warning(msg string, args ...interface{}) {}
func (dl *dumbLogger) Error(msg string, args ...interface{})   {}
func (dl *dumbLogger) Fatal(msg string, args ...interface{})   {}

func TestValidate(t *testing.T) {
	dl := &dumbLogger{}

	want := Config{
		Logger:               dl,
		FeatureDetector:      defaultFeatureDetector,
		MaxFeatures:          defaultMaxFeatures,
		RansacThreshold:      defaultRansacThreshold,
		MinFeatureMatches:    defaultMinFeatureMatches,
		BufferSize:           defaultBufferSize,
		UpdateInterval:       defaultUpdateInterval,
		SaturationThreshold:  defaultSaturationThreshold,
		HighlightThreshold:   defaultHighlightThreshold,
		ChromaMinRegionArea:  defaultChromaMinRegionArea,
		SPercentile:          defaultSPercentile,
		VPercentile:          defaultVPercentile,
		MinRegionArea:        defaultMinRegionArea,
		HueVarianceThreshold: defaultHueVarianceThreshold,
		BackgroundFrames:     defaultBackgroundFrames,
		HueEnergyThreshold:   defaultHueEnergyThreshold,
		ConfidenceThreshold:  defaultConfidenceThreshold,
		NMSOverlapThreshold:  defaultNMSOverlapThreshold,
	}

	got := Config{Logger: dl}
	err := (&got).Validate()
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}

	if !cmp.Equal(got, want) {
		t.Errorf("configs not equal\nwant: %v\ngot: %v", want, got)
	}
}

func TestValidateBadFeatureDetectorIsRejected(t *testing.T) {
	dl := &dumbLogger{}
	got := Config{Logger: dl, FeatureDetector: 99}
	err := got.Validate()
	if err == nil {
		t.Fatalf("expected an error for an unrecognised FeatureDetector")
	}
	if errors.Cause(err) != ErrInvalidConfig {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestUpdate(t *testing.T) {
	updateMap := map[string]string{
		"FeatureDetector":      "sift",
		"MaxFeatures":          "2000",
		"RansacThreshold":      "3.5",
		"MinFeatureMatches":    "15",
		"BufferSize":           "60",
		"UpdateInterval":       "5",
		"SaturationThreshold":  "40",
		"HighlightThreshold":   "230",
		"ChromaMinRegionArea":  "75",
		"SPercentile":          "65",
		"VPercentile":          "55",
		"MinRegionArea":        "150",
		"HueVarianceThreshold": "0.2",
		"BackgroundFrames":     "30",
		"HueEnergyThreshold":   "0.25",
		"UseMLClassifier":      "true",
		"ConfidenceThreshold":  "0.7",
		"NMSOverlapThreshold":  "0.4",
		"logging":              "Error",
	}

	dl := &dumbLogger{}

	want := Config{
		Logger:               dl,
		FeatureDetector:      FeatureDetectorSIFT,
		MaxFeatures:          2000,
		RansacThreshold:      3.5,
		MinFeatureMatches:    15,
		BufferSize:           60,
		UpdateInterval:       5,
		SaturationThreshold:  40,
		HighlightThreshold:   230,
		ChromaMinRegionArea:  75,
		SPercentile:          65,
		VPercentile:          55,
		MinRegionArea:        150,
		HueVarianceThreshold: 0.2,
		BackgroundFrames:     30,
		HueEnergyThreshold:   0.25,
		UseMLClassifier:      true,
		ConfidenceThreshold:  0.7,
		NMSOverlapThreshold:  0.4,
		LogLevel:             logging.Error,
	}

	got := Config{Logger: dl}
	got.Update(updateMap)
	if !cmp.Equal(want, got) {
		t.Errorf("configs not equal\nwant: %v\ngot: %v", want, got)
	}
}
