/*
DESCRIPTION
  variables.go contains a list of structs that provide a variable Name, type in
  a string format, a function for updating the variable in the Config struct
  from a string, and finally, a validation function to check the validity of the
  corresponding field value in the Config.

LICENSE
  Copyright (c) 2024 the holoscan authors.

  Use of this source code is governed by a BSD-style license that can
  be found in the LICENSE file.
*/

package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ausocean/utils/logging"
)

// Config map Keys.
const (
	KeyFeatureDetector      = "FeatureDetector"
	KeyMaxFeatures          = "MaxFeatures"
	KeyRansacThreshold      = "RansacThreshold"
	KeyMinFeatureMatches    = "MinFeatureMatches"
	KeyBufferSize           = "BufferSize"
	KeyUpdateInterval       = "UpdateInterval"
	KeySaturationThreshold  = "SaturationThreshold"
	KeyHighlightThreshold   = "HighlightThreshold"
	KeyChromaMinRegionArea  = "ChromaMinRegionArea"
	KeySPercentile          = "SPercentile"
	KeyVPercentile          = "VPercentile"
	KeyMinRegionArea        = "MinRegionArea"
	KeyHueVarianceThreshold = "HueVarianceThreshold"
	KeyBackgroundFrames     = "BackgroundFrames"
	KeyHueEnergyThreshold   = "HueEnergyThreshold"
	KeyUseMLClassifier      = "UseMLClassifier"
	KeyConfidenceThreshold  = "ConfidenceThreshold"
	KeyNMSOverlapThreshold  = "NMSOverlapThreshold"
	KeyLogging              = "logging"
	KeySuppress             = "Suppress"
)

// Config map parameter types.
const (
	typeString = "string"
	typeUint   = "uint"
	typeBool   = "bool"
	typeFloat  = "float"
)

// Default variable values, sourced from the reference implementation's
// config defaults.
const (
	defaultFeatureDetector      = FeatureDetectorORB
	defaultMaxFeatures          = 5000
	defaultRansacThreshold      = 5.0
	defaultMinFeatureMatches    = 10
	defaultBufferSize           = 30
	defaultUpdateInterval       = 10
	defaultSaturationThreshold  = 51 // 0.2 * 255, spec.md's saturation_threshold default
	defaultHighlightThreshold   = 250
	defaultChromaMinRegionArea  = 100.0
	defaultSPercentile          = 70.0
	defaultVPercentile          = 60.0
	defaultMinRegionArea        = 100.0
	defaultHueVarianceThreshold = 0.15
	defaultBackgroundFrames     = 15
	defaultHueEnergyThreshold   = 0.15
	defaultConfidenceThreshold  = 0.6
	defaultNMSOverlapThreshold  = 0.5
	defaultVerbosity            = logging.Error
)

// Variables describes the variables that can be used to configure a
// hologram verification pipeline. These structs provide the name and type
// of variable, a function for updating this variable in a Config, and a
// function for validating the value of the variable.
var Variables = []struct {
	Name     string
	Type     string
	Update   func(*Config, string)
	Validate func(*Config)
}{
	{
		Name: KeyFeatureDetector,
		Type: "enum:orb,sift",
		Update: func(c *Config, v string) {
			switch strings.ToLower(v) {
			case "orb":
				c.FeatureDetector = FeatureDetectorORB
			case "sift":
				c.FeatureDetector = FeatureDetectorSIFT
			default:
				c.Logger.Warning("invalid FeatureDetector param", "value", v)
			}
		},
		Validate: func(c *Config) {
			// Only an unset detector is defaulted; an unrecognised value
			// is left for Config.Validate to reject.
			if c.FeatureDetector == NothingDefined {
				c.LogInvalidField(KeyFeatureDetector, defaultFeatureDetector)
				c.FeatureDetector = defaultFeatureDetector
			}
		},
	},
	{
		Name:   KeyMaxFeatures,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.MaxFeatures = parseUint(KeyMaxFeatures, v, c) },
		Validate: func(c *Config) {
			if c.MaxFeatures == 0 {
				c.LogInvalidField(KeyMaxFeatures, uint(defaultMaxFeatures))
				c.MaxFeatures = defaultMaxFeatures
			}
		},
	},
	{
		Name:   KeyRansacThreshold,
		Type:   typeFloat,
		Update: func(c *Config, v string) { c.RansacThreshold = parseFloat(KeyRansacThreshold, v, c) },
		Validate: func(c *Config) {
			if c.RansacThreshold <= 0 {
				c.LogInvalidField(KeyRansacThreshold, defaultRansacThreshold)
				c.RansacThreshold = defaultRansacThreshold
			}
		},
	},
	{
		Name:   KeyMinFeatureMatches,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.MinFeatureMatches = parseUint(KeyMinFeatureMatches, v, c) },
		Validate: func(c *Config) {
			if c.MinFeatureMatches == 0 {
				c.LogInvalidField(KeyMinFeatureMatches, uint(defaultMinFeatureMatches))
				c.MinFeatureMatches = defaultMinFeatureMatches
			}
		},
	},
	{
		Name:   KeyBufferSize,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.BufferSize = parseUint(KeyBufferSize, v, c) },
		Validate: func(c *Config) {
			if c.BufferSize == 0 {
				c.LogInvalidField(KeyBufferSize, uint(defaultBufferSize))
				c.BufferSize = defaultBufferSize
			}
		},
	},
	{
		Name:   KeyUpdateInterval,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.UpdateInterval = parseUint(KeyUpdateInterval, v, c) },
		Validate: func(c *Config) {
			if c.UpdateInterval == 0 {
				c.LogInvalidField(KeyUpdateInterval, uint(defaultUpdateInterval))
				c.UpdateInterval = defaultUpdateInterval
			}
		},
	},
	{
		Name: KeySaturationThreshold,
		Type: typeUint,
		Update: func(c *Config, v string) {
			c.SaturationThreshold = uint8(parseUint(KeySaturationThreshold, v, c))
		},
		Validate: func(c *Config) {
			if c.SaturationThreshold == 0 {
				c.LogInvalidField(KeySaturationThreshold, uint8(defaultSaturationThreshold))
				c.SaturationThreshold = defaultSaturationThreshold
			}
		},
	},
	{
		Name: KeyHighlightThreshold,
		Type: typeUint,
		Update: func(c *Config, v string) {
			c.HighlightThreshold = uint8(parseUint(KeyHighlightThreshold, v, c))
		},
		Validate: func(c *Config) {
			if c.HighlightThreshold == 0 {
				c.LogInvalidField(KeyHighlightThreshold, uint8(defaultHighlightThreshold))
				c.HighlightThreshold = defaultHighlightThreshold
			}
		},
	},
	{
		Name:   KeyChromaMinRegionArea,
		Type:   typeFloat,
		Update: func(c *Config, v string) { c.ChromaMinRegionArea = parseFloat(KeyChromaMinRegionArea, v, c) },
		Validate: func(c *Config) {
			if c.ChromaMinRegionArea <= 0 {
				c.LogInvalidField(KeyChromaMinRegionArea, defaultChromaMinRegionArea)
				c.ChromaMinRegionArea = defaultChromaMinRegionArea
			}
		},
	},
	{
		Name:   KeySPercentile,
		Type:   typeFloat,
		Update: func(c *Config, v string) { c.SPercentile = parseFloat(KeySPercentile, v, c) },
		Validate: func(c *Config) {
			if c.SPercentile <= 0 || c.SPercentile > 100 {
				c.LogInvalidField(KeySPercentile, defaultSPercentile)
				c.SPercentile = defaultSPercentile
			}
		},
	},
	{
		Name:   KeyVPercentile,
		Type:   typeFloat,
		Update: func(c *Config, v string) { c.VPercentile = parseFloat(KeyVPercentile, v, c) },
		Validate: func(c *Config) {
			if c.VPercentile <= 0 || c.VPercentile > 100 {
				c.LogInvalidField(KeyVPercentile, defaultVPercentile)
				c.VPercentile = defaultVPercentile
			}
		},
	},
	{
		Name:   KeyMinRegionArea,
		Type:   typeFloat,
		Update: func(c *Config, v string) { c.MinRegionArea = parseFloat(KeyMinRegionArea, v, c) },
		Validate: func(c *Config) {
			if c.MinRegionArea <= 0 {
				c.LogInvalidField(KeyMinRegionArea, defaultMinRegionArea)
				c.MinRegionArea = defaultMinRegionArea
			}
		},
	},
	{
		Name:   KeyHueVarianceThreshold,
		Type:   typeFloat,
		Update: func(c *Config, v string) { c.HueVarianceThreshold = parseFloat(KeyHueVarianceThreshold, v, c) },
		Validate: func(c *Config) {
			if c.HueVarianceThreshold <= 0 || c.HueVarianceThreshold > 1 {
				c.LogInvalidField(KeyHueVarianceThreshold, defaultHueVarianceThreshold)
				c.HueVarianceThreshold = defaultHueVarianceThreshold
			}
		},
	},
	{
		Name:   KeyBackgroundFrames,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.BackgroundFrames = parseUint(KeyBackgroundFrames, v, c) },
		Validate: func(c *Config) {
			if c.BackgroundFrames == 0 {
				c.LogInvalidField(KeyBackgroundFrames, uint(defaultBackgroundFrames))
				c.BackgroundFrames = defaultBackgroundFrames
			}
		},
	},
	{
		Name:   KeyHueEnergyThreshold,
		Type:   typeFloat,
		Update: func(c *Config, v string) { c.HueEnergyThreshold = parseFloat(KeyHueEnergyThreshold, v, c) },
		Validate: func(c *Config) {
			if c.HueEnergyThreshold <= 0 || c.HueEnergyThreshold > 1 {
				c.LogInvalidField(KeyHueEnergyThreshold, defaultHueEnergyThreshold)
				c.HueEnergyThreshold = defaultHueEnergyThreshold
			}
		},
	},
	{
		Name:   KeyUseMLClassifier,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.UseMLClassifier = parseBool(KeyUseMLClassifier, v, c) },
	},
	{
		Name:   KeyConfidenceThreshold,
		Type:   typeFloat,
		Update: func(c *Config, v string) { c.ConfidenceThreshold = parseFloat(KeyConfidenceThreshold, v, c) },
		Validate: func(c *Config) {
			if c.ConfidenceThreshold <= 0 || c.ConfidenceThreshold > 1 {
				c.LogInvalidField(KeyConfidenceThreshold, defaultConfidenceThreshold)
				c.ConfidenceThreshold = defaultConfidenceThreshold
			}
		},
	},
	{
		Name:   KeyNMSOverlapThreshold,
		Type:   typeFloat,
		Update: func(c *Config, v string) { c.NMSOverlapThreshold = parseFloat(KeyNMSOverlapThreshold, v, c) },
		Validate: func(c *Config) {
			if c.NMSOverlapThreshold <= 0 || c.NMSOverlapThreshold > 1 {
				c.LogInvalidField(KeyNMSOverlapThreshold, defaultNMSOverlapThreshold)
				c.NMSOverlapThreshold = defaultNMSOverlapThreshold
			}
		},
	},
	{
		Name: KeyLogging,
		Type: "enum:Debug,Info,Warning,Error,Fatal",
		Update: func(c *Config, v string) {
			switch v {
			case "Debug":
				c.LogLevel = logging.Debug
			case "Info":
				c.LogLevel = logging.Info
			case "Warning":
				c.LogLevel = logging.Warning
			case "Error":
				c.LogLevel = logging.Error
			case "Fatal":
				c.LogLevel = logging.Fatal
			default:
				c.Logger.Warning("invalid Logging param", "value", v)
			}
		},
		Validate: func(c *Config) {
			switch c.LogLevel {
			case logging.Debug, logging.Info, logging.Warning, logging.Error, logging.Fatal:
			default:
				c.LogInvalidField("LogLevel", defaultVerbosity)
				c.LogLevel = defaultVerbosity
			}
		},
	},
	{
		Name: KeySuppress,
		Type: typeBool,
		Update: func(c *Config, v string) {
			c.Suppress = parseBool(KeySuppress, v, c)
			if jl, ok := c.Logger.(*logging.JSONLogger); ok {
				jl.SetSuppress(c.Suppress)
			}
		},
	},
}

func parseUint(n, v string, c *Config) uint {
	_v, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		c.Logger.Warning(fmt.Sprintf("expected unsigned int for param %s", n), "value", v)
	}
	return uint(_v)
}

func parseFloat(n, v string, c *Config) float64 {
	_v, err := strconv.ParseFloat(v, 64)
	if err != nil {
		c.Logger.Warning(fmt.Sprintf("expected float for param %s", n), "value", v)
	}
	return _v
}

func parseBool(n, v string, c *Config) (b bool) {
	switch strings.ToLower(v) {
	case "true":
		b = true
	case "false":
		b = false
	default:
		c.Logger.Warning(fmt.Sprintf("expect bool for param %s", n), "value", v)
	}
	return
}
