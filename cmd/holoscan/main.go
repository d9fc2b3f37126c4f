/*
DESCRIPTION
  holoscan is a batch scanner that drives the hologram verification
  pipeline over a single video file and reports a per-clip detection
  summary as JSON.

LICENSE
  Copyright (c) 2024 the holoscan authors.

  Use of this source code is governed by a BSD-style license that can
  be found in the LICENSE file.
*/

//go:build withcv

// Package main implements holoscan, a command line frontend for the
// hologram verification pipeline. It plays the same role cmd/rv plays
// for revid: a thin driver that wires logging and configuration around
// the reusable core in hologram/pipeline.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"gocv.io/x/gocv"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/utils/logging"

	"github.com/SuryaSundarVadali/holoscan/hologram/config"
	"github.com/SuryaSundarVadali/holoscan/hologram/pipeline"
)

// Logging configuration, following cmd/rv's pattern of a rotating file
// log sized for long unattended runs.
const (
	logPath      = "holoscan.log"
	logMaxSize   = 100 // MB
	logMaxBackup = 5
	logMaxAge    = 28 // days
	logSuppress  = false
)

func main() {
	input := flag.String("input", "", "path to the input video file")
	output := flag.String("output", "", "optional path to write an annotated output video")
	verbosity := flag.Int("verbosity", int(logging.Info), "log verbosity (0=Debug .. 4=Fatal)")
	detector := flag.String("detector", "orb", "feature detector: orb or sift")
	confidence := flag.Float64("confidence", 0, "confidence threshold override (0 uses the built-in default)")
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "holoscan: -input is required")
		os.Exit(2)
	}

	fileLog := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}
	log := logging.New(int8(*verbosity), io.MultiWriter(fileLog, os.Stderr), logSuppress)

	cfg := config.Config{Logger: log}
	switch *detector {
	case "sift":
		cfg.FeatureDetector = config.FeatureDetectorSIFT
	default:
		cfg.FeatureDetector = config.FeatureDetectorORB
	}
	if *confidence > 0 {
		cfg.ConfidenceThreshold = *confidence
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", "error", err.Error())
	}

	coord, err := pipeline.New(cfg)
	if err != nil {
		log.Fatal("could not create pipeline coordinator", "error", err.Error())
	}
	defer coord.Close()

	agg, err := scan(*input, *output, coord, log)
	if err != nil {
		log.Fatal("scan failed", "error", err.Error())
	}

	report := struct {
		TotalFrames          int       `json:"total_frames"`
		FramesWithDetections int       `json:"frames_with_detections"`
		ConfidenceScores     []float64 `json:"confidence_scores"`
		AvgProcessingTime    float64   `json:"avg_processing_time"`
		AvgConfidence        float64   `json:"avg_confidence,omitempty"`
		MaxConfidence        float64   `json:"max_confidence,omitempty"`
		Valid                bool      `json:"valid"`
	}{
		TotalFrames:          agg.TotalFrames,
		FramesWithDetections: agg.FramesWithDetections,
		ConfidenceScores:     agg.ConfidenceScores,
		AvgProcessingTime:    agg.AvgProcessingTime,
		Valid:                agg.Valid(cfg.ConfidenceThreshold),
	}
	if avg, ok := agg.AvgConfidence(); ok {
		report.AvgConfidence = avg
	}
	if max, ok := agg.MaxConfidence(); ok {
		report.MaxConfidence = max
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		log.Fatal("could not encode report", "error", err.Error())
	}
}

// scan decodes inputPath frame by frame, drives coord to exhaustion, and
// optionally writes the annotated frames to outputPath. It returns the
// pipeline's final aggregate once every frame has been consumed.
func scan(inputPath, outputPath string, coord *pipeline.Coordinator, log logging.Logger) (pipeline.Aggregate, error) {
	capture, err := gocv.VideoCaptureFile(inputPath)
	if err != nil {
		return pipeline.Aggregate{}, fmt.Errorf("could not open %s: %w", inputPath, err)
	}
	defer capture.Close()

	var writer *gocv.VideoWriter
	frame := gocv.NewMat()
	defer frame.Close()

	for {
		if ok := capture.Read(&frame); !ok {
			break
		}
		if frame.Empty() {
			continue
		}

		annotated, detections := coord.ProcessFrame(frame)
		if len(detections) > 0 {
			log.Info("hologram detected", "frame", detections[0].Frame, "count", len(detections))
		}

		if outputPath != "" {
			if writer == nil {
				w, err := gocv.VideoWriterFile(outputPath, "mp4v", capture.Get(gocv.VideoCaptureFPS),
					annotated.Cols(), annotated.Rows(), true)
				if err != nil {
					annotated.Close()
					return pipeline.Aggregate{}, fmt.Errorf("could not open %s for writing: %w", outputPath, err)
				}
				writer = w
				defer writer.Close()
			}
			writer.Write(annotated)
		}
		annotated.Close()
	}

	return coord.Aggregate(), nil
}
