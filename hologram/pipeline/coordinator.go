/*
NAME
  coordinator.go

LICENSE
  Copyright (c) 2024 the holoscan authors.

  Use of this source code is governed by a BSD-style license that can
  be found in the LICENSE file.
*/

//go:build withcv

// Package pipeline sequences the frame aligner, chromaticity
// accumulator, HSV region selector and dynamic behaviour verifier into
// a single streaming hologram detector, the way revid.Revid sequences
// its input/encoder/output chain: a stateful coordinator with a small
// state machine, a Config-driven constructor, and a Reset that returns
// every owned component to its post-construction baseline.
package pipeline

import (
	"time"

	"gocv.io/x/gocv"

	"github.com/SuryaSundarVadali/holoscan/hologram/align"
	"github.com/SuryaSundarVadali/holoscan/hologram/chroma"
	"github.com/SuryaSundarVadali/holoscan/hologram/config"
	"github.com/SuryaSundarVadali/holoscan/hologram/hsv"
	"github.com/SuryaSundarVadali/holoscan/hologram/verify"
)

// State is the coordinator's lifecycle stage.
type State int

const (
	// StateUninitialized is the coordinator's state before a reference
	// frame has been successfully established.
	StateUninitialized State = iota
	// StateRunning is the coordinator's state once a reference frame is
	// set and frames are being aligned, accumulated and verified.
	StateRunning
)

// accumulatorRegionThreshold is the fixed threshold the coordinator
// passes to Accumulator.Regions on each update_interval tick, when the
// accumulator's regions are unioned into the selector's candidates.
const accumulatorRegionThreshold = 0.5

// Coordinator sequences the four pipeline stages over a stream of
// frames belonging to a single clip. Every field is per-instance state:
// multiple Coordinators may run concurrently over independent clips
// with no shared mutable data.
type Coordinator struct {
	cfg config.Config

	aligner     *align.Aligner
	accumulator *chroma.Accumulator
	selector    *hsv.Selector
	verifier    *verify.Verifier

	state      State
	frameIndex int

	totalFrames          int
	framesWithDetections int
	detections           []Detection
	confidences          []float64
	processingTimes      []time.Duration
}

// New validates cfg and constructs a Coordinator in StateUninitialized.
// A construction failure (ErrInvalidConfig) leaves no partial object:
// callers should treat a non-nil error as "nothing was built".
func New(cfg config.Config) (*Coordinator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Coordinator{
		cfg:         cfg,
		aligner:     align.New(cfg),
		accumulator: chroma.New(cfg),
		selector:    hsv.New(cfg),
		verifier:    verify.New(cfg),
		state:       StateUninitialized,
	}, nil
}

// State reports the coordinator's current lifecycle stage.
func (c *Coordinator) State() State {
	return c.state
}

// ProcessFrame advances the pipeline by one frame. It returns an
// ornamental annotated copy of frame and the detections found in it (an
// empty slice, never nil, when there are none). Per-frame failures —
// insufficient reference features, alignment failure — are never
// raised as errors; they degrade to a pass-through frame with no
// detections, per the pipeline's non-exceptional failure convention.
func (c *Coordinator) ProcessFrame(frame gocv.Mat) (gocv.Mat, []Detection) {
	c.frameIndex++
	c.totalFrames++
	start := time.Now()
	defer func() { c.processingTimes = append(c.processingTimes, time.Since(start)) }()

	if c.state == StateUninitialized {
		if err := c.aligner.SetReference(frame); err == nil {
			c.state = StateRunning
		}
		return annotate(frame, nil), []Detection{}
	}

	aligned, ok, err := c.aligner.Align(frame)
	defer aligned.Close()
	if err != nil || !ok {
		return annotate(frame, nil), []Detection{}
	}

	c.accumulator.Add(aligned)
	c.verifier.Add(aligned)

	candidates, mask := c.selector.Select(aligned)
	mask.Close()

	if c.cfg.UpdateInterval > 0 && c.frameIndex%int(c.cfg.UpdateInterval) == 0 {
		accRegions := c.accumulator.Regions(accumulatorRegionThreshold)
		candidates = dedupeBoxes(candidates, accRegions, c.cfg.NMSOverlapThreshold)
	} else {
		candidates = nonMaxSuppress(candidates, c.cfg.NMSOverlapThreshold)
	}

	results := c.verifier.Verify(aligned, candidates)

	detections := make([]Detection, 0, len(results))
	for _, r := range results {
		if r.IsHologram && r.Confidence >= c.cfg.ConfidenceThreshold {
			detections = append(detections, Detection{
				Frame:      c.frameIndex,
				Box:        r.Box,
				Confidence: r.Confidence,
			})
		}
	}

	if len(detections) > 0 {
		c.framesWithDetections++
		c.detections = append(c.detections, detections...)
		for _, d := range detections {
			c.confidences = append(c.confidences, d.Confidence)
		}
	}

	return annotate(aligned, detections), detections
}

// Aggregate returns the per-clip summary of everything processed so
// far. Calling it before any frame has been processed yields a
// zero-valued Aggregate (total_frames = 0, empty lists), the EmptyInput
// case from spec.md §7 — the core does not error on this, it simply
// reports an empty clip.
func (c *Coordinator) Aggregate() Aggregate {
	var avgTime float64
	if len(c.processingTimes) > 0 {
		var sum time.Duration
		for _, d := range c.processingTimes {
			sum += d
		}
		avgTime = sum.Seconds() / float64(len(c.processingTimes))
	}

	return Aggregate{
		TotalFrames:          c.totalFrames,
		FramesWithDetections: c.framesWithDetections,
		Detections:           append([]Detection(nil), c.detections...),
		ConfidenceScores:     append([]float64(nil), c.confidences...),
		AvgProcessingTime:    avgTime,
	}
}

// Reset returns the coordinator to its post-construction baseline:
// StateUninitialized, with the aligner's reference cleared and the
// accumulator, selector-independent state and verifier's background
// model all cleared. Reset is synchronous and safe to call at any time,
// including immediately after construction.
func (c *Coordinator) Reset() {
	c.aligner.Reset()
	c.accumulator.Reset()
	c.verifier.Reset()

	c.state = StateUninitialized
	c.frameIndex = 0
	c.totalFrames = 0
	c.framesWithDetections = 0
	c.detections = nil
	c.confidences = nil
	c.processingTimes = nil
}

// Close releases the gocv resources owned by the coordinator's
// components: the accumulator's visualization ring, the verifier's
// background ring and model, and the aligner's reference and detector.
// It does not reset the coordinator's detection history; call Reset
// first if that is also desired.
func (c *Coordinator) Close() error {
	c.accumulator.Reset()
	c.verifier.Reset()
	return c.aligner.Close()
}
