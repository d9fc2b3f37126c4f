/*
NAME
  background.go

LICENSE
  Copyright (c) 2024 the holoscan authors.

  Use of this source code is governed by a BSD-style license that can
  be found in the LICENSE file.
*/

//go:build withcv

package verify

import "gocv.io/x/gocv"

// backgroundRing holds the last n aligned frames and recomputes a
// per-pixel, per-channel median background once enough frames have
// accumulated. The exact algorithm (full sort per pixel) is a
// correctness reference; an implementation may substitute an
// incremental/approximate median as long as results agree within a
// small tolerance, per the pipeline's background-model contract.
type backgroundRing struct {
	limit int
	ring  []gocv.Mat

	width, height int
	background    gocv.Mat
	hasBackground bool
}

func newBackgroundRing(limit int) *backgroundRing {
	if limit < 1 {
		limit = 1
	}
	return &backgroundRing{limit: limit}
}

// add appends frame to the ring (as an owned clone), evicting the oldest
// frame once the ring is full, and recomputes the background median once
// at least half the ring capacity is populated.
func (r *backgroundRing) add(frame gocv.Mat) {
	clone := frame.Clone()
	r.ring = append(r.ring, clone)
	if len(r.ring) > r.limit {
		r.ring[0].Close()
		r.ring = r.ring[1:]
	}

	if len(r.ring) >= (r.limit+1)/2 {
		r.recompute()
	}
}

// recompute rebuilds the background median image from the current ring
// contents.
func (r *backgroundRing) recompute() {
	if len(r.ring) == 0 {
		return
	}
	first := r.ring[0]
	rows, cols := first.Rows(), first.Cols()

	if r.hasBackground {
		r.background.Close()
	}
	r.background = gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV8UC3)
	r.width, r.height = cols, rows
	r.hasBackground = true

	samples := make([]byte, len(r.ring))
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			for ch := 0; ch < 3; ch++ {
				for i, m := range r.ring {
					samples[i] = m.GetVecbAt(y, x)[ch]
				}
				r.background.SetUCharAt3(y, x, ch, median(samples))
			}
		}
	}
}

// median returns the median of a small byte slice via sort.
func median(samples []byte) byte {
	sorted := append([]byte(nil), samples...)
	for i := 1; i < len(sorted); i++ {
		v := sorted[i]
		j := i - 1
		for j >= 0 && sorted[j] > v {
			sorted[j+1] = sorted[j]
			j--
		}
		sorted[j+1] = v
	}
	return sorted[len(sorted)/2]
}

// reset clears the ring and discards the background model.
func (r *backgroundRing) reset() {
	for _, m := range r.ring {
		m.Close()
	}
	r.ring = nil
	if r.hasBackground {
		r.background.Close()
	}
	r.hasBackground = false
}
