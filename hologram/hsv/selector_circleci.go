//go:build !withcv
// +build !withcv

/*
NAME
  selector_circleci.go

DESCRIPTION
  Replaces the gocv-backed Selector when building without OpenCV
  installed (e.g. CircleCI). Kept so `go build ./...` and `go vet ./...`
  succeed without a native OpenCV install; the real implementation
  requires the withcv build tag.

LICENSE
  Copyright (c) 2024 the holoscan authors.

  Use of this source code is governed by a BSD-style license that can
  be found in the LICENSE file.
*/

// Package hsv proposes candidate hologram regions from a single frame.
//
// This build (no withcv tag) contains no gocv-backed implementation;
// build with -tags withcv on a host with OpenCV installed to get the
// real Selector.
package hsv
