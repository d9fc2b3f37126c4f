//go:build !withcv
// +build !withcv

/*
NAME
  main_circleci.go

DESCRIPTION
  Replaces holoscan's gocv-backed entry point when building without
  OpenCV installed (e.g. CircleCI). Kept so `go build ./...` and
  `go vet ./...` succeed without a native OpenCV install; the real
  scanner requires the withcv build tag.

LICENSE
  Copyright (c) 2024 the holoscan authors.

  Use of this source code is governed by a BSD-style license that can
  be found in the LICENSE file.
*/

package main

import "fmt"

func main() {
	fmt.Println("holoscan was built without OpenCV support; rebuild with -tags withcv")
}
