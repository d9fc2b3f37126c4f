/*
NAME
  nms.go

LICENSE
  Copyright (c) 2024 the holoscan authors.

  Use of this source code is governed by a BSD-style license that can
  be found in the LICENSE file.
*/

package pipeline

import (
	"sort"

	"github.com/SuryaSundarVadali/holoscan/hologram/geom"
)

// nonMaxSuppress deduplicates overlapping candidate boxes: sort by
// bottom edge (y2) ascending, repeatedly keep the box with the largest
// remaining y2 and discard any candidate whose IoU against it is at
// least overlapThreshold, until none remain. Ties in the sort are
// broken by original insertion order (Go's sort.SliceStable preserves
// input order among equal keys), matching the reference
// implementation's deterministic np.argsort-based tie-break.
func nonMaxSuppress(boxes []geom.BBox, overlapThreshold float64) []geom.BBox {
	if len(boxes) == 0 {
		return nil
	}

	order := make([]int, len(boxes))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return boxes[order[a]].Y2() < boxes[order[b]].Y2()
	})

	kept := make([]int, 0, len(boxes))
	for len(order) > 0 {
		last := len(order) - 1
		i := order[last]
		kept = append(kept, i)
		order = order[:last]

		remaining := order[:0]
		for _, j := range order {
			if boxes[i].IoU(boxes[j]) < overlapThreshold {
				remaining = append(remaining, j)
			}
		}
		order = remaining
	}

	out := make([]geom.BBox, len(kept))
	for k, i := range kept {
		out[k] = boxes[i]
	}
	return out
}

// dedupeBoxes merges two candidate lists (preserving a's boxes before
// b's, matching the coordinator's selector-then-accumulator union
// order) before handing them to nonMaxSuppress.
func dedupeBoxes(a, b []geom.BBox, overlapThreshold float64) []geom.BBox {
	merged := make([]geom.BBox, 0, len(a)+len(b))
	merged = append(merged, a...)
	merged = append(merged, b...)
	return nonMaxSuppress(merged, overlapThreshold)
}
