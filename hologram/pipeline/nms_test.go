package pipeline

import (
	"testing"

	"github.com/SuryaSundarVadali/holoscan/hologram/geom"
)

func TestNonMaxSuppressKeepsDisjointDropsOverlapping(t *testing.T) {
	// Four boxes: the largest, one inside it overlapping heavily (IoU
	// ~0.9, sharing its y2 but inserted earlier, so the largest is picked
	// first), one inside it overlapping moderately (IoU 0.6), and one far
	// away (IoU ~0.001 via a 5x5 corner overlap).
	largest := geom.BBox{X: 0, Y: 0, W: 100, H: 100}
	heavy := geom.BBox{X: 5, Y: 5, W: 95, H: 95}
	moderate := geom.BBox{X: 10, Y: 10, W: 75, H: 80}
	outlier := geom.BBox{X: 95, Y: 95, W: 100, H: 100}

	boxes := []geom.BBox{moderate, outlier, heavy, largest}

	kept := nonMaxSuppress(boxes, 0.5)

	if len(kept) != 2 {
		t.Fatalf("expected 2 surviving boxes, got %d: %v", len(kept), kept)
	}

	for _, b := range kept {
		if b != largest && b != outlier {
			t.Errorf("unexpected surviving box %v", b)
		}
	}

	for i := 0; i < len(kept); i++ {
		for j := i + 1; j < len(kept); j++ {
			if kept[i].IoU(kept[j]) >= 0.5 {
				t.Errorf("surviving boxes %v and %v have IoU >= 0.5", kept[i], kept[j])
			}
		}
	}
}

func TestNonMaxSuppressEmptyInput(t *testing.T) {
	if got := nonMaxSuppress(nil, 0.5); len(got) != 0 {
		t.Errorf("expected no boxes from empty input, got %v", got)
	}
}

func TestNonMaxSuppressIsSubsetOfInput(t *testing.T) {
	boxes := []geom.BBox{
		{X: 0, Y: 0, W: 10, H: 10},
		{X: 100, Y: 100, W: 10, H: 10},
		{X: 200, Y: 200, W: 10, H: 10},
	}
	kept := nonMaxSuppress(boxes, 0.5)
	if len(kept) != len(boxes) {
		t.Fatalf("expected all disjoint boxes to survive, got %d of %d", len(kept), len(boxes))
	}
}
