//go:build withcv

package pipeline

import (
	"testing"

	"gocv.io/x/gocv"

	"github.com/SuryaSundarVadali/holoscan/hologram/config"
)

type dumbLogger struct{}

func (dl *dumbLogger) Log(l int8, m string, a ...interface{})  {}
func (dl *dumbLogger) SetLevel(l int8)                         {}
func (dl *dumbLogger) Debug(msg string, args ...interface{})   {}
func (dl *dumbLogger) Info(msg string, args ...interface{})    {}
func (dl *dumbLogger) Warning(msg string, args ...interface{}) {}
func (dl *dumbLogger) Error(msg string, args ...interface{})   {}
func (dl *dumbLogger) Fatal(msg string, args ...interface{})   {}

func testConfig() config.Config {
	c := config.Config{Logger: &dumbLogger{}}
	c.Validate()
	c.UpdateInterval = 5
	return c
}

// checkerboard draws a feature-rich textured background so the aligner
// always has enough keypoints to set a reference and align subsequent
// frames.
func checkerboard(w, h int) gocv.Mat {
	m := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)
	const block = 9
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			bx, by := x/block, y/block
			v := byte((bx*73 + by*151 + bx*by*17) % 256)
			m.SetUCharAt3(y, x, 0, v)
			m.SetUCharAt3(y, x, 1, byte((int(v)+85)%256))
			m.SetUCharAt3(y, x, 2, byte((int(v)+170)%256))
		}
	}
	return m
}

// paintRainbowPatch overwrites a rectangular region of a BGR frame with
// a horizontal hue gradient offset by phaseHue, at fixed saturation and
// value, giving the caller a controllable "document hologram" patch
// against the checkerboard's feature-rich background.
func paintRainbowPatch(frame gocv.Mat, x, y, w, h int, phaseHue byte) {
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			hue := byte((int(phaseHue) + dx*180/w) % 180)
			hsvPix := gocv.NewMatWithSize(1, 1, gocv.MatTypeCV8UC3)
			hsvPix.SetUCharAt3(0, 0, 0, hue)
			hsvPix.SetUCharAt3(0, 0, 1, 220)
			hsvPix.SetUCharAt3(0, 0, 2, 220)
			bgrPix := gocv.NewMat()
			gocv.CvtColor(hsvPix, &bgrPix, gocv.ColorHSVToBGR)
			frame.SetUCharAt3(y+dy, x+dx, 0, bgrPix.GetVecbAt(0, 0)[0])
			frame.SetUCharAt3(y+dy, x+dx, 1, bgrPix.GetVecbAt(0, 0)[1])
			frame.SetUCharAt3(y+dy, x+dx, 2, bgrPix.GetVecbAt(0, 0)[2])
			hsvPix.Close()
			bgrPix.Close()
		}
	}
}

func paintSolidPatch(frame gocv.Mat, x, y, w, h int, b, g, r byte) {
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			frame.SetUCharAt3(y+dy, x+dx, 0, b)
			frame.SetUCharAt3(y+dy, x+dx, 1, g)
			frame.SetUCharAt3(y+dy, x+dx, 2, r)
		}
	}
}

func TestCoordinatorBlankFramesStayUninitialized(t *testing.T) {
	coord, err := New(testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer coord.Close()

	blank := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	defer blank.Close()

	for i := 0; i < 5; i++ {
		_, dets := coord.ProcessFrame(blank)
		if len(dets) != 0 {
			t.Fatalf("expected no detections on blank frame %d", i)
		}
	}
	if coord.State() != StateUninitialized {
		t.Errorf("expected coordinator to remain uninitialized on blank input")
	}

	agg := coord.Aggregate()
	if agg.TotalFrames != 5 {
		t.Errorf("expected 5 total frames, got %d", agg.TotalFrames)
	}
	if len(agg.Detections) != 0 {
		t.Errorf("expected zero detections, got %d", len(agg.Detections))
	}
}

func TestCoordinatorHueCyclingPatchProducesDetections(t *testing.T) {
	coord, err := New(testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer coord.Close()

	const w, h = 320, 240
	ref := checkerboard(w, h)
	defer ref.Close()
	if _, dets := coord.ProcessFrame(ref); len(dets) != 0 {
		t.Fatalf("expected no detections on the reference frame itself")
	}

	total := 0
	for i := 0; i < 20; i++ {
		f := checkerboard(w, h)
		paintRainbowPatch(f, 60, 40, 120, 90, byte((i*23)%180))
		_, dets := coord.ProcessFrame(f)
		total += len(dets)
		f.Close()
	}

	if total == 0 {
		t.Errorf("expected at least one detection from a hue-cycling patch across 20 frames")
	}
}

func TestCoordinatorStaticPatchProducesNoDetections(t *testing.T) {
	coord, err := New(testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer coord.Close()

	const w, h = 320, 240
	ref := checkerboard(w, h)
	defer ref.Close()
	coord.ProcessFrame(ref)

	for i := 0; i < 20; i++ {
		f := checkerboard(w, h)
		paintSolidPatch(f, 60, 40, 120, 90, 20, 20, 200)
		_, dets := coord.ProcessFrame(f)
		if len(dets) != 0 {
			t.Errorf("frame %d: expected no detections for a static solid patch, got %d", i, len(dets))
		}
		f.Close()
	}

	agg := coord.Aggregate()
	if _, ok := agg.AvgConfidence(); ok {
		t.Errorf("expected AvgConfidence to be undefined with zero detections")
	}
}

func TestCoordinatorResetRestoresBaseline(t *testing.T) {
	coord, err := New(testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer coord.Close()

	f := checkerboard(160, 120)
	defer f.Close()
	coord.ProcessFrame(f)
	coord.ProcessFrame(f)

	coord.Reset()
	if coord.State() != StateUninitialized {
		t.Fatalf("expected StateUninitialized after Reset")
	}
	agg := coord.Aggregate()
	if agg.TotalFrames != 0 || len(agg.Detections) != 0 {
		t.Errorf("expected zeroed aggregate after Reset, got %+v", agg)
	}

	// Idempotence: reset(); reset() == reset().
	coord.Reset()
	agg2 := coord.Aggregate()
	if agg2.TotalFrames != agg.TotalFrames || len(agg2.Detections) != len(agg.Detections) {
		t.Errorf("expected reset to be idempotent, got %+v vs %+v", agg, agg2)
	}
}

func TestAggregateValidRequiresDetectionCountAndConfidence(t *testing.T) {
	agg := Aggregate{
		TotalFrames: 30,
		Detections: []Detection{
			{Frame: 1, Confidence: 0.7}, {Frame: 2, Confidence: 0.7}, {Frame: 3, Confidence: 0.7},
		},
		ConfidenceScores: []float64{0.7, 0.7, 0.7},
	}
	if !agg.Valid(0.6) {
		t.Errorf("expected aggregate to be valid")
	}
	if agg.Valid(0.8) {
		t.Errorf("expected aggregate to be invalid when mean confidence is below threshold")
	}

	empty := Aggregate{TotalFrames: 10}
	if empty.Valid(0.6) {
		t.Errorf("expected an empty aggregate to be invalid")
	}
}
