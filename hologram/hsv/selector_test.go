//go:build withcv

package hsv

import (
	"testing"

	"gocv.io/x/gocv"

	"github.com/SuryaSundarVadali/holoscan/hologram/config"
)

func testConfig() config.Config {
	return config.Config{
		SPercentile:          70,
		VPercentile:          60,
		MinRegionArea:        100,
		HueVarianceThreshold: 0.15,
	}
}

// huePinwheelFrame builds a frame with a gray background and a central
// patch whose hue varies across its width, so the patch has both high
// saturation/value and high circular hue variance.
func huePinwheelFrame(w, h int) gocv.Mat {
	hsvImg := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x > w/4 && x < 3*w/4 && y > h/4 && y < 3*h/4 {
				hue := byte((x * 180 / w) % 180)
				hsvImg.SetUCharAt(y, x*3, hue)
				hsvImg.SetUCharAt(y, x*3+1, 200)
				hsvImg.SetUCharAt(y, x*3+2, 200)
			} else {
				hsvImg.SetUCharAt(y, x*3, 0)
				hsvImg.SetUCharAt(y, x*3+1, 0)
				hsvImg.SetUCharAt(y, x*3+2, 120)
			}
		}
	}
	bgr := gocv.NewMat()
	gocv.CvtColor(hsvImg, &bgr, gocv.ColorHSVToBGR)
	hsvImg.Close()
	return bgr
}

// solidColorFrame builds a frame with a gray background and a solidly
// coloured patch: saturated and bright, but a single hue, so circular
// hue variance should be near zero.
func solidColorFrame(w, h int) gocv.Mat {
	hsvImg := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x > w/4 && x < 3*w/4 && y > h/4 && y < 3*h/4 {
				hsvImg.SetUCharAt(y, x*3, 10)
				hsvImg.SetUCharAt(y, x*3+1, 200)
				hsvImg.SetUCharAt(y, x*3+2, 200)
			} else {
				hsvImg.SetUCharAt(y, x*3, 0)
				hsvImg.SetUCharAt(y, x*3+1, 0)
				hsvImg.SetUCharAt(y, x*3+2, 120)
			}
		}
	}
	bgr := gocv.NewMat()
	gocv.CvtColor(hsvImg, &bgr, gocv.ColorHSVToBGR)
	hsvImg.Close()
	return bgr
}

func TestSelectAcceptsHueVaryingPatch(t *testing.T) {
	sel := New(testConfig())
	frame := huePinwheelFrame(160, 120)
	defer frame.Close()

	boxes, mask := sel.Select(frame)
	defer mask.Close()

	if len(boxes) == 0 {
		t.Fatalf("expected at least one region for a hue-varying patch")
	}
}

func TestSelectRejectsSolidColorPatch(t *testing.T) {
	sel := New(testConfig())
	frame := solidColorFrame(160, 120)
	defer frame.Close()

	boxes, mask := sel.Select(frame)
	defer mask.Close()

	if len(boxes) != 0 {
		t.Errorf("expected no regions for a single-hue saturated patch, got %d", len(boxes))
	}
}

func TestCircularHueVarianceBounds(t *testing.T) {
	hue := make([]uint8, 100)
	for i := range hue {
		hue[i] = uint8((i * 179) / 100)
	}
	labels := gocv.NewMatWithSize(10, 10, gocv.MatTypeCV32S)
	defer labels.Close()
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			labels.SetIntAt(y, x, 1)
		}
	}

	v, ok := circularHueVariance(hue, 10, labels, 10, 10, 1)
	if !ok {
		t.Fatalf("expected enough samples for variance")
	}
	if v < 0 || v > 1 {
		t.Errorf("circular hue variance out of [0,1]: %f", v)
	}
}
