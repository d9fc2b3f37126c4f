//go:build withcv

package verify

import (
	"testing"

	"gocv.io/x/gocv"

	"github.com/SuryaSundarVadali/holoscan/hologram/config"
	"github.com/SuryaSundarVadali/holoscan/hologram/geom"
)

func testConfig() config.Config {
	return config.Config{
		BackgroundFrames:   15,
		HueEnergyThreshold: 0.15,
	}
}

func solidFrame(w, h int, b, g, r byte) gocv.Mat {
	m := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.SetUCharAt3(y, x, 0, b)
			m.SetUCharAt3(y, x, 1, g)
			m.SetUCharAt3(y, x, 2, r)
		}
	}
	return m
}

// rainbowFrame builds a frame whose hue varies linearly across its
// width, offset by phase, giving the diff image spatial texture when
// compared against a differently-phased background — the signature a
// genuine diffractive surface leaves, as opposed to a flat print.
func rainbowFrame(w, h int, phaseHue byte) gocv.Mat {
	hsvImg := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			hue := byte((int(phaseHue) + x*180/w) % 180)
			hsvImg.SetUCharAt3(y, x, 0, hue)
			hsvImg.SetUCharAt3(y, x, 1, 200)
			hsvImg.SetUCharAt3(y, x, 2, 200)
		}
	}
	bgr := gocv.NewMat()
	gocv.CvtColor(hsvImg, &bgr, gocv.ColorHSVToBGR)
	hsvImg.Close()
	return bgr
}

func TestVerifyStaticRegionIsNotHologram(t *testing.T) {
	v := New(testConfig())

	for i := 0; i < 15; i++ {
		f := solidFrame(80, 80, 50, 100, 200)
		v.Add(f)
		f.Close()
	}

	probe := solidFrame(80, 80, 50, 100, 200)
	defer probe.Close()

	results := v.Verify(probe, []geom.BBox{{X: 10, Y: 10, W: 40, H: 40}})
	if len(results) != 1 {
		t.Fatalf("expected one result, got %d", len(results))
	}
	if results[0].IsHologram {
		t.Errorf("expected a static solid region to not be flagged as a hologram")
	}
}

func TestVerifyHueShiftingRegionIsHologram(t *testing.T) {
	v := New(testConfig())

	for i := 0; i < 15; i++ {
		f := rainbowFrame(80, 80, 0)
		v.Add(f)
		f.Close()
	}

	probe := rainbowFrame(80, 80, 90)
	defer probe.Close()

	results := v.Verify(probe, []geom.BBox{{X: 10, Y: 10, W: 40, H: 40}})
	if len(results) != 1 {
		t.Fatalf("expected one result, got %d", len(results))
	}
	if !results[0].IsHologram {
		t.Errorf("expected a hue-shifting region to be flagged as a hologram, confidence=%f", results[0].Confidence)
	}
}

func TestResetClearsBackground(t *testing.T) {
	v := New(testConfig())
	f := solidFrame(40, 40, 1, 2, 3)
	v.Add(f)
	f.Close()

	v.Reset()
	if v.HasBackground() {
		t.Errorf("expected no background model after Reset")
	}
}

func TestGradientHistogramLength(t *testing.T) {
	f := solidFrame(64, 64, 10, 20, 30)
	defer f.Close()

	features := gradientHistogram(f)
	if len(features) != hogFeatureLength {
		t.Errorf("expected %d features, got %d", hogFeatureLength, len(features))
	}
}

func TestLinearClassifierLearnsSeparableData(t *testing.T) {
	c := newLinearClassifier(2)
	features := [][]float64{
		{0, 0}, {0.1, 0.1}, {5, 5}, {5.1, 4.9},
	}
	labels := []int{0, 0, 1, 1}
	c.fit(features, labels)

	label, _ := c.predict([]float64{5, 5})
	if !label {
		t.Errorf("expected positive class for a point near the positive cluster")
	}
	label, _ = c.predict([]float64{0, 0})
	if label {
		t.Errorf("expected negative class for a point near the negative cluster")
	}
}
