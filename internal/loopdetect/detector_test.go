package loopdetect

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedSampler renders synthetic frames instead of invoking ffmpeg.
// mix controls the fraction of pixels drawn in the alternate color, so
// tests can script how far each timestamp drifts from the reference.
// corrupt writes garbage bytes instead of an image, simulating a frame
// that extracts but fails to decode.
type scriptedSampler struct {
	fail    func(ts float64) bool
	corrupt func(ts float64) bool
	mix     func(ts float64) float64
}

func (s scriptedSampler) SampleFrame(_ context.Context, _ string, ts float64, outPath string) error {
	if s.fail != nil && s.fail(ts) {
		return errors.New("采样失败 sample failed")
	}
	if s.corrupt != nil && s.corrupt(ts) {
		return os.WriteFile(outPath, []byte("not an image"), 0o644)
	}

	frac := 0.0
	if s.mix != nil {
		frac = s.mix(ts)
	}

	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	cut := int(frac * 400.0)
	n := 0
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			if n < cut {
				img.SetRGBA(x, y, color.RGBA{R: 30, G: 60, B: 200, A: 255})
			} else {
				img.SetRGBA(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
			}
			n++
		}
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

func newTestDetector(t *testing.T, sampler scriptedSampler) *Detector {
	t.Helper()
	return NewDetector(sampler, Options{WorkDir: t.TempDir()})
}

func TestDetectStaticClip(t *testing.T) {
	d := newTestDetector(t, scriptedSampler{})

	bounds := d.Detect(context.Background(), "static.mp4", 10.0)

	assert.InDelta(t, 1.0, bounds.MotionStart, 1e-9)
	assert.InDelta(t, 6.0, bounds.CleanDuration, 1e-9)
	assert.InDelta(t, 0.0, bounds.MotionStrength, 1e-9)
}

func TestDetectMotionAfterStaticOpening(t *testing.T) {
	// 前 0.5 秒静止 static until 0.5s, hard scene change afterwards.
	d := newTestDetector(t, scriptedSampler{
		mix: func(ts float64) float64 {
			if ts < 0.5 {
				return 0.0
			}
			return 1.0
		},
	})

	bounds := d.Detect(context.Background(), "kick.mp4", 10.0)

	assert.InDelta(t, 0.6, bounds.MotionStart, 1e-9)
	// the end probe lands right after motion begins, then the one
	// second floor stretches the interval
	assert.InDelta(t, 1.0, bounds.CleanDuration, 1e-9)
	assert.Greater(t, bounds.MotionStrength, 0.9)
}

func TestDetectGradualDrift(t *testing.T) {
	// difference grows with time, so the farthest probe wins and the
	// end boundary hits the 85% cap
	d := newTestDetector(t, scriptedSampler{
		mix: func(ts float64) float64 { return ts / 12.0 },
	})

	bounds := d.Detect(context.Background(), "drift.mp4", 10.0)

	assert.InDelta(t, 1.0, bounds.MotionStart, 1e-9)
	assert.InDelta(t, 7.5, bounds.CleanDuration, 1e-6)
	assert.Greater(t, bounds.MotionStrength, 0.3)
}

func TestDetectUnreadableReference(t *testing.T) {
	d := newTestDetector(t, scriptedSampler{
		fail: func(float64) bool { return true },
	})

	bounds := d.Detect(context.Background(), "broken.mp4", 10.0)

	assert.InDelta(t, 2.0, bounds.MotionStart, 1e-9)
	assert.InDelta(t, 6.0, bounds.CleanDuration, 1e-9)
	assert.InDelta(t, 0.0, bounds.MotionStrength, 1e-9)
}

func TestDetectUnreadableFrames(t *testing.T) {
	// reference readable, every later extraction fails: the start ladder
	// sees zero similarity, the end scan skips every failed sample and
	// keeps the default end boundary instead of reporting full motion
	d := newTestDetector(t, scriptedSampler{
		fail: func(ts float64) bool { return ts > 0.15 },
	})

	bounds := d.Detect(context.Background(), "flaky.mp4", 10.0)

	assert.InDelta(t, 0.5, bounds.MotionStart, 1e-9)
	assert.InDelta(t, 6.5, bounds.CleanDuration, 1e-9)
	assert.InDelta(t, 0.0, bounds.MotionStrength, 1e-9)
}

func TestDetectEndScanSkipsFailedSamples(t *testing.T) {
	// an otherwise static clip with a patch of extraction failures in the
	// middle: the failures must not register as a motion peak
	d := newTestDetector(t, scriptedSampler{
		fail: func(ts float64) bool { return ts >= 2.0 && ts <= 3.0 },
	})

	bounds := d.Detect(context.Background(), "patchy.mp4", 10.0)

	assert.InDelta(t, 1.0, bounds.MotionStart, 1e-9)
	assert.InDelta(t, 6.0, bounds.CleanDuration, 1e-9)
	assert.InDelta(t, 0.0, bounds.MotionStrength, 1e-9)
}

func TestDetectCorruptFrameCountsAsChange(t *testing.T) {
	// frames that extract but fail to decode still compare as fully
	// changed, so the end boundary lands just past the first corrupt one
	d := newTestDetector(t, scriptedSampler{
		corrupt: func(ts float64) bool { return ts >= 2.0 },
	})

	bounds := d.Detect(context.Background(), "garbled.mp4", 10.0)

	assert.InDelta(t, 1.0, bounds.MotionStart, 1e-9)
	assert.InDelta(t, 1.3, bounds.CleanDuration, 1e-6)
	assert.InDelta(t, 1.0, bounds.MotionStrength, 1e-9)
}

func TestDetectZeroDuration(t *testing.T) {
	d := newTestDetector(t, scriptedSampler{})

	bounds := d.Detect(context.Background(), "empty.mp4", 0)

	assert.Zero(t, bounds.MotionStart)
	assert.Zero(t, bounds.CleanDuration)
	assert.Zero(t, bounds.MotionStrength)
}

func TestDetectBoundsStayInsideClip(t *testing.T) {
	hardChange := func(ts float64) float64 {
		if ts > 0.3 {
			return 1.0
		}
		return 0.0
	}

	cases := []struct {
		name    string
		sampler scriptedSampler
	}{
		{"static", scriptedSampler{}},
		{"hard change", scriptedSampler{mix: hardChange}},
		{"drift", scriptedSampler{mix: func(ts float64) float64 { return ts / 15.0 }}},
		{"all fail", scriptedSampler{fail: func(float64) bool { return true }}},
		{"late fail", scriptedSampler{fail: func(ts float64) bool { return ts > 2.0 }}},
	}

	for _, tt := range cases {
		for _, duration := range []float64{5.0, 10.0} {
			d := newTestDetector(t, tt.sampler)
			bounds := d.Detect(context.Background(), "clip.mp4", duration)

			assert.GreaterOrEqual(t, bounds.MotionStart, duration*0.05, "%s d=%.0f", tt.name, duration)
			assert.LessOrEqual(t, bounds.MotionStart+bounds.CleanDuration, duration*0.85+1e-9, "%s d=%.0f", tt.name, duration)
			assert.GreaterOrEqual(t, bounds.CleanDuration, 1.0-1e-9, "%s d=%.0f", tt.name, duration)
		}
	}
}

func TestRGBToHSV(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b float64
		h, s, v float64
	}{
		{"red", 1, 0, 0, 0, 1, 1},
		{"green", 0, 1, 0, 120, 1, 1},
		{"blue", 0, 0, 1, 240, 1, 1},
		{"white", 1, 1, 1, 0, 0, 1},
		{"black", 0, 0, 0, 0, 0, 0},
		{"gray", 0.5, 0.5, 0.5, 0, 0, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, s, v := rgbToHSV(tt.r, tt.g, tt.b)
			assert.InDelta(t, tt.h, h, 1e-9)
			assert.InDelta(t, tt.s, s, 1e-9)
			assert.InDelta(t, tt.v, v, 1e-9)
		})
	}
}

func TestCorrelation(t *testing.T) {
	solid := func(bin int) histogram {
		h := make(histogram, hueBins*satBins*valBins)
		h[bin] = 1.0
		return h
	}

	assert.InDelta(t, 1.0, correlation(solid(0), solid(0)), 1e-9)
	// disjoint one-hot histograms are essentially uncorrelated
	assert.InDelta(t, 0.0, correlation(solid(0), solid(7)), 1e-3)
	assert.Zero(t, correlation(solid(0), make(histogram, 3)))
	assert.Zero(t, correlation(nil, nil))
}

func TestHistogramOfUniformImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 255, A: 255})
		}
	}

	hist := hsvHistogram(img)

	sum := 0.0
	nonZero := 0
	for _, v := range hist {
		sum += v
		if v > 0 {
			nonZero++
		}
	}
	require.Equal(t, 1, nonZero)
	assert.InDelta(t, 1.0, sum, 1e-9)
}
