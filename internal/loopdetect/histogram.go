package loopdetect

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
)

// Histogram geometry: hue on the halved 0..180 degree scale, saturation
// and value on 0..256, matching the comparison the planning stage was
// tuned against.
const (
	hueBins = 50
	satBins = 60
	valBins = 60
)

type histogram []float64

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	return img, err
}

// hsvHistogram bins every pixel into 50×60×60 HSV cells and normalizes
// the result to unit sum.
func hsvHistogram(img image.Image) histogram {
	hist := make(histogram, hueBins*satBins*valBins)
	bounds := img.Bounds()

	total := 0.0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			h, s, v := rgbToHSV(float64(r>>8)/255.0, float64(g>>8)/255.0, float64(b>>8)/255.0)

			hIdx := clampBin(int(h/360.0*float64(hueBins)), hueBins)
			sIdx := clampBin(int(s*float64(satBins)), satBins)
			vIdx := clampBin(int(v*float64(valBins)), valBins)

			hist[(hIdx*satBins+sIdx)*valBins+vIdx]++
			total++
		}
	}

	if total > 0 {
		for i := range hist {
			hist[i] /= total
		}
	}
	return hist
}

func clampBin(idx, bins int) int {
	if idx < 0 {
		return 0
	}
	if idx >= bins {
		return bins - 1
	}
	return idx
}

// rgbToHSV converts [0,1] RGB to hue in degrees [0,360) and saturation/
// value in [0,1].
func rgbToHSV(r, g, b float64) (float64, float64, float64) {
	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	v := max
	d := max - min

	s := 0.0
	if max > 0 {
		s = d / max
	}

	h := 0.0
	if d > 0 {
		switch max {
		case r:
			h = math.Mod((g-b)/d, 6.0)
		case g:
			h = (b-r)/d + 2.0
		case b:
			h = (r-g)/d + 4.0
		}
		h *= 60.0
		if h < 0 {
			h += 360.0
		}
	}
	return h, s, v
}

// correlation is the Pearson correlation of two histograms, the
// comparison OpenCV calls HISTCMP_CORREL.
func correlation(a, b histogram) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	n := float64(len(a))
	meanA, meanB := 0.0, 0.0
	for i := range a {
		meanA += a[i]
		meanB += b[i]
	}
	meanA /= n
	meanB /= n

	num, varA, varB := 0.0, 0.0, 0.0
	for i := range a {
		da, db := a[i]-meanA, b[i]-meanB
		num += da * db
		varA += da * da
		varB += db * db
	}

	denom := math.Sqrt(varA * varB)
	if denom == 0 {
		return 0
	}
	return num / denom
}
