package loopdetect

import (
	"context"
	"math"
	"os"

	"stitch-ai/internal/types"
)

var startProbeLadder = []float64{0.2, 0.4, 0.6, 0.8, 1.0}

// Options are the tunables of the boundary scan. Zero values fall back
// to the defaults.
type Options struct {
	// SimilarityThreshold is the histogram correlation below which a
	// frame no longer counts as part of the static opening.
	SimilarityThreshold float64
	// WorkDir is the scratch directory for sampled frames.
	WorkDir string
}

// Detector finds the clean-motion interval of a clip by comparing frame
// histograms against a reference frame near the head of the clip.
type Detector struct {
	sampler types.FrameSampler
	opts    Options
}

func NewDetector(sampler types.FrameSampler, opts Options) *Detector {
	if opts.SimilarityThreshold <= 0 {
		opts.SimilarityThreshold = 0.85
	}
	if opts.WorkDir == "" {
		opts.WorkDir = os.TempDir()
	}
	return &Detector{sampler: sampler, opts: opts}
}

// Detect locates where motion starts and ends inside one clip. The scan
// itself never fails: an unreadable reference frame degrades to a
// conservative middle interval, and frames that cannot be extracted are
// skipped in the end scan instead of registering as motion peaks.
func (d *Detector) Detect(ctx context.Context, videoPath string, duration float64) types.LoopBounds {
	if duration <= 0 {
		return types.LoopBounds{}
	}

	ref, _ := d.frameHistogram(ctx, videoPath, 0.1)
	if ref == nil {
		return types.LoopBounds{
			MotionStart:    duration * 0.2,
			CleanDuration:  duration * 0.6,
			MotionStrength: 0,
		}
	}

	motionStart := duration * 0.1
	for _, ts := range startProbeLadder {
		if ts >= duration*0.8 {
			break
		}
		if d.similarityTo(ctx, ref, videoPath, ts) < d.opts.SimilarityThreshold {
			motionStart = ts
			break
		}
	}

	// The end boundary sits just past the frame that differs most from
	// the reference. A frame that could not be extracted at all is
	// skipped rather than counted as a peak; a frame that extracted but
	// failed to decode still compares as fully changed.
	motionEnd := duration * 0.7
	maxDiff := 0.0
	for ts := motionStart + 0.5; ts <= duration*0.85; ts += 0.15 {
		hist, sampled := d.frameHistogram(ctx, videoPath, ts)
		if !sampled {
			continue
		}
		sim := 0.0
		if hist != nil {
			sim = math.Max(0.0, correlation(ref, hist))
		}
		if diff := 1.0 - sim; diff > maxDiff {
			maxDiff = diff
			motionEnd = ts + 0.2
		}
	}

	motionStart = math.Max(motionStart, duration*0.05)
	motionEnd = math.Min(motionEnd, duration*0.85)
	motionEnd = math.Max(motionEnd, motionStart+1.0)

	return types.LoopBounds{
		MotionStart:    motionStart,
		CleanDuration:  motionEnd - motionStart,
		MotionStrength: maxDiff,
	}
}

// similarityTo samples one frame and correlates its histogram against
// the reference. Any failure counts as no similarity; negative
// correlation is treated as no similarity too.
func (d *Detector) similarityTo(ctx context.Context, ref histogram, videoPath string, ts float64) float64 {
	hist, _ := d.frameHistogram(ctx, videoPath, ts)
	if hist == nil {
		return 0
	}
	return math.Max(0.0, correlation(ref, hist))
}

// frameHistogram samples and bins one frame. sampled reports whether a
// frame file was extracted at all; a nil histogram with sampled true
// means the frame extracted but did not decode.
func (d *Detector) frameHistogram(ctx context.Context, videoPath string, ts float64) (histogram, bool) {
	f, err := os.CreateTemp(d.opts.WorkDir, "frame_*.jpg")
	if err != nil {
		return nil, false
	}
	framePath := f.Name()
	f.Close()
	defer os.Remove(framePath)

	if err := d.sampler.SampleFrame(ctx, videoPath, ts, framePath); err != nil {
		return nil, false
	}

	img, err := loadImage(framePath)
	if err != nil {
		return nil, true
	}
	return hsvHistogram(img), true
}
