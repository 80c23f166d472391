package manifest

// Version marks manifests produced by this planner. Loading tolerates
// older shapes, see Load.
const Version = "smart_v1"

// DefaultClipSeconds is the assumed clip length when metadata carries no
// usable bounds, matching the generation pipeline's segment length.
const DefaultClipSeconds = 5.0

// PlaceholderEnd marks an item whose real end is unknown and must be
// probed before rendering.
const PlaceholderEnd = -1.0

// Transition describes the join between two consecutive items.
type Transition struct {
	FromClip string  `json:"from_clip"`
	ToClip   string  `json:"to_clip"`
	Type     string  `json:"type"`
	Duration float64 `json:"duration"`
	Score    float64 `json:"score"`
}

// Item is one placed clip on the output timeline. The pointer fields are
// written by the refinement passes and stay absent until then.
type Item struct {
	Path         string      `json:"path"`
	T0           float64     `json:"t0"`
	T1           float64     `json:"t1"`
	Base         string      `json:"base,omitempty"`
	TransitionIn *Transition `json:"transition_in"`

	// margin refinement
	ClipStart *float64 `json:"clip_start,omitempty"`
	ClipEnd   *float64 `json:"clip_end,omitempty"`

	// loop-boundary refinement, original duration kept so the saved time
	// stays auditable
	OriginalDuration *float64 `json:"original_duration,omitempty"`
	StartTrim        *float64 `json:"start_trim,omitempty"`
	CleanDuration    *float64 `json:"clean_duration,omitempty"`
	MotionStrength   *float64 `json:"motion_strength,omitempty"`
}

// Duration is the timeline length of the item.
func (it Item) Duration() float64 {
	return it.T1 - it.T0
}

// OptimizationSummary aggregates the sequencing result.
type OptimizationSummary struct {
	TotalClips         int     `json:"total_clips"`
	AvgTransitionScore float64 `json:"avg_transition_score"`
}

// LoopDetection aggregates the loop-trim pass.
type LoopDetection struct {
	TotalClips     int     `json:"total_clips"`
	TotalTimeSaved float64 `json:"total_time_saved"`
	TrimmingMethod string  `json:"trimming_method"`
}

// Manifest is the persisted plan handed to the rendering stage. It is the
// pipeline's sole artifact and is always rewritten wholesale.
type Manifest struct {
	Version       string               `json:"version"`
	Items         []Item               `json:"items"`
	Transitions   []Transition         `json:"transitions,omitempty"`
	TotalDuration float64              `json:"total_duration"`
	Optimization  *OptimizationSummary `json:"optimization_summary,omitempty"`
	LoopDetection *LoopDetection       `json:"loop_detection,omitempty"`
}
