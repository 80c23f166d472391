package types

// AttributeSet 单帧画面的描述性属性，由视觉分析或元数据提供
type AttributeSet struct {
	Subject        string   `json:"subject,omitempty"`
	Action         string   `json:"action,omitempty"`
	Motion         string   `json:"motion,omitempty"`
	Lighting       string   `json:"lighting,omitempty"`
	Tone           string   `json:"tone,omitempty"`
	SceneType      string   `json:"scene_type,omitempty"`
	DominantColors []string `json:"dominant_colors,omitempty"`
}

// ClipRecord 一个物理片段的规范化表示。path 已解析为绝对路径，
// T1 > T0。规范化之后只读，循环修剪会生成派生字段而不是改写历史。
type ClipRecord struct {
	Id         string
	Path       string
	Base       string
	T0         float64
	T1         float64
	StartAttrs AttributeSet
	EndAttrs   AttributeSet
}

// Duration returns the clip's resolved time span in seconds.
func (c ClipRecord) Duration() float64 {
	return c.T1 - c.T0
}

type TransitionKind string

const (
	TransitionCut       TransitionKind = "cut"
	TransitionCrossfade TransitionKind = "crossfade"
	TransitionFadeBlack TransitionKind = "fade_black"
)

// Transition 相邻两个片段之间的衔接方式。Kind 和 Duration
// 由 Score 唯一确定，不允许单独设置。
type Transition struct {
	FromId   string
	ToId     string
	Score    float64
	Kind     TransitionKind
	Duration float64
}

// LoopBounds 循环边界检测结果：保留区间与动作强度
type LoopBounds struct {
	MotionStart    float64
	CleanDuration  float64
	MotionStrength float64
}
